// Package cli parses command-line arguments into an app.Config, with usage
// text and exit-code-carrying errors for the entrypoint to surface.
package cli
