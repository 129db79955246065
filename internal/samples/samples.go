// Package samples builds the sample and response universe: the global union
// of samples across all runs, and the per-run ordered sample and response
// lists read from plain-text files.
package samples

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/genoflow/genoflow/internal/config"
)

// ErrMissingInput marks a sample-list or response-list file that does not
// exist. The wrapping error names the file.
var ErrMissingInput = errors.New("missing input file")

// Global reads every run's sample list and unions the identifiers. Every
// sample any run references appears in the returned set. The set is built
// once at startup and treated as read-only afterwards.
func Global(cfg *config.Config) (map[string]struct{}, error) {
	global := make(map[string]struct{})
	for _, name := range cfg.RunNames() {
		ids, err := Run(cfg.Runs[name])
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			global[id] = struct{}{}
		}
	}
	return global, nil
}

// Run returns one run's samples in the order they appear in its sample-list
// file. File order is preserved because it fixes the intended column order
// of downstream reports.
func Run(r *config.Run) ([]string, error) {
	return readList(r.SampleList)
}

// Responses returns one run's response identifiers in file order.
func Responses(r *config.Run) ([]string, error) {
	return readList(r.ResponseList)
}

// readList reads one identifier per line, trimming whitespace and skipping
// blank lines.
func readList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %q", ErrMissingInput, path)
		}
		return nil, fmt.Errorf("reading %q: %w", path, err)
	}
	defer f.Close()

	var ids []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		id := strings.TrimSpace(scanner.Text())
		if id == "" {
			continue
		}
		ids = append(ids, id)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %q: %w", path, err)
	}
	return ids, nil
}
