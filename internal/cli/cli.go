package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/genoflow/genoflow/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// stringList collects a repeatable string flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	flagSet := flag.NewFlagSet("genoflow", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
genoflow - a target-graph orchestrator for genomic drug-response pipelines.

Usage:
  genoflow [options] [CONFIG_PATH]

Arguments:
  CONFIG_PATH
    Path to the pipeline configuration (.hcl file).

Options:
`)
		flagSet.PrintDefaults()
	}

	configFlag := flagSet.String("config", "", "Path to the pipeline configuration file.")
	cFlag := flagSet.String("c", "", "Path to the pipeline configuration file (shorthand).")
	var targetFlags stringList
	flagSet.Var(&targetFlags, "target", "Target to build; repeatable. Defaults to everything.")
	workersFlag := flagSet.Int("workers", 4, "Number of concurrent workers for the executor.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	failFastFlag := flagSet.Bool("fail-fast", false, "Cancel the whole run on the first job failure.")
	dryRunFlag := flagSet.Bool("dry-run", false, "Print the build plan without executing anything.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	path := ""
	if *configFlag != "" {
		path = *configFlag
	} else if *cFlag != "" {
		path = *cFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}

	if path == "" {
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	config, err := app.NewConfig(app.Config{
		ConfigPath:  path,
		Targets:     targetFlags,
		LogFormat:   logFormat,
		LogLevel:    logLevel,
		WorkerCount: *workersFlag,
		FailFast:    *failFastFlag,
		DryRun:      *dryRunFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	return config, false, nil
}
