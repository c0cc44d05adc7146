// Package cli is responsible for parsing command-line arguments, validating
// user input, and handling process-level concerns like exit codes. It
// translates CLI flags into the application's internal configuration.
package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/vk/hwtree/internal/app"
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

// Parse processes command-line arguments. It returns a populated app
// config, a boolean indicating if the program should exit cleanly, or an
// ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	flagSet := flag.NewFlagSet("hwtree", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
hwtree - hierarchical hardware-state documents and their flat backend config.

Usage:
  hwtree [options] STATE_PATH

Arguments:
  STATE_PATH
    Path to a JSON state document.

Options:
`)
		flagSet.PrintDefaults()
	}

	stateFlag := flagSet.String("state", "", "Path to the JSON state document.")
	sFlag := flagSet.String("s", "", "Path to the JSON state document (shorthand).")
	modeFlag := flagSet.String("mode", "generate", "Operation: 'generate' prints the flat config, 'resave' prints the re-serialized document.")
	manifestsFlag := flagSet.String("manifests", "", "Optional path to a directory of HCL component manifests.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	path := ""
	if *stateFlag != "" {
		path = *stateFlag
	} else if *sFlag != "" {
		path = *sFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	if path == "" {
		flagSet.Usage()
		return nil, true, nil
	}

	mode := strings.ToLower(*modeFlag)
	if mode != "generate" && mode != "resave" {
		return nil, false, &ExitError{Code: 2, Message: "invalid mode: must be 'generate' or 'resave'"}
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

	return &app.Config{
		StatePath:     path,
		Mode:          mode,
		ManifestsPath: *manifestsFlag,
		LogFormat:     logFormat,
		LogLevel:      logLevel,
	}, false, nil
}
