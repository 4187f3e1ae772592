/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"errors"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/fulmenhq/docbridge/internal/adapters"
	"github.com/fulmenhq/docbridge/internal/bridge"
	"github.com/fulmenhq/docbridge/internal/render"
	"github.com/fulmenhq/docbridge/pkg/config"
	"github.com/fulmenhq/docbridge/pkg/exitcode"
)

// exitError carries a process exit code through cobra's error path.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// newEngine wires config, the render provider, and the adapter registry for
// one invocation. Config failures are reported through the same envelope as
// every other failure, then mapped to the config exit code.
func newEngine(cmd *cobra.Command) (*bridge.Engine, error) {
	root, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	override, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(root, override)
	if err != nil {
		return nil, configFailure(cmd, err)
	}
	provider, err := render.NewManifestProvider(root)
	if err != nil {
		return nil, &exitError{code: exitcode.GeneralError, err: err}
	}
	return bridge.New(root, cfg, provider, bridge.WithAdapters(adapters.Registry())), nil
}

// configFailure emits a report envelope for an unloadable config so that
// automation sees the same shape on every failure mode.
func configFailure(cmd *cobra.Command, err error) error {
	issue := bridge.Issue{
		Code:     bridge.CodeInvalidConfig,
		Message:  err.Error(),
		Severity: bridge.SeverityError,
	}
	var cfgErr *config.ConfigError
	if errors.As(err, &cfgErr) {
		issue.Code = cfgErr.Code
		issue.Message = cfgErr.Message
		issue.Remediation = cfgErr.Remediation
	}
	rep := &bridge.Report{
		Status:      "error",
		Command:     cmd.Name(),
		GeneratedAt: time.Now().UTC(),
		SchemaID:    config.SchemaID,
		Sections:    []bridge.SectionReport{},
		Issues:      []bridge.Issue{issue},
	}
	if emitErr := emit(cmd, rep); emitErr != nil {
		var exitErr *exitError
		if !errors.As(emitErr, &exitErr) {
			return emitErr
		}
	}
	return &exitError{code: exitcode.ConfigError, err: err}
}

// emit renders the report to stdout and converts report errors into the
// process exit code.
func emit(cmd *cobra.Command, rep *bridge.Report) error {
	jsonOut, _ := cmd.Flags().GetBool("json")
	noColor, _ := cmd.Flags().GetBool("no-color")
	f := bridge.NewFormatter(!noColor && !jsonOut)

	var out string
	if jsonOut {
		s, err := f.FormatJSON(rep)
		if err != nil {
			return err
		}
		out = s
	} else {
		out = f.FormatPretty(rep)
	}
	cmd.OutOrStdout().Write([]byte(out)) //nolint:errcheck

	// Key off the envelope status as well so a report whose sections ended
	// in an error state can never exit zero, even when no issue maps to it.
	if rep.HasErrors() || rep.Status == "error" {
		return &exitError{code: exitFor(rep), err: errors.New("report contains errors")}
	}
	return nil
}

// exitFor maps issue codes to exit codes, most specific first.
func exitFor(rep *bridge.Report) int {
	hasCode := func(code string) bool {
		for _, iss := range rep.Issues {
			if iss.Code == code && iss.Severity == bridge.SeverityError {
				return true
			}
		}
		return false
	}
	switch {
	case hasCode(bridge.CodeInvalidConfig):
		return exitcode.ConfigError
	case hasCode(bridge.CodeConflict):
		return exitcode.ConflictError
	case hasCode(bridge.CodeMissingFile), hasCode(bridge.CodeRootMissing):
		return exitcode.FileSystemError
	case hasCode(bridge.CodeDuplicateMarker), hasCode(bridge.CodeCorruptedMarkers),
		hasCode(bridge.CodeAnchorNotFound), hasCode(bridge.CodeSizeBudgetExceeded),
		hasCode(bridge.CodeMissingMarker):
		return exitcode.ValidationError
	default:
		return exitcode.GeneralError
	}
}

// run builds the engine, executes one verb, and emits its report.
func run(cmd *cobra.Command, verb func(*bridge.Engine) (*bridge.Report, error)) error {
	eng, err := newEngine(cmd)
	if err != nil {
		return err
	}
	rep, err := verb(eng)
	if err != nil {
		return err
	}
	return emit(cmd, rep)
}
