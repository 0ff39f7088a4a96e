package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/ldc/internal/composer"
	"github.com/roach88/ldc/internal/eval"
)

// NewEvalCommand builds the "eval" subcommand: evaluate a single
// document once or under --watch, printing its phase, diagnostics, and
// computed value (spec §6's CLI surface: "eval <file.data> [--watch]
// [--json]").
func NewEvalCommand(root *RootOptions) *cobra.Command {
	var jsonOut, watch bool
	var configPath, optionsPath, cachePath string

	cmd := &cobra.Command{
		Use:   "eval <file>",
		Short: "evaluate a linked-data computation document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := evalFormatter(root, jsonOut, cmd)
			run := func() error { return runEval(args[0], configPath, optionsPath, cachePath, formatter) }

			if !watch {
				return run()
			}
			return watchAndRun(args[0], run, formatter)
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "force JSON output regardless of --format")
	cmd.Flags().BoolVar(&watch, "watch", false, "re-evaluate whenever the file's modification time changes")
	cmd.Flags().StringVar(&configPath, "config", "ldc.toml", "project config path (unit/currency overrides)")
	cmd.Flags().StringVar(&optionsPath, "options", "", "evaluator options YAML path")
	cmd.Flags().StringVar(&cachePath, "relation-cache", "", "path to a SQLite file caching loaded @relations documents")

	return cmd
}

func evalFormatter(root *RootOptions, forceJSON bool, cmd *cobra.Command) *OutputFormatter {
	format := root.Format
	if forceJSON {
		format = "json"
	}
	return &OutputFormatter{Format: format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr(), Verbose: root.Verbose}
}

// buildOptions assembles an eval.Options from the project config and
// options file, optionally wrapping the relation loader in a SQLite-backed
// cache (composer.Cache) when cachePath is set. The returned closer
// releases the cache handle and must be called once the caller is done
// evaluating; it is a no-op when no cache was opened.
func buildOptions(configPath, optionsPath, cachePath string) (*eval.Options, func(), error) {
	proj, err := LoadProjectConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	of, err := LoadOptionsFile(optionsPath)
	if err != nil {
		return nil, nil, err
	}
	opts := of.EvalOptions(proj)

	closer := func() {}
	if cachePath != "" {
		if of.RelationsDir == "" {
			return nil, nil, fmt.Errorf("cli: --relation-cache requires relations_dir in the options file")
		}
		cache, err := composer.OpenCache(cachePath)
		if err != nil {
			return nil, nil, fmt.Errorf("cli: opening relation cache: %w", err)
		}
		opts.RelationCache = cache
		opts.RawLoader = dirRawLoader(of.RelationsDir)
		closer = func() { cache.Close() }
	}

	return &opts, closer, nil
}

func runEval(path, configPath, optionsPath, cachePath string, formatter *OutputFormatter) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "reading document", err)
	}
	opts, closeCache, err := buildOptions(configPath, optionsPath, cachePath)
	if err != nil {
		return WrapExitError(ExitCommandError, "loading configuration", err)
	}
	defer closeCache()

	res, err := eval.Evaluate(data, *opts)
	if err != nil {
		return WrapExitError(ExitCommandError, "evaluating document", err)
	}

	formatter.VerboseLog("phase=%s triples=%d diagnostics=%d", res.Phase, len(res.Triples), len(res.Diagnostics))

	if err := formatter.SuccessWithTrace(newResultView(res), res.RunID); err != nil {
		return WrapExitError(ExitCommandError, "writing output", err)
	}
	if res.Phase == eval.PhaseAborted {
		return NewExitError(ExitFailure, "evaluation aborted")
	}
	return nil
}

// resultView is the JSON/text-printable shape of an eval.Result: the
// façade's own type carries interp.Value and triplestore.Triple, neither
// of which marshal the way a CLI consumer expects.
type resultView struct {
	Phase       string                 `json:"phase"`
	Triples     []tripleView           `json:"triples"`
	Diagnostics []diagnosticView       `json:"diagnostics"`
	Provenance  []eval.ProvenanceEntry `json:"provenance"`
}

type tripleView struct {
	Subject   string `json:"subject"`
	Predicate string `json:"predicate"`
	Object    string `json:"object"`
	Graph     string `json:"graph,omitempty"`
}

type diagnosticView struct {
	Code     string `json:"code"`
	Path     string `json:"path,omitempty"`
	Severity string `json:"severity,omitempty"`
	Message  string `json:"message,omitempty"`
}

func newResultView(res *eval.Result) resultView {
	v := resultView{Phase: string(res.Phase), Provenance: res.Provenance}
	for _, t := range res.Triples {
		v.Triples = append(v.Triples, tripleView{Subject: t.Subject, Predicate: t.Predicate, Object: t.Object, Graph: t.Graph})
	}
	for _, d := range res.Diagnostics {
		v.Diagnostics = append(v.Diagnostics, diagnosticView{Code: string(d.Code), Path: d.Path, Severity: string(d.Severity), Message: d.Message})
	}
	return v
}

func watchAndRun(path string, run func() error, formatter *OutputFormatter) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var lastMod time.Time
	for {
		info, err := os.Stat(path)
		if err != nil {
			return WrapExitError(ExitCommandError, "stat document", err)
		}
		if info.ModTime().After(lastMod) {
			lastMod = info.ModTime()
			if err := run(); err != nil {
				if ec, ok := err.(*ExitError); ok && ec.Code == ExitFailure {
					formatter.VerboseLog("evaluation aborted, continuing to watch")
				} else {
					return err
				}
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(300 * time.Millisecond):
		}
	}
}
