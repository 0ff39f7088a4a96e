package cli

import (
	"encoding/json"
	"os"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"

	"github.com/roach88/ldc/internal/canon"
	"github.com/roach88/ldc/internal/eval"
)

// NewQueryCommand builds the "query" subcommand: evaluate a document and
// print its result, optionally diffing it against a second evaluation
// (operator tooling for cache-invalidation debugging: did this document
// or its relations change in a way that moved the computed output?).
func NewQueryCommand(root *RootOptions) *cobra.Command {
	var diffPath, configPath, optionsPath, cachePath string

	cmd := &cobra.Command{
		Use:   "query <file>",
		Short: "evaluate a document and print its computed result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := evalFormatter(root, false, cmd)
			opts, closeCache, err := buildOptions(configPath, optionsPath, cachePath)
			if err != nil {
				return WrapExitError(ExitCommandError, "loading configuration", err)
			}
			defer closeCache()

			res, err := evaluateFile(args[0], *opts)
			if err != nil {
				return err
			}

			if diffPath == "" {
				return formatter.SuccessWithTrace(newResultView(res), res.RunID)
			}

			other, err := evaluateFile(diffPath, *opts)
			if err != nil {
				return err
			}
			text, err := diffResults(res, other)
			if err != nil {
				return WrapExitError(ExitCommandError, "diffing results", err)
			}
			return formatter.Success(text)
		},
	}

	cmd.Flags().StringVar(&diffPath, "diff", "", "path to a second document; print a diff of the two canonical results")
	cmd.Flags().StringVar(&configPath, "config", "ldc.toml", "project config path (unit/currency overrides)")
	cmd.Flags().StringVar(&optionsPath, "options", "", "evaluator options YAML path")
	cmd.Flags().StringVar(&cachePath, "relation-cache", "", "path to a SQLite file caching loaded @relations documents")

	return cmd
}

func evaluateFile(path string, opts eval.Options) (*eval.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "reading document", err)
	}
	res, err := eval.Evaluate(data, opts)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "evaluating document", err)
	}
	return res, nil
}

// canonicalResultJSON renders a result's printable view through canon so
// the diff below compares the same deterministic byte ordering a
// signature would (sorted keys, no incidental whitespace differences).
func canonicalResultJSON(res *eval.Result) ([]byte, error) {
	raw, err := json.Marshal(newResultView(res))
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	return canon.Marshal(generic)
}

func diffResults(a, b *eval.Result) (string, error) {
	aJSON, err := canonicalResultJSON(a)
	if err != nil {
		return "", err
	}
	bJSON, err := canonicalResultJSON(b)
	if err != nil {
		return "", err
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(string(aJSON), string(bJSON), false)
	return dmp.DiffPrettyText(diffs), nil
}
