package cli

import (
	"bytes"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/ldc/internal/canon"
	"github.com/roach88/ldc/internal/eval"
	"github.com/roach88/ldc/internal/interp"
)

// NewVerifyCommand builds the "verify" subcommand: recompute a
// document's evaluation and check a previously issued signature header
// against it (spec §4.11).
func NewVerifyCommand(root *RootOptions) *cobra.Command {
	var sig, secretPath, configPath, optionsPath, cachePath string

	cmd := &cobra.Command{
		Use:   "verify <file>",
		Short: "verify a signature header against a document's evaluation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if sig == "" || secretPath == "" {
				return NewExitError(ExitCommandError, "--sig and --secret are required")
			}
			formatter := evalFormatter(root, false, cmd)

			opts, closeCache, err := buildOptions(configPath, optionsPath, cachePath)
			if err != nil {
				return WrapExitError(ExitCommandError, "loading configuration", err)
			}
			defer closeCache()
			data, err := os.ReadFile(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "reading document", err)
			}
			secret, err := os.ReadFile(secretPath)
			if err != nil {
				return WrapExitError(ExitCommandError, "reading secret", err)
			}
			secret = bytes.TrimSpace(secret)

			ok, runID, err := verifyDocument(data, *opts, sig, secret)
			if err != nil {
				return WrapExitError(ExitCommandError, "verifying signature", err)
			}
			if err := formatter.SuccessWithTrace(map[string]bool{"valid": ok}, runID); err != nil {
				return WrapExitError(ExitCommandError, "writing output", err)
			}
			if !ok {
				return NewExitError(ExitFailure, "signature verification failed")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&sig, "sig", "", "signature header to verify (required)")
	cmd.Flags().StringVar(&secretPath, "secret", "", "path to a file holding the HMAC secret (required)")
	cmd.Flags().StringVar(&configPath, "config", "ldc.toml", "project config path (unit/currency overrides)")
	cmd.Flags().StringVar(&optionsPath, "options", "", "evaluator options YAML path")
	cmd.Flags().StringVar(&cachePath, "relation-cache", "", "path to a SQLite file caching loaded @relations documents")

	return cmd
}

func verifyDocument(data []byte, opts eval.Options, header string, secret []byte) (bool, string, error) {
	res, err := eval.Evaluate(data, opts)
	if err != nil {
		return false, "", err
	}
	docVal, err := interp.DecodeDocument(data)
	if err != nil {
		return false, res.RunID, err
	}
	docCanon, err := eval.ToCanonValue(docVal)
	if err != nil {
		return false, res.RunID, err
	}
	payload, err := res.SignablePayload(docCanon, effectiveOptionsCanon(opts), capsCanon(opts.Caps))
	if err != nil {
		return false, res.RunID, err
	}
	ok, err := canon.Verify(payload, header, secret, time.Now().UTC())
	return ok, res.RunID, err
}
