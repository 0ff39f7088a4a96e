package cli

import (
	"bytes"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/ldc/internal/canon"
	"github.com/roach88/ldc/internal/eval"
	"github.com/roach88/ldc/internal/interp"
)

// NewSignCommand builds the "sign" subcommand: evaluate a document and
// emit the HMAC-SHA256 signature header over its canonical payload
// (spec §4.11).
func NewSignCommand(root *RootOptions) *cobra.Command {
	var kid, secretPath, configPath, optionsPath, cachePath string

	cmd := &cobra.Command{
		Use:   "sign <file>",
		Short: "evaluate a document and sign its canonical result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if kid == "" || secretPath == "" {
				return NewExitError(ExitCommandError, "--kid and --secret are required")
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

			header, res, err := signDocument(data, *opts, kid, secret)
			if err != nil {
				return WrapExitError(ExitCommandError, "signing document", err)
			}

			formatter.VerboseLog("phase=%s diagnostics=%d", res.Phase, len(res.Diagnostics))
			return formatter.SuccessWithTrace(map[string]string{"signature": header}, res.RunID)
		},
	}

	cmd.Flags().StringVar(&kid, "kid", "", "signing key identifier (required)")
	cmd.Flags().StringVar(&secretPath, "secret", "", "path to a file holding the HMAC secret (required)")
	cmd.Flags().StringVar(&configPath, "config", "ldc.toml", "project config path (unit/currency overrides)")
	cmd.Flags().StringVar(&optionsPath, "options", "", "evaluator options YAML path")
	cmd.Flags().StringVar(&cachePath, "relation-cache", "", "path to a SQLite file caching loaded @relations documents")

	return cmd
}

// signDocument re-decodes data (rather than reusing res.Value) because
// the signable "document" is the input as supplied, @-prefixed
// directives included, not the stripped root value a Result exposes.
func signDocument(data []byte, opts eval.Options, kid string, secret []byte) (string, *eval.Result, error) {
	res, err := eval.Evaluate(data, opts)
	if err != nil {
		return "", nil, err
	}
	docVal, err := interp.DecodeDocument(data)
	if err != nil {
		return "", res, err
	}
	docCanon, err := eval.ToCanonValue(docVal)
	if err != nil {
		return "", res, err
	}
	header, err := res.Sign(docCanon, effectiveOptionsCanon(opts), capsCanon(opts.Caps), kid, secret)
	if err != nil {
		return "", res, err
	}
	return header, res, nil
}

func effectiveOptionsCanon(opts eval.Options) canon.Value {
	return map[string]canon.Value{"now": opts.Now}
}

func capsCanon(caps map[string]bool) canon.Value {
	out := make(map[string]canon.Value, len(caps))
	for k, v := range caps {
		out[k] = v
	}
	return out
}
