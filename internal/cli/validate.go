package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/ldc/internal/diag"
	"github.com/roach88/ldc/internal/indexer"
	"github.com/roach88/ldc/internal/interp"
)

// NewValidateCommand builds the "validate" subcommand: run schema and
// directive-shape checks (indexing, not evaluation) and print whatever
// diagnostics surface, without spending an interpreter pass on a
// document the caller only wants to lint.
func NewValidateCommand(root *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "check a document's schema and directive shapes without evaluating it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := evalFormatter(root, false, cmd)

			data, err := os.ReadFile(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "reading document", err)
			}

			diags := validateDocument(data)
			views := make([]diagnosticView, 0, len(diags))
			var hasError bool
			for _, d := range diags {
				views = append(views, diagnosticView{Code: string(d.Code), Path: d.Path, Severity: string(d.Severity), Message: d.Message})
				if d.Severity == diag.SeverityError {
					hasError = true
				}
			}

			if err := formatter.Success(views); err != nil {
				return WrapExitError(ExitCommandError, "writing output", err)
			}
			if hasError {
				return NewExitError(ExitFailure, "validation failed")
			}
			return nil
		},
	}
	return cmd
}

func validateDocument(data []byte) []diag.Diagnostic {
	if diags := indexer.ValidateSchema(data); len(diags) > 0 {
		return diags
	}
	docVal, err := interp.DecodeDocument(data)
	if err != nil {
		return []diag.Diagnostic{diag.New(diag.CodeSchemaError, "", err.Error())}
	}
	doc, ok := docVal.(*interp.Object)
	if !ok {
		return []diag.Diagnostic{diag.New(diag.CodeSchemaError, "", "document root must be an object")}
	}
	return indexer.Index(doc).Diagnostics
}
