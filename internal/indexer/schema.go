package indexer

import (
	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/ldc/internal/diag"
)

var cueCtx = cuecontext.New()

// ValidateSchema runs a document's raw bytes through a CUE compile pass
// before interp.DecodeDocument ever sees them (spec's C6 schema gate).
// CUE's grammar is a superset of JSON, so the same bytes decode directly
// as a CUE value; a syntactically broken document or a non-object root
// is caught here, with the same schema_error vocabulary the rest of
// indexing reports, instead of surfacing downstream as a bare decode
// error or type assertion failure.
func ValidateSchema(raw []byte) []diag.Diagnostic {
	v := cueCtx.CompileString(string(raw))
	if err := v.Err(); err != nil {
		return []diag.Diagnostic{diag.New(diag.CodeSchemaError, "", "document is not valid JSON: "+err.Error())}
	}
	if v.IncompleteKind() != cue.StructKind {
		return []diag.Diagnostic{diag.New(diag.CodeSchemaError, "", "document root must be an object")}
	}
	return nil
}
