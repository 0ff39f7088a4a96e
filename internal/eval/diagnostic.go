package eval

import "github.com/roach88/ldc/internal/diag"

// Re-exported for callers that only import eval: the façade's own
// vocabulary is the shared diag package (indexer, scheduler, query, and
// composer all speak diag.Diagnostic directly to avoid an import cycle
// back through eval).
type (
	Code       = diag.Code
	Severity   = diag.Severity
	Diagnostic = diag.Diagnostic
)

const (
	CodeExprErr          = diag.CodeExprErr
	CodeConstraintFailed = diag.CodeConstraintFailed
	CodeQueryErr         = diag.CodeQueryErr
	CodeBadRef           = diag.CodeBadRef
	CodeBadRollup        = diag.CodeBadRollup
	CodeUnitMismatch     = diag.CodeUnitMismatch
	CodeDivByZero        = diag.CodeDivByZero
	CodeFixpointLimit    = diag.CodeFixpointLimit
	CodeTimeout          = diag.CodeTimeout
	CodeSchemaError      = diag.CodeSchemaError
)

const (
	SeverityError   = diag.SeverityError
	SeverityWarning = diag.SeverityWarning
)
