package eval

import (
	"github.com/roach88/ldc/internal/interp"
	"github.com/roach88/ldc/internal/triplestore"
)

// ProvenanceOp is one of the five adapter-pipeline operation kinds spec §6
// names for the result's provenance list.
type ProvenanceOp string

const (
	ProvenanceFetch    ProvenanceOp = "fetch"
	ProvenanceFilter   ProvenanceOp = "filter"
	ProvenanceSort     ProvenanceOp = "sort"
	ProvenancePaginate ProvenanceOp = "paginate"
	ProvenanceCompute  ProvenanceOp = "compute"
)

// ProvenanceEntry records one operation the façade performed while
// producing Result, in execution order.
type ProvenanceEntry struct {
	Op     ProvenanceOp `json:"op"`
	Target string       `json:"target"`
}

// Phase is a state in the per-document evaluation state machine (spec
// §4.12).
type Phase string

const (
	PhaseIndexing  Phase = "Indexing"
	PhaseScheduled Phase = "Scheduled"
	PhaseLayering  Phase = "Layering"
	PhaseFixpoint  Phase = "Fixpoint"
	PhaseSigning   Phase = "Signing"
	PhaseDone      Phase = "Done"
	PhaseAborted   Phase = "Aborted"
)

// Result is what the façade hands back to the host: the derived triples,
// every diagnostic collected along the way, the root subject's final
// property map, and the provenance trail (spec §6).
type Result struct {
	Phase       Phase
	Triples     []triplestore.Triple
	Diagnostics []Diagnostic
	Value       *interp.Object
	Provenance  []ProvenanceEntry

	// RunID correlates one Evaluate call across logs, host telemetry, and
	// the CLI's trace_id field. It is never part of a SignablePayload
	// (spec §4.11 I4: signatures must be reproducible from the document
	// alone), purely a correlation aid.
	RunID string
}
