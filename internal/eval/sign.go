package eval

import (
	"fmt"

	"github.com/roach88/ldc/internal/canon"
)

// SignablePayload builds the canonical payload spec §4.11 signs: the
// input document as supplied, effective options (minus timeout) and
// capabilities, the result's computed value, and its provenance trail.
// None of these carry wall-clock time, durations, or request identifiers,
// satisfying I4 (signature determinism).
func (r *Result) SignablePayload(document, effectiveOptions, capabilities canon.Value) (canon.SignablePayload, error) {
	computed, err := toCanon(r.Value)
	if err != nil {
		return canon.SignablePayload{}, fmt.Errorf("eval: canonicalize computed value: %w", err)
	}
	prov := make([]canon.Value, len(r.Provenance))
	for i, p := range r.Provenance {
		prov[i] = map[string]canon.Value{"op": string(p.Op), "target": p.Target}
	}
	return canon.SignablePayload{
		Document:     document,
		Options:      effectiveOptions,
		Capabilities: capabilities,
		Computed:     computed,
		Provenance:   prov,
	}, nil
}

// Sign canonicalizes r's payload and computes its HMAC-SHA256 signature
// header (spec §4.11).
func (r *Result) Sign(document, effectiveOptions, capabilities canon.Value, kid string, secret []byte) (string, error) {
	payload, err := r.SignablePayload(document, effectiveOptions, capabilities)
	if err != nil {
		return "", err
	}
	return canon.Sign(payload, kid, secret)
}
