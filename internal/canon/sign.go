package canon

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/opencontainers/go-digest"
)

// SignablePayload is the subset of an evaluation result that participates
// in signing: document input, effective options/capabilities, computed
// value, and provenance. Non-deterministic fields (wall time, duration,
// request id) must never be included (spec §4.11, invariant I4).
type SignablePayload struct {
	Document     Value
	Options      Value
	Capabilities Value
	Computed     Value
	Provenance   Value
}

func (p SignablePayload) toMap() map[string]Value {
	return map[string]Value{
		"document":     p.Document,
		"options":      p.Options,
		"capabilities": p.Capabilities,
		"computed":     p.Computed,
		"provenance":   p.Provenance,
	}
}

// Digest returns the content-addressed sha256 digest of p's canonical
// form, usable as a cache key independent of any signing secret.
func Digest(p SignablePayload) (digest.Digest, error) {
	b, err := Marshal(p.toMap())
	if err != nil {
		return "", err
	}
	return digest.FromBytes(b), nil
}

// Sign computes the canonical payload's HMAC-SHA256 under secret and
// renders the header format from spec §4.11:
//
//	v=1; alg=hmac-sha256; key=<kid>; sig=<base64url(signature)>
func Sign(p SignablePayload, kid string, secret []byte) (string, error) {
	b, err := Marshal(p.toMap())
	if err != nil {
		return "", fmt.Errorf("canon: sign: %w", err)
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write(b)
	sig := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
	return fmt.Sprintf("v=1; alg=hmac-sha256; key=%s; sig=%s", kid, sig), nil
}

// MaxSkew is the signature timestamp tolerance window (spec §4.11:
// verifiers reject timestamps older than 5 minutes).
const MaxSkew = 5 * time.Minute

// Verify recomputes the HMAC over p's canonical form and compares it in
// constant time against the header's signature. If the header carries a
// timestamp (t=<ms>) field, Verify also rejects stale signatures older
// than MaxSkew relative to now.
func Verify(p SignablePayload, header string, secret []byte, now time.Time) (bool, error) {
	fields, err := parseHeader(header)
	if err != nil {
		return false, err
	}
	if fields["alg"] != "hmac-sha256" {
		return false, fmt.Errorf("canon: unsupported alg %q", fields["alg"])
	}
	if ts, ok := fields["t"]; ok {
		ms, err := strconv.ParseInt(ts, 10, 64)
		if err != nil {
			return false, fmt.Errorf("canon: invalid timestamp %q", ts)
		}
		signedAt := time.UnixMilli(ms)
		if now.Sub(signedAt) > MaxSkew || signedAt.Sub(now) > MaxSkew {
			return false, fmt.Errorf("canon: signature timestamp outside skew window")
		}
	}

	want, err := base64.RawURLEncoding.DecodeString(fields["sig"])
	if err != nil {
		return false, fmt.Errorf("canon: invalid signature encoding: %w", err)
	}

	b, err := Marshal(p.toMap())
	if err != nil {
		return false, err
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write(b)
	got := mac.Sum(nil)

	return subtle.ConstantTimeCompare(want, got) == 1, nil
}

func parseHeader(header string) (map[string]string, error) {
	out := map[string]string{}
	for _, part := range strings.Split(header, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("canon: malformed header segment %q", part)
		}
		out[kv[0]] = kv[1]
	}
	if out["v"] != "1" {
		return nil, fmt.Errorf("canon: unsupported signature version %q", out["v"])
	}
	if out["sig"] == "" {
		return nil, fmt.Errorf("canon: missing sig field")
	}
	return out, nil
}
