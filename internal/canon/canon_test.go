package canon

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ldc/internal/decimal"
)

func TestKeysSortedUTF16(t *testing.T) {
	b, err := Marshal(map[string]Value{"b": 1, "a": 2, "c": 3})
	require.NoError(t, err)
	assert.Equal(t, `{"a":2,"b":1,"c":3}`, string(b))
}

func TestNoInsignificantWhitespace(t *testing.T) {
	b, err := Marshal(map[string]Value{"x": []Value{1, 2, 3}})
	require.NoError(t, err)
	assert.Equal(t, `{"x":[1,2,3]}`, string(b))
}

func TestDecimalCanonicalText(t *testing.T) {
	d := decimal.MustParse("1.50")
	b, err := Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, "1.50", string(b))
}

func TestFloatRejected(t *testing.T) {
	_, err := Marshal(3.14)
	require.Error(t, err)
}

func TestNoHTMLEscape(t *testing.T) {
	b, err := Marshal("<a & b>")
	require.NoError(t, err)
	assert.Equal(t, `"<a & b>"`, string(b))
}

func TestNFCNormalization(t *testing.T) {
	decomposed := "é" // e + combining acute accent
	b, err := Marshal(decomposed)
	require.NoError(t, err)
	assert.Equal(t, `"é"`, string(b))
}

func TestTimeIsRFC3339(t *testing.T) {
	tm := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	b, err := Marshal(tm)
	require.NoError(t, err)
	assert.Contains(t, string(b), "2026-01-02T03:04:05")
}

func TestSignAndVerifyRoundTrip(t *testing.T) {
	p := SignablePayload{
		Document: map[string]Value{"id": "doc-1"},
		Computed: map[string]Value{"total": decimal.MustParse("10")},
	}
	secret := []byte("s3cr3t")
	header, err := Sign(p, "kid-1", secret)
	require.NoError(t, err)
	ok, err := Verify(p, header, secret, time.Now())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyRejectsTamperedPayload(t *testing.T) {
	p := SignablePayload{Document: map[string]Value{"id": "doc-1"}}
	secret := []byte("s3cr3t")
	header, err := Sign(p, "kid-1", secret)
	require.NoError(t, err)
	tampered := SignablePayload{Document: map[string]Value{"id": "doc-2"}}
	ok, err := Verify(tampered, header, secret, time.Now())
	require.NoError(t, err)
	assert.False(t, ok)
}
