package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyRequiresSigAndSecret(t *testing.T) {
	doc := writeTempDoc(t, "doc.json", `{"total": {"@expr": "1"}}`)

	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"verify", doc})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestVerifyRejectsMalformedHeader(t *testing.T) {
	doc := writeTempDoc(t, "doc.json", `{"total": {"@expr": "1"}}`)
	secret := writeSecret(t)

	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"verify", "--sig", "not a real header", "--secret", secret, doc})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
