package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ldc/internal/diag"
)

func TestValidateCommandCleanDocument(t *testing.T) {
	path := writeTempDoc(t, "doc.json", `{"total": {"@expr": "1 + 1"}}`)

	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetArgs([]string{"validate", "--format", "json", path})

	require.NoError(t, cmd.Execute())

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestValidateCommandRejectsMalformedDocument(t *testing.T) {
	path := writeTempDoc(t, "doc.json", `not json`)

	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"validate", path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestValidateDocumentDirectCall(t *testing.T) {
	diags := validateDocument([]byte(`{"total": {"@expr": "1", "@constraint": "true"}}`))
	require.NotEmpty(t, diags)
	assert.Equal(t, diag.CodeSchemaError, diags[0].Code)
}
