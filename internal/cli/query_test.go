package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryCommandSuccess(t *testing.T) {
	path := writeTempDoc(t, "doc.json", `{"total": {"@expr": "2 * 3"}}`)

	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetArgs([]string{"query", "--format", "json", "--config", filepath.Join(t.TempDir(), "missing.toml"), path})

	require.NoError(t, cmd.Execute())

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestQueryCommandDiff(t *testing.T) {
	a := writeTempDoc(t, "a.json", `{"total": {"@expr": "1 + 1"}}`)
	b := writeTempDoc(t, "b.json", `{"total": {"@expr": "1 + 2"}}`)

	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetArgs([]string{"query", "--format", "json", "--diff", b, a})

	require.NoError(t, cmd.Execute())

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotEmpty(t, resp.Data)
}

func TestQueryCommandDiffIdentical(t *testing.T) {
	a := writeTempDoc(t, "a.json", `{"total": {"@expr": "1 + 1"}}`)

	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetArgs([]string{"query", "--format", "json", "--diff", a, a})

	require.NoError(t, cmd.Execute())

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))

	diffText, ok := resp.Data.(string)
	require.True(t, ok)
	assert.NotEmpty(t, diffText)
}
