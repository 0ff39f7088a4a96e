package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadProjectConfigMissingFileYieldsStockRegistry(t *testing.T) {
	cfg, err := LoadProjectConfig(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	reg := cfg.Registry()

	_, ok := reg.Get("USD")
	assert.False(t, ok)
}

func TestLoadProjectConfigRegistersCurrencies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ldc.toml")
	require.NoError(t, os.WriteFile(path, []byte("default_currency = \"USD\"\ncurrencies = [\"EUR\", \"GBP\"]\n"), 0o644))

	cfg, err := LoadProjectConfig(path)
	require.NoError(t, err)
	reg := cfg.Registry()

	for _, code := range []string{"USD", "EUR", "GBP"} {
		_, ok := reg.Get(code)
		assert.True(t, ok, "expected %s to be registered", code)
	}

	m, ok := reg.Get("m")
	assert.True(t, ok)
	assert.NotNil(t, m)
}

func TestLoadOptionsFileEmptyPath(t *testing.T) {
	of, err := LoadOptionsFile("")
	require.NoError(t, err)
	assert.Nil(t, of.Now)
	assert.Empty(t, of.Caps)
}

func TestLoadOptionsFileParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "options.yaml")
	require.NoError(t, os.WriteFile(path, []byte("now: 2026-01-01T00:00:00Z\ncaps:\n  admin: true\n"), 0o644))

	of, err := LoadOptionsFile(path)
	require.NoError(t, err)
	require.NotNil(t, of.Now)
	assert.Equal(t, 2026, of.Now.Year())
	assert.True(t, of.Caps["admin"])
}

func TestEvalOptionsMerge(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	of := &OptionsFile{Now: &now, Caps: map[string]bool{"x": true}}
	cfg := &ProjectConfig{DefaultCurrency: "USD"}

	opts := of.EvalOptions(cfg)
	assert.Equal(t, now, opts.Now)
	assert.True(t, opts.Caps["x"])
	require.NotNil(t, opts.Units)
	_, ok := opts.Units.Get("USD")
	assert.True(t, ok)
}
