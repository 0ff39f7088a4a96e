package composer

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ldc/internal/interp"
)

func TestCacheGetPutRoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "relations.db")
	cache, err := OpenCache(dbPath)
	require.NoError(t, err)
	defer cache.Close()

	_, ok, err := cache.Get("catalog", "catalog.json")
	require.NoError(t, err)
	assert.False(t, ok, "cache should start empty")

	require.NoError(t, cache.Put("catalog", "catalog.json", `{"items": []}`))

	body, ok, err := cache.Get("catalog", "catalog.json")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"items": []}`, body)
}

func TestCachingLoaderFetchesOnceThenServesFromCache(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "relations.db")
	cache, err := OpenCache(dbPath)
	require.NoError(t, err)
	defer cache.Close()

	fetches := 0
	fetch := func(alias, path string) ([]byte, error) {
		fetches++
		return []byte(`{"items": [{"sku": "A1"}]}`), nil
	}
	loader := CachingLoader(cache, fetch)

	v1, err := loader("catalog", "catalog.json")
	require.NoError(t, err)
	obj1, ok := v1.(*interp.Object)
	require.True(t, ok)
	items1, _ := obj1.Raw("items")
	assert.Len(t, items1, 1)
	assert.Equal(t, 1, fetches)

	v2, err := loader("catalog", "catalog.json")
	require.NoError(t, err)
	obj2, ok := v2.(*interp.Object)
	require.True(t, ok)
	items2, _ := obj2.Raw("items")
	assert.Len(t, items2, 1)
	assert.Equal(t, 1, fetches, "second call should be served from the cache without re-fetching")
}

func TestCachingLoaderNilCacheFallsThroughToFetch(t *testing.T) {
	fetches := 0
	fetch := func(alias, path string) ([]byte, error) {
		fetches++
		return []byte(`{"items": []}`), nil
	}
	loader := CachingLoader(nil, fetch)

	_, err := loader("catalog", "catalog.json")
	require.NoError(t, err)
	_, err = loader("catalog", "catalog.json")
	require.NoError(t, err)
	assert.Equal(t, 2, fetches, "a nil cache must not short-circuit the fetch")
}
