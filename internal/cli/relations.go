package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/roach88/ldc/internal/composer"
	"github.com/roach88/ldc/internal/interp"
)

// dirRelationLoader resolves an `@relations` path against dir: the host
// contract (spec §6) leaves transport entirely up to the caller, and a
// flat directory of sibling documents is the natural shape for a
// filesystem-only CLI invocation.
func dirRelationLoader(dir string) composer.Loader {
	return func(alias, path string) (interp.Value, error) {
		full := filepath.Join(dir, path)
		data, err := os.ReadFile(full)
		if err != nil {
			return nil, fmt.Errorf("loading relation %q from %s: %w", alias, full, err)
		}
		return interp.DecodeDocument(data)
	}
}

// dirRawLoader is dirRelationLoader's uncached counterpart: it returns a
// sibling document's raw bytes rather than an already-decoded Value, so
// composer.CachingLoader can store and replay them verbatim.
func dirRawLoader(dir string) composer.RawFetch {
	return func(alias, path string) ([]byte, error) {
		full := filepath.Join(dir, path)
		data, err := os.ReadFile(full)
		if err != nil {
			return nil, fmt.Errorf("loading relation %q from %s: %w", alias, full, err)
		}
		return data, nil
	}
}
