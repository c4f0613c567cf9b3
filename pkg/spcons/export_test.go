package spcons

import (
	"path/filepath"
	"testing"

	"github.com/gofrs/flock"
)

var Stems = stems

// LockDir holds the output directory lock as another run would.
func LockDir(t *testing.T, dir string) func() {
	t.Helper()
	lk := flock.New(filepath.Join(dir, lockName))
	ok, err := lk.TryLock()
	if err != nil || !ok {
		t.Fatalf("could not lock %s: %v", dir, err)
	}
	return func() { lk.Unlock() }
}
