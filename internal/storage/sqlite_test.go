//go:build sqlite

package storage

import (
	"path/filepath"
	"testing"
)

func TestSQLiteStore(t *testing.T) {
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "matrixevo.db"))
	t.Cleanup(func() { _ = store.Close() })
	exerciseStore(t, store)
}
