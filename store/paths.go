package store

import (
	"os"
	"path/filepath"
)

// ChainDir returns the on-disk directory for a given network name
// (spec.md §8: all persistence lives under one datadir per network).
func ChainDir(datadir, network string) string {
	return filepath.Join(datadir, network)
}

func ensureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}
