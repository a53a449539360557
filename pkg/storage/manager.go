// Package storage provides a disk abstraction for archived files — the
// storefront keeps a copy of every generated invoice PDF so a lost email can
// be re-sent.
//
// Drivers: local filesystem (default) and S3-compatible object storage.
package storage

import (
	"fmt"
	"sync"

	"github.com/herbveda/storefront/config"
)

// Disk is the storage driver contract.
type Disk interface {
	// Put writes content at path, creating parents as needed.
	Put(path string, content []byte) error
	// Get reads the file at path.
	Get(path string) ([]byte, error)
	// Exists reports whether path is present.
	Exists(path string) bool
	// URL returns a public URL for path.
	URL(path string) string
}

var (
	mu    sync.Mutex
	disks = map[string]Disk{}
)

// Default returns the disk named by STORAGE_DISK ("local" or "s3").
func Default() (Disk, error) {
	return Named(config.StorageDefault())
}

// Named returns (and lazily constructs) the disk with the given name.
func Named(name string) (Disk, error) {
	mu.Lock()
	defer mu.Unlock()

	if d, ok := disks[name]; ok {
		return d, nil
	}

	var (
		d   Disk
		err error
	)
	switch name {
	case "local":
		d = newLocalDisk()
	case "s3":
		d, err = newS3Disk()
	default:
		err = fmt.Errorf("storage: unknown disk %q (supported: local, s3)", name)
	}
	if err != nil {
		return nil, err
	}

	disks[name] = d
	return d, nil
}

// SetNamed installs a disk under name — used by tests to inject fakes.
func SetNamed(name string, d Disk) {
	mu.Lock()
	defer mu.Unlock()
	disks[name] = d
}
