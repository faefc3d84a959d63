package texhtml

import (
	"context"

	"github.com/alnah/go-texhtml/internal/store"
)

// ImageStore assigns storage paths to rendered images, keyed by a content
// hash of the markup and its rendering profile. Implementations must be safe
// for concurrent use.
type ImageStore interface {
	ResolveOrRegister(ctx context.Context, hash, ext string) (string, error)
}

// DiskImageStore is an ImageStore backed by a directory and an SQLite index.
type DiskImageStore struct {
	s *store.Store
}

// OpenImageStore opens (or creates) a DiskImageStore rooted at dir.
func OpenImageStore(dir string) (*DiskImageStore, error) {
	s, err := store.Open(dir)
	if err != nil {
		return nil, err
	}
	return &DiskImageStore{s: s}, nil
}

// ResolveOrRegister implements ImageStore.
func (d *DiskImageStore) ResolveOrRegister(ctx context.Context, hash, ext string) (string, error) {
	return d.s.ResolveOrRegister(ctx, hash, ext)
}

// Dir returns the store's root directory.
func (d *DiskImageStore) Dir() string { return d.s.Dir() }

// Close releases the index.
func (d *DiskImageStore) Close() error { return d.s.Close() }

// Compile-time interface check.
var _ ImageStore = (*DiskImageStore)(nil)
