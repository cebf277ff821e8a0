package artifact

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// BlobStore holds rendered tickets and uploaded payment proofs, addressed by
// an opaque reference recorded on the Registration.
type BlobStore interface {
	Put(ctx context.Context, name string, data []byte) (ref string, err error)
	Get(ctx context.Context, ref string) ([]byte, error)
}

// FSStore keeps blobs as files under one directory. References are relative
// paths so records survive the directory moving between hosts.
type FSStore struct {
	dir string
}

// NewFSStore creates the directory if needed.
func NewFSStore(dir string) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}
	return &FSStore{dir: dir}, nil
}

func (s *FSStore) Put(ctx context.Context, name string, data []byte) (string, error) {
	name = filepath.Base(name) // no traversal via registration-derived names
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write artifact %s: %w", name, err)
	}
	return name, nil
}

func (s *FSStore) Get(ctx context.Context, ref string) ([]byte, error) {
	if strings.Contains(ref, "..") {
		return nil, fmt.Errorf("invalid artifact ref %q", ref)
	}
	data, err := os.ReadFile(filepath.Join(s.dir, filepath.Base(ref)))
	if err != nil {
		return nil, fmt.Errorf("read artifact %s: %w", ref, err)
	}
	return data, nil
}
