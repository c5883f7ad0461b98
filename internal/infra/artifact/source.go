package artifact

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Source provides the files of one artifact. Open must return an error
// wrapping faq.ErrArtifactMissing when name does not exist.
type Source interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	String() string
}

// Sink receives artifact files when publishing.
type Sink interface {
	Put(ctx context.Context, name string, data []byte) error
	String() string
}

// DirSource reads an artifact from a local directory.
type DirSource struct {
	Dir string
}

// Open opens name inside the directory.
func (s DirSource) Open(_ context.Context, name string) (io.ReadCloser, error) {
	path := filepath.Join(s.Dir, name)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, missing("%s not found", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}

func (s DirSource) String() string { return "file://" + s.Dir }
