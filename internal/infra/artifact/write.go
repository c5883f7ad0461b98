package artifact

import (
	"bufio"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const lockFile = ".artifact.lock"

type namedFile struct {
	name string
	data []byte
}

// Write stores art in dir. Concurrent writers to the same directory are
// serialized with a file lock; every file is written under a temporary name
// and renamed, with the manifest renamed last.
func Write(ctx context.Context, dir string, art *Artifact) error {
	if art == nil {
		return fmt.Errorf("nothing to write")
	}
	m := art.Manifest
	m.FormatVersion = FormatVersion
	m.Count = len(art.Entries)
	if m.EntriesFile == "" {
		m.EntriesFile = DefaultEntriesFile
	}
	if m.VectorsFile == "" {
		m.VectorsFile = DefaultVectorsFile
	}
	if art.Lexical != nil && m.RepresenterFile == "" {
		m.RepresenterFile = DefaultLexicalFile
	}
	if m.CreatedAt == "" {
		m.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	staged := &Artifact{Manifest: m, Entries: art.Entries, Vectors: art.Vectors, Lexical: art.Lexical}
	if err := staged.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create artifact dir %s: %w", dir, err)
	}
	lock := flock.New(filepath.Join(dir, lockFile))
	locked, err := lock.TryLockContext(ctx, 200*time.Millisecond)
	if err != nil {
		return fmt.Errorf("cannot lock artifact dir %s: %w", dir, err)
	}
	if !locked {
		return fmt.Errorf("artifact dir %s is locked by another writer", dir)
	}
	defer func() { _ = lock.Unlock() }()

	vectors, err := encodeVectors(art.Vectors)
	if err != nil {
		return err
	}
	sum := sha256.Sum256(vectors)
	staged.Manifest.VectorsSHA256 = hex.EncodeToString(sum[:])

	entries, err := encodeEntries(staged)
	if err != nil {
		return err
	}

	files := []namedFile{
		{staged.Manifest.EntriesFile, entries},
		{staged.Manifest.VectorsFile, vectors},
	}
	if art.Lexical != nil {
		lb, err := json.MarshalIndent(art.Lexical, "", "  ")
		if err != nil {
			return err
		}
		files = append(files, namedFile{staged.Manifest.RepresenterFile, lb})
	}
	mb, err := json.MarshalIndent(staged.Manifest, "", "  ")
	if err != nil {
		return err
	}
	files = append(files, namedFile{ManifestFile, mb})

	for _, f := range files {
		if err := writeAtomic(dir, f.name, f.data); err != nil {
			return err
		}
	}
	art.Manifest = staged.Manifest
	return nil
}

func encodeEntries(art *Artifact) ([]byte, error) {
	var buf bytes.Buffer
	bw := bufio.NewWriter(&buf)
	for i, e := range art.Entries {
		line, err := json.Marshal(EntryRecord{ID: i, Question: e.Question, Answer: e.Answer})
		if err != nil {
			return nil, err
		}
		if _, err := bw.Write(line); err != nil {
			return nil, err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return nil, err
		}
	}
	if err := bw.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeVectors(vectors [][]float32) ([]byte, error) {
	var buf bytes.Buffer
	for _, vec := range vectors {
		if err := binary.Write(&buf, binary.LittleEndian, vec); err != nil {
			return nil, fmt.Errorf("cannot encode vectors: %w", err)
		}
	}
	return buf.Bytes(), nil
}

func writeAtomic(dir, name string, data []byte) error {
	tmp, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return fmt.Errorf("cannot create %s: %w", name, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("cannot write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, filepath.Join(dir, name)); err != nil {
		cleanup()
		return fmt.Errorf("cannot move %s into place: %w", name, err)
	}
	return nil
}
