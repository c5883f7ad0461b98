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
	"io"

	"github.com/yanqian/faq-matcher/internal/domain/faq"
)

// maxEntryLine bounds a single JSON line of the entries file.
const maxEntryLine = 1 << 20

// Load reads and validates an artifact from src. Absent files yield
// faq.ErrArtifactMissing; any structural problem yields faq.ErrIndexCorrupt.
func Load(ctx context.Context, src Source) (*Artifact, error) {
	var m Manifest
	if err := readJSON(ctx, src, ManifestFile, &m); err != nil {
		return nil, err
	}
	if m.FormatVersion != FormatVersion {
		return nil, corrupt("unsupported format version %d", m.FormatVersion)
	}
	if m.Dim <= 0 || m.Count <= 0 {
		return nil, corrupt("invalid manifest dim=%d count=%d", m.Dim, m.Count)
	}
	if m.EntriesFile == "" {
		m.EntriesFile = DefaultEntriesFile
	}
	if m.VectorsFile == "" {
		m.VectorsFile = DefaultVectorsFile
	}

	entries, err := loadEntries(ctx, src, m.EntriesFile)
	if err != nil {
		return nil, err
	}
	if len(entries) != m.Count {
		return nil, corrupt("manifest count %d but %d entries", m.Count, len(entries))
	}
	vectors, err := loadVectors(ctx, src, m)
	if err != nil {
		return nil, err
	}

	art := &Artifact{Manifest: m, Entries: entries, Vectors: vectors}
	if m.Strategy == faq.StrategyLexical {
		if m.RepresenterFile == "" {
			return nil, corrupt("lexical manifest names no representer file")
		}
		var lex LexicalFile
		if err := readJSON(ctx, src, m.RepresenterFile, &lex); err != nil {
			return nil, err
		}
		art.Lexical = &lex
	}
	if err := art.Validate(); err != nil {
		return nil, err
	}
	return art, nil
}

func readAll(ctx context.Context, src Source, name string, limit int64) ([]byte, error) {
	rc, err := src.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	b, err := io.ReadAll(io.LimitReader(rc, limit))
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", name, err)
	}
	return b, nil
}

func readJSON(ctx context.Context, src Source, name string, out any) error {
	b, err := readAll(ctx, src, name, 256<<20)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, out); err != nil {
		return corrupt("invalid JSON in %s: %v", name, err)
	}
	return nil
}

func loadEntries(ctx context.Context, src Source, name string) ([]faq.Entry, error) {
	rc, err := src.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var out []faq.Entry
	scanner := bufio.NewScanner(rc)
	scanner.Buffer(make([]byte, 0, 64<<10), maxEntryLine)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec EntryRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, corrupt("invalid entry JSONL in %s: %v", name, err)
		}
		if rec.ID != len(out) {
			return nil, corrupt("entry ids must be contiguous from 0: got %d at position %d", rec.ID, len(out))
		}
		out = append(out, faq.Entry{Question: rec.Question, Answer: rec.Answer})
	}
	if err := scanner.Err(); err != nil {
		return nil, corrupt("cannot read entries %s: %v", name, err)
	}
	return out, nil
}

func loadVectors(ctx context.Context, src Source, m Manifest) ([][]float32, error) {
	expected := int64(m.Count) * int64(m.Dim) * 4
	b, err := readAll(ctx, src, m.VectorsFile, expected+1)
	if err != nil {
		return nil, err
	}
	if int64(len(b)) != expected {
		return nil, corrupt("vector file size mismatch: got %d want %d (count=%d dim=%d)", len(b), expected, m.Count, m.Dim)
	}
	if m.VectorsSHA256 != "" {
		sum := sha256.Sum256(b)
		if hex.EncodeToString(sum[:]) != m.VectorsSHA256 {
			return nil, corrupt("vector checksum mismatch")
		}
	}

	flat := make([]float32, m.Count*m.Dim)
	if err := binary.Read(bytes.NewReader(b), binary.LittleEndian, flat); err != nil {
		return nil, corrupt("cannot decode vectors: %v", err)
	}
	out := make([][]float32, m.Count)
	for i := range out {
		out[i] = flat[i*m.Dim : (i+1)*m.Dim : (i+1)*m.Dim]
	}
	return out, nil
}
