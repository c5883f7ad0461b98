// Package indexbuild turns a FAQ source file into a catalog artifact.
package indexbuild

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/yanqian/faq-matcher/internal/domain/faq"
	"github.com/yanqian/faq-matcher/internal/infra/artifact"
	"github.com/yanqian/faq-matcher/internal/infra/representer/dense"
	"github.com/yanqian/faq-matcher/internal/infra/representer/lexical"
)

const defaultBatchSize = 32

// Options controls an index build.
type Options struct {
	Strategy faq.Strategy

	// lexical
	Lexical        lexical.Options
	IncludeAnswers bool

	// dense
	Embedder  dense.Embedder
	BatchSize int
	Workers   int

	Progress Progress
	Logger   *slog.Logger
}

// Build represents every entry with the chosen strategy.
func Build(ctx context.Context, entries []faq.Entry, opts Options) (*artifact.Artifact, error) {
	if len(entries) == 0 {
		return nil, errors.New("cannot build an index without entries")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "indexbuild", "strategy", opts.Strategy)

	var (
		art *artifact.Artifact
		err error
	)
	switch opts.Strategy {
	case faq.StrategyLexical:
		art, err = buildLexical(entries, opts)
	case faq.StrategyDense:
		art, err = buildDense(ctx, entries, opts)
	default:
		return nil, fmt.Errorf("unknown strategy %q", opts.Strategy)
	}
	if err != nil {
		return nil, err
	}
	art.Manifest.Count = len(entries)
	if err := art.Validate(); err != nil {
		return nil, err
	}
	logger.Info("index built", "entries", len(entries), "dim", art.Manifest.Dim, "model", art.Manifest.ModelID)
	return art, nil
}

func buildLexical(entries []faq.Entry, opts Options) (*artifact.Artifact, error) {
	docs := make([]string, len(entries))
	for i, e := range entries {
		docs[i] = e.Question
		if opts.IncludeAnswers {
			docs[i] += " " + e.Answer
		}
	}
	lexOpts := opts.Lexical
	if lexOpts == (lexical.Options{}) {
		lexOpts = lexical.DefaultOptions()
	}
	model, err := lexical.Fit(docs, lexOpts)
	if err != nil {
		return nil, fmt.Errorf("fit lexical model: %w", err)
	}
	return &artifact.Artifact{
		Manifest: artifact.Manifest{
			Strategy:  faq.StrategyLexical,
			ModelID:   "tfidf/" + model.State().Analyzer,
			Dim:       model.Dim(),
			Normalize: true,
		},
		Entries: entries,
		Vectors: model.TransformAll(docs),
		Lexical: &artifact.LexicalFile{State: model.State(), IncludeAnswers: opts.IncludeAnswers},
	}, nil
}

func buildDense(ctx context.Context, entries []faq.Entry, opts Options) (*artifact.Artifact, error) {
	if opts.Embedder == nil {
		return nil, errors.New("dense build requires an embedder")
	}
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = max(runtime.NumCPU()/2, 1)
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if opts.Progress != nil {
		opts.Progress.Start(len(entries))
		defer opts.Progress.Finish()
	}

	vectors := make([][]float32, len(entries))
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
	}

	for start := 0; start < len(entries); start += batchSize {
		end := min(start+batchSize, len(entries))
		texts := make([]string, 0, end-start)
		for _, e := range entries[start:end] {
			texts = append(texts, e.Question)
		}
		wg.Add(1)
		offset := start
		if err := pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			out, err := dense.EmbedNormalized(ctx, opts.Embedder, texts, 0)
			if err != nil {
				fail(fmt.Errorf("embed entries %d-%d: %w", offset, offset+len(texts)-1, err))
				return
			}
			// each batch owns a disjoint range of vectors
			copy(vectors[offset:], out)
			if opts.Progress != nil {
				mu.Lock()
				opts.Progress.Add(len(out))
				mu.Unlock()
			}
		}); err != nil {
			wg.Done()
			fail(err)
			break
		}
	}
	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	// workers skip their batches once the caller cancels
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dim := len(vectors[0])
	for i, vec := range vectors {
		if len(vec) != dim || dim == 0 {
			return nil, fmt.Errorf("entry %d has embedding dimension %d, expected %d", i, len(vec), dim)
		}
	}
	return &artifact.Artifact{
		Manifest: artifact.Manifest{
			Strategy:  faq.StrategyDense,
			ModelID:   opts.Embedder.ModelID(),
			Dim:       dim,
			Normalize: true,
		},
		Entries: entries,
		Vectors: vectors,
	}, nil
}
