package tokenfile

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gnana997/tokensync/pkg/tokens"
	"github.com/gnana997/tokensync/pkg/util"
)

// Loaded is one file read and parsed by a Batch.
type Loaded struct {
	Path string
	Doc  *tokens.Document
	Err  error
}

// Batch reads and parses token files on a fixed set of worker goroutines.
// Parsing is independent per file; callers import the results in order.
type Batch struct {
	numWorkers int
	logger     *slog.Logger

	loaded atomic.Int64
	failed atomic.Int64
}

// BatchStats counts the files a Batch has processed.
type BatchStats struct {
	NumWorkers int
	Loaded     int64
	Failed     int64
}

// NewBatch creates a Batch. numWorkers <= 0 uses util.PoolSize.
func NewBatch(numWorkers int, logger *slog.Logger) *Batch {
	if logger == nil {
		logger = slog.Default()
	}
	return &Batch{numWorkers: util.PoolSize(numWorkers), logger: logger}
}

type loadJob struct {
	index int
	path  string
}

// LoadAll returns one Loaded per path, in the order given. Files not started
// before ctx is cancelled carry ctx.Err().
func (b *Batch) LoadAll(ctx context.Context, paths []string) []Loaded {
	out := make([]Loaded, len(paths))
	for i, p := range paths {
		out[i] = Loaded{Path: p}
	}
	if len(paths) == 0 {
		return out
	}

	workers := min(b.numWorkers, len(paths))
	jobs := make(chan loadJob, workers*2)

	var wg sync.WaitGroup
	for id := 0; id < workers; id++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for job := range jobs {
				if err := ctx.Err(); err != nil {
					out[job.index].Err = err
					continue
				}
				out[job.index].Doc, out[job.index].Err = b.load(job.path)
				b.logger.Debug("Loaded token file", "worker_id", id, "file", job.path, "error", out[job.index].Err)
			}
		}(id)
	}

	for i, p := range paths {
		jobs <- loadJob{index: i, path: p}
	}
	close(jobs)
	wg.Wait()
	return out
}

func (b *Batch) load(path string) (*tokens.Document, error) {
	data, err := Load(path)
	if err != nil {
		b.failed.Add(1)
		return nil, err
	}
	doc, err := tokens.ParseDocument(data)
	if err != nil {
		b.failed.Add(1)
		return nil, err
	}
	b.loaded.Add(1)
	return doc, nil
}

// Stats returns counters accumulated across every LoadAll call.
func (b *Batch) Stats() BatchStats {
	return BatchStats{
		NumWorkers: b.numWorkers,
		Loaded:     b.loaded.Load(),
		Failed:     b.failed.Load(),
	}
}
