package pipeline

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/bastiangx/icdnorm/pkg/record"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

// ReadFunc loads the rows of one input file and names the batch.
type ReadFunc func(path string) (name string, rows []record.Row, err error)

// FileResult is the outcome of one file task.
type FileResult struct {
	Path    string
	Name    string
	Records []*record.Record
	Stats   record.Stats
	Elapsed time.Duration
	// Err is set when the file could not be read; the batch carries on.
	Err error
}

// Runner processes files in parallel, one task per file.
type Runner struct {
	pipeline *Pipeline
	read     ReadFunc
	workers  int
	onFile   func(FileResult)
	mu       sync.Mutex
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithWorkers bounds the number of files in flight. Zero or less means runtime.NumCPU().
func WithWorkers(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithOnFile registers a callback run after each file. Calls are serialized.
func WithOnFile(fn func(FileResult)) RunnerOption {
	return func(r *Runner) { r.onFile = fn }
}

// NewRunner creates a Runner.
func NewRunner(p *Pipeline, read ReadFunc, opts ...RunnerOption) *Runner {
	r := &Runner{pipeline: p, read: read, workers: runtime.NumCPU()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run processes files and returns per-file results in input order plus the
// reduced total. When ctx is cancelled no further files are started and the
// context error is returned alongside the files that did finish.
func (r *Runner) Run(ctx context.Context, files []string) ([]FileResult, record.Stats, error) {
	results := make([]FileResult, len(files))
	done := make([]bool, len(files))

	g := new(errgroup.Group)
	g.SetLimit(r.workers)
	for i, path := range files {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			res := r.runFile(path)
			results[i] = res
			done[i] = true
			r.notify(res)
			return nil
		})
	}
	_ = g.Wait()

	var finished []FileResult
	var stats []record.Stats
	for i, res := range results {
		if !done[i] {
			continue
		}
		finished = append(finished, res)
		if res.Err == nil {
			stats = append(stats, res.Stats)
		}
	}
	total := record.Sum("Total", stats...)
	return finished, total, ctx.Err()
}

func (r *Runner) runFile(path string) FileResult {
	start := time.Now()
	name, rows, err := r.read(path)
	if err != nil {
		log.Errorf("Failed to read %s: %v", path, err)
		return FileResult{Path: path, Name: name, Err: err}
	}

	res := FileResult{Path: path, Name: name, Records: make([]*record.Record, 0, len(rows))}
	res.Stats.Name = name
	for _, row := range rows {
		rec := r.pipeline.Process(row)
		res.Records = append(res.Records, rec)
		res.Stats.Add(rec)
	}
	res.Elapsed = time.Since(start)
	log.Debugf("Processed %s: %d rows in %v", name, len(rows), res.Elapsed)
	return res
}

func (r *Runner) notify(res FileResult) {
	if r.onFile == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onFile(res)
}
