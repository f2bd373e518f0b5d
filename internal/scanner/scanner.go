// Package scanner runs the concurrent source scan.
//
// One producer goroutine walks the root directory and pushes candidate paths
// into a bounded WorkQueue; a fixed pool of ScanWorkers drains the queue,
// applies the pattern catalogue line by line and records each file's issues
// in a shared results.Aggregator. When the producer closes the queue every
// worker returns, the pool is joined, and the aggregator is frozen for the
// reporter.
//
// A scan is not cancellable once started. The context is used for logging
// only.
package scanner

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	scanerrors "github.com/conneroisu/srcguard/internal/errors"
	"github.com/conneroisu/srcguard/internal/logging"
	"github.com/conneroisu/srcguard/internal/patterns"
	"github.com/conneroisu/srcguard/internal/queue"
	"github.com/conneroisu/srcguard/internal/results"
	"github.com/conneroisu/srcguard/internal/walker"
)

// MaxWorkers caps the pool size regardless of host core count.
const MaxWorkers = 8

// WorkerCount returns min(MaxWorkers, NumCPU), lowered to requested when
// requested is positive and smaller.
func WorkerCount(requested int) int {
	n := runtime.NumCPU()
	if n > MaxWorkers {
		n = MaxWorkers
	}
	if requested > 0 && requested < n {
		n = requested
	}
	return n
}

// Observer receives per-file and per-scan events. Implementations must be
// safe for concurrent use.
type Observer interface {
	FileScanned(path string, issues []results.Issue)
	FileFailed(path string, err error)
	ScanFinished(outcome *Outcome)
}

type nopObserver struct{}

func (nopObserver) FileScanned(string, []results.Issue) {}
func (nopObserver) FileFailed(string, error)            {}
func (nopObserver) ScanFinished(*Outcome)               {}

// Options configures a Scanner.
type Options struct {
	Extensions         []string
	Exclude            []string
	Workers            int
	QueueSize          int
	SkipTestDirectives bool
	Catalogue          *patterns.Catalogue
	Logger             logging.Logger
	Observer           Observer
}

// Outcome is the result of one scan.
type Outcome struct {
	Root         string
	State        *results.ScanState
	FilesScanned int
	ReadErrors   []error
	Workers      int
	Duration     time.Duration
}

// Scanner scans directory trees. Every scan gets its own queue, pool and
// aggregator, so a Scanner is safe for concurrent use.
type Scanner struct {
	walker             *walker.Walker
	catalogue          *patterns.Catalogue
	logger             logging.Logger
	observer           Observer
	workers            int
	queueSize          int
	skipTestDirectives bool
	lineLimit          int
	bufferPool         *BufferPool
}

// New creates a scanner from opts, filling in defaults.
func New(opts Options) *Scanner {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	catalogue := opts.Catalogue
	if catalogue == nil {
		catalogue = patterns.Default()
	}
	observer := opts.Observer
	if observer == nil {
		observer = nopObserver{}
	}

	workers := WorkerCount(opts.Workers)
	queueSize := opts.QueueSize
	if queueSize <= 0 {
		queueSize = workers * 2
	}

	return &Scanner{
		walker:             walker.New(opts.Extensions, opts.Exclude, logger),
		catalogue:          catalogue,
		logger:             logger.WithComponent("scanner"),
		observer:           observer,
		workers:            workers,
		queueSize:          queueSize,
		skipTestDirectives: opts.SkipTestDirectives,
		lineLimit:          maxLineBytes,
		bufferPool:         NewBufferPool(),
	}
}

// Workers returns the pool size used for each scan.
func (s *Scanner) Workers() int {
	return s.workers
}

// Walker returns the file walker used by the scanner.
func (s *Scanner) Walker() *walker.Walker {
	return s.walker
}

// Scan scans every candidate file under root. It fails only when root is not
// a readable directory; unreadable files are reported in Outcome.ReadErrors.
func (s *Scanner) Scan(ctx context.Context, root string) (*Outcome, error) {
	if err := walker.Validate(root); err != nil {
		return nil, err
	}

	op := logging.StartOperation(s.logger, "scan")
	pool := newWorkerPool(s, s.workers, s.queueSize)
	s.logger.Debug(ctx, "Starting scan", "root", root, "workers", len(pool.workers), "queue_size", pool.queue.Cap())

	var g errgroup.Group
	g.Go(func() error {
		defer pool.queue.Close()
		return s.walker.Walk(ctx, root, func(path string) error {
			if !pool.queue.Push(path) {
				return fmt.Errorf("queue closed before %s was enqueued", path)
			}
			return nil
		})
	})
	for _, w := range pool.workers {
		w := w
		g.Go(func() error {
			w.run(ctx)
			return nil
		})
	}

	walkErr := g.Wait()
	state := pool.sink.Freeze()
	if walkErr != nil {
		return nil, walkErr
	}

	outcome := &Outcome{
		Root:         root,
		State:        state,
		FilesScanned: int(pool.scanned.Load()),
		ReadErrors:   pool.errs.GetAllErrors(),
		Workers:      s.workers,
		Duration:     op.Elapsed(),
	}

	fields := []interface{}{
		"root", root,
		"files_scanned", outcome.FilesScanned,
		"files_failed", pool.errs.Count(),
		"files_with_issues", len(state.FileIssues),
		"issues", state.IssueCount(),
		"total_matches", state.Total(),
	}
	if pool.errs.HasErrors() {
		fields = append(fields, "failed_paths", pool.errs.FailedPaths())
	}
	op.End(ctx, "Scan completed", fields...)
	s.observer.ScanFinished(outcome)

	return outcome, nil
}

// WorkerPool is the fixed set of workers for one scan together with the
// queue they drain and the aggregator they write into.
type WorkerPool struct {
	queue   *queue.WorkQueue
	workers []*ScanWorker
	sink    *results.Aggregator
	errs    *scanerrors.ErrorCollector
	scanned atomic.Int64
}

func newWorkerPool(s *Scanner, workerCount, queueSize int) *WorkerPool {
	pool := &WorkerPool{
		queue: queue.New(queueSize),
		sink:  results.NewAggregator(s.catalogue.Kinds()),
		errs:  scanerrors.NewErrorCollector(),
	}

	pool.workers = make([]*ScanWorker, workerCount)
	for i := 0; i < workerCount; i++ {
		pool.workers[i] = &ScanWorker{
			id:      i,
			pool:    pool,
			scanner: s,
			logger:  s.logger.With("worker_id", i),
		}
	}

	return pool
}

// ScanWorker pulls paths from the pool's queue until it is closed and
// drained.
type ScanWorker struct {
	id      int
	pool    *WorkerPool
	scanner *Scanner
	logger  logging.Logger
}

func (w *ScanWorker) run(ctx context.Context) {
	for {
		path, ok := w.pool.queue.Pop()
		if !ok {
			return
		}

		fi, err := w.scanner.ScanFile(path)
		if err != nil {
			// Per-file failures never leave the worker. Issues found before
			// a mid-file failure are still recorded.
			w.pool.errs.AddError(err)
			w.pool.sink.Record(fi)
			w.logger.Warn(ctx, err, "Skipping unreadable file", "path", path, "partial_issues", len(fi.Issues))
			w.scanner.observer.FileFailed(path, err)
			continue
		}

		w.pool.scanned.Add(1)
		w.pool.sink.Record(fi)
		w.scanner.observer.FileScanned(path, fi.Issues)
		if len(fi.Issues) > 0 {
			w.logger.Debug(ctx, "Issues found", "path", path, "issues", len(fi.Issues))
		}
	}
}

// BufferPool manages reusable line buffers for file reading
type BufferPool struct {
	pool sync.Pool
}

// NewBufferPool creates a new buffer pool with initial buffer size
func NewBufferPool() *BufferPool {
	return &BufferPool{
		pool: sync.Pool{
			New: func() interface{} {
				return make([]byte, 0, 64*1024)
			},
		},
	}
}

// Get retrieves a buffer from the pool
func (bp *BufferPool) Get() []byte {
	return bp.pool.Get().([]byte)[:0]
}

// Put returns a buffer to the pool
func (bp *BufferPool) Put(buf []byte) {
	// Oversized buffers are left for the GC.
	if cap(buf) <= 1024*1024 {
		bp.pool.Put(buf)
	}
}
