package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/docchunk/internal/config"
	"github.com/dgallion1/docchunk/internal/parser"
	"github.com/dgallion1/docchunk/internal/pathstore"
)

// Orchestrator manages the document ingestion pipeline.
type Orchestrator struct {
	jobs  *JobStore
	queue chan *Job
	ps    *pathstore.Client
	stats *ProcessingStats
	log   *slog.Logger
	cfg   config.Config

	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

// NewOrchestrator creates the pipeline. ps may be nil, in which case jobs
// stop after chunking and their chunks are only served from memory.
func NewOrchestrator(cfg config.Config, ps *pathstore.Client, stats *ProcessingStats, log *slog.Logger) *Orchestrator {
	if stats == nil {
		stats = NewProcessingStats(time.Hour)
	}
	return &Orchestrator{
		jobs:  NewJobStore(cfg.JobTTL),
		queue: make(chan *Job, cfg.MaxQueueSize),
		ps:    ps,
		stats: stats,
		log:   log,
		cfg:   cfg,
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	opts := parser.Options{PDFFallbackPdftotext: o.cfg.PDFFallbackPdftotext}
	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.ps, o.log, opts, o.stats, o.cfg.MaxConcurrentStore)
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	close(o.queue)
	o.mu.Unlock()

	if o.cancel != nil {
		o.cancel()
	}
	o.wg.Wait()
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.closed {
		return fmt.Errorf("pipeline is shutting down")
	}

	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// PathstoreClient returns the pathstore client for direct use by API
// handlers, or nil when storage is disabled.
func (o *Orchestrator) PathstoreClient() *pathstore.Client {
	return o.ps
}

// Stats returns the processing latency tracker shared with the workers.
func (o *Orchestrator) Stats() *ProcessingStats {
	return o.stats
}
