// Package analytics retries click writes that failed on the redirect path.
package analytics

import (
	"Shortly-Backend/internal/domain"
	"Shortly-Backend/internal/repository"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

var (
	ErrNotStarted   = errors.New("analytics: processor not started")
	ErrAlreadyStart = errors.New("analytics: processor already started")
	ErrQueueFull    = errors.New("analytics: queue is full")
	ErrShuttingDown = errors.New("analytics: processor is shutting down")
	ErrStopTimeout  = errors.New("analytics: shutdown timeout reached")
)

// ProcessorConfig holds configuration for the click retry processor
type ProcessorConfig struct {
	WorkerCount     int           // Number of worker goroutines
	BufferSize      int           // Size of the job queue buffer
	RetryAttempts   int           // Attempts per click, including the first
	RetryDelay      time.Duration // Base delay, doubled after each failure
	AttemptTimeout  time.Duration // Deadline of a single write
	ShutdownTimeout time.Duration // Time to wait for queued clicks on Stop
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() ProcessorConfig {
	return ProcessorConfig{
		WorkerCount:     3,
		BufferSize:      1000,
		RetryAttempts:   3,
		RetryDelay:      time.Second,
		AttemptTimeout:  10 * time.Second,
		ShutdownTimeout: 30 * time.Second,
	}
}

// Stats is a snapshot of processor counters.
type Stats struct {
	Started       bool  `json:"started"`
	QueueLength   int   `json:"queue_length"`
	QueueCapacity int   `json:"queue_capacity"`
	WorkerCount   int   `json:"worker_count"`
	RetryAttempts int   `json:"retry_attempts"`
	Submitted     int64 `json:"submitted"`
	Recorded      int64 `json:"recorded"`
	Dropped       int64 `json:"dropped"`
	Failed        int64 `json:"failed"`
}

// Processor writes clicks in the background with exponential backoff.
// Clicks still queued when Stop is called are drained before it returns.
type Processor struct {
	config   ProcessorConfig
	clicks   repository.ClickStore
	log      *zap.Logger
	jobQueue chan *domain.Click
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	started  bool
	stopped  bool // jobQueue is closed and ctx cancelled
	mu       sync.RWMutex

	submitted atomic.Int64
	recorded  atomic.Int64
	dropped   atomic.Int64
	failed    atomic.Int64
}

// NewProcessor creates a new click retry processor
func NewProcessor(clicks repository.ClickStore, log *zap.Logger, config ProcessorConfig) *Processor {
	defaults := DefaultConfig()
	if config.WorkerCount <= 0 {
		config.WorkerCount = defaults.WorkerCount
	}
	if config.BufferSize <= 0 {
		config.BufferSize = defaults.BufferSize
	}
	if config.RetryAttempts <= 0 {
		config.RetryAttempts = defaults.RetryAttempts
	}
	if config.AttemptTimeout <= 0 {
		config.AttemptTimeout = defaults.AttemptTimeout
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = defaults.ShutdownTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Processor{
		config:   config,
		clicks:   clicks,
		log:      log,
		jobQueue: make(chan *domain.Click, config.BufferSize),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start launches the workers. A stopped processor can be started again.
func (p *Processor) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return ErrAlreadyStart
	}
	if p.stopped {
		p.jobQueue = make(chan *domain.Click, p.config.BufferSize)
		p.ctx, p.cancel = context.WithCancel(context.Background())
		p.stopped = false
	}

	p.log.Info("starting click processor",
		zap.Int("workers", p.config.WorkerCount),
		zap.Int("buffer_size", p.config.BufferSize),
		zap.Int("retry_attempts", p.config.RetryAttempts),
	)

	for i := 0; i < p.config.WorkerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	p.started = true
	return nil
}

// Stop closes the queue and waits for the workers to drain it. Backoff
// sleeps are cut short once the shutdown timeout expires.
func (p *Processor) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return ErrNotStarted
	}
	p.started = false
	p.stopped = true

	p.log.Info("stopping click processor", zap.Int("queued", len(p.jobQueue)))
	close(p.jobQueue)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		p.log.Info("click processor stopped gracefully")
		return nil
	case <-time.After(p.config.ShutdownTimeout):
		p.cancel()
		<-done
		p.log.Warn("click processor shutdown timeout reached", zap.Int64("dropped", p.dropped.Load()))
		return ErrStopTimeout
	}
}

// Submit queues a click for another write attempt. It never blocks.
func (p *Processor) Submit(click *domain.Click) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.started {
		return ErrNotStarted
	}

	select {
	case p.jobQueue <- click:
		p.submitted.Add(1)
		p.log.Debug("click queued for retry", zap.Int64("link_id", click.LinkID))
		return nil
	case <-p.ctx.Done():
		return ErrShuttingDown
	default:
		p.dropped.Add(1)
		p.log.Error("click queue is full, dropping click",
			zap.Int64("link_id", click.LinkID),
			zap.Int("queue_size", len(p.jobQueue)),
		)
		return ErrQueueFull
	}
}

func (p *Processor) worker(workerID int) {
	defer p.wg.Done()

	log := p.log.With(zap.Int("worker_id", workerID))
	log.Debug("click worker started")

	for click := range p.jobQueue {
		p.recordWithRetry(log, click)
	}
	log.Debug("click worker stopped")
}

func (p *Processor) recordWithRetry(log *zap.Logger, click *domain.Click) {
	var lastErr error

retry:
	for attempt := 1; attempt <= p.config.RetryAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), p.config.AttemptTimeout)
		err := p.clicks.RecordClick(ctx, click)
		cancel()

		if err == nil {
			p.recorded.Add(1)
			if attempt > 1 {
				log.Info("click recorded after retry",
					zap.Int64("link_id", click.LinkID),
					zap.Int("attempt", attempt),
				)
			}
			return
		}

		lastErr = err
		log.Warn("click write failed",
			zap.Int64("link_id", click.LinkID),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", p.config.RetryAttempts),
			zap.Error(err),
		)

		if attempt == p.config.RetryAttempts {
			break
		}

		delay := p.config.RetryDelay * time.Duration(1<<(attempt-1))
		select {
		case <-time.After(delay):
		case <-p.ctx.Done():
			lastErr = errors.Join(lastErr, ErrShuttingDown)
			break retry
		}
	}

	p.failed.Add(1)
	log.Error("click lost after all retries",
		zap.Int64("link_id", click.LinkID),
		zap.Int("attempts", p.config.RetryAttempts),
		zap.Error(lastErr),
	)
}

// GetStats returns processor statistics
func (p *Processor) GetStats() Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return Stats{
		Started:       p.started,
		QueueLength:   len(p.jobQueue),
		QueueCapacity: cap(p.jobQueue),
		WorkerCount:   p.config.WorkerCount,
		RetryAttempts: p.config.RetryAttempts,
		Submitted:     p.submitted.Load(),
		Recorded:      p.recorded.Load(),
		Dropped:       p.dropped.Load(),
		Failed:        p.failed.Load(),
	}
}
