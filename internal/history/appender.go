package history

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mediscan-ai/mediscan/internal/analysis"
)

// AppenderConfig controls queue and worker sizing.
type AppenderConfig struct {
	QueueSize       int
	Workers         int
	ShutdownTimeout time.Duration
}

// AppenderMetrics holds delivery counters.
type AppenderMetrics struct {
	enqueued uint64
	dropped  uint64
	appended uint64
	failed   uint64
}

func (m AppenderMetrics) Enqueued() uint64 { return m.enqueued }
func (m AppenderMetrics) Dropped() uint64  { return m.dropped }
func (m AppenderMetrics) Appended() uint64 { return m.appended }
func (m AppenderMetrics) Failed() uint64   { return m.failed }

// Appender persists records to the Store off the request path. Enqueue never
// blocks: when the queue is full the record is dropped and counted. Append
// failures are logged and counted, never surfaced to the analysis caller —
// history is best-effort.
type Appender struct {
	queue           chan *analysis.Record
	store           *Store
	log             *logrus.Logger
	shutdownTimeout time.Duration

	mu        sync.RWMutex
	metricsMu sync.Mutex
	metrics   AppenderMetrics
	closed    bool
	wg        sync.WaitGroup
}

// NewAppender starts background workers draining the queue into the store.
func NewAppender(cfg AppenderConfig, store *Store, log *logrus.Logger) *Appender {
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 256
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	shutdownTimeout := cfg.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 2 * time.Second
	}
	if log == nil {
		log = logrus.New()
	}

	a := &Appender{
		queue:           make(chan *analysis.Record, queueSize),
		store:           store,
		log:             log,
		shutdownTimeout: shutdownTimeout,
	}
	for i := 0; i < workers; i++ {
		a.wg.Add(1)
		go a.worker()
	}
	return a
}

// Enqueue hands a record to the background workers without blocking.
func (a *Appender) Enqueue(rec *analysis.Record) {
	if a == nil || rec == nil {
		return
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		a.count(func(m *AppenderMetrics) { m.dropped++ })
		return
	}

	select {
	case a.queue <- rec:
		a.count(func(m *AppenderMetrics) { m.enqueued++ })
	default:
		a.count(func(m *AppenderMetrics) { m.dropped++ })
	}
}

// Close stops accepting records and waits briefly to drain the queue.
func (a *Appender) Close(ctx context.Context) {
	if a == nil {
		return
	}
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	close(a.queue)
	a.mu.Unlock()

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	if ctx == nil {
		ctx = context.Background()
	}
	waitCtx, cancel := context.WithTimeout(ctx, a.shutdownTimeout)
	defer cancel()

	select {
	case <-done:
	case <-waitCtx.Done():
	}
}

// MetricsSnapshot copies the current counters.
func (a *Appender) MetricsSnapshot() AppenderMetrics {
	a.metricsMu.Lock()
	defer a.metricsMu.Unlock()
	return a.metrics
}

func (a *Appender) worker() {
	defer a.wg.Done()
	for rec := range a.queue {
		if err := a.store.Append(rec); err != nil {
			a.log.WithError(err).WithField("analysis_id", rec.ID).Error("history append failed")
			a.count(func(m *AppenderMetrics) { m.failed++ })
			continue
		}
		a.count(func(m *AppenderMetrics) { m.appended++ })
	}
}

func (a *Appender) count(update func(*AppenderMetrics)) {
	a.metricsMu.Lock()
	update(&a.metrics)
	a.metricsMu.Unlock()
}
