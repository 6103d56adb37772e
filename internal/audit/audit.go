// Package audit persists a summary of every completed run. Recording is
// fire-and-forget: it never blocks a solve and never changes its output.
package audit

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/piwi3910/lotcut/internal/metrics"
	"github.com/piwi3910/lotcut/internal/model"
	"go.uber.org/zap"
)

// Sink stores run records.
type Sink interface {
	Write(ctx context.Context, rec model.RunRecord) error
	Close() error
}

// Reader lists the most recent records, newest first.
type Reader interface {
	Recent(ctx context.Context, limit int) ([]model.RunRecord, error)
}

const (
	DefaultQueueSize = 64
	writeTimeout     = 5 * time.Second
)

// Recorder fans records out to its sinks from a background goroutine.
type Recorder struct {
	sinks  []Sink
	logger *zap.Logger
	queue  chan model.RunRecord
	done   chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewRecorder starts the background writer. queueSize <= 0 uses DefaultQueueSize.
func NewRecorder(logger *zap.Logger, queueSize int, sinks ...Sink) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	r := &Recorder{
		sinks:  sinks,
		logger: logger,
		queue:  make(chan model.RunRecord, queueSize),
		done:   make(chan struct{}),
	}
	go r.run()
	return r
}

// Record queues rec. When the queue is full or the recorder is closed the
// record is dropped.
func (r *Recorder) Record(rec model.RunRecord) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return
	}
	select {
	case r.queue <- rec:
	default:
		metrics.AuditDropped.Inc()
		r.logger.Warn("audit queue full, dropping record", zap.String("run_id", rec.RunID))
	}
}

func (r *Recorder) run() {
	defer close(r.done)
	for rec := range r.queue {
		for _, s := range r.sinks {
			ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
			if err := s.Write(ctx, rec); err != nil {
				r.logger.Error("failed to write audit record", zap.String("run_id", rec.RunID), zap.Error(err))
			}
			cancel()
		}
	}
}

// Close drains the queue and closes every sink.
func (r *Recorder) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()

	<-r.done
	var errs []error
	for _, s := range r.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Config selects the sinks to open. Empty fields are skipped.
type Config struct {
	JSONLPath   string
	SQLitePath  string
	PostgresDSN string
}

// OpenSinks opens every configured sink. On error the sinks opened so far are closed.
func OpenSinks(ctx context.Context, cfg Config, logger *zap.Logger) ([]Sink, error) {
	var sinks []Sink
	fail := func(err error) ([]Sink, error) {
		for _, s := range sinks {
			_ = s.Close()
		}
		return nil, err
	}
	if cfg.JSONLPath != "" {
		s, err := NewJSONLSink(cfg.JSONLPath)
		if err != nil {
			return fail(err)
		}
		sinks = append(sinks, s)
	}
	if cfg.SQLitePath != "" {
		s, err := NewSQLiteSink(ctx, cfg.SQLitePath)
		if err != nil {
			return fail(err)
		}
		sinks = append(sinks, s)
	}
	if cfg.PostgresDSN != "" {
		s, err := NewPostgresSink(ctx, cfg.PostgresDSN, logger)
		if err != nil {
			return fail(err)
		}
		sinks = append(sinks, s)
	}
	return sinks, nil
}
