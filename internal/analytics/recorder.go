package analytics

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RecorderConfig sizes the async write queue.
type RecorderConfig struct {
	QueueSize    int           `mapstructure:"queue_size"`
	NumWorkers   int           `mapstructure:"num_workers"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DefaultRecorderConfig returns the queue defaults.
func DefaultRecorderConfig() RecorderConfig {
	return RecorderConfig{
		QueueSize:    256,
		NumWorkers:   2,
		WriteTimeout: 5 * time.Second,
	}
}

type job struct {
	kind string
	run  func(ctx context.Context, s Store) error
}

// AsyncRecorder writes analytics in the background. Enqueueing never blocks:
// when the queue is full the write is dropped and logged.
type AsyncRecorder struct {
	store    Store
	cfg      RecorderConfig
	queue    chan job
	stopChan chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
	dropped  atomic.Int64
	failed   atomic.Int64
	logger   zerolog.Logger
}

// NewAsyncRecorder creates a recorder over store. Call Start before use.
func NewAsyncRecorder(store Store, cfg RecorderConfig) *AsyncRecorder {
	def := DefaultRecorderConfig()
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.NumWorkers <= 0 {
		cfg.NumWorkers = def.NumWorkers
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if store == nil {
		store = NopStore{}
	}
	return &AsyncRecorder{
		store:    store,
		cfg:      cfg,
		queue:    make(chan job, cfg.QueueSize),
		stopChan: make(chan struct{}),
		logger:   log.With().Str("component", "analytics_recorder").Str("store", store.Name()).Logger(),
	}
}

// Start launches the worker goroutines.
func (r *AsyncRecorder) Start() {
	r.logger.Info().Int("workers", r.cfg.NumWorkers).Int("queue", r.cfg.QueueSize).Msg("Starting analytics recorder")
	for i := 0; i < r.cfg.NumWorkers; i++ {
		r.wg.Add(1)
		go r.workerLoop(i)
	}
}

// Stop drains the queue and waits for in-flight writes.
func (r *AsyncRecorder) Stop() {
	r.once.Do(func() {
		close(r.stopChan)
		r.wg.Wait()
		r.logger.Info().
			Int64("dropped", r.dropped.Load()).
			Int64("failed", r.failed.Load()).
			Msg("Analytics recorder stopped")
	})
}

func (r *AsyncRecorder) workerLoop(n int) {
	defer r.wg.Done()
	for {
		select {
		case j := <-r.queue:
			r.process(n, j)
		case <-r.stopChan:
			for {
				select {
				case j := <-r.queue:
					r.process(n, j)
				default:
					return
				}
			}
		}
	}
}

func (r *AsyncRecorder) process(worker int, j job) {
	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.WriteTimeout)
	defer cancel()
	if err := j.run(ctx, r.store); err != nil {
		r.failed.Add(1)
		r.logger.Warn().Err(err).Int("worker", worker).Str("kind", j.kind).Msg("Analytics write failed")
	}
}

func (r *AsyncRecorder) enqueue(j job) bool {
	select {
	case <-r.stopChan:
		r.dropped.Add(1)
		return false
	default:
	}
	select {
	case r.queue <- j:
		return true
	default:
		r.dropped.Add(1)
		r.logger.Warn().Str("kind", j.kind).Msg("Analytics queue full, dropping write")
		return false
	}
}

// RecordSearch queues a search history row and, when c is not nil, the
// comparison shown for it.
func (r *AsyncRecorder) RecordSearch(h SearchHistory, c *PriceComparison) bool {
	return r.enqueue(job{kind: "search", run: func(ctx context.Context, s Store) error {
		if err := s.SaveSearchHistory(ctx, &h); err != nil {
			return err
		}
		if c == nil {
			return nil
		}
		return s.SavePriceComparison(ctx, c)
	}})
}

// Dropped reports how many writes were discarded.
func (r *AsyncRecorder) Dropped() int64 { return r.dropped.Load() }

// Failed reports how many writes returned an error.
func (r *AsyncRecorder) Failed() int64 { return r.failed.Load() }
