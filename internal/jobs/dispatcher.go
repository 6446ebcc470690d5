package jobs

import (
	"context"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/spec-kit/service-core/internal/config"
)

const (
	OutcomeCompleted = "completed"
	OutcomePanicked  = "panicked"
	OutcomeDropped   = "dropped"
)

// Recorder receives job outcome counts.
type Recorder interface {
	RecordJob(kind, outcome string, duration time.Duration)
}

type substrate interface {
	submit(run func()) bool
	close(ctx context.Context) error
}

// Dispatcher routes jobs to their substrate by kind. Submission is
// fire-and-forget: nothing is reported back to the caller.
type Dispatcher struct {
	ctx     context.Context
	cancel  context.CancelFunc
	logger  *zap.Logger
	metrics Recorder
	table   [kindCount]substrate

	mu     sync.RWMutex
	closed bool
}

// NewDispatcher starts the IO and CPU pools. Future jobs share the Go
// scheduler with request handling and get a context cancelled on Shutdown.
func NewDispatcher(cfg config.JobsConfig, logger *zap.Logger, metrics Recorder) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	ioWorkers := cfg.IOWorkers
	if ioWorkers <= 0 {
		ioWorkers = 64
	}
	cpuWorkers := cfg.CPUWorkers
	if cpuWorkers <= 0 {
		cpuWorkers = runtime.NumCPU()
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{ctx: ctx, cancel: cancel, logger: logger, metrics: metrics}
	d.table[KindFuture] = &futureRunner{}
	d.table[KindIOBlocking] = &poolRunner{pool: NewPool(KindIOBlocking.String(), ioWorkers)}
	d.table[KindCPUBound] = &poolRunner{pool: NewPool(KindCPUBound.String(), cpuWorkers)}

	logger.Info("job dispatcher started",
		zap.Int("io_workers", ioWorkers),
		zap.Int("cpu_workers", cpuWorkers))
	return d
}

// Submit hands the job to its substrate and returns immediately.
func (d *Dispatcher) Submit(job Job) {
	if !job.Kind.Valid() || job.run == nil {
		d.logger.Error("job rejected", zap.String("job", job.Name), zap.Stringer("kind", job.Kind))
		d.record(job.Kind, OutcomeDropped, 0)
		return
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.logger.Warn("job dropped after shutdown", zap.String("job", job.Name), zap.Stringer("kind", job.Kind))
		d.record(job.Kind, OutcomeDropped, 0)
		return
	}

	id := uuid.NewString()
	if !d.table[job.Kind].submit(func() { d.execute(id, job) }) {
		d.logger.Warn("job dropped by substrate", zap.String("job", job.Name), zap.Stringer("kind", job.Kind))
		d.record(job.Kind, OutcomeDropped, 0)
	}
}

// Shutdown stops accepting jobs, cancels the Future context and waits for
// queued and running jobs to finish or ctx to expire.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()

	var err error
	for _, kind := range []Kind{KindIOBlocking, KindCPUBound, KindFuture} {
		if kind == KindFuture {
			d.cancel()
		}
		err = multierr.Append(err, d.table[kind].close(ctx))
	}
	return err
}

// execute is the panic boundary shared by every substrate.
func (d *Dispatcher) execute(id string, job Job) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("job panicked",
				zap.String("job_id", id),
				zap.String("job", job.Name),
				zap.Stringer("kind", job.Kind),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
			d.record(job.Kind, OutcomePanicked, time.Since(start))
			return
		}
		d.record(job.Kind, OutcomeCompleted, time.Since(start))
	}()

	job.run(d.ctx)
}

func (d *Dispatcher) record(kind Kind, outcome string, duration time.Duration) {
	if d.metrics != nil {
		d.metrics.RecordJob(kind.String(), outcome, duration)
	}
}

type futureRunner struct {
	wg sync.WaitGroup
}

func (f *futureRunner) submit(run func()) bool {
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		run()
	}()
	return true
}

func (f *futureRunner) close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		f.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type poolRunner struct {
	pool *Pool
}

func (p *poolRunner) submit(run func()) bool {
	return p.pool.Enqueue(run)
}

func (p *poolRunner) close(ctx context.Context) error {
	return p.pool.Close(ctx)
}
