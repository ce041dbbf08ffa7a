package reconciler

import (
	"context"
	"sync"
	"time"

	"github.com/draftwise/wp-publisher/internal/logger"
)

// Worker runs reconciliation on a fixed interval until stopped.
type Worker struct {
	reconciler *Reconciler
	interval   time.Duration
	logger     logger.Logger

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewWorker creates a periodic reconciliation worker.
func NewWorker(r *Reconciler, interval time.Duration, log logger.Logger) *Worker {
	return &Worker{
		reconciler: r,
		interval:   interval,
		logger:     log,
	}
}

// Start launches the worker loop. Calling Start on a running worker is a no-op.
func (w *Worker) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		w.logger.Warn("reconcile worker already running")
		return
	}

	w.running = true
	w.stopChan = make(chan struct{})
	w.wg.Add(1)

	go w.loop(ctx)

	w.logger.Info("reconcile worker started", logger.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for the current run to finish.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stopChan)
	w.mu.Unlock()

	w.wg.Wait()
	w.logger.Info("reconcile worker stopped")
}

func (w *Worker) loop(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Run once up front so a restart does not wait a full interval.
	w.runOnce(ctx)

	for {
		select {
		case <-ticker.C:
			w.runOnce(ctx)
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (w *Worker) runOnce(ctx context.Context) {
	if _, err := w.reconciler.Run(ctx); err != nil {
		w.logger.Error("reconciliation run failed", logger.Error(err))
	}
}
