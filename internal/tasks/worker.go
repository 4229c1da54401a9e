package tasks

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/syncwave/internal/queue"
)

// receiveBackoff is how long the loop pauses after a queue error before
// polling again.
const receiveBackoff = time.Second

// Worker consumes the migration queue and hands each delivery to a [Processor].
//
// One unit of work per cycle: the loop blocks on the queue's long-poll window,
// processes the delivery to its terminal status, then polls again.
type Worker struct {
	queue  queue.Queue
	proc   *Processor
	logger *log.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewWorker creates a stopped worker.
func NewWorker(q queue.Queue, proc *Processor, logger *log.Logger) *Worker {
	return &Worker{queue: q, proc: proc, logger: logger}
}

// Start spawns the consume loop. Calling Start on a running worker is a no-op.
func (w *Worker) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})

	go w.loop(ctx, w.done)
	w.logger.Info("worker started", "ack_policy", w.queue.Policy())
}

// Stop cancels the loop and waits for the in-flight cycle to finish. The
// current job is not abandoned mid-item; cancellation lands between remote
// calls via the context.
func (w *Worker) Stop() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel, w.done = nil, nil
	w.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	<-done
	w.logger.Info("worker stopped")
}

func (w *Worker) loop(ctx context.Context, done chan struct{}) {
	// Release the lifecycle handle before signalling exit, so a worker whose
	// parent context was cancelled externally can be started again without an
	// intervening Stop. When Stop initiated the shutdown it has already taken
	// the handle, and the guard leaves it alone.
	defer func() {
		w.mu.Lock()
		if w.done == done {
			w.cancel, w.done = nil, nil
		}
		w.mu.Unlock()
		close(done)
	}()

	for {
		if ctx.Err() != nil {
			return
		}

		delivery, err := w.queue.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}

			w.logger.Error("queue receive failed", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(receiveBackoff):
			}
			continue
		}

		if delivery == nil {
			continue
		}

		w.logger.Info("processing job", "job_id", delivery.Message.JobID)

		// Errors are recorded on the job by the processor; the message is
		// already off the queue, so there is nothing further to do here.
		_ = w.proc.ProcessJob(ctx, delivery.Message)
	}
}
