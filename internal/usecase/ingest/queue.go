package ingest

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/pagesight/pagesight/internal/domain"
	"github.com/pagesight/pagesight/internal/metrics"
	"github.com/pagesight/pagesight/internal/notify"
)

// notifyTimeout bounds terminal-outcome delivery independently of the
// task's own deadline.
const notifyTimeout = 30 * time.Second

// runner lets queue tests substitute the pipeline.
type runner interface {
	run(ctx context.Context, req Request, mode string) (domain.Document, error)
}

// Queue runs ingestions in the background with bounded concurrency. Each
// task reports its terminal outcome through the notifier exactly once.
type Queue struct {
	svc      runner
	notifier Notifier
	sem      *semaphore.Weighted
	wg       sync.WaitGroup
	timeout  time.Duration
	logger   *zap.Logger
}

// NewQueue creates an async ingestion queue. maxTasks bounds how many
// pipelines run at once; taskTimeout bounds each one.
func NewQueue(svc *Service, notifier Notifier, maxTasks int64, taskTimeout time.Duration, log *zap.Logger) *Queue {
	if maxTasks <= 0 {
		maxTasks = 8
	}
	if taskTimeout <= 0 {
		taskTimeout = 15 * time.Minute
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Queue{
		svc:      svc,
		notifier: notifier,
		sem:      semaphore.NewWeighted(maxTasks),
		timeout:  taskTimeout,
		logger:   log,
	}
}

// Enqueue accepts the request and returns immediately. The pipeline runs
// detached from the caller's context; the HTTP request finishing does not
// cancel it.
func (q *Queue) Enqueue(req Request) {
	if req.CollectionName == "" {
		req.CollectionName = DefaultCollection
	}
	taskID := uuid.NewString()

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()

		if err := q.sem.Acquire(context.Background(), 1); err != nil {
			return
		}
		defer q.sem.Release(1)

		metrics.IngestQueueInFlight.Inc()
		defer metrics.IngestQueueInFlight.Dec()

		ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
		defer cancel()

		doc, err := q.svc.run(ctx, req, "async")

		ev := notify.Event{
			ID:             taskID,
			OwnerID:        req.OwnerID,
			CollectionName: req.CollectionName,
			DocumentName:   req.DocumentName,
			Status:         notify.StatusSuccess,
			FinishedAt:     time.Now().UTC(),
		}
		if err != nil {
			ev.Status = notify.StatusFailure
			ev.Error = err.Error()
		} else {
			ev.DocumentID = doc.ID
			ev.Metadata = doc.Metadata
		}

		// The task context may already be expired; a pipeline timeout is a
		// terminal failure that still has to be reported.
		nctx, ncancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer ncancel()
		if nerr := q.notifier.Notify(nctx, ev); nerr != nil {
			q.logger.Warn("notification delivery failed",
				zap.String("document", req.DocumentName), zap.Error(nerr))
		}
	}()
}

// Shutdown waits for running tasks to finish or the context to expire.
func (q *Queue) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
