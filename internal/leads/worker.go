package leads

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/lieuxdexception/site/internal/events"
)

// WorkerQueue is the queue group shared by every sync worker, so each
// announced lead reaches one replica only.
const WorkerQueue = "lead-sync"

// Worker syncs leads announced on the bus. Used in async mode.
type Worker struct {
	svc *Service
	sub events.Subscriber
}

func NewWorker(svc *Service, sub events.Subscriber) *Worker {
	return &Worker{svc: svc, sub: sub}
}

// Start subscribes, then syncs announced leads in the background until ctx
// ends or the subscription closes. The returned channel closes on exit.
func (w *Worker) Start(ctx context.Context) (<-chan struct{}, error) {
	ch, cancel, err := w.sub.QueueSubscribe(events.TopicLeadCreated, WorkerQueue)
	if err != nil {
		return nil, err
	}
	w.svc.log.Infof("sync worker listening on %s", events.TopicLeadCreated)
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case raw, ok := <-ch:
				if !ok {
					return
				}
				w.handle(ctx, raw)
			}
		}
	}()
	return done, nil
}

// Run is Start followed by a wait.
func (w *Worker) Run(ctx context.Context) error {
	done, err := w.Start(ctx)
	if err != nil {
		return err
	}
	<-done
	return nil
}

func (w *Worker) handle(ctx context.Context, raw []byte) {
	var ev events.LeadCreated
	if err := json.Unmarshal(raw, &ev); err != nil || ev.LeadID == "" {
		w.svc.log.Warnf("worker: bad payload %q", raw)
		return
	}
	_, err := w.svc.Sync(ctx, ev.LeadID)
	switch {
	case errors.Is(err, ErrSyncInProgress):
		w.svc.log.Debugf("worker: %s held by another syncer", ev.LeadID)
	case err != nil:
		w.svc.log.Warnf("worker: %v", err)
	}
}
