package sourcestage

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/calebebrim/fireevents-pipeline/internal/kvstore"
)

// ackEvent is what the bus producer's delivery callback hands off to the
// single watermark-owning goroutine (§9 "producer callback as concurrent
// writer"): the row cursor and watermark KV keys are the only shared state
// a concurrent caller mutates, so exactly one goroutine ever writes them.
type ackEvent struct {
	id              string
	incidentNumber  string
	incidentDateStr string
	incidentDate    time.Time
	deliveryErr     error
}

// ackWorker owns the row-cursor and watermark KV keys. It is fed from the
// bus producer's delivery callback and from nowhere else.
type ackWorker struct {
	store   kvstore.Store
	service string
	formats []string
	log     *log.Logger
	ch      chan ackEvent
	done    chan struct{}

	inflight atomic.Int64 // enqueued acks not yet fully handled
}

func newAckWorker(store kvstore.Store, service string, formats []string, logger *log.Logger) *ackWorker {
	w := &ackWorker{
		store:   store,
		service: service,
		formats: formats,
		log:     logger,
		ch:      make(chan ackEvent, 4096),
		done:    make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *ackWorker) run() {
	defer close(w.done)
	for ev := range w.ch {
		w.handle(ev)
		w.inflight.Add(-1)
	}
}

func (w *ackWorker) handle(ev ackEvent) {
	ctx := context.Background()
	if ev.deliveryErr != nil {
		w.log.Printf("sourcestage: delivery failed for row %s: %v", ev.id, ev.deliveryErr)
		return
	}

	if err := w.store.Set(ctx, rowCursorKey(w.service, ev.id), `{"processed":true}`); err != nil {
		w.log.Printf("sourcestage: failed to set row cursor for %s: %v", ev.id, err)
		return
	}

	if err := w.advanceWatermark(ctx, ev.incidentDateStr, ev.incidentDate); err != nil {
		w.log.Printf("sourcestage: failed to advance watermark for %s: %v", ev.id, err)
	}
}

// advanceWatermark implements the max(existing, new) monotonic update
// (§3 Lifecycle, §8 watermark monotonicity, scenario 6).
func (w *ackWorker) advanceWatermark(ctx context.Context, incidentDateStr string, incidentDate time.Time) error {
	key := watermarkKey(w.service)
	existing, err := w.store.Get(ctx, key)
	if err == kvstore.ErrNotFound {
		return w.store.Set(ctx, key, incidentDateStr)
	}
	if err != nil {
		return err
	}
	existingTime, ok := parseAny(existing, w.formats)
	if !ok || incidentDate.After(existingTime) {
		return w.store.Set(ctx, key, incidentDateStr)
	}
	return nil
}

// Enqueue hands an acknowledgement to the worker. It never blocks the bus's
// own completion goroutine for long: the channel is generously buffered and
// only Flush waits for it to drain.
func (w *ackWorker) Enqueue(ev ackEvent) {
	w.inflight.Add(1)
	w.ch <- ev
}

// Drain blocks until every enqueued ack has been handled or ctx/timeout
// elapses, giving Processor.Flush a way to guarantee durability.
func (w *ackWorker) Drain(ctx context.Context, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for w.inflight.Load() > 0 {
		if time.Now().After(deadline) {
			return context.DeadlineExceeded
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Millisecond):
		}
	}
	return nil
}

func (w *ackWorker) Close() {
	close(w.ch)
	<-w.done
}

func parseAny(value string, formats []string) (time.Time, bool) {
	for _, f := range formats {
		if t, err := time.Parse(f, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
