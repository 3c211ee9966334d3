package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/brokercore/motorquote/internal/events"
)

// Notifier delivers a quotation event to an external channel.
type Notifier interface {
	Notify(ctx context.Context, ev events.Event) error
}

// LogNotifier records events without delivering them anywhere. It stands in
// until a mail or webhook channel is configured.
type LogNotifier struct {
	Log *slog.Logger
}

func (n LogNotifier) Notify(_ context.Context, ev events.Event) error {
	n.Log.Info("quotation event",
		"type", string(ev.Type),
		"quotation_id", ev.QuotationID,
		"occurred_at", ev.OccurredAt,
	)
	return nil
}

// DispatchWorker drains the in-process event bus and hands each event to the
// notifier. Delivery failures are logged and the event is dropped; the bus
// carries no redelivery guarantee.
type DispatchWorker struct {
	BaseWorker
	bus      *events.Bus
	notifier Notifier
	batch    int
}

// NewDispatchWorker creates a new dispatch worker.
func NewDispatchWorker(bus *events.Bus, notifier Notifier, interval time.Duration, log *slog.Logger) *DispatchWorker {
	return &DispatchWorker{
		BaseWorker: NewBaseWorker("dispatch", interval, log),
		bus:        bus,
		notifier:   notifier,
		batch:      50,
	}
}

// Start begins the worker polling loop.
func (w *DispatchWorker) Start(ctx context.Context) {
	w.Poll(ctx, w.dispatch)
}

// Name returns the worker name.
func (w *DispatchWorker) Name() string {
	return w.name
}

func (w *DispatchWorker) dispatch(ctx context.Context) error {
	evs := w.bus.Drain(w.batch)
	if len(evs) == 0 {
		return nil
	}

	w.log.Info("dispatching events", "count", len(evs), "pending", w.bus.Pending())

	for _, ev := range evs {
		if err := w.notifier.Notify(ctx, ev); err != nil {
			w.log.Error("failed to deliver event",
				"type", string(ev.Type),
				"quotation_id", ev.QuotationID,
				"err", err,
			)
		}
	}

	return nil
}
