package scrape

import (
	"context"
	"log/slog"
	"wtbmonitor-backend/lib/timezone"
	"wtbmonitor-backend/services/comparison"
	"wtbmonitor-backend/services/ingest"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/scrape")

// sends block once this many progress events are waiting to be drained
const eventBuffer = 16

// WtbSource produces demand observations from a marketplace. Progress
// lines go out on events while the fetch runs; the source closes the
// channel when it is done producing. The runner is the only consumer.
type WtbSource interface {
	OriginLabel() string
	FetchWtb(ctx context.Context, events chan<- string) ([]ingest.WtbObservation, error)
}

// InventorySource produces catalog observations from the seller's
// shop, under the same event channel contract as WtbSource.
type InventorySource interface {
	OriginLabel() string
	FetchInventory(ctx context.Context, events chan<- string) ([]ingest.InventoryObservation, error)
}

// Runner drives one full ingestion run: open a session, pull everything
// the source produces, append it, then mark the session complete. The
// session is only completed when every append succeeded, so readers
// never see a half-written run.
type Runner struct {
	store   ingest.Store
	status  *Status
	console *Console
	cache   *comparison.Cache
}

func NewRunner(store ingest.Store, status *Status, console *Console, cache *comparison.Cache) *Runner {
	return &Runner{store: store, status: status, console: console, cache: cache}
}

func (r *Runner) Status() *Status   { return r.status }
func (r *Runner) Console() *Console { return r.console }

// StartWtb claims the WTB run slot and runs the scrape in the
// background. It returns ErrScrapeInFlight without side effects when a
// WTB scrape is already running.
func (r *Runner) StartWtb(source WtbSource) error {
	if err := r.status.TryStart(ingest.SourceWtb); err != nil {
		return err
	}
	go r.runClaimed(context.Background(), ingest.SourceWtb, source.OriginLabel(), func(ctx context.Context, sessionID string) (int64, error) {
		return r.collectWtb(ctx, sessionID, source)
	})
	return nil
}

// StartInventory is StartWtb for the seller catalog side.
func (r *Runner) StartInventory(source InventorySource) error {
	if err := r.status.TryStart(ingest.SourceInventory); err != nil {
		return err
	}
	go r.runClaimed(context.Background(), ingest.SourceInventory, source.OriginLabel(), func(ctx context.Context, sessionID string) (int64, error) {
		return r.collectInventory(ctx, sessionID, source)
	})
	return nil
}

// RunWtb runs a WTB scrape synchronously and returns the completed
// session id. Used by the CLI; the HTTP surface uses StartWtb.
func (r *Runner) RunWtb(ctx context.Context, source WtbSource) (string, error) {
	if err := r.status.TryStart(ingest.SourceWtb); err != nil {
		return "", err
	}
	return r.runClaimed(ctx, ingest.SourceWtb, source.OriginLabel(), func(ctx context.Context, sessionID string) (int64, error) {
		return r.collectWtb(ctx, sessionID, source)
	})
}

func (r *Runner) RunInventory(ctx context.Context, source InventorySource) (string, error) {
	if err := r.status.TryStart(ingest.SourceInventory); err != nil {
		return "", err
	}
	return r.runClaimed(ctx, ingest.SourceInventory, source.OriginLabel(), func(ctx context.Context, sessionID string) (int64, error) {
		return r.collectInventory(ctx, sessionID, source)
	})
}

// runClaimed assumes the caller already holds the run slot for kind.
func (r *Runner) runClaimed(ctx context.Context, kind ingest.SourceKind, label string, collect func(context.Context, string) (int64, error)) (sessionID string, err error) {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()
	span.SetAttributes(
		attribute.String("kind", string(kind)),
		attribute.String("origin_label", label),
	)

	defer func() {
		r.status.Finish(kind, timezone.Now(), err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			r.console.Logf("%s scrape failed: %v", kind, err)
			slog.ErrorContext(ctx, "scrape failed", "kind", kind, "err", err)
		}
	}()

	r.console.Logf("starting %s scrape (%s)", kind, label)

	sessionID, err = r.store.CreateSession(ctx, kind, label)
	if err != nil {
		return "", err
	}
	span.SetAttributes(attribute.String("session_id", sessionID))

	count, err := collect(ctx, sessionID)
	if err != nil {
		// the incomplete session stays behind as a tombstone; it is
		// never picked up as "latest"
		return "", err
	}

	if err = r.store.CompleteSession(ctx, sessionID, count); err != nil {
		return "", err
	}
	if r.cache != nil {
		r.cache.Invalidate()
	}

	r.console.Logf("%s scrape done: %d items in session %s", kind, count, sessionID)
	slog.InfoContext(ctx, "scrape complete",
		"kind", kind, "session_id", sessionID, "items", count)
	return sessionID, nil
}

func (r *Runner) collectWtb(ctx context.Context, sessionID string, source WtbSource) (int64, error) {
	events := make(chan string, eventBuffer)
	drained := r.console.Drain(events)
	items, err := source.FetchWtb(ctx, events)
	<-drained
	if err != nil {
		return 0, err
	}
	if err := r.store.AppendWtbObservations(ctx, sessionID, items); err != nil {
		return 0, err
	}
	return int64(len(items)), nil
}

func (r *Runner) collectInventory(ctx context.Context, sessionID string, source InventorySource) (int64, error) {
	events := make(chan string, eventBuffer)
	drained := r.console.Drain(events)
	items, err := source.FetchInventory(ctx, events)
	<-drained
	if err != nil {
		return 0, err
	}
	if err := r.store.AppendInventoryObservations(ctx, sessionID, items); err != nil {
		return 0, err
	}
	return int64(len(items)), nil
}
