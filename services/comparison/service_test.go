package comparison

import (
	"context"
	"testing"
	"time"
	"wtbmonitor-backend/lib/testutil"
	"wtbmonitor-backend/services/ingest"
	"wtbmonitor-backend/services/ingest/db"

	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupComparison(t *testing.T) (Service, ingest.Store, context.Context) {
	setup, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "services/comparison",
		DbSchema: db.Schema,
	})
	t.Cleanup(cleanup)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	t.Cleanup(cancel)

	store := ingest.NewStore(setup.DB)
	return NewService(store), store, ctx
}

func completedSession(t *testing.T, ctx context.Context, store ingest.Store, kind ingest.SourceKind, append func(sessionID string)) string {
	t.Helper()
	id, err := store.CreateSession(ctx, kind, "test")
	require.NoError(t, err)
	append(id)
	require.NoError(t, store.CompleteSession(ctx, id, 0))
	return id
}

func price(v float64) *float64 {
	return &v
}

func TestClassifyPartition(t *testing.T) {
	svc, store, ctx := setupComparison(t)

	wtbID := completedSession(t, ctx, store, ingest.SourceWtb, func(id string) {
		require.NoError(t, store.AppendWtbObservations(ctx, id, []ingest.WtbObservation{
			{Name: "Air Jordan 4 Bred", SKU: "FV5029-006", OriginStore: "Kicks DK"},
			{Name: "Air Jordan 4 Bred", SKU: "FV5029-006", OriginStore: "Sneaker Corner"},
			{Name: "Dunk Low Panda", OriginStore: "Kicks DK"},
			{Name: "Yeezy Slide Onyx", OriginStore: "Kicks DK"},
		}))
	})
	inventoryID := completedSession(t, ctx, store, ingest.SourceInventory, func(id string) {
		require.NoError(t, store.AppendInventoryObservations(ctx, id, []ingest.InventoryObservation{
			{Name: "Air Jordan 4 Bred", SKU: "FV5029-006", Price: price(1899)},
			{Name: "Samba OG"},
			{Name: "Dunk Low Panda", ImageURL: "https://shop.example/panda.jpg"},
		}))
	})

	result, err := svc.Classify(ctx, Options{})
	require.NoError(t, err)

	require.Equal(t, wtbID, result.WtbSessionID)
	require.Equal(t, inventoryID, result.InventorySessionID)

	// every demand record lands in exactly one of missing/in_stock, every
	// inventory row in exactly one of in_stock/no_demand
	require.Len(t, result.Missing, 1)
	require.Len(t, result.InStock, 2)
	require.Len(t, result.NoDemand, 1)

	require.Equal(t, "Yeezy Slide Onyx", result.Missing[0].WtbName)
	require.Equal(t, "Samba OG", result.NoDemand[0].ProductName)

	// in_stock sorts by demand, the 2x-demanded item first
	require.Equal(t, "Air Jordan 4 Bred", result.InStock[0].WtbName)
	require.Equal(t, 2, result.InStock[0].DemandCount)
	require.Equal(t, 1899.0, *result.InStock[0].ProductPrice)
	// the catalog image wins over the marketplace one
	require.Equal(t, "https://shop.example/panda.jpg", result.InStock[1].ImageURL)

	require.Equal(t, 3, result.Summary.TotalWtbItems)
	require.Equal(t, 4, result.Summary.TotalRawWtb)
	require.Equal(t, 3, result.Summary.TotalMyProducts)
	require.Equal(t, 1, result.Summary.MissingCount)
	require.Equal(t, 2, result.Summary.InStockCount)
	require.Equal(t, 1, result.Summary.NoDemandCount)
}

func TestClassifyWithoutAnySessions(t *testing.T) {
	svc, _, ctx := setupComparison(t)

	result, err := svc.Classify(ctx, Options{})
	require.NoError(t, err)
	require.Empty(t, result.Missing)
	require.Empty(t, result.InStock)
	require.Empty(t, result.NoDemand)
	require.Empty(t, result.WtbSessionID)
}

func TestClassifyWithoutInventorySession(t *testing.T) {
	svc, store, ctx := setupComparison(t)

	completedSession(t, ctx, store, ingest.SourceWtb, func(id string) {
		require.NoError(t, store.AppendWtbObservations(ctx, id, []ingest.WtbObservation{
			{Name: "Air Jordan 4 Bred"},
			{Name: "Dunk Low Panda"},
		}))
	})

	// demand with nothing to match against is all missing
	result, err := svc.Classify(ctx, Options{})
	require.NoError(t, err)
	require.Len(t, result.Missing, 2)
	require.Empty(t, result.InStock)
	require.Empty(t, result.NoDemand)
	require.Empty(t, result.InventorySessionID)
}

func TestClassifyIgnoresIncompleteSessions(t *testing.T) {
	svc, store, ctx := setupComparison(t)

	completedSession(t, ctx, store, ingest.SourceWtb, func(id string) {
		require.NoError(t, store.AppendWtbObservations(ctx, id, []ingest.WtbObservation{
			{Name: "Samba OG"},
		}))
	})

	// newer but never completed, must not be picked up
	inFlight, err := store.CreateSession(ctx, ingest.SourceWtb, "test")
	require.NoError(t, err)
	require.NoError(t, store.AppendWtbObservations(ctx, inFlight, []ingest.WtbObservation{
		{Name: "Air Force 1"},
		{Name: "Air Max 90"},
	}))

	result, err := svc.Classify(ctx, Options{})
	require.NoError(t, err)
	require.Equal(t, 1, result.Summary.TotalRawWtb)
	require.Equal(t, "Samba OG", result.Missing[0].WtbName)
}

func TestClassifyExplicitSessions(t *testing.T) {
	svc, store, ctx := setupComparison(t)

	oldWtb := completedSession(t, ctx, store, ingest.SourceWtb, func(id string) {
		require.NoError(t, store.AppendWtbObservations(ctx, id, []ingest.WtbObservation{
			{Name: "Air Max 90"},
		}))
	})
	completedSession(t, ctx, store, ingest.SourceWtb, func(id string) {
		require.NoError(t, store.AppendWtbObservations(ctx, id, []ingest.WtbObservation{
			{Name: "Samba OG"},
			{Name: "Gazelle Bold"},
		}))
	})

	result, err := svc.Classify(ctx, Options{WtbSessionID: oldWtb})
	require.NoError(t, err)
	require.Equal(t, oldWtb, result.WtbSessionID)
	require.Len(t, result.Missing, 1)
	require.Equal(t, "Air Max 90", result.Missing[0].WtbName)

	// a nonexistent explicit id degrades to an empty result
	result, err = svc.Classify(ctx, Options{WtbSessionID: "no-such-session"})
	require.NoError(t, err)
	require.Empty(t, result.Missing)
	require.Empty(t, result.WtbSessionID)
}

func TestClassifySharedInventoryCountedOnce(t *testing.T) {
	svc, store, ctx := setupComparison(t)

	completedSession(t, ctx, store, ingest.SourceWtb, func(id string) {
		require.NoError(t, store.AppendWtbObservations(ctx, id, []ingest.WtbObservation{
			// two identities that both resolve to the same catalog row
			{Name: "Air Max 90 Infrared", SKU: "CT1685-100"},
			{Name: "Air Max 90 Infared"},
		}))
	})
	completedSession(t, ctx, store, ingest.SourceInventory, func(id string) {
		require.NoError(t, store.AppendInventoryObservations(ctx, id, []ingest.InventoryObservation{
			{Name: "Air Max 90 Infrared", SKU: "CT1685-100"},
		}))
	})

	result, err := svc.Classify(ctx, Options{})
	require.NoError(t, err)
	require.Len(t, result.InStock, 2)
	require.Empty(t, result.NoDemand)
	require.Equal(t, 1, result.Summary.TotalMyProducts)
}

func TestClassifySortsNoDemandByName(t *testing.T) {
	svc, store, ctx := setupComparison(t)

	completedSession(t, ctx, store, ingest.SourceWtb, func(id string) {
		require.NoError(t, store.AppendWtbObservations(ctx, id, []ingest.WtbObservation{
			{Name: "Completely Unrelated Wanted Item"},
		}))
	})
	completedSession(t, ctx, store, ingest.SourceInventory, func(id string) {
		require.NoError(t, store.AppendInventoryObservations(ctx, id, []ingest.InventoryObservation{
			{Name: "Zoom Fly"},
			{Name: "Blazer Mid"},
			{Name: "Gazelle Bold"},
		}))
	})

	result, err := svc.Classify(ctx, Options{})
	require.NoError(t, err)
	require.Len(t, result.NoDemand, 3)
	require.Equal(t, "Blazer Mid", result.NoDemand[0].ProductName)
	require.Equal(t, "Gazelle Bold", result.NoDemand[1].ProductName)
	require.Equal(t, "Zoom Fly", result.NoDemand[2].ProductName)
}
