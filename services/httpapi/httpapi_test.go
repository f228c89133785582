package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"wtbmonitor-backend/lib/testutil"
	"wtbmonitor-backend/services/comparison"
	"wtbmonitor-backend/services/ingest"
	"wtbmonitor-backend/services/ingest/db"
	"wtbmonitor-backend/services/scrape"

	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

type stubWtbSource struct {
	items []ingest.WtbObservation
	block chan struct{}
}

func (s stubWtbSource) OriginLabel() string { return "stub" }

func (s stubWtbSource) FetchWtb(ctx context.Context, events chan<- string) ([]ingest.WtbObservation, error) {
	defer close(events)
	if s.block != nil {
		<-s.block
	}
	return s.items, nil
}

type stubInventorySource struct {
	items []ingest.InventoryObservation
}

func (s stubInventorySource) OriginLabel() string { return "stub" }

func (s stubInventorySource) FetchInventory(ctx context.Context, events chan<- string) ([]ingest.InventoryObservation, error) {
	close(events)
	return s.items, nil
}

type fixture struct {
	store  ingest.Store
	runner *scrape.Runner
	server *httptest.Server
}

func setupApi(t *testing.T, wtb scrape.WtbSource, inventory scrape.InventorySource) fixture {
	setup, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "services/httpapi",
		DbSchema: db.Schema,
		DbPath:   t.TempDir() + "/httpapi.db",
	})
	t.Cleanup(cleanup)

	store := ingest.NewStore(setup.DB)
	cache := comparison.NewCache(comparison.NewService(store))
	runner := scrape.NewRunner(store, scrape.NewStatus(), scrape.NewConsole(), cache)

	mux := http.NewServeMux()
	NewService(Options{
		Store:           store,
		Cache:           cache,
		Runner:          runner,
		WtbSource:       wtb,
		InventorySource: inventory,
	}).Register(mux)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return fixture{store: store, runner: runner, server: server}
}

func getJSON(t *testing.T, url string, out any) int {
	res, err := http.Get(url)
	require.NoError(t, err)
	defer res.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(res.Body).Decode(out))
	}
	return res.StatusCode
}

func TestHealthEndpoints(t *testing.T) {
	f := setupApi(t, stubWtbSource{}, stubInventorySource{})

	var health struct {
		Status string `json:"status"`
	}
	require.Equal(t, 200, getJSON(t, f.server.URL+"/health", &health))
	require.Equal(t, "healthy", health.Status)

	var apiHealth struct {
		Status   string `json:"status"`
		Database struct {
			Connected bool `json:"connected"`
		} `json:"database"`
	}
	require.Equal(t, 200, getJSON(t, f.server.URL+"/api/health", &apiHealth))
	require.Equal(t, "healthy", apiHealth.Status)
	require.True(t, apiHealth.Database.Connected)
}

func TestScrapeEndpointSingleFlight(t *testing.T) {
	block := make(chan struct{})
	f := setupApi(t, stubWtbSource{block: block}, stubInventorySource{})

	res, err := http.Post(f.server.URL+"/api/scrape/wtb", "application/json", nil)
	require.NoError(t, err)
	res.Body.Close()
	require.Equal(t, 200, res.StatusCode)

	// second start while the first is still running
	res, err = http.Post(f.server.URL+"/api/scrape/wtb", "application/json", nil)
	require.NoError(t, err)
	res.Body.Close()
	require.Equal(t, http.StatusConflict, res.StatusCode)

	close(block)
	require.Eventually(t, func() bool {
		return !f.runner.Status().Running(ingest.SourceWtb)
	}, time.Second*2, time.Millisecond*10)
}

func TestComparisonEndpoint(t *testing.T) {
	f := setupApi(t,
		stubWtbSource{items: []ingest.WtbObservation{
			{Name: "Air Jordan 4 Bred", SKU: "FV5029-006"},
			{Name: "Yeezy Slide Onyx"},
		}},
		stubInventorySource{items: []ingest.InventoryObservation{
			{Name: "Air Jordan 4 Bred", SKU: "FV5029-006"},
		}},
	)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	_, err := f.runner.RunWtb(ctx, stubWtbSource{items: []ingest.WtbObservation{
		{Name: "Air Jordan 4 Bred", SKU: "FV5029-006"},
		{Name: "Yeezy Slide Onyx"},
	}})
	require.NoError(t, err)
	_, err = f.runner.RunInventory(ctx, stubInventorySource{items: []ingest.InventoryObservation{
		{Name: "Air Jordan 4 Bred", SKU: "FV5029-006"},
	}})
	require.NoError(t, err)

	var result comparison.Result
	require.Equal(t, 200, getJSON(t, f.server.URL+"/api/comparison", &result))
	require.Equal(t, 1, result.Summary.MissingCount)
	require.Equal(t, 1, result.Summary.InStockCount)
	require.Equal(t, "Yeezy Slide Onyx", result.Missing[0].WtbName)

	var summary struct {
		Summary     comparison.Summary `json:"summary"`
		LastUpdated string             `json:"last_updated"`
	}
	require.Equal(t, 200, getJSON(t, f.server.URL+"/api/comparison/summary", &summary))
	require.Equal(t, result.Summary, summary.Summary)
	require.NotEmpty(t, summary.LastUpdated)

	var sessions struct {
		Sessions []sessionBody `json:"sessions"`
	}
	require.Equal(t, 200, getJSON(t, f.server.URL+"/api/sessions", &sessions))
	require.Len(t, sessions.Sessions, 2)
}

func TestLogsEndpoint(t *testing.T) {
	f := setupApi(t, stubWtbSource{}, stubInventorySource{})
	f.runner.Console().Logf("hello")
	f.runner.Console().Logf("world")

	var body struct {
		Logs []struct {
			Index   uint64 `json:"index"`
			Message string `json:"message"`
		} `json:"logs"`
		LastIndex uint64 `json:"last_index"`
	}
	require.Equal(t, 200, getJSON(t, f.server.URL+"/api/logs", &body))
	require.Len(t, body.Logs, 2)
	require.Equal(t, uint64(2), body.LastIndex)

	require.Equal(t, 200, getJSON(t, f.server.URL+"/api/logs?since=2", &body))
	require.Empty(t, body.Logs)

	res, err := http.Get(f.server.URL + "/api/logs?since=nope")
	require.NoError(t, err)
	res.Body.Close()
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestImportCsvEndpoint(t *testing.T) {
	f := setupApi(t, stubWtbSource{}, stubInventorySource{})

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("file", "catalog.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("name,sku,price\nSamba OG,IG1337,899.00\n"))
	require.NoError(t, err)
	require.NoError(t, form.Close())

	res, err := http.Post(f.server.URL+"/api/import/csv", form.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, 200, res.StatusCode)

	var body struct {
		Count     int64  `json:"count"`
		SessionID string `json:"session_id"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	require.Equal(t, int64(1), body.Count)
	require.NotEmpty(t, body.SessionID)
}

func TestExportEndpoints(t *testing.T) {
	f := setupApi(t, stubWtbSource{}, stubInventorySource{})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	_, err := f.runner.RunWtb(ctx, stubWtbSource{items: []ingest.WtbObservation{
		{Name: "Yeezy Slide Onyx", Brand: "Adidas"},
	}})
	require.NoError(t, err)

	res, err := http.Get(f.server.URL + "/api/export/missing")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, 200, res.StatusCode)
	require.Equal(t, "text/csv", res.Header.Get("content-type"))

	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], "Name,SKU,Brand")
	require.Contains(t, lines[1], "Yeezy Slide Onyx")
}
