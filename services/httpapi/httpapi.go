package httpapi

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
	"wtbmonitor-backend/lib/timezone"
	"wtbmonitor-backend/services/comparison"
	"wtbmonitor-backend/services/ingest"
	"wtbmonitor-backend/services/scrape"
)

const version = "1.0.0"

// Options wires the api surface to the rest of the system.
type Options struct {
	Store           ingest.Store
	Cache           *comparison.Cache
	Runner          *scrape.Runner
	WtbSource       scrape.WtbSource
	InventorySource scrape.InventorySource
}

type Service struct {
	store           ingest.Store
	cache           *comparison.Cache
	runner          *scrape.Runner
	wtbSource       scrape.WtbSource
	inventorySource scrape.InventorySource
}

func NewService(opts Options) Service {
	return Service{
		store:           opts.Store,
		cache:           opts.Cache,
		runner:          opts.Runner,
		wtbSource:       opts.WtbSource,
		inventorySource: opts.InventorySource,
	}
}

func (s Service) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/health", s.handleApiHealth)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/logs", s.handleLogs)
	mux.HandleFunc("GET /api/sessions", s.handleSessions)
	mux.HandleFunc("GET /api/comparison", s.handleComparison)
	mux.HandleFunc("GET /api/comparison/summary", s.handleComparisonSummary)
	mux.HandleFunc("POST /api/scrape/wtb", s.handleScrapeWtb)
	mux.HandleFunc("POST /api/scrape/store", s.handleScrapeStore)
	mux.HandleFunc("POST /api/import/csv", s.handleImportCsv)
	mux.HandleFunc("GET /api/export/missing", s.handleExportMissing)
	mux.HandleFunc("GET /api/export/all", s.handleExportAll)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Warn("failed to encode response body", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": timezone.Now().Format(time.RFC3339),
		"version":   version,
	})
}

// latestCounts reports the item counts of the latest completed session
// of each kind, zero when a kind was never scraped.
func (s Service) latestCounts(r *http.Request) (wtb int64, inventory int64, err error) {
	wtbSession, err := s.store.LatestCompletedSession(r.Context(), ingest.SourceWtb)
	if err != nil {
		return 0, 0, err
	}
	inventorySession, err := s.store.LatestCompletedSession(r.Context(), ingest.SourceInventory)
	if err != nil {
		return 0, 0, err
	}
	if wtbSession != nil {
		wtb = wtbSession.ItemCount
	}
	if inventorySession != nil {
		inventory = inventorySession.ItemCount
	}
	return wtb, inventory, nil
}

func (s Service) handleApiHealth(w http.ResponseWriter, r *http.Request) {
	wtbCount, productCount, err := s.latestCounts(r)
	status := "healthy"
	connected := true
	if err != nil {
		slog.ErrorContext(r.Context(), "database health check failed", "err", err)
		status = "unhealthy"
		connected = false
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    status,
		"timestamp": timezone.Now().Format(time.RFC3339),
		"database": map[string]any{
			"connected":    connected,
			"wtb_listings": wtbCount,
			"products":     productCount,
		},
	})
}

func (s Service) handleStatus(w http.ResponseWriter, r *http.Request) {
	wtbCount, productCount, err := s.latestCounts(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"scrape_status":     s.runner.Status().Snapshot(),
		"wtb_count":         wtbCount,
		"my_products_count": productCount,
	})
}

func (s Service) handleLogs(w http.ResponseWriter, r *http.Request) {
	since := uint64(0)
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid since index: %q", raw))
			return
		}
		since = parsed
	}

	entries := s.runner.Console().Since(since)
	// next is the index to poll with to only receive newer entries
	next := since
	if len(entries) > 0 {
		next = entries[len(entries)-1].Index + 1
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"logs":       entries,
		"last_index": next,
	})
}

type sessionBody struct {
	Id          string     `json:"id"`
	Kind        string     `json:"kind"`
	OriginLabel string     `json:"origin_label"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	ItemCount   int64      `json:"item_count"`
}

func (s Service) handleSessions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	kind := ingest.SourceKind(query.Get("kind"))
	limit := int64(0)
	if raw := query.Get("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit: %q", raw))
			return
		}
		limit = parsed
	}

	sessions, err := s.store.ListSessions(r.Context(), kind, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	out := make([]sessionBody, 0, len(sessions))
	for _, session := range sessions {
		out = append(out, sessionBody{
			Id:          session.ID,
			Kind:        string(session.Kind),
			OriginLabel: session.OriginLabel,
			StartedAt:   session.StartedAt,
			CompletedAt: session.CompletedAt,
			ItemCount:   session.ItemCount,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": out})
}

func comparisonOptions(r *http.Request) comparison.Options {
	query := r.URL.Query()
	return comparison.Options{
		WtbSessionID:       query.Get("wtb_session"),
		InventorySessionID: query.Get("inventory_session"),
	}
}

func (s Service) handleComparison(w http.ResponseWriter, r *http.Request) {
	result, _, err := s.cache.Get(r.Context(), comparisonOptions(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s Service) handleComparisonSummary(w http.ResponseWriter, r *http.Request) {
	result, updatedAt, err := s.cache.Get(r.Context(), comparisonOptions(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"summary":      result.Summary,
		"last_updated": updatedAt.Format(time.RFC3339),
	})
}

func (s Service) handleScrapeWtb(w http.ResponseWriter, r *http.Request) {
	err := s.runner.StartWtb(s.wtbSource)
	if errors.Is(err, scrape.ErrScrapeInFlight) {
		writeError(w, http.StatusConflict, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "wtb scrape started"})
}

func (s Service) handleScrapeStore(w http.ResponseWriter, r *http.Request) {
	err := s.runner.StartInventory(s.inventorySource)
	if errors.Is(err, scrape.ErrScrapeInFlight) {
		writeError(w, http.StatusConflict, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "store scrape started"})
}

func (s Service) handleImportCsv(w http.ResponseWriter, r *http.Request) {
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("missing file upload: %w", err))
		return
	}
	defer file.Close()

	sessionID, err := s.runner.RunInventory(r.Context(), scrape.CsvSource{Reader: file})
	if errors.Is(err, scrape.ErrScrapeInFlight) {
		writeError(w, http.StatusConflict, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	count, err := s.store.InventoryCount(r.Context(), sessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":    fmt.Sprintf("imported %d products", count),
		"count":      count,
		"session_id": sessionID,
	})
}

func formatPrice(price *float64) string {
	if price == nil {
		return ""
	}
	return strconv.FormatFloat(*price, 'f', -1, 64)
}

func writeCsv(w http.ResponseWriter, filename string, rows [][]string) {
	w.Header().Set("content-type", "text/csv")
	w.Header().Set("content-disposition", fmt.Sprintf("attachment; filename=%s", filename))

	writer := csv.NewWriter(w)
	if err := writer.WriteAll(rows); err != nil {
		slog.Warn("failed to write csv export", "err", err)
	}
}

func (s Service) handleExportMissing(w http.ResponseWriter, r *http.Request) {
	result, _, err := s.cache.Get(r.Context(), comparisonOptions(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	rows := [][]string{{"Name", "SKU", "Brand", "Demand", "Sizes Wanted", "Stores"}}
	for _, item := range result.Missing {
		rows = append(rows, []string{
			item.WtbName,
			item.WtbSKU,
			item.Brand,
			strconv.Itoa(item.DemandCount),
			strings.Join(item.SizesWanted, ", "),
			strings.Join(item.Stores, ", "),
		})
	}
	writeCsv(w, "missing_items.csv", rows)
}

func (s Service) handleExportAll(w http.ResponseWriter, r *http.Request) {
	result, _, err := s.cache.Get(r.Context(), comparisonOptions(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	rows := [][]string{{"Status", "Name", "SKU", "Brand", "Demand", "Price", "URL"}}
	for _, item := range result.Missing {
		rows = append(rows, []string{
			"missing", item.WtbName, item.WtbSKU, item.Brand,
			strconv.Itoa(item.DemandCount), "", "",
		})
	}
	for _, item := range result.InStock {
		rows = append(rows, []string{
			"in_stock", item.ProductName, item.ProductSKU, item.Brand,
			strconv.Itoa(item.DemandCount), formatPrice(item.ProductPrice), item.ProductURL,
		})
	}
	writeCsv(w, "comparison_results.csv", rows)
}
