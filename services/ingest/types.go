package ingest

import "time"

type SourceKind string

const (
	SourceWtb       SourceKind = "wtb"
	SourceInventory SourceKind = "inventory"
)

// Session identifies one ingestion run. A session with a nil CompletedAt
// is still in flight (or abandoned) and is never surfaced as "latest".
type Session struct {
	ID          string
	Kind        SourceKind
	OriginLabel string
	StartedAt   time.Time
	CompletedAt *time.Time
	ItemCount   int64
}

func (s Session) Completed() bool {
	return s.CompletedAt != nil
}

// WtbObservation is one raw "wanted" sighting scraped from a marketplace.
// Rows are immutable once written.
type WtbObservation struct {
	ID          int64
	SessionID   string
	Name        string
	SKU         string
	Brand       string
	Size        string
	PriceMin    *float64
	PriceMax    *float64
	OriginStore string
	ImageURL    string
}

// InventoryObservation is one raw "have" sighting from the seller's own
// catalog. Rows are immutable once written.
type InventoryObservation struct {
	ID        int64
	SessionID string
	Name      string
	SKU       string
	Brand     string
	Sizes     []string
	Price     *float64
	URL       string
	ImageURL  string
}
