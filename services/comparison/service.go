package comparison

import (
	"context"
	"sort"
	"wtbmonitor-backend/services/demand"
	"wtbmonitor-backend/services/ingest"
	"wtbmonitor-backend/services/matcher"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/comparison")

// MissingItem is a demanded product the shop does not carry.
type MissingItem struct {
	Status      string   `json:"status"`
	WtbName     string   `json:"wtb_name"`
	WtbSKU      string   `json:"wtb_sku,omitempty"`
	Brand       string   `json:"brand,omitempty"`
	DemandCount int      `json:"demand_count"`
	Stores      []string `json:"stores_wanting"`
	PriceMin    *float64 `json:"wtb_price_min,omitempty"`
	PriceMax    *float64 `json:"wtb_price_max,omitempty"`
	SizesWanted []string `json:"sizes_wanted"`
	ImageURL    string   `json:"image_url,omitempty"`
}

// InStockItem is a demanded product the shop already carries, annotated
// with the matched catalog row.
type InStockItem struct {
	Status         string   `json:"status"`
	WtbName        string   `json:"wtb_name"`
	WtbSKU         string   `json:"wtb_sku,omitempty"`
	Brand          string   `json:"brand,omitempty"`
	DemandCount    int      `json:"demand_count"`
	Stores         []string `json:"stores_wanting"`
	PriceMin       *float64 `json:"wtb_price_min,omitempty"`
	PriceMax       *float64 `json:"wtb_price_max,omitempty"`
	SizesWanted    []string `json:"sizes_wanted"`
	ImageURL       string   `json:"image_url,omitempty"`
	ProductName    string   `json:"my_product_name"`
	ProductSKU     string   `json:"my_product_sku,omitempty"`
	ProductPrice   *float64 `json:"my_product_price,omitempty"`
	ProductURL     string   `json:"my_product_url,omitempty"`
	SizesAvailable []string `json:"my_sizes_available"`
	Confidence     float64  `json:"match_confidence"`
}

// NoDemandItem is a catalog row no marketplace seller is asking for.
type NoDemandItem struct {
	Status         string   `json:"status"`
	ProductName    string   `json:"my_product_name"`
	ProductSKU     string   `json:"my_product_sku,omitempty"`
	ProductPrice   *float64 `json:"my_product_price,omitempty"`
	ProductURL     string   `json:"my_product_url,omitempty"`
	SizesAvailable []string `json:"my_sizes_available"`
	ImageURL       string   `json:"image_url,omitempty"`
}

type Summary struct {
	TotalWtbItems   int `json:"total_wtb_items"`
	TotalRawWtb     int `json:"total_raw_wtb"`
	TotalMyProducts int `json:"total_my_products"`
	MissingCount    int `json:"missing_count"`
	InStockCount    int `json:"in_stock_count"`
	NoDemandCount   int `json:"no_demand_count"`
}

// Result is the three-way partition of demand and inventory for one pair
// of sessions. Every demand record lands in exactly one of Missing or
// InStock; every inventory row lands in exactly one of InStock or
// NoDemand (counted once even when several records match it).
type Result struct {
	WtbSessionID       string         `json:"wtb_session_id,omitempty"`
	InventorySessionID string         `json:"inventory_session_id,omitempty"`
	Missing            []MissingItem  `json:"missing"`
	InStock            []InStockItem  `json:"in_stock"`
	NoDemand           []NoDemandItem `json:"no_demand"`
	Summary            Summary        `json:"summary"`
}

// Options selects the sessions to classify. Empty ids resolve to the
// latest completed session of the matching kind.
type Options struct {
	WtbSessionID       string
	InventorySessionID string
}

type Service struct {
	store ingest.Store
}

func NewService(store ingest.Store) Service {
	return Service{store: store}
}

// Classify compares the demand of one WTB session against the catalog of
// one inventory session. A missing or never-completed WTB session yields
// an empty result; a missing inventory session classifies every demand
// record as missing. Read-path degradation is deliberate: this path backs
// a dashboard and should render something rather than fail.
func (s Service) Classify(ctx context.Context, opts Options) (Result, error) {
	ctx, span := tracer.Start(ctx, "Classify")
	defer span.End()

	result := Result{
		Missing:  []MissingItem{},
		InStock:  []InStockItem{},
		NoDemand: []NoDemandItem{},
	}

	wtbSession, err := s.resolveSession(ctx, opts.WtbSessionID, ingest.SourceWtb)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{}, err
	}
	if wtbSession == nil {
		// nothing was ever scraped on the demand side
		return result, nil
	}
	result.WtbSessionID = wtbSession.ID
	span.SetAttributes(attribute.String("wtb_session_id", wtbSession.ID))

	inventorySession, err := s.resolveSession(ctx, opts.InventorySessionID, ingest.SourceInventory)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{}, err
	}

	observations, err := s.store.WtbObservations(ctx, wtbSession.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{}, err
	}
	records := demand.Aggregate(observations)

	var inventory []ingest.InventoryObservation
	if inventorySession != nil {
		result.InventorySessionID = inventorySession.ID
		span.SetAttributes(attribute.String("inventory_session_id", inventorySession.ID))

		inventory, err = s.store.InventoryObservations(ctx, inventorySession.ID)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return Result{}, err
		}
	}
	snapshot := matcher.NewSnapshot(inventory)

	claimed := make(map[int64]bool)
	for _, rec := range records {
		verdict := snapshot.Resolve(rec)
		if !verdict.Matched {
			result.Missing = append(result.Missing, MissingItem{
				Status:      "missing",
				WtbName:     rec.Name,
				WtbSKU:      rec.SKU,
				Brand:       rec.Brand,
				DemandCount: rec.DemandCount,
				Stores:      emptyIfNil(rec.Stores),
				PriceMin:    rec.PriceMin,
				PriceMax:    rec.PriceMax,
				SizesWanted: emptyIfNil(rec.SizesWanted),
				ImageURL:    rec.ImageURL,
			})
			continue
		}

		claimed[verdict.Inventory.ID] = true
		item := InStockItem{
			Status:         "in_stock",
			WtbName:        rec.Name,
			WtbSKU:         rec.SKU,
			Brand:          rec.Brand,
			DemandCount:    rec.DemandCount,
			Stores:         emptyIfNil(rec.Stores),
			PriceMin:       rec.PriceMin,
			PriceMax:       rec.PriceMax,
			SizesWanted:    emptyIfNil(rec.SizesWanted),
			ImageURL:       rec.ImageURL,
			ProductName:    verdict.Inventory.Name,
			ProductSKU:     verdict.Inventory.SKU,
			ProductPrice:   verdict.Inventory.Price,
			ProductURL:     verdict.Inventory.URL,
			SizesAvailable: emptyIfNil(verdict.Inventory.Sizes),
			Confidence:     verdict.Confidence,
		}
		// the catalog photo is usually better than a marketplace one
		if verdict.Inventory.ImageURL != "" {
			item.ImageURL = verdict.Inventory.ImageURL
		}
		result.InStock = append(result.InStock, item)
	}

	for i := range inventory {
		if claimed[inventory[i].ID] {
			continue
		}
		result.NoDemand = append(result.NoDemand, NoDemandItem{
			Status:         "no_demand",
			ProductName:    inventory[i].Name,
			ProductSKU:     inventory[i].SKU,
			ProductPrice:   inventory[i].Price,
			ProductURL:     inventory[i].URL,
			SizesAvailable: emptyIfNil(inventory[i].Sizes),
			ImageURL:       inventory[i].ImageURL,
		})
	}

	sort.SliceStable(result.Missing, func(i, j int) bool {
		return result.Missing[i].DemandCount > result.Missing[j].DemandCount
	})
	sort.SliceStable(result.InStock, func(i, j int) bool {
		return result.InStock[i].DemandCount > result.InStock[j].DemandCount
	})
	sort.SliceStable(result.NoDemand, func(i, j int) bool {
		return result.NoDemand[i].ProductName < result.NoDemand[j].ProductName
	})

	result.Summary = Summary{
		TotalWtbItems:   len(records),
		TotalRawWtb:     len(observations),
		TotalMyProducts: len(inventory),
		MissingCount:    len(result.Missing),
		InStockCount:    len(result.InStock),
		NoDemandCount:   len(result.NoDemand),
	}
	return result, nil
}

// resolveSession maps an explicit session id, or the latest completed run
// of the kind when the id is empty, to session metadata. Nonexistent or
// still-in-flight sessions resolve to nil rather than an error.
func (s Service) resolveSession(ctx context.Context, explicitID string, kind ingest.SourceKind) (*ingest.Session, error) {
	if explicitID == "" {
		return s.store.LatestCompletedSession(ctx, kind)
	}

	session, err := s.store.GetSession(ctx, explicitID)
	if err != nil {
		return nil, err
	}
	if session == nil || !session.Completed() || session.Kind != kind {
		return nil, nil
	}
	return session, nil
}

func emptyIfNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
