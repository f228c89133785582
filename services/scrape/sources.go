package scrape

import (
	"context"
	"wtbmonitor-backend/lib/scrapers/storefront"
	"wtbmonitor-backend/lib/scrapers/wtbmarket"
	"wtbmonitor-backend/services/ingest"
)

// MarketplaceSource feeds demand observations from want-to-buy stores.
type MarketplaceSource struct {
	Client *wtbmarket.Client
	Stores []wtbmarket.Store
}

func (s MarketplaceSource) OriginLabel() string { return "wtbmarket" }

func (s MarketplaceSource) FetchWtb(ctx context.Context, events chan<- string) ([]ingest.WtbObservation, error) {
	defer close(events)
	listings, err := s.Client.ScrapeAll(ctx, s.Stores, events)
	if err != nil {
		return nil, err
	}

	out := make([]ingest.WtbObservation, 0, len(listings))
	for _, listing := range listings {
		out = append(out, ingest.WtbObservation{
			Name:        listing.Name,
			SKU:         listing.SKU,
			Brand:       listing.Brand,
			Size:        listing.Size,
			PriceMin:    listing.PriceMin,
			PriceMax:    listing.PriceMax,
			OriginStore: listing.StoreName,
			ImageURL:    listing.ImageURL,
		})
	}
	return out, nil
}

// StorefrontSource feeds catalog observations from the seller's shop.
type StorefrontSource struct {
	Client *storefront.Client
	Config storefront.Config
}

func (s StorefrontSource) OriginLabel() string {
	if s.Config.Kind != "" {
		return s.Config.Kind
	}
	return storefront.KindGeneric
}

func (s StorefrontSource) FetchInventory(ctx context.Context, events chan<- string) ([]ingest.InventoryObservation, error) {
	defer close(events)
	products, err := s.Client.Scrape(ctx, s.Config, events)
	if err != nil {
		return nil, err
	}
	return convertProducts(products), nil
}

func convertProducts(products []storefront.Product) []ingest.InventoryObservation {
	out := make([]ingest.InventoryObservation, 0, len(products))
	for _, product := range products {
		out = append(out, ingest.InventoryObservation{
			Name:     product.Name,
			SKU:      product.SKU,
			Brand:    product.Brand,
			Sizes:    product.Sizes,
			Price:    product.Price,
			URL:      product.Url,
			ImageURL: product.ImageURL,
		})
	}
	return out
}
