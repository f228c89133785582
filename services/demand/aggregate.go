package demand

import (
	"wtbmonitor-backend/lib/textutil"
	"wtbmonitor-backend/services/ingest"
)

// Record is the folded demand signal for one product identity within a
// single WTB session. It is derived at read time; raw rows are never
// deduplicated on write so history stays reconstructable.
type Record struct {
	// Key is the normalized SKU when any observation in the group carried
	// one, otherwise the normalized product name.
	Key         string
	Name        string
	Brand       string
	SKU         string
	DemandCount int
	// Stores holds distinct origin stores in first-seen order.
	Stores []string
	// PriceMin/PriceMax are nil when no folded observation carried a bound.
	PriceMin *float64
	PriceMax *float64
	// SizesWanted holds distinct size labels in first-seen order.
	SizesWanted []string
	ImageURL    string
}

// IdentityKey groups raw observations: SKU wins when present because it is
// the strongest identity, the normalized name is the fallback.
func IdentityKey(obs ingest.WtbObservation) string {
	if sku := textutil.NormalizeSKU(obs.SKU); sku != "" {
		return sku
	}
	return textutil.NormalizeProductName(obs.Name)
}

// Aggregate reduces one session's raw WTB observations to one Record per
// identity key. A SKU-less observation joins a SKU group when another
// observation in the session carries both that name and a SKU, so listings
// that omit the code still count toward the same product's demand.
// Input order matters: representative fields come from the first
// observation of a group and the image from the last one that had any, so
// callers must pass rows in the store's insertion order.
func Aggregate(observations []ingest.WtbObservation) []Record {
	// First pass learns which normalized names co-occur with a SKU anywhere
	// in the session. First sighting wins when stores disagree on the code.
	skuByName := make(map[string]string)
	for _, obs := range observations {
		sku := textutil.NormalizeSKU(obs.SKU)
		name := textutil.NormalizeProductName(obs.Name)
		if sku == "" || name == "" {
			continue
		}
		if _, seen := skuByName[name]; !seen {
			skuByName[name] = sku
		}
	}

	byKey := make(map[string]*Record)
	var order []string

	for _, obs := range observations {
		key := IdentityKey(obs)
		if textutil.NormalizeSKU(obs.SKU) == "" {
			if sku, ok := skuByName[key]; ok {
				key = sku
			}
		}

		rec, seen := byKey[key]
		if !seen {
			rec = &Record{
				Key:   key,
				Name:  obs.Name,
				Brand: obs.Brand,
				SKU:   obs.SKU,
			}
			byKey[key] = rec
			order = append(order, key)
		}

		rec.DemandCount++
		if rec.SKU == "" && obs.SKU != "" {
			rec.SKU = obs.SKU
		}
		if obs.OriginStore != "" && !contains(rec.Stores, obs.OriginStore) {
			rec.Stores = append(rec.Stores, obs.OriginStore)
		}
		if obs.Size != "" && !contains(rec.SizesWanted, obs.Size) {
			rec.SizesWanted = append(rec.SizesWanted, obs.Size)
		}
		if obs.PriceMin != nil && (rec.PriceMin == nil || *obs.PriceMin < *rec.PriceMin) {
			v := *obs.PriceMin
			rec.PriceMin = &v
		}
		if obs.PriceMax != nil && (rec.PriceMax == nil || *obs.PriceMax > *rec.PriceMax) {
			v := *obs.PriceMax
			rec.PriceMax = &v
		}
		if obs.ImageURL != "" {
			rec.ImageURL = obs.ImageURL
		}
	}

	records := make([]Record, len(order))
	for i, key := range order {
		records[i] = *byKey[key]
	}
	return records
}

func contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
