package matcher

import (
	"strings"

	"wtbmonitor-backend/lib/textutil"
	"wtbmonitor-backend/services/demand"
	"wtbmonitor-backend/services/ingest"

	"github.com/antzucaro/matchr"
)

// minimum similarity for a fuzzy name match to be accepted
const SimilarityThreshold = 0.75

// flat boost applied when both sides carry the same brand
const brandBonus = 0.1

// Verdict is the outcome of resolving one demand record against an
// inventory snapshot: either a bound inventory item with a confidence,
// or no match. Ambiguity is never an error, ties are broken by the
// earliest inventory row.
type Verdict struct {
	Matched    bool
	Inventory  *ingest.InventoryObservation
	Confidence float64
}

// Snapshot is a read-only index over one session's inventory observations.
// Lookups layer exact SKU, exact normalized name, then fuzzy similarity.
type Snapshot struct {
	items []ingest.InventoryObservation
	// normalized names aligned with items, precomputed since the fuzzy
	// pass visits every candidate for every unresolved record
	normalized []string
	bySKU      map[string]int
	byName     map[string]int
}

func NewSnapshot(items []ingest.InventoryObservation) *Snapshot {
	s := &Snapshot{
		items:      items,
		normalized: make([]string, len(items)),
		bySKU:      make(map[string]int),
		byName:     make(map[string]int),
	}
	for i, item := range items {
		s.normalized[i] = textutil.NormalizeProductName(item.Name)

		// first row wins on duplicate keys, matching the fuzzy tie-break
		if sku := textutil.NormalizeSKU(item.SKU); sku != "" {
			if _, taken := s.bySKU[sku]; !taken {
				s.bySKU[sku] = i
			}
		}
		if name := s.normalized[i]; name != "" {
			if _, taken := s.byName[name]; !taken {
				s.byName[name] = i
			}
		}
	}
	return s
}

func (s *Snapshot) Len() int {
	return len(s.items)
}

func (s *Snapshot) Items() []ingest.InventoryObservation {
	return s.items
}

// Resolve finds the inventory item matching a demand record, first hit
// wins: exact SKU, exact normalized name, then the highest-scoring fuzzy
// candidate at or above the similarity threshold.
func (s *Snapshot) Resolve(rec demand.Record) Verdict {
	if sku := textutil.NormalizeSKU(rec.SKU); sku != "" {
		if i, ok := s.bySKU[sku]; ok {
			return Verdict{Matched: true, Inventory: &s.items[i], Confidence: 1}
		}
	}

	name := textutil.NormalizeProductName(rec.Name)
	if name == "" {
		// nameless records can never match anything
		return Verdict{}
	}
	if i, ok := s.byName[name]; ok {
		return Verdict{Matched: true, Inventory: &s.items[i], Confidence: 1}
	}

	bestIndex := -1
	var bestScore float64
	for i, candidate := range s.normalized {
		if candidate == "" {
			continue
		}
		score := matchr.JaroWinkler(name, candidate, false)
		if rec.Brand != "" && s.items[i].Brand != "" &&
			strings.EqualFold(strings.TrimSpace(rec.Brand), strings.TrimSpace(s.items[i].Brand)) {
			score += brandBonus
		}
		// strictly greater keeps the earliest row on ties
		if score > bestScore {
			bestScore = score
			bestIndex = i
		}
	}

	if bestIndex < 0 || bestScore < SimilarityThreshold {
		return Verdict{}
	}
	if bestScore > 1 {
		bestScore = 1
	}
	return Verdict{Matched: true, Inventory: &s.items[bestIndex], Confidence: bestScore}
}

// Similarity is the symmetric [0, 1] name similarity used by the fuzzy
// pass. Either side normalizing to the empty string scores 0.
func Similarity(a, b string) float64 {
	a = textutil.NormalizeProductName(a)
	b = textutil.NormalizeProductName(b)
	if a == "" || b == "" {
		return 0
	}
	return matchr.JaroWinkler(a, b, false)
}
