package demand

import (
	"testing"
	"wtbmonitor-backend/services/ingest"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func price(v float64) *float64 {
	return &v
}

func TestIdentityKey(t *testing.T) {
	require.Equal(t, "FV5029-006", IdentityKey(ingest.WtbObservation{
		Name: "Air Jordan 4 Bred",
		SKU:  " fv5029-006 ",
	}))
	require.Equal(t, "air jordan 4 bred", IdentityKey(ingest.WtbObservation{
		Name: "The  Air Jordan 4  Bred",
	}))
}

func TestAggregateFoldsBySKU(t *testing.T) {
	records := Aggregate([]ingest.WtbObservation{
		{
			Name:        "Air Jordan 4 Bred",
			SKU:         "FV5029-006",
			Brand:       "Jordan",
			Size:        "42",
			PriceMin:    price(1800),
			PriceMax:    price(2000),
			OriginStore: "Sneaker Corner",
		},
		{
			// same sku under a different listing title still folds
			Name:        "Jordan 4 Retro Bred Reimagined",
			SKU:         "fv5029-006",
			Size:        "44",
			PriceMin:    price(1500),
			PriceMax:    price(2200),
			OriginStore: "Kicks DK",
			ImageURL:    "https://img.example/aj4.jpg",
		},
		{
			Name:        "Air Jordan 4 Bred",
			SKU:         "FV5029-006",
			Size:        "42",
			OriginStore: "Sneaker Corner",
		},
	})

	require.Len(t, records, 1)
	rec := records[0]

	require.Equal(t, "FV5029-006", rec.Key)
	require.Equal(t, 3, rec.DemandCount)
	// representative fields come from the first observation
	require.Equal(t, "Air Jordan 4 Bred", rec.Name)
	require.Equal(t, "Jordan", rec.Brand)

	require.Empty(t, cmp.Diff([]string{"Sneaker Corner", "Kicks DK"}, rec.Stores))
	require.Empty(t, cmp.Diff([]string{"42", "44"}, rec.SizesWanted))

	require.Equal(t, 1500.0, *rec.PriceMin)
	require.Equal(t, 2200.0, *rec.PriceMax)
	require.Equal(t, "https://img.example/aj4.jpg", rec.ImageURL)
}

func TestAggregateJoinsSkulessRowsBySharedName(t *testing.T) {
	records := Aggregate([]ingest.WtbObservation{
		{Name: "Air Zoom 1", SKU: "ABC-100", OriginStore: "X"},
		{Name: "Air Zoom 1", OriginStore: "Y"},
	})

	require.Len(t, records, 1)
	require.Equal(t, "ABC-100", records[0].Key)
	require.Equal(t, 2, records[0].DemandCount)
	require.Empty(t, cmp.Diff([]string{"X", "Y"}, records[0].Stores))
}

func TestAggregateJoinsWhenSkulessRowComesFirst(t *testing.T) {
	records := Aggregate([]ingest.WtbObservation{
		{Name: "the dunk  low PANDA", OriginStore: "Sneaker Corner"},
		{Name: "Dunk Low Panda", SKU: "DD1391-100", OriginStore: "Kicks DK"},
	})

	require.Len(t, records, 1)
	require.Equal(t, "DD1391-100", records[0].Key)
	require.Equal(t, 2, records[0].DemandCount)
	// the group picks up the sku even though its first row lacked one
	require.Equal(t, "DD1391-100", records[0].SKU)
}

func TestAggregateFallsBackToNormalizedName(t *testing.T) {
	records := Aggregate([]ingest.WtbObservation{
		{Name: "Dunk Low Panda"},
		{Name: "Yeezy Slide Onyx"},
		{Name: "the dunk  low PANDA"},
	})

	require.Len(t, records, 2)
	require.Equal(t, "dunk low panda", records[0].Key)
	require.Equal(t, 2, records[0].DemandCount)
	require.Equal(t, "yeezy slide onyx", records[1].Key)
}

func TestAggregateKeepsFirstSeenOrder(t *testing.T) {
	records := Aggregate([]ingest.WtbObservation{
		{Name: "Yeezy Slide Onyx"},
		{Name: "Samba OG"},
		{Name: "Yeezy Slide Onyx"},
		{Name: "Air Force 1"},
	})

	require.Len(t, records, 3)
	require.Equal(t, "yeezy slide onyx", records[0].Key)
	require.Equal(t, "samba og", records[1].Key)
	require.Equal(t, "air force 1", records[2].Key)
}

func TestAggregateMissingPricesStayNil(t *testing.T) {
	records := Aggregate([]ingest.WtbObservation{
		{Name: "Samba OG"},
		{Name: "Samba OG"},
	})
	require.Len(t, records, 1)
	require.Nil(t, records[0].PriceMin)
	require.Nil(t, records[0].PriceMax)
}
