package scrape

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"wtbmonitor-backend/services/ingest"
)

// CsvSource reads catalog rows from an uploaded CSV file. Expected
// header columns: name, sku, brand, sizes, price, url, image_url;
// sizes is a comma-separated list inside the cell. Rows without a name
// are skipped.
type CsvSource struct {
	Reader io.Reader
}

func (s CsvSource) OriginLabel() string { return "csv-import" }

func (s CsvSource) FetchInventory(ctx context.Context, events chan<- string) ([]ingest.InventoryObservation, error) {
	defer close(events)
	reader := csv.NewReader(s.Reader)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("csv file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := columns["name"]; !ok {
		return nil, fmt.Errorf("csv file has no name column")
	}

	field := func(row []string, name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var out []ingest.InventoryObservation
	skipped := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv row: %w", err)
		}

		name := field(row, "name")
		if name == "" {
			skipped++
			continue
		}

		obs := ingest.InventoryObservation{
			Name:     name,
			SKU:      field(row, "sku"),
			Brand:    field(row, "brand"),
			URL:      field(row, "url"),
			ImageURL: field(row, "image_url"),
		}
		if sizes := field(row, "sizes"); sizes != "" {
			for _, size := range strings.Split(sizes, ",") {
				size = strings.TrimSpace(size)
				if size != "" {
					obs.Sizes = append(obs.Sizes, size)
				}
			}
		}
		if price := field(row, "price"); price != "" {
			if v, err := strconv.ParseFloat(price, 64); err == nil {
				obs.Price = &v
			}
		}
		out = append(out, obs)
	}

	events <- fmt.Sprintf("imported %d products from csv (%d rows skipped)", len(out), skipped)
	return out, nil
}
