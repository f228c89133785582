package storefront

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type shopifyVariant struct {
	Sku       string `json:"sku"`
	Title     string `json:"title"`
	Option1   string `json:"option1"`
	Price     string `json:"price"`
	Available *bool  `json:"available"`
}

type shopifyImage struct {
	Src string `json:"src"`
}

type shopifyProduct struct {
	Title    string           `json:"title"`
	Handle   string           `json:"handle"`
	Vendor   string           `json:"vendor"`
	Variants []shopifyVariant `json:"variants"`
	Images   []shopifyImage   `json:"images"`
}

// ScrapeShopify walks the public products.json endpoint page by page
// until an empty page comes back.
func (c *Client) ScrapeShopify(ctx context.Context, storeUrl string, events chan<- string) ([]Product, error) {
	ctx, span := tracer.Start(ctx, "ScrapeShopify")
	defer span.End()

	base := trimBaseUrl(storeUrl)
	var out []Product

	for page := 1; ; page++ {
		events <- fmt.Sprintf("fetching shopify products page %d", page)

		res, err := c.http.R().
			SetContext(ctx).
			Get(fmt.Sprintf("%s/products.json?page=%d&limit=250", base, page))
		if err != nil {
			span.SetStatus(codes.Error, "failed to fetch products.json")
			return nil, err
		}
		if res.StatusCode() != 200 {
			break
		}

		var body struct {
			Products []shopifyProduct `json:"products"`
		}
		if err := json.Unmarshal(res.Body(), &body); err != nil {
			span.RecordError(err)
			break
		}
		if len(body.Products) == 0 {
			break
		}

		for _, product := range body.Products {
			parsed, ok := parseShopifyProduct(base, product)
			if ok {
				out = append(out, parsed)
			}
		}

		if err := c.sleep(ctx); err != nil {
			return nil, err
		}
	}

	span.SetAttributes(attribute.Int("products", len(out)))
	events <- fmt.Sprintf("shopify scrape done: %d products", len(out))
	return out, nil
}

func parseShopifyProduct(base string, product shopifyProduct) (Product, bool) {
	if product.Title == "" {
		return Product{}, false
	}

	var sizes []string
	var lowest *float64
	for _, variant := range product.Variants {
		if variant.Available != nil && !*variant.Available {
			continue
		}
		size := variant.Option1
		if size == "" {
			size = variant.Title
		}
		if size != "" && size != "Default Title" {
			sizes = append(sizes, size)
		}
		if price, err := strconv.ParseFloat(variant.Price, 64); err == nil {
			if lowest == nil || price < *lowest {
				p := price
				lowest = &p
			}
		}
	}

	out := Product{
		Name:  product.Title,
		Brand: product.Vendor,
		Sizes: sizes,
		Price: lowest,
		Url:   fmt.Sprintf("%s/products/%s", base, product.Handle),
	}
	if len(product.Variants) > 0 {
		out.SKU = product.Variants[0].Sku
	}
	if len(product.Images) > 0 {
		out.ImageURL = product.Images[0].Src
	}
	return out, true
}
