package storefront

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// sellerMaxPages bounds pagination in case the API repeats forever.
const sellerMaxPages = 100

type sellerProduct struct {
	Id       json.Number       `json:"id"`
	Name     string            `json:"name"`
	Sku      string            `json:"sku"`
	Slug     string            `json:"slug"`
	Sizes    map[string]int    `json:"sizes"`
	ImageURL string            `json:"image_url"`
	Image    string            `json:"image"`
	Images   []json.RawMessage `json:"images"`
}

// ScrapeSellerApi pulls the catalog from an authenticated seller
// dashboard API. The session cookie comes from a logged-in browser; an
// expired one shows up as a 401. Some deployments repeat the last page
// instead of returning an empty one, so already-seen products end the
// walk too.
func (c *Client) ScrapeSellerApi(ctx context.Context, cfg Config, events chan<- string) ([]Product, error) {
	ctx, span := tracer.Start(ctx, "ScrapeSellerApi")
	defer span.End()

	if cfg.SessionCookie == "" {
		err := fmt.Errorf("no seller session cookie configured")
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	cookie := cfg.SessionCookie
	if !strings.HasPrefix(cookie, "session=") {
		cookie = "session=" + cookie
	}

	base := trimBaseUrl(cfg.StoreUrl)
	var out []Product
	seen := map[string]bool{}

	for page := 1; page <= sellerMaxPages; page++ {
		events <- fmt.Sprintf("fetching seller products page %d (%d found)", page, len(out))

		res, err := c.http.R().
			SetContext(ctx).
			SetHeader("cookie", cookie).
			Get(fmt.Sprintf("%s?page=%d", cfg.ApiUrl, page))
		if err != nil {
			span.SetStatus(codes.Error, "failed to fetch seller api")
			return nil, err
		}
		if res.StatusCode() == 401 {
			err := fmt.Errorf("seller api authentication failed, session cookie may have expired")
			span.SetStatus(codes.Error, err.Error())
			events <- err.Error()
			return nil, err
		}
		if res.StatusCode() != 200 {
			err := fmt.Errorf("seller api returned status %d", res.StatusCode())
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}

		products, err := decodeSellerPage(res.Body())
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to decode seller api response")
			return nil, err
		}
		if len(products) == 0 {
			break
		}

		added := 0
		for _, product := range products {
			key := product.Id.String()
			if key == "" {
				key = product.Sku
			}
			if key == "" {
				key = product.Name
			}
			if key != "" && seen[key] {
				continue
			}
			if key != "" {
				seen[key] = true
			}

			parsed, ok := parseSellerProduct(base, product)
			if ok {
				out = append(out, parsed)
				added++
			}
		}
		if added == 0 {
			break
		}

		if err := c.sleep(ctx); err != nil {
			return nil, err
		}
	}

	span.SetAttributes(attribute.Int("products", len(out)))
	events <- fmt.Sprintf("seller scrape done: %d products", len(out))
	return out, nil
}

// decodeSellerPage accepts the envelope shapes seen in the wild: a bare
// array, or an object wrapping the array under data/products/items.
func decodeSellerPage(body []byte) ([]sellerProduct, error) {
	var bare []sellerProduct
	if err := json.Unmarshal(body, &bare); err == nil {
		return bare, nil
	}

	var envelope struct {
		Data     []sellerProduct `json:"data"`
		Products []sellerProduct `json:"products"`
		Items    []sellerProduct `json:"items"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, err
	}
	if envelope.Data != nil {
		return envelope.Data, nil
	}
	if envelope.Products != nil {
		return envelope.Products, nil
	}
	return envelope.Items, nil
}

func parseSellerProduct(base string, product sellerProduct) (Product, bool) {
	if product.Name == "" {
		return Product{}, false
	}

	out := Product{
		Name: product.Name,
		SKU:  product.Sku,
	}
	if fields := strings.Fields(product.Name); len(fields) > 0 {
		out.Brand = fields[0]
	}

	if len(product.Sizes) > 0 {
		sizes := make([]string, 0, len(product.Sizes))
		for size := range product.Sizes {
			sizes = append(sizes, size)
		}
		sort.Strings(sizes)
		out.Sizes = sizes
	}

	if product.Slug != "" && base != "" {
		out.Url = base + "/products/" + product.Slug
	}

	out.ImageURL = product.ImageURL
	if out.ImageURL == "" {
		out.ImageURL = product.Image
	}
	if out.ImageURL == "" && len(product.Images) > 0 {
		out.ImageURL = decodeImageRef(product.Images[0])
	}
	return out, true
}

// decodeImageRef reads an image entry that is either a plain url string
// or an object with a src field.
func decodeImageRef(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Src string `json:"src"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Src
	}
	return ""
}
