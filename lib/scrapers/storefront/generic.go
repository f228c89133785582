package storefront

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// candidate selectors, most specific first; the first one that matches
// more than a couple of elements is assumed to be the product grid
var genericSelectors = []string{
	".product", ".product-card", ".product-item",
	"[class*='product']", "article",
	".item", ".card",
}

var genericPriceRegex = regexp.MustCompile(`[€$£]\s*(\d+(?:[.,]\d{2})?)`)
var genericSkuRegex = regexp.MustCompile(`(?i)\b([A-Z]{2,}\d{4,}[\w-]*)\b`)

// ScrapeGeneric is the fallback for shops without a known API: fetch the
// catalog page and guess at the product markup.
func (c *Client) ScrapeGeneric(ctx context.Context, storeUrl string, events chan<- string) ([]Product, error) {
	ctx, span := tracer.Start(ctx, "ScrapeGeneric")
	defer span.End()

	events <- fmt.Sprintf("scraping %s", storeUrl)

	res, err := c.http.R().
		SetContext(ctx).
		Get(storeUrl)
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch store page")
		return nil, err
	}
	if res.StatusCode() != 200 {
		err := fmt.Errorf("store page returned status %d", res.StatusCode())
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.SetStatus(codes.Error, "failed to parse store page html")
		return nil, err
	}

	out := ParseGenericCatalog(doc)
	span.SetAttributes(attribute.Int("products", len(out)))
	events <- fmt.Sprintf("generic scrape done: %d products", len(out))
	return out, nil
}

func ParseGenericCatalog(doc *goquery.Document) []Product {
	var out []Product
	for _, selector := range genericSelectors {
		elements := doc.Find(selector)
		if elements.Length() <= 2 {
			continue
		}
		elements.Each(func(_ int, sel *goquery.Selection) {
			product, ok := parseGenericProduct(sel)
			if ok {
				out = append(out, product)
			}
		})
		break
	}
	return out
}

func parseGenericProduct(sel *goquery.Selection) (Product, bool) {
	text := strings.Join(strings.Fields(sel.Text()), " ")
	if len(text) < 5 {
		return Product{}, false
	}

	name := strings.TrimSpace(sel.Find("h1, h2, h3, h4, h5").First().Text())
	if name == "" {
		name = strings.Fields(text)[0]
	}
	if len(name) > 100 {
		name = name[:100]
	}

	product := Product{Name: name}
	product.Url, _ = sel.Find("a").First().Attr("href")

	if groups := genericPriceRegex.FindStringSubmatch(text); groups != nil {
		if v, err := strconv.ParseFloat(strings.ReplaceAll(groups[1], ",", "."), 64); err == nil {
			product.Price = &v
		}
	}
	if groups := genericSkuRegex.FindStringSubmatch(text); groups != nil {
		product.SKU = strings.ToUpper(groups[1])
	}

	if img := sel.Find("img").First(); img.Length() > 0 {
		for _, attr := range []string{"src", "data-src", "data-lazy-src"} {
			if v, ok := img.Attr(attr); ok && v != "" {
				product.ImageURL = v
				break
			}
		}
	}

	return product, true
}
