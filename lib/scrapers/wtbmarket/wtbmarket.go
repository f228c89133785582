package wtbmarket

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"wtbmonitor-backend/lib/restyutil"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/wtbmarket")

// Listing is one want-to-buy card scraped from a marketplace store page.
type Listing struct {
	Name      string
	SKU       string
	Brand     string
	Size      string
	PriceMin  *float64
	PriceMax  *float64
	StoreName string
	ImageURL  string
}

// Store is one marketplace storefront to scrape.
type Store struct {
	Name    string `json:"name"`
	Url     string `json:"url"`
	Enabled bool   `json:"enabled"`
}

type ClientOptions struct {
	// RequestDelay is the pause between store pages, to stay polite.
	RequestDelay time.Duration
}

type Client struct {
	http  *resty.Client
	delay time.Duration
}

func NewClient(opts ClientOptions) *Client {
	client := resty.New()
	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	client.SetHeader("accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	client.SetTimeout(time.Second * 30)

	restyutil.InstrumentClient(client, tracer)

	return &Client{
		http:  client,
		delay: opts.RequestDelay,
	}
}

// ScrapeAll scrapes every enabled store, sending progress events as it
// goes. A store that fails is reported and skipped; the remaining
// stores still run.
func (c *Client) ScrapeAll(ctx context.Context, stores []Store, events chan<- string) ([]Listing, error) {
	ctx, span := tracer.Start(ctx, "ScrapeAll")
	defer span.End()

	var out []Listing
	scraped := 0
	for _, store := range stores {
		if !store.Enabled {
			continue
		}
		if scraped > 0 && c.delay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.delay):
			}
		}

		listings, err := c.ScrapeStore(ctx, store, events)
		if err != nil {
			span.RecordError(err)
			events <- fmt.Sprintf("failed to scrape %s: %v", store.Name, err)
			continue
		}
		scraped++
		out = append(out, listings...)
	}

	span.SetAttributes(attribute.Int("listings", len(out)))
	events <- fmt.Sprintf("found %d listings across %d stores", len(out), scraped)
	return out, nil
}

func (c *Client) ScrapeStore(ctx context.Context, store Store, events chan<- string) ([]Listing, error) {
	ctx, span := tracer.Start(ctx, "ScrapeStore")
	defer span.End()
	span.SetAttributes(attribute.String("store", store.Name))

	events <- fmt.Sprintf("scraping %s", store.Name)

	res, err := c.http.R().
		SetContext(ctx).
		Get(store.Url)
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

	listings := ParseListings(doc, store.Name)
	events <- fmt.Sprintf("%s: %d listings", store.Name, len(listings))
	return listings, nil
}

// ParseListings extracts want-to-buy cards from a store page document.
func ParseListings(doc *goquery.Document, storeName string) []Listing {
	var out []Listing
	doc.Find(".listing-card, .wtb-card, [class*='listing-item']").Each(func(_ int, sel *goquery.Selection) {
		listing, ok := parseCard(sel, storeName)
		if ok {
			out = append(out, listing)
		}
	})
	return out
}

var skuRegex = regexp.MustCompile(`\b([A-Z]{1,3}\d{4,}[\w-]*|[A-Z0-9]{2,}-\d{3,})\b`)

func parseCard(sel *goquery.Selection, storeName string) (Listing, bool) {
	name := strings.TrimSpace(sel.Find(".listing-name, .card-title, h2, h3").First().Text())
	if name == "" {
		return Listing{}, false
	}

	listing := Listing{
		Name:      name,
		Brand:     strings.TrimSpace(sel.Find(".listing-brand, .brand").First().Text()),
		Size:      strings.TrimSpace(sel.Find(".listing-size, .size").First().Text()),
		StoreName: storeName,
	}

	sku := strings.TrimSpace(sel.Find(".listing-sku, .sku").First().Text())
	if sku == "" {
		sku = skuRegex.FindString(sel.Text())
	}
	listing.SKU = strings.ToUpper(sku)

	priceText := strings.TrimSpace(sel.Find(".listing-price, .price").First().Text())
	listing.PriceMin, listing.PriceMax = ParsePriceRange(priceText)

	if img := sel.Find("img").First(); img.Length() > 0 {
		for _, attr := range []string{"src", "data-src", "data-lazy-src"} {
			if v, ok := img.Attr(attr); ok && v != "" {
				listing.ImageURL = v
				break
			}
		}
	}

	return listing, true
}

var priceRangeRegex = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*[-–]\s*(\d+(?:[.,]\d+)?)`)
var priceRegex = regexp.MustCompile(`\d+(?:[.,]\d+)?`)

// ParsePriceRange reads "500-700 kr" style price texts. A single price
// yields the same value for both ends; unparsable text yields nil, nil.
func ParsePriceRange(text string) (*float64, *float64) {
	if groups := priceRangeRegex.FindStringSubmatch(text); groups != nil {
		lo := parsePrice(groups[1])
		hi := parsePrice(groups[2])
		if lo != nil && hi != nil {
			return lo, hi
		}
	}
	if match := priceRegex.FindString(text); match != "" {
		p := parsePrice(match)
		return p, p
	}
	return nil, nil
}

func parsePrice(text string) *float64 {
	v, err := strconv.ParseFloat(strings.ReplaceAll(text, ",", "."), 64)
	if err != nil {
		return nil
	}
	return &v
}
