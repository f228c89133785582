package storefront

import (
	"context"
	"fmt"
	"strings"
	"time"
	"wtbmonitor-backend/lib/restyutil"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("scrapers/storefront")

// Product is one catalog row scraped from the seller's own shop.
type Product struct {
	Name     string
	SKU      string
	Brand    string
	Sizes    []string
	Price    *float64
	Url      string
	ImageURL string
}

const (
	KindShopify   = "shopify"
	KindSellerApi = "seller_api"
	KindGeneric   = "generic"
)

// Config selects which kind of shop to scrape and how to reach it.
type Config struct {
	Kind     string `json:"kind"`
	StoreUrl string `json:"store_url"`
	// ApiUrl and SessionCookie are only used by the seller_api kind.
	ApiUrl        string `json:"api_url"`
	SessionCookie string `json:"session_cookie"`
}

type ClientOptions struct {
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

// Scrape pulls the full product catalog using the method the config
// names. Unknown kinds fall back to the generic HTML scraper.
func (c *Client) Scrape(ctx context.Context, cfg Config, events chan<- string) ([]Product, error) {
	switch cfg.Kind {
	case KindSellerApi:
		return c.ScrapeSellerApi(ctx, cfg, events)
	case KindShopify:
		if cfg.StoreUrl == "" {
			return nil, fmt.Errorf("no store url configured")
		}
		return c.ScrapeShopify(ctx, cfg.StoreUrl, events)
	default:
		if cfg.StoreUrl == "" {
			return nil, fmt.Errorf("no store url configured")
		}
		return c.ScrapeGeneric(ctx, cfg.StoreUrl, events)
	}
}

func (c *Client) sleep(ctx context.Context) error {
	if c.delay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.delay):
		return nil
	}
}

func trimBaseUrl(base string) string {
	return strings.TrimRight(base, "/")
}
