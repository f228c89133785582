package storefront

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func TestParseShopifyProduct(t *testing.T) {
	available := true
	unavailable := false

	product, ok := parseShopifyProduct("https://shop.example", shopifyProduct{
		Title:  "Air Jordan 4 Bred",
		Handle: "air-jordan-4-bred",
		Vendor: "Jordan",
		Variants: []shopifyVariant{
			{Sku: "FV5029-006", Option1: "42", Price: "1999.00", Available: &available},
			{Sku: "FV5029-006", Option1: "43", Price: "1899.00", Available: &available},
			{Sku: "FV5029-006", Option1: "44", Price: "1799.00", Available: &unavailable},
		},
		Images: []shopifyImage{{Src: "https://cdn.example/aj4.jpg"}},
	})
	require.True(t, ok)

	require.Equal(t, "Air Jordan 4 Bred", product.Name)
	require.Equal(t, "FV5029-006", product.SKU)
	require.Equal(t, "Jordan", product.Brand)
	// sold-out variants do not contribute sizes or prices
	require.Equal(t, []string{"42", "43"}, product.Sizes)
	require.Equal(t, 1899.0, *product.Price)
	require.Equal(t, "https://shop.example/products/air-jordan-4-bred", product.Url)
	require.Equal(t, "https://cdn.example/aj4.jpg", product.ImageURL)
}

func TestParseShopifyProductDefaultTitleVariant(t *testing.T) {
	product, ok := parseShopifyProduct("https://shop.example", shopifyProduct{
		Title:    "Shoe Cleaner Kit",
		Handle:   "shoe-cleaner-kit",
		Variants: []shopifyVariant{{Title: "Default Title", Price: "149.00"}},
	})
	require.True(t, ok)
	require.Empty(t, product.Sizes)
	require.Equal(t, 149.0, *product.Price)
}

func TestDecodeSellerPageEnvelopes(t *testing.T) {
	bare, err := decodeSellerPage([]byte(`[{"name":"Samba OG"}]`))
	require.NoError(t, err)
	require.Len(t, bare, 1)

	wrapped, err := decodeSellerPage([]byte(`{"data":[{"name":"Samba OG"},{"name":"Gazelle"}]}`))
	require.NoError(t, err)
	require.Len(t, wrapped, 2)

	products, err := decodeSellerPage([]byte(`{"products":[{"name":"Samba OG"}]}`))
	require.NoError(t, err)
	require.Len(t, products, 1)

	_, err = decodeSellerPage([]byte(`"not a product page"`))
	require.Error(t, err)
}

func TestParseSellerProduct(t *testing.T) {
	product, ok := parseSellerProduct("https://shop.example", sellerProduct{
		Name:  "Adidas AdiFom Superstar",
		Sku:   "HQ8752",
		Slug:  "adifom-superstar",
		Sizes: map[string]int{"42": 1, "40": 2, "44": 1},
		Image: "https://cdn.example/adifom.jpg",
	})
	require.True(t, ok)

	// brand falls out of the first word of the name
	require.Equal(t, "Adidas", product.Brand)
	// size keys come out sorted so output is stable across runs
	require.Equal(t, []string{"40", "42", "44"}, product.Sizes)
	require.Equal(t, "https://shop.example/products/adifom-superstar", product.Url)
	require.Equal(t, "https://cdn.example/adifom.jpg", product.ImageURL)

	_, ok = parseSellerProduct("https://shop.example", sellerProduct{Sku: "NAMELESS"})
	require.False(t, ok)
}

func TestDecodeImageRef(t *testing.T) {
	require.Equal(t, "https://cdn.example/a.jpg", decodeImageRef(json.RawMessage(`"https://cdn.example/a.jpg"`)))
	require.Equal(t, "https://cdn.example/b.jpg", decodeImageRef(json.RawMessage(`{"src":"https://cdn.example/b.jpg"}`)))
}

const genericPage = `
<html><body>
<div class="product-card"><h3>Air Jordan 4 Bred</h3><a href="/p/aj4">view</a><span>€ 189.99</span><span>FV5029-006</span><img src="https://img.example/aj4.jpg"></div>
<div class="product-card"><h3>Samba OG</h3><a href="/p/samba">view</a><span>€ 99.99</span></div>
<div class="product-card"><h3>Gazelle Bold</h3></div>
</body></html>`

func TestParseGenericCatalog(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(genericPage))
	require.NoError(t, err)

	products := ParseGenericCatalog(doc)
	require.Len(t, products, 3)

	first := products[0]
	require.Equal(t, "Air Jordan 4 Bred", first.Name)
	require.Equal(t, "/p/aj4", first.Url)
	require.Equal(t, 189.99, *first.Price)
	require.Equal(t, "FV5029-006", first.SKU)
	require.Equal(t, "https://img.example/aj4.jpg", first.ImageURL)

	require.Equal(t, "Samba OG", products[1].Name)
	require.Nil(t, products[2].Price)
}
