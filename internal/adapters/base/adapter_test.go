package base

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kosarica/price-aggregator/internal/adapters/config"
	"github.com/kosarica/price-aggregator/internal/browser"
)

// stubFetcher returns canned HTML and records the last request.
type stubFetcher struct {
	html    string
	err     error
	panicV  any
	lastReq browser.Request
}

func (s *stubFetcher) Name() string { return "stub" }

func (s *stubFetcher) Fetch(ctx context.Context, req browser.Request) (string, error) {
	s.lastReq = req
	if s.panicV != nil {
		panic(s.panicV)
	}
	return s.html, s.err
}

var testSelectors = SelectorSet{
	Card:          []string{".missing-card", ".product"},
	Name:          []string{".title-v2", ".title"},
	Price:         []string{".price"},
	OriginalPrice: []string{".mrp"},
	Image:         []string{"img"},
	Link:          []string{"a"},
	OutOfStock:    []string{".sold-out"},
}

func newTestAdapter(t *testing.T, f browser.PageFetcher, max int) *BaseAdapter {
	t.Helper()
	cfg, _ := config.GetPlatformConfig(config.PlatformZepto)
	a, err := NewBaseAdapter(AdapterConfig{
		Platform:      cfg,
		Selectors:     testSelectors,
		LocationInput: "#pincode",
		MaxResults:    max,
		Fetcher:       f,
	})
	require.NoError(t, err)
	return a
}

func productCards(n int) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, `<div class="product"><a href="/pn/item-%d"><img data-src="/img/%d.png"><span class="title">Milk %d</span></a><span class="price">₹%d</span><span class="mrp">₹%d</span></div>`, i, i, i, 20+i, 30+i)
	}
	b.WriteString("</body></html>")
	return b.String()
}

func TestNewBaseAdapter_Validation(t *testing.T) {
	cfg, _ := config.GetPlatformConfig(config.PlatformZepto)

	_, err := NewBaseAdapter(AdapterConfig{Platform: cfg, Selectors: testSelectors})
	assert.ErrorContains(t, err, "fetcher")

	_, err = NewBaseAdapter(AdapterConfig{Platform: cfg, Fetcher: &stubFetcher{}})
	assert.ErrorContains(t, err, "card selector")

	bad := cfg
	bad.SearchURL = "https://example.com/search"
	_, err = NewBaseAdapter(AdapterConfig{Platform: bad, Selectors: testSelectors, Fetcher: &stubFetcher{}})
	assert.ErrorContains(t, err, "placeholder")
}

func TestFetch_ParsesCardsWithFallbackSelectors(t *testing.T) {
	f := &stubFetcher{html: productCards(2)}
	a := newTestAdapter(t, f, 0)

	records, err := a.Fetch(context.Background(), Query{Item: "amul milk", City: "Mumbai", Pincode: "400001"})
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "https://www.zeptonow.com/search?query=amul+milk", f.lastReq.URL)
	assert.Equal(t, "400001", f.lastReq.Pincode)
	assert.Equal(t, "#pincode", f.lastReq.LocationInput)

	first := records[0]
	assert.Equal(t, "zepto", first.Platform)
	assert.Equal(t, "Milk 1", first.Name)
	assert.Equal(t, "₹21", first.Price)
	assert.Equal(t, "₹31", first.OriginalPrice)
	assert.Equal(t, "https://www.zeptonow.com/pn/item-1", first.Link)
	assert.Equal(t, "https://www.zeptonow.com/img/1.png", first.Image)
	assert.Nil(t, first.InStock)
}

func TestFetch_CapsResults(t *testing.T) {
	a := newTestAdapter(t, &stubFetcher{html: productCards(9)}, 0)

	records, err := a.Fetch(context.Background(), Query{Item: "milk"})
	require.NoError(t, err)
	assert.Len(t, records, DefaultMaxResults)
	assert.Equal(t, "Milk 5", records[4].Name)
}

func TestParseCards_SkipsNamelessAndMarksOutOfStock(t *testing.T) {
	html := `<div class="product"><span class="price">₹10</span></div>
<div class="product"><span class="title">Bread</span><span class="price">₹40</span><span class="sold-out">Sold out</span></div>`

	records, err := ParseCards(html, testSelectors, 5)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Bread", records[0].Name)
	require.NotNil(t, records[0].InStock)
	assert.False(t, *records[0].InStock)
}

func TestFetch_FallsBackToJSONLD(t *testing.T) {
	html := `<html><head><script type="application/ld+json">
{"@context":"https://schema.org","@type":"ItemList","itemListElement":[
 {"@type":"ListItem","item":{"@type":"Product","name":"Paracetamol 500mg","image":["/p.png"],"url":"/otc/p",
   "offers":{"@type":"Offer","price":"28.50","availability":"https://schema.org/InStock"}}},
 {"@type":"ListItem","item":{"@type":"Product","name":"Crocin","offers":[{"price":35,"availability":"https://schema.org/OutOfStock"}]}}
]}
</script></head><body>no cards here</body></html>`

	a := newTestAdapter(t, &stubFetcher{html: html}, 0)
	records, err := a.Fetch(context.Background(), Query{Item: "paracetamol"})
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "Paracetamol 500mg", records[0].Name)
	assert.Equal(t, "28.50", records[0].Price)
	assert.Equal(t, "https://www.zeptonow.com/p.png", records[0].Image)
	assert.Equal(t, "https://www.zeptonow.com/otc/p", records[0].Link)

	assert.Equal(t, "35", records[1].Price)
	require.NotNil(t, records[1].InStock)
	assert.False(t, *records[1].InStock)
}

func TestExtractJSONLD_NoProducts(t *testing.T) {
	_, err := ExtractJSONLD(`<script type="application/ld+json">{"@type":"Organization","name":"x"}</script>`, 5)
	assert.Error(t, err)

	records, err := ExtractJSONLD(`<script type="application/ld+json">{"@graph":[{"@type":["Product","Thing"],"name":"Eggs","offers":{"lowPrice":"72"}}]}</script>`, 5)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "72", records[0].Price)
}

func TestFetch_NavigationError(t *testing.T) {
	cause := errors.New("net::ERR_NAME_NOT_RESOLVED")
	a := newTestAdapter(t, &stubFetcher{err: cause}, 0)

	records, err := a.Fetch(context.Background(), Query{Item: "milk"})
	assert.Nil(t, records)

	var adapterErr *AdapterError
	require.True(t, errors.As(err, &adapterErr))
	assert.Equal(t, config.PlatformZepto, adapterErr.Platform)
	assert.Equal(t, "navigate", adapterErr.Op)
	assert.ErrorIs(t, err, cause)
}

func TestFetch_RecoversPanic(t *testing.T) {
	a := newTestAdapter(t, &stubFetcher{panicV: "selector engine exploded"}, 0)

	records, err := a.Fetch(context.Background(), Query{Item: "milk"})
	assert.Nil(t, records)
	assert.ErrorIs(t, err, ErrAdapterPanic)
	assert.Contains(t, err.Error(), "selector engine exploded")
}

func TestFetch_EmptyPage(t *testing.T) {
	a := newTestAdapter(t, &stubFetcher{html: "<html></html>"}, 0)

	records, err := a.Fetch(context.Background(), Query{Item: "milk"})
	assert.NoError(t, err)
	assert.Empty(t, records)
}
