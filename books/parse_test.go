package books

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listingHTML = `<!DOCTYPE html>
<html><body>
<section>
  <article class="product_pod">
    <h3><a href="catalogue/widget_1/index.html" title="Widget">Widget</a></h3>
    <p class="price_color">£12.50</p>
  </article>
  <article class="product_pod">
    <h3><a href="catalogue/gizmo_2/index.html" title="Gizmo">Gizmo</a></h3>
    <p class="price_color">£30.00</p>
  </article>
</section>
<ul class="pager">
  <li class="next"><a href="catalogue/page-2.html">next</a></li>
</ul>
</body></html>`

const detailHTML = `<!DOCTYPE html>
<html><body>
<ul class="breadcrumb">
  <li><a href="/index.html">Home</a></li>
  <li><a href="/catalogue/category/books_1/index.html">Books</a></li>
  <li><a href="/catalogue/category/books/gadgets_12/index.html">Gadgets</a></li>
  <li class="active">Widget</li>
</ul>
<div class="product_main">
  <h1>Widget</h1>
  <p class="price_color">£12.50</p>
  <p class="star-rating Four"><i class="icon-star"></i></p>
</div>
<div id="product_description" class="sub-header"><h2>Product Description</h2></div>
<p>A fine widget for every occasion.</p>
<table class="table table-striped">
  <tr><th>UPC</th><td>abc123</td></tr>
  <tr><th>Product Type</th><td>Books</td></tr>
  <tr><th>Price (excl. tax)</th><td>£12.50</td></tr>
</table>
</body></html>`

func TestParseListing(t *testing.T) {
	page, err := ParseListing("http://example.com/index.html", []byte(listingHTML))
	require.NoError(t, err)

	// Document order defines visit order.
	assert.Equal(t, []string{
		"http://example.com/catalogue/widget_1/index.html",
		"http://example.com/catalogue/gizmo_2/index.html",
	}, page.DetailURLs)
	assert.Equal(t, "http://example.com/catalogue/page-2.html", page.NextURL)
}

func TestParseListingTerminalPage(t *testing.T) {
	html := `<html><body>
	<article class="product_pod"><h3><a href="a.html">A</a></h3></article>
	</body></html>`

	page, err := ParseListing("http://example.com/page-3.html", []byte(html))
	require.NoError(t, err)
	assert.Len(t, page.DetailURLs, 1)
	assert.Empty(t, page.NextURL)
}

func TestParseListingEmptyPageStillAdvances(t *testing.T) {
	html := `<html><body>
	<ul class="pager"><li class="next"><a href="page-2.html">next</a></li></ul>
	</body></html>`

	page, err := ParseListing("http://example.com/page-1.html", []byte(html))
	require.NoError(t, err)
	assert.Empty(t, page.DetailURLs)
	assert.Equal(t, "http://example.com/page-2.html", page.NextURL)
}

func TestParseDetail(t *testing.T) {
	item, err := ParseDetail("http://example.com/catalogue/widget_1/index.html", []byte(detailHTML))
	require.NoError(t, err)

	assert.Equal(t, "abc123", item.UPC)
	assert.Equal(t, "Widget", item.Title)
	assert.Equal(t, "£12.50", item.Price)
	assert.Equal(t, "Four", item.RatingWord)
	assert.Equal(t, "A fine widget for every occasion.", item.Description)
	// Breadcrumb entry wins over the "Product Type" row.
	assert.Equal(t, "Gadgets", item.Category)
}

func TestParseDetailCategoryFallsBackToProductType(t *testing.T) {
	html := `<html><body>
	<ul class="breadcrumb">
	  <li><a href="/">Home</a></li>
	  <li class="active">Widget</li>
	</ul>
	<div class="product_main"><h1>Widget</h1><p class="price_color">£9.99</p></div>
	<table class="table-striped">
	  <tr><th>UPC</th><td>xyz</td></tr>
	  <tr><th>Product Type</th><td>Books</td></tr>
	</table>
	</body></html>`

	item, err := ParseDetail("http://example.com/widget.html", []byte(html))
	require.NoError(t, err)
	assert.Equal(t, "Books", item.Category)
}

func TestParseDetailMissingFieldsStayEmpty(t *testing.T) {
	item, err := ParseDetail("http://example.com/bare.html", []byte(`<html><body><p>nothing here</p></body></html>`))
	require.NoError(t, err)

	assert.Empty(t, item.UPC)
	assert.Empty(t, item.Title)
	assert.Empty(t, item.Price)
	assert.Empty(t, item.RatingWord)
	assert.Empty(t, item.Category)
	assert.Empty(t, item.Description)
}

func TestParseDetailDescriptionOptional(t *testing.T) {
	html := `<html><body>
	<div class="product_main"><h1>Widget</h1><p class="price_color">£9.99</p></div>
	<table class="table-striped"><tr><th>UPC</th><td>xyz</td></tr></table>
	</body></html>`

	item, err := ParseDetail("http://example.com/widget.html", []byte(html))
	require.NoError(t, err)
	assert.Empty(t, item.Description)
	assert.Equal(t, "xyz", item.UPC)
}

func TestParseDetailRatingIsLastClassToken(t *testing.T) {
	html := `<html><body>
	<div class="product_main">
	  <h1>W</h1>
	  <p class="star-rating something Three"></p>
	</div>
	</body></html>`

	item, err := ParseDetail("http://example.com/w.html", []byte(html))
	require.NoError(t, err)
	assert.Equal(t, "Three", item.RatingWord)
}
