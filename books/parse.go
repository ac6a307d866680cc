package books

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	selDetailLink  = "article.product_pod h3 a"
	selNextPage    = "li.next a"
	selTitle       = ".product_main h1"
	selPrice       = ".product_main p.price_color"
	selRating      = ".product_main p.star-rating"
	selDescAnchor  = "div#product_description"
	selProductInfo = "table.table-striped tr"
	selBreadcrumb  = "ul.breadcrumb li a"
)

// ListingPage is the outcome of link discovery on one listing page. DetailURLs
// preserve document order; NextURL is empty on the terminal page.
type ListingPage struct {
	DetailURLs []string
	NextURL    string
}

// ParseListing discovers the detail links and the pagination link on a
// listing page. Relative hrefs are resolved against the page's own URL.
func ParseListing(pageURL string, body []byte) (*ListingPage, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse listing url %q: %w", pageURL, err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse listing %s: %w", pageURL, err)
	}

	page := &ListingPage{}
	doc.Find(selDetailLink).Each(func(_ int, a *goquery.Selection) {
		if href, ok := a.Attr("href"); ok {
			page.DetailURLs = append(page.DetailURLs, resolve(base, href))
		}
	})
	if href, ok := doc.Find(selNextPage).First().Attr("href"); ok {
		page.NextURL = resolve(base, href)
	}
	return page, nil
}

// ParseDetail extracts the raw fields of one book from its detail page.
// Extraction is lenient: anything the markup omits comes back empty.
func ParseDetail(pageURL string, body []byte) (*RawItem, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse detail %s: %w", pageURL, err)
	}

	item := &RawItem{URL: pageURL}
	item.Title = strings.TrimSpace(doc.Find(selTitle).First().Text())
	item.Price = strings.TrimSpace(doc.Find(selPrice).First().Text())

	// The rating lives in a class list like "star-rating Three".
	if cls, ok := doc.Find(selRating).First().Attr("class"); ok {
		if fields := strings.Fields(cls); len(fields) > 0 {
			item.RatingWord = fields[len(fields)-1]
		}
	}

	// The description is the paragraph immediately after its section header;
	// some books have none.
	item.Description = strings.TrimSpace(doc.Find(selDescAnchor).NextFiltered("p").Text())

	doc.Find(selProductInfo).Each(func(_ int, row *goquery.Selection) {
		key := strings.TrimSpace(row.Find("th").Text())
		value := strings.TrimSpace(row.Find("td").Text())
		switch key {
		case "UPC":
			item.UPC = value
		case "Product Type":
			item.Category = value
		}
	})

	// Breadcrumb wins over the product table whenever it is deep enough:
	// Home > Books > <category> > <title>.
	crumbs := doc.Find(selBreadcrumb)
	if crumbs.Length() >= 3 {
		item.Category = strings.TrimSpace(crumbs.Eq(2).Text())
	}

	return item, nil
}

func resolve(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
