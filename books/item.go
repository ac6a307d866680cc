// Package books holds the extraction rules for the book catalog site:
// listing pages link to per-book detail pages and chain together through a
// "next" control; detail pages carry the full product record.
package books

// RawItem is what the extractor pulls off a detail page before any cleaning.
// Fields the page does not provide stay empty; the normalization stages
// decide which of those are fatal.
type RawItem struct {
	URL         string
	UPC         string
	Title       string
	Price       string
	RatingWord  string
	Category    string
	Description string
}

// Book is the normalized record persisted to the books table.
type Book struct {
	UPC         string
	Title       string
	Price       float64
	Rating      int
	Category    string
	Description string
}
