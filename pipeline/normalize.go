// Package pipeline turns raw extracted items into typed records through an
// explicit ordered list of pure stages. Stage order is part of the contract:
// required-field validation runs before any value conversion.
package pipeline

import (
	"strconv"
	"strings"

	"github.com/marketintel/crawler/books"
)

// CurrencySymbol is the prefix the catalog puts on every price.
const CurrencySymbol = "£"

var ratingWords = map[string]int{
	"One":   1,
	"Two":   2,
	"Three": 3,
	"Four":  4,
	"Five":  5,
}

// Stage is one pure transformation from a raw item into the record being
// built. A non-nil error drops the record.
type Stage func(raw *books.RawItem, out *books.Book) error

// DefaultStages is the production stage order.
func DefaultStages() []Stage {
	return []Stage{
		RequireFields,
		CopyText,
		NormalizePrice,
		NormalizeRating,
	}
}

// Normalize runs the default stages over one raw item.
func Normalize(raw *books.RawItem) (*books.Book, error) {
	return Run(DefaultStages(), raw)
}

// Run composes the given stages in order.
func Run(stages []Stage, raw *books.RawItem) (*books.Book, error) {
	out := &books.Book{}
	for _, stage := range stages {
		if err := stage(raw, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// RequireFields rejects records whose identity or price source is absent.
// Description and rating are deliberately not required.
func RequireFields(raw *books.RawItem, _ *books.Book) error {
	switch {
	case raw.UPC == "":
		return &MissingFieldError{Field: "upc"}
	case raw.Title == "":
		return &MissingFieldError{Field: "title"}
	case raw.Price == "":
		return &MissingFieldError{Field: "price"}
	}
	return nil
}

// CopyText moves the fields that are already in final form.
func CopyText(raw *books.RawItem, out *books.Book) error {
	out.UPC = raw.UPC
	out.Title = raw.Title
	out.Category = raw.Category
	out.Description = raw.Description
	return nil
}

// NormalizePrice strips the currency prefix and parses the remainder.
func NormalizePrice(raw *books.RawItem, out *books.Book) error {
	price, err := ParsePrice(raw.Price)
	if err != nil {
		return err
	}
	out.Price = price
	return nil
}

// NormalizeRating maps the rating word to 1..5. Anything unrecognized,
// including an absent rating, becomes 0 rather than an error.
func NormalizeRating(raw *books.RawItem, out *books.Book) error {
	out.Rating = ParseRating(raw.RatingWord)
	return nil
}

// ParsePrice converts a symbol-prefixed price string to its numeric value.
func ParsePrice(s string) (float64, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(s), CurrencySymbol)
	price, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || price < 0 {
		return 0, &MalformedPriceError{Raw: s}
	}
	return price, nil
}

// ParseRating maps "One".."Five" to 1..5 and everything else to 0.
func ParseRating(word string) int {
	return ratingWords[word]
}
