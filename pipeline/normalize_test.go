package pipeline

import (
	"errors"
	"testing"

	"github.com/marketintel/crawler/books"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    float64
		wantErr bool
	}{
		{name: "symbol prefixed decimal", in: "£12.50", want: 12.50},
		{name: "symbol prefixed integer", in: "£7", want: 7},
		{name: "no symbol", in: "3.99", want: 3.99},
		{name: "surrounding whitespace", in: "  £51.77 ", want: 51.77},
		{name: "not a number", in: "N/A", wantErr: true},
		{name: "empty", in: "", wantErr: true},
		{name: "symbol only", in: "£", wantErr: true},
		{name: "trailing garbage", in: "£12.50GBP", wantErr: true},
		{name: "negative", in: "£-3.10", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePrice(tt.in)
			if tt.wantErr {
				var malformed *MalformedPriceError
				require.Error(t, err)
				require.ErrorAs(t, err, &malformed)
				assert.Equal(t, tt.in, malformed.Raw)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRating(t *testing.T) {
	words := map[string]int{
		"One":   1,
		"Two":   2,
		"Three": 3,
		"Four":  4,
		"Five":  5,
	}
	for word, want := range words {
		assert.Equal(t, want, ParseRating(word), word)
	}

	// Anything unmapped is lenient, never an error.
	for _, word := range []string{"", "Six", "four", "FOUR", "Zero", "4"} {
		assert.Equal(t, 0, ParseRating(word), word)
	}
}

func TestNormalize(t *testing.T) {
	raw := &books.RawItem{
		UPC:         "abc123",
		Title:       "Widget",
		Price:       "£12.50",
		RatingWord:  "Four",
		Category:    "Gadgets",
		Description: "A fine widget.",
	}

	book, err := Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, "abc123", book.UPC)
	assert.Equal(t, "Widget", book.Title)
	assert.Equal(t, 12.50, book.Price)
	assert.Equal(t, 4, book.Rating)
	assert.Equal(t, "Gadgets", book.Category)
	assert.Equal(t, "A fine widget.", book.Description)
}

func TestNormalizeMalformedPriceIsFatal(t *testing.T) {
	raw := &books.RawItem{UPC: "u", Title: "t", Price: "N/A"}

	book, err := Normalize(raw)
	assert.Nil(t, book)

	var malformed *MalformedPriceError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, "N/A", malformed.Raw)
}

func TestNormalizeMissingRequiredFields(t *testing.T) {
	tests := []struct {
		name  string
		raw   *books.RawItem
		field string
	}{
		{name: "no upc", raw: &books.RawItem{Title: "t", Price: "£1.00"}, field: "upc"},
		{name: "no title", raw: &books.RawItem{UPC: "u", Price: "£1.00"}, field: "title"},
		{name: "no price", raw: &books.RawItem{UPC: "u", Title: "t"}, field: "price"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			book, err := Normalize(tt.raw)
			assert.Nil(t, book)

			var missing *MissingFieldError
			require.ErrorAs(t, err, &missing)
			assert.Equal(t, tt.field, missing.Field)
		})
	}
}

func TestNormalizeLenientRating(t *testing.T) {
	raw := &books.RawItem{UPC: "u", Title: "t", Price: "£5.00", RatingWord: "Eleven"}

	book, err := Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, 0, book.Rating)
}

func TestRunStopsAtFirstFailingStage(t *testing.T) {
	boom := errors.New("boom")
	ran := false
	stages := []Stage{
		func(*books.RawItem, *books.Book) error { return boom },
		func(*books.RawItem, *books.Book) error { ran = true; return nil },
	}

	book, err := Run(stages, &books.RawItem{})
	assert.Nil(t, book)
	assert.ErrorIs(t, err, boom)
	assert.False(t, ran)
}
