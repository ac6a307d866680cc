// Package statscmd reports read-only aggregates over a finished crawl: row
// counts, price and rating breakdowns, and an opportunity ranking that
// favors highly rated books priced well under the catalog's ceiling.
package statscmd

import (
	"database/sql"
	"fmt"
	"os"
	"text/tabwriter"

	_ "modernc.org/sqlite"
)

type opportunity struct {
	UPC      string
	Title    string
	Price    float64
	Rating   int
	Category string
	Score    float64
}

func Run(dbPath string, topN int) {
	if err := report(os.Stdout, dbPath, topN); err != nil {
		fmt.Fprintf(os.Stderr, "stats: %v\n", err)
		os.Exit(1)
	}
}

func report(out *os.File, dbPath string, topN int) error {
	if _, err := os.Stat(dbPath); err != nil {
		return fmt.Errorf("open %s: %w", dbPath, err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	var count, categories int
	var avgPrice sql.NullFloat64
	row := db.QueryRow(`SELECT COUNT(*), AVG(price), COUNT(DISTINCT category) FROM books`)
	if err := row.Scan(&count, &avgPrice, &categories); err != nil {
		return err
	}

	fmt.Fprintf(out, "books: %d\n", count)
	fmt.Fprintf(out, "categories: %d\n", categories)
	if avgPrice.Valid {
		fmt.Fprintf(out, "average price: %.2f\n", avgPrice.Float64)
	}
	if count == 0 {
		return nil
	}

	if err := ratingHistogram(out, db); err != nil {
		return err
	}
	return opportunities(out, db, topN)
}

func ratingHistogram(out *os.File, db *sql.DB) error {
	rows, err := db.Query(`SELECT rating, COUNT(*) FROM books GROUP BY rating ORDER BY rating`)
	if err != nil {
		return err
	}
	defer rows.Close()

	fmt.Fprintln(out, "\nratings:")
	for rows.Next() {
		var rating, n int
		if err := rows.Scan(&rating, &n); err != nil {
			return err
		}
		fmt.Fprintf(out, "  %d stars: %d\n", rating, n)
	}
	return rows.Err()
}

// opportunities ranks by score = rating*20 + (1 - price/cap)*50, cap being
// the highest price currently in the table.
func opportunities(out *os.File, db *sql.DB, topN int) error {
	rows, err := db.Query(`
		SELECT upc, title, price, rating, category,
		       rating*20.0 + (1.0 - price/(SELECT MAX(price) FROM books))*50.0 AS score
		FROM books
		ORDER BY score DESC
		LIMIT ?`, topN)
	if err != nil {
		return err
	}
	defer rows.Close()

	fmt.Fprintf(out, "\ntop %d opportunities:\n", topN)
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SCORE\tRATING\tPRICE\tCATEGORY\tTITLE\tUPC")
	for rows.Next() {
		var o opportunity
		if err := rows.Scan(&o.UPC, &o.Title, &o.Price, &o.Rating, &o.Category, &o.Score); err != nil {
			return err
		}
		fmt.Fprintf(w, "%.1f\t%d\t%.2f\t%s\t%s\t%s\n", o.Score, o.Rating, o.Price, o.Category, o.Title, o.UPC)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return w.Flush()
}
