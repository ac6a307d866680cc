package storage

import "github.com/marketintel/crawler/books"

// Storage is the persistence sink for normalized records. Save may buffer;
// Close flushes whatever is pending.
type Storage interface {
	Save(items ...*books.Book) error
	Close() error
}
