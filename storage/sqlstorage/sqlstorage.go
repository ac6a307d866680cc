// Package sqlstorage persists books into SQLite keyed by UPC, so crawling
// the same catalog twice rewrites rows instead of duplicating them.
package sqlstorage

import (
	"sync"

	"github.com/marketintel/crawler/books"
	"github.com/marketintel/crawler/sqldb"
	"github.com/marketintel/crawler/storage"
	"go.uber.org/zap"
)

// TableName is the sole interface to downstream consumers.
const TableName = "books"

var columns = []sqldb.Field{
	{Title: "upc", Type: "TEXT PRIMARY KEY"},
	{Title: "title", Type: "TEXT"},
	{Title: "price", Type: "REAL"},
	{Title: "rating", Type: "INTEGER"},
	{Title: "category", Type: "TEXT"},
	{Title: "description", Type: "TEXT"},
}

type SQLStorage struct {
	options
	mu      sync.Mutex
	pending []*books.Book
	db      sqldb.DBer
}

var _ storage.Storage = (*SQLStorage)(nil)

func New(opts ...Option) (*SQLStorage, error) {
	options := defaultOptions
	for _, opt := range opts {
		opt(&options)
	}
	s := &SQLStorage{}
	s.options = options

	db, err := sqldb.New(
		sqldb.WithDBPath(s.dbPath),
		sqldb.WithLogger(s.logger.Named("sqldb")),
	)
	if err != nil {
		return nil, err
	}
	s.db = db

	if err := s.db.CreateTable(sqldb.TableMetaData{
		TableName:   TableName,
		ColumnNames: columns,
	}); err != nil {
		s.db.Close()
		return nil, err
	}
	return s, nil
}

// Save buffers records and flushes once the batch count is reached. With the
// default batch of one this commits per record.
func (s *SQLStorage) Save(items ...*books.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending = append(s.pending, items...)
	if len(s.pending) < s.batchCount {
		return nil
	}
	return s.flushLocked()
}

// Close flushes anything still pending and releases the handle.
func (s *SQLStorage) Close() error {
	s.mu.Lock()
	flushErr := s.flushLocked()
	s.mu.Unlock()

	if err := s.db.Close(); err != nil {
		return err
	}
	return flushErr
}

func (s *SQLStorage) flushLocked() error {
	if len(s.pending) == 0 {
		return nil
	}

	meta := sqldb.TableMetaData{
		TableName:   TableName,
		ColumnNames: columns,
		DataCount:   len(s.pending),
	}
	for _, b := range s.pending {
		meta.Args = append(meta.Args, b.UPC, b.Title, b.Price, b.Rating, b.Category, b.Description)
	}

	err := s.db.Upsert(meta)
	if err != nil {
		s.logger.Warn("upsert failed, retrying once",
			zap.Int("records", len(s.pending)), zap.Error(err))
		err = s.db.Upsert(meta)
	}
	if err != nil {
		// Drop this batch and keep the crawl alive; rows already committed
		// stay valid.
		for _, b := range s.pending {
			s.logger.Error("record dropped after retry",
				zap.String("upc", b.UPC), zap.Error(err))
		}
	}
	s.pending = s.pending[:0]
	return err
}
