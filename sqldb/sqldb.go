// Package sqldb is the low-level storage layer: it only moves rows in and
// out of SQLite, with no knowledge of what the columns mean.
package sqldb

import (
	"database/sql"
	"errors"
	"strings"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// DBer is the database surface the storage layer builds on.
type DBer interface {
	CreateTable(t TableMetaData) error
	Upsert(t TableMetaData) error
	Close() error
}

// SqlDB implements DBer over a single SQLite handle.
type SqlDB struct {
	options
	db *sql.DB
}

func New(opts ...Option) (*SqlDB, error) {
	options := defaultOptions
	for _, opt := range opts {
		opt(&options)
	}
	d := &SqlDB{}
	d.options = options
	if err := d.openDB(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *SqlDB) openDB() error {
	if d.dbPath == "" {
		return errors.New("database path is empty")
	}
	db, err := sql.Open("sqlite", d.dbPath)
	if err != nil {
		return err
	}
	// Single writer: SQLite serializes writes anyway and a lone connection
	// keeps upserts from interleaving.
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		return err
	}
	d.db = db
	return nil
}

type Field struct {
	Title string
	Type  string
}

type TableMetaData struct {
	TableName   string
	ColumnNames []Field
	Args        []interface{} // row values, DataCount rows flattened
	DataCount   int
}

// CreateTable issues idempotent DDL; safe to run on every startup.
func (d *SqlDB) CreateTable(t TableMetaData) error {
	if len(t.ColumnNames) == 0 {
		return errors.New("column can not be empty")
	}

	sql := `CREATE TABLE IF NOT EXISTS ` + t.TableName + ` (`
	for _, c := range t.ColumnNames {
		sql += c.Title + ` ` + c.Type + `,`
	}
	sql = sql[:len(sql)-1] + `);`

	d.logger.Debug("create table", zap.String("sql", sql))

	_, err := d.db.Exec(sql)
	return err
}

// Upsert writes DataCount rows, replacing any existing row that collides on
// the table's primary key.
func (d *SqlDB) Upsert(t TableMetaData) error {
	if len(t.ColumnNames) == 0 {
		return errors.New("empty columns")
	}
	if t.DataCount == 0 {
		return nil
	}

	sql := `INSERT OR REPLACE INTO ` + t.TableName + `(`
	for _, v := range t.ColumnNames {
		sql += v.Title + ","
	}
	sql = sql[:len(sql)-1] + `) VALUES `
	row := ",(" + strings.Repeat(",?", len(t.ColumnNames))[1:] + ")"
	sql += strings.Repeat(row, t.DataCount)[1:] + `;`

	d.logger.Debug("upsert rows", zap.String("sql", sql), zap.Int("rows", t.DataCount))

	_, err := d.db.Exec(sql, t.Args...)
	return err
}

func (d *SqlDB) Close() error {
	return d.db.Close()
}
