package sqlstorage

import "go.uber.org/zap"

type options struct {
	logger     *zap.Logger
	dbPath     string
	batchCount int
}

var defaultOptions = options{
	logger:     zap.NewNop(),
	batchCount: 1, // commit per record unless told otherwise
}

type Option func(opts *options)

func WithLogger(logger *zap.Logger) Option {
	return func(opts *options) {
		opts.logger = logger
	}
}

func WithDBPath(dbPath string) Option {
	return func(opts *options) {
		opts.dbPath = dbPath
	}
}

func WithBatchCount(batchCount int) Option {
	return func(opts *options) {
		if batchCount > 0 {
			opts.batchCount = batchCount
		}
	}
}
