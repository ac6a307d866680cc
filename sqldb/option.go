package sqldb

import "go.uber.org/zap"

type options struct {
	logger *zap.Logger
	dbPath string
}

var defaultOptions = options{
	logger: zap.NewNop(),
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
