package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

type Options struct {
	Driver string // sqlite | postgres | file | memory

	SQLitePath string
	FileDir    string

	PostgresDSN      string
	PostgresMaxConns int
	ViaBouncer       bool
}

func Open(ctx context.Context, opts Options, logger *slog.Logger) (JobStore, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Driver)) {
	case "", "sqlite":
		return OpenSQLite(opts.SQLitePath, logger)
	case "postgres":
		if opts.PostgresDSN == "" {
			return nil, fmt.Errorf("store driver postgres needs a dsn")
		}
		return OpenPostgres(ctx, opts.PostgresDSN, opts.PostgresMaxConns, opts.ViaBouncer, logger)
	case "file":
		return NewFileStore(opts.FileDir)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
}
