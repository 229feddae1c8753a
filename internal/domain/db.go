package domain

import "context"

// Database is the lifecycle of the pattern store: migrations run at startup,
// PingContext backs /healthz and Close runs on shutdown.
type Database interface {
	Migrate(ctx context.Context) error
	PingContext(ctx context.Context) error
	Close() error
}
