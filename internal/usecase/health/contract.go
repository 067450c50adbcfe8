package health

import "context"

// DBPinger checks database availability. *bun.DB satisfies it directly.
type DBPinger interface {
	PingContext(ctx context.Context) error
}

// ConversionChecker checks the document conversion service.
type ConversionChecker interface {
	Health(ctx context.Context) error
}
