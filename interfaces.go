package lottery

import (
	"context"
	"time"
)

// DrawStore is a durable, uniqueness-enforcing collection of draw records
type DrawStore interface {
	// Insert stores the record; an existing identical record yields Skipped, not an error
	Insert(ctx context.Context, record DrawRecord) (InsertOutcome, error)

	// QueryRange returns records with start <= draw date <= end, most recent first
	QueryRange(ctx context.Context, start, end time.Time) ([]DrawRecord, error)

	// AllRecords returns the full history, most recent first
	AllRecords(ctx context.Context) ([]DrawRecord, error)

	// Count returns the number of stored records
	Count(ctx context.Context) (int64, error)

	// Close releases the underlying connection
	Close() error
}

// RandomSource produces uniformly distributed integers
type RandomSource interface {
	// GenerateInRange returns a number in [min, max] (inclusive)
	GenerateInRange(min, max int) (int, error)
}

// Logger defines the interface for logging operations
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
	Debug(msg string, args ...any)
}
