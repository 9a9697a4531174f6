// Package sequence hands out clinic-wide identifiers and counters.
package sequence

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	keyQuoteID       = "dentora:seq:quote_id"
	keyInvoiceID     = "dentora:seq:invoice_id"
	keyQuoteNumber   = "dentora:seq:quote_number"
	keyDeletedQuotes = "dentora:counter:deleted_quotes"

	opTimeout = 2 * time.Second
)

// Service allocates ids from Redis counters. Every allocation has a local
// fallback so a Redis outage can never block a quote mutation: callers get a
// unique locally derived id instead of an error.
type Service struct {
	client *redis.Client
	logger *slog.Logger
	prefix string
}

// NewService constructs a sequencing service. prefix is the clinic's quote
// number prefix (e.g. "AJ" yields numbers like AJ-0042).
func NewService(client *redis.Client, logger *slog.Logger, prefix string) *Service {
	return &Service{client: client, logger: logger, prefix: prefix}
}

// NextQuoteID allocates the next quote id.
func (s *Service) NextQuoteID(ctx context.Context, patientID int64) int64 {
	return s.next(ctx, keyQuoteID)
}

// NextInvoiceID allocates the next invoice id.
func (s *Service) NextInvoiceID(ctx context.Context) int64 {
	return s.next(ctx, keyInvoiceID)
}

// NextQuoteNumber allocates the next human-readable quote number. Numbers
// increase monotonically and are never reused, even after a quote is deleted.
func (s *Service) NextQuoteNumber(ctx context.Context) string {
	n := s.next(ctx, keyQuoteNumber)
	return fmt.Sprintf("%s-%04d", s.prefix, n)
}

// IncrDeletedQuotes bumps the clinic-wide deleted quote counter. Failures are
// logged and swallowed; the counter is informational.
func (s *Service) IncrDeletedQuotes(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	if err := s.client.Incr(ctx, keyDeletedQuotes).Err(); err != nil {
		s.logger.Warn("sequence: deleted quote counter", slog.Any("error", err))
	}
}

func (s *Service) next(ctx context.Context, key string) int64 {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	n, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		s.logger.Warn("sequence: falling back to local id", slog.String("key", key), slog.Any("error", err))
		return localFallbackID()
	}
	return n
}

// localFallbackID derives a unique positive id from a random UUID. Fallback
// ids live in a far higher range than Redis counters so the two never
// collide.
func localFallbackID() int64 {
	id := uuid.New()
	var n int64
	for _, b := range id[:8] {
		n = n<<8 | int64(b)
	}
	if n < 0 {
		n = -n
	}
	// Keep clear of the counter range.
	return n | (1 << 62)
}
