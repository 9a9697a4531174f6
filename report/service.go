package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/dentora/dentora/internal/quotes"
)

// QuoteSource supplies the data the printable quote needs.
type QuoteSource interface {
	Get(ctx context.Context, id int64) (*quotes.View, error)
}

// PatientNamer resolves the patient display name for the document header.
type PatientNamer interface {
	PatientName(ctx context.Context, patientID int64) (string, error)
}

// Service renders quote PDFs through Gotenberg. Rendered documents are
// cached in Redis keyed by the quote's last update, and concurrent renders
// of the same quote collapse into one Gotenberg call.
type Service struct {
	client   *Client
	source   QuoteSource
	patients PatientNamer
	cache    *redis.Client
	logger   *slog.Logger

	group singleflight.Group
}

const cacheTTL = 6 * time.Hour

func NewService(client *Client, source QuoteSource, patients PatientNamer, cache *redis.Client, logger *slog.Logger) *Service {
	return &Service{
		client:   client,
		source:   source,
		patients: patients,
		cache:    cache,
		logger:   logger,
	}
}

// RenderQuotePDF returns the printable PDF of a quote.
func (s *Service) RenderQuotePDF(ctx context.Context, quoteID int64) ([]byte, error) {
	view, err := s.source.Get(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("dentora:pdf:quote:%d:%d", quoteID, view.Quote.UpdatedAt.UnixNano())

	if cached := s.fromCache(ctx, key); cached != nil {
		return cached, nil
	}

	ch := s.group.DoChan(key, func() (any, error) {
		return s.render(context.WithoutCancel(ctx), key, view)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

func (s *Service) render(ctx context.Context, key string, view *quotes.View) ([]byte, error) {
	name := ""
	if s.patients != nil {
		var err error
		name, err = s.patients.PatientName(ctx, view.Quote.PatientID)
		if err != nil {
			s.logger.Warn("resolve patient name", slog.Int64("patient_id", view.Quote.PatientID), slog.Any("error", err))
		}
	}

	html, err := BuildQuoteHTML(view, name)
	if err != nil {
		return nil, err
	}
	pdf, err := s.client.RenderHTML(ctx, html)
	if err != nil {
		return nil, fmt.Errorf("report: render quote %d: %w", view.Quote.ID, err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, pdf, cacheTTL).Err(); err != nil {
			s.logger.Warn("cache rendered pdf", slog.Any("error", err))
		}
	}
	return pdf, nil
}

func (s *Service) fromCache(ctx context.Context, key string) []byte {
	if s.cache == nil {
		return nil
	}
	data, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("read pdf cache", slog.Any("error", err))
		}
		return nil
	}
	return data
}
