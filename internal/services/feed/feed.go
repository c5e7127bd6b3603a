// Package feed fetches the raw price feed and decodes it into domain entries.
package feed

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/swapsim/internal/domain"
	"github.com/vadiminshakov/swapsim/pkg/retrier"
)

const defaultTimeout = 5 * time.Second

// Source supplies an ordered price feed. Order is feed order, not time
// order; deduplication happens downstream in domain.BuildPriceTable.
type Source interface {
	Fetch(ctx context.Context) ([]domain.PriceEntry, error)
}

// rawEntry matches the wire format of the feed endpoint.
type rawEntry struct {
	Currency string  `json:"currency"`
	Date     string  `json:"date"`
	Price    float64 `json:"price"`
}

// HTTPSource fetches the price feed over HTTP.
type HTTPSource struct {
	url     string
	client  *http.Client
	retrier *retrier.Retrier
	logger  *zap.Logger
}

// NewHTTPSource creates a feed source for the given endpoint.
func NewHTTPSource(url string, logger *zap.Logger) *HTTPSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPSource{
		url:     url,
		client:  &http.Client{Timeout: defaultTimeout},
		retrier: retrier.New(retrier.WithMaxRetries(3), retrier.WithInitialInterval(500*time.Millisecond)),
		logger:  logger,
	}
}

// Fetch downloads and decodes the feed, retrying transient failures.
func (s *HTTPSource) Fetch(ctx context.Context) ([]domain.PriceEntry, error) {
	raw, err := retrier.DoWithData(s.retrier, ctx, func(ctx context.Context) ([]rawEntry, error) {
		return s.fetchOnce(ctx)
	})
	if err != nil {
		return nil, errors.Wrap(err, "fetch price feed")
	}

	entries := make([]domain.PriceEntry, 0, len(raw))
	for _, r := range raw {
		asOf, err := time.Parse(time.RFC3339, r.Date)
		if err != nil {
			s.logger.Warn("skipping feed entry with bad date",
				zap.String("currency", r.Currency), zap.String("date", r.Date))
			continue
		}
		price := decimal.NewFromFloat(r.Price)
		if !price.IsPositive() {
			s.logger.Warn("skipping feed entry with non-positive price",
				zap.String("currency", r.Currency), zap.String("price", price.String()))
			continue
		}
		entries = append(entries, domain.PriceEntry{
			Currency: r.Currency,
			AsOf:     asOf,
			Price:    price,
		})
	}

	return entries, nil
}

func (s *HTTPSource) fetchOnce(ctx context.Context) ([]rawEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build feed request")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "request feed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("feed endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read feed body")
	}

	var raw []rawEntry
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, errors.Wrap(err, "decode feed json")
	}

	return raw, nil
}

// StaticSource serves a fixed feed, useful for tests and offline runs.
type StaticSource struct {
	Entries []domain.PriceEntry
}

func (s StaticSource) Fetch(context.Context) ([]domain.PriceEntry, error) {
	return s.Entries, nil
}
