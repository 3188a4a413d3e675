package usecase

import (
	"context"
	"time"

	"github.com/paceline/backend/internal/domain"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// DefaultSearchLimit caps merged results when the caller does not ask
// for a specific count.
const DefaultSearchLimit = 6

// SearchConfig holds configuration for the search aggregator
type SearchConfig struct {
	DefaultLimit   int
	AdapterTimeout time.Duration
}

// SearchService fans a query out to every registered catalog adapter
// and merges the results. Adapters are held in priority order: the
// first adapter to return a URL owns it.
type SearchService struct {
	adapters       []domain.CatalogAdapter
	defaultLimit   int
	adapterTimeout time.Duration
	log            *logrus.Entry
}

// NewSearchService creates a search aggregator over the given adapters,
// in priority order.
func NewSearchService(adapters []domain.CatalogAdapter, config SearchConfig) *SearchService {
	limit := config.DefaultLimit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	timeout := config.AdapterTimeout
	if timeout == 0 {
		timeout = 3 * time.Second
	}

	return &SearchService{
		adapters:       adapters,
		defaultLimit:   limit,
		adapterTimeout: timeout,
		log:            logrus.WithField("component", "search"),
	}
}

// Search runs every adapter concurrently and merges their results in
// adapter priority order, deduplicating by URL (first seen wins) and
// truncating to limit only after the merge so a rich adapter is not
// unfairly cut early. It never fails: a failing or timed-out adapter
// contributes nothing.
func (s *SearchService) Search(ctx context.Context, query string, limit int) []domain.Product {
	if limit <= 0 {
		limit = s.defaultLimit
	}

	results := make([][]domain.Product, len(s.adapters))

	var g errgroup.Group
	for i, adapter := range s.adapters {
		g.Go(func() error {
			adapterCtx, cancel := context.WithTimeout(ctx, s.adapterTimeout)
			defer cancel()

			products, err := adapter.Search(adapterCtx, query, limit)
			if err != nil {
				s.log.WithFields(logrus.Fields{
					"adapter": adapter.Name(),
					"query":   query,
				}).WithError(err).Warn("catalog adapter failed")
				return nil
			}

			results[i] = products
			return nil
		})
	}
	// Adapter errors are swallowed above, so Wait cannot fail.
	g.Wait()

	seen := make(map[string]bool)
	merged := []domain.Product{}
	for _, products := range results {
		for _, p := range products {
			if p.URL == "" || seen[p.URL] {
				continue
			}
			seen[p.URL] = true
			merged = append(merged, p)
		}
	}

	if len(merged) > limit {
		merged = merged[:limit]
	}

	s.log.WithFields(logrus.Fields{"query": query, "count": len(merged)}).Debug("search complete")
	return merged
}
