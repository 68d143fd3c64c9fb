package calendar

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/birthcare-portal/internal/model"
	"github.com/jwalitptl/birthcare-portal/pkg/metrics"
)

// Source returns visit records from the remote API.
type Source interface {
	VisitsBetween(ctx context.Context, start, end Date) ([]model.VisitRecord, error)
	TodaysVisits(ctx context.Context) ([]model.VisitRecord, error)
}

// Subscriber delivers raw messages published on a channel.
type Subscriber interface {
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

// CachedSource keeps month ranges for a short time so that mounting several calendar
// pages does not refetch the same month. Today's visits are never cached.
type CachedSource struct {
	next    Source
	cache   *cache.Cache
	metrics *metrics.Metrics
	log     zerolog.Logger

	// gen counts invalidations; a fetch that straddles one is not stored.
	mu  sync.Mutex
	gen uint64
}

func NewCachedSource(next Source, ttl time.Duration, m *metrics.Metrics, log zerolog.Logger) *CachedSource {
	return &CachedSource{
		next:    next,
		cache:   cache.New(ttl, 2*ttl),
		metrics: m,
		log:     log,
	}
}

func rangeKey(start, end Date) string {
	return start.String() + "/" + end.String()
}

func (s *CachedSource) VisitsBetween(ctx context.Context, start, end Date) ([]model.VisitRecord, error) {
	key := rangeKey(start, end)
	if cached, found := s.cache.Get(key); found {
		s.metrics.ObserveCache(true)
		return cached.([]model.VisitRecord), nil
	}
	s.metrics.ObserveCache(false)

	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()

	visits, err := s.next.VisitsBetween(ctx, start, end)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.gen == gen {
		s.cache.SetDefault(key, visits)
	}
	s.mu.Unlock()
	return visits, nil
}

func (s *CachedSource) TodaysVisits(ctx context.Context) ([]model.VisitRecord, error) {
	return s.next.TodaysVisits(ctx)
}

// Invalidate drops every cached range.
func (s *CachedSource) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.cache.Flush()
}

// Watch flushes the cache whenever a message arrives on channel, until ctx ends.
func (s *CachedSource) Watch(ctx context.Context, sub Subscriber, channel string) error {
	msgs, err := sub.Subscribe(ctx, channel)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", channel, err)
	}
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-msgs:
				if !ok {
					return
				}
				s.Invalidate()
				s.log.Debug().Str("channel", channel).Msg("calendar cache invalidated")
			}
		}
	}()
	return nil
}
