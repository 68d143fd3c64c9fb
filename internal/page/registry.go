// Package page tracks mounted pages and the lifetimes bound to them.
package page

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/birthcare-portal/pkg/metrics"
)

var ErrNotFound = errors.New("page: not found")

// Closer is a mounted page. Close must be safe to call more than once.
type Closer interface {
	Close()
}

// Entry is one mounted page owned by one user.
type Entry struct {
	ID        string
	Kind      string
	Owner     int64
	Page      Closer
	MountedAt time.Time

	once sync.Once
}

func (e *Entry) close() {
	e.once.Do(e.Page.Close)
}

// Registry holds mounted pages until they are unmounted or sit idle for the TTL.
type Registry struct {
	pages   *cache.Cache
	metrics *metrics.Metrics
	log     zerolog.Logger
}

func NewRegistry(ttl time.Duration, m *metrics.Metrics, log zerolog.Logger) *Registry {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	cleanup := ttl / 2
	if cleanup < time.Second {
		cleanup = time.Second
	}
	r := &Registry{
		pages:   cache.New(ttl, cleanup),
		metrics: m,
		log:     log,
	}
	r.pages.OnEvicted(func(id string, v interface{}) {
		e := v.(*Entry)
		e.close()
		r.metrics.PageUnmounted()
		r.log.Debug().Str("page_id", id).Str("kind", e.Kind).Msg("page unmounted")
	})
	return r
}

// Mount registers p under a fresh id.
func (r *Registry) Mount(owner int64, kind string, p Closer) *Entry {
	e := &Entry{
		ID:        uuid.NewString(),
		Kind:      kind,
		Owner:     owner,
		Page:      p,
		MountedAt: time.Now(),
	}
	r.pages.SetDefault(e.ID, e)
	r.metrics.PageMounted()
	r.log.Debug().Str("page_id", e.ID).Str("kind", kind).Int64("owner", owner).Msg("page mounted")
	return e
}

// Get returns the page and renews its idle timer. Pages of another kind or owner are
// reported as not found.
func (r *Registry) Get(owner int64, kind, id string) (*Entry, error) {
	v, found := r.pages.Get(id)
	if !found {
		return nil, ErrNotFound
	}
	e := v.(*Entry)
	if e.Owner != owner || e.Kind != kind {
		return nil, ErrNotFound
	}
	if err := r.renew(e); err != nil {
		return nil, err
	}
	return e, nil
}

// renew resets the idle timer of a page that is still registered. A page evicted or
// unmounted since it was looked up stays gone.
func (r *Registry) renew(e *Entry) error {
	if err := r.pages.Replace(e.ID, e, cache.DefaultExpiration); err != nil {
		return ErrNotFound
	}
	return nil
}

// Unmount closes the page. In-flight work bound to it is cancelled.
func (r *Registry) Unmount(owner int64, kind, id string) error {
	if _, err := r.Get(owner, kind, id); err != nil {
		return err
	}
	r.pages.Delete(id)
	return nil
}

func (r *Registry) Len() int {
	return r.pages.ItemCount()
}

// Close unmounts every page.
func (r *Registry) Close() {
	for id := range r.pages.Items() {
		r.pages.Delete(id)
	}
}
