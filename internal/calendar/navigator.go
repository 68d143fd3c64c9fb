package calendar

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/birthcare-portal/internal/model"
	"github.com/jwalitptl/birthcare-portal/internal/page"
	"github.com/jwalitptl/birthcare-portal/pkg/metrics"
)

var (
	// ErrStaleResponse means a newer request superseded this one; its data was dropped.
	ErrStaleResponse = errors.New("calendar: stale response discarded")
	ErrClosed        = errors.New("calendar: page closed")
	ErrInvalidMonth  = errors.New("calendar: invalid month")
)

const loadErrorMessage = "Unable to load visits. Please try again."

type NavigatorConfig struct {
	Now     func() time.Time
	Logger  zerolog.Logger
	Metrics *metrics.Metrics
}

// View is the calendar page as the browser renders it.
type View struct {
	Month      Month               `json:"month"`
	Grid       Grid                `json:"grid"`
	Loading    bool                `json:"loading"`
	LoadError  string              `json:"load_error,omitempty"`
	Today      []model.VisitRecord `json:"today"`
	TodayError string              `json:"today_error,omitempty"`
}

// Navigator is the state of one mounted calendar page. Month requests may overlap; only the
// most recently requested month is ever displayed.
type Navigator struct {
	source  Source
	now     func() time.Time
	log     zerolog.Logger
	metrics *metrics.Metrics
	life    *page.Lifetime

	mu       sync.Mutex
	month    Month
	seq      uint64
	loading  bool
	grid     Grid
	loadErr  string
	today    []model.VisitRecord
	todaySeq uint64
	todayErr string
	closed   bool
}

func NewNavigator(source Source, cfg NavigatorConfig) *Navigator {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	n := &Navigator{
		source:  source,
		now:     cfg.Now,
		log:     cfg.Logger,
		metrics: cfg.Metrics,
		life:    page.NewLifetime(),
		today:   []model.VisitRecord{},
	}
	n.month = MonthOf(n.now())
	n.grid = BuildGrid(n.month, nil, n.now())
	return n
}

// Mount loads the current month and today's visits.
func (n *Navigator) Mount(ctx context.Context) (View, error) {
	if _, err := n.RefreshToday(ctx); err != nil && !errors.Is(err, ErrStaleResponse) {
		return View{}, err
	}
	return n.Show(ctx, n.Month())
}

func (n *Navigator) Month() Month {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.month
}

// Navigate moves the requested month by delta relative to the latest request.
func (n *Navigator) Navigate(ctx context.Context, delta int) (View, error) {
	return n.Show(ctx, NavigateMonth(n.Month(), delta))
}

// Refresh reloads the displayed month.
func (n *Navigator) Refresh(ctx context.Context) (View, error) {
	return n.Show(ctx, n.Month())
}

// Show requests month m. If another request is issued before this one resolves, this
// response is discarded and ErrStaleResponse returned with the newer state.
func (n *Navigator) Show(ctx context.Context, m Month) (View, error) {
	if !m.Valid() {
		return n.View(), ErrInvalidMonth
	}

	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return View{}, ErrClosed
	}
	n.seq++
	ticket := n.seq
	n.month = m
	n.loading = true
	n.mu.Unlock()

	callCtx, cancel := n.life.Bind(ctx)
	defer cancel()
	start, end := m.Range()
	visits, err := n.source.VisitsBetween(callCtx, start, end)

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		n.metrics.ObserveStale("calendar")
		return View{}, ErrClosed
	}
	if ticket != n.seq {
		n.metrics.ObserveStale("calendar")
		n.log.Debug().Str("month", m.String()).Str("current", n.month.String()).Msg("dropping stale calendar response")
		return n.viewLocked(), ErrStaleResponse
	}

	n.loading = false
	if err != nil {
		n.log.Warn().Err(err).Str("month", m.String()).Msg("calendar fetch failed")
		n.loadErr = loadErrorMessage
		n.grid = BuildGrid(m, nil, n.now())
		return n.viewLocked(), nil
	}

	n.loadErr = ""
	n.grid = BuildGrid(m, visits, n.now())
	if n.grid.Skipped > 0 {
		n.metrics.AddSkippedVisits(n.grid.Skipped)
		n.log.Warn().Int("skipped", n.grid.Skipped).Str("month", m.String()).Msg("visits with unparseable dates skipped")
	}
	return n.viewLocked(), nil
}

// RefreshToday fetches today's visits. The result does not depend on the displayed month.
func (n *Navigator) RefreshToday(ctx context.Context) (View, error) {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return View{}, ErrClosed
	}
	n.todaySeq++
	ticket := n.todaySeq
	n.mu.Unlock()

	callCtx, cancel := n.life.Bind(ctx)
	defer cancel()
	visits, err := n.source.TodaysVisits(callCtx)

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		n.metrics.ObserveStale("calendar_today")
		return View{}, ErrClosed
	}
	if ticket != n.todaySeq {
		n.metrics.ObserveStale("calendar_today")
		return n.viewLocked(), ErrStaleResponse
	}
	if err != nil {
		n.log.Warn().Err(err).Msg("today's visits fetch failed")
		n.todayErr = loadErrorMessage
		return n.viewLocked(), nil
	}
	n.todayErr = ""
	// Keep only today's date even if the endpoint returns a wider window.
	n.today = TodaysVisits(visits, n.now())
	return n.viewLocked(), nil
}

func (n *Navigator) View() View {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.viewLocked()
}

func (n *Navigator) viewLocked() View {
	today := make([]model.VisitRecord, len(n.today))
	copy(today, n.today)
	return View{
		Month:      n.month,
		Grid:       n.grid,
		Loading:    n.loading,
		LoadError:  n.loadErr,
		Today:      today,
		TodayError: n.todayErr,
	}
}

// Close ends the page lifetime. Responses arriving afterwards are ignored.
func (n *Navigator) Close() {
	n.mu.Lock()
	n.closed = true
	n.mu.Unlock()
	n.life.End()
}
