package crud

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/birthcare-portal/internal/apiclient"
	"github.com/jwalitptl/birthcare-portal/internal/page"
	"github.com/jwalitptl/birthcare-portal/pkg/metrics"
)

const (
	DefaultDebounce = 300 * time.Millisecond

	loadErrorMessage   = "Unable to load records. Please try again."
	deleteErrorMessage = "Unable to delete the record. Please try again."
)

type Config struct {
	Logger   zerolog.Logger
	Metrics  *metrics.Metrics
	Debounce time.Duration
	// OnSearch is called each time a debounced search term is applied.
	OnSearch func(term string)
}

// View is a snapshot of the page for rendering.
type View[T Record] struct {
	Kind             string `json:"kind"`
	State            State  `json:"state"`
	Items            []T    `json:"items"`
	Total            int    `json:"total"`
	Search           string `json:"search,omitempty"`
	LoadError        string `json:"load_error,omitempty"`
	CanRetry         bool   `json:"can_retry"`
	ModalOpen        bool   `json:"modal_open"`
	Modal            *Draft `json:"modal,omitempty"`
	DeleteTarget     *T     `json:"delete_target,omitempty"`
	Alert            string `json:"alert,omitempty"`
	InputsDisabled   bool   `json:"inputs_disabled"`
	TriggersDisabled bool   `json:"triggers_disabled"`
}

// Controller is the state machine behind one mounted resource page. At most one request
// is in flight at a time; the mutex is not held while it runs.
type Controller[T Record] struct {
	api      API[T]
	schema   Schema[T]
	log      zerolog.Logger
	metrics  *metrics.Metrics
	life     *page.Lifetime
	debounce *debouncer
	onSearch func(string)

	mu      sync.Mutex
	state   State
	records []T
	loadErr string
	draft   *Draft
	target  *T
	alert   string
	search  string
	closed  bool
}

func NewController[T Record](api API[T], schema Schema[T], cfg Config) *Controller[T] {
	if cfg.Debounce < 0 {
		cfg.Debounce = 0
	}
	return &Controller[T]{
		api:      api,
		schema:   schema,
		log:      cfg.Logger.With().Str("resource", schema.Kind()).Logger(),
		metrics:  cfg.Metrics,
		life:     page.NewLifetime(),
		debounce: &debouncer{delay: cfg.Debounce},
		onSearch: cfg.OnSearch,
		state:    StateIdle,
		records:  []T{},
	}
}

func (c *Controller[T]) Kind() string {
	return c.schema.Kind()
}

func (c *Controller[T]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// setState must be called with c.mu held.
func (c *Controller[T]) setState(to State) {
	if c.state == to {
		return
	}
	c.metrics.ObserveTransition(c.schema.Kind(), string(c.state), string(to))
	c.log.Debug().Str("from", string(c.state)).Str("to", string(to)).Msg("page state changed")
	c.state = to
}

// begin checks that the controller is open and in one of the allowed states.
func (c *Controller[T]) begin(action string, allowed ...State) error {
	if c.closed {
		return ErrClosed
	}
	for _, s := range allowed {
		if c.state == s {
			return nil
		}
	}
	return transitionError(action, c.state)
}

// Load performs the initial fetch. A failed fetch leaves an empty list and a retry option.
func (c *Controller[T]) Load(ctx context.Context) error {
	c.mu.Lock()
	if err := c.begin("load", StateIdle); err != nil {
		c.mu.Unlock()
		return err
	}
	return c.fetchLocked(ctx)
}

// Retry refetches the list from Loaded.
func (c *Controller[T]) Retry(ctx context.Context) error {
	c.mu.Lock()
	if err := c.begin("retry", StateLoaded); err != nil {
		c.mu.Unlock()
		return err
	}
	return c.fetchLocked(ctx)
}

// fetchLocked is entered with c.mu held and releases it.
func (c *Controller[T]) fetchLocked(ctx context.Context) error {
	c.setState(StateLoading)
	c.mu.Unlock()

	callCtx, cancel := c.life.Bind(ctx)
	defer cancel()
	records, err := c.api.List(callCtx, nil)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		c.metrics.ObserveStale(c.schema.Kind())
		return ErrClosed
	}
	if err != nil {
		c.log.Warn().Err(err).Msg("list fetch failed")
		c.records = []T{}
		c.loadErr = messageOf(err, loadErrorMessage)
	} else {
		if records == nil {
			records = []T{}
		}
		c.records = records
		c.loadErr = ""
	}
	c.setState(StateLoaded)
	return nil
}

func (c *Controller[T]) OpenCreate() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin("open create", StateLoaded); err != nil {
		return err
	}
	c.draft = newDraft(ModeCreate, 0, nil)
	c.setState(StateModalOpen)
	return nil
}

// OpenEdit opens the modal with a draft copied from the record with the given id.
func (c *Controller[T]) OpenEdit(id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin("open edit", StateLoaded); err != nil {
		return err
	}
	idx := c.indexOf(id)
	if idx < 0 {
		return ErrNotFound
	}
	c.draft = newDraft(ModeEdit, id, c.schema.Fields(c.records[idx]))
	c.setState(StateModalOpen)
	return nil
}

func (c *Controller[T]) Edit(field string, value interface{}) error {
	return c.EditFields(map[string]interface{}{field: value})
}

// EditFields writes values into the open draft. Nothing is validated until Submit.
func (c *Controller[T]) EditFields(values map[string]interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin("edit", StateModalOpen); err != nil {
		return err
	}
	for k, v := range values {
		if v == nil {
			delete(c.draft.Fields, k)
			continue
		}
		c.draft.Fields[k] = v
	}
	return nil
}

// Submit validates the draft and, when it is valid, sends it. Validation failures and
// server rejections keep the modal open with errors on the draft; they are not
// returned as errors.
func (c *Controller[T]) Submit(ctx context.Context) error {
	c.mu.Lock()
	if err := c.begin("submit", StateModalOpen); err != nil {
		c.mu.Unlock()
		return err
	}

	body, errs := c.schema.Prepare(c.draft.Fields)
	if len(errs) > 0 {
		c.draft.Errors = errs
		c.draft.Message = ""
		c.mu.Unlock()
		return nil
	}
	c.draft.Errors = nil
	c.draft.Message = ""
	mode, target := c.draft.Mode, c.draft.TargetID
	c.setState(StateSubmitting)
	c.mu.Unlock()

	callCtx, cancel := c.life.Bind(ctx)
	defer cancel()
	var res apiclient.Result[T]
	if mode == ModeEdit {
		res = c.api.Update(callCtx, target, body)
	} else {
		res = c.api.Create(callCtx, body)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		c.metrics.ObserveStale(c.schema.Kind())
		return ErrClosed
	}

	switch res.Outcome {
	case apiclient.OutcomeOK:
		c.upsert(res.Record)
		c.draft = nil
		c.setState(StateLoaded)
	case apiclient.OutcomeFieldErrors:
		c.draft.Errors = res.FieldErrors
		c.draft.Message = res.Message
		c.setState(StateModalOpen)
	default:
		c.log.Warn().Err(res.Err).Str("mode", string(mode)).Msg("write failed")
		c.draft.Message = res.Message
		c.setState(StateModalOpen)
	}
	return nil
}

// upsert replaces the record with the same id or appends it. Must hold c.mu.
func (c *Controller[T]) upsert(rec T) {
	if idx := c.indexOf(rec.RecordID()); idx >= 0 {
		c.records[idx] = rec
		return
	}
	c.records = append(c.records, rec)
}

func (c *Controller[T]) CancelModal() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin("close modal", StateModalOpen); err != nil {
		return err
	}
	c.draft = nil
	c.setState(StateLoaded)
	return nil
}

func (c *Controller[T]) RequestDelete(id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin("request delete", StateLoaded); err != nil {
		return err
	}
	idx := c.indexOf(id)
	if idx < 0 {
		return ErrNotFound
	}
	target := c.records[idx]
	c.target = &target
	c.setState(StateDeleteConfirm)
	return nil
}

func (c *Controller[T]) CancelDelete() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin("cancel delete", StateDeleteConfirm); err != nil {
		return err
	}
	c.target = nil
	c.setState(StateLoaded)
	return nil
}

// ConfirmDelete deletes the pending target. The confirmation closes whatever the outcome;
// a failure is kept as a dismissible alert and the list is left unchanged.
func (c *Controller[T]) ConfirmDelete(ctx context.Context) error {
	c.mu.Lock()
	if err := c.begin("confirm delete", StateDeleteConfirm); err != nil {
		c.mu.Unlock()
		return err
	}
	id := (*c.target).RecordID()
	c.setState(StateDeleting)
	c.mu.Unlock()

	callCtx, cancel := c.life.Bind(ctx)
	defer cancel()
	err := c.api.Delete(callCtx, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		c.metrics.ObserveStale(c.schema.Kind())
		return ErrClosed
	}
	c.target = nil
	if err != nil {
		c.log.Warn().Err(err).Int64("id", id).Msg("delete failed")
		c.alert = messageOf(err, deleteErrorMessage)
	} else if idx := c.indexOf(id); idx >= 0 {
		c.records = append(c.records[:idx:idx], c.records[idx+1:]...)
	}
	c.setState(StateLoaded)
	return nil
}

func (c *Controller[T]) DismissAlert() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.alert = ""
}

// Filter returns the cached records matching term without touching the cache.
func (c *Controller[T]) Filter(term string) []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Filter(c.records, term, c.schema.SearchText)
}

// Search applies term once no other Search call has arrived for the debounce period.
func (c *Controller[T]) Search(term string) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrClosed
	}
	if c.debounce.delay == 0 {
		c.applySearch(term)
		return nil
	}
	c.debounce.trigger(func() { c.applySearch(term) })
	return nil
}

func (c *Controller[T]) applySearch(term string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.search = term
	c.mu.Unlock()
	if c.onSearch != nil {
		c.onSearch(term)
	}
}

// View renders the list filtered by the applied search term.
func (c *Controller[T]) View() View[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked(c.search)
}

// ViewFiltered renders the list filtered by term instead of the applied search.
func (c *Controller[T]) ViewFiltered(term string) View[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked(term)
}

func (c *Controller[T]) viewLocked(term string) View[T] {
	v := View[T]{
		Kind:             c.schema.Kind(),
		State:            c.state,
		Items:            Filter(c.records, term, c.schema.SearchText),
		Total:            len(c.records),
		Search:           term,
		LoadError:        c.loadErr,
		CanRetry:         c.state == StateLoaded && c.loadErr != "",
		ModalOpen:        c.state == StateModalOpen || c.state == StateSubmitting,
		Modal:            c.draft.clone(),
		Alert:            c.alert,
		InputsDisabled:   c.state == StateSubmitting,
		TriggersDisabled: c.state != StateLoaded,
	}
	if c.target != nil {
		target := *c.target
		v.DeleteTarget = &target
	}
	return v
}

// Records returns a copy of the full cached list.
func (c *Controller[T]) Records() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]T, len(c.records))
	copy(out, c.records)
	return out
}

// Table returns the full cached list as export columns and rows.
func (c *Controller[T]) Table() ([]string, [][]interface{}) {
	records := c.Records()
	rows := make([][]interface{}, 0, len(records))
	for _, rec := range records {
		rows = append(rows, c.schema.Row(rec))
	}
	return c.schema.Columns(), rows
}

// Close ends the page lifetime. In-flight responses are discarded when they arrive.
func (c *Controller[T]) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.debounce.stop()
	c.life.End()
}

func (c *Controller[T]) indexOf(id int64) int {
	for i, rec := range c.records {
		if rec.RecordID() == id {
			return i
		}
	}
	return -1
}

func messageOf(err error, fallback string) string {
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
