// Package schedule serves the prenatal calendar page.
package schedule

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/birthcare-portal/internal/apiclient"
	"github.com/jwalitptl/birthcare-portal/internal/auth"
	"github.com/jwalitptl/birthcare-portal/internal/calendar"
	"github.com/jwalitptl/birthcare-portal/internal/handler"
	"github.com/jwalitptl/birthcare-portal/internal/middleware"
	"github.com/jwalitptl/birthcare-portal/internal/model"
	"github.com/jwalitptl/birthcare-portal/internal/page"
	"github.com/jwalitptl/birthcare-portal/pkg/errors"
	"github.com/jwalitptl/birthcare-portal/pkg/httputil"
	"github.com/jwalitptl/birthcare-portal/pkg/messaging"
	"github.com/jwalitptl/birthcare-portal/pkg/metrics"
)

const kind = "calendar"

var (
	viewRequirement     = auth.Requirement{Permission: model.PermissionViewPrenatal}
	scheduleRequirement = auth.Requirement{Permission: model.PermissionScheduleVisits}
)

// Scheduler books visits on the clinic API.
type Scheduler interface {
	Schedule(ctx context.Context, req model.ScheduleVisitRequest) apiclient.Result[model.VisitRecord]
}

// Publisher announces events to other portal instances.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) error
}

type Config struct {
	Now     func() time.Time
	Logger  zerolog.Logger
	Metrics *metrics.Metrics
	// Invalidate, when set, drops locally cached months after a visit is scheduled.
	Invalidate func()
}

type Handler struct {
	source    calendar.Source
	scheduler Scheduler
	publisher Publisher
	registry  *page.Registry
	cfg       Config
}

func NewHandler(source calendar.Source, scheduler Scheduler, publisher Publisher, registry *page.Registry, cfg Config) *Handler {
	return &Handler{
		source:    source,
		scheduler: scheduler,
		publisher: publisher,
		registry:  registry,
		cfg:       cfg,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	pages := r.Group("/pages/" + kind)
	pages.Use(middleware.Require(viewRequirement))
	{
		pages.POST("", h.Mount)
		pages.GET("/:page", h.View)
		pages.DELETE("/:page", h.Unmount)
		pages.POST("/:page/navigate", h.Navigate)
		pages.POST("/:page/month", h.ShowMonth)
		pages.POST("/:page/today", h.RefreshToday)
		pages.POST("/:page/visits", middleware.Require(scheduleRequirement), h.ScheduleVisit)
	}
}

type mountResponse struct {
	PageID string        `json:"page_id"`
	View   calendar.View `json:"view"`
}

type navigateRequest struct {
	Delta int `json:"delta" binding:"required"`
}

type monthRequest struct {
	Year  int `json:"year" binding:"required,min=1"`
	Month int `json:"month" binding:"required,min=1,max=12"`
}

type scheduleResponse struct {
	Visit model.VisitRecord `json:"visit"`
	View  calendar.View     `json:"view"`
}

func (h *Handler) navigator(c *gin.Context) (*calendar.Navigator, context.Context, bool) {
	session := middleware.SessionFrom(c)
	entry, err := h.registry.Get(session.UserID, kind, c.Param("page"))
	if err != nil {
		handler.Fail(c, err)
		return nil, nil, false
	}
	return entry.Page.(*calendar.Navigator), apiclient.WithToken(c.Request.Context(), session.Token), true
}

// respond answers with the view. A response overtaken by a newer request still answers
// 200 with the newer state.
func respond(c *gin.Context, status int, view calendar.View, err error) {
	switch {
	case err == nil:
		httputil.RespondWithStatus(c, status, view)
	case stderrors.Is(err, calendar.ErrStaleResponse):
		c.JSON(http.StatusOK, &httputil.Response{Status: "success", Message: "superseded by a newer request", Data: view})
	default:
		handler.Fail(c, err)
	}
}

func (h *Handler) Mount(c *gin.Context) {
	session := middleware.SessionFrom(c)
	nav := calendar.NewNavigator(h.source, calendar.NavigatorConfig{
		Now:     h.cfg.Now,
		Logger:  h.cfg.Logger,
		Metrics: h.cfg.Metrics,
	})
	entry := h.registry.Mount(session.UserID, kind, nav)

	view, err := nav.Mount(apiclient.WithToken(c.Request.Context(), session.Token))
	if err != nil && !stderrors.Is(err, calendar.ErrStaleResponse) {
		_ = h.registry.Unmount(session.UserID, kind, entry.ID)
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithStatus(c, http.StatusCreated, mountResponse{PageID: entry.ID, View: view})
}

func (h *Handler) View(c *gin.Context) {
	nav, _, ok := h.navigator(c)
	if !ok {
		return
	}
	httputil.RespondWithSuccess(c, nav.View())
}

func (h *Handler) Unmount(c *gin.Context) {
	session := middleware.SessionFrom(c)
	if err := h.registry.Unmount(session.UserID, kind, c.Param("page")); err != nil {
		handler.Fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) Navigate(c *gin.Context) {
	var req navigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.Fail(c, errors.BadRequest("delta is required", err))
		return
	}
	nav, ctx, ok := h.navigator(c)
	if !ok {
		return
	}
	view, err := nav.Navigate(ctx, req.Delta)
	respond(c, http.StatusOK, view, err)
}

func (h *Handler) ShowMonth(c *gin.Context) {
	var req monthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.Fail(c, errors.BadRequest("year and month are required", err))
		return
	}
	nav, ctx, ok := h.navigator(c)
	if !ok {
		return
	}
	view, err := nav.Show(ctx, calendar.Month{Year: req.Year, Month: time.Month(req.Month)})
	respond(c, http.StatusOK, view, err)
}

func (h *Handler) RefreshToday(c *gin.Context) {
	nav, ctx, ok := h.navigator(c)
	if !ok {
		return
	}
	view, err := nav.RefreshToday(ctx)
	respond(c, http.StatusOK, view, err)
}

// ScheduleVisit books a visit, announces it and reloads the displayed month.
func (h *Handler) ScheduleVisit(c *gin.Context) {
	var req model.ScheduleVisitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.Fail(c, errors.BadRequest("invalid visit", err))
		return
	}
	nav, ctx, ok := h.navigator(c)
	if !ok {
		return
	}

	res := h.scheduler.Schedule(ctx, req)
	switch res.Outcome {
	case apiclient.OutcomeFieldErrors:
		httputil.RespondWithErrorData(c, http.StatusUnprocessableEntity, res.Message, gin.H{"errors": res.FieldErrors})
		return
	case apiclient.OutcomeGenericError:
		_ = c.Error(res.AsError())
		httputil.RespondWithErrorData(c, http.StatusBadGateway, res.Message, nil)
		return
	}

	if h.cfg.Invalidate != nil {
		h.cfg.Invalidate()
	}
	if h.publisher != nil {
		event := messaging.VisitScheduled{
			VisitID:       res.Record.ID,
			PatientID:     res.Record.PatientID,
			ScheduledDate: res.Record.ScheduledDate,
		}
		if err := h.publisher.Publish(ctx, messaging.ChannelVisitScheduled, event); err != nil {
			h.cfg.Logger.Warn().Err(err).Int64("visit_id", res.Record.ID).Msg("failed to publish visit.scheduled")
		}
	}

	if _, err := nav.RefreshToday(ctx); err != nil && !stderrors.Is(err, calendar.ErrStaleResponse) {
		handler.Fail(c, err)
		return
	}
	view, err := nav.Refresh(ctx)
	if err != nil && !stderrors.Is(err, calendar.ErrStaleResponse) {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithStatus(c, http.StatusCreated, scheduleResponse{Visit: res.Record, View: view})
}
