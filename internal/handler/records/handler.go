// Package records serves the role, room and bill management pages.
package records

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/birthcare-portal/internal/apiclient"
	"github.com/jwalitptl/birthcare-portal/internal/auth"
	"github.com/jwalitptl/birthcare-portal/internal/crud"
	"github.com/jwalitptl/birthcare-portal/internal/export"
	"github.com/jwalitptl/birthcare-portal/internal/handler"
	"github.com/jwalitptl/birthcare-portal/internal/middleware"
	"github.com/jwalitptl/birthcare-portal/internal/model"
	"github.com/jwalitptl/birthcare-portal/internal/page"
	"github.com/jwalitptl/birthcare-portal/internal/resource"
	"github.com/jwalitptl/birthcare-portal/pkg/errors"
	"github.com/jwalitptl/birthcare-portal/pkg/httputil"
)

type Handler struct {
	kinds    map[string]resource.Kind
	client   *apiclient.Client
	registry *page.Registry
	cfg      crud.Config
}

func NewHandler(kinds map[string]resource.Kind, client *apiclient.Client, registry *page.Registry, cfg crud.Config) *Handler {
	return &Handler{
		kinds:    kinds,
		client:   client,
		registry: registry,
		cfg:      cfg,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	pages := r.Group("/pages/:kind")
	{
		pages.POST("", h.Mount)
		pages.GET("/:page", h.View)
		pages.DELETE("/:page", h.Unmount)
		pages.POST("/:page/retry", h.Retry)
		pages.POST("/:page/modal", h.OpenCreate)
		pages.POST("/:page/modal/:id", h.OpenEdit)
		pages.DELETE("/:page/modal", h.CancelModal)
		pages.PATCH("/:page/draft", h.EditDraft)
		pages.POST("/:page/submit", h.Submit)
		pages.POST("/:page/delete/confirm", h.ConfirmDelete)
		pages.POST("/:page/delete/:id", h.RequestDelete)
		pages.DELETE("/:page/delete", h.CancelDelete)
		pages.DELETE("/:page/alert", h.DismissAlert)
		pages.PUT("/:page/search", h.Search)
		pages.GET("/:page/export.xlsx", h.Export)
	}
}

type mountResponse struct {
	PageID string      `json:"page_id"`
	View   interface{} `json:"view"`
}

type searchRequest struct {
	Term string `json:"term"`
}

// authorize resolves the page kind and checks the session against it.
func (h *Handler) authorize(c *gin.Context) (resource.Kind, *model.Session, bool) {
	kind, ok := h.kinds[c.Param("kind")]
	if !ok {
		httputil.RespondWithError(c, errors.NotFound("page kind", nil))
		return resource.Kind{}, nil, false
	}
	session := middleware.SessionFrom(c)
	if d := auth.Authorize(session, kind.Requirement); !d.Allow {
		middleware.Deny(c, d)
		return resource.Kind{}, nil, false
	}
	return kind, session, true
}

// page returns the mounted page and a request context carrying the user's token.
func (h *Handler) page(c *gin.Context) (crud.Page, context.Context, bool) {
	kind, session, ok := h.authorize(c)
	if !ok {
		return nil, nil, false
	}
	entry, err := h.registry.Get(session.UserID, kind.Name, c.Param("page"))
	if err != nil {
		handler.Fail(c, err)
		return nil, nil, false
	}
	return entry.Page.(crud.Page), apiclient.WithToken(c.Request.Context(), session.Token), true
}

// act runs an action and answers with the resulting view. A refused action answers with
// its error and the unchanged view.
func (h *Handler) act(c *gin.Context, status int, fn func(ctx context.Context, p crud.Page) error) {
	p, ctx, ok := h.page(c)
	if !ok {
		return
	}
	if err := fn(ctx, p); err != nil {
		appErr := handler.ToAppError(err)
		_ = c.Error(err)
		httputil.RespondWithErrorData(c, appErr.StatusCode(), appErr.Message, p.Render(""))
		return
	}
	httputil.RespondWithStatus(c, status, p.Render(""))
}

// Mount creates a page and performs its initial fetch.
func (h *Handler) Mount(c *gin.Context) {
	kind, session, ok := h.authorize(c)
	if !ok {
		return
	}
	p := kind.New(h.client, h.cfg)
	entry := h.registry.Mount(session.UserID, kind.Name, p)

	ctx := apiclient.WithToken(c.Request.Context(), session.Token)
	if err := p.Load(ctx); err != nil {
		_ = h.registry.Unmount(session.UserID, kind.Name, entry.ID)
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithStatus(c, http.StatusCreated, mountResponse{PageID: entry.ID, View: p.Render("")})
}

// View renders the page. The optional q parameter filters the list without changing
// the applied search.
func (h *Handler) View(c *gin.Context) {
	p, _, ok := h.page(c)
	if !ok {
		return
	}
	httputil.RespondWithSuccess(c, p.Render(c.Query("q")))
}

func (h *Handler) Unmount(c *gin.Context) {
	kind, session, ok := h.authorize(c)
	if !ok {
		return
	}
	if err := h.registry.Unmount(session.UserID, kind.Name, c.Param("page")); err != nil {
		handler.Fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) Retry(c *gin.Context) {
	h.act(c, http.StatusOK, func(ctx context.Context, p crud.Page) error {
		return p.Retry(ctx)
	})
}

func (h *Handler) OpenCreate(c *gin.Context) {
	h.act(c, http.StatusOK, func(_ context.Context, p crud.Page) error {
		return p.OpenCreate()
	})
}

func (h *Handler) OpenEdit(c *gin.Context) {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		handler.Fail(c, err)
		return
	}
	h.act(c, http.StatusOK, func(_ context.Context, p crud.Page) error {
		return p.OpenEdit(id)
	})
}

func (h *Handler) CancelModal(c *gin.Context) {
	h.act(c, http.StatusOK, func(_ context.Context, p crud.Page) error {
		return p.CancelModal()
	})
}

func (h *Handler) EditDraft(c *gin.Context) {
	var values map[string]interface{}
	if err := c.ShouldBindJSON(&values); err != nil {
		handler.Fail(c, errors.BadRequest("invalid draft", err))
		return
	}
	h.act(c, http.StatusOK, func(_ context.Context, p crud.Page) error {
		return p.EditFields(values)
	})
}

func (h *Handler) Submit(c *gin.Context) {
	h.act(c, http.StatusOK, func(ctx context.Context, p crud.Page) error {
		return p.Submit(ctx)
	})
}

func (h *Handler) RequestDelete(c *gin.Context) {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		handler.Fail(c, err)
		return
	}
	h.act(c, http.StatusOK, func(_ context.Context, p crud.Page) error {
		return p.RequestDelete(id)
	})
}

func (h *Handler) ConfirmDelete(c *gin.Context) {
	h.act(c, http.StatusOK, func(ctx context.Context, p crud.Page) error {
		return p.ConfirmDelete(ctx)
	})
}

func (h *Handler) CancelDelete(c *gin.Context) {
	h.act(c, http.StatusOK, func(_ context.Context, p crud.Page) error {
		return p.CancelDelete()
	})
}

func (h *Handler) DismissAlert(c *gin.Context) {
	h.act(c, http.StatusOK, func(_ context.Context, p crud.Page) error {
		p.DismissAlert()
		return nil
	})
}

// Search schedules a debounced search; the applied term shows up in later views.
func (h *Handler) Search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.Fail(c, errors.BadRequest("invalid search", err))
		return
	}
	h.act(c, http.StatusAccepted, func(_ context.Context, p crud.Page) error {
		return p.Search(req.Term)
	})
}

// Export downloads the full cached list as a spreadsheet.
func (h *Handler) Export(c *gin.Context) {
	p, _, ok := h.page(c)
	if !ok {
		return
	}
	columns, rows := p.Table()
	data, err := export.XLSX(p.Kind(), columns, rows)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.xlsx"`, p.Kind()))
	c.Data(http.StatusOK, export.ContentType, data)
}
