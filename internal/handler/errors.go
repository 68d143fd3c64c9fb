// Package handler holds what the page handlers share.
package handler

import (
	stderrors "errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/birthcare-portal/internal/calendar"
	"github.com/jwalitptl/birthcare-portal/internal/crud"
	"github.com/jwalitptl/birthcare-portal/internal/page"
	"github.com/jwalitptl/birthcare-portal/pkg/errors"
	"github.com/jwalitptl/birthcare-portal/pkg/httputil"
)

// ToAppError maps page and controller errors onto HTTP-facing errors.
func ToAppError(err error) *errors.AppError {
	if appErr, ok := errors.As(err); ok {
		return appErr
	}
	switch {
	case stderrors.Is(err, page.ErrNotFound),
		stderrors.Is(err, crud.ErrClosed),
		stderrors.Is(err, calendar.ErrClosed):
		return errors.NotFound("page", err)
	case stderrors.Is(err, crud.ErrNotFound):
		return errors.NotFound("record", err)
	case stderrors.Is(err, crud.ErrBusy):
		return errors.Conflict("a request is already in progress", err)
	case stderrors.Is(err, crud.ErrInvalidTransition):
		return errors.Conflict("action not available right now", err)
	case stderrors.Is(err, calendar.ErrInvalidMonth):
		return errors.BadRequest("invalid month", err)
	default:
		return errors.Internal(err)
	}
}

// Fail writes err as an error response.
func Fail(c *gin.Context, err error) {
	httputil.RespondWithError(c, ToAppError(err))
}

// ParamID reads a positive integer path parameter.
func ParamID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.BadRequest("invalid "+name, err)
	}
	return id, nil
}
