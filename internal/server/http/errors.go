package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/mohanatextiles/storefront/internal/describe"
	"github.com/mohanatextiles/storefront/internal/errs"
)

type detail struct {
	Detail string `json:"detail"`
}

func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, detail{Detail: msg})
}

// validationMessage strips the sentinel prefix from a wrapped ErrValidation.
func validationMessage(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, errs.ErrValidation.Error()+": "); i >= 0 {
		return msg[i+len(errs.ErrValidation.Error())+2:]
	}
	return msg
}

// respond maps a service error to a status. notFound is the detail used for
// errs.ErrNotFound.
func (s *Server) respond(c echo.Context, err error, notFound string) error {
	var de *describe.Error
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return fail(c, http.StatusNotFound, notFound)
	case errors.Is(err, errs.ErrValidation):
		return fail(c, http.StatusUnprocessableEntity, validationMessage(err))
	case errors.Is(err, errs.ErrConflict):
		return fail(c, http.StatusConflict, "Already exists")
	case errors.Is(err, errs.ErrUnauthorized):
		return unauthorized(c, "Not authenticated")
	case errors.Is(err, errs.ErrRateLimited):
		return fail(c, http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	case errors.As(err, &de):
		return fail(c, http.StatusBadGateway, de.Message)
	case errors.Is(err, errs.ErrUpstreamUnavailable):
		return fail(c, http.StatusBadGateway, "Upstream service unavailable")
	default:
		s.log.Error("request failed",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Request().URL.Path),
			zap.Error(err),
		)
		return fail(c, http.StatusInternalServerError, "Internal server error")
	}
}

// handleError renders errors returned to echo, including router 404/405 and
// bind failures, in the {"detail": ...} shape.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok && m != "" {
			msg = m
		}
		_ = fail(c, he.Code, msg)
		return
	}
	_ = s.respond(c, err, "Not found")
}
