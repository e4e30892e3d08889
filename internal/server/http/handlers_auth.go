package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mohanatextiles/storefront/internal/errs"
)

func (s *Server) root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok", "message": "Mohana Textiles API"})
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusUnprocessableEntity, "Invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return fail(c, http.StatusUnprocessableEntity, "email and password are required")
	}
	res, err := s.deps.Auth.Login(c.Request().Context(), req.Email, req.Password, c.RealIP())
	if errors.Is(err, errs.ErrUnauthorized) {
		return unauthorized(c, "Invalid email or password")
	}
	if err != nil {
		return s.respond(c, err, "Not found")
	}
	return c.JSON(http.StatusOK, res)
}

// logout never fails: an absent or stale token is already logged out.
func (s *Server) logout(c echo.Context) error {
	s.deps.Auth.Logout(bearerToken(c))
	return c.JSON(http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

func (s *Server) me(c echo.Context) error {
	sess, _ := sessionFrom(c)
	a, err := s.deps.Auth.Me(c.Request().Context(), sess.AdminID)
	if errors.Is(err, errs.ErrUnauthorized) {
		return unauthorized(c, "Admin not found")
	}
	if err != nil {
		return s.respond(c, err, "Admin not found")
	}
	return c.JSON(http.StatusOK, a)
}

func (s *Server) authConfig(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"driveFolderUrl": s.opts.DriveFolderURL})
}
