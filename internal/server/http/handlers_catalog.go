package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/mohanatextiles/storefront/internal/errs"
	"github.com/mohanatextiles/storefront/internal/model"
)

const (
	productNotFound  = "Product not found"
	categoryNotFound = "Category not found"
	slugTaken        = "Category with this slug already exists"
)

type success struct {
	Success bool `json:"success"`
}

func (s *Server) listProducts(c echo.Context) error {
	ps, err := s.deps.Products.ListEnabled(c.Request().Context(), c.QueryParam("category"))
	if err != nil {
		return s.respond(c, err, productNotFound)
	}
	return c.JSON(http.StatusOK, ps)
}

func (s *Server) listAllProducts(c echo.Context) error {
	ps, err := s.deps.Products.ListAll(c.Request().Context())
	if err != nil {
		return s.respond(c, err, productNotFound)
	}
	return c.JSON(http.StatusOK, ps)
}

func (s *Server) productStats(c echo.Context) error {
	st, err := s.deps.Products.Stats(c.Request().Context())
	if err != nil {
		return s.respond(c, err, productNotFound)
	}
	return c.JSON(http.StatusOK, st)
}

func (s *Server) getProduct(c echo.Context) error {
	p, err := s.deps.Products.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return s.respond(c, err, productNotFound)
	}
	return c.JSON(http.StatusOK, p)
}

func (s *Server) createProduct(c echo.Context) error {
	var in model.ProductInput
	if err := c.Bind(&in); err != nil {
		return fail(c, http.StatusUnprocessableEntity, "Invalid request body")
	}
	p, err := s.deps.Products.Create(c.Request().Context(), in, c.QueryParam("image_data"))
	if err != nil {
		return s.respond(c, err, productNotFound)
	}
	return c.JSON(http.StatusCreated, p)
}

func (s *Server) updateProduct(c echo.Context) error {
	var patch model.ProductPatch
	if err := c.Bind(&patch); err != nil {
		return fail(c, http.StatusUnprocessableEntity, "Invalid request body")
	}
	p, err := s.deps.Products.Update(c.Request().Context(), c.Param("id"), patch)
	if err != nil {
		return s.respond(c, err, productNotFound)
	}
	return c.JSON(http.StatusOK, p)
}

func (s *Server) toggleProduct(c echo.Context) error {
	enabled, err := strconv.ParseBool(c.QueryParam("enabled"))
	if err != nil {
		return fail(c, http.StatusUnprocessableEntity, "query parameter 'enabled' must be a boolean")
	}
	ok, err := s.deps.Products.ToggleEnabled(c.Request().Context(), c.Param("id"), enabled)
	if err != nil {
		return s.respond(c, err, productNotFound)
	}
	if !ok {
		return fail(c, http.StatusNotFound, productNotFound)
	}
	return c.JSON(http.StatusOK, success{Success: true})
}

func (s *Server) deleteProduct(c echo.Context) error {
	ok, err := s.deps.Products.Delete(c.Request().Context(), c.Param("id"))
	if err != nil {
		return s.respond(c, err, productNotFound)
	}
	if !ok {
		return fail(c, http.StatusNotFound, productNotFound)
	}
	return c.JSON(http.StatusOK, success{Success: true})
}

func (s *Server) listCategories(c echo.Context) error {
	cs, err := s.deps.Categories.ListEnabled(c.Request().Context())
	if err != nil {
		return s.respond(c, err, categoryNotFound)
	}
	return c.JSON(http.StatusOK, cs)
}

func (s *Server) listAllCategories(c echo.Context) error {
	cs, err := s.deps.Categories.ListAll(c.Request().Context())
	if err != nil {
		return s.respond(c, err, categoryNotFound)
	}
	return c.JSON(http.StatusOK, cs)
}

// categoryError reports a taken slug as 400, as storefront clients expect.
func (s *Server) categoryError(c echo.Context, err error) error {
	if errors.Is(err, errs.ErrConflict) {
		return fail(c, http.StatusBadRequest, slugTaken)
	}
	return s.respond(c, err, categoryNotFound)
}

func (s *Server) createCategory(c echo.Context) error {
	var in model.CategoryInput
	if err := c.Bind(&in); err != nil {
		return fail(c, http.StatusUnprocessableEntity, "Invalid request body")
	}
	cat, err := s.deps.Categories.Create(c.Request().Context(), in)
	if err != nil {
		return s.categoryError(c, err)
	}
	return c.JSON(http.StatusCreated, cat)
}

func (s *Server) updateCategory(c echo.Context) error {
	var patch model.CategoryPatch
	if err := c.Bind(&patch); err != nil {
		return fail(c, http.StatusUnprocessableEntity, "Invalid request body")
	}
	cat, err := s.deps.Categories.Update(c.Request().Context(), c.Param("id"), patch)
	if err != nil {
		return s.categoryError(c, err)
	}
	return c.JSON(http.StatusOK, cat)
}

func (s *Server) deleteCategory(c echo.Context) error {
	ok, err := s.deps.Categories.Delete(c.Request().Context(), c.Param("id"))
	if err != nil {
		return s.respond(c, err, categoryNotFound)
	}
	if !ok {
		return fail(c, http.StatusNotFound, categoryNotFound)
	}
	return c.JSON(http.StatusOK, success{Success: true})
}

func (s *Server) seedCategories(c echo.Context) error {
	cs, _, err := s.deps.Categories.SeedDefaults(c.Request().Context())
	if err != nil {
		return s.respond(c, err, categoryNotFound)
	}
	return c.JSON(http.StatusOK, cs)
}

func (s *Server) getSettings(c echo.Context) error {
	st, err := s.deps.Settings.Get(c.Request().Context())
	if err != nil {
		return s.respond(c, err, "Settings not found")
	}
	return c.JSON(http.StatusOK, st)
}

func (s *Server) updateSettings(c echo.Context) error {
	var patch model.SettingsPatch
	if err := c.Bind(&patch); err != nil {
		return fail(c, http.StatusUnprocessableEntity, "Invalid request body")
	}
	st, err := s.deps.Settings.Update(c.Request().Context(), patch)
	if err != nil {
		return s.respond(c, err, "Settings not found")
	}
	return c.JSON(http.StatusOK, st)
}
