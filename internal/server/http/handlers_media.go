package httpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/mohanatextiles/storefront/internal/describe"
	"github.com/mohanatextiles/storefront/internal/errs"
	"github.com/mohanatextiles/storefront/internal/imageproxy"
	"github.com/mohanatextiles/storefront/internal/model"
)

func (s *Server) writeImage(c echo.Context, img *imageproxy.Image) error {
	h := c.Response().Header()
	h.Set("Cache-Control", "public, max-age=86400")
	h.Set(echo.HeaderAccessControlAllowOrigin, "*")
	return c.Blob(http.StatusOK, img.ContentType, img.Data)
}

func (s *Server) proxyImage(c echo.Context) error {
	raw := c.QueryParam("url")
	if raw == "" {
		return fail(c, http.StatusBadRequest, "URL parameter required")
	}
	img, err := s.deps.Images.Fetch(c.Request().Context(), raw)
	switch {
	case err == nil:
		return s.writeImage(c, img)
	case errors.Is(err, errs.ErrNotFound):
		return fail(c, http.StatusNotFound, "Image not found or not accessible")
	case errors.Is(err, errs.ErrValidation):
		return fail(c, http.StatusBadRequest, "Invalid URL")
	default:
		return s.respond(c, err, "Image not found")
	}
}

func (s *Server) driveImage(c echo.Context) error {
	img, err := s.deps.Images.FetchByID(c.Request().Context(), c.Param("fileId"))
	switch {
	case err == nil:
		return s.writeImage(c, img)
	case errors.Is(err, errs.ErrValidation):
		return fail(c, http.StatusBadRequest, "Invalid file ID")
	case errors.Is(err, errs.ErrNotFound):
		return fail(c, http.StatusNotFound, "Image not found")
	default:
		return s.respond(c, err, "Image not found")
	}
}

// upload is an image read from a multipart form.
type upload struct {
	data []byte
	mime string
}

// readUpload reads the "image" file part, capped at MaxImageBytes.
func (s *Server) readUpload(c echo.Context) (*upload, error) {
	fh, err := c.FormFile("image")
	if err != nil {
		return nil, fmt.Errorf("%w: image file is required", errs.ErrValidation)
	}
	data, err := readCapped(fh, s.opts.MaxImageBytes)
	if err != nil {
		return nil, err
	}
	mime := fh.Header.Get(echo.HeaderContentType)
	if mime == "" || mime == echo.MIMEOctetStream {
		mime = http.DetectContentType(data)
	}
	if !strings.HasPrefix(mime, "image/") {
		return nil, fmt.Errorf("%w: file must be an image", errs.ErrValidation)
	}
	return &upload{data: data, mime: mime}, nil
}

func readCapped(fh *multipart.FileHeader, max int64) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, max+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > max {
		return nil, fmt.Errorf("%w: image exceeds %d bytes", errs.ErrValidation, max)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: image is empty", errs.ErrValidation)
	}
	return data, nil
}

// dataURL encodes an upload the way product images are stored.
func dataURL(u *upload) string {
	sub := u.mime[strings.LastIndex(u.mime, "/")+1:]
	if i := strings.IndexByte(sub, ';'); i >= 0 {
		sub = sub[:i]
	}
	return "data:image/" + sub + ";base64," + base64.StdEncoding.EncodeToString(u.data)
}

// decodeDataURL returns the bytes and mime type of a base64 data URL.
func decodeDataURL(s string) ([]byte, string, bool) {
	head, payload, ok := strings.Cut(s, "base64,")
	if !ok || !strings.HasPrefix(head, "data:") {
		return nil, "", false
	}
	mime := strings.TrimSuffix(strings.TrimPrefix(head, "data:"), ";")
	b, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", false
	}
	return b, mime, true
}

type generateResponse struct {
	Success     bool   `json:"success"`
	Description string `json:"description"`
	Error       string `json:"error,omitempty"`
}

// generateDescription answers 200 even when generation fails, carrying the
// fallback text so the admin form can still be filled.
func (s *Server) generateDescription(c echo.Context) error {
	name, category := c.FormValue("product_name"), c.FormValue("category")
	if name == "" || category == "" {
		return fail(c, http.StatusUnprocessableEntity, "product_name and category are required")
	}
	up, err := s.readUpload(c)
	if err != nil {
		return s.respond(c, err, "Image not found")
	}
	text, err := s.deps.Describer.Generate(c.Request().Context(), up.data, up.mime, name, category)
	if err != nil {
		return c.JSON(http.StatusOK, generateResponse{
			Error:       upstreamMessage(err),
			Description: describe.Fallback(category, name),
		})
	}
	return c.JSON(http.StatusOK, generateResponse{Success: true, Description: text})
}

func upstreamMessage(err error) string {
	var de *describe.Error
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}

type createWithAIResponse struct {
	Success     bool           `json:"success"`
	Product     *model.Product `json:"product"`
	AIGenerated bool           `json:"ai_generated"`
}

func formBool(c echo.Context, key string, def bool) (bool, error) {
	v := c.FormValue(key)
	if v == "" {
		return def, nil
	}
	return strconv.ParseBool(v)
}

func formFloat(c echo.Context, key string, def float64) (float64, error) {
	v := c.FormValue(key)
	if v == "" {
		return def, nil
	}
	return strconv.ParseFloat(v, 64)
}

// formJSON decodes a JSON-encoded form field into dst; absent leaves dst nil.
func formJSON(c echo.Context, key string, dst any) error {
	v := c.FormValue(key)
	if v == "" {
		return nil
	}
	return json.Unmarshal([]byte(v), dst)
}

func (s *Server) productForm(c echo.Context) (model.ProductInput, bool, error) {
	in := model.ProductInput{
		Name:        c.FormValue("name"),
		Category:    c.FormValue("category"),
		Description: c.FormValue("custom_description"),
	}
	invalid := func(field string) error {
		return fmt.Errorf("%w: invalid %s", errs.ErrValidation, field)
	}
	var err error
	if c.FormValue("price") == "" {
		return in, false, fmt.Errorf("%w: price is required", errs.ErrValidation)
	}
	if in.Price, err = formFloat(c, "price", 0); err != nil {
		return in, false, invalid("price")
	}
	if in.Discount, err = formFloat(c, "discount", 0); err != nil {
		return in, false, invalid("discount")
	}
	if err := formJSON(c, "sizes", &in.Sizes); err != nil {
		return in, false, invalid("sizes")
	}
	if err := formJSON(c, "colors", &in.Colors); err != nil {
		return in, false, invalid("colors")
	}
	generate, err := formBool(c, "generate_description", true)
	if err != nil {
		return in, false, invalid("generate_description")
	}
	return in, generate, nil
}

func (s *Server) createWithAI(c echo.Context) error {
	in, generate, err := s.productForm(c)
	if err != nil {
		return s.respond(c, err, productNotFound)
	}
	up, err := s.readUpload(c)
	if err != nil {
		return s.respond(c, err, "Image not found")
	}

	ctx := c.Request().Context()
	aiGenerated := false
	if generate {
		text, gerr := s.deps.Describer.Generate(ctx, up.data, up.mime, in.Name, in.Category)
		switch {
		case gerr == nil:
			in.Description = text
			aiGenerated = true
		case in.Description == "":
			s.log.Warn("description generation failed, using fallback", zap.Error(gerr))
			in.Description = describe.Fallback(in.Category, in.Name)
		default:
			s.log.Warn("description generation failed, keeping custom text", zap.Error(gerr))
		}
	}

	p, err := s.deps.Products.Create(ctx, in, dataURL(up))
	if err != nil {
		return s.respond(c, err, productNotFound)
	}
	return c.JSON(http.StatusOK, createWithAIResponse{Success: true, Product: p, AIGenerated: aiGenerated})
}

// storedImage loads the bytes behind a product's image reference.
func (s *Server) storedImage(ctx context.Context, ref string) ([]byte, string, error) {
	if b, mime, ok := decodeDataURL(ref); ok {
		return b, mime, nil
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		img, err := s.deps.Images.Fetch(ctx, ref)
		if err != nil {
			return nil, "", err
		}
		return img.Data, img.ContentType, nil
	}
	return nil, "", fmt.Errorf("%w: No image data found", errs.ErrValidation)
}

func (s *Server) regenerateDescription(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")
	p, err := s.deps.Products.Get(ctx, id)
	if err != nil {
		return s.respond(c, err, productNotFound)
	}
	img, mime, err := s.storedImage(ctx, p.ImageData)
	if errors.Is(err, errs.ErrValidation) {
		return fail(c, http.StatusBadRequest, "No image data found")
	}
	if err != nil {
		return fail(c, http.StatusBadGateway, "Stored image is not accessible")
	}
	text, err := s.deps.Describer.Generate(ctx, img, mime, p.Name, p.Category)
	if err != nil {
		return s.respond(c, err, productNotFound)
	}
	if _, err := s.deps.Products.Update(ctx, id, model.ProductPatch{Description: &text}); err != nil {
		return s.respond(c, err, productNotFound)
	}
	return c.JSON(http.StatusOK, generateResponse{Success: true, Description: text})
}
