// Package imageproxy fetches product images hosted on Google Drive (or any
// plain image URL) so browsers can load them from our origin.
package imageproxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mohanatextiles/storefront/internal/errs"
)

// Acceptance and sizing defaults.
const (
	MinImageBytes   = 1000
	MinFileIDLen    = 10
	DefaultTimeout  = 15 * time.Second
	DefaultMaxBytes = 10 << 20
	fallbackType    = "image/jpeg"
)

var fileIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`googleusercontent\.com/d/([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`/file/d/([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`[?&]id=([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`/d/([a-zA-Z0-9_-]+)`),
}

// ResolveFileID extracts a Drive file id from a share, download or
// googleusercontent URL. It returns "" when none of the known forms match.
func ResolveFileID(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	for _, re := range fileIDPatterns {
		if m := re.FindStringSubmatch(rawURL); m != nil {
			return m[1]
		}
	}
	return ""
}

// Candidate URL templates, tried in order. Each takes the file id.
var (
	ProxyTemplates = []string{
		"https://drive.google.com/uc?export=download&id=%s",
		"https://drive.google.com/thumbnail?id=%s&sz=w800",
		"https://lh3.googleusercontent.com/d/%s",
	}
	DriveTemplates = ProxyTemplates[:2]
)

// Image is a fetched image body.
type Image struct {
	Data        []byte
	ContentType string
}

// Resolver downloads images with a bounded client. It keeps no state between calls.
type Resolver struct {
	client         *http.Client
	log            *zap.Logger
	maxBytes       int64
	proxyTemplates []string
	driveTemplates []string
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithHTTPClient replaces the outbound client.
func WithHTTPClient(c *http.Client) Option { return func(r *Resolver) { r.client = c } }

// WithMaxBytes caps how much of a response body is read.
func WithMaxBytes(n int64) Option { return func(r *Resolver) { r.maxBytes = n } }

// WithTemplates overrides the candidate URL lists.
func WithTemplates(proxy, drive []string) Option {
	return func(r *Resolver) { r.proxyTemplates, r.driveTemplates = proxy, drive }
}

// NewResolver constructs a Resolver. A non-positive timeout means DefaultTimeout.
func NewResolver(log *zap.Logger, timeout time.Duration, opts ...Option) *Resolver {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	r := &Resolver{
		client:         &http.Client{Timeout: timeout},
		log:            log,
		maxBytes:       DefaultMaxBytes,
		proxyTemplates: ProxyTemplates,
		driveTemplates: DriveTemplates,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Fetch resolves rawURL to image bytes. Drive links are tried against every
// candidate form; other URLs are fetched once as given. Both go through the
// same acceptance rule and a rejection is errs.ErrNotFound. A URL that is not
// absolute http(s) is errs.ErrValidation.
func (r *Resolver) Fetch(ctx context.Context, rawURL string) (*Image, error) {
	if strings.TrimSpace(rawURL) == "" {
		return nil, fmt.Errorf("%w: url parameter required", errs.ErrValidation)
	}
	if id := ResolveFileID(rawURL); id != "" {
		return r.tryCandidates(ctx, id, r.proxyTemplates)
	}

	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: invalid url", errs.ErrValidation)
	}
	img, status, err := r.get(ctx, rawURL)
	if err != nil && errors.Is(ctx.Err(), context.Canceled) {
		return nil, ctx.Err()
	}
	if err != nil || !acceptable(status, img) {
		r.log.Debug("direct image fetch rejected", zap.String("host", u.Host), zap.Int("status", status), zap.Error(err))
		return nil, fmt.Errorf("image: %w", errs.ErrNotFound)
	}
	return img, nil
}

// FetchByID fetches a Drive file by id. Ids shorter than MinFileIDLen are
// errs.ErrValidation.
func (r *Resolver) FetchByID(ctx context.Context, fileID string) (*Image, error) {
	if len(fileID) < MinFileIDLen {
		return nil, fmt.Errorf("%w: invalid file id", errs.ErrValidation)
	}
	return r.tryCandidates(ctx, fileID, r.driveTemplates)
}

func (r *Resolver) tryCandidates(ctx context.Context, id string, templates []string) (*Image, error) {
	for _, tpl := range templates {
		target := fmt.Sprintf(tpl, url.QueryEscape(id))
		img, status, err := r.get(ctx, target)
		if err != nil {
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil, ctx.Err()
			}
			r.log.Debug("drive candidate failed", zap.String("url", target), zap.Error(err))
			continue
		}
		if acceptable(status, img) {
			return img, nil
		}
		r.log.Debug("drive candidate rejected", zap.String("url", target),
			zap.Int("status", status), zap.Int("bytes", len(img.Data)), zap.String("content_type", img.ContentType))
	}
	return nil, fmt.Errorf("image %s: %w", id, errs.ErrNotFound)
}

func acceptable(status int, img *Image) bool {
	return status == http.StatusOK &&
		len(img.Data) > MinImageBytes &&
		!strings.Contains(img.ContentType, "text/html")
}

func (r *Resolver) get(ctx context.Context, target string) (*Image, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, 0, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, r.maxBytes+1))
	if err != nil {
		return nil, resp.StatusCode, err
	}
	if int64(len(body)) > r.maxBytes {
		return nil, resp.StatusCode, fmt.Errorf("image exceeds %d bytes", r.maxBytes)
	}
	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = fallbackType
	}
	return &Image{Data: body, ContentType: ct}, resp.StatusCode, nil
}
