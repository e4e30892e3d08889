package imageproxy

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mohanatextiles/storefront/internal/errs"
)

func TestResolveFileID(t *testing.T) {
	cases := map[string]string{
		"https://drive.google.com/file/d/ABC123/view":                "ABC123",
		"https://drive.google.com/file/d/1a-B_c/view?usp=sharing":    "1a-B_c",
		"https://lh3.googleusercontent.com/d/XYZ_987":                "XYZ_987",
		"https://drive.google.com/open?id=Q1w2e3":                    "Q1w2e3",
		"https://drive.google.com/uc?export=download&id=Z9":          "Z9",
		"https://docs.google.com/d/DOC42/edit":                       "DOC42",
		"https://example.com/x.jpg":                                  "",
		"":                                                           "",
		"https://lh3.googleusercontent.com/d/FIRST?id=SECOND":        "FIRST",
	}
	for in, want := range cases {
		require.Equal(t, want, ResolveFileID(in), in)
	}
}

var png = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{1}, 2000)...)

type upstream struct {
	srv  *httptest.Server
	hits map[string]*int32
}

// newUpstream serves /a, /b and /c with the given handlers.
func newUpstream(t *testing.T, handlers map[string]http.HandlerFunc) *upstream {
	t.Helper()
	u := &upstream{hits: map[string]*int32{}}
	mux := http.NewServeMux()
	for path, h := range handlers {
		n := new(int32)
		u.hits[path] = n
		h := h
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(n, 1)
			h(w, r)
		})
	}
	u.srv = httptest.NewServer(mux)
	t.Cleanup(u.srv.Close)
	return u
}

func (u *upstream) templates() []string {
	return []string{u.srv.URL + "/a?id=%s", u.srv.URL + "/b?id=%s", u.srv.URL + "/c?id=%s"}
}

func image(ct string, body []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", ct)
		_, _ = w.Write(body)
	}
}

func status(code int) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(code) }
}

func TestFetch_FallsThroughCandidates(t *testing.T) {
	up := newUpstream(t, map[string]http.HandlerFunc{
		"/a": image("text/html; charset=utf-8", bytes.Repeat([]byte("x"), 5000)), // virus-scan page
		"/b": image("image/png", []byte("tiny")),                                  // placeholder
		"/c": image("image/png", png),
	})
	tpl := up.templates()
	r := NewResolver(zaptest.NewLogger(t), time.Second, WithTemplates(tpl, tpl[:2]))

	img, err := r.Fetch(context.Background(), "https://drive.google.com/file/d/ABC123/view")
	require.NoError(t, err)
	require.Equal(t, "image/png", img.ContentType)
	require.Equal(t, png, img.Data)
	for _, p := range []string{"/a", "/b", "/c"} {
		require.EqualValues(t, 1, atomic.LoadInt32(up.hits[p]), p)
	}
}

func TestFetch_ExhaustedIsNotFound(t *testing.T) {
	up := newUpstream(t, map[string]http.HandlerFunc{
		"/a": status(http.StatusForbidden),
		"/b": status(http.StatusInternalServerError),
		"/c": image("image/png", []byte("small")),
	})
	tpl := up.templates()
	r := NewResolver(zaptest.NewLogger(t), time.Second, WithTemplates(tpl, tpl[:2]))

	_, err := r.Fetch(context.Background(), "https://drive.google.com/file/d/ABC123/view")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestFetch_BodyCap(t *testing.T) {
	up := newUpstream(t, map[string]http.HandlerFunc{
		"/a": image("image/png", png),
		"/b": status(http.StatusNotFound),
		"/c": status(http.StatusNotFound),
	})
	tpl := up.templates()
	r := NewResolver(zaptest.NewLogger(t), time.Second, WithTemplates(tpl, tpl[:2]), WithMaxBytes(1500))

	_, err := r.Fetch(context.Background(), "https://drive.google.com/file/d/ABC123/view")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestFetch_DirectURL(t *testing.T) {
	up := newUpstream(t, map[string]http.HandlerFunc{
		"/pic.jpg":   image("image/jpeg", png),
		"/login.jpg": image("text/html; charset=utf-8", bytes.Repeat([]byte("x"), 6000)),
		"/tiny.jpg":  image("image/jpeg", []byte("jpeg")),
		"/gone.jpg":  status(http.StatusNotFound),
	})
	r := NewResolver(zaptest.NewLogger(t), time.Second)

	img, err := r.Fetch(context.Background(), up.srv.URL+"/pic.jpg")
	require.NoError(t, err)
	require.Equal(t, png, img.Data)
	require.Equal(t, "image/jpeg", img.ContentType)

	// same acceptance rule as the drive candidates
	for _, path := range []string{"/login.jpg", "/tiny.jpg", "/gone.jpg"} {
		_, err = r.Fetch(context.Background(), up.srv.URL+path)
		require.ErrorIs(t, err, errs.ErrNotFound, path)
	}

	_, err = r.Fetch(context.Background(), "http://127.0.0.1:1/unreachable.jpg")
	require.ErrorIs(t, err, errs.ErrNotFound)

	_, err = r.Fetch(context.Background(), "ftp://example.com/x.jpg")
	require.ErrorIs(t, err, errs.ErrValidation)

	_, err = r.Fetch(context.Background(), "")
	require.ErrorIs(t, err, errs.ErrValidation)
}

func TestFetchByID(t *testing.T) {
	up := newUpstream(t, map[string]http.HandlerFunc{
		"/a": status(http.StatusNotFound),
		"/b": image("image/jpeg", png),
		"/c": image("image/jpeg", png),
	})
	tpl := up.templates()
	r := NewResolver(zaptest.NewLogger(t), time.Second, WithTemplates(tpl, tpl[:2]))

	_, err := r.FetchByID(context.Background(), "short")
	require.ErrorIs(t, err, errs.ErrValidation)

	img, err := r.FetchByID(context.Background(), "1ms1u6tuw22Bsl1S")
	require.NoError(t, err)
	require.Equal(t, "image/jpeg", img.ContentType)
	require.EqualValues(t, 0, atomic.LoadInt32(up.hits["/c"]))
}
