package proxy

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staffphoto/service/internal/config"
)

func newUpstream(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/photos/a.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write([]byte("pngbytes"))
		case "/photos/raw":
			w.Header()["Content-Type"] = nil
			_, _ = w.Write([]byte("rawbytes"))
		case "/photos/big.jpg":
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = w.Write([]byte(strings.Repeat("x", 64)))
		case "/photos/张 三.jpg":
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = w.Write([]byte("encoded"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestHandler(t *testing.T, upstream *httptest.Server, maxBytes int64) *Handler {
	t.Helper()

	u, err := url.Parse(upstream.URL)
	require.NoError(t, err)

	return NewHandler(NewFetcher(config.ProxyConfig{
		Timeout:      5 * time.Second,
		MaxBytes:     maxBytes,
		AllowedHosts: []string{u.Host},
	}, nil))
}

func proxyRequest(target string) *http.Request {
	return httptest.NewRequest(http.MethodGet, "/api/image-proxy?url="+url.QueryEscape(target), nil)
}

func TestImageProxy_RelaysBytes(t *testing.T) {
	t.Parallel()

	upstream := newUpstream(t)
	h := newTestHandler(t, upstream, 1<<20)

	rec := httptest.NewRecorder()
	h.ImageProxy(rec, proxyRequest(upstream.URL+"/photos/a.png"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pngbytes", rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, CacheControl, rec.Header().Get("Cache-Control"))
}

func TestImageProxy_DefaultContentType(t *testing.T) {
	t.Parallel()

	upstream := newUpstream(t)
	h := newTestHandler(t, upstream, 1<<20)

	rec := httptest.NewRecorder()
	h.ImageProxy(rec, proxyRequest(upstream.URL+"/photos/raw"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, DefaultContentType, rec.Header().Get("Content-Type"))
}

func TestImageProxy_PercentEncodedKey(t *testing.T) {
	t.Parallel()

	upstream := newUpstream(t)
	h := newTestHandler(t, upstream, 1<<20)

	// Same shape the storage URL builder produces for keys with spaces and non-ASCII text.
	rec := httptest.NewRecorder()
	h.ImageProxy(rec, proxyRequest(upstream.URL+"/photos/%E5%BC%A0%20%E4%B8%89.jpg"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "encoded", rec.Body.String())
}

func TestImageProxy_DoubleEncodedURL(t *testing.T) {
	t.Parallel()

	upstream := newUpstream(t)
	h := newTestHandler(t, upstream, 1<<20)

	rec := httptest.NewRecorder()
	h.ImageProxy(rec, proxyRequest(url.QueryEscape(upstream.URL+"/photos/a.png")))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pngbytes", rec.Body.String())
}

func TestImageProxy_Errors(t *testing.T) {
	t.Parallel()

	upstream := newUpstream(t)
	h := newTestHandler(t, upstream, 16)

	tests := []struct {
		name   string
		req    *http.Request
		status int
	}{
		{name: "missing url", req: httptest.NewRequest(http.MethodGet, "/api/image-proxy", nil), status: http.StatusBadRequest},
		{name: "relative url", req: proxyRequest("/photos/a.png"), status: http.StatusBadRequest},
		{name: "unsupported scheme", req: proxyRequest("ftp://" + strings.TrimPrefix(upstream.URL, "http://") + "/a.png"), status: http.StatusBadRequest},
		{name: "host not allowed", req: proxyRequest("http://example.invalid/a.png"), status: http.StatusBadRequest},
		{name: "upstream status propagated", req: proxyRequest(upstream.URL + "/photos/missing.jpg"), status: http.StatusNotFound},
		{name: "body too large", req: proxyRequest(upstream.URL + "/photos/big.jpg"), status: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ImageProxy(rec, tt.req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), `"success":false`)
			assert.Empty(t, rec.Header().Get("Cache-Control"))
		})
	}
}

func TestImageProxy_RedirectToDisallowedHost(t *testing.T) {
	t.Parallel()

	other := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("private"))
	}))
	t.Cleanup(other.Close)

	storageSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/photos/away.jpg":
			http.Redirect(w, r, other.URL+"/secret", http.StatusFound)
		case "/photos/moved.jpg":
			http.Redirect(w, r, "/photos/a.jpg", http.StatusFound)
		case "/photos/a.jpg":
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = w.Write([]byte("jpgbytes"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(storageSrv.Close)

	h := newTestHandler(t, storageSrv, 1<<10)

	rec := httptest.NewRecorder()
	h.ImageProxy(rec, proxyRequest(storageSrv.URL+"/photos/away.jpg"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotContains(t, rec.Body.String(), "private")

	rec = httptest.NewRecorder()
	h.ImageProxy(rec, proxyRequest(storageSrv.URL+"/photos/moved.jpg"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "jpgbytes", rec.Body.String())
}

func TestFetcher_EmptyAllowListPermitsAnyHost(t *testing.T) {
	t.Parallel()

	f := NewFetcher(config.ProxyConfig{MaxBytes: 1}, nil)
	u, err := f.Resolve("https://cdn.example.com/photos/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "cdn.example.com", u.Host)
}

func TestFetcher_AllowListMatchesHostname(t *testing.T) {
	t.Parallel()

	f := NewFetcher(config.ProxyConfig{MaxBytes: 1, AllowedHosts: []string{"CDN.example.com"}}, nil)

	_, err := f.Resolve("https://cdn.example.com:8443/a.jpg")
	assert.NoError(t, err)
	_, err = f.Resolve("https://other.example.com/a.jpg")
	assert.ErrorIs(t, err, ErrHostNotAllowed)
}

func TestFetcher_UnreachableUpstream(t *testing.T) {
	t.Parallel()

	f := NewFetcher(config.ProxyConfig{MaxBytes: 1 << 10, Timeout: time.Second}, nil)
	_, err := f.Fetch(context.Background(), "http://127.0.0.1:1/a.jpg")
	require.Error(t, err)

	var upstream *UpstreamError
	assert.NotErrorAs(t, err, &upstream)
}
