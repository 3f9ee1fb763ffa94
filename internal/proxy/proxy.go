// Package proxy relays images from object storage so clients never see the storage domain.
package proxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/staffphoto/service/internal/config"
)

// DefaultContentType is used when the upstream response has no Content-Type.
const DefaultContentType = "image/jpeg"

// CacheControl instructs clients to cache relayed images for a year.
const CacheControl = "public, max-age=31536000, immutable"

var (
	ErrMissingURL     = errors.New("missing url parameter")
	ErrInvalidURL     = errors.New("invalid url")
	ErrHostNotAllowed = errors.New("host not allowed")
	ErrTooLarge       = errors.New("upstream body too large")
)

// UpstreamError carries a non-2xx status returned by the storage host.
type UpstreamError struct {
	StatusCode int
	Status     string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("failed to fetch image: %s", e.Status)
}

// Image is a relayed object.
type Image struct {
	Body        []byte
	ContentType string
}

// Fetcher downloads images for the proxy route. It holds no state beyond its
// configuration and never caches responses.
type Fetcher struct {
	client       *http.Client
	maxBytes     int64
	allowedHosts map[string]struct{}
}

// maxRedirects matches the net/http default.
const maxRedirects = 10

// NewFetcher creates a Fetcher from cfg. An empty allow-list permits any host.
// Redirects are followed only to allowed hosts.
func NewFetcher(cfg config.ProxyConfig, client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	allowed := make(map[string]struct{}, len(cfg.AllowedHosts))
	for _, h := range cfg.AllowedHosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			allowed[h] = struct{}{}
		}
	}

	f := &Fetcher{maxBytes: cfg.MaxBytes, allowedHosts: allowed}
	c := *client
	c.CheckRedirect = f.checkRedirect
	f.client = &c
	return f
}

func (f *Fetcher) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return fmt.Errorf("stopped after %d redirects", maxRedirects)
	}
	if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
		return fmt.Errorf("%w: redirect to scheme %q", ErrInvalidURL, req.URL.Scheme)
	}
	if !f.hostAllowed(req.URL) {
		return fmt.Errorf("%w: %s", ErrHostNotAllowed, req.URL.Host)
	}
	return nil
}

// Resolve validates raw (the already query-decoded url parameter) and returns
// the target URL. A value that still looks percent-encoded is decoded once more.
func (f *Fetcher) Resolve(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrMissingURL
	}
	if lower := strings.ToLower(raw); strings.HasPrefix(lower, "http%3a") || strings.HasPrefix(lower, "https%3a") {
		decoded, err := url.PathUnescape(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
		}
		raw = decoded
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q is not an absolute http(s) url", ErrInvalidURL, raw)
	}
	if !f.hostAllowed(u) {
		return nil, fmt.Errorf("%w: %s", ErrHostNotAllowed, u.Host)
	}
	return u, nil
}

func (f *Fetcher) hostAllowed(u *url.URL) bool {
	if len(f.allowedHosts) == 0 {
		return true
	}
	if _, ok := f.allowedHosts[strings.ToLower(u.Host)]; ok {
		return true
	}
	_, ok := f.allowedHosts[strings.ToLower(u.Hostname())]
	return ok
}

// Fetch resolves raw and downloads the target, returning its bytes and content type.
func (f *Fetcher) Fetch(ctx context.Context, raw string) (*Image, error) {
	target, err := f.Resolve(raw)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", target.Redacted(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", target.Redacted(), err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, ErrTooLarge
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = DefaultContentType
	}
	return &Image{Body: body, ContentType: contentType}, nil
}
