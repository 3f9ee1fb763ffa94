// Package storage mediates between the service and the object storage provider.
// Two providers are available: MinIO (any S3-compatible endpoint, via minio-go)
// and S3 (via aws-sdk-go-v2). Both hand out key-scoped upload tokens, delete
// objects, and build proxy-routed public URLs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

// ErrKeyRequired is returned when an upload token is requested without a key.
var ErrKeyRequired = errors.New("object key is required")

// Gateway is the interface for the object storage provider.
type Gateway interface {
	// IssueUploadToken returns a credential that lets a client upload exactly one object under key.
	IssueUploadToken(ctx context.Context, key string) (*UploadToken, error)
	// PublicURL returns the proxy-routed URL for key. It never exposes the storage domain directly.
	PublicURL(key string) string
	// Delete removes the object identified by key.
	Delete(ctx context.Context, key string) error
	// Upload streams data to the store under key.
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
}

// UploadToken describes how a client transfers one object directly to storage.
// For POST tokens the client sends a multipart form with Fields followed by the
// file part; for PUT tokens it sends the raw bytes with Headers.
type UploadToken struct {
	Key       string            `json:"key"`
	Token     string            `json:"token"`
	Method    string            `json:"method"`
	URL       string            `json:"uploadUrl"`
	Fields    map[string]string `json:"fields,omitempty"`
	Headers   map[string]string `json:"headers,omitempty"`
	ExpiresAt time.Time         `json:"expiresAt"`
}

// keyTimeLayout renders the upload time with second precision (YYYYMMDD-HHmmss).
const keyTimeLayout = "20060102-150405"

// GenerateKey builds the object key for an employee upload:
// {employeeId}_{YYYYMMDD-HHmmss}.{ext}, with the timestamp in UTC.
func GenerateKey(employeeID, filename string, now time.Time) string {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(filename)), ".")
	if ext == "" {
		ext = "jpg"
	}
	return fmt.Sprintf("%s_%s.%s", employeeID, now.UTC().Format(keyTimeLayout), ext)
}

// URLBuilder turns object keys into URLs. It is a pure value type.
type URLBuilder struct {
	Domain    string // e.g. "http://localhost:9000/photos", no trailing slash
	ProxyPath string // e.g. "/api/image-proxy"
}

// ObjectURL returns the direct storage URL for key.
func (b URLBuilder) ObjectURL(key string) string {
	return strings.TrimRight(b.Domain, "/") + "/" + EncodeURIComponent(key)
}

// PublicURL wraps ObjectURL in a call to the image proxy.
func (b URLBuilder) PublicURL(key string) string {
	return b.ProxyPath + "?url=" + EncodeURIComponent(b.ObjectURL(key))
}

// EncodeURIComponent percent-encodes s, leaving only A-Z a-z 0-9 - _ . ! ~ * ' ( ) unescaped.
func EncodeURIComponent(s string) string {
	const hex = "0123456789ABCDEF"
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			sb.WriteByte(c)
			continue
		}
		sb.WriteByte('%')
		sb.WriteByte(hex[c>>4])
		sb.WriteByte(hex[c&0x0f])
	}
	return sb.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
