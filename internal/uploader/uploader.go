// Package uploader is an HTTP client that drives the photo upload sequence:
// validate, request a token, transfer directly to storage, resolve the public
// URL and save the metadata.
package uploader

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// State is a step of the upload sequence.
type State string

const (
	StateIdle           State = "idle"
	StateValidating     State = "validating"
	StateTokenRequested State = "token-requested"
	StateTransferring   State = "transferring"
	StateMetadataSaving State = "metadata-saving"
	StateSuccess        State = "success"
	StateError          State = "error"
)

// MaxFileBytes is the client-side size limit (10MB).
const MaxFileBytes = 10 << 20

// ResetDelay is how long a successful upload stays visible before the client returns to idle.
const ResetDelay = 10 * time.Second

// ErrTransfer is reported for any failure while sending bytes to storage.
var ErrTransfer = errors.New("上传失败，请重试")

// FieldError is a local validation failure for one form field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Message
}

// APIError is a failure envelope returned by the service.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return e.Message
}

// Form is what the user submits.
type Form struct {
	EmployeeID string
	Name       string
	Phone      string
	Department string
	Filename   string
	Size       int64
	File       io.Reader
}

// Result describes a completed upload.
type Result struct {
	Key string
	URL string
}

// Client uploads photos against the service API.
type Client struct {
	baseURL string
	http    *http.Client

	// OnState is called on every state transition.
	OnState func(State)
	// OnProgress is called with the transfer percentage (0..100).
	OnProgress func(percent int)

	resetDelay time.Duration

	mu         sync.Mutex
	state      State
	resetTimer *time.Timer
}

// New creates a Client for the API at baseURL. A nil httpClient uses http.DefaultClient.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		http:       httpClient,
		resetDelay: ResetDelay,
		state:      StateIdle,
	}
}

// State returns the current state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	c.state = s
	cb := c.OnState
	c.mu.Unlock()
	if cb != nil {
		cb(s)
	}
}

func (c *Client) fail(err error) error {
	c.setState(StateError)
	return err
}

// Upload runs the whole sequence. Uploads are not resumable: any transfer
// error ends in StateError with ErrTransfer.
func (c *Client) Upload(ctx context.Context, form Form) (*Result, error) {
	c.mu.Lock()
	if c.resetTimer != nil {
		c.resetTimer.Stop()
		c.resetTimer = nil
	}
	c.mu.Unlock()

	c.setState(StateValidating)
	if err := Validate(form); err != nil {
		return nil, c.fail(err)
	}

	c.setState(StateTokenRequested)
	tok, err := c.requestToken(ctx, form)
	if err != nil {
		return nil, c.fail(err)
	}

	c.setState(StateTransferring)
	c.progress(0)
	if err := c.transfer(ctx, tok, form); err != nil {
		return nil, c.fail(fmt.Errorf("%w: %v", ErrTransfer, err))
	}
	c.progress(100)

	c.setState(StateMetadataSaving)
	publicURL, err := c.downloadURL(ctx, tok.Key)
	if err != nil {
		return nil, c.fail(err)
	}
	if err := c.saveEmployee(ctx, form, tok.Key, publicURL); err != nil {
		return nil, c.fail(err)
	}

	c.setState(StateSuccess)
	c.scheduleReset()
	return &Result{Key: tok.Key, URL: publicURL}, nil
}

func (c *Client) scheduleReset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetTimer = time.AfterFunc(c.resetDelay, func() {
		c.mu.Lock()
		if c.state != StateSuccess {
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()
		c.setState(StateIdle)
	})
}

// Validate checks the form before any network call.
func Validate(form Form) error {
	switch {
	case form.File == nil || form.Filename == "":
		return &FieldError{Field: "file", Message: "请选择文件"}
	case strings.TrimSpace(form.EmployeeID) == "":
		return &FieldError{Field: "employeeId", Message: "请输入工号"}
	case strings.TrimSpace(form.Department) == "":
		return &FieldError{Field: "department", Message: "请选择部门"}
	case form.Size > MaxFileBytes:
		return &FieldError{Field: "file", Message: "文件大小不能超过10MB"}
	}
	return nil
}

func (c *Client) progress(pct int) {
	if c.OnProgress != nil {
		c.OnProgress(pct)
	}
}

type tokenResponse struct {
	Success   bool              `json:"success"`
	Message   string            `json:"message"`
	Key       string            `json:"key"`
	Token     string            `json:"token"`
	Method    string            `json:"method"`
	UploadURL string            `json:"uploadUrl"`
	Fields    map[string]string `json:"fields"`
	Headers   map[string]string `json:"headers"`
}

func (c *Client) requestToken(ctx context.Context, form Form) (*tokenResponse, error) {
	q := url.Values{}
	q.Set("employeeId", strings.TrimSpace(form.EmployeeID))
	q.Set("filename", form.Filename)

	var tok tokenResponse
	if err := c.getJSON(ctx, "/api/upload-token?"+q.Encode(), &tok); err != nil {
		return nil, err
	}
	if tok.Key == "" || tok.UploadURL == "" {
		return nil, fmt.Errorf("upload token response is incomplete")
	}
	return &tok, nil
}

func (c *Client) transfer(ctx context.Context, tok *tokenResponse, form Form) error {
	body := &progressReader{r: form.File, total: form.Size, report: c.progress}

	var req *http.Request
	var err error
	switch strings.ToUpper(tok.Method) {
	case http.MethodPut:
		req, err = http.NewRequestWithContext(ctx, http.MethodPut, tok.UploadURL, body)
		if err != nil {
			return err
		}
		req.ContentLength = form.Size
		for k, v := range tok.Headers {
			req.Header.Set(k, v)
		}
	default:
		pr, pw := io.Pipe()
		mw := multipart.NewWriter(pw)
		go func() {
			pw.CloseWithError(writeForm(mw, tok.Fields, form.Filename, body))
		}()
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, tok.UploadURL, pr)
		if err != nil {
			_ = pr.Close()
			return err
		}
		req.Header.Set("Content-Type", mw.FormDataContentType())
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("storage responded %s", resp.Status)
	}
	return nil
}

// writeForm writes the policy fields and then the file part, which storage requires last.
func writeForm(mw *multipart.Writer, fields map[string]string, filename string, file io.Reader) error {
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return err
		}
	}
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, file); err != nil {
		return err
	}
	return mw.Close()
}

func (c *Client) downloadURL(ctx context.Context, key string) (string, error) {
	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		URL     string `json:"url"`
	}
	if err := c.getJSON(ctx, "/api/download-url?key="+url.QueryEscape(key), &resp); err != nil {
		return "", err
	}
	return resp.URL, nil
}

func (c *Client) saveEmployee(ctx context.Context, form Form, key, publicURL string) error {
	payload, err := json.Marshal(map[string]string{
		"employeeId": strings.TrimSpace(form.EmployeeID),
		"name":       form.Name,
		"phone":      form.Phone,
		"department": form.Department,
		"photoKey":   key,
		"photoUrl":   publicURL,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/save-employee", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := c.doJSON(req, &resp); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Message == "" {
			apiErr.Message = "保存员工信息失败"
		}
		return err
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.doJSON(req, out)
}

// doJSON sends req and decodes the envelope into out, turning non-2xx or
// success=false responses into *APIError.
func (c *Client) doJSON(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}

	var env struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(raw, &env)
	if resp.StatusCode < 200 || resp.StatusCode > 299 || !env.Success {
		return &APIError{StatusCode: resp.StatusCode, Message: env.Message}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s: %w", req.URL.Path, err)
	}
	return nil
}

// progressReader reports the percentage of total read so far.
type progressReader struct {
	r      io.Reader
	total  int64
	read   int64
	last   int
	report func(int)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.read += int64(n)
	if p.total > 0 && n > 0 {
		pct := int(p.read * 100 / p.total)
		if pct > 100 {
			pct = 100
		}
		if pct != p.last {
			p.last = pct
			p.report(pct)
		}
	}
	return n, err
}
