package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// KeySource supplies the API key attached to each request. An empty key
// sends the request unauthenticated.
type KeySource interface {
	APIKey() string
}

// StaticKey is a KeySource backed by a fixed string.
type StaticKey string

// APIKey returns the key.
func (k StaticKey) APIKey() string { return string(k) }

// JobService is the subset of the client used by the tracking engine.
// It is implemented by *Client and faked in tests.
type JobService interface {
	SubmitURL(ctx context.Context, req URLRequest) (Submission, error)
	SubmitFile(ctx context.Context, req FileRequest) (Submission, error)
	JobStatus(ctx context.Context, jobID string) (JobStatus, error)
	Result(ctx context.Context, jobID string) (ResultPayload, error)
	Retry(ctx context.Context, jobID string) (string, error)
	Cancel(ctx context.Context, jobID string) (string, error)
	ListJobs(ctx context.Context, limit, offset int) ([]JobStatus, error)
}

// Ensure Client implements JobService at compile time.
var _ JobService = (*Client)(nil)

// Client talks to the AI Summary HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	keys      KeySource
}

const (
	defaultAPIURL    = "127.0.0.1:8000"
	defaultUserAgent = "summit/0.1"
	requestTimeout   = 15 * time.Second

	// APIKeyHeader carries the credential on authenticated calls.
	APIKeyHeader = "X-API-Key"
	// RequestIDHeader tags each call for server-side log correlation.
	RequestIDHeader = "X-Request-ID"
)

// Option customises a Client.
type Option func(*Client)

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// NewClient builds a Client for apiURL. keys may be nil for a fully
// unauthenticated client.
func NewClient(apiURL string, keys KeySource, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(apiURL)
	if err != nil {
		return nil, err
	}
	if keys == nil {
		keys = StaticKey("")
	}
	c := &Client{
		baseURL:   base,
		http:      &http.Client{Timeout: requestTimeout},
		userAgent: defaultUserAgent,
		keys:      keys,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalised server address.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// OutcomeKind classifies the result of a Call.
type OutcomeKind int

const (
	// OutcomeOK is an HTTP 2xx response.
	OutcomeOK OutcomeKind = iota
	// OutcomeRejected is an HTTP 4xx/5xx response.
	OutcomeRejected
	// OutcomeUnreachable means no HTTP response was obtained.
	OutcomeUnreachable
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeOK:
		return "ok"
	case OutcomeRejected:
		return "rejected"
	case OutcomeUnreachable:
		return "unreachable"
	default:
		return "unknown"
	}
}

// Outcome is the structured result of one HTTP call.
type Outcome struct {
	Kind       OutcomeKind
	Path       string
	StatusCode int
	Header     http.Header
	Body       []byte
	Cause      error
}

// Err converts a non-OK outcome into a *RejectedError or *UnreachableError.
func (o Outcome) Err() error {
	switch o.Kind {
	case OutcomeOK:
		return nil
	case OutcomeRejected:
		detail, code, retryable := parseDetail(o.Body, o.StatusCode)
		return &RejectedError{Path: o.Path, StatusCode: o.StatusCode, Detail: detail, Code: code, Retryable: retryable}
	default:
		return &UnreachableError{Path: o.Path, Cause: o.Cause}
	}
}

// Decode unmarshals an OK body into dest. A body that cannot be parsed is
// reported as unreachable since no usable response was obtained.
func (o Outcome) Decode(dest any) error {
	if err := o.Err(); err != nil {
		return err
	}
	if dest == nil || len(bytes.TrimSpace(o.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(o.Body, dest); err != nil {
		return &UnreachableError{Path: o.Path, Cause: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// Form is a multipart body for Call.
type Form struct {
	Fields    map[string]string
	FileField string
	FileName  string
	File      io.Reader
}

// Call performs one HTTP request. body may be nil, a *Form, or any value
// that encodes as JSON. The API key is attached when one is available.
func (c *Client) Call(ctx context.Context, method, path string, body any) Outcome {
	if c == nil {
		return Outcome{Kind: OutcomeUnreachable, Path: path, Cause: fmt.Errorf("client is nil")}
	}
	rel, err := url.Parse(path)
	if err != nil {
		return Outcome{Kind: OutcomeUnreachable, Path: path, Cause: fmt.Errorf("parse path: %w", err)}
	}
	reqURL := c.baseURL.ResolveReference(rel)

	reader, contentType, err := encodeBody(body)
	if err != nil {
		return Outcome{Kind: OutcomeUnreachable, Path: path, Cause: err}
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		// Unblocks the form writer goroutine, if any.
		if rc, ok := reader.(io.Closer); ok {
			_ = rc.Close()
		}
		return Outcome{Kind: OutcomeUnreachable, Path: path, Cause: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(RequestIDHeader, uuid.NewString())
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if key := strings.TrimSpace(c.keys.APIKey()); key != "" {
		req.Header.Set(APIKeyHeader, key)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Outcome{Kind: OutcomeUnreachable, Path: path, Cause: fmt.Errorf("execute request: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Outcome{Kind: OutcomeUnreachable, Path: path, StatusCode: resp.StatusCode, Cause: fmt.Errorf("read response: %w", err)}
	}
	out := Outcome{Kind: OutcomeOK, Path: path, StatusCode: resp.StatusCode, Header: resp.Header, Body: data}
	if resp.StatusCode >= 400 {
		out.Kind = OutcomeRejected
	}
	return out
}

func encodeBody(body any) (io.Reader, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case *Form:
		return encodeForm(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, "", fmt.Errorf("encode request: %w", err)
		}
		return bytes.NewReader(data), "application/json", nil
	}
}

func encodeForm(form *Form) (io.Reader, string, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		err := writeForm(mw, form)
		if cerr := mw.Close(); err == nil {
			err = cerr
		}
		_ = pw.CloseWithError(err)
	}()
	return pr, mw.FormDataContentType(), nil
}

func writeForm(mw *multipart.Writer, form *Form) error {
	for key, value := range form.Fields {
		if err := mw.WriteField(key, value); err != nil {
			return fmt.Errorf("write field %s: %w", key, err)
		}
	}
	if form.File == nil {
		return nil
	}
	field := form.FileField
	if field == "" {
		field = "file"
	}
	part, err := mw.CreateFormFile(field, form.FileName)
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, form.File); err != nil {
		return fmt.Errorf("copy form file: %w", err)
	}
	return nil
}

// Health probes GET /health.
func (c *Client) Health(ctx context.Context) error {
	var payload struct {
		Status string `json:"status"`
	}
	if err := c.Call(ctx, http.MethodGet, "/health", nil).Decode(&payload); err != nil {
		return err
	}
	if payload.Status != "ok" {
		return fmt.Errorf("server reported status %q", payload.Status)
	}
	return nil
}

// ServerConfig fetches public limits. No credential is required.
func (c *Client) ServerConfig(ctx context.Context) (ServerConfig, error) {
	var payload ServerConfig
	if err := c.Call(ctx, http.MethodGet, "/v1/jobs/config", nil).Decode(&payload); err != nil {
		return ServerConfig{}, err
	}
	return payload, nil
}

// Register creates an account and returns its credentials.
func (c *Client) Register(ctx context.Context, username, password string) (Credentials, error) {
	return c.auth(ctx, "/v1/auth/register", username, password)
}

// Login exchanges a username and password for an API key.
func (c *Client) Login(ctx context.Context, username, password string) (Credentials, error) {
	return c.auth(ctx, "/v1/auth/login", username, password)
}

func (c *Client) auth(ctx context.Context, path, username, password string) (Credentials, error) {
	body := map[string]string{"username": username, "password": password}
	var creds Credentials
	if err := c.Call(ctx, http.MethodPost, path, body).Decode(&creds); err != nil {
		return Credentials{}, err
	}
	if creds.APIKey == "" {
		return Credentials{}, &UnreachableError{Path: path, Cause: fmt.Errorf("response missing api_key")}
	}
	if creds.Username == "" {
		creds.Username = username
	}
	return creds, nil
}

// RotateKey replaces the current API key and returns the new one.
func (c *Client) RotateKey(ctx context.Context) (string, error) {
	var creds Credentials
	if err := c.Call(ctx, http.MethodPost, "/v1/auth/rotate-key", nil).Decode(&creds); err != nil {
		return "", err
	}
	if creds.APIKey == "" {
		return "", &UnreachableError{Path: "/v1/auth/rotate-key", Cause: fmt.Errorf("response missing api_key")}
	}
	return creds.APIKey, nil
}

// URLRequest submits a video URL.
type URLRequest struct {
	URL          string `json:"url"`
	SummaryStyle string `json:"summary_style,omitempty"`
	Language     string `json:"language,omitempty"`
}

// FileRequest uploads a local media file.
type FileRequest struct {
	Path         string
	SummaryStyle string
	Language     string
}

// SubmitURL creates a job from a video URL.
func (c *Client) SubmitURL(ctx context.Context, req URLRequest) (Submission, error) {
	var sub Submission
	if err := c.Call(ctx, http.MethodPost, "/v1/youtube", req).Decode(&sub); err != nil {
		return Submission{}, err
	}
	return sub, nil
}

// SubmitFile uploads a media file as multipart form data.
func (c *Client) SubmitFile(ctx context.Context, req FileRequest) (Submission, error) {
	file, err := os.Open(req.Path)
	if err != nil {
		return Submission{}, fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	fields := map[string]string{}
	if req.SummaryStyle != "" {
		fields["summary_style"] = req.SummaryStyle
	}
	if req.Language != "" {
		fields["language"] = req.Language
	}
	form := &Form{Fields: fields, FileField: "file", FileName: filepath.Base(req.Path), File: file}

	var sub Submission
	if err := c.Call(ctx, http.MethodPost, "/v1/upload", form).Decode(&sub); err != nil {
		return Submission{}, err
	}
	return sub, nil
}

// JobStatus fetches the current state of a job.
func (c *Client) JobStatus(ctx context.Context, jobID string) (JobStatus, error) {
	if strings.TrimSpace(jobID) == "" {
		return JobStatus{}, fmt.Errorf("job id required")
	}
	var payload JobStatus
	if err := c.Call(ctx, http.MethodGet, jobPath(jobID, ""), nil).Decode(&payload); err != nil {
		return JobStatus{}, err
	}
	if payload.JobID == "" {
		payload.JobID = jobID
	}
	return payload, nil
}

// Result fetches the structured result of a finished job.
func (c *Client) Result(ctx context.Context, jobID string) (ResultPayload, error) {
	if strings.TrimSpace(jobID) == "" {
		return ResultPayload{}, fmt.Errorf("job id required")
	}
	var payload ResultPayload
	if err := c.Call(ctx, http.MethodGet, jobPath(jobID, "/result"), nil).Decode(&payload); err != nil {
		return ResultPayload{}, err
	}
	return payload, nil
}

// Export formats understood by the server.
const (
	FormatMarkdown = "md"
	FormatPDF      = "pdf"
	FormatDOCX     = "docx"
)

// Export downloads a rendered result. template is optional.
func (c *Client) Export(ctx context.Context, jobID, format, template string) (Attachment, error) {
	if strings.TrimSpace(jobID) == "" {
		return Attachment{}, fmt.Errorf("job id required")
	}
	switch format {
	case "":
		format = FormatMarkdown
	case FormatMarkdown, FormatPDF, FormatDOCX:
	default:
		return Attachment{}, fmt.Errorf("unsupported export format %q", format)
	}
	path := jobPath(jobID, "/result."+format)
	if t := strings.TrimSpace(template); t != "" {
		path += "?" + url.Values{"template": {t}}.Encode()
	}
	out := c.Call(ctx, http.MethodGet, path, nil)
	if err := out.Err(); err != nil {
		return Attachment{}, err
	}
	name := filenameFromDisposition(out.Header.Get("Content-Disposition"))
	if name == "" {
		name = fmt.Sprintf("summary-%s.%s", jobID, format)
	}
	return Attachment{Filename: name, ContentType: out.Header.Get("Content-Type"), Data: out.Body}, nil
}

// Retry asks the server to requeue a failed job and returns the new status.
func (c *Client) Retry(ctx context.Context, jobID string) (string, error) {
	return c.control(ctx, jobID, "/retry")
}

// Cancel asks the server to stop a queued or running job.
func (c *Client) Cancel(ctx context.Context, jobID string) (string, error) {
	return c.control(ctx, jobID, "/cancel")
}

func (c *Client) control(ctx context.Context, jobID, suffix string) (string, error) {
	if strings.TrimSpace(jobID) == "" {
		return "", fmt.Errorf("job id required")
	}
	var payload struct {
		Status string `json:"status"`
	}
	if err := c.Call(ctx, http.MethodPost, jobPath(jobID, suffix), nil).Decode(&payload); err != nil {
		return "", err
	}
	return payload.Status, nil
}

// ListJobs fetches one page of the caller's job history, most recent first.
func (c *Client) ListJobs(ctx context.Context, limit, offset int) ([]JobStatus, error) {
	values := url.Values{}
	if limit > 0 {
		values.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		values.Set("offset", strconv.Itoa(offset))
	}
	path := "/v1/jobs"
	if len(values) > 0 {
		path += "?" + values.Encode()
	}
	var payload JobList
	if err := c.Call(ctx, http.MethodGet, path, nil).Decode(&payload); err != nil {
		return nil, err
	}
	return payload.Items, nil
}

func jobPath(jobID, suffix string) string {
	return "/v1/jobs/" + url.PathEscape(strings.TrimSpace(jobID)) + suffix
}

func filenameFromDisposition(header string) string {
	if strings.TrimSpace(header) == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	// mime decodes filename* (RFC 2231) into filename.
	name := filepath.Base(strings.TrimSpace(params["filename"]))
	if name == "." || name == "/" {
		return ""
	}
	return name
}

func parseBaseURL(apiURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiURL)
	if trimmed == "" {
		trimmed = defaultAPIURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_url %q: %w", apiURL, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
