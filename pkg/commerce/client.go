package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-core/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront-core/pkg/errors"
	"github.com/angelmondragon/storefront-core/pkg/metrics"
)

const (
	cartTokenHeader          = "Cart-Token"
	totalHeader              = "X-WP-Total"
	errorBodyReadLimit int64 = 4096
)

var (
	errBaseURLRequired     = errors.New("commerce base url is required")
	errCredentialsRequired = errors.New("commerce consumer key and secret are required")
)

// Client talks to the commerce platform REST API. Every call owns its timeout;
// cancellation of the caller's context does not abort an in-flight call.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	adminPath   string
	storePath   string
	contentPath string
	key         string
	secret      string
	timeout     time.Duration
	metrics     *metrics.UpstreamMetrics
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithMetrics records call durations and outcomes.
func WithMetrics(m *metrics.UpstreamMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient builds the platform client from configuration.
func NewClient(cfg config.CommerceConfig, opts ...Option) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errBaseURLRequired
	}
	if strings.TrimSpace(cfg.ConsumerKey) == "" || strings.TrimSpace(cfg.ConsumerSecret) == "" {
		return nil, errCredentialsRequired
	}

	timeout := cfg.RequestTimeout()
	client := &Client{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     base,
		adminPath:   pathOrDefault(cfg.AdminPath, "/wp-json/wc/v3"),
		storePath:   pathOrDefault(cfg.StorePath, "/wp-json/wc/store/v1"),
		contentPath: pathOrDefault(cfg.ContentPath, "/wp-json/wp/v2"),
		key:         strings.TrimSpace(cfg.ConsumerKey),
		secret:      strings.TrimSpace(cfg.ConsumerSecret),
		timeout:     timeout,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: timeout}
	}
	return client, nil
}

func pathOrDefault(value, fallback string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		trimmed = fallback
	}
	return "/" + strings.Trim(trimmed, "/")
}

type apiKind int

const (
	adminAPI apiKind = iota
	storeAPI
	contentAPI
)

type request struct {
	op        string
	method    string
	api       apiKind
	path      string
	query     url.Values
	body      any
	cartToken string
}

type response struct {
	status    int
	header    http.Header
	cartToken string
}

// do executes req and decodes a 2xx body into out.
func (c *Client) do(ctx context.Context, req request, out any) (*response, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "commerce client not configured")
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	start := time.Now()
	resp, err := c.roundTrip(callCtx, req, out)
	c.observe(req.op, start, err)
	return resp, err
}

func (c *Client) roundTrip(ctx context.Context, req request, out any) (*response, error) {
	var body io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("marshal %s request", req.op))
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.buildURL(req.api, req.path, req.query), body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("build %s request", req.op))
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.api == adminAPI || req.api == contentAPI {
		httpReq.SetBasicAuth(c.key, c.secret)
	}
	if req.cartToken != "" {
		httpReq.Header.Set(cartTokenHeader, req.cartToken)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, transportError(req.op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		return nil, rejectionError(req.op, resp.StatusCode, raw)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("decode %s response", req.op))
		}
	}

	return &response{
		status:    resp.StatusCode,
		header:    resp.Header.Clone(),
		cartToken: resp.Header.Get(cartTokenHeader),
	}, nil
}

func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
}

func (c *Client) buildURL(api apiKind, path string, query url.Values) string {
	prefix := c.adminPath
	switch api {
	case storeAPI:
		prefix = c.storePath
	case contentAPI:
		prefix = c.contentPath
	}
	u := fmt.Sprintf("%s%s/%s", c.baseURL, prefix, strings.TrimLeft(path, "/"))
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *Client) observe(op string, start time.Time, err error) {
	if c.metrics == nil {
		return
	}
	outcome := "ok"
	if typed := pkgerrors.As(err); typed != nil {
		outcome = strings.ToLower(string(typed.Code()))
	} else if err != nil {
		outcome = "error"
	}
	c.metrics.Observe(op, outcome, time.Since(start))
}

func transportError(op string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return pkgerrors.Wrap(pkgerrors.CodeUpstreamTimeout, err, fmt.Sprintf("%s timed out", op))
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("execute %s request", op))
}

// RejectionDetails is attached to UPSTREAM_REJECTED and NOT_FOUND errors.
type RejectionDetails struct {
	Status       int    `json:"status"`
	UpstreamCode string `json:"upstream_code,omitempty"`
}

type apiErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Notices []struct {
		Notice string `json:"notice"`
	} `json:"notices"`
}

// rejectionError keeps the platform's own notice as the error message; it is the
// most specific explanation of why the platform refused.
func rejectionError(op string, status int, raw []byte) error {
	var parsed apiErrorBody
	_ = json.Unmarshal(raw, &parsed)

	notice := strings.TrimSpace(parsed.Message)
	if notice == "" && len(parsed.Notices) > 0 {
		notice = strings.TrimSpace(parsed.Notices[0].Notice)
	}
	notice = html.UnescapeString(stripTags(notice))

	details := RejectionDetails{Status: status, UpstreamCode: parsed.Code}
	cause := fmt.Errorf("%s: status %d: %s", op, status, strings.TrimSpace(string(raw)))

	if status == http.StatusNotFound {
		msg := notice
		if msg == "" {
			msg = fmt.Sprintf("%s: resource not found", op)
		}
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, cause, msg).WithDetails(details)
	}
	if status == http.StatusGatewayTimeout || status == http.StatusRequestTimeout {
		return pkgerrors.Wrap(pkgerrors.CodeUpstreamTimeout, cause, fmt.Sprintf("%s timed out", op)).WithDetails(details)
	}
	if notice == "" {
		notice = fmt.Sprintf("%s rejected with status %d", op, status)
	}
	return pkgerrors.Wrap(pkgerrors.CodeUpstreamRejected, cause, notice).WithDetails(details)
}

// Notice returns the platform's human-readable rejection text, if err carries one.
func Notice(err error) string {
	typed := pkgerrors.As(err)
	if typed == nil {
		return ""
	}
	if _, ok := typed.Details().(RejectionDetails); !ok {
		return ""
	}
	return typed.Message()
}

func stripTags(value string) string {
	if !strings.Contains(value, "<") {
		return value
	}
	var b strings.Builder
	inTag := false
	for _, r := range value {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func idList(ids []int64) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprintf("%d", id))
	}
	return strings.Join(parts, ",")
}
