// Package backend is the HTTP client for the lead, scoring and back-office API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/fernandocalderan/IEI-Inmobiliario/internal/apperr"
	"github.com/fernandocalderan/IEI-Inmobiliario/internal/session"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"golang.org/x/net/publicsuffix"
)

const (
	pathScore            = "/api/iei/score"
	pathLeads            = "/api/leads"
	pathEvents           = "/api/events"
	pathAdminLogin       = "/api/admin/login"
	pathAdminLogout      = "/api/admin/logout"
	pathAdminLeads       = "/api/admin/leads"
	pathAdminAgencies    = "/api/admin/agencies"
	pathAdminZones       = "/api/admin/zones"
	pathAdminSalesExport = "/api/admin/sales/export.csv"
)

// SessionSource supplies the id sent in the X-Session-ID header
type SessionSource interface {
	SessionID() string
}

type Client struct {
	baseURL *url.URL
	http    *retryablehttp.Client
	jar     http.CookieJar
	session SessionSource
	logger  *logrus.Logger
}

type Option func(*Client)

// WithSession attaches the session id to every request
func WithSession(source SessionSource) Option {
	return func(c *Client) {
		c.session = source
	}
}

// NewClient builds a client for baseURL. readRetries applies to GET requests only;
// scoring, lead creation, events and back-office mutations are sent exactly once.
func NewClient(baseURL string, timeout time.Duration, readRetries int, logger *logrus.Logger, opts ...Option) (*Client, error) {
	if logger == nil {
		logger = logrus.New()
	}

	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid API base URL %q", baseURL)
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = readRetries
	retryClient.RetryWaitMin = 200 * time.Millisecond
	retryClient.RetryWaitMax = 2 * time.Second
	retryClient.HTTPClient.Timeout = timeout
	retryClient.HTTPClient.Jar = jar
	retryClient.Logger = retryLogger{logger: logger}
	retryClient.CheckRetry = checkRetry
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	c := &Client{
		baseURL: parsed,
		http:    retryClient,
		jar:     jar,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type noRetryKey struct{}

func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if noRetry, _ := ctx.Value(noRetryKey{}).(bool); noRetry {
		return false, ctx.Err()
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

// Cookies returns the back-office session cookies held by the client
func (c *Client) Cookies() []*http.Cookie {
	return c.jar.Cookies(c.baseURL)
}

// SetCookies restores back-office session cookies, e.g. from a saved profile
func (c *Client) SetCookies(cookies []*http.Cookie) {
	c.jar.SetCookies(c.baseURL, cookies)
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(c.baseURL.Path, "/") + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// do sends one JSON request and decodes a 2xx body into out
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out interface{}) error {
	var body []byte
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	if method != http.MethodGet {
		ctx = context.WithValue(ctx, noRetryKey{}, true)
	}

	var reqBody interface{}
	if body != nil {
		reqBody = bytes.NewReader(body)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.endpoint(path, query), reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.session != nil {
		req.Header.Set(session.Header, c.session.SessionID())
	}

	log := c.logger.WithFields(logrus.Fields{"method": method, "path": path})
	resp, err := c.http.Do(req)
	if err != nil {
		log.WithError(err).Debug("Request failed")
		return apperr.Transport(0, "request failed", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperr.Transport(resp.StatusCode, "failed to read response", err)
	}
	log.WithField("status", resp.StatusCode).Debug("Request completed")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp.StatusCode, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return apperr.Transport(resp.StatusCode, "invalid response body", err)
	}
	return nil
}

// decodeError maps an error body to a domain error when it names a code,
// otherwise to a transport error carrying the backend message or the status
func decodeError(status int, body []byte) error {
	message := fmt.Sprintf("HTTP %d", status)
	if !gjson.ValidBytes(body) {
		return apperr.Transport(status, message, nil)
	}

	if m := gjson.GetBytes(body, "error.message"); m.Type == gjson.String && m.String() != "" {
		message = m.String()
	} else if d := gjson.GetBytes(body, "detail"); d.Type == gjson.String && d.String() != "" {
		message = d.String()
	}

	if code := gjson.GetBytes(body, "error.code"); code.Type == gjson.String && code.String() != "" {
		return apperr.Domain(status, apperr.Code(code.String()), message)
	}
	return apperr.Transport(status, message, nil)
}

// retryLogger routes retryablehttp logs into logrus
type retryLogger struct {
	logger *logrus.Logger
}

func (l retryLogger) fields(keysAndValues []interface{}) logrus.Fields {
	fields := logrus.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return fields
}

func (l retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.WithFields(l.fields(keysAndValues)).Warn(msg)
}

func (l retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.WithFields(l.fields(keysAndValues)).Warn(msg)
}

func (l retryLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.WithFields(l.fields(keysAndValues)).Debug(msg)
}

func (l retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.WithFields(l.fields(keysAndValues)).Trace(msg)
}
