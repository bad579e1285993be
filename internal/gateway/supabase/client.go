// Package supabase implements the gateway contract against a hosted Supabase
// project: PostgREST for rows, GoTrue for sign in and Realtime for change
// notifications.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	gotrue "github.com/supabase-community/gotrue-go"

	"github.com/rezmoss/simpletracker/internal/gateway"
)

const (
	restPath     = "/rest/v1/"
	authPath     = "/auth/v1"
	realtimePath = "/realtime/v1/websocket"

	defaultTimeout   = 15 * time.Second
	defaultHeartbeat = 30 * time.Second
)

// ErrNotSignedIn is returned by calls that need a user before SignIn succeeded.
var ErrNotSignedIn = errors.New("supabase: not signed in")

// APIError is a non-2xx response from PostgREST or GoTrue.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("supabase: %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("supabase: %d: %s", e.Status, e.Message)
}

type Config struct {
	URL     string
	AnonKey string
}

// Client talks to one Supabase project on behalf of one user.
type Client struct {
	base      *url.URL
	anonKey   string
	http      *http.Client
	log       *slog.Logger
	now       func() time.Time
	heartbeat time.Duration
	auth      gotrue.Client

	mu      sync.Mutex
	session *Session
	subs    map[*subscription]struct{}
}

var _ gateway.Gateway = (*Client)(nil)

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithHeartbeat sets the realtime heartbeat interval.
func WithHeartbeat(d time.Duration) Option {
	return func(c *Client) { c.heartbeat = d }
}

// WithSession starts the client with a previously obtained session.
func WithSession(s Session) Option {
	return func(c *Client) { c.session = &s }
}

func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.URL == "" || cfg.AnonKey == "" {
		return nil, errors.New("supabase: url and anon key are required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.URL, "/"))
	if err != nil {
		return nil, fmt.Errorf("supabase: parse url: %w", err)
	}
	c := &Client{
		base:      base,
		anonKey:   cfg.AnonKey,
		http:      &http.Client{Timeout: defaultTimeout},
		log:       slog.Default(),
		now:       time.Now,
		heartbeat: defaultHeartbeat,
		subs:      make(map[*subscription]struct{}),
	}
	for _, o := range opts {
		o(c)
	}
	c.auth = gotrue.New("", cfg.AnonKey).WithCustomGoTrueURL(base.String() + authPath)
	return c, nil
}

// Close drops every realtime subscription still open.
func (c *Client) Close() error {
	c.mu.Lock()
	subs := make([]*subscription, 0, len(c.subs))
	for s := range c.subs {
		subs = append(subs, s)
	}
	c.mu.Unlock()

	var errs []error
	for _, s := range subs {
		errs = append(errs, s.Unsubscribe())
	}
	return errors.Join(errs...)
}

// request is one PostgREST call.
type request struct {
	method string
	table  string
	query  url.Values
	body   any
	prefer string
}

func (c *Client) rest(ctx context.Context, r request, out any) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}
	u := c.base.JoinPath(restPath, r.table)
	if len(r.query) > 0 {
		u.RawQuery = r.query.Encode()
	}
	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+token)
	if r.prefer != "" {
		headers.Set("Prefer", r.prefer)
	}
	return c.send(ctx, r.method, r.table, u, headers, r.body, out)
}

func (c *Client) send(ctx context.Context, method, label string, u *url.URL, headers http.Header, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return err
	}
	for k, v := range headers {
		req.Header[k] = v
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	requestDuration.WithLabelValues(label, method).Observe(time.Since(start).Seconds())
	if err != nil {
		requestsTotal.WithLabelValues(label, method, "error").Inc()
		return err
	}
	defer resp.Body.Close()
	requestsTotal.WithLabelValues(label, method, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("supabase: decode %s: %w", label, err)
	}
	return nil
}

func decodeError(resp *http.Response) *APIError {
	apiErr := &APIError{Status: resp.StatusCode}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if len(b) > 0 {
		var auth struct {
			Error       string `json:"error"`
			Description string `json:"error_description"`
			Msg         string `json:"msg"`
		}
		if json.Unmarshal(b, apiErr) != nil || apiErr.Message == "" {
			_ = json.Unmarshal(b, &auth)
			switch {
			case auth.Description != "":
				apiErr.Code, apiErr.Message = auth.Error, auth.Description
			case auth.Msg != "":
				apiErr.Message = auth.Msg
			default:
				apiErr.Message = strings.TrimSpace(string(b))
			}
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

func eq(v string) string { return "eq." + v }

// first returns the only row of a zero-or-one result.
func first[T any](rows []T) *T {
	if len(rows) == 0 {
		return nil
	}
	return &rows[0]
}
