package supabase

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/supabase-community/gotrue-go/types"
)

// refreshMargin is how long before expiry the access token is refreshed.
const refreshMargin = time.Minute

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is a signed-in GoTrue session.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         User      `json:"user"`
}

// SignIn exchanges email and password for a session.
func (c *Client) SignIn(ctx context.Context, email, password string) (Session, error) {
	return c.grant(ctx, types.TokenRequest{GrantType: "password", Email: email, Password: password})
}

func (c *Client) refresh(ctx context.Context, refreshToken string) (Session, error) {
	return c.grant(ctx, types.TokenRequest{GrantType: "refresh_token", RefreshToken: refreshToken})
}

func (c *Client) grant(ctx context.Context, req types.TokenRequest) (Session, error) {
	next := c.http.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	rt := &authTransport{ctx: ctx, next: next}
	hc := *c.http
	hc.Transport = rt

	tr, err := c.auth.WithClient(hc).Token(req)
	if rt.err != nil {
		return Session{}, rt.err
	}
	if err != nil {
		return Session{}, fmt.Errorf("supabase: %s grant: %w", req.GrantType, err)
	}
	s := Session{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		ExpiresAt:    c.now().Add(time.Duration(tr.ExpiresIn) * time.Second),
		User:         User{ID: tr.User.ID.String(), Email: tr.User.Email},
	}
	c.mu.Lock()
	c.session = &s
	c.mu.Unlock()
	c.log.Debug("signed in", "user_id", s.User.ID, "grant", req.GrantType)
	return s, nil
}

// authTransport binds gotrue requests, which are built without a context, to
// the caller's context. It records the same metrics as PostgREST calls and
// keeps a non-2xx response as an APIError.
type authTransport struct {
	ctx  context.Context
	next http.RoundTripper
	err  *APIError
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.WithContext(t.ctx)
	start := time.Now()
	resp, err := t.next.RoundTrip(req)
	requestDuration.WithLabelValues("auth", req.Method).Observe(time.Since(start).Seconds())
	if err != nil {
		requestsTotal.WithLabelValues("auth", req.Method, "error").Inc()
		return nil, err
	}
	requestsTotal.WithLabelValues("auth", req.Method, strconv.Itoa(resp.StatusCode)).Inc()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		t.err = decodeError(resp)
		resp.Body.Close()
		resp.Body = io.NopCloser(strings.NewReader(t.err.Message))
	}
	return resp, nil
}

// Session returns the current session, if any.
func (c *Client) Session() (Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return Session{}, false
	}
	return *c.session, true
}

// SignOut forgets the session locally.
func (c *Client) SignOut() {
	c.mu.Lock()
	c.session = nil
	c.mu.Unlock()
}

// token returns a valid access token, refreshing it when close to expiry.
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	s := c.session
	c.mu.Unlock()
	if s == nil {
		return "", ErrNotSignedIn
	}
	if s.ExpiresAt.IsZero() || c.now().Add(refreshMargin).Before(s.ExpiresAt) || s.RefreshToken == "" {
		return s.AccessToken, nil
	}
	next, err := c.refresh(ctx, s.RefreshToken)
	if err != nil {
		return "", err
	}
	return next.AccessToken, nil
}

func (c *Client) UserID(ctx context.Context) (string, error) {
	if _, err := c.token(ctx); err != nil {
		return "", err
	}
	s, ok := c.Session()
	if !ok {
		return "", ErrNotSignedIn
	}
	return s.User.ID, nil
}
