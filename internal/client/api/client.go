// Package api is the CLI's HTTP client for the devtv auth endpoints.
//
// The session travels as the devtv.session-token cookie; callers pass the
// token explicitly and get it back from SignIn, so the client itself keeps
// no state between calls. CSRF tokens are fetched per call and sent back
// with the nonce cookie they were issued for.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/devtv/devtv/internal/common"
	"github.com/devtv/devtv/internal/identity"
)

// Client talks to one devtv server.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a Client for baseURL. httpClient is copied and may be nil.
// Redirects are never followed.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	hc := *httpClient
	hc.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: &hc}
}

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signInRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	CSRFToken string `json:"csrfToken"`
}

type avatarKey struct {
	Key string `json:"key"`
}

type csrfBody struct {
	CSRFToken string `json:"csrfToken"`
}

// Ping checks GET /healthz.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", "", nil, nil)
}

// CSRF is a token from GET /api/auth/csrf and the nonce cookie it is
// bound to.
type CSRF struct {
	Token string
	Nonce *http.Cookie
}

// CSRFToken fetches a fresh token together with its nonce cookie.
func (c *Client) CSRFToken(ctx context.Context) (*CSRF, error) {
	resp, err := c.send(ctx, http.MethodGet, "/api/auth/csrf", "", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}
	var out csrfBody
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	for _, ck := range resp.Cookies() {
		if ck.Name == common.CSRFCookieName {
			return &CSRF{Token: out.CSRFToken, Nonce: ck}, nil
		}
	}
	return nil, fmt.Errorf("csrf response without %s cookie", common.CSRFCookieName)
}

// Register creates an account. A taken email is ErrEmailTaken, a rejected
// payload is *ValidationError.
func (c *Client) Register(ctx context.Context, name, email, password string) (*identity.User, error) {
	var out struct {
		User *identity.User `json:"user"`
	}
	req := registerRequest{Name: name, Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/api/register", "", req, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

// SignIn exchanges credentials for a session. Wrong credentials are
// ErrUnauthorized.
func (c *Client) SignIn(ctx context.Context, email, password string) (*identity.SessionAndUser, error) {
	csrf, err := c.CSRFToken(ctx)
	if err != nil {
		return nil, err
	}

	var out identity.SessionAndUser
	req := signInRequest{Email: email, Password: password, CSRFToken: csrf.Token}
	if err := c.do(ctx, http.MethodPost, "/api/auth/signin/credentials", "", req, &out, csrf.Nonce); err != nil {
		return nil, err
	}
	return &out, nil
}

// Session resolves token to its session and user, or nil when the server
// no longer knows it.
func (c *Client) Session(ctx context.Context, token string) (*identity.SessionAndUser, error) {
	var out struct {
		Session *identity.Session `json:"session"`
		User    *identity.User    `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/auth/session", token, nil, &out); err != nil {
		return nil, err
	}
	if out.Session == nil || out.User == nil {
		return nil, nil
	}
	return &identity.SessionAndUser{Session: *out.Session, User: *out.User}, nil
}

// SignOut ends the session identified by token.
func (c *Client) SignOut(ctx context.Context, token string) error {
	csrf, err := c.CSRFToken(ctx)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, "/api/auth/signout", token, csrfBody{CSRFToken: csrf.Token}, nil, csrf.Nonce)
}

// AvatarUpload is the presigned PUT target for a new avatar.
type AvatarUpload struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// BeginAvatarUpload reserves a new avatar key for the session's user and
// returns where to PUT the image.
func (c *Client) BeginAvatarUpload(ctx context.Context, token string) (*AvatarUpload, error) {
	var out AvatarUpload
	if err := c.do(ctx, http.MethodPost, "/api/users/me/avatar", token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CompleteAvatarUpload makes an uploaded key the user's avatar.
func (c *Client) CompleteAvatarUpload(ctx context.Context, token, key string) error {
	return c.do(ctx, http.MethodPut, "/api/users/me/avatar", token, avatarKey{Key: key}, nil)
}

// AvatarURL returns the presigned download URL of the user's avatar, or
// ErrNoAvatar.
func (c *Client) AvatarURL(ctx context.Context, token string) (string, error) {
	resp, err := c.send(ctx, http.MethodGet, "/api/users/me/avatar", token, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusFound:
		return resp.Header.Get("Location"), nil
	case resp.StatusCode == http.StatusNotFound:
		return "", ErrNoAvatar
	}
	return "", statusError(resp)
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out any, cookies ...*http.Cookie) error {
	resp, err := c.send(ctx, method, path, token, in, cookies...)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// send performs the request. Transport failures are wrapped in
// ErrUnavailable; the caller closes the body.
func (c *Client) send(ctx context.Context, method, path, token string, in any, cookies ...*http.Cookie) (*http.Response, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: common.SessionCookieName, Value: token})
	}
	for _, ck := range cookies {
		req.AddCookie(&http.Cookie{Name: ck.Name, Value: ck.Value})
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return resp, nil
}

func statusError(resp *http.Response) error {
	var eb errorBody
	_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&eb)

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusUnprocessableEntity:
		return ErrEmailTaken
	case http.StatusBadRequest:
		if len(eb.Fields) > 0 {
			return &ValidationError{Fields: eb.Fields}
		}
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	return &StatusError{Code: resp.StatusCode, Message: eb.Error}
}
