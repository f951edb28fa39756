// Package platform is the client library for the hosted identity and data
// service. A Client is constructed once at startup and injected into every
// view; it keeps the signed-in session in a SessionStore.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"mini-todo/models"
)

// ErrNoSession is returned by calls that need a signed-in user when there is none.
var ErrNoSession = errors.New("not signed in")

// APIError is a non-2xx response from the platform.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return http.StatusText(e.Status)
	}
	return e.Message
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

type Client struct {
	baseURL  string
	apiKey   string
	http     *http.Client
	sessions SessionStore

	refreshMu sync.Mutex
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func New(baseURL, apiKey string, sessions SessionStore, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 15 * time.Second},
		sessions: sessions,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) SignUp(ctx context.Context, email, password string) (models.Principal, error) {
	var p models.Principal
	err := c.do(ctx, http.MethodPost, "/api/register", nil, map[string]string{
		"email":    email,
		"password": password,
	}, &p, false)
	return p, err
}

// SignIn exchanges credentials for a session and stores it.
func (c *Client) SignIn(ctx context.Context, email, password string) (models.Session, error) {
	var s models.Session
	err := c.do(ctx, http.MethodPost, "/api/login", nil, map[string]string{
		"email":    email,
		"password": password,
	}, &s, false)
	if err != nil {
		return models.Session{}, err
	}
	if err := c.sessions.Save(s); err != nil {
		return models.Session{}, err
	}
	return s, nil
}

func (c *Client) SignOut() error {
	return c.sessions.Clear()
}

// CurrentUser asks the platform who the stored session belongs to. It
// returns (nil, nil) when there is no usable session.
func (c *Client) CurrentUser(ctx context.Context) (*models.Principal, error) {
	s, err := c.sessions.Load()
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, nil
	}
	var p models.Principal
	err = c.do(ctx, http.MethodGet, "/api/user", nil, nil, &p, true)
	if errors.Is(err, ErrNoSession) || IsStatus(err, http.StatusUnauthorized) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func ownerQuery(owner string) url.Values {
	return url.Values{"owner": {owner}}
}

func (c *Client) ListItems(ctx context.Context, owner string) ([]models.Item, error) {
	items := []models.Item{}
	if err := c.do(ctx, http.MethodGet, "/api/items", ownerQuery(owner), nil, &items, true); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) InsertItem(ctx context.Context, owner, title, content string) (models.Item, error) {
	var item models.Item
	err := c.do(ctx, http.MethodPost, "/api/items", nil, map[string]string{
		"owner":   owner,
		"title":   title,
		"content": content,
	}, &item, true)
	return item, err
}

func (c *Client) SetCompleted(ctx context.Context, owner string, id int64, completed bool) (int64, error) {
	var resp struct {
		Updated int64 `json:"updated"`
	}
	path := "/api/items/" + strconv.FormatInt(id, 10)
	err := c.do(ctx, http.MethodPatch, path, ownerQuery(owner), map[string]bool{"completed": completed}, &resp, true)
	return resp.Updated, err
}

func (c *Client) DeleteItem(ctx context.Context, owner string, id int64) (int64, error) {
	var resp struct {
		Deleted int64 `json:"deleted"`
	}
	path := "/api/items/" + strconv.FormatInt(id, 10)
	err := c.do(ctx, http.MethodDelete, path, ownerQuery(owner), nil, &resp, true)
	return resp.Deleted, err
}

// Settings returns the owner's settings, or nil when none were saved yet.
func (c *Client) Settings(ctx context.Context, owner string) (*models.UserSettings, error) {
	var s models.UserSettings
	err := c.do(ctx, http.MethodGet, "/api/settings", ownerQuery(owner), nil, &s, true)
	if IsStatus(err, http.StatusNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) UpsertSettings(ctx context.Context, owner, displayName string) (models.UserSettings, error) {
	var s models.UserSettings
	err := c.do(ctx, http.MethodPut, "/api/settings", nil, map[string]string{
		"owner":        owner,
		"display_name": displayName,
	}, &s, true)
	return s, err
}

// do performs one API call. Authenticated calls that come back 401 are
// retried once after refreshing the session.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any, auth bool) error {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = b
	}

	err := c.send(ctx, method, path, query, payload, out, auth)
	if !auth || !IsStatus(err, http.StatusUnauthorized) {
		return err
	}
	if rerr := c.refresh(ctx); rerr != nil {
		return err
	}
	return c.send(ctx, method, path, query, payload, out, auth)
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, payload []byte, out any, auth bool) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		s, err := c.sessions.Load()
		if err != nil {
			return err
		}
		if s == nil {
			return ErrNoSession
		}
		req.Header.Set("Authorization", "Bearer "+s.AccessToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// refresh swaps the stored refresh token for a new session. A rejected
// refresh token clears the session.
func (c *Client) refresh(ctx context.Context) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	s, err := c.sessions.Load()
	if err != nil {
		return err
	}
	if s == nil || s.RefreshToken == "" {
		return ErrNoSession
	}
	b, _ := json.Marshal(map[string]string{"refresh_token": s.RefreshToken})
	var next models.Session
	err = c.send(ctx, http.MethodPost, "/api/refresh-token", nil, b, &next, false)
	if IsStatus(err, http.StatusUnauthorized) {
		_ = c.sessions.Clear()
		return ErrNoSession
	}
	if err != nil {
		return err
	}
	return c.sessions.Save(next)
}
