// Package api is an HTTP client for the taskkeeper REST API. A Client keeps
// the session token of the last successful register or login and sends it
// on every authenticated call.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
)

type User struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Age       int       `json:"age"`
	HasAvatar bool      `json:"hasAvatar"`
	CreatedAt time.Time `json:"createdAt"`
}

type Task struct {
	ID          string    `json:"_id"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	Owner       string    `json:"owner"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ListOptions maps to the query of GET /tasks. Zero values are omitted.
type ListOptions struct {
	Completed *bool
	SortBy    string
	Limit     int
	Skip      int
}

// APIError is a non-2xx response. It matches the common sentinels for 400,
// 401 and 404 under errors.Is.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

func (e *APIError) Is(target error) bool {
	switch e.Status {
	case http.StatusBadRequest:
		return target == common.ErrorValidation
	case http.StatusUnauthorized:
		return target == common.ErrorUnauthorized
	case http.StatusNotFound:
		return target == common.ErrorNotFound
	}
	return false
}

type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// HTTPClient returns the underlying client, for presigned uploads.
func (c *Client) HTTPClient() *http.Client {
	return c.http
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.Token(); tok != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var eb struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&eb)
		return &APIError{Status: resp.StatusCode, Message: eb.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type session struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

func (c *Client) Register(ctx context.Context, name, email, password string, age int) (*User, error) {
	var s session
	in := map[string]any{"name": name, "email": email, "password": password, "age": age}
	if err := c.do(ctx, http.MethodPost, "/users", in, &s); err != nil {
		return nil, err
	}
	c.SetToken(s.Token)
	return &s.User, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	var s session
	in := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/users/login", in, &s); err != nil {
		return nil, err
	}
	c.SetToken(s.Token)
	return &s.User, nil
}

// Logout revokes the current token and forgets it.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/users/logout", nil, nil); err != nil {
		return err
	}
	c.SetToken("")
	return nil
}

// LogoutAll revokes every session of the user, including this one.
func (c *Client) LogoutAll(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/users/logoutAll", nil, nil); err != nil {
		return err
	}
	c.SetToken("")
	return nil
}

func (c *Client) Me(ctx context.Context) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodGet, "/users/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) UpdateMe(ctx context.Context, fields map[string]any) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodPatch, "/users/me", fields, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// DeleteAccount removes the user with all tasks and sessions.
func (c *Client) DeleteAccount(ctx context.Context) error {
	if err := c.do(ctx, http.MethodDelete, "/users/me", nil, nil); err != nil {
		return err
	}
	c.SetToken("")
	return nil
}

// AvatarUploadURL reserves a new avatar and returns where to PUT its bytes.
func (c *Client) AvatarUploadURL(ctx context.Context) (string, error) {
	var out struct {
		UploadURL string `json:"uploadUrl"`
	}
	if err := c.do(ctx, http.MethodPost, "/users/me/avatar", nil, &out); err != nil {
		return "", err
	}
	return out.UploadURL, nil
}

func (c *Client) AvatarURL(ctx context.Context) (string, error) {
	var out struct {
		URL string `json:"url"`
	}
	if err := c.do(ctx, http.MethodGet, "/users/me/avatar", nil, &out); err != nil {
		return "", err
	}
	return out.URL, nil
}

func (c *Client) CreateTask(ctx context.Context, description string) (*Task, error) {
	var t Task
	if err := c.do(ctx, http.MethodPost, "/tasks", map[string]string{"description": description}, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) ListTasks(ctx context.Context, opts ListOptions) ([]Task, error) {
	q := url.Values{}
	if opts.Completed != nil {
		q.Set("completed", fmt.Sprint(*opts.Completed))
	}
	if opts.SortBy != "" {
		q.Set("sortBy", opts.SortBy)
	}
	if opts.Limit > 0 {
		q.Set("limit", fmt.Sprint(opts.Limit))
	}
	if opts.Skip > 0 {
		q.Set("skip", fmt.Sprint(opts.Skip))
	}

	path := "/tasks"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var list []Task
	if err := c.do(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) SetCompleted(ctx context.Context, id string, done bool) (*Task, error) {
	var t Task
	if err := c.do(ctx, http.MethodPatch, "/tasks/"+url.PathEscape(id), map[string]bool{"completed": done}, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/tasks/"+url.PathEscape(id), nil, nil)
}
