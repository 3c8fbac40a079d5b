// Package httpstore is the Task Store as seen from the board UI: a JSON/REST
// client for the kanban backend.
package httpstore

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/kanban-board/internal/auth"
	"github.com/BuzzLyutic/kanban-board/internal/model"
	"github.com/BuzzLyutic/kanban-board/internal/repo"
)

type Config struct {
	// Total timeout per request; a context deadline can still cut it short.
	Timeout time.Duration

	DialTimeout     time.Duration
	KeepAlive       time.Duration
	TLSHandshake    time.Duration
	ResponseHeader  time.Duration
	IdleConnTimeout time.Duration

	MaxIdleConns        int
	MaxIdleConnsPerHost int
}

func DefaultConfig() Config {
	return Config{
		Timeout:             15 * time.Second,
		DialTimeout:         5 * time.Second,
		KeepAlive:           30 * time.Second,
		TLSHandshake:        5 * time.Second,
		ResponseHeader:      10 * time.Second,
		IdleConnTimeout:     90 * time.Second,
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 10,
	}
}

func NewHTTPClient(cfg Config) *http.Client {
	dialer := &net.Dialer{
		Timeout:   cfg.DialTimeout,
		KeepAlive: cfg.KeepAlive,
	}

	tr := &http.Transport{
		Proxy:       http.ProxyFromEnvironment,
		DialContext: dialer.DialContext,

		ForceAttemptHTTP2: true,

		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,

		TLSHandshakeTimeout:   cfg.TLSHandshake,
		ResponseHeaderTimeout: cfg.ResponseHeader,
	}

	return &http.Client{
		Transport: tr,
		Timeout:   cfg.Timeout,
	}
}

type Client struct {
	baseURL string
	http    *http.Client
	session *auth.Session
	logger  *zap.Logger
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithSession attaches the bearer credential of the signed-in user.
func WithSession(s *auth.Session) Option {
	return func(cl *Client) { cl.session = s }
}

func WithLogger(l *zap.Logger) Option {
	return func(cl *Client) { cl.logger = l }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    NewHTTPClient(DefaultConfig()),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type tasksResponse struct {
	Tasks []model.Task `json:"tasks"`
}

type createRequest struct {
	Title    string       `json:"title"`
	Status   model.Status `json:"status"`
	Position int          `json:"position"`
	BoardID  string       `json:"boardId"`
}

type updateRequest struct {
	Status   model.Status `json:"status"`
	Position int          `json:"position"`
}

type statusRequest struct {
	Status model.Status `json:"status"`
}

func (c *Client) ListTasks(ctx context.Context, boardID string) ([]model.Task, error) {
	var out tasksResponse
	err := c.do(ctx, call{
		op:       "tasks.list",
		kind:     repo.ErrFetchFailed,
		fallback: "Failed to load tasks",
		method:   http.MethodGet,
		path:     "/api/tasks/" + url.PathEscape(boardID),
		out:      &out,
	})
	if err != nil {
		return nil, err
	}
	return nonNil(out.Tasks), nil
}

func (c *Client) ListTasksByStatus(ctx context.Context, boardID string, status model.Status) ([]model.Task, error) {
	var out tasksResponse
	err := c.do(ctx, call{
		op:       "tasks.by_status",
		kind:     repo.ErrFetchFailed,
		fallback: "Failed to load tasks",
		method:   http.MethodPost,
		path:     "/api/tasks/getByStatus/" + url.PathEscape(boardID),
		body:     statusRequest{Status: status},
		out:      &out,
	})
	if err != nil {
		return nil, err
	}
	return nonNil(out.Tasks), nil
}

func (c *Client) CreateTask(ctx context.Context, t model.Task) (repo.Created, error) {
	var out repo.Created
	err := c.do(ctx, call{
		op:       "tasks.create",
		kind:     repo.ErrCreateFailed,
		fallback: "Something went wrong",
		method:   http.MethodPost,
		path:     "/api/tasks/add",
		body: createRequest{
			Title:    t.Title,
			Status:   t.Status,
			Position: t.Position,
			BoardID:  t.BoardID,
		},
		out: &out,
	})
	if err != nil {
		return repo.Created{}, err
	}
	return out, nil
}

func (c *Client) UpdateTask(ctx context.Context, id string, status model.Status, position int) error {
	return c.do(ctx, call{
		op:       "tasks.update",
		kind:     repo.ErrUpdateFailed,
		fallback: "Failed to update task",
		method:   http.MethodPatch,
		path:     "/api/tasks/updateTask/" + url.PathEscape(id),
		body:     updateRequest{Status: status, Position: position},
	})
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, call{
		op:       "tasks.delete",
		kind:     repo.ErrDeleteFailed,
		fallback: "Failed to delete task",
		method:   http.MethodDelete,
		path:     "/api/tasks/deleteTask/" + url.PathEscape(id),
	})
}

type call struct {
	op       string
	kind     error
	fallback string
	method   string
	path     string
	body     any
	out      any
}

// do sends one request. A 401 to a request that carried a token triggers a
// single token refresh and retry; any other non-2xx reply becomes a *repo.StoreError of the call's kind with
// the server's error text as reason.
func (c *Client) do(ctx context.Context, cl call) error {
	var payload []byte
	if cl.body != nil {
		var err error
		if payload, err = json.Marshal(cl.body); err != nil {
			return &repo.StoreError{Op: cl.op, Kind: cl.kind, Reason: err.Error(), Err: err}
		}
	}

	token := c.token(ctx)
	resp, body, err := c.send(ctx, cl, payload, token)
	if err == nil && resp.StatusCode == http.StatusUnauthorized && token != "" && c.session.CanRefresh() {
		fresh, rerr := c.session.Refresh(ctx)
		if rerr != nil {
			return &repo.StoreError{Op: cl.op, Kind: repo.ErrUnauthorized, Reason: "session expired, sign in again", Err: rerr}
		}
		resp, body, err = c.send(ctx, cl, payload, fresh)
	}
	if err != nil {
		c.logger.Warn("task store request failed", zap.String("op", cl.op), zap.Error(err))
		return &repo.StoreError{Op: cl.op, Kind: cl.kind, Reason: err.Error(), Err: err}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return &repo.StoreError{Op: cl.op, Kind: repo.ErrUnauthorized, Reason: errorText(body, "unauthorized")}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		reason := errorText(body, cl.fallback)
		c.logger.Debug("task store rejected request",
			zap.String("op", cl.op),
			zap.Int("status", resp.StatusCode),
			zap.String("reason", reason),
		)
		return &repo.StoreError{Op: cl.op, Kind: cl.kind, Reason: reason}
	}

	if cl.out != nil && len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, cl.out); err != nil {
			return &repo.StoreError{Op: cl.op, Kind: cl.kind, Reason: "invalid response: " + err.Error(), Err: err}
		}
	}
	return nil
}

func (c *Client) send(ctx context.Context, cl call, payload []byte, token string) (*http.Response, []byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, reader)
	if err != nil {
		return nil, nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}
	return resp, body, nil
}

func (c *Client) token(ctx context.Context) string {
	if c.session == nil {
		return ""
	}
	return c.session.Token(ctx)
}

// errorText picks "error", then "message" out of a JSON error body.
func errorText(body []byte, fallback string) string {
	var e struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &e); err == nil {
		if e.Error != "" {
			return e.Error
		}
		if e.Message != "" {
			return e.Message
		}
	}
	return fallback
}

func nonNil(tasks []model.Task) []model.Task {
	if tasks == nil {
		return []model.Task{}
	}
	return tasks
}

var _ repo.TaskStore = (*Client)(nil)
