package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"tasksync/internal/config"
	"tasksync/internal/models"
	"tasksync/pkg/logger"
)

// ErrUnreachable means the reachability probe failed; no operation was
// attempted against the remote.
var ErrUnreachable = errors.New("remote unreachable")

// StatusError is a non-2xx response from the remote task API.
type StatusError struct {
	Method string
	Path   string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("remote %s %s: status %d", e.Method, e.Path, e.Code)
}

// Client talks to the remote task API: GET/POST /tasks, PUT/DELETE
// /tasks/{id}. Requests carry an explicit timeout; the probe uses its own
// shorter bound.
type Client struct {
	base         string
	http         *http.Client
	probeTimeout time.Duration
}

// New builds a client from config.
func New(cfg *config.Config) *Client {
	return NewWithBase(cfg.RemoteBaseURL,
		time.Duration(cfg.RequestTimeoutSec)*time.Second,
		time.Duration(cfg.ProbeTimeoutSec)*time.Second)
}

// NewWithBase builds a client against an explicit base URL (tests).
func NewWithBase(base string, requestTimeout, probeTimeout time.Duration) *Client {
	return &Client{
		base:         strings.TrimRight(base, "/"),
		http:         &http.Client{Timeout: requestTimeout},
		probeTimeout: probeTimeout,
	}
}

// Probe checks remote reachability with a bounded timeout. Any transport
// error, timeout or non-2xx counts as unreachable.
func (c *Client) Probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/tasks", nil)
	if err != nil {
		return ErrUnreachable
	}
	resp, err := c.http.Do(req)
	if err != nil {
		logger.Debug(ctx, "Reachability probe failed", "error", err)
		return ErrUnreachable
	}
	defer drain(resp)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Debug(ctx, "Reachability probe rejected", "status", resp.StatusCode)
		return ErrUnreachable
	}
	return nil
}

// CreateTask replays a queued create: POST /tasks.
func (c *Client) CreateTask(ctx context.Context, t models.Task) error {
	return c.send(ctx, http.MethodPost, "/tasks", &t)
}

// UpdateTask replays a queued update: PUT /tasks/{id}.
func (c *Client) UpdateTask(ctx context.Context, t models.Task) error {
	return c.send(ctx, http.MethodPut, "/tasks/"+t.ID, &t)
}

// DeleteTask replays a queued delete: DELETE /tasks/{id}.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.send(ctx, http.MethodDelete, "/tasks/"+id, nil)
}

func (c *Client) send(ctx context.Context, method, path string, body *models.Task) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer drain(resp)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode}
	}
	return nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
