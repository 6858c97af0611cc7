// Package client talks to the task board HTTP API.
package client

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

	"github.com/adanyl0v/taskboard/internal/models"
	"github.com/adanyl0v/taskboard/internal/services"
)

// ErrNetwork wraps transport failures and timeouts. The attempted
// operation did not reach a confirmed outcome.
var ErrNetwork = errors.New("network error")

// ErrServer is returned for unexpected 5xx responses.
var ErrServer = errors.New("server error")

const DefaultTimeout = 10 * time.Second

// TokenSource yields the access token sent with task requests.
type TokenSource interface {
	AccessToken() string
}

// Tokens is the session issued by signup, login and refresh.
type Tokens struct {
	UserID                string    `json:"user_id" yaml:"user_id"`
	AccessToken           string    `json:"access_token" yaml:"access_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at" yaml:"access_token_expires_at"`
	RefreshToken          string    `json:"refresh_token" yaml:"refresh_token"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at" yaml:"refresh_token_expires_at"`
}

// APIError is a non-2xx response. It unwraps to the matching
// services sentinel so callers can use errors.Is.
type APIError struct {
	StatusCode int
	Message    string
	kind       error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.kind
}

type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
}

// New returns a client for the server at baseURL. A zero timeout
// means DefaultTimeout. tokens may be nil for the auth endpoints.
func New(baseURL string, timeout time.Duration, tokens TokenSource) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *Client) Signup(ctx context.Context, email, password string) (*Tokens, error) {
	var tokens Tokens
	err := c.do(ctx, http.MethodPost, "/api/auth/signup", credentialsRequest{email, password}, &tokens, false)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Message == services.ErrUserAlreadyExists.Error() {
			apiErr.kind = services.ErrUserAlreadyExists
		}
		return nil, err
	}
	return &tokens, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*Tokens, error) {
	var tokens Tokens
	err := c.do(ctx, http.MethodPost, "/api/auth/login", credentialsRequest{email, password}, &tokens, false)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
			apiErr.kind = services.ErrUserPasswordMismatch
			if apiErr.Message == services.ErrUserNotFound.Error() {
				apiErr.kind = services.ErrUserNotFound
			}
		}
		return nil, err
	}
	return &tokens, nil
}

func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Tokens, error) {
	body := map[string]string{"refresh_token": refreshToken}
	var tokens Tokens
	err := c.do(ctx, http.MethodPost, "/api/auth/refresh", body, &tokens, false)
	if err != nil {
		return nil, err
	}
	return &tokens, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil, true)
}

type taskResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	Owner     string    `json:"owner"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r taskResponse) model() *models.Task {
	return &models.Task{
		ID:        r.ID,
		OwnerID:   r.Owner,
		Title:     r.Title,
		Status:    models.Status(r.Status),
		Version:   r.Version,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type createTaskRequest struct {
	Title  string `json:"title"`
	Status string `json:"status,omitempty"`
}

type updateTaskRequest struct {
	Title   *string `json:"title,omitempty"`
	Status  *string `json:"status,omitempty"`
	Version *int64  `json:"version,omitempty"`
}

func (c *Client) ListTasks(ctx context.Context) ([]*models.Task, error) {
	var resp []taskResponse
	err := c.do(ctx, http.MethodGet, "/api/tasks", nil, &resp, true)
	if err != nil {
		return nil, err
	}

	tasks := make([]*models.Task, 0, len(resp))
	for _, r := range resp {
		tasks = append(tasks, r.model())
	}
	return tasks, nil
}

func (c *Client) CreateTask(ctx context.Context, title string, status models.Status) (*models.Task, error) {
	var resp taskResponse
	req := createTaskRequest{Title: title, Status: string(status)}
	err := c.do(ctx, http.MethodPost, "/api/tasks", req, &resp, true)
	if err != nil {
		return nil, err
	}
	return resp.model(), nil
}

func (c *Client) UpdateTask(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error) {
	req := updateTaskRequest{
		Title:   patch.Title,
		Version: patch.Version,
	}
	if patch.Status != nil {
		status := string(*patch.Status)
		req.Status = &status
	}

	var resp taskResponse
	err := c.do(ctx, http.MethodPatch, "/api/tasks/"+id, req, &resp, true)
	if err != nil {
		return nil, err
	}
	return resp.model(), nil
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/tasks/"+id, nil, nil, true)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any, authenticated bool) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authenticated {
		if c.tokens == nil || c.tokens.AccessToken() == "" {
			return services.ErrUnauthenticated
		}
		req.Header.Set("Authorization", "Bearer "+c.tokens.AccessToken())
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %w", ErrNetwork, err)
	}

	if resp.StatusCode >= 300 {
		return newAPIError(resp.StatusCode, respBody)
	}
	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err = json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func newAPIError(status int, body []byte) *APIError {
	var payload struct {
		Error string `json:"error"`
	}
	message := http.StatusText(status)
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		message = payload.Error
	}

	apiErr := &APIError{StatusCode: status, Message: message}
	switch status {
	case http.StatusBadRequest:
		apiErr.kind = services.ErrInvalidTask
	case http.StatusUnauthorized:
		apiErr.kind = services.ErrUnauthenticated
	case http.StatusForbidden:
		apiErr.kind = services.ErrTaskForbidden
	case http.StatusNotFound:
		apiErr.kind = services.ErrTaskNotFound
	case http.StatusConflict:
		apiErr.kind = services.ErrTaskVersionConflict
	default:
		apiErr.kind = ErrServer
	}
	return apiErr
}
