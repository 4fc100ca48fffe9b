package appclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"memory-makers/internal/domain"
)

// APIError es un fallo reportado por el backend con su detalle textual, que
// las pantallas muestran tal cual en los flujos iniciados por el usuario.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d detail=%s", e.Status, e.Detail)
}

// Client habla con el backend de Memory Makers sobre REST/JSON.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// LoginResult es la respuesta de login y registro.
type LoginResult struct {
	SessionToken string      `json:"session_token"`
	User         domain.User `json:"user"`
}

// ExchangeResult es la respuesta del canje de session_id.
type ExchangeResult struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Picture      string `json:"picture,omitempty"`
	SessionToken string `json:"session_token"`
}

// ConnectResult es la respuesta de connect-friend.
type ConnectResult struct {
	Message string      `json:"message"`
	Partner domain.User `json:"partner"`
}

// New construye un cliente apuntando al backend.
func New(baseURL string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
		logger:  logger,
	}
}

// Login maneja POST /api/auth/login.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	var out LoginResult
	err := c.do(ctx, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	}, nil, &out)
	return out, err
}

// Register maneja POST /api/auth/register.
func (c *Client) Register(ctx context.Context, email, password, name string) (LoginResult, error) {
	var out LoginResult
	err := c.do(ctx, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    email,
		"password": password,
		"name":     name,
	}, nil, &out)
	return out, err
}

// ExchangeSession canjea un session_id por un session token durable vía
// POST /api/auth/session con el header X-Session-ID.
func (c *Client) ExchangeSession(ctx context.Context, sessionID string) (ExchangeResult, error) {
	var out ExchangeResult
	headers := map[string]string{"X-Session-ID": sessionID}
	err := c.do(ctx, http.MethodPost, "/api/auth/session", "", nil, headers, &out)
	return out, err
}

// Me obtiene el perfil del token vía GET /api/auth/me.
func (c *Client) Me(ctx context.Context, token string) (domain.User, error) {
	var out domain.User
	err := c.do(ctx, http.MethodGet, "/api/auth/me", token, nil, nil, &out)
	return out, err
}

// Logout notifica el cierre de sesión vía POST /api/auth/logout.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", token, nil, nil, nil)
}

// ConnectFriend vincula la cuenta con el dueño del friend code.
func (c *Client) ConnectFriend(ctx context.Context, token, friendCode string) (ConnectResult, error) {
	var out ConnectResult
	err := c.do(ctx, http.MethodPost, "/api/connect-friend", token, map[string]string{
		"friend_code": friendCode,
	}, nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path, token string, body any, headers map[string]string, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		detail := decodeDetail(respBody)
		c.logger.Warn("backend error",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("detail", detail),
		)
		return &APIError{Status: resp.StatusCode, Detail: detail}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

func decodeDetail(body []byte) string {
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != "" {
		return payload.Detail
	}
	return strings.TrimSpace(string(body))
}
