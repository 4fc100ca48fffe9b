package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrSessionRejected indica que el proveedor no aceptó el session_id.
var ErrSessionRejected = errors.New("session id rejected")

type logger interface {
	Printf(format string, v ...interface{})
}

// HTTPClient implementa Provider contra la API HTTP del proveedor de identidad.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	logger  logger
}

// NewHTTPClient construye un cliente apuntando al endpoint de session-data.
func NewHTTPClient(baseURL string, log any) *HTTPClient {
	l, _ := log.(logger)
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
		logger:  l,
	}
}

func (c *HTTPClient) ExchangeSession(ctx context.Context, sessionID string) (SessionData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/session-data", nil)
	if err != nil {
		return SessionData{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-Session-ID", sessionID)

	resp, err := c.client.Do(req)
	if err != nil {
		return SessionData{}, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return SessionData{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if c.logger != nil {
			c.logger.Printf("identity provider error status %d: %s", resp.StatusCode, string(respBody))
		}
		return SessionData{}, ErrSessionRejected
	}

	var data SessionData
	if err := json.Unmarshal(respBody, &data); err != nil {
		return SessionData{}, fmt.Errorf("unmarshal response: %w", err)
	}

	if data.SessionToken == "" {
		return SessionData{}, errors.New("identity provider empty session token")
	}

	return data, nil
}
