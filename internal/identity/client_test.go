package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPClientExchangeSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/session-data" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("X-Session-ID"); got != "abc123" {
			t.Fatalf("expected X-Session-ID header, got %q", got)
		}
		json.NewEncoder(w).Encode(SessionData{
			ID:           "prov-1",
			Email:        "a@b.com",
			Name:         "Ann",
			SessionToken: "tok-exchanged",
		})
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, nil)
	data, err := client.ExchangeSession(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("expected exchange success, got %v", err)
	}
	if data.SessionToken != "tok-exchanged" || data.Email != "a@b.com" {
		t.Fatalf("unexpected session data %+v", data)
	}
}

func TestHTTPClientRejectedSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "unknown session"})
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, nil)
	_, err := client.ExchangeSession(context.Background(), "bad-id")
	if !errors.Is(err, ErrSessionRejected) {
		t.Fatalf("expected ErrSessionRejected, got %v", err)
	}
}

func TestHTTPClientEmptyProviderToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(SessionData{Email: "a@b.com"})
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, nil)
	if _, err := client.ExchangeSession(context.Background(), "abc123"); err == nil {
		t.Fatalf("expected error for empty provider token")
	}
}
