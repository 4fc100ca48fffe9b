package identity

import "context"

// SessionData es el perfil que entrega el proveedor externo al canjear un
// session_id de redirect por un session token durable.
type SessionData struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Picture      string `json:"picture,omitempty"`
	SessionToken string `json:"session_token"`
}

// Provider define la interfaz hacia el proveedor de identidad externo.
type Provider interface {
	ExchangeSession(ctx context.Context, sessionID string) (SessionData, error)
}
