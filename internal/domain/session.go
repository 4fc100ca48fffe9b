package domain

import "time"

// Session es una sesión autenticada emitida por el backend. Token es la
// credencial opaca que el cliente envía como bearer.
type Session struct {
	UserID    string    `json:"user_id"`
	Token     string    `json:"session_token"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired indica si la sesión ya venció en el instante dado.
func (s Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
