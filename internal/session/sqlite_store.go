package session

import (
	"context"
	"database/sql"
	"errors"

	// Import sqlite driver
	_ "modernc.org/sqlite"
)

const sessionTokenKey = "session_token"

// SQLiteTokenStore implementa TokenStore sobre una base sqlite local, el
// equivalente del storage clave-valor del dispositivo.
type SQLiteTokenStore struct {
	conn *sql.DB
}

// NewSQLiteTokenStore abre (o crea) la base local y aplica el esquema.
func NewSQLiteTokenStore(path string) (*SQLiteTokenStore, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, err
	}

	const schema = `
		CREATE TABLE IF NOT EXISTS local_state (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)
	`
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, err
	}

	return &SQLiteTokenStore{conn: conn}, nil
}

func (s *SQLiteTokenStore) Load(ctx context.Context) (string, error) {
	const query = `SELECT value FROM local_state WHERE key = ?`
	var token string
	err := s.conn.QueryRowContext(ctx, query, sessionTokenKey).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return token, nil
}

func (s *SQLiteTokenStore) Save(ctx context.Context, token string) error {
	const query = `
		INSERT INTO local_state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`
	_, err := s.conn.ExecContext(ctx, query, sessionTokenKey, token)
	return err
}

func (s *SQLiteTokenStore) Clear(ctx context.Context) error {
	const query = `DELETE FROM local_state WHERE key = ?`
	_, err := s.conn.ExecContext(ctx, query, sessionTokenKey)
	return err
}

func (s *SQLiteTokenStore) Close() error {
	return s.conn.Close()
}
