package deeplink

import (
	"net/url"
	"sync"
)

// SessionID extrae el session_id de una URL de callback. El fragmento tiene
// precedencia sobre el query string. Una URL sin session_id no es un error:
// puede ser un deep link ajeno al login.
func SessionID(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}

	if u.Fragment != "" {
		if vals, err := url.ParseQuery(u.Fragment); err == nil {
			if id := vals.Get("session_id"); id != "" {
				return id, true
			}
		}
	}

	if id := u.Query().Get("session_id"); id != "" {
		return id, true
	}

	return "", false
}

// Source distribuye URLs entrantes (deep links) a sus suscriptores. Emitir
// nunca bloquea: si un suscriptor no drena su canal, la URL se descarta.
type Source struct {
	mu   sync.Mutex
	subs map[int]chan string
	next int
}

func NewSource() *Source {
	return &Source{
		subs: make(map[int]chan string),
	}
}

// Subscribe registra un suscriptor. El cancel devuelto debe llamarse siempre
// al terminar, sin importar cómo termine el ciclo de vida del suscriptor.
func (s *Source) Subscribe() (<-chan string, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.next
	s.next++
	ch := make(chan string, 8)
	s.subs[id] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if existing, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(existing)
		}
	}
	return ch, cancel
}

// Emit entrega una URL a todos los suscriptores activos.
func (s *Source) Emit(rawURL string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- rawURL:
		default:
		}
	}
}
