package session

import (
	"context"
	"errors"
)

// ErrLoginCancelled indica que el usuario cerró el navegador sin completar el
// login. No es un error visible: la pantalla de login simplemente sigue ahí.
var ErrLoginCancelled = errors.New("login cancelled")

// Browser abre la URL de autorización en una sesión de navegador administrada
// y bloquea hasta obtener la URL de callback, o ErrLoginCancelled si el
// usuario la descarta. En plataformas sin navegador embebido el redirect de
// vuelta entra por HandleRedirectURL como URL de arranque.
type Browser interface {
	OpenAuthSession(ctx context.Context, authURL string) (string, error)
}
