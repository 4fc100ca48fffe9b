package session

import (
	"context"
	"errors"
	"net/url"
	"sync"

	"go.uber.org/zap"

	"memory-makers/internal/appclient"
	"memory-makers/internal/deeplink"
	"memory-makers/internal/domain"
)

// ErrPasswordTooShort se devuelve en registro antes de tocar la red.
var ErrPasswordTooShort = errors.New("password must be at least 6 characters")

const minPasswordLength = 6

// Backend es el subconjunto del cliente REST que usa el manager.
// *appclient.Client lo satisface.
type Backend interface {
	Login(ctx context.Context, email, password string) (appclient.LoginResult, error)
	Register(ctx context.Context, email, password, name string) (appclient.LoginResult, error)
	ExchangeSession(ctx context.Context, sessionID string) (appclient.ExchangeResult, error)
	Me(ctx context.Context, token string) (domain.User, error)
	Logout(ctx context.Context, token string) error
}

// State es la foto de sesión que leen los consumidores. Mientras Loading sea
// true no debe renderizarse UI que dependa de la sesión.
type State struct {
	User         *domain.User
	SessionToken string
	Loading      bool
}

// Manager es el dueño único del estado de sesión: establece, persiste,
// refresca y destruye la sesión. Toda mutación pasa por sus operaciones, que
// se serializan entre sí; un deep link y un login por navegador no pueden
// intercalarse destructivamente.
type Manager struct {
	logger  *zap.Logger
	backend Backend
	store   TokenStore
	browser Browser

	authorizeURL string
	redirectURI  string

	// opMu serializa las operaciones que mutan la sesión, incluida la
	// llamada de red que contienen. mu protege solo las lecturas de estado.
	opMu sync.Mutex
	mu   sync.RWMutex

	user    *domain.User
	token   string
	loading bool

	initOnce sync.Once
	consumed map[string]struct{}
}

// NewManager crea un manager en estado cargando; Initialize debe llamarse al
// arrancar el proceso.
func NewManager(logger *zap.Logger, backend Backend, store TokenStore, browser Browser, authorizeURL, redirectURI string) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		logger:       logger,
		backend:      backend,
		store:        store,
		browser:      browser,
		authorizeURL: authorizeURL,
		redirectURI:  redirectURI,
		loading:      true,
		consumed:     make(map[string]struct{}),
	}
}

// Snapshot devuelve el estado actual de sesión.
func (m *Manager) Snapshot() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return State{
		User:         m.user,
		SessionToken: m.token,
		Loading:      m.loading,
	}
}

// Initialize rehidrata la sesión persistida y valida el token con el backend.
// Loading queda en false al terminar, haya o no sesión, y solo transiciona
// una vez aunque Initialize se invoque de nuevo.
func (m *Manager) Initialize(ctx context.Context) {
	m.initOnce.Do(func() {
		m.opMu.Lock()
		defer m.opMu.Unlock()
		defer m.setLoading(false)

		token, err := m.store.Load(ctx)
		if err != nil {
			m.logger.Warn("load persisted token failed", zap.Error(err))
			return
		}
		if token == "" {
			return
		}

		m.setToken(token)
		m.fetchProfile(ctx)
	})
}

// HandleRedirectURL es el punto único de ingestión de URLs de callback, tanto
// para la URL de arranque como para eventos en vivo. Devuelve true si quedó
// establecida una sesión. Una URL sin session_id es un no-op, y un session_id
// ya canjeado no se reprocesa.
func (m *Manager) HandleRedirectURL(ctx context.Context, rawURL string) bool {
	sessionID, ok := deeplink.SessionID(rawURL)
	if !ok {
		return false
	}

	m.opMu.Lock()
	defer m.opMu.Unlock()

	if _, done := m.consumed[sessionID]; done {
		return false
	}

	result, err := m.backend.ExchangeSession(ctx, sessionID)
	if err != nil {
		// Canje fallido: no se establece ni persiste nada, la pantalla de
		// login sigue visible y el reintento es volver a iniciar login.
		m.logger.Warn("session exchange failed", zap.Error(err))
		return false
	}

	m.consumed[sessionID] = struct{}{}
	m.establish(ctx, result.SessionToken)
	m.fetchProfile(ctx)
	return true
}

// AuthorizeURL arma la URL de autorización del proveedor con el callback de
// la plataforma. En web el consumidor hace un redirect completo a esta URL.
func (m *Manager) AuthorizeURL() string {
	return m.authorizeURL + "?redirect=" + url.QueryEscape(m.redirectURI)
}

// LoginWithBrowser abre la URL de autorización en el navegador administrado y
// delega el callback en HandleRedirectURL. La cancelación del usuario es un
// no-op sin error visible.
func (m *Manager) LoginWithBrowser(ctx context.Context) (bool, error) {
	if m.browser == nil {
		return false, errors.New("no browser available")
	}

	callbackURL, err := m.browser.OpenAuthSession(ctx, m.AuthorizeURL())
	if err != nil {
		if errors.Is(err, ErrLoginCancelled) {
			return false, nil
		}
		return false, err
	}
	return m.HandleRedirectURL(ctx, callbackURL), nil
}

// LoginWithCredentials inicia sesión directa con email y password.
func (m *Manager) LoginWithCredentials(ctx context.Context, email, password string) (domain.User, error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	result, err := m.backend.Login(ctx, email, password)
	if err != nil {
		return domain.User{}, err
	}

	m.establish(ctx, result.SessionToken)
	m.setUser(result.User)
	return result.User, nil
}

// Register crea una cuenta nueva. El largo mínimo de password se valida acá,
// antes de cualquier llamada de red; los errores de unicidad los reporta el
// backend y se devuelven tal cual.
func (m *Manager) Register(ctx context.Context, email, password, name string) (domain.User, error) {
	if len(password) < minPasswordLength {
		return domain.User{}, ErrPasswordTooShort
	}

	m.opMu.Lock()
	defer m.opMu.Unlock()

	result, err := m.backend.Register(ctx, email, password, name)
	if err != nil {
		return domain.User{}, err
	}

	m.establish(ctx, result.SessionToken)
	m.setUser(result.User)
	return result.User, nil
}

// RefreshUser vuelve a traer el perfil si hay sesión; si no, no-op. Se usa
// tras mutaciones que cambian estado del perfil en el servidor, como un
// pairing exitoso.
func (m *Manager) RefreshUser(ctx context.Context) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	if m.currentToken() == "" {
		return
	}
	m.fetchProfile(ctx)
}

// Logout notifica al backend con mejor esfuerzo y limpia el estado local
// incondicionalmente.
func (m *Manager) Logout(ctx context.Context) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	if token := m.currentToken(); token != "" {
		if err := m.backend.Logout(ctx, token); err != nil {
			m.logger.Warn("backend logout failed", zap.Error(err))
		}
	}
	m.clearSession(ctx)
}

// establish persiste el token y lo fija como sesión actual. Se llama con
// opMu tomado.
func (m *Manager) establish(ctx context.Context, token string) {
	if err := m.store.Save(ctx, token); err != nil {
		m.logger.Warn("persist token failed", zap.Error(err))
	}
	m.setToken(token)
}

// fetchProfile valida el token actual contra el backend. Un rechazo del
// backend degrada la sesión a anónima; un fallo de transporte deja todo como
// estaba, la operación simplemente aborta.
func (m *Manager) fetchProfile(ctx context.Context) {
	token := m.currentToken()
	if token == "" {
		return
	}

	user, err := m.backend.Me(ctx, token)
	if err != nil {
		var apiErr *appclient.APIError
		if errors.As(err, &apiErr) {
			m.logger.Warn("session invalidated by backend",
				zap.Int("status", apiErr.Status),
			)
			m.clearSession(ctx)
			return
		}
		m.logger.Warn("fetch profile failed", zap.Error(err))
		return
	}

	m.setUser(user)
}

func (m *Manager) clearSession(ctx context.Context) {
	if err := m.store.Clear(ctx); err != nil {
		m.logger.Warn("clear persisted token failed", zap.Error(err))
	}
	m.mu.Lock()
	m.user = nil
	m.token = ""
	m.mu.Unlock()
}

func (m *Manager) currentToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

func (m *Manager) setToken(token string) {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
}

func (m *Manager) setUser(user domain.User) {
	m.mu.Lock()
	m.user = &user
	m.mu.Unlock()
}

func (m *Manager) setLoading(v bool) {
	m.mu.Lock()
	m.loading = v
	m.mu.Unlock()
}
