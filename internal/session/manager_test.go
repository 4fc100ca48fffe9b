package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"memory-makers/internal/appclient"
	"memory-makers/internal/domain"
)

type mockBackend struct {
	loginResult    appclient.LoginResult
	loginErr       error
	loginCalls     int
	registerResult appclient.LoginResult
	registerErr    error
	registerCalls  int

	// exchangeTokens mapea session_id a token; cada entrada se consume una
	// sola vez, como el backend real.
	exchangeTokens map[string]string
	exchangeCalls  int

	meUsers map[string]domain.User
	meErr   error
	meCalls int

	logoutErr   error
	logoutCalls int
}

func newMockBackend() *mockBackend {
	return &mockBackend{
		exchangeTokens: make(map[string]string),
		meUsers:        make(map[string]domain.User),
	}
}

func (m *mockBackend) Login(_ context.Context, email, password string) (appclient.LoginResult, error) {
	m.loginCalls++
	return m.loginResult, m.loginErr
}

func (m *mockBackend) Register(_ context.Context, email, password, name string) (appclient.LoginResult, error) {
	m.registerCalls++
	return m.registerResult, m.registerErr
}

func (m *mockBackend) ExchangeSession(_ context.Context, sessionID string) (appclient.ExchangeResult, error) {
	m.exchangeCalls++
	token, ok := m.exchangeTokens[sessionID]
	if !ok {
		return appclient.ExchangeResult{}, &appclient.APIError{Status: 401, Detail: "Invalid session ID"}
	}
	delete(m.exchangeTokens, sessionID)
	return appclient.ExchangeResult{SessionToken: token}, nil
}

func (m *mockBackend) Me(_ context.Context, token string) (domain.User, error) {
	m.meCalls++
	if m.meErr != nil {
		return domain.User{}, m.meErr
	}
	user, ok := m.meUsers[token]
	if !ok {
		return domain.User{}, &appclient.APIError{Status: 401, Detail: "Invalid session"}
	}
	return user, nil
}

func (m *mockBackend) Logout(_ context.Context, token string) error {
	m.logoutCalls++
	return m.logoutErr
}

type mockBrowser struct {
	callbackURL string
	err         error
}

func (b *mockBrowser) OpenAuthSession(_ context.Context, authURL string) (string, error) {
	return b.callbackURL, b.err
}

func newTestManager(backend Backend, store TokenStore, browser Browser) *Manager {
	return NewManager(zap.NewNop(), backend, store, browser, "https://id.example.com/authorize", "memorymakers://auth")
}

func testUser(email string) domain.User {
	return domain.User{
		ID:         "user_abc123def456",
		Email:      email,
		Name:       "Test",
		FriendCode: "A1B2C",
		CreatedAt:  time.Now().UTC(),
	}
}

func TestManagerInitializeValidToken(t *testing.T) {
	backend := newMockBackend()
	backend.meUsers["tok1"] = testUser("user@example.com")
	store := NewMemoryTokenStore()
	if err := store.Save(context.Background(), "tok1"); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	mgr := newTestManager(backend, store, nil)
	if !mgr.Snapshot().Loading {
		t.Fatalf("expected loading true before initialize")
	}

	mgr.Initialize(context.Background())

	state := mgr.Snapshot()
	if state.Loading {
		t.Fatalf("expected loading false after initialize")
	}
	if state.SessionToken != "tok1" {
		t.Fatalf("expected token tok1, got %q", state.SessionToken)
	}
	if state.User == nil || state.User.Email != "user@example.com" {
		t.Fatalf("expected rehydrated user, got %+v", state.User)
	}

	// Una segunda llamada no repite el trabajo de inicialización.
	mgr.Initialize(context.Background())
	if backend.meCalls != 1 {
		t.Fatalf("expected exactly one profile fetch, got %d", backend.meCalls)
	}
}

func TestManagerInitializeRejectedToken(t *testing.T) {
	backend := newMockBackend()
	store := NewMemoryTokenStore()
	if err := store.Save(context.Background(), "stale"); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	mgr := newTestManager(backend, store, nil)
	mgr.Initialize(context.Background())

	state := mgr.Snapshot()
	if state.Loading {
		t.Fatalf("expected loading false")
	}
	if state.User != nil || state.SessionToken != "" {
		t.Fatalf("expected anonymous state, got %+v", state)
	}
	persisted, _ := store.Load(context.Background())
	if persisted != "" {
		t.Fatalf("expected persisted token removed, got %q", persisted)
	}
}

func TestManagerInitializeNoToken(t *testing.T) {
	backend := newMockBackend()
	mgr := newTestManager(backend, NewMemoryTokenStore(), nil)

	mgr.Initialize(context.Background())

	state := mgr.Snapshot()
	if state.Loading || state.User != nil || state.SessionToken != "" {
		t.Fatalf("expected anonymous idle state, got %+v", state)
	}
	if backend.meCalls != 0 {
		t.Fatalf("expected no profile fetch without token")
	}
}

func TestManagerInitializeTransportFailure(t *testing.T) {
	backend := newMockBackend()
	backend.meErr = errors.New("connection refused")
	store := NewMemoryTokenStore()
	if err := store.Save(context.Background(), "tok1"); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	mgr := newTestManager(backend, store, nil)
	mgr.Initialize(context.Background())

	// Un fallo de red no invalida la sesión: el token queda, el perfil no.
	state := mgr.Snapshot()
	if state.Loading {
		t.Fatalf("expected loading false even on network failure")
	}
	if state.SessionToken != "tok1" {
		t.Fatalf("expected token kept on transport failure, got %q", state.SessionToken)
	}
	if state.User != nil {
		t.Fatalf("expected no user on transport failure")
	}
	persisted, _ := store.Load(context.Background())
	if persisted != "tok1" {
		t.Fatalf("expected persisted token kept, got %q", persisted)
	}
}

func TestManagerHandleRedirectExchange(t *testing.T) {
	backend := newMockBackend()
	backend.exchangeTokens["abc123"] = "tok-exchanged"
	backend.meUsers["tok-exchanged"] = testUser("user@example.com")
	store := NewMemoryTokenStore()
	mgr := newTestManager(backend, store, nil)

	const rawURL = "memorymakers://auth#session_id=abc123"
	if !mgr.HandleRedirectURL(context.Background(), rawURL) {
		t.Fatalf("expected session established from redirect")
	}

	state := mgr.Snapshot()
	if state.SessionToken != "tok-exchanged" {
		t.Fatalf("expected exchanged token, got %q", state.SessionToken)
	}
	if state.User == nil {
		t.Fatalf("expected profile populated after exchange")
	}
	persisted, _ := store.Load(context.Background())
	if persisted != "tok-exchanged" {
		t.Fatalf("expected token persisted, got %q", persisted)
	}

	// Reprocesar la misma URL es un no-op: el session_id ya fue consumido.
	if mgr.HandleRedirectURL(context.Background(), rawURL) {
		t.Fatalf("expected replayed url to be a no-op")
	}
	if backend.exchangeCalls != 1 {
		t.Fatalf("expected single exchange call, got %d", backend.exchangeCalls)
	}
	if got := mgr.Snapshot().SessionToken; got != "tok-exchanged" {
		t.Fatalf("expected session unchanged after replay, got %q", got)
	}
}

func TestManagerHandleRedirectNoSessionID(t *testing.T) {
	backend := newMockBackend()
	mgr := newTestManager(backend, NewMemoryTokenStore(), nil)

	if mgr.HandleRedirectURL(context.Background(), "memorymakers://open?item_id=42") {
		t.Fatalf("expected unrelated url to be a no-op")
	}
	if backend.exchangeCalls != 0 {
		t.Fatalf("expected no exchange for unrelated url")
	}
	if state := mgr.Snapshot(); state.SessionToken != "" || state.User != nil {
		t.Fatalf("expected state unchanged, got %+v", state)
	}
}

func TestManagerHandleRedirectExchangeFails(t *testing.T) {
	backend := newMockBackend()
	store := NewMemoryTokenStore()
	mgr := newTestManager(backend, store, nil)

	if mgr.HandleRedirectURL(context.Background(), "memorymakers://auth#session_id=unknown") {
		t.Fatalf("expected no session on failed exchange")
	}
	if state := mgr.Snapshot(); state.SessionToken != "" || state.User != nil {
		t.Fatalf("expected anonymous state after failed exchange")
	}
	persisted, _ := store.Load(context.Background())
	if persisted != "" {
		t.Fatalf("expected nothing persisted after failed exchange")
	}

	// Un canje fallido no marca el session_id como consumido: reintentar
	// vuelve a llegar al backend.
	mgr.HandleRedirectURL(context.Background(), "memorymakers://auth#session_id=unknown")
	if backend.exchangeCalls != 2 {
		t.Fatalf("expected retry to reach backend, got %d calls", backend.exchangeCalls)
	}
}

func TestManagerLoginWithCredentials(t *testing.T) {
	backend := newMockBackend()
	backend.loginResult = appclient.LoginResult{
		SessionToken: "tok-login",
		User:         testUser("user@example.com"),
	}
	store := NewMemoryTokenStore()
	mgr := newTestManager(backend, store, nil)

	user, err := mgr.LoginWithCredentials(context.Background(), "user@example.com", "secret1")
	if err != nil {
		t.Fatalf("expected login success, got %v", err)
	}
	if user.Email != "user@example.com" {
		t.Fatalf("unexpected user %+v", user)
	}

	state := mgr.Snapshot()
	if state.SessionToken != "tok-login" || state.User == nil {
		t.Fatalf("expected session established, got %+v", state)
	}
	persisted, _ := store.Load(context.Background())
	if persisted != "tok-login" {
		t.Fatalf("expected token persisted, got %q", persisted)
	}
}

func TestManagerLoginFailureLeavesStateUntouched(t *testing.T) {
	backend := newMockBackend()
	backend.loginErr = &appclient.APIError{Status: 401, Detail: "Invalid email or password"}
	mgr := newTestManager(backend, NewMemoryTokenStore(), nil)

	_, err := mgr.LoginWithCredentials(context.Background(), "user@example.com", "wrong")
	var apiErr *appclient.APIError
	if !errors.As(err, &apiErr) || apiErr.Detail != "Invalid email or password" {
		t.Fatalf("expected backend detail surfaced verbatim, got %v", err)
	}
	if state := mgr.Snapshot(); state.SessionToken != "" || state.User != nil {
		t.Fatalf("expected no session after failed login")
	}
}

func TestManagerRegisterShortPasswordNoNetwork(t *testing.T) {
	backend := newMockBackend()
	mgr := newTestManager(backend, NewMemoryTokenStore(), nil)

	_, err := mgr.Register(context.Background(), "a@b.com", "five5", "Ann")
	if !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}
	if backend.registerCalls != 0 {
		t.Fatalf("expected short password rejected before any network call")
	}
}

func TestManagerRegisterScenario(t *testing.T) {
	user := testUser("a@b.com")
	user.Name = "Ann"
	backend := newMockBackend()
	backend.registerResult = appclient.LoginResult{SessionToken: "tok1", User: user}
	backend.meUsers["tok1"] = user
	store := NewMemoryTokenStore()
	mgr := newTestManager(backend, store, nil)

	got, err := mgr.Register(context.Background(), "a@b.com", "secret1", "Ann")
	if err != nil {
		t.Fatalf("expected register success, got %v", err)
	}
	if got.Email != "a@b.com" {
		t.Fatalf("unexpected user %+v", got)
	}
	if backend.registerCalls != 1 {
		t.Fatalf("expected register call to proceed")
	}

	persisted, _ := store.Load(context.Background())
	if persisted != "tok1" {
		t.Fatalf("expected storage to hold tok1, got %q", persisted)
	}

	mgr.RefreshUser(context.Background())
	state := mgr.Snapshot()
	if state.User == nil || state.User.Email != "a@b.com" {
		t.Fatalf("expected profile via bearer tok1, got %+v", state.User)
	}
}

func TestManagerRefreshUserWithoutSession(t *testing.T) {
	backend := newMockBackend()
	mgr := newTestManager(backend, NewMemoryTokenStore(), nil)

	mgr.RefreshUser(context.Background())
	if backend.meCalls != 0 {
		t.Fatalf("expected refresh to be a no-op without session")
	}
}

func TestManagerLogoutClearsDespiteBackendFailure(t *testing.T) {
	backend := newMockBackend()
	backend.loginResult = appclient.LoginResult{
		SessionToken: "tok-login",
		User:         testUser("user@example.com"),
	}
	backend.logoutErr = errors.New("connection reset")
	store := NewMemoryTokenStore()
	mgr := newTestManager(backend, store, nil)

	if _, err := mgr.LoginWithCredentials(context.Background(), "user@example.com", "secret1"); err != nil {
		t.Fatalf("login: %v", err)
	}

	mgr.Logout(context.Background())

	if backend.logoutCalls != 1 {
		t.Fatalf("expected backend notified")
	}
	if state := mgr.Snapshot(); state.SessionToken != "" || state.User != nil {
		t.Fatalf("expected local state cleared despite backend failure, got %+v", state)
	}
	persisted, _ := store.Load(context.Background())
	if persisted != "" {
		t.Fatalf("expected persisted token cleared, got %q", persisted)
	}
}

func TestManagerLoginWithBrowserCancelled(t *testing.T) {
	backend := newMockBackend()
	browser := &mockBrowser{err: ErrLoginCancelled}
	mgr := newTestManager(backend, NewMemoryTokenStore(), browser)

	established, err := mgr.LoginWithBrowser(context.Background())
	if err != nil {
		t.Fatalf("expected cancellation to be silent, got %v", err)
	}
	if established {
		t.Fatalf("expected no session on cancellation")
	}
}

func TestManagerLoginWithBrowserSuccess(t *testing.T) {
	backend := newMockBackend()
	backend.exchangeTokens["from-browser"] = "tok-browser"
	backend.meUsers["tok-browser"] = testUser("user@example.com")
	browser := &mockBrowser{callbackURL: "memorymakers://auth#session_id=from-browser"}
	mgr := newTestManager(backend, NewMemoryTokenStore(), browser)

	established, err := mgr.LoginWithBrowser(context.Background())
	if err != nil {
		t.Fatalf("expected browser login success, got %v", err)
	}
	if !established {
		t.Fatalf("expected session established from browser callback")
	}
	if state := mgr.Snapshot(); state.SessionToken != "tok-browser" {
		t.Fatalf("expected browser token, got %q", state.SessionToken)
	}
}

func TestManagerAuthorizeURLEmbedsRedirect(t *testing.T) {
	mgr := newTestManager(newMockBackend(), NewMemoryTokenStore(), nil)
	got := mgr.AuthorizeURL()
	want := "https://id.example.com/authorize?redirect=memorymakers%3A%2F%2Fauth"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
