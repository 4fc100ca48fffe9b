package service

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"memory-makers/internal/domain"
	"memory-makers/internal/identity"
	"memory-makers/internal/repository"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPasswordTooShort   = errors.New("password too short")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrPasswordlessUser   = errors.New("account has no password")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
	ErrUserNotFound       = errors.New("user not found")
	ErrRateLimited        = errors.New("rate limited")
	ErrSessionIDRequired  = errors.New("session id required")
)

const (
	// MinPasswordLength es el mínimo aceptado en registro, validado también
	// del lado del cliente antes de tocar la red.
	MinPasswordLength = 6

	friendCodeLength   = 5
	friendCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// AuthService coordina registro, login, canje de session_id y sesiones.
type AuthService struct {
	logger     *zap.Logger
	users      repository.UserRepository
	sessions   repository.SessionRepository
	cache      SessionCache
	provider   identity.Provider
	limiter    LoginRateLimiter
	sessionTTL time.Duration
}

func NewAuthService(
	logger *zap.Logger,
	users repository.UserRepository,
	sessions repository.SessionRepository,
	cache SessionCache,
	provider identity.Provider,
	limiter LoginRateLimiter,
	sessionTTL time.Duration,
) *AuthService {
	if cache == nil {
		cache = NewMemorySessionCache()
	}
	if sessionTTL <= 0 {
		sessionTTL = 7 * 24 * time.Hour
	}
	return &AuthService{
		logger:     logger,
		users:      users,
		sessions:   sessions,
		cache:      cache,
		provider:   provider,
		limiter:    limiter,
		sessionTTL: sessionTTL,
	}
}

// Register crea una cuenta con email/password y emite su primera sesión.
func (s *AuthService) Register(ctx context.Context, emailAddr, password, name string) (domain.User, domain.Session, error) {
	emailAddr = normalizeEmail(emailAddr)
	name = strings.TrimSpace(name)
	if emailAddr == "" {
		return domain.User{}, domain.Session{}, ErrInvalidEmail
	}
	if len(password) < MinPasswordLength {
		return domain.User{}, domain.Session{}, ErrPasswordTooShort
	}

	_, err := s.users.GetByEmail(ctx, emailAddr)
	if err == nil {
		return domain.User{}, domain.Session{}, ErrEmailTaken
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.Session{}, err
	}

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, domain.Session{}, err
	}

	code, err := s.uniqueFriendCode(ctx)
	if err != nil {
		return domain.User{}, domain.Session{}, err
	}

	user := domain.User{
		ID:           newUserID(),
		Email:        emailAddr,
		Name:         name,
		FriendCode:   code,
		PasswordHash: string(hashBytes),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return domain.User{}, domain.Session{}, err
	}

	session, err := s.issueSession(ctx, user.ID, newSessionToken())
	if err != nil {
		return domain.User{}, domain.Session{}, err
	}
	return user, session, nil
}

// Login valida credenciales y emite una sesión nueva.
func (s *AuthService) Login(ctx context.Context, emailAddr, password string) (domain.User, domain.Session, error) {
	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" || password == "" {
		return domain.User{}, domain.Session{}, ErrInvalidCredentials
	}

	if s.limiter != nil && !s.limiter.Allow(emailAddr) {
		return domain.User{}, domain.Session{}, ErrRateLimited
	}

	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.Session{}, ErrInvalidCredentials
		}
		return domain.User{}, domain.Session{}, err
	}
	if user.PasswordHash == "" {
		// Cuenta creada solo por proveedor externo.
		return domain.User{}, domain.Session{}, ErrPasswordlessUser
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return domain.User{}, domain.Session{}, ErrInvalidCredentials
	}

	session, err := s.issueSession(ctx, user.ID, newSessionToken())
	if err != nil {
		return domain.User{}, domain.Session{}, err
	}
	return user, session, nil
}

// ExchangeSession canjea un session_id del proveedor externo, crea la cuenta
// si no existe y guarda el token emitido por el proveedor.
func (s *AuthService) ExchangeSession(ctx context.Context, sessionID string) (identity.SessionData, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return identity.SessionData{}, ErrSessionIDRequired
	}
	if s.provider == nil {
		return identity.SessionData{}, errors.New("identity provider not configured")
	}

	data, err := s.provider.ExchangeSession(ctx, sessionID)
	if err != nil {
		return identity.SessionData{}, err
	}

	emailAddr := normalizeEmail(data.Email)
	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return identity.SessionData{}, err
		}
		code, err := s.uniqueFriendCode(ctx)
		if err != nil {
			return identity.SessionData{}, err
		}
		user = domain.User{
			ID:         newUserID(),
			Email:      emailAddr,
			Name:       data.Name,
			FriendCode: code,
			CreatedAt:  time.Now().UTC(),
		}
		if data.Picture != "" {
			picture := data.Picture
			user.Picture = &picture
		}
		if err := s.users.Create(ctx, user); err != nil {
			return identity.SessionData{}, err
		}
	}

	if _, err := s.issueSession(ctx, user.ID, data.SessionToken); err != nil {
		return identity.SessionData{}, err
	}
	return data, nil
}

// CurrentUser resuelve un bearer token a su perfil. Es el único camino que
// degrada una sesión existente por invalidez en lugar de logout explícito.
func (s *AuthService) CurrentUser(ctx context.Context, token string) (domain.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.User{}, ErrSessionNotFound
	}

	session, ok := s.cache.Get(token)
	if !ok {
		var err error
		session, err = s.sessions.GetByToken(ctx, token)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.User{}, ErrSessionNotFound
			}
			return domain.User{}, err
		}
		s.cache.Put(session)
	}

	if session.Expired(time.Now().UTC()) {
		s.cache.Invalidate(token)
		return domain.User{}, ErrSessionExpired
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

// Logout elimina la sesión asociada al token. Idempotente.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	s.cache.Invalidate(token)
	return s.sessions.DeleteByToken(ctx, token)
}

func (s *AuthService) issueSession(ctx context.Context, userID, token string) (domain.Session, error) {
	now := time.Now().UTC()
	session := domain.Session{
		UserID:    userID,
		Token:     token,
		ExpiresAt: now.Add(s.sessionTTL),
		CreatedAt: now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return domain.Session{}, err
	}
	s.cache.Put(session)
	return session, nil
}

func (s *AuthService) uniqueFriendCode(ctx context.Context) (string, error) {
	for {
		code, err := generateFriendCode()
		if err != nil {
			return "", err
		}
		_, err = s.users.GetByFriendCode(ctx, code)
		if errors.Is(err, pgx.ErrNoRows) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
	}
}

func generateFriendCode() (string, error) {
	code := make([]byte, friendCodeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(friendCodeAlphabet))))
		if err != nil {
			return "", err
		}
		code[i] = friendCodeAlphabet[n.Int64()]
	}
	return string(code), nil
}

func newUserID() string {
	return "user_" + uuidHex()[:12]
}

func newSessionToken() string {
	return "session_" + uuidHex()
}

func uuidHex() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
