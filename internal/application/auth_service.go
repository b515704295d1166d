package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// CredentialStore exposes user credential lookup operations required by the auth service.
type CredentialStore interface {
	GetUserCredentialsByEmail(ctx context.Context, email string) (UserCredentials, error)
	GetUser(ctx context.Context, id string) (User, error)
}

// AccountStore extends CredentialStore with account lifecycle writes.
type AccountStore interface {
	CredentialStore
	// CreateAccount returns ErrAlreadyExists when the email is taken.
	CreateAccount(ctx context.Context, credentials UserCredentials) (User, error)
	DeleteUser(ctx context.Context, id string) error
}

// SessionRepository captures the persistence interactions for issued sessions.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	UpdateSession(ctx context.Context, session Session) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	RevokeUserSessions(ctx context.Context, userID string, revokedAt time.Time) error
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}

// FriendRemover drops a user from every friend list that references it.
type FriendRemover interface {
	RemoveFriendEverywhere(ctx context.Context, friendUID string) error
}

// AuthServiceDeps bundles the collaborators of an AuthService.
// Grids, Friends and Cache are only used when deleting an account and may be nil.
type AuthServiceDeps struct {
	Accounts       AccountStore
	Sessions       SessionRepository
	Grids          GridStore
	Friends        FriendRemover
	Cache          GridCache
	HashPassword   PasswordHasher
	VerifyPassword PasswordVerifier
	IDGenerator    func() string
	TokenGenerator func() string
	Now            func() time.Time
	SessionTTL     time.Duration
}

// AuthService coordinates account registration, login and session lifecycle.
type AuthService struct {
	accounts       AccountStore
	sessions       SessionRepository
	grids          GridStore
	friends        FriendRemover
	cache          GridCache
	hashPassword   PasswordHasher
	verifyPassword PasswordVerifier
	idGenerator    func() string
	tokenGenerator func() string
	now            func() time.Time
	sessionTTL     time.Duration
	logger         *slog.Logger
}

// NewAuthService constructs an AuthService with the provided dependencies.
func NewAuthService(deps AuthServiceDeps) *AuthService {
	return NewAuthServiceWithLogger(deps, nil)
}

// NewAuthServiceWithLogger constructs an AuthService with a specified logger.
func NewAuthServiceWithLogger(deps AuthServiceDeps, logger *slog.Logger) *AuthService {
	if deps.HashPassword == nil {
		deps.HashPassword = HashPassword
	}
	if deps.VerifyPassword == nil {
		deps.VerifyPassword = VerifyPassword
	}
	if deps.TokenGenerator == nil {
		deps.TokenGenerator = func() string { return "" }
	}
	if deps.IDGenerator == nil {
		deps.IDGenerator = deps.TokenGenerator
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.SessionTTL <= 0 {
		deps.SessionTTL = 24 * time.Hour
	}
	if deps.Cache == nil {
		deps.Cache = NoopGridCache{}
	}
	return &AuthService{
		accounts:       deps.Accounts,
		sessions:       deps.Sessions,
		grids:          deps.Grids,
		friends:        deps.Friends,
		cache:          deps.Cache,
		hashPassword:   deps.HashPassword,
		verifyPassword: deps.VerifyPassword,
		idGenerator:    deps.IDGenerator,
		tokenGenerator: deps.TokenGenerator,
		now:            deps.Now,
		sessionTTL:     deps.SessionTTL,
		logger:         defaultLogger(logger),
	}
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

// SignUp registers a new account and signs it in.
func (s *AuthService) SignUp(ctx context.Context, params SignUpParams) (result AuthenticateResult, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.accounts == nil {
		err = fmt.Errorf("account store not configured")
		return
	}

	params.Email = normalizeEmail(params.Email)
	params.Name = strings.TrimSpace(params.Name)

	logger := s.loggerWith(ctx, "SignUp", "email", params.Email)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "sign up failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"user_id", result.User.ID,
			"session_id", result.Session.ID,
		).InfoContext(ctx, "account created")
	}()

	if err = validateStruct(params).errOrNil(); err != nil {
		return
	}

	if _, lookupErr := s.accounts.GetUserCredentialsByEmail(ctx, params.Email); lookupErr == nil {
		err = ErrAlreadyExists
		return
	} else if !errors.Is(lookupErr, ErrNotFound) {
		err = lookupErr
		return
	}

	var hash string
	hash, err = s.hashPassword(params.Password)
	if err != nil {
		err = fmt.Errorf("hash password: %w", err)
		return
	}

	now := s.now()
	var user User
	user, err = s.accounts.CreateAccount(ctx, UserCredentials{
		User: User{
			ID:        s.idGenerator(),
			Email:     params.Email,
			Name:      params.Name,
			CreatedAt: now,
			UpdatedAt: now,
		},
		PasswordHash: hash,
	})
	if err != nil {
		return
	}

	var session Session
	session, err = s.issueSession(ctx, user.ID, params.Fingerprint)
	if err != nil {
		return
	}

	result = AuthenticateResult{User: user, Session: session}
	return
}

// Authenticate validates credentials and issues a new session token.
func (s *AuthService) Authenticate(ctx context.Context, params AuthenticateParams) (result AuthenticateResult, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.accounts == nil {
		err = fmt.Errorf("account store not configured")
		return
	}

	email := normalizeEmail(params.Email)
	password := params.Password

	logger := s.loggerWith(ctx, "Authenticate",
		"email", email,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "authentication failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"user_id", result.User.ID,
			"session_id", result.Session.ID,
		).InfoContext(ctx, "authentication succeeded")
	}()

	if email == "" || password == "" {
		err = ErrInvalidCredentials
		return
	}

	var creds UserCredentials
	creds, err = s.accounts.GetUserCredentialsByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			err = ErrInvalidCredentials
			return
		}
		return
	}

	if err = s.verifyPassword(creds.PasswordHash, password); err != nil {
		err = ErrInvalidCredentials
		return
	}

	var session Session
	session, err = s.issueSession(ctx, creds.User.ID, params.Fingerprint)
	if err != nil {
		return
	}

	result = AuthenticateResult{User: creds.User, Session: session}
	return
}

func (s *AuthService) issueSession(ctx context.Context, userID, fingerprint string) (Session, error) {
	now := s.now()
	id := s.tokenGenerator()
	token := s.tokenGenerator()
	if token == "" {
		token = id
	}

	session := Session{
		ID:          id,
		UserID:      userID,
		Token:       token,
		Fingerprint: strings.TrimSpace(fingerprint),
		CreatedAt:   now,
		UpdatedAt:   now,
		ExpiresAt:   now.Add(s.sessionTTL),
	}

	if s.sessions == nil {
		return session, nil
	}
	if err := s.sessions.DeleteExpiredSessions(ctx, now); err != nil {
		return Session{}, err
	}
	return s.sessions.CreateSession(ctx, session)
}

// RefreshSession rotates an existing session token, extending its validity window.
func (s *AuthService) RefreshSession(ctx context.Context, params RefreshSessionParams) (result RefreshSessionResult, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.sessions == nil {
		err = fmt.Errorf("session repository not configured")
		return
	}

	token := strings.TrimSpace(params.Token)
	logger := s.loggerWith(ctx, "RefreshSession",
		"token_provided", token != "",
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "session refresh failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"session_id", result.Session.ID,
			"user_id", result.Session.UserID,
		).InfoContext(ctx, "session refreshed")
	}()

	if token == "" {
		err = ErrUnauthenticated
		return
	}

	var session Session
	session, err = s.activeSession(ctx, token)
	if err != nil {
		return
	}

	now := s.now()
	newToken := s.tokenGenerator()
	if newToken == "" {
		newToken = session.Token
	}

	session.Token = newToken
	session.UpdatedAt = now
	session.ExpiresAt = now.Add(s.sessionTTL)
	if fp := strings.TrimSpace(params.Fingerprint); fp != "" {
		session.Fingerprint = fp
	}

	session, err = s.sessions.UpdateSession(ctx, session)
	if err != nil {
		return
	}

	result = RefreshSessionResult{Session: session}
	return
}

// RevokeSession invalidates an existing session token.
func (s *AuthService) RevokeSession(ctx context.Context, token string) error {
	if s == nil {
		return fmt.Errorf("AuthService is nil")
	}
	if s.sessions == nil {
		return fmt.Errorf("session repository not configured")
	}

	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return ErrUnauthenticated
	}

	logger := s.loggerWith(ctx, "RevokeSession", "token_provided", trimmed != "")

	if _, err := s.sessions.RevokeSession(ctx, trimmed, s.now()); err != nil {
		if errors.Is(err, ErrNotFound) {
			logger.ErrorContext(ctx, "failed to revoke session", "error", ErrUnauthenticated, "error_kind", ErrorKind(ErrUnauthenticated))
			return ErrUnauthenticated
		}
		logger.ErrorContext(ctx, "failed to revoke session", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	if err := s.sessions.DeleteExpiredSessions(ctx, s.now()); err != nil {
		logger.ErrorContext(ctx, "failed to prune expired sessions", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	logger.InfoContext(ctx, "session revoked")
	return nil
}

// ValidateSession verifies that the provided token corresponds to an active session and returns its principal.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (principal Principal, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.sessions == nil {
		err = fmt.Errorf("session repository not configured")
		return
	}
	if s.accounts == nil {
		err = fmt.Errorf("account store not configured")
		return
	}

	trimmed := strings.TrimSpace(token)
	logger := s.loggerWith(ctx, "ValidateSession", "token_provided", trimmed != "")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "session validation failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("principal_id", principal.UserID).DebugContext(ctx, "session validated")
	}()

	if trimmed == "" {
		err = ErrUnauthenticated
		return
	}

	var session Session
	session, err = s.activeSession(ctx, trimmed)
	if err != nil {
		return
	}

	var user User
	user, err = s.accounts.GetUser(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			err = ErrUnauthenticated
		}
		return
	}

	principal = Principal{UserID: user.ID}
	return
}

func (s *AuthService) activeSession(ctx context.Context, token string) (Session, error) {
	session, err := s.sessions.GetSession(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Session{}, ErrUnauthenticated
		}
		return Session{}, err
	}

	now := s.now()
	if session.RevokedAt != nil && !session.RevokedAt.IsZero() {
		return Session{}, ErrSessionRevoked
	}
	if !session.ExpiresAt.IsZero() && !session.ExpiresAt.After(now) {
		return Session{}, ErrSessionExpired
	}
	return session, nil
}

// DeleteAccount removes the caller's grid, drops the caller from every friend list,
// revokes all of the caller's sessions and finally deletes the account itself.
func (s *AuthService) DeleteAccount(ctx context.Context, principal Principal) (err error) {
	if s == nil {
		return fmt.Errorf("AuthService is nil")
	}
	if s.accounts == nil {
		return fmt.Errorf("account store not configured")
	}

	userID := strings.TrimSpace(principal.UserID)
	logger := s.loggerWith(ctx, "DeleteAccount", "principal_id", userID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "account deletion failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "account deleted")
	}()

	if userID == "" {
		return ErrUnauthenticated
	}

	if s.grids != nil {
		if err = s.grids.DeleteGrid(ctx, userID); err != nil && !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("delete grid: %w", err)
		}
		err = nil
	}
	s.cache.Invalidate(ctx, userID)

	if s.friends != nil {
		if err = s.friends.RemoveFriendEverywhere(ctx, userID); err != nil {
			return fmt.Errorf("remove from friend lists: %w", err)
		}
	}

	if s.sessions != nil {
		if err = s.sessions.RevokeUserSessions(ctx, userID, s.now()); err != nil {
			return fmt.Errorf("revoke sessions: %w", err)
		}
	}

	return s.accounts.DeleteUser(ctx, userID)
}
