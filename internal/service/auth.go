package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Skotchmaster/finportal/internal/events"
	"github.com/Skotchmaster/finportal/internal/hash"
	"github.com/Skotchmaster/finportal/internal/logging"
	"github.com/Skotchmaster/finportal/internal/models"
	"github.com/Skotchmaster/finportal/internal/passwordpolicy"
	"github.com/Skotchmaster/finportal/internal/repo"
	"github.com/Skotchmaster/finportal/internal/revocation"
	"github.com/Skotchmaster/finportal/internal/tokens"
)

// AccountStore is the user-lookup collaborator.
type AccountStore interface {
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	Exists(ctx context.Context, email string) (bool, error)
	CreateIfNotExists(ctx context.Context, a *models.Account) error
	UpdatePasswordHash(ctx context.Context, email, passwordHash string) error
}

type AuthService struct {
	Accounts    AccountStore
	Credentials CredentialVerifier
	Codec       *tokens.Codec
	Revocations *revocation.Store
	Hasher      hash.Hasher
	Events      events.Publisher
	DefaultRole string

	credOnce sync.Once
}

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

type RegisterResult struct {
	Token   string
	Account *models.Account
}

type LoginResult struct {
	Token string
	ID    uint
	Email string
	Role  string
}

type ValidationResult struct {
	Valid  bool   `json:"valid"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role,omitempty"`
	Reason string `json:"-"`
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	const op = "service.Register"
	l := logging.FromContext(ctx).With("svc", "auth.register")

	email := NormalizeEmail(in.Email)
	if email == "" || in.Password == "" || strings.TrimSpace(in.FirstName) == "" || strings.TrimSpace(in.LastName) == "" {
		return nil, fmt.Errorf("%s: %w: email, password, first and last name are required", op, ErrValidation)
	}

	exists, err := s.Accounts.Exists(ctx, email)
	if err != nil {
		l.Error("register_error", "reason", "account lookup failed", "error", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if exists {
		l.Warn("register_error", "reason", "account already exists")
		return nil, ErrDuplicateAccount
	}

	if err := passwordpolicy.Validate(in.Password); err != nil {
		l.Warn("register_error", "reason", "password policy", "error", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	pwHash, err := s.Hasher.HashPassword(in.Password)
	if err != nil {
		l.Error("register_error", "reason", "cannot hash the password", "error", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	account := &models.Account{
		Email:        email,
		PasswordHash: pwHash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Role:         s.defaultRole(),
		Enabled:      true,
		Active:       true,
	}
	if err := s.Accounts.CreateIfNotExists(ctx, account); err != nil {
		if errors.Is(err, repo.ErrAccountExists) {
			l.Warn("register_error", "reason", "account already exists")
			return nil, ErrDuplicateAccount
		}
		l.Error("register_error", "reason", "cannot create account", "error", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	token, err := s.Codec.Issue(account.Email, account.Role)
	if err != nil {
		l.Error("register_error", "reason", "cannot issue token", "error", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.publish(ctx, events.TypeRegistered, account.Email, account.Role)
	l.Info("register_successful", "account_id", account.ID)

	return &RegisterResult{Token: token, Account: account}, nil
}

func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*LoginResult, error) {
	const op = "service.Authenticate"
	l := logging.FromContext(ctx).With("svc", "auth.login")

	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	if err := s.credentials().Verify(ctx, email, password); err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			l.Warn("login_failed", "reason", "invalid credentials")
			return nil, ErrInvalidCredentials
		}
		l.Error("login_failed", "reason", "credential check failed", "error", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	account, err := s.Accounts.FindByEmail(ctx, email)
	if err != nil {
		l.Error("login_failed", "reason", "account vanished after credential check", "error", err)
		return nil, ErrAccountNotFound
	}

	token, err := s.Codec.Issue(account.Email, account.Role)
	if err != nil {
		l.Error("login_failed", "reason", "cannot issue token", "error", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.publish(ctx, events.TypeLoggedIn, account.Email, account.Role)
	l.Info("login_successful", "account_id", account.ID)

	return &LoginResult{Token: token, ID: account.ID, Email: account.Email, Role: account.Role}, nil
}

// Refresh rotates oldToken: the old token is revoked before the new one is
// issued, and only one caller can win that revocation. The new token carries
// the account's current role, and unusable accounts cannot rotate.
func (s *AuthService) Refresh(ctx context.Context, oldToken string) (string, error) {
	const op = "service.Refresh"
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	if s.Revocations.IsRevoked(oldToken) {
		l.Warn("refresh_failed", "reason", "token revoked")
		return "", ErrTokenRevoked
	}

	claims, err := s.Codec.Verify(oldToken)
	if err != nil {
		l.Warn("refresh_failed", "reason", "token malformed", "error", err)
		return "", fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if s.Codec.ClaimsExpired(claims) {
		l.Warn("refresh_failed", "reason", "token expired")
		return "", fmt.Errorf("%w: token expired", ErrTokenInvalid)
	}

	account, err := s.Accounts.FindByEmail(ctx, claims.Email())
	if err != nil {
		if errors.Is(err, repo.ErrAccountNotFound) {
			l.Warn("refresh_failed", "reason", "account not found")
			return "", fmt.Errorf("%w: account not found", ErrTokenInvalid)
		}
		l.Error("refresh_failed", "reason", "account lookup failed", "error", err)
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if !account.Usable() {
		l.Warn("refresh_failed", "reason", "account disabled or inactive")
		return "", fmt.Errorf("%w: account disabled or inactive", ErrTokenInvalid)
	}

	if !s.Revocations.TryRevoke(oldToken, claims.ExpiresAtTime()) {
		l.Warn("refresh_failed", "reason", "token revoked concurrently")
		return "", ErrTokenRevoked
	}

	token, err := s.Codec.Issue(account.Email, account.Role)
	if err != nil {
		l.Error("refresh_failed", "reason", "cannot issue token", "error", err)
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.publish(ctx, events.TypeTokenRefreshed, account.Email, account.Role)
	return token, nil
}

// Revoke blacklists token until its natural expiry. Malformed and already
// expired tokens fail with ErrTokenInvalid since they grant nothing.
func (s *AuthService) Revoke(ctx context.Context, token string) error {
	claims, err := s.Codec.Verify(token)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if s.Codec.ClaimsExpired(claims) {
		return fmt.Errorf("%w: token expired", ErrTokenInvalid)
	}

	s.Revocations.Revoke(token, claims.ExpiresAtTime())
	s.publish(ctx, events.TypeLoggedOut, claims.Email(), claims.Role)
	return nil
}

// Logout is Revoke for callers that do not care whether there was anything
// to revoke.
func (s *AuthService) Logout(ctx context.Context, token string) {
	l := logging.FromContext(ctx).With("svc", "auth.logout")

	if err := s.Revoke(ctx, token); err != nil {
		l.Debug("logout_noop", "error", err)
		return
	}
	l.Info("successful_logout")
}

// ChangePassword replaces the stored hash. Tokens issued before the change
// stay valid until they expire or are revoked.
func (s *AuthService) ChangePassword(ctx context.Context, email, currentPassword, newPassword string) error {
	const op = "service.ChangePassword"
	l := logging.FromContext(ctx).With("svc", "auth.change_password")

	email = NormalizeEmail(email)
	if email == "" || currentPassword == "" {
		return ErrInvalidCredentials
	}

	if err := s.credentials().Verify(ctx, email, currentPassword); err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			l.Warn("change_password_failed", "reason", "invalid credentials")
			return ErrInvalidCredentials
		}
		l.Error("change_password_failed", "reason", "credential check failed", "error", err)
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := passwordpolicy.Validate(newPassword); err != nil {
		l.Warn("change_password_failed", "reason", "password policy", "error", err)
		return fmt.Errorf("%s: %w", op, err)
	}

	pwHash, err := s.Hasher.HashPassword(newPassword)
	if err != nil {
		l.Error("change_password_failed", "reason", "cannot hash the password", "error", err)
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.Accounts.UpdatePasswordHash(ctx, email, pwHash); err != nil {
		if errors.Is(err, repo.ErrAccountNotFound) {
			return ErrAccountNotFound
		}
		l.Error("change_password_failed", "reason", "cannot persist hash", "error", err)
		return fmt.Errorf("%s: %w", op, err)
	}

	s.publish(ctx, events.TypePasswordChanged, email, "")
	l.Info("change_password_successful")
	return nil
}

// Validate never fails; any problem yields Valid=false.
func (s *AuthService) Validate(ctx context.Context, token string) ValidationResult {
	if token == "" {
		return ValidationResult{Reason: "missing token"}
	}
	if s.Revocations.IsRevoked(token) {
		return ValidationResult{Reason: "revoked"}
	}
	claims, err := s.Codec.Verify(token)
	if err != nil {
		return ValidationResult{Reason: "malformed"}
	}
	if s.Codec.ClaimsExpired(claims) {
		return ValidationResult{Reason: "expired"}
	}
	return ValidationResult{Valid: true, Email: claims.Email(), Role: claims.Role}
}

func (s *AuthService) defaultRole() string {
	if s.DefaultRole == "" {
		return models.RoleClient
	}
	return strings.ToUpper(s.DefaultRole)
}

func (s *AuthService) credentials() CredentialVerifier {
	s.credOnce.Do(func() {
		if s.Credentials == nil {
			s.Credentials = &PasswordVerifier{Accounts: s.Accounts, Hasher: s.Hasher}
		}
	})
	return s.Credentials
}

func (s *AuthService) publish(ctx context.Context, typ, email, role string) {
	if s.Events == nil {
		return
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	e := events.Event{Type: typ, Email: email, Role: role, At: s.Codec.Now().UTC()}
	if err := s.Events.Publish(pubCtx, e); err != nil {
		logging.FromContext(ctx).Error("kafka publish error", "type", typ, "error", err)
	}
}
