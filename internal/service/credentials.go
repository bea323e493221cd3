package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Skotchmaster/finportal/internal/hash"
	"github.com/Skotchmaster/finportal/internal/repo"
)

// CredentialVerifier decides whether a password belongs to an account.
// Implementations return ErrInvalidCredentials on any mismatch.
type CredentialVerifier interface {
	Verify(ctx context.Context, email, password string) error
}

// PasswordVerifier checks bcrypt hashes held by the account store. Unknown,
// disabled and inactive accounts all fail the same way as a wrong password.
type PasswordVerifier struct {
	Accounts AccountStore
	Hasher   hash.Hasher

	dummyOnce sync.Once
	dummyHash string
}

func (v *PasswordVerifier) Verify(ctx context.Context, email, password string) error {
	const op = "service.PasswordVerifier.Verify"

	account, err := v.Accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrAccountNotFound) {
			// burn a comparison so response time does not reveal unknown emails
			v.Hasher.CheckPassword(v.dummy(), password)
			return ErrInvalidCredentials
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if !v.Hasher.CheckPassword(account.PasswordHash, password) {
		return ErrInvalidCredentials
	}
	if !account.Usable() {
		return ErrInvalidCredentials
	}
	return nil
}

func (v *PasswordVerifier) dummy() string {
	v.dummyOnce.Do(func() {
		v.dummyHash, _ = v.Hasher.HashPassword("dummy-password-for-timing")
	})
	return v.dummyHash
}
