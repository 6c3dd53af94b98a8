package directory

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Authenticator verifies operator credentials against the registry's
// stored bcrypt hashes.
type Authenticator struct {
	store *Store
}

// NewAuthenticator creates an authenticator backed by the given store.
func NewAuthenticator(store *Store) *Authenticator {
	return &Authenticator{store: store}
}

// Verify checks a submitted credential for the given matricula. An
// unknown matricula or a mismatched credential verifies as false
// without error; only infrastructure failures produce an error.
func (a *Authenticator) Verify(ctx context.Context, matricula, credential string) (bool, error) {
	e, err := a.store.FindByMatricula(ctx, matricula)
	if err != nil {
		return false, err
	}
	if e == nil || e.Senha == "" {
		return false, nil
	}

	err = bcrypt.CompareHashAndPassword([]byte(e.Senha), []byte(credential))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// HashPassword hashes a plaintext credential for storage in the
// registry.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
