package shared

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// AuthorizationGate grants out-of-band capabilities such as the advanced
// discount unlock. Implementations own the secret; callers only learn
// pass/fail.
type AuthorizationGate interface {
	UnlockAdvancedDiscount(ctx context.Context, sess Session, secret string) (bool, error)
}

// BcryptGate checks the unlock code against a bcrypt hash held in
// configuration. The session must also carry the settings capability, so the
// code alone is never sufficient.
type BcryptGate struct {
	unlockHash []byte
}

// NewBcryptGate builds a gate from the configured hash. An empty hash
// disables the unlock entirely.
func NewBcryptGate(unlockHash string) (*BcryptGate, error) {
	if unlockHash != "" {
		if _, err := bcrypt.Cost([]byte(unlockHash)); err != nil {
			return nil, errors.New("authz: unlock hash is not a bcrypt hash")
		}
	}
	return &BcryptGate{unlockHash: []byte(unlockHash)}, nil
}

// UnlockAdvancedDiscount implements AuthorizationGate.
func (g *BcryptGate) UnlockAdvancedDiscount(_ context.Context, sess Session, secret string) (bool, error) {
	if len(g.unlockHash) == 0 {
		return false, nil
	}
	if !sess.Allow(PermManageSettings) {
		return false, nil
	}
	if err := bcrypt.CompareHashAndPassword(g.unlockHash, []byte(secret)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
