package auth

import (
	"context"
	"crypto/subtle"
	"errors"
)

// ErrInvalidCredentials is returned for any authentication failure. The
// caller cannot tell a wrong email from a wrong password.
var ErrInvalidCredentials = errors.New("invalid email or password")

// Provider checks a credential pair. The dashboard ships with the fixed
// single-account provider; swapping in a user store only touches this
// interface.
type Provider interface {
	Authenticate(ctx context.Context, email, password string) error
}

// FixedProvider authenticates exactly one configured account.
type FixedProvider struct {
	email    string
	password string
}

func NewFixedProvider(email, password string) *FixedProvider {
	return &FixedProvider{email: email, password: password}
}

// Authenticate compares in constant time so response timing does not leak
// which half of the pair was wrong.
func (p *FixedProvider) Authenticate(_ context.Context, email, password string) error {
	if p.email == "" || p.password == "" {
		return ErrInvalidCredentials
	}
	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(p.email))
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(p.password))
	if emailOK&passOK != 1 {
		return ErrInvalidCredentials
	}
	return nil
}
