package identity

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	appErrors "github.com/noah-isme/student-console-api/pkg/errors"
)

// StaticProvider verifies credentials against bcrypt hashes configured
// locally. Used for development and bootstrap environments without a
// reachable identity service.
type StaticProvider struct {
	hashes map[string]string
}

// NewStaticProvider parses "email:bcrypt-hash" pairs.
func NewStaticProvider(pairs []string) (*StaticProvider, error) {
	hashes := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		email, hash, ok := strings.Cut(pair, ":")
		if !ok || email == "" || hash == "" {
			return nil, fmt.Errorf("malformed static user entry %q", pair)
		}
		hashes[strings.ToLower(strings.TrimSpace(email))] = hash
	}
	return &StaticProvider{hashes: hashes}, nil
}

// SignIn compares the password against the configured hash.
func (p *StaticProvider) SignIn(ctx context.Context, email, password string) (*Identity, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	hash, ok := p.hashes[normalized]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
	}
	return &Identity{Subject: normalized, Email: normalized}, nil
}
