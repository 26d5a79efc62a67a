// Package auth reports who is signed in to the dashboard.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"

	"restaurant-ops/internal/domain"
)

// DemoEmail is the identity reported when no real provider is configured.
const DemoEmail = "demo@resto.ai"

var (
	ErrNoSession    = errors.New("not signed in")
	ErrUnauthorized = errors.New("email not allowed")
)

type Provider interface {
	Session(ctx context.Context) (domain.Session, error)
	SignIn(ctx context.Context, email string) error
	SignOut(ctx context.Context) error
}

// Demo always reports the demo session; sign-in and sign-out succeed without
// effect.
type Demo struct{}

func (Demo) Session(context.Context) (domain.Session, error) {
	return domain.Session{Email: DemoEmail, Demo: true}, nil
}

func (Demo) SignIn(context.Context, string) error { return nil }
func (Demo) SignOut(context.Context) error        { return nil }

// Static admits a single operator email and keeps one session in memory.
type Static struct {
	allowed string

	mu      sync.RWMutex
	current string
}

func NewStatic(allowed string) *Static {
	return &Static{allowed: normalize(allowed)}
}

func (s *Static) Session(context.Context) (domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == "" {
		return domain.Session{}, ErrNoSession
	}
	return domain.Session{Email: s.current}, nil
}

func (s *Static) SignIn(_ context.Context, email string) error {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return fmt.Errorf("email %q: %w", email, domain.ErrInvalidInput)
	}
	got := normalize(addr.Address)
	if got != s.allowed {
		return fmt.Errorf("%s: %w", got, ErrUnauthorized)
	}
	s.mu.Lock()
	s.current = got
	s.mu.Unlock()
	return nil
}

func (s *Static) SignOut(context.Context) error {
	s.mu.Lock()
	s.current = ""
	s.mu.Unlock()
	return nil
}

func normalize(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// FromEmail returns the Static provider for a configured operator email and
// the Demo provider when none is set.
func FromEmail(email string) Provider {
	if normalize(email) == "" {
		return Demo{}
	}
	return NewStatic(email)
}
