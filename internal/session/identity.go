package session

import (
	"strings"
	"sync"

	"github.com/tradehubhq/tradehub-go/pkg/auth"
	"github.com/tradehubhq/tradehub-go/pkg/config"
	"github.com/tradehubhq/tradehub-go/pkg/enums"
)

// Identity is the authenticated user snapshot supplied by the auth provider.
// The marketplace only acts on ID; the remaining fields are display data.
type Identity struct {
	ID          string
	DisplayName string
	Email       string
	PhotoURL    string
}

// Actor pairs an identity with its marketplace role for permission checks.
// A zero-value Role means the binding is unknown, not that the user has none.
type Actor struct {
	ID   string
	Role enums.Role
}

// Provider exposes the current sign-in state and change notifications.
// A nil CurrentUser means no one is signed in.
type Provider interface {
	CurrentUser() *Identity
	OnChange(fn func(*Identity)) (unsubscribe func())
}

// StaticProvider is an in-process Provider driven by explicit SignIn and
// SignOut calls. It backs the CLI and tests; a real deployment swaps in an
// adapter over its identity service.
type StaticProvider struct {
	mu        sync.Mutex
	current   *Identity
	listeners map[int]func(*Identity)
	nextID    int
}

// NewStaticProvider returns a provider with no one signed in.
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{listeners: map[int]func(*Identity){}}
}

// CurrentUser returns a copy of the signed-in identity, or nil.
func (p *StaticProvider) CurrentUser() *Identity {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return nil
	}
	copied := *p.current
	return &copied
}

// SignIn records the identity and notifies subscribers.
func (p *StaticProvider) SignIn(identity Identity) {
	p.mu.Lock()
	p.current = &identity
	listeners := p.snapshotListeners()
	p.mu.Unlock()

	copied := identity
	for _, fn := range listeners {
		fn(&copied)
	}
}

// SignOut clears the identity and notifies subscribers.
func (p *StaticProvider) SignOut() {
	p.mu.Lock()
	p.current = nil
	listeners := p.snapshotListeners()
	p.mu.Unlock()

	for _, fn := range listeners {
		fn(nil)
	}
}

// OnChange registers a sign-in state listener and returns its unsubscribe.
func (p *StaticProvider) OnChange(fn func(*Identity)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.listeners, id)
	}
}

func (p *StaticProvider) snapshotListeners() []func(*Identity) {
	out := make([]func(*Identity), 0, len(p.listeners))
	for _, fn := range p.listeners {
		out = append(out, fn)
	}
	return out
}

// IdentityFromToken derives an identity from a signed session token.
func IdentityFromToken(cfg config.SessionConfig, token string) (*Identity, error) {
	claims, err := auth.ParseSessionToken(cfg, strings.TrimSpace(token))
	if err != nil {
		return nil, err
	}
	return &Identity{
		ID:          claims.UserID,
		DisplayName: claims.DisplayName,
		Email:       claims.Email,
		PhotoURL:    claims.PhotoURL,
	}, nil
}

// TokenProvider builds a StaticProvider already signed in as the identity
// carried by the given session token.
func TokenProvider(cfg config.SessionConfig, token string) (*StaticProvider, error) {
	identity, err := IdentityFromToken(cfg, token)
	if err != nil {
		return nil, err
	}
	provider := NewStaticProvider()
	provider.SignIn(*identity)
	return provider, nil
}
