package session

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/tradehubhq/tradehub-go/internal/transport"
	"github.com/tradehubhq/tradehub-go/pkg/enums"
	pkgerrors "github.com/tradehubhq/tradehub-go/pkg/errors"
	"github.com/tradehubhq/tradehub-go/pkg/logger"
)

// RoleBinding associates an authenticated identity with its marketplace role.
// Exactly one binding exists per user; writes are upserts, last write wins.
type RoleBinding struct {
	UserID string     `json:"userId"`
	Role   enums.Role `json:"role"`
	Email  string     `json:"email,omitempty"`
	Name   string     `json:"name,omitempty"`
}

// RegisterInput is the payload for creating or replacing a role binding.
type RegisterInput struct {
	Role  enums.Role
	Email string
	Name  string
}

// Manager tracks the signed-in identity and its role binding. It refreshes
// the binding on every sign-in change so permission checks always see the
// latest known role.
type Manager struct {
	client   *transport.Client
	provider Provider
	logger   *logger.Logger

	mu          sync.Mutex
	identity    *Identity
	role        enums.Role
	roleKnown   bool
	unsubscribe func()
}

// NewManager wires a session manager over the provider and hub client.
func NewManager(client *transport.Client, provider Provider, logg *logger.Logger) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("hub client required")
	}
	if provider == nil {
		return nil, fmt.Errorf("auth provider required")
	}

	m := &Manager{
		client:   client,
		provider: provider,
		logger:   logg,
	}
	m.unsubscribe = provider.OnChange(func(identity *Identity) {
		m.handleChange(context.Background(), identity)
	})
	m.handleChange(context.Background(), provider.CurrentUser())
	return m, nil
}

// Close detaches the manager from provider notifications. Safe to call more
// than once, including concurrently.
func (m *Manager) Close() {
	if m == nil {
		return
	}
	m.mu.Lock()
	unsubscribe := m.unsubscribe
	m.unsubscribe = nil
	m.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

// Identity returns a copy of the signed-in identity, or nil.
func (m *Manager) Identity() *Identity {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.identity == nil {
		return nil
	}
	copied := *m.identity
	return &copied
}

// Actor returns the acting user for permission checks, or nil when signed
// out. The role is zero when no binding is known.
func (m *Manager) Actor() *Actor {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.identity == nil {
		return nil
	}
	actor := &Actor{ID: m.identity.ID}
	if m.roleKnown {
		actor.Role = m.role
	}
	return actor
}

// Refresh re-fetches the role binding for the current identity. A missing
// binding is not an error: the actor simply carries no role.
func (m *Manager) Refresh(ctx context.Context) error {
	m.mu.Lock()
	identity := m.identity
	m.mu.Unlock()
	if identity == nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "no user signed in")
	}
	return m.fetchRole(ctx, identity.ID)
}

// Register upserts the role binding for the current identity.
func (m *Manager) Register(ctx context.Context, input RegisterInput) (*RoleBinding, error) {
	identity := m.Identity()
	if identity == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "no user signed in")
	}
	if !input.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid role %q", input.Role))
	}

	payload := RoleBinding{
		UserID: identity.ID,
		Role:   input.Role,
		Email:  firstNonEmptyString(input.Email, identity.Email),
		Name:   firstNonEmptyString(input.Name, identity.DisplayName),
	}

	var binding RoleBinding
	if err := m.client.Do(ctx, http.MethodPost, "/users", nil, payload, &binding); err != nil {
		return nil, err
	}
	if binding.UserID == "" {
		binding = payload
	}

	m.mu.Lock()
	if m.identity != nil && m.identity.ID == binding.UserID {
		m.role = binding.Role
		m.roleKnown = true
	}
	m.mu.Unlock()
	return &binding, nil
}

func (m *Manager) handleChange(ctx context.Context, identity *Identity) {
	m.mu.Lock()
	if identity == nil {
		m.identity = nil
		m.role = ""
		m.roleKnown = false
		m.mu.Unlock()
		return
	}
	copied := *identity
	m.identity = &copied
	m.role = ""
	m.roleKnown = false
	m.mu.Unlock()

	if err := m.fetchRole(ctx, identity.ID); err != nil {
		if m.logger != nil {
			m.logger.Error(m.logger.WithUserID(ctx, identity.ID), "fetch role binding", err)
		}
	}
}

func (m *Manager) fetchRole(ctx context.Context, userID string) error {
	var binding RoleBinding
	err := m.client.Do(ctx, http.MethodGet, "/users/"+userID, nil, nil, &binding)
	if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		// No binding yet: the user has signed in but never registered a role.
		return nil
	}
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.identity == nil || m.identity.ID != userID {
		return nil
	}
	if binding.Role.IsValid() {
		m.role = binding.Role
		m.roleKnown = true
	}
	return nil
}

func firstNonEmptyString(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
