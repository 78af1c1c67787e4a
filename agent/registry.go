package agent

import (
	"fmt"
	"slices"
	"sync"

	"github.com/tailored-agentic-units/assistant/core/config"
)

// RoleInfo describes a role binding without building its agent.
type RoleInfo struct {
	Role     string
	Provider string
	Model    string
}

type binding struct {
	cfg   *config.AgentConfig
	agent Agent
}

// Registry resolves the agent serving a named role, such as the intent
// classifier or the ambiguity judge. A role is bound either to a config,
// whose agent is built on first Resolve and cached, or to a ready agent.
// Unbound roles resolve to the fallback agent.
type Registry struct {
	mu       sync.Mutex
	fallback Agent
	roles    map[string]*binding
}

// NewRegistry creates a Registry whose unbound roles share fallback. A nil
// fallback makes resolving an unbound role an error.
func NewRegistry(fallback Agent) *Registry {
	return &Registry{
		fallback: fallback,
		roles:    make(map[string]*binding),
	}
}

// Register binds role to cfg. The agent is not built until Resolve.
func (r *Registry) Register(role string, cfg config.AgentConfig) error {
	return r.bind(role, &binding{cfg: &cfg}, false)
}

// Use binds role to a ready agent.
func (r *Registry) Use(role string, a Agent) error {
	if a == nil {
		return fmt.Errorf("%w: nil agent for %s", ErrAgentNotFound, role)
	}
	return r.bind(role, &binding{agent: a}, false)
}

// Replace rebinds an existing role to cfg, dropping any cached agent.
func (r *Registry) Replace(role string, cfg config.AgentConfig) error {
	return r.bind(role, &binding{cfg: &cfg}, true)
}

func (r *Registry) bind(role string, b *binding, replace bool) error {
	if role == "" {
		return ErrEmptyAgentName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	_, exists := r.roles[role]
	switch {
	case replace && !exists:
		return fmt.Errorf("%w: %s", ErrAgentNotFound, role)
	case !replace && exists:
		return fmt.Errorf("%w: %s", ErrAgentExists, role)
	}
	r.roles[role] = b
	return nil
}

// Unregister removes the binding for role, which then falls back.
func (r *Registry) Unregister(role string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.roles[role]; !exists {
		return fmt.Errorf("%w: %s", ErrAgentNotFound, role)
	}
	delete(r.roles, role)
	return nil
}

// Has reports whether role has its own binding.
func (r *Registry) Has(role string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.roles[role]
	return ok
}

// Resolve returns the agent for role, building it from its config on first
// use.
func (r *Registry) Resolve(role string) (Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, bound := r.roles[role]
	if !bound {
		if r.fallback == nil {
			return nil, fmt.Errorf("%w: %s", ErrAgentNotFound, role)
		}
		return r.fallback, nil
	}
	if b.agent != nil {
		return b.agent, nil
	}

	a, err := New(b.cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s agent: %w", role, err)
	}
	b.agent = a
	return a, nil
}

// Info describes the binding of role.
func (r *Registry) Info(role string) (RoleInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.roles[role]
	if !ok {
		return RoleInfo{}, fmt.Errorf("%w: %s", ErrAgentNotFound, role)
	}
	return b.info(role), nil
}

// List describes every bound role, sorted by role name.
func (r *Registry) List() []RoleInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	infos := make([]RoleInfo, 0, len(r.roles))
	for role, b := range r.roles {
		infos = append(infos, b.info(role))
	}
	slices.SortFunc(infos, func(a, b RoleInfo) int {
		switch {
		case a.Role < b.Role:
			return -1
		case a.Role > b.Role:
			return 1
		}
		return 0
	})
	return infos
}

func (b *binding) info(role string) RoleInfo {
	if b.cfg == nil {
		return RoleInfo{Role: role, Provider: "custom"}
	}
	return RoleInfo{Role: role, Provider: b.cfg.Provider, Model: b.cfg.Model}
}
