package agent

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Registry holds the main agent and its sub-agents in registration order.
// It is created once at startup and passed to whoever needs it.
type Registry struct {
	mu     sync.RWMutex
	main   *Agent
	subs   []*Agent
	byID   map[string]*Agent
	logger *zap.Logger
}

// NewRegistry creates a registry around main.
func NewRegistry(main *Agent, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{
		main:   main,
		byID:   make(map[string]*Agent),
		logger: logger.With(zap.String("component", "agent_registry")),
	}
	if main != nil {
		r.byID[main.ID()] = main
	}
	return r
}

// Register adds a sub-agent. Re-registering an ID replaces the previous
// agent in place.
func (r *Registry) Register(a *Agent) error {
	if a == nil || a.ID() == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidAgent)
	}
	if a.Kind() != KindSub {
		return fmt.Errorf("%w: %s is not a sub-agent", ErrInvalidAgent, a.ID())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.main != nil && a.ID() == r.main.ID() {
		return fmt.Errorf("%w: %s collides with the main agent", ErrInvalidAgent, a.ID())
	}

	if _, exists := r.byID[a.ID()]; exists {
		for i, s := range r.subs {
			if s.ID() == a.ID() {
				r.subs[i] = a
				break
			}
		}
	} else {
		r.subs = append(r.subs, a)
	}
	r.byID[a.ID()] = a

	r.logger.Info("agent registered",
		zap.String("id", a.ID()),
		zap.String("name", a.Name()),
		zap.Int("skills", len(a.def.Skills)),
	)
	return nil
}

// Get looks up any agent, main included.
func (r *Registry) Get(id string) (*Agent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byID[id]
	return a, ok
}

// Main returns the orchestrator record.
func (r *Registry) Main() *Agent {
	return r.main
}

// SubAgents returns the sub-agents in registration order.
func (r *Registry) SubAgents() []*Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Agent(nil), r.subs...)
}

// All returns the main agent followed by every sub-agent.
func (r *Registry) All() []*Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Agent, 0, len(r.subs)+1)
	if r.main != nil {
		out = append(out, r.main)
	}
	return append(out, r.subs...)
}

// SetStatus validates status and applies it to agent id.
func (r *Registry) SetStatus(id, status string) (*Agent, error) {
	a, ok := r.Get(id)
	if !ok {
		return nil, ErrAgentNotFound
	}
	s, err := ParseStatus(status)
	if err != nil {
		return nil, err
	}

	prev := a.Status()
	a.SetStatus(s)
	r.logger.Info("agent status changed",
		zap.String("id", id),
		zap.String("from", string(prev)),
		zap.String("to", string(s)),
	)
	return a, nil
}

// FindBySkill returns the first sub-agent carrying any of tags.
func (r *Registry) FindBySkill(tags ...string) (*Agent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.subs {
		if a.HasSkill(tags...) {
			return a, true
		}
	}
	return nil, false
}
