package chain

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/roach88/joinery/internal/coord"
)

// Action is what a handler receives.
type Action struct {
	Owner string
	Step  Step

	// Input is the data the previous step completed with. Nil for the
	// first step unless Start was given input.
	Input any
}

// Handler performs one step and calls done when it has finished. done may
// be called from any goroutine; calling it more than once re-triggers the
// completion group.
type Handler func(a Action, done func(data any))

// Manager binds chains to a coordinator and dispatches steps to handlers.
//
// Thread-safety: safe for concurrent use.
type Manager struct {
	coord  *coord.Coordinator
	logger *slog.Logger

	mu       sync.RWMutex
	handlers map[string]Handler

	quota *quota
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithMaxSteps limits how many steps one owner may run per Start.
// Zero or negative disables the limit.
func WithMaxSteps(n int) Option {
	return func(m *Manager) {
		m.quota = newQuota(n)
	}
}

// NewManager creates a Manager with the built-in handlers registered.
func NewManager(c *coord.Coordinator, opts ...Option) *Manager {
	m := &Manager{
		coord:    c,
		logger:   slog.Default(),
		handlers: make(map[string]Handler),
		quota:    newQuota(DefaultMaxSteps),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.registerBuiltins()
	return m
}

// Register adds or replaces the handler for typ.
func (m *Manager) Register(typ string, h Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[typ] = h
}

// Handlers returns the registered types, sorted.
func (m *Manager) Handlers() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	types := make([]string, 0, len(m.handlers))
	for typ := range m.handlers {
		types = append(types, typ)
	}
	slices.Sort(types)
	return types
}

// Bind attaches every step after the first to the completion group of the
// step before it. Binding the same chain twice appends duplicate callbacks.
func (m *Manager) Bind(c Chain) error {
	if err := c.Validate(); err != nil {
		return err
	}

	for j := 1; j < len(c.Steps); j++ {
		owner, step := c.Owner, c.Steps[j]
		group := GroupName(owner, c.Steps[j-1].Key)
		m.coord.Attach(group, func(data any) {
			m.run(owner, step, data)
		}, coord.ResetAfterFire)
	}

	m.logger.Debug("chain bound", "owner", c.Owner, "steps", len(c.Steps))
	return nil
}

// Start runs the first step of c with input and resets the owner's step
// count.
func (m *Manager) Start(c Chain, input any) error {
	if err := c.Validate(); err != nil {
		return err
	}
	m.quota.reset(c.Owner)
	m.run(c.Owner, c.Steps[0], input)
	return nil
}

// Steps returns how many steps owner has run since its last Start.
func (m *Manager) Steps(owner string) int {
	return m.quota.steps(owner)
}

// Unbind detaches the groups Bind attached and returns how many existed.
func (m *Manager) Unbind(c Chain) int {
	n := 0
	for j := 1; j < len(c.Steps); j++ {
		if m.coord.Detach(GroupName(c.Owner, c.Steps[j-1].Key)) {
			n++
		}
	}
	return n
}

func (m *Manager) run(owner string, step Step, input any) {
	m.mu.RLock()
	h, ok := m.handlers[step.Type]
	m.mu.RUnlock()

	if !ok {
		m.logger.Warn("undefined action", "owner", owner, "key", step.Key, "type", step.Type)
		return
	}
	if err := m.quota.check(owner); err != nil {
		m.logger.Error("chain stopped", "owner", owner, "key", step.Key, "error", err)
		return
	}

	m.logger.Debug("running action", "owner", owner, "key", step.Key, "type", step.Type)

	group := GroupName(owner, step.Key)
	h(Action{Owner: owner, Step: step, Input: input}, func(data any) {
		m.coord.Trigger(group, owner, data)
	})
}
