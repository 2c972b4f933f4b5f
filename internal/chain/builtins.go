package chain

// Built-in handler types.
const (
	// TypeEmit completes with params["value"].
	TypeEmit = "emit"

	// TypeLog logs its input and completes with it unchanged.
	TypeLog = "log"
)

func (m *Manager) registerBuiltins() {
	m.handlers[TypeEmit] = func(a Action, done func(any)) {
		done(a.Step.Params["value"])
	}
	m.handlers[TypeLog] = func(a Action, done func(any)) {
		m.logger.Info("chain step",
			"owner", a.Owner,
			"key", a.Step.Key,
			"input", a.Input,
		)
		done(a.Input)
	}
}
