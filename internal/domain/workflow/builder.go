package workflow

import "fmt"

// Builder assembles the guarded transition table an Engine enforces
type Builder interface {
	// Configure returns a state configuration for the given state
	Configure(state State) StateConfiguration

	// Build creates an immutable Engine from the configured table
	Build() *Engine
}

// StateConfiguration configures transitions leaving a specific state
type StateConfiguration interface {
	// Permit allows the listed roles to fire action, moving to toState with remarks untouched
	Permit(action Action, toState State, roles ...Role) StateConfiguration

	// PermitWithRemarks is Permit for negative transitions: the caller must supply
	// non-blank remarks, which replace the stored remarks
	PermitWithRemarks(action Action, toState State, roles ...Role) StateConfiguration
}

// transition is one row of the table: where an action leads and who may fire it
type transition struct {
	toState         State
	roles           map[Role]bool
	requiresRemarks bool
}

// stateConfig implements StateConfiguration
type stateConfig struct {
	fromState   State
	transitions map[Action]transition
}

// builder implements Builder
type builder struct {
	configurations map[State]*stateConfig
}

// NewBuilder creates an empty table builder
func NewBuilder() Builder {
	return &builder{
		configurations: make(map[State]*stateConfig),
	}
}

// Configure returns a state configuration for the given state
func (b *builder) Configure(state State) StateConfiguration {
	if !state.IsValid() {
		panic(fmt.Sprintf("invalid state: %s", state))
	}
	if state.IsTerminal() {
		panic(fmt.Sprintf("terminal state cannot have transitions: %s", state))
	}

	config, exists := b.configurations[state]
	if !exists {
		config = &stateConfig{
			fromState:   state,
			transitions: make(map[Action]transition),
		}
		b.configurations[state] = config
	}

	return config
}

// Build copies the configured table so later Configure calls cannot change the Engine
func (b *builder) Build() *Engine {
	configsCopy := make(map[State]*stateConfig, len(b.configurations))
	for state, config := range b.configurations {
		transitionsCopy := make(map[Action]transition, len(config.transitions))
		for action, t := range config.transitions {
			roles := make(map[Role]bool, len(t.roles))
			for r := range t.roles {
				roles[r] = true
			}
			transitionsCopy[action] = transition{
				toState:         t.toState,
				roles:           roles,
				requiresRemarks: t.requiresRemarks,
			}
		}
		configsCopy[state] = &stateConfig{
			fromState:   state,
			transitions: transitionsCopy,
		}
	}

	return &Engine{configurations: configsCopy}
}

// Permit allows the listed roles to fire action, moving to toState
func (c *stateConfig) Permit(action Action, toState State, roles ...Role) StateConfiguration {
	return c.permit(action, toState, false, roles)
}

// PermitWithRemarks allows the listed roles to fire action when remarks are supplied
func (c *stateConfig) PermitWithRemarks(action Action, toState State, roles ...Role) StateConfiguration {
	return c.permit(action, toState, true, roles)
}

func (c *stateConfig) permit(action Action, toState State, requiresRemarks bool, roles []Role) StateConfiguration {
	if !action.IsValid() {
		panic(fmt.Sprintf("invalid action: %s", action))
	}
	if !toState.IsValid() {
		panic(fmt.Sprintf("invalid target state: %s", toState))
	}
	if toState == c.fromState {
		panic(fmt.Sprintf("self-transition not allowed: %s on %s", action, toState))
	}
	if _, exists := c.transitions[action]; exists {
		panic(fmt.Sprintf("action %s already configured for state %s", action, c.fromState))
	}
	if len(roles) == 0 {
		panic(fmt.Sprintf("action %s on state %s needs at least one role", action, c.fromState))
	}

	allowed := make(map[Role]bool, len(roles))
	for _, r := range roles {
		if !r.IsValid() {
			panic(fmt.Sprintf("invalid role: %s", r))
		}
		allowed[r] = true
	}

	c.transitions[action] = transition{
		toState:         toState,
		roles:           allowed,
		requiresRemarks: requiresRemarks,
	}

	return c
}
