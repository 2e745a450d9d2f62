package core

// Strategy selects how multiple capability calls recognized within one
// assistant turn are executed relative to each other.
type Strategy string

const (
	// StrategyParallel executes calls from the same turn concurrently.
	StrategyParallel Strategy = "parallel"
	// StrategySequential executes calls one after another in call order.
	StrategySequential Strategy = "sequential"
)

// Injection selects how executed capability results are re-entered into the
// conversation context for subsequent generations.
type Injection string

const (
	// InjectUserMessage records capability results as user-role messages.
	InjectUserMessage Injection = "user_message"
	// InjectAssistantMessage records capability results as assistant-role
	// messages.
	InjectAssistantMessage Injection = "assistant_message"
)

// ToolPolicy describes how a model session handles capability calls it
// recognizes in the stream. The run loop passes one policy per session start
// and the session applies it for the whole attempt.
type ToolPolicy struct {
	// ExecuteOnStream starts a capability as soon as its call is recognized
	// in the stream rather than waiting for the assistant turn to finish.
	ExecuteOnStream bool
	// Strategy is the concurrency mode for calls within one turn.
	Strategy Strategy
	// Injection is how results become visible to the next generation.
	Injection Injection
}

// DefaultToolPolicy returns the runtime's standard policy: execute while
// streaming, in parallel, with results injected as user-role messages.
func DefaultToolPolicy() ToolPolicy {
	return ToolPolicy{
		ExecuteOnStream: true,
		Strategy:        StrategyParallel,
		Injection:       InjectUserMessage,
	}
}
