package llm

// Role identifies one of the fixed generation configurations. Each role has
// its own decoding parameters; the prompt text lives with the caller.
type Role string

const (
	// RoleRouter classifies intent. Deterministic, short.
	RoleRouter Role = "router"
	// RoleCasual handles smalltalk and chat-reference replies.
	RoleCasual Role = "casual"
	// RoleAnswer writes the main answer and judges validation verdicts.
	RoleAnswer Role = "answer"
	// RolePlanner emits the structured search plan as JSON.
	RolePlanner Role = "planner"
	// RoleRewriter expands and cleans the query set as JSON.
	RoleRewriter Role = "rewriter"
)

// RoleOptions returns the fixed decoding parameters for a role.
func RoleOptions(role Role) []Option {
	switch role {
	case RoleRouter:
		return []Option{WithTemperature(0.0), WithMaxTokens(150)}
	case RoleCasual:
		return []Option{WithTemperature(0.7), WithMaxTokens(512)}
	case RoleAnswer:
		return []Option{WithTemperature(0.2), WithMaxTokens(1536)}
	case RolePlanner:
		return []Option{WithTemperature(0.0), WithMaxTokens(512)}
	case RoleRewriter:
		return []Option{WithTemperature(0.0), WithMaxTokens(384)}
	default:
		return []Option{WithTemperature(0.2), WithMaxTokens(512)}
	}
}
