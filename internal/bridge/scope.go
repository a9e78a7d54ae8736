package bridge

// Scope is an execution context for user code.
type Scope string

// Execution scopes.
const (
	ScopeBackground Scope = "background"
	ScopeContent    Scope = "content"
)

// String returns the scope name.
func (s Scope) String() string {
	return string(s)
}

// ParseScope validates a scope name. Anything other than background or
// content yields a *ConfigurationError.
func ParseScope(name string) (Scope, error) {
	switch Scope(name) {
	case ScopeBackground, ScopeContent:
		return Scope(name), nil
	default:
		return "", &ConfigurationError{Scope: name}
	}
}
