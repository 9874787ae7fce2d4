package module

import "fmt"

// InvalidParameterError reports a parameter name the module does not define or
// a value outside its accepted range.
type InvalidParameterError struct {
	Module string
	Name   string
	Value  any
	Reason string
}

func (e *InvalidParameterError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("module %q: unknown parameter %q", e.Module, e.Name)
	}
	return fmt.Sprintf("module %q: parameter %q = %v: %s", e.Module, e.Name, e.Value, e.Reason)
}

// StateError reports an operation that is invalid in the module's current
// lifecycle state, e.g. Recompute before Start.
type StateError struct {
	Module string
	Op     string
	State  State
}

func (e *StateError) Error() string {
	return fmt.Sprintf("module %q: %s invalid in state %s", e.Module, e.Op, e.State)
}
