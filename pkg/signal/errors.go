package signal

import "fmt"

// DuplicateNameError reports an attempt to register a module under a name that
// is already taken. The original module remains registered unchanged.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("module %q: name already registered", e.Name)
}

// ModuleNotFoundError reports a reference to a module name that is not in the
// registry.
type ModuleNotFoundError struct {
	Name string
}

func (e *ModuleNotFoundError) Error() string {
	return fmt.Sprintf("module %q: not registered", e.Name)
}

// PortNotFoundError reports a reference to a port that does not exist on the
// named module, in the required direction.
type PortNotFoundError struct {
	Module    string
	Port      string
	Direction Direction
}

func (e *PortNotFoundError) Error() string {
	return fmt.Sprintf("module %q: no %s port %q", e.Module, e.Direction, e.Port)
}

// PortDirectionError reports a connection endpoint used against its direction,
// e.g. an input port named as a connection source.
type PortDirectionError struct {
	Module string
	Port   string
	Want   Direction
	Got    Direction
}

func (e *PortDirectionError) Error() string {
	return fmt.Sprintf("port %s.%s: direction %s, need %s", e.Module, e.Port, e.Got, e.Want)
}

// TypeMismatchError reports a connection whose source, destination and declared
// signal types do not all agree.
type TypeMismatchError struct {
	Source      PortRef
	SourceType  Type
	Destination PortRef
	DestType    Type
	Declared    Type
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("signal type mismatch: %s is %s, %s is %s, connection declared %s",
		e.Source, e.SourceType, e.Destination, e.DestType, e.Declared)
}
