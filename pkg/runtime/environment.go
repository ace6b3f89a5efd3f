package runtime

import (
	"errors"
	"fmt"
)

// BindingKind records how a name was introduced.
type BindingKind int

const (
	BindVar BindingKind = iota
	BindLet
	BindConst
	BindFunction
)

func (k BindingKind) String() string {
	switch k {
	case BindVar:
		return "var"
	case BindLet:
		return "let"
	case BindConst:
		return "const"
	case BindFunction:
		return "function"
	default:
		return fmt.Sprintf("unknown_binding_kind_%d", int(k))
	}
}

var (
	ErrImmutableBinding  = errors.New("assignment to constant variable")
	ErrUndefinedVariable = errors.New("undefined variable")
)

// Binding is one named slot in a frame. It is created once per declaration
// and mutated in place thereafter.
type Binding struct {
	Name  string
	Kind  BindingKind
	Value Value
}

// Environment is one frame of the lexical scope chain: bindings in
// declaration order plus a reference to the enclosing frame. Closures hold a
// reference to the frame chain current at their definition site, so a frame
// lives exactly as long as something still references it.
type Environment struct {
	bindings []*Binding
	index    map[string]int
	parent   *Environment
}

// NewEnvironment creates a frame, optionally nested under a parent.
func NewEnvironment(parent *Environment) *Environment {
	return &Environment{
		index:  make(map[string]int),
		parent: parent,
	}
}

// Parent exposes the lexical parent (nil when global).
func (e *Environment) Parent() *Environment {
	return e.parent
}

// Declare appends a binding to this frame. A redeclaration of the same name
// in the same frame shadows the earlier binding for subsequent lookups.
func (e *Environment) Declare(name string, kind BindingKind, value Value) *Binding {
	b := &Binding{Name: name, Kind: kind, Value: value}
	e.bindings = append(e.bindings, b)
	e.index[name] = len(e.bindings) - 1
	return b
}

// Resolve finds the nearest binding for name, searching this frame and then
// outward through the chain.
func (e *Environment) Resolve(name string) (*Binding, bool) {
	for env := e; env != nil; env = env.parent {
		if i, ok := env.index[name]; ok {
			return env.bindings[i], true
		}
	}
	return nil, false
}

// Lookup returns the nearest binding's value.
func (e *Environment) Lookup(name string) (Value, bool) {
	b, ok := e.Resolve(name)
	if !ok {
		return Undefined, false
	}
	return b.Value, true
}

// Assign mutates the nearest binding for name. Rebinding a const fails; the
// values it contains stay mutable through member assignment.
func (e *Environment) Assign(name string, value Value) error {
	b, ok := e.Resolve(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUndefinedVariable, name)
	}
	if b.Kind == BindConst {
		return fmt.Errorf("%w: %s", ErrImmutableBinding, name)
	}
	b.Value = value
	return nil
}

// Bindings returns this frame's bindings in declaration order.
func (e *Environment) Bindings() []*Binding {
	return e.bindings
}
