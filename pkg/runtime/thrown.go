package runtime

import "fmt"

// Thrown is the user-exception channel: any value raised by a throw
// statement (or a catchable runtime error) unwinding toward a try handler.
// It is deliberately distinct from the evaluator's control signals.
type Thrown struct {
	Value Value
}

func (t *Thrown) Error() string {
	return fmt.Sprintf("uncaught exception: %s", Format(t.Value))
}

// NewErrorValue builds the {name, message} object used for runtime errors so
// script code can catch and inspect them.
func NewErrorValue(name, message string) *ObjectValue {
	obj := NewObject()
	obj.Set("name", StringValue(name))
	obj.Set("message", StringValue(message))
	return obj
}

// Throw wraps an error value for propagation through the exception channel.
func Throw(v Value) error {
	return &Thrown{Value: v}
}

// ThrowError raises a named runtime error as a catchable exception.
func ThrowError(name, format string, args ...any) error {
	return &Thrown{Value: NewErrorValue(name, fmt.Sprintf(format, args...))}
}
