// Package runtime holds the value model and scope chain shared by the
// evaluator.
package runtime

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/emirpasic/gods/maps/linkedhashmap"

	"github.com/skiff-lang/skiff/pkg/ast"
)

// Kind identifies the runtime value category.
type Kind int

const (
	KindUndefined Kind = iota
	KindNull
	KindBool
	KindNumber
	KindString
	KindObject
	KindArray
	KindFunction
)

func (k Kind) String() string {
	switch k {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	case KindFunction:
		return "function"
	default:
		return fmt.Sprintf("unknown_kind_%d", int(k))
	}
}

// Value is the shared behaviour for all runtime values.
type Value interface {
	Kind() Kind
}

type UndefinedValue struct{}

func (UndefinedValue) Kind() Kind { return KindUndefined }

type NullValue struct{}

func (NullValue) Kind() Kind { return KindNull }

var (
	Undefined = UndefinedValue{}
	Null      = NullValue{}
)

type BoolValue bool

func (BoolValue) Kind() Kind { return KindBool }

type NumberValue float64

func (NumberValue) Kind() Kind { return KindNumber }

type StringValue string

func (StringValue) Kind() Kind { return KindString }

// ObjectValue is an insertion-ordered mapping from string keys to values.
type ObjectValue struct {
	props *linkedhashmap.Map
}

func NewObject() *ObjectValue {
	return &ObjectValue{props: linkedhashmap.New()}
}

func (*ObjectValue) Kind() Kind { return KindObject }

func (o *ObjectValue) Get(key string) (Value, bool) {
	v, ok := o.props.Get(key)
	if !ok {
		return Undefined, false
	}
	return v.(Value), true
}

func (o *ObjectValue) Set(key string, v Value) {
	o.props.Put(key, v)
}

func (o *ObjectValue) Keys() []string {
	raw := o.props.Keys()
	keys := make([]string, 0, len(raw))
	for _, k := range raw {
		keys = append(keys, k.(string))
	}
	return keys
}

func (o *ObjectValue) Len() int {
	return o.props.Size()
}

// ArrayValue is an index-addressable ordered sequence of values.
type ArrayValue struct {
	Elements []Value
}

func NewArray(elements ...Value) *ArrayValue {
	return &ArrayValue{Elements: elements}
}

func (*ArrayValue) Kind() Kind { return KindArray }

func (a *ArrayValue) Get(i int) Value {
	if i < 0 || i >= len(a.Elements) {
		return Undefined
	}
	return a.Elements[i]
}

// Set grows the array with undefined holes when i is past the end.
func (a *ArrayValue) Set(i int, v Value) error {
	if i < 0 {
		return fmt.Errorf("invalid array index %d", i)
	}
	for len(a.Elements) <= i {
		a.Elements = append(a.Elements, Undefined)
	}
	a.Elements[i] = v
	return nil
}

func (a *ArrayValue) Len() int {
	return len(a.Elements)
}

// FunctionValue is a closure: parameter names, the body node, and a shared
// reference to the environment chain in effect at its definition site.
type FunctionValue struct {
	Name    string
	Params  []string
	Body    ast.Node
	Env     *Environment
	IsArrow bool
}

func (*FunctionValue) Kind() Kind { return KindFunction }

// Truthy reports the value's boolean coercion: false, 0, NaN, "", null and
// undefined are falsy, everything else truthy.
func Truthy(v Value) bool {
	switch v := v.(type) {
	case UndefinedValue, NullValue:
		return false
	case BoolValue:
		return bool(v)
	case NumberValue:
		return float64(v) != 0 && !math.IsNaN(float64(v))
	case StringValue:
		return len(v) != 0
	default:
		return true
	}
}

// StrictEquals implements === semantics: same kind and same primitive value;
// objects, arrays and functions compare by identity.
func StrictEquals(a, b Value) bool {
	if a.Kind() != b.Kind() {
		return false
	}

	switch a := a.(type) {
	case UndefinedValue, NullValue:
		return true
	case BoolValue:
		return a == b.(BoolValue)
	case NumberValue:
		return a == b.(NumberValue)
	case StringValue:
		return a == b.(StringValue)
	default:
		return a == b
	}
}

// Format renders a value for display. Top-level strings are bare; strings
// nested in containers are quoted.
func Format(v Value) string {
	if s, ok := v.(StringValue); ok {
		return string(s)
	}
	return formatNested(v)
}

func formatNested(v Value) string {
	switch v := v.(type) {
	case UndefinedValue:
		return "undefined"
	case NullValue:
		return "null"
	case BoolValue:
		return strconv.FormatBool(bool(v))
	case NumberValue:
		return FormatNumber(float64(v))
	case StringValue:
		return strconv.Quote(string(v))
	case *ObjectValue:
		var sb strings.Builder
		sb.WriteString("{")
		for i, key := range v.Keys() {
			if i > 0 {
				sb.WriteString(", ")
			}
			field, _ := v.Get(key)
			sb.WriteString(key)
			sb.WriteString(": ")
			sb.WriteString(formatNested(field))
		}
		sb.WriteString("}")
		return sb.String()
	case *ArrayValue:
		var sb strings.Builder
		sb.WriteString("[")
		for i, elem := range v.Elements {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(formatNested(elem))
		}
		sb.WriteString("]")
		return sb.String()
	case *FunctionValue:
		if v.Name == "" {
			return "function"
		}
		return fmt.Sprintf("function %s", v.Name)
	default:
		return fmt.Sprintf("unknown value %T", v)
	}
}

// FormatNumber renders a number the way script output expects: integral
// values without a fraction, NaN and infinities by name.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	default:
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
}
