package interpreter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/skiff-lang/skiff/pkg/ast"
	"github.com/skiff-lang/skiff/pkg/runtime"
)

// evalAssignment handles both binding assignment (a = v) and member-path
// assignment (a.b[c] = v). The target resolves to a leading binding plus
// member keys; an empty remaining path mutates the binding itself, a
// non-empty one descends into the containing value, which keeps writes into
// objects held by const bindings legal.
func (i *Interpreter) evalAssignment(expr *ast.AssignmentExpression, env *runtime.Environment) (runtime.Value, error) {
	switch target := expr.Left.(type) {
	case *ast.Identifier:
		value, err := i.assignedValue(expr, env, func() (runtime.Value, error) {
			return i.readTarget(target, env)
		})
		if err != nil {
			return nil, err
		}
		if err := env.Assign(target.Name, value); err != nil {
			return nil, expr.WrapError(assignError(err))
		}
		return value, nil
	case *ast.MemberExpression:
		obj, err := i.evalExpression(target.Object, env)
		if err != nil {
			return nil, err
		}
		key, err := i.memberKey(target, env)
		if err != nil {
			return nil, err
		}
		value, err := i.assignedValue(expr, env, func() (runtime.Value, error) {
			return getMember(obj, key)
		})
		if err != nil {
			return nil, err
		}
		if err := setMember(obj, key, value); err != nil {
			return nil, expr.WrapError(err)
		}
		return value, nil
	default:
		return nil, expr.WrapError(fmt.Errorf("unhandled assignment target: %T", expr.Left))
	}
}

// assignedValue computes the value to store: the RHS for plain assignment,
// or current-op-RHS for a compound operator.
func (i *Interpreter) assignedValue(expr *ast.AssignmentExpression, env *runtime.Environment, current func() (runtime.Value, error)) (runtime.Value, error) {
	rhs, err := i.evalExpression(expr.Right, env)
	if err != nil {
		return nil, err
	}

	if expr.Operator == "=" {
		return rhs, nil
	}

	op := strings.TrimSuffix(expr.Operator, "=")
	switch op {
	case "+", "-", "*", "/", "%":
	default:
		return nil, expr.WrapError(fmt.Errorf("unhandled assignment operator %q", expr.Operator))
	}

	cur, err := current()
	if err != nil {
		return nil, err
	}

	value, err := binaryOperate(op, cur, rhs)
	if err != nil {
		return nil, expr.WrapError(err)
	}
	return value, nil
}

// readTarget reads an assignment target's current value. Unlike an ordinary
// identifier read, an unresolved target is a reference error rather than a
// name-string fallback.
func (i *Interpreter) readTarget(target *ast.Identifier, env *runtime.Environment) (runtime.Value, error) {
	v, ok := env.Lookup(target.Name)
	if !ok {
		return nil, target.WrapError(runtime.ThrowError("ReferenceError", "%s is not defined", target.Name))
	}
	return v, nil
}

// assignError converts environment errors into catchable thrown values.
func assignError(err error) error {
	if errors.Is(err, runtime.ErrImmutableBinding) || errors.Is(err, runtime.ErrUndefinedVariable) {
		name := "ReferenceError"
		if errors.Is(err, runtime.ErrImmutableBinding) {
			name = "TypeError"
		}
		return runtime.ThrowError(name, "%s", err)
	}
	return err
}

func (i *Interpreter) evalUpdate(expr *ast.UpdateExpression, env *runtime.Environment) (runtime.Value, error) {
	read := func() (runtime.Value, error) { return nil, nil }
	write := func(runtime.Value) error { return nil }

	switch target := expr.Argument.(type) {
	case *ast.Identifier:
		read = func() (runtime.Value, error) {
			return i.readTarget(target, env)
		}
		write = func(v runtime.Value) error {
			if err := env.Assign(target.Name, v); err != nil {
				return expr.WrapError(assignError(err))
			}
			return nil
		}
	case *ast.MemberExpression:
		obj, err := i.evalExpression(target.Object, env)
		if err != nil {
			return nil, err
		}
		key, err := i.memberKey(target, env)
		if err != nil {
			return nil, err
		}
		read = func() (runtime.Value, error) {
			return getMember(obj, key)
		}
		write = func(v runtime.Value) error {
			if err := setMember(obj, key, v); err != nil {
				return expr.WrapError(err)
			}
			return nil
		}
	default:
		return nil, expr.WrapError(fmt.Errorf("unhandled update target: %T", expr.Argument))
	}

	cur, err := read()
	if err != nil {
		return nil, err
	}
	old, err := numberOperand(cur, expr.Operator)
	if err != nil {
		return nil, expr.WrapError(err)
	}

	delta := 1.0
	if expr.Operator == "--" {
		delta = -1
	} else if expr.Operator != "++" {
		return nil, expr.WrapError(fmt.Errorf("unhandled update operator %q", expr.Operator))
	}

	updated := runtime.NumberValue(old + delta)
	if err := write(updated); err != nil {
		return nil, err
	}

	if expr.Prefix {
		return updated, nil
	}
	return runtime.NumberValue(old), nil
}
