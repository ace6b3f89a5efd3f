package interpreter

import (
	"fmt"
	"math"
	"strconv"

	"github.com/skiff-lang/skiff/pkg/ast"
	"github.com/skiff-lang/skiff/pkg/runtime"
)

func (i *Interpreter) evalExpression(expr ast.Expression, env *runtime.Environment) (runtime.Value, error) {
	switch expr := expr.(type) {
	case *ast.Identifier:
		return i.evalIdentifier(expr, env)
	case *ast.ThisExpression:
		if v, ok := env.Lookup("this"); ok {
			return v, nil
		}
		return runtime.Undefined, nil
	case *ast.Literal:
		return literalValue(expr)
	case *ast.ArrayExpression:
		elems := make([]runtime.Value, 0, len(expr.Elements))
		for _, e := range expr.Elements {
			v, err := i.evalExpression(e, env)
			if err != nil {
				return nil, err
			}
			elems = append(elems, v)
		}
		return runtime.NewArray(elems...), nil
	case *ast.ObjectExpression:
		obj := runtime.NewObject()
		for _, prop := range expr.Properties {
			key, err := i.propertyName(prop, env)
			if err != nil {
				return nil, err
			}
			v, err := i.evalExpression(prop.Value, env)
			if err != nil {
				return nil, err
			}
			obj.Set(key, v)
		}
		return obj, nil
	case *ast.FunctionExpression:
		fn := &runtime.FunctionValue{
			Params: paramNames(expr.Params),
			Body:   expr.Body,
			Env:    env,
		}
		if expr.ID != nil {
			fn.Name = expr.ID.Name
		}
		return fn, nil
	case *ast.ArrowFunctionExpression:
		return &runtime.FunctionValue{
			Params:  paramNames(expr.Params),
			Body:    expr.Body,
			Env:     env,
			IsArrow: true,
		}, nil
	case *ast.UnaryExpression:
		return i.evalUnary(expr, env)
	case *ast.UpdateExpression:
		return i.evalUpdate(expr, env)
	case *ast.BinaryExpression:
		left, err := i.evalExpression(expr.Left, env)
		if err != nil {
			return nil, err
		}
		right, err := i.evalExpression(expr.Right, env)
		if err != nil {
			return nil, err
		}
		v, err := binaryOperate(expr.Operator, left, right)
		if err != nil {
			return nil, expr.WrapError(err)
		}
		return v, nil
	case *ast.LogicalExpression:
		left, err := i.evalExpression(expr.Left, env)
		if err != nil {
			return nil, err
		}
		switch expr.Operator {
		case "&&":
			if !runtime.Truthy(left) {
				return left, nil
			}
		case "||":
			if runtime.Truthy(left) {
				return left, nil
			}
		default:
			return nil, expr.WrapError(fmt.Errorf("unhandled logical operator %q", expr.Operator))
		}
		return i.evalExpression(expr.Right, env)
	case *ast.ConditionalExpression:
		test, err := i.evalExpression(expr.Test, env)
		if err != nil {
			return nil, err
		}
		if runtime.Truthy(test) {
			return i.evalExpression(expr.Consequent, env)
		}
		return i.evalExpression(expr.Alternate, env)
	case *ast.AssignmentExpression:
		return i.evalAssignment(expr, env)
	case *ast.MemberExpression:
		obj, err := i.evalExpression(expr.Object, env)
		if err != nil {
			return nil, err
		}
		key, err := i.memberKey(expr, env)
		if err != nil {
			return nil, err
		}
		return getMember(obj, key)
	case *ast.CallExpression:
		return i.evalCall(expr, env)
	case *ast.SequenceExpression:
		last := runtime.Value(runtime.Undefined)
		for _, e := range expr.Expressions {
			v, err := i.evalExpression(e, env)
			if err != nil {
				return nil, err
			}
			last = v
		}
		return last, nil
	default:
		return nil, expr.WrapError(fmt.Errorf("unhandled expression type: %T", expr))
	}
}

func (i *Interpreter) evalIdentifier(expr *ast.Identifier, env *runtime.Environment) (runtime.Value, error) {
	if v, ok := env.Lookup(expr.Name); ok {
		return v, nil
	}

	switch expr.Name {
	case "undefined":
		return runtime.Undefined, nil
	case "NaN":
		return runtime.NumberValue(math.NaN()), nil
	case "Infinity":
		return runtime.NumberValue(math.Inf(1)), nil
	}

	if i.config.StrictIdentifiers {
		return nil, expr.WrapError(runtime.ThrowError("ReferenceError", "%s is not defined", expr.Name))
	}

	// Historical fallback: a free identifier reads as its own name.
	return runtime.StringValue(expr.Name), nil
}

func literalValue(lit *ast.Literal) (runtime.Value, error) {
	switch v := lit.Value.(type) {
	case nil:
		return runtime.Null, nil
	case bool:
		return runtime.BoolValue(v), nil
	case float64:
		return runtime.NumberValue(v), nil
	case int:
		return runtime.NumberValue(v), nil
	case string:
		return runtime.StringValue(v), nil
	default:
		return nil, lit.WrapError(fmt.Errorf("unhandled literal value %T", lit.Value))
	}
}

func (i *Interpreter) evalUnary(expr *ast.UnaryExpression, env *runtime.Environment) (runtime.Value, error) {
	arg, err := i.evalExpression(expr.Argument, env)
	if err != nil {
		return nil, err
	}

	switch expr.Operator {
	case "-":
		n, err := numberOperand(arg, expr.Operator)
		if err != nil {
			return nil, expr.WrapError(err)
		}
		return runtime.NumberValue(-n), nil
	case "+":
		n, err := numberOperand(arg, expr.Operator)
		if err != nil {
			return nil, expr.WrapError(err)
		}
		return runtime.NumberValue(n), nil
	case "!":
		return runtime.BoolValue(!runtime.Truthy(arg)), nil
	case "typeof":
		return runtime.StringValue(typeofString(arg)), nil
	default:
		return nil, expr.WrapError(fmt.Errorf("unhandled unary operator %q", expr.Operator))
	}
}

func typeofString(v runtime.Value) string {
	switch v.Kind() {
	case runtime.KindUndefined:
		return "undefined"
	case runtime.KindNull, runtime.KindObject, runtime.KindArray:
		return "object"
	case runtime.KindBool:
		return "boolean"
	case runtime.KindNumber:
		return "number"
	case runtime.KindString:
		return "string"
	case runtime.KindFunction:
		return "function"
	default:
		return "object"
	}
}

func binaryOperate(op string, left, right runtime.Value) (runtime.Value, error) {
	switch op {
	case "+":
		if left.Kind() == runtime.KindString || right.Kind() == runtime.KindString {
			return runtime.StringValue(stringOperand(left) + stringOperand(right)), nil
		}
		l, r, err := numberOperands(left, right, op)
		if err != nil {
			return nil, err
		}
		return runtime.NumberValue(l + r), nil
	case "-":
		l, r, err := numberOperands(left, right, op)
		if err != nil {
			return nil, err
		}
		return runtime.NumberValue(l - r), nil
	case "*":
		l, r, err := numberOperands(left, right, op)
		if err != nil {
			return nil, err
		}
		return runtime.NumberValue(l * r), nil
	case "/":
		// IEEE-754 division: x/0 is ±Infinity, 0/0 is NaN.
		l, r, err := numberOperands(left, right, op)
		if err != nil {
			return nil, err
		}
		return runtime.NumberValue(l / r), nil
	case "%":
		l, r, err := numberOperands(left, right, op)
		if err != nil {
			return nil, err
		}
		return runtime.NumberValue(math.Mod(l, r)), nil
	case "<", "<=", ">", ">=":
		return compareValues(op, left, right)
	case "==", "===":
		return runtime.BoolValue(runtime.StrictEquals(left, right)), nil
	case "!=", "!==":
		return runtime.BoolValue(!runtime.StrictEquals(left, right)), nil
	default:
		return nil, fmt.Errorf("unhandled binary operator %q", op)
	}
}

func compareValues(op string, left, right runtime.Value) (runtime.Value, error) {
	if l, ok := left.(runtime.StringValue); ok {
		if r, ok := right.(runtime.StringValue); ok {
			return runtime.BoolValue(compareOrdered(op, string(l), string(r))), nil
		}
	}

	l, r, err := numberOperands(left, right, op)
	if err != nil {
		return nil, err
	}
	return runtime.BoolValue(compareOrdered(op, l, r)), nil
}

func compareOrdered[T float64 | string](op string, l, r T) bool {
	switch op {
	case "<":
		return l < r
	case "<=":
		return l <= r
	case ">":
		return l > r
	case ">=":
		return l >= r
	default:
		return false
	}
}

func numberOperand(v runtime.Value, op string) (float64, error) {
	n, ok := v.(runtime.NumberValue)
	if !ok {
		return 0, runtime.ThrowError("TypeError", "operator %q expects a number, got %s", op, v.Kind())
	}
	return float64(n), nil
}

func numberOperands(left, right runtime.Value, op string) (float64, float64, error) {
	l, err := numberOperand(left, op)
	if err != nil {
		return 0, 0, err
	}
	r, err := numberOperand(right, op)
	if err != nil {
		return 0, 0, err
	}
	return l, r, nil
}

func stringOperand(v runtime.Value) string {
	if s, ok := v.(runtime.StringValue); ok {
		return string(s)
	}
	return runtime.Format(v)
}

// propertyName resolves an object-literal property key.
func (i *Interpreter) propertyName(prop *ast.Property, env *runtime.Environment) (string, error) {
	if prop.Computed {
		v, err := i.evalExpression(prop.Key, env)
		if err != nil {
			return "", err
		}
		return propertyKey(v), nil
	}

	switch key := prop.Key.(type) {
	case *ast.Identifier:
		return key.Name, nil
	case *ast.Literal:
		v, err := literalValue(key)
		if err != nil {
			return "", err
		}
		return propertyKey(v), nil
	default:
		return "", prop.WrapError(fmt.Errorf("unhandled property key type: %T", prop.Key))
	}
}

// memberKey resolves the property key of a member expression.
func (i *Interpreter) memberKey(expr *ast.MemberExpression, env *runtime.Environment) (string, error) {
	if !expr.Computed {
		id, ok := expr.Property.(*ast.Identifier)
		if !ok {
			return "", expr.WrapError(fmt.Errorf("unhandled member property type: %T", expr.Property))
		}
		return id.Name, nil
	}

	v, err := i.evalExpression(expr.Property, env)
	if err != nil {
		return "", err
	}
	return propertyKey(v), nil
}

func propertyKey(v runtime.Value) string {
	switch v := v.(type) {
	case runtime.StringValue:
		return string(v)
	case runtime.NumberValue:
		return runtime.FormatNumber(float64(v))
	default:
		return runtime.Format(v)
	}
}

func getMember(obj runtime.Value, key string) (runtime.Value, error) {
	switch obj := obj.(type) {
	case *runtime.ObjectValue:
		v, _ := obj.Get(key)
		return v, nil
	case *runtime.ArrayValue:
		if key == "length" {
			return runtime.NumberValue(obj.Len()), nil
		}
		idx, err := strconv.Atoi(key)
		if err != nil {
			return runtime.Undefined, nil
		}
		return obj.Get(idx), nil
	case runtime.StringValue:
		if key == "length" {
			return runtime.NumberValue(len(obj)), nil
		}
		idx, err := strconv.Atoi(key)
		if err != nil || idx < 0 || idx >= len(obj) {
			return runtime.Undefined, nil
		}
		return obj[idx : idx+1], nil
	case runtime.UndefinedValue, runtime.NullValue:
		return nil, runtime.ThrowError("TypeError", "cannot read properties of %s (reading %q)", obj.Kind(), key)
	default:
		return runtime.Undefined, nil
	}
}

func setMember(obj runtime.Value, key string, value runtime.Value) error {
	switch obj := obj.(type) {
	case *runtime.ObjectValue:
		obj.Set(key, value)
		return nil
	case *runtime.ArrayValue:
		idx, err := strconv.Atoi(key)
		if err != nil {
			return runtime.ThrowError("TypeError", "invalid array index %q", key)
		}
		if err := obj.Set(idx, value); err != nil {
			return runtime.ThrowError("RangeError", "%s", err)
		}
		return nil
	case runtime.UndefinedValue, runtime.NullValue:
		return runtime.ThrowError("TypeError", "cannot set properties of %s (setting %q)", obj.Kind(), key)
	default:
		return runtime.ThrowError("TypeError", "cannot set properties of %s", obj.Kind())
	}
}

func (i *Interpreter) evalCall(expr *ast.CallExpression, env *runtime.Environment) (runtime.Value, error) {
	var callee runtime.Value
	var receiver runtime.Value

	if member, ok := expr.Callee.(*ast.MemberExpression); ok {
		// Evaluate the receiver once; it doubles as the method's this.
		obj, err := i.evalExpression(member.Object, env)
		if err != nil {
			return nil, err
		}
		key, err := i.memberKey(member, env)
		if err != nil {
			return nil, err
		}
		callee, err = getMember(obj, key)
		if err != nil {
			return nil, err
		}
		receiver = obj
	} else {
		var err error
		callee, err = i.evalExpression(expr.Callee, env)
		if err != nil {
			return nil, err
		}
	}

	fn, ok := callee.(*runtime.FunctionValue)
	if !ok {
		return nil, expr.WrapError(runtime.ThrowError("TypeError", "%s is not a function", runtime.Format(callee)))
	}

	args := make([]runtime.Value, 0, len(expr.Arguments))
	for _, arg := range expr.Arguments {
		v, err := i.evalExpression(arg, env)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}

	return i.callFunction(fn, args, receiver)
}

// callFunction pushes a frame under the closure's captured chain, binds
// positional arguments (missing ones as undefined, extras dropped) and runs
// the body. The frame outlives the call whenever a closure created inside it
// escapes; the chain reference keeps it alive.
func (i *Interpreter) callFunction(fn *runtime.FunctionValue, args []runtime.Value, receiver runtime.Value) (runtime.Value, error) {
	frame := runtime.NewEnvironment(fn.Env)

	if receiver != nil && !fn.IsArrow {
		frame.Declare("this", runtime.BindConst, receiver)
	}

	for idx, name := range fn.Params {
		value := runtime.Value(runtime.Undefined)
		if idx < len(args) {
			value = args[idx]
		}
		frame.Declare(name, runtime.BindLet, value)
	}

	switch body := fn.Body.(type) {
	case *ast.BlockStatement:
		comp, err := i.evalStatements(body.Body, frame)
		if err != nil {
			return nil, err
		}
		switch comp.kind {
		case completionReturn:
			return comp.value, nil
		case completionBreak, completionContinue:
			return nil, fn.Body.WrapError(fmt.Errorf("illegal %s signal escaping function body", comp.kind))
		}
		return runtime.Undefined, nil
	case ast.Expression:
		return i.evalExpression(body, frame)
	default:
		return nil, fn.Body.WrapError(fmt.Errorf("unhandled function body type: %T", fn.Body))
	}
}
