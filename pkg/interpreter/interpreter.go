// Package interpreter evaluates ESTree-style ASTs directly, without a
// compilation step. Expressions produce runtime values; statements produce
// explicit control signals inspected at loop, switch and function
// boundaries.
package interpreter

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/skiff-lang/skiff/pkg/ast"
	"github.com/skiff-lang/skiff/pkg/runtime"
)

// Config adjusts evaluation policy.
type Config struct {
	// StrictIdentifiers makes reading an unresolved identifier a catchable
	// ReferenceError. The default preserves the historical fallback: a free
	// identifier evaluates to its own name as a string.
	StrictIdentifiers bool

	// Globals seeds the outermost frame before evaluation begins.
	Globals map[string]runtime.Value
}

type Interpreter struct {
	logger *slog.Logger
	config Config
}

func New(logger *slog.Logger, config Config) *Interpreter {
	if logger == nil {
		logger = slog.Default()
	}

	return &Interpreter{
		logger: logger,
		config: config,
	}
}

// Evaluate runs a program against a freshly seeded environment and returns
// the value of its last completing statement. An uncaught throw surfaces as
// a *runtime.Thrown error; malformed input surfaces as a position-wrapped
// structural error.
func (i *Interpreter) Evaluate(prog *ast.Program) (runtime.Value, error) {
	globals := runtime.NewEnvironment(nil)
	globalNames := make([]string, 0, len(i.config.Globals))
	for name := range i.config.Globals {
		globalNames = append(globalNames, name)
	}
	slices.Sort(globalNames)
	for _, name := range globalNames {
		globals.Declare(name, runtime.BindVar, i.config.Globals[name])
	}

	i.logger.Debug("evaluating program", "statements", len(prog.Body))

	env := runtime.NewEnvironment(globals)

	result := runtime.Value(runtime.Undefined)
	for _, stmt := range prog.Body {
		comp, err := i.evalStatement(stmt, env)
		if err != nil {
			return runtime.Undefined, err
		}

		switch comp.kind {
		case completionNormal:
			result = comp.value
		case completionReturn:
			return comp.value, nil
		case completionBreak:
			return runtime.Undefined, stmt.WrapError(fmt.Errorf("illegal break statement"))
		case completionContinue:
			return runtime.Undefined, stmt.WrapError(fmt.Errorf("illegal continue statement"))
		}
	}

	return result, nil
}

func (i *Interpreter) evalStatement(stmt ast.Statement, env *runtime.Environment) (completion, error) {
	switch stmt := stmt.(type) {
	case *ast.VariableDeclaration:
		return i.evalVariableDeclaration(stmt, env)
	case *ast.FunctionDeclaration:
		fn := &runtime.FunctionValue{
			Name:   stmt.ID.Name,
			Params: paramNames(stmt.Params),
			Body:   stmt.Body,
			Env:    env,
		}
		env.Declare(stmt.ID.Name, runtime.BindFunction, fn)
		return normalCompletion(runtime.Undefined), nil
	case *ast.ExpressionStatement:
		v, err := i.evalExpression(stmt.Expression, env)
		if err != nil {
			return completion{}, err
		}
		return normalCompletion(v), nil
	case *ast.BlockStatement:
		return i.evalStatements(stmt.Body, runtime.NewEnvironment(env))
	case *ast.EmptyStatement:
		return normalCompletion(runtime.Undefined), nil
	case *ast.IfStatement:
		return i.evalIf(stmt, env)
	case *ast.ForStatement:
		return i.evalFor(stmt, env)
	case *ast.WhileStatement:
		return i.evalWhile(stmt, env)
	case *ast.SwitchStatement:
		return i.evalSwitch(stmt, env)
	case *ast.ReturnStatement:
		value := runtime.Value(runtime.Undefined)
		if stmt.Argument != nil {
			var err error
			value, err = i.evalExpression(stmt.Argument, env)
			if err != nil {
				return completion{}, err
			}
		}
		return completion{kind: completionReturn, value: value}, nil
	case *ast.BreakStatement:
		comp := completion{kind: completionBreak}
		if stmt.Label != nil {
			comp.label = stmt.Label.Name
		}
		return comp, nil
	case *ast.ContinueStatement:
		comp := completion{kind: completionContinue}
		if stmt.Label != nil {
			comp.label = stmt.Label.Name
		}
		return comp, nil
	case *ast.ThrowStatement:
		v, err := i.evalExpression(stmt.Argument, env)
		if err != nil {
			return completion{}, err
		}
		return completion{}, runtime.Throw(v)
	case *ast.TryStatement:
		return i.evalTry(stmt, env)
	default:
		return completion{}, stmt.WrapError(fmt.Errorf("unhandled statement type: %T", stmt))
	}
}

// evalStatements runs a statement list in the given frame, stopping at the
// first non-normal completion and handing it up.
func (i *Interpreter) evalStatements(stmts []ast.Statement, env *runtime.Environment) (completion, error) {
	last := normalCompletion(runtime.Undefined)
	for _, stmt := range stmts {
		comp, err := i.evalStatement(stmt, env)
		if err != nil {
			return completion{}, err
		}
		if comp.kind != completionNormal {
			return comp, nil
		}
		last = comp
	}
	return last, nil
}

func (i *Interpreter) evalVariableDeclaration(decl *ast.VariableDeclaration, env *runtime.Environment) (completion, error) {
	var kind runtime.BindingKind
	switch decl.Kind {
	case "var":
		// var is treated as block-scoped; no hoisting frame is modeled.
		kind = runtime.BindVar
	case "let":
		kind = runtime.BindLet
	case "const":
		kind = runtime.BindConst
	default:
		return completion{}, decl.WrapError(fmt.Errorf("unhandled declaration kind %q", decl.Kind))
	}

	for _, d := range decl.Declarations {
		value := runtime.Value(runtime.Undefined)
		if d.Init != nil {
			var err error
			value, err = i.evalExpression(d.Init, env)
			if err != nil {
				return completion{}, err
			}
		}
		if fn, ok := value.(*runtime.FunctionValue); ok && fn.Name == "" {
			fn.Name = d.ID.Name
		}
		env.Declare(d.ID.Name, kind, value)
	}

	return normalCompletion(runtime.Undefined), nil
}

func (i *Interpreter) evalIf(stmt *ast.IfStatement, env *runtime.Environment) (completion, error) {
	test, err := i.evalExpression(stmt.Test, env)
	if err != nil {
		return completion{}, err
	}

	if runtime.Truthy(test) {
		return i.evalStatement(stmt.Consequent, env)
	}
	if stmt.Alternate != nil {
		return i.evalStatement(stmt.Alternate, env)
	}
	return normalCompletion(runtime.Undefined), nil
}

// evalBody runs a loop body in a fresh per-iteration frame. A block body
// reuses that frame rather than pushing a second one.
func (i *Interpreter) evalBody(stmt ast.Statement, parent *runtime.Environment) (completion, error) {
	env := runtime.NewEnvironment(parent)
	if block, ok := stmt.(*ast.BlockStatement); ok {
		return i.evalStatements(block.Body, env)
	}
	return i.evalStatement(stmt, env)
}

func (i *Interpreter) evalFor(stmt *ast.ForStatement, env *runtime.Environment) (completion, error) {
	// The init clause's declarations live in a frame wrapping the whole
	// loop; each iteration's body gets its own frame under it.
	loopEnv := runtime.NewEnvironment(env)

	switch init := stmt.Init.(type) {
	case nil:
	case *ast.VariableDeclaration:
		if _, err := i.evalVariableDeclaration(init, loopEnv); err != nil {
			return completion{}, err
		}
	case ast.Expression:
		if _, err := i.evalExpression(init, loopEnv); err != nil {
			return completion{}, err
		}
	default:
		return completion{}, stmt.WrapError(fmt.Errorf("unhandled for-loop init: %T", init))
	}

	for {
		if stmt.Test != nil {
			test, err := i.evalExpression(stmt.Test, loopEnv)
			if err != nil {
				return completion{}, err
			}
			if !runtime.Truthy(test) {
				break
			}
		}

		comp, err := i.evalBody(stmt.Body, loopEnv)
		if err != nil {
			return completion{}, err
		}

		if comp.kind == completionReturn {
			return comp, nil
		}
		if comp.kind == completionBreak {
			return normalCompletion(runtime.Undefined), nil
		}

		if stmt.Update != nil {
			if _, err := i.evalExpression(stmt.Update, loopEnv); err != nil {
				return completion{}, err
			}
		}
	}

	return normalCompletion(runtime.Undefined), nil
}

func (i *Interpreter) evalWhile(stmt *ast.WhileStatement, env *runtime.Environment) (completion, error) {
	for {
		test, err := i.evalExpression(stmt.Test, env)
		if err != nil {
			return completion{}, err
		}
		if !runtime.Truthy(test) {
			break
		}

		comp, err := i.evalBody(stmt.Body, env)
		if err != nil {
			return completion{}, err
		}

		if comp.kind == completionReturn {
			return comp, nil
		}
		if comp.kind == completionBreak {
			return normalCompletion(runtime.Undefined), nil
		}
	}

	return normalCompletion(runtime.Undefined), nil
}

func (i *Interpreter) evalSwitch(stmt *ast.SwitchStatement, env *runtime.Environment) (completion, error) {
	disc, err := i.evalExpression(stmt.Discriminant, env)
	if err != nil {
		return completion{}, err
	}

	match := -1
	defaultIdx := -1
	for idx, c := range stmt.Cases {
		if c.Test == nil {
			defaultIdx = idx
			continue
		}
		test, err := i.evalExpression(c.Test, env)
		if err != nil {
			return completion{}, err
		}
		if runtime.StrictEquals(disc, test) {
			match = idx
			break
		}
	}
	if match < 0 {
		match = defaultIdx
	}
	if match < 0 {
		return normalCompletion(runtime.Undefined), nil
	}

	// One frame for the whole case body; execution falls through into
	// subsequent clauses until a break consumes it.
	switchEnv := runtime.NewEnvironment(env)
	for _, c := range stmt.Cases[match:] {
		for _, s := range c.Consequent {
			comp, err := i.evalStatement(s, switchEnv)
			if err != nil {
				return completion{}, err
			}
			switch comp.kind {
			case completionBreak:
				return normalCompletion(runtime.Undefined), nil
			case completionReturn, completionContinue:
				return comp, nil
			}
		}
	}

	return normalCompletion(runtime.Undefined), nil
}

func (i *Interpreter) evalTry(stmt *ast.TryStatement, env *runtime.Environment) (completion, error) {
	pending, pendingErr := i.evalStatements(stmt.Block.Body, runtime.NewEnvironment(env))

	if pendingErr != nil {
		var thrown *runtime.Thrown
		if !errors.As(pendingErr, &thrown) {
			// Structural errors abort evaluation outright; finally does not
			// run for them.
			return completion{}, pendingErr
		}

		if stmt.Handler != nil {
			catchEnv := runtime.NewEnvironment(env)
			if stmt.Handler.Param != nil {
				catchEnv.Declare(stmt.Handler.Param.Name, runtime.BindLet, thrown.Value)
			}
			pending, pendingErr = i.evalStatements(stmt.Handler.Body.Body, catchEnv)
			if pendingErr != nil {
				var rethrown *runtime.Thrown
				if !errors.As(pendingErr, &rethrown) {
					return completion{}, pendingErr
				}
			}
		}
	}

	if stmt.Finalizer != nil {
		comp, err := i.evalStatements(stmt.Finalizer.Body, runtime.NewEnvironment(env))
		if err != nil {
			// A throwing finally overrides whatever outcome was pending.
			return completion{}, err
		}
		if comp.kind != completionNormal {
			return comp, nil
		}
	}

	return pending, pendingErr
}

func paramNames(params []*ast.Identifier) []string {
	names := make([]string, 0, len(params))
	for _, p := range params {
		names = append(names, p.Name)
	}
	return names
}
