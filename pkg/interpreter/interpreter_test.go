package interpreter_test

import (
	"errors"
	"testing"

	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/require"

	"github.com/skiff-lang/skiff/pkg/ast"
	"github.com/skiff-lang/skiff/pkg/interpreter"
	"github.com/skiff-lang/skiff/pkg/runtime"
)

func evalProgram(t *testing.T, config interpreter.Config, stmts ...ast.Statement) (runtime.Value, error) {
	t.Helper()

	interp := interpreter.New(slogt.New(t), config)
	return interp.Evaluate(&ast.Program{Body: stmts})
}

func mustEval(t *testing.T, stmts ...ast.Statement) runtime.Value {
	t.Helper()

	v, err := evalProgram(t, interpreter.Config{}, stmts...)
	require.NoError(t, err)
	return v
}

// AST builders. Zero spans are fine: positions only matter for diagnostics.

func id(name string) *ast.Identifier { return &ast.Identifier{Name: name} }

func lit(v any) *ast.Literal { return &ast.Literal{Value: v} }

func exprStmt(e ast.Expression) *ast.ExpressionStatement {
	return &ast.ExpressionStatement{Expression: e}
}

func decl(kind, name string, init ast.Expression) *ast.VariableDeclaration {
	return &ast.VariableDeclaration{
		Kind:         kind,
		Declarations: []*ast.VariableDeclarator{{ID: id(name), Init: init}},
	}
}

func block(stmts ...ast.Statement) *ast.BlockStatement {
	return &ast.BlockStatement{Body: stmts}
}

func ret(e ast.Expression) *ast.ReturnStatement {
	return &ast.ReturnStatement{Argument: e}
}

func assign(op string, left, right ast.Expression) *ast.AssignmentExpression {
	return &ast.AssignmentExpression{Operator: op, Left: left, Right: right}
}

func bin(op string, left, right ast.Expression) *ast.BinaryExpression {
	return &ast.BinaryExpression{Operator: op, Left: left, Right: right}
}

func logical(op string, left, right ast.Expression) *ast.LogicalExpression {
	return &ast.LogicalExpression{Operator: op, Left: left, Right: right}
}

func call(callee ast.Expression, args ...ast.Expression) *ast.CallExpression {
	return &ast.CallExpression{Callee: callee, Arguments: args}
}

func member(obj ast.Expression, name string) *ast.MemberExpression {
	return &ast.MemberExpression{Object: obj, Property: id(name)}
}

func index(obj, key ast.Expression) *ast.MemberExpression {
	return &ast.MemberExpression{Object: obj, Property: key, Computed: true}
}

func arrow(params []string, body ast.Node) *ast.ArrowFunctionExpression {
	ids := make([]*ast.Identifier, 0, len(params))
	for _, p := range params {
		ids = append(ids, id(p))
	}
	return &ast.ArrowFunctionExpression{Params: ids, Body: body}
}

func fnDecl(name string, params []string, body *ast.BlockStatement) *ast.FunctionDeclaration {
	ids := make([]*ast.Identifier, 0, len(params))
	for _, p := range params {
		ids = append(ids, id(p))
	}
	return &ast.FunctionDeclaration{ID: id(name), Params: ids, Body: body}
}

func requireThrownNamed(t *testing.T, err error, name string) *runtime.ObjectValue {
	t.Helper()

	r := require.New(t)
	var thrown *runtime.Thrown
	r.ErrorAs(err, &thrown)

	obj, ok := thrown.Value.(*runtime.ObjectValue)
	r.True(ok, "thrown value should be an error object, got %s", runtime.Format(thrown.Value))
	got, _ := obj.Get("name")
	r.Equal(runtime.StringValue(name), got)
	return obj
}

func TestBlockScoping(t *testing.T) {
	// let x = 1; { let x = 2; x = 3; } x
	v := mustEval(t,
		decl("let", "x", lit(1)),
		block(
			decl("let", "x", lit(2)),
			exprStmt(assign("=", id("x"), lit(3))),
		),
		exprStmt(id("x")),
	)

	require.Equal(t, runtime.NumberValue(1), v)
}

func TestClosureCapturesByReference(t *testing.T) {
	// (() => { let n = 0; const inc = () => { n = n + 1; return n; }; inc(); return inc(); })()
	inc := arrow(nil, block(
		exprStmt(assign("=", id("n"), bin("+", id("n"), lit(1)))),
		ret(id("n")),
	))

	outer := arrow(nil, block(
		decl("let", "n", lit(0)),
		decl("const", "inc", inc),
		exprStmt(call(id("inc"))),
		ret(call(id("inc"))),
	))

	v := mustEval(t, exprStmt(call(outer)))
	require.Equal(t, runtime.NumberValue(2), v)
}

func TestClosureOutlivesDefiningFrame(t *testing.T) {
	r := require.New(t)

	// function makeCounter() { let n = 0; return () => { n = n + 1; return n; }; }
	makeCounter := fnDecl("makeCounter", nil, block(
		decl("let", "n", lit(0)),
		ret(arrow(nil, block(
			exprStmt(assign("=", id("n"), bin("+", id("n"), lit(1)))),
			ret(id("n")),
		))),
	))

	v := mustEval(t,
		makeCounter,
		decl("const", "a", call(id("makeCounter"))),
		decl("const", "b", call(id("makeCounter"))),
		exprStmt(call(id("a"))),
		exprStmt(call(id("a"))),
		// each counter owns its own captured frame
		exprStmt(bin("+", call(id("a")), call(id("b")))),
	)

	r.Equal(runtime.NumberValue(4), v, "third a() is 3, first b() is 1")
}

func TestConstImmutability(t *testing.T) {
	t.Run("rebinding is an error", func(t *testing.T) {
		_, err := evalProgram(t, interpreter.Config{},
			decl("const", "c", lit(1)),
			exprStmt(assign("=", id("c"), lit(2))),
		)
		requireThrownNamed(t, err, "TypeError")
	})

	t.Run("contained object stays mutable", func(t *testing.T) {
		obj := &ast.ObjectExpression{Properties: []*ast.Property{
			{Key: id("a"), Value: lit(1)},
		}}

		v := mustEval(t,
			decl("const", "o", obj),
			exprStmt(assign("=", member(id("o"), "a"), lit(2))),
			exprStmt(member(id("o"), "a")),
		)
		require.Equal(t, runtime.NumberValue(2), v)
	})

	t.Run("caught by try/catch", func(t *testing.T) {
		v := mustEval(t,
			decl("const", "c", lit(1)),
			&ast.TryStatement{
				Block: block(exprStmt(assign("=", id("c"), lit(2)))),
				Handler: &ast.CatchClause{
					Param: id("e"),
					Body:  block(exprStmt(member(id("e"), "name"))),
				},
			},
		)
		require.Equal(t, runtime.StringValue("TypeError"), v)
	})
}

func TestForLoopContinueAndBreak(t *testing.T) {
	// let visited = []; for (let i = 0; i < 5; i++) { if (i === 2) continue;
	// if (i === 4) break; visited[visited.length] = i; } visited
	push := exprStmt(assign("=",
		index(id("visited"), member(id("visited"), "length")),
		id("i"),
	))

	loop := &ast.ForStatement{
		Init: decl("let", "i", lit(0)),
		Test: bin("<", id("i"), lit(5)),
		Update: &ast.UpdateExpression{
			Operator: "++",
			Argument: id("i"),
		},
		Body: block(
			&ast.IfStatement{
				Test:       bin("===", id("i"), lit(2)),
				Consequent: &ast.ContinueStatement{},
			},
			&ast.IfStatement{
				Test:       bin("===", id("i"), lit(4)),
				Consequent: &ast.BreakStatement{},
			},
			push,
		),
	}

	v := mustEval(t,
		decl("let", "visited", &ast.ArrayExpression{}),
		loop,
		exprStmt(id("visited")),
	)

	require.Equal(t, "[0, 1, 3]", runtime.Format(v))
}

func TestWhileLoop(t *testing.T) {
	// let n = 0; while (n < 10) { n = n + 3; } n
	v := mustEval(t,
		decl("let", "n", lit(0)),
		&ast.WhileStatement{
			Test: bin("<", id("n"), lit(10)),
			Body: block(exprStmt(assign("=", id("n"), bin("+", id("n"), lit(3))))),
		},
		exprStmt(id("n")),
	)

	require.Equal(t, runtime.NumberValue(12), v)
}

func TestTryFinallyOverridesReturn(t *testing.T) {
	// function f() { try { return 1; } finally { return 2; } } f()
	f := fnDecl("f", nil, block(
		&ast.TryStatement{
			Block:     block(ret(lit(1))),
			Finalizer: block(ret(lit(2))),
		},
	))

	v := mustEval(t, f, exprStmt(call(id("f"))))
	require.Equal(t, runtime.NumberValue(2), v)
}

func TestTryCatch(t *testing.T) {
	t.Run("catch binds the thrown value", func(t *testing.T) {
		v := mustEval(t,
			&ast.TryStatement{
				Block: block(&ast.ThrowStatement{Argument: lit("boom")}),
				Handler: &ast.CatchClause{
					Param: id("e"),
					Body:  block(exprStmt(bin("+", id("e"), lit("!")))),
				},
			},
		)
		require.Equal(t, runtime.StringValue("boom!"), v)
	})

	t.Run("throwing handler replaces the outcome", func(t *testing.T) {
		_, err := evalProgram(t, interpreter.Config{},
			&ast.TryStatement{
				Block: block(&ast.ThrowStatement{Argument: lit("first")}),
				Handler: &ast.CatchClause{
					Param: id("e"),
					Body:  block(&ast.ThrowStatement{Argument: lit("second")}),
				},
			},
		)

		var thrown *runtime.Thrown
		require.ErrorAs(t, err, &thrown)
		require.Equal(t, runtime.StringValue("second"), thrown.Value)
	})

	t.Run("finally override beats a pending throw", func(t *testing.T) {
		f := fnDecl("f", nil, block(
			&ast.TryStatement{
				Block:     block(&ast.ThrowStatement{Argument: lit("boom")}),
				Finalizer: block(ret(lit("recovered"))),
			},
		))

		v := mustEval(t, f, exprStmt(call(id("f"))))
		require.Equal(t, runtime.StringValue("recovered"), v)
	})

	t.Run("uncatchable without handler", func(t *testing.T) {
		_, err := evalProgram(t, interpreter.Config{},
			&ast.TryStatement{
				Block:     block(&ast.ThrowStatement{Argument: lit(42)}),
				Finalizer: block(exprStmt(lit("cleanup"))),
			},
		)

		var thrown *runtime.Thrown
		require.ErrorAs(t, err, &thrown)
		require.Equal(t, runtime.NumberValue(42), thrown.Value)
	})
}

func TestSwitchFallthrough(t *testing.T) {
	// let log = ""; switch (1) { case 1: log += "a"; case 2: log += "b";
	// break; case 3: log += "c"; } log
	appendTo := func(s string) ast.Statement {
		return exprStmt(assign("=", id("log"), bin("+", id("log"), lit(s))))
	}

	v := mustEval(t,
		decl("let", "log", lit("")),
		&ast.SwitchStatement{
			Discriminant: lit(1),
			Cases: []*ast.SwitchCase{
				{Test: lit(1), Consequent: []ast.Statement{appendTo("a")}},
				{Test: lit(2), Consequent: []ast.Statement{appendTo("b"), &ast.BreakStatement{}}},
				{Test: lit(3), Consequent: []ast.Statement{appendTo("c")}},
			},
		},
		exprStmt(id("log")),
	)

	require.Equal(t, runtime.StringValue("ab"), v)
}

func TestSwitchDefault(t *testing.T) {
	v := mustEval(t,
		decl("let", "out", lit("")),
		&ast.SwitchStatement{
			Discriminant: lit(99),
			Cases: []*ast.SwitchCase{
				{Test: lit(1), Consequent: []ast.Statement{exprStmt(assign("=", id("out"), lit("one")))}},
				{Test: nil, Consequent: []ast.Statement{exprStmt(assign("=", id("out"), lit("default")))}},
			},
		},
		exprStmt(id("out")),
	)

	require.Equal(t, runtime.StringValue("default"), v)
}

func TestSwitchReturnPropagates(t *testing.T) {
	f := fnDecl("f", []string{"x"}, block(
		&ast.SwitchStatement{
			Discriminant: id("x"),
			Cases: []*ast.SwitchCase{
				{Test: lit(1), Consequent: []ast.Statement{ret(lit("one"))}},
			},
		},
		ret(lit("other")),
	))

	v := mustEval(t, f, exprStmt(call(id("f"), lit(1))))
	require.Equal(t, runtime.StringValue("one"), v)
}

func TestPureEvaluationIsIdempotent(t *testing.T) {
	r := require.New(t)

	build := func() ast.Statement {
		return exprStmt(bin("+", lit(2), bin("*", lit(3), lit(4))))
	}

	first := mustEval(t, build())
	second := mustEval(t, build())

	r.Equal(runtime.NumberValue(14), first)
	r.Equal(first, second)
}

func TestIdentifierFallback(t *testing.T) {
	t.Run("loose mode reads a free identifier as its name", func(t *testing.T) {
		v := mustEval(t, exprStmt(id("mystery")))
		require.Equal(t, runtime.StringValue("mystery"), v)
	})

	t.Run("strict mode throws a reference error", func(t *testing.T) {
		_, err := evalProgram(t, interpreter.Config{StrictIdentifiers: true},
			exprStmt(id("mystery")),
		)
		requireThrownNamed(t, err, "ReferenceError")
	})

	t.Run("builtin names resolve either way", func(t *testing.T) {
		v := mustEval(t, exprStmt(id("undefined")))
		require.Equal(t, runtime.Value(runtime.Undefined), v)
	})
}

func TestGlobalsSeedTheOutermostFrame(t *testing.T) {
	config := interpreter.Config{
		Globals: map[string]runtime.Value{
			"answer": runtime.NumberValue(42),
		},
	}

	v, err := evalProgram(t, config, exprStmt(bin("+", id("answer"), lit(1))))
	require.NoError(t, err)
	require.Equal(t, runtime.NumberValue(43), v)
}

func TestOperators(t *testing.T) {
	tests := []struct {
		name string
		expr ast.Expression
		want runtime.Value
	}{
		{"addition", bin("+", lit(1), lit(2)), runtime.NumberValue(3)},
		{"string concat left", bin("+", lit("a"), lit(1)), runtime.StringValue("a1")},
		{"string concat right", bin("+", lit(1), lit("a")), runtime.StringValue("1a")},
		{"subtraction", bin("-", lit(5), lit(3)), runtime.NumberValue(2)},
		{"division", bin("/", lit(7), lit(2)), runtime.NumberValue(3.5)},
		{"modulo", bin("%", lit(7), lit(4)), runtime.NumberValue(3)},
		{"less than", bin("<", lit(1), lit(2)), runtime.BoolValue(true)},
		{"string compare", bin("<", lit("apple"), lit("banana")), runtime.BoolValue(true)},
		{"strict equal", bin("===", lit(1), lit(1)), runtime.BoolValue(true)},
		{"strict not equal kinds", bin("===", lit(1), lit("1")), runtime.BoolValue(false)},
		{"negation", &ast.UnaryExpression{Operator: "-", Argument: lit(3)}, runtime.NumberValue(-3)},
		{"not", &ast.UnaryExpression{Operator: "!", Argument: lit(0)}, runtime.BoolValue(true)},
		{"typeof number", &ast.UnaryExpression{Operator: "typeof", Argument: lit(1)}, runtime.StringValue("number")},
		{"conditional", &ast.ConditionalExpression{Test: lit(true), Consequent: lit("y"), Alternate: lit("n")}, runtime.StringValue("y")},
		{"sequence", &ast.SequenceExpression{Expressions: []ast.Expression{lit(1), lit(2), lit(3)}}, runtime.NumberValue(3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := mustEval(t, exprStmt(tt.expr))
			require.Equal(t, tt.want, v)
		})
	}
}

func TestDivisionByZero(t *testing.T) {
	r := require.New(t)

	v := mustEval(t, exprStmt(bin("/", lit(1), lit(0))))
	r.Equal("Infinity", runtime.Format(v))

	v = mustEval(t, exprStmt(bin("/", lit(0), lit(0))))
	r.Equal("NaN", runtime.Format(v))
}

func TestLogicalShortCircuit(t *testing.T) {
	r := require.New(t)

	// The right operand would throw if evaluated: calling a non-function.
	boom := call(lit(1))

	v := mustEval(t, exprStmt(logical("||", lit(true), boom)))
	r.Equal(runtime.BoolValue(true), v)

	v = mustEval(t, exprStmt(logical("&&", lit(false), boom)))
	r.Equal(runtime.BoolValue(false), v)

	// Logical expressions produce the deciding operand's value.
	v = mustEval(t, exprStmt(logical("||", lit(0), lit("fallback"))))
	r.Equal(runtime.StringValue("fallback"), v)
}

func TestFunctionArity(t *testing.T) {
	f := fnDecl("f", []string{"a", "b"}, block(
		ret(&ast.ArrayExpression{Elements: []ast.Expression{id("a"), id("b")}}),
	))

	t.Run("missing arguments bind undefined", func(t *testing.T) {
		v := mustEval(t, f, exprStmt(call(id("f"), lit(1))))
		require.Equal(t, "[1, undefined]", runtime.Format(v))
	})

	t.Run("extra arguments are ignored", func(t *testing.T) {
		v := mustEval(t, f, exprStmt(call(id("f"), lit(1), lit(2), lit(3))))
		require.Equal(t, "[1, 2]", runtime.Format(v))
	})
}

func TestFunctionWithoutReturnYieldsUndefined(t *testing.T) {
	f := fnDecl("f", nil, block(exprStmt(lit(1))))

	v := mustEval(t, f, exprStmt(call(id("f"))))
	require.Equal(t, runtime.Value(runtime.Undefined), v)
}

func TestArrowExpressionBody(t *testing.T) {
	double := decl("const", "double", arrow([]string{"x"}, bin("*", id("x"), lit(2))))

	v := mustEval(t, double, exprStmt(call(id("double"), lit(21))))
	require.Equal(t, runtime.NumberValue(42), v)
}

func TestMethodCallBindsReceiver(t *testing.T) {
	// const obj = {x: 5, getX: function() { return this.x; }}; obj.getX()
	getX := &ast.FunctionExpression{
		Body: block(ret(member(&ast.ThisExpression{}, "x"))),
	}
	obj := &ast.ObjectExpression{Properties: []*ast.Property{
		{Key: id("x"), Value: lit(5)},
		{Key: id("getX"), Value: getX},
	}}

	v := mustEval(t,
		decl("const", "obj", obj),
		exprStmt(call(member(id("obj"), "getX"))),
	)
	require.Equal(t, runtime.NumberValue(5), v)
}

func TestKeyPathAssignment(t *testing.T) {
	// let a = {b: {c: 1}}; a.b.c = 2; a.b.c += 3; a.b.c
	inner := &ast.ObjectExpression{Properties: []*ast.Property{
		{Key: id("c"), Value: lit(1)},
	}}
	outer := &ast.ObjectExpression{Properties: []*ast.Property{
		{Key: id("b"), Value: inner},
	}}

	v := mustEval(t,
		decl("let", "a", outer),
		exprStmt(assign("=", member(member(id("a"), "b"), "c"), lit(2))),
		exprStmt(assign("+=", member(member(id("a"), "b"), "c"), lit(3))),
		exprStmt(member(member(id("a"), "b"), "c")),
	)
	require.Equal(t, runtime.NumberValue(5), v)
}

func TestAssignmentThroughUndefinedThrows(t *testing.T) {
	_, err := evalProgram(t, interpreter.Config{},
		decl("let", "a", nil),
		exprStmt(assign("=", member(id("a"), "b"), lit(1))),
	)
	requireThrownNamed(t, err, "TypeError")
}

func TestUpdateExpressions(t *testing.T) {
	r := require.New(t)

	v := mustEval(t,
		decl("let", "i", lit(5)),
		exprStmt(&ast.UpdateExpression{Operator: "++", Argument: id("i")}),
	)
	r.Equal(runtime.NumberValue(5), v, "postfix yields the old value")

	v = mustEval(t,
		decl("let", "i", lit(5)),
		exprStmt(&ast.UpdateExpression{Operator: "--", Argument: id("i"), Prefix: true}),
	)
	r.Equal(runtime.NumberValue(4), v, "prefix yields the new value")
}

func TestUnhandledOperatorIsStructural(t *testing.T) {
	r := require.New(t)

	_, err := evalProgram(t, interpreter.Config{},
		exprStmt(&ast.BinaryExpression{
			Span:     ast.Span{Start: 4, End: 9},
			Operator: "<=>",
			Left:     lit(1),
			Right:    lit(2),
		}),
	)
	r.Error(err)

	var thrown *runtime.Thrown
	r.False(errors.As(err, &thrown), "structural errors are not catchable throws")

	var posErr ast.PositionError
	r.ErrorAs(err, &posErr)
	r.Equal(4, posErr.Start)
	r.Equal(9, posErr.End)
}

func TestTopLevelBreakIsStructural(t *testing.T) {
	_, err := evalProgram(t, interpreter.Config{}, &ast.BreakStatement{})
	require.ErrorContains(t, err, "illegal break statement")
}

func TestProgramResultIsLastCompletingStatement(t *testing.T) {
	v := mustEval(t,
		exprStmt(lit(1)),
		decl("let", "x", lit(2)),
		exprStmt(bin("+", id("x"), lit(10))),
	)
	require.Equal(t, runtime.NumberValue(12), v)
}
