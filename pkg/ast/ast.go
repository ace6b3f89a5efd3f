// Package ast defines the ESTree-style node schema produced by the external
// parser and consumed by the evaluator. Every node carries source offsets for
// diagnostics.
package ast

// Span is the half-open source range [Start, End) a node covers.
type Span struct {
	Start int
	End   int
}

func (s Span) Pos() (int, int) {
	return s.Start, s.End
}

type Node interface {
	Pos() (int, int)
	WrapError(error) error
}

type Statement interface {
	Node
	statement()
}

type Expression interface {
	Node
	expression()
}

type Program struct {
	Span

	Body []Statement
}

type VariableDeclarator struct {
	Span

	ID   *Identifier
	Init Expression
}

type VariableDeclaration struct {
	Span

	Kind         string
	Declarations []*VariableDeclarator
}

func (*VariableDeclaration) statement() {}

type FunctionDeclaration struct {
	Span

	ID     *Identifier
	Params []*Identifier
	Body   *BlockStatement
}

func (*FunctionDeclaration) statement() {}

type ExpressionStatement struct {
	Span

	Expression Expression
}

func (*ExpressionStatement) statement() {}

type BlockStatement struct {
	Span

	Body []Statement
}

func (*BlockStatement) statement() {}

type EmptyStatement struct {
	Span
}

func (*EmptyStatement) statement() {}

type IfStatement struct {
	Span

	Test       Expression
	Consequent Statement
	Alternate  Statement
}

func (*IfStatement) statement() {}

type ForStatement struct {
	Span

	// Init is either a *VariableDeclaration or an Expression; any of the
	// three clauses may be nil.
	Init   Node
	Test   Expression
	Update Expression
	Body   Statement
}

func (*ForStatement) statement() {}

type WhileStatement struct {
	Span

	Test Expression
	Body Statement
}

func (*WhileStatement) statement() {}

type SwitchCase struct {
	Span

	// Test is nil for the default clause.
	Test       Expression
	Consequent []Statement
}

type SwitchStatement struct {
	Span

	Discriminant Expression
	Cases        []*SwitchCase
}

func (*SwitchStatement) statement() {}

type ReturnStatement struct {
	Span

	Argument Expression
}

func (*ReturnStatement) statement() {}

type BreakStatement struct {
	Span

	Label *Identifier
}

func (*BreakStatement) statement() {}

type ContinueStatement struct {
	Span

	Label *Identifier
}

func (*ContinueStatement) statement() {}

type ThrowStatement struct {
	Span

	Argument Expression
}

func (*ThrowStatement) statement() {}

type CatchClause struct {
	Span

	Param *Identifier
	Body  *BlockStatement
}

type TryStatement struct {
	Span

	Block     *BlockStatement
	Handler   *CatchClause
	Finalizer *BlockStatement
}

func (*TryStatement) statement() {}

type Identifier struct {
	Span

	Name string
}

func (*Identifier) expression() {}

type ThisExpression struct {
	Span
}

func (*ThisExpression) expression() {}

// Literal holds a primitive constant. Value is float64, string, bool, or nil
// for the null literal.
type Literal struct {
	Span

	Value any
}

func (*Literal) expression() {}

type ArrayExpression struct {
	Span

	Elements []Expression
}

func (*ArrayExpression) expression() {}

type Property struct {
	Span

	// Key is an *Identifier or a *Literal; Computed keys are evaluated.
	Key      Expression
	Value    Expression
	Computed bool
}

type ObjectExpression struct {
	Span

	Properties []*Property
}

func (*ObjectExpression) expression() {}

type FunctionExpression struct {
	Span

	ID     *Identifier
	Params []*Identifier
	Body   *BlockStatement
}

func (*FunctionExpression) expression() {}

type ArrowFunctionExpression struct {
	Span

	Params []*Identifier
	// Body is a *BlockStatement or a bare Expression.
	Body Node
}

func (*ArrowFunctionExpression) expression() {}

type UnaryExpression struct {
	Span

	Operator string
	Argument Expression
}

func (*UnaryExpression) expression() {}

type UpdateExpression struct {
	Span

	Operator string
	Argument Expression
	Prefix   bool
}

func (*UpdateExpression) expression() {}

type BinaryExpression struct {
	Span

	Operator string
	Left     Expression
	Right    Expression
}

func (*BinaryExpression) expression() {}

type LogicalExpression struct {
	Span

	Operator string
	Left     Expression
	Right    Expression
}

func (*LogicalExpression) expression() {}

type ConditionalExpression struct {
	Span

	Test       Expression
	Consequent Expression
	Alternate  Expression
}

func (*ConditionalExpression) expression() {}

type AssignmentExpression struct {
	Span

	Operator string
	Left     Expression
	Right    Expression
}

func (*AssignmentExpression) expression() {}

type MemberExpression struct {
	Span

	Object   Expression
	Property Expression
	Computed bool
}

func (*MemberExpression) expression() {}

type CallExpression struct {
	Span

	Callee    Expression
	Arguments []Expression
}

func (*CallExpression) expression() {}

type SequenceExpression struct {
	Span

	Expressions []Expression
}

func (*SequenceExpression) expression() {}
