package ast

import (
	"encoding/json"
	"fmt"
)

// DecodeJSON decodes serialized parser output (an ESTree-style Program node)
// into typed AST nodes.
func DecodeJSON(data []byte) (*Program, error) {
	var root map[string]any
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("invalid AST document: %w", err)
	}

	return Decode(root)
}

// Decode converts a generic parser node tree into a typed Program.
func Decode(root map[string]any) (*Program, error) {
	typ, _ := root["type"].(string)
	if typ != "Program" {
		return nil, fmt.Errorf("expected Program root node, got %q", typ)
	}

	body, err := decodeStatements(root["body"])
	if err != nil {
		return nil, err
	}

	return &Program{Span: decodeSpan(root), Body: body}, nil
}

func decodeSpan(node map[string]any) Span {
	start, _ := node["start"].(float64)
	end, _ := node["end"].(float64)
	return Span{Start: int(start), End: int(end)}
}

func childNode(raw any) (map[string]any, error) {
	node, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected node object, got %T", raw)
	}
	return node, nil
}

func decodeStatements(raw any) ([]Statement, error) {
	items, _ := raw.([]any)
	stmts := make([]Statement, 0, len(items))
	for _, item := range items {
		node, err := childNode(item)
		if err != nil {
			return nil, err
		}
		stmt, err := decodeStatement(node)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	return stmts, nil
}

func decodeStatement(node map[string]any) (Statement, error) {
	span := decodeSpan(node)
	typ, _ := node["type"].(string)

	switch typ {
	case "VariableDeclaration":
		return decodeVariableDeclaration(node)
	case "FunctionDeclaration":
		id, err := decodeOptionalIdentifier(node["id"])
		if err != nil {
			return nil, err
		}
		params, err := decodeParams(node["params"])
		if err != nil {
			return nil, err
		}
		body, err := decodeBlock(node["body"])
		if err != nil {
			return nil, err
		}
		return &FunctionDeclaration{Span: span, ID: id, Params: params, Body: body}, nil
	case "ExpressionStatement":
		expr, err := decodeExpressionField(node["expression"])
		if err != nil {
			return nil, err
		}
		return &ExpressionStatement{Span: span, Expression: expr}, nil
	case "BlockStatement":
		body, err := decodeStatements(node["body"])
		if err != nil {
			return nil, err
		}
		return &BlockStatement{Span: span, Body: body}, nil
	case "EmptyStatement":
		return &EmptyStatement{Span: span}, nil
	case "IfStatement":
		test, err := decodeExpressionField(node["test"])
		if err != nil {
			return nil, err
		}
		cons, err := decodeStatementField(node["consequent"])
		if err != nil {
			return nil, err
		}
		var alt Statement
		if node["alternate"] != nil {
			alt, err = decodeStatementField(node["alternate"])
			if err != nil {
				return nil, err
			}
		}
		return &IfStatement{Span: span, Test: test, Consequent: cons, Alternate: alt}, nil
	case "ForStatement":
		stmt := &ForStatement{Span: span}
		if node["init"] != nil {
			init, err := childNode(node["init"])
			if err != nil {
				return nil, err
			}
			if initType, _ := init["type"].(string); initType == "VariableDeclaration" {
				decl, err := decodeVariableDeclaration(init)
				if err != nil {
					return nil, err
				}
				stmt.Init = decl
			} else {
				expr, err := decodeExpression(init)
				if err != nil {
					return nil, err
				}
				stmt.Init = expr
			}
		}
		var err error
		if node["test"] != nil {
			stmt.Test, err = decodeExpressionField(node["test"])
			if err != nil {
				return nil, err
			}
		}
		if node["update"] != nil {
			stmt.Update, err = decodeExpressionField(node["update"])
			if err != nil {
				return nil, err
			}
		}
		stmt.Body, err = decodeStatementField(node["body"])
		if err != nil {
			return nil, err
		}
		return stmt, nil
	case "WhileStatement":
		test, err := decodeExpressionField(node["test"])
		if err != nil {
			return nil, err
		}
		body, err := decodeStatementField(node["body"])
		if err != nil {
			return nil, err
		}
		return &WhileStatement{Span: span, Test: test, Body: body}, nil
	case "SwitchStatement":
		disc, err := decodeExpressionField(node["discriminant"])
		if err != nil {
			return nil, err
		}
		casesRaw, _ := node["cases"].([]any)
		cases := make([]*SwitchCase, 0, len(casesRaw))
		for _, raw := range casesRaw {
			caseNode, err := childNode(raw)
			if err != nil {
				return nil, err
			}
			c := &SwitchCase{Span: decodeSpan(caseNode)}
			if caseNode["test"] != nil {
				c.Test, err = decodeExpressionField(caseNode["test"])
				if err != nil {
					return nil, err
				}
			}
			c.Consequent, err = decodeStatements(caseNode["consequent"])
			if err != nil {
				return nil, err
			}
			cases = append(cases, c)
		}
		return &SwitchStatement{Span: span, Discriminant: disc, Cases: cases}, nil
	case "ReturnStatement":
		stmt := &ReturnStatement{Span: span}
		if node["argument"] != nil {
			arg, err := decodeExpressionField(node["argument"])
			if err != nil {
				return nil, err
			}
			stmt.Argument = arg
		}
		return stmt, nil
	case "BreakStatement":
		label, err := decodeOptionalIdentifier(node["label"])
		if err != nil {
			return nil, err
		}
		return &BreakStatement{Span: span, Label: label}, nil
	case "ContinueStatement":
		label, err := decodeOptionalIdentifier(node["label"])
		if err != nil {
			return nil, err
		}
		return &ContinueStatement{Span: span, Label: label}, nil
	case "ThrowStatement":
		arg, err := decodeExpressionField(node["argument"])
		if err != nil {
			return nil, err
		}
		return &ThrowStatement{Span: span, Argument: arg}, nil
	case "TryStatement":
		stmt := &TryStatement{Span: span}
		block, err := decodeBlock(node["block"])
		if err != nil {
			return nil, err
		}
		stmt.Block = block
		if node["handler"] != nil {
			handlerNode, err := childNode(node["handler"])
			if err != nil {
				return nil, err
			}
			param, err := decodeOptionalIdentifier(handlerNode["param"])
			if err != nil {
				return nil, err
			}
			body, err := decodeBlock(handlerNode["body"])
			if err != nil {
				return nil, err
			}
			stmt.Handler = &CatchClause{Span: decodeSpan(handlerNode), Param: param, Body: body}
		}
		if node["finalizer"] != nil {
			stmt.Finalizer, err = decodeBlock(node["finalizer"])
			if err != nil {
				return nil, err
			}
		}
		return stmt, nil
	default:
		return nil, fmt.Errorf("unknown statement type %q", typ)
	}
}

func decodeVariableDeclaration(node map[string]any) (*VariableDeclaration, error) {
	kind, _ := node["kind"].(string)
	switch kind {
	case "var", "let", "const":
	default:
		return nil, fmt.Errorf("unknown declaration kind %q", kind)
	}

	declsRaw, _ := node["declarations"].([]any)
	decls := make([]*VariableDeclarator, 0, len(declsRaw))
	for _, raw := range declsRaw {
		declNode, err := childNode(raw)
		if err != nil {
			return nil, err
		}
		id, err := decodeIdentifierField(declNode["id"])
		if err != nil {
			return nil, err
		}
		d := &VariableDeclarator{Span: decodeSpan(declNode), ID: id}
		if declNode["init"] != nil {
			d.Init, err = decodeExpressionField(declNode["init"])
			if err != nil {
				return nil, err
			}
		}
		decls = append(decls, d)
	}

	return &VariableDeclaration{Span: decodeSpan(node), Kind: kind, Declarations: decls}, nil
}

func decodeStatementField(raw any) (Statement, error) {
	node, err := childNode(raw)
	if err != nil {
		return nil, err
	}
	return decodeStatement(node)
}

func decodeExpressionField(raw any) (Expression, error) {
	node, err := childNode(raw)
	if err != nil {
		return nil, err
	}
	return decodeExpression(node)
}

func decodeIdentifierField(raw any) (*Identifier, error) {
	node, err := childNode(raw)
	if err != nil {
		return nil, err
	}
	typ, _ := node["type"].(string)
	if typ != "Identifier" {
		return nil, fmt.Errorf("expected Identifier, got %q", typ)
	}
	name, _ := node["name"].(string)
	return &Identifier{Span: decodeSpan(node), Name: name}, nil
}

func decodeOptionalIdentifier(raw any) (*Identifier, error) {
	if raw == nil {
		return nil, nil
	}
	return decodeIdentifierField(raw)
}

func decodeParams(raw any) ([]*Identifier, error) {
	items, _ := raw.([]any)
	params := make([]*Identifier, 0, len(items))
	for _, item := range items {
		param, err := decodeIdentifierField(item)
		if err != nil {
			return nil, err
		}
		params = append(params, param)
	}
	return params, nil
}

func decodeBlock(raw any) (*BlockStatement, error) {
	node, err := childNode(raw)
	if err != nil {
		return nil, err
	}
	typ, _ := node["type"].(string)
	if typ != "BlockStatement" {
		return nil, fmt.Errorf("expected BlockStatement, got %q", typ)
	}
	body, err := decodeStatements(node["body"])
	if err != nil {
		return nil, err
	}
	return &BlockStatement{Span: decodeSpan(node), Body: body}, nil
}

func decodeExpression(node map[string]any) (Expression, error) {
	span := decodeSpan(node)
	typ, _ := node["type"].(string)

	switch typ {
	case "Identifier":
		name, _ := node["name"].(string)
		return &Identifier{Span: span, Name: name}, nil
	case "ThisExpression":
		return &ThisExpression{Span: span}, nil
	case "Literal":
		return &Literal{Span: span, Value: node["value"]}, nil
	case "ArrayExpression":
		elemsRaw, _ := node["elements"].([]any)
		elems := make([]Expression, 0, len(elemsRaw))
		for _, raw := range elemsRaw {
			elem, err := decodeExpressionField(raw)
			if err != nil {
				return nil, err
			}
			elems = append(elems, elem)
		}
		return &ArrayExpression{Span: span, Elements: elems}, nil
	case "ObjectExpression":
		propsRaw, _ := node["properties"].([]any)
		props := make([]*Property, 0, len(propsRaw))
		for _, raw := range propsRaw {
			propNode, err := childNode(raw)
			if err != nil {
				return nil, err
			}
			key, err := decodeExpressionField(propNode["key"])
			if err != nil {
				return nil, err
			}
			value, err := decodeExpressionField(propNode["value"])
			if err != nil {
				return nil, err
			}
			computed, _ := propNode["computed"].(bool)
			props = append(props, &Property{
				Span:     decodeSpan(propNode),
				Key:      key,
				Value:    value,
				Computed: computed,
			})
		}
		return &ObjectExpression{Span: span, Properties: props}, nil
	case "FunctionExpression":
		id, err := decodeOptionalIdentifier(node["id"])
		if err != nil {
			return nil, err
		}
		params, err := decodeParams(node["params"])
		if err != nil {
			return nil, err
		}
		body, err := decodeBlock(node["body"])
		if err != nil {
			return nil, err
		}
		return &FunctionExpression{Span: span, ID: id, Params: params, Body: body}, nil
	case "ArrowFunctionExpression":
		params, err := decodeParams(node["params"])
		if err != nil {
			return nil, err
		}
		bodyNode, err := childNode(node["body"])
		if err != nil {
			return nil, err
		}
		expr := &ArrowFunctionExpression{Span: span, Params: params}
		if bodyType, _ := bodyNode["type"].(string); bodyType == "BlockStatement" {
			expr.Body, err = decodeBlock(node["body"])
		} else {
			expr.Body, err = decodeExpression(bodyNode)
		}
		if err != nil {
			return nil, err
		}
		return expr, nil
	case "UnaryExpression":
		op, _ := node["operator"].(string)
		arg, err := decodeExpressionField(node["argument"])
		if err != nil {
			return nil, err
		}
		return &UnaryExpression{Span: span, Operator: op, Argument: arg}, nil
	case "UpdateExpression":
		op, _ := node["operator"].(string)
		arg, err := decodeExpressionField(node["argument"])
		if err != nil {
			return nil, err
		}
		prefix, _ := node["prefix"].(bool)
		return &UpdateExpression{Span: span, Operator: op, Argument: arg, Prefix: prefix}, nil
	case "BinaryExpression":
		op, _ := node["operator"].(string)
		left, err := decodeExpressionField(node["left"])
		if err != nil {
			return nil, err
		}
		right, err := decodeExpressionField(node["right"])
		if err != nil {
			return nil, err
		}
		return &BinaryExpression{Span: span, Operator: op, Left: left, Right: right}, nil
	case "LogicalExpression":
		op, _ := node["operator"].(string)
		left, err := decodeExpressionField(node["left"])
		if err != nil {
			return nil, err
		}
		right, err := decodeExpressionField(node["right"])
		if err != nil {
			return nil, err
		}
		return &LogicalExpression{Span: span, Operator: op, Left: left, Right: right}, nil
	case "ConditionalExpression":
		test, err := decodeExpressionField(node["test"])
		if err != nil {
			return nil, err
		}
		cons, err := decodeExpressionField(node["consequent"])
		if err != nil {
			return nil, err
		}
		alt, err := decodeExpressionField(node["alternate"])
		if err != nil {
			return nil, err
		}
		return &ConditionalExpression{Span: span, Test: test, Consequent: cons, Alternate: alt}, nil
	case "AssignmentExpression":
		op, _ := node["operator"].(string)
		left, err := decodeExpressionField(node["left"])
		if err != nil {
			return nil, err
		}
		right, err := decodeExpressionField(node["right"])
		if err != nil {
			return nil, err
		}
		return &AssignmentExpression{Span: span, Operator: op, Left: left, Right: right}, nil
	case "MemberExpression":
		obj, err := decodeExpressionField(node["object"])
		if err != nil {
			return nil, err
		}
		prop, err := decodeExpressionField(node["property"])
		if err != nil {
			return nil, err
		}
		computed, _ := node["computed"].(bool)
		return &MemberExpression{Span: span, Object: obj, Property: prop, Computed: computed}, nil
	case "CallExpression":
		callee, err := decodeExpressionField(node["callee"])
		if err != nil {
			return nil, err
		}
		argsRaw, _ := node["arguments"].([]any)
		args := make([]Expression, 0, len(argsRaw))
		for _, raw := range argsRaw {
			arg, err := decodeExpressionField(raw)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
		}
		return &CallExpression{Span: span, Callee: callee, Arguments: args}, nil
	case "SequenceExpression":
		exprsRaw, _ := node["expressions"].([]any)
		exprs := make([]Expression, 0, len(exprsRaw))
		for _, raw := range exprsRaw {
			expr, err := decodeExpressionField(raw)
			if err != nil {
				return nil, err
			}
			exprs = append(exprs, expr)
		}
		return &SequenceExpression{Span: span, Expressions: exprs}, nil
	default:
		return nil, fmt.Errorf("unknown expression type %q", typ)
	}
}
