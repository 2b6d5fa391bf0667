package filter

import "strings"

type parser struct {
	tokens []token
	pos    int
	schema Schema
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.kind != tkEOF {
		p.pos++
	}
	return t
}

func (p *parser) isKeyword(word string) bool {
	t := p.peek()
	return t.kind == tkIdent && strings.EqualFold(t.text, word)
}

func (p *parser) parseOr() (*Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}

	for p.isKeyword("OR") {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &Node{Kind: KindOr, Left: left, Right: right}
	}

	return left, nil
}

func (p *parser) parseAnd() (*Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for p.isKeyword("AND") {
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &Node{Kind: KindAnd, Left: left, Right: right}
	}

	return left, nil
}

func (p *parser) parseUnary() (*Node, error) {
	if p.isKeyword("NOT") {
		p.next()
		child, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Node{Kind: KindNot, Child: child}, nil
	}

	if p.peek().kind == tkLParen {
		p.next()
		node, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.peek().kind != tkRParen {
			return nil, malformed("expected ')' at position %d", p.peek().pos)
		}
		p.next()
		return node, nil
	}

	return p.parseClause()
}

func (p *parser) parseClause() (*Node, error) {
	t := p.next()
	if t.kind != tkIdent {
		return nil, malformed("expected field name, got %q at position %d", t.text, t.pos)
	}

	fieldType, ok := p.schema[t.text]
	if !ok {
		return nil, malformed("unknown field %q", t.text)
	}
	field := t.text

	if p.isKeyword("IN") {
		p.next()
		values, err := p.parseValueList(fieldType)
		if err != nil {
			return nil, err
		}
		return &Node{Kind: KindLeaf, Field: field, Op: OpIn, Values: values}, nil
	}

	opTok := p.next()
	if opTok.kind != tkOp {
		return nil, malformed("expected operator after field %q, got %q", field, opTok.text)
	}
	op, err := parseOp(opTok.text)
	if err != nil {
		return nil, err
	}
	if op == OpLike && fieldType == Numeric {
		return nil, malformed("operator '~' is not applicable to numeric field %q", field)
	}

	value, err := p.parseValue(fieldType)
	if err != nil {
		return nil, err
	}

	return &Node{Kind: KindLeaf, Field: field, Op: op, Value: value}, nil
}

func (p *parser) parseValueList(ft FieldType) ([]Value, error) {
	if p.peek().kind != tkLParen {
		return nil, malformed("expected '(' after IN at position %d", p.peek().pos)
	}
	p.next()

	var values []Value
	for {
		v, err := p.parseValue(ft)
		if err != nil {
			return nil, err
		}
		values = append(values, v)

		switch p.peek().kind {
		case tkComma:
			p.next()
		case tkRParen:
			p.next()
			return values, nil
		default:
			return nil, malformed("expected ',' or ')' in value list at position %d", p.peek().pos)
		}
	}
}

func (p *parser) parseValue(ft FieldType) (Value, error) {
	t := p.next()
	switch t.kind {
	case tkString:
		return coerceValue(t.text, true, ft)
	case tkIdent:
		// Ключевые слова не могут быть значениями без кавычек
		if strings.EqualFold(t.text, "AND") || strings.EqualFold(t.text, "OR") ||
			strings.EqualFold(t.text, "NOT") || strings.EqualFold(t.text, "IN") {
			return Value{}, malformed("expected value, got keyword %q at position %d", t.text, t.pos)
		}
		return coerceValue(t.text, false, ft)
	default:
		return Value{}, malformed("expected value, got %q at position %d", t.text, t.pos)
	}
}

func parseOp(text string) (Op, error) {
	switch text {
	case ":":
		return OpEq, nil
	case "!:":
		return OpNe, nil
	case ">":
		return OpGt, nil
	case ">=":
		return OpGe, nil
	case "<":
		return OpLt, nil
	case "<=":
		return OpLe, nil
	case "~":
		return OpLike, nil
	default:
		return 0, malformed("unknown operator %q", text)
	}
}
