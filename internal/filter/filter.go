// Package filter компилирует клиентское выражение поиска в дерево предикатов.
//
// Грамматика:
//
//	expr   := or
//	or     := and { OR and }
//	and    := unary { AND unary }
//	unary  := NOT unary | '(' or ')' | clause
//	clause := field op value | field IN '(' value { ',' value } ')'
//	op     := ':' | '!:' | '>' | '>=' | '<' | '<=' | '~'
//
// AND связывает сильнее OR. Значения — строки в одинарных или двойных кавычках
// либо токены без пробелов; для числовых полей значение разбирается как
// десятичное число. Дерево не зависит от хранилища: адаптеры обходят его и
// строят нативную форму запроса.
package filter

import (
	"fmt"
	"strings"

	"github.com/DRSN-tech/catalog-backend/pkg/e"
	"github.com/shopspring/decimal"
)

// Op — оператор сравнения в листе дерева.
type Op int

const (
	OpEq Op = iota
	OpNe
	OpGt
	OpGe
	OpLt
	OpLe
	OpLike
	OpIn
)

func (o Op) String() string {
	switch o {
	case OpEq:
		return ":"
	case OpNe:
		return "!:"
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpLike:
		return "~"
	case OpIn:
		return "IN"
	default:
		return "?"
	}
}

// FieldType — семантический тип объявленного поля.
type FieldType int

const (
	String FieldType = iota
	Numeric
)

// Schema объявляет допустимые поля сущности и их типы.
// Ссылка на необъявленное поле — ошибка компиляции выражения.
type Schema map[string]FieldType

// ProductFields — поля, по которым допустим поиск товаров.
// owner — username владельца.
var ProductFields = Schema{
	"name":     String,
	"price":    Numeric,
	"currency": String,
	"owner":    String,
}

// Kind — вид узла дерева.
type Kind int

const (
	KindLeaf Kind = iota
	KindAnd
	KindOr
	KindNot
)

// Value — типизированное значение листа.
// Для числовых полей значение хранится в минорных единицах (центах).
type Value struct {
	Kind  FieldType
	Str   string
	Cents int64
}

// Node — узел дерева предикатов. Для KindAnd/KindOr заполнены Left и Right,
// для KindNot — Child, для KindLeaf — Field, Op и Value (Values для IN).
type Node struct {
	Kind   Kind
	Left   *Node
	Right  *Node
	Child  *Node
	Field  string
	Op     Op
	Value  Value
	Values []Value
}

// Parse компилирует выражение в дерево предикатов по заданной схеме полей.
// Любая ошибка разбора оборачивает e.ErrMalformedFilter. Для одного и того же
// входа результат структурно идентичен.
func Parse(input string, schema Schema) (*Node, error) {
	tokens, err := lex(input)
	if err != nil {
		return nil, err
	}

	p := &parser{tokens: tokens, schema: schema}
	node, err := p.parseOr()
	if err != nil {
		return nil, err
	}

	if p.peek().kind != tkEOF {
		return nil, malformed("unexpected %q after end of expression", p.peek().text)
	}

	return node, nil
}

// Matches вычисляет дерево по значениям полей сущности: строковые поля
// передаются как string, числовые — как int64 в центах. Используется для
// проверки семантики операторов без обращения к хранилищу.
func (n *Node) Matches(fields map[string]any) bool {
	switch n.Kind {
	case KindAnd:
		return n.Left.Matches(fields) && n.Right.Matches(fields)
	case KindOr:
		return n.Left.Matches(fields) || n.Right.Matches(fields)
	case KindNot:
		return !n.Child.Matches(fields)
	case KindLeaf:
		return n.matchLeaf(fields)
	default:
		return false
	}
}

func (n *Node) matchLeaf(fields map[string]any) bool {
	raw, ok := fields[n.Field]
	if !ok {
		return false
	}

	if n.Op == OpIn {
		for _, v := range n.Values {
			if compareValue(raw, OpEq, v) {
				return true
			}
		}
		return false
	}

	return compareValue(raw, n.Op, n.Value)
}

func compareValue(raw any, op Op, val Value) bool {
	if val.Kind == Numeric {
		c, ok := raw.(int64)
		if !ok {
			return false
		}
		return compareOrdered(c, val.Cents, op)
	}

	s, ok := raw.(string)
	if !ok {
		return false
	}
	if op == OpLike {
		return strings.Contains(s, val.Str)
	}
	return compareOrdered(s, val.Str, op)
}

func compareOrdered[T int64 | string](a, b T, op Op) bool {
	switch op {
	case OpEq:
		return a == b
	case OpNe:
		return a != b
	case OpGt:
		return a > b
	case OpGe:
		return a >= b
	case OpLt:
		return a < b
	case OpLe:
		return a <= b
	default:
		return false
	}
}

// coerceValue приводит текст значения к типу поля.
func coerceValue(text string, quoted bool, ft FieldType) (Value, error) {
	if ft == String {
		return Value{Kind: String, Str: text}, nil
	}

	if quoted {
		return Value{}, malformed("numeric field value %q must not be quoted", text)
	}

	d, err := decimal.NewFromString(text)
	if err != nil {
		return Value{}, malformed("invalid numeric value %q", text)
	}
	if d.Exponent() < -2 {
		return Value{}, malformed("numeric value %q has more than 2 decimal places", text)
	}

	return Value{Kind: Numeric, Cents: d.Mul(decimal.NewFromInt(100)).IntPart()}, nil
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", e.ErrMalformedFilter, fmt.Sprintf(format, args...))
}
