package pgdb

import (
	"fmt"
	"strings"

	"github.com/DRSN-tech/catalog-backend/internal/filter"
)

// productColumns сопоставляет поля выражения поиска колонкам запроса
// (products p JOIN users u).
var productColumns = map[string]string{
	"name":     "p.name",
	"price":    "p.price",
	"currency": "p.currency",
	"owner":    "u.username",
}

// BuildProductWhere обходит дерево предикатов и строит условие WHERE
// с позиционными плейсхолдерами. Дерево уже проверено компилятором
// выражения, поэтому построение не может завершиться ошибкой.
func BuildProductWhere(node *filter.Node) (string, []any) {
	b := &whereBuilder{}
	sql := b.build(node)
	return sql, b.args
}

type whereBuilder struct {
	args []any
}

func (b *whereBuilder) build(n *filter.Node) string {
	switch n.Kind {
	case filter.KindAnd:
		return fmt.Sprintf("(%s AND %s)", b.build(n.Left), b.build(n.Right))
	case filter.KindOr:
		return fmt.Sprintf("(%s OR %s)", b.build(n.Left), b.build(n.Right))
	case filter.KindNot:
		return fmt.Sprintf("NOT %s", b.build(n.Child))
	default:
		return b.leaf(n)
	}
}

func (b *whereBuilder) leaf(n *filter.Node) string {
	column := productColumns[n.Field]

	switch n.Op {
	case filter.OpIn:
		return fmt.Sprintf("%s = ANY(%s)", column, b.placeholderList(n))
	case filter.OpLike:
		return fmt.Sprintf(`%s LIKE %s ESCAPE '\'`, column, b.placeholder("%"+escapeLike(n.Value.Str)+"%"))
	default:
		return fmt.Sprintf("%s %s %s", column, sqlOp(n.Op), b.placeholder(argValue(n.Value)))
	}
}

func (b *whereBuilder) placeholder(arg any) string {
	b.args = append(b.args, arg)
	return fmt.Sprintf("$%d", len(b.args))
}

func (b *whereBuilder) placeholderList(n *filter.Node) string {
	if n.Values[0].Kind == filter.Numeric {
		vals := make([]int64, 0, len(n.Values))
		for _, v := range n.Values {
			vals = append(vals, v.Cents)
		}
		return b.placeholder(vals)
	}

	vals := make([]string, 0, len(n.Values))
	for _, v := range n.Values {
		vals = append(vals, v.Str)
	}
	return b.placeholder(vals)
}

func sqlOp(op filter.Op) string {
	switch op {
	case filter.OpEq:
		return "="
	case filter.OpNe:
		return "<>"
	case filter.OpGt:
		return ">"
	case filter.OpGe:
		return ">="
	case filter.OpLt:
		return "<"
	default:
		return "<="
	}
}

func argValue(v filter.Value) any {
	if v.Kind == filter.Numeric {
		return v.Cents
	}
	return v.Str
}

// escapeLike экранирует спецсимволы LIKE в пользовательской подстроке.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
