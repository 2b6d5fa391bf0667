package filter

import (
	"testing"

	"github.com/DRSN-tech/catalog-backend/pkg/e"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func product(name string, priceCents int64) map[string]any {
	return map[string]any{
		"name":     name,
		"price":    priceCents,
		"currency": "USD",
		"owner":    "alice",
	}
}

func TestParse_SingleClause(t *testing.T) {
	t.Parallel()

	node, err := Parse(`name:'Widget'`, ProductFields)
	require.NoError(t, err)

	require.Equal(t, KindLeaf, node.Kind)
	assert.Equal(t, "name", node.Field)
	assert.Equal(t, OpEq, node.Op)
	assert.Equal(t, "Widget", node.Value.Str)
}

func TestParse_NumericCoercion(t *testing.T) {
	t.Parallel()

	node, err := Parse(`price>=10.50`, ProductFields)
	require.NoError(t, err)

	require.Equal(t, KindLeaf, node.Kind)
	assert.Equal(t, OpGe, node.Op)
	assert.Equal(t, Numeric, node.Value.Kind)
	assert.Equal(t, int64(1050), node.Value.Cents)
}

func TestParse_AndBindsTighterThanOr(t *testing.T) {
	t.Parallel()

	// a OR b AND c == a OR (b AND c)
	node, err := Parse(`name:'a' OR name:'b' AND price>1`, ProductFields)
	require.NoError(t, err)

	require.Equal(t, KindOr, node.Kind)
	assert.Equal(t, KindLeaf, node.Left.Kind)
	require.Equal(t, KindAnd, node.Right.Kind)
}

func TestParse_ParenthesesOverridePrecedence(t *testing.T) {
	t.Parallel()

	node, err := Parse(`(name:'a' OR name:'b') AND price>1`, ProductFields)
	require.NoError(t, err)

	require.Equal(t, KindAnd, node.Kind)
	assert.Equal(t, KindOr, node.Left.Kind)
	assert.Equal(t, KindLeaf, node.Right.Kind)
}

func TestParse_Deterministic(t *testing.T) {
	t.Parallel()

	const expr = `(name~'Wid' OR owner:'bob') AND price<=99.99 AND NOT currency!:'USD'`

	first, err := Parse(expr, ProductFields)
	require.NoError(t, err)
	second, err := Parse(expr, ProductFields)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestParse_Malformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		expr string
	}{
		{name: "unknown field", expr: `bogus:1`},
		{name: "non-numeric price", expr: `price>abc`},
		{name: "quoted numeric", expr: `price>'10'`},
		{name: "too many decimal places", expr: `price:10.999`},
		{name: "like on numeric field", expr: `price~10`},
		{name: "missing operator", expr: `name 'Widget'`},
		{name: "dangling AND", expr: `name:'a' AND`},
		{name: "unterminated string", expr: `name:'Widget`},
		{name: "unbalanced parens", expr: `(name:'a' OR name:'b'`},
		{name: "bare bang", expr: `name!'a'`},
		{name: "trailing garbage", expr: `name:'a' name:'b'`},
		{name: "keyword as value", expr: `name:AND`},
		{name: "empty expression", expr: ``},
		{name: "empty in list", expr: `name IN ()`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse(tt.expr, ProductFields)
			require.Error(t, err)
			assert.ErrorIs(t, err, e.ErrMalformedFilter)
		})
	}
}

func TestMatches_EqualsAndGreaterThan(t *testing.T) {
	t.Parallel()

	node, err := Parse(`name:'Widget' AND price>10`, ProductFields)
	require.NoError(t, err)

	cheap := product("Widget", 500)
	pricey := product("Widget", 1500)

	assert.False(t, node.Matches(cheap))
	assert.True(t, node.Matches(pricey))
}

func TestMatches_Operators(t *testing.T) {
	t.Parallel()

	widget := product("Widget", 1000)

	tests := []struct {
		expr string
		want bool
	}{
		{expr: `name:'Widget'`, want: true},
		{expr: `name:'widget'`, want: false}, // сравнение регистрозависимое
		{expr: `name!:'Gadget'`, want: true},
		{expr: `name~'idge'`, want: true},
		{expr: `name~'xyz'`, want: false},
		{expr: `price>=10`, want: true},
		{expr: `price>10`, want: false},
		{expr: `price<10.01`, want: true},
		{expr: `price<=9.99`, want: false},
		{expr: `currency IN ('USD', 'EUR')`, want: true},
		{expr: `currency IN ('GBP', 'EUR')`, want: false},
		{expr: `price IN (5, 10, 15)`, want: true},
		{expr: `NOT owner:'alice'`, want: false},
		{expr: `owner:'alice' OR owner:'bob'`, want: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.expr, func(t *testing.T) {
			t.Parallel()

			node, err := Parse(tt.expr, ProductFields)
			require.NoError(t, err)
			assert.Equal(t, tt.want, node.Matches(widget))
		})
	}
}

func TestMatches_RepeatedFieldIsConjunctive(t *testing.T) {
	t.Parallel()

	node, err := Parse(`price>5 AND price<20`, ProductFields)
	require.NoError(t, err)

	assert.True(t, node.Matches(product("x", 1000)))
	assert.False(t, node.Matches(product("x", 100)))
	assert.False(t, node.Matches(product("x", 5000)))
}
