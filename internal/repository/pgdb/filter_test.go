package pgdb

import (
	"testing"

	"github.com/DRSN-tech/catalog-backend/internal/filter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, expr string) *filter.Node {
	t.Helper()

	node, err := filter.Parse(expr, filter.ProductFields)
	require.NoError(t, err)
	return node
}

func TestBuildProductWhere_Leaf(t *testing.T) {
	t.Parallel()

	where, args := BuildProductWhere(mustParse(t, `name:'Widget'`))

	assert.Equal(t, "p.name = $1", where)
	assert.Equal(t, []any{"Widget"}, args)
}

func TestBuildProductWhere_NumericInCents(t *testing.T) {
	t.Parallel()

	where, args := BuildProductWhere(mustParse(t, `price>=10.50`))

	assert.Equal(t, "p.price >= $1", where)
	assert.Equal(t, []any{int64(1050)}, args)
}

func TestBuildProductWhere_Composite(t *testing.T) {
	t.Parallel()

	where, args := BuildProductWhere(mustParse(t, `(name:'a' OR owner:'bob') AND NOT price<5`))

	assert.Equal(t, "((p.name = $1 OR u.username = $2) AND NOT p.price < $3)", where)
	assert.Equal(t, []any{"a", "bob", int64(500)}, args)
}

func TestBuildProductWhere_LikeEscapesPattern(t *testing.T) {
	t.Parallel()

	where, args := BuildProductWhere(mustParse(t, `name~'50%_off'`))

	assert.Equal(t, `p.name LIKE $1 ESCAPE '\'`, where)
	assert.Equal(t, []any{`%50\%\_off%`}, args)
}

func TestBuildProductWhere_In(t *testing.T) {
	t.Parallel()

	where, args := BuildProductWhere(mustParse(t, `currency IN ('USD', 'EUR')`))
	assert.Equal(t, "p.currency = ANY($1)", where)
	assert.Equal(t, []any{[]string{"USD", "EUR"}}, args)

	where, args = BuildProductWhere(mustParse(t, `price IN (5, 10)`))
	assert.Equal(t, "p.price = ANY($1)", where)
	assert.Equal(t, []any{[]int64{500, 1000}}, args)
}
