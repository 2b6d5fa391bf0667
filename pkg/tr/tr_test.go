package tr

import (
	"context"
	"testing"

	"github.com/DRSN-tech/catalog-backend/pkg/e"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTx struct {
	pgx.Tx
}

func TestCtxWithTxRoundTrip(t *testing.T) {
	t.Parallel()

	stored := stubTx{}

	// Менеджер транзакций отдаёт транзакцию как interface{}
	var untyped any = stored
	ctx := CtxWithTx(context.Background(), untyped)

	tx, err := TxFromCtx(ctx)
	require.NoError(t, err)
	assert.Equal(t, stored, tx)
}

func TestTxFromCtx_Missing(t *testing.T) {
	t.Parallel()

	_, err := TxFromCtx(context.Background())
	assert.ErrorIs(t, err, e.ErrTransactionNotFound)
}

func TestTxFromCtx_WrongType(t *testing.T) {
	t.Parallel()

	ctx := CtxWithTx(context.Background(), "not a tx")

	_, err := TxFromCtx(ctx)
	assert.ErrorIs(t, err, e.ErrTransactionNotFound)
}
