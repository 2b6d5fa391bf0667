package pgdb

import (
	"context"
	"errors"

	"github.com/DRSN-tech/catalog-backend/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/catalog-backend/internal/usecase"
	"github.com/DRSN-tech/catalog-backend/pkg/e"
	"github.com/DRSN-tech/catalog-backend/pkg/tr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

// ProductImageRepo хранит метаданные изображений товаров. Сами байты
// лежат в MinIO, в БД — только ключ объекта.
type ProductImageRepo struct {
	pool *pgxpool.Pool
	conv converter.ProductImageConverter
}

func NewProductImageRepo(pool *pgxpool.Pool, conv converter.ProductImageConverter) *ProductImageRepo {
	return &ProductImageRepo{pool: pool, conv: conv}
}

// Create сохраняет метаданные изображения. Вызывается только внутри транзакции.
func (r *ProductImageRepo) Create(ctx context.Context, img *usecase.ProductImageInfo) (*usecase.ProductImageInfo, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		INSERT INTO product_images (product_id, object_key, content_type, size)
		VALUES ($1, $2, $3, $4)
		RETURNING id, product_id, object_key, content_type, size, created_at;
	`

	var model converter.ProductImageModel
	if err := tx.QueryRow(ctx, query, img.ProductID, img.ObjectKey, img.ContentType, img.Size).
		Scan(
			&model.ID, &model.ProductID, &model.ObjectKey,
			&model.ContentType, &model.Size, &model.CreatedAt,
		); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return r.conv.ToEntity(&model), nil
}

// ListByProduct возвращает метаданные изображений товара, упорядоченные по id.
func (r *ProductImageRepo) ListByProduct(ctx context.Context, productID int64) ([]usecase.ProductImageInfo, error) {
	query := `
		SELECT id, product_id, object_key, content_type, size, created_at
		FROM product_images
		WHERE product_id = $1
		ORDER BY id ASC;
	`

	rows, err := r.pool.Query(ctx, query, productID)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	var models []*converter.ProductImageModel
	for rows.Next() {
		var model converter.ProductImageModel
		if err := rows.Scan(
			&model.ID, &model.ProductID, &model.ObjectKey,
			&model.ContentType, &model.Size, &model.CreatedAt,
		); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		models = append(models, &model)
	}
	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return r.conv.ToArrEntity(models), nil
}

// GetByID возвращает метаданные изображения конкретного товара.
func (r *ProductImageRepo) GetByID(ctx context.Context, productID, imageID int64) (*usecase.ProductImageInfo, error) {
	query := `
		SELECT id, product_id, object_key, content_type, size, created_at
		FROM product_images
		WHERE product_id = $1 AND id = $2;
	`

	var model converter.ProductImageModel
	if err := r.pool.QueryRow(ctx, query, productID, imageID).
		Scan(
			&model.ID, &model.ProductID, &model.ObjectKey,
			&model.ContentType, &model.Size, &model.CreatedAt,
		); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, e.Wrap(whereami.WhereAmI(), e.ErrImageNotFound)
		}

		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return r.conv.ToEntity(&model), nil
}

// Delete удаляет метаданные изображения.
func (r *ProductImageRepo) Delete(ctx context.Context, productID, imageID int64) error {
	query := `DELETE FROM product_images WHERE product_id = $1 AND id = $2;`

	result, err := r.pool.Exec(ctx, query, productID, imageID)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if result.RowsAffected() == 0 {
		return e.Wrap(whereami.WhereAmI(), e.ErrImageNotFound)
	}

	return nil
}
