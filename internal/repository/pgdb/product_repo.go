package pgdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/DRSN-tech/catalog-backend/internal/domain"
	"github.com/DRSN-tech/catalog-backend/internal/filter"
	"github.com/DRSN-tech/catalog-backend/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/catalog-backend/internal/usecase"
	"github.com/DRSN-tech/catalog-backend/pkg/e"
	"github.com/DRSN-tech/catalog-backend/pkg/tr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

// ProductRepo реализует репозиторий товаров поверх PostgreSQL.
type ProductRepo struct {
	pool *pgxpool.Pool
	conv converter.ProductConverter
}

func NewProductRepo(pool *pgxpool.Pool, conv converter.ProductConverter) *ProductRepo {
	return &ProductRepo{
		pool: pool,
		conv: conv,
	}
}

// Create сохраняет новый товар. Вызывается только внутри транзакции.
func (p *ProductRepo) Create(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		INSERT INTO products (name, price, currency, user_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, price, currency, user_id, created_at, updated_at;
	`

	var model converter.ProductModel
	if err := tx.QueryRow(ctx, query, product.Name, product.Price, product.Currency, product.UserID).
		Scan(
			&model.ID, &model.Name, &model.Price, &model.Currency,
			&model.UserID, &model.CreatedAt, &model.UpdatedAt,
		); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToEntity(&model), nil
}

// Update меняет имя и цену товара. Валюта и владелец не обновляются.
func (p *ProductRepo) Update(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		UPDATE products
		SET name = $2, price = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING id, name, price, currency, user_id, created_at, updated_at;
	`

	var model converter.ProductModel
	if err := tx.QueryRow(ctx, query, product.ID, product.Name, product.Price).
		Scan(
			&model.ID, &model.Name, &model.Price, &model.Currency,
			&model.UserID, &model.CreatedAt, &model.UpdatedAt,
		); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, e.Wrap(whereami.WhereAmI(), e.ErrProductNotFound)
		}

		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToEntity(&model), nil
}

// Delete удаляет товар. Связи с категориями и метаданные изображений
// удаляются каскадно.
func (p *ProductRepo) Delete(ctx context.Context, id int64) error {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	result, err := tx.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if result.RowsAffected() == 0 {
		return e.Wrap(whereami.WhereAmI(), e.ErrProductNotFound)
	}

	return nil
}

// GetByID возвращает товар по идентификатору.
func (p *ProductRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `
		SELECT id, name, price, currency, user_id, created_at, updated_at
		FROM products
		WHERE id = $1;
	`

	var model converter.ProductModel
	if err := txOrPool(ctx, p.pool).QueryRow(ctx, query, id).
		Scan(
			&model.ID, &model.Name, &model.Price, &model.Currency,
			&model.UserID, &model.CreatedAt, &model.UpdatedAt,
		); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, e.Wrap(whereami.WhereAmI(), e.ErrProductNotFound)
		}

		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToEntity(&model), nil
}

// GetInfo возвращает информацию о товаре, включая username владельца
// и привязанные категории.
func (p *ProductRepo) GetInfo(ctx context.Context, id int64) (*usecase.ProductInfo, error) {
	q := txOrPool(ctx, p.pool)

	query := `
		SELECT p.id, p.name, p.price, p.currency, u.username
		FROM products p
		JOIN users u ON p.user_id = u.id
		WHERE p.id = $1;
	`

	var info usecase.ProductInfo
	if err := q.QueryRow(ctx, query, id).
		Scan(&info.ID, &info.Name, &info.Price, &info.Currency, &info.Owner); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, e.Wrap(whereami.WhereAmI(), e.ErrProductNotFound)
		}

		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	categories, err := p.loadCategories(ctx, q, []int64{id})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	info.Categories = categories[id]

	return &info, nil
}

// ListInfos возвращает страницу товаров, упорядоченных по id, и общее
// количество товаров в каталоге.
func (p *ProductRepo) ListInfos(ctx context.Context, offset, limit int) ([]usecase.ProductInfo, int64, error) {
	q := txOrPool(ctx, p.pool)

	var total int64
	if err := q.QueryRow(ctx, `SELECT count(*) FROM products`).Scan(&total); err != nil {
		return nil, 0, e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		SELECT p.id, p.name, p.price, p.currency, u.username
		FROM products p
		JOIN users u ON p.user_id = u.id
		ORDER BY p.id ASC
		OFFSET $1 LIMIT $2;
	`

	infos, err := p.queryInfos(ctx, q, query, offset, limit)
	if err != nil {
		return nil, 0, e.Wrap(whereami.WhereAmI(), err)
	}

	return infos, total, nil
}

// SearchInfos выполняет запрос по дереву предикатов выражения поиска.
func (p *ProductRepo) SearchInfos(ctx context.Context, pred *filter.Node) ([]usecase.ProductInfo, error) {
	where, args := BuildProductWhere(pred)

	query := fmt.Sprintf(`
		SELECT p.id, p.name, p.price, p.currency, u.username
		FROM products p
		JOIN users u ON p.user_id = u.id
		WHERE %s
		ORDER BY p.id ASC;
	`, where)

	infos, err := p.queryInfos(ctx, txOrPool(ctx, p.pool), query, args...)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return infos, nil
}

// AttachCategory идемпотентно привязывает категорию к товару.
func (p *ProductRepo) AttachCategory(ctx context.Context, productID, categoryID int64) error {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		INSERT INTO product_categories (product_id, category_id)
		VALUES ($1, $2)
		ON CONFLICT (product_id, category_id) DO NOTHING;
	`

	if _, err := tx.Exec(ctx, query, productID, categoryID); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// DetachCategory идемпотентно отвязывает категорию от товара.
func (p *ProductRepo) DetachCategory(ctx context.Context, productID, categoryID int64) error {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	query := `DELETE FROM product_categories WHERE product_id = $1 AND category_id = $2;`
	if _, err := tx.Exec(ctx, query, productID, categoryID); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// queryInfos выполняет запрос списка товаров и дозагружает их категории.
func (p *ProductRepo) queryInfos(ctx context.Context, q querier, query string, args ...any) ([]usecase.ProductInfo, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	infos := make([]usecase.ProductInfo, 0)
	ids := make([]int64, 0)
	for rows.Next() {
		var info usecase.ProductInfo
		if err := rows.Scan(&info.ID, &info.Name, &info.Price, &info.Currency, &info.Owner); err != nil {
			return nil, err
		}

		infos = append(infos, info)
		ids = append(ids, info.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		return infos, nil
	}

	categories, err := p.loadCategories(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	for i := range infos {
		infos[i].Categories = categories[infos[i].ID]
	}

	return infos, nil
}

// loadCategories возвращает категории товаров, сгруппированные по id товара.
func (p *ProductRepo) loadCategories(ctx context.Context, q querier, ids []int64) (map[int64][]usecase.CategoryInfo, error) {
	query := `
		SELECT pc.product_id, c.id, c.name
		FROM product_categories pc
		JOIN categories c ON pc.category_id = c.id
		WHERE pc.product_id = ANY($1)
		ORDER BY c.id ASC;
	`

	rows, err := q.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[int64][]usecase.CategoryInfo)
	for rows.Next() {
		var productID int64
		var cat usecase.CategoryInfo
		if err := rows.Scan(&productID, &cat.ID, &cat.Name); err != nil {
			return nil, err
		}

		result[productID] = append(result[productID], cat)
	}

	return result, rows.Err()
}
