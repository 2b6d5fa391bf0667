package usecase

import (
	"context"
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/DRSN-tech/catalog-backend/internal/domain"
	"github.com/DRSN-tech/catalog-backend/internal/filter"
	"github.com/DRSN-tech/catalog-backend/pkg/e"
	"github.com/DRSN-tech/catalog-backend/pkg/logger"
	"github.com/DRSN-tech/catalog-backend/pkg/tr"
	transaction "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const maxProductNameLen = 300

// ProductUseCase реализует бизнес-логику управления товарами каталога.
// Все мутации выполняются в одной транзакции с записью outbox-события;
// кэш инвалидируется после коммита.
type ProductUseCase struct {
	productRepo  ProductRepository
	categoryRepo CategoryRepository
	imageRepo    ProductImageRepository
	outboxRepo   OutboxRepository
	imagesInfra  ImagesInfra
	cacheRepo    CacheRepository
	dbPool       transaction.Transactional
	logger       logger.Logger

	currency        string
	defaultPageSize int
	maxPageSize     int
}

func NewProductUC(
	productRepo ProductRepository,
	categoryRepo CategoryRepository,
	imageRepo ProductImageRepository,
	outboxRepo OutboxRepository,
	imagesInfra ImagesInfra,
	cacheRepo CacheRepository,
	dbPool transaction.Transactional,
	logger logger.Logger,
	currency string,
	defaultPageSize int,
	maxPageSize int,
) *ProductUseCase {
	return &ProductUseCase{
		productRepo:     productRepo,
		categoryRepo:    categoryRepo,
		imageRepo:       imageRepo,
		outboxRepo:      outboxRepo,
		imagesInfra:     imagesInfra,
		cacheRepo:       cacheRepo,
		dbPool:          dbPool,
		logger:          logger,
		currency:        currency,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
	}
}

// CreateProduct создаёт товар от имени владельца. Валюта запроса игнорируется:
// товар всегда сохраняется в валюте каталога.
func (p *ProductUseCase) CreateProduct(ctx context.Context, req *CreateProductReq) (*ProductInfo, error) {
	const op = "ProductUseCase.CreateProduct"

	var err error
	err = p.validateProduct(req.Name, req.Price, req.Currency)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	ctx, tx, err := transaction.NewTransaction(ctx, pgx.TxOptions{}, p.dbPool)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	defer func() {
		if err != nil && tx.IsActive() {
			tx.Rollback(ctx)
		}
	}()
	ctx = tr.CtxWithTx(ctx, tx.Transaction())

	product, err := p.productRepo.Create(ctx, domain.NewProduct(req.Name, req.Price, p.currency, req.Owner.ID))
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	info := NewProductInfo(product.ID, product.Name, product.Price, product.Currency, req.Owner.Username, nil)

	err = p.writeOutboxEvent(ctx, ProductCreated, info)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	err = tx.Commit(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return info, nil
}

// UpdateProduct обновляет имя и цену товара. Валюта и владелец неизменяемы:
// присланная валюта отбрасывается.
func (p *ProductUseCase) UpdateProduct(ctx context.Context, id int64, req *UpdateProductReq) (*ProductInfo, error) {
	const op = "ProductUseCase.UpdateProduct"

	var err error
	err = p.validateProduct(req.Name, req.Price, req.Currency)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	ctx, tx, err := transaction.NewTransaction(ctx, pgx.TxOptions{}, p.dbPool)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	defer func() {
		if err != nil && tx.IsActive() {
			tx.Rollback(ctx)
		}
	}()
	ctx = tr.CtxWithTx(ctx, tx.Transaction())

	product, err := p.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	product.Name = req.Name
	product.Price = req.Price

	_, err = p.productRepo.Update(ctx, product)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	info, err := p.productRepo.GetInfo(ctx, id)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	err = p.writeOutboxEvent(ctx, ProductUpdated, info)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	err = tx.Commit(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	p.invalidateCache(ctx, op, id)

	return info, nil
}

// DeleteProduct удаляет товар. Снимок товара на момент удаления попадает
// в payload события product.deleted.
func (p *ProductUseCase) DeleteProduct(ctx context.Context, id int64) error {
	const op = "ProductUseCase.DeleteProduct"

	var err error
	ctx, tx, err := transaction.NewTransaction(ctx, pgx.TxOptions{}, p.dbPool)
	if err != nil {
		return e.Wrap(op, err)
	}
	defer func() {
		if err != nil && tx.IsActive() {
			tx.Rollback(ctx)
		}
	}()
	ctx = tr.CtxWithTx(ctx, tx.Transaction())

	info, err := p.productRepo.GetInfo(ctx, id)
	if err != nil {
		return e.Wrap(op, err)
	}

	err = p.productRepo.Delete(ctx, id)
	if err != nil {
		return e.Wrap(op, err)
	}

	err = p.writeOutboxEvent(ctx, ProductDeleted, info)
	if err != nil {
		return e.Wrap(op, err)
	}

	err = tx.Commit(ctx)
	if err != nil {
		return e.Wrap(op, err)
	}

	p.invalidateCache(ctx, op, id)

	return nil
}

// GetProduct возвращает информацию о товаре, сначала пробуя кэш.
func (p *ProductUseCase) GetProduct(ctx context.Context, id int64) (*ProductInfo, error) {
	const op = "ProductUseCase.GetProduct"

	cached, err := p.cacheRepo.GetProducts(ctx, []int64{id})
	if err != nil {
		p.logger.Warnf("Failed to read products cache: %v", e.Wrap(op, err))
	} else if info, ok := cached[id]; ok {
		return &info, nil
	}

	info, err := p.productRepo.GetInfo(ctx, id)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	// Фоновое добавление товара в кэш
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()

		if err := p.cacheRepo.SetProducts(bgCtx, []ProductInfo{*info}); err != nil {
			p.logger.Warnf("Failed to cache product in background: %v", e.Wrap(op, err))
		}
	}()

	return info, nil
}

// ListProducts возвращает страницу товаров, упорядоченных по ID.
// Страница за пределами данных — пустой список с корректными метаданными.
func (p *ProductUseCase) ListProducts(ctx context.Context, req *PageReq) (*ProductPage, error) {
	const op = "ProductUseCase.ListProducts"

	page := req.Page
	if page < 1 {
		page = 1
	}
	size := req.Size
	if size < 1 {
		size = p.defaultPageSize
	}
	if size > p.maxPageSize {
		size = p.maxPageSize
	}

	items, total, err := p.productRepo.ListInfos(ctx, (page-1)*size, size)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return &ProductPage{
		Page:  page,
		Size:  size,
		Total: total,
		Items: items,
	}, nil
}

// SearchProducts компилирует выражение поиска в дерево предикатов и
// выполняет запрос в хранилище.
func (p *ProductUseCase) SearchProducts(ctx context.Context, expr string) ([]ProductInfo, error) {
	const op = "ProductUseCase.SearchProducts"

	node, err := filter.Parse(expr, filter.ProductFields)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	infos, err := p.productRepo.SearchInfos(ctx, node)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return infos, nil
}

// AttachCategory привязывает категорию к товару (идемпотентно).
func (p *ProductUseCase) AttachCategory(ctx context.Context, productID, categoryID int64) error {
	const op = "ProductUseCase.AttachCategory"

	return p.changeCategory(ctx, op, productID, categoryID, p.productRepo.AttachCategory)
}

// DetachCategory отвязывает категорию от товара (идемпотентно).
func (p *ProductUseCase) DetachCategory(ctx context.Context, productID, categoryID int64) error {
	const op = "ProductUseCase.DetachCategory"

	return p.changeCategory(ctx, op, productID, categoryID, p.productRepo.DetachCategory)
}

func (p *ProductUseCase) changeCategory(
	ctx context.Context,
	op string,
	productID, categoryID int64,
	change func(ctx context.Context, productID, categoryID int64) error,
) error {
	var err error
	ctx, tx, err := transaction.NewTransaction(ctx, pgx.TxOptions{}, p.dbPool)
	if err != nil {
		return e.Wrap(op, err)
	}
	defer func() {
		if err != nil && tx.IsActive() {
			tx.Rollback(ctx)
		}
	}()
	ctx = tr.CtxWithTx(ctx, tx.Transaction())

	_, err = p.productRepo.GetByID(ctx, productID)
	if err != nil {
		return e.Wrap(op, err)
	}

	_, err = p.categoryRepo.GetByID(ctx, categoryID)
	if err != nil {
		return e.Wrap(op, err)
	}

	err = change(ctx, productID, categoryID)
	if err != nil {
		return e.Wrap(op, err)
	}

	info, err := p.productRepo.GetInfo(ctx, productID)
	if err != nil {
		return e.Wrap(op, err)
	}

	err = p.writeOutboxEvent(ctx, ProductUpdated, info)
	if err != nil {
		return e.Wrap(op, err)
	}

	err = tx.Commit(ctx)
	if err != nil {
		return e.Wrap(op, err)
	}

	p.invalidateCache(ctx, op, productID)

	return nil
}

// AddProductImages загружает изображения в MinIO и сохраняет их метаданные
// в одной транзакции. При откате транзакции загруженные объекты зачищаются.
func (p *ProductUseCase) AddProductImages(ctx context.Context, productID int64, images []ProductImage) ([]ProductImageInfo, error) {
	const op = "ProductUseCase.AddProductImages"

	var err error
	if len(images) == 0 {
		return nil, e.Wrap(op, e.ErrNoImages)
	}

	_, err = p.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	imagesRes, err := p.imagesInfra.UploadImages(ctx, NewUploadImagesReq(productID, images))
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	ctx, tx, err := transaction.NewTransaction(ctx, pgx.TxOptions{}, p.dbPool)
	if err != nil {
		p.cleanupUploaded(op, productID, imagesRes)
		return nil, e.Wrap(op, err)
	}
	defer func() {
		if err != nil {
			if tx.IsActive() {
				tx.Rollback(ctx)
			}
			p.cleanupUploaded(op, productID, imagesRes)
		}
	}()
	ctx = tr.CtxWithTx(ctx, tx.Transaction())

	infos := make([]ProductImageInfo, 0, len(imagesRes.Images))
	for _, img := range imagesRes.Images {
		var created *ProductImageInfo
		created, err = p.imageRepo.Create(ctx, &ProductImageInfo{
			ProductID:   productID,
			ObjectKey:   img.ObjectKey,
			ContentType: img.ContentType,
			Size:        img.Size,
		})
		if err != nil {
			return nil, e.Wrap(op, err)
		}
		infos = append(infos, *created)
	}

	err = tx.Commit(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return infos, nil
}

// ListProductImages возвращает метаданные изображений товара.
func (p *ProductUseCase) ListProductImages(ctx context.Context, productID int64) ([]ProductImageInfo, error) {
	const op = "ProductUseCase.ListProductImages"

	_, err := p.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	infos, err := p.imageRepo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return infos, nil
}

// DeleteProductImage удаляет метаданные изображения и зачищает объект в MinIO.
func (p *ProductUseCase) DeleteProductImage(ctx context.Context, productID, imageID int64) error {
	const op = "ProductUseCase.DeleteProductImage"

	img, err := p.imageRepo.GetByID(ctx, productID, imageID)
	if err != nil {
		return e.Wrap(op, err)
	}

	if err := p.imageRepo.Delete(ctx, productID, imageID); err != nil {
		return e.Wrap(op, err)
	}

	p.imagesInfra.CleanupImages([]string{img.ObjectKey})

	return nil
}

// writeOutboxEvent сохраняет событие товара в outbox в текущей транзакции.
func (p *ProductUseCase) writeOutboxEvent(ctx context.Context, eventType OutboxEventType, info *ProductInfo) error {
	payload, err := json.Marshal(info)
	if err != nil {
		return err
	}

	_, err = p.outboxRepo.Create(ctx, NewOutboxEvent(uuid.NewString(), eventType, info.ID, payload))
	return err
}

func (p *ProductUseCase) cleanupUploaded(op string, productID int64, res *UploadImagesRes) {
	p.logger.Warnf(
		"Cleaning up orphaned images after transaction failure. product_id: %d, op: %s",
		productID,
		op,
	)
	p.imagesInfra.CleanupImages(res.Keys())
}

func (p *ProductUseCase) invalidateCache(ctx context.Context, op string, id int64) {
	if err := p.cacheRepo.DeleteProducts(ctx, []int64{id}); err != nil {
		p.logger.Warnf("Failed to delete products from cache: %v", e.Wrap(op, err))
	}
}

// validateProduct проверяет корректность входных данных запроса.
func (p *ProductUseCase) validateProduct(name string, price int64, currency string) error {
	if strings.TrimSpace(name) == "" {
		return e.ErrProductNameRequired
	}

	if utf8.RuneCountInString(name) > maxProductNameLen {
		return e.ErrProductNameTooLong
	}

	if price < 0 {
		return e.ErrInvalidPrice
	}

	if len(currency) != 3 {
		return e.ErrInvalidCurrency
	}

	return nil
}
