package usecase

import (
	"context"

	"github.com/DRSN-tech/catalog-backend/internal/domain"
	"github.com/DRSN-tech/catalog-backend/internal/filter"
)

type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) (*domain.Product, error)
	Update(ctx context.Context, product *domain.Product) (*domain.Product, error)
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	GetInfo(ctx context.Context, id int64) (*ProductInfo, error)
	ListInfos(ctx context.Context, offset, limit int) ([]ProductInfo, int64, error)
	SearchInfos(ctx context.Context, pred *filter.Node) ([]ProductInfo, error)
	AttachCategory(ctx context.Context, productID, categoryID int64) error
	DetachCategory(ctx context.Context, productID, categoryID int64) error
}

type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) (*domain.Category, error)
	GetByID(ctx context.Context, id int64) (*domain.Category, error)
	List(ctx context.Context) ([]domain.Category, error)
}

type UserRepository interface {
	GetOrCreate(ctx context.Context, username string) (*domain.User, error)
}

type OutboxRepository interface {
	Create(ctx context.Context, event *OutboxEvent) (*OutboxEvent, error)
	GetAndMarkAsProcessing(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkAsProcessed(ctx context.Context, id int64) error
}

// ImageRepository — хранилище байтов изображений (MinIO).
type ImageRepository interface {
	Upload(ctx context.Context, image *domain.Image) (string, error)
	Delete(ctx context.Context, key string) error
}

// ProductImageRepository — метаданные изображений товара в БД.
type ProductImageRepository interface {
	Create(ctx context.Context, img *ProductImageInfo) (*ProductImageInfo, error)
	ListByProduct(ctx context.Context, productID int64) ([]ProductImageInfo, error)
	GetByID(ctx context.Context, productID, imageID int64) (*ProductImageInfo, error)
	Delete(ctx context.Context, productID, imageID int64) error
}

type CacheRepository interface {
	GetProducts(ctx context.Context, ids []int64) (map[int64]ProductInfo, error)
	SetProducts(ctx context.Context, products []ProductInfo) error
	DeleteProducts(ctx context.Context, ids []int64) error
}
