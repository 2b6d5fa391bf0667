package usecase

import (
	"context"

	"github.com/DRSN-tech/catalog-backend/internal/domain"
)

type ProductUC interface {
	CreateProduct(ctx context.Context, req *CreateProductReq) (*ProductInfo, error)
	UpdateProduct(ctx context.Context, id int64, req *UpdateProductReq) (*ProductInfo, error)
	DeleteProduct(ctx context.Context, id int64) error
	GetProduct(ctx context.Context, id int64) (*ProductInfo, error)
	ListProducts(ctx context.Context, req *PageReq) (*ProductPage, error)
	SearchProducts(ctx context.Context, expr string) ([]ProductInfo, error)
	AttachCategory(ctx context.Context, productID, categoryID int64) error
	DetachCategory(ctx context.Context, productID, categoryID int64) error
	AddProductImages(ctx context.Context, productID int64, images []ProductImage) ([]ProductImageInfo, error)
	ListProductImages(ctx context.Context, productID int64) ([]ProductImageInfo, error)
	DeleteProductImage(ctx context.Context, productID, imageID int64) error
}

type CategoryUC interface {
	CreateCategory(ctx context.Context, name string) (*domain.Category, error)
	GetCategory(ctx context.Context, id int64) (*domain.Category, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
}
