package converter

import "github.com/DRSN-tech/catalog-backend/internal/usecase"

// ProductInfoConverter преобразует информацию о товаре между usecase
// и моделью Redis.
type ProductInfoConverter struct{}

func (ProductInfoConverter) ToRedisModel(entity *usecase.ProductInfo) *ProductInfoRedisModel {
	var cats []CategoryRedisModel
	for _, c := range entity.Categories {
		cats = append(cats, CategoryRedisModel{ID: c.ID, Name: c.Name})
	}

	return &ProductInfoRedisModel{
		ID:         entity.ID,
		Name:       entity.Name,
		Price:      entity.Price,
		Currency:   entity.Currency,
		Owner:      entity.Owner,
		Categories: cats,
	}
}

func (ProductInfoConverter) ToUseCase(model *ProductInfoRedisModel) *usecase.ProductInfo {
	var cats []usecase.CategoryInfo
	for _, c := range model.Categories {
		cats = append(cats, usecase.CategoryInfo{ID: c.ID, Name: c.Name})
	}

	return usecase.NewProductInfo(model.ID, model.Name, model.Price, model.Currency, model.Owner, cats)
}

func (c ProductInfoConverter) ToArrRedisModel(entities []usecase.ProductInfo) []ProductInfoRedisModel {
	models := make([]ProductInfoRedisModel, 0, len(entities))
	for i := range entities {
		models = append(models, *c.ToRedisModel(&entities[i]))
	}
	return models
}
