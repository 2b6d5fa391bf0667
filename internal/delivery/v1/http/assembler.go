package http

import (
	"fmt"

	"github.com/DRSN-tech/catalog-backend/internal/domain"
	"github.com/DRSN-tech/catalog-backend/internal/usecase"
	"github.com/shopspring/decimal"
)

const apiBasePath = "/api/v1"

// Assembler собирает клиентские представления из DTO usecase-слоя.
// Сборка детерминирована и не меняет входные данные.
type Assembler struct {
	// Валюта каталога. Представления всегда отдают её,
	// а не значение из хранимой записи.
	currency string
}

func NewAssembler(currency string) *Assembler {
	return &Assembler{currency: currency}
}

// Product собирает представление одного товара со ссылкой self.
// Категории встраиваются полными представлениями с собственными ссылками.
func (a *Assembler) Product(info *usecase.ProductInfo) ProductResource {
	var cats []CategoryResource
	for _, c := range info.Categories {
		cats = append(cats, categoryResource(c.ID, c.Name))
	}

	return ProductResource{
		ID:         info.ID,
		Name:       info.Name,
		Price:      centsToUnits(info.Price),
		Currency:   a.currency,
		Owner:      info.Owner,
		Categories: cats,
		Links: Links{
			"self": Link{Href: fmt.Sprintf("%s/products/%d", apiBasePath, info.ID)},
		},
	}
}

// Products собирает представления списка товаров, сохраняя порядок.
func (a *Assembler) Products(infos []usecase.ProductInfo) []ProductResource {
	resources := make([]ProductResource, 0, len(infos))
	for i := range infos {
		resources = append(resources, a.Product(&infos[i]))
	}
	return resources
}

// ProductPage собирает страницу списка с метаданными и навигационными
// ссылками next/prev, когда соседние страницы существуют.
func (a *Assembler) ProductPage(page *usecase.ProductPage) *ProductPageResource {
	totalPages := page.Total / int64(page.Size)
	if page.Total%int64(page.Size) != 0 {
		totalPages++
	}

	links := Links{
		"self": Link{Href: pageHref(page.Page, page.Size)},
	}
	if int64(page.Page) < totalPages {
		links["next"] = Link{Href: pageHref(page.Page+1, page.Size)}
	}
	if page.Page > 1 {
		links["prev"] = Link{Href: pageHref(page.Page-1, page.Size)}
	}

	return &ProductPageResource{
		Embedded: EmbeddedProducts{Products: a.Products(page.Items)},
		Links:    links,
		Page: PageMeta{
			Number:        page.Page,
			Size:          page.Size,
			TotalElements: page.Total,
			TotalPages:    totalPages,
		},
	}
}

// Category собирает представление категории со ссылкой self.
func (a *Assembler) Category(cat *domain.Category) CategoryResource {
	return categoryResource(cat.ID, cat.Name)
}

func categoryResource(id int64, name string) CategoryResource {
	return CategoryResource{
		ID:   id,
		Name: name,
		Links: Links{
			"self": Link{Href: fmt.Sprintf("%s/categories/%d", apiBasePath, id)},
		},
	}
}

// Categories собирает представления списка категорий.
func (a *Assembler) Categories(cats []domain.Category) []CategoryResource {
	resources := make([]CategoryResource, 0, len(cats))
	for i := range cats {
		resources = append(resources, a.Category(&cats[i]))
	}
	return resources
}

// Image собирает представление изображения товара.
func (a *Assembler) Image(img *usecase.ProductImageInfo) ImageResource {
	return ImageResource{
		ID:          img.ID,
		ObjectKey:   img.ObjectKey,
		ContentType: img.ContentType,
		Size:        img.Size,
		Links: Links{
			"self": Link{Href: fmt.Sprintf("%s/products/%d/images/%d", apiBasePath, img.ProductID, img.ID)},
		},
	}
}

// Images собирает представления изображений товара.
func (a *Assembler) Images(imgs []usecase.ProductImageInfo) []ImageResource {
	resources := make([]ImageResource, 0, len(imgs))
	for i := range imgs {
		resources = append(resources, a.Image(&imgs[i]))
	}
	return resources
}

func pageHref(page, size int) string {
	return fmt.Sprintf("%s/products?page=%d&size=%d", apiBasePath, page, size)
}

// centsToUnits переводит цену из минорных единиц в основные.
func centsToUnits(cents int64) float64 {
	return decimal.NewFromInt(cents).Div(decimal.NewFromInt(100)).InexactFloat64()
}
