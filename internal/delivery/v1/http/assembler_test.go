package http

import (
	"encoding/json"
	"testing"

	"github.com/DRSN-tech/catalog-backend/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssembler_Product(t *testing.T) {
	t.Parallel()

	a := NewAssembler("USD")
	info := usecase.NewProductInfo(7, "Widget", 1050, "USD", "alice", []usecase.CategoryInfo{
		{ID: 1, Name: "tools"},
	})

	res := a.Product(info)

	assert.Equal(t, int64(7), res.ID)
	assert.Equal(t, 10.5, res.Price)
	assert.Equal(t, "USD", res.Currency)
	assert.Equal(t, "alice", res.Owner)
	require.Len(t, res.Categories, 1)
	assert.Equal(t, "tools", res.Categories[0].Name)
	assert.Equal(t, "/api/v1/categories/1", res.Categories[0].Links["self"].Href)
	assert.Equal(t, "/api/v1/products/7", res.Links["self"].Href)
}

func TestAssembler_ProductRendersCatalogCurrency(t *testing.T) {
	t.Parallel()

	// Представление всегда отдаёт валюту каталога,
	// даже если в записи сохранена другая.
	a := NewAssembler("USD")
	res := a.Product(usecase.NewProductInfo(1, "Widget", 100, "EUR", "alice", nil))

	assert.Equal(t, "USD", res.Currency)
}

func TestAssembler_ProductOmitsEmptyCategories(t *testing.T) {
	t.Parallel()

	a := NewAssembler("USD")
	res := a.Product(usecase.NewProductInfo(1, "Widget", 100, "USD", "alice", nil))

	data, err := json.Marshal(res)
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"categories"`)
}

func TestAssembler_ProductIsDeterministic(t *testing.T) {
	t.Parallel()

	a := NewAssembler("USD")
	info := usecase.NewProductInfo(3, "Widget", 999, "USD", "bob", []usecase.CategoryInfo{
		{ID: 2, Name: "garden"},
	})

	first := a.Product(info)
	second := a.Product(info)

	assert.Equal(t, first, second)
	// Сборка не мутирует вход
	assert.Equal(t, int64(999), info.Price)
}

func TestAssembler_ProductPage(t *testing.T) {
	t.Parallel()

	a := NewAssembler("USD")
	page := a.ProductPage(&usecase.ProductPage{
		Page:  2,
		Size:  2,
		Total: 5,
		Items: []usecase.ProductInfo{
			*usecase.NewProductInfo(3, "c", 300, "USD", "alice", nil),
			*usecase.NewProductInfo(4, "d", 400, "USD", "alice", nil),
		},
	})

	assert.Equal(t, 2, page.Page.Number)
	assert.Equal(t, int64(5), page.Page.TotalElements)
	assert.Equal(t, int64(3), page.Page.TotalPages)
	require.Len(t, page.Embedded.Products, 2)

	assert.Equal(t, "/api/v1/products?page=2&size=2", page.Links["self"].Href)
	assert.Equal(t, "/api/v1/products?page=3&size=2", page.Links["next"].Href)
	assert.Equal(t, "/api/v1/products?page=1&size=2", page.Links["prev"].Href)
}

func TestAssembler_ProductPageBoundaries(t *testing.T) {
	t.Parallel()

	a := NewAssembler("USD")

	first := a.ProductPage(&usecase.ProductPage{Page: 1, Size: 10, Total: 5})
	assert.NotContains(t, first.Links, "prev")
	assert.NotContains(t, first.Links, "next")
	assert.Equal(t, int64(1), first.Page.TotalPages)
	assert.NotNil(t, first.Embedded.Products)
}
