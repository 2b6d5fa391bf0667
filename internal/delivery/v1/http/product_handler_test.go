package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DRSN-tech/catalog-backend/internal/auth"
	"github.com/DRSN-tech/catalog-backend/internal/cfg"
	"github.com/DRSN-tech/catalog-backend/internal/domain"
	"github.com/DRSN-tech/catalog-backend/internal/filter"
	"github.com/DRSN-tech/catalog-backend/internal/usecase"
	"github.com/DRSN-tech/catalog-backend/pkg/e"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopLogger struct{}

func (noopLogger) Debugf(string, ...any)        {}
func (noopLogger) Infof(string, ...any)         {}
func (noopLogger) Warnf(string, ...any)         {}
func (noopLogger) Errorf(error, string, ...any) {}

// fakeProductUC хранит товары в памяти и навешивает валюту каталога,
// как настоящий usecase.
type fakeProductUC struct {
	nextID   int64
	products map[int64]*usecase.ProductInfo
}

func newFakeProductUC() *fakeProductUC {
	return &fakeProductUC{nextID: 1, products: make(map[int64]*usecase.ProductInfo)}
}

func (f *fakeProductUC) CreateProduct(_ context.Context, req *usecase.CreateProductReq) (*usecase.ProductInfo, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, e.ErrProductNameRequired
	}
	info := usecase.NewProductInfo(f.nextID, req.Name, req.Price, "USD", req.Owner.Username, nil)
	f.products[f.nextID] = info
	f.nextID++
	return info, nil
}

func (f *fakeProductUC) UpdateProduct(_ context.Context, id int64, req *usecase.UpdateProductReq) (*usecase.ProductInfo, error) {
	info, ok := f.products[id]
	if !ok {
		return nil, e.ErrProductNotFound
	}
	info.Name = req.Name
	info.Price = req.Price
	return info, nil
}

func (f *fakeProductUC) DeleteProduct(_ context.Context, id int64) error {
	if _, ok := f.products[id]; !ok {
		return e.ErrProductNotFound
	}
	delete(f.products, id)
	return nil
}

func (f *fakeProductUC) GetProduct(_ context.Context, id int64) (*usecase.ProductInfo, error) {
	info, ok := f.products[id]
	if !ok {
		return nil, e.ErrProductNotFound
	}
	return info, nil
}

func (f *fakeProductUC) ListProducts(_ context.Context, req *usecase.PageReq) (*usecase.ProductPage, error) {
	items := make([]usecase.ProductInfo, 0, len(f.products))
	for id := int64(1); id < f.nextID; id++ {
		if info, ok := f.products[id]; ok {
			items = append(items, *info)
		}
	}
	return &usecase.ProductPage{Page: req.Page, Size: req.Size, Total: int64(len(items)), Items: items}, nil
}

func (f *fakeProductUC) SearchProducts(_ context.Context, expr string) ([]usecase.ProductInfo, error) {
	if _, err := filter.Parse(expr, filter.ProductFields); err != nil {
		return nil, err
	}
	return nil, nil
}

func (f *fakeProductUC) AttachCategory(context.Context, int64, int64) error { return nil }
func (f *fakeProductUC) DetachCategory(context.Context, int64, int64) error { return nil }

func (f *fakeProductUC) AddProductImages(context.Context, int64, []usecase.ProductImage) ([]usecase.ProductImageInfo, error) {
	return nil, nil
}

func (f *fakeProductUC) ListProductImages(context.Context, int64) ([]usecase.ProductImageInfo, error) {
	return nil, nil
}

func (f *fakeProductUC) DeleteProductImage(context.Context, int64, int64) error { return nil }

type fakeCategoryUC struct{}

func (fakeCategoryUC) CreateCategory(_ context.Context, name string) (*domain.Category, error) {
	if strings.TrimSpace(name) == "" {
		return nil, e.ErrCategoryNameRequired
	}
	return &domain.Category{ID: 1, Name: name}, nil
}

func (fakeCategoryUC) GetCategory(_ context.Context, id int64) (*domain.Category, error) {
	return nil, e.ErrCategoryNotFound
}

func (fakeCategoryUC) ListCategories(context.Context) ([]domain.Category, error) {
	return nil, nil
}

type fakeUserRepo struct{}

func (fakeUserRepo) GetOrCreate(_ context.Context, username string) (*domain.User, error) {
	return &domain.User{ID: 1, Username: username}, nil
}

var testSecret = []byte("test-secret")

func newTestRouter(prUC usecase.ProductUC) *chi.Mux {
	mux := chi.NewRouter()
	router := NewRouter(mux, noopLogger{})
	authSvc := auth.NewService(fakeUserRepo{}, &cfg.AuthCfg{JWTSecret: testSecret})
	router.Init(prUC, fakeCategoryUC{}, authSvc, &cfg.CatalogCfg{
		Currency:        "USD",
		DefaultPageSize: 20,
		MaxPageSize:     100,
		MaxImagesCount:  10,
		MaxImageSize:    15 << 20,
	})
	return mux
}

func bearerToken(t *testing.T, username string) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": username}).SignedString(testSecret)
	require.NoError(t, err)
	return "Bearer " + token
}

func doRequest(router *chi.Mux, method, path, body, authHeader string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateProduct_RequiresAuth(t *testing.T) {
	t.Parallel()

	router := newTestRouter(newFakeProductUC())

	rec := doRequest(router, http.MethodPost, "/api/v1/products", `{"name":"Widget","price":10.5,"currency":"USD"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateProduct(t *testing.T) {
	t.Parallel()

	router := newTestRouter(newFakeProductUC())

	rec := doRequest(router, http.MethodPost, "/api/v1/products",
		`{"name":"Widget","price":10.5,"currency":"EUR"}`, bearerToken(t, "alice"))
	require.Equal(t, http.StatusCreated, rec.Code)

	var res ProductResource
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "Widget", res.Name)
	assert.Equal(t, 10.5, res.Price)
	assert.Equal(t, "USD", res.Currency) // валюта каталога, не запрошенная
	assert.Equal(t, "alice", res.Owner)
	assert.Equal(t, "/api/v1/products/1", res.Links["self"].Href)
}

func TestCreateProduct_BadPrice(t *testing.T) {
	t.Parallel()

	router := newTestRouter(newFakeProductUC())

	tests := []struct {
		name string
		body string
	}{
		{name: "three decimal places", body: `{"name":"Widget","price":10.999,"currency":"USD"}`},
		{name: "negative", body: `{"name":"Widget","price":-5,"currency":"USD"}`},
		{name: "not a number", body: `{"name":"Widget","price":"abc","currency":"USD"}`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := doRequest(router, http.MethodPost, "/api/v1/products", tt.body, bearerToken(t, "alice"))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestGetProduct_NotFound(t *testing.T) {
	t.Parallel()

	router := newTestRouter(newFakeProductUC())

	rec := doRequest(router, http.MethodGet, "/api/v1/products/42", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var res ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, http.StatusNotFound, res.Code)
}

func TestListProducts_HALShape(t *testing.T) {
	t.Parallel()

	uc := newFakeProductUC()
	router := newTestRouter(uc)

	rec := doRequest(router, http.MethodPost, "/api/v1/products",
		`{"name":"Widget","price":3,"currency":"USD"}`, bearerToken(t, "alice"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(router, http.MethodGet, "/api/v1/products?page=1&size=20", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var page ProductPageResource
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Embedded.Products, 1)
	assert.Equal(t, int64(1), page.Page.TotalElements)
	assert.Contains(t, page.Links, "self")
}

func TestFindProducts_MalformedExpression(t *testing.T) {
	t.Parallel()

	router := newTestRouter(newFakeProductUC())

	rec := doRequest(router, http.MethodGet, "/api/v1/products/find?search=bogus%3A1", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateAndDeleteProduct(t *testing.T) {
	t.Parallel()

	router := newTestRouter(newFakeProductUC())
	token := bearerToken(t, "alice")

	rec := doRequest(router, http.MethodPost, "/api/v1/products",
		`{"name":"Widget","price":10,"currency":"USD"}`, token)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(router, http.MethodPut, "/api/v1/products/1",
		`{"name":"Gadget","price":20,"currency":"USD"}`, token)
	require.Equal(t, http.StatusOK, rec.Code)

	var res ProductResource
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "Gadget", res.Name)
	assert.Equal(t, 20.0, res.Price)

	rec = doRequest(router, http.MethodDelete, "/api/v1/products/1", "", token)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(router, http.MethodDelete, "/api/v1/products/1", "", token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateCategory(t *testing.T) {
	t.Parallel()

	router := newTestRouter(newFakeProductUC())

	rec := doRequest(router, http.MethodPost, "/api/v1/categories", `{"name":"tools"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(router, http.MethodPost, "/api/v1/categories", `{"name":"tools"}`, bearerToken(t, "alice"))
	require.Equal(t, http.StatusCreated, rec.Code)

	var res CategoryResource
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "tools", res.Name)
	assert.Equal(t, "/api/v1/categories/1", res.Links["self"].Href)
}
