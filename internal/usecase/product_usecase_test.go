package usecase

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"testing"

	"github.com/DRSN-tech/catalog-backend/internal/domain"
	"github.com/DRSN-tech/catalog-backend/internal/filter"
	"github.com/DRSN-tech/catalog-backend/pkg/e"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// FAKES

type fakeTx struct{ pgx.Tx }

func (fakeTx) Commit(context.Context) error   { return nil }
func (fakeTx) Rollback(context.Context) error { return nil }

type fakeDB struct{}

func (fakeDB) BeginTx(context.Context, pgx.TxOptions) (pgx.Tx, error) {
	return fakeTx{}, nil
}

type noopLogger struct{}

func (noopLogger) Debugf(string, ...any)        {}
func (noopLogger) Infof(string, ...any)         {}
func (noopLogger) Warnf(string, ...any)         {}
func (noopLogger) Errorf(error, string, ...any) {}

type fakeProductRepo struct {
	mu       sync.Mutex
	nextID   int64
	products map[int64]*domain.Product
	owners   map[int64]string              // user id -> username
	links    map[int64]map[int64]struct{}  // product id -> category ids
	cats     map[int64]string              // category id -> name
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{
		nextID:   1,
		products: make(map[int64]*domain.Product),
		owners:   map[int64]string{1: "alice", 2: "bob"},
		links:    make(map[int64]map[int64]struct{}),
		cats:     make(map[int64]string),
	}
}

func (f *fakeProductRepo) Create(_ context.Context, p *domain.Product) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	stored := *p
	stored.ID = f.nextID
	f.nextID++
	f.products[stored.ID] = &stored
	return &stored, nil
}

func (f *fakeProductRepo) Update(_ context.Context, p *domain.Product) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.products[p.ID]; !ok {
		return nil, e.ErrProductNotFound
	}
	stored := *p
	f.products[p.ID] = &stored
	return &stored, nil
}

func (f *fakeProductRepo) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.products[id]; !ok {
		return e.ErrProductNotFound
	}
	delete(f.products, id)
	delete(f.links, id)
	return nil
}

func (f *fakeProductRepo) GetByID(_ context.Context, id int64) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.products[id]
	if !ok {
		return nil, e.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProductRepo) GetInfo(_ context.Context, id int64) (*ProductInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.products[id]
	if !ok {
		return nil, e.ErrProductNotFound
	}
	return f.infoLocked(p), nil
}

func (f *fakeProductRepo) infoLocked(p *domain.Product) *ProductInfo {
	var cats []CategoryInfo
	for catID := range f.links[p.ID] {
		cats = append(cats, CategoryInfo{ID: catID, Name: f.cats[catID]})
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i].ID < cats[j].ID })
	return NewProductInfo(p.ID, p.Name, p.Price, p.Currency, f.owners[p.UserID], cats)
}

func (f *fakeProductRepo) ListInfos(_ context.Context, offset, limit int) ([]ProductInfo, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ids := make([]int64, 0, len(f.products))
	for id := range f.products {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	infos := make([]ProductInfo, 0, limit)
	for i := offset; i < len(ids) && len(infos) < limit; i++ {
		infos = append(infos, *f.infoLocked(f.products[ids[i]]))
	}
	return infos, int64(len(ids)), nil
}

func (f *fakeProductRepo) SearchInfos(_ context.Context, pred *filter.Node) ([]ProductInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ids := make([]int64, 0, len(f.products))
	for id := range f.products {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var infos []ProductInfo
	for _, id := range ids {
		p := f.products[id]
		fields := map[string]any{
			"name":     p.Name,
			"price":    p.Price,
			"currency": p.Currency,
			"owner":    f.owners[p.UserID],
		}
		if pred.Matches(fields) {
			infos = append(infos, *f.infoLocked(p))
		}
	}
	return infos, nil
}

func (f *fakeProductRepo) AttachCategory(_ context.Context, productID, categoryID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.links[productID] == nil {
		f.links[productID] = make(map[int64]struct{})
	}
	f.links[productID][categoryID] = struct{}{}
	return nil
}

func (f *fakeProductRepo) DetachCategory(_ context.Context, productID, categoryID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.links[productID], categoryID)
	return nil
}

type fakeCategoryRepo struct {
	repo *fakeProductRepo
}

func (f *fakeCategoryRepo) Create(_ context.Context, c *domain.Category) (*domain.Category, error) {
	for id, name := range f.repo.cats {
		if name == c.Name {
			return &domain.Category{ID: id, Name: name}, nil
		}
	}
	id := int64(len(f.repo.cats) + 1)
	f.repo.cats[id] = c.Name
	return &domain.Category{ID: id, Name: c.Name}, nil
}

func (f *fakeCategoryRepo) GetByID(_ context.Context, id int64) (*domain.Category, error) {
	name, ok := f.repo.cats[id]
	if !ok {
		return nil, e.ErrCategoryNotFound
	}
	return &domain.Category{ID: id, Name: name}, nil
}

func (f *fakeCategoryRepo) List(_ context.Context) ([]domain.Category, error) {
	var out []domain.Category
	for id, name := range f.repo.cats {
		out = append(out, domain.Category{ID: id, Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeOutboxRepo struct {
	mu     sync.Mutex
	events []*OutboxEvent
}

func (f *fakeOutboxRepo) Create(_ context.Context, ev *OutboxEvent) (*OutboxEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ev.ID = int64(len(f.events) + 1)
	f.events = append(f.events, ev)
	return ev, nil
}

func (f *fakeOutboxRepo) GetAndMarkAsProcessing(context.Context, int) ([]*OutboxEvent, error) {
	return nil, nil
}

func (f *fakeOutboxRepo) MarkAsProcessed(context.Context, int64) error { return nil }

func (f *fakeOutboxRepo) last() *OutboxEvent {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.events) == 0 {
		return nil
	}
	return f.events[len(f.events)-1]
}

type fakeImageRepo struct {
	mu     sync.Mutex
	nextID int64
	images map[int64]ProductImageInfo
}

func newFakeImageRepo() *fakeImageRepo {
	return &fakeImageRepo{nextID: 1, images: make(map[int64]ProductImageInfo)}
}

func (f *fakeImageRepo) Create(_ context.Context, img *ProductImageInfo) (*ProductImageInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	stored := *img
	stored.ID = f.nextID
	f.nextID++
	f.images[stored.ID] = stored
	return &stored, nil
}

func (f *fakeImageRepo) ListByProduct(_ context.Context, productID int64) ([]ProductImageInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []ProductImageInfo
	for _, img := range f.images {
		if img.ProductID == productID {
			out = append(out, img)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeImageRepo) GetByID(_ context.Context, productID, imageID int64) (*ProductImageInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	img, ok := f.images[imageID]
	if !ok || img.ProductID != productID {
		return nil, e.ErrImageNotFound
	}
	return &img, nil
}

func (f *fakeImageRepo) Delete(_ context.Context, productID, imageID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	img, ok := f.images[imageID]
	if !ok || img.ProductID != productID {
		return e.ErrImageNotFound
	}
	delete(f.images, imageID)
	return nil
}

type fakeImagesInfra struct {
	mu      sync.Mutex
	cleaned []string
}

func (f *fakeImagesInfra) UploadImages(_ context.Context, req *UploadImagesReq) (*UploadImagesRes, error) {
	uploaded := make([]UploadedImage, 0, len(req.Images))
	for i, img := range req.Images {
		uploaded = append(uploaded, UploadedImage{
			ObjectKey:   req.Images[i].Name,
			ContentType: img.MimeType,
			Size:        img.Size,
		})
	}
	return NewUploadImagesRes(uploaded), nil
}

func (f *fakeImagesInfra) CleanupImages(keys []string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.cleaned = append(f.cleaned, keys...)
}

type fakeCacheRepo struct {
	mu      sync.Mutex
	items   map[int64]ProductInfo
	deleted []int64
}

func newFakeCacheRepo() *fakeCacheRepo {
	return &fakeCacheRepo{items: make(map[int64]ProductInfo)}
}

func (f *fakeCacheRepo) GetProducts(_ context.Context, ids []int64) (map[int64]ProductInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make(map[int64]ProductInfo)
	for _, id := range ids {
		if info, ok := f.items[id]; ok {
			out[id] = info
		}
	}
	return out, nil
}

func (f *fakeCacheRepo) SetProducts(_ context.Context, products []ProductInfo) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, info := range products {
		f.items[info.ID] = info
	}
	return nil
}

func (f *fakeCacheRepo) DeleteProducts(_ context.Context, ids []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, id := range ids {
		delete(f.items, id)
	}
	f.deleted = append(f.deleted, ids...)
	return nil
}

type env struct {
	uc       *ProductUseCase
	products *fakeProductRepo
	cats     *fakeCategoryRepo
	outbox   *fakeOutboxRepo
	images   *fakeImageRepo
	infra    *fakeImagesInfra
	cache    *fakeCacheRepo
}

func newEnv() *env {
	products := newFakeProductRepo()
	cats := &fakeCategoryRepo{repo: products}
	outbox := &fakeOutboxRepo{}
	images := newFakeImageRepo()
	infra := &fakeImagesInfra{}
	cache := newFakeCacheRepo()

	uc := NewProductUC(products, cats, images, outbox, infra, cache, fakeDB{}, noopLogger{}, "USD", 20, 100)
	return &env{uc: uc, products: products, cats: cats, outbox: outbox, images: images, infra: infra, cache: cache}
}

func alice() *domain.User { return &domain.User{ID: 1, Username: "alice"} }

func (ev *env) createProduct(t *testing.T, name string, price int64) *ProductInfo {
	t.Helper()

	info, err := ev.uc.CreateProduct(context.Background(), &CreateProductReq{
		Name:     name,
		Price:    price,
		Currency: "USD",
		Owner:    alice(),
	})
	require.NoError(t, err)
	return info
}

// TESTS

func TestCreateProduct_UsesCatalogCurrency(t *testing.T) {
	ev := newEnv()

	info, err := ev.uc.CreateProduct(context.Background(), &CreateProductReq{
		Name:     "Widget",
		Price:    1500,
		Currency: "EUR", // запрошенная валюта отбрасывается
		Owner:    alice(),
	})
	require.NoError(t, err)

	assert.Equal(t, "USD", info.Currency)
	assert.Equal(t, "alice", info.Owner)
	assert.Equal(t, int64(1500), info.Price)

	stored, err := ev.products.GetByID(context.Background(), info.ID)
	require.NoError(t, err)
	assert.Equal(t, "USD", stored.Currency)

	event := ev.outbox.last()
	require.NotNil(t, event)
	assert.Equal(t, ProductCreated, event.EventType)
	assert.Equal(t, Pending, event.Status)

	var payload ProductInfo
	require.NoError(t, json.Unmarshal(event.Payload, &payload))
	assert.Equal(t, "USD", payload.Currency)
}

func TestCreateProduct_Validation(t *testing.T) {
	ev := newEnv()

	longName := make([]rune, 301)
	for i := range longName {
		longName[i] = 'x'
	}

	tests := []struct {
		name string
		req  *CreateProductReq
		want error
	}{
		{
			name: "empty name",
			req:  &CreateProductReq{Name: "  ", Price: 100, Currency: "USD", Owner: alice()},
			want: e.ErrProductNameRequired,
		},
		{
			name: "name too long",
			req:  &CreateProductReq{Name: string(longName), Price: 100, Currency: "USD", Owner: alice()},
			want: e.ErrProductNameTooLong,
		},
		{
			name: "negative price",
			req:  &CreateProductReq{Name: "Widget", Price: -1, Currency: "USD", Owner: alice()},
			want: e.ErrInvalidPrice,
		},
		{
			name: "bad currency length",
			req:  &CreateProductReq{Name: "Widget", Price: 100, Currency: "US", Owner: alice()},
			want: e.ErrInvalidCurrency,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := ev.uc.CreateProduct(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestUpdateProduct_ChangesNameAndPriceOnly(t *testing.T) {
	ev := newEnv()
	created := ev.createProduct(t, "Widget", 1000)

	info, err := ev.uc.UpdateProduct(context.Background(), created.ID, &UpdateProductReq{
		Name:     "Gadget",
		Price:    2500,
		Currency: "EUR", // валюта неизменяема
	})
	require.NoError(t, err)

	assert.Equal(t, "Gadget", info.Name)
	assert.Equal(t, int64(2500), info.Price)
	assert.Equal(t, "USD", info.Currency)
	assert.Equal(t, "alice", info.Owner)

	assert.Equal(t, ProductUpdated, ev.outbox.last().EventType)
	assert.Contains(t, ev.cache.deleted, created.ID)
}

func TestUpdateProduct_NotFound(t *testing.T) {
	ev := newEnv()

	_, err := ev.uc.UpdateProduct(context.Background(), 42, &UpdateProductReq{
		Name:     "Gadget",
		Price:    100,
		Currency: "USD",
	})
	assert.ErrorIs(t, err, e.ErrProductNotFound)
}

func TestDeleteProduct(t *testing.T) {
	ev := newEnv()
	created := ev.createProduct(t, "Widget", 1000)

	require.NoError(t, ev.uc.DeleteProduct(context.Background(), created.ID))

	assert.Equal(t, ProductDeleted, ev.outbox.last().EventType)
	assert.Contains(t, ev.cache.deleted, created.ID)

	_, err := ev.uc.GetProduct(context.Background(), created.ID)
	assert.ErrorIs(t, err, e.ErrProductNotFound)
}

func TestDeleteProduct_NotFound(t *testing.T) {
	ev := newEnv()

	err := ev.uc.DeleteProduct(context.Background(), 42)
	assert.ErrorIs(t, err, e.ErrProductNotFound)
}

func TestGetProduct_CacheHit(t *testing.T) {
	ev := newEnv()

	cached := *NewProductInfo(7, "Cached", 500, "USD", "bob", nil)
	require.NoError(t, ev.cache.SetProducts(context.Background(), []ProductInfo{cached}))

	info, err := ev.uc.GetProduct(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, cached, *info)
}

func TestListProducts_Pagination(t *testing.T) {
	ev := newEnv()
	for i := 0; i < 5; i++ {
		ev.createProduct(t, "Widget", int64(100*(i+1)))
	}

	page, err := ev.uc.ListProducts(context.Background(), &PageReq{Page: 2, Size: 2})
	require.NoError(t, err)

	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 2, page.Size)
	assert.Equal(t, int64(5), page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, int64(300), page.Items[0].Price)

	// страница за пределами данных
	page, err = ev.uc.ListProducts(context.Background(), &PageReq{Page: 100, Size: 2})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, int64(5), page.Total)

	// размер прижимается к максимуму
	page, err = ev.uc.ListProducts(context.Background(), &PageReq{Page: 1, Size: 100500})
	require.NoError(t, err)
	assert.Equal(t, 100, page.Size)
}

func TestSearchProducts(t *testing.T) {
	ev := newEnv()
	ev.createProduct(t, "Widget", 500)
	ev.createProduct(t, "Widget", 1500)
	ev.createProduct(t, "Gadget", 2000)

	infos, err := ev.uc.SearchProducts(context.Background(), `name:'Widget' AND price>10`)
	require.NoError(t, err)

	require.Len(t, infos, 1)
	assert.Equal(t, int64(1500), infos[0].Price)
}

func TestSearchProducts_Malformed(t *testing.T) {
	ev := newEnv()

	_, err := ev.uc.SearchProducts(context.Background(), `bogus:1`)
	assert.ErrorIs(t, err, e.ErrMalformedFilter)
}

func TestAttachDetachCategory(t *testing.T) {
	ev := newEnv()
	created := ev.createProduct(t, "Widget", 1000)

	cat, err := ev.cats.Create(context.Background(), domain.NewCategory("tools"))
	require.NoError(t, err)

	require.NoError(t, ev.uc.AttachCategory(context.Background(), created.ID, cat.ID))

	info, err := ev.products.GetInfo(context.Background(), created.ID)
	require.NoError(t, err)
	require.Len(t, info.Categories, 1)
	assert.Equal(t, "tools", info.Categories[0].Name)
	assert.Equal(t, ProductUpdated, ev.outbox.last().EventType)

	require.NoError(t, ev.uc.DetachCategory(context.Background(), created.ID, cat.ID))

	info, err = ev.products.GetInfo(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Empty(t, info.Categories)
}

func TestAttachCategory_CategoryNotFound(t *testing.T) {
	ev := newEnv()
	created := ev.createProduct(t, "Widget", 1000)

	err := ev.uc.AttachCategory(context.Background(), created.ID, 42)
	assert.ErrorIs(t, err, e.ErrCategoryNotFound)
}

func TestAddProductImages(t *testing.T) {
	ev := newEnv()
	created := ev.createProduct(t, "Widget", 1000)

	infos, err := ev.uc.AddProductImages(context.Background(), created.ID, []ProductImage{
		{Data: []byte("img"), MimeType: "image/jpeg", Size: 3, Name: "a.jpg"},
	})
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "image/jpeg", infos[0].ContentType)

	listed, err := ev.uc.ListProductImages(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestAddProductImages_NoImages(t *testing.T) {
	ev := newEnv()
	created := ev.createProduct(t, "Widget", 1000)

	_, err := ev.uc.AddProductImages(context.Background(), created.ID, nil)
	assert.ErrorIs(t, err, e.ErrNoImages)
}

func TestDeleteProductImage_CleansUpObject(t *testing.T) {
	ev := newEnv()
	created := ev.createProduct(t, "Widget", 1000)

	infos, err := ev.uc.AddProductImages(context.Background(), created.ID, []ProductImage{
		{Data: []byte("img"), MimeType: "image/png", Size: 3, Name: "b.png"},
	})
	require.NoError(t, err)

	require.NoError(t, ev.uc.DeleteProductImage(context.Background(), created.ID, infos[0].ID))

	ev.infra.mu.Lock()
	cleaned := append([]string(nil), ev.infra.cleaned...)
	ev.infra.mu.Unlock()
	assert.Contains(t, cleaned, infos[0].ObjectKey)

	err = ev.uc.DeleteProductImage(context.Background(), created.ID, infos[0].ID)
	assert.ErrorIs(t, err, e.ErrImageNotFound)
}

func TestCategoryUseCase(t *testing.T) {
	ev := newEnv()
	uc := NewCategoryUC(ev.cats, noopLogger{})

	_, err := uc.CreateCategory(context.Background(), "  ")
	assert.ErrorIs(t, err, e.ErrCategoryNameRequired)

	cat, err := uc.CreateCategory(context.Background(), "tools")
	require.NoError(t, err)

	again, err := uc.CreateCategory(context.Background(), "tools")
	require.NoError(t, err)
	assert.Equal(t, cat.ID, again.ID)

	got, err := uc.GetCategory(context.Background(), cat.ID)
	require.NoError(t, err)
	assert.Equal(t, "tools", got.Name)

	list, err := uc.ListCategories(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
