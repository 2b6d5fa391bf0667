package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/DRSN-tech/catalog-backend/internal/auth"
	"github.com/DRSN-tech/catalog-backend/internal/cfg"
	"github.com/DRSN-tech/catalog-backend/internal/usecase"
	"github.com/DRSN-tech/catalog-backend/pkg/logger"
)

type ProductHandler struct {
	productUsecase usecase.ProductUC
	assembler      *Assembler
	logger         logger.Logger
	catalogCfg     *cfg.CatalogCfg
}

func NewProductHandler(productUsecase usecase.ProductUC, assembler *Assembler, logger logger.Logger, catalogCfg *cfg.CatalogCfg) *ProductHandler {
	return &ProductHandler{
		productUsecase: productUsecase,
		assembler:      assembler,
		logger:         logger,
		catalogCfg:     catalogCfg,
	}
}

// listProducts
//
//	@Summary		Список товаров
//	@Description	Возвращает страницу товаров, упорядоченных по id
//	@Tags			products
//	@Produce		json
//	@Param			page	query		int	false	"Номер страницы (с 1)"
//	@Param			size	query		int	false	"Размер страницы"
//	@Success		200		{object}	ProductPageResource
//	@Failure		500		{object}	ErrorResponse
//	@Router			/products [get]
func (p *ProductHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))

	result, err := p.productUsecase.ListProducts(r.Context(), &usecase.PageReq{Page: page, Size: size})
	if err != nil {
		p.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, p.assembler.ProductPage(result))
}

// findProducts
//
//	@Summary		Поиск товаров по выражению
//	@Description	Компилирует выражение search в дерево предикатов и возвращает совпавшие товары
//	@Tags			products
//	@Produce		json
//	@Param			search	query		string	true	"Выражение поиска, например name:'Widget' AND price>10"
//	@Success		200		{array}		ProductResource
//	@Failure		400		{object}	ErrorResponse	"Некорректное выражение"
//	@Router			/products/find [get]
func (p *ProductHandler) findProducts(w http.ResponseWriter, r *http.Request) {
	infos, err := p.productUsecase.SearchProducts(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		p.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, p.assembler.Products(infos))
}

// getProduct
//
//	@Summary		Товар по id
//	@Tags			products
//	@Produce		json
//	@Param			productID	path		int	true	"ID товара"
//	@Success		200			{object}	ProductResource
//	@Failure		404			{object}	ErrorResponse
//	@Router			/products/{productID} [get]
func (p *ProductHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "productID")
	if err != nil {
		WriteError(w, err)
		return
	}

	info, err := p.productUsecase.GetProduct(r.Context(), id)
	if err != nil {
		p.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, p.assembler.Product(info))
}

// createProduct
//
//	@Summary		Создание товара
//	@Description	Создает товар от имени аутентифицированного пользователя. Присланная валюта игнорируется: товар сохраняется в валюте каталога.
//	@Tags			products
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ProductRequest	true	"Товар"
//	@Success		201		{object}	ProductResource
//	@Failure		400		{object}	ErrorResponse	"Ошибка валидации"
//	@Failure		401		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/products [post]
func (p *ProductHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromCtx(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	name, price, currency, err := parseProductRequest(r)
	if err != nil {
		p.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	info, err := p.productUsecase.CreateProduct(r.Context(), &usecase.CreateProductReq{
		Name:     name,
		Price:    price,
		Currency: currency,
		Owner:    user,
	})
	if err != nil {
		p.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, p.assembler.Product(info))
}

// updateProduct
//
//	@Summary		Обновление товара
//	@Description	Меняет имя и цену товара. Валюта и владелец неизменяемы.
//	@Tags			products
//	@Accept			json
//	@Produce		json
//	@Param			productID	path		int				true	"ID товара"
//	@Param			body		body		ProductRequest	true	"Товар"
//	@Success		200			{object}	ProductResource
//	@Failure		400			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/products/{productID} [put]
func (p *ProductHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "productID")
	if err != nil {
		WriteError(w, err)
		return
	}

	name, price, currency, err := parseProductRequest(r)
	if err != nil {
		p.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	info, err := p.productUsecase.UpdateProduct(r.Context(), id, &usecase.UpdateProductReq{
		Name:     name,
		Price:    price,
		Currency: currency,
	})
	if err != nil {
		p.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, p.assembler.Product(info))
}

// deleteProduct
//
//	@Summary	Удаление товара
//	@Tags		products
//	@Param		productID	path	int	true	"ID товара"
//	@Success	204
//	@Failure	404	{object}	ErrorResponse
//	@Security	BearerAuth
//	@Router		/products/{productID} [delete]
func (p *ProductHandler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "productID")
	if err != nil {
		WriteError(w, err)
		return
	}

	if err := p.productUsecase.DeleteProduct(r.Context(), id); err != nil {
		p.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// attachCategory
//
//	@Summary	Привязка категории к товару
//	@Tags		products
//	@Param		productID	path	int	true	"ID товара"
//	@Param		categoryID	path	int	true	"ID категории"
//	@Success	204
//	@Failure	404	{object}	ErrorResponse
//	@Security	BearerAuth
//	@Router		/products/{productID}/categories/{categoryID} [put]
func (p *ProductHandler) attachCategory(w http.ResponseWriter, r *http.Request) {
	p.changeCategory(w, r, p.productUsecase.AttachCategory)
}

// detachCategory
//
//	@Summary	Отвязка категории от товара
//	@Tags		products
//	@Param		productID	path	int	true	"ID товара"
//	@Param		categoryID	path	int	true	"ID категории"
//	@Success	204
//	@Failure	404	{object}	ErrorResponse
//	@Security	BearerAuth
//	@Router		/products/{productID}/categories/{categoryID} [delete]
func (p *ProductHandler) detachCategory(w http.ResponseWriter, r *http.Request) {
	p.changeCategory(w, r, p.productUsecase.DetachCategory)
}

func (p *ProductHandler) changeCategory(w http.ResponseWriter, r *http.Request, change func(ctx context.Context, productID, categoryID int64) error) {
	productID, err := parseIDParam(r, "productID")
	if err != nil {
		WriteError(w, err)
		return
	}

	categoryID, err := parseIDParam(r, "categoryID")
	if err != nil {
		WriteError(w, err)
		return
	}

	if err := change(r.Context(), productID, categoryID); err != nil {
		p.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// uploadImages
//
//	@Summary		Загрузка изображений товара
//	@Tags			products
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			productID	path		int		true	"ID товара"
//	@Param			images		formData	file	true	"Изображения"
//	@Success		201			{array}		ImageResource
//	@Failure		400			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/products/{productID}/images [post]
func (p *ProductHandler) uploadImages(w http.ResponseWriter, r *http.Request) {
	const (
		maxTotalRequestSize = 150 << 20
		maxMemory           = 32 << 20
	)

	id, err := parseIDParam(r, "productID")
	if err != nil {
		WriteError(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxTotalRequestSize)

	if err := ensureMultipartForm(r, maxMemory); err != nil {
		p.logger.Warnf("%d: %s", http.StatusBadRequest, r.Header.Get("Content-Type"))
		WriteError(w, err)
		return
	}

	images, err := parseImages(r.MultipartForm.File["images"], p.catalogCfg.MaxImagesCount, p.catalogCfg.MaxImageSize)
	if err != nil {
		p.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	infos, err := p.productUsecase.AddProductImages(r.Context(), id, images)
	if err != nil {
		p.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, p.assembler.Images(infos))
}

// listImages
//
//	@Summary	Изображения товара
//	@Tags		products
//	@Produce	json
//	@Param		productID	path		int	true	"ID товара"
//	@Success	200			{array}		ImageResource
//	@Failure	404			{object}	ErrorResponse
//	@Router		/products/{productID}/images [get]
func (p *ProductHandler) listImages(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "productID")
	if err != nil {
		WriteError(w, err)
		return
	}

	infos, err := p.productUsecase.ListProductImages(r.Context(), id)
	if err != nil {
		p.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, p.assembler.Images(infos))
}

// deleteImage
//
//	@Summary	Удаление изображения товара
//	@Tags		products
//	@Param		productID	path	int	true	"ID товара"
//	@Param		imageID		path	int	true	"ID изображения"
//	@Success	204
//	@Failure	404	{object}	ErrorResponse
//	@Security	BearerAuth
//	@Router		/products/{productID}/images/{imageID} [delete]
func (p *ProductHandler) deleteImage(w http.ResponseWriter, r *http.Request) {
	productID, err := parseIDParam(r, "productID")
	if err != nil {
		WriteError(w, err)
		return
	}

	imageID, err := parseIDParam(r, "imageID")
	if err != nil {
		WriteError(w, err)
		return
	}

	if err := p.productUsecase.DeleteProductImage(r.Context(), productID, imageID); err != nil {
		p.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
