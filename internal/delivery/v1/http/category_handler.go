package http

import (
	"encoding/json"
	"net/http"

	"github.com/DRSN-tech/catalog-backend/internal/usecase"
	"github.com/DRSN-tech/catalog-backend/pkg/e"
	"github.com/DRSN-tech/catalog-backend/pkg/logger"
)

type CategoryHandler struct {
	categoryUsecase usecase.CategoryUC
	assembler       *Assembler
	logger          logger.Logger
}

func NewCategoryHandler(categoryUsecase usecase.CategoryUC, assembler *Assembler, logger logger.Logger) *CategoryHandler {
	return &CategoryHandler{
		categoryUsecase: categoryUsecase,
		assembler:       assembler,
		logger:          logger,
	}
}

// CategoryRequest — JSON-тело запроса создания категории.
type CategoryRequest struct {
	Name string `json:"name"`
}

// createCategory
//
//	@Summary		Создание категории
//	@Description	Идемпотентно создает категорию: повторный запрос с тем же именем возвращает существующую
//	@Tags			categories
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CategoryRequest	true	"Категория"
//	@Success		201		{object}	CategoryResource
//	@Failure		400		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/categories [post]
func (c *CategoryHandler) createCategory(w http.ResponseWriter, r *http.Request) {
	var body CategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		WriteError(w, e.ErrStatusBadRequest)
		return
	}

	category, err := c.categoryUsecase.CreateCategory(r.Context(), body.Name)
	if err != nil {
		c.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, c.assembler.Category(category))
}

// getCategory
//
//	@Summary	Категория по id
//	@Tags		categories
//	@Produce	json
//	@Param		categoryID	path		int	true	"ID категории"
//	@Success	200			{object}	CategoryResource
//	@Failure	404			{object}	ErrorResponse
//	@Router		/categories/{categoryID} [get]
func (c *CategoryHandler) getCategory(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "categoryID")
	if err != nil {
		WriteError(w, err)
		return
	}

	category, err := c.categoryUsecase.GetCategory(r.Context(), id)
	if err != nil {
		c.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, c.assembler.Category(category))
}

// listCategories
//
//	@Summary	Список категорий
//	@Tags		categories
//	@Produce	json
//	@Success	200	{array}	CategoryResource
//	@Router		/categories [get]
func (c *CategoryHandler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := c.categoryUsecase.ListCategories(r.Context())
	if err != nil {
		c.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, c.assembler.Categories(categories))
}
