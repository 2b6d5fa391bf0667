package http

// Link — гипермедиа-ссылка ресурса.
type Link struct {
	Href string `json:"href"`
}

// Links — карта ссылок ресурса по отношениям (self, next, prev).
type Links map[string]Link

// ProductResource — представление товара для клиентов.
// Цена отдаётся в основных единицах валюты; categories опускается,
// когда у товара нет категорий.
type ProductResource struct {
	ID         int64              `json:"id"`
	Name       string             `json:"name"`
	Price      float64            `json:"price"`
	Currency   string             `json:"currency"`
	Owner      string             `json:"owner"`
	Categories []CategoryResource `json:"categories,omitempty"`
	Links      Links              `json:"_links"`
}

// CategoryResource — представление категории для клиентов.
type CategoryResource struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Links Links  `json:"_links"`
}

// PageMeta — метаданные страницы списка.
type PageMeta struct {
	Number        int   `json:"number"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int64 `json:"totalPages"`
}

// EmbeddedProducts — контейнер _embedded страницы товаров.
type EmbeddedProducts struct {
	Products []ProductResource `json:"products"`
}

// ProductPageResource — страница списка товаров с навигационными ссылками.
type ProductPageResource struct {
	Embedded EmbeddedProducts `json:"_embedded"`
	Links    Links            `json:"_links"`
	Page     PageMeta         `json:"page"`
}

// ImageResource — представление изображения товара.
type ImageResource struct {
	ID          int64  `json:"id"`
	ObjectKey   string `json:"objectKey"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	Links       Links  `json:"_links"`
}
