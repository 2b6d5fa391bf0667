package usecase

import (
	"time"

	"github.com/DRSN-tech/catalog-backend/internal/domain"
)

// PRODUCT USECASE

// CreateProductReq — запрос на создание товара.
// Currency приходит от клиента, но сервер всегда сохраняет валюту каталога.
type CreateProductReq struct {
	Name     string
	Price    int64 // в минорных единицах (центах)
	Currency string
	Owner    *domain.User
}

// UpdateProductReq — запрос на обновление товара. Меняются только имя и цена;
// валюта и владелец неизменяемы.
type UpdateProductReq struct {
	Name     string
	Price    int64
	Currency string
}

// CategoryInfo — категория в составе информации о товаре.
type CategoryInfo struct {
	ID   int64
	Name string
}

// ProductInfo — DTO с информацией о товаре для внешнего использования.
type ProductInfo struct {
	ID         int64
	Name       string
	Price      int64
	Currency   string
	Owner      string // username владельца
	Categories []CategoryInfo
}

// PageReq — параметры страницы списка (нумерация с 1).
type PageReq struct {
	Page int
	Size int
}

// ProductPage — страница списка товаров с метаданными пагинации.
type ProductPage struct {
	Page  int
	Size  int
	Total int64
	Items []ProductInfo
}

// ProductImage представляет изображение, загруженное через multipart/form-data.
type ProductImage struct {
	Data     []byte // байты изображения
	MimeType string // Content-Type из multipart (image/jpeg)
	Size     int64  // фактический размер в байтах
	Name     string // оригинальное имя файла (для логов)
}

// ProductImageInfo — сохранённое изображение товара.
type ProductImageInfo struct {
	ID          int64
	ProductID   int64
	ObjectKey   string
	ContentType string
	Size        int64
	CreatedAt   time.Time
}

// INFRASTRUCTURE

// UploadImagesReq — запрос на загрузку изображений товара.
type UploadImagesReq struct {
	ProductID int64
	Images    []ProductImage
}

// UploadedImage — результат загрузки одного изображения в MinIO.
type UploadedImage struct {
	ObjectKey   string
	ContentType string
	Size        int64
}

// UploadImagesRes — результат загрузки изображений (ключи в MinIO).
type UploadImagesRes struct {
	Images []UploadedImage
}

// Keys возвращает ключи загруженных объектов.
func (r *UploadImagesRes) Keys() []string {
	keys := make([]string, 0, len(r.Images))
	for _, img := range r.Images {
		keys = append(keys, img.ObjectKey)
	}
	return keys
}

type WriteRawMessageReq struct {
	ProductID int64
	EventType string
	Payload   []byte
}

// OUTBOX

// OutboxStatus — статус события в таблице outbox_events.
type OutboxStatus string

const (
	Pending    OutboxStatus = "pending"
	Processing OutboxStatus = "processing"
	Processed  OutboxStatus = "processed"
)

// OutboxEventType — тип доменного события товара.
type OutboxEventType string

const (
	ProductCreated OutboxEventType = "product.created"
	ProductUpdated OutboxEventType = "product.updated"
	ProductDeleted OutboxEventType = "product.deleted"
)

// OutboxEvent — запись transactional outbox: создаётся в одной транзакции
// с изменением товара и публикуется в Kafka воркером.
type OutboxEvent struct {
	ID          int64
	EventID     string // uuid, ключ идемпотентности
	EventType   OutboxEventType
	ProductID   int64
	Payload     []byte // JSON-снимок товара на момент события
	Status      OutboxStatus
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// MAPPERS

func NewProductInfo(id int64, name string, price int64, currency string, owner string, categories []CategoryInfo) *ProductInfo {
	return &ProductInfo{
		ID:         id,
		Name:       name,
		Price:      price,
		Currency:   currency,
		Owner:      owner,
		Categories: categories,
	}
}

func NewProductImage(data []byte, mimeType string, size int64, name string) *ProductImage {
	return &ProductImage{
		Data:     data,
		MimeType: mimeType,
		Size:     size,
		Name:     name,
	}
}

func NewUploadImagesReq(productID int64, images []ProductImage) *UploadImagesReq {
	return &UploadImagesReq{
		ProductID: productID,
		Images:    images,
	}
}

func NewUploadImagesRes(images []UploadedImage) *UploadImagesRes {
	return &UploadImagesRes{
		Images: images,
	}
}

func NewWriteRawMessageReq(productID int64, eventType string, payload []byte) *WriteRawMessageReq {
	return &WriteRawMessageReq{
		ProductID: productID,
		EventType: eventType,
		Payload:   payload,
	}
}

func NewOutboxEvent(eventID string, eventType OutboxEventType, productID int64, payload []byte) *OutboxEvent {
	return &OutboxEvent{
		EventID:   eventID,
		EventType: eventType,
		ProductID: productID,
		Payload:   payload,
		Status:    Pending,
		CreatedAt: time.Now().UTC(),
	}
}
