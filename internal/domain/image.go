package domain

// Image описывает изображение товара, которое хранится в S3
type Image struct {
	ID        string // uuid
	ProductID int64
	Bucket    string
	ObjectKey string
	// Передайте значение -1 в Size, если размер потока неизвестен
	// (внимание: при передаче значения -1 будет выделен большой объем памяти).
	Size        *int64
	ContentType *string // Example: "image/jpeg"
	Bytes       []byte
}

func NewImage(id string, productID int64, bucket string, objectKey string, data []byte, size *int64, contentType *string) *Image {
	return &Image{
		ID:          id,
		ProductID:   productID,
		Bucket:      bucket,
		ObjectKey:   objectKey,
		Size:        size,
		ContentType: contentType,
		Bytes:       data,
	}
}
