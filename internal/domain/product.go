package domain

import "time"

// Product описывает товар каталога.
// Валюта всегда равна системной константе; владелец назначается при создании
// и больше не меняется.
type Product struct {
	ID        int64
	Name      string
	Price     int64 // Цена хранится в минорных единицах (центах)
	Currency  string
	UserID    int64
	CreatedAt time.Time
	UpdatedAt *time.Time
}

func NewProduct(name string, price int64, currency string, userID int64) *Product {
	return &Product{
		Name:     name,
		Price:    price,
		Currency: currency,
		UserID:   userID,
	}
}
