package domain

import "time"

// Category описывает категорию товара.
// Категории существуют независимо от товаров и связаны с ними many-to-many.
type Category struct {
	ID        int64
	Name      string
	CreatedAt time.Time
	UpdatedAt *time.Time
}

func NewCategory(name string) *Category {
	return &Category{
		Name: name,
	}
}
