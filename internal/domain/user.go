package domain

import "time"

// User описывает владельца товаров.
// Наружу отдаётся только username, остальные поля не публикуются.
type User struct {
	ID        int64
	Username  string
	CreatedAt time.Time
}

func NewUser(username string) *User {
	return &User{
		Username: username,
	}
}
