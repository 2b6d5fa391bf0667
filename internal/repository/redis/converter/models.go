package converter

// CategoryRedisModel — категория в кэшированном снимке товара.
type CategoryRedisModel struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ProductInfoRedisModel — JSON-снимок товара в Redis.
type ProductInfoRedisModel struct {
	ID         int64                `json:"id"`
	Name       string               `json:"name"`
	Price      int64                `json:"price"`
	Currency   string               `json:"currency"`
	Owner      string               `json:"owner"`
	Categories []CategoryRedisModel `json:"categories,omitempty"`
}
