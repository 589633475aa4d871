package models

import (
	"time"
)

// Provider поставщик подписки
type Provider string

const (
	ProviderGoogle Provider = "GOOGLE"
	ProviderApple  Provider = "APPLE"
)

// Providers возвращает все известные провайдеры в порядке объявления
func Providers() []Provider {
	return []Provider{ProviderGoogle, ProviderApple}
}

// ParseProvider ищет провайдера по точному (регистрозависимому) совпадению имени
func ParseProvider(s string) (Provider, bool) {
	for _, p := range Providers() {
		if string(p) == s {
			return p, true
		}
	}
	return "", false
}

// Status состояние подписки
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusCanceled Status = "CANCELED"
	StatusExpired  Status = "EXPIRED"
)

type Subscription struct {
	ID             *int      `json:"id"` // nil до вставки в базу
	UserID         int       `json:"user_id"`
	Name           string    `json:"name"`
	Provider       Provider  `json:"provider"`
	ExpirationDate time.Time `json:"expiration_date"` // с точностью до секунды
	Status         Status    `json:"status"`
}

// CreateSubscriptionRequest входные данные для создания подписки
type CreateSubscriptionRequest struct {
	Name           string     `json:"name"`
	UserID         *int       `json:"user_id"`
	Provider       string     `json:"provider"`
	ExpirationDate *time.Time `json:"expiration_date"`
}
