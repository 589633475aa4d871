package mapper

import (
	"fmt"

	"github.com/EvgenyiK/subscription-lifecycle/internal/models"
)

// Mapper превращает провалидированный запрос в новую подписку
type Mapper struct{}

func New() *Mapper {
	return &Mapper{}
}

// Map ожидает запрос, прошедший валидацию. Неизвестный провайдер или
// отсутствующий userId здесь являются нарушением контракта вызывающего.
func (m *Mapper) Map(req models.CreateSubscriptionRequest) models.Subscription {
	provider, ok := models.ParseProvider(req.Provider)
	if !ok {
		panic(fmt.Sprintf("mapper: unknown provider %q", req.Provider))
	}
	if req.UserID == nil || req.ExpirationDate == nil {
		panic("mapper: request was not validated")
	}

	return models.Subscription{
		ID:             nil,
		UserID:         *req.UserID,
		Name:           req.Name,
		Provider:       provider,
		ExpirationDate: *req.ExpirationDate,
		Status:         models.StatusActive,
	}
}
