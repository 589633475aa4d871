package validator

import (
	"strings"
	"time"

	"github.com/EvgenyiK/subscription-lifecycle/internal/models"
)

// Validator проверяет запрос на создание подписки.
// Все правила выполняются всегда, ошибки накапливаются.
type Validator struct {
	now func() time.Time
}

// New создает валидатор; now используется для проверки даты окончания
func New(now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	return &Validator{now: now}
}

func (v *Validator) Validate(req models.CreateSubscriptionRequest) ValidationResult {
	var result ValidationResult

	if req.UserID == nil {
		result.Add(NewError(CodeInvalidUserID, "userId is invalid"))
	}
	if strings.TrimSpace(req.Name) == "" {
		result.Add(NewError(CodeInvalidName, "name is invalid"))
	}
	if _, ok := models.ParseProvider(req.Provider); !ok {
		result.Add(NewError(CodeInvalidProvider, "provider is invalid"))
	}
	if req.ExpirationDate == nil || !req.ExpirationDate.After(v.now()) {
		result.Add(NewError(CodeInvalidExpirationDate, "expirationDate is invalid"))
	}

	return result
}
