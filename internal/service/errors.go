package service

import (
	"errors"
	"fmt"

	"github.com/EvgenyiK/subscription-lifecycle/internal/models"
	"github.com/EvgenyiK/subscription-lifecycle/internal/validator"
)

var (
	// ErrInvalidArgument id не указывает на существующую подписку
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrValidation запрос не прошел бизнес-валидацию
	ErrValidation = errors.New("validation failed")
	// ErrSubscription нарушено правило перехода состояний
	ErrSubscription = errors.New("subscription rule violated")
)

// ValidationError несет полный результат валидации, а не только первую ошибку
type ValidationError struct {
	Result validator.ValidationResult
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrValidation, e.Result)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// StateError операция недопустима для текущего статуса подписки
type StateError struct {
	ID     int
	Status models.Status
	Op     string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("only active subscription can be %s", e.Op)
}

func (e *StateError) Is(target error) bool {
	return target == ErrSubscription
}

// ErrorKind тег исхода операции сервиса
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindValidation
	KindInvalidArgument
	KindSubscription
	KindInternal
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindValidation:
		return "validation"
	case KindInvalidArgument:
		return "invalid_argument"
	case KindSubscription:
		return "subscription"
	default:
		return "internal"
	}
}

// KindOf классифицирует ошибку, возвращенную сервисом
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrInvalidArgument):
		return KindInvalidArgument
	case errors.Is(err, ErrSubscription):
		return KindSubscription
	default:
		return KindInternal
	}
}
