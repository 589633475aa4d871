package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/EvgenyiK/subscription-lifecycle/internal/models"
	"github.com/EvgenyiK/subscription-lifecycle/internal/repository"
	"github.com/EvgenyiK/subscription-lifecycle/internal/validator"
)

// Repository операции хранилища, которые нужны сервису.
// FindByID возвращает repository.ErrNotFound, если записи нет.
type Repository interface {
	FindAll(ctx context.Context) ([]models.Subscription, error)
	FindByID(ctx context.Context, id int) (models.Subscription, error)
	FindByUserID(ctx context.Context, userID int) ([]models.Subscription, error)
	Insert(ctx context.Context, sub models.Subscription) (models.Subscription, error)
	Update(ctx context.Context, sub models.Subscription) (models.Subscription, error)
	Upsert(ctx context.Context, sub models.Subscription) (models.Subscription, error)
	Delete(ctx context.Context, id int) (bool, error)
}

type Validator interface {
	Validate(req models.CreateSubscriptionRequest) validator.ValidationResult
}

type Mapper interface {
	Map(req models.CreateSubscriptionRequest) models.Subscription
}

// Service бизнес-логика подписок: валидация, создание и переходы статусов
type Service struct {
	repo      Repository
	validator Validator
	mapper    Mapper
	now       func() time.Time
	logger    *slog.Logger
}

// NewService создает сервис. now и logger могут быть nil.
func NewService(repo Repository, v Validator, m Mapper, now func() time.Time, logger *slog.Logger) *Service {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		validator: v,
		mapper:    m,
		now:       now,
		logger:    logger,
	}
}

// Upsert создает подписку для пользователя. Если у пользователя уже есть
// подписка, возвращается первая найденная без изменений, поля запроса игнорируются.
func (s *Service) Upsert(ctx context.Context, req models.CreateSubscriptionRequest) (models.Subscription, error) {
	result := s.validator.Validate(req)
	if result.HasErrors() {
		s.logger.WarnContext(ctx, "subscription request rejected", "codes", result.Codes())
		return models.Subscription{}, &ValidationError{Result: result}
	}

	existing, err := s.repo.FindByUserID(ctx, *req.UserID)
	if err != nil {
		return models.Subscription{}, fmt.Errorf("find subscriptions by user %d: %w", *req.UserID, err)
	}
	if len(existing) > 0 {
		s.logger.InfoContext(ctx, "user already subscribed", "user_id", *req.UserID, "id", derefID(existing[0].ID))
		return existing[0], nil
	}

	saved, err := s.repo.Upsert(ctx, s.mapper.Map(req))
	if err != nil {
		return models.Subscription{}, fmt.Errorf("save subscription: %w", err)
	}
	s.logger.InfoContext(ctx, "subscription created", "user_id", saved.UserID, "id", derefID(saved.ID))
	return saved, nil
}

// Cancel переводит активную подписку в CANCELED
func (s *Service) Cancel(ctx context.Context, id int) error {
	return s.transition(ctx, id, models.StatusCanceled, "canceled")
}

// Expire переводит активную подписку в EXPIRED
func (s *Service) Expire(ctx context.Context, id int) error {
	return s.transition(ctx, id, models.StatusExpired, "expired")
}

func (s *Service) transition(ctx context.Context, id int, to models.Status, op string) error {
	sub, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	if sub.Status != models.StatusActive {
		s.logger.WarnContext(ctx, "subscription transition rejected", "id", id, "status", sub.Status, "target", to)
		return &StateError{ID: id, Status: sub.Status, Op: op}
	}

	sub.Status = to
	if _, err := s.repo.Update(ctx, sub); err != nil {
		return fmt.Errorf("update subscription %d: %w", id, err)
	}
	s.logger.InfoContext(ctx, "subscription status changed", "id", id, "status", to)
	return nil
}

// ExpireDue истекает все активные подписки, срок которых наступил.
// Возвращает число переведенных в EXPIRED.
func (s *Service) ExpireDue(ctx context.Context) (int, error) {
	subs, err := s.repo.FindAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("find subscriptions: %w", err)
	}

	now := s.now()
	expired := 0
	for _, sub := range subs {
		if sub.ID == nil || sub.Status != models.StatusActive || sub.ExpirationDate.After(now) {
			continue
		}
		err := s.Expire(ctx, *sub.ID)
		switch KindOf(err) {
		case KindNone:
			expired++
		case KindSubscription, KindInvalidArgument:
			// запись изменили или удалили между чтением и переходом
			continue
		default:
			return expired, err
		}
	}
	return expired, nil
}

// Get возвращает подписку по id
func (s *Service) Get(ctx context.Context, id int) (models.Subscription, error) {
	return s.find(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]models.Subscription, error) {
	return s.repo.FindAll(ctx)
}

func (s *Service) ListByUser(ctx context.Context, userID int) ([]models.Subscription, error) {
	return s.repo.FindByUserID(ctx, userID)
}

// Delete удаляет подписку; бизнес-правила статусов здесь не применяются
func (s *Service) Delete(ctx context.Context, id int) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete subscription %d: %w", id, err)
	}
	if !deleted {
		return fmt.Errorf("%w: subscription %d not found", ErrInvalidArgument, id)
	}
	s.logger.InfoContext(ctx, "subscription deleted", "id", id)
	return nil
}

func (s *Service) find(ctx context.Context, id int) (models.Subscription, error) {
	sub, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return models.Subscription{}, fmt.Errorf("%w: subscription %d not found", ErrInvalidArgument, id)
	}
	if err != nil {
		return models.Subscription{}, fmt.Errorf("find subscription %d: %w", id, err)
	}
	return sub, nil
}

func derefID(id *int) int {
	if id == nil {
		return 0
	}
	return *id
}
