package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/EvgenyiK/subscription-lifecycle/internal/models"
	"github.com/EvgenyiK/subscription-lifecycle/internal/service"
	"github.com/EvgenyiK/subscription-lifecycle/internal/validator"
)

// SubscriptionService операции сервиса, доступные через HTTP
type SubscriptionService interface {
	Upsert(ctx context.Context, req models.CreateSubscriptionRequest) (models.Subscription, error)
	Cancel(ctx context.Context, id int) error
	Expire(ctx context.Context, id int) error
	Get(ctx context.Context, id int) (models.Subscription, error)
	List(ctx context.Context) ([]models.Subscription, error)
	ListByUser(ctx context.Context, userID int) ([]models.Subscription, error)
	Delete(ctx context.Context, id int) error
}

type Handler struct {
	svc    SubscriptionService
	health func(context.Context) error
	logger *slog.Logger
}

// NewHandler health может быть nil, тогда /health всегда отвечает 200
func NewHandler(svc SubscriptionService, health func(context.Context) error, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, health: health, logger: logger}
}

type errorResponse struct {
	Error  string            `json:"error"`
	Errors []validator.Error `json:"errors,omitempty"`
}

// CreateSubscription godoc
// @Summary Создать подписку
// @Description Создает подписку пользователя. Если подписка у пользователя уже есть, возвращается существующая.
// @Tags subscriptions
// @Accept json
// @Produce json
// @Param subscription body models.CreateSubscriptionRequest true "Данные подписки"
// @Success 200 {object} models.Subscription
// @Failure 400 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /subscriptions [post]
func (h *Handler) CreateSubscription(w http.ResponseWriter, r *http.Request) {
	var input models.CreateSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.respondWithError(w, r, http.StatusBadRequest, "Invalid request payload")
		return
	}

	sub, err := h.svc.Upsert(r.Context(), input)
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, sub)
}

// GetSubscription godoc
// @Summary Вернуть подписку по ID
// @Tags subscriptions
// @Produce json
// @Param id path int true "ID подписки"
// @Success 200 {object} models.Subscription
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /subscriptions/{id} [get]
func (h *Handler) GetSubscription(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathInt(w, r, "id")
	if !ok {
		return
	}

	sub, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, sub)
}

// ListUserSubscriptions godoc
// @Summary Подписки пользователя
// @Tags subscriptions
// @Produce json
// @Param userId path int true "ID пользователя"
// @Success 200 {array} models.Subscription
// @Failure 400 {object} errorResponse
// @Router /subscriptions/user/{userId} [get]
func (h *Handler) ListUserSubscriptions(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathInt(w, r, "userId")
	if !ok {
		return
	}

	subs, err := h.svc.ListByUser(r.Context(), userID)
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, subs)
}

// ListSubscriptions godoc
// @Summary Получить список всех подписок
// @Tags subscriptions
// @Produce json
// @Success 200 {array} models.Subscription
// @Failure 500 {object} errorResponse
// @Router /subscriptions/view/list [get]
func (h *Handler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.svc.List(r.Context())
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, subs)
}

// CancelSubscription godoc
// @Summary Отменить подписку
// @Description Только активная подписка может быть отменена.
// @Tags subscriptions
// @Param id path int true "ID подписки"
// @Success 204 {string} string "No Content"
// @Failure 404 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Router /subscriptions/{id}/cancel [post]
func (h *Handler) CancelSubscription(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Cancel)
}

// ExpireSubscription godoc
// @Summary Завершить подписку
// @Description Только активная подписка может быть завершена.
// @Tags subscriptions
// @Param id path int true "ID подписки"
// @Success 204 {string} string "No Content"
// @Failure 404 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Router /subscriptions/{id}/expire [post]
func (h *Handler) ExpireSubscription(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Expire)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, op func(context.Context, int) error) {
	id, ok := h.pathInt(w, r, "id")
	if !ok {
		return
	}

	if err := op(r.Context(), id); err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteSubscription godoc
// @Summary Удаляет подписку по ID
// @Tags subscriptions
// @Param id path int true "ID подписки"
// @Success 204 {string} string "No Content"
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /subscriptions/{id} [delete]
func (h *Handler) DeleteSubscription(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathInt(w, r, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Health godoc
// @Summary Проверка состояния
// @Description Проверяет доступность хранилища.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} errorResponse
// @Router /health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health(r.Context()); err != nil {
			h.respondWithError(w, r, http.StatusServiceUnavailable, "storage is unavailable")
			return
		}
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) pathInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	v, err := strconv.Atoi(mux.Vars(r)[name])
	if err != nil {
		h.respondWithError(w, r, http.StatusBadRequest, "Invalid "+name+" format")
		return 0, false
	}
	return v, true
}

// respondWithServiceError переводит вид ошибки сервиса в HTTP статус
func (h *Handler) respondWithServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch service.KindOf(err) {
	case service.KindValidation:
		resp := errorResponse{Error: "validation failed"}
		var vErr *service.ValidationError
		if errors.As(err, &vErr) {
			resp.Errors = vErr.Result.Errors()
		}
		respondWithJSON(w, http.StatusBadRequest, resp)
	case service.KindInvalidArgument:
		h.respondWithError(w, r, http.StatusNotFound, "Subscription not found")
	case service.KindSubscription:
		h.respondWithError(w, r, http.StatusConflict, err.Error())
	default:
		h.logger.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		h.respondWithError(w, r, http.StatusInternalServerError, "Internal server error")
	}
}

func (h *Handler) respondWithError(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.logger.DebugContext(r.Context(), "request rejected", "status", status, "error", message)
	respondWithJSON(w, status, errorResponse{Error: message})
}

func respondWithJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
