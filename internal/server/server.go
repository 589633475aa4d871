package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/EvgenyiK/subscription-lifecycle/internal/handlers"
)

const requestIDHeader = "X-Request-ID"

type Options struct {
	AllowedOrigins []string
	Logger         *slog.Logger
}

func NewRouter(h *handlers.Handler, opts Options) *mux.Router {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := mux.NewRouter()
	r.Use(requestID, middleware.RequestLogger(&slogFormatter{logger: logger}), middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	}))

	r.HandleFunc("/health", h.Health).Methods("GET")
	// mux вызывает middleware только для найденного маршрута, preflight нужен свой
	r.PathPrefix("/").Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	// Группировка маршрутов по пути "/subscriptions"
	subsRouter := r.PathPrefix("/subscriptions").Subrouter()

	subsRouter.HandleFunc("/view/list", h.ListSubscriptions).Methods("GET")
	subsRouter.HandleFunc("/user/{userId:[0-9]+}", h.ListUserSubscriptions).Methods("GET")

	subsRouter.HandleFunc("", h.CreateSubscription).Methods("POST")
	subsRouter.HandleFunc("/{id:[0-9]+}", h.GetSubscription).Methods("GET")
	subsRouter.HandleFunc("/{id:[0-9]+}", h.DeleteSubscription).Methods("DELETE")

	// Переходы статусов
	subsRouter.HandleFunc("/{id:[0-9]+}/cancel", h.CancelSubscription).Methods("POST")
	subsRouter.HandleFunc("/{id:[0-9]+}/expire", h.ExpireSubscription).Methods("POST")

	subsRouter.PathPrefix("/swagger/").Handler(httpSwagger.WrapHandler)

	return r
}

// requestID оставляет входящий X-Request-ID, если это uuid, иначе выдает новый.
// Значение кладется в контекст через middleware.RequestID и возвращается в ответе.
func requestID(next http.Handler) http.Handler {
	echo := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(requestIDHeader, middleware.GetReqID(r.Context()))
		next.ServeHTTP(w, r)
	}))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := uuid.Parse(r.Header.Get(requestIDHeader)); err != nil {
			r.Header.Set(requestIDHeader, uuid.NewString())
		}
		echo.ServeHTTP(w, r)
	})
}

// slogFormatter пишет журнал запросов chi через slog
type slogFormatter struct {
	logger *slog.Logger
}

func (f *slogFormatter) NewLogEntry(r *http.Request) middleware.LogEntry {
	return &slogEntry{
		ctx: r.Context(),
		logger: f.logger.With(
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
		),
	}
}

type slogEntry struct {
	ctx    context.Context
	logger *slog.Logger
}

func (e *slogEntry) Write(status, bytes int, _ http.Header, elapsed time.Duration, _ interface{}) {
	e.logger.InfoContext(e.ctx, "http request", "status", status, "bytes", bytes, "duration", elapsed)
}

func (e *slogEntry) Panic(v interface{}, stack []byte) {
	e.logger.ErrorContext(e.ctx, "panic recovered", "panic", v, "stack", string(stack))
}
