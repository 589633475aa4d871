package repository

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/EvgenyiK/subscription-lifecycle/internal/config"
	"github.com/EvgenyiK/subscription-lifecycle/internal/models"
)

const table = "subscriptions"

const syncIDSequence = `SELECT setval(pg_get_serial_sequence('subscriptions', 'id'),
    GREATEST((SELECT MAX(id) FROM subscriptions), 1))`

var (
	psql    = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	columns = []string{"id", "user_id", "name", "provider", "expiration_date", "status"}
)

type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создает новое подключение к базе данных.
// Неудачные попытки повторяются с растущей паузой.
func NewRepository(ctx context.Context, cfg *config.Config) (*Repository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}
	if cfg.DBMaxConns > 0 {
		poolConfig.MaxConns = cfg.DBMaxConns
	}

	attempts := cfg.DBConnectAttempts
	if attempts < 1 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		pool, err := pgxpool.ConnectConfig(ctx, poolConfig)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				return &Repository{db: pool}, nil
			}
			pool.Close()
		}
		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(i+1) * cfg.DBConnectInterval):
			}
		}
	}

	return nil, ErrFailedToOpenDBConnection
}

// NewRepositoryFromPool оборачивает уже открытый пул
func NewRepositoryFromPool(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

// Ping проверяет доступность базы, используется в /health
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func (r *Repository) Close() {
	r.db.Close()
}

// FindAll возвращает все подписки
func (r *Repository) FindAll(ctx context.Context) ([]models.Subscription, error) {
	query, args, err := psql.Select(columns...).From(table).OrderBy("id").ToSql()
	if err != nil {
		return nil, err
	}
	return r.query(ctx, query, args...)
}

// FindByID возвращает подписку по ID
func (r *Repository) FindByID(ctx context.Context, id int) (models.Subscription, error) {
	query, args, err := psql.Select(columns...).From(table).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return models.Subscription{}, err
	}
	return r.queryRow(ctx, query, args...)
}

// FindByUserID возвращает подписки пользователя, возможно пустой список
func (r *Repository) FindByUserID(ctx context.Context, userID int) ([]models.Subscription, error) {
	query, args, err := psql.Select(columns...).From(table).Where(sq.Eq{"user_id": userID}).OrderBy("id").ToSql()
	if err != nil {
		return nil, err
	}
	return r.query(ctx, query, args...)
}

// Insert добавляет новую подписку, id назначает база
func (r *Repository) Insert(ctx context.Context, sub models.Subscription) (models.Subscription, error) {
	query, args, err := psql.Insert(table).
		Columns("user_id", "name", "provider", "expiration_date", "status").
		Values(sub.UserID, sub.Name, string(sub.Provider), sub.ExpirationDate.Truncate(time.Second), string(sub.Status)).
		Suffix(returning()).
		ToSql()
	if err != nil {
		return models.Subscription{}, err
	}
	return r.queryRow(ctx, query, args...)
}

// Update сохраняет измененные поля существующей подписки
func (r *Repository) Update(ctx context.Context, sub models.Subscription) (models.Subscription, error) {
	if sub.ID == nil {
		return models.Subscription{}, ErrMissingID
	}
	query, args, err := psql.Update(table).
		SetMap(map[string]interface{}{
			"user_id":         sub.UserID,
			"name":            sub.Name,
			"provider":        string(sub.Provider),
			"expiration_date": sub.ExpirationDate.Truncate(time.Second),
			"status":          string(sub.Status),
		}).
		Where(sq.Eq{"id": *sub.ID}).
		Suffix(returning()).
		ToSql()
	if err != nil {
		return models.Subscription{}, err
	}
	return r.queryRow(ctx, query, args...)
}

// Upsert вставляет подписку без id, иначе вставляет или обновляет по id.
// После записи с явным id последовательность id сдвигается за максимум.
func (r *Repository) Upsert(ctx context.Context, sub models.Subscription) (models.Subscription, error) {
	if sub.ID == nil {
		return r.Insert(ctx, sub)
	}
	query, args, err := psql.Insert(table).
		Columns(columns...).
		Values(*sub.ID, sub.UserID, sub.Name, string(sub.Provider), sub.ExpirationDate.Truncate(time.Second), string(sub.Status)).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
            user_id = EXCLUDED.user_id,
            name = EXCLUDED.name,
            provider = EXCLUDED.provider,
            expiration_date = EXCLUDED.expiration_date,
            status = EXCLUDED.status
        ` + returning()).
		ToSql()
	if err != nil {
		return models.Subscription{}, err
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return models.Subscription{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	saved, err := scan(tx.QueryRow(ctx, query, args...))
	if err != nil {
		return models.Subscription{}, err
	}
	if _, err := tx.Exec(ctx, syncIDSequence); err != nil {
		return models.Subscription{}, fmt.Errorf("sync id sequence: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return models.Subscription{}, err
	}
	return saved, nil
}

// Delete удаляет подписку по ID, true если запись была удалена
func (r *Repository) Delete(ctx context.Context, id int) (bool, error) {
	query, args, err := psql.Delete(table).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return false, err
	}
	cmdTag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return false, err
	}
	return cmdTag.RowsAffected() == 1, nil
}

func (r *Repository) query(ctx context.Context, query string, args ...interface{}) ([]models.Subscription, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subs := []models.Subscription{}
	for rows.Next() {
		s, err := scan(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

func (r *Repository) queryRow(ctx context.Context, query string, args ...interface{}) (models.Subscription, error) {
	s, err := scan(r.db.QueryRow(ctx, query, args...))
	if isNoRows(err) {
		return models.Subscription{}, ErrNotFound
	}
	return s, err
}

func scan(row pgx.Row) (models.Subscription, error) {
	var (
		s        models.Subscription
		id       int
		provider string
		status   string
	)
	if err := row.Scan(&id, &s.UserID, &s.Name, &provider, &s.ExpirationDate, &status); err != nil {
		return models.Subscription{}, err
	}
	s.ID = &id
	s.Provider = models.Provider(provider)
	s.Status = models.Status(status)
	s.ExpirationDate = s.ExpirationDate.UTC()
	return s, nil
}

func returning() string {
	return "RETURNING id, user_id, name, provider, expiration_date, status"
}
