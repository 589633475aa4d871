package repository

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EvgenyiK/subscription-lifecycle/internal/models"
)

type store interface {
	FindAll(ctx context.Context) ([]models.Subscription, error)
	FindByID(ctx context.Context, id int) (models.Subscription, error)
	FindByUserID(ctx context.Context, userID int) ([]models.Subscription, error)
	Insert(ctx context.Context, sub models.Subscription) (models.Subscription, error)
	Update(ctx context.Context, sub models.Subscription) (models.Subscription, error)
	Upsert(ctx context.Context, sub models.Subscription) (models.Subscription, error)
	Delete(ctx context.Context, id int) (bool, error)
}

func getSubscription(name string, userID int) models.Subscription {
	return models.Subscription{
		UserID:         userID,
		Name:           name,
		Provider:       models.ProviderGoogle,
		ExpirationDate: time.Now().Add(10 * 24 * time.Hour).Truncate(time.Second).UTC(),
		Status:         models.StatusActive,
	}
}

func TestMemoryRepository(t *testing.T) {
	runStoreTests(t, func(t *testing.T) store { return NewMemoryRepository() })
}

// Интеграционные тесты запускаются только при заданном TEST_DATABASE_URL
func TestPostgresRepository(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.Connect(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	repo := NewRepositoryFromPool(pool)
	require.NoError(t, repo.Migrate(ctx, slog.New(slog.NewTextHandler(io.Discard, nil))))

	runStoreTests(t, func(t *testing.T) store {
		_, err := pool.Exec(ctx, "TRUNCATE subscriptions RESTART IDENTITY")
		require.NoError(t, err)
		return repo
	})
}

func runStoreTests(t *testing.T, newStore func(t *testing.T) store) {
	ctx := context.Background()

	t.Run("FindAll", func(t *testing.T) {
		s := newStore(t)
		s1, err := s.Insert(ctx, getSubscription("Ivan", 1))
		require.NoError(t, err)
		s2, err := s.Insert(ctx, getSubscription("Petr", 2))
		require.NoError(t, err)
		s3, err := s.Insert(ctx, getSubscription("Kolya", 3))
		require.NoError(t, err)

		all, err := s.FindAll(ctx)
		require.NoError(t, err)

		require.Len(t, all, 3)
		ids := []int{*all[0].ID, *all[1].ID, *all[2].ID}
		assert.ElementsMatch(t, []int{*s1.ID, *s2.ID, *s3.ID}, ids)
	})

	t.Run("FindByID", func(t *testing.T) {
		s := newStore(t)
		inserted, err := s.Insert(ctx, getSubscription("Ivan", 1))
		require.NoError(t, err)

		found, err := s.FindByID(ctx, *inserted.ID)

		require.NoError(t, err)
		assert.Equal(t, inserted, found)
	})

	t.Run("FindByIDMissing", func(t *testing.T) {
		s := newStore(t)

		_, err := s.FindByID(ctx, 100500)

		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("DeleteExisting", func(t *testing.T) {
		s := newStore(t)
		inserted, err := s.Insert(ctx, getSubscription("Ivan", 1))
		require.NoError(t, err)

		deleted, err := s.Delete(ctx, *inserted.ID)

		require.NoError(t, err)
		assert.True(t, deleted)
		_, err = s.FindByID(ctx, *inserted.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("DeleteNotExisting", func(t *testing.T) {
		s := newStore(t)
		inserted, err := s.Insert(ctx, getSubscription("Ivan", 1))
		require.NoError(t, err)

		deleted, err := s.Delete(ctx, *inserted.ID+1)

		require.NoError(t, err)
		assert.False(t, deleted)
	})

	t.Run("Update", func(t *testing.T) {
		s := newStore(t)
		inserted, err := s.Insert(ctx, getSubscription("Ivan", 1))
		require.NoError(t, err)
		inserted.ExpirationDate = inserted.ExpirationDate.Add(10 * 24 * time.Hour)
		inserted.Status = models.StatusCanceled

		updated, err := s.Update(ctx, inserted)

		require.NoError(t, err)
		assert.Equal(t, inserted, updated)
		found, err := s.FindByID(ctx, *inserted.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCanceled, found.Status)
	})

	t.Run("UpdateMissing", func(t *testing.T) {
		s := newStore(t)
		sub := getSubscription("Ivan", 1)

		_, err := s.Update(ctx, sub)
		assert.ErrorIs(t, err, ErrMissingID)

		id := 100500
		sub.ID = &id
		_, err = s.Update(ctx, sub)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Insert", func(t *testing.T) {
		s := newStore(t)

		inserted, err := s.Insert(ctx, getSubscription("Ivan", 1))

		require.NoError(t, err)
		assert.NotNil(t, inserted.ID)
		assert.Equal(t, "Ivan", inserted.Name)
	})

	t.Run("Upsert", func(t *testing.T) {
		s := newStore(t)

		created, err := s.Upsert(ctx, getSubscription("Ivan", 1))
		require.NoError(t, err)
		require.NotNil(t, created.ID)

		created.Name = "Ivan Petrov"
		updated, err := s.Upsert(ctx, created)
		require.NoError(t, err)

		assert.Equal(t, *created.ID, *updated.ID)
		assert.Equal(t, "Ivan Petrov", updated.Name)
		all, err := s.FindAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("UpsertWithExplicitIDThenInsert", func(t *testing.T) {
		s := newStore(t)
		first, err := s.Insert(ctx, getSubscription("Ivan", 1))
		require.NoError(t, err)

		explicit := getSubscription("Petr", 2)
		id := *first.ID + 5
		explicit.ID = &id
		upserted, err := s.Upsert(ctx, explicit)
		require.NoError(t, err)
		assert.Equal(t, id, *upserted.ID)

		next, err := s.Insert(ctx, getSubscription("Kolya", 3))
		require.NoError(t, err)
		assert.Greater(t, *next.ID, id)

		all, err := s.FindAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})

	t.Run("FindByUserID", func(t *testing.T) {
		s := newStore(t)
		inserted, err := s.Insert(ctx, getSubscription("Ivan", 1))
		require.NoError(t, err)

		found, err := s.FindByUserID(ctx, 1)

		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, inserted, found[0])
	})

	t.Run("FindByUserIDMissing", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Insert(ctx, getSubscription("Ivan", 1))
		require.NoError(t, err)

		found, err := s.FindByUserID(ctx, 2)

		require.NoError(t, err)
		assert.Empty(t, found)
	})
}

func TestMemoryRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	inserted, err := repo.Insert(ctx, getSubscription("Ivan", 1))
	require.NoError(t, err)

	*inserted.ID = 42
	inserted.Status = models.StatusExpired

	found, err := repo.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, *found.ID)
	assert.Equal(t, models.StatusActive, found.Status)
}
