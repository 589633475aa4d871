package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/EvgenyiK/subscription-lifecycle/internal/models"
)

// MemoryRepository хранит подписки в памяти. Используется в тестах
// и при запуске без базы.
type MemoryRepository struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]models.Subscription
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		nextID: 1,
		subs:   make(map[int]models.Subscription),
	}
}

func (r *MemoryRepository) Ping(context.Context) error {
	return nil
}

func (r *MemoryRepository) FindAll(_ context.Context) ([]models.Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sorted(func(models.Subscription) bool { return true }), nil
}

func (r *MemoryRepository) FindByID(_ context.Context, id int) (models.Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.subs[id]
	if !ok {
		return models.Subscription{}, ErrNotFound
	}
	return clone(s), nil
}

func (r *MemoryRepository) FindByUserID(_ context.Context, userID int) ([]models.Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sorted(func(s models.Subscription) bool { return s.UserID == userID }), nil
}

func (r *MemoryRepository) Insert(_ context.Context, sub models.Subscription) (models.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.put(r.allocate(), sub), nil
}

func (r *MemoryRepository) Update(_ context.Context, sub models.Subscription) (models.Subscription, error) {
	if sub.ID == nil {
		return models.Subscription{}, ErrMissingID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.subs[*sub.ID]; !ok {
		return models.Subscription{}, ErrNotFound
	}
	return r.put(*sub.ID, sub), nil
}

func (r *MemoryRepository) Upsert(_ context.Context, sub models.Subscription) (models.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sub.ID == nil {
		return r.put(r.allocate(), sub), nil
	}
	if *sub.ID >= r.nextID {
		r.nextID = *sub.ID + 1
	}
	return r.put(*sub.ID, sub), nil
}

func (r *MemoryRepository) Delete(_ context.Context, id int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.subs[id]; !ok {
		return false, nil
	}
	delete(r.subs, id)
	return true, nil
}

func (r *MemoryRepository) allocate() int {
	id := r.nextID
	r.nextID++
	return id
}

func (r *MemoryRepository) put(id int, sub models.Subscription) models.Subscription {
	sub.ID = &id
	sub.ExpirationDate = sub.ExpirationDate.Truncate(time.Second).UTC()
	r.subs[id] = sub
	return clone(sub)
}

func (r *MemoryRepository) sorted(keep func(models.Subscription) bool) []models.Subscription {
	out := []models.Subscription{}
	for _, s := range r.subs {
		if keep(s) {
			out = append(out, clone(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return *out[i].ID < *out[j].ID })
	return out
}

// clone отвязывает указатель id от хранимой записи
func clone(s models.Subscription) models.Subscription {
	if s.ID != nil {
		id := *s.ID
		s.ID = &id
	}
	return s
}
