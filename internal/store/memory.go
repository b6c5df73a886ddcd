package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"cartshare-backend/internal/domain"
)

// MemoryStore is a mutex-guarded in-memory Store. It backs the test
// suite and local development without a database.
type MemoryStore struct {
	mu              sync.Mutex
	users           map[string]*domain.User
	usersByUsername map[string]string
	orders          map[string]*domain.Order
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:           map[string]*domain.User{},
		usersByUsername: map[string]string{},
		orders:          map[string]*domain.Order{},
	}
}

func copyUser(u *domain.User) *domain.User {
	c := *u
	c.Orders = append([]string(nil), u.Orders...)
	return &c
}

func copyOrder(o *domain.Order) *domain.Order {
	c := *o
	c.UserIDs = append([]string(nil), o.UserIDs...)
	c.Items = append([]domain.Item(nil), o.Items...)
	return &c
}

func (s *MemoryStore) CreateUser(_ context.Context, user *domain.User) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.usersByUsername[user.Username]; exists {
		return "", domain.ErrConflict
	}
	user.ID = uuid.NewString()
	user.Version = 1
	s.users[user.ID] = copyUser(user)
	s.usersByUsername[user.Username] = user.ID
	return user.ID, nil
}

func (s *MemoryStore) GetUser(_ context.Context, id string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyUser(u), nil
}

func (s *MemoryStore) GetUserByUsername(_ context.Context, username string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.usersByUsername[username]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyUser(s.users[id]), nil
}

func (s *MemoryStore) UpdateUser(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.users[user.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if current.Version != user.Version {
		return domain.ErrVersionConflict
	}
	user.Version++
	s.users[user.ID] = copyUser(user)
	return nil
}

func (s *MemoryStore) CreateOrder(_ context.Context, order *domain.Order) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order.ID = uuid.NewString()
	order.Version = 1
	s.orders[order.ID] = copyOrder(order)
	return order.ID, nil
}

func (s *MemoryStore) GetOrder(_ context.Context, id string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyOrder(o), nil
}

func (s *MemoryStore) UpdateOrder(_ context.Context, order *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.orders[order.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if current.Version != order.Version {
		return domain.ErrVersionConflict
	}
	order.Version++
	s.orders[order.ID] = copyOrder(order)
	return nil
}

func (s *MemoryStore) DeleteOrder(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orders[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.orders, id)
	return nil
}
