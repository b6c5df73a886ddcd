// Package store provides keyed persistence for users and orders. The
// two record types are independent; the cross-references between them
// (Order.UserIDs and User.Orders) are maintained entirely by the
// caller, the store enforces no foreign keys.
//
// Updates are compare-and-swap: a write only lands if the record's
// version counter still matches, and bumps it by one. Callers retry on
// ErrVersionConflict.
package store

import (
	"context"

	"cartshare-backend/internal/domain"
)

type Store interface {
	// CreateUser assigns an id and persists the user. Returns
	// domain.ErrConflict if the username is already taken.
	CreateUser(ctx context.Context, user *domain.User) (string, error)

	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)

	// UpdateUser writes the user back if its version still matches the
	// stored one, then increments both. domain.ErrVersionConflict on a
	// lost race, domain.ErrNotFound if the record is gone.
	UpdateUser(ctx context.Context, user *domain.User) error

	// CreateOrder assigns an id and persists the order.
	CreateOrder(ctx context.Context, order *domain.Order) (string, error)

	GetOrder(ctx context.Context, id string) (*domain.Order, error)

	// UpdateOrder is the order-side counterpart of UpdateUser.
	UpdateOrder(ctx context.Context, order *domain.Order) error

	DeleteOrder(ctx context.Context, id string) error
}
