// Package orders implements the collaborative-order engine: order
// lifecycle, shared membership, and the incrementally maintained price
// total.
//
// Two invariants govern every mutation here:
//
//   - bidirectional membership: a user id appears in Order.UserIDs
//     exactly when the order id appears in that user's Orders list.
//     Operations that touch membership write both sides.
//   - price consistency: Order.TotalPrice always equals the sum of
//     quantity*unitPrice over the order's items. The total is adjusted
//     incrementally on each item mutation, never recomputed.
//
// The store gives no transactions, so each multi-record operation is
// serialized through per-aggregate locks (single writer per id inside
// this process) and written with versioned compare-and-swap updates
// (catching writers in other processes). A crash between the two
// writes of a membership change can still leave the invariant broken;
// the write ordering below keeps such damage limited to a dangling
// forward reference rather than an orphaned record.
package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"cartshare-backend/internal/domain"
	"cartshare-backend/internal/store"
)

// DefaultTitle is used when an order is created without one.
const DefaultTitle = "Untitled Order"

// casRetries bounds retry loops on version conflicts. Conflicts only
// arise from writers outside this process, so a couple of attempts is
// plenty.
const casRetries = 3

type Service struct {
	store  store.Store
	logger *slog.Logger
	locks  *keyedMutex
}

func NewService(st store.Store, logger *slog.Logger) *Service {
	return &Service{store: st, logger: logger, locks: newKeyedMutex()}
}

// Create makes a new order owned by ownerID and links it into the
// owner's order list. The two writes are not atomic: if the user-side
// write fails the fresh order record is deleted again as compensation.
func (s *Service) Create(ctx context.Context, ownerID, title string) (string, error) {
	if title == "" {
		title = DefaultTitle
	}

	unlock := s.locks.lockAll(ownerID)
	defer unlock()

	if _, err := s.store.GetUser(ctx, ownerID); err != nil {
		return "", err
	}

	order := &domain.Order{
		UserIDs:     []string{ownerID},
		Title:       title,
		Items:       []domain.Item{},
		TotalPrice:  0,
		CreatedDate: time.Now(),
	}
	orderID, err := s.store.CreateOrder(ctx, order)
	if err != nil {
		return "", fmt.Errorf("%w: creating order: %v", domain.ErrInternal, err)
	}

	if err := s.mutateUserOrders(ctx, ownerID, func(u *domain.User) {
		u.Orders = append(u.Orders, orderID)
	}); err != nil {
		s.logger.Error("create: linking order to owner failed, compensating",
			"orderId", orderID, "ownerId", ownerID, "err", err)
		if delErr := s.store.DeleteOrder(ctx, orderID); delErr != nil {
			s.logger.Error("create: compensation failed, order record dangling",
				"orderId", orderID, "err", delErr)
		}
		return "", fmt.Errorf("%w: linking order to owner: %v", domain.ErrInternal, err)
	}
	return orderID, nil
}

// Delete removes the order and unlinks it from every member. Any
// current member may delete, not only the creator. Member lists are
// cleaned up before the record goes away so an interruption cannot
// leave a user pointing at a live order it is no longer a member of.
func (s *Service) Delete(ctx context.Context, requesterID, orderID string) error {
	for attempt := 0; attempt < casRetries; attempt++ {
		order, err := s.store.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if !order.HasMember(requesterID) {
			return domain.ErrForbidden
		}

		unlock := s.locks.lockAll(append([]string{orderID}, order.UserIDs...)...)

		current, err := s.store.GetOrder(ctx, orderID)
		if err != nil {
			unlock()
			return err
		}
		if !current.HasMember(requesterID) {
			unlock()
			return domain.ErrForbidden
		}
		// membership may have changed before we took the locks; if so,
		// start over so every member's lock is held
		if !sameMembers(order.UserIDs, current.UserIDs) {
			unlock()
			continue
		}

		for _, userID := range current.UserIDs {
			if err := s.mutateUserOrders(ctx, userID, func(u *domain.User) {
				u.Orders = removeString(u.Orders, orderID)
			}); err != nil && !errors.Is(err, domain.ErrNotFound) {
				unlock()
				return fmt.Errorf("%w: unlinking order from user %s: %v", domain.ErrInternal, userID, err)
			}
		}
		err = s.store.DeleteOrder(ctx, orderID)
		unlock()
		return err
	}
	return fmt.Errorf("%w: delete retries exhausted", domain.ErrInternal)
}

// AddCollaborator grants another user membership in the order. Both
// sides of the relation are written, order side first.
func (s *Service) AddCollaborator(ctx context.Context, requesterID, orderID, collaboratorUsername string) error {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if !order.HasMember(requesterID) {
		return domain.ErrForbidden
	}
	collaborator, err := s.store.GetUserByUsername(ctx, collaboratorUsername)
	if err != nil {
		return err
	}

	unlock := s.locks.lockAll(orderID, collaborator.ID)
	defer unlock()

	for attempt := 0; attempt < casRetries; attempt++ {
		order, err = s.store.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if !order.HasMember(requesterID) {
			return domain.ErrForbidden
		}
		if order.HasMember(collaborator.ID) {
			return domain.ErrConflict
		}

		order.UserIDs = append(order.UserIDs, collaborator.ID)
		if err := s.store.UpdateOrder(ctx, order); err != nil {
			if errors.Is(err, domain.ErrVersionConflict) {
				continue
			}
			return err
		}

		if err := s.mutateUserOrders(ctx, collaborator.ID, func(u *domain.User) {
			u.Orders = append(u.Orders, orderID)
		}); err != nil {
			s.logger.Error("addCollaborator: user-side write failed, rolling back order side",
				"orderId", orderID, "collaboratorId", collaborator.ID, "err", err)
			if rbErr := s.mutateOrderMembers(ctx, orderID, collaborator.ID, false); rbErr != nil {
				s.logger.Error("addCollaborator: rollback failed, membership invariant broken",
					"orderId", orderID, "collaboratorId", collaborator.ID, "err", rbErr)
			}
			return fmt.Errorf("%w: linking order to collaborator: %v", domain.ErrInternal, err)
		}
		return nil
	}
	return fmt.Errorf("%w: addCollaborator retries exhausted", domain.ErrInternal)
}

// RemoveCollaborator revokes a user's membership. Removing the final
// member deletes the order outright: an order with no members would be
// unreachable by anyone, so it is not allowed to linger.
func (s *Service) RemoveCollaborator(ctx context.Context, requesterID, orderID, collaboratorUsername string) error {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if !order.HasMember(requesterID) {
		return domain.ErrForbidden
	}
	collaborator, err := s.store.GetUserByUsername(ctx, collaboratorUsername)
	if err != nil {
		return err
	}

	unlock := s.locks.lockAll(orderID, collaborator.ID)
	defer unlock()

	for attempt := 0; attempt < casRetries; attempt++ {
		order, err = s.store.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if !order.HasMember(requesterID) {
			return domain.ErrForbidden
		}
		if !order.HasMember(collaborator.ID) {
			return domain.ErrConflict
		}

		order.UserIDs = removeString(order.UserIDs, collaborator.ID)
		if len(order.UserIDs) == 0 {
			if err := s.store.DeleteOrder(ctx, orderID); err != nil {
				return err
			}
		} else {
			if err := s.store.UpdateOrder(ctx, order); err != nil {
				if errors.Is(err, domain.ErrVersionConflict) {
					continue
				}
				return err
			}
		}

		if err := s.mutateUserOrders(ctx, collaborator.ID, func(u *domain.User) {
			u.Orders = removeString(u.Orders, orderID)
		}); err != nil {
			s.logger.Error("removeCollaborator: user-side cleanup failed, dangling order reference",
				"orderId", orderID, "collaboratorId", collaborator.ID, "err", err)
			return fmt.Errorf("%w: unlinking order from collaborator: %v", domain.ErrInternal, err)
		}
		return nil
	}
	return fmt.Errorf("%w: removeCollaborator retries exhausted", domain.ErrInternal)
}

// AddItem appends a line item and bumps the total by its contribution.
// Returns the store-assigned item id.
func (s *Service) AddItem(ctx context.Context, requesterID, orderID string, item domain.Item) (string, error) {
	if item.Quantity < 1 {
		return "", domain.ErrValidation
	}
	item.ID = uuid.NewString()

	unlock := s.locks.lockAll(orderID)
	defer unlock()

	for attempt := 0; attempt < casRetries; attempt++ {
		order, err := s.store.GetOrder(ctx, orderID)
		if err != nil {
			return "", err
		}
		if !order.HasMember(requesterID) {
			return "", domain.ErrForbidden
		}

		order.Items = append(order.Items, item)
		order.TotalPrice += item.Price()
		if err := s.store.UpdateOrder(ctx, order); err != nil {
			if errors.Is(err, domain.ErrVersionConflict) {
				continue
			}
			return "", err
		}
		return item.ID, nil
	}
	return "", fmt.Errorf("%w: addItem retries exhausted", domain.ErrInternal)
}

// RemoveItem deletes a line item, subtracting the exact contribution
// that was added for it so an add/remove pair nets to zero.
func (s *Service) RemoveItem(ctx context.Context, requesterID, orderID, itemID string) error {
	unlock := s.locks.lockAll(orderID)
	defer unlock()

	for attempt := 0; attempt < casRetries; attempt++ {
		order, err := s.store.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if !order.HasMember(requesterID) {
			return domain.ErrForbidden
		}

		idx := -1
		for i, it := range order.Items {
			if it.ID == itemID {
				idx = i
				break
			}
		}
		if idx == -1 {
			return domain.ErrNotFound
		}

		order.TotalPrice -= order.Items[idx].Price()
		order.Items = append(order.Items[:idx], order.Items[idx+1:]...)
		if err := s.store.UpdateOrder(ctx, order); err != nil {
			if errors.Is(err, domain.ErrVersionConflict) {
				continue
			}
			return err
		}
		return nil
	}
	return fmt.Errorf("%w: removeItem retries exhausted", domain.ErrInternal)
}

// FetchOrders resolves the user's order list into full records. The
// list is flat: owned and collaborated orders are not distinguished.
// A reference to a missing order is skipped and logged, not surfaced,
// so one broken link cannot make the whole list unreadable.
func (s *Service) FetchOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := make([]domain.Order, 0, len(user.Orders))
	for _, orderID := range user.Orders {
		order, err := s.store.GetOrder(ctx, orderID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				s.logger.Warn("fetchOrders: dangling order reference",
					"userId", userID, "orderId", orderID)
				continue
			}
			return nil, err
		}
		result = append(result, *order)
	}
	return result, nil
}

// mutateUserOrders applies fn to the user's record under CAS, retrying
// on version conflicts.
func (s *Service) mutateUserOrders(ctx context.Context, userID string, fn func(*domain.User)) error {
	for attempt := 0; attempt < casRetries; attempt++ {
		user, err := s.store.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		fn(user)
		err = s.store.UpdateUser(ctx, user)
		if errors.Is(err, domain.ErrVersionConflict) {
			continue
		}
		return err
	}
	return domain.ErrVersionConflict
}

// mutateOrderMembers adds or removes a member id under CAS. Only used
// for compensating writes; the happy paths mutate inline.
func (s *Service) mutateOrderMembers(ctx context.Context, orderID, userID string, add bool) error {
	for attempt := 0; attempt < casRetries; attempt++ {
		order, err := s.store.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if add {
			if order.HasMember(userID) {
				return nil
			}
			order.UserIDs = append(order.UserIDs, userID)
		} else {
			if !order.HasMember(userID) {
				return nil
			}
			order.UserIDs = removeString(order.UserIDs, userID)
		}
		err = s.store.UpdateOrder(ctx, order)
		if errors.Is(err, domain.ErrVersionConflict) {
			continue
		}
		return err
	}
	return domain.ErrVersionConflict
}

func removeString(list []string, target string) []string {
	out := list[:0]
	for _, s := range list {
		if s != target {
			out = append(out, s)
		}
	}
	return out
}

func sameMembers(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, id := range a {
		set[id] = struct{}{}
	}
	for _, id := range b {
		if _, ok := set[id]; !ok {
			return false
		}
	}
	return true
}
