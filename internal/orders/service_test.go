package orders

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cartshare-backend/internal/domain"
	"cartshare-backend/internal/store"
)

func newTestService() (*Service, *store.MemoryStore) {
	st := store.NewMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(st, logger), st
}

func createUser(t *testing.T, st *store.MemoryStore, username string) string {
	t.Helper()
	id, err := st.CreateUser(context.Background(), &domain.User{
		Username:       username,
		HashedPassword: "x",
		Salt:           "s",
		Iterations:     10,
		Orders:         []string{},
	})
	require.NoError(t, err)
	return id
}

func TestCreate_LinksOwnerBothWays(t *testing.T) {
	svc, st := newTestService()
	ctx := context.Background()
	alice := createUser(t, st, "alice")

	orderID, err := svc.Create(ctx, alice, "Groceries")
	require.NoError(t, err)

	order, err := st.GetOrder(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, "Groceries", order.Title)
	assert.Equal(t, []string{alice}, order.UserIDs)
	assert.Empty(t, order.Items)
	assert.Zero(t, order.TotalPrice)
	assert.False(t, order.Complete)
	assert.False(t, order.CreatedDate.IsZero())

	fetched, err := svc.FetchOrders(ctx, alice)
	require.NoError(t, err)
	require.Len(t, fetched, 1)
	assert.Equal(t, orderID, fetched[0].ID)
}

func TestCreate_DefaultTitle(t *testing.T) {
	svc, st := newTestService()
	ctx := context.Background()
	alice := createUser(t, st, "alice")

	orderID, err := svc.Create(ctx, alice, "")
	require.NoError(t, err)

	order, err := st.GetOrder(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, DefaultTitle, order.Title)
}

func TestCreate_UnknownOwner(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Create(context.Background(), "no-such-user", "t")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDelete_RemovesFromEveryMember(t *testing.T) {
	svc, st := newTestService()
	ctx := context.Background()
	alice := createUser(t, st, "alice")
	createUser(t, st, "bob")

	orderID, err := svc.Create(ctx, alice, "Shared")
	require.NoError(t, err)
	require.NoError(t, svc.AddCollaborator(ctx, alice, orderID, "bob"))

	require.NoError(t, svc.Delete(ctx, alice, orderID))

	_, err = st.GetOrder(ctx, orderID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	for _, username := range []string{"alice", "bob"} {
		user, err := st.GetUserByUsername(ctx, username)
		require.NoError(t, err)
		assert.NotContains(t, user.Orders, orderID, "user %s still references the deleted order", username)
	}
}

func TestDelete_AnyMemberMayDelete(t *testing.T) {
	svc, st := newTestService()
	ctx := context.Background()
	alice := createUser(t, st, "alice")
	bob := createUser(t, st, "bob")

	orderID, err := svc.Create(ctx, alice, "Shared")
	require.NoError(t, err)
	require.NoError(t, svc.AddCollaborator(ctx, alice, orderID, "bob"))

	// bob is a collaborator, not the creator, and may still delete
	assert.NoError(t, svc.Delete(ctx, bob, orderID))
}

func TestDelete_Failures(t *testing.T) {
	svc, st := newTestService()
	ctx := context.Background()
	alice := createUser(t, st, "alice")
	mallory := createUser(t, st, "mallory")

	orderID, err := svc.Create(ctx, alice, "Private")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, alice, "no-such-order"), domain.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, mallory, orderID), domain.ErrForbidden)

	// the rejected delete changed nothing
	_, err = st.GetOrder(ctx, orderID)
	assert.NoError(t, err)
}

func TestAddCollaborator_MaintainsBothSides(t *testing.T) {
	svc, st := newTestService()
	ctx := context.Background()
	alice := createUser(t, st, "alice")
	bob := createUser(t, st, "bob")

	orderID, err := svc.Create(ctx, alice, "Shared")
	require.NoError(t, err)
	require.NoError(t, svc.AddCollaborator(ctx, alice, orderID, "bob"))

	order, err := st.GetOrder(ctx, orderID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{alice, bob}, order.UserIDs)

	bobOrders, err := svc.FetchOrders(ctx, bob)
	require.NoError(t, err)
	require.Len(t, bobOrders, 1)
	assert.Equal(t, orderID, bobOrders[0].ID)
}

func TestAddCollaborator_DuplicateIsConflict(t *testing.T) {
	svc, st := newTestService()
	ctx := context.Background()
	alice := createUser(t, st, "alice")
	createUser(t, st, "bob")

	orderID, err := svc.Create(ctx, alice, "Shared")
	require.NoError(t, err)
	require.NoError(t, svc.AddCollaborator(ctx, alice, orderID, "bob"))

	before, err := st.GetOrder(ctx, orderID)
	require.NoError(t, err)

	err = svc.AddCollaborator(ctx, alice, orderID, "bob")
	assert.ErrorIs(t, err, domain.ErrConflict)

	after, err := st.GetOrder(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, before.UserIDs, after.UserIDs, "rejected call must not change the member set")
}

func TestAddCollaborator_Failures(t *testing.T) {
	svc, st := newTestService()
	ctx := context.Background()
	alice := createUser(t, st, "alice")
	mallory := createUser(t, st, "mallory")

	orderID, err := svc.Create(ctx, alice, "Private")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.AddCollaborator(ctx, alice, "no-such-order", "mallory"), domain.ErrNotFound)
	assert.ErrorIs(t, svc.AddCollaborator(ctx, alice, orderID, "nobody"), domain.ErrNotFound)
	assert.ErrorIs(t, svc.AddCollaborator(ctx, mallory, orderID, "mallory"), domain.ErrForbidden)
}

func TestRemoveCollaborator_MaintainsBothSides(t *testing.T) {
	svc, st := newTestService()
	ctx := context.Background()
	alice := createUser(t, st, "alice")
	bob := createUser(t, st, "bob")

	orderID, err := svc.Create(ctx, alice, "Shared")
	require.NoError(t, err)
	require.NoError(t, svc.AddCollaborator(ctx, alice, orderID, "bob"))
	require.NoError(t, svc.RemoveCollaborator(ctx, alice, orderID, "bob"))

	order, err := st.GetOrder(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, []string{alice}, order.UserIDs)

	bobOrders, err := svc.FetchOrders(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, bobOrders)
}

func TestRemoveCollaborator_AbsentIsConflict(t *testing.T) {
	svc, st := newTestService()
	ctx := context.Background()
	alice := createUser(t, st, "alice")
	createUser(t, st, "bob")

	orderID, err := svc.Create(ctx, alice, "Solo")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.RemoveCollaborator(ctx, alice, orderID, "bob"), domain.ErrConflict)
}

func TestRemoveCollaborator_LastMemberDeletesOrder(t *testing.T) {
	svc, st := newTestService()
	ctx := context.Background()
	alice := createUser(t, st, "alice")

	orderID, err := svc.Create(ctx, alice, "Solo")
	require.NoError(t, err)

	require.NoError(t, svc.RemoveCollaborator(ctx, alice, orderID, "alice"))

	_, err = st.GetOrder(ctx, orderID)
	assert.ErrorIs(t, err, domain.ErrNotFound, "memberless order must not linger")

	user, err := st.GetUser(ctx, alice)
	require.NoError(t, err)
	assert.NotContains(t, user.Orders, orderID)
}

func TestAddItem_IncrementsTotal(t *testing.T) {
	svc, st := newTestService()
	ctx := context.Background()
	alice := createUser(t, st, "alice")

	orderID, err := svc.Create(ctx, alice, "Groceries")
	require.NoError(t, err)

	itemID, err := svc.AddItem(ctx, alice, orderID, domain.Item{
		URL: "http://x", Name: "Milk", Quantity: 2, UnitPrice: 3.5,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, itemID)

	order, err := st.GetOrder(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, 7.0, order.TotalPrice)
	require.Len(t, order.Items, 1)
	assert.Equal(t, itemID, order.Items[0].ID)
}

func TestAddItem_NonPositiveQuantity(t *testing.T) {
	svc, st := newTestService()
	ctx := context.Background()
	alice := createUser(t, st, "alice")

	orderID, err := svc.Create(ctx, alice, "Groceries")
	require.NoError(t, err)

	for _, quantity := range []int{0, -1} {
		_, err = svc.AddItem(ctx, alice, orderID, domain.Item{URL: "u", Name: "n", Quantity: quantity, UnitPrice: 1})
		assert.ErrorIs(t, err, domain.ErrValidation, "quantity %d", quantity)
	}

	// the rejected calls changed nothing
	order, err := st.GetOrder(ctx, orderID)
	require.NoError(t, err)
	assert.Empty(t, order.Items)
	assert.Zero(t, order.TotalPrice)
}

func TestAddItem_NonMember(t *testing.T) {
	svc, st := newTestService()
	ctx := context.Background()
	alice := createUser(t, st, "alice")
	mallory := createUser(t, st, "mallory")

	orderID, err := svc.Create(ctx, alice, "Private")
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, mallory, orderID, domain.Item{URL: "u", Name: "n", Quantity: 1, UnitPrice: 1})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestAddThenRemoveItem_RestoresTotalExactly(t *testing.T) {
	svc, st := newTestService()
	ctx := context.Background()
	alice := createUser(t, st, "alice")

	orderID, err := svc.Create(ctx, alice, "Groceries")
	require.NoError(t, err)

	// awkward binary fractions on purpose
	_, err = svc.AddItem(ctx, alice, orderID, domain.Item{URL: "a", Name: "Tea", Quantity: 3, UnitPrice: 1.1})
	require.NoError(t, err)
	before, err := st.GetOrder(ctx, orderID)
	require.NoError(t, err)

	itemID, err := svc.AddItem(ctx, alice, orderID, domain.Item{URL: "b", Name: "Jam", Quantity: 7, UnitPrice: 0.3})
	require.NoError(t, err)
	require.NoError(t, svc.RemoveItem(ctx, alice, orderID, itemID))

	after, err := st.GetOrder(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, before.TotalPrice, after.TotalPrice, "add then remove must net to the exact pre-add total")
	assert.Len(t, after.Items, 1)
}

func TestRemoveItem_UnknownItem(t *testing.T) {
	svc, st := newTestService()
	ctx := context.Background()
	alice := createUser(t, st, "alice")

	orderID, err := svc.Create(ctx, alice, "Groceries")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.RemoveItem(ctx, alice, orderID, "no-such-item"), domain.ErrNotFound)
}

func TestFetchOrders_UnknownUser(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.FetchOrders(context.Background(), "no-such-user")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConcurrentAddItems_NoLostUpdates(t *testing.T) {
	svc, st := newTestService()
	ctx := context.Background()
	alice := createUser(t, st, "alice")

	orderID, err := svc.Create(ctx, alice, "Busy")
	require.NoError(t, err)

	const workers = 25
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AddItem(ctx, alice, orderID, domain.Item{
				URL: "u", Name: "n", Quantity: 1, UnitPrice: 1,
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	order, err := st.GetOrder(ctx, orderID)
	require.NoError(t, err)
	assert.Len(t, order.Items, workers)
	assert.Equal(t, float64(workers), order.TotalPrice, "every concurrent increment must be kept")
}

func TestConcurrentCollaboratorChurn_InvariantHolds(t *testing.T) {
	svc, st := newTestService()
	ctx := context.Background()
	alice := createUser(t, st, "alice")
	createUser(t, st, "bob")

	orderID, err := svc.Create(ctx, alice, "Churn")
	require.NoError(t, err)

	// add/remove bob repeatedly from two goroutines; whatever the final
	// state, both sides of the relation must agree
	var wg sync.WaitGroup
	for w := 0; w < 2; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				_ = svc.AddCollaborator(ctx, alice, orderID, "bob")
				_ = svc.RemoveCollaborator(ctx, alice, orderID, "bob")
			}
		}()
	}
	wg.Wait()

	order, err := st.GetOrder(ctx, orderID)
	require.NoError(t, err)
	bob, err := st.GetUserByUsername(ctx, "bob")
	require.NoError(t, err)

	inOrder := order.HasMember(bob.ID)
	inUser := false
	for _, id := range bob.Orders {
		if id == orderID {
			inUser = true
		}
	}
	assert.Equal(t, inOrder, inUser, "membership must agree on both sides")
}
