package domain

import "time"

// User is a registered account. Orders holds the ids of every order the
// user owns or collaborates on; the source schema makes no distinction
// between the two and neither do we.
type User struct {
	ID             string   `bson:"_id,omitempty" json:"id"`
	Username       string   `bson:"username" json:"username"`
	HashedPassword string   `bson:"hashedPassword" json:"-"`
	Salt           string   `bson:"salt" json:"-"`
	Iterations     int      `bson:"iterations" json:"-"`
	Orders         []string `bson:"orders" json:"orders"`
	Version        int64    `bson:"version" json:"-"`
}

// Order is the shared shopping order. UserIDs must stay in sync with
// each member's Orders list (see the membership invariant on the orders
// service). TotalPrice is maintained incrementally on every item
// mutation and must always equal the sum of quantity*unitPrice over
// Items.
type Order struct {
	ID          string    `bson:"_id,omitempty" json:"id"`
	UserIDs     []string  `bson:"userIds" json:"userIds"`
	Title       string    `bson:"title" json:"title"`
	Items       []Item    `bson:"items" json:"items"`
	TotalPrice  float64   `bson:"totalPrice" json:"totalPrice"`
	Complete    bool      `bson:"complete" json:"complete"` // reserved, no operation sets it
	CreatedDate time.Time `bson:"createdDate" json:"createdDate"`
	Version     int64     `bson:"version" json:"-"`
}

// Item is a line entry owned by exactly one order. ID is store-assigned
// and only used to address the item for removal.
type Item struct {
	ID        string  `bson:"_id" json:"id"`
	URL       string  `bson:"url" json:"url"`
	Name      string  `bson:"name" json:"name"`
	Quantity  int     `bson:"quantity" json:"quantity"`
	UnitPrice float64 `bson:"unitPrice" json:"unitPrice"`
}

// Price is the item's contribution to the order total.
func (i Item) Price() float64 {
	return float64(i.Quantity) * i.UnitPrice
}

// HasMember reports whether userID is in the order's member set.
func (o *Order) HasMember(userID string) bool {
	for _, id := range o.UserIDs {
		if id == userID {
			return true
		}
	}
	return false
}
