package domain

import "time"

// OrderStatus is the fulfillment state of a recorded purchase.
type OrderStatus string

const (
	OrderStatusOrdered   OrderStatus = "ordered"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
)

func (s OrderStatus) Valid() bool {
	return s == OrderStatusOrdered || s == OrderStatusShipped || s == OrderStatusDelivered
}

// Purchase is the latest recorded purchase for a (buyer, item) pair. A new
// purchase by the same buyer for the same item overwrites the previous record;
// history lives only in the event feed.
type Purchase struct {
	Buyer     string
	ItemID    int64
	Quantity  int64
	Status    OrderStatus
	UpdatedAt time.Time
}

// PurchaseCommit is the set of mutations a successful purchase applies as one
// atomic unit: stock decrement, record overwrite, buyer-list append and
// custody credit.
type PurchaseCommit struct {
	ItemID   int64
	Buyer    string
	Quantity int64
	Total    int64
}
