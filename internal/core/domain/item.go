package domain

import "time"

// ItemStatus is the availability state of a catalog item. Only items in
// ItemStatusCreated can be purchased.
type ItemStatus string

const (
	ItemStatusCreated ItemStatus = "created"
	ItemStatusSoldOut ItemStatus = "sold_out"
)

func (s ItemStatus) Valid() bool {
	return s == ItemStatusCreated || s == ItemStatusSoldOut
}

// Item is a catalog entry. Price is in the smallest currency unit. Items are
// never deleted; ids are assigned sequentially at creation and stay reserved.
type Item struct {
	ID          int64
	Name        string
	ImageRef    string
	Description string
	Price       int64
	Quantity    int64
	Status      ItemStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
