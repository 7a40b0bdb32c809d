package port

import (
	"context"
	"errors"

	"github.com/Emmyhack/Supply-Chain-final-project/internal/core/domain"
)

var (
	// ErrNotFound is returned by store writes that target a missing row.
	ErrNotFound = errors.New("record not found")

	// ErrInsufficientStock is returned by ApplyPurchase when the conditional
	// stock decrement matches no row. The service validates stock before
	// committing, so this only fires if the store is mutated out of band.
	ErrInsufficientStock = errors.New("insufficient stock")
)

// LedgerStore persists the catalog, the purchase ledger and the custody
// balance. Implementations must make ApplyPurchase atomic: either every
// mutation in the commit lands or none do.
type LedgerStore interface {
	// CreateItem inserts a new item and returns its assigned sequential id.
	CreateItem(ctx context.Context, item domain.Item) (int64, error)

	// GetItem returns the item or nil if no item has that id.
	GetItem(ctx context.Context, id int64) (*domain.Item, error)

	// ListItems returns every item ordered by id.
	ListItems(ctx context.Context) ([]*domain.Item, error)

	// SetItemQuantity replaces the stock count and resets the item status
	// back to created, whatever it was before.
	SetItemQuantity(ctx context.Context, id, quantity int64) error

	// SetItemStatus replaces the availability status.
	SetItemStatus(ctx context.Context, id int64, status domain.ItemStatus) error

	// ApplyPurchase applies a successful purchase as one transaction:
	// decrement stock (marking sold_out at zero), overwrite the (buyer, item)
	// purchase record, append the buyer to the item's buyer list and credit
	// the custody balance with the total.
	ApplyPurchase(ctx context.Context, c domain.PurchaseCommit) error

	// GetPurchase returns the latest purchase record for the pair, or nil if
	// the buyer never purchased the item.
	GetPurchase(ctx context.Context, buyer string, itemID int64) (*domain.Purchase, error)

	// SetPurchaseStatus replaces the fulfillment status of an existing record.
	SetPurchaseStatus(ctx context.Context, buyer string, itemID int64, status domain.OrderStatus) error

	// ListBuyers returns the item's buyer list in purchase order, one entry
	// per successful purchase, duplicates included.
	ListBuyers(ctx context.Context, itemID int64) ([]string, error)

	// Balance returns the current custody balance.
	Balance(ctx context.Context) (int64, error)

	// DebitBalance subtracts amount from the custody balance.
	DebitBalance(ctx context.Context, amount int64) error
}
