package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Emmyhack/Supply-Chain-final-project/internal/core/domain"
	"github.com/Emmyhack/Supply-Chain-final-project/internal/port"
)

var (
	ErrNotOperator         = errors.New("caller is not the operator")
	ErrItemNotFound        = errors.New("item not found")
	ErrPurchaseNotFound    = errors.New("purchase not found")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrItemUnavailable     = errors.New("item is not open for sale")
	ErrInsufficientPayment = errors.New("payment does not cover total price")
	ErrNoBalance           = errors.New("no balance to withdraw")
	ErrTransferFailed      = errors.New("outbound transfer failed")
)

// LedgerService owns the whole inventory-and-sale state machine: catalog,
// purchase ledger and fund custody, gated by a single operator identity.
//
// Every mutating operation runs under one write lock, reproducing the single
// global serialization the state machine assumes: no two mutations ever
// interleave, and reads always observe a fully committed state.
type LedgerService struct {
	mu       sync.RWMutex
	operator string

	store    port.LedgerStore
	payments port.PaymentGateway
	feed     port.EventFeed
	logger   *slog.Logger
}

func NewLedgerService(store port.LedgerStore, payments port.PaymentGateway, feed port.EventFeed, operator string, logger *slog.Logger) *LedgerService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LedgerService{
		operator: operator,
		store:    store,
		payments: payments,
		feed:     feed,
		logger:   logger,
	}
}

// AddItem creates a catalog entry and returns its assigned id.
func (s *LedgerService) AddItem(ctx context.Context, caller, name, imageRef string, quantity, price int64, description string) (int64, error) {
	if name == "" {
		return 0, fmt.Errorf("%w: name must not be empty", ErrInvalidArgument)
	}
	if price <= 0 {
		return 0, fmt.Errorf("%w: price must be positive", ErrInvalidArgument)
	}
	if quantity <= 0 {
		return 0, fmt.Errorf("%w: quantity must be positive", ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireOperator(caller); err != nil {
		return 0, err
	}

	id, err := s.store.CreateItem(ctx, domain.Item{
		Name:        name,
		ImageRef:    imageRef,
		Description: description,
		Price:       price,
		Quantity:    quantity,
		Status:      domain.ItemStatusCreated,
	})
	if err != nil {
		return 0, fmt.Errorf("create item: %w", err)
	}

	ev := domain.NewEvent(domain.EventItemAdded)
	ev.ItemID = id
	ev.Quantity = quantity
	ev.Amount = price
	s.publish(ctx, ev)

	return id, nil
}

// UpdateQuantity replaces an item's stock count and unconditionally resets its
// availability back to created, whatever it was before.
func (s *LedgerService) UpdateQuantity(ctx context.Context, caller string, itemID, quantity int64) error {
	if quantity < 0 {
		return fmt.Errorf("%w: quantity must not be negative", ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireOperator(caller); err != nil {
		return err
	}
	if _, err := s.getItem(ctx, itemID); err != nil {
		return err
	}

	if err := s.store.SetItemQuantity(ctx, itemID, quantity); err != nil {
		if errors.Is(err, port.ErrNotFound) {
			return ErrItemNotFound
		}
		return fmt.Errorf("update quantity: %w", err)
	}

	ev := domain.NewEvent(domain.EventItemUpdated)
	ev.ItemID = itemID
	ev.Quantity = quantity
	ev.Status = string(domain.ItemStatusCreated)
	s.publish(ctx, ev)

	return nil
}

// SetAvailability replaces an item's availability status. Any valid status may
// follow any other; there is no transition table.
func (s *LedgerService) SetAvailability(ctx context.Context, caller string, itemID int64, status domain.ItemStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: unknown item status %q", ErrInvalidArgument, status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireOperator(caller); err != nil {
		return err
	}
	if _, err := s.getItem(ctx, itemID); err != nil {
		return err
	}

	if err := s.store.SetItemStatus(ctx, itemID, status); err != nil {
		if errors.Is(err, port.ErrNotFound) {
			return ErrItemNotFound
		}
		return fmt.Errorf("set availability: %w", err)
	}

	ev := domain.NewEvent(domain.EventItemUpdated)
	ev.ItemID = itemID
	ev.Status = string(status)
	s.publish(ctx, ev)

	return nil
}

// Purchase buys quantity units of an item for the calling buyer. The payment
// must cover price*quantity; any excess is returned to the buyer through the
// payment gateway before the ledger is touched, so a failed refund leaves no
// state change at all. Returns the total charged.
func (s *LedgerService) Purchase(ctx context.Context, buyer string, itemID, quantity, payment int64) (int64, error) {
	if buyer == "" {
		return 0, fmt.Errorf("%w: buyer identity must not be empty", ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := s.getItem(ctx, itemID)
	if err != nil {
		return 0, err
	}
	if item.Status != domain.ItemStatusCreated {
		return 0, fmt.Errorf("%w: status is %s", ErrItemUnavailable, item.Status)
	}
	if quantity <= 0 || quantity > item.Quantity {
		return 0, fmt.Errorf("%w: quantity %d out of range (stock %d)", ErrInvalidArgument, quantity, item.Quantity)
	}

	total, ok := mulInt64(item.Price, quantity)
	if !ok {
		return 0, fmt.Errorf("%w: total price overflows", ErrInvalidArgument)
	}
	if payment < total {
		return 0, fmt.Errorf("%w: need %d, got %d", ErrInsufficientPayment, total, payment)
	}

	// Return the excess first. Nothing has been committed yet, so a failed
	// refund aborts the whole purchase with zero state change.
	if excess := payment - total; excess > 0 {
		if err := s.payments.Transfer(ctx, buyer, excess); err != nil {
			return 0, fmt.Errorf("%w: refund %d to %s: %v", ErrTransferFailed, excess, buyer, err)
		}
	}

	err = s.store.ApplyPurchase(ctx, domain.PurchaseCommit{
		ItemID:   itemID,
		Buyer:    buyer,
		Quantity: quantity,
		Total:    total,
	})
	if err != nil {
		if errors.Is(err, port.ErrInsufficientStock) {
			return 0, fmt.Errorf("%w: stock changed underneath purchase", ErrInvalidArgument)
		}
		return 0, fmt.Errorf("apply purchase: %w", err)
	}

	ev := domain.NewEvent(domain.EventPurchasePlaced)
	ev.ItemID = itemID
	ev.Buyer = buyer
	ev.Quantity = quantity
	ev.Amount = total
	s.publish(ctx, ev)

	return total, nil
}

// UpdatePurchaseStatus replaces the fulfillment status of a buyer's latest
// purchase of an item. Like SetAvailability, no transition table is enforced.
func (s *LedgerService) UpdatePurchaseStatus(ctx context.Context, caller string, itemID int64, buyer string, status domain.OrderStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: unknown order status %q", ErrInvalidArgument, status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireOperator(caller); err != nil {
		return err
	}

	rec, err := s.store.GetPurchase(ctx, buyer, itemID)
	if err != nil {
		return fmt.Errorf("get purchase: %w", err)
	}
	if rec == nil || rec.Quantity == 0 {
		return ErrPurchaseNotFound
	}

	if err := s.store.SetPurchaseStatus(ctx, buyer, itemID, status); err != nil {
		if errors.Is(err, port.ErrNotFound) {
			return ErrPurchaseNotFound
		}
		return fmt.Errorf("set purchase status: %w", err)
	}

	ev := domain.NewEvent(domain.EventPurchaseStatusUpdated)
	ev.ItemID = itemID
	ev.Buyer = buyer
	ev.Status = string(status)
	s.publish(ctx, ev)

	return nil
}

// Withdraw moves the entire custody balance to the operator. The transfer runs
// before the balance is debited, so a failed transfer leaves the balance
// untouched. Returns the amount withdrawn.
func (s *LedgerService) Withdraw(ctx context.Context, caller string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireOperator(caller); err != nil {
		return 0, err
	}

	balance, err := s.store.Balance(ctx)
	if err != nil {
		return 0, fmt.Errorf("read balance: %w", err)
	}
	if balance <= 0 {
		return 0, ErrNoBalance
	}

	if err := s.payments.Transfer(ctx, s.operator, balance); err != nil {
		return 0, fmt.Errorf("%w: withdraw %d to %s: %v", ErrTransferFailed, balance, s.operator, err)
	}
	if err := s.store.DebitBalance(ctx, balance); err != nil {
		return 0, fmt.Errorf("debit balance: %w", err)
	}

	ev := domain.NewEvent(domain.EventFundsWithdrawn)
	ev.Operator = s.operator
	ev.Amount = balance
	s.publish(ctx, ev)

	return balance, nil
}

// TransferOwnership hands the operator role to a new identity. Only the
// current operator may transfer it.
func (s *LedgerService) TransferOwnership(ctx context.Context, caller, newOperator string) error {
	if newOperator == "" {
		return fmt.Errorf("%w: new operator identity must not be empty", ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireOperator(caller); err != nil {
		return err
	}

	s.operator = newOperator

	ev := domain.NewEvent(domain.EventOperatorChanged)
	ev.Operator = newOperator
	s.publish(ctx, ev)

	return nil
}

// GetItem returns a catalog item.
func (s *LedgerService) GetItem(ctx context.Context, itemID int64) (*domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getItem(ctx, itemID)
}

// ListItems returns the whole catalog ordered by id.
func (s *LedgerService) ListItems(ctx context.Context) ([]*domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items, err := s.store.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

// GetPurchase returns the latest purchase quantity and status for a (buyer,
// item) pair. A pair with no record yields zero values, not an error.
func (s *LedgerService) GetPurchase(ctx context.Context, buyer string, itemID int64) (int64, domain.OrderStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, err := s.store.GetPurchase(ctx, buyer, itemID)
	if err != nil {
		return 0, "", fmt.Errorf("get purchase: %w", err)
	}
	if rec == nil {
		return 0, "", nil
	}
	return rec.Quantity, rec.Status, nil
}

// GetBuyers returns the item's buyer list in purchase order. The list grows
// without bound and keeps duplicates.
func (s *LedgerService) GetBuyers(ctx context.Context, itemID int64) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := s.getItem(ctx, itemID); err != nil {
		return nil, err
	}

	buyers, err := s.store.ListBuyers(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("list buyers: %w", err)
	}
	return buyers, nil
}

// Balance returns the current custody balance.
func (s *LedgerService) Balance(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	balance, err := s.store.Balance(ctx)
	if err != nil {
		return 0, fmt.Errorf("read balance: %w", err)
	}
	return balance, nil
}

// Operator returns the current operator identity.
func (s *LedgerService) Operator() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.operator
}

func (s *LedgerService) requireOperator(caller string) error {
	if caller == "" || caller != s.operator {
		return ErrNotOperator
	}
	return nil
}

// getItem expects the caller to hold the lock.
func (s *LedgerService) getItem(ctx context.Context, itemID int64) (*domain.Item, error) {
	item, err := s.store.GetItem(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if item == nil {
		return nil, ErrItemNotFound
	}
	return item, nil
}

func (s *LedgerService) publish(ctx context.Context, ev domain.Event) {
	if err := s.feed.Publish(ctx, ev); err != nil {
		s.logger.Error("failed to publish event", "type", ev.Type, "id", ev.ID, "error", err)
	}
}

// mulInt64 multiplies two positive int64s, reporting overflow.
func mulInt64(a, b int64) (int64, bool) {
	p := a * b
	if a != 0 && p/a != b {
		return 0, false
	}
	return p, true
}
