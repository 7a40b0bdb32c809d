package domain

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventItemAdded             EventType = "item_added"
	EventItemUpdated           EventType = "item_updated"
	EventPurchasePlaced        EventType = "purchase_placed"
	EventPurchaseStatusUpdated EventType = "purchase_status_updated"
	EventFundsWithdrawn        EventType = "funds_withdrawn"
	EventOperatorChanged       EventType = "operator_changed"
)

// Event is one entry of the append-only notification feed. The feed is the
// sole durable audit trail: purchase records are overwritten in place, so
// per-sale history exists only here.
type Event struct {
	ID       string    `json:"id"`
	Type     EventType `json:"type"`
	ItemID   int64     `json:"item_id,omitempty"`
	Buyer    string    `json:"buyer,omitempty"`
	Operator string    `json:"operator,omitempty"`
	Quantity int64     `json:"quantity,omitempty"`
	Amount   int64     `json:"amount,omitempty"`
	Status   string    `json:"status,omitempty"`
	At       time.Time `json:"at"`
}

func NewEvent(t EventType) Event {
	return Event{
		ID:   uuid.NewString(),
		Type: t,
		At:   time.Now().UTC(),
	}
}
