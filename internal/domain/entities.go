package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusCanceled  Status = "canceled"
)

// Order is the aggregate root. Details are owned by the order and are
// persisted and removed together with it.
type Order struct {
	ID          uuid.UUID       `json:"id"`
	UserID      string          `json:"userId"`
	CreatedAt   time.Time       `json:"createdAt"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Status      Status          `json:"status"`
	Paid        bool            `json:"paid"`
	Details     []OrderLine     `json:"orderDetails"`
}

// OrderLine carries a point-in-time snapshot of the catalog's name and
// price for one ticket type. Snapshots are immutable after creation.
type OrderLine struct {
	ID             uuid.UUID       `json:"id"`
	OrderID        uuid.UUID       `json:"orderId"`
	TicketTypeID   string          `json:"ticketTypeId"`
	TicketTypeName string          `json:"ticketTypeName"`
	Price          decimal.Decimal `json:"price"`
	Quantity       int32           `json:"quantity"`
}

// LineRequest is one requested ticket-type selection before validation.
type LineRequest struct {
	TicketTypeID string `json:"ticketTypeId"`
	Quantity     int32  `json:"quantity"`
}

// TicketType is the catalog's authoritative record for one ticket type.
type TicketType struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}
