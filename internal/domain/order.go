package domain

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// NewOrder builds a pending, unpaid order from the requested lines and the
// validated catalog data. Every line takes its name and price from the
// catalog snapshot; the total is computed here, exactly once.
func NewOrder(userID string, lines []LineRequest, catalog map[string]TicketType) (Order, error) {
	if userID == "" {
		return Order{}, errors.Wrap(ErrInvalidRequest, "missing user id")
	}
	if len(lines) == 0 {
		return Order{}, errors.Wrap(ErrInvalidRequest, "order has no lines")
	}

	orderID := uuid.New()
	details := make([]OrderLine, 0, len(lines))
	total := decimal.Zero

	for _, line := range lines {
		if line.Quantity < 1 {
			return Order{}, errors.Wrapf(ErrInvalidRequest, "ticket type %s: quantity must be at least 1", line.TicketTypeID)
		}
		tt, ok := catalog[line.TicketTypeID]
		if !ok {
			return Order{}, errors.Wrapf(ErrInvalidRequest, "ticket type %s was not validated", line.TicketTypeID)
		}
		if tt.Price.IsNegative() {
			return Order{}, errors.Wrapf(ErrValidationFailed, "ticket type %s has negative price %s", line.TicketTypeID, tt.Price)
		}
		details = append(details, OrderLine{
			ID:             uuid.New(),
			OrderID:        orderID,
			TicketTypeID:   line.TicketTypeID,
			TicketTypeName: tt.Name,
			Price:          tt.Price,
			Quantity:       line.Quantity,
		})
		total = total.Add(tt.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	return Order{
		ID:          orderID,
		UserID:      userID,
		CreatedAt:   time.Now().UTC(),
		TotalAmount: total,
		Status:      StatusPending,
		Paid:        false,
		Details:     details,
	}, nil
}

// Pay moves a pending order to completed and marks it paid. Completed and
// canceled are terminal.
func (o *Order) Pay() error {
	if o.Status != StatusPending {
		return errors.Wrapf(ErrInvalidTransition, "cannot pay order in status %q", o.Status)
	}
	o.Status = StatusCompleted
	o.Paid = true
	return nil
}

// Cancel moves a pending order to canceled. The paid flag stays false.
func (o *Order) Cancel() error {
	if o.Status != StatusPending {
		return errors.Wrapf(ErrInvalidTransition, "cannot cancel order in status %q", o.Status)
	}
	o.Status = StatusCanceled
	return nil
}
