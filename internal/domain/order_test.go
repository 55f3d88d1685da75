package domain_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/eventhub/orders-service/internal/domain"
)

func catalogFixture() map[string]domain.TicketType {
	return map[string]domain.TicketType{
		"t1": {ID: "t1", Name: "Regular", Price: decimal.NewFromInt(100)},
		"t2": {ID: "t2", Name: "VIP", Price: decimal.NewFromInt(200)},
	}
}

func TestNewOrder_ComputesTotal(t *testing.T) {
	lines := []domain.LineRequest{
		{TicketTypeID: "t1", Quantity: 2},
		{TicketTypeID: "t2", Quantity: 1},
	}

	order, err := domain.NewOrder("u1", lines, catalogFixture())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if !order.TotalAmount.Equal(decimal.NewFromInt(400)) {
		t.Errorf("expected total 400, got %s", order.TotalAmount)
	}
	if order.Status != domain.StatusPending {
		t.Errorf("expected status pending, got %s", order.Status)
	}
	if order.Paid {
		t.Error("new order must not be paid")
	}
	if len(order.Details) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(order.Details))
	}
	if order.Details[0].TicketTypeName != "Regular" || order.Details[1].TicketTypeName != "VIP" {
		t.Errorf("expected snapshot names Regular/VIP, got %s/%s", order.Details[0].TicketTypeName, order.Details[1].TicketTypeName)
	}
	for _, line := range order.Details {
		if line.OrderID != order.ID {
			t.Errorf("line %s not bound to order", line.ID)
		}
	}
}

func TestNewOrder_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		userID string
		lines  []domain.LineRequest
	}{
		{"no lines", "u1", nil},
		{"zero quantity", "u1", []domain.LineRequest{{TicketTypeID: "t1", Quantity: 0}}},
		{"negative quantity", "u1", []domain.LineRequest{{TicketTypeID: "t1", Quantity: -1}}},
		{"unvalidated ticket type", "u1", []domain.LineRequest{{TicketTypeID: "t9", Quantity: 1}}},
		{"missing user", "", []domain.LineRequest{{TicketTypeID: "t1", Quantity: 1}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := domain.NewOrder(tc.userID, tc.lines, catalogFixture())
			if !errors.Is(err, domain.ErrInvalidRequest) {
				t.Errorf("expected ErrInvalidRequest, got %v", err)
			}
		})
	}
}

func TestNewOrder_NegativePriceRejected(t *testing.T) {
	catalog := map[string]domain.TicketType{
		"t1": {ID: "t1", Name: "Broken", Price: decimal.NewFromInt(-50)},
	}
	_, err := domain.NewOrder("u1", []domain.LineRequest{{TicketTypeID: "t1", Quantity: 1}}, catalog)
	if !errors.Is(err, domain.ErrValidationFailed) {
		t.Errorf("expected ErrValidationFailed, got %v", err)
	}
}

func TestNewOrder_ZeroPriceAllowed(t *testing.T) {
	catalog := map[string]domain.TicketType{
		"t1": {ID: "t1", Name: "Free Entry", Price: decimal.Zero},
	}
	order, err := domain.NewOrder("u1", []domain.LineRequest{{TicketTypeID: "t1", Quantity: 2}}, catalog)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !order.TotalAmount.IsZero() {
		t.Errorf("expected zero total, got %s", order.TotalAmount)
	}
}

func TestOrder_PayTransition(t *testing.T) {
	order, err := domain.NewOrder("u1", []domain.LineRequest{{TicketTypeID: "t1", Quantity: 1}}, catalogFixture())
	if err != nil {
		t.Fatal(err)
	}

	if err := order.Pay(); err != nil {
		t.Fatalf("pay on pending order: %v", err)
	}
	if order.Status != domain.StatusCompleted || !order.Paid {
		t.Errorf("expected completed/paid, got %s/%v", order.Status, order.Paid)
	}

	if err := order.Pay(); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("second pay: expected ErrInvalidTransition, got %v", err)
	}
	if order.Status != domain.StatusCompleted || !order.Paid {
		t.Errorf("rejected pay must not change state, got %s/%v", order.Status, order.Paid)
	}

	if err := order.Cancel(); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("cancel on completed: expected ErrInvalidTransition, got %v", err)
	}
}

func TestOrder_CancelTransition(t *testing.T) {
	order, err := domain.NewOrder("u1", []domain.LineRequest{{TicketTypeID: "t1", Quantity: 1}}, catalogFixture())
	if err != nil {
		t.Fatal(err)
	}

	if err := order.Cancel(); err != nil {
		t.Fatalf("cancel on pending order: %v", err)
	}
	if order.Status != domain.StatusCanceled {
		t.Errorf("expected canceled, got %s", order.Status)
	}
	if order.Paid {
		t.Error("canceled order must not be paid")
	}

	if err := order.Pay(); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("pay on canceled: expected ErrInvalidTransition, got %v", err)
	}
}
