package clients

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/eventhub/orders-service/internal/domain"
)

type fakeRequester struct {
	pattern string
	body    []byte
	reply   []byte
	err     error
}

func (f *fakeRequester) Request(ctx context.Context, pattern string, body []byte) ([]byte, error) {
	f.pattern = pattern
	f.body = body
	if f.err != nil {
		return nil, f.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.reply, nil
}

func TestCatalogClient_BatchedValidation(t *testing.T) {
	reply, _ := json.Marshal([]domain.TicketType{
		{ID: "t1", Name: "Regular", Price: decimal.NewFromInt(100)},
		{ID: "t2", Name: "VIP", Price: decimal.NewFromInt(200)},
	})
	rpc := &fakeRequester{reply: reply}
	client := NewCatalogClient(rpc, time.Second)

	lines := []domain.LineRequest{
		{TicketTypeID: "t1", Quantity: 2},
		{TicketTypeID: "t2", Quantity: 1},
	}
	validated, err := client.ValidateTicketTypes(context.Background(), lines)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rpc.pattern != "validateTicketTypes" {
		t.Errorf("expected validateTicketTypes pattern, got %s", rpc.pattern)
	}
	if len(validated) != 2 {
		t.Fatalf("expected 2 validated types, got %d", len(validated))
	}
	if !validated["t1"].Price.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected t1 price 100, got %s", validated["t1"].Price)
	}
}

func TestCatalogClient_MissingIDFailsCompletely(t *testing.T) {
	reply, _ := json.Marshal([]domain.TicketType{
		{ID: "t1", Name: "Regular", Price: decimal.NewFromInt(100)},
	})
	client := NewCatalogClient(&fakeRequester{reply: reply}, time.Second)

	lines := []domain.LineRequest{
		{TicketTypeID: "t1", Quantity: 1},
		{TicketTypeID: "t2", Quantity: 1},
	}
	_, err := client.ValidateTicketTypes(context.Background(), lines)
	if !errors.Is(err, domain.ErrValidationFailed) {
		t.Errorf("expected ErrValidationFailed, got %v", err)
	}
}

func TestCatalogClient_RemoteErrorEnvelope(t *testing.T) {
	reply := []byte(`{"error":true,"statusCode":500,"message":"boom"}`)
	client := NewCatalogClient(&fakeRequester{reply: reply}, time.Second)

	_, err := client.ValidateTicketTypes(context.Background(), []domain.LineRequest{{TicketTypeID: "t1", Quantity: 1}})
	if !errors.Is(err, domain.ErrValidationFailed) {
		t.Errorf("expected ErrValidationFailed, got %v", err)
	}
}

func TestCatalogClient_TransportError(t *testing.T) {
	client := NewCatalogClient(&fakeRequester{err: context.DeadlineExceeded}, time.Second)

	_, err := client.ValidateTicketTypes(context.Background(), []domain.LineRequest{{TicketTypeID: "t1", Quantity: 1}})
	if !errors.Is(err, domain.ErrValidationFailed) {
		t.Errorf("expected ErrValidationFailed, got %v", err)
	}
}

func TestPaymentClient_BuildsItemsFromSnapshots(t *testing.T) {
	rpc := &fakeRequester{reply: []byte(`{"url":"https://pay.example/session/abc"}`)}
	client := NewPaymentClient(rpc, time.Second, "usd")

	order, err := domain.NewOrder("u1", []domain.LineRequest{{TicketTypeID: "t1", Quantity: 2}}, map[string]domain.TicketType{
		"t1": {ID: "t1", Name: "Regular", Price: decimal.NewFromInt(100)},
	})
	if err != nil {
		t.Fatal(err)
	}

	session, err := client.CreateSession(context.Background(), order)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if session.URL != "https://pay.example/session/abc" {
		t.Errorf("unexpected url %s", session.URL)
	}

	var sent sessionRequest
	if err := json.Unmarshal(rpc.body, &sent); err != nil {
		t.Fatal(err)
	}
	if sent.Currency != "usd" || sent.OrderID != order.ID {
		t.Errorf("unexpected request %+v", sent)
	}
	if len(sent.Items) != 1 || sent.Items[0].Name != "Regular" || sent.Items[0].Quantity != 2 {
		t.Errorf("unexpected items %+v", sent.Items)
	}
}

func TestInventoryClient_CanceledContext(t *testing.T) {
	client := NewInventoryClient(&fakeRequester{err: errors.New("broker down")}, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := client.ReserveTickets(ctx, "u1", []domain.LineRequest{{TicketTypeID: "t1", Quantity: 1}})
	if err == nil {
		t.Fatal("expected error")
	}
}
