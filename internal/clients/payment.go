package clients

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/eventhub/orders-service/internal/domain"
	"github.com/eventhub/orders-service/internal/observability"
)

type PaymentSession struct {
	URL string `json:"url"`
}

type sessionItem struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int32           `json:"quantity"`
}

type sessionRequest struct {
	OrderID  uuid.UUID     `json:"orderId"`
	Currency string        `json:"currency"`
	Items    []sessionItem `json:"items"`
}

// PaymentClient requests a checkout URL for a persisted order. Line items
// come from the order's snapshots, never from a fresh catalog read.
type PaymentClient struct {
	rpc      Requester
	timeout  time.Duration
	currency string
}

func NewPaymentClient(rpc Requester, timeout time.Duration, currency string) *PaymentClient {
	return &PaymentClient{rpc: rpc, timeout: timeout, currency: currency}
}

func (p *PaymentClient) CreateSession(ctx context.Context, order domain.Order) (PaymentSession, error) {
	req := sessionRequest{
		OrderID:  order.ID,
		Currency: p.currency,
		Items:    make([]sessionItem, 0, len(order.Details)),
	}
	for _, line := range order.Details {
		req.Items = append(req.Items, sessionItem{
			Name:     line.TicketTypeName,
			Price:    line.Price,
			Quantity: line.Quantity,
		})
	}

	body, err := json.Marshal(req)
	if err != nil {
		return PaymentSession{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.rpc.Request(ctx, "createPaymentSession", body)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			observability.RPCTimeouts.WithLabelValues("payment").Inc()
		}
		return PaymentSession{}, errors.Wrap(err, "payment session")
	}

	var session PaymentSession
	if err := decodeReply(resp, &session); err != nil {
		return PaymentSession{}, errors.Wrap(err, "payment session reply")
	}
	return session, nil
}
