package clients

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/eventhub/orders-service/internal/domain"
	"github.com/eventhub/orders-service/internal/observability"
)

type reservationRequest struct {
	UserID       string               `json:"userId"`
	OrderDetails []domain.LineRequest `json:"orderDetails"`
}

// InventoryClient notifies the reservation service about a persisted order.
// The call is best-effort; callers log and move on when it errors.
type InventoryClient struct {
	rpc     Requester
	timeout time.Duration
}

func NewInventoryClient(rpc Requester, timeout time.Duration) *InventoryClient {
	return &InventoryClient{rpc: rpc, timeout: timeout}
}

func (i *InventoryClient) ReserveTickets(ctx context.Context, userID string, lines []domain.LineRequest) error {
	body, err := json.Marshal(reservationRequest{UserID: userID, OrderDetails: lines})
	if err != nil {
		return err
	}

	const maxAttempts = 3
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, i.timeout)
		_, lastErr = i.rpc.Request(callCtx, "reserveTickets", body)
		cancel()
		if lastErr == nil {
			return nil
		}
		if errors.Is(lastErr, context.DeadlineExceeded) {
			observability.RPCTimeouts.WithLabelValues("inventory").Inc()
		}

		backoff := time.Duration(1<<attempt) * time.Second
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return errors.Wrapf(lastErr, "reservation failed after %d attempts", maxAttempts)
}
