package clients

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/eventhub/orders-service/internal/domain"
	"github.com/eventhub/orders-service/internal/observability"
)

// CatalogClient resolves authoritative ticket-type data. All requested ids
// go out in a single batched call; a response that omits any of them is a
// total failure, never a partial fallback.
type CatalogClient struct {
	rpc     Requester
	timeout time.Duration
}

func NewCatalogClient(rpc Requester, timeout time.Duration) *CatalogClient {
	return &CatalogClient{rpc: rpc, timeout: timeout}
}

func (c *CatalogClient) ValidateTicketTypes(ctx context.Context, lines []domain.LineRequest) (map[string]domain.TicketType, error) {
	if len(lines) == 0 {
		return nil, errors.Wrap(domain.ErrInvalidRequest, "no lines to validate")
	}

	body, err := json.Marshal(lines)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.rpc.Request(ctx, "validateTicketTypes", body)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			observability.RPCTimeouts.WithLabelValues("catalog").Inc()
		}
		return nil, errors.Wrapf(domain.ErrValidationFailed, "catalog unreachable: %v", err)
	}

	var types []domain.TicketType
	if err := decodeReply(resp, &types); err != nil {
		return nil, errors.Wrapf(domain.ErrValidationFailed, "catalog reply: %v", err)
	}

	validated := make(map[string]domain.TicketType, len(types))
	for _, tt := range types {
		validated[tt.ID] = tt
	}
	for _, line := range lines {
		if _, ok := validated[line.TicketTypeID]; !ok {
			return nil, errors.Wrapf(domain.ErrValidationFailed, "ticket type %s missing from catalog response", line.TicketTypeID)
		}
	}
	return validated, nil
}
