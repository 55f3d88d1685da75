// Package messaging exposes the service's request/reply entry points:
// createOrder, findAllOrders, findOrdersByUser, findOneOrder, payOrder,
// cancelOrder, removeOrder.
package messaging

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/eventhub/orders-service/internal/adapters/rabbit"
	"github.com/eventhub/orders-service/internal/domain"
	"github.com/eventhub/orders-service/internal/observability"
	"github.com/eventhub/orders-service/internal/orders"
)

type OrderService interface {
	Create(ctx context.Context, userID string, lines []domain.LineRequest) (*orders.CreateResult, error)
	Pay(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	Cancel(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	FindAll(ctx context.Context) ([]domain.Order, error)
	FindOne(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	FindByUser(ctx context.Context, userID string) ([]orders.UserOrder, error)
	Remove(ctx context.Context, id uuid.UUID) (*orders.RemoveResult, error)
}

// ReplyCache returns the stored reply for an already-handled message id, so
// broker redeliveries of mutating patterns do not repeat side effects.
type ReplyCache interface {
	Get(ctx context.Context, messageID string) ([]byte, error)
	Set(ctx context.Context, messageID string, reply []byte) error
}

type Registrar interface {
	Register(pattern string, h rabbit.Handler) error
}

type Endpoint struct {
	svc     OrderService
	replies ReplyCache
	logger  observability.Logger
}

func NewEndpoint(svc OrderService, replies ReplyCache, logger observability.Logger) *Endpoint {
	return &Endpoint{svc: svc, replies: replies, logger: logger}
}

func (e *Endpoint) Register(srv Registrar) error {
	bindings := []struct {
		pattern  string
		handler  rabbit.Handler
		mutating bool
	}{
		{"createOrder", e.handler("createOrder", e.createOrder), true},
		{"findAllOrders", e.handler("findAllOrders", e.findAllOrders), false},
		{"findOrdersByUser", e.handler("findOrdersByUser", e.findOrdersByUser), false},
		{"findOneOrder", e.handler("findOneOrder", e.findOneOrder), false},
		{"payOrder", e.handler("payOrder", e.payOrder), true},
		{"cancelOrder", e.handler("cancelOrder", e.cancelOrder), true},
		{"removeOrder", e.handler("removeOrder", e.removeOrder), true},
	}
	for _, b := range bindings {
		h := b.handler
		if b.mutating {
			h = e.deduped(h)
		}
		if err := srv.Register(b.pattern, h); err != nil {
			return err
		}
	}
	return nil
}

type handlerFunc func(ctx context.Context, body []byte) (interface{}, error)

func (e *Endpoint) handler(pattern string, fn handlerFunc) rabbit.Handler {
	return func(ctx context.Context, messageID string, body []byte) []byte {
		result, err := fn(ctx, body)
		if err != nil {
			observability.MessagesHandled.WithLabelValues(pattern, "error").Inc()
			return e.errorPayload(pattern, err)
		}
		data, err := json.Marshal(result)
		if err != nil {
			observability.MessagesHandled.WithLabelValues(pattern, "error").Inc()
			e.logger.WithError(err).WithField("pattern", pattern).Error("failed to encode reply")
			return errorBody(500, "internal error")
		}
		observability.MessagesHandled.WithLabelValues(pattern, "ok").Inc()
		return data
	}
}

func (e *Endpoint) deduped(next rabbit.Handler) rabbit.Handler {
	return func(ctx context.Context, messageID string, body []byte) []byte {
		if e.replies == nil || messageID == "" {
			return next(ctx, messageID, body)
		}
		if cached, err := e.replies.Get(ctx, messageID); err != nil {
			e.logger.WithError(err).Warn("reply cache lookup failed")
		} else if cached != nil {
			return cached
		}
		reply := next(ctx, messageID, body)
		if err := e.replies.Set(ctx, messageID, reply); err != nil {
			e.logger.WithError(err).Warn("reply cache store failed")
		}
		return reply
	}
}

func (e *Endpoint) createOrder(ctx context.Context, body []byte) (interface{}, error) {
	var req struct {
		UserID       string               `json:"userId"`
		OrderDetails []domain.LineRequest `json:"orderDetails"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, errors.Wrapf(domain.ErrInvalidRequest, "malformed payload: %v", err)
	}
	return e.svc.Create(ctx, req.UserID, req.OrderDetails)
}

func (e *Endpoint) findAllOrders(ctx context.Context, _ []byte) (interface{}, error) {
	list, err := e.svc.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []domain.Order{}
	}
	return list, nil
}

func (e *Endpoint) findOrdersByUser(ctx context.Context, body []byte) (interface{}, error) {
	var req struct {
		UserID string `json:"userId"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, errors.Wrapf(domain.ErrInvalidRequest, "malformed payload: %v", err)
	}
	if req.UserID == "" {
		return nil, errors.Wrap(domain.ErrInvalidRequest, "missing user id")
	}
	list, err := e.svc.FindByUser(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []orders.UserOrder{}
	}
	return list, nil
}

func (e *Endpoint) findOneOrder(ctx context.Context, body []byte) (interface{}, error) {
	id, err := orderID(body)
	if err != nil {
		return nil, err
	}
	return e.svc.FindOne(ctx, id)
}

func (e *Endpoint) payOrder(ctx context.Context, body []byte) (interface{}, error) {
	id, err := orderID(body)
	if err != nil {
		return nil, err
	}
	return e.svc.Pay(ctx, id)
}

func (e *Endpoint) cancelOrder(ctx context.Context, body []byte) (interface{}, error) {
	id, err := orderID(body)
	if err != nil {
		return nil, err
	}
	return e.svc.Cancel(ctx, id)
}

func (e *Endpoint) removeOrder(ctx context.Context, body []byte) (interface{}, error) {
	id, err := orderID(body)
	if err != nil {
		return nil, err
	}
	return e.svc.Remove(ctx, id)
}

func orderID(body []byte) (uuid.UUID, error) {
	var req struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return uuid.UUID{}, errors.Wrapf(domain.ErrInvalidRequest, "malformed payload: %v", err)
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		return uuid.UUID{}, errors.Wrapf(domain.ErrInvalidRequest, "invalid order id %q", req.ID)
	}
	return id, nil
}

func (e *Endpoint) errorPayload(pattern string, err error) []byte {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return errorBody(400, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return errorBody(404, err.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		return errorBody(409, err.Error())
	case errors.Is(err, domain.ErrSerializationFailure):
		return errorBody(409, "conflict, try again")
	case errors.Is(err, domain.ErrValidationFailed):
		return errorBody(422, err.Error())
	default:
		e.logger.WithError(err).WithField("pattern", pattern).Error("request failed")
		return errorBody(500, "internal error")
	}
}

func errorBody(statusCode int, message string) []byte {
	data, _ := json.Marshal(map[string]interface{}{
		"error":      true,
		"statusCode": statusCode,
		"message":    message,
	})
	return data
}
