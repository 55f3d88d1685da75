package rabbit

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const rpcExchange = "ticketing.rpc"

// RPCClient issues request/reply calls over one long-lived channel. Replies
// come back on an exclusive auto-named queue and are matched to waiters by
// correlation id.
type RPCClient struct {
	ch         *amqp.Channel
	replyQueue string

	mu      sync.Mutex
	pending map[string]chan amqp.Delivery
}

func NewRPCClient(conn *amqp.Connection) (*RPCClient, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	err = ch.ExchangeDeclare(rpcExchange, "topic", true, false, false, false, nil)
	if err != nil {
		return nil, err
	}
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return nil, err
	}
	deliveries, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	if err != nil {
		return nil, err
	}

	c := &RPCClient{
		ch:         ch,
		replyQueue: q.Name,
		pending:    make(map[string]chan amqp.Delivery),
	}
	go c.dispatch(deliveries)
	return c, nil
}

func (c *RPCClient) dispatch(deliveries <-chan amqp.Delivery) {
	for d := range deliveries {
		c.mu.Lock()
		waiter, ok := c.pending[d.CorrelationId]
		delete(c.pending, d.CorrelationId)
		c.mu.Unlock()
		if ok {
			waiter <- d
		}
	}
}

// Request publishes to the given pattern's routing key and blocks until the
// correlated reply arrives or ctx expires.
func (c *RPCClient) Request(ctx context.Context, pattern string, body []byte) ([]byte, error) {
	corrID := uuid.New().String()
	waiter := make(chan amqp.Delivery, 1)

	c.mu.Lock()
	c.pending[corrID] = waiter
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, corrID)
		c.mu.Unlock()
	}()

	err := c.ch.PublishWithContext(ctx, rpcExchange, pattern, false, false, amqp.Publishing{
		MessageId:     uuid.New().String(),
		CorrelationId: corrID,
		ReplyTo:       c.replyQueue,
		ContentType:   "application/json",
		Type:          pattern,
		Body:          body,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "publish %s", pattern)
	}

	select {
	case d := <-waiter:
		return d.Body, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
