package rabbit

import (
	"context"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/eventhub/orders-service/internal/observability"
)

// Handler produces the reply payload for one inbound message. It must not
// panic across the transport; errors become structured error payloads
// upstream.
type Handler func(ctx context.Context, messageID string, body []byte) []byte

// Server consumes the service queue and dispatches on the message type.
// Replies go to the caller's ReplyTo queue with the original correlation id.
type Server struct {
	ch       *amqp.Channel
	queue    string
	handlers map[string]Handler
	logger   observability.Logger
}

func NewServer(conn *amqp.Connection, queue string, logger observability.Logger) (*Server, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	err = ch.ExchangeDeclare(rpcExchange, "topic", true, false, false, false, nil)
	if err != nil {
		return nil, err
	}
	_, err = ch.QueueDeclare(queue, true, false, false, false, nil)
	if err != nil {
		return nil, err
	}
	if err := ch.Qos(16, 0, false); err != nil {
		return nil, err
	}
	return &Server{
		ch:       ch,
		queue:    queue,
		handlers: make(map[string]Handler),
		logger:   logger,
	}, nil
}

// Register binds the pattern's routing key to the service queue and installs
// its handler. Call before Run.
func (s *Server) Register(pattern string, h Handler) error {
	if err := s.ch.QueueBind(s.queue, pattern, rpcExchange, false, nil); err != nil {
		return err
	}
	s.handlers[pattern] = h
	return nil
}

func (s *Server) Run(ctx context.Context) error {
	deliveries, err := s.ch.Consume(s.queue, "", false, false, false, false, nil)
	if err != nil {
		return err
	}
	return s.serve(ctx, deliveries)
}

// serve dispatches every delivery on its own goroutine so a slow request
// (a creation waiting on the catalog, say) never holds back the others.
// The channel's prefetch bounds how many are in flight at once.
func (s *Server) serve(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				s.dispatch(ctx, d)
			}()
		}
	}
}

func (s *Server) dispatch(ctx context.Context, d amqp.Delivery) {
	h, ok := s.handlers[d.Type]
	if !ok {
		s.logger.WithField("pattern", d.Type).Warn("no handler for message type")
		d.Nack(false, false)
		return
	}

	resp := h(ctx, d.MessageId, d.Body)

	if d.ReplyTo != "" {
		err := s.ch.PublishWithContext(ctx, "", d.ReplyTo, false, false, amqp.Publishing{
			CorrelationId: d.CorrelationId,
			ContentType:   "application/json",
			Body:          resp,
		})
		if err != nil {
			s.logger.WithError(err).WithField("pattern", d.Type).Error("failed to publish reply")
			d.Nack(false, true)
			return
		}
	}
	d.Ack(false)
}
