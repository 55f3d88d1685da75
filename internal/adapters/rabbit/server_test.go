package rabbit

import (
	"context"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/eventhub/orders-service/internal/observability"
)

type fakeAcknowledger struct{}

func (fakeAcknowledger) Ack(tag uint64, multiple bool) error { return nil }

func (fakeAcknowledger) Nack(tag uint64, multiple, requeue bool) error { return nil }

func (fakeAcknowledger) Reject(tag uint64, requeue bool) error { return nil }

func TestServer_DeliveriesDoNotSerialize(t *testing.T) {
	s := &Server{
		handlers: make(map[string]Handler),
		logger:   observability.NewLogger(),
	}

	release := make(chan struct{})
	handled := make(chan string, 2)
	s.handlers["slow"] = func(ctx context.Context, messageID string, body []byte) []byte {
		// Blocks until the second delivery's handler has run.
		select {
		case <-release:
		case <-time.After(2 * time.Second):
		}
		handled <- "slow"
		return nil
	}
	s.handlers["fast"] = func(ctx context.Context, messageID string, body []byte) []byte {
		handled <- "fast"
		close(release)
		return nil
	}

	deliveries := make(chan amqp.Delivery, 2)
	deliveries <- amqp.Delivery{Type: "slow", Acknowledger: fakeAcknowledger{}}
	deliveries <- amqp.Delivery{Type: "fast", Acknowledger: fakeAcknowledger{}}
	close(deliveries)

	ctx := context.Background()
	done := make(chan error, 1)
	go func() {
		done <- s.serve(ctx, deliveries)
	}()

	first := waitHandled(t, handled)
	second := waitHandled(t, handled)
	if first != "fast" || second != "slow" {
		t.Errorf("expected the fast delivery to finish first, got %s then %s", first, second)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("serve: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("serve did not return after the channel closed")
	}
}

func waitHandled(t *testing.T, handled <-chan string) string {
	t.Helper()
	select {
	case pattern := <-handled:
		return pattern
	case <-time.After(2 * time.Second):
		t.Fatal("delivery was never handled")
		return ""
	}
}
