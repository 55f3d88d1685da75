package orders

import (
	"context"

	"github.com/google/uuid"

	"github.com/eventhub/orders-service/internal/clients"
	"github.com/eventhub/orders-service/internal/domain"
)

// Repository is the persistence contract for the order aggregate. All
// mutations of an existing order go through Transition, which must apply the
// change as an atomic read-modify-write on the full aggregate.
type Repository interface {
	Save(ctx context.Context, order domain.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	FindAll(ctx context.Context) ([]domain.Order, error)
	FindByUser(ctx context.Context, userID string, paidOnly bool) ([]domain.Order, error)
	Transition(ctx context.Context, id uuid.UUID, apply func(*domain.Order) error) (*domain.Order, error)
	Remove(ctx context.Context, id uuid.UUID) error
}

type Catalog interface {
	ValidateTicketTypes(ctx context.Context, lines []domain.LineRequest) (map[string]domain.TicketType, error)
}

type Payments interface {
	CreateSession(ctx context.Context, order domain.Order) (clients.PaymentSession, error)
}

type Inventory interface {
	ReserveTickets(ctx context.Context, userID string, lines []domain.LineRequest) error
}

type Auditor interface {
	Record(ctx context.Context, action string, order domain.Order)
}
