package orders

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/eventhub/orders-service/internal/clients"
	"github.com/eventhub/orders-service/internal/domain"
	"github.com/eventhub/orders-service/internal/observability"
)

const (
	enrichConcurrency  = 4
	reservationTimeout = 30 * time.Second
)

type Service struct {
	repo        Repository
	catalog     Catalog
	payments    Payments
	inventory   Inventory
	audit       Auditor
	logger      observability.Logger
	fallbackURL string
}

func NewService(repo Repository, catalog Catalog, payments Payments, inventory Inventory, audit Auditor, logger observability.Logger, fallbackURL string) *Service {
	return &Service{
		repo:        repo,
		catalog:     catalog,
		payments:    payments,
		inventory:   inventory,
		audit:       audit,
		logger:      logger,
		fallbackURL: fallbackURL,
	}
}

type CreateResult struct {
	Order        domain.Order           `json:"order"`
	OrderPayment clients.PaymentSession `json:"orderPayment"`
}

type RemoveResult struct {
	ID uuid.UUID `json:"id"`
}

// UserOrder is an order enriched with a best-effort catalog lookup for
// display. TicketTypes is absent when the lookup fails.
type UserOrder struct {
	domain.Order
	TicketTypes []domain.TicketType `json:"ticketTypes,omitempty"`
}

// Create runs the full creation flow: validate the requested lines against
// the catalog, build and persist the aggregate, then obtain a payment
// session. Validation failures abort before any write; a failed payment
// session degrades the reply, never the persisted order.
func (s *Service) Create(ctx context.Context, userID string, lines []domain.LineRequest) (*CreateResult, error) {
	if len(lines) == 0 {
		return nil, errors.Wrap(domain.ErrInvalidRequest, "order has no lines")
	}
	for _, line := range lines {
		if line.Quantity < 1 {
			return nil, errors.Wrapf(domain.ErrInvalidRequest, "ticket type %s: quantity must be at least 1", line.TicketTypeID)
		}
	}

	validated, err := s.catalog.ValidateTicketTypes(ctx, lines)
	if err != nil {
		return nil, err
	}

	order, err := domain.NewOrder(userID, lines, validated)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, order); err != nil {
		return nil, err
	}
	observability.OrdersCreated.Inc()
	if s.audit != nil {
		s.audit.Record(ctx, "order.created", order)
	}

	session := s.paymentSessionOrFallback(ctx, order)

	// Reservation is decoupled from the reply path: own context, own
	// timeout, failure logged and swallowed.
	go s.notifyReservation(order.UserID, lines)

	return &CreateResult{Order: order, OrderPayment: session}, nil
}

func (s *Service) Pay(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	order, err := s.repo.Transition(ctx, id, func(o *domain.Order) error {
		return o.Pay()
	})
	if err != nil {
		return nil, err
	}
	if s.audit != nil {
		s.audit.Record(ctx, "order.paid", *order)
	}
	return order, nil
}

func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	order, err := s.repo.Transition(ctx, id, func(o *domain.Order) error {
		return o.Cancel()
	})
	if err != nil {
		return nil, err
	}
	if s.audit != nil {
		s.audit.Record(ctx, "order.canceled", *order)
	}
	return order, nil
}

func (s *Service) FindAll(ctx context.Context) ([]domain.Order, error) {
	return s.repo.FindAll(ctx)
}

func (s *Service) FindOne(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return s.repo.FindByID(ctx, id)
}

// FindByUser lists the user's paid orders and enriches each with current
// catalog data. Enrichment is best-effort per order.
func (s *Service) FindByUser(ctx context.Context, userID string) ([]UserOrder, error) {
	paid, err := s.repo.FindByUser(ctx, userID, true)
	if err != nil {
		return nil, err
	}

	results := make([]UserOrder, len(paid))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(enrichConcurrency)
	for i, order := range paid {
		i, order := i, order
		g.Go(func() error {
			results[i].Order = order
			results[i].TicketTypes = s.enrich(gctx, order)
			return nil
		})
	}
	g.Wait()
	return results, nil
}

func (s *Service) Remove(ctx context.Context, id uuid.UUID) (*RemoveResult, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Remove(ctx, id); err != nil {
		return nil, err
	}
	if s.audit != nil {
		s.audit.Record(ctx, "order.removed", *order)
	}
	return &RemoveResult{ID: id}, nil
}

func (s *Service) paymentSessionOrFallback(ctx context.Context, order domain.Order) clients.PaymentSession {
	session, err := s.payments.CreateSession(ctx, order)
	if err != nil {
		observability.PaymentFallbacks.Inc()
		s.logger.WithError(err).WithField("order_id", order.ID).Warn("payment session degraded to fallback url")
		return clients.PaymentSession{URL: s.fallbackURL}
	}
	return session
}

func (s *Service) notifyReservation(userID string, lines []domain.LineRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), reservationTimeout)
	defer cancel()
	if err := s.inventory.ReserveTickets(ctx, userID, lines); err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("inventory reservation failed")
	}
}

func (s *Service) enrich(ctx context.Context, order domain.Order) []domain.TicketType {
	lines := make([]domain.LineRequest, 0, len(order.Details))
	for _, d := range order.Details {
		lines = append(lines, domain.LineRequest{TicketTypeID: d.TicketTypeID, Quantity: d.Quantity})
	}
	validated, err := s.catalog.ValidateTicketTypes(ctx, lines)
	if err != nil {
		observability.EnrichmentFailures.Inc()
		s.logger.WithError(err).WithField("order_id", order.ID).Debug("catalog enrichment skipped")
		return nil
	}
	types := make([]domain.TicketType, 0, len(order.Details))
	for _, d := range order.Details {
		types = append(types, validated[d.TicketTypeID])
	}
	return types
}
