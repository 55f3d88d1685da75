package postgres

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventhub/orders-service/internal/domain"
	"github.com/eventhub/orders-service/internal/observability"
)

const serializationFailureCode = "40001"

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	start := time.Now()
	defer func() {
		observability.DBTxDuration.Observe(time.Since(start).Seconds())
	}()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, "SET TRANSACTION ISOLATION LEVEL SERIALIZABLE")
	if err != nil {
		return err
	}

	err = fn(tx)
	if err == nil {
		// Serialization failures can surface at commit, not just inside fn.
		err = tx.Commit(ctx)
	}
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == serializationFailureCode {
			return domain.ErrSerializationFailure
		}
		return err
	}
	return nil
}

// Save persists the order and all of its lines in one transaction. An order
// without lines is rejected before any write.
func (r *Repository) Save(ctx context.Context, order domain.Order) error {
	if len(order.Details) == 0 {
		return errors.Wrap(domain.ErrInvalidRequest, "order has no lines")
	}

	return r.WithTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO orders (id, user_id, created_at, total_amount, status, paid)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, order.ID, order.UserID, order.CreatedAt, order.TotalAmount, order.Status, order.Paid)
		if err != nil {
			return err
		}

		batch := &pgx.Batch{}
		for i, line := range order.Details {
			batch.Queue(`
				INSERT INTO order_lines (id, order_id, seq, ticket_type_id, ticket_type_name, price, quantity)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
			`, line.ID, order.ID, i, line.TicketTypeID, line.TicketTypeName, line.Price, line.Quantity)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	var order domain.Order
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, created_at, total_amount, status, paid
		FROM orders WHERE id = $1
	`, id).Scan(&order.ID, &order.UserID, &order.CreatedAt, &order.TotalAmount, &order.Status, &order.Paid)
	if err == pgx.ErrNoRows {
		return nil, errors.Wrapf(domain.ErrNotFound, "order %s", id)
	}
	if err != nil {
		return nil, err
	}

	lines, err := r.loadLines(ctx, []string{id.String()})
	if err != nil {
		return nil, err
	}
	order.Details = lines[id]
	return &order, nil
}

func (r *Repository) FindAll(ctx context.Context) ([]domain.Order, error) {
	return r.list(ctx, `
		SELECT id, user_id, created_at, total_amount, status, paid
		FROM orders ORDER BY created_at ASC
	`)
}

func (r *Repository) FindByUser(ctx context.Context, userID string, paidOnly bool) ([]domain.Order, error) {
	query := `
		SELECT id, user_id, created_at, total_amount, status, paid
		FROM orders WHERE user_id = $1 ORDER BY created_at ASC
	`
	if paidOnly {
		query = `
			SELECT id, user_id, created_at, total_amount, status, paid
			FROM orders WHERE user_id = $1 AND paid = true ORDER BY created_at ASC
		`
	}
	return r.list(ctx, query, userID)
}

// Transition loads the full aggregate under a row lock, applies the change,
// and persists status and paid. Concurrent transitions on one order id
// serialize on the lock.
func (r *Repository) Transition(ctx context.Context, id uuid.UUID, apply func(*domain.Order) error) (*domain.Order, error) {
	var order domain.Order
	err := r.WithTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			SELECT id, user_id, created_at, total_amount, status, paid
			FROM orders WHERE id = $1 FOR UPDATE
		`, id).Scan(&order.ID, &order.UserID, &order.CreatedAt, &order.TotalAmount, &order.Status, &order.Paid)
		if err == pgx.ErrNoRows {
			return errors.Wrapf(domain.ErrNotFound, "order %s", id)
		}
		if err != nil {
			return err
		}

		lines, err := r.linesTx(ctx, tx, id)
		if err != nil {
			return err
		}
		order.Details = lines

		if err := apply(&order); err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			UPDATE orders SET status = $2, paid = $3 WHERE id = $1
		`, order.ID, order.Status, order.Paid)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// Remove deletes the order; lines go with it via ON DELETE CASCADE.
func (r *Repository) Remove(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return errors.Wrapf(domain.ErrNotFound, "order %s", id)
	}
	return nil
}

func (r *Repository) list(ctx context.Context, query string, args ...interface{}) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	var ids []string
	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(&order.ID, &order.UserID, &order.CreatedAt, &order.TotalAmount, &order.Status, &order.Paid); err != nil {
			return nil, err
		}
		orders = append(orders, order)
		ids = append(ids, order.ID.String())
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	lines, err := r.loadLines(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Details = lines[orders[i].ID]
	}
	return orders, nil
}

func (r *Repository) loadLines(ctx context.Context, orderIDs []string) (map[uuid.UUID][]domain.OrderLine, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, order_id, ticket_type_id, ticket_type_name, price, quantity
		FROM order_lines WHERE order_id = ANY($1::uuid[]) ORDER BY order_id, seq
	`, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := make(map[uuid.UUID][]domain.OrderLine)
	for rows.Next() {
		var line domain.OrderLine
		if err := rows.Scan(&line.ID, &line.OrderID, &line.TicketTypeID, &line.TicketTypeName, &line.Price, &line.Quantity); err != nil {
			return nil, err
		}
		lines[line.OrderID] = append(lines[line.OrderID], line)
	}
	return lines, rows.Err()
}

func (r *Repository) linesTx(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) ([]domain.OrderLine, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, order_id, ticket_type_id, ticket_type_name, price, quantity
		FROM order_lines WHERE order_id = $1 ORDER BY seq
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []domain.OrderLine
	for rows.Next() {
		var line domain.OrderLine
		if err := rows.Scan(&line.ID, &line.OrderID, &line.TicketTypeID, &line.TicketTypeName, &line.Price, &line.Quantity); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}
