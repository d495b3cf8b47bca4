package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists orders in the orders table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore builds a Postgres-backed order store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Create(ctx context.Context, o Order) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO orders (id, user_id, service_name, link, quantity, charge, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		o.ID, o.UserID, o.ServiceName, o.Link, o.Quantity, o.Charge, o.Status, o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (s *PostgresStore) Order(ctx context.Context, id string) (Order, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, user_id, service_name, link, quantity, charge, status, created_at
		FROM orders WHERE id = $1`, id)
	return scanOrder(row)
}

func (s *PostgresStore) OrdersByUser(ctx context.Context, userID string, limit int) ([]Order, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, service_name, link, quantity, charge, status, created_at
		FROM orders WHERE user_id = $1
		ORDER BY created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (s *PostgresStore) MarkRefunded(ctx context.Context, id string) (Order, bool, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE orders SET status = $2
		WHERE id = $1 AND status <> $2
		RETURNING id, user_id, service_name, link, quantity, charge, status, created_at`,
		id, StatusRefunded)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Either the order does not exist or it is already refunded.
			existing, lookupErr := s.Order(ctx, id)
			if lookupErr != nil {
				return Order{}, false, lookupErr
			}
			return existing, false, nil
		}
		return Order{}, false, err
	}
	return o, true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.UserID, &o.ServiceName, &o.Link, &o.Quantity, &o.Charge, &o.Status, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, fmt.Errorf("scan order: %w", err)
	}
	return o, nil
}
