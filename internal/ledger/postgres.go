package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists wallet transactions and profile balances in PostgreSQL.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres-backed ledger store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

const txColumns = `id, user_id, kind, amount, method, reference, poll_url, gateway_ref, status, created_at`

// CreateTransaction inserts a wallet transaction row.
func (s *PostgresStore) CreateTransaction(ctx context.Context, tx Transaction) error {
	txID, err := uuid.Parse(tx.ID)
	if err != nil {
		return err
	}
	userID, err := uuid.Parse(tx.UserID)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `INSERT INTO wallet_transactions (id, user_id, kind, amount, method, reference, poll_url, gateway_ref, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		txID, userID, tx.Kind, tx.Amount, tx.Method, tx.Reference, tx.PollURL, tx.GatewayRef, tx.Status, tx.CreatedAt.UTC())
	return err
}

// Transaction fetches a wallet transaction by identifier.
func (s *PostgresStore) Transaction(ctx context.Context, id string) (Transaction, error) {
	txID, err := uuid.Parse(id)
	if err != nil {
		return Transaction{}, ErrNotFound
	}
	row := s.db.QueryRow(ctx, `SELECT `+txColumns+` FROM wallet_transactions WHERE id = $1`, txID)
	return scanTransaction(row)
}

// TransactionByReference fetches a wallet transaction by its correlation reference.
func (s *PostgresStore) TransactionByReference(ctx context.Context, reference string) (Transaction, error) {
	row := s.db.QueryRow(ctx, `SELECT `+txColumns+` FROM wallet_transactions WHERE reference = $1`, reference)
	return scanTransaction(row)
}

// TransactionsByUser returns the most recent transactions for a user.
func (s *PostgresStore) TransactionsByUser(ctx context.Context, userID string, limit int) ([]Transaction, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(ctx, `SELECT `+txColumns+` FROM wallet_transactions
        WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`, uid, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// SetPollURL records the gateway-issued poll URL for a pending transaction.
func (s *PostgresStore) SetPollURL(ctx context.Context, id, pollURL string) error {
	txID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := s.db.Exec(ctx, `UPDATE wallet_transactions SET poll_url = $1 WHERE id = $2`, pollURL, txID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Settle flips a pending transaction to a terminal status. The status check
// is part of the UPDATE itself, so two concurrent settlement attempts cannot
// both succeed; the loser sees zero rows affected and gets won=false.
func (s *PostgresStore) Settle(ctx context.Context, id, status, gatewayRef string) (bool, error) {
	if status != StatusCompleted && status != StatusFailed {
		return false, fmt.Errorf("settle to non-terminal status %q", status)
	}
	txID, err := uuid.Parse(id)
	if err != nil {
		return false, ErrNotFound
	}
	cmd, err := s.db.Exec(ctx, `UPDATE wallet_transactions
        SET status = $2, gateway_ref = COALESCE(NULLIF($3, ''), gateway_ref)
        WHERE id = $1 AND status = $4`, txID, status, gatewayRef, StatusPending)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

// AdjustBalance applies a signed delta to the user's balance in one atomic
// statement. A debit that would push the balance negative affects zero rows
// and returns ErrInsufficientFunds.
func (s *PostgresStore) AdjustBalance(ctx context.Context, userID string, delta int64) (int64, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return 0, err
	}
	var balance int64
	err = s.db.QueryRow(ctx, `UPDATE profiles SET balance = balance + $2
        WHERE id = $1 AND balance + $2 >= 0
        RETURNING balance`, uid, delta).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrInsufficientFunds
		}
		return 0, err
	}
	return balance, nil
}

// Balance returns the stored balance for the user.
func (s *PostgresStore) Balance(ctx context.Context, userID string) (int64, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return 0, err
	}
	var balance int64
	if err := s.db.QueryRow(ctx, `SELECT balance FROM profiles WHERE id = $1`, uid).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("profile %s not found", userID)
		}
		return 0, err
	}
	return balance, nil
}

// FailStalePending fails every pending transaction created before the cutoff
// and returns the affected rows. It reuses the same conditional transition as
// Settle, so it can never race a concurrent webhook into a double flip.
func (s *PostgresStore) FailStalePending(ctx context.Context, cutoff time.Time) ([]Transaction, error) {
	rows, err := s.db.Query(ctx, `UPDATE wallet_transactions SET status = $1
        WHERE status = $2 AND created_at < $3
        RETURNING `+txColumns, StatusFailed, StatusPending, cutoff.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func scanTransaction(row pgx.Row) (Transaction, error) {
	var (
		tx        Transaction
		id        uuid.UUID
		userID    uuid.UUID
		createdAt time.Time
	)
	if err := row.Scan(&id, &userID, &tx.Kind, &tx.Amount, &tx.Method, &tx.Reference, &tx.PollURL, &tx.GatewayRef, &tx.Status, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, ErrNotFound
		}
		return Transaction{}, err
	}
	tx.ID = id.String()
	tx.UserID = userID.String()
	tx.CreatedAt = createdAt.UTC()
	return tx, nil
}
