package proof

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/moosoltadiwa/localpay-connect/internal/ledger"
)

// PostgresStore persists payment proofs in PostgreSQL. Decide runs the
// proof/transaction/balance triad inside one database transaction.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore builds a Postgres-backed proof store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

const proofColumns = `id, user_id, transaction_id, screenshot_url, phone_number, status, admin_notes, created_at`

// Create inserts a proof row.
func (s *PostgresStore) Create(ctx context.Context, p Proof) error {
	id, err := uuid.Parse(p.ID)
	if err != nil {
		return err
	}
	userID, err := uuid.Parse(p.UserID)
	if err != nil {
		return err
	}
	txID, err := uuid.Parse(p.TransactionID)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `INSERT INTO payment_proofs (id, user_id, transaction_id, screenshot_url, phone_number, status, admin_notes, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		id, userID, txID, p.ScreenshotURL, p.PhoneNumber, p.Status, p.AdminNotes, p.CreatedAt.UTC())
	return err
}

// Proof fetches a proof by identifier.
func (s *PostgresStore) Proof(ctx context.Context, id string) (Proof, error) {
	proofID, err := uuid.Parse(id)
	if err != nil {
		return Proof{}, ErrNotFound
	}
	row := s.db.QueryRow(ctx, `SELECT `+proofColumns+` FROM payment_proofs WHERE id = $1`, proofID)
	return scanProof(row)
}

// ProofsByStatus lists proofs for the admin review queue, newest first.
func (s *PostgresStore) ProofsByStatus(ctx context.Context, status string, limit int) ([]Proof, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(ctx, `SELECT `+proofColumns+` FROM payment_proofs
        WHERE ($1 = '' OR status = $1) ORDER BY created_at DESC LIMIT $2`, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var proofs []Proof
	for rows.Next() {
		p, err := scanProof(rows)
		if err != nil {
			return nil, err
		}
		proofs = append(proofs, p)
	}
	return proofs, rows.Err()
}

// Decide applies an admin decision. The proof flip, the linked transaction's
// conditional settle and the balance credit commit together or not at all; a
// transaction found already settled aborts with ErrOutOfSync.
func (s *PostgresStore) Decide(ctx context.Context, id string, approve bool, notes string) (Proof, error) {
	proofID, err := uuid.Parse(id)
	if err != nil {
		return Proof{}, ErrNotFound
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Proof{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	row := tx.QueryRow(ctx, `SELECT `+proofColumns+` FROM payment_proofs WHERE id = $1 FOR UPDATE`, proofID)
	p, err := scanProof(row)
	if err != nil {
		return Proof{}, err
	}
	if p.Status != StatusPending {
		return Proof{}, ErrAlreadyDecided
	}

	newStatus := StatusRejected
	txStatus := ledger.StatusFailed
	if approve {
		newStatus = StatusApproved
		txStatus = ledger.StatusCompleted
	}

	if _, err := tx.Exec(ctx, `UPDATE payment_proofs SET status = $2, admin_notes = $3 WHERE id = $1`,
		proofID, newStatus, notes); err != nil {
		return Proof{}, err
	}

	var (
		amount int64
		userID uuid.UUID
	)
	err = tx.QueryRow(ctx, `UPDATE wallet_transactions SET status = $2
        WHERE id = $1 AND status = $3
        RETURNING amount, user_id`, p.TransactionID, txStatus, ledger.StatusPending).Scan(&amount, &userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Proof{}, ErrOutOfSync
		}
		return Proof{}, err
	}

	if approve {
		if _, err := tx.Exec(ctx, `UPDATE profiles SET balance = balance + $2 WHERE id = $1`, userID, amount); err != nil {
			return Proof{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Proof{}, err
	}

	p.Status = newStatus
	p.AdminNotes = notes
	return p, nil
}

func scanProof(row pgx.Row) (Proof, error) {
	var (
		p         Proof
		id        uuid.UUID
		userID    uuid.UUID
		txID      uuid.UUID
		createdAt time.Time
	)
	if err := row.Scan(&id, &userID, &txID, &p.ScreenshotURL, &p.PhoneNumber, &p.Status, &p.AdminNotes, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Proof{}, ErrNotFound
		}
		return Proof{}, err
	}
	p.ID = id.String()
	p.UserID = userID.String()
	p.TransactionID = txID.String()
	p.CreatedAt = createdAt.UTC()
	return p, nil
}
