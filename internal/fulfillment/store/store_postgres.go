package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"namecart/internal/fulfillment/models"
	"namecart/internal/fulfillment/ports"
	"namecart/pkg/platform/sentinel"
	txcontext "namecart/pkg/platform/tx"
)

const operationColumns = `domain_name, wallet_address, operation_id, status, needs_transfer,
	refund_status, payment_reference, version, created_at, last_updated`

// errLostInsertRace means another writer created the row between our locking
// read and the insert. Update retries once, after which the row exists and is
// locked normally.
var errLostInsertRace = errors.New("lost insert race")

// PostgresStore persists DomainOperations in domain_operations. Update holds
// the row lock for the duration of fn and appends change events to the outbox
// in the same transaction.
type PostgresStore struct {
	pool   *pgxpool.Pool
	outbox Outbox
	now    func() time.Time
}

type PostgresOption func(*PostgresStore)

func WithOutbox(o Outbox) PostgresOption {
	return func(s *PostgresStore) { s.outbox = o }
}

func NewPostgresStore(pool *pgxpool.Pool, opts ...PostgresOption) *PostgresStore {
	s := &PostgresStore{pool: pool, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *PostgresStore) Get(ctx context.Context, key models.Key) (*models.DomainOperation, error) {
	row := txcontext.ExecutorFor(ctx, s.pool).QueryRow(ctx,
		`SELECT `+operationColumns+` FROM domain_operations
		WHERE domain_name = $1 AND wallet_address = $2`,
		key.Domain, key.Wallet,
	)
	rec, err := scanOperation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get operation %s: %w", key, err)
	}
	return rec, nil
}

func (s *PostgresStore) Update(ctx context.Context, key models.Key, fn ports.MutateFunc) (*models.DomainOperation, error) {
	var (
		out *models.DomainOperation
		err error
	)
	for attempt := 0; attempt < 2; attempt++ {
		out, err = s.update(ctx, key, fn)
		if !errors.Is(err, errLostInsertRace) {
			return out, err
		}
	}
	return nil, fmt.Errorf("update operation %s: %w", key, sentinel.ErrConflict)
}

func (s *PostgresStore) update(ctx context.Context, key models.Key, fn ports.MutateFunc) (*models.DomainOperation, error) {
	var out *models.DomainOperation
	err := txcontext.Run(ctx, s.pool, func(ctx context.Context) error {
		exec := txcontext.ExecutorFor(ctx, s.pool)

		current, err := scanOperation(exec.QueryRow(ctx,
			`SELECT `+operationColumns+` FROM domain_operations
			WHERE domain_name = $1 AND wallet_address = $2
			FOR UPDATE`,
			key.Domain, key.Wallet,
		))
		if err != nil {
			if !errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("lock operation %s: %w", key, err)
			}
			current = nil
		}

		var arg *models.DomainOperation
		if current != nil {
			cp := *current
			arg = &cp
		}
		next, err := fn(arg)
		if err != nil {
			return err
		}
		if next == nil {
			out = current
			return nil
		}
		now := s.now()
		if err := prepare(key, current, next, now); err != nil {
			return err
		}

		if current == nil {
			tag, err := exec.Exec(ctx, `
				INSERT INTO domain_operations (`+operationColumns+`)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
				ON CONFLICT (domain_name, wallet_address) DO NOTHING`,
				next.DomainName, next.WalletAddress, next.OperationID, string(next.Status), next.NeedsTransfer,
				next.RefundStatus, next.PaymentReference, next.Version, next.CreatedAt, next.LastUpdated,
			)
			if err != nil {
				return fmt.Errorf("insert operation %s: %w", key, err)
			}
			if tag.RowsAffected() == 0 {
				return errLostInsertRace
			}
		} else {
			_, err := exec.Exec(ctx, `
				UPDATE domain_operations SET
					operation_id = $3, status = $4, needs_transfer = $5, refund_status = $6,
					payment_reference = $7, version = $8, last_updated = $9
				WHERE domain_name = $1 AND wallet_address = $2`,
				key.Domain, key.Wallet, next.OperationID, string(next.Status), next.NeedsTransfer,
				next.RefundStatus, next.PaymentReference, next.Version, next.LastUpdated,
			)
			if err != nil {
				return fmt.Errorf("update operation %s: %w", key, err)
			}
		}

		if s.outbox != nil {
			e, ok, err := changeEvent(current, *next, now)
			if err != nil {
				return err
			}
			if ok {
				if err := s.outbox.Append(ctx, e); err != nil {
					return err
				}
			}
		}
		out = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) ListByWallet(ctx context.Context, wallet string) ([]models.DomainOperation, error) {
	rows, err := txcontext.ExecutorFor(ctx, s.pool).Query(ctx,
		`SELECT `+operationColumns+` FROM domain_operations
		WHERE wallet_address = $1
		ORDER BY created_at, domain_name`,
		wallet,
	)
	if err != nil {
		return nil, fmt.Errorf("list operations for %s: %w", wallet, err)
	}
	defer rows.Close()

	out := make([]models.DomainOperation, 0)
	for rows.Next() {
		rec, err := scanOperation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan operation: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func (s *PostgresStore) FindByOperationID(ctx context.Context, operationID string) (*models.DomainOperation, error) {
	if operationID == "" {
		return nil, sentinel.ErrNotFound
	}
	rec, err := scanOperation(txcontext.ExecutorFor(ctx, s.pool).QueryRow(ctx,
		`SELECT `+operationColumns+` FROM domain_operations
		WHERE operation_id = $1
		ORDER BY last_updated DESC
		LIMIT 1`,
		operationID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find operation %s: %w", operationID, err)
	}
	return rec, nil
}

func (s *PostgresStore) ListPendingWallets(ctx context.Context, after string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = math.MaxInt32
	}
	rows, err := txcontext.ExecutorFor(ctx, s.pool).Query(ctx, `
		SELECT DISTINCT wallet_address FROM domain_operations
		WHERE wallet_address > $1
		  AND ((status IN ('PENDING', 'PROCESSING', 'QUEUED') AND operation_id <> '')
		    OR status = 'FAILED'
		    OR (status = 'COMPLETED' AND needs_transfer))
		ORDER BY wallet_address
		LIMIT $2`, after, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending wallets: %w", err)
	}
	defer rows.Close()

	var wallets []string
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, fmt.Errorf("scan wallet: %w", err)
		}
		wallets = append(wallets, w)
	}
	return wallets, rows.Err()
}

func scanOperation(row pgx.Row) (*models.DomainOperation, error) {
	var (
		rec    models.DomainOperation
		status string
	)
	if err := row.Scan(
		&rec.DomainName, &rec.WalletAddress, &rec.OperationID, &status, &rec.NeedsTransfer,
		&rec.RefundStatus, &rec.PaymentReference, &rec.Version, &rec.CreatedAt, &rec.LastUpdated,
	); err != nil {
		return nil, err
	}
	rec.Status = models.OperationStatus(status)
	return &rec, nil
}
