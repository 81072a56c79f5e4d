/**
 * @description
 * This file provides the PostgreSQL implementation of the Store interface. Every record
 * is one row of `ledger_records`, keyed by collection and ordered by a BIGSERIAL, with the
 * record body held as JSONB.
 *
 * @dependencies
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 */

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ledgerWriteLockKey is the advisory lock every Update holds, making writers single-file.
const ledgerWriteLockKey int64 = 0x6c6564676572

const ledgerRecordsSchema = `
CREATE TABLE IF NOT EXISTS ledger_records (
	seq        BIGSERIAL PRIMARY KEY,
	collection TEXT NOT NULL,
	id         TEXT NOT NULL,
	data       JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS ledger_records_collection_id_idx ON ledger_records (collection, id);
`

// PostgresStore is a concrete implementation of the Store interface for PostgreSQL.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates a new instance of PostgresStore.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the records table if it does not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, ledgerRecordsSchema); err != nil {
		return fmt.Errorf("ensure ledger_records schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) View(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(&pgTx{ctx: ctx, tx: tx, readOnly: true}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) Update(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", ledgerWriteLockKey); err != nil {
		return fmt.Errorf("acquire ledger write lock: %w", err)
	}
	if err := fn(&pgTx{ctx: ctx, tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}

type pgTx struct {
	ctx      context.Context
	tx       pgx.Tx
	readOnly bool
}

func (t *pgTx) ReadAll(c Collection) ([]json.RawMessage, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	rows, err := t.tx.Query(t.ctx, "SELECT data FROM ledger_records WHERE collection = $1 ORDER BY seq", string(c))
	if err != nil {
		return nil, fmt.Errorf("query collection %s: %w", c, err)
	}
	defer rows.Close()

	records := []json.RawMessage{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan collection %s: %w", c, err)
		}
		records = append(records, json.RawMessage(data))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate collection %s: %w", c, err)
	}
	return records, nil
}

func (t *pgTx) Append(c Collection, record json.RawMessage) error {
	if t.readOnly {
		return ErrReadOnly
	}
	if err := c.validate(); err != nil {
		return err
	}
	id, err := recordID(record)
	if err != nil {
		return err
	}
	_, err = t.tx.Exec(t.ctx,
		"INSERT INTO ledger_records (collection, id, data) VALUES ($1, $2, $3::jsonb)",
		string(c), id, string(record),
	)
	if err != nil {
		return fmt.Errorf("insert into %s: %w", c, err)
	}
	return nil
}

func (t *pgTx) UpdateByID(c Collection, id string, fields map[string]interface{}) (json.RawMessage, error) {
	if t.readOnly {
		return nil, ErrReadOnly
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	patch, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode patch: %w", err)
	}

	// jsonb || is a shallow merge, matching the file driver.
	var data []byte
	err = t.tx.QueryRow(t.ctx, `
		UPDATE ledger_records SET data = data || $3::jsonb
		WHERE seq = (
			SELECT seq FROM ledger_records
			WHERE collection = $1 AND id = $2
			ORDER BY seq LIMIT 1
		)
		RETURNING data`,
		string(c), id, string(patch),
	).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("update %s record: %w", c, err)
	}
	return json.RawMessage(data), nil
}

func (t *pgTx) DeleteByID(c Collection, id string) (bool, error) {
	if t.readOnly {
		return false, ErrReadOnly
	}
	if err := c.validate(); err != nil {
		return false, err
	}
	tag, err := t.tx.Exec(t.ctx, "DELETE FROM ledger_records WHERE collection = $1 AND id = $2", string(c), id)
	if err != nil {
		return false, fmt.Errorf("delete %s record: %w", c, err)
	}
	return tag.RowsAffected() > 0, nil
}
