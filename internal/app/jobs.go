/**
 * @description
 * Scheduled job implementations for the ledger-service: periodic snapshots of every
 * record collection and the optional overdue-invoice sweep.
 */
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ledgerdesk/ledger-service/internal/domain"
	"github.com/ledgerdesk/ledger-service/internal/store"
)

const snapshotStampLayout = "20060102T150405Z"

// Jobs contains the logic for all scheduled tasks.
type Jobs struct {
	store       store.Store
	logger      *slog.Logger
	snapshotDir string
	now         func() time.Time
}

// NewJobs creates a new Jobs runner.
func NewJobs(st store.Store, logger *slog.Logger, snapshotDir string) *Jobs {
	return &Jobs{
		store:       st,
		logger:      logger,
		snapshotDir: snapshotDir,
		now:         time.Now,
	}
}

// SnapshotCollections copies every collection into a timestamped directory under the
// snapshot dir. The copy is taken from a single read, so it is consistent.
func (j *Jobs) SnapshotCollections() {
	j.logger.Info("starting collection snapshot job")

	dir, err := j.writeSnapshot(context.Background())
	if err != nil {
		j.logger.Error("failed to snapshot collections", "error", err)
		return
	}

	j.logger.Info("collection snapshot job finished", "dir", dir)
}

func (j *Jobs) writeSnapshot(ctx context.Context) (string, error) {
	contents := make(map[store.Collection][]json.RawMessage, len(store.AllCollections))
	err := j.store.View(ctx, func(tx store.Tx) error {
		for _, c := range store.AllCollections {
			records, err := tx.ReadAll(c)
			if err != nil {
				return err
			}
			contents[c] = records
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	dir := filepath.Join(j.snapshotDir, j.now().UTC().Format(snapshotStampLayout))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}
	for _, c := range store.AllCollections {
		data, err := json.MarshalIndent(contents[c], "", "  ")
		if err != nil {
			return "", fmt.Errorf("encode %s: %w", c, err)
		}
		if err := os.WriteFile(filepath.Join(dir, string(c)+".json"), data, 0o644); err != nil {
			return "", fmt.Errorf("write %s snapshot: %w", c, err)
		}
	}
	return dir, nil
}

// MarkOverdueInvoices flips sent invoices whose due date has passed to overdue.
func (j *Jobs) MarkOverdueInvoices() {
	j.logger.Info("starting overdue invoice job")

	count, err := j.markOverdue(context.Background())
	if err != nil {
		j.logger.Error("failed to mark overdue invoices", "error", err)
		return
	}
	if count == 0 {
		j.logger.Info("no overdue invoices to process")
		return
	}

	j.logger.Info("overdue invoice job finished", "count", count)
}

func (j *Jobs) markOverdue(ctx context.Context) (int, error) {
	today := j.now().UTC().Format(domain.DateLayout)

	count := 0
	err := j.store.Update(ctx, func(tx store.Tx) error {
		due, err := store.Filter(tx, store.Invoices, func(inv domain.Invoice) bool {
			return inv.Status == domain.InvoiceSent && pastDue(inv.DueDate, today)
		})
		if err != nil {
			return err
		}
		for _, inv := range due {
			if _, err := tx.UpdateByID(store.Invoices, inv.ID, map[string]interface{}{
				"status": domain.InvoiceOverdue,
			}); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// pastDue compares YYYY-MM-DD dates. Unparseable due dates are never overdue.
func pastDue(dueDate, today string) bool {
	if _, err := time.Parse(domain.DateLayout, dueDate); err != nil {
		return false
	}
	return dueDate < today
}
