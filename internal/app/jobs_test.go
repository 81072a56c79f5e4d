package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ledgerdesk/ledger-service/internal/config"
	"github.com/ledgerdesk/ledger-service/internal/domain"
	"github.com/ledgerdesk/ledger-service/internal/store"
)

func newTestJobs(st store.Store, snapshotDir string, now time.Time) *Jobs {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	jobs := NewJobs(st, logger, snapshotDir)
	jobs.now = func() time.Time { return now }
	return jobs
}

func TestSnapshotCollections(t *testing.T) {
	svc, _, st := newTestService(t)
	userID := mustRegister(t, svc, "a@x.com")
	mustBusiness(t, svc, userID, "Shop")

	snapshotDir := t.TempDir()
	jobs := newTestJobs(st, snapshotDir, testNow)
	jobs.SnapshotCollections()

	dir := filepath.Join(snapshotDir, "20240315T100000Z")
	for _, c := range store.AllCollections {
		if _, err := os.Stat(filepath.Join(dir, string(c)+".json")); err != nil {
			t.Fatalf("expected snapshot file for %s: %v", c, err)
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, "businesses.json"))
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	var businesses []domain.Business
	if err := json.Unmarshal(data, &businesses); err != nil {
		t.Fatalf("snapshot is not a JSON array: %v", err)
	}
	if len(businesses) != 1 || businesses[0].Name != "Shop" {
		t.Fatalf("unexpected snapshot contents: %+v", businesses)
	}
}

func TestMarkOverdueInvoices(t *testing.T) {
	svc, _, st := newTestService(t)
	ctx := context.Background()
	userID := mustRegister(t, svc, "a@x.com")
	businessID := mustBusiness(t, svc, userID, "Shop")
	customerID := mustCustomer(t, svc, userID, businessID, "bob")

	// Due 2024-03-31 for every sample invoice.
	sent := mustInvoice(t, svc, userID, businessID, customerID, "INV-001")
	draft := mustInvoice(t, svc, userID, businessID, customerID, "INV-002")
	if _, err := svc.UpdateInvoiceStatus(ctx, userID, sent.ID, "sent"); err != nil {
		t.Fatalf("UpdateInvoiceStatus returned error: %v", err)
	}

	onDueDate := newTestJobs(st, t.TempDir(), time.Date(2024, time.March, 31, 12, 0, 0, 0, time.UTC))
	if n, err := onDueDate.markOverdue(ctx); err != nil || n != 0 {
		t.Fatalf("expected nothing overdue on the due date, got %d (%v)", n, err)
	}

	after := newTestJobs(st, t.TempDir(), time.Date(2024, time.April, 1, 0, 30, 0, 0, time.UTC))
	after.MarkOverdueInvoices()

	got, err := svc.GetInvoice(ctx, userID, sent.ID)
	if err != nil {
		t.Fatalf("GetInvoice returned error: %v", err)
	}
	if got.Status != domain.InvoiceOverdue {
		t.Fatalf("expected sent invoice to be overdue, got %s", got.Status)
	}
	untouched, err := svc.GetInvoice(ctx, userID, draft.ID)
	if err != nil {
		t.Fatalf("GetInvoice returned error: %v", err)
	}
	if untouched.Status != domain.InvoiceDraft {
		t.Fatalf("expected draft invoice to stay draft, got %s", untouched.Status)
	}
}

func TestPastDue(t *testing.T) {
	tests := []struct {
		due  string
		want bool
	}{
		{"2024-03-14", true},
		{"2024-03-15", false},
		{"2024-04-01", false},
		{"not-a-date", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := pastDue(tt.due, "2024-03-15"); got != tt.want {
			t.Errorf("pastDue(%q) = %v, want %v", tt.due, got, tt.want)
		}
	}
}

func TestSchedulerRegistersEnabledJobs(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	jobs := newTestJobs(nil, t.TempDir(), testNow)

	cfg := config.Config{SnapshotJobSchedule: "0 3 * * *", OverdueSweepSchedule: "0 1 * * *"}
	scheduler := NewScheduler(jobs, logger, cfg)
	if got := scheduler.Start(); got != 1 {
		t.Fatalf("expected only the snapshot job with the sweep disabled, got %d", got)
	}
	<-scheduler.Stop().Done()

	cfg.OverdueSweepEnabled = true
	scheduler = NewScheduler(jobs, logger, cfg)
	if got := scheduler.Start(); got != 2 {
		t.Fatalf("expected both jobs with the sweep enabled, got %d", got)
	}
	<-scheduler.Stop().Done()

	bad := NewScheduler(jobs, logger, config.Config{SnapshotJobSchedule: "not a schedule"})
	if got := bad.Start(); got != 0 {
		t.Fatalf("expected an invalid schedule to be skipped, got %d", got)
	}
	<-bad.Stop().Done()
}
