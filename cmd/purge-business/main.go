/**
 * @description
 * Script to delete a business and every ledger record beneath it: bank accounts and
 * their cheques, customers, invoices, suppliers, purchase orders, credit accounts and
 * their transactions. Use it to clean up test tenants.
 *
 * Usage:
 *   go run ./cmd/purge-business <business-id>
 *   go run ./cmd/purge-business -yes <business-id>
 *
 * @dependencies
 * - github.com/joho/godotenv: Loads .env before the service configuration is read.
 * - Environment variables: STORE_DRIVER, DATA_DIR, DATABASE_URL
 */

package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/ledgerdesk/ledger-service/internal/app"
	"github.com/ledgerdesk/ledger-service/internal/auth"
	"github.com/ledgerdesk/ledger-service/internal/config"
	"github.com/ledgerdesk/ledger-service/internal/domain"
	"github.com/ledgerdesk/ledger-service/internal/store"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			os.Exit(1)
		}
		log.Fatalf("%v", err)
	}
}

var errUsage = errors.New("usage")

// run returns instead of exiting so the record store is always closed.
func run(args []string, in io.Reader, out io.Writer) error {
	flags := flag.NewFlagSet("purge-business", flag.ContinueOnError)
	flags.SetOutput(out)
	assumeYes := flags.Bool("yes", false, "skip the confirmation prompt")
	if err := flags.Parse(args); err != nil || flags.NArg() != 1 {
		fmt.Fprintln(out, "Usage: go run ./cmd/purge-business [-yes] <business-id>")
		return errUsage
	}
	businessID := strings.TrimSpace(flags.Arg(0))

	// Load environment variables from .env files if they exist.
	_ = godotenv.Load("../.env")
	_ = godotenv.Load(".env")

	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	recordStore, err := store.Open(ctx, store.Options{
		Driver:      cfg.StoreDriver,
		DataDir:     cfg.DataDir,
		DatabaseURL: cfg.DatabaseURL,
	})
	if err != nil {
		return fmt.Errorf("failed to open record store: %w", err)
	}
	defer recordStore.Close()

	business, err := findBusiness(ctx, recordStore, businessID)
	if err != nil {
		return fmt.Errorf("failed to fetch business: %w", err)
	}

	fmt.Fprintf(out, "Business Details:\n")
	fmt.Fprintf(out, "  ID: %s\n", business.ID)
	fmt.Fprintf(out, "  Name: %s\n", business.Name)
	fmt.Fprintf(out, "  Type: %s\n", business.Type)
	fmt.Fprintf(out, "  Owner: %s\n", business.UserID)

	if !*assumeYes && !confirm(in, out) {
		fmt.Fprintln(out, "Deletion cancelled.")
		return nil
	}

	// PurgeBusiness never issues tokens.
	tokens, err := auth.NewTokenManager("purge-business", time.Minute)
	if err != nil {
		return fmt.Errorf("failed to init token manager: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	service := app.NewService(recordStore, tokens, nil, cfg.LedgerEventExchange, logger)

	fmt.Fprintf(out, "Deleting business %s...\n", businessID)
	report, err := service.PurgeBusiness(ctx, businessID)
	if err != nil {
		return fmt.Errorf("failed to delete business: %w", err)
	}

	collections := make([]string, 0, len(report.Removed))
	for c := range report.Removed {
		collections = append(collections, string(c))
	}
	sort.Strings(collections)
	for _, c := range collections {
		fmt.Fprintf(out, "  %-20s %d\n", c, report.Removed[store.Collection(c)])
	}
	fmt.Fprintf(out, "Successfully deleted business %s\n", businessID)
	return nil
}

func findBusiness(ctx context.Context, st store.Store, businessID string) (*domain.Business, error) {
	var business *domain.Business
	err := st.View(ctx, func(tx store.Tx) error {
		var err error
		business, err = store.FindByID[domain.Business](tx, store.Businesses, businessID)
		return err
	})
	return business, err
}

// confirm asks for an explicit "yes".
func confirm(in io.Reader, out io.Writer) bool {
	fmt.Fprint(out, "\nAre you sure you want to delete this business and all its records? (yes/no): ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	return strings.TrimSpace(line) == "yes"
}
