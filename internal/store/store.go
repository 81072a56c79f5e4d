/**
 * @description
 * This package is the data access layer for the ledger-service. Records live in named
 * collections; each record is a JSON object with a string `id`. Two drivers implement
 * the Store interface: a JSON file store (one array file per collection) and a
 * PostgreSQL store (one JSONB row per record).
 *
 * @notes
 * - All access goes through View/Update. Update calls are serialised, and their writes
 *   become visible only if the callback returns nil.
 * - Collections keep insertion order. Ids are not checked for uniqueness; UpdateByID
 *   touches the first match and DeleteByID removes every match.
 */

package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
)

var (
	// ErrRecordNotFound is returned when no record in the collection has the requested id.
	ErrRecordNotFound = errors.New("record not found")
	// ErrReadOnly is returned when a write is attempted inside View.
	ErrReadOnly = errors.New("write attempted in read-only transaction")
	// ErrInvalidCollection is returned for collection names outside [a-z0-9-]+.
	ErrInvalidCollection = errors.New("invalid collection name")
	// ErrInvalidRecord is returned when a record is not a JSON object with a string id.
	ErrInvalidRecord = errors.New("record must be a JSON object with a string id")
)

// Collection names a record collection.
type Collection string

const (
	Users              Collection = "users"
	Businesses         Collection = "businesses"
	BankAccounts       Collection = "bank-accounts"
	Cheques            Collection = "cheques"
	Customers          Collection = "customers"
	Invoices           Collection = "invoices"
	Suppliers          Collection = "suppliers"
	PurchaseOrders     Collection = "purchase-orders"
	CreditAccounts     Collection = "credit-accounts"
	CreditTransactions Collection = "credit-transactions"
)

// AllCollections lists every collection the service writes.
var AllCollections = []Collection{
	Users,
	Businesses,
	BankAccounts,
	Cheques,
	Customers,
	Invoices,
	Suppliers,
	PurchaseOrders,
	CreditAccounts,
	CreditTransactions,
}

var collectionNamePattern = regexp.MustCompile(`^[a-z0-9-]+$`)

func (c Collection) validate() error {
	if !collectionNamePattern.MatchString(string(c)) {
		return fmt.Errorf("%w: %q", ErrInvalidCollection, string(c))
	}
	return nil
}

// Tx exposes the record operations inside a View or Update callback.
type Tx interface {
	// ReadAll returns the collection in insertion order, or an empty slice if it was never written.
	ReadAll(collection Collection) ([]json.RawMessage, error)
	// Append adds a record to the end of the collection.
	Append(collection Collection, record json.RawMessage) error
	// UpdateByID shallow-merges fields into the first record with the id and returns the result.
	UpdateByID(collection Collection, id string, fields map[string]interface{}) (json.RawMessage, error)
	// DeleteByID removes every record with the id and reports whether any were removed.
	DeleteByID(collection Collection, id string) (bool, error)
}

// Store is implemented by the record store drivers.
type Store interface {
	View(ctx context.Context, fn func(tx Tx) error) error
	Update(ctx context.Context, fn func(tx Tx) error) error
	Close() error
}

type idProbe struct {
	ID *string `json:"id"`
}

// recordID extracts the id of a raw record.
func recordID(record json.RawMessage) (string, error) {
	var probe idProbe
	if err := json.Unmarshal(record, &probe); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if probe.ID == nil {
		return "", ErrInvalidRecord
	}
	return *probe.ID, nil
}

// mergeFields applies a shallow merge of fields over record.
func mergeFields(record json.RawMessage, fields map[string]interface{}) (json.RawMessage, error) {
	var doc map[string]interface{}
	decoder := json.NewDecoder(bytes.NewReader(record))
	decoder.UseNumber()
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	for key, value := range fields {
		doc[key] = value
	}
	merged, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return merged, nil
}
