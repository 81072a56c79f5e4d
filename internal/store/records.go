package store

import (
	"encoding/json"
	"fmt"
)

// ReadAll decodes every record of a collection into T.
func ReadAll[T any](tx Tx, c Collection) ([]T, error) {
	raw, err := tx.ReadAll(c)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(raw))
	for _, record := range raw {
		var item T
		if err := json.Unmarshal(record, &item); err != nil {
			return nil, fmt.Errorf("decode %s record: %w", c, err)
		}
		out = append(out, item)
	}
	return out, nil
}

// Filter returns the records of a collection that satisfy keep, in insertion order.
func Filter[T any](tx Tx, c Collection, keep func(T) bool) ([]T, error) {
	all, err := ReadAll[T](tx, c)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(all))
	for _, item := range all {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out, nil
}

// FindByID decodes the first record with the given id.
func FindByID[T any](tx Tx, c Collection, id string) (*T, error) {
	raw, err := tx.ReadAll(c)
	if err != nil {
		return nil, err
	}
	for _, record := range raw {
		recID, err := recordID(record)
		if err != nil || recID != id {
			continue
		}
		var item T
		if err := json.Unmarshal(record, &item); err != nil {
			return nil, fmt.Errorf("decode %s record: %w", c, err)
		}
		return &item, nil
	}
	return nil, ErrRecordNotFound
}

// Append encodes record and appends it to the collection.
func Append[T any](tx Tx, c Collection, record T) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode %s record: %w", c, err)
	}
	return tx.Append(c, raw)
}

// UpdateByID merges fields into the first record with the id and decodes the result.
func UpdateByID[T any](tx Tx, c Collection, id string, fields map[string]interface{}) (*T, error) {
	raw, err := tx.UpdateByID(c, id, fields)
	if err != nil {
		return nil, err
	}
	var item T
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, fmt.Errorf("decode %s record: %w", c, err)
	}
	return &item, nil
}

// DeleteWhere removes every record of T that matches drop and returns the removed ids.
func DeleteWhere[T any](tx Tx, c Collection, idOf func(T) string, drop func(T) bool) ([]string, error) {
	matches, err := Filter[T](tx, c, drop)
	if err != nil {
		return nil, err
	}
	removed := make([]string, 0, len(matches))
	seen := make(map[string]bool, len(matches))
	for _, item := range matches {
		id := idOf(item)
		if seen[id] {
			continue
		}
		seen[id] = true
		if _, err := tx.DeleteByID(c, id); err != nil {
			return nil, err
		}
		removed = append(removed, id)
	}
	return removed, nil
}
