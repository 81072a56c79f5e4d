package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/gofrs/flock"
)

// lockFileName sits next to the collection files and is shared by every process that
// opens the same directory.
const lockFileName = ".lock"

// FileStore keeps each collection in <dir>/<collection>.json as a JSON array. A mutex
// serialises transactions within the process and a lock file serialises writers across
// processes. Cached collections are reused only while the file on disk is unchanged.
type FileStore struct {
	mu    sync.Mutex
	dir   string
	lock  *flock.Flock
	cache map[Collection]cachedCollection
}

type cachedCollection struct {
	records []json.RawMessage
	info    os.FileInfo // nil when the file did not exist
}

// NewFileStore opens (and creates if needed) a file store rooted at dir.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileStore{
		dir:   dir,
		lock:  flock.New(filepath.Join(dir, lockFileName)),
		cache: make(map[Collection]cachedCollection),
	}, nil
}

// Dir returns the directory holding the collection files.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) View(ctx context.Context, fn func(tx Tx) error) error {
	return s.run(ctx, true, fn)
}

func (s *FileStore) Update(ctx context.Context, fn func(tx Tx) error) error {
	return s.run(ctx, false, fn)
}

func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lock.Close()
}

func (s *FileStore) run(ctx context.Context, readOnly bool, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lockFn := s.lock.Lock
	if readOnly {
		lockFn = s.lock.RLock
	}
	if err := lockFn(); err != nil {
		return fmt.Errorf("lock data dir: %w", err)
	}
	defer s.lock.Unlock()

	tx := &fileTx{
		store:    s,
		readOnly: readOnly,
		working:  make(map[Collection][]json.RawMessage),
		dirty:    make(map[Collection]bool),
	}
	if err := fn(tx); err != nil {
		return err
	}
	if readOnly || len(tx.dirty) == 0 {
		return nil
	}
	// A request that was cancelled mid-flight must not commit.
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.commit(tx)
}

// load returns the collection, reading it from disk when the cached copy is missing or
// the file changed since it was cached. Callers must hold s.mu and the lock file.
func (s *FileStore) load(c Collection) ([]json.RawMessage, error) {
	info, err := os.Stat(s.path(c))
	if errors.Is(err, os.ErrNotExist) {
		info = nil
	} else if err != nil {
		return nil, fmt.Errorf("stat collection %s: %w", c, err)
	}
	if cached, ok := s.cache[c]; ok && sameVersion(cached.info, info) {
		return cached.records, nil
	}
	if info == nil {
		s.cache[c] = cachedCollection{records: []json.RawMessage{}}
		return s.cache[c].records, nil
	}

	data, err := os.ReadFile(s.path(c))
	if err != nil {
		return nil, fmt.Errorf("read collection %s: %w", c, err)
	}

	records := []json.RawMessage{}
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("decode collection %s: %w", c, err)
		}
	}
	s.cache[c] = cachedCollection{records: records, info: info}
	return records, nil
}

// sameVersion reports whether two stats describe the same file contents. Commits replace
// the file by rename, so any write by another store changes the file identity.
func sameVersion(a, b os.FileInfo) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return os.SameFile(a, b) && a.Size() == b.Size() && a.ModTime().Equal(b.ModTime())
}

// commit writes every dirty collection to a temp file first and only then renames them
// into place, so a failed encode or fsync leaves all collection files untouched.
func (s *FileStore) commit(tx *fileTx) error {
	names := make([]Collection, 0, len(tx.dirty))
	for c := range tx.dirty {
		names = append(names, c)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	temps := make(map[Collection]string, len(names))
	cleanup := func() {
		for _, tmp := range temps {
			_ = os.Remove(tmp)
		}
	}

	for _, c := range names {
		tmp, err := s.writeTemp(c, tx.working[c])
		if err != nil {
			cleanup()
			return err
		}
		temps[c] = tmp
	}

	for _, c := range names {
		if err := os.Rename(temps[c], s.path(c)); err != nil {
			cleanup()
			return fmt.Errorf("replace collection %s: %w", c, err)
		}
		delete(temps, c)
		if info, err := os.Stat(s.path(c)); err == nil {
			s.cache[c] = cachedCollection{records: tx.working[c], info: info}
		} else {
			delete(s.cache, c)
		}
	}
	return nil
}

func (s *FileStore) writeTemp(c Collection, records []json.RawMessage) (string, error) {
	if records == nil {
		records = []json.RawMessage{}
	}

	f, err := os.CreateTemp(s.dir, "."+string(c)+"-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file for %s: %w", c, err)
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("encode collection %s: %w", c, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("sync collection %s: %w", c, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("close collection %s: %w", c, err)
	}
	return f.Name(), nil
}

func (s *FileStore) path(c Collection) string {
	return filepath.Join(s.dir, string(c)+".json")
}

// fileTx stages changes in copies of the touched collections.
type fileTx struct {
	store    *FileStore
	readOnly bool
	working  map[Collection][]json.RawMessage
	dirty    map[Collection]bool
}

func (tx *fileTx) collection(c Collection) ([]json.RawMessage, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	if records, ok := tx.working[c]; ok {
		return records, nil
	}
	loaded, err := tx.store.load(c)
	if err != nil {
		return nil, err
	}
	// Raw records are never mutated in place, so a shallow copy isolates the transaction.
	records := make([]json.RawMessage, len(loaded))
	copy(records, loaded)
	tx.working[c] = records
	return records, nil
}

func (tx *fileTx) ReadAll(c Collection) ([]json.RawMessage, error) {
	records, err := tx.collection(c)
	if err != nil {
		return nil, err
	}
	out := make([]json.RawMessage, len(records))
	copy(out, records)
	return out, nil
}

func (tx *fileTx) Append(c Collection, record json.RawMessage) error {
	if tx.readOnly {
		return ErrReadOnly
	}
	if _, err := recordID(record); err != nil {
		return err
	}
	records, err := tx.collection(c)
	if err != nil {
		return err
	}
	owned := make(json.RawMessage, len(record))
	copy(owned, record)
	tx.working[c] = append(records, owned)
	tx.dirty[c] = true
	return nil
}

func (tx *fileTx) UpdateByID(c Collection, id string, fields map[string]interface{}) (json.RawMessage, error) {
	if tx.readOnly {
		return nil, ErrReadOnly
	}
	records, err := tx.collection(c)
	if err != nil {
		return nil, err
	}
	for i, record := range records {
		recID, err := recordID(record)
		if err != nil || recID != id {
			continue
		}
		merged, err := mergeFields(record, fields)
		if err != nil {
			return nil, err
		}
		records[i] = merged
		tx.dirty[c] = true
		return merged, nil
	}
	return nil, ErrRecordNotFound
}

func (tx *fileTx) DeleteByID(c Collection, id string) (bool, error) {
	if tx.readOnly {
		return false, ErrReadOnly
	}
	records, err := tx.collection(c)
	if err != nil {
		return false, err
	}
	kept := make([]json.RawMessage, 0, len(records))
	for _, record := range records {
		if recID, err := recordID(record); err == nil && recID == id {
			continue
		}
		kept = append(kept, record)
	}
	if len(kept) == len(records) {
		return false, nil
	}
	tx.working[c] = kept
	tx.dirty[c] = true
	return true, nil
}
