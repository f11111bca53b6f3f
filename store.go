package quotes

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/shopspring/decimal"
)

// Record is one cached symbol: the last known price and when it was observed.
// LastTimestamp keeps whatever stamp the original resolution carried, so a
// cache fallback is honest about its age.
type Record struct {
	Symbol        string          `json:"symbol"`
	Name          string          `json:"name"`
	LastPrice     decimal.Decimal `json:"last_price"`
	LastTimestamp string          `json:"last_timestamp"`
}

// MarshalJSON keeps the field order stable so cache files diff cleanly.
func (r Record) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("symbol", r.Symbol)
	w.Append("name", r.Name)
	w.Append("last_price", r.LastPrice)
	w.Append("last_timestamp", r.LastTimestamp)
	return w.MarshalJSON()
}

// lockWait bounds how long a save waits for the advisory file lock before
// giving up with ErrNotPersisted.
const lockWait = 5 * time.Second

// Store is the local price cache: one JSON record per line, sorted by
// symbol. The whole file is read at open and rewritten atomically on save,
// so a failed save never corrupts the previous good state.
type Store struct {
	path     string
	records  map[string]Record
	lockWait time.Duration
}

var _ Cache = (*Store)(nil)

// OpenStore reads the cache at path. A missing file is an empty cache, not
// an error; a malformed line is an error naming the file and line.
func OpenStore(path string) (*Store, error) {
	s := &Store{path: path, records: make(map[string]Record), lockWait: lockWait}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Printf("warning, cache file %q does not exist, starting empty", path)
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot open cache file %q: %w", path, err)
	}
	defer f.Close()
	if err := s.read(f); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) read(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		txt := strings.TrimSpace(scanner.Text())
		if txt == "" {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(txt), &rec); err != nil {
			return fmt.Errorf("parsing error in %s:%d: not a correct record: %w", s.path, line, err)
		}
		if rec.Symbol == "" {
			return fmt.Errorf("parsing error in %s:%d: record has no symbol", s.path, line)
		}
		s.records[rec.Symbol] = rec
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("cannot read cache file %q: %w", s.path, err)
	}
	return nil
}

// Get returns the cached record for symbol.
func (s *Store) Get(symbol string) (Record, bool) {
	rec, ok := s.records[symbol]
	return rec, ok
}

// Len returns the number of cached symbols.
func (s *Store) Len() int { return len(s.records) }

// Symbols returns all cached symbols in lexical order.
func (s *Store) Symbols() []string {
	symbols := make([]string, 0, len(s.records))
	for sym := range s.records {
		symbols = append(symbols, sym)
	}
	slices.Sort(symbols)
	return symbols
}

// Put updates one record and saves the whole store. The in-memory record is
// updated even when the save fails, so the value survives for the rest of
// the run; the returned error then wraps ErrNotPersisted.
func (s *Store) Put(symbol string, rec Record) error {
	rec.Symbol = symbol
	s.records[symbol] = rec
	return s.Save()
}

// Save writes the store back to disk: advisory lock, best-effort timestamped
// backup of the previous file, then write-to-temp and rename. Any failure
// wraps ErrNotPersisted and leaves the previous file untouched.
func (s *Store) Save() error {
	lock := flock.New(s.path + ".lock")
	ctx, cancel := context.WithTimeout(context.Background(), s.lockWait)
	defer cancel()
	locked, err := lock.TryLockContext(ctx, 100*time.Millisecond)
	if err == nil && !locked {
		err = errors.New("lock not acquired")
	}
	if err != nil {
		return fmt.Errorf("cannot lock cache file %q within %v (%v): %w", s.path, s.lockWait, err, ErrNotPersisted)
	}
	defer lock.Unlock()

	s.backup()

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("cannot create temp cache file in %q (%v): %w", dir, err, ErrNotPersisted)
	}
	defer os.Remove(tmp.Name())
	if err := s.write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("cannot write cache file %q (%v): %w", s.path, err, ErrNotPersisted)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("cannot close temp cache file %q (%v): %w", tmp.Name(), err, ErrNotPersisted)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("cannot replace cache file %q (%v): %w", s.path, err, ErrNotPersisted)
	}
	return nil
}

func (s *Store) write(w io.Writer) error {
	buf := bufio.NewWriter(w)
	for _, sym := range s.Symbols() {
		line, err := json.Marshal(s.records[sym])
		if err != nil {
			return err
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	return buf.Flush()
}

// backup copies the current file next to itself with a timestamp suffix.
// Failures are logged and ignored: a backup must never block a save.
func (s *Store) backup() {
	src, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return
	}
	if err != nil {
		log.Printf("cache backup skipped: %v", err)
		return
	}
	defer src.Close()
	name := backupName(s.path, time.Now())
	dst, err := os.Create(name)
	if err != nil {
		log.Printf("cache backup skipped: %v", err)
		return
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		log.Printf("cache backup to %q failed: %v", name, err)
	}
}

func backupName(path string, now time.Time) string {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	return base + "_backup_" + now.Format("20060102_150405") + ext
}
