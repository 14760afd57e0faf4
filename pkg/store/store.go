// Package store owns the CSV-backed hourly load series: reading it into
// typed rows, reconciling update batches against it, and replacing the file
// safely. Every update request is a full read-modify-write transaction; a
// single mutex serializes writers within the process.
package store

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/loadboard/loadboard/pkg/series"
)

// ErrStoreNotFound is returned by read paths when the backing file is absent.
var ErrStoreNotFound = errors.New("backing store not found")

// Store is the CSV-backed time series for one site/feed.
type Store struct {
	path string

	// Serializes read-modify-write cycles. The feed is single-writer by
	// assumption; this guards against concurrent requests inside one process.
	mu sync.Mutex
}

// New creates a store around the given CSV path. The file does not need to
// exist yet; the first successful write creates it.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// BackupPath returns the location of the short-lived recovery checkpoint.
// Its presence outside a write cycle signals a prior failed write.
func (s *Store) BackupPath() string {
	return s.path + ".bak"
}

// SkippedLine records a malformed line dropped during a read.
type SkippedLine struct {
	LineNo  int
	Content string
	Reason  string
}

// Snapshot is the full in-memory view of the backing store at read time.
type Snapshot struct {
	Header      string
	Rows        []series.Row
	Skipped     []SkippedLine
	Fingerprint uint64
}

// Read loads the whole series. It fails with ErrStoreNotFound when the file
// is missing; malformed lines are skipped with a warning, never fatal.
func (s *Store) Read() (Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Snapshot{}, fmt.Errorf("%w: %s", ErrStoreNotFound, s.path)
		}
		return Snapshot{}, fmt.Errorf("failed to read store: %w", err)
	}
	return parseSnapshot(data), nil
}

// readOrEmpty is the write-path variant of Read: a missing file is treated as
// an empty store with a synthesized header, so all update keys become creates.
func (s *Store) readOrEmpty() (Snapshot, error) {
	snap, err := s.Read()
	if errors.Is(err, ErrStoreNotFound) {
		return Snapshot{Header: series.DefaultHeader}, nil
	}
	return snap, err
}

// Fingerprint hashes the current file content. Identical content yields an
// identical fingerprint; a missing file hashes to zero.
func (s *Store) Fingerprint() uint64 {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return 0
	}
	return xxhash.Sum64(data)
}

func parseSnapshot(data []byte) Snapshot {
	snap := Snapshot{Fingerprint: xxhash.Sum64(data)}

	lines := strings.Split(string(data), "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		snap.Header = series.DefaultHeader
	} else {
		snap.Header = strings.TrimRight(lines[0], "\r")
		lines = lines[1:]
	}

	for i, line := range lines {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		row, err := series.ParseLine(line)
		if err != nil {
			log.Printf("Skipping malformed line %d: %q (%v)", i+2, line, err)
			snap.Skipped = append(snap.Skipped, SkippedLine{
				LineNo:  i + 2,
				Content: line,
				Reason:  err.Error(),
			})
			continue
		}
		if _, ok := row.Time(); !ok {
			log.Printf("Could not parse timestamp %q on line %d, row kept and sorted last", row.RawTimestamp(), i+2)
		}
		snap.Rows = append(snap.Rows, row)
	}

	return snap
}
