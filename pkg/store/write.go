package store

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/loadboard/loadboard/pkg/series"
)

// renameFile is swapped out in tests to force the commit step to fail.
var renameFile = os.Rename

// Apply runs one full update transaction: read the current state, reconcile
// the batch against it, and commit the result. On any write failure the store
// is restored from its backup so callers observe the pre-request state.
func (s *Store) Apply(batch []series.Update) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.readOrEmpty()
	if err != nil {
		return Result{}, err
	}

	res := Reconcile(snap, KeyUpdates(batch))
	if err := s.commit(res); err != nil {
		return Result{}, err
	}
	return res, nil
}

// commit replaces the backing file with the reconciled row set. The current
// file is copied to a backup first, then the new content is written to a
// temporary file and renamed into place, so a crash mid-write never leaves a
// torn store. The backup is deleted only after the rename succeeds.
func (s *Store) commit(res Result) error {
	backupMade, err := s.makeBackup()
	if err != nil {
		return fmt.Errorf("failed to create backup: %w", err)
	}

	if err := s.writeAll(res.Header, res.Rows); err != nil {
		if backupMade {
			s.restoreBackup()
		}
		return fmt.Errorf("store write failed: %w", err)
	}

	if backupMade {
		if err := os.Remove(s.BackupPath()); err != nil {
			log.Printf("Failed to remove backup %s: %v", s.BackupPath(), err)
		}
	}
	return nil
}

// makeBackup copies the current file to the backup location. Returns false
// when the target does not exist yet (first-ever write).
func (s *Store) makeBackup() (bool, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if err := os.WriteFile(s.BackupPath(), data, 0644); err != nil {
		return false, err
	}
	return true, nil
}

// restoreBackup copies the backup over the (possibly partially written)
// target. The backup file is left in place as a marker of the failed write.
func (s *Store) restoreBackup() {
	data, err := os.ReadFile(s.BackupPath())
	if err != nil {
		log.Printf("Failed to read backup for restore: %v", err)
		return
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		log.Printf("Failed to restore store from backup: %v", err)
		return
	}
	log.Printf("Restored %s from backup after failed write", s.path)
}

// writeAll serializes header+rows to a temp file in the store's directory and
// renames it over the target.
func (s *Store) writeAll(header string, rows []series.Row) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	var b strings.Builder
	b.WriteString(header)
	b.WriteByte('\n')
	for _, row := range rows {
		b.WriteString(row.Line())
		b.WriteByte('\n')
	}

	if _, err := tmp.WriteString(b.String()); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return renameFile(tmpName, s.path)
}
