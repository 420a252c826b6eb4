package stores

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/colonyops/wreckit/internal/data/db"
)

// sqliteCode extracts the primary result code from a driver error.
func sqliteCode(err error) (int, bool) {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return 0, false
	}
	return se.Code() & 0xff, true
}

// IsBusyError reports whether err means another connection holds the lock.
func IsBusyError(err error) bool {
	code, ok := sqliteCode(err)
	return ok && (code == sqlite3.SQLITE_BUSY || code == sqlite3.SQLITE_LOCKED)
}

var corruptMessages = []string{
	"database disk image is malformed",
	"file is not a database",
}

// IsCorruptionError reports whether err means the database file is unusable.
func IsCorruptionError(err error) bool {
	if err == nil {
		return false
	}
	if code, ok := sqliteCode(err); ok {
		return slices.Contains([]int{sqlite3.SQLITE_CORRUPT, sqlite3.SQLITE_NOTADB, sqlite3.SQLITE_CANTOPEN}, code)
	}
	msg := err.Error()
	return slices.ContainsFunc(corruptMessages, func(s string) bool {
		return strings.Contains(msg, s)
	})
}

// RecoverFromCorruption renames the database and its WAL sidecars to
// "<name>.corrupt.<stamp>" so the next Open creates a fresh file. Only run
// history and cached values are lost; items are stored as JSON elsewhere.
// It returns the path the main file was moved to.
func RecoverFromCorruption(dataDir string) (string, error) {
	live := filepath.Join(dataDir, db.FileName)
	quarantine := fmt.Sprintf("%s.corrupt.%s", live, time.Now().Format("20060102-150405"))

	for _, suffix := range []string{"", "-wal", "-shm"} {
		from, to := live+suffix, quarantine+suffix

		err := os.Rename(from, to)
		switch {
		case err == nil, errors.Is(err, os.ErrNotExist):
			continue
		case suffix == "":
			return "", fmt.Errorf("quarantine database: %w", err)
		}

		// A sidecar left next to a new database would be replayed into it.
		if rmErr := os.Remove(from); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			return "", fmt.Errorf("quarantine %s: %w", filepath.Base(from), err)
		}
	}

	return quarantine, nil
}
