package utils

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const lockRetryDelay = 250 * time.Millisecond

// DBLock keeps two songrank processes from running a sync pass (or any other
// mutating command) on the same database at once. The lock file lives next to
// the database as "<db>.lock".
type DBLock struct {
	lock *flock.Flock
	path string
}

func NewDBLock(dbPath string) (*DBLock, error) {
	absPath, err := GetAbsDBPath(dbPath)
	if err != nil {
		return nil, fmt.Errorf("resolving database path: %w", err)
	}
	return &DBLock{lock: flock.New(absPath + ".lock"), path: absPath + ".lock"}, nil
}

// Lock waits for the database without a deadline.
func (l *DBLock) Lock() error {
	return l.LockContext(context.Background())
}

// LockContext takes the lock, polling until ctx is done when another pass
// holds it.
func (l *DBLock) LockContext(ctx context.Context) error {
	locked, err := l.lock.TryLock()
	if err != nil {
		return fmt.Errorf("locking %s: %w", l.path, err)
	}
	if locked {
		return nil
	}

	Log.Infof("Another sync pass holds %s, waiting for it to finish...", l.path)
	locked, err = l.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("waiting for %s: %w", l.path, err)
	}
	if !locked {
		return fmt.Errorf("waiting for %s: lock not acquired", l.path)
	}
	return nil
}

// Unlock releases the lock. A lock file removed underneath is not an error.
func (l *DBLock) Unlock() error {
	if err := l.lock.Unlock(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("unlocking %s: %w", l.path, err)
	}
	return nil
}

// GetAbsDBPath resolves the database path, defaulting to
// ~/.config/songrank/songrank.sqlite.
func GetAbsDBPath(dbPath string) (string, error) {
	if dbPath != "" {
		return filepath.Abs(dbPath)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "songrank", "songrank.sqlite"), nil
}
