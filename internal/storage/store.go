// Package storage persists index snapshots to durable files with atomic
// writes, bounded backup rotation, and recovery through backup fallback.
package storage

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/mojitote/docsearch/pkg/config"
	apperrors "github.com/mojitote/docsearch/pkg/errors"
	"github.com/mojitote/docsearch/pkg/metrics"
)

const (
	primaryName  = "index.snap"
	backupDir    = "backups"
	backupPrefix = "index-"
	backupSuffix = ".snap"
	lockName     = "docsearch.lock"
)

// Store reads and writes index snapshots under a single data directory:
// one primary file plus a bounded set of backups. All file access is
// serialized by an in-process mutex and a cross-process advisory lock.
type Store struct {
	mu      sync.Mutex
	cfg     config.StorageConfig
	flk     *flock.Flock
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Info describes the on-disk state of the store.
type Info struct {
	PrimaryExists  bool      `json:"primary_exists"`
	PrimarySize    int64     `json:"primary_size"`
	PrimaryModTime time.Time `json:"primary_mod_time,omitempty"`
	BackupCount    int       `json:"backup_count"`
}

// NewStore creates the data and backup directories and returns a Store.
// Metrics may be nil.
func NewStore(cfg config.StorageConfig, m *metrics.Metrics) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(cfg.DataDir, backupDir), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return &Store{
		cfg:     cfg,
		flk:     flock.New(filepath.Join(cfg.DataDir, lockName)),
		logger:  slog.Default().With("component", "storage"),
		metrics: m,
	}, nil
}

// Save writes the snapshot as the new primary. The current primary is copied
// into the backup set first, the new file is written to a temporary path,
// fsynced, and renamed into place, and only after that commit are backups
// beyond the retention count pruned. On any failure the previous primary is
// left untouched and ErrPersistence is returned.
func (s *Store) Save(snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.flk.Lock(); err != nil {
		return s.saveFailed(fmt.Errorf("acquiring data dir lock: %w", err))
	}
	defer s.flk.Unlock()

	snap.SavedAt = time.Now().UTC()
	data, err := Encode(snap, s.cfg.Compression)
	if err != nil {
		return s.saveFailed(err)
	}

	primary := s.primaryPath()
	if _, err := os.Stat(primary); err == nil {
		if err := s.backupPrimary(); err != nil {
			return s.saveFailed(err)
		}
	} else if !os.IsNotExist(err) {
		return s.saveFailed(fmt.Errorf("checking primary: %w", err))
	}

	tmp := primary + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return s.saveFailed(fmt.Errorf("creating temp snapshot: %w", err))
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return s.saveFailed(fmt.Errorf("writing temp snapshot: %w", err))
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return s.saveFailed(fmt.Errorf("syncing temp snapshot: %w", err))
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return s.saveFailed(fmt.Errorf("closing temp snapshot: %w", err))
	}
	if err := os.Rename(tmp, primary); err != nil {
		os.Remove(tmp)
		return s.saveFailed(fmt.Errorf("renaming snapshot into place: %w", err))
	}

	// The new primary is durably committed, old backups may go now.
	s.pruneBackups()

	if s.metrics != nil {
		s.metrics.SnapshotSavesTotal.WithLabelValues("ok").Inc()
		s.metrics.SnapshotSizeBytes.Set(float64(len(data)))
	}
	s.logger.Info("snapshot saved",
		"path", primary,
		"bytes", len(data),
		"documents", len(snap.Documents),
		"terms", len(snap.Postings),
	)
	return nil
}

// Load reads the primary snapshot. A missing, unreadable, or corrupt primary
// triggers fallback through the backup set from newest to oldest; if nothing
// is recoverable an empty snapshot is returned with no error (cold start).
func (s *Store) Load() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.flk.Lock(); err != nil {
		return Snapshot{}, fmt.Errorf("%w: acquiring data dir lock: %v", apperrors.ErrPersistence, err)
	}
	defer s.flk.Unlock()

	snap, err := s.readSnapshot(s.primaryPath())
	if err == nil {
		s.loaded("primary")
		return snap, nil
	}
	if !os.IsNotExist(err) {
		s.logger.Warn("primary snapshot unreadable, trying backups", "error", err)
	}

	for _, name := range s.listBackups() {
		snap, err := s.readSnapshot(filepath.Join(s.cfg.DataDir, backupDir, name))
		if err != nil {
			s.logger.Warn("backup snapshot unreadable, trying older", "backup", name, "error", err)
			continue
		}
		s.logger.Info("recovered index from backup", "backup", name, "documents", len(snap.Documents))
		s.loaded("backup")
		return snap, nil
	}

	s.logger.Info("no recoverable snapshot, starting with empty index")
	s.loaded("empty")
	return Empty(), nil
}

// RestoreFromBackup decodes the n-th newest backup (0 = newest), bypassing
// the primary. It does not modify any file; callers decide whether to
// promote the result via Save.
func (s *Store) RestoreFromBackup(n int) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	backups := s.listBackups()
	if n < 0 || n >= len(backups) {
		return Snapshot{}, fmt.Errorf("%w: backup index %d out of range (have %d backups)",
			apperrors.ErrInvalidInput, n, len(backups))
	}
	return s.readSnapshot(filepath.Join(s.cfg.DataDir, backupDir, backups[n]))
}

// ListBackups returns backup file names, newest first.
func (s *Store) ListBackups() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listBackups()
}

// Info reports the on-disk state of the primary and backup set.
func (s *Store) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()

	info := Info{BackupCount: len(s.listBackups())}
	if st, err := os.Stat(s.primaryPath()); err == nil {
		info.PrimaryExists = true
		info.PrimarySize = st.Size()
		info.PrimaryModTime = st.ModTime()
	}
	return info
}

// Delete removes the primary snapshot and every backup.
func (s *Store) Delete() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.primaryPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: removing primary: %v", apperrors.ErrPersistence, err)
	}
	for _, name := range s.listBackups() {
		if err := os.Remove(filepath.Join(s.cfg.DataDir, backupDir, name)); err != nil {
			return fmt.Errorf("%w: removing backup %s: %v", apperrors.ErrPersistence, name, err)
		}
	}
	return nil
}

func (s *Store) primaryPath() string {
	return filepath.Join(s.cfg.DataDir, primaryName)
}

func (s *Store) readSnapshot(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, err
	}
	return Decode(data)
}

// backupPrimary copies the committed primary into the backup set with a
// nanosecond timestamp suffix, so names sort oldest to newest.
func (s *Store) backupPrimary() error {
	data, err := os.ReadFile(s.primaryPath())
	if err != nil {
		return fmt.Errorf("reading primary for backup: %w", err)
	}
	name := fmt.Sprintf("%s%d%s", backupPrefix, time.Now().UnixNano(), backupSuffix)
	path := filepath.Join(s.cfg.DataDir, backupDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing backup %s: %w", name, err)
	}
	s.logger.Debug("backup created", "backup", name, "bytes", len(data))
	return nil
}

// pruneBackups removes backups beyond the retention count, oldest first.
// Best effort: a failed removal is logged, never fatal.
func (s *Store) pruneBackups() {
	backups := s.listBackups()
	if len(backups) > s.cfg.BackupRetention {
		for _, name := range backups[s.cfg.BackupRetention:] {
			if err := os.Remove(filepath.Join(s.cfg.DataDir, backupDir, name)); err != nil {
				s.logger.Warn("removing old backup failed", "backup", name, "error", err)
				continue
			}
			s.logger.Debug("old backup removed", "backup", name)
		}
	}
	if s.metrics != nil {
		s.metrics.BackupCount.Set(float64(len(s.listBackups())))
	}
}

// listBackups returns backup file names sorted newest first. Nanosecond
// timestamps are fixed width, so lexical order is chronological.
func (s *Store) listBackups() []string {
	entries, err := os.ReadDir(filepath.Join(s.cfg.DataDir, backupDir))
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, backupPrefix) || !strings.HasSuffix(name, backupSuffix) {
			continue
		}
		names = append(names, name)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names
}

func (s *Store) saveFailed(err error) error {
	if s.metrics != nil {
		s.metrics.SnapshotSavesTotal.WithLabelValues("error").Inc()
	}
	s.logger.Error("snapshot save failed", "error", err)
	return fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
}

func (s *Store) loaded(source string) {
	if s.metrics != nil {
		s.metrics.SnapshotLoadsTotal.WithLabelValues(source).Inc()
	}
}
