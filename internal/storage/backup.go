package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Veraticus/rentbook/internal/common"
)

// Backup errors.
var (
	ErrBackupNotFound  = fmt.Errorf("%w: backup", common.ErrNotFound)
	ErrBackupExists    = fmt.Errorf("%w: backup already exists", common.ErrInvalidArgument)
	ErrBackupCorrupted = errors.New("backup integrity check failed")
)

// maxAutoBackups is how many automatic backups survive cleanup.
const maxAutoBackups = 5

// BackupInfo describes one database backup.
type BackupInfo struct {
	CreatedAt     time.Time      `json:"created_at"`
	RowCounts     map[string]int `json:"row_counts"`
	ID            string         `json:"id"`
	Description   string         `json:"description"`
	FileSize      int64          `json:"file_size"`
	SchemaVersion int            `json:"schema_version"`
	IsAuto        bool           `json:"is_auto"`
}

// BackupDir returns the directory holding backups of the database at dbPath.
func BackupDir(dbPath string) string {
	return filepath.Join(filepath.Dir(dbPath), "backups")
}

func validateBackupID(id string) error {
	if err := validateString(id, "backup id"); err != nil {
		return err
	}
	if strings.ContainsAny(id, `/\'";`) || strings.Contains(id, "..") {
		return fmt.Errorf("%w: backup id %q", common.ErrInvalidArgument, id)
	}
	return nil
}

// Backup snapshots the database into its backup directory. An empty id gets
// a timestamped name. Attachment content is not part of the snapshot.
func (s *SQLiteStorage) Backup(ctx context.Context, id, description string) (*BackupInfo, error) {
	return s.backup(ctx, id, description, false)
}

// AutoBackup snapshots the database before an operation named by reason and
// prunes old automatic backups.
func (s *SQLiteStorage) AutoBackup(ctx context.Context, reason string) (*BackupInfo, error) {
	id := fmt.Sprintf("auto-%s-%s", reason, s.now().Format("20060102-150405"))
	info, err := s.backup(ctx, id, "Automatic backup before "+reason, true)
	if err != nil {
		return nil, err
	}

	if err := s.pruneAutoBackups(); err != nil {
		slog.Warn("Failed to prune automatic backups", "error", err)
	}
	return info, nil
}

func (s *SQLiteStorage) backup(ctx context.Context, id, description string, auto bool) (*BackupInfo, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if s.dbPath == ":memory:" {
		return nil, fmt.Errorf("%w: in-memory databases cannot be backed up", common.ErrInvalidArgument)
	}
	if id == "" {
		id = "backup-" + s.now().Format("20060102-150405")
	}
	if err := validateBackupID(id); err != nil {
		return nil, err
	}

	dir := BackupDir(s.dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}
	dest, err := filepath.Abs(filepath.Join(dir, id+".db"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve backup path: %w", err)
	}
	if _, err := os.Stat(dest); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrBackupExists, id)
	}
	if strings.ContainsAny(dest, `'";`) {
		return nil, fmt.Errorf("%w: backup path %q", common.ErrInvalidArgument, dest)
	}

	version, err := s.SchemaVersion(ctx)
	if err != nil {
		return nil, err
	}

	// VACUUM INTO writes a consistent copy even with a live WAL.
	// #nosec G202 -- dest is checked for quoting characters above
	if _, err := s.db.ExecContext(ctx, "VACUUM INTO '"+dest+"'"); err != nil {
		return nil, fmt.Errorf("failed to back up database: %w", err)
	}

	stat, err := os.Stat(dest)
	if err != nil {
		return nil, fmt.Errorf("failed to stat backup: %w", err)
	}

	info := &BackupInfo{
		ID:            id,
		CreatedAt:     s.now(),
		Description:   description,
		FileSize:      stat.Size(),
		RowCounts:     s.rowCounts(ctx),
		SchemaVersion: version,
		IsAuto:        auto,
	}
	if err := writeBackupInfo(filepath.Join(dir, id+".meta.json"), info); err != nil {
		if rmErr := os.Remove(dest); rmErr != nil {
			slog.Error("Failed to remove backup after metadata failure", "error", rmErr)
		}
		return nil, fmt.Errorf("failed to save backup metadata: %w", err)
	}

	slog.Info("Created database backup", "id", id, "size", info.FileSize, "schema_version", version)
	return info, nil
}

// rowCounts counts documents per collection across all tenants.
func (s *SQLiteStorage) rowCounts(ctx context.Context) map[string]int {
	counts := make(map[string]int, len(allCollections))
	for _, c := range allCollections {
		var n int
		// #nosec G202 -- collection names are constants
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+c).Scan(&n); err != nil {
			// Collections are missing before the first migration.
			n = 0
		}
		counts[c] = n
	}
	return counts
}

// ListBackups returns the backups of the database at dbPath, newest first.
func ListBackups(dbPath string) ([]BackupInfo, error) {
	dir := BackupDir(dbPath)
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	var backups []BackupInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".meta.json") {
			continue
		}
		info, err := readBackupInfo(filepath.Join(dir, entry.Name()))
		if err != nil {
			slog.Debug("Skipping unreadable backup metadata", "file", entry.Name(), "error", err)
			continue
		}
		backups = append(backups, *info)
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})
	return backups, nil
}

// DeleteBackup removes a backup and its metadata.
func DeleteBackup(dbPath, id string) error {
	if err := validateBackupID(id); err != nil {
		return err
	}

	dir := BackupDir(dbPath)
	if err := os.Remove(filepath.Join(dir, id+".db")); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrBackupNotFound, id)
		}
		return fmt.Errorf("failed to remove backup: %w", err)
	}
	if err := os.Remove(filepath.Join(dir, id+".meta.json")); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Debug("Failed to remove backup metadata", "id", id, "error", err)
	}
	return nil
}

// RestoreBackup replaces the database at dbPath with backup id. No storage
// may hold dbPath open while it runs.
func RestoreBackup(ctx context.Context, dbPath, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateBackupID(id); err != nil {
		return err
	}

	src := filepath.Join(BackupDir(dbPath), id+".db")
	if _, err := os.Stat(src); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrBackupNotFound, id)
		}
		return fmt.Errorf("failed to access backup: %w", err)
	}
	if err := checkIntegrity(ctx, src); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrBackupCorrupted, id, err)
	}

	// Stale WAL files would be replayed over the restored database.
	for _, suffix := range []string{"-wal", "-shm"} {
		if err := os.Remove(dbPath + suffix); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove %s: %w", dbPath+suffix, err)
		}
	}

	if err := copyFile(src, dbPath); err != nil {
		return fmt.Errorf("failed to restore backup: %w", err)
	}
	slog.Info("Restored database backup", "id", id, "database", dbPath)
	return nil
}

func checkIntegrity(ctx context.Context, path string) error {
	s, err := NewSQLiteStorage(path)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	var result string
	if err := s.db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return err
	}
	if result != "ok" {
		return errors.New(result)
	}
	return nil
}

func (s *SQLiteStorage) pruneAutoBackups() error {
	backups, err := ListBackups(s.dbPath)
	if err != nil {
		return err
	}

	kept := 0
	for _, b := range backups {
		if !b.IsAuto {
			continue
		}
		kept++
		if kept > maxAutoBackups {
			if err := DeleteBackup(s.dbPath, b.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

// copyFile copies src over dst through a temporary file and a rename.
func copyFile(src, dst string) error {
	in, err := os.Open(filepath.Clean(src))
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	tmp := dst + ".tmp"
	out, err := os.OpenFile(filepath.Clean(tmp), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}

func writeBackupInfo(path string, info *BackupInfo) error {
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func readBackupInfo(path string) (*BackupInfo, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	var info BackupInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, err
	}
	return &info, nil
}
