package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// BackupInfo describes one backup file.
type BackupInfo struct {
	Filename  string    `json:"filename"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

const backupExt = ".sqlite"

// Backup writes a consistent copy of the database into dir using VACUUM INTO.
func Backup(ctx context.Context, conn *sql.DB, dir string) (BackupInfo, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return BackupInfo{}, fmt.Errorf("create backup directory: %w", err)
	}
	name := "stockmaster-" + time.Now().UTC().Format("20060102-150405.000") + backupExt
	path := filepath.Join(dir, name)
	if _, err := conn.ExecContext(ctx, "VACUUM INTO ?", path); err != nil {
		return BackupInfo{}, fmt.Errorf("vacuum into %s: %w", name, err)
	}
	st, err := os.Stat(path)
	if err != nil {
		return BackupInfo{}, err
	}
	return BackupInfo{Filename: name, Size: st.Size(), CreatedAt: st.ModTime().UTC()}, nil
}

// ListBackups returns the backups in dir, newest first. A missing dir holds none.
func ListBackups(dir string) ([]BackupInfo, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return []BackupInfo{}, nil
	}
	if err != nil {
		return nil, err
	}
	out := []BackupInfo{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), backupExt) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, BackupInfo{Filename: e.Name(), Size: info.Size(), CreatedAt: info.ModTime().UTC()})
	}
	slices.SortFunc(out, func(a, b BackupInfo) int { return strings.Compare(b.Filename, a.Filename) })
	return out, nil
}

// BackupPath resolves name inside dir, rejecting anything that is not a plain backup filename.
func BackupPath(dir, name string) (string, bool) {
	if name == "" || name != filepath.Base(name) || strings.Contains(name, "..") || !strings.HasSuffix(name, backupExt) {
		return "", false
	}
	return filepath.Join(dir, name), true
}
