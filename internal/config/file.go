package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	. "github.com/roelfdiedericks/mentalnote/internal/logging"
)

// DefaultBackupCount is how many previous settings files are kept.
const DefaultBackupCount = 5

// Backup is one rotated copy of the settings file.
type Backup struct {
	Path    string
	Index   int // 0 = .bak (newest), 1 = .bak.1, ...
	ModTime time.Time
}

// backupName returns the path of backup i: file.bak, file.bak.1, ...
func backupName(path string, i int) string {
	if i == 0 {
		return path + ".bak"
	}
	return fmt.Sprintf("%s.bak.%d", path, i)
}

// WriteFileAtomic writes data next to path and renames it into place, so a
// crash never leaves a half-written settings file.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".mentalnote-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	err = func() error {
		defer tmp.Close()
		if err := tmp.Chmod(perm); err != nil {
			return fmt.Errorf("set permissions: %w", err)
		}
		if _, err := tmp.Write(data); err != nil {
			return fmt.Errorf("write temp file: %w", err)
		}
		return tmp.Sync()
	}()
	if err == nil {
		err = os.Rename(tmpPath, path)
	}
	if err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

// BackupAndWriteJSON rotates backups of the existing file, then writes v as
// indented JSON with mode 0600.
func BackupAndWriteJSON(path string, v any, keep int) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if keep <= 0 {
		keep = DefaultBackupCount
	}

	if current, err := os.ReadFile(path); err == nil {
		rotateBackups(path, keep)
		if err := os.WriteFile(backupName(path, 0), current, 0600); err != nil {
			L_warn("config: backup failed, continuing with save", "error", err)
		}
	}

	if err := WriteFileAtomic(path, data, 0600); err != nil {
		return err
	}
	L_debug("config: saved", "path", path)
	return nil
}

// rotateBackups shifts .bak.(n-1) out and every other backup up by one.
func rotateBackups(path string, keep int) {
	if keep <= 1 {
		return
	}
	os.Remove(backupName(path, keep-1))
	for i := keep - 2; i >= 0; i-- {
		if err := os.Rename(backupName(path, i), backupName(path, i+1)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			L_trace("config: rotate backup failed", "index", i, "error", err)
		}
	}
}

// ListBackups returns the existing backups of path, newest first.
func ListBackups(path string) []Backup {
	var backups []Backup
	for i := 0; ; i++ {
		info, err := os.Stat(backupName(path, i))
		if err != nil {
			return backups
		}
		backups = append(backups, Backup{Path: backupName(path, i), Index: i, ModTime: info.ModTime()})
	}
}

// RestoreBackup replaces path with backup index. The current file becomes
// the newest backup, so a restore can itself be undone.
func RestoreBackup(path string, index int) error {
	data, err := os.ReadFile(backupName(path, index))
	if err != nil {
		return fmt.Errorf("backup %d: %w", index, err)
	}
	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("backup %d is not valid settings: %w", index, err)
	}
	if err := BackupAndWriteJSON(path, &s, DefaultBackupCount); err != nil {
		return fmt.Errorf("restore backup %d: %w", index, err)
	}
	L_info("config: restored backup", "index", index, "path", path)
	return nil
}
