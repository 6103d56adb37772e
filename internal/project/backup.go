package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/piwi3910/lotcut/internal/model"
)

// BackupVersion is written into every backup file. Imports accept any
// version with the same major number.
const BackupVersion = "1.0.0"

// ErrBackupVersion is returned for backups written by an incompatible planner.
var ErrBackupVersion = errors.New("unsupported backup version")

// Backup carries the planner settings and the customer tolerance book so a
// cutting room can move its setup to another workstation.
type Backup struct {
	Version   string             `json:"version"`
	CreatedAt string             `json:"created_at"`
	Config    model.AppConfig    `json:"config"`
	Customers model.CustomerBook `json:"customers"`
}

// ExportBackup writes the settings and customer book to path.
func ExportBackup(path string, config model.AppConfig, customers model.CustomerBook) error {
	data, err := json.MarshalIndent(Backup{
		Version:   BackupVersion,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Config:    config,
		Customers: customers,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal backup: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}
	return nil
}

// ImportBackup reads a backup written by ExportBackup. A backup without
// customers restores the default book so every order still resolves a
// tolerance band.
func ImportBackup(path string) (Backup, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Backup{}, fmt.Errorf("failed to read backup: %w", err)
	}
	var b Backup
	if err := json.Unmarshal(data, &b); err != nil {
		return Backup{}, fmt.Errorf("failed to parse backup: %w", err)
	}
	if major(b.Version) == "" || major(b.Version) != major(BackupVersion) {
		return Backup{}, fmt.Errorf("backup version %q: %w", b.Version, ErrBackupVersion)
	}
	if b.Config.RecentJobs == nil {
		b.Config.RecentJobs = []string{}
	}
	if len(b.Customers.Customers) == 0 {
		b.Customers = model.DefaultCustomerBook()
	}
	return b, nil
}

func major(version string) string {
	m, _, _ := strings.Cut(version, ".")
	return m
}
