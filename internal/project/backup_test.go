package project

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/piwi3910/lotcut/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportAndImportBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup.json")

	cfg := model.DefaultAppConfig()
	cfg.Theme = "dark"
	book := model.DefaultCustomerBook()
	book.Add(model.NewCustomer("Acme", 2, 4))

	if err := ExportBackup(path, cfg, book); err != nil {
		t.Fatalf("ExportBackup failed: %v", err)
	}

	backup, err := ImportBackup(path)
	if err != nil {
		t.Fatalf("ImportBackup failed: %v", err)
	}
	if backup.Version != BackupVersion {
		t.Errorf("expected version %s, got %s", BackupVersion, backup.Version)
	}
	if backup.CreatedAt == "" {
		t.Error("expected CreatedAt to be set")
	}
	if backup.Config.Theme != "dark" {
		t.Errorf("expected theme dark, got %s", backup.Config.Theme)
	}
	if len(backup.Customers.Customers) != 2 {
		t.Fatalf("expected 2 customers, got %d", len(backup.Customers.Customers))
	}
	if backup.Customers.Customers[1].LengthTolerance != 4 {
		t.Errorf("expected length tolerance 4, got %f", backup.Customers.Customers[1].LengthTolerance)
	}
}

func TestImportBackupMissingFile(t *testing.T) {
	_, err := ImportBackup(filepath.Join(t.TempDir(), "missing.json"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestImportBackupInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{invalid"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ImportBackup(path); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestImportBackupMissingVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "noversion.json")
	if err := os.WriteFile(path, []byte(`{"config":{}}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ImportBackup(path); !errors.Is(err, ErrBackupVersion) {
		t.Fatalf("expected ErrBackupVersion, got %v", err)
	}
}

func TestImportBackupNewerMajorVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "future.json")
	if err := os.WriteFile(path, []byte(`{"version":"2.0.0","config":{}}`), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := ImportBackup(path)
	assert.ErrorIs(t, err, ErrBackupVersion)
}

func TestImportBackupWithoutCustomersRestoresDefaultBook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nocustomers.json")
	if err := os.WriteFile(path, []byte(`{"version":"1.2.0","config":{}}`), 0644); err != nil {
		t.Fatal(err)
	}
	b, err := ImportBackup(path)
	require.NoError(t, err)
	assert.Equal(t, len(model.DefaultCustomerBook().Customers), len(b.Customers.Customers))
}

func TestImportBackupNilRecentJobs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup.json")
	data := []byte(`{"version":"1.0.0","config":{"recent_jobs":null}}`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	backup, err := ImportBackup(path)
	if err != nil {
		t.Fatalf("ImportBackup failed: %v", err)
	}
	if backup.Config.RecentJobs == nil {
		t.Error("RecentJobs should not be nil after import")
	}
}
