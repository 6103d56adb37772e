package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/piwi3910/lotcut/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCustomersPath(t *testing.T) {
	path := DefaultCustomersPath()
	if filepath.Base(path) != "customers.json" {
		t.Errorf("unexpected file name %s", path)
	}
	if filepath.Base(filepath.Dir(path)) != ".lotcut" {
		t.Errorf("expected path under .lotcut, got %s", path)
	}
}

func TestSaveAndLoadCustomers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "customers.json")
	book := model.CustomerBook{}
	c := model.NewCustomer("Acme", 2, 5)
	c.Bands = model.ToleranceBands{Bounds: []float64{2}, Names: []string{"TIGHT", "LOOSE"}}
	book.Add(c)

	require.NoError(t, SaveCustomers(path, book))
	loaded, err := LoadCustomers(path)
	require.NoError(t, err)

	require.Len(t, loaded.Customers, 1)
	assert.Equal(t, c, loaded.Customers[0])
}

func TestLoadCustomersCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "customers.json")

	book, err := LoadCustomers(path)
	require.NoError(t, err)
	assert.Len(t, book.Customers, len(model.DefaultCustomerBook().Customers))

	if _, err := os.Stat(path); err != nil {
		t.Errorf("default customer file was not written: %v", err)
	}
}

func TestLoadCustomersInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "customers.json")
	require.NoError(t, os.WriteFile(path, []byte("[oops"), 0644))
	_, err := LoadCustomers(path)
	assert.Error(t, err)
}

func TestImportCustomers(t *testing.T) {
	dir := t.TempDir()
	existing := model.CustomerBook{}
	acme := model.NewCustomer("Acme", 3, 3)
	existing.Add(acme)

	incoming := model.CustomerBook{}
	incoming.Add(acme)                              // same ID
	incoming.Add(model.NewCustomer("Acme", 1, 1))   // same name
	incoming.Add(model.NewCustomer("Globex", 4, 2)) // new
	path := filepath.Join(dir, "import.json")
	require.NoError(t, SaveCustomers(path, incoming))

	merged, added, err := ImportCustomers(path, existing)
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	require.Len(t, merged.Customers, 2)
	assert.Equal(t, "Globex", merged.Customers[1].Name)
}

func TestImportCustomersMissingFile(t *testing.T) {
	existing := model.DefaultCustomerBook()
	merged, added, err := ImportCustomers(filepath.Join(t.TempDir(), "none.json"), existing)
	assert.Error(t, err)
	assert.Zero(t, added)
	assert.Equal(t, existing, merged)
}
