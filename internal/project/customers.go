package project

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/piwi3910/lotcut/internal/model"
)

// DefaultCustomersPath returns the default file path for the customer book.
// This is located at ~/.lotcut/customers.json.
func DefaultCustomersPath() string {
	return filepath.Join(DefaultConfigDir(), "customers.json")
}

// SaveCustomers writes the customer book to the specified JSON file.
// It creates parent directories if they do not exist.
func SaveCustomers(path string, book model.CustomerBook) error {
	return writeJSON(path, book)
}

// LoadCustomers reads the customer book from the specified JSON file.
// If the file does not exist, it returns the default book and saves it.
func LoadCustomers(path string) (model.CustomerBook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			book := model.DefaultCustomerBook()
			if saveErr := SaveCustomers(path, book); saveErr != nil {
				return book, saveErr
			}
			return book, nil
		}
		return model.CustomerBook{}, err
	}
	var book model.CustomerBook
	if err := json.Unmarshal(data, &book); err != nil {
		return model.CustomerBook{}, err
	}
	return book, nil
}

// LoadOrCreateCustomers loads the customer book from the default path.
func LoadOrCreateCustomers() (model.CustomerBook, string, error) {
	path := DefaultCustomersPath()
	book, err := LoadCustomers(path)
	return book, path, err
}

// ImportCustomers merges customers from a JSON file into an existing book.
// Customers whose ID or name already exists are skipped.
func ImportCustomers(path string, existing model.CustomerBook) (model.CustomerBook, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return existing, 0, err
	}
	var imported model.CustomerBook
	if err := json.Unmarshal(data, &imported); err != nil {
		return existing, 0, err
	}

	seen := make(map[string]bool, 2*len(existing.Customers))
	for _, c := range existing.Customers {
		seen[c.ID] = true
		seen["name:"+c.Name] = true
	}

	added := 0
	for _, c := range imported.Customers {
		if seen[c.ID] || seen["name:"+c.Name] {
			continue
		}
		existing.Add(c)
		seen[c.ID] = true
		seen["name:"+c.Name] = true
		added++
	}
	return existing, added, nil
}
