package model

import "github.com/google/uuid"

// ToleranceBands buckets rolls by their largest absolute shrinkage.
// A roll falls into Names[i] for the first Bounds[i] it does not exceed,
// and into the last name otherwise. len(Names) must be len(Bounds)+1.
type ToleranceBands struct {
	Bounds []float64 `json:"bounds"`
	Names  []string  `json:"names"`
}

// DefaultToleranceBands returns the three classic molds: <=3%, <=6%, above.
func DefaultToleranceBands() ToleranceBands {
	return ToleranceBands{
		Bounds: []float64{3, 6},
		Names:  []string{"KALIP-1", "KALIP-2", "KALIP-3"},
	}
}

// Valid reports whether the bands are usable.
func (b ToleranceBands) Valid() bool {
	if len(b.Names) != len(b.Bounds)+1 {
		return false
	}
	for i := 1; i < len(b.Bounds); i++ {
		if b.Bounds[i] <= b.Bounds[i-1] {
			return false
		}
	}
	return true
}

// Customer holds the tolerance thresholds agreed with a customer.
type Customer struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	WidthTolerance  float64        `json:"width_tolerance"`  // +/- percent
	LengthTolerance float64        `json:"length_tolerance"` // +/- percent
	Bands           ToleranceBands `json:"bands"`
}

// NewCustomer creates a new Customer with a generated ID and default bands.
func NewCustomer(name string, widthTol, lengthTol float64) Customer {
	return Customer{
		ID:              uuid.New().String()[:8],
		Name:            name,
		WidthTolerance:  widthTol,
		LengthTolerance: lengthTol,
		Bands:           DefaultToleranceBands(),
	}
}

// CustomerBook holds the user's saved customers.
type CustomerBook struct {
	Customers []Customer `json:"customers"`
}

// DefaultCustomerBook returns a book with one generic customer.
func DefaultCustomerBook() CustomerBook {
	return CustomerBook{
		Customers: []Customer{
			NewCustomer("Generic", 3, 3),
		},
	}
}

// Find returns the customer with the given ID or name.
func (b CustomerBook) Find(key string) (Customer, bool) {
	for _, c := range b.Customers {
		if c.ID == key || c.Name == key {
			return c, true
		}
	}
	return Customer{}, false
}

// Add appends a customer.
func (b *CustomerBook) Add(c Customer) {
	b.Customers = append(b.Customers, c)
}

// Remove deletes the customer with the given ID.
func (b *CustomerBook) Remove(id string) bool {
	for i, c := range b.Customers {
		if c.ID == id {
			b.Customers = append(b.Customers[:i], b.Customers[i+1:]...)
			return true
		}
	}
	return false
}
