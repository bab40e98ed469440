package domain

import (
	"fmt"
	"math"
	"strings"
)

type ProductID string

// Product is the catalog-facing part of a line item. Title, ImageURL and
// Price are carried through the cart untouched.
type Product struct {
	ID       ProductID
	Title    string
	ImageURL string
	Price    float64
}

type LineItem struct {
	ID       ProductID
	Title    string
	ImageURL string
	Price    float64
	Quantity int
}

func (p Product) Validate() error {
	if strings.TrimSpace(string(p.ID)) == "" {
		return fmt.Errorf("id is required")
	}
	if math.IsNaN(p.Price) || math.IsInf(p.Price, 0) {
		return fmt.Errorf("product %s: price must be a finite number", p.ID)
	}

	return nil
}

func (i LineItem) Validate() error {
	if strings.TrimSpace(string(i.ID)) == "" {
		return fmt.Errorf("id is required")
	}
	if i.Quantity < 1 {
		return fmt.Errorf("item %s: quantity must be at least 1, got %d", i.ID, i.Quantity)
	}
	if math.IsNaN(i.Price) || math.IsInf(i.Price, 0) {
		return fmt.Errorf("item %s: price must be a finite number", i.ID)
	}

	return nil
}
