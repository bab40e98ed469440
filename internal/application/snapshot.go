package application

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/marketplace-cart/internal/domain"
)

// CartStorageKey is the slot holding the serialized cart.
const CartStorageKey = "@GoMarketplace:cart"

var ErrCorruptSnapshot = errors.New("corrupt cart snapshot")

type lineItemRecord struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	ImageURL string  `json:"image_url"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// EncodeSnapshot serializes items as a JSON array. An empty cart encodes as "[]".
func EncodeSnapshot(items []domain.LineItem) (string, error) {
	records := make([]lineItemRecord, 0, len(items))
	for _, item := range items {
		records = append(records, lineItemRecord{
			ID:       string(item.ID),
			Title:    item.Title,
			ImageURL: item.ImageURL,
			Price:    item.Price,
			Quantity: item.Quantity,
		})
	}

	data, err := json.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("encode cart snapshot: %w", err)
	}

	return string(data), nil
}

// DecodeSnapshot parses a stored snapshot. Anything that is not a JSON array
// of valid, id-unique line items is reported as ErrCorruptSnapshot.
func DecodeSnapshot(raw string) (domain.Cart, error) {
	if strings.TrimSpace(raw) == "" {
		return domain.Cart{}, nil
	}

	var records []lineItemRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return domain.Cart{}, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}

	items := make([]domain.LineItem, 0, len(records))
	for _, record := range records {
		items = append(items, domain.LineItem{
			ID:       domain.ProductID(record.ID),
			Title:    record.Title,
			ImageURL: record.ImageURL,
			Price:    record.Price,
			Quantity: record.Quantity,
		})
	}

	cart, err := domain.NewCart(items)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}

	return cart, nil
}
