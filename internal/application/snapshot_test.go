package application

import (
	"testing"

	"github.com/bnema/marketplace-cart/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRoundTrip(t *testing.T) {
	t.Parallel()

	items := []domain.LineItem{
		{ID: "A", Title: "Shirt", ImageURL: "https://img/a.png", Price: 10.5, Quantity: 2},
		{ID: "B", Title: "Shoe", ImageURL: "https://img/b.png", Price: 20, Quantity: 5},
	}

	raw, err := EncodeSnapshot(items)
	require.NoError(t, err)

	cart, err := DecodeSnapshot(raw)
	require.NoError(t, err)
	assert.Equal(t, items, cart.Items())
}

func TestEncodeSnapshotUsesStoredFieldNames(t *testing.T) {
	t.Parallel()

	raw, err := EncodeSnapshot([]domain.LineItem{{ID: "B", Title: "Shoe", ImageURL: "v", Price: 20, Quantity: 5}})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"B","title":"Shoe","image_url":"v","price":20,"quantity":5}]`, raw)

	raw, err = EncodeSnapshot(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", raw)
}

func TestDecodeSnapshot(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		want    []domain.LineItem
		corrupt bool
	}{
		{name: "blank", raw: "  ", want: []domain.LineItem{}},
		{name: "empty array", raw: "[]", want: []domain.LineItem{}},
		{name: "null", raw: "null", want: []domain.LineItem{}},
		{
			name: "valid",
			raw:  `[{"id":"A","title":"Shirt","image_url":"u","price":10,"quantity":1}]`,
			want: []domain.LineItem{{ID: "A", Title: "Shirt", ImageURL: "u", Price: 10, Quantity: 1}},
		},
		{name: "truncated", raw: `[{"id":"A"`, corrupt: true},
		{name: "object instead of array", raw: `{"id":"A"}`, corrupt: true},
		{name: "missing id", raw: `[{"title":"Shirt","quantity":1}]`, corrupt: true},
		{name: "zero quantity", raw: `[{"id":"A","quantity":0}]`, corrupt: true},
		{name: "duplicate id", raw: `[{"id":"A","quantity":1},{"id":"A","quantity":2}]`, corrupt: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cart, err := DecodeSnapshot(tt.raw)
			if tt.corrupt {
				require.ErrorIs(t, err, ErrCorruptSnapshot)
				assert.Zero(t, cart.Len())
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, cart.Items())
		})
	}
}
