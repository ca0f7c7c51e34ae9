package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/glass-bazaar/internal/domain/product"
)

func TestEmbedded(t *testing.T) {
	ctx := context.Background()

	c, err := Embedded()
	require.NoError(t, err)

	products, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, products, 14)
	assert.Equal(t, int64(1), products[0].ID)

	p, err := c.GetByID(ctx, 6)
	require.NoError(t, err)
	assert.Equal(t, "Amber Ribbed Vase", p.Name)
	assert.True(t, p.Price.Equal(decimal.RequireFromString("219")))
	assert.Equal(t, 2, p.Stock)

	_, err = c.GetByID(ctx, 999)
	require.ErrorIs(t, err, product.ErrNotFound)
}

func TestStatic_ListReturnsCopy(t *testing.T) {
	c, err := NewStatic([]product.Product{{ID: 1, Name: "Flute"}})
	require.NoError(t, err)

	products, err := c.List(context.Background())
	require.NoError(t, err)
	products[0].Name = "changed"

	p, err := c.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Flute", p.Name)
}

func TestNewStatic_DuplicateID(t *testing.T) {
	_, err := NewStatic([]product.Product{{ID: 1}, {ID: 1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate product id 1")
}

func TestDecodeProducts(t *testing.T) {
	data := []byte(`[
		{"Id":1,"Name":"Bowl","Price":"12.50","Stock":3,"InStock":true,"Extra":{"x":1},"CreatedDate":"2024-01-02"},
		{"Id":2,"Name":"Vase","Price":99,"CreatedDate":"2024-01-02T10:00:00"}
	]`)

	products, err := DecodeProducts(data)
	require.NoError(t, err)
	require.Len(t, products, 2)

	assert.True(t, products[0].Price.Equal(decimal.RequireFromString("12.5")))
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), products[0].CreatedAt)
	assert.True(t, products[1].Price.Equal(decimal.NewFromInt(99)))
	assert.Equal(t, 10, products[1].CreatedAt.Hour())
}

func TestDecodeProducts_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "not an array", data: `{"Id":1}`},
		{name: "bad price", data: `[{"Price":true}]`},
		{name: "bad date", data: `[{"CreatedDate":"yesterday"}]`},
		{name: "truncated", data: `[{"Id":1`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeProducts([]byte(tt.data))
			require.Error(t, err)
		})
	}
}

func TestEncodeFields_RoundTrip(t *testing.T) {
	p := product.Product{
		ID:        7,
		Name:      "Highball",
		Category:  "Tumblers",
		Price:     decimal.RequireFromString("119.90"),
		Stock:     60,
		InStock:   true,
		Rating:    4.2,
		CreatedAt: time.Date(2024, 3, 1, 8, 0, 0, 123456000, time.UTC),
	}

	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	e.ArrStart()
	e.Obj(func(e *jx.Encoder) { EncodeFields(e, p) })
	e.ArrEnd()

	got, err := DecodeProducts(e.Bytes())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Price.Equal(p.Price))
	got[0].Price = p.Price
	assert.Equal(t, p, got[0])
}
