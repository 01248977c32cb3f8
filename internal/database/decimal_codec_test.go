package database

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

type pricedDoc struct {
	Price    decimal.Decimal  `bson:"price"`
	Discount *decimal.Decimal `bson:"discount"`
}

func TestDecimalCodec(t *testing.T) {
	reg := NewRegistry()

	t.Run("stores money as decimal128", func(t *testing.T) {
		discount := decimal.RequireFromString("7.25")
		raw, err := bson.MarshalWithRegistry(reg, pricedDoc{Price: decimal.RequireFromString("10.10"), Discount: &discount})
		require.NoError(t, err)

		assert.Equal(t, bsontype.Decimal128, bson.Raw(raw).Lookup("price").Type)

		var out pricedDoc
		require.NoError(t, bson.UnmarshalWithRegistry(reg, raw, &out))
		assert.True(t, out.Price.Equal(decimal.RequireFromString("10.10")))
		require.NotNil(t, out.Discount)
		assert.True(t, out.Discount.Equal(discount))
	})

	t.Run("nil discount stays nil", func(t *testing.T) {
		raw, err := bson.MarshalWithRegistry(reg, pricedDoc{Price: decimal.NewFromInt(3)})
		require.NoError(t, err)

		var out pricedDoc
		require.NoError(t, bson.UnmarshalWithRegistry(reg, raw, &out))
		assert.Nil(t, out.Discount)
		assert.True(t, out.Price.Equal(decimal.NewFromInt(3)))
	})

	t.Run("reads legacy numeric fields", func(t *testing.T) {
		raw, err := bson.Marshal(bson.M{"price": 12.5})
		require.NoError(t, err)

		var out pricedDoc
		require.NoError(t, bson.UnmarshalWithRegistry(reg, raw, &out))
		assert.True(t, out.Price.Equal(decimal.RequireFromString("12.5")))

		raw, err = bson.Marshal(bson.M{"price": int32(4)})
		require.NoError(t, err)
		require.NoError(t, bson.UnmarshalWithRegistry(reg, raw, &out))
		assert.True(t, out.Price.Equal(decimal.NewFromInt(4)))
	})
}
