package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestOrderNumber(t *testing.T) {
	at := time.UnixMilli(1718000000123)
	assert.Equal(t, "ORD-1718000000123", OrderNumber(at))
}

func TestOrderStatusTerminal(t *testing.T) {
	assert.False(t, OrderStatusPending.Terminal())
	assert.True(t, OrderStatusConfirmed.Terminal())
	assert.True(t, OrderStatusCancelled.Terminal())
	assert.True(t, OrderStatusShipped.Valid())
	assert.False(t, OrderStatus("lost").Valid())
}

func TestOrderVerify(t *testing.T) {
	o := Order{
		TotalAmount: decimal.NewFromInt(260),
		Items: []OrderItem{
			{TotalPrice: decimal.NewFromInt(200)},
			{TotalPrice: decimal.NewFromInt(60)},
		},
	}
	assert.True(t, o.Verify())
	assert.True(t, o.ItemsTotal.Equal(decimal.NewFromInt(260)))

	o.Items = o.Items[:1]
	assert.False(t, o.Verify())
	assert.False(t, *o.TotalVerified)
}

func TestCategoryAndUnitSets(t *testing.T) {
	assert.True(t, Category("Oil & Ghee").Valid())
	assert.False(t, Category("Electronics").Valid())
	assert.True(t, Unit("quintal").Valid())
	assert.False(t, Unit("ton").Valid())
}

func TestNewLazySupplier(t *testing.T) {
	profileID := uuid.New()
	s := NewLazySupplier(profileID, CategorySpices)

	assert.Equal(t, profileID, s.ProfileID)
	assert.Equal(t, pq.StringArray{"Spices"}, s.Specializations)
	assert.Equal(t, 3, s.DeliveryTimeDays)
	assert.True(t, s.MinOrderAmount.IsZero())
	assert.Equal(t, DefaultSupplierDescription, s.Description)
}

func TestSupplierSearchText(t *testing.T) {
	s := Supplier{
		Profile:         &Profile{FullName: "Ravi", BusinessName: "Ravi Traders", City: "Pune", State: "MH"},
		Specializations: pq.StringArray{"Spices", "Grains"},
	}
	assert.Equal(t, "ravi traders pune mh spices grains", s.SearchText())
}

func TestFitsColumn(t *testing.T) {
	assert.True(t, FitsColumn(decimal.RequireFromString("9999999999.99"), MoneyScale, MaxUnitPrice))
	assert.False(t, FitsColumn(decimal.RequireFromString("10000000000"), MoneyScale, MaxUnitPrice))
	assert.False(t, FitsColumn(decimal.RequireFromString("0.001"), MoneyScale, MaxUnitPrice))
	assert.True(t, FitsColumn(decimal.RequireFromString("0.125"), QuantityScale, MaxQuantity))
	assert.Equal(t, "0.13", RoundMoney(decimal.RequireFromString("0.125")).String())
}
