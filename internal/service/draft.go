package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"marketplace-service/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineItem is one row of an order being composed. Quantity and UnitPrice
// hold the raw text the vendor typed.
type LineItem struct {
	ProductName string          `json:"product_name"`
	Quantity    string          `json:"quantity"`
	UnitPrice   string          `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
}

// UnmarshalJSON accepts quantity and unit_price as JSON strings or numbers
func (li *LineItem) UnmarshalJSON(data []byte) error {
	var raw struct {
		ProductName string          `json:"product_name"`
		Quantity    json.RawMessage `json:"quantity"`
		UnitPrice   json.RawMessage `json:"unit_price"`
		Total       decimal.Decimal `json:"total"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	quantity, err := numberText(raw.Quantity)
	if err != nil {
		return fmt.Errorf("quantity: %w", err)
	}
	price, err := numberText(raw.UnitPrice)
	if err != nil {
		return fmt.Errorf("unit_price: %w", err)
	}
	*li = LineItem{ProductName: raw.ProductName, Quantity: quantity, UnitPrice: price, Total: raw.Total}
	return nil
}

// numberText returns a JSON string as is and a JSON number as its literal
// text. null and absent values are empty.
func numberText(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		err := json.Unmarshal(raw, &s)
		return s, err
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}

// Complete reports whether the row has a name, a quantity and a unit price.
// Incomplete rows are never persisted.
func (li LineItem) Complete() bool {
	return strings.TrimSpace(li.ProductName) != "" &&
		strings.TrimSpace(li.Quantity) != "" &&
		strings.TrimSpace(li.UnitPrice) != ""
}

// factor parses a quantity or price, treating anything unparseable as 0
func factor(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func (li *LineItem) recompute() {
	li.Total = model.RoundMoney(factor(li.Quantity).Mul(factor(li.UnitPrice)))
}

// Draft is an order being composed by a vendor
type Draft struct {
	SupplierID      *uuid.UUID `json:"supplier_id,omitempty"`
	DeliveryAddress string     `json:"delivery_address"`
	DeliveryDate    string     `json:"delivery_date,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	Items           []LineItem `json:"items"`
}

// NewDraft returns a draft with one blank row
func NewDraft() *Draft {
	return &Draft{Items: []LineItem{{}}}
}

// AddItem appends a blank row
func (d *Draft) AddItem() {
	d.Items = append(d.Items, LineItem{})
}

func (d *Draft) item(i int) (*LineItem, error) {
	if i < 0 || i >= len(d.Items) {
		return nil, invalid("items", "no row %d", i)
	}
	return &d.Items[i], nil
}

// RemoveItem deletes row i. The last remaining row cannot be removed.
func (d *Draft) RemoveItem(i int) error {
	if _, err := d.item(i); err != nil {
		return err
	}
	if len(d.Items) == 1 {
		return invalid("items", "at least one row is required")
	}
	d.Items = append(d.Items[:i], d.Items[i+1:]...)
	return nil
}

// SetProductName sets the free-text product name of row i
func (d *Draft) SetProductName(i int, name string) error {
	li, err := d.item(i)
	if err != nil {
		return err
	}
	li.ProductName = name
	return nil
}

// SetQuantity sets the quantity of row i and recomputes its total
func (d *Draft) SetQuantity(i int, quantity string) error {
	li, err := d.item(i)
	if err != nil {
		return err
	}
	li.Quantity = quantity
	li.recompute()
	return nil
}

// SetUnitPrice sets the unit price of row i and recomputes its total
func (d *Draft) SetUnitPrice(i int, price string) error {
	li, err := d.item(i)
	if err != nil {
		return err
	}
	li.UnitPrice = price
	li.recompute()
	return nil
}

// Total sums quantity × unit price, rounded to cents per row, over the
// complete rows
func (d *Draft) Total() decimal.Decimal {
	sum := decimal.Zero
	for _, li := range d.Items {
		if li.Complete() {
			sum = sum.Add(model.RoundMoney(factor(li.Quantity).Mul(factor(li.UnitPrice))))
		}
	}
	return sum
}

// Reset clears the draft back to one blank row
func (d *Draft) Reset() {
	*d = *NewDraft()
}
