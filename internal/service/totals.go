package service

import (
	"go-invoice-ws/internal/model"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// LineAmount is quantity * rate * (1 - discount/100), unrounded
func LineAmount(quantity int, rate, discount decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(int64(quantity)).
		Mul(rate).
		Mul(hundred.Sub(discount)).
		Shift(-2)
}

// ApplyTotals fills every item amount and the invoice subtotal, tax split and
// total. The combined tax rate is split evenly into CGST and SGST.
func ApplyTotals(inv *model.Invoice) {
	subtotal := decimal.Zero
	for i := range inv.Items {
		item := &inv.Items[i]
		item.Amount = LineAmount(item.Quantity, item.Rate, item.Discount)
		subtotal = subtotal.Add(item.Amount)
	}

	half := inv.TaxRate.Div(decimal.NewFromInt(2))
	inv.Subtotal = subtotal
	inv.CGSTRate = half
	inv.SGSTRate = half
	inv.CGSTAmount = subtotal.Mul(half).Shift(-2)
	inv.SGSTAmount = subtotal.Mul(half).Shift(-2)
	inv.Total = subtotal.Add(inv.CGSTAmount).Add(inv.SGSTAmount)
}

// renumber assigns contiguous serial numbers 1..N in slice order
func renumber(items []model.InvoiceItem) {
	for i := range items {
		items[i].SerialNo = i + 1
	}
}
