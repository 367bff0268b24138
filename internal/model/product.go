package model

import "github.com/shopspring/decimal"

type Product struct {
	BaseModel
	Name           string          `gorm:"type:varchar(255);not null" json:"name" validate:"required"`
	Quantity       int             `gorm:"not null;default:0" json:"quantity" validate:"gte=0"`
	BuyingPrice    decimal.Decimal `gorm:"type:numeric;not null;default:0" json:"buying_price" validate:"gte=0"`
	SellingPrice   decimal.Decimal `gorm:"type:numeric;not null;default:0" json:"selling_price" validate:"gte=0"`
	WholesalePrice decimal.Decimal `gorm:"type:numeric;not null;default:0" json:"wholesale_price" validate:"gte=0"`
	MRP            decimal.Decimal `gorm:"column:mrp;type:numeric;not null;default:0" json:"mrp" validate:"gte=0"`
	Discount       decimal.Decimal `gorm:"type:numeric;not null;default:0" json:"discount" validate:"gte=0,lte=100"` // percent
	Unit           string          `gorm:"type:varchar(20)" json:"unit"`
	Barcode        *string         `gorm:"type:varchar(64);uniqueIndex" json:"barcode,omitempty"`
	Supplier       string          `gorm:"type:varchar(255)" json:"supplier,omitempty"`
}

// IsLowStock reports whether the quantity is below the given threshold
func (p *Product) IsLowStock(threshold int) bool {
	return p.Quantity < threshold
}
