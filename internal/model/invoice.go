package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type InvoiceType string

const (
	InvoicePurchase InvoiceType = "PURCHASE"
	InvoiceSale     InvoiceType = "SALE"
)

// IsValid reports whether t is one of the two supported directions
func (t InvoiceType) IsValid() bool {
	return t == InvoicePurchase || t == InvoiceSale
}

type InvoiceStatus string

const (
	StatusDraft     InvoiceStatus = "DRAFT"
	StatusFinalized InvoiceStatus = "FINALIZED"
	StatusPaid      InvoiceStatus = "PAID"
	StatusCancelled InvoiceStatus = "CANCELLED"
)

// Party is one side of an invoice: a business profile or a counterpart
type Party struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	TaxID   string `json:"tax_id"`
	Contact string `json:"contact"`
}

type Invoice struct {
	BaseModel
	InvoiceNumber string         `gorm:"type:varchar(40);uniqueIndex;not null" json:"invoice_number"`
	Type          InvoiceType    `gorm:"type:varchar(10);not null;index" json:"type"`
	Status        InvoiceStatus  `gorm:"type:varchar(12);not null;default:'DRAFT'" json:"status"`
	Date          datatypes.Date `gorm:"not null;index" json:"date"`

	// Sender is the seller: our business on a sale, the supplier on a purchase
	SenderName    string `gorm:"type:varchar(255)" json:"sender_name"`
	SenderAddress string `gorm:"type:text" json:"sender_address"`
	SenderTaxID   string `gorm:"type:varchar(32)" json:"sender_tax_id"`
	SenderContact string `gorm:"type:varchar(64)" json:"sender_contact"`

	ReceiverName    string `gorm:"type:varchar(255)" json:"receiver_name"`
	ReceiverAddress string `gorm:"type:text" json:"receiver_address"`
	ReceiverTaxID   string `gorm:"type:varchar(32)" json:"receiver_tax_id"`
	ReceiverContact string `gorm:"type:varchar(64)" json:"receiver_contact"`

	Subtotal   decimal.Decimal `gorm:"type:numeric;not null;default:0" json:"subtotal"`
	TaxRate    decimal.Decimal `gorm:"type:numeric;not null;default:0" json:"tax_rate"`
	CGSTRate   decimal.Decimal `gorm:"column:cgst_rate;type:numeric;not null;default:0" json:"cgst_rate"`
	SGSTRate   decimal.Decimal `gorm:"column:sgst_rate;type:numeric;not null;default:0" json:"sgst_rate"`
	CGSTAmount decimal.Decimal `gorm:"column:cgst_amount;type:numeric;not null;default:0" json:"cgst_amount"`
	SGSTAmount decimal.Decimal `gorm:"column:sgst_amount;type:numeric;not null;default:0" json:"sgst_amount"`
	Total      decimal.Decimal `gorm:"type:numeric;not null;default:0" json:"total"`
	Notes      string          `gorm:"type:text" json:"notes"`

	UserID uuid.UUID     `gorm:"type:uuid;index" json:"user_id"`
	Items  []InvoiceItem `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"items"`
}

// Sender returns the sending party of the invoice
func (inv *Invoice) Sender() Party {
	return Party{Name: inv.SenderName, Address: inv.SenderAddress, TaxID: inv.SenderTaxID, Contact: inv.SenderContact}
}

// Receiver returns the receiving party of the invoice
func (inv *Invoice) Receiver() Party {
	return Party{Name: inv.ReceiverName, Address: inv.ReceiverAddress, TaxID: inv.ReceiverTaxID, Contact: inv.ReceiverContact}
}

// Counterpart is the party that is not our business: the receiver of a sale,
// the sender of a purchase.
func (inv *Invoice) Counterpart() Party {
	if inv.Type == InvoicePurchase {
		return inv.Sender()
	}
	return inv.Receiver()
}

// AssignParties puts the business profile on our side of the invoice and the
// counterpart on the other, based on the invoice type.
func (inv *Invoice) AssignParties(profile, counterpart Party) {
	sender, receiver := profile, counterpart
	if inv.Type == InvoicePurchase {
		sender, receiver = counterpart, profile
	}
	inv.SenderName, inv.SenderAddress, inv.SenderTaxID, inv.SenderContact = sender.Name, sender.Address, sender.TaxID, sender.Contact
	inv.ReceiverName, inv.ReceiverAddress, inv.ReceiverTaxID, inv.ReceiverContact = receiver.Name, receiver.Address, receiver.TaxID, receiver.Contact
}

// InvoiceItem is a line of an invoice. Items are replaced wholesale on edit.
type InvoiceItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key;" json:"id"`
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"invoice_id"`
	SerialNo    int             `gorm:"not null" json:"serial_no"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	ProductName string          `gorm:"type:varchar(255)" json:"product_name"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	Rate        decimal.Decimal `gorm:"type:numeric;not null" json:"rate"`
	Discount    decimal.Decimal `gorm:"type:numeric;not null;default:0" json:"discount"`
	Amount      decimal.Decimal `gorm:"type:numeric;not null" json:"amount"`
}

func (item *InvoiceItem) BeforeCreate(tx *gorm.DB) (err error) {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	return
}
