package model

// Privilege represents a permission that can be assigned to users
type Privilege struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Code string `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"` // e.g., "invoice:create"
	Name string `gorm:"type:varchar(100)" json:"name"`
}

const (
	PrivProductView        = "product:view"
	PrivProductCreate      = "product:create"
	PrivProductUpdate      = "product:update"
	PrivProductDelete      = "product:delete"
	PrivInvoiceView        = "invoice:view"
	PrivInvoiceCreate      = "invoice:create"
	PrivInvoiceUpdate      = "invoice:update"
	PrivInvoiceDelete      = "invoice:delete"
	PrivInventoryReconcile = "inventory:reconcile"
	PrivDashboardView      = "dashboard:view"
)

// DefaultPrivileges are seeded on startup and granted to the bootstrap admin
var DefaultPrivileges = []Privilege{
	{Code: PrivProductView, Name: "View Product"},
	{Code: PrivProductCreate, Name: "Create Product"},
	{Code: PrivProductUpdate, Name: "Update Product"},
	{Code: PrivProductDelete, Name: "Delete Product"},
	{Code: PrivInvoiceView, Name: "View Invoice"},
	{Code: PrivInvoiceCreate, Name: "Create Invoice"},
	{Code: PrivInvoiceUpdate, Name: "Update Invoice"},
	{Code: PrivInvoiceDelete, Name: "Delete Invoice"},
	{Code: PrivInventoryReconcile, Name: "Reconcile Inventory"},
	{Code: PrivDashboardView, Name: "View Dashboard"},
}
