package model

// All lists every persisted model, in dependency order, for AutoMigrate
func All() []interface{} {
	return []interface{}{
		&Privilege{},
		&User{},
		&Product{},
		&Invoice{},
		&InvoiceItem{},
	}
}
