package model

import "testing"

func TestAssignParties(t *testing.T) {
	profile := Party{Name: "Our Shop", Address: "1 Main St", TaxID: "29ABCDE1234F1Z5", Contact: "555-0100"}
	other := Party{Name: "Acme Traders", Address: "9 Market Rd", TaxID: "27XYZ", Contact: "555-0199"}

	sale := &Invoice{Type: InvoiceSale}
	sale.AssignParties(profile, other)
	if sale.Sender() != profile || sale.Receiver() != other {
		t.Errorf("sale parties = %+v / %+v", sale.Sender(), sale.Receiver())
	}
	if sale.Counterpart() != other {
		t.Errorf("sale counterpart = %+v", sale.Counterpart())
	}

	purchase := &Invoice{Type: InvoicePurchase}
	purchase.AssignParties(profile, other)
	if purchase.Sender() != other || purchase.Receiver() != profile {
		t.Errorf("purchase parties = %+v / %+v", purchase.Sender(), purchase.Receiver())
	}
	if purchase.Counterpart() != other {
		t.Errorf("purchase counterpart = %+v", purchase.Counterpart())
	}
}

func TestInvoiceTypeIsValid(t *testing.T) {
	for _, tt := range []struct {
		in   InvoiceType
		want bool
	}{
		{InvoiceSale, true},
		{InvoicePurchase, true},
		{"RETURN", false},
		{"", false},
	} {
		if got := tt.in.IsValid(); got != tt.want {
			t.Errorf("InvoiceType(%q).IsValid() = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestUserPassword(t *testing.T) {
	u := &User{}
	if err := u.SetPassword("s3cret!"); err != nil {
		t.Fatal(err)
	}
	if !u.CheckPassword("s3cret!") {
		t.Error("CheckPassword rejected the right password")
	}
	if u.CheckPassword("wrong") {
		t.Error("CheckPassword accepted a wrong password")
	}
}
