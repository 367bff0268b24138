package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"go-invoice-ws/internal/events"
	"go-invoice-ws/internal/model"
	"go-invoice-ws/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type fakeProductRepo struct {
	mu        sync.Mutex
	products  map[uuid.UUID]model.Product
	failWrite error
	writes    int
}

func newFakeProductRepo(products ...model.Product) *fakeProductRepo {
	r := &fakeProductRepo{products: make(map[uuid.UUID]model.Product)}
	for _, p := range products {
		r.products[p.ID] = p
	}
	return r
}

func (r *fakeProductRepo) get(id uuid.UUID) model.Product {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.products[id]
}

func (r *fakeProductRepo) Create(_ context.Context, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.products[p.ID] = *p
	return nil
}

func (r *fakeProductRepo) FindAll(context.Context) ([]model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *fakeProductRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Product
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeProductRepo) FindByBarcode(_ context.Context, barcode string) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.Barcode != nil && *p.Barcode == barcode {
			return &p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeProductRepo) Update(_ context.Context, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[p.ID] = *p
	return nil
}

func (r *fakeProductRepo) Delete(_ context.Context, id uuid.UUID, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.products, id)
	return nil
}

func (r *fakeProductRepo) SetStock(_ context.Context, id uuid.UUID, quantity int, buyingPrice *decimal.Decimal, updatedBy string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWrite != nil {
		return r.failWrite
	}
	p, ok := r.products[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.Quantity = quantity
	if buyingPrice != nil {
		p.BuyingPrice = *buyingPrice
	}
	p.UpdatedBy = updatedBy
	r.products[id] = p
	r.writes++
	return nil
}

type fakeInvoiceRepo struct {
	mu       sync.Mutex
	invoices map[uuid.UUID]model.Invoice
	deleted  map[string]bool
}

func newFakeInvoiceRepo(invoices ...model.Invoice) *fakeInvoiceRepo {
	r := &fakeInvoiceRepo{invoices: make(map[uuid.UUID]model.Invoice), deleted: make(map[string]bool)}
	for _, inv := range invoices {
		r.invoices[inv.ID] = inv
	}
	return r
}

func cloneInvoice(inv model.Invoice) model.Invoice {
	inv.Items = append([]model.InvoiceItem(nil), inv.Items...)
	return inv
}

func (r *fakeInvoiceRepo) CreateWithItems(_ context.Context, inv *model.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	for i := range inv.Items {
		inv.Items[i].ID = uuid.New()
		inv.Items[i].InvoiceID = inv.ID
	}
	r.invoices[inv.ID] = cloneInvoice(*inv)
	return nil
}

func (r *fakeInvoiceRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invoices[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	inv = cloneInvoice(inv)
	return &inv, nil
}

func (r *fakeInvoiceRepo) FindAll(_ context.Context, f repository.InvoiceFilter) ([]model.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Invoice
	for _, inv := range r.invoices {
		if f.Type != "" && inv.Type != f.Type {
			continue
		}
		if f.Status != "" && inv.Status != f.Status {
			continue
		}
		out = append(out, cloneInvoice(inv))
	}
	return out, nil
}

func (r *fakeInvoiceRepo) UpdateFields(_ context.Context, id uuid.UUID, fields map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invoices[id]
	if !ok {
		return repository.ErrNotFound
	}
	for k, v := range fields {
		switch k {
		case "notes":
			inv.Notes = v.(string)
		case "status":
			inv.Status = v.(model.InvoiceStatus)
		case "updated_by":
			inv.UpdatedBy = v.(string)
		case "date":
			inv.Date = v.(datatypes.Date)
		}
	}
	r.invoices[id] = inv
	return nil
}

func (r *fakeInvoiceRepo) ReplaceItems(_ context.Context, inv *model.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.invoices[inv.ID]; !ok {
		return repository.ErrNotFound
	}
	for i := range inv.Items {
		inv.Items[i].ID = uuid.New()
		inv.Items[i].InvoiceID = inv.ID
	}
	r.invoices[inv.ID] = cloneInvoice(*inv)
	return nil
}

func (r *fakeInvoiceRepo) Delete(_ context.Context, id uuid.UUID, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invoices[id]
	if !ok {
		return repository.ErrNotFound
	}
	r.deleted[inv.InvoiceNumber] = true
	delete(r.invoices, id)
	return nil
}

func (r *fakeInvoiceRepo) CountByNumberPrefix(_ context.Context, prefix string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, inv := range r.invoices {
		if strings.HasPrefix(inv.InvoiceNumber, prefix) {
			n++
		}
	}
	for number := range r.deleted {
		if strings.HasPrefix(number, prefix) {
			n++
		}
	}
	return n, nil
}

func (r *fakeInvoiceRepo) NumberExists(_ context.Context, number string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleted[number] {
		return true, nil
	}
	for _, inv := range r.invoices {
		if inv.InvoiceNumber == number {
			return true, nil
		}
	}
	return false, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

// waitFor blocks until at least n events arrived, since events are
// published in the background.
func (p *recordingPublisher) waitFor(t *testing.T, n int) []string {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		got := p.actions()
		if len(got) >= n {
			return got
		}
		if time.Now().After(deadline) {
			t.Fatalf("got %d events %v, want %d", len(got), got, n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func (p *recordingPublisher) actions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Action
	}
	return out
}

// blockingPublisher holds every Publish until release is closed
type blockingPublisher struct {
	release   chan struct{}
	published chan events.Event
}

func newBlockingPublisher() *blockingPublisher {
	return &blockingPublisher{release: make(chan struct{}), published: make(chan events.Event, 8)}
}

func (p *blockingPublisher) Publish(ctx context.Context, e events.Event) error {
	select {
	case <-p.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	p.published <- e
	return nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*model.User
}

func newFakeUserRepo(users ...*model.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[uuid.UUID]*model.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (r *fakeUserRepo) Create(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	c := *u
	r.users[u.ID] = &c
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *u
	r.users[u.ID] = &c
	return nil
}

func (r *fakeUserRepo) with(id uuid.UUID, fn func(u *model.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	fn(u)
	return nil
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, id uuid.UUID, hashed string) error {
	return r.with(id, func(u *model.User) { u.Password = hashed })
}

func (r *fakeUserRepo) UpdatePrivileges(_ context.Context, id uuid.UUID, privileges []model.Privilege) error {
	return r.with(id, func(u *model.User) { u.Privileges = privileges })
}

func (r *fakeUserRepo) UpdateProfile(_ context.Context, id uuid.UUID, fields map[string]interface{}) error {
	return r.with(id, func(u *model.User) {
		for k, v := range fields {
			s, _ := v.(string)
			switch k {
			case "full_name":
				u.FullName = s
			case "phone_number":
				u.PhoneNumber = s
			case "business_name":
				u.BusinessName = s
			case "business_address":
				u.BusinessAddress = s
			case "business_tax_id":
				u.BusinessTaxID = s
			case "business_contact":
				u.BusinessContact = s
			}
		}
	})
}

func (r *fakeUserRepo) UpdateTokenVersion(_ context.Context, id uuid.UUID, version string) error {
	return r.with(id, func(u *model.User) { u.TokenVersion = version })
}

func (r *fakeUserRepo) UpdateLastSeen(_ context.Context, id uuid.UUID) error {
	return r.with(id, func(u *model.User) {
		now := time.Now()
		u.LastSeenAt = &now
	})
}

type fakePrivilegeRepo struct {
	privileges []model.Privilege
}

func (r *fakePrivilegeRepo) FindByCodes(_ context.Context, codes []string) ([]model.Privilege, error) {
	var out []model.Privilege
	for _, p := range r.privileges {
		for _, c := range codes {
			if p.Code == c {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

func (r *fakePrivilegeRepo) FindAll(context.Context) ([]model.Privilege, error) {
	return r.privileges, nil
}

func (r *fakePrivilegeRepo) SeedDefaults(context.Context) error {
	if len(r.privileges) == 0 {
		for i, p := range model.DefaultPrivileges {
			p.ID = uint(i + 1)
			r.privileges = append(r.privileges, p)
		}
	}
	return nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var testActor = Actor{ID: uuid.MustParse("0c6d3c2e-8a7e-4b8e-9d55-0c1f6b7c2a11"), Name: "Owner", Email: "owner@example.com"}
