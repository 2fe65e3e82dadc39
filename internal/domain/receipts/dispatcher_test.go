package receipts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minimarket/internal/core/apperror"
	"minimarket/internal/core/id"
	"minimarket/internal/core/types"
	"minimarket/internal/domain/catalogs/customer"
	"minimarket/internal/domain/sales"
)

// --- Fakes ---

// fakeSaleStore implements the sale repository; only GetByID is exercised
// by dispatch.
type fakeSaleStore struct {
	sale *sales.Sale
	err  error
}

func (s *fakeSaleStore) GetByID(_ context.Context, _ id.ID) (*sales.Sale, error) {
	return s.sale, s.err
}

func (s *fakeSaleStore) Insert(context.Context, *sales.Sale) error { return nil }
func (s *fakeSaleStore) GetForUpdate(context.Context, id.ID) (*sales.Sale, error) {
	return nil, nil
}
func (s *fakeSaleStore) GetLines(context.Context, id.ID) ([]sales.Line, error) { return nil, nil }
func (s *fakeSaleStore) UpdateStatus(context.Context, *sales.Sale) error       { return nil }
func (s *fakeSaleStore) List(context.Context, sales.ListFilter) (sales.ListResult, error) {
	return sales.ListResult{}, nil
}
func (s *fakeSaleStore) LastDocumentNumber(context.Context, string) (string, error) {
	return "", nil
}
func (s *fakeSaleStore) DocumentNumberExists(context.Context, string) (bool, error) {
	return false, nil
}
func (s *fakeSaleStore) MarkCashClosed(context.Context, time.Time, time.Time) (int64, error) {
	return 0, nil
}

type fakeCustomerStore struct {
	customers map[id.ID]*customer.Customer
}

func (s *fakeCustomerStore) GetByID(_ context.Context, customerID id.ID) (*customer.Customer, error) {
	c, ok := s.customers[customerID]
	if !ok {
		return nil, apperror.NewNotFound("customer", customerID.String())
	}
	return c, nil
}

type fakeRenderer struct {
	err   error
	calls int
}

func (r *fakeRenderer) GenerateDocument(_ context.Context, sale *sales.Sale, _ *customer.Customer) (Document, error) {
	r.calls++
	if r.err != nil {
		return Document{}, r.err
	}
	return Document{
		Name:        sale.DocumentNumber + ".html",
		ContentType: "text/html; charset=utf-8",
		Data:        []byte("<html></html>"),
	}, nil
}

type fakeSender struct {
	err  error
	sent []sentMail
}

type sentMail struct {
	address string
	name    string
	subject string
	number  string
}

func (s *fakeSender) SendReceiptEmail(_ context.Context, address, customerName, subject, documentNumber string, _ Document) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	s.sent = append(s.sent, sentMail{address: address, name: customerName, subject: subject, number: documentNumber})
	return true, nil
}

type fakeTemplateStore struct {
	tpl *Template
	err error
}

func (s *fakeTemplateStore) GetByKind(_ context.Context, kind sales.DocumentKind) (*Template, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.tpl != nil {
		return s.tpl, nil
	}
	return &Template{Kind: kind, Subject: "Su comprobante", IsActive: true}, nil
}

type recordingMetrics struct {
	dispatched int
	failed     []string
}

func (m *recordingMetrics) ReceiptDispatched(string) { m.dispatched++ }
func (m *recordingMetrics) ReceiptFailed(_, reason string) {
	m.failed = append(m.failed, reason)
}

// --- Fixture ---

type fixture struct {
	dispatcher *Dispatcher
	saleStore  *fakeSaleStore
	customers  *fakeCustomerStore
	renderer   *fakeRenderer
	sender     *fakeSender
	templates  *fakeTemplateStore
	metrics    *recordingMetrics
}

func newFixture(sale *sales.Sale) *fixture {
	f := &fixture{
		saleStore: &fakeSaleStore{sale: sale},
		customers: &fakeCustomerStore{customers: make(map[id.ID]*customer.Customer)},
		renderer:  &fakeRenderer{},
		sender:    &fakeSender{},
		templates: &fakeTemplateStore{},
		metrics:   &recordingMetrics{},
	}
	f.dispatcher = NewDispatcher(
		f.saleStore,
		f.customers,
		f.renderer,
		f.sender,
		f.templates,
		f.metrics,
		Config{Timeout: 5 * time.Second},
	)
	return f
}

func (f *fixture) addCustomer(email string) *customer.Customer {
	c := &customer.Customer{ID: id.New(), Name: "Rosa Quispe"}
	if email != "" {
		c.Email = &email
	}
	f.customers.customers[c.ID] = c
	if f.saleStore.sale != nil {
		f.saleStore.sale.CustomerID = &c.ID
	}
	return c
}

func paidSale() *sales.Sale {
	return &sales.Sale{
		ID:             id.New(),
		DocumentKind:   sales.KindBoleta,
		DocumentNumber: "B001-00000042",
		Total:          types.MustMoney("59.00"),
		Status:         sales.StatusPaid,
	}
}

// --- Tests ---

func TestDispatch_DeliversToCustomerEmail(t *testing.T) {
	f := newFixture(paidSale())
	f.addCustomer("rosa@mail.pe")

	delivered, err := f.dispatcher.Dispatch(context.Background(), f.saleStore.sale.ID, "")
	require.NoError(t, err)
	assert.True(t, delivered)

	require.Len(t, f.sender.sent, 1)
	mail := f.sender.sent[0]
	assert.Equal(t, "rosa@mail.pe", mail.address)
	assert.Equal(t, "Rosa Quispe", mail.name)
	assert.Equal(t, "Su comprobante B001-00000042", mail.subject)
	assert.Equal(t, "B001-00000042", mail.number)
	assert.Equal(t, 1, f.metrics.dispatched)
}

func TestDispatch_OverrideBeatsCustomerEmail(t *testing.T) {
	f := newFixture(paidSale())
	f.addCustomer("rosa@mail.pe")

	delivered, err := f.dispatcher.Dispatch(context.Background(), f.saleStore.sale.ID, "gerencia@mail.pe")
	require.NoError(t, err)
	assert.True(t, delivered)

	require.Len(t, f.sender.sent, 1)
	assert.Equal(t, "gerencia@mail.pe", f.sender.sent[0].address)
}

func TestDispatch_NoAddressRendersOnly(t *testing.T) {
	// Walk-in sale: no customer, no override. Rendering still happens and
	// counts as a dispatch, delivery is skipped.
	f := newFixture(paidSale())

	delivered, err := f.dispatcher.Dispatch(context.Background(), f.saleStore.sale.ID, "")
	require.NoError(t, err)
	assert.False(t, delivered)
	assert.Equal(t, 1, f.renderer.calls)
	assert.Empty(t, f.sender.sent)
	assert.Equal(t, 1, f.metrics.dispatched)
}

func TestDispatch_CustomerWithoutEmail(t *testing.T) {
	f := newFixture(paidSale())
	f.addCustomer("")

	delivered, err := f.dispatcher.Dispatch(context.Background(), f.saleStore.sale.ID, "")
	require.NoError(t, err)
	assert.False(t, delivered)
	assert.Empty(t, f.sender.sent)
}

func TestDispatch_InactiveTemplateSkipsDelivery(t *testing.T) {
	f := newFixture(paidSale())
	f.addCustomer("rosa@mail.pe")
	f.templates.tpl = &Template{Kind: sales.KindBoleta, Subject: "Su comprobante", IsActive: false}

	delivered, err := f.dispatcher.Dispatch(context.Background(), f.saleStore.sale.ID, "")
	require.NoError(t, err)
	assert.False(t, delivered)
	assert.Empty(t, f.sender.sent)
}

func TestDispatch_RenderFailure(t *testing.T) {
	f := newFixture(paidSale())
	f.renderer.err = errors.New("template engine down")

	delivered, err := f.dispatcher.Dispatch(context.Background(), f.saleStore.sale.ID, "")
	assert.False(t, delivered)
	assert.True(t, apperror.IsCode(err, apperror.CodeDependencyFailure))
	assert.Equal(t, []string{"receipt rendering"}, f.metrics.failed)
	assert.Zero(t, f.metrics.dispatched)
}

func TestDispatch_SendFailure(t *testing.T) {
	f := newFixture(paidSale())
	f.addCustomer("rosa@mail.pe")
	f.sender.err = errors.New("smtp connection refused")

	delivered, err := f.dispatcher.Dispatch(context.Background(), f.saleStore.sale.ID, "")
	assert.False(t, delivered)
	assert.True(t, apperror.IsCode(err, apperror.CodeDependencyFailure))
	assert.Equal(t, []string{"receipt email"}, f.metrics.failed)
	// Rendering succeeded before the send failed.
	assert.Equal(t, 1, f.metrics.dispatched)
}

func TestDispatch_SaleLookupFailure(t *testing.T) {
	f := newFixture(nil)
	f.saleStore.err = apperror.NewNotFound("sale", id.New().String())

	delivered, err := f.dispatcher.Dispatch(context.Background(), id.New(), "")
	assert.False(t, delivered)
	assert.True(t, apperror.IsCode(err, apperror.CodeDependencyFailure))
	assert.Equal(t, []string{"sale lookup"}, f.metrics.failed)
}
