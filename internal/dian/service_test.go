package dian

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/konta-pos/konta-pos/internal/billing"
	"github.com/konta-pos/konta-pos/internal/masterdata/customers"
	"github.com/konta-pos/konta-pos/internal/platform/httpx"
)

type fakeInvoices struct {
	invoices map[int64]billing.InvoiceDetail
	reported map[int64]string
}

func (f *fakeInvoices) GetInvoice(ctx context.Context, id int64) (billing.InvoiceDetail, error) {
	d, ok := f.invoices[id]
	if !ok {
		return billing.InvoiceDetail{}, httpx.ErrNotFound
	}
	return d, nil
}

func (f *fakeInvoices) MarkReported(ctx context.Context, id int64, cufe string) error {
	d := f.invoices[id]
	if d.Invoice.Status != billing.StatusPaid {
		return billing.ErrInvalidStatus
	}
	d.Invoice.Status = billing.StatusReportedDIAN
	f.invoices[id] = d
	f.reported[id] = cufe
	return nil
}

type fakeCustomers struct {
	byID map[int64]*customers.Customer
}

func (f *fakeCustomers) Get(ctx context.Context, id int64) (*customers.Customer, error) {
	c, ok := f.byID[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	return c, nil
}

type memStore struct {
	docs   map[int64]Document
	nextID int64
}

func (s *memStore) Save(ctx context.Context, doc *Document) error {
	s.nextID++
	doc.ID = s.nextID
	s.docs[doc.InvoiceID] = *doc
	return nil
}

func (s *memStore) GetByInvoice(ctx context.Context, invoiceID int64) (Document, error) {
	d, ok := s.docs[invoiceID]
	if !ok {
		return Document{}, httpx.ErrNotFound
	}
	return d, nil
}

func paidPOSInvoice(id int64, customerID *int64) billing.InvoiceDetail {
	return billing.InvoiceDetail{
		Invoice: billing.Invoice{
			ID: id, Number: "INV-000042", Kind: billing.KindPOS,
			Status: billing.StatusPaid, CustomerID: customerID,
			Subtotal: 1000, Tax: 190, Total: 1190,
			IssuedAt: time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC),
		},
		Items: []billing.InvoiceItem{
			{ProductID: 1, ProductName: "Cafe", Quantity: 1, UnitPrice: 1000, TaxRate: 19, TaxAmount: 190, LineTotal: 1190},
		},
	}
}

func newTestService(invoices *fakeInvoices, custs *fakeCustomers, store *memStore) *Service {
	return NewService(NewGenerator(testCompany()), NewUnsignedSigner(), invoices, custs, store, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestReportPaidPOSInvoice(t *testing.T) {
	invoices := &fakeInvoices{invoices: map[int64]billing.InvoiceDetail{1: paidPOSInvoice(1, nil)}, reported: map[int64]string{}}
	store := &memStore{docs: map[int64]Document{}}
	svc := newTestService(invoices, &fakeCustomers{}, store)

	doc, err := svc.Report(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, doc.CUFE, 96)
	require.Contains(t, string(doc.XML), finalConsumerName)
	require.Equal(t, billing.StatusReportedDIAN, invoices.invoices[1].Invoice.Status)
	require.Equal(t, doc.CUFE, invoices.reported[1])

	// Already reported: second attempt fails the status window.
	_, err = svc.Report(context.Background(), 1)
	require.ErrorIs(t, err, ErrNotReportable)
}

func TestReportNamedCustomer(t *testing.T) {
	customerID := int64(9)
	invoices := &fakeInvoices{invoices: map[int64]billing.InvoiceDetail{1: paidPOSInvoice(1, &customerID)}, reported: map[int64]string{}}
	custs := &fakeCustomers{byID: map[int64]*customers.Customer{
		9: {ID: 9, Name: "Andres Gomez", Document: "1020304050"},
	}}
	store := &memStore{docs: map[int64]Document{}}
	svc := newTestService(invoices, custs, store)

	doc, err := svc.Report(context.Background(), 1)
	require.NoError(t, err)
	require.Contains(t, string(doc.XML), "Andres Gomez")
	require.Contains(t, string(doc.XML), "1020304050")
}

func TestReportRejectsNormalInvoices(t *testing.T) {
	detail := paidPOSInvoice(1, nil)
	detail.Invoice.Kind = billing.KindNormal
	invoices := &fakeInvoices{invoices: map[int64]billing.InvoiceDetail{1: detail}, reported: map[int64]string{}}
	svc := newTestService(invoices, &fakeCustomers{}, &memStore{docs: map[int64]Document{}})

	_, err := svc.Report(context.Background(), 1)
	require.ErrorIs(t, err, ErrNotReportable)
}

func TestReportRejectsWrongStatus(t *testing.T) {
	for _, status := range []string{billing.StatusDraft, billing.StatusCancelled, billing.StatusReportedDIAN} {
		detail := paidPOSInvoice(1, nil)
		detail.Invoice.Status = status
		invoices := &fakeInvoices{invoices: map[int64]billing.InvoiceDetail{1: detail}, reported: map[int64]string{}}
		svc := newTestService(invoices, &fakeCustomers{}, &memStore{docs: map[int64]Document{}})

		_, err := svc.Report(context.Background(), 1)
		require.ErrorIs(t, err, ErrNotReportable, "status %s", status)
	}
}
