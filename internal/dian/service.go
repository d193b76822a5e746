package dian

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/konta-pos/konta-pos/internal/billing"
	"github.com/konta-pos/konta-pos/internal/masterdata/customers"
	"github.com/konta-pos/konta-pos/internal/platform/httpx"
)

// Final-consumer identification for walk-in sales without a customer.
const (
	finalConsumerName = "CONSUMIDOR FINAL"
	finalConsumerNIT  = "222222222222"
)

// ErrNotReportable rejects invoices outside the POS + paid window.
var ErrNotReportable = fmt.Errorf("%w: invoice cannot be reported", httpx.ErrConflict)

// Document is a generated DIAN document kept for audit and re-download.
type Document struct {
	ID        int64     `json:"id"`
	InvoiceID int64     `json:"invoice_id"`
	CUFE      string    `json:"cufe"`
	XML       []byte    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// InvoiceSource reads invoices and transitions their status.
type InvoiceSource interface {
	GetInvoice(ctx context.Context, id int64) (billing.InvoiceDetail, error)
	MarkReported(ctx context.Context, id int64, cufe string) error
}

// CustomerSource resolves the customer named on the document.
type CustomerSource interface {
	Get(ctx context.Context, id int64) (*customers.Customer, error)
}

// DocumentStore persists generated documents.
type DocumentStore interface {
	Save(ctx context.Context, doc *Document) error
	GetByInvoice(ctx context.Context, invoiceID int64) (Document, error)
}

// Service generates, signs and records DIAN documents.
type Service struct {
	generator *Generator
	signer    Signer
	invoices  InvoiceSource
	customers CustomerSource
	store     DocumentStore
	logger    *slog.Logger
}

// NewService wires the DIAN service.
func NewService(generator *Generator, signer Signer, invoices InvoiceSource, customerSrc CustomerSource, store DocumentStore, logger *slog.Logger) *Service {
	return &Service{
		generator: generator,
		signer:    signer,
		invoices:  invoices,
		customers: customerSrc,
		store:     store,
		logger:    logger,
	}
}

// Report generates and signs the document for a paid POS invoice,
// persists it and flips the invoice to reported_dian. The guarded
// status transition makes a concurrent double-report fail.
func (s *Service) Report(ctx context.Context, invoiceID int64) (Document, error) {
	detail, err := s.invoices.GetInvoice(ctx, invoiceID)
	if err != nil {
		return Document{}, err
	}
	inv := detail.Invoice

	if inv.Kind != billing.KindPOS {
		return Document{}, fmt.Errorf("%w: only POS invoices are reported, invoice %d is %s", ErrNotReportable, invoiceID, inv.Kind)
	}
	if inv.Status != billing.StatusPaid {
		return Document{}, fmt.Errorf("%w: invoice %d is %s", ErrNotReportable, invoiceID, inv.Status)
	}

	customerName, customerNIT := finalConsumerName, finalConsumerNIT
	if inv.CustomerID != nil {
		c, err := s.customers.Get(ctx, *inv.CustomerID)
		if err != nil {
			return Document{}, err
		}
		customerName, customerNIT = c.Name, c.Document
	}

	input := DocumentInput{
		InvoiceNumber: inv.Number,
		IssuedAt:      inv.IssuedAt,
		CustomerName:  customerName,
		CustomerNIT:   customerNIT,
		Subtotal:      inv.Subtotal,
		Tax:           inv.Tax,
		Total:         inv.Total,
	}
	for _, it := range detail.Items {
		input.Lines = append(input.Lines, DocumentLine{
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			TaxRate:     it.TaxRate,
			LineTotal:   it.LineTotal,
		})
	}

	payload, cufe, err := s.generator.Generate(input)
	if err != nil {
		return Document{}, err
	}
	signed, err := s.signer.Sign(payload)
	if err != nil {
		return Document{}, fmt.Errorf("dian: sign document: %w", err)
	}

	doc := Document{InvoiceID: invoiceID, CUFE: cufe, XML: signed, CreatedAt: time.Now()}
	if err := s.store.Save(ctx, &doc); err != nil {
		return Document{}, err
	}

	if err := s.invoices.MarkReported(ctx, invoiceID, cufe); err != nil {
		return Document{}, err
	}

	s.logger.Info("dian: invoice reported", "invoice_id", invoiceID, "cufe", cufe)
	return doc, nil
}

// GetDocument returns the stored document for an invoice.
func (s *Service) GetDocument(ctx context.Context, invoiceID int64) (Document, error) {
	return s.store.GetByInvoice(ctx, invoiceID)
}

// pgDocumentStore keeps documents in dian_documents.
type pgDocumentStore struct {
	pool *pgxpool.Pool
}

// NewDocumentStore returns the PostgreSQL-backed DocumentStore.
func NewDocumentStore(pool *pgxpool.Pool) DocumentStore {
	return &pgDocumentStore{pool: pool}
}

func (s *pgDocumentStore) Save(ctx context.Context, doc *Document) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO dian_documents (invoice_id, cufe, xml, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		doc.InvoiceID, doc.CUFE, doc.XML, doc.CreatedAt).Scan(&doc.ID)
	if err != nil {
		return fmt.Errorf("dian: save document: %w", err)
	}
	return nil
}

func (s *pgDocumentStore) GetByInvoice(ctx context.Context, invoiceID int64) (Document, error) {
	var doc Document
	err := s.pool.QueryRow(ctx, `
		SELECT id, invoice_id, cufe, xml, created_at
		FROM dian_documents WHERE invoice_id = $1
		ORDER BY created_at DESC LIMIT 1`, invoiceID).
		Scan(&doc.ID, &doc.InvoiceID, &doc.CUFE, &doc.XML, &doc.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return doc, httpx.ErrNotFound
	}
	if err != nil {
		return doc, fmt.Errorf("dian: get document: %w", err)
	}
	return doc, nil
}
