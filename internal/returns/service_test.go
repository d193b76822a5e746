package returns

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/konta-pos/konta-pos/internal/billing"
	"github.com/konta-pos/konta-pos/internal/platform/httpx"
)

type memState struct {
	invoiceStatus map[int64]string
	soldLines     map[int64]map[int64]SoldLine
	notes         map[int64]CreditNote
	noteItems     map[int64][]CreditNoteItem
	stock         map[int64]int64
	movements     int
	nextID        int64
}

func (s *memState) clone() *memState {
	c := &memState{
		invoiceStatus: make(map[int64]string, len(s.invoiceStatus)),
		soldLines:     make(map[int64]map[int64]SoldLine, len(s.soldLines)),
		notes:         make(map[int64]CreditNote, len(s.notes)),
		noteItems:     make(map[int64][]CreditNoteItem, len(s.noteItems)),
		stock:         make(map[int64]int64, len(s.stock)),
		movements:     s.movements,
		nextID:        s.nextID,
	}
	for k, v := range s.invoiceStatus {
		c.invoiceStatus[k] = v
	}
	for k, v := range s.soldLines {
		inner := make(map[int64]SoldLine, len(v))
		for pk, pv := range v {
			inner[pk] = pv
		}
		c.soldLines[k] = inner
	}
	for k, v := range s.notes {
		c.notes[k] = v
	}
	for k, v := range s.noteItems {
		c.noteItems[k] = append([]CreditNoteItem(nil), v...)
	}
	for k, v := range s.stock {
		c.stock[k] = v
	}
	return c
}

type memRepo struct {
	mu    sync.Mutex
	state *memState
}

func newMemRepo() *memRepo {
	return &memRepo{state: &memState{
		invoiceStatus: make(map[int64]string),
		soldLines:     make(map[int64]map[int64]SoldLine),
		notes:         make(map[int64]CreditNote),
		noteItems:     make(map[int64][]CreditNoteItem),
		stock:         make(map[int64]int64),
		nextID:        1,
	}}
}

func (r *memRepo) addInvoice(id int64, status string, lines ...SoldLine) {
	r.state.invoiceStatus[id] = status
	m := make(map[int64]SoldLine, len(lines))
	for _, l := range lines {
		m[l.ProductID] = l
	}
	r.state.soldLines[id] = m
}

func (r *memRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	draft := r.state.clone()
	if err := fn(ctx, &memTx{state: draft}); err != nil {
		return err
	}
	r.state = draft
	return nil
}

func (r *memRepo) GetCreditNote(ctx context.Context, id int64) (CreditNoteDetail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.state.notes[id]
	if !ok {
		return CreditNoteDetail{}, httpx.ErrNotFound
	}
	return CreditNoteDetail{CreditNote: n, Items: r.state.noteItems[id]}, nil
}

func (r *memRepo) ListByInvoice(ctx context.Context, invoiceID int64) ([]CreditNote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []CreditNote
	for _, n := range r.state.notes {
		if n.InvoiceID == invoiceID {
			out = append(out, n)
		}
	}
	return out, nil
}

type memTx struct {
	state *memState
}

func (t *memTx) GetInvoiceStatus(ctx context.Context, invoiceID int64) (string, error) {
	status, ok := t.state.invoiceStatus[invoiceID]
	if !ok {
		return "", httpx.ErrNotFound
	}
	return status, nil
}

func (t *memTx) GetSoldLines(ctx context.Context, invoiceID int64) (map[int64]SoldLine, error) {
	out := make(map[int64]SoldLine)
	for k, v := range t.state.soldLines[invoiceID] {
		out[k] = v
	}
	return out, nil
}

func (t *memTx) GetReturnedQuantities(ctx context.Context, invoiceID int64) (map[int64]int64, error) {
	out := make(map[int64]int64)
	for _, n := range t.state.notes {
		if n.InvoiceID != invoiceID {
			continue
		}
		for _, it := range t.state.noteItems[n.ID] {
			out[it.ProductID] += it.Quantity
		}
	}
	return out, nil
}

func (t *memTx) InsertCreditNote(ctx context.Context, note *CreditNote) error {
	note.ID = t.state.nextID
	t.state.nextID++
	t.state.notes[note.ID] = *note
	return nil
}

func (t *memTx) InsertItems(ctx context.Context, noteID int64, items []CreditNoteItem) error {
	for i := range items {
		items[i].CreditNoteID = noteID
	}
	t.state.noteItems[noteID] = append([]CreditNoteItem(nil), items...)
	return nil
}

func (t *memTx) IncrementStock(ctx context.Context, productID, quantity int64) error {
	t.state.stock[productID] += quantity
	return nil
}

func (t *memTx) InsertMovement(ctx context.Context, productID, delta int64, refID int64) error {
	t.state.movements++
	return nil
}

func newTestService(repo *memRepo) *Service {
	return NewService(repo, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestProcessReturnValidation(t *testing.T) {
	svc := newTestService(newMemRepo())

	_, err := svc.ProcessReturn(context.Background(), ProcessReturnInput{
		InvoiceID: 1, Reason: "  ",
		Items: []ReturnItemInput{{ProductID: 1, Quantity: 1}},
	})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.ProcessReturn(context.Background(), ProcessReturnInput{
		InvoiceID: 1, Reason: "damaged",
	})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestProcessReturnRejectsUnreturnableInvoices(t *testing.T) {
	repo := newMemRepo()
	repo.addInvoice(1, billing.StatusCancelled, SoldLine{ProductID: 10, ProductName: "A", Quantity: 2, UnitPrice: 100})
	svc := newTestService(repo)

	_, err := svc.ProcessReturn(context.Background(), ProcessReturnInput{
		InvoiceID: 1, Reason: "damaged",
		Items: []ReturnItemInput{{ProductID: 10, Quantity: 1}},
	})
	require.ErrorIs(t, err, ErrInvoiceNotReturnable)

	_, err = svc.ProcessReturn(context.Background(), ProcessReturnInput{
		InvoiceID: 999, Reason: "damaged",
		Items: []ReturnItemInput{{ProductID: 10, Quantity: 1}},
	})
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestProcessReturnHappyPath(t *testing.T) {
	repo := newMemRepo()
	repo.addInvoice(1, billing.StatusPaid,
		SoldLine{ProductID: 10, ProductName: "Cafe", Quantity: 5, UnitPrice: 1000},
		SoldLine{ProductID: 11, ProductName: "Panela", Quantity: 2, UnitPrice: 500})
	svc := newTestService(repo)

	detail, err := svc.ProcessReturn(context.Background(), ProcessReturnInput{
		InvoiceID: 1, Reason: "customer changed mind", UserID: 3,
		Items: []ReturnItemInput{
			{ProductID: 10, Quantity: 2},
			{ProductID: 11, Quantity: 1},
		},
	})
	require.NoError(t, err)
	require.InDelta(t, 2500.0, detail.CreditNote.Total, 0.0001)
	require.Len(t, detail.Items, 2)
	require.EqualValues(t, 2, repo.state.stock[10])
	require.EqualValues(t, 1, repo.state.stock[11])
	require.Equal(t, 2, repo.state.movements)
}

func TestProcessReturnCumulativeBound(t *testing.T) {
	repo := newMemRepo()
	repo.addInvoice(1, billing.StatusReportedDIAN,
		SoldLine{ProductID: 10, ProductName: "Cafe", Quantity: 5, UnitPrice: 1000})
	svc := newTestService(repo)

	// More than sold fails outright.
	_, err := svc.ProcessReturn(context.Background(), ProcessReturnInput{
		InvoiceID: 1, Reason: "damaged",
		Items: []ReturnItemInput{{ProductID: 10, Quantity: 6}},
	})
	require.ErrorIs(t, err, ErrReturnExceedsSold)

	// Exactly the sold quantity succeeds.
	_, err = svc.ProcessReturn(context.Background(), ProcessReturnInput{
		InvoiceID: 1, Reason: "damaged",
		Items: []ReturnItemInput{{ProductID: 10, Quantity: 5}},
	})
	require.NoError(t, err)

	// One more unit after a full return fails the cumulative bound.
	_, err = svc.ProcessReturn(context.Background(), ProcessReturnInput{
		InvoiceID: 1, Reason: "damaged again",
		Items: []ReturnItemInput{{ProductID: 10, Quantity: 1}},
	})
	require.ErrorIs(t, err, ErrReturnExceedsSold)

	require.EqualValues(t, 5, repo.state.stock[10])
	require.Len(t, repo.state.notes, 1)
}

func TestProcessReturnConcurrentSameInvoice(t *testing.T) {
	repo := newMemRepo()
	repo.addInvoice(1, billing.StatusPaid,
		SoldLine{ProductID: 10, ProductName: "Cafe", Quantity: 5, UnitPrice: 1000})
	svc := newTestService(repo)

	// Two returns of 3 units each race on the same invoice. The invoice
	// row lock makes the second transaction see the first one's credit
	// note, so only one passes the cumulative bound.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.ProcessReturn(context.Background(), ProcessReturnInput{
				InvoiceID: 1, Reason: "damaged", UserID: 3,
				Items: []ReturnItemInput{{ProductID: 10, Quantity: 3}},
			})
		}(i)
	}
	wg.Wait()

	var ok, exceeded int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		default:
			require.ErrorIs(t, err, ErrReturnExceedsSold)
			exceeded++
		}
	}
	require.Equal(t, 1, ok)
	require.Equal(t, 1, exceeded)
	require.EqualValues(t, 3, repo.state.stock[10])
	require.Len(t, repo.state.notes, 1)
}

func TestProcessReturnRejectsForeignProduct(t *testing.T) {
	repo := newMemRepo()
	repo.addInvoice(1, billing.StatusPaid,
		SoldLine{ProductID: 10, ProductName: "Cafe", Quantity: 5, UnitPrice: 1000})
	svc := newTestService(repo)

	_, err := svc.ProcessReturn(context.Background(), ProcessReturnInput{
		InvoiceID: 1, Reason: "damaged",
		Items: []ReturnItemInput{{ProductID: 99, Quantity: 1}},
	})
	require.ErrorIs(t, err, httpx.ErrValidation)
	require.Empty(t, repo.state.notes)
}

func TestProcessReturnPartialFailureRollsBack(t *testing.T) {
	repo := newMemRepo()
	repo.addInvoice(1, billing.StatusPaid,
		SoldLine{ProductID: 10, ProductName: "Cafe", Quantity: 5, UnitPrice: 1000},
		SoldLine{ProductID: 11, ProductName: "Panela", Quantity: 1, UnitPrice: 500})
	svc := newTestService(repo)

	// Second line exceeds its bound; the valid first line must not stick.
	_, err := svc.ProcessReturn(context.Background(), ProcessReturnInput{
		InvoiceID: 1, Reason: "damaged",
		Items: []ReturnItemInput{
			{ProductID: 10, Quantity: 1},
			{ProductID: 11, Quantity: 2},
		},
	})
	require.ErrorIs(t, err, ErrReturnExceedsSold)
	require.Empty(t, repo.state.notes)
	require.EqualValues(t, 0, repo.state.stock[10])
	require.Equal(t, 0, repo.state.movements)
}
