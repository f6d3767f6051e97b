package inventory

import (
	"context"
	"sync"
	"testing"

	"github.com/tradehubhq/tradehub-go/internal/catalog"
	"github.com/tradehubhq/tradehub-go/internal/ledger"
	"github.com/tradehubhq/tradehub-go/internal/session"
	"github.com/tradehubhq/tradehub-go/pkg/enums"
	pkgerrors "github.com/tradehubhq/tradehub-go/pkg/errors"
)

type fakeLedger struct {
	mu          sync.Mutex
	imports     int
	exports     int
	lastInput   ledger.TransactionInput
	recordQty   int
	createErr   error
	blockUntil  chan struct{}
	enteredOnce chan struct{}
}

func (f *fakeLedger) CreateImport(ctx context.Context, input ledger.TransactionInput) (*ledger.Record, error) {
	return f.create(&f.imports, input)
}

func (f *fakeLedger) CreateExport(ctx context.Context, input ledger.TransactionInput) (*ledger.Record, error) {
	return f.create(&f.exports, input)
}

func (f *fakeLedger) create(counter *int, input ledger.TransactionInput) (*ledger.Record, error) {
	f.mu.Lock()
	*counter++
	f.lastInput = input
	entered := f.enteredOnce
	f.enteredOnce = nil
	f.mu.Unlock()

	if entered != nil {
		close(entered)
	}
	if f.blockUntil != nil {
		<-f.blockUntil
	}
	if f.createErr != nil {
		return nil, f.createErr
	}
	qty := f.recordQty
	if qty == 0 {
		qty = input.Quantity
	}
	return &ledger.Record{ID: "rec-1", UserID: input.UserID, ProductID: input.ProductID, Quantity: qty}, nil
}

func (f *fakeLedger) ListImportsByUser(ctx context.Context, userID string) ([]ledger.Record, error) {
	return nil, nil
}

func (f *fakeLedger) ListExportsByUser(ctx context.Context, userID string) ([]ledger.Record, error) {
	return nil, nil
}

func (f *fakeLedger) DeleteImport(ctx context.Context, id string) error { return nil }

func (f *fakeLedger) DeleteExport(ctx context.Context, id string) error { return nil }

func (f *fakeLedger) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.imports + f.exports
}

type staticActors struct {
	actor *session.Actor
}

func (s staticActors) Actor() *session.Actor { return s.actor }

func newTestTrader(t *testing.T, ledgerSvc ledger.Service, actor *session.Actor) *Trader {
	t.Helper()
	trader, err := NewTrader(ledgerSvc, staticActors{actor: actor}, nil)
	if err != nil {
		t.Fatalf("new trader: %v", err)
	}
	return trader
}

func TestSubmitConfirmsAndComputesNewQuantity(t *testing.T) {
	fake := &fakeLedger{}
	actor := &session.Actor{ID: "uid-1", Role: enums.RoleImporter}
	trader := newTestTrader(t, fake, actor)
	snapshot := Snapshot{ProductID: "p1", AvailableQuantity: 100}

	result, err := trader.Submit(context.Background(), snapshot, enums.TransactionKindImport, 30)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.NewAvailableQuantity != 70 {
		t.Fatalf("expected projected 70, got %d", result.NewAvailableQuantity)
	}
	if fake.imports != 1 || fake.exports != 0 {
		t.Fatalf("expected one import call, got imports=%d exports=%d", fake.imports, fake.exports)
	}
	if fake.lastInput.UserID != "uid-1" || fake.lastInput.ProductID != "p1" || fake.lastInput.Quantity != 30 {
		t.Fatalf("unexpected ledger input: %+v", fake.lastInput)
	}
}

func TestSubmitUsesConfirmedQuantityForDelta(t *testing.T) {
	// The hub may clamp the quantity; the projection follows what was
	// actually recorded, not what was requested.
	fake := &fakeLedger{recordQty: 25}
	actor := &session.Actor{ID: "uid-1", Role: enums.RoleImporter}
	trader := newTestTrader(t, fake, actor)

	result, err := trader.Submit(context.Background(), Snapshot{ProductID: "p1", AvailableQuantity: 100}, enums.TransactionKindImport, 30)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.NewAvailableQuantity != 75 {
		t.Fatalf("expected 75 from confirmed 25, got %d", result.NewAvailableQuantity)
	}
}

func TestSubmitExportRoutesToExports(t *testing.T) {
	fake := &fakeLedger{}
	actor := &session.Actor{ID: "uid-2", Role: enums.RoleExporter}
	trader := newTestTrader(t, fake, actor)

	result, err := trader.Submit(context.Background(), Snapshot{ProductID: "p1", AvailableQuantity: 70}, enums.TransactionKindExport, 150)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if fake.exports != 1 || fake.imports != 0 {
		t.Fatalf("expected one export call, got imports=%d exports=%d", fake.imports, fake.exports)
	}
	if result.NewAvailableQuantity != 220 {
		t.Fatalf("expected 220, got %d", result.NewAvailableQuantity)
	}
}

func TestSubmitRejectionsMakeNoLedgerCall(t *testing.T) {
	cases := []struct {
		name  string
		actor *session.Actor
		qty   int
		code  pkgerrors.Code
	}{
		{name: "anonymous", actor: nil, qty: 10, code: pkgerrors.CodeUnauthorized},
		{name: "zero quantity", actor: &session.Actor{ID: "uid-1", Role: enums.RoleImporter}, qty: 0, code: pkgerrors.CodeInvalidQuantity},
		{name: "over stock", actor: &session.Actor{ID: "uid-1", Role: enums.RoleImporter}, qty: 80, code: pkgerrors.CodeInsufficientStock},
		{name: "wrong role", actor: &session.Actor{ID: "uid-2", Role: enums.RoleExporter}, qty: 10, code: pkgerrors.CodeRoleNotPermitted},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fake := &fakeLedger{}
			trader := newTestTrader(t, fake, tc.actor)

			_, err := trader.Submit(context.Background(), Snapshot{ProductID: "p1", AvailableQuantity: 70}, enums.TransactionKindImport, tc.qty)
			if !pkgerrors.IsCode(err, tc.code) {
				t.Fatalf("expected %s, got %v", tc.code, err)
			}
			if fake.calls() != 0 {
				t.Fatalf("expected zero ledger calls, got %d", fake.calls())
			}
		})
	}
}

func TestSubmitLedgerFailureLeavesProjectionUntouched(t *testing.T) {
	fake := &fakeLedger{createErr: pkgerrors.New(pkgerrors.CodeTransportUnavailable, "hub unreachable")}
	actor := &session.Actor{ID: "uid-1", Role: enums.RoleImporter}
	trader := newTestTrader(t, fake, actor)
	projection := NewProjection(productWithStock(100))

	_, err := trader.SubmitTo(context.Background(), projection, enums.TransactionKindImport, 30)
	if !pkgerrors.IsCode(err, pkgerrors.CodeTransportUnavailable) {
		t.Fatalf("expected transport unavailable, got %v", err)
	}
	if got := projection.AvailableQuantity(); got != 100 {
		t.Fatalf("projection mutated on failure: %d", got)
	}
}

func TestSubmitToAdvancesProjection(t *testing.T) {
	fake := &fakeLedger{}
	actor := &session.Actor{ID: "uid-1", Role: enums.RoleImporter}
	trader := newTestTrader(t, fake, actor)
	projection := NewProjection(productWithStock(100))

	if _, err := trader.SubmitTo(context.Background(), projection, enums.TransactionKindImport, 30); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if got := projection.AvailableQuantity(); got != 70 {
		t.Fatalf("expected projected 70, got %d", got)
	}

	// The projected 70, not the original 100, bounds the next import.
	_, err := trader.SubmitTo(context.Background(), projection, enums.TransactionKindImport, 80)
	if !pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	if fake.calls() != 1 {
		t.Fatalf("rejected submit reached the ledger: %d calls", fake.calls())
	}
}

func TestSubmitRefusesConcurrentSubmission(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	fake := &fakeLedger{blockUntil: release, enteredOnce: entered}
	actor := &session.Actor{ID: "uid-1", Role: enums.RoleImporter}
	trader := newTestTrader(t, fake, actor)
	snapshot := Snapshot{ProductID: "p1", AvailableQuantity: 100}

	done := make(chan error, 1)
	go func() {
		_, err := trader.Submit(context.Background(), snapshot, enums.TransactionKindImport, 10)
		done <- err
	}()

	<-entered
	_, err := trader.Submit(context.Background(), snapshot, enums.TransactionKindImport, 10)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected in-flight refusal, got %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first submit: %v", err)
	}

	// The guard resets once the first submission completes.
	if _, err := trader.Submit(context.Background(), snapshot, enums.TransactionKindImport, 10); err != nil {
		t.Fatalf("follow-up submit: %v", err)
	}
}

func productWithStock(qty int) catalog.Product {
	return catalog.Product{ID: "p1", Name: "Basmati Rice", AvailableQuantity: qty}
}
