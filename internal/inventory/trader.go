package inventory

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/tradehubhq/tradehub-go/internal/ledger"
	"github.com/tradehubhq/tradehub-go/internal/session"
	"github.com/tradehubhq/tradehub-go/pkg/enums"
	pkgerrors "github.com/tradehubhq/tradehub-go/pkg/errors"
	"github.com/tradehubhq/tradehub-go/pkg/logger"
)

// ActorSource supplies the acting user for each submission. session.Manager
// satisfies it.
type ActorSource interface {
	Actor() *session.Actor
}

// Result is the outcome of a confirmed transaction: the persisted record and
// the optimistic post-transaction quantity the caller's view should show.
type Result struct {
	Record               *ledger.Record
	Kind                 enums.TransactionKind
	NewAvailableQuantity int
}

// Trader runs the stock-adjustment flow: rule validation, ledger submission,
// effect computation. One submission is in flight at a time; re-submission
// while a request is outstanding is refused, mirroring a view's disabled
// submit control.
type Trader struct {
	ledger   ledger.Service
	actors   ActorSource
	logger   *logger.Logger
	inFlight atomic.Bool
}

// NewTrader wires a trader over the ledger and actor source.
func NewTrader(ledgerSvc ledger.Service, actors ActorSource, logg *logger.Logger) (*Trader, error) {
	if ledgerSvc == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if actors == nil {
		return nil, fmt.Errorf("actor source required")
	}
	return &Trader{ledger: ledgerSvc, actors: actors, logger: logg}, nil
}

// Submit validates and persists one transaction against the snapshot. Rule
// rejections short-circuit before any network call; ledger failures surface
// unchanged with no local mutation and no compensating action.
func (t *Trader) Submit(ctx context.Context, snapshot Snapshot, kind enums.TransactionKind, requestedQty int) (*Result, error) {
	if !t.inFlight.CompareAndSwap(false, true) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a submission is already in flight")
	}
	defer t.inFlight.Store(false)

	actor := t.actors.Actor()
	if err := Validate(actor, snapshot, kind, requestedQty); err != nil {
		return nil, err
	}

	input := ledger.TransactionInput{
		UserID:    actor.ID,
		ProductID: snapshot.ProductID,
		Quantity:  requestedQty,
	}

	var record *ledger.Record
	var err error
	switch kind {
	case enums.TransactionKindExport:
		record, err = t.ledger.CreateExport(ctx, input)
	default:
		record, err = t.ledger.CreateImport(ctx, input)
	}
	if err != nil {
		return nil, err
	}

	// The hub's confirmed quantity drives the optimistic delta; fall back to
	// the requested amount when the record omits it.
	confirmed := record.Quantity
	if confirmed < 1 {
		confirmed = requestedQty
	}

	result := &Result{
		Record:               record,
		Kind:                 kind,
		NewAvailableQuantity: Apply(snapshot, kind, confirmed),
	}

	if t.logger != nil {
		logCtx := t.logger.WithUserID(ctx, actor.ID)
		logCtx = t.logger.WithProductID(logCtx, snapshot.ProductID)
		logCtx = t.logger.WithFields(logCtx, map[string]any{
			"kind":         kind.String(),
			"quantity":     confirmed,
			"new_quantity": result.NewAvailableQuantity,
		})
		t.logger.Info(logCtx, "transaction confirmed")
	}

	return result, nil
}

// SubmitTo runs Submit against a projection's snapshot and, on success,
// advances the projection by the confirmed delta.
func (t *Trader) SubmitTo(ctx context.Context, projection *Projection, kind enums.TransactionKind, requestedQty int) (*Result, error) {
	if projection == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "projection is required")
	}
	result, err := t.Submit(ctx, projection.Snapshot(), kind, requestedQty)
	if err != nil {
		return nil, err
	}
	confirmed := result.Record.Quantity
	if confirmed < 1 {
		confirmed = requestedQty
	}
	projection.Advance(kind, confirmed)
	return result, nil
}
