package inventory

import (
	"fmt"

	"github.com/tradehubhq/tradehub-go/internal/catalog"
	"github.com/tradehubhq/tradehub-go/internal/session"
	"github.com/tradehubhq/tradehub-go/pkg/enums"
	pkgerrors "github.com/tradehubhq/tradehub-go/pkg/errors"
)

// Snapshot is the caller's last-known copy of the product fields the rule
// needs. It may be stale; the hub remains authoritative.
type Snapshot struct {
	ProductID         string
	AvailableQuantity int
	ExporterUserID    string
}

// SnapshotOf extracts a rule snapshot from a catalog product.
func SnapshotOf(p *catalog.Product) Snapshot {
	if p == nil {
		return Snapshot{}
	}
	return Snapshot{
		ProductID:         p.ID,
		AvailableQuantity: p.AvailableQuantity,
		ExporterUserID:    p.ExporterUserID,
	}
}

// Validate checks a requested transaction against the snapshot before any
// network call is made. Anonymous callers are rejected outright; imports are
// bounded by the known stock and gated to the importer role when the role is
// known; exports model replenishment and carry no upper bound.
func Validate(actor *session.Actor, snapshot Snapshot, kind enums.TransactionKind, requestedQty int) error {
	if actor == nil || actor.ID == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "no user signed in")
	}
	if !kind.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid transaction kind %q", kind))
	}
	if requestedQty < 1 {
		return pkgerrors.New(pkgerrors.CodeInvalidQuantity, fmt.Sprintf("quantity %d is below one", requestedQty))
	}

	if kind == enums.TransactionKindImport {
		if requestedQty > snapshot.AvailableQuantity {
			return pkgerrors.New(pkgerrors.CodeInsufficientStock,
				fmt.Sprintf("requested %d exceeds available %d", requestedQty, snapshot.AvailableQuantity))
		}
		if actor.Role != "" && actor.Role != enums.RoleImporter {
			return pkgerrors.New(pkgerrors.CodeRoleNotPermitted, "only importers may import")
		}
	}

	return nil
}

// Apply computes the post-transaction available quantity. It must only be
// called after the ledger confirms the transaction; the rule never mutates
// state on speculative requests.
func Apply(snapshot Snapshot, kind enums.TransactionKind, quantity int) int {
	if kind == enums.TransactionKindExport {
		return snapshot.AvailableQuantity + quantity
	}
	return snapshot.AvailableQuantity - quantity
}
