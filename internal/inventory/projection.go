package inventory

import (
	"sync"

	"github.com/tradehubhq/tradehub-go/internal/catalog"
	"github.com/tradehubhq/tradehub-go/pkg/enums"
)

// Projection is a view's optimistic copy of one product. It advances by the
// confirmed delta of each transaction instead of re-fetching, and is
// discarded wholesale whenever authoritative state arrives: the projected
// value never outlives the view that holds it.
type Projection struct {
	mu      sync.Mutex
	product catalog.Product
}

// NewProjection seeds a projection from an authoritative fetch.
func NewProjection(product catalog.Product) *Projection {
	return &Projection{product: product}
}

// Product returns the current projected product.
func (p *Projection) Product() catalog.Product {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.product
}

// AvailableQuantity returns the projected stock level.
func (p *Projection) AvailableQuantity() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.product.AvailableQuantity
}

// Snapshot extracts the rule inputs from the projected state.
func (p *Projection) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Snapshot{
		ProductID:         p.product.ID,
		AvailableQuantity: p.product.AvailableQuantity,
		ExporterUserID:    p.product.ExporterUserID,
	}
}

// Advance applies a confirmed transaction's delta to the projection.
func (p *Projection) Advance(kind enums.TransactionKind, quantity int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.product.AvailableQuantity = Apply(Snapshot{AvailableQuantity: p.product.AvailableQuantity}, kind, quantity)
	return p.product.AvailableQuantity
}

// Refresh replaces the projection with authoritative state, superseding any
// optimistic value.
func (p *Projection) Refresh(product catalog.Product) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.product = product
}
