package ledger

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// ProductSnapshot is the denormalized display copy of a product captured at
// transaction time, so records stay renderable if the listing later changes
// or disappears.
type ProductSnapshot struct {
	Name          string          `json:"name"`
	Image         string          `json:"image"`
	Price         decimal.Decimal `json:"price"`
	OriginCountry string          `json:"originCountry"`
	Rating        float64         `json:"rating"`
}

// Record is one import or export transaction persisted by the hub.
type Record struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	Snapshot  ProductSnapshot `json:"productSnapshot"`
	CreatedAt time.Time       `json:"createdAt,omitempty"`
}

type recordWire struct {
	ID        string          `json:"id"`
	LegacyID  string          `json:"_id"`
	UserID    string          `json:"userId"`
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	Snapshot  ProductSnapshot `json:"productSnapshot"`
	CreatedAt time.Time       `json:"createdAt"`
}

// UnmarshalJSON tolerates the legacy "_id" alias some hub deployments emit.
func (r *Record) UnmarshalJSON(data []byte) error {
	var wire recordWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	r.ID = wire.ID
	if r.ID == "" {
		r.ID = wire.LegacyID
	}
	r.UserID = wire.UserID
	r.ProductID = wire.ProductID
	r.Quantity = wire.Quantity
	r.Snapshot = wire.Snapshot
	r.CreatedAt = wire.CreatedAt
	return nil
}
