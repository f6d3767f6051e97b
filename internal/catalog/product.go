package catalog

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Product is a trade listing as served by the hub API.
type Product struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Image             string          `json:"image"`
	Price             decimal.Decimal `json:"price"`
	OriginCountry     string          `json:"originCountry"`
	Rating            float64         `json:"rating"`
	AvailableQuantity int             `json:"availableQuantity"`
	Description       string          `json:"description,omitempty"`
	ExporterUserID    string          `json:"exporterUserId,omitempty"`
	CreatedAt         time.Time       `json:"createdAt,omitempty"`
	UpdatedAt         time.Time       `json:"updatedAt,omitempty"`
}

// productWire carries the legacy aliases some hub deployments still emit:
// "_id" for id, "img" for image, and "country" for originCountry.
type productWire struct {
	ID                string          `json:"id"`
	LegacyID          string          `json:"_id"`
	Name              string          `json:"name"`
	Image             string          `json:"image"`
	LegacyImage       string          `json:"img"`
	Price             decimal.Decimal `json:"price"`
	OriginCountry     string          `json:"originCountry"`
	LegacyCountry     string          `json:"country"`
	Rating            float64         `json:"rating"`
	AvailableQuantity int             `json:"availableQuantity"`
	Description       string          `json:"description"`
	ExporterUserID    string          `json:"exporterUserId"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// UnmarshalJSON decodes a product, preferring canonical field names and
// falling back to the legacy aliases.
func (p *Product) UnmarshalJSON(data []byte) error {
	var wire productWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	p.ID = firstNonEmpty(wire.ID, wire.LegacyID)
	p.Name = wire.Name
	p.Image = firstNonEmpty(wire.Image, wire.LegacyImage)
	p.Price = wire.Price
	p.OriginCountry = firstNonEmpty(wire.OriginCountry, wire.LegacyCountry)
	p.Rating = wire.Rating
	p.AvailableQuantity = wire.AvailableQuantity
	p.Description = wire.Description
	p.ExporterUserID = wire.ExporterUserID
	p.CreatedAt = wire.CreatedAt
	p.UpdatedAt = wire.UpdatedAt
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
