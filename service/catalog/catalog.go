package catalog

import (
	"fmt"

	"github.com/boxable/subbox-server/cmd/models"
	"gorm.io/gorm"
)

// PriceCatalog maps box identifiers to their price in cents. It is populated
// once at startup and read-only afterwards, so handlers can read it from any
// goroutine without locking.
type PriceCatalog struct {
	prices map[string]int
}

// NewPriceCatalog builds a catalog from an in-memory price table.
func NewPriceCatalog(prices map[string]int) *PriceCatalog {
	copied := make(map[string]int, len(prices))
	for id, price := range prices {
		copied[id] = price
	}
	return &PriceCatalog{prices: copied}
}

// LoadPriceCatalog reads every box from the database.
func LoadPriceCatalog(db *gorm.DB) (*PriceCatalog, error) {
	var boxes []models.Box
	if err := db.Find(&boxes).Error; err != nil {
		return nil, fmt.Errorf("loading box prices: %w", err)
	}

	prices := make(map[string]int, len(boxes))
	for _, box := range boxes {
		prices[box.BoxID] = box.Price
	}
	return &PriceCatalog{prices: prices}, nil
}

// Price returns the price for a box and whether the box exists.
func (c *PriceCatalog) Price(boxID string) (int, bool) {
	price, ok := c.prices[boxID]
	return price, ok
}

// Len reports how many boxes are in the catalog.
func (c *PriceCatalog) Len() int {
	return len(c.prices)
}

// ErrorCatalog maps gateway decline codes to human-readable descriptions.
// Read-only after startup, same as PriceCatalog.
type ErrorCatalog struct {
	descriptions map[int]string
}

// NewErrorCatalog builds a catalog from an in-memory code table.
func NewErrorCatalog(descriptions map[int]string) *ErrorCatalog {
	copied := make(map[int]string, len(descriptions))
	for code, desc := range descriptions {
		copied[code] = desc
	}
	return &ErrorCatalog{descriptions: copied}
}

// LoadErrorCatalog reads every known gateway error from the database.
func LoadErrorCatalog(db *gorm.DB) (*ErrorCatalog, error) {
	var gatewayErrors []models.FakepayError
	if err := db.Find(&gatewayErrors).Error; err != nil {
		return nil, fmt.Errorf("loading gateway error descriptions: %w", err)
	}

	descriptions := make(map[int]string, len(gatewayErrors))
	for _, ge := range gatewayErrors {
		descriptions[ge.Code] = ge.Description
	}
	return &ErrorCatalog{descriptions: descriptions}, nil
}

// Describe returns the description for a decline code, falling back to a
// generic message for codes the gateway added after our last seed.
func (c *ErrorCatalog) Describe(code int) string {
	if desc, ok := c.descriptions[code]; ok {
		return desc
	}
	return fmt.Sprintf("Payment declined (code %d)", code)
}
