package cart

import (
	"context"
	"errors"
	"strconv"

	"github.com/avelar/dropship-store/internal/database"
	"github.com/avelar/dropship-store/internal/models"
	"github.com/shopspring/decimal"
)

// Catalog is the read-only product lookup the cart joins against.
type Catalog interface {
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
}

// Line is a cart entry joined live against the catalog: a product
// snapshot, the quantity, and the line total at resolution time. Lines
// are derived fresh on every resolve and never cached.
type Line struct {
	Product  *models.Product `json:"product"`
	Quantity int             `json:"quantity"`
	Total    decimal.Decimal `json:"total"`
}

// Resolve joins each cart entry against the catalog, in insertion order.
// Entries whose product no longer exists (or whose id never parsed) are
// dropped from the view silently; the stored cart is left untouched so
// the client token keeps the raw map.
func (c *Cart) Resolve(ctx context.Context, catalog Catalog) ([]Line, error) {
	lines := make([]Line, 0, len(c.ids))

	for _, id := range c.ids {
		productID, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			continue
		}

		product, err := catalog.GetProduct(ctx, productID)
		if err != nil {
			if errors.Is(err, database.ErrProductNotFound) {
				continue
			}
			return nil, err
		}

		quantity := c.quantities[id]
		lines = append(lines, Line{
			Product:  product,
			Quantity: quantity,
			Total:    product.Price.Mul(decimal.NewFromInt(int64(quantity))),
		})
	}

	return lines, nil
}

// Total sums the line totals; zero for an empty set.
func Total(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Total)
	}
	return total
}
