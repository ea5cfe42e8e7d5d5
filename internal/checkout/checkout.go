// Package checkout converts a resolved cart into a persisted order:
// validation, per-line price freezing, and the atomic commit boundary.
package checkout

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/avelar/dropship-store/internal/cart"
	"github.com/avelar/dropship-store/internal/models"
	"github.com/avelar/dropship-store/internal/store"
)

// ErrEmptyCart rejects a commit whose resolved line set is empty, which
// includes carts referencing only deleted products. Distinct from field
// validation so the surface can report it separately.
var ErrEmptyCart = errors.New("cart is empty")

// ValidationError carries field-level detail for missing or malformed
// customer and shipping fields. The order is not created.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	return "invalid order fields: " + strings.Join(parts, "; ")
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// CustomerInfo is everything the customer supplies at checkout. The
// total is never part of it; pricing comes from the catalog alone.
type CustomerInfo struct {
	Name         string `json:"customer_name"`
	Email        string `json:"customer_email"`
	Phone        string `json:"customer_phone"`
	AddressLine1 string `json:"shipping_address_line1"`
	AddressLine2 string `json:"shipping_address_line2"`
	City         string `json:"shipping_city"`
	State        string `json:"shipping_state"`
	ZipCode      string `json:"shipping_zip_code"`
	Country      string `json:"shipping_country"`
	Notes        string `json:"notes"`
}

func (info *CustomerInfo) Validate() *ValidationError {
	fields := make(map[string]string)

	if len(strings.TrimSpace(info.Name)) < 2 {
		fields["customer_name"] = "must be at least 2 characters"
	}
	if !emailPattern.MatchString(strings.TrimSpace(info.Email)) {
		fields["customer_email"] = "must be a valid email address"
	}
	if strings.TrimSpace(info.Phone) == "" {
		fields["customer_phone"] = "is required"
	}
	if strings.TrimSpace(info.AddressLine1) == "" {
		fields["shipping_address_line1"] = "is required"
	}
	if strings.TrimSpace(info.City) == "" {
		fields["shipping_city"] = "is required"
	}
	if strings.TrimSpace(info.State) == "" {
		fields["shipping_state"] = "is required"
	}
	if strings.TrimSpace(info.ZipCode) == "" {
		fields["shipping_zip_code"] = "is required"
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// OrderWriter is the transactional persistence boundary: either the
// order and every item land, or nothing does.
type OrderWriter interface {
	CreateOrder(ctx context.Context, req store.CreateOrderRequest) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, status string) (*models.Order, error)
}

// Commit resolves the cart against the catalog and persists it as one
// order. Unit prices are frozen from the resolved snapshots; later
// catalog price changes do not touch the created items. No stock is
// decremented here: stock_quantity is informational on this path.
func Commit(ctx context.Context, c *cart.Cart, catalog cart.Catalog, orders OrderWriter, userID *int64, info CustomerInfo) (*models.Order, error) {
	lines, err := c.Resolve(ctx, catalog)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	if verr := info.Validate(); verr != nil {
		return nil, verr
	}

	country := strings.TrimSpace(info.Country)
	if country == "" {
		country = "US"
	}

	req := store.CreateOrderRequest{
		UserID:               userID,
		CustomerName:         strings.TrimSpace(info.Name),
		CustomerEmail:        strings.ToLower(strings.TrimSpace(info.Email)),
		CustomerPhone:        strings.TrimSpace(info.Phone),
		ShippingAddressLine1: strings.TrimSpace(info.AddressLine1),
		ShippingAddressLine2: strings.TrimSpace(info.AddressLine2),
		ShippingCity:         strings.TrimSpace(info.City),
		ShippingState:        strings.TrimSpace(info.State),
		ShippingZipCode:      strings.TrimSpace(info.ZipCode),
		ShippingCountry:      country,
		Notes:                info.Notes,
		TotalAmount:          cart.Total(lines),
	}

	for _, line := range lines {
		req.Items = append(req.Items, store.OrderItemRequest{
			ProductID:  line.Product.ID,
			Quantity:   line.Quantity,
			UnitPrice:  line.Product.Price,
			TotalPrice: line.Total,
		})
	}

	return orders.CreateOrder(ctx, req)
}

// Cancel moves an order to cancelled. Only pending and processing
// orders qualify; anything further along fails without a state change.
func Cancel(ctx context.Context, orders OrderWriter, order *models.Order) (*models.Order, error) {
	if !order.CanBeCancelled() {
		return nil, models.ErrInvalidTransition
	}
	return orders.UpdateOrderStatus(ctx, order.ID, models.OrderStatusCancelled)
}
