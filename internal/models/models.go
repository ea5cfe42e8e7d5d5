package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID             int64      `json:"id"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	Email          string     `json:"email"`
	Phone          string     `json:"phone,omitempty"`
	PasswordDigest string     `json:"-"`
	AddressLine1   string     `json:"address_line1,omitempty"`
	AddressLine2   string     `json:"address_line2,omitempty"`
	City           string     `json:"city,omitempty"`
	State          string     `json:"state,omitempty"`
	ZipCode        string     `json:"zip_code,omitempty"`
	Country        string     `json:"country,omitempty"`
	Active         bool       `json:"active"`
	LastLoginAt    *time.Time `json:"last_login_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

type Product struct {
	ID            int64           `json:"id"`
	SKU           string          `json:"sku"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	Price         decimal.Decimal `json:"price"`
	ImageURL      string          `json:"image_url,omitempty"`
	StockQuantity int             `json:"stock_quantity"`
	Featured      bool            `json:"featured"`
	Category      string          `json:"category,omitempty"`
	Brand         string          `json:"brand,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (p *Product) InStock() bool {
	return p.StockQuantity > 0
}

type Order struct {
	ID                   int64           `json:"id"`
	UserID               *int64          `json:"user_id,omitempty"`
	OrderNumber          string          `json:"order_number"`
	CustomerName         string          `json:"customer_name"`
	CustomerEmail        string          `json:"customer_email"`
	CustomerPhone        string          `json:"customer_phone"`
	ShippingAddressLine1 string          `json:"shipping_address_line1"`
	ShippingAddressLine2 string          `json:"shipping_address_line2,omitempty"`
	ShippingCity         string          `json:"shipping_city"`
	ShippingState        string          `json:"shipping_state"`
	ShippingZipCode      string          `json:"shipping_zip_code"`
	ShippingCountry      string          `json:"shipping_country"`
	Status               string          `json:"status"`
	TotalAmount          decimal.Decimal `json:"total_amount"`
	Notes                string          `json:"notes,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
	Items                []OrderItem     `json:"items,omitempty"`
}

// OrderItem freezes the product's unit price at order-creation time.
// UnitPrice and TotalPrice are never recomputed from a live lookup.
type OrderItem struct {
	ID         int64           `json:"id"`
	OrderID    int64           `json:"order_id"`
	ProductID  int64           `json:"product_id"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
	CreatedAt  time.Time       `json:"created_at"`
}
