package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/avelar/dropship-store/internal/database"
	"github.com/avelar/dropship-store/internal/models"
	"github.com/shopspring/decimal"
)

const selectProduct = `
	SELECT id, sku, name, description, price, image_url, stock_quantity,
	       featured, category, brand, created_at, updated_at
	FROM products`

func scanProduct(row rowScanner, product *models.Product) error {
	var description, imageURL, category, brand sql.NullString
	err := row.Scan(
		&product.ID,
		&product.SKU,
		&product.Name,
		&description,
		&product.Price,
		&imageURL,
		&product.StockQuantity,
		&product.Featured,
		&category,
		&brand,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return err
	}
	product.Description = description.String
	product.ImageURL = imageURL.String
	product.Category = category.String
	product.Brand = brand.String
	return nil
}

type CreateProductRequest struct {
	SKU           string
	Name          string
	Description   string
	Price         decimal.Decimal
	ImageURL      string
	StockQuantity int
	Featured      bool
	Category      string
	Brand         string
}

func CreateProduct(ctx context.Context, db *sql.DB, req CreateProductRequest) (*models.Product, error) {
	product := &models.Product{}

	query := `
		INSERT INTO products (sku, name, description, price, image_url, stock_quantity,
		                      featured, category, brand, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING id, sku, name, description, price, image_url, stock_quantity,
		          featured, category, brand, created_at, updated_at`

	err := scanProduct(db.QueryRowContext(ctx, query,
		req.SKU, req.Name, req.Description, req.Price, req.ImageURL,
		req.StockQuantity, req.Featured, req.Category, req.Brand), product)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, database.ErrDuplicateSKU
		}
		return nil, fmt.Errorf("create product: %w", err)
	}

	return product, nil
}

func GetProduct(ctx context.Context, db *sql.DB, id int64) (*models.Product, error) {
	product := &models.Product{}

	err := scanProduct(db.QueryRowContext(ctx, selectProduct+` WHERE id = $1`, id), product)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	return product, nil
}

// UpdateProductPrice changes the live catalog price. Existing order
// items keep their frozen unit prices.
func UpdateProductPrice(ctx context.Context, db *sql.DB, id int64, price decimal.Decimal) error {
	result, err := db.ExecContext(ctx,
		`UPDATE products SET price = $1, updated_at = NOW() WHERE id = $2`,
		price, id)
	if err != nil {
		return fmt.Errorf("update product price: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrProductNotFound
	}

	return nil
}

func ListProducts(ctx context.Context, db *sql.DB, page, pageSize int) (*OffsetPage, error) {
	var total int64
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	offset := (page - 1) * pageSize
	query := selectProduct + `
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := db.QueryContext(ctx, query, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var product models.Product
		if err := scanProduct(rows, &product); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	return &OffsetPage{
		Items:      products,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// ListFeatured returns up to limit featured products for the storefront
// highlight strip.
func ListFeatured(ctx context.Context, db *sql.DB, limit int) ([]models.Product, error) {
	query := selectProduct + `
		WHERE featured
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list featured products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var product models.Product
		if err := scanProduct(rows, &product); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return products, nil
}

// Catalog adapts the product store to the cart's lookup interface.
type Catalog struct {
	DB *sql.DB
}

func (c *Catalog) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	return GetProduct(ctx, c.DB, id)
}
