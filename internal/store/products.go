package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"motoverse/internal/models"

	"github.com/shopspring/decimal"
)

// productRow mirrors the products table. Optional columns predate the
// condition/fuel migration, so they scan as nullable and normalization fills
// the defaults on the way out.
type productRow struct {
	ID          string          `db:"id"`
	Name        string          `db:"name"`
	Brand       string          `db:"brand"`
	Category    string          `db:"category"`
	Price       decimal.Decimal `db:"price"`
	Image       string          `db:"image"`
	Description string          `db:"description"`
	Stock       int             `db:"stock"`
	Specs       []byte          `db:"specs"`
	Condition   sql.NullString  `db:"condition"`
	FuelType    sql.NullString  `db:"fuel_type"`
	CreatedAt   time.Time       `db:"created_at"`
}

func (r *productRow) toModel() (models.Product, error) {
	p := models.Product{
		ID:          r.ID,
		Name:        r.Name,
		Brand:       r.Brand,
		Category:    r.Category,
		Price:       r.Price,
		Image:       r.Image,
		Description: r.Description,
		Stock:       r.Stock,
		Condition:   r.Condition.String,
		FuelType:    r.FuelType.String,
		CreatedAt:   r.CreatedAt,
	}
	if len(r.Specs) > 0 {
		if err := json.Unmarshal(r.Specs, &p.Specs); err != nil {
			return models.Product{}, fmt.Errorf("failed to decode specs for product %s: %w", r.ID, err)
		}
	}
	p.Normalize()
	return p, nil
}

func productToRow(p *models.Product) (*productRow, error) {
	specs, err := json.Marshal(p.Specs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode specs: %w", err)
	}
	return &productRow{
		ID:          p.ID,
		Name:        p.Name,
		Brand:       p.Brand,
		Category:    p.Category,
		Price:       p.Price,
		Image:       p.Image,
		Description: p.Description,
		Stock:       p.Stock,
		Specs:       specs,
		Condition:   sql.NullString{String: p.Condition, Valid: p.Condition != ""},
		FuelType:    sql.NullString{String: p.FuelType, Valid: p.FuelType != ""},
	}, nil
}

// GetProducts retrieves the full catalog, normalized.
func (s *Store) GetProducts(ctx context.Context) ([]models.Product, error) {
	var rows []productRow
	if err := s.db.SelectContext(ctx, &rows, "SELECT * FROM products ORDER BY created_at"); err != nil {
		return nil, err
	}

	products := make([]models.Product, 0, len(rows))
	for i := range rows {
		p, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, nil
}

// GetProductByID retrieves a single product
func (s *Store) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	var row productRow
	err := s.db.GetContext(ctx, &row, "SELECT * FROM products WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("product not found: %s", id)
	}
	if err != nil {
		return nil, err
	}
	p, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProduct inserts a new product
func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	row, err := productToRow(p)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO products (id, name, brand, category, price, image, description, stock, specs, condition, fuel_type)
		VALUES (:id, :name, :brand, :category, :price, :image, :description, :stock, :specs, :condition, :fuel_type)`

	if _, err := s.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// UpdateProduct replaces all editable fields of a product
func (s *Store) UpdateProduct(ctx context.Context, p *models.Product) error {
	row, err := productToRow(p)
	if err != nil {
		return err
	}

	query := `
		UPDATE products
		SET name = :name, brand = :brand, category = :category, price = :price,
		    image = :image, description = :description, stock = :stock,
		    specs = :specs, condition = :condition, fuel_type = :fuel_type
		WHERE id = :id`

	res, err := s.db.NamedExecContext(ctx, query, row)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("product not found: %s", p.ID)
	}
	return nil
}

// DeleteProduct removes a product
func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	return err
}

// CountProducts returns the catalog size; used by the diagnostics read probe.
func (s *Store) CountProducts(ctx context.Context) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM products")
	return count, err
}
