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

// orderRow mirrors the orders table. Line items are a JSONB snapshot copied
// from the cart at confirmation time, never joined back to products.
type orderRow struct {
	ID              string          `db:"id"`
	CustomerName    string          `db:"customer_name"`
	CustomerPhone   string          `db:"customer_phone"`
	CustomerAddress string          `db:"customer_address"`
	Items           []byte          `db:"items"`
	Total           decimal.Decimal `db:"total"`
	Status          string          `db:"status"`
	CreatedAt       time.Time       `db:"created_at"`
}

func (r *orderRow) toModel() (models.Order, error) {
	o := models.Order{
		ID:              r.ID,
		CustomerName:    r.CustomerName,
		CustomerPhone:   r.CustomerPhone,
		CustomerAddress: r.CustomerAddress,
		Total:           r.Total,
		Status:          r.Status,
		Date:            r.CreatedAt,
	}
	if len(r.Items) > 0 {
		if err := json.Unmarshal(r.Items, &o.Items); err != nil {
			return models.Order{}, fmt.Errorf("failed to decode items for order %s: %w", r.ID, err)
		}
	}
	return o, nil
}

func orderToRow(o *models.Order) (*orderRow, error) {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return nil, fmt.Errorf("failed to encode order items: %w", err)
	}
	return &orderRow{
		ID:              o.ID,
		CustomerName:    o.CustomerName,
		CustomerPhone:   o.CustomerPhone,
		CustomerAddress: o.CustomerAddress,
		Items:           items,
		Total:           o.Total,
		Status:          o.Status,
		CreatedAt:       o.Date,
	}, nil
}

// CreateOrder persists a materialized order
func (s *Store) CreateOrder(ctx context.Context, o *models.Order) error {
	row, err := orderToRow(o)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO orders (id, customer_name, customer_phone, customer_address, items, total, status, created_at)
		VALUES (:id, :customer_name, :customer_phone, :customer_address, :items, :total, :status, :created_at)`

	if _, err := s.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// GetOrders retrieves the full order history, newest first.
func (s *Store) GetOrders(ctx context.Context) ([]models.Order, error) {
	var rows []orderRow
	if err := s.db.SelectContext(ctx, &rows, "SELECT * FROM orders ORDER BY created_at DESC"); err != nil {
		return nil, err
	}

	orders := make([]models.Order, 0, len(rows))
	for i := range rows {
		o, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	var row orderRow
	err := s.db.GetContext(ctx, &row, "SELECT * FROM orders WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("order not found: %s", id)
	}
	if err != nil {
		return nil, err
	}
	o, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// UpdateOrderStatus moves an order to a new status
func (s *Store) UpdateOrderStatus(ctx context.Context, id, status string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE orders SET status = $1 WHERE id = $2", status, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("order not found: %s", id)
	}
	return nil
}

// DeleteOrder removes an order
func (s *Store) DeleteOrder(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM orders WHERE id = $1", id)
	return err
}
