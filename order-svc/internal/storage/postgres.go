package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"

	"lunchbox/order-svc/internal/domain"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

//go:embed migrations/*.sql
var migrations embed.FS

const orderColumns = `id, user_id, user_name, user_email, restaurant_id, menu_item_id, menu_item_name,
	category, unit_price, to_char(order_date, 'YYYY-MM-DD'), quantity, note, is_paid, created_at, updated_at`

type PostgresStore struct {
	DB *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{DB: db}
}

func RunMigrations(db *sql.DB) error {
	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("could not open embedded migrations: %w", err)
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.OrderLine, error) {
	var (
		where []string
		args  []interface{}
	)
	add := func(clause string, arg interface{}) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if filter.UserID != "" {
		add("user_id = $%d", filter.UserID)
	}
	if filter.RestaurantID != "" {
		add("restaurant_id = $%d", filter.RestaurantID)
	}
	if filter.Date != "" {
		add("order_date = $%d", filter.Date)
	}
	if len(filter.Dates) > 0 {
		add("order_date = ANY($%d::date[])", pq.Array(filter.Dates))
	}
	if len(filter.IDs) > 0 {
		add("id = ANY($%d)", pq.Array(filter.IDs))
	}

	query := "SELECT " + orderColumns + " FROM order_lines"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY order_date, created_at, id"

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := make([]domain.OrderLine, 0)
	for rows.Next() {
		var line domain.OrderLine
		if err := rows.Scan(&line.ID, &line.UserID, &line.UserName, &line.UserEmail, &line.RestaurantID,
			&line.MenuItemID, &line.MenuItemName, &line.Category, &line.UnitPrice, &line.Date,
			&line.Quantity, &line.Note, &line.IsPaid, &line.CreatedAt, &line.UpdatedAt); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func (s *PostgresStore) CreateOrder(ctx context.Context, line domain.OrderLine) (domain.OrderLine, error) {
	line.ID = uuid.NewString()
	err := s.DB.QueryRowContext(ctx, `
		INSERT INTO order_lines (id, user_id, user_name, user_email, restaurant_id, menu_item_id,
			menu_item_name, category, unit_price, order_date, quantity, note, is_paid)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at
	`, line.ID, line.UserID, line.UserName, line.UserEmail, line.RestaurantID, line.MenuItemID,
		line.MenuItemName, line.Category, line.UnitPrice, line.Date, line.Quantity, line.Note, line.IsPaid).
		Scan(&line.CreatedAt, &line.UpdatedAt)
	if err != nil {
		return domain.OrderLine{}, err
	}
	return line, nil
}

func (s *PostgresStore) UpdateOrder(ctx context.Context, id string, patch domain.OrderPatch) (bool, error) {
	if patch.Empty() {
		return s.exists(ctx, id)
	}
	var (
		set  []string
		args []interface{}
	)
	if patch.Quantity != nil {
		args = append(args, *patch.Quantity)
		set = append(set, fmt.Sprintf("quantity = $%d", len(args)))
	}
	if patch.Note != nil {
		args = append(args, *patch.Note)
		set = append(set, fmt.Sprintf("note = $%d", len(args)))
	}
	if patch.IsPaid != nil {
		args = append(args, *patch.IsPaid)
		set = append(set, fmt.Sprintf("is_paid = $%d", len(args)))
	}
	args = append(args, id)
	query := fmt.Sprintf("UPDATE order_lines SET %s, updated_at = CURRENT_TIMESTAMP WHERE id = $%d",
		strings.Join(set, ", "), len(args))

	res, err := s.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	return affected > 0, err
}

func (s *PostgresStore) DeleteOrder(ctx context.Context, id string) (bool, error) {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM order_lines WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	return affected > 0, err
}

func (s *PostgresStore) exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := s.DB.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM order_lines WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}
