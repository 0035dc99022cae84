// Package sqlite provides the SQLite-backed implementation of store.Store.
//
// WAL mode is enabled on Open so that readers never block writers and vice
// versa — the admin transitions write while list queries may be reading.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	// Register the pure-Go SQLite driver. modernc.org/sqlite avoids CGO,
	// which keeps the Docker build on Alpine simple.
	_ "modernc.org/sqlite"

	"github.com/jcmexdev/order-choreography/internal/order-service/domain"
	"github.com/jcmexdev/order-choreography/internal/pkg/apperr"
)

// schema is the DDL executed once on startup. Lines cascade with their order;
// status is stored under its textual name.
const schema = `
CREATE TABLE IF NOT EXISTS orders (
    id          TEXT PRIMARY KEY,
    customer_id TEXT NOT NULL,
    status      TEXT NOT NULL,
    created_at  TEXT NOT NULL,
    updated_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS order_lines (
    id           TEXT PRIMARY KEY,
    order_id     TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
    product_id   TEXT NOT NULL,
    product_name TEXT NOT NULL,
    quantity     INTEGER NOT NULL,
    unit_price   REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_order_lines_order_id ON order_lines(order_id);
CREATE INDEX IF NOT EXISTS idx_orders_customer ON orders(customer_id, created_at);
CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status, created_at);
`

// timeFormat is the RFC3339 variant used for TEXT timestamps (SQLite idiom).
const timeFormat = "2006-01-02T15:04:05.999999999Z"

// Store is the SQLite implementation of store.Store.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}

	// SQLite performs best with a single writer connection.
	db.SetMaxOpenConns(1)

	if err := applySchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// OpenWithRetry opens the database with bounded retries and increasing
// backoff, for orchestrated environments where the volume may not be mounted
// yet when the process starts.
func OpenWithRetry(ctx context.Context, path string, attempts int) (*Store, error) {
	var lastErr error
	for i := 0; i < attempts; i++ {
		s, err := Open(path)
		if err == nil {
			return s, nil
		}
		lastErr = err
		slog.WarnContext(ctx, "database not ready yet, retrying", "attempt", i+1, "error", err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(i+1) * time.Second):
		}
	}
	return nil, fmt.Errorf("sqlite: open after %d attempts: %w", attempts, lastErr)
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("sqlite: apply schema: %w", err)
	}
	return nil
}

// Close releases the database connection. Call it with defer in main().
func (s *Store) Close() error {
	return s.db.Close()
}

// Create inserts the order and all of its lines in one transaction.
func (s *Store) Create(ctx context.Context, o *domain.Order) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &apperr.PersistenceError{Op: "create order", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	const insertOrder = `
		INSERT INTO orders (id, customer_id, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, insertOrder,
		o.ID, o.CustomerID, string(o.Status),
		o.CreatedAt.UTC().Format(timeFormat),
		o.UpdatedAt.UTC().Format(timeFormat),
	); err != nil {
		return &apperr.PersistenceError{Op: "create order", Err: err}
	}

	if err := insertLines(ctx, tx, o); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return &apperr.PersistenceError{Op: "create order", Err: err}
	}
	return nil
}

// Update replaces the order row and every line. Full-replace semantics: the
// previous lines are deleted and the current set reinserted.
func (s *Store) Update(ctx context.Context, o *domain.Order) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &apperr.PersistenceError{Op: "update order", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	const updateOrder = `
		UPDATE orders SET customer_id = ?, status = ?, updated_at = ?
		WHERE id = ?`
	res, err := tx.ExecContext(ctx, updateOrder,
		o.CustomerID, string(o.Status), o.UpdatedAt.UTC().Format(timeFormat), o.ID)
	if err != nil {
		return &apperr.PersistenceError{Op: "update order", Err: err}
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return &apperr.NotFoundError{Entity: "order", ID: o.ID}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM order_lines WHERE order_id = ?`, o.ID); err != nil {
		return &apperr.PersistenceError{Op: "update order", Err: err}
	}
	if err := insertLines(ctx, tx, o); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return &apperr.PersistenceError{Op: "update order", Err: err}
	}
	return nil
}

func insertLines(ctx context.Context, tx *sql.Tx, o *domain.Order) error {
	const insertLine = `
		INSERT INTO order_lines (id, order_id, product_id, product_name, quantity, unit_price)
		VALUES (?, ?, ?, ?, ?, ?)`
	for _, l := range o.Lines {
		if _, err := tx.ExecContext(ctx, insertLine,
			l.ID, o.ID, l.ProductID, l.ProductName, l.Quantity, l.UnitPrice,
		); err != nil {
			return &apperr.PersistenceError{Op: "insert order line", Err: err}
		}
	}
	return nil
}

// GetByID loads one order with its lines.
func (s *Store) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	const q = `
		SELECT id, customer_id, status, created_at, updated_at
		FROM   orders
		WHERE  id = ?`

	row := s.db.QueryRowContext(ctx, q, id)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &apperr.NotFoundError{Entity: "order", ID: id}
	}
	if err != nil {
		return nil, &apperr.PersistenceError{Op: "get order by id", Err: err}
	}

	if err := s.loadLines(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// GetByCustomer returns the customer's orders, newest first.
func (s *Store) GetByCustomer(ctx context.Context, customerID string) ([]*domain.Order, error) {
	const q = `
		SELECT id, customer_id, status, created_at, updated_at
		FROM   orders
		WHERE  customer_id = ?
		ORDER  BY created_at DESC, id`
	return s.listOrders(ctx, "get orders by customer", q, customerID)
}

// GetByStatus returns orders in the given status, newest first.
func (s *Store) GetByStatus(ctx context.Context, status domain.Status) ([]*domain.Order, error) {
	const q = `
		SELECT id, customer_id, status, created_at, updated_at
		FROM   orders
		WHERE  status = ?
		ORDER  BY created_at DESC, id`
	return s.listOrders(ctx, "get orders by status", q, string(status))
}

func (s *Store) listOrders(ctx context.Context, op, q string, arg any) ([]*domain.Order, error) {
	rows, err := s.db.QueryContext(ctx, q, arg)
	if err != nil {
		return nil, &apperr.PersistenceError{Op: op, Err: err}
	}
	defer rows.Close()

	var out []*domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, &apperr.PersistenceError{Op: op, Err: err}
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, &apperr.PersistenceError{Op: op, Err: err}
	}

	for _, o := range out {
		if err := s.loadLines(ctx, o); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Store) loadLines(ctx context.Context, o *domain.Order) error {
	const q = `
		SELECT id, product_id, product_name, quantity, unit_price
		FROM   order_lines
		WHERE  order_id = ?
		ORDER  BY rowid`

	rows, err := s.db.QueryContext(ctx, q, o.ID)
	if err != nil {
		return &apperr.PersistenceError{Op: "load order lines", Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		var l domain.Line
		if err := rows.Scan(&l.ID, &l.ProductID, &l.ProductName, &l.Quantity, &l.UnitPrice); err != nil {
			return &apperr.PersistenceError{Op: "load order lines", Err: err}
		}
		o.Lines = append(o.Lines, l)
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var (
		o                    domain.Order
		status               string
		createdAt, updatedAt string
	)
	if err := row.Scan(&o.ID, &o.CustomerID, &status, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	st, err := domain.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	o.SetStatus(st)

	if o.CreatedAt, err = time.Parse(timeFormat, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if o.UpdatedAt, err = time.Parse(timeFormat, updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &o, nil
}
