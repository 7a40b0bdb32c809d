package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/Emmyhack/Supply-Chain-final-project/internal/core/domain"
	"github.com/Emmyhack/Supply-Chain-final-project/internal/port"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS items (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    name        TEXT NOT NULL,
    image_ref   TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    price       INTEGER NOT NULL CHECK (price > 0),
    quantity    INTEGER NOT NULL CHECK (quantity >= 0),
    status      TEXT NOT NULL DEFAULT 'created' CHECK (status IN ('created', 'sold_out')),
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS purchases (
    buyer      TEXT NOT NULL,
    item_id    INTEGER NOT NULL REFERENCES items(id),
    quantity   INTEGER NOT NULL CHECK (quantity > 0),
    status     TEXT NOT NULL CHECK (status IN ('ordered', 'shipped', 'delivered')),
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (buyer, item_id)
);

CREATE TABLE IF NOT EXISTS item_buyers (
    seq     INTEGER PRIMARY KEY AUTOINCREMENT,
    item_id INTEGER NOT NULL REFERENCES items(id),
    buyer   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS custody (
    id      INTEGER PRIMARY KEY CHECK (id = 1),
    balance INTEGER NOT NULL CHECK (balance >= 0)
);

INSERT OR IGNORE INTO custody (id, balance) VALUES (1, 0);
`

// SQLiteAdapter implements port.LedgerStore on an embedded SQLite database.
type SQLiteAdapter struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) a SQLite database at path, configures pragmas
// and ensures the schema exists. Use ":memory:" for an in-memory database.
func OpenSQLite(path string) (*SQLiteAdapter, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteAdapter{db: db}, nil
}

func (s *SQLiteAdapter) Close() error {
	return s.db.Close()
}

func (s *SQLiteAdapter) CreateItem(ctx context.Context, item domain.Item) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO items (name, image_ref, description, price, quantity, status)
		VALUES (?, ?, ?, ?, ?, ?)`,
		item.Name, item.ImageRef, item.Description, item.Price, item.Quantity, item.Status,
	)
	if err != nil {
		return 0, fmt.Errorf("insert item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

func (s *SQLiteAdapter) GetItem(ctx context.Context, id int64) (*domain.Item, error) {
	var item domain.Item
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, image_ref, description, price, quantity, status, created_at, updated_at
		FROM items WHERE id = ?`, id,
	).Scan(&item.ID, &item.Name, &item.ImageRef, &item.Description,
		&item.Price, &item.Quantity, &item.Status, &item.CreatedAt, &item.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query item: %w", err)
	}
	return &item, nil
}

func (s *SQLiteAdapter) ListItems(ctx context.Context) ([]*domain.Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, image_ref, description, price, quantity, status, created_at, updated_at
		FROM items ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	var items []*domain.Item
	for rows.Next() {
		var item domain.Item
		if err := rows.Scan(&item.ID, &item.Name, &item.ImageRef, &item.Description,
			&item.Price, &item.Quantity, &item.Status, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return items, nil
}

func (s *SQLiteAdapter) SetItemQuantity(ctx context.Context, id, quantity int64) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE items SET quantity = ?, status = 'created', updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, quantity, id)
	if err != nil {
		return fmt.Errorf("update quantity: %w", err)
	}
	return requireRow(result)
}

func (s *SQLiteAdapter) SetItemStatus(ctx context.Context, id int64, status domain.ItemStatus) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE items SET status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	return requireRow(result)
}

func (s *SQLiteAdapter) ApplyPurchase(ctx context.Context, c domain.PurchaseCommit) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE items SET quantity = quantity - ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND quantity >= ?`,
		c.Quantity, c.ItemID, c.Quantity,
	)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return port.ErrInsufficientStock
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE items SET status = 'sold_out' WHERE id = ? AND quantity = 0`, c.ItemID); err != nil {
		return fmt.Errorf("mark sold out: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO purchases (buyer, item_id, quantity, status) VALUES (?, ?, ?, 'ordered')
		ON CONFLICT (buyer, item_id) DO UPDATE SET
			quantity = excluded.quantity,
			status = excluded.status,
			updated_at = CURRENT_TIMESTAMP`,
		c.Buyer, c.ItemID, c.Quantity,
	); err != nil {
		return fmt.Errorf("upsert purchase: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO item_buyers (item_id, buyer) VALUES (?, ?)`, c.ItemID, c.Buyer); err != nil {
		return fmt.Errorf("append buyer: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE custody SET balance = balance + ? WHERE id = 1`, c.Total); err != nil {
		return fmt.Errorf("credit custody: %w", err)
	}

	return tx.Commit()
}

func (s *SQLiteAdapter) GetPurchase(ctx context.Context, buyer string, itemID int64) (*domain.Purchase, error) {
	var rec domain.Purchase
	err := s.db.QueryRowContext(ctx, `
		SELECT buyer, item_id, quantity, status, updated_at
		FROM purchases WHERE buyer = ? AND item_id = ?`, buyer, itemID,
	).Scan(&rec.Buyer, &rec.ItemID, &rec.Quantity, &rec.Status, &rec.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query purchase: %w", err)
	}
	return &rec, nil
}

func (s *SQLiteAdapter) SetPurchaseStatus(ctx context.Context, buyer string, itemID int64, status domain.OrderStatus) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE purchases SET status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE buyer = ? AND item_id = ?`, status, buyer, itemID)
	if err != nil {
		return fmt.Errorf("update purchase status: %w", err)
	}
	return requireRow(result)
}

func (s *SQLiteAdapter) ListBuyers(ctx context.Context, itemID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT buyer FROM item_buyers WHERE item_id = ? ORDER BY seq`, itemID)
	if err != nil {
		return nil, fmt.Errorf("query buyers: %w", err)
	}
	defer rows.Close()

	var buyers []string
	for rows.Next() {
		var b string
		if err := rows.Scan(&b); err != nil {
			return nil, fmt.Errorf("scan buyer: %w", err)
		}
		buyers = append(buyers, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate buyers: %w", err)
	}
	return buyers, nil
}

func (s *SQLiteAdapter) Balance(ctx context.Context) (int64, error) {
	var balance int64
	if err := s.db.QueryRowContext(ctx, `
		SELECT balance FROM custody WHERE id = 1`).Scan(&balance); err != nil {
		return 0, fmt.Errorf("query balance: %w", err)
	}
	return balance, nil
}

func (s *SQLiteAdapter) DebitBalance(ctx context.Context, amount int64) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE custody SET balance = balance - ? WHERE id = 1 AND balance >= ?`,
		amount, amount)
	if err != nil {
		return fmt.Errorf("debit balance: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("debit balance: amount %d exceeds balance", amount)
	}
	return nil
}

func requireRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return port.ErrNotFound
	}
	return nil
}
