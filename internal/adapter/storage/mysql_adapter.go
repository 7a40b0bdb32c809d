package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Emmyhack/Supply-Chain-final-project/internal/core/domain"
	"github.com/Emmyhack/Supply-Chain-final-project/internal/port"
)

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS items (
		id          BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		name        VARCHAR(255) NOT NULL,
		image_ref   TEXT NOT NULL,
		description TEXT NOT NULL,
		price       BIGINT NOT NULL,
		quantity    BIGINT NOT NULL,
		status      VARCHAR(16) NOT NULL DEFAULT 'created',
		created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS purchases (
		buyer      VARCHAR(255) NOT NULL,
		item_id    BIGINT NOT NULL,
		quantity   BIGINT NOT NULL,
		status     VARCHAR(16) NOT NULL,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (buyer, item_id)
	)`,
	`CREATE TABLE IF NOT EXISTS item_buyers (
		seq     BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		item_id BIGINT NOT NULL,
		buyer   VARCHAR(255) NOT NULL,
		INDEX idx_item_buyers_item (item_id)
	)`,
	`CREATE TABLE IF NOT EXISTS custody (
		id      TINYINT NOT NULL PRIMARY KEY,
		balance BIGINT NOT NULL
	)`,
	`INSERT IGNORE INTO custody (id, balance) VALUES (1, 0)`,
}

// MySQLAdapter implements port.LedgerStore on MySQL. It mirrors the SQLite
// adapter; purchase commits ride a single transaction with a conditional
// stock decrement so the ledger can never go negative.
type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

// EnsureSchema creates the ledger tables if they do not exist.
func (m *MySQLAdapter) EnsureSchema(ctx context.Context) error {
	for _, stmt := range mysqlSchema {
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

func (m *MySQLAdapter) CreateItem(ctx context.Context, item domain.Item) (int64, error) {
	result, err := m.db.ExecContext(ctx, `
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

func (m *MySQLAdapter) GetItem(ctx context.Context, id int64) (*domain.Item, error) {
	var item domain.Item
	err := m.db.QueryRowContext(ctx, `
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

func (m *MySQLAdapter) ListItems(ctx context.Context) ([]*domain.Item, error) {
	rows, err := m.db.QueryContext(ctx, `
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

func (m *MySQLAdapter) SetItemQuantity(ctx context.Context, id, quantity int64) error {
	result, err := m.db.ExecContext(ctx, `
		UPDATE items SET quantity = ?, status = 'created', updated_at = NOW()
		WHERE id = ?`, quantity, id)
	if err != nil {
		return fmt.Errorf("update quantity: %w", err)
	}
	return requireRow(result)
}

func (m *MySQLAdapter) SetItemStatus(ctx context.Context, id int64, status domain.ItemStatus) error {
	result, err := m.db.ExecContext(ctx, `
		UPDATE items SET status = ?, updated_at = NOW()
		WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	return requireRow(result)
}

func (m *MySQLAdapter) ApplyPurchase(ctx context.Context, c domain.PurchaseCommit) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE items SET quantity = quantity - ?, updated_at = NOW()
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
		ON DUPLICATE KEY UPDATE
			quantity = VALUES(quantity),
			status = VALUES(status),
			updated_at = NOW()`,
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

func (m *MySQLAdapter) GetPurchase(ctx context.Context, buyer string, itemID int64) (*domain.Purchase, error) {
	var rec domain.Purchase
	err := m.db.QueryRowContext(ctx, `
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

func (m *MySQLAdapter) SetPurchaseStatus(ctx context.Context, buyer string, itemID int64, status domain.OrderStatus) error {
	result, err := m.db.ExecContext(ctx, `
		UPDATE purchases SET status = ?, updated_at = NOW()
		WHERE buyer = ? AND item_id = ?`, status, buyer, itemID)
	if err != nil {
		return fmt.Errorf("update purchase status: %w", err)
	}
	// MySQL reports zero affected rows for a same-value update; check the
	// record actually exists before reporting not found.
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		rec, err := m.GetPurchase(ctx, buyer, itemID)
		if err != nil {
			return err
		}
		if rec == nil {
			return port.ErrNotFound
		}
	}
	return nil
}

func (m *MySQLAdapter) ListBuyers(ctx context.Context, itemID int64) ([]string, error) {
	rows, err := m.db.QueryContext(ctx, `
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

func (m *MySQLAdapter) Balance(ctx context.Context) (int64, error) {
	var balance int64
	if err := m.db.QueryRowContext(ctx, `
		SELECT balance FROM custody WHERE id = 1`).Scan(&balance); err != nil {
		return 0, fmt.Errorf("query balance: %w", err)
	}
	return balance, nil
}

func (m *MySQLAdapter) DebitBalance(ctx context.Context, amount int64) error {
	result, err := m.db.ExecContext(ctx, `
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
