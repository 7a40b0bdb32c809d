package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/Emmyhack/Supply-Chain-final-project/internal/core/domain"
	"github.com/Emmyhack/Supply-Chain-final-project/internal/port"
)

func getMySQLStore(t *testing.T) *MySQLAdapter {
	t.Helper()

	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		dsn = "root:root@tcp(localhost:3306)/ledger?parseTime=true"
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Skipf("MySQL not available: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	adapter := NewMySQLAdapter(db)
	if err := adapter.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return adapter
}

func uniqueBuyer() string {
	return fmt.Sprintf("test-buyer-%d", time.Now().UnixNano())
}

func TestMySQLApplyPurchase(t *testing.T) {
	store := getMySQLStore(t)
	ctx := context.Background()

	id, err := store.CreateItem(ctx, domain.Item{
		Name: "test-widget", Price: 10, Quantity: 5, Status: domain.ItemStatusCreated,
	})
	if err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}

	buyer := uniqueBuyer()
	err = store.ApplyPurchase(ctx, domain.PurchaseCommit{
		ItemID: id, Buyer: buyer, Quantity: 2, Total: 20,
	})
	if err != nil {
		t.Fatalf("ApplyPurchase failed: %v", err)
	}

	item, err := store.GetItem(ctx, id)
	if err != nil {
		t.Fatalf("GetItem failed: %v", err)
	}
	if item.Quantity != 3 {
		t.Errorf("expected quantity 3, got %d", item.Quantity)
	}

	rec, err := store.GetPurchase(ctx, buyer, id)
	if err != nil {
		t.Fatalf("GetPurchase failed: %v", err)
	}
	if rec == nil || rec.Quantity != 2 || rec.Status != domain.OrderStatusOrdered {
		t.Errorf("unexpected purchase record: %+v", rec)
	}
}

func TestMySQLApplyPurchase_InsufficientStock(t *testing.T) {
	store := getMySQLStore(t)
	ctx := context.Background()

	id, err := store.CreateItem(ctx, domain.Item{
		Name: "test-empty", Price: 10, Quantity: 1, Status: domain.ItemStatusCreated,
	})
	if err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}

	buyer := uniqueBuyer()
	err = store.ApplyPurchase(ctx, domain.PurchaseCommit{
		ItemID: id, Buyer: buyer, Quantity: 2, Total: 20,
	})
	if err != port.ErrInsufficientStock {
		t.Errorf("expected ErrInsufficientStock, got %v", err)
	}

	rec, err := store.GetPurchase(ctx, buyer, id)
	if err != nil {
		t.Fatalf("GetPurchase failed: %v", err)
	}
	if rec != nil {
		t.Errorf("expected no purchase record, got %+v", rec)
	}
}

func TestMySQLSetPurchaseStatus_Missing(t *testing.T) {
	store := getMySQLStore(t)

	err := store.SetPurchaseStatus(context.Background(), uniqueBuyer(), 1<<60, domain.OrderStatusShipped)
	if err != port.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
