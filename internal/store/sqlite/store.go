// Package sqlite implements the listing store, the audit log and the ledger
// economies on an embedded SQLite file via gorm, for single-node servers.
package sqlite

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type listingRow struct {
	ID          string   `gorm:"primaryKey"`
	MarketKey   string   `gorm:"not null;index:idx_listings_seller_market,priority:2"`
	SellerID    string   `gorm:"not null;index:idx_listings_seller_market,priority:1"`
	SellerName  string   `gorm:"not null;default:''"`
	ItemType    string   `gorm:"not null"`
	ItemName    string   `gorm:"not null;default:''"`
	ItemLore    []string `gorm:"serializer:json"`
	ItemAmount  int      `gorm:"not null"`
	ItemPayload []byte
	PayType     string    `gorm:"not null"`
	EcoType     string    `gorm:"not null;default:''"`
	Price       int64     `gorm:"not null"`
	CreatedAt   time.Time `gorm:"not null;index"`
}

func (listingRow) TableName() string { return "listings" }

type auditRow struct {
	ID        int64          `gorm:"primaryKey;autoIncrement"`
	Event     string         `gorm:"not null"`
	Detail    map[string]any `gorm:"serializer:json"`
	CreatedAt time.Time      `gorm:"not null;index"`
}

func (auditRow) TableName() string { return "audit_log" }

type accountRow struct {
	Provider  string          `gorm:"primaryKey"`
	PlayerID  string          `gorm:"primaryKey"`
	Currency  string          `gorm:"primaryKey"`
	Balance   decimal.Decimal `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

func (accountRow) TableName() string { return "economy_accounts" }

// Store owns the gorm handle for one database file.
type Store struct {
	db *gorm.DB
}

// Open creates the parent directory, opens path and migrates the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: create directory %s: %w", dir, err)
		}
	}

	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.New(log.New(os.Stderr, "\r\n", log.LstdFlags), logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}

	if err := db.AutoMigrate(&listingRow{}, &auditRow{}, &accountRow{}); err != nil {
		return nil, fmt.Errorf("sqlite: migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// DB returns the underlying gorm handle.
func (s *Store) DB() *gorm.DB { return s.db }

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("sqlite: ping: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the database file.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("sqlite: close: %w", err)
	}
	return sqlDB.Close()
}
