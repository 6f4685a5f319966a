package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/fyndra/outfitscout/internal/models"
)

// watchEntryRow is the watch_entries table. The target is a JSON blob:
// its shape varies between item and outfit watches and is never
// queried by field.
type watchEntryRow struct {
	ID              string `gorm:"primaryKey;size:64"`
	Target          string `gorm:"type:json"`
	TargetPrice     decimal.Decimal `gorm:"type:decimal(12,2)"`
	NotifyOnDrop    bool
	NotifyOnRestock bool
	LastBestCost    decimal.Decimal `gorm:"type:decimal(12,2)"`
	LowestSeen      decimal.Decimal `gorm:"type:decimal(12,2)"`
	LastInStock     bool
	AlertFired      bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (watchEntryRow) TableName() string { return "watch_entries" }

// priceSnapshotRow is the append-only price_snapshots table.
type priceSnapshotRow struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	EntryID    string `gorm:"size:64;index"`
	ShopID     string `gorm:"size:64"`
	LandedCost decimal.Decimal `gorm:"type:decimal(12,2)"`
	Currency   string `gorm:"size:8"`
	InStock    bool
	ObservedAt time.Time `gorm:"index"`
}

func (priceSnapshotRow) TableName() string { return "price_snapshots" }

// MySQLStore persists watch state in MySQL via gorm.
type MySQLStore struct {
	db *gorm.DB
}

// OpenMySQL connects to MySQL, configures the pool, and migrates the
// watch tables.
func OpenMySQL(dsn string) (*MySQLStore, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to MySQL: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&watchEntryRow{}, &priceSnapshotRow{}); err != nil {
		return nil, fmt.Errorf("migrate watch tables: %w", err)
	}

	return &MySQLStore{db: db}, nil
}

func (s *MySQLStore) CreateEntry(ctx context.Context, entry *models.WatchEntry) error {
	row, err := toRow(entry)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("create watch entry %s: %w", entry.ID, err)
	}
	return nil
}

func (s *MySQLStore) GetEntry(ctx context.Context, id string) (*models.WatchEntry, error) {
	var row watchEntryRow
	err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("watch entry %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get watch entry %s: %w", id, err)
	}
	return fromRow(&row)
}

func (s *MySQLStore) ListEntries(ctx context.Context) ([]*models.WatchEntry, error) {
	var rows []watchEntryRow
	if err := s.db.WithContext(ctx).Order("created_at").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list watch entries: %w", err)
	}
	entries := make([]*models.WatchEntry, 0, len(rows))
	for i := range rows {
		entry, err := fromRow(&rows[i])
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *MySQLStore) SaveEntry(ctx context.Context, entry *models.WatchEntry) error {
	row, err := toRow(entry)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Save(row).Error; err != nil {
		return fmt.Errorf("save watch entry %s: %w", entry.ID, err)
	}
	return nil
}

func (s *MySQLStore) DeleteEntry(ctx context.Context, id string) error {
	tx := s.db.WithContext(ctx)
	if err := tx.Delete(&watchEntryRow{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("delete watch entry %s: %w", id, err)
	}
	if err := tx.Delete(&priceSnapshotRow{}, "entry_id = ?", id).Error; err != nil {
		return fmt.Errorf("delete snapshots for %s: %w", id, err)
	}
	return nil
}

func (s *MySQLStore) AppendSnapshot(ctx context.Context, snap models.PriceSnapshot) error {
	row := priceSnapshotRow{
		EntryID:    snap.EntryID,
		ShopID:     snap.ShopID,
		LandedCost: snap.LandedCost,
		Currency:   snap.Currency,
		InStock:    snap.InStock,
		ObservedAt: snap.ObservedAt,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("append snapshot for %s: %w", snap.EntryID, err)
	}
	return nil
}

func (s *MySQLStore) History(ctx context.Context, entryID string, limit int) ([]models.PriceSnapshot, error) {
	q := s.db.WithContext(ctx).Where("entry_id = ?", entryID).Order("observed_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []priceSnapshotRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("history for %s: %w", entryID, err)
	}
	snaps := make([]models.PriceSnapshot, 0, len(rows))
	for _, row := range rows {
		snaps = append(snaps, models.PriceSnapshot{
			EntryID:    row.EntryID,
			ShopID:     row.ShopID,
			LandedCost: row.LandedCost,
			Currency:   row.Currency,
			InStock:    row.InStock,
			ObservedAt: row.ObservedAt,
		})
	}
	return snaps, nil
}

func toRow(entry *models.WatchEntry) (*watchEntryRow, error) {
	target, err := json.Marshal(entry.Target)
	if err != nil {
		return nil, fmt.Errorf("encode watch target: %w", err)
	}
	return &watchEntryRow{
		ID:              entry.ID,
		Target:          string(target),
		TargetPrice:     entry.TargetPrice,
		NotifyOnDrop:    entry.NotifyOnDrop,
		NotifyOnRestock: entry.NotifyOnRestock,
		LastBestCost:    entry.LastBestCost,
		LowestSeen:      entry.LowestSeen,
		LastInStock:     entry.LastInStock,
		AlertFired:      entry.AlertFired,
		CreatedAt:       entry.CreatedAt,
	}, nil
}

func fromRow(row *watchEntryRow) (*models.WatchEntry, error) {
	var target models.WatchTarget
	if err := json.Unmarshal([]byte(row.Target), &target); err != nil {
		return nil, fmt.Errorf("decode watch target for %s: %w", row.ID, err)
	}
	return &models.WatchEntry{
		ID:              row.ID,
		Target:          target,
		TargetPrice:     row.TargetPrice,
		NotifyOnDrop:    row.NotifyOnDrop,
		NotifyOnRestock: row.NotifyOnRestock,
		LastBestCost:    row.LastBestCost,
		LowestSeen:      row.LowestSeen,
		LastInStock:     row.LastInStock,
		AlertFired:      row.AlertFired,
		CreatedAt:       row.CreatedAt,
	}, nil
}
