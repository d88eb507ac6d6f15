// Package cache keeps a local snapshot of the dealer's inventory so the
// inventory view can render the last-known list before a refetch lands
// and keep working offline.
package cache

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kigundalevi/carsawa/internal/model"
)

// cachedCar is one snapshot row. The car document is stored as JSON;
// the cache never interprets it beyond identity.
type cachedCar struct {
	ID        string    `gorm:"column:id;primaryKey"`
	DealerID  string    `gorm:"column:dealer_id;index;not null"`
	Payload   []byte    `gorm:"column:payload;not null"`
	FetchedAt time.Time `gorm:"column:fetched_at;not null"`
}

func (cachedCar) TableName() string {
	return "inventory_snapshot"
}

// Cache is a sqlite-backed inventory snapshot store.
type Cache struct {
	db *gorm.DB
}

// Open opens (and migrates) the snapshot database at path.
func Open(path string) (*Cache, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	if err := db.AutoMigrate(&cachedCar{}); err != nil {
		return nil, fmt.Errorf("migrate cache db: %w", err)
	}
	return &Cache{db: db}, nil
}

// Put replaces the dealer's snapshot with cars in one transaction.
func (c *Cache) Put(dealerID string, cars []model.Car) error {
	now := time.Now()
	rows := make([]cachedCar, 0, len(cars))
	for _, car := range cars {
		b, err := json.Marshal(car)
		if err != nil {
			return err
		}
		rows = append(rows, cachedCar{ID: car.ID, DealerID: dealerID, Payload: b, FetchedAt: now})
	}
	return c.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("dealer_id = ?", dealerID).Delete(&cachedCar{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
}

// Get returns the dealer's last snapshot, oldest-listed first.
func (c *Cache) Get(dealerID string) ([]model.Car, error) {
	var rows []cachedCar
	if err := c.db.Where("dealer_id = ?", dealerID).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]model.Car, 0, len(rows))
	for _, r := range rows {
		var car model.Car
		if err := json.Unmarshal(r.Payload, &car); err != nil {
			return nil, fmt.Errorf("corrupt snapshot row %s: %w", r.ID, err)
		}
		out = append(out, car)
	}
	return out, nil
}

// Close releases the underlying database handle.
func (c *Cache) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
