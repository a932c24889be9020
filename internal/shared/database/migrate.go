package database

import (
	"gorm.io/gorm"

	"adslot/internal/analytics"
	"adslot/internal/placements"
	"adslot/internal/slots"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&slots.AdSlot{},
		&placements.SlotRecordModel{},
		&analytics.AdEvent{},
	)
}
