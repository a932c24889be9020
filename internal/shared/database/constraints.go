package database

import (
	"gorm.io/gorm"
)

// MigrateIndexes adds the indexes AutoMigrate cannot express
func MigrateIndexes(db *gorm.DB) error {
	// Base prices are positive
	err := db.Exec(`
		DO $$
		BEGIN
			IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_ad_slots_base_price_positive') THEN
				ALTER TABLE ad_slots ADD CONSTRAINT chk_ad_slots_base_price_positive CHECK (base_price > 0);
			END IF;
		END $$;
	`).Error
	if err != nil {
		return err
	}

	// Case insensitive publisher lookups
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_ad_slots_publisher_lower
		ON ad_slots (LOWER(publisher_wallet));
	`).Error
	if err != nil {
		return err
	}

	// Daily analytics rollups per slot
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_ad_events_slot_occurred
		ON ad_events (slot_id, occurred_at DESC);
	`).Error
	if err != nil {
		return err
	}

	return nil
}
