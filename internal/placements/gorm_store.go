package placements

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// JSONPlacement stores an optional placement in a jsonb column
type JSONPlacement struct {
	Placement *Placement
}

// Value implements the driver.Valuer interface for database storage
func (j JSONPlacement) Value() (driver.Value, error) {
	if j.Placement == nil {
		return nil, nil
	}
	return json.Marshal(j.Placement)
}

// Scan implements the sql.Scanner interface for database retrieval
func (j *JSONPlacement) Scan(value interface{}) error {
	data, err := jsonColumnBytes(value)
	if err != nil || data == nil {
		j.Placement = nil
		return err
	}
	var p Placement
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	j.Placement = &p
	return nil
}

// GormDataType tells GORM how to handle this type
func (JSONPlacement) GormDataType() string {
	return "jsonb"
}

// JSONPlacements stores a queue in a jsonb column
type JSONPlacements []*Placement

// Value implements the driver.Valuer interface for database storage
func (j JSONPlacements) Value() (driver.Value, error) {
	if len(j) == 0 {
		return "[]", nil
	}
	return json.Marshal([]*Placement(j))
}

// Scan implements the sql.Scanner interface for database retrieval
func (j *JSONPlacements) Scan(value interface{}) error {
	data, err := jsonColumnBytes(value)
	if err != nil || data == nil {
		*j = nil
		return err
	}
	return json.Unmarshal(data, (*[]*Placement)(j))
}

// GormDataType tells GORM how to handle this type
func (JSONPlacements) GormDataType() string {
	return "jsonb"
}

func jsonColumnBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, errors.New("type assertion to []byte failed")
	}
}

// SlotRecordModel is the postgres row behind GormStore.
type SlotRecordModel struct {
	SlotID          string         `gorm:"type:varchar(128);primaryKey" json:"slot_id"`
	ActivePlacement JSONPlacement  `gorm:"type:jsonb" json:"active_placement"`
	Queue           JSONPlacements `gorm:"type:jsonb;not null;default:'[]'" json:"queue"`
	Version         int64          `gorm:"not null;default:0" json:"version"`
	LastUpdated     time.Time      `gorm:"not null" json:"last_updated"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

func (SlotRecordModel) TableName() string {
	return "slot_records"
}

// GormStore persists slot records in postgres with an optimistic version
// column. A write that matches no row at the expected version lost a race.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (g *GormStore) Load(ctx context.Context, slotID string) (*SlotRecord, error) {
	var row SlotRecordModel
	err := g.db.WithContext(ctx).Where("slot_id = ?", slotID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NewSlotRecord(slotID), nil
	}
	if err != nil {
		return nil, err
	}

	rec := &SlotRecord{
		SlotID:          row.SlotID,
		ActivePlacement: row.ActivePlacement.Placement,
		Queue:           []*Placement(row.Queue),
		LastUpdated:     row.LastUpdated,
		Version:         row.Version,
	}
	rec.normalize(slotID)
	return rec, nil
}

func (g *GormStore) Save(ctx context.Context, record *SlotRecord) error {
	db := g.db.WithContext(ctx)
	conflict := fmt.Errorf("slot %s changed since version %d: %w",
		record.SlotID, record.Version, ErrConcurrentModification)

	// An emptied slot keeps its row so the version keeps counting up.
	if record.IsEmpty() && record.Version == 0 {
		return nil
	}

	next := record.Version + 1
	if record.Version == 0 {
		row := SlotRecordModel{
			SlotID:          record.SlotID,
			ActivePlacement: JSONPlacement{Placement: record.ActivePlacement},
			Queue:           JSONPlacements(record.Queue),
			Version:         next,
			LastUpdated:     record.LastUpdated,
		}
		if err := db.Create(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return conflict
			}
			return err
		}
		record.Version = next
		return nil
	}

	result := db.Model(&SlotRecordModel{}).
		Where("slot_id = ? AND version = ?", record.SlotID, record.Version).
		Updates(map[string]interface{}{
			"active_placement": JSONPlacement{Placement: record.ActivePlacement},
			"queue":            JSONPlacements(record.Queue),
			"version":          next,
			"last_updated":     record.LastUpdated,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return conflict
	}
	record.Version = next
	return nil
}

func (g *GormStore) SlotIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := g.db.WithContext(ctx).Model(&SlotRecordModel{}).
		Where("active_placement IS NOT NULL OR jsonb_array_length(queue) > 0").
		Order("slot_id").
		Pluck("slot_id", &ids).Error
	return ids, err
}
