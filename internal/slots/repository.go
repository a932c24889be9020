package slots

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, slot *AdSlot) error
	GetByID(ctx context.Context, slotID string) (*AdSlot, error)
	GetAll(ctx context.Context, query SlotListQuery) ([]AdSlot, int64, error)
	Delete(ctx context.Context, slotID string) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, slot *AdSlot) error {
	err := r.db.WithContext(ctx).Create(slot).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrSlotExists
	}
	return err
}

func (r *repository) GetByID(ctx context.Context, slotID string) (*AdSlot, error) {
	var slot AdSlot
	err := r.db.WithContext(ctx).Where("slot_id = ?", slotID).First(&slot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *repository) GetAll(ctx context.Context, query SlotListQuery) ([]AdSlot, int64, error) {
	var slots []AdSlot
	var total int64

	db := r.db.WithContext(ctx).Model(&AdSlot{})
	if query.Category != "" {
		db = db.Where("category = ?", query.Category)
	}
	if query.Size != "" {
		db = db.Where("size = ?", query.Size)
	}
	if query.Publisher != "" {
		db = db.Where("LOWER(publisher_wallet) = LOWER(?)", query.Publisher)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (query.Page - 1) * query.Limit
	err := db.Order("created_at DESC").
		Offset(offset).
		Limit(query.Limit).
		Find(&slots).Error
	if err != nil {
		return nil, 0, err
	}
	return slots, total, nil
}

func (r *repository) Delete(ctx context.Context, slotID string) error {
	result := r.db.WithContext(ctx).Where("slot_id = ?", slotID).Delete(&AdSlot{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSlotNotFound
	}
	return nil
}
