package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"todo-planner/internal/model"
)

const (
	settingsRowID = 1
	batchSize     = 100
)

// settingsRecord is the single settings row. Its presence marks that a
// snapshot has been saved at least once.
type settingsRecord struct {
	ID uint `gorm:"primaryKey"`
	model.Settings
	SavedAt time.Time `gorm:"autoUpdateTime:false;autoCreateTime:false"`
}

func (settingsRecord) TableName() string {
	return "settings"
}

// SnapshotRepository stores the whole collection: tasks, categories and settings.
type SnapshotRepository struct {
	db *gorm.DB
}

func NewSnapshotRepository(db *gorm.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Save replaces the stored collection with snap in one transaction.
func (r *SnapshotRepository) Save(ctx context.Context, snap model.Snapshot) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&model.Task{}).Error; err != nil {
			return fmt.Errorf("clear tasks: %w", err)
		}
		if len(snap.Tasks) > 0 {
			tasks := snap.Tasks
			if err := tx.CreateInBatches(&tasks, batchSize).Error; err != nil {
				return fmt.Errorf("insert tasks: %w", err)
			}
		}

		if err := tx.Where("1 = 1").Delete(&model.Category{}).Error; err != nil {
			return fmt.Errorf("clear categories: %w", err)
		}
		if len(snap.Categories) > 0 {
			categories := snap.Categories
			if err := tx.CreateInBatches(&categories, batchSize).Error; err != nil {
				return fmt.Errorf("insert categories: %w", err)
			}
		}

		rec := settingsRecord{ID: settingsRowID, Settings: snap.Settings, SavedAt: time.Now().UTC()}
		if err := tx.Save(&rec).Error; err != nil {
			return fmt.Errorf("save settings: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Load reads the stored collection in insertion order. found is false when
// nothing has been saved yet.
func (r *SnapshotRepository) Load(ctx context.Context) (model.Snapshot, bool, error) {
	db := r.db.WithContext(ctx)

	var rec settingsRecord
	err := db.First(&rec, settingsRowID).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return model.Snapshot{}, false, nil
	case err != nil:
		return model.Snapshot{}, false, fmt.Errorf("load settings: %w", err)
	}

	var tasks []model.Task
	if err := db.Order("rowid ASC").Find(&tasks).Error; err != nil {
		return model.Snapshot{}, false, fmt.Errorf("load tasks: %w", err)
	}

	var categories []model.Category
	if err := db.Order("rowid ASC").Find(&categories).Error; err != nil {
		return model.Snapshot{}, false, fmt.Errorf("load categories: %w", err)
	}

	return model.Snapshot{
		Tasks:      tasks,
		Categories: categories,
		Settings:   rec.Settings,
	}, true, nil
}
