package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"spinwheel/app/models/cursor"
)

// CursorRepository persists scan positions of chain watchers.
type CursorRepository struct {
	db *gorm.DB
}

func NewCursorRepository(db *gorm.DB) *CursorRepository {
	return &CursorRepository{db: db}
}

// Get returns the stored block of name; ok is false when nothing is stored.
func (r *CursorRepository) Get(ctx context.Context, name string) (block uint64, ok bool, err error) {
	var c cursor.ChainCursor
	err = r.db.WithContext(ctx).Where("name = ?", name).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return c.BlockNumber, true, nil
}

// Save stores block as the position of name.
func (r *CursorRepository) Save(ctx context.Context, name string, block uint64) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"block_number", "updated_at"}),
		}).
		Create(&cursor.ChainCursor{Name: name, BlockNumber: block, UpdatedAt: time.Now()}).Error
}
