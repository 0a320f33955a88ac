package repositories

import (
	"context"

	"gorm.io/gorm"

	"spinwheel/app/models/prize"
)

// PrizeRepository appends to and pages through the item prize log.
type PrizeRepository struct {
	db *gorm.DB
}

func NewPrizeRepository(db *gorm.DB) *PrizeRepository {
	return &PrizeRepository{db: db}
}

// Create appends a prize record.
func (r *PrizeRepository) Create(ctx context.Context, p *prize.PrizeWon) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// GetByWallet returns one page of prizes of wallet and the total count.
func (r *PrizeRepository) GetByWallet(ctx context.Context, wallet string, page, pageSize int) ([]prize.PrizeWon, int64, error) {
	var prizes []prize.PrizeWon
	var total int64

	query := r.db.WithContext(ctx).Model(&prize.PrizeWon{}).Where("wallet_address = ?", wallet)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("won_at DESC").Order("id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&prizes).Error

	return prizes, total, err
}

// Count returns the number of item prizes ever won.
func (r *PrizeRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&prize.PrizeWon{}).Count(&n).Error
	return n, err
}
