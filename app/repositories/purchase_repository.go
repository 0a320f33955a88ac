package repositories

import (
	"context"

	"gorm.io/gorm"

	"spinwheel/app/models/purchase"
)

// PurchaseRepository is the persisted set of credited payment hashes.
type PurchaseRepository struct {
	db *gorm.DB
}

func NewPurchaseRepository(db *gorm.DB) *PurchaseRepository {
	return &PurchaseRepository{db: db}
}

// Exists reports whether txHash was already credited.
func (r *PurchaseRepository) Exists(ctx context.Context, txHash string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&purchase.ConsumedTransaction{}).
		Where("tx_hash = ?", txHash).
		Count(&n).Error
	return n > 0, err
}

// Create consumes the hash. A second insert of the same hash fails with
// gorm.ErrDuplicatedKey.
func (r *PurchaseRepository) Create(ctx context.Context, tx *purchase.ConsumedTransaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

// ListByWallet returns the purchases of wallet, newest first.
func (r *PurchaseRepository) ListByWallet(ctx context.Context, wallet string) ([]purchase.ConsumedTransaction, error) {
	var txs []purchase.ConsumedTransaction
	err := r.db.WithContext(ctx).
		Where("wallet_address = ?", wallet).
		Order("created_at DESC").
		Find(&txs).Error
	return txs, err
}

// Count returns the number of credited purchases.
func (r *PurchaseRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&purchase.ConsumedTransaction{}).Count(&n).Error
	return n, err
}
