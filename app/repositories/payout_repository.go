package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"spinwheel/app/models/payout"
)

// PayoutRepository tracks token prizes through their transfer.
type PayoutRepository struct {
	db *gorm.DB
}

func NewPayoutRepository(db *gorm.DB) *PayoutRepository {
	return &PayoutRepository{db: db}
}

// Create stores a new payout.
func (r *PayoutRepository) Create(ctx context.Context, p *payout.Payout) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// Get loads a payout by id.
func (r *PayoutRepository) Get(ctx context.Context, id uint64) (*payout.Payout, error) {
	var p payout.Payout
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// MarkSent moves the payout to sent. It reports false when the payout was
// already sent, so callers count the transfer exactly once.
func (r *PayoutRepository) MarkSent(ctx context.Context, id uint64, txHash string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&payout.Payout{}).
		Where("id = ? AND status <> ?", id, payout.StatusSent).
		Updates(map[string]interface{}{
			"status":     payout.StatusSent,
			"tx_hash":    txHash,
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": "",
		})
	return res.RowsAffected == 1, res.Error
}

// MarkFailed records a failed attempt.
func (r *PayoutRepository) MarkFailed(ctx context.Context, id uint64, reason string) error {
	return r.db.WithContext(ctx).Model(&payout.Payout{}).
		Where("id = ? AND status <> ?", id, payout.StatusSent).
		Updates(map[string]interface{}{
			"status":     payout.StatusFailed,
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": reason,
		}).Error
}

// Claim moves a pending or failed payout with attempts left to sending. Only
// the caller that gets true may submit the transfer. Claim times are stored
// in UTC, like every compared time.
func (r *PayoutRepository) Claim(ctx context.Context, id uint64, maxAttempts int, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&payout.Payout{}).
		Where("id = ? AND status IN ? AND attempts < ?", id, payout.Claimable, maxAttempts).
		Updates(map[string]interface{}{
			"status":     payout.StatusSending,
			"claimed_at": now.UTC(),
		})
	return res.RowsAffected == 1, res.Error
}

// ReleaseStale returns payouts claimed before the given time to pending. The
// interrupted send counts as an attempt.
func (r *PayoutRepository) ReleaseStale(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&payout.Payout{}).
		Where("status = ? AND claimed_at < ?", payout.StatusSending, before.UTC()).
		Updates(map[string]interface{}{
			"status":     payout.StatusPending,
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": "send interrupted",
		})
	return res.RowsAffected, res.Error
}

// ListUnsent returns claimable payouts with attempts left, oldest first.
func (r *PayoutRepository) ListUnsent(ctx context.Context, maxAttempts, limit int) ([]payout.Payout, error) {
	var payouts []payout.Payout
	err := r.db.WithContext(ctx).
		Where("status IN ? AND attempts < ?", payout.Claimable, maxAttempts).
		Order("id ASC").
		Limit(limit).
		Find(&payouts).Error
	return payouts, err
}

// ListByWallet returns the payouts of wallet, newest first.
func (r *PayoutRepository) ListByWallet(ctx context.Context, wallet string, limit int) ([]payout.Payout, error) {
	var payouts []payout.Payout
	err := r.db.WithContext(ctx).
		Where("wallet_address = ?", wallet).
		Order("id DESC").
		Limit(limit).
		Find(&payouts).Error
	return payouts, err
}

// CountByStatus returns the number of payouts per status.
func (r *PayoutRepository) CountByStatus(ctx context.Context) (map[payout.Status]int64, error) {
	var rows []struct {
		Status payout.Status
		Total  int64
	}
	err := r.db.WithContext(ctx).Model(&payout.Payout{}).
		Select("status, count(*) AS total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[payout.Status]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Total
	}
	return out, nil
}
