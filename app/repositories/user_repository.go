package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"spinwheel/app/models/user"
)

// UserRepository reads and writes wheel players.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository binds the repository to db, which may be a transaction.
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FirstOrCreate returns the user of wallet, creating it when absent. Two
// concurrent callers both end up with the same row.
func (r *UserRepository) FirstOrCreate(ctx context.Context, wallet string) (*user.User, bool, error) {
	u := &user.User{WalletAddress: wallet}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "wallet_address"}}, DoNothing: true}).
		Create(u)
	if res.Error != nil {
		return nil, false, res.Error
	}
	created := res.RowsAffected == 1

	found, err := r.GetByWallet(ctx, wallet)
	if err != nil {
		return nil, false, err
	}
	return found, created, nil
}

// GetByWallet returns gorm.ErrRecordNotFound when the wallet is unknown.
func (r *UserRepository) GetByWallet(ctx context.Context, wallet string) (*user.User, error) {
	var u user.User
	if err := r.db.WithContext(ctx).Where("wallet_address = ?", wallet).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByWalletForUpdate loads the user with a row lock held until the
// surrounding transaction ends. sqlite ignores the lock clause.
func (r *UserRepository) GetByWalletForUpdate(ctx context.Context, wallet string) (*user.User, error) {
	var u user.User
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("wallet_address = ?", wallet).
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// SaveSpinState writes the spin counters of u.
func (r *UserRepository) SaveSpinState(ctx context.Context, u *user.User) error {
	return r.db.WithContext(ctx).Model(u).
		Select("extra_spins", "last_play_date").
		Updates(map[string]interface{}{
			"extra_spins":    u.ExtraSpins,
			"last_play_date": u.LastPlayDate,
		}).Error
}

// AddExtraSpins credits n spins in a single statement.
func (r *UserRepository) AddExtraSpins(ctx context.Context, userID uint64, n int) error {
	return r.db.WithContext(ctx).Model(&user.User{}).
		Where("id = ?", userID).
		UpdateColumn("extra_spins", gorm.Expr("extra_spins + ?", n)).Error
}

// SetReferrer records the inviter of userID unless one is already set, and
// reports whether the row changed.
func (r *UserRepository) SetReferrer(ctx context.Context, userID uint64, referrer string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&user.User{}).
		Where("id = ? AND referred_by IS NULL", userID).
		UpdateColumn("referred_by", referrer)
	return res.RowsAffected == 1, res.Error
}

// ClaimShareTask grants spins and stamps LastShareTask when the previous
// claim is not after notAfter. It reports whether the claim went through.
// Times are stored in UTC so the comparison also holds on sqlite.
func (r *UserRepository) ClaimShareTask(ctx context.Context, userID uint64, spins int, claimedAt, notAfter time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&user.User{}).
		Where("id = ? AND (last_share_task IS NULL OR last_share_task <= ?)", userID, notAfter.UTC()).
		UpdateColumns(map[string]interface{}{
			"extra_spins":     gorm.Expr("extra_spins + ?", spins),
			"last_share_task": claimedAt.UTC(),
		})
	return res.RowsAffected == 1, res.Error
}

// Count returns the number of players.
func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&user.User{}).Count(&total).Error
	return total, err
}
