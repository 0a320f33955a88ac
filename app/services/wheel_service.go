package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"spinwheel/app/models/payout"
	"spinwheel/app/models/prize"
	"spinwheel/app/models/user"
	"spinwheel/app/repositories"
	"spinwheel/pkg/logger"
	"spinwheel/pkg/metrics"
	"spinwheel/pkg/wheel"
)

// WheelService connects players and plays their spins.
type WheelService struct {
	deps      Deps
	users     *repositories.UserRepository
	prizes    *repositories.PrizeRepository
	payouts   *PayoutService
	referrals *ReferralService
}

func NewWheelService(d Deps) *WheelService {
	d = d.withDefaults()
	return &WheelService{
		deps:      d,
		users:     repositories.NewUserRepository(d.DB),
		prizes:    repositories.NewPrizeRepository(d.DB),
		payouts:   NewPayoutService(d),
		referrals: NewReferralService(d),
	}
}

// Status is what a player can do right now.
type Status struct {
	WalletAddress     string     `json:"wallet_address"`
	ExtraSpins        int        `json:"extra_spins"`
	FreeSpinAvailable bool       `json:"free_spin_available"`
	SpinsAvailable    int        `json:"spins_available"`
	LastPlayDate      *time.Time `json:"last_play_date"`
	ReferredBy        *string    `json:"referred_by,omitempty"`
	NextShareTaskAt   *time.Time `json:"next_share_task_at,omitempty"`
}

// ConnectResult is returned by Connect.
type ConnectResult struct {
	Status
	Created         bool `json:"created"`
	ReferralApplied bool `json:"referral_applied"`
}

// SpinResult describes one played spin.
type SpinResult struct {
	WalletAddress  string           `json:"wallet_address"`
	Source         wheel.SpinSource `json:"source"`
	Prize          wheel.Prize      `json:"prize"`
	ExtraSpins     int              `json:"extra_spins"`
	SpinsLeft      int              `json:"spins_left"`
	PayoutID       uint64           `json:"payout_id,omitempty"`
	TransferStatus payout.Status    `json:"transfer_status,omitempty"`
	TxHash         string           `json:"tx_hash,omitempty"`
}

// Connect registers wallet, or returns the existing player. A referrer is
// honoured only for a wallet connecting for the first time.
func (s *WheelService) Connect(ctx context.Context, wallet, referrer string) (*ConnectResult, error) {
	wallet = user.NormalizeWallet(wallet)
	if wallet == "" {
		return nil, ErrInvalidWallet
	}

	unlock, err := s.deps.Locker.Lock(ctx, wallet)
	if err != nil {
		return nil, err
	}
	defer unlock()

	result := &ConnectResult{}
	err = s.deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u, created, err := repositories.NewUserRepository(tx).FirstOrCreate(ctx, wallet)
		if err != nil {
			return err
		}
		result.Created = created

		if created && referrer != "" {
			applied, err := s.referrals.Apply(ctx, tx, u, referrer)
			if err != nil {
				return err
			}
			result.ReferralApplied = applied
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	status, err := s.Status(ctx, wallet)
	if err != nil {
		return nil, err
	}
	result.Status = *status
	return result, nil
}

// Status reports the spins wallet can play today.
func (s *WheelService) Status(ctx context.Context, wallet string) (*Status, error) {
	u, err := s.lookup(ctx, wallet)
	if err != nil {
		return nil, err
	}

	now := s.deps.Clock.Now()
	loc := s.deps.Clock.Location()
	st := &Status{
		WalletAddress:     u.WalletAddress,
		ExtraSpins:        u.ExtraSpins,
		FreeSpinAvailable: wheel.FreeSpinAvailable(u.SpinState(), now, loc),
		SpinsAvailable:    wheel.Available(u.SpinState(), now, loc),
		LastPlayDate:      u.LastPlayDate,
		ReferredBy:        u.ReferredBy,
	}
	if u.LastShareTask != nil {
		next := u.ShareTaskReadyAt(s.deps.ShareCooldown)
		st.NextShareTaskAt = &next
	}
	return st, nil
}

// Spin plays one spin for wallet. The spin is consumed and the prize recorded
// in one transaction under the wallet lock; a token prize is transferred after
// the lock is released. When that transfer fails the result is returned along
// with ErrTransferSubmissionFailed and the payout is retried in background.
func (s *WheelService) Spin(ctx context.Context, wallet string) (*SpinResult, error) {
	wallet = user.NormalizeWallet(wallet)
	if wallet == "" {
		return nil, ErrInvalidWallet
	}

	result, owed, err := s.consume(ctx, wallet)
	if err != nil {
		if errors.Is(err, ErrNoSpinsAvailable) {
			metrics.RecordSpin("none", "rejected")
		}
		return nil, err
	}
	metrics.RecordSpin(string(result.Source), string(result.Prize.Kind))

	if owed == nil {
		return result, nil
	}

	// the spin is already committed; a client hanging up must not abort the transfer
	hash, err := s.payouts.Deliver(context.WithoutCancel(ctx), owed)
	result.TransferStatus = owed.Status
	result.TxHash = hash
	if err != nil {
		return result, err
	}
	return result, nil
}

// consume runs the accounting half of Spin while holding the wallet lock.
func (s *WheelService) consume(ctx context.Context, wallet string) (*SpinResult, *payout.Payout, error) {
	unlock, err := s.deps.Locker.Lock(ctx, wallet)
	if err != nil {
		return nil, nil, err
	}
	defer unlock()

	var (
		result *SpinResult
		owed   *payout.Payout
	)
	err = s.deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := repositories.NewUserRepository(tx)
		if _, _, err := users.FirstOrCreate(ctx, wallet); err != nil {
			return err
		}
		u, err := users.GetByWalletForUpdate(ctx, wallet)
		if err != nil {
			return err
		}

		now := s.deps.Clock.Now()
		loc := s.deps.Clock.Location()
		outcome, err := wheel.Spin(u.SpinState(), now, loc, s.deps.Prizes, s.deps.Rand)
		if err != nil {
			return err
		}

		u.ApplySpinState(outcome.State)
		if err := users.SaveSpinState(ctx, u); err != nil {
			return err
		}

		result = &SpinResult{
			WalletAddress: wallet,
			Source:        outcome.Source,
			Prize:         outcome.Prize,
			ExtraSpins:    u.ExtraSpins,
			SpinsLeft:     wheel.Available(u.SpinState(), now, loc),
		}

		switch {
		case outcome.Prize.Kind == wheel.KindItem:
			return repositories.NewPrizeRepository(tx).Create(ctx, &prize.PrizeWon{
				UserID:        u.ID,
				WalletAddress: wallet,
				Prize:         outcome.Prize.Label,
				WonAt:         now,
			})
		case outcome.Prize.IsToken():
			// claimed by this request until the transfer in Spin returns
			claimedAt := now.UTC()
			owed = &payout.Payout{
				UserID:        u.ID,
				WalletAddress: wallet,
				Prize:         outcome.Prize.Label,
				Amount:        outcome.Prize.Amount,
				Status:        payout.StatusSending,
				ClaimedAt:     &claimedAt,
			}
			if err := repositories.NewPayoutRepository(tx).Create(ctx, owed); err != nil {
				return err
			}
			result.PayoutID = owed.ID
			result.TransferStatus = payout.StatusSending
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	logger.InfoString("Wheel", "Spin", fmt.Sprintf("%s played a %s spin and won %s", wallet, result.Source, result.Prize.Label))
	return result, owed, nil
}

// PrizePage is one page of a player's item prizes.
type PrizePage struct {
	Prizes   []prize.PrizeWon `json:"prizes"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
}

// Prizes lists the item prizes won by wallet.
func (s *WheelService) Prizes(ctx context.Context, wallet string, page, pageSize int) (*PrizePage, error) {
	u, err := s.lookup(ctx, wallet)
	if err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}
	prizes, total, err := s.prizes.GetByWallet(ctx, u.WalletAddress, page, pageSize)
	if err != nil {
		return nil, err
	}
	return &PrizePage{Prizes: prizes, Total: total, Page: page, PageSize: pageSize}, nil
}

// PrizeTable is the wheel currently in use.
func (s *WheelService) PrizeTable() *wheel.PrizeTable {
	return s.deps.Prizes
}

func (s *WheelService) lookup(ctx context.Context, wallet string) (*user.User, error) {
	normalized := user.NormalizeWallet(wallet)
	if normalized == "" {
		return nil, ErrInvalidWallet
	}
	u, err := s.users.GetByWallet(ctx, normalized)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}
