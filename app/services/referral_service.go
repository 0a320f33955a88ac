package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"spinwheel/app/models/user"
	"spinwheel/app/repositories"
	"spinwheel/pkg/logger"
)

// ReferralService rewards players who bring new wallets.
type ReferralService struct {
	deps Deps
}

func NewReferralService(d Deps) *ReferralService {
	return &ReferralService{deps: d.withDefaults()}
}

// Apply links invitee to referrer and credits the referrer's bonus, inside
// the caller's transaction. Self-referrals, unknown referrers and invitees
// already linked are ignored and report false.
func (s *ReferralService) Apply(ctx context.Context, tx *gorm.DB, invitee *user.User, referrer string) (bool, error) {
	referrer = user.NormalizeWallet(referrer)
	if referrer == "" || referrer == invitee.WalletAddress {
		return false, nil
	}

	users := repositories.NewUserRepository(tx)
	inviter, err := users.GetByWallet(ctx, referrer)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	linked, err := users.SetReferrer(ctx, invitee.ID, inviter.WalletAddress)
	if err != nil || !linked {
		return false, err
	}
	if err := users.AddExtraSpins(ctx, inviter.ID, s.deps.ReferralBonus); err != nil {
		return false, err
	}

	invitee.ReferredBy = &inviter.WalletAddress
	logger.InfoString("Referral", "Apply", fmt.Sprintf("%s invited %s, +%d spins", inviter.WalletAddress, invitee.WalletAddress, s.deps.ReferralBonus))
	return true, nil
}
