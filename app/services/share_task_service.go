package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"spinwheel/app/models/user"
	"spinwheel/app/repositories"
)

// ShareTaskService grants a bonus spin for sharing the wheel, once per
// cooldown period.
type ShareTaskService struct {
	deps  Deps
	users *repositories.UserRepository
}

func NewShareTaskService(d Deps) *ShareTaskService {
	d = d.withDefaults()
	return &ShareTaskService{deps: d, users: repositories.NewUserRepository(d.DB)}
}

// ShareResult is returned by a successful claim.
type ShareResult struct {
	Granted     int       `json:"granted"`
	ExtraSpins  int       `json:"extra_spins"`
	NextClaimAt time.Time `json:"next_claim_at"`
}

// Claim credits the bonus, or returns a *CooldownError when the last claim
// is more recent than the cooldown.
func (s *ShareTaskService) Claim(ctx context.Context, wallet string) (*ShareResult, error) {
	wallet = user.NormalizeWallet(wallet)
	if wallet == "" {
		return nil, ErrInvalidWallet
	}
	u, err := s.users.GetByWallet(ctx, wallet)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	now := s.deps.Clock.Now()
	ok, err := s.users.ClaimShareTask(ctx, u.ID, s.deps.ShareBonus, now, now.Add(-s.deps.ShareCooldown))
	if err != nil {
		return nil, err
	}

	u, err = s.users.GetByWallet(ctx, wallet)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &CooldownError{Remaining: u.ShareTaskReadyAt(s.deps.ShareCooldown).Sub(now)}
	}
	return &ShareResult{
		Granted:     s.deps.ShareBonus,
		ExtraSpins:  u.ExtraSpins,
		NextClaimAt: now.Add(s.deps.ShareCooldown),
	}, nil
}
