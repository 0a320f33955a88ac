// Package services implements the wheel operations on top of the
// repositories, the spin engine and the chain client.
package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"spinwheel/pkg/chain"
	"spinwheel/pkg/lock"
	"spinwheel/pkg/queue"
	"spinwheel/pkg/wheel"
)

// TokenSender submits a token transfer and returns its hash.
type TokenSender interface {
	Send(ctx context.Context, to string, amount int64) (string, error)
}

// TransactionVerifier reads payments from the chain. Errors wrapping
// chain.ErrInvalidTransfer mean the payment itself is not acceptable.
type TransactionVerifier interface {
	Inspect(ctx context.Context, txHash string) (*chain.Transfer, error)
	Verify(ctx context.Context, sender, txHash string, cost int64) (*chain.Transfer, error)
}

// PayoutRetrier schedules another transfer attempt for a payout.
type PayoutRetrier interface {
	Enqueue(ctx context.Context, payoutID uint64, attempt int) error
}

// QueueInspector reports the backlog of the payout retry queue.
type QueueInspector interface {
	Length(ctx context.Context) (ready, delayed int64, err error)
	Metrics() *queue.QueueMetrics
}

// Deps are the collaborators shared by the services. Zero fields get
// defaults from withDefaults.
type Deps struct {
	DB       *gorm.DB
	Locker   lock.Locker
	Clock    wheel.Clock
	Rand     wheel.Rand
	Prizes   *wheel.PrizeTable
	Packs    *wheel.PackTable
	Sender   TokenSender
	Verifier TransactionVerifier
	Retrier  PayoutRetrier
	Queue    QueueInspector

	DistributionWallet string
	TokenAddress       string

	ReferralBonus    int
	ShareBonus       int
	ShareCooldown    time.Duration
	MaxPayoutAttempt int
	PayoutClaimTTL   time.Duration // a send claimed longer ago counts as interrupted
}

func (d Deps) withDefaults() Deps {
	if d.Locker == nil {
		d.Locker = lock.NewLocal()
	}
	if d.Clock == nil {
		d.Clock = wheel.SystemClock{Loc: time.UTC}
	}
	if d.Rand == nil {
		d.Rand = wheel.NewLockedRand(time.Now().UnixNano())
	}
	if d.Prizes == nil {
		d.Prizes = wheel.DefaultPrizeTable()
	}
	if d.Packs == nil {
		d.Packs = wheel.DefaultPackTable()
	}
	if d.ReferralBonus <= 0 {
		d.ReferralBonus = 2
	}
	if d.ShareBonus <= 0 {
		d.ShareBonus = 1
	}
	if d.ShareCooldown <= 0 {
		d.ShareCooldown = 7 * 24 * time.Hour
	}
	if d.MaxPayoutAttempt <= 0 {
		d.MaxPayoutAttempt = 5
	}
	if d.PayoutClaimTTL <= 0 {
		d.PayoutClaimTTL = 10 * time.Minute
	}
	return d
}
