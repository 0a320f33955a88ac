package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"spinwheel/app/models/payout"
	"spinwheel/app/repositories"
	"spinwheel/pkg/logger"
	"spinwheel/pkg/metrics"
)

// PayoutService submits prize transfers and books them in the ledger.
type PayoutService struct {
	deps     Deps
	payouts  *repositories.PayoutRepository
	counters *repositories.CounterRepository
}

func NewPayoutService(d Deps) *PayoutService {
	d = d.withDefaults()
	return &PayoutService{
		deps:     d,
		payouts:  repositories.NewPayoutRepository(d.DB),
		counters: repositories.NewCounterRepository(d.DB),
	}
}

// Deliver submits the transfer of p, which the caller must have claimed. On success the payout becomes sent and
// its amount is added to total_out once; on failure the attempt is recorded
// and a retry is scheduled while attempts remain.
func (s *PayoutService) Deliver(ctx context.Context, p *payout.Payout) (string, error) {
	if s.deps.Sender == nil {
		return "", s.fail(ctx, p, errors.New("no token sender configured"))
	}

	hash, err := s.deps.Sender.Send(ctx, p.WalletAddress, p.Amount)
	if err != nil {
		return "", s.fail(ctx, p, err)
	}

	metrics.RecordTransfer("sent")
	changed, err := s.payouts.MarkSent(ctx, p.ID, hash)
	if err != nil {
		// the transfer is out; only bookkeeping failed
		logger.ErrorString("Payout", "MarkSent", fmt.Sprintf("payout %d tx %s: %v", p.ID, hash, err))
		return hash, nil
	}
	if changed {
		if err := s.counters.AddOut(ctx, p.Amount); err != nil {
			logger.ErrorString("Payout", "AddOut", fmt.Sprintf("payout %d: %v", p.ID, err))
		}
		metrics.RecordTokensOut(p.Amount)
	}
	p.Status = payout.StatusSent
	p.TxHash = hash
	return hash, nil
}

func (s *PayoutService) fail(ctx context.Context, p *payout.Payout, cause error) error {
	metrics.RecordTransfer("failed")
	logger.WarnString("Payout", "Deliver", fmt.Sprintf("payout %d to %s failed: %v", p.ID, p.WalletAddress, cause))

	if err := s.payouts.MarkFailed(ctx, p.ID, cause.Error()); err != nil {
		logger.LogIf(err)
	}
	p.Status = payout.StatusFailed
	p.Attempts++
	p.LastError = cause.Error()

	if s.deps.Retrier != nil && p.Attempts < s.deps.MaxPayoutAttempt {
		if err := s.deps.Retrier.Enqueue(ctx, p.ID, p.Attempts); err != nil {
			logger.ErrorString("Payout", "Enqueue", fmt.Sprintf("payout %d: %v", p.ID, err))
		}
	}
	return fmt.Errorf("%w: %v", ErrTransferSubmissionFailed, cause)
}

// Retry is the queue handler: it reloads the payout and delivers it unless it
// was sent meanwhile or ran out of attempts.
func (s *PayoutService) Retry(ctx context.Context, payoutID uint64) error {
	p, err := s.payouts.Get(ctx, payoutID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		logger.WarnString("Payout", "Retry", fmt.Sprintf("payout %d not found", payoutID))
		return nil
	}
	if err != nil {
		return err
	}
	if !p.Retryable(s.deps.MaxPayoutAttempt) {
		return nil
	}
	claimed, err := s.payouts.Claim(ctx, p.ID, s.deps.MaxPayoutAttempt, s.deps.Clock.Now())
	if err != nil {
		return err
	}
	if !claimed {
		// another worker or request is sending it
		return nil
	}
	p.Status = payout.StatusSending
	_, err = s.Deliver(ctx, p)
	return err
}

// Resume schedules every payout still owed, e.g. after a restart. Sends
// claimed longer than PayoutClaimTTL ago are considered interrupted and
// released first.
func (s *PayoutService) Resume(ctx context.Context) (int, error) {
	if s.deps.Retrier == nil {
		return 0, nil
	}
	released, err := s.payouts.ReleaseStale(ctx, s.deps.Clock.Now().Add(-s.deps.PayoutClaimTTL))
	if err != nil {
		return 0, err
	}
	if released > 0 {
		logger.WarnString("Payout", "Resume", fmt.Sprintf("released %d interrupted payouts", released))
	}
	owed, err := s.payouts.ListUnsent(ctx, s.deps.MaxPayoutAttempt, 500)
	if err != nil {
		return 0, err
	}
	for _, p := range owed {
		if err := s.deps.Retrier.Enqueue(ctx, p.ID, p.Attempts); err != nil {
			return 0, err
		}
	}
	return len(owed), nil
}
