package services

import (
	"context"

	"spinwheel/app/models/payout"
	"spinwheel/app/models/user"
	"spinwheel/app/repositories"
	"spinwheel/pkg/queue"
)

// ReportService summarizes the give-away for administrators.
type ReportService struct {
	queue     QueueInspector
	counters  *repositories.CounterRepository
	users     *repositories.UserRepository
	prizes    *repositories.PrizeRepository
	purchases *repositories.PurchaseRepository
	payouts   *repositories.PayoutRepository
}

func NewReportService(d Deps) *ReportService {
	return &ReportService{
		queue:     d.Queue,
		counters:  repositories.NewCounterRepository(d.DB),
		users:     repositories.NewUserRepository(d.DB),
		prizes:    repositories.NewPrizeRepository(d.DB),
		purchases: repositories.NewPurchaseRepository(d.DB),
		payouts:   repositories.NewPayoutRepository(d.DB),
	}
}

// Report is the global ledger plus a few counts.
type Report struct {
	TotalIn    int64                   `json:"total_in"`
	TotalOut   int64                   `json:"total_out"`
	Balance    int64                   `json:"balance"`
	Users      int64                   `json:"users"`
	Purchases  int64                   `json:"purchases"`
	ItemPrizes int64                   `json:"item_prizes"`
	Payouts    map[payout.Status]int64 `json:"payouts"`
	Queue      *QueueReport            `json:"queue,omitempty"`
}

// QueueReport is the retry backlog and the worker counters of this process.
type QueueReport struct {
	Ready   int64          `json:"ready"`
	Delayed int64          `json:"delayed"`
	Tasks   queue.Snapshot `json:"tasks"`
}

func (s *ReportService) Report(ctx context.Context) (*Report, error) {
	c, err := s.counters.Get(ctx)
	if err != nil {
		return nil, err
	}
	r := &Report{TotalIn: c.TotalIn, TotalOut: c.TotalOut, Balance: c.Balance()}

	if r.Users, err = s.users.Count(ctx); err != nil {
		return nil, err
	}
	if r.Purchases, err = s.purchases.Count(ctx); err != nil {
		return nil, err
	}
	if r.ItemPrizes, err = s.prizes.Count(ctx); err != nil {
		return nil, err
	}
	if r.Payouts, err = s.payouts.CountByStatus(ctx); err != nil {
		return nil, err
	}

	if s.queue != nil {
		ready, delayed, err := s.queue.Length(ctx)
		if err != nil {
			return nil, err
		}
		r.Queue = &QueueReport{Ready: ready, Delayed: delayed, Tasks: s.queue.Metrics().Snapshot()}
	}
	return r, nil
}

// Payouts lists the latest token payouts of wallet, failed ones included.
func (s *ReportService) Payouts(ctx context.Context, wallet string, limit int) ([]payout.Payout, error) {
	normalized := user.NormalizeWallet(wallet)
	if normalized == "" {
		return nil, ErrInvalidWallet
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}
	return s.payouts.ListByWallet(ctx, normalized, limit)
}
