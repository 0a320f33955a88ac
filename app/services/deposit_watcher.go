package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"spinwheel/app/repositories"
	"spinwheel/pkg/chain"
	"spinwheel/pkg/logger"
	"spinwheel/pkg/metrics"
)

// TransferSource lists token payments into the distribution wallet.
type TransferSource interface {
	LatestBlock(ctx context.Context) (uint64, error)
	TransfersToWallet(ctx context.Context, from, to uint64) ([]chain.Transfer, error)
}

// WatcherConfig tunes the deposit watcher.
type WatcherConfig struct {
	Name          string
	Interval      time.Duration
	BatchSize     uint64 // blocks per log query
	Confirmations uint64 // blocks to stay behind the head
}

// DepositWatcher credits packs paid by connected players without them having
// to submit the transaction hash.
type DepositWatcher struct {
	source    TransferSource
	purchases *PurchaseService
	cursors   *repositories.CursorRepository
	config    WatcherConfig
}

func NewDepositWatcher(d Deps, source TransferSource, cfg WatcherConfig) *DepositWatcher {
	if cfg.Name == "" {
		cfg.Name = "deposits"
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 1000
	}
	return &DepositWatcher{
		source:    source,
		purchases: NewPurchaseService(d),
		cursors:   repositories.NewCursorRepository(d.DB),
		config:    cfg,
	}
}

// Run polls until ctx is done.
func (w *DepositWatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	logger.InfoString("Watcher", "Start", fmt.Sprintf("scanning every %s", w.config.Interval))
	for {
		if _, err := w.Poll(ctx); err != nil && ctx.Err() == nil {
			logger.ErrorString("Watcher", "Poll", err.Error())
		}
		select {
		case <-ctx.Done():
			logger.InfoString("Watcher", "Stop", "deposit watcher stopped")
			return
		case <-ticker.C:
		}
	}
}

// Poll scans the blocks mined since the stored cursor and returns how many
// purchases it credited. The first poll only records the current head.
func (w *DepositWatcher) Poll(ctx context.Context) (int, error) {
	head, err := w.source.LatestBlock(ctx)
	if err != nil {
		return 0, fmt.Errorf("latest block: %w", err)
	}
	if head < w.config.Confirmations {
		return 0, nil
	}
	head -= w.config.Confirmations

	last, ok, err := w.cursors.Get(ctx, w.config.Name)
	if err != nil {
		return 0, err
	}
	if !ok {
		metrics.WatcherBlock.Set(float64(head))
		return 0, w.cursors.Save(ctx, w.config.Name, head)
	}

	credited := 0
	for from := last + 1; from <= head; {
		to := from + w.config.BatchSize - 1
		if to > head {
			to = head
		}

		transfers, err := w.source.TransfersToWallet(ctx, from, to)
		if err != nil {
			return credited, err
		}
		for _, t := range transfers {
			ok, err := w.creditOne(ctx, t)
			if err != nil {
				// keep the cursor so the batch is scanned again
				return credited, err
			}
			if ok {
				credited++
			}
		}

		if err := w.cursors.Save(ctx, w.config.Name, to); err != nil {
			return credited, err
		}
		metrics.WatcherBlock.Set(float64(to))
		from = to + 1
	}
	return credited, nil
}

func (w *DepositWatcher) creditOne(ctx context.Context, t chain.Transfer) (bool, error) {
	_, err := w.purchases.CreditObserved(ctx, t)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrDuplicateTransaction), errors.Is(err, ErrUserNotFound):
		// already claimed by hand, or not one of ours
	case errors.Is(err, ErrUnknownPack), errors.Is(err, ErrInvalidTxHash):
		logger.WarnString("Watcher", "Credit", fmt.Sprintf("tx %s from %s pays %d, no matching pack", t.TxHash, t.From.Hex(), t.Amount))
	default:
		return false, fmt.Errorf("credit tx %s: %w", t.TxHash, err)
	}
	return false, nil
}
