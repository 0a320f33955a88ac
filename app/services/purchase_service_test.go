package services

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spinwheel/app/models/payout"
	"spinwheel/app/models/purchase"
	"spinwheel/app/repositories"
	"spinwheel/pkg/chain"
	"spinwheel/pkg/queue"
)

func TestConfirmCreditsPackOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	hash := txHash(1)
	f.verifier.pay(hash, alice, 125)

	svc := NewPurchaseService(f.deps)
	res, err := svc.Confirm(ctx, alice, hash, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Spins)
	assert.EqualValues(t, 125, res.Cost)
	assert.Equal(t, 3, res.ExtraSpins)

	_, err = svc.Confirm(ctx, alice, hash, 3)
	assert.ErrorIs(t, err, ErrDuplicateTransaction)

	// a fresh service over the same database still refuses the hash
	restarted := NewPurchaseService(f.deps)
	_, err = restarted.Confirm(ctx, alice, hash, 3)
	assert.ErrorIs(t, err, ErrDuplicateTransaction)

	u, err := repositories.NewUserRepository(f.db).GetByWallet(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 3, u.ExtraSpins)

	c, err := repositories.NewCounterRepository(f.db).Get(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 125, c.TotalIn)

	// replays never reach the chain
	assert.Equal(t, 1, f.verifier.calls)
}

func TestConfirmNormalizesHash(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	hash := txHash(2)
	f.verifier.pay(hash, alice, 50)

	svc := NewPurchaseService(f.deps)
	_, err := svc.Confirm(ctx, alice, hash[2:], 1)
	require.NoError(t, err)

	_, err = svc.Confirm(ctx, alice, "0X"+hash[2:], 1)
	assert.ErrorIs(t, err, ErrDuplicateTransaction)

	_, err = svc.Confirm(ctx, alice, "0xzz", 1)
	assert.ErrorIs(t, err, ErrInvalidTxHash)
}

func TestConfirmInfersPackFromAmount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	hash := txHash(3)
	f.verifier.pay(hash, alice, 300)

	res, err := NewPurchaseService(f.deps).Confirm(ctx, alice, hash, 0)
	require.NoError(t, err)
	assert.Equal(t, 10, res.Spins)
	assert.EqualValues(t, 300, res.Cost)
}

func TestConfirmRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewPurchaseService(f.deps)

	f.verifier.pay(txHash(10), alice, 50)
	f.verifier.pay(txHash(11), alice, 77)

	tests := []struct {
		name   string
		wallet string
		hash   string
		spins  int
		err    error
	}{
		{"unknown tx", alice, txHash(99), 1, ErrTransactionVerificationFailed},
		{"underpaid", alice, txHash(10), 3, ErrTransactionVerificationFailed},
		{"someone else's payment", bob, txHash(10), 1, ErrTransactionVerificationFailed},
		{"no such pack", alice, txHash(10), 2, ErrUnknownPack},
		{"amount matches no pack", alice, txHash(11), 0, ErrUnknownPack},
		{"bad wallet", "0xabc", txHash(10), 1, ErrInvalidWallet},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Confirm(ctx, tt.wallet, tt.hash, tt.spins)
			assert.ErrorIs(t, err, tt.err)
		})
	}

	c, err := repositories.NewCounterRepository(f.db).Get(ctx)
	require.NoError(t, err)
	assert.Zero(t, c.TotalIn)

	// a rejected hash is not burnt
	_, err = svc.Confirm(ctx, alice, txHash(10), 1)
	assert.NoError(t, err)
}

func TestConfirmChainUnavailable(t *testing.T) {
	f := newFixture(t)
	f.verifier.down = errRPC

	_, err := NewPurchaseService(f.deps).Confirm(context.Background(), alice, txHash(4), 1)
	require.ErrorIs(t, err, errRPC)
	assert.NotErrorIs(t, err, ErrTransactionVerificationFailed)
}

func TestPacksQuote(t *testing.T) {
	f := newFixture(t)
	svc := NewPurchaseService(f.deps)

	packs := svc.Packs()
	require.Len(t, packs, 3)
	assert.Equal(t, f.deps.DistributionWallet, packs[0].PayTo)

	q, err := svc.Quote(10)
	require.NoError(t, err)
	assert.EqualValues(t, 300, q.Cost)

	_, err = svc.Quote(4)
	assert.ErrorIs(t, err, ErrUnknownPack)
}

type fakeSource struct {
	head      uint64
	transfers []chain.Transfer
	ranges    [][2]uint64
}

func (s *fakeSource) LatestBlock(context.Context) (uint64, error) { return s.head, nil }

func (s *fakeSource) TransfersToWallet(_ context.Context, from, to uint64) ([]chain.Transfer, error) {
	s.ranges = append(s.ranges, [2]uint64{from, to})
	var out []chain.Transfer
	for _, t := range s.transfers {
		if t.BlockNumber >= from && t.BlockNumber <= to {
			out = append(out, t)
		}
	}
	return out, nil
}

func observed(hash, from string, tokens int64, block uint64) chain.Transfer {
	return chain.Transfer{TxHash: hash, From: common.HexToAddress(from), Amount: tokens, Exact: true, BlockNumber: block}
}

func TestDepositWatcherCreditsPlayers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	wheelSvc := NewWheelService(f.deps)
	_, err := wheelSvc.Connect(ctx, alice, "")
	require.NoError(t, err)

	source := &fakeSource{head: 100}
	w := NewDepositWatcher(f.deps, source, WatcherConfig{BatchSize: 10, Confirmations: 2})

	n, err := w.Poll(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, source.ranges)

	claimed := txHash(20)
	f.verifier.pay(claimed, alice, 125)
	_, err = NewPurchaseService(f.deps).Confirm(ctx, alice, claimed, 3)
	require.NoError(t, err)

	source.head = 125
	source.transfers = []chain.Transfer{
		observed(txHash(21), alice, 50, 101),
		observed(claimed, alice, 125, 105),   // already claimed by hand
		observed(txHash(22), bob, 50, 110),   // not connected
		observed(txHash(23), alice, 60, 115), // no such pack
		observed(txHash(24), alice, 300, 123),
		observed(txHash(25), alice, 50, 124), // not confirmed yet
	}

	n, err = w.Poll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, [][2]uint64{{99, 108}, {109, 118}, {119, 123}}, source.ranges)

	block, ok, err := repositories.NewCursorRepository(f.db).Get(ctx, "deposits")
	require.NoError(t, err)
	require.True(t, ok)
	assert.EqualValues(t, 123, block)

	status, err := wheelSvc.Status(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 3+1+10, status.ExtraSpins)

	rows, err := repositories.NewPurchaseRepository(f.db).ListByWallet(ctx, alice)
	require.NoError(t, err)
	sources := map[purchase.Source]int{}
	for _, r := range rows {
		sources[r.Source]++
	}
	assert.Equal(t, map[purchase.Source]int{purchase.SourceManual: 1, purchase.SourceWatcher: 2}, sources)

	// rescanning credits nothing twice
	source.head = 127
	n, err = w.Poll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = NewPurchaseService(f.deps).Confirm(ctx, alice, txHash(24), 10)
	assert.ErrorIs(t, err, ErrDuplicateTransaction)
}

func TestShareTaskCooldown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewShareTaskService(f.deps)

	_, err := svc.Claim(ctx, alice)
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = NewWheelService(f.deps).Connect(ctx, alice, "")
	require.NoError(t, err)

	res, err := svc.Claim(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Granted)
	assert.Equal(t, 1, res.ExtraSpins)

	f.clock.Advance(24 * time.Hour)
	_, err = svc.Claim(ctx, alice)
	require.ErrorIs(t, err, ErrShareTaskCooldown)
	var cooldown *CooldownError
	require.ErrorAs(t, err, &cooldown)
	assert.Equal(t, 6*24*time.Hour, cooldown.Remaining)

	f.clock.Advance(6 * 24 * time.Hour)
	res, err = svc.Claim(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 2, res.ExtraSpins)
}

func TestReport(t *testing.T) {
	f := newFixture(t, tokenPrize)
	ctx := context.Background()

	hash := txHash(30)
	f.verifier.pay(hash, alice, 50)
	_, err := NewPurchaseService(f.deps).Confirm(ctx, alice, hash, 1)
	require.NoError(t, err)

	wheelSvc := NewWheelService(f.deps)
	_, err = wheelSvc.Spin(ctx, alice)
	require.NoError(t, err)
	f.sender.fail = errRPC
	_, err = wheelSvc.Spin(ctx, alice)
	require.ErrorIs(t, err, ErrTransferSubmissionFailed)

	r, err := NewReportService(f.deps).Report(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 50, r.TotalIn)
	assert.EqualValues(t, 50, r.TotalOut)
	assert.EqualValues(t, 0, r.Balance)
	assert.EqualValues(t, 1, r.Users)
	assert.EqualValues(t, 1, r.Purchases)
	assert.EqualValues(t, 1, r.Payouts["sent"])
	assert.EqualValues(t, 1, r.Payouts["failed"])
	assert.Nil(t, r.Queue)

	listed, err := NewReportService(f.deps).Payouts(ctx, alice, 0)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, payout.StatusFailed, listed[0].Status)
	assert.Equal(t, payout.StatusSent, listed[1].Status)

	_, err = NewReportService(f.deps).Payouts(ctx, "0x123", 10)
	assert.ErrorIs(t, err, ErrInvalidWallet)
}

type fakeQueue struct {
	ready, delayed int64
	metrics        *queue.QueueMetrics
}

func (q *fakeQueue) Length(context.Context) (int64, int64, error) { return q.ready, q.delayed, nil }

func (q *fakeQueue) Metrics() *queue.QueueMetrics { return q.metrics }

func TestReportIncludesRetryQueue(t *testing.T) {
	f := newFixture(t, noPrize)
	q := &fakeQueue{ready: 1, delayed: 2, metrics: queue.NewQueueMetrics()}
	q.metrics.RecordSuccess(queue.OpProcess)
	q.metrics.RecordError(queue.OpProcess)
	f.deps.Queue = q

	r, err := NewReportService(f.deps).Report(context.Background())
	require.NoError(t, err)
	require.NotNil(t, r.Queue)
	assert.EqualValues(t, 1, r.Queue.Ready)
	assert.EqualValues(t, 2, r.Queue.Delayed)
	assert.EqualValues(t, 2, r.Queue.Tasks.Total)
	assert.EqualValues(t, 1, r.Queue.Tasks.Failed)
}
