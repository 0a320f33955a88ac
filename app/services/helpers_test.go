package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"spinwheel/pkg/chain"
	"spinwheel/pkg/database/dbtest"
	"spinwheel/pkg/wheel"
)

const (
	alice = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	bob   = "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"
	carol = "0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
	loc *time.Location
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Location() *time.Location { return c.loc }

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeSender struct {
	mu    sync.Mutex
	fail  error
	delay time.Duration
	sends []string
}

func (s *fakeSender) Send(_ context.Context, to string, amount int64) (string, error) {
	time.Sleep(s.delay)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return "", s.fail
	}
	s.sends = append(s.sends, fmt.Sprintf("%s:%d", to, amount))
	return fmt.Sprintf("0x%064x", len(s.sends)), nil
}

func (s *fakeSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sends)
}

// fakeVerifier knows a fixed set of payments to the distribution wallet.
type fakeVerifier struct {
	mu        sync.Mutex
	transfers map[string]chain.Transfer
	down      error
	calls     int
}

func newFakeVerifier() *fakeVerifier {
	return &fakeVerifier{transfers: map[string]chain.Transfer{}}
}

func (v *fakeVerifier) pay(hash, from string, tokens int64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.transfers[hash] = chain.Transfer{TxHash: hash, From: common.HexToAddress(from), Amount: tokens, Exact: true}
}

func (v *fakeVerifier) Inspect(_ context.Context, hash string) (*chain.Transfer, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.calls++
	if v.down != nil {
		return nil, v.down
	}
	t, ok := v.transfers[hash]
	if !ok {
		return nil, fmt.Errorf("%w: transaction %s not found", chain.ErrInvalidTransfer, hash)
	}
	return &t, nil
}

func (v *fakeVerifier) Verify(ctx context.Context, sender, hash string, cost int64) (*chain.Transfer, error) {
	t, err := v.Inspect(ctx, hash)
	if err != nil {
		return nil, err
	}
	if common.HexToAddress(sender) != t.From {
		return nil, fmt.Errorf("%w: wrong sender", chain.ErrInvalidTransfer)
	}
	if t.Amount < cost {
		return nil, fmt.Errorf("%w: amount too low", chain.ErrInvalidTransfer)
	}
	return t, nil
}

type fakeRetrier struct {
	mu     sync.Mutex
	queued []uint64
}

func (r *fakeRetrier) Enqueue(_ context.Context, payoutID uint64, _ int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queued = append(r.queued, payoutID)
	return nil
}

type fixture struct {
	db       *gorm.DB
	clock    *fakeClock
	sender   *fakeSender
	verifier *fakeVerifier
	retrier  *fakeRetrier
	deps     Deps
}

func newFixture(t *testing.T, prizes ...wheel.Prize) *fixture {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Rome")
	require.NoError(t, err)

	f := &fixture{
		db:       dbtest.New(t),
		clock:    &fakeClock{now: time.Date(2024, 6, 1, 10, 0, 0, 0, loc), loc: loc},
		sender:   &fakeSender{},
		verifier: newFakeVerifier(),
		retrier:  &fakeRetrier{},
	}

	table := wheel.DefaultPrizeTable()
	if len(prizes) > 0 {
		table, err = wheel.NewPrizeTable(prizes)
		require.NoError(t, err)
	}

	f.deps = Deps{
		DB:                 f.db,
		Clock:              f.clock,
		Rand:               wheel.NewLockedRand(7),
		Prizes:             table,
		Sender:             f.sender,
		Verifier:           f.verifier,
		Retrier:            f.retrier,
		DistributionWallet: "0xBc0c054066966a7A6C875981a18376e2296e5815",
		TokenAddress:       "0x370806781689E670f85311700445449aC7C3Ff7a",
		MaxPayoutAttempt:   3,
	}
	return f
}

var (
	tokenPrize = wheel.Prize{Label: "50 GKY", Kind: wheel.KindToken, Amount: 50, Weight: 1}
	itemPrize  = wheel.Prize{Label: "NFT STARTER", Kind: wheel.KindItem, Weight: 1}
	noPrize    = wheel.Prize{Label: "NO PRIZE", Kind: wheel.KindNone, Weight: 1}
)

func txHash(n int) string {
	return fmt.Sprintf("0x%064x", n+1000)
}

var errRPC = errors.New("rpc unavailable")
