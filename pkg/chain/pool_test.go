package chain

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errNodeDown = errors.New("connection refused")

type downBackend struct {
	*fakeBackend
}

func (d downBackend) BlockNumber(context.Context) (uint64, error) { return 0, errNodeDown }

func (d downBackend) SendTransaction(context.Context, *types.Transaction) error { return errNodeDown }

func TestPoolFailsOver(t *testing.T) {
	good := newFakeBackend()
	good.head = 42

	pool, err := NewPool(
		&Endpoint{URL: "http://down", Backend: downBackend{newFakeBackend()}},
		&Endpoint{URL: "http://up", Backend: good},
	)
	require.NoError(t, err)

	for i := 0; i < unhealthyAfter; i++ {
		head, err := pool.BlockNumber(context.Background())
		require.NoError(t, err)
		assert.Equal(t, uint64(42), head)
	}
	assert.Equal(t, 1, pool.HealthyCount())

	head, err := pool.BlockNumber(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(42), head)
}

func TestPoolNotFoundKeepsEndpointHealthy(t *testing.T) {
	pool, err := NewPool(&Endpoint{URL: "http://up", Backend: newFakeBackend()})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := pool.TransactionReceipt(context.Background(), common.HexToHash("0x01"))
		assert.ErrorIs(t, err, ethereum.NotFound)
	}
	assert.Equal(t, 1, pool.HealthyCount())
}

func TestPoolDoesNotResend(t *testing.T) {
	good := newFakeBackend()
	pool, err := NewPool(
		&Endpoint{URL: "http://down", Backend: downBackend{newFakeBackend()}},
		&Endpoint{URL: "http://up", Backend: good},
	)
	require.NoError(t, err)

	err = pool.SendTransaction(context.Background(), types.NewTx(&types.LegacyTx{Nonce: 1}))
	assert.ErrorIs(t, err, errNodeDown)
	assert.Empty(t, good.sent)
}

func TestPoolResetsWhenAllDown(t *testing.T) {
	pool, err := NewPool(&Endpoint{URL: "http://down", Backend: downBackend{newFakeBackend()}})
	require.NoError(t, err)

	// two calls of two attempts each cross the unhealthy threshold once
	for i := 0; i < 2; i++ {
		_, err := pool.BlockNumber(context.Background())
		assert.ErrorIs(t, err, errNodeDown)
	}
	assert.Equal(t, 1, pool.HealthyCount())
}

func TestNewPoolNeedsEndpoints(t *testing.T) {
	_, err := NewPool()
	assert.Error(t, err)
}
