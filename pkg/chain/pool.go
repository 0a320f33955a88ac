package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"spinwheel/pkg/logger"
	"spinwheel/pkg/metrics"
)

// unhealthyAfter consecutive failures take an endpoint out of rotation.
const unhealthyAfter = 3

// Endpoint is one RPC node of a Pool.
type Endpoint struct {
	URL     string
	Backend Backend

	healthy    bool
	errorCount int
	lastErr    error
	lastUsed   time.Time
	requests   *RequestCounter
}

// RequestCounter keeps the request times of the last hour.
type RequestCounter struct {
	mu       sync.Mutex
	requests []time.Time
}

// Add records a request now.
func (rc *RequestCounter) Add() {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	now := time.Now()
	i := 0
	for i < len(rc.requests) && now.Sub(rc.requests[i]) > time.Hour {
		i++
	}
	rc.requests = append(rc.requests[i:], now)
}

// Recent counts the requests within d.
func (rc *RequestCounter) Recent(d time.Duration) int {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	now := time.Now()
	n := 0
	for i := len(rc.requests) - 1; i >= 0 && now.Sub(rc.requests[i]) <= d; i-- {
		n++
	}
	return n
}

// Pool is a Backend spread over several RPC nodes. Calls go to the least
// loaded healthy node; reads move on to the next node when one fails.
type Pool struct {
	mu        sync.RWMutex
	endpoints []*Endpoint
	retries   int
}

// NewPool builds a pool over ready backends.
func NewPool(endpoints ...*Endpoint) (*Pool, error) {
	if len(endpoints) == 0 {
		return nil, errors.New("no rpc endpoints")
	}
	for _, e := range endpoints {
		e.healthy = true
		e.requests = &RequestCounter{}
		metrics.SetRPCEndpointHealth(e.URL, true)
	}
	retries := len(endpoints)
	if retries < 2 {
		retries = 2
	}
	return &Pool{endpoints: endpoints, retries: retries}, nil
}

// DialPool connects to every url.
func DialPool(ctx context.Context, urls []string) (*Pool, error) {
	endpoints := make([]*Endpoint, 0, len(urls))
	for _, url := range urls {
		rpc, err := ethclient.DialContext(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("dial %s: %w", url, err)
		}
		endpoints = append(endpoints, &Endpoint{URL: url, Backend: rpc})
	}
	return NewPool(endpoints...)
}

// HealthyCount is the number of endpoints in rotation.
func (p *Pool) HealthyCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	n := 0
	for _, e := range p.endpoints {
		if e.healthy {
			n++
		}
	}
	return n
}

func (p *Pool) pick() *Endpoint {
	p.mu.Lock()
	defer p.mu.Unlock()

	var (
		selected *Endpoint
		minLoad  int
	)
	for _, e := range p.endpoints {
		if !e.healthy {
			continue
		}
		load := e.requests.Recent(5 * time.Minute)
		if selected == nil || load < minLoad {
			selected, minLoad = e, load
		}
	}
	if selected != nil {
		return selected
	}

	// every node failed: try them all again
	for _, e := range p.endpoints {
		e.healthy = true
		e.errorCount = 0
		metrics.SetRPCEndpointHealth(e.URL, true)
	}
	logger.WarnString("Chain", "Pool", "no healthy rpc endpoint, resetting all")
	return p.endpoints[0]
}

func (p *Pool) succeeded(e *Endpoint) {
	p.mu.Lock()
	defer p.mu.Unlock()

	e.healthy = true
	e.errorCount = 0
	e.lastErr = nil
	e.lastUsed = time.Now()
	metrics.RecordRPCRequest("success")
	metrics.SetRPCEndpointHealth(e.URL, true)
}

func (p *Pool) failed(e *Endpoint, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	e.errorCount++
	e.lastErr = err
	metrics.RecordRPCRequest("failed")
	if e.errorCount >= unhealthyAfter && e.healthy {
		e.healthy = false
		metrics.SetRPCEndpointHealth(e.URL, false)
		logger.WarnString("Chain", "Pool", fmt.Sprintf("endpoint %s unhealthy after %d errors: %v", e.URL, e.errorCount, err))
	}
}

// call runs fn on a picked endpoint. Not-found answers are results, not
// node failures. With retry set, failures move on to another endpoint.
func call[T any](ctx context.Context, p *Pool, retry bool, fn func(Backend) (T, error)) (T, error) {
	attempts := 1
	if retry {
		attempts = p.retries
	}

	var (
		zero    T
		lastErr error
	)
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		e := p.pick()
		e.requests.Add()

		v, err := fn(e.Backend)
		if err == nil || errors.Is(err, ethereum.NotFound) {
			p.succeeded(e)
			return v, err
		}
		p.failed(e, err)
		lastErr = err
	}
	return zero, lastErr
}

func (p *Pool) ChainID(ctx context.Context) (*big.Int, error) {
	return call(ctx, p, true, func(b Backend) (*big.Int, error) { return b.ChainID(ctx) })
}

func (p *Pool) BlockNumber(ctx context.Context) (uint64, error) {
	return call(ctx, p, true, func(b Backend) (uint64, error) { return b.BlockNumber(ctx) })
}

func (p *Pool) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	return call(ctx, p, true, func(b Backend) (uint64, error) { return b.PendingNonceAt(ctx, account) })
}

func (p *Pool) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return call(ctx, p, true, func(b Backend) (*big.Int, error) { return b.SuggestGasPrice(ctx) })
}

// SendTransaction is not retried: a node may have accepted the transaction
// before failing to answer.
func (p *Pool) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	_, err := call(ctx, p, false, func(b Backend) (struct{}, error) {
		return struct{}{}, b.SendTransaction(ctx, tx)
	})
	return err
}

func (p *Pool) TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error) {
	type result struct {
		tx      *types.Transaction
		pending bool
	}
	r, err := call(ctx, p, true, func(b Backend) (result, error) {
		tx, pending, err := b.TransactionByHash(ctx, hash)
		return result{tx, pending}, err
	})
	return r.tx, r.pending, err
}

func (p *Pool) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	return call(ctx, p, true, func(b Backend) (*types.Receipt, error) { return b.TransactionReceipt(ctx, hash) })
}

func (p *Pool) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	return call(ctx, p, true, func(b Backend) ([]types.Log, error) { return b.FilterLogs(ctx, q) })
}
