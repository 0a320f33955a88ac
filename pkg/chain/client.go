package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Backend is the part of ethclient.Client the package uses.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionByHash(ctx context.Context, hash common.Hash) (tx *types.Transaction, isPending bool, err error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
}

// Config describes the token and the distribution wallet.
type Config struct {
	RPCURL             string
	ChainID            int64 // 0 asks the node
	TokenAddress       string
	DistributionWallet string // derived from PrivateKey when empty
	PrivateKey         string // hex, with or without 0x; empty disables Send
	Decimals           int
	GasLimit           uint64
	GasPricePercent    int64 // applied to the node's suggested price
	GasStationURL      string
}

// Client sends and verifies token transfers for one contract and wallet.
type Client struct {
	backend  Backend
	chainID  *big.Int
	token    common.Address
	wallet   common.Address
	key      *ecdsa.PrivateKey
	decimals int
	gasLimit uint64
	gas      *GasOracle

	// nonces are taken from the pending pool, so sends must not overlap
	sendMu sync.Mutex
}

// ErrNoSigner is returned by Send when no private key is configured.
var ErrNoSigner = errors.New("distribution wallet key not configured")

// Dial connects to the comma separated nodes of cfg.RPCURL.
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	var urls []string
	for _, u := range strings.Split(cfg.RPCURL, ",") {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	pool, err := DialPool(ctx, urls)
	if err != nil {
		return nil, err
	}
	return NewClient(ctx, pool, cfg)
}

// NewClient builds a client over an existing backend.
func NewClient(ctx context.Context, backend Backend, cfg Config) (*Client, error) {
	if !common.IsHexAddress(cfg.TokenAddress) {
		return nil, fmt.Errorf("invalid token address %q", cfg.TokenAddress)
	}

	c := &Client{
		backend:  backend,
		token:    common.HexToAddress(cfg.TokenAddress),
		decimals: cfg.Decimals,
		gasLimit: cfg.GasLimit,
		gas:      NewGasOracle(cfg.GasStationURL, cfg.GasPricePercent),
	}
	if c.decimals == 0 {
		c.decimals = 18
	}
	if c.gasLimit == 0 {
		c.gasLimit = 100000
	}

	if cfg.PrivateKey != "" {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
		if err != nil {
			return nil, fmt.Errorf("invalid private key: %w", err)
		}
		c.key = key
		c.wallet = crypto.PubkeyToAddress(key.PublicKey)
	}

	if cfg.DistributionWallet != "" {
		if !common.IsHexAddress(cfg.DistributionWallet) {
			return nil, fmt.Errorf("invalid distribution wallet %q", cfg.DistributionWallet)
		}
		wallet := common.HexToAddress(cfg.DistributionWallet)
		if c.key != nil && wallet != c.wallet {
			return nil, fmt.Errorf("private key belongs to %s, not %s", c.wallet.Hex(), wallet.Hex())
		}
		c.wallet = wallet
	}
	if c.wallet == (common.Address{}) {
		return nil, errors.New("distribution wallet not configured")
	}

	if cfg.ChainID > 0 {
		c.chainID = big.NewInt(cfg.ChainID)
	} else {
		id, err := backend.ChainID(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch chain id: %w", err)
		}
		c.chainID = id
	}

	return c, nil
}

// Wallet is the distribution wallet purchases are paid to.
func (c *Client) Wallet() string {
	return c.wallet.Hex()
}

// Token is the token contract address.
func (c *Client) Token() string {
	return c.token.Hex()
}

// Decimals of the token.
func (c *Client) Decimals() int {
	return c.decimals
}

// LatestBlock returns the current head.
func (c *Client) LatestBlock(ctx context.Context) (uint64, error) {
	return c.backend.BlockNumber(ctx)
}
