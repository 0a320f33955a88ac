package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"spinwheel/pkg/logger"
)

// Send signs and submits transfer(to, amount) from the distribution wallet
// and returns the transaction hash without waiting for it to be mined.
func (c *Client) Send(ctx context.Context, to string, amount int64) (string, error) {
	if c.key == nil {
		return "", ErrNoSigner
	}
	if !common.IsHexAddress(to) {
		return "", fmt.Errorf("invalid recipient %q", to)
	}
	if amount <= 0 {
		return "", fmt.Errorf("invalid amount %d", amount)
	}

	data, err := PackTransfer(common.HexToAddress(to), ToWei(amount, c.decimals))
	if err != nil {
		return "", fmt.Errorf("pack transfer: %w", err)
	}

	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	nonce, err := c.backend.PendingNonceAt(ctx, c.wallet)
	if err != nil {
		return "", fmt.Errorf("pending nonce: %w", err)
	}

	gasPrice, err := c.gas.GasPrice(ctx, c.backend)
	if err != nil {
		return "", err
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &c.token,
		Value:    big.NewInt(0),
		Gas:      c.gasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})

	signed, err := types.SignTx(tx, types.NewEIP155Signer(c.chainID), c.key)
	if err != nil {
		return "", fmt.Errorf("sign transfer: %w", err)
	}

	if err := c.backend.SendTransaction(ctx, signed); err != nil {
		return "", fmt.Errorf("submit transfer: %w", err)
	}

	hash := signed.Hash().Hex()
	logger.InfoString("Chain", "Send", fmt.Sprintf("sent %d tokens to %s, tx %s", amount, to, hash))
	return hash, nil
}
