package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ErrInvalidTransfer wraps every reason a payment is refused. Other errors
// returned by Inspect and Verify come from the node.
var ErrInvalidTransfer = errors.New("invalid token transfer")

// Transfer is a token movement read from the chain.
type Transfer struct {
	TxHash      string
	From        common.Address
	To          common.Address
	Value       *big.Int
	Amount      int64 // whole tokens, truncated
	Exact       bool  // Value had no fractional tokens
	BlockNumber uint64
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidTransfer, fmt.Sprintf(format, args...))
}

// Inspect loads a mined, successful transfer call to the token contract and
// decodes it. It does not check who it pays.
func (c *Client) Inspect(ctx context.Context, txHash string) (*Transfer, error) {
	hash := common.HexToHash(txHash)

	tx, pending, err := c.backend.TransactionByHash(ctx, hash)
	if errors.Is(err, ethereum.NotFound) {
		return nil, invalid("transaction %s not found", txHash)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch transaction %s: %w", txHash, err)
	}
	if pending {
		return nil, invalid("transaction %s is still pending", txHash)
	}
	if tx.To() == nil || *tx.To() != c.token {
		return nil, invalid("transaction %s is not sent to the token contract", txHash)
	}

	to, value, err := UnpackTransfer(tx.Data())
	if err != nil {
		return nil, invalid("transaction %s: %v", txHash, err)
	}

	receipt, err := c.backend.TransactionReceipt(ctx, hash)
	if errors.Is(err, ethereum.NotFound) {
		return nil, invalid("transaction %s has no receipt yet", txHash)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch receipt %s: %w", txHash, err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, invalid("transaction %s reverted", txHash)
	}

	from, err := types.Sender(types.LatestSignerForChainID(c.chainID), tx)
	if err != nil {
		return nil, invalid("transaction %s: recover sender: %v", txHash, err)
	}

	amount, exact := FromWei(value, c.decimals)
	t := &Transfer{
		TxHash: hash.Hex(),
		From:   from,
		To:     to,
		Value:  value,
		Amount: amount,
		Exact:  exact,
	}
	if receipt.BlockNumber != nil {
		t.BlockNumber = receipt.BlockNumber.Uint64()
	}
	return t, nil
}

// Verify checks that txHash is a successful transfer from sender to the
// distribution wallet of at least cost whole tokens.
func (c *Client) Verify(ctx context.Context, sender, txHash string, cost int64) (*Transfer, error) {
	t, err := c.Inspect(ctx, txHash)
	if err != nil {
		return nil, err
	}
	if !common.IsHexAddress(sender) || common.HexToAddress(sender) != t.From {
		return nil, invalid("transaction %s was sent by %s, not %s", txHash, t.From.Hex(), sender)
	}
	if t.To != c.wallet {
		return nil, invalid("transaction %s pays %s, not the distribution wallet", txHash, t.To.Hex())
	}
	if t.Value.Cmp(ToWei(cost, c.decimals)) < 0 {
		return nil, invalid("transaction %s pays %d tokens, %d required", txHash, t.Amount, cost)
	}
	return t, nil
}
