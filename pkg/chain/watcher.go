package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
)

// TransfersToWallet returns token transfers into the distribution wallet
// mined in blocks [from, to].
func (c *Client) TransfersToWallet(ctx context.Context, from, to uint64) ([]Transfer, error) {
	logs, err := c.backend.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(to),
		Addresses: []common.Address{c.token},
		Topics: [][]common.Hash{
			{TransferEventID},
			nil,
			{common.BytesToHash(c.wallet.Bytes())},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("filter transfer logs %d-%d: %w", from, to, err)
	}

	transfers := make([]Transfer, 0, len(logs))
	for _, l := range logs {
		if l.Removed {
			continue
		}
		sender, recipient, value, err := UnpackTransferLog(l)
		if err != nil || recipient != c.wallet {
			continue
		}
		amount, exact := FromWei(value, c.decimals)
		transfers = append(transfers, Transfer{
			TxHash:      l.TxHash.Hex(),
			From:        sender,
			To:          recipient,
			Value:       value,
			Amount:      amount,
			Exact:       exact,
			BlockNumber: l.BlockNumber,
		})
	}
	return transfers, nil
}
