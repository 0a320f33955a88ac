// Package chain talks to the token contract over JSON-RPC: it submits prize
// transfers from the distribution wallet and checks incoming payments.
package chain

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

const erc20ABIJSON = `[
	{"constant":false,"inputs":[{"name":"_to","type":"address"},{"name":"_value","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"payable":false,"stateMutability":"nonpayable","type":"function"},
	{"anonymous":false,"inputs":[{"indexed":true,"name":"from","type":"address"},{"indexed":true,"name":"to","type":"address"},{"indexed":false,"name":"value","type":"uint256"}],"name":"Transfer","type":"event"}
]`

var erc20ABI abi.ABI

// TransferEventID is topic 0 of the ERC-20 Transfer event.
var TransferEventID common.Hash

func init() {
	parsed, err := abi.JSON(strings.NewReader(erc20ABIJSON))
	if err != nil {
		panic(fmt.Sprintf("chain: parse erc20 abi: %v", err))
	}
	erc20ABI = parsed
	TransferEventID = parsed.Events["Transfer"].ID
}

// ErrNotTransferCall is returned when calldata is not an ERC-20 transfer.
var ErrNotTransferCall = errors.New("not an erc20 transfer call")

// PackTransfer encodes transfer(to, value) calldata.
func PackTransfer(to common.Address, value *big.Int) ([]byte, error) {
	return erc20ABI.Pack("transfer", to, value)
}

// UnpackTransfer decodes transfer calldata into recipient and raw value.
func UnpackTransfer(data []byte) (common.Address, *big.Int, error) {
	method := erc20ABI.Methods["transfer"]
	if len(data) < 4 || !bytes.Equal(data[:4], method.ID) {
		return common.Address{}, nil, ErrNotTransferCall
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return common.Address{}, nil, fmt.Errorf("%w: %v", ErrNotTransferCall, err)
	}
	if len(args) != 2 {
		return common.Address{}, nil, ErrNotTransferCall
	}
	to, ok := args[0].(common.Address)
	if !ok {
		return common.Address{}, nil, ErrNotTransferCall
	}
	value, ok := args[1].(*big.Int)
	if !ok {
		return common.Address{}, nil, ErrNotTransferCall
	}
	return to, value, nil
}

// UnpackTransferLog decodes a Transfer event log.
func UnpackTransferLog(l types.Log) (from, to common.Address, value *big.Int, err error) {
	if len(l.Topics) != 3 || l.Topics[0] != TransferEventID {
		return from, to, nil, errors.New("not an erc20 transfer log")
	}
	from = common.BytesToAddress(l.Topics[1].Bytes())
	to = common.BytesToAddress(l.Topics[2].Bytes())
	value = new(big.Int).SetBytes(l.Data)
	return from, to, value, nil
}

// ToWei converts whole tokens to base units.
func ToWei(amount int64, decimals int) *big.Int {
	return new(big.Int).Mul(big.NewInt(amount), unit(decimals))
}

// FromWei converts base units to whole tokens; exact is false when value has
// a fractional part, which is truncated.
func FromWei(value *big.Int, decimals int) (whole int64, exact bool) {
	if value == nil {
		return 0, true
	}
	q, r := new(big.Int).QuoRem(value, unit(decimals), new(big.Int))
	if !q.IsInt64() {
		return -1, false
	}
	return q.Int64(), r.Sign() == 0
}

func unit(decimals int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
}
