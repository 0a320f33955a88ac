package user

import (
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"spinwheel/pkg/wheel"
)

// NormalizeWallet returns the checksummed form of a hex address, or "" when
// address is not one.
func NormalizeWallet(address string) string {
	address = strings.TrimSpace(address)
	if !common.IsHexAddress(address) {
		return ""
	}
	return common.HexToAddress(address).Hex()
}

// SpinState is the part of the user the wheel engine works on.
func (u *User) SpinState() wheel.State {
	return wheel.State{ExtraSpins: u.ExtraSpins, LastPlayDate: u.LastPlayDate}
}

// ApplySpinState copies the engine's decision back onto the user.
func (u *User) ApplySpinState(s wheel.State) {
	u.ExtraSpins = s.ExtraSpins
	u.LastPlayDate = s.LastPlayDate
}

// ShareTaskReadyAt is when the share task can be claimed again.
func (u *User) ShareTaskReadyAt(cooldown time.Duration) time.Time {
	if u.LastShareTask == nil {
		return time.Time{}
	}
	return u.LastShareTask.Add(cooldown)
}
