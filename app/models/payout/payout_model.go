// Package payout holds the token transfers owed for won prizes.
package payout

import (
	"time"

	"spinwheel/app/models"
)

// Payout is one token prize to transfer to a winner.
type Payout struct {
	models.BaseModel

	UserID        uint64 `gorm:"index;not null" json:"user_id"`
	WalletAddress string `gorm:"type:varchar(42);index;not null" json:"wallet_address"`
	Prize         string `gorm:"type:varchar(64);not null" json:"prize"`
	Amount        int64  `gorm:"not null" json:"amount"`
	Status        Status `gorm:"type:varchar(16);index;not null" json:"status"`
	TxHash        string `gorm:"type:varchar(66)" json:"tx_hash,omitempty"`
	Attempts      int    `gorm:"not null;default:0" json:"attempts"`
	LastError     string `gorm:"type:text" json:"last_error,omitempty"`
	// ClaimedAt is when the current sender took the payout
	ClaimedAt *time.Time `gorm:"index" json:"claimed_at,omitempty"`

	models.CommonTimestampsField
}

// TableName is the table name.
func (Payout) TableName() string {
	return "payouts"
}
