// Package prize holds the log of non-fungible prizes won on the wheel.
package prize

import (
	"time"

	"spinwheel/app/models"
)

// PrizeWon is an append-only record of an item prize.
type PrizeWon struct {
	models.BaseModel

	UserID        uint64    `gorm:"index;not null" json:"user_id"`
	WalletAddress string    `gorm:"type:varchar(42);index;not null" json:"wallet_address"`
	Prize         string    `gorm:"type:varchar(64);not null" json:"prize"`
	WonAt         time.Time `gorm:"index;not null" json:"won_at"`
}

// TableName is the table name.
func (PrizeWon) TableName() string {
	return "premi_vinti"
}
