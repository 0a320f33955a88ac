// Package user holds the wheel player model.
package user

import (
	"time"

	"spinwheel/app/models"
)

// User is one player, keyed by wallet address.
type User struct {
	models.BaseModel

	WalletAddress string     `gorm:"type:varchar(42);uniqueIndex;not null" json:"wallet_address"`
	ExtraSpins    int        `gorm:"not null;default:0;check:chk_users_extra_spins,extra_spins >= 0" json:"extra_spins"`
	LastPlayDate  *time.Time `gorm:"default:null" json:"last_play_date"`
	LastShareTask *time.Time `gorm:"default:null" json:"last_share_task"`
	ReferredBy    *string    `gorm:"type:varchar(42);index;default:null" json:"referred_by,omitempty"`

	models.CommonTimestampsField
}

// TableName is the table name.
func (User) TableName() string {
	return "users"
}
