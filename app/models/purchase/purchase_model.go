// Package purchase records the transactions already credited as spin packs.
package purchase

import "time"

// Source tells how a purchase was credited.
type Source string

const (
	SourceManual  Source = "manual"
	SourceWatcher Source = "watcher"
)

// ConsumedTransaction is a payment already turned into spins. The primary key
// on the hash makes every payment creditable at most once.
type ConsumedTransaction struct {
	TxHash        string    `gorm:"type:varchar(66);primaryKey" json:"tx_hash"`
	UserID        uint64    `gorm:"index;not null" json:"user_id"`
	WalletAddress string    `gorm:"type:varchar(42);index;not null" json:"wallet_address"`
	Spins         int       `gorm:"not null" json:"spins"`
	Cost          int64     `gorm:"not null" json:"cost"`
	Source        Source    `gorm:"type:varchar(16);not null" json:"source"`
	CreatedAt     time.Time `json:"created_at"`
}

// TableName is the table name.
func (ConsumedTransaction) TableName() string {
	return "consumed_transactions"
}
