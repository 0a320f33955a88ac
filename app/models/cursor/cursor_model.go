// Package cursor stores how far chain scanners have read.
package cursor

import "time"

// ChainCursor is the last block a named scanner has processed.
type ChainCursor struct {
	Name        string    `gorm:"type:varchar(64);primaryKey"`
	BlockNumber uint64    `gorm:"not null"`
	UpdatedAt   time.Time
}

// TableName is the table name.
func (ChainCursor) TableName() string {
	return "chain_cursors"
}
