// Package counter holds the global in/out token ledger.
package counter

import "time"

// SingletonID is the id of the only ledger row.
const SingletonID = 1

// GlobalCounter tracks all tokens received from purchases and paid as prizes.
// Both totals only grow.
type GlobalCounter struct {
	ID        uint      `gorm:"primaryKey;autoIncrement:false" json:"-"`
	TotalIn   int64     `gorm:"not null;default:0" json:"total_in"`
	TotalOut  int64     `gorm:"not null;default:0" json:"total_out"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName is the table name.
func (GlobalCounter) TableName() string {
	return "global_counter"
}

// Balance is TotalIn minus TotalOut.
func (c GlobalCounter) Balance() int64 {
	return c.TotalIn - c.TotalOut
}
