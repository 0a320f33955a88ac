package migrations

import (
	"spinwheel/app/models/counter"
	"spinwheel/app/models/cursor"
	"spinwheel/app/models/payout"
	"spinwheel/app/models/prize"
	"spinwheel/app/models/purchase"
	"spinwheel/app/models/user"
)

// RegisterTables lists the models migrated at startup.
func RegisterTables() []interface{} {
	return []interface{}{
		&user.User{},
		&prize.PrizeWon{},
		&counter.GlobalCounter{},
		&purchase.ConsumedTransaction{},
		&payout.Payout{},
		&cursor.ChainCursor{},
	}
}
