package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"spinwheel/app/models/counter"
)

// CounterRepository maintains the global in/out ledger row.
type CounterRepository struct {
	db *gorm.DB
}

func NewCounterRepository(db *gorm.DB) *CounterRepository {
	return &CounterRepository{db: db}
}

// Ensure creates the ledger row if it does not exist yet.
func (r *CounterRepository) Ensure(ctx context.Context) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(&counter.GlobalCounter{ID: counter.SingletonID}).Error
}

// Add adds in and out to the totals in one upsert: the row is created with
// the deltas when missing and incremented in place otherwise. Negative deltas
// are refused so the totals never decrease.
func (r *CounterRepository) Add(ctx context.Context, in, out int64) error {
	if in < 0 || out < 0 {
		return fmt.Errorf("counter deltas must be non-negative (in=%d, out=%d)", in, out)
	}
	if in == 0 && out == 0 {
		return nil
	}
	now := time.Now()
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"total_in":   gorm.Expr("total_in + ?", in),
				"total_out":  gorm.Expr("total_out + ?", out),
				"updated_at": now,
			}),
		}).
		Create(&counter.GlobalCounter{ID: counter.SingletonID, TotalIn: in, TotalOut: out, UpdatedAt: now}).Error
}

// AddIn records tokens received.
func (r *CounterRepository) AddIn(ctx context.Context, amount int64) error {
	return r.Add(ctx, amount, 0)
}

// AddOut records tokens paid out.
func (r *CounterRepository) AddOut(ctx context.Context, amount int64) error {
	return r.Add(ctx, 0, amount)
}

// Get returns the ledger; a missing row reads as zero totals.
func (r *CounterRepository) Get(ctx context.Context) (counter.GlobalCounter, error) {
	var c counter.GlobalCounter
	err := r.db.WithContext(ctx).Where("id = ?", counter.SingletonID).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return counter.GlobalCounter{ID: counter.SingletonID}, nil
	}
	return c, err
}
