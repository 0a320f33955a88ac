package wheel

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"

	"github.com/spf13/cast"
)

// PrizeKind separates prizes by what the caller must do with them.
type PrizeKind string

const (
	KindNone  PrizeKind = "none"
	KindToken PrizeKind = "token"
	KindItem  PrizeKind = "item"
)

// Prize is one slice of the wheel. Weight is relative to the table total.
type Prize struct {
	Label  string    `json:"label"`
	Kind   PrizeKind `json:"kind"`
	Amount int64     `json:"amount,omitempty"`
	Weight int64     `json:"weight"`
}

// IsToken reports whether the prize pays out fungible tokens.
func (p Prize) IsToken() bool {
	return p.Kind == KindToken && p.Amount > 0
}

// Rand is the randomness the draw needs; *rand.Rand satisfies it.
type Rand interface {
	Int63n(n int64) int64
}

// PrizeTable is the weighted prize list the wheel draws from.
type PrizeTable struct {
	Entries []Prize
	total   int64
}

// NewPrizeTable validates entries and returns a ready table.
func NewPrizeTable(entries []Prize) (*PrizeTable, error) {
	t := &PrizeTable{Entries: entries}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks the table and caches its total weight.
func (t *PrizeTable) Validate() error {
	if len(t.Entries) == 0 {
		return errors.New("prize table is empty")
	}
	seen := make(map[string]struct{}, len(t.Entries))
	var total int64
	for _, p := range t.Entries {
		if p.Label == "" {
			return errors.New("prize without label")
		}
		if _, ok := seen[p.Label]; ok {
			return fmt.Errorf("duplicate prize %q", p.Label)
		}
		seen[p.Label] = struct{}{}
		if p.Weight <= 0 {
			return fmt.Errorf("prize %q: weight must be positive", p.Label)
		}
		switch p.Kind {
		case KindNone, KindItem:
		case KindToken:
			if p.Amount <= 0 {
				return fmt.Errorf("prize %q: token prize needs an amount", p.Label)
			}
		default:
			return fmt.Errorf("prize %q: unknown kind %q", p.Label, p.Kind)
		}
		if p.Weight > math.MaxInt64-total {
			return fmt.Errorf("prize %q: total weight overflows", p.Label)
		}
		total += p.Weight
	}
	t.total = total
	return nil
}

// TotalWeight is the sum of all weights.
func (t *PrizeTable) TotalWeight() int64 {
	if t.total == 0 {
		var total int64
		for _, p := range t.Entries {
			total += p.Weight
		}
		t.total = total
	}
	return t.total
}

// Draw picks a prize with probability Weight/TotalWeight.
func (t *PrizeTable) Draw(r Rand) Prize {
	roll := r.Int63n(t.TotalWeight())
	var cumulative int64
	for _, p := range t.Entries {
		cumulative += p.Weight
		if roll < cumulative {
			return p
		}
	}
	return t.Entries[len(t.Entries)-1]
}

// Probability returns the chance of label in percent.
func (t *PrizeTable) Probability(label string) float64 {
	for _, p := range t.Entries {
		if p.Label == label {
			return float64(p.Weight) * 100 / float64(t.TotalWeight())
		}
	}
	return 0
}

// DefaultPrizeTable is the wheel as it runs in production. Weights are
// hundredths of a percent and add up to 10000.
func DefaultPrizeTable() *PrizeTable {
	t, _ := NewPrizeTable([]Prize{
		{Label: "NFT BASISC", Kind: KindItem, Weight: 2},
		{Label: "NFT STARTER", Kind: KindItem, Weight: 4},
		{Label: "NO PRIZE", Kind: KindNone, Weight: 3000},
		{Label: "10 GKY", Kind: KindToken, Amount: 10, Weight: 2500},
		{Label: "20 GKY", Kind: KindToken, Amount: 20, Weight: 2000},
		{Label: "50 GKY", Kind: KindToken, Amount: 50, Weight: 1000},
		{Label: "100 GKY", Kind: KindToken, Amount: 100, Weight: 700},
		{Label: "250 GKY", Kind: KindToken, Amount: 250, Weight: 400},
		{Label: "500 GKY", Kind: KindToken, Amount: 500, Weight: 200},
		{Label: "1000 GKY", Kind: KindToken, Amount: 1000, Weight: 194},
	})
	return t
}

// ParsePrizeTable reads "label:kind:amount:weight" entries separated by commas,
// e.g. "NO PRIZE:none:0:3000,10 GKY:token:10:2500".
func ParsePrizeTable(s string) (*PrizeTable, error) {
	var entries []Prize
	for _, raw := range strings.Split(s, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		parts := strings.Split(raw, ":")
		if len(parts) != 4 {
			return nil, fmt.Errorf("invalid prize entry %q", raw)
		}
		amount, err := cast.ToInt64E(strings.TrimSpace(parts[2]))
		if err != nil {
			return nil, fmt.Errorf("invalid prize amount in %q: %w", raw, err)
		}
		weight, err := cast.ToInt64E(strings.TrimSpace(parts[3]))
		if err != nil {
			return nil, fmt.Errorf("invalid prize weight in %q: %w", raw, err)
		}
		entries = append(entries, Prize{
			Label:  strings.TrimSpace(parts[0]),
			Kind:   PrizeKind(strings.ToLower(strings.TrimSpace(parts[1]))),
			Amount: amount,
			Weight: weight,
		})
	}
	return NewPrizeTable(entries)
}

// LockedRand makes a *rand.Rand safe for concurrent draws.
type LockedRand struct {
	mu  sync.Mutex
	src *rand.Rand
}

// NewLockedRand seeds a concurrency-safe source.
func NewLockedRand(seed int64) *LockedRand {
	return &LockedRand{src: rand.New(rand.NewSource(seed))}
}

func (r *LockedRand) Int63n(n int64) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.src.Int63n(n)
}
