package wheel

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cast"
)

// ErrUnknownPack is returned when no pack matches a size or a paid amount.
var ErrUnknownPack = errors.New("unknown spin pack")

// Pack is a purchasable bundle of extra spins; Cost is in whole tokens.
type Pack struct {
	Spins int   `json:"spins"`
	Cost  int64 `json:"cost"`
}

// PackTable lists the packs on sale, ordered by size.
type PackTable struct {
	Packs []Pack
}

// NewPackTable validates packs: positive values, unique sizes and costs.
func NewPackTable(packs []Pack) (*PackTable, error) {
	if len(packs) == 0 {
		return nil, errors.New("pack table is empty")
	}
	sizes := make(map[int]struct{})
	costs := make(map[int64]struct{})
	for _, p := range packs {
		if p.Spins <= 0 || p.Cost <= 0 {
			return nil, fmt.Errorf("invalid pack %d/%d", p.Spins, p.Cost)
		}
		if _, ok := sizes[p.Spins]; ok {
			return nil, fmt.Errorf("duplicate pack size %d", p.Spins)
		}
		if _, ok := costs[p.Cost]; ok {
			return nil, fmt.Errorf("duplicate pack cost %d", p.Cost)
		}
		sizes[p.Spins] = struct{}{}
		costs[p.Cost] = struct{}{}
	}
	sorted := append([]Pack(nil), packs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Spins < sorted[j].Spins })
	return &PackTable{Packs: sorted}, nil
}

// DefaultPackTable is 1 spin for 50, 3 for 125 and 10 for 300.
func DefaultPackTable() *PackTable {
	t, _ := NewPackTable([]Pack{{Spins: 1, Cost: 50}, {Spins: 3, Cost: 125}, {Spins: 10, Cost: 300}})
	return t
}

// BySpins finds the pack with the given number of spins.
func (t *PackTable) BySpins(spins int) (Pack, error) {
	for _, p := range t.Packs {
		if p.Spins == spins {
			return p, nil
		}
	}
	return Pack{}, fmt.Errorf("%w: %d spins", ErrUnknownPack, spins)
}

// ByCost finds the pack priced exactly cost.
func (t *PackTable) ByCost(cost int64) (Pack, error) {
	for _, p := range t.Packs {
		if p.Cost == cost {
			return p, nil
		}
	}
	return Pack{}, fmt.Errorf("%w: cost %d", ErrUnknownPack, cost)
}

// ParsePackTable reads "spins:cost" entries separated by commas.
func ParsePackTable(s string) (*PackTable, error) {
	var packs []Pack
	for _, raw := range strings.Split(s, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		parts := strings.Split(raw, ":")
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid pack entry %q", raw)
		}
		spins, err := cast.ToIntE(strings.TrimSpace(parts[0]))
		if err != nil {
			return nil, fmt.Errorf("invalid pack size in %q: %w", raw, err)
		}
		cost, err := cast.ToInt64E(strings.TrimSpace(parts[1]))
		if err != nil {
			return nil, fmt.Errorf("invalid pack cost in %q: %w", raw, err)
		}
		packs = append(packs, Pack{Spins: spins, Cost: cost})
	}
	return NewPackTable(packs)
}
