package wheel

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedRand returns the queued rolls in order.
type fixedRand struct {
	rolls []int64
}

func (f *fixedRand) Int63n(n int64) int64 {
	r := f.rolls[0]
	f.rolls = f.rolls[1:]
	return r % n
}

func TestDefaultPrizeTable(t *testing.T) {
	table := DefaultPrizeTable()
	require.NotNil(t, table)
	assert.Equal(t, int64(10000), table.TotalWeight())
	assert.InDelta(t, 30.0, table.Probability("NO PRIZE"), 1e-9)
	assert.InDelta(t, 0.02, table.Probability("NFT BASISC"), 1e-9)
	assert.Zero(t, table.Probability("missing"))
}

func TestDrawUsesCumulativeWeights(t *testing.T) {
	table, err := NewPrizeTable([]Prize{
		{Label: "A", Kind: KindNone, Weight: 1},
		{Label: "B", Kind: KindToken, Amount: 10, Weight: 2},
		{Label: "C", Kind: KindItem, Weight: 3},
	})
	require.NoError(t, err)

	r := &fixedRand{rolls: []int64{0, 1, 2, 3, 5}}
	var got []string
	for i := 0; i < 5; i++ {
		got = append(got, table.Draw(r).Label)
	}
	assert.Equal(t, []string{"A", "B", "B", "C", "C"}, got)
}

func TestDrawDistributionConverges(t *testing.T) {
	table := DefaultPrizeTable()
	r := NewLockedRand(42)

	const draws = 200000
	counts := make(map[string]int)
	for i := 0; i < draws; i++ {
		counts[table.Draw(r).Label]++
	}

	for _, p := range table.Entries {
		expected := float64(p.Weight) / float64(table.TotalWeight())
		observed := float64(counts[p.Label]) / draws
		// five standard deviations of a binomial proportion
		tolerance := 5 * math.Sqrt(expected*(1-expected)/draws)
		assert.InDelta(t, expected, observed, tolerance, "prize %s", p.Label)
	}
}

func TestPrizeTableValidation(t *testing.T) {
	tests := []struct {
		name    string
		entries []Prize
	}{
		{"empty", nil},
		{"zero weight", []Prize{{Label: "A", Kind: KindNone, Weight: 0}}},
		{"duplicate", []Prize{{Label: "A", Kind: KindNone, Weight: 1}, {Label: "A", Kind: KindNone, Weight: 1}}},
		{"token without amount", []Prize{{Label: "A", Kind: KindToken, Weight: 1}}},
		{"unknown kind", []Prize{{Label: "A", Kind: "cash", Weight: 1}}},
		{"overflowing weights", []Prize{{Label: "A", Kind: KindNone, Weight: math.MaxInt64}, {Label: "B", Kind: KindNone, Weight: 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPrizeTable(tt.entries)
			assert.Error(t, err)
		})
	}
}

func TestParsePrizeTable(t *testing.T) {
	table, err := ParsePrizeTable("NO PRIZE:none:0:60, 10 GKY:token:10:30,NFT:item:0:10")
	require.NoError(t, err)
	require.Len(t, table.Entries, 3)
	assert.Equal(t, Prize{Label: "10 GKY", Kind: KindToken, Amount: 10, Weight: 30}, table.Entries[1])
	assert.Equal(t, int64(100), table.TotalWeight())

	_, err = ParsePrizeTable("broken")
	assert.Error(t, err)
	_, err = ParsePrizeTable("A:token:x:1")
	assert.Error(t, err)

	_, err = ParsePrizeTable("A:none:0:9223372036854775807,B:none:0:1")
	assert.Error(t, err)

	table, err = ParsePrizeTable("A:none:0:9223372036854775807")
	require.NoError(t, err)
	assert.Equal(t, "A", table.Draw(&fixedRand{rolls: []int64{math.MaxInt64 - 1}}).Label)
}
