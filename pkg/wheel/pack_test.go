package wheel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPackTable(t *testing.T) {
	packs := DefaultPackTable()

	p, err := packs.BySpins(3)
	require.NoError(t, err)
	assert.Equal(t, int64(125), p.Cost)

	p, err = packs.ByCost(300)
	require.NoError(t, err)
	assert.Equal(t, 10, p.Spins)

	_, err = packs.BySpins(2)
	assert.ErrorIs(t, err, ErrUnknownPack)
	_, err = packs.ByCost(51)
	assert.ErrorIs(t, err, ErrUnknownPack)
}

func TestParsePackTable(t *testing.T) {
	packs, err := ParsePackTable("10:300, 1:50")
	require.NoError(t, err)
	assert.Equal(t, []Pack{{Spins: 1, Cost: 50}, {Spins: 10, Cost: 300}}, packs.Packs)

	_, err = ParsePackTable("1:50,1:60")
	assert.Error(t, err)
	_, err = ParsePackTable("0:50")
	assert.Error(t, err)
	_, err = ParsePackTable("")
	assert.Error(t, err)
}
