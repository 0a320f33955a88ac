package wheel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rome(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Rome")
	require.NoError(t, err)
	return loc
}

func TestEvaluateFirstSpinIsFree(t *testing.T) {
	loc := rome(t)
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, loc)

	decision, err := Evaluate(State{}, now, loc)
	require.NoError(t, err)
	assert.Equal(t, SourceFree, decision.Source)
	assert.Equal(t, 0, decision.State.ExtraSpins)
	require.NotNil(t, decision.State.LastPlayDate)
	assert.True(t, decision.State.LastPlayDate.Equal(now))

	_, err = Evaluate(decision.State, now.Add(time.Hour), loc)
	assert.ErrorIs(t, err, ErrNoSpinsAvailable)
}

func TestEvaluateFailureLeavesStateUntouched(t *testing.T) {
	loc := rome(t)
	played := time.Date(2024, 5, 10, 8, 0, 0, 0, loc)
	state := State{ExtraSpins: 0, LastPlayDate: &played}

	decision, err := Evaluate(state, played.Add(2*time.Hour), loc)
	require.ErrorIs(t, err, ErrNoSpinsAvailable)
	assert.Equal(t, state, decision.State)
}

func TestEvaluateConsumesExtraAfterFree(t *testing.T) {
	loc := rome(t)
	now := time.Date(2024, 5, 10, 9, 0, 0, 0, loc)
	state := State{ExtraSpins: 2}

	sources := []SpinSource{}
	for i := 0; i < 3; i++ {
		d, err := Evaluate(state, now.Add(time.Duration(i)*time.Minute), loc)
		require.NoError(t, err)
		sources = append(sources, d.Source)
		state = d.State
		assert.GreaterOrEqual(t, state.ExtraSpins, 0)
	}
	assert.Equal(t, []SpinSource{SourceFree, SourceExtra, SourceExtra}, sources)
	assert.Equal(t, 0, state.ExtraSpins)

	_, err := Evaluate(state, now.Add(time.Hour), loc)
	assert.ErrorIs(t, err, ErrNoSpinsAvailable)
}

func TestEvaluateExtraSpinKeepsLastPlayDate(t *testing.T) {
	loc := rome(t)
	played := time.Date(2024, 5, 10, 8, 0, 0, 0, loc)

	d, err := Evaluate(State{ExtraSpins: 1, LastPlayDate: &played}, played.Add(time.Hour), loc)
	require.NoError(t, err)
	assert.Equal(t, SourceExtra, d.Source)
	assert.True(t, d.State.LastPlayDate.Equal(played))
}

func TestEvaluateUsesRegionalCalendarDay(t *testing.T) {
	loc := rome(t)

	// Rome is UTC+2 in May, so these instants straddle local midnight.
	played := time.Date(2024, 5, 10, 21, 0, 0, 0, time.UTC) // 23:00 Rome, May 10
	later := time.Date(2024, 5, 10, 22, 30, 0, 0, time.UTC) // 00:30 Rome, May 11

	d, err := Evaluate(State{LastPlayDate: &played}, later, loc)
	require.NoError(t, err)
	assert.Equal(t, SourceFree, d.Source)

	// The same two instants are one UTC day, so a UTC clock would refuse.
	_, err = Evaluate(State{LastPlayDate: &played}, later, time.UTC)
	assert.ErrorIs(t, err, ErrNoSpinsAvailable)
}

func TestEvaluateNeverMovesLastPlayDateBack(t *testing.T) {
	loc := rome(t)
	// recorded a day ahead, e.g. by a host with a wrong clock
	ahead := time.Date(2024, 5, 11, 9, 0, 0, 0, loc)
	now := time.Date(2024, 5, 10, 23, 0, 0, 0, loc)

	state := State{ExtraSpins: 1, LastPlayDate: &ahead}
	assert.False(t, FreeSpinAvailable(state, now, loc))
	assert.Equal(t, 1, Available(state, now, loc))

	d, err := Evaluate(state, now, loc)
	require.NoError(t, err)
	assert.Equal(t, SourceExtra, d.Source)
	assert.True(t, d.State.LastPlayDate.Equal(ahead))

	_, err = Evaluate(d.State, now, loc)
	assert.ErrorIs(t, err, ErrNoSpinsAvailable)

	// the day after the recorded play the free spin is back
	next := time.Date(2024, 5, 12, 0, 30, 0, 0, loc)
	d, err = Evaluate(d.State, next, loc)
	require.NoError(t, err)
	assert.Equal(t, SourceFree, d.Source)
	assert.True(t, d.State.LastPlayDate.After(ahead))
}

func TestFreeSpinOncePerDayOverManyCalls(t *testing.T) {
	loc := rome(t)
	day := time.Date(2024, 1, 2, 0, 5, 0, 0, loc)
	state := State{ExtraSpins: 5}

	free := 0
	for i := 0; i < 10; i++ {
		d, err := Evaluate(state, day.Add(time.Duration(i)*time.Hour), loc)
		if err != nil {
			assert.ErrorIs(t, err, ErrNoSpinsAvailable)
			continue
		}
		if d.Source == SourceFree {
			free++
		}
		state = d.State
	}
	assert.Equal(t, 1, free)
	assert.Equal(t, 0, state.ExtraSpins)

	d, err := Evaluate(state, day.Add(24*time.Hour), loc)
	require.NoError(t, err)
	assert.Equal(t, SourceFree, d.Source)
}

func TestAvailable(t *testing.T) {
	loc := rome(t)
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, loc)
	yesterday := now.Add(-24 * time.Hour)

	assert.Equal(t, 1, Available(State{}, now, loc))
	assert.Equal(t, 4, Available(State{ExtraSpins: 3, LastPlayDate: &yesterday}, now, loc))
	assert.Equal(t, 3, Available(State{ExtraSpins: 3, LastPlayDate: &now}, now, loc))
}

func TestSpinDrawsOnlyWhenPermitted(t *testing.T) {
	loc := rome(t)
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, loc)
	table, err := NewPrizeTable([]Prize{{Label: "50 GKY", Kind: KindToken, Amount: 50, Weight: 1}})
	require.NoError(t, err)

	out, err := Spin(State{}, now, loc, table, NewLockedRand(1))
	require.NoError(t, err)
	assert.Equal(t, "50 GKY", out.Prize.Label)
	assert.True(t, out.Prize.IsToken())

	out, err = Spin(out.State, now, loc, table, NewLockedRand(1))
	require.ErrorIs(t, err, ErrNoSpinsAvailable)
	assert.Empty(t, out.Prize.Label)
}
