// Package wheel is the spin accounting engine: it decides whether a spin is
// allowed, which spin source it consumes and which prize it lands on.
// Everything here is pure; persistence and transfers live in app/services.
package wheel

import (
	"errors"
	"time"
)

// ErrNoSpinsAvailable is returned when the free spin of the day is used and
// no extra spins are left.
var ErrNoSpinsAvailable = errors.New("no spins available")

// SpinSource tells which kind of spin a play consumed.
type SpinSource string

const (
	SourceFree  SpinSource = "free"
	SourceExtra SpinSource = "extra"
)

// State is the part of a user the engine reads and rewrites.
type State struct {
	ExtraSpins   int
	LastPlayDate *time.Time
}

// Decision is the state to persist after a permitted spin.
type Decision struct {
	Source SpinSource
	State  State
}

// Outcome is a permitted spin with its prize.
type Outcome struct {
	Decision
	Prize Prize
}

// FreeSpinAvailable reports whether the free spin of the local calendar day
// in loc is still unused. A play recorded after now, from clock skew or a
// timezone change, counts as today's, so LastPlayDate only moves forward.
func FreeSpinAvailable(state State, now time.Time, loc *time.Location) bool {
	if state.LastPlayDate == nil {
		return true
	}
	if state.LastPlayDate.After(now) {
		return false
	}
	return !SameDay(*state.LastPlayDate, now, loc)
}

// Available is the number of spins the user can still play today.
func Available(state State, now time.Time, loc *time.Location) int {
	n := state.ExtraSpins
	if n < 0 {
		n = 0
	}
	if FreeSpinAvailable(state, now, loc) {
		n++
	}
	return n
}

// Evaluate consumes one spin. The free spin wins over extra spins; when
// neither is left it returns ErrNoSpinsAvailable and the state is untouched.
func Evaluate(state State, now time.Time, loc *time.Location) (Decision, error) {
	if FreeSpinAvailable(state, now, loc) {
		played := now
		return Decision{
			Source: SourceFree,
			State:  State{ExtraSpins: state.ExtraSpins, LastPlayDate: &played},
		}, nil
	}

	if state.ExtraSpins <= 0 {
		return Decision{State: state}, ErrNoSpinsAvailable
	}

	return Decision{
		Source: SourceExtra,
		State:  State{ExtraSpins: state.ExtraSpins - 1, LastPlayDate: state.LastPlayDate},
	}, nil
}

// Spin evaluates the spin and, when permitted, draws a prize from table.
func Spin(state State, now time.Time, loc *time.Location, table *PrizeTable, r Rand) (Outcome, error) {
	decision, err := Evaluate(state, now, loc)
	if err != nil {
		return Outcome{Decision: decision}, err
	}
	return Outcome{Decision: decision, Prize: table.Draw(r)}, nil
}

// SameDay reports whether a and b fall on the same calendar date in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.UTC
	}
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// Clock is the time source of the engine.
type Clock interface {
	Now() time.Time
	Location() *time.Location
}

// SystemClock reads the wall clock in a fixed regional timezone.
type SystemClock struct {
	Loc *time.Location
}

func (c SystemClock) Now() time.Time {
	return time.Now().In(c.Location())
}

func (c SystemClock) Location() *time.Location {
	if c.Loc == nil {
		return time.UTC
	}
	return c.Loc
}
