// Package dice provides the injectable randomness used by the ship combat
// simulation, together with dice-expression rolls for rewards.
package dice

import "fmt"

// Source is the randomness provider for every random draw in the simulation.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// chanceResolution is the granularity of Chance draws.
const chanceResolution = 1_000_000

// Chance performs one Bernoulli draw with success probability p.
//
// Postcondition: Returns false for p <= 0 and true for p >= 1 without consuming a draw;
// otherwise exactly one Intn call is made.
func Chance(src Source, p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return src.Intn(chanceResolution) < int(p*chanceResolution)
}

// Percent draws a uniform integer in [0, 100).
func Percent(src Source) int {
	return src.Intn(100)
}

// RollResult holds the audit trail for a single dice expression roll.
//
// Postcondition: Total() == sum(Dice) + Modifier.
type RollResult struct {
	Expression string
	Dice       []int
	Modifier   int
}

// Total returns the sum of all dice plus the modifier.
func (r RollResult) Total() int {
	total := r.Modifier
	for _, d := range r.Dice {
		total += d
	}
	return total
}

// String formats the roll as "3d6+10 → [2 5 6] +10 = 23".
//
// Precondition: r.Expression is non-empty.
func (r RollResult) String() string {
	if r.Expression == "" {
		panic("dice: RollResult.String() precondition violated: Expression must be non-empty")
	}
	return fmt.Sprintf("%s → %v %+d = %d", r.Expression, r.Dice, r.Modifier, r.Total())
}
