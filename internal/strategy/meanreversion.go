package strategy

import (
	"medallion/internal/domain"
)

// Compile-time interface check.
var _ Strategy = (*RSIMeanReversion)(nil)

// RSIMeanReversion is the baseline long/flat mean-reversion strategy: go long
// when RSI drops below the lower threshold, close the position when RSI rises
// above the upper threshold, and hold the current state in between. No stop
// loss, no sizing, no shorts.
type RSIMeanReversion struct {
	lower float64
	upper float64
}

// NewRSIMeanReversion creates the baseline strategy with the given RSI entry
// and exit thresholds (canonically 35/65).
func NewRSIMeanReversion(lower, upper float64) *RSIMeanReversion {
	return &RSIMeanReversion{lower: lower, upper: upper}
}

// Name returns "baseline".
func (s *RSIMeanReversion) Name() string { return "baseline" }

// Positions runs an explicit two-state machine over the RSI stream and then
// shifts the result one bar forward: a signal computed at the close of day t
// is only tradable on day t+1, so Positions[0] is always Flat.
//
// A NaN RSI compares false against both thresholds, which leaves the state
// untouched and carries the previous position forward.
func (s *RSIMeanReversion) Positions(rows []domain.FeatureRow) []int {
	computed := make([]int, len(rows))
	state := domain.Flat
	for i, r := range rows {
		switch {
		case r.RSI < s.lower:
			state = domain.Long
		case r.RSI > s.upper:
			state = domain.Flat
		}
		computed[i] = state
	}

	positions := make([]int, len(rows))
	for i := 1; i < len(rows); i++ {
		positions[i] = computed[i-1]
	}
	return positions
}
