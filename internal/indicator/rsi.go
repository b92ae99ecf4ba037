// Package indicator provides rolling technical indicator calculations over
// price series.
package indicator

import (
	"fmt"
	"math"
)

// ZeroLossPolicy controls the RSI value when the rolling loss mean is zero
// while the gain mean is positive (the RS ratio is infinite).
type ZeroLossPolicy string

const (
	// ZeroLossClamp pins RSI at 100 for an all-gain window.
	ZeroLossClamp ZeroLossPolicy = "clamp"
	// ZeroLossDrop leaves RSI undefined (NaN) for an all-gain window, so the
	// row is excluded from the feature series.
	ZeroLossDrop ZeroLossPolicy = "drop"
)

// ParseZeroLossPolicy validates a policy string from configuration.
func ParseZeroLossPolicy(s string) (ZeroLossPolicy, error) {
	switch ZeroLossPolicy(s) {
	case ZeroLossClamp, ZeroLossDrop:
		return ZeroLossPolicy(s), nil
	}
	return "", fmt.Errorf("unknown rsi zero-loss policy %q (want %q or %q)", s, ZeroLossClamp, ZeroLossDrop)
}

// RSI computes the simple-moving-average RSI variant over closes: day-over-day
// changes are split into gains and losses, each averaged over a rolling window
// of `period`, and RSI = 100 − 100/(1+RS) with RS = meanGain/meanLoss.
//
// The result has the same length as closes. Values are NaN while fewer than
// `period` changes exist (indices 0..period-1), and NaN whenever both rolling
// means are zero (a flat window). A zero loss mean with a positive gain mean
// resolves per the policy.
func RSI(closes []float64, period int, policy ZeroLossPolicy) []float64 {
	out := make([]float64, len(closes))
	for i := range out {
		out[i] = math.NaN()
	}
	if period <= 0 || len(closes) <= period {
		return out
	}

	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains[i] = change
		} else {
			losses[i] = -change
		}
	}

	// Rolling sums over the trailing `period` changes. The first change is at
	// index 1, so the window first fills at index `period`.
	var gainSum, lossSum float64
	for i := 1; i < len(closes); i++ {
		gainSum += gains[i]
		lossSum += losses[i]
		if i > period {
			gainSum -= gains[i-period]
			lossSum -= losses[i-period]
		}
		if i < period {
			continue
		}

		meanGain := gainSum / float64(period)
		meanLoss := lossSum / float64(period)

		switch {
		case meanLoss == 0 && meanGain == 0:
			// 0/0: undefined under either policy.
		case meanLoss == 0:
			if policy == ZeroLossClamp {
				out[i] = 100
			}
		default:
			rs := meanGain / meanLoss
			out[i] = 100 - 100/(1+rs)
		}
	}
	return out
}
