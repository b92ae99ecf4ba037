package indicator

import (
	"math"
	"testing"
)

func TestRSIWarmup(t *testing.T) {
	closes := []float64{10, 11, 12, 11, 13, 12, 14}
	period := 3

	out := RSI(closes, period, ZeroLossClamp)
	if len(out) != len(closes) {
		t.Fatalf("len(out) = %d, want %d", len(out), len(closes))
	}

	// Fewer than `period` changes exist before index `period`.
	for i := 0; i < period; i++ {
		if !math.IsNaN(out[i]) {
			t.Errorf("out[%d] = %v, want NaN during warmup", i, out[i])
		}
	}
	for i := period; i < len(out); i++ {
		if math.IsNaN(out[i]) {
			t.Errorf("out[%d] is NaN, want a defined value", i)
		}
		if out[i] < 0 || out[i] > 100 {
			t.Errorf("out[%d] = %v, outside [0, 100]", i, out[i])
		}
	}
}

func TestRSIKnownValues(t *testing.T) {
	// period 2, deltas: +1, +1, -1, +1
	closes := []float64{1, 2, 3, 2, 3}

	out := RSI(closes, 2, ZeroLossClamp)

	// Window at index 2 is (+1, +1): all gains, clamped to 100.
	if out[2] != 100 {
		t.Errorf("out[2] = %v, want 100 (all-gain window clamped)", out[2])
	}
	// Window at index 3 is (+1, -1): meanGain == meanLoss, RSI 50.
	if math.Abs(out[3]-50) > 1e-9 {
		t.Errorf("out[3] = %v, want 50", out[3])
	}
	// Window at index 4 is (-1, +1): also 50.
	if math.Abs(out[4]-50) > 1e-9 {
		t.Errorf("out[4] = %v, want 50", out[4])
	}
}

func TestRSIZeroLossPolicies(t *testing.T) {
	closes := []float64{1, 2, 3, 4} // strictly rising: loss mean is zero

	clamp := RSI(closes, 2, ZeroLossClamp)
	if clamp[2] != 100 || clamp[3] != 100 {
		t.Errorf("clamp policy: got %v, %v, want 100, 100", clamp[2], clamp[3])
	}

	drop := RSI(closes, 2, ZeroLossDrop)
	if !math.IsNaN(drop[2]) || !math.IsNaN(drop[3]) {
		t.Errorf("drop policy: got %v, %v, want NaN, NaN", drop[2], drop[3])
	}
}

func TestRSIFlatSeriesUndefined(t *testing.T) {
	closes := []float64{5, 5, 5, 5, 5}

	// 0/0 windows are undefined under either policy.
	for _, policy := range []ZeroLossPolicy{ZeroLossClamp, ZeroLossDrop} {
		out := RSI(closes, 2, policy)
		for i, v := range out {
			if !math.IsNaN(v) {
				t.Errorf("policy %q: out[%d] = %v, want NaN for a flat series", policy, i, v)
			}
		}
	}
}

func TestRSIShortSeries(t *testing.T) {
	out := RSI([]float64{1, 2}, 5, ZeroLossClamp)
	for i, v := range out {
		if !math.IsNaN(v) {
			t.Errorf("out[%d] = %v, want NaN when the series is shorter than the period", i, v)
		}
	}
}

func TestParseZeroLossPolicy(t *testing.T) {
	if _, err := ParseZeroLossPolicy("clamp"); err != nil {
		t.Errorf("clamp should parse: %v", err)
	}
	if _, err := ParseZeroLossPolicy("drop"); err != nil {
		t.Errorf("drop should parse: %v", err)
	}
	if _, err := ParseZeroLossPolicy("nonsense"); err == nil {
		t.Error("nonsense should not parse")
	}
}
