package strategy

import (
	"math"
	"testing"
	"time"

	"medallion/internal/domain"
)

// stubStrategy is a minimal Strategy implementation used in registry tests.
type stubStrategy struct {
	name string
}

func (s *stubStrategy) Name() string                          { return s.name }
func (s *stubStrategy) Positions(_ []domain.FeatureRow) []int { return nil }

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	s := &stubStrategy{name: "test-strategy"}

	r.Register(s)

	got, ok := r.Get("test-strategy")
	if !ok {
		t.Fatal("Get returned false for registered strategy")
	}
	if got.Name() != "test-strategy" {
		t.Errorf("Get returned strategy with Name() = %q, want %q", got.Name(), "test-strategy")
	}
}

func TestRegistryGet_NotFound(t *testing.T) {
	r := NewRegistry()
	_, ok := r.Get("nonexistent")
	if ok {
		t.Error("Get returned true for unregistered strategy")
	}
}

func TestRegistryList(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubStrategy{name: "alpha"})
	r.Register(&stubStrategy{name: "beta"})

	names := r.List()
	if len(names) != 2 {
		t.Fatalf("List returned %d names, want 2", len(names))
	}
	// List returns sorted names.
	if names[0] != "alpha" || names[1] != "beta" {
		t.Errorf("List returned %v, want [alpha beta]", names)
	}
}

func rowsWithRSI(values []float64) []domain.FeatureRow {
	rows := make([]domain.FeatureRow, len(values))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, v := range values {
		rows[i] = domain.FeatureRow{
			Bar: domain.Bar{Ticker: "TEST", Date: base.AddDate(0, 0, i)},
			RSI: v,
		}
	}
	return rows
}

func TestMeanReversionPositions(t *testing.T) {
	s := NewRSIMeanReversion(35, 65)

	// State per bar: Long, hold, exit, hold, re-enter. Shifted one bar.
	rows := rowsWithRSI([]float64{30, 50, 70, 50, 30})
	got := s.Positions(rows)
	want := []int{0, 1, 1, 0, 0}

	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Positions[%d] = %d, want %d (full: %v)", i, got[i], want[i], got)
		}
	}
}

func TestMeanReversionNoLookAhead(t *testing.T) {
	s := NewRSIMeanReversion(35, 65)
	rows := rowsWithRSI([]float64{20, 80, 20, 80, 20, 80})

	got := s.Positions(rows)
	if got[0] != domain.Flat {
		t.Errorf("Positions[0] = %d, want Flat", got[0])
	}

	// Position[t] must equal the state machine's output at t-1.
	state := domain.Flat
	for i, r := range rows {
		if i > 0 && got[i] != state {
			t.Errorf("Positions[%d] = %d, want prior state %d", i, got[i], state)
		}
		switch {
		case r.RSI < 35:
			state = domain.Long
		case r.RSI > 65:
			state = domain.Flat
		}
	}
}

func TestMeanReversionLeadingUndefined(t *testing.T) {
	s := NewRSIMeanReversion(35, 65)

	// NaN RSI holds the current state; a leading undefined run stays Flat.
	nan := math.NaN()
	rows := rowsWithRSI([]float64{nan, nan, 50, 30, 50})

	got := s.Positions(rows)
	want := []int{0, 0, 0, 0, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Positions[%d] = %d, want %d (full: %v)", i, got[i], want[i], got)
		}
	}
}

func TestMeanReversionEmpty(t *testing.T) {
	s := NewRSIMeanReversion(35, 65)
	if got := s.Positions(nil); len(got) != 0 {
		t.Errorf("Positions(nil) = %v, want empty", got)
	}
}
