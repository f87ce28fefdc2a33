package classifier

import (
	"math"
	"testing"

	"github.com/mediscan-ai/mediscan/internal/advisory"
)

func TestArgmaxTieBreakPrefersEarlierClass(t *testing.T) {
	// Equal scores must resolve to the first class in the fixed ordering.
	out := outcomeFromScores([]string{"glioma", "meningioma", "normal", "pituitary"}, []float64{25, 25, 25, 25})
	if out.Label != "glioma" {
		t.Fatalf("tie should pick the first-listed class, got %q", out.Label)
	}
	if out.Confidence != 25 {
		t.Fatalf("expected confidence 25, got %v", out.Confidence)
	}
}

func TestArgmaxStrictComparison(t *testing.T) {
	cases := []struct {
		scores []float64
		want   int
	}{
		{[]float64{10, 50, 50}, 1},
		{[]float64{50, 50, 10}, 0},
		{[]float64{1, 2, 3}, 2},
		{[]float64{9}, 0},
	}
	for _, tc := range cases {
		if got := argmax(tc.scores); got != tc.want {
			t.Fatalf("argmax(%v) = %d, want %d", tc.scores, got, tc.want)
		}
	}
}

func TestSimulatorDistributionIsValid(t *testing.T) {
	sim := NewSimulator(42)
	for i := 0; i < 50; i++ {
		out := sim.Predict(advisory.ChestClasses)
		if out.Err != nil {
			t.Fatalf("simulation should never fail: %v", out.Err)
		}
		if len(out.Distribution) != len(advisory.ChestClasses) {
			t.Fatalf("distribution keys = %d, want %d", len(out.Distribution), len(advisory.ChestClasses))
		}
		sum := 0.0
		for cls, v := range out.Distribution {
			if v < 0 || v > 100 {
				t.Fatalf("probability for %s out of range: %v", cls, v)
			}
			sum += v
		}
		if math.Abs(sum-100.0) > 1e-6 {
			t.Fatalf("distribution sums to %v, want 100", sum)
		}
		if out.Distribution[out.Label] != out.Confidence {
			t.Fatalf("confidence %v does not match winning class score %v", out.Confidence, out.Distribution[out.Label])
		}
	}
}

func TestSimulatorIsSeedable(t *testing.T) {
	a := NewSimulator(7).Predict(advisory.BrainClasses)
	b := NewSimulator(7).Predict(advisory.BrainClasses)
	if a.Label != b.Label || a.Confidence != b.Confidence {
		t.Fatalf("same seed should reproduce the draw: %+v vs %+v", a, b)
	}
}

func TestManagerFallsBackToSimulation(t *testing.T) {
	// No model files configured: every prediction takes the simulated path
	// regardless of whether the ONNX runtime is present on the host.
	m := NewManager(Config{ImageSize: 224, SimulationSeed: 1}, nil)
	defer m.Close()

	out := m.Predict(make([]float32, 224*224*3), DomainBrain)
	if out.Err != nil {
		t.Fatalf("expected simulated outcome, got error: %v", out.Err)
	}
	if len(out.Distribution) != len(advisory.BrainClasses) {
		t.Fatalf("distribution keys = %d, want %d", len(out.Distribution), len(advisory.BrainClasses))
	}

	st := m.Status()
	if st.Brain.Loaded || st.Chest.Loaded {
		t.Fatalf("no models should be loaded: %+v", st)
	}
	if !st.Simulation {
		t.Fatalf("expected simulation mode to be reported")
	}
}

func TestManagerRejectsUnknownDomain(t *testing.T) {
	m := NewManager(Config{SimulationSeed: 1}, nil)
	defer m.Close()

	out := m.Predict(nil, Domain("spine"))
	if out.Err == nil {
		t.Fatalf("expected error for unknown domain")
	}
	if out.Label != "" || out.Distribution != nil {
		t.Fatalf("failed outcome must not carry prediction fields: %+v", out)
	}
}

func TestParseDomain(t *testing.T) {
	if d, err := ParseDomain("brain"); err != nil || d != DomainBrain {
		t.Fatalf("parse brain: %v %v", d, err)
	}
	if d, err := ParseDomain("chest"); err != nil || d != DomainChest {
		t.Fatalf("parse chest: %v %v", d, err)
	}
	if _, err := ParseDomain("auto"); err == nil {
		t.Fatalf("auto must be resolved upstream, not accepted here")
	}
}
