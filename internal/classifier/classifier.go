// Package classifier wraps the per-domain image classification models behind
// a uniform predict contract. When no trained model (or no ONNX runtime) is
// available for a domain, prediction falls back to a simulation mode that
// produces a plausible but non-diagnostic random distribution.
package classifier

import "fmt"

// Domain selects which anatomical classifier family applies.
type Domain string

const (
	DomainBrain Domain = "brain"
	DomainChest Domain = "chest"
)

// ParseDomain validates a caller-supplied domain name. "auto" is resolved
// upstream by the analysis pipeline and is not a valid domain here.
func ParseDomain(s string) (Domain, error) {
	switch Domain(s) {
	case DomainBrain, DomainChest:
		return Domain(s), nil
	}
	return "", fmt.Errorf("unknown domain %q", s)
}

// Outcome is the result of one prediction. Exactly one of
// (Label/Confidence/Distribution) or Err is populated.
type Outcome struct {
	Label        string
	Confidence   float64
	Distribution map[string]float64
	Err          error
}

// argmax returns the index of the largest score. The scan uses a strict >
// comparison so ties resolve to the earlier index in the class ordering.
func argmax(scores []float64) int {
	best := 0
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[best] {
			best = i
		}
	}
	return best
}

// outcomeFromScores turns per-class percentage scores into an Outcome using
// the shared argmax tie-break.
func outcomeFromScores(classes []string, scores []float64) Outcome {
	dist := make(map[string]float64, len(classes))
	for i, cls := range classes {
		dist[cls] = scores[i]
	}
	best := argmax(scores)
	return Outcome{
		Label:        classes[best],
		Confidence:   scores[best],
		Distribution: dist,
	}
}
