package classifier

import (
	"sync"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distmv"
)

// simulationAlpha is the symmetric Dirichlet concentration. A value below 1
// makes the draw peaky, so one class usually dominates the way a trained
// model's softmax output would.
const simulationAlpha = 0.5

// Simulator produces random but valid probability-like distributions for
// domains without a loaded model. Its outputs are non-diagnostic.
type Simulator struct {
	mu  sync.Mutex
	src rand.Source
}

// NewSimulator creates a simulator. A zero seed uses the current time.
func NewSimulator(seed uint64) *Simulator {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Simulator{src: rand.NewSource(seed)}
}

// Predict draws a Dirichlet distribution over the class set, scales it to
// percentages summing to 100, and picks the dominant class.
func (s *Simulator) Predict(classes []string) Outcome {
	s.mu.Lock()
	dir := distmv.NewDirichlet(alphaVector(len(classes)), s.src)
	probs := dir.Rand(nil)
	s.mu.Unlock()

	scores := make([]float64, len(classes))
	for i, p := range probs {
		scores[i] = p * 100.0
	}
	return outcomeFromScores(classes, scores)
}

func alphaVector(n int) []float64 {
	alpha := make([]float64, n)
	for i := range alpha {
		alpha[i] = simulationAlpha
	}
	return alpha
}
