package classifier

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// Model wraps one ONNX session with pre-allocated input/output tensors.
// Sessions are loaded once and shared across requests; the mutex serializes
// forward passes because the tensors are reused between runs.
type Model struct {
	path    string
	classes []string
	size    int

	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]

	mu sync.Mutex
}

// LoadModel creates an ONNX session for a model file. The runtime environment
// must already be initialized (see Manager). The input layout is NHWC
// [1, size, size, 3] and the output is [1, len(classes)].
func LoadModel(path string, classes []string, size int, inputName, outputName string) (*Model, error) {
	if path == "" {
		return nil, fmt.Errorf("model path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("model file missing at %s: %w", path, err)
	}
	if len(classes) == 0 {
		return nil, fmt.Errorf("class list is empty")
	}
	if size <= 0 {
		return nil, fmt.Errorf("invalid input size %d", size)
	}

	inputShape := ort.NewShape(1, int64(size), int64(size), 3)
	input, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		return nil, fmt.Errorf("allocate input tensor: %w", err)
	}
	outputShape := ort.NewShape(1, int64(len(classes)))
	output, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		input.Destroy()
		return nil, fmt.Errorf("allocate output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		path,
		[]string{inputName},
		[]string{outputName},
		[]ort.Value{input},
		[]ort.Value{output},
		nil,
	)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, fmt.Errorf("create onnx session: %w", err)
	}

	return &Model{
		path:    path,
		classes: classes,
		size:    size,
		session: session,
		input:   input,
		output:  output,
	}, nil
}

// Predict runs one forward pass over a flattened HWC pixel array with values
// in [0,255]. Pixels are scaled to [0,1] here; the caller is responsible for
// resizing to the model resolution. Any runtime failure is reported through
// Outcome.Err, never as a panic.
func (m *Model) Predict(pixels []float32) Outcome {
	want := m.size * m.size * 3
	if len(pixels) != want {
		return Outcome{Err: fmt.Errorf("pixel buffer has %d values, model expects %d", len(pixels), want)}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	data := m.input.GetData()
	for i, p := range pixels {
		data[i] = p / 255.0
	}

	if err := m.session.Run(); err != nil {
		return Outcome{Err: fmt.Errorf("onnx run: %w", err)}
	}

	raw := m.output.GetData()
	if len(raw) < len(m.classes) {
		return Outcome{Err: fmt.Errorf("model returned %d scores for %d classes", len(raw), len(m.classes))}
	}

	scores := make([]float64, len(m.classes))
	for i := range m.classes {
		scores[i] = float64(raw[i]) * 100.0
	}
	return outcomeFromScores(m.classes, scores)
}

// Close releases the session and its tensors.
func (m *Model) Close() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session != nil {
		m.session.Destroy()
		m.session = nil
	}
	if m.input != nil {
		m.input.Destroy()
		m.input = nil
	}
	if m.output != nil {
		m.output.Destroy()
		m.output = nil
	}
}

// resolveSharedLibraryPath locates a platform-specific onnxruntime shared
// library. ONNXRUNTIME_SHARED_LIBRARY_PATH wins; otherwise common
// names/locations are probed.
func resolveSharedLibraryPath(modelsDir string) string {
	if env := strings.TrimSpace(os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH")); env != "" {
		return env
	}

	names := []string{
		"libonnxruntime.dylib",
		"onnxruntime.dylib",
		"libonnxruntime.so",
		"onnxruntime.so",
		"onnxruntime.dll",
	}
	dirs := []string{
		modelsDir,
		filepath.Join(modelsDir, "lib"),
		".",
		"/opt/homebrew/lib",
		"/usr/local/lib",
		"/usr/lib",
	}

	for _, dir := range dirs {
		for _, name := range names {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
		}
	}
	return ""
}
