package classifier

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/mediscan-ai/mediscan/internal/advisory"
)

// Config carries the model locations and tensor layout for the Manager.
type Config struct {
	ModelsDir      string
	BrainModelPath string
	ChestModelPath string
	ImageSize      int
	InputName      string
	OutputName     string
	SimulationSeed uint64
}

// DomainStatus describes one domain's model availability.
type DomainStatus struct {
	Path    string   `json:"path"`
	Exists  bool     `json:"exists"`
	Loaded  bool     `json:"loaded"`
	Classes []string `json:"classes"`
}

// Status is the health/info view of the Manager.
type Status struct {
	RuntimeAvailable bool         `json:"runtime_available"`
	Simulation       bool         `json:"simulation"`
	Brain            DomainStatus `json:"brain"`
	Chest            DomainStatus `json:"chest"`
}

// Manager owns the lazily-loaded, swappable model handles. Predictions hold a
// read lock for the duration of the forward pass; Reload takes the write lock,
// so it observes no in-flight runs and may destroy the old sessions after the
// swap. Concurrent analyses across a reload boundary use either the old or the
// new handle, which is acceptable.
type Manager struct {
	cfg Config
	log *logrus.Logger
	sim *Simulator

	loadOnce sync.Once

	mu        sync.RWMutex
	runtimeOK bool
	brain     *Model
	chest     *Model
}

// NewManager creates a Manager. Models are loaded lazily on first use (or
// explicitly via Reload).
func NewManager(cfg Config, log *logrus.Logger) *Manager {
	if cfg.ImageSize <= 0 {
		cfg.ImageSize = 224
	}
	if cfg.InputName == "" {
		cfg.InputName = "input"
	}
	if cfg.OutputName == "" {
		cfg.OutputName = "output"
	}
	if log == nil {
		log = logrus.New()
	}
	return &Manager{
		cfg: cfg,
		log: log,
		sim: NewSimulator(cfg.SimulationSeed),
	}
}

// Predict classifies an already-normalized pixel array for a domain. Missing
// runtime or model falls back to simulation mode; failures executing a loaded
// model surface through Outcome.Err.
func (m *Manager) Predict(pixels []float32, domain Domain) Outcome {
	classes := advisory.ClassesFor(string(domain))
	if classes == nil {
		return Outcome{Err: errUnknownDomain(domain)}
	}

	m.ensureLoaded()

	m.mu.RLock()
	defer m.mu.RUnlock()

	model := m.handleLocked(domain)
	if model == nil {
		return m.sim.Predict(classes)
	}
	return model.Predict(pixels)
}

// Reload replaces the shared model handles from disk. The operation is
// serialized; callers observe either the old or the new set, never a mix.
func (m *Manager) Reload() error {
	m.ensureLoaded()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.initRuntimeLocked()
	oldBrain, oldChest := m.brain, m.chest
	m.brain = m.loadDomainLocked(m.cfg.BrainModelPath, advisory.BrainClasses, DomainBrain)
	m.chest = m.loadDomainLocked(m.cfg.ChestModelPath, advisory.ChestClasses, DomainChest)
	oldBrain.Close()
	oldChest.Close()
	return nil
}

// Status reports runtime and per-domain model availability.
func (m *Manager) Status() Status {
	m.ensureLoaded()

	m.mu.RLock()
	defer m.mu.RUnlock()

	return Status{
		RuntimeAvailable: m.runtimeOK,
		Simulation:       m.brain == nil && m.chest == nil,
		Brain: DomainStatus{
			Path:    m.cfg.BrainModelPath,
			Exists:  fileExists(m.cfg.BrainModelPath),
			Loaded:  m.brain != nil,
			Classes: advisory.BrainClasses,
		},
		Chest: DomainStatus{
			Path:    m.cfg.ChestModelPath,
			Exists:  fileExists(m.cfg.ChestModelPath),
			Loaded:  m.chest != nil,
			Classes: advisory.ChestClasses,
		},
	}
}

// Close releases all loaded sessions.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.brain.Close()
	m.chest.Close()
	m.brain, m.chest = nil, nil
}

func (m *Manager) ensureLoaded() {
	m.loadOnce.Do(func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.initRuntimeLocked()
		m.brain = m.loadDomainLocked(m.cfg.BrainModelPath, advisory.BrainClasses, DomainBrain)
		m.chest = m.loadDomainLocked(m.cfg.ChestModelPath, advisory.ChestClasses, DomainChest)
	})
}

func (m *Manager) initRuntimeLocked() {
	if m.runtimeOK {
		return
	}
	libPath := resolveSharedLibraryPath(m.cfg.ModelsDir)
	if libPath == "" {
		m.log.Warn("onnxruntime shared library not found; running in simulation mode")
		return
	}
	ort.SetSharedLibraryPath(libPath)
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			m.log.WithError(err).Warn("initialize onnxruntime failed; running in simulation mode")
			return
		}
	}
	m.runtimeOK = true
}

func (m *Manager) loadDomainLocked(path string, classes []string, domain Domain) *Model {
	if !m.runtimeOK || path == "" {
		return nil
	}
	if !fileExists(path) {
		m.log.WithFields(logrus.Fields{"domain": domain, "path": path}).
			Warn("model file not found; domain will use simulation mode")
		return nil
	}
	model, err := LoadModel(path, classes, m.cfg.ImageSize, m.cfg.InputName, m.cfg.OutputName)
	if err != nil {
		m.log.WithError(err).WithField("domain", domain).
			Error("load model failed; domain will use simulation mode")
		return nil
	}
	m.log.WithFields(logrus.Fields{"domain": domain, "path": path}).Info("model loaded")
	return model
}

func (m *Manager) handleLocked(domain Domain) *Model {
	switch domain {
	case DomainBrain:
		return m.brain
	case DomainChest:
		return m.chest
	}
	return nil
}

func errUnknownDomain(domain Domain) error {
	_, err := ParseDomain(string(domain))
	return err
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
