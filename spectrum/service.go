package spectrum

import (
	"context"
	"log"
	"path/filepath"
	"sync"
)

// Service remembers the last decoded spectrum and simulation and runs the
// model on demand. A nil model puts the service in decode-only mode.
type Service struct {
	model Model

	cfgMu sync.RWMutex
	cfg   Config

	dataMu     sync.RWMutex
	spectrum   *Spectrum
	simulation *SimulationTable

	logger *log.Logger
}

// NewService constructs a service with the given model and configuration.
func NewService(model Model, cfg Config, logger *log.Logger) *Service {
	cfg.ApplyDefaults()
	s := &Service{
		model:  model,
		cfg:    cfg,
		logger: logger,
	}
	if model == nil {
		s.logf("No model loaded; prediction disabled")
	} else {
		s.logf("Model %s ready", model.ModelID())
	}
	return s
}

// Close releases model resources.
func (s *Service) Close() error {
	if s.model != nil {
		return s.model.Close()
	}
	return nil
}

// HasModel reports whether predictions can run.
func (s *Service) HasModel() bool {
	return s.model != nil
}

// Config returns a copy of the current configuration.
func (s *Service) Config() Config {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.cfg.Clone()
}

// UpdateConfig replaces the configuration.
func (s *Service) UpdateConfig(cfg Config) {
	cfg.ApplyDefaults()
	s.cfgMu.Lock()
	s.cfg = cfg
	s.cfgMu.Unlock()
}

// LoadSpectrum decodes an IEC file and makes it the current spectrum.
func (s *Service) LoadSpectrum(path string) (Spectrum, error) {
	spec, err := ParseIECFile(path)
	if err != nil {
		return Spectrum{}, err
	}
	s.dataMu.Lock()
	s.spectrum = &spec
	s.dataMu.Unlock()

	s.cfgMu.Lock()
	s.cfg.LastSpectrumDir = filepath.Dir(path)
	s.cfgMu.Unlock()

	s.logf("Loaded spectrum %s (%d channels)", filepath.Base(path), spec.Len())
	return spec, nil
}

// LoadSimulation decodes a simulation file and makes it the current reference.
func (s *Service) LoadSimulation(path string) (SimulationTable, error) {
	cfg := s.Config()
	table, err := ParseSimulationFileWithOptions(path, cfg.SimulationOptions())
	if err != nil {
		return SimulationTable{}, err
	}
	s.dataMu.Lock()
	s.simulation = &table
	s.dataMu.Unlock()
	s.logf("Loaded simulation %s (%d bins, %.3g histories)", filepath.Base(path), table.Len(), table.Particles)
	return table, nil
}

// Spectrum returns the current spectrum.
func (s *Service) Spectrum() (Spectrum, bool) {
	s.dataMu.RLock()
	defer s.dataMu.RUnlock()
	if s.spectrum == nil {
		return Spectrum{}, false
	}
	return *s.spectrum, true
}

// Simulation returns the current simulation reference.
func (s *Service) Simulation() (SimulationTable, bool) {
	s.dataMu.RLock()
	defer s.dataMu.RUnlock()
	if s.simulation == nil {
		return SimulationTable{}, false
	}
	return *s.simulation, true
}

// Predict runs the model on the current spectrum.
func (s *Service) Predict(ctx context.Context) (PredictionTable, error) {
	spec, ok := s.Spectrum()
	if !ok {
		return PredictionTable{}, ErrNoSpectrum
	}
	return s.PredictCounts(ctx, spec.Counts())
}

// PredictCounts runs the model on an arbitrary counts vector.
func (s *Service) PredictCounts(ctx context.Context, counts []float64) (PredictionTable, error) {
	table, err := Predict(ctx, s.model, counts)
	if err != nil {
		return PredictionTable{}, err
	}
	if best, ok := table.Best(); ok {
		s.logf("Prediction done: %s %.2f%%", best.Label, best.Score)
	}
	return table, nil
}

// Summary describes the current spectrum.
func (s *Service) Summary() (Summary, error) {
	spec, ok := s.Spectrum()
	if !ok {
		return Summary{}, ErrNoSpectrum
	}
	return Summarize(spec.Counts())
}

// CompareWithSimulation returns the cosine similarity between the current
// spectrum and the simulation reference.
func (s *Service) CompareWithSimulation() (float64, error) {
	spec, ok := s.Spectrum()
	if !ok {
		return 0, ErrNoSpectrum
	}
	sim, ok := s.Simulation()
	if !ok {
		return 0, ErrNoSimulation
	}
	return Similarity(spec.Counts(), sim.ReferenceCounts(sim.Len())), nil
}

func (s *Service) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}
