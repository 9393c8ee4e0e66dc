package spectrum

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ModelOutput holds the two heads of the network for a single-item batch.
type ModelOutput struct {
	Scores     []float32
	Regression []float32
}

// Model exposes the minimal surface required by the inference adapter.
type Model interface {
	Predict(ctx context.Context, input []float32, shape []int64) (ModelOutput, error)
	ModelID() string
	Close() error
}

var ortEnvMu sync.Mutex

// initRuntime loads the shared library and creates the process-wide ORT environment once.
func initRuntime(libPath string) error {
	ortEnvMu.Lock()
	defer ortEnvMu.Unlock()
	if ort.IsInitialized() {
		return nil
	}
	if libPath != "" {
		ort.SetSharedLibraryPath(libPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("initialize onnxruntime: %w", err)
	}
	return nil
}

// ShutdownRuntime releases the ORT environment. Call once at process exit.
func ShutdownRuntime() error {
	ortEnvMu.Lock()
	defer ortEnvMu.Unlock()
	if !ort.IsInitialized() {
		return nil
	}
	return ort.DestroyEnvironment()
}

// OrtModel runs an ONNX export of the classification/regression network.
type OrtModel struct {
	mu      sync.Mutex
	session *ort.DynamicAdvancedSession
	cfg     ModelConfig
	heads   int
}

// NewOrtModel initializes the runtime and opens an inference session.
func NewOrtModel(cfg ModelConfig) (*OrtModel, error) {
	if cfg.ModelPath == "" {
		return nil, errors.New("model path is empty")
	}
	if cfg.ModelID == "" {
		cfg.ModelID = filepath.Base(cfg.ModelPath)
	}
	if err := initRuntime(cfg.OrtLibrary); err != nil {
		return nil, err
	}
	inputName, outputNames, err := resolveTensorNames(cfg)
	if err != nil {
		return nil, err
	}
	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath, []string{inputName}, outputNames, nil)
	if err != nil {
		return nil, fmt.Errorf("open model %s: %w", cfg.ModelPath, err)
	}
	return &OrtModel{
		session: session,
		cfg:     cfg,
		heads:   CatalogSize,
	}, nil
}

// resolveTensorNames fills in tensor names missing from the configuration
// from the model's own metadata. The first output is taken as the score head.
func resolveTensorNames(cfg ModelConfig) (string, []string, error) {
	inputName := cfg.InputName
	scoreName := cfg.ScoreOutput
	activityName := cfg.ActivityOutput
	if inputName != "" && scoreName != "" && activityName != "" {
		return inputName, []string{scoreName, activityName}, nil
	}
	ins, outs, err := ort.GetInputOutputInfo(cfg.ModelPath)
	if err != nil {
		return "", nil, fmt.Errorf("inspect model %s: %w", cfg.ModelPath, err)
	}
	if inputName == "" {
		if len(ins) == 0 {
			return "", nil, fmt.Errorf("model %s declares no inputs", cfg.ModelPath)
		}
		inputName = ins[0].Name
	}
	if len(outs) < 2 && (scoreName == "" || activityName == "") {
		return "", nil, fmt.Errorf("model %s declares %d outputs, want 2", cfg.ModelPath, len(outs))
	}
	if scoreName == "" {
		scoreName = outs[0].Name
	}
	if activityName == "" {
		activityName = outs[1].Name
		if activityName == scoreName {
			activityName = outs[0].Name
		}
	}
	return inputName, []string{scoreName, activityName}, nil
}

// ModelID returns the identifier reported with predictions.
func (m *OrtModel) ModelID() string {
	return m.cfg.ModelID
}

// Predict runs one forward pass.
func (m *OrtModel) Predict(ctx context.Context, input []float32, shape []int64) (ModelOutput, error) {
	if m == nil {
		return ModelOutput{}, ErrModelNotLoaded
	}
	if err := ctx.Err(); err != nil {
		return ModelOutput{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return ModelOutput{}, ErrModelNotLoaded
	}

	inTensor, err := ort.NewTensor(ort.NewShape(shape...), input)
	if err != nil {
		return ModelOutput{}, fmt.Errorf("create input tensor: %w", err)
	}
	defer inTensor.Destroy()

	outShape := ort.NewShape(1, int64(m.heads))
	scores, err := ort.NewEmptyTensor[float32](outShape)
	if err != nil {
		return ModelOutput{}, fmt.Errorf("create score tensor: %w", err)
	}
	defer scores.Destroy()
	regression, err := ort.NewEmptyTensor[float32](outShape)
	if err != nil {
		return ModelOutput{}, fmt.Errorf("create regression tensor: %w", err)
	}
	defer regression.Destroy()

	if err := m.session.Run([]ort.Value{inTensor}, []ort.Value{scores, regression}); err != nil {
		return ModelOutput{}, fmt.Errorf("run model: %w", err)
	}
	return ModelOutput{
		Scores:     append([]float32(nil), scores.GetData()...),
		Regression: append([]float32(nil), regression.GetData()...),
	}, nil
}

// Close releases the ORT session.
func (m *OrtModel) Close() error {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil
	}
	err := m.session.Destroy()
	m.session = nil
	return err
}
