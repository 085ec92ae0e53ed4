package scoring

import (
	"errors"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// Default tensor names written by skl2onnx and onnxmltools.
const (
	DefaultONNXInput  = "float_input"
	DefaultONNXOutput = "variable"
)

// ONNXOptions configures the onnxruntime-backed model.
type ONNXOptions struct {
	// Library is the path to the onnxruntime shared library. Empty uses the
	// platform default search path.
	Library string
	Input   string
	Output  string
	// Scaled marks graphs trained on standardized features.
	Scaled bool
}

var (
	ortMu    sync.Mutex
	ortUsers int
)

func acquireRuntime(library string) error {
	ortMu.Lock()
	defer ortMu.Unlock()
	if ortUsers == 0 && !ort.IsInitialized() {
		if library != "" {
			ort.SetSharedLibraryPath(library)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return fmt.Errorf("onnx: initialize runtime: %w", err)
		}
	}
	ortUsers++
	return nil
}

func releaseRuntime() error {
	ortMu.Lock()
	defer ortMu.Unlock()
	ortUsers--
	if ortUsers == 0 && ort.IsInitialized() {
		return ort.DestroyEnvironment()
	}
	return nil
}

// ONNXModel runs a regression graph with onnxruntime. The session is created
// once; each prediction allocates its own tensors, so concurrent calls are
// safe.
type ONNXModel struct {
	session     *ort.DynamicAdvancedSession
	numFeatures int
	closeOnce   sync.Once
	closeErr    error
}

// LoadONNX opens a model graph taking a [1, numFeatures] float32 tensor and
// producing a [1, 1] float32 tensor.
func LoadONNX(path string, numFeatures int, opts ONNXOptions) (*ONNXModel, error) {
	if path == "" {
		return nil, errors.New("onnx: model path is required")
	}
	if opts.Input == "" {
		opts.Input = DefaultONNXInput
	}
	if opts.Output == "" {
		opts.Output = DefaultONNXOutput
	}
	if err := acquireRuntime(opts.Library); err != nil {
		return nil, err
	}
	session, err := ort.NewDynamicAdvancedSession(path, []string{opts.Input}, []string{opts.Output}, nil)
	if err != nil {
		_ = releaseRuntime()
		return nil, fmt.Errorf("onnx: create session: %w", err)
	}
	return &ONNXModel{session: session, numFeatures: numFeatures}, nil
}

// Predict runs the session on one row and returns the first output value.
func (m *ONNXModel) Predict(x []float64) (float64, error) {
	if err := checkDimension(x, m.numFeatures); err != nil {
		return 0, err
	}
	data := make([]float32, len(x))
	for i, v := range x {
		data[i] = float32(v)
	}
	input, err := ort.NewTensor(ort.NewShape(1, int64(len(x))), data)
	if err != nil {
		return 0, fmt.Errorf("onnx: input tensor: %w", err)
	}
	defer input.Destroy()

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 1))
	if err != nil {
		return 0, fmt.Errorf("onnx: output tensor: %w", err)
	}
	defer output.Destroy()

	if err := m.session.Run([]ort.Value{input}, []ort.Value{output}); err != nil {
		return 0, fmt.Errorf("onnx: run: %w", err)
	}
	return float64(output.GetData()[0]), nil
}

// Close destroys the session and releases the runtime when no other model
// holds it.
func (m *ONNXModel) Close() error {
	m.closeOnce.Do(func() {
		if err := m.session.Destroy(); err != nil {
			m.closeErr = err
		}
		if err := releaseRuntime(); err != nil && m.closeErr == nil {
			m.closeErr = err
		}
	})
	return m.closeErr
}
