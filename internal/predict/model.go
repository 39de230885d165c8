// Package predict runs a pretrained outcome classifier over a feature table.
package predict

import (
	"fmt"
	"math"
	"os"

	json "github.com/goccy/go-json"
	"gonum.org/v1/gonum/mat"
)

// FormatLogisticV1 identifies the model artifact layout LoadModel understands
const FormatLogisticV1 = "teemo-logistic/v1"

const defaultThreshold = 0.5

// Classifier is a trained binary outcome model. Rows passed to Predict and
// PredictProba are laid out in Features() order.
type Classifier interface {
	Features() []string
	Predict(x [][]float64) ([]int, error)
	PredictProba(x [][]float64) ([][2]float64, error)
}

// modelFile is the on-disk artifact produced by the training job
type modelFile struct {
	Format       string    `json:"format"`
	Features     []string  `json:"features"`
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
	Threshold    float64   `json:"threshold,omitempty"`
}

// LogisticModel is a fitted logistic regression
type LogisticModel struct {
	features  []string
	coef      *mat.VecDense
	intercept float64
	threshold float64
}

// NewLogisticModel builds a model from fitted parameters. A zero threshold means 0.5.
func NewLogisticModel(features []string, coefficients []float64, intercept, threshold float64) (*LogisticModel, error) {
	if len(features) == 0 {
		return nil, fmt.Errorf("model has no features")
	}
	if len(features) != len(coefficients) {
		return nil, fmt.Errorf("model has %d features but %d coefficients", len(features), len(coefficients))
	}
	if threshold == 0 {
		threshold = defaultThreshold
	}
	if threshold <= 0 || threshold >= 1 {
		return nil, fmt.Errorf("threshold %v outside (0, 1)", threshold)
	}

	return &LogisticModel{
		features:  append([]string(nil), features...),
		coef:      mat.NewVecDense(len(coefficients), append([]float64(nil), coefficients...)),
		intercept: intercept,
		threshold: threshold,
	}, nil
}

// LoadModel reads a model artifact from path. Every failure is a *ModelLoadError.
func LoadModel(path string) (*LogisticModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ModelLoadError{Path: path, Err: err}
	}

	var f modelFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, &ModelLoadError{Path: path, Err: fmt.Errorf("decode: %w", err)}
	}
	if f.Format != FormatLogisticV1 {
		return nil, &ModelLoadError{Path: path, Err: fmt.Errorf("unsupported format %q", f.Format)}
	}

	m, err := NewLogisticModel(f.Features, f.Coefficients, f.Intercept, f.Threshold)
	if err != nil {
		return nil, &ModelLoadError{Path: path, Err: err}
	}
	return m, nil
}

// Features returns the feature columns the model was trained on
func (m *LogisticModel) Features() []string {
	return append([]string(nil), m.features...)
}

// Threshold returns the win probability at and above which a row is predicted a win
func (m *LogisticModel) Threshold() float64 {
	return m.threshold
}

// PredictProba returns [P(loss), P(win)] per row
func (m *LogisticModel) PredictProba(x [][]float64) ([][2]float64, error) {
	p, err := m.winProbabilities(x)
	if err != nil {
		return nil, err
	}
	out := make([][2]float64, len(p))
	for i, v := range p {
		out[i] = [2]float64{1 - v, v}
	}
	return out, nil
}

// Predict returns 1 for rows whose win probability reaches the threshold, else 0
func (m *LogisticModel) Predict(x [][]float64) ([]int, error) {
	p, err := m.winProbabilities(x)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(p))
	for i, v := range p {
		if v >= m.threshold {
			out[i] = 1
		}
	}
	return out, nil
}

func (m *LogisticModel) winProbabilities(x [][]float64) ([]float64, error) {
	n, d := len(x), m.coef.Len()
	if n == 0 {
		return []float64{}, nil
	}

	data := make([]float64, 0, n*d)
	for i, row := range x {
		if len(row) != d {
			return nil, fmt.Errorf("row %d has %d values, model expects %d", i, len(row), d)
		}
		data = append(data, row...)
	}

	var z mat.VecDense
	z.MulVec(mat.NewDense(n, d, data), m.coef)

	out := make([]float64, n)
	for i := range out {
		out[i] = sigmoid(z.AtVec(i) + m.intercept)
	}
	return out, nil
}

func sigmoid(v float64) float64 {
	return 1 / (1 + math.Exp(-v))
}
