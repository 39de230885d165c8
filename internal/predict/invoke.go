package predict

import (
	"errors"
	"fmt"
	"slices"

	"teemo/internal/features"
)

// ModelLoadError reports a model artifact that is missing, unreadable or incompatible
type ModelLoadError struct {
	Path string
	Err  error
}

func (e *ModelLoadError) Error() string {
	return fmt.Sprintf("load model %s: %v", e.Path, e.Err)
}

func (e *ModelLoadError) Unwrap() error {
	return e.Err
}

// SchemaMismatchError reports a feature table whose columns differ from the model's
type SchemaMismatchError struct {
	Expected []string
	Got      []string
}

func (e *SchemaMismatchError) Error() string {
	if len(e.Expected) != len(e.Got) {
		return fmt.Sprintf("schema mismatch: model expects %d features, table has %d", len(e.Expected), len(e.Got))
	}
	for i := range e.Expected {
		if e.Expected[i] != e.Got[i] {
			return fmt.Sprintf("schema mismatch at column %d: model expects %q, table has %q", i, e.Expected[i], e.Got[i])
		}
	}
	return "schema mismatch"
}

// Result is the outcome of running a classifier over a table
type Result struct {
	Labels        []int
	Probabilities [][2]float64
	// Score is the accuracy against the table's own win column. It is a self-check,
	// not a held-out evaluation.
	Score float64
}

// Invoke splits t into labels and features and runs model over the features
func Invoke(model Classifier, t features.Table) (*Result, error) {
	if model == nil {
		return nil, errors.New("no model")
	}

	expected, got := model.Features(), t.FeatureColumns()
	if !slices.Equal(expected, got) {
		return nil, &SchemaMismatchError{Expected: expected, Got: got}
	}

	x := t.Features()
	labels, err := model.Predict(x)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	probs, err := model.PredictProba(x)
	if err != nil {
		return nil, fmt.Errorf("predict probabilities: %w", err)
	}
	if len(labels) != len(x) {
		return nil, fmt.Errorf("predict: model returned %d labels for %d rows", len(labels), len(x))
	}
	if len(probs) != len(x) {
		return nil, fmt.Errorf("predict probabilities: model returned %d probability pairs for %d rows", len(probs), len(x))
	}

	return &Result{
		Labels:        labels,
		Probabilities: probs,
		Score:         Accuracy(labels, t.Labels()),
	}, nil
}

// Accuracy returns the fraction of predictions equal to the truth. It is 0 when there
// is nothing to compare.
func Accuracy(predicted []int, truth []float64) float64 {
	n := min(len(predicted), len(truth))
	if n == 0 {
		return 0
	}
	correct := 0
	for i := 0; i < n; i++ {
		if float64(predicted[i]) == truth[i] {
			correct++
		}
	}
	return float64(correct) / float64(n)
}
