package predict

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teemo/internal/features"
)

// stubClassifier predicts a win whenever kills exceed deaths
type stubClassifier struct {
	cols []string
	err  error
	// drop the last prediction or probability pair
	shortLabels, shortProbs bool
}

func newStub() *stubClassifier {
	return &stubClassifier{cols: features.FeatureColumns()}
}

func (s *stubClassifier) Features() []string { return s.cols }

func (s *stubClassifier) Predict(x [][]float64) ([]int, error) {
	out, err := s.predict(x)
	if err != nil || !s.shortLabels {
		return out, err
	}
	return out[:len(out)-1], nil
}

func (s *stubClassifier) predict(x [][]float64) ([]int, error) {
	if s.err != nil {
		return nil, s.err
	}
	kills, _ := features.Index("kills")
	deaths, _ := features.Index("deaths")
	out := make([]int, len(x))
	for i, row := range x {
		// feature rows are shifted one to the left of the canonical schema
		if row[kills-1] > row[deaths-1] {
			out[i] = 1
		}
	}
	return out, nil
}

func (s *stubClassifier) PredictProba(x [][]float64) ([][2]float64, error) {
	preds, err := s.predict(x)
	if err != nil {
		return nil, err
	}
	out := make([][2]float64, len(preds))
	for i, p := range preds {
		out[i] = [2]float64{1 - float64(p), float64(p)}
	}
	if s.shortProbs {
		out = out[:len(out)-1]
	}
	return out, nil
}

func testTable() features.Table {
	return features.Normalize([]features.Stats{
		{"win": true, "kills": 9, "deaths": 2},
		{"win": false, "kills": 1, "deaths": 7},
		{"win": true, "kills": 5, "deaths": 3},
	})
}

func TestInvoke_StubClassifier(t *testing.T) {
	result, err := Invoke(newStub(), testTable())

	require.NoError(t, err)
	assert.Equal(t, []int{1, 0, 1}, result.Labels)
	assert.Equal(t, [][2]float64{{0, 1}, {1, 0}, {0, 1}}, result.Probabilities)
	assert.Equal(t, 1.0, result.Score)
}

func TestInvoke_ScoreAgainstOwnLabels(t *testing.T) {
	table := features.Normalize([]features.Stats{
		{"win": false, "kills": 9, "deaths": 2},
		{"win": false, "kills": 1, "deaths": 7},
	})

	result, err := Invoke(newStub(), table)

	require.NoError(t, err)
	assert.Equal(t, 0.5, result.Score)
}

func TestInvoke_SchemaMismatch(t *testing.T) {
	t.Run("missing feature", func(t *testing.T) {
		stub := newStub()
		stub.cols = stub.cols[:len(stub.cols)-1]

		_, err := Invoke(stub, testTable())

		var mismatch *SchemaMismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Len(t, mismatch.Got, features.NumColumns-1)
		assert.Contains(t, err.Error(), "expects 35 features")
	})

	t.Run("reordered features", func(t *testing.T) {
		stub := newStub()
		stub.cols[0], stub.cols[1] = stub.cols[1], stub.cols[0]

		_, err := Invoke(stub, testTable())

		var mismatch *SchemaMismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Contains(t, err.Error(), "column 0")
	})
}

func TestInvoke_ClassifierError(t *testing.T) {
	stub := newStub()
	stub.err = errors.New("boom")

	_, err := Invoke(stub, testTable())

	require.Error(t, err)
	assert.ErrorIs(t, err, stub.err)
}

func TestInvoke_ShortOutput(t *testing.T) {
	t.Run("labels", func(t *testing.T) {
		stub := newStub()
		stub.shortLabels = true

		_, err := Invoke(stub, testTable())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "2 labels for 3 rows")
	})

	t.Run("probabilities", func(t *testing.T) {
		stub := newStub()
		stub.shortProbs = true

		_, err := Invoke(stub, testTable())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "2 probability pairs for 3 rows")
	})
}

func TestInvoke_NilModel(t *testing.T) {
	_, err := Invoke(nil, testTable())
	assert.Error(t, err)
}

func writeModel(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadModel_MissingFile(t *testing.T) {
	_, err := LoadModel(filepath.Join(t.TempDir(), "nope.json"))

	var loadErr *ModelLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadModel_Incompatible(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `\x80\x04pickle`},
		{"wrong format", `{"format":"sklearn-pickle","features":["kills"],"coefficients":[1]}`},
		{"no features", `{"format":"teemo-logistic/v1","features":[],"coefficients":[]}`},
		{"length mismatch", `{"format":"teemo-logistic/v1","features":["kills","deaths"],"coefficients":[1]}`},
		{"bad threshold", `{"format":"teemo-logistic/v1","features":["kills"],"coefficients":[1],"threshold":1.5}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadModel(writeModel(t, tt.body))

			var loadErr *ModelLoadError
			assert.ErrorAs(t, err, &loadErr)
		})
	}
}

func TestLoadModel_Valid(t *testing.T) {
	path := writeModel(t, `{"format":"teemo-logistic/v1","features":["kills","deaths"],"coefficients":[0.5,-0.5],"intercept":0}`)

	m, err := LoadModel(path)

	require.NoError(t, err)
	assert.Equal(t, []string{"kills", "deaths"}, m.Features())
	assert.Equal(t, 0.5, m.Threshold())
}

func TestLogisticModel_Maths(t *testing.T) {
	m, err := NewLogisticModel([]string{"kills", "deaths"}, []float64{1, -1}, 0.5, 0)
	require.NoError(t, err)

	x := [][]float64{{3, 1}, {0, 2}, {1, 1.5}}
	probs, err := m.PredictProba(x)
	require.NoError(t, err)

	// z = kills - deaths + 0.5
	want := []float64{1 / (1 + math.Exp(-2.5)), 1 / (1 + math.Exp(1.5)), 0.5}
	for i, p := range probs {
		assert.InDelta(t, want[i], p[1], 1e-12)
		assert.InDelta(t, 1.0, p[0]+p[1], 1e-12)
	}

	preds, err := m.Predict(x)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0, 1}, preds, "a probability equal to the threshold is a win")
}

func TestLogisticModel_RowWidth(t *testing.T) {
	m, err := NewLogisticModel([]string{"kills", "deaths"}, []float64{1, -1}, 0, 0)
	require.NoError(t, err)

	_, err = m.Predict([][]float64{{1, 2, 3}})
	assert.Error(t, err)

	preds, err := m.Predict(nil)
	require.NoError(t, err)
	assert.Empty(t, preds)
}

func TestLogisticModel_OverTable(t *testing.T) {
	cols := features.FeatureColumns()
	coef := make([]float64, len(cols))
	kills, _ := features.Index("kills")
	deaths, _ := features.Index("deaths")
	coef[kills-1] = 1
	coef[deaths-1] = -1

	m, err := NewLogisticModel(cols, coef, 0, 0)
	require.NoError(t, err)

	result, err := Invoke(m, testTable())

	require.NoError(t, err)
	assert.Equal(t, []int{1, 0, 1}, result.Labels)
	assert.Equal(t, 1.0, result.Score)
	assert.Greater(t, result.Probabilities[0][1], 0.99)
}

func TestAccuracy(t *testing.T) {
	assert.Equal(t, 0.0, Accuracy(nil, nil))
	assert.Equal(t, 0.75, Accuracy([]int{1, 0, 1, 1}, []float64{1, 0, 0, 1}))
}
