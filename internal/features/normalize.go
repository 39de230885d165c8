package features

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// Stats is one participant's raw statistics record. Keys and value types vary by
// API version.
type Stats map[string]any

// Row is one observation over the canonical schema
type Row [NumColumns]float64

// Get returns the value of a canonical column
func (r Row) Get(column string) float64 {
	if i, ok := columnIndex[column]; ok {
		return r[i]
	}
	return 0
}

// Table is the model-ready feature table. Columns is always the full canonical
// schema. Missing lists canonical columns that no input row carried under any
// source name; those are present in Rows as zeros.
type Table struct {
	Columns []string
	Rows    []Row
	Missing []string
}

// Normalize lowercases keys, renames API fields to canonical names, drops unknown
// columns and projects every row onto the canonical order. Absent and null values
// become zero. Normalize(t.Stats()) yields the same columns and rows as t.
func Normalize(stats []Stats) Table {
	t := Table{
		Columns: append([]string(nil), Columns[:]...),
		Rows:    make([]Row, 0, len(stats)),
	}

	var seen [NumColumns]bool
	for _, s := range stats {
		row, present := normalizeRow(s)
		for i, ok := range present {
			seen[i] = seen[i] || ok
		}
		t.Rows = append(t.Rows, row)
	}

	for i, ok := range seen {
		if !ok {
			t.Missing = append(t.Missing, Columns[i])
		}
	}
	return t
}

// normalizeRow maps one record onto the schema and reports which columns it carried
func normalizeRow(s Stats) (Row, [NumColumns]bool) {
	var row Row
	var present, direct [NumColumns]bool

	// Sorted so that keys differing only in case resolve the same way every run
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		name := strings.ToLower(k)
		renamed := false
		if canonical, ok := Renames[name]; ok {
			name = canonical
			renamed = true
		}

		i, ok := columnIndex[name]
		if !ok {
			continue
		}
		// A field already under its canonical name wins over a renamed source field
		if renamed && direct[i] {
			continue
		}
		if !renamed {
			direct[i] = true
		}
		row[i] = toFloat(s[k])
		present[i] = true
	}
	return row, present
}

// toFloat coerces a decoded JSON value. Booleans become 0/1; anything that is not
// numeric becomes 0.
func toFloat(v any) float64 {
	switch x := v.(type) {
	case nil:
		return 0
	case float64:
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case uint64:
		return float64(x)
	case bool:
		if x {
			return 1
		}
		return 0
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0
		}
		return f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// Stats converts the table back into records keyed by canonical column
func (t Table) Stats() []Stats {
	out := make([]Stats, 0, len(t.Rows))
	for _, row := range t.Rows {
		s := make(Stats, NumColumns)
		for i, c := range Columns {
			s[c] = row[i]
		}
		out = append(out, s)
	}
	return out
}

// Column returns every row's value for a canonical column
func (t Table) Column(name string) []float64 {
	i, ok := columnIndex[name]
	if !ok {
		return nil
	}
	out := make([]float64, len(t.Rows))
	for r, row := range t.Rows {
		out[r] = row[i]
	}
	return out
}

// Labels returns the label column
func (t Table) Labels() []float64 {
	return t.Column(Label)
}

// FeatureColumns returns the table's columns without the label, in table order
func (t Table) FeatureColumns() []string {
	out := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		if c != Label {
			out = append(out, c)
		}
	}
	return out
}

// Features returns the feature matrix (label dropped) in column order
func (t Table) Features() [][]float64 {
	labelIdx := columnIndex[Label]
	out := make([][]float64, len(t.Rows))
	for r, row := range t.Rows {
		x := make([]float64, 0, NumColumns-1)
		for i, v := range row {
			if i != labelIdx {
				x = append(x, v)
			}
		}
		out[r] = x
	}
	return out
}
