// Package profile computes exploratory statistics for a dataset and renders
// them as an HTML report.
package profile

import (
	"time"

	"github.com/brizzai/auto-eda/internal/dataset"
)

// Report modes
const (
	ModeAnalyze = "analyze"
	ModeCompare = "compare"
)

const (
	histogramBins = 10
	topValues     = 5
)

// Report is the outcome of Analyze or Compare
type Report struct {
	Title       string      `yaml:"title"`
	Mode        string      `yaml:"mode"`
	GeneratedAt time.Time   `yaml:"generated_at"`
	Datasets    []*Summary  `yaml:"datasets"`
	Comparison  *Comparison `yaml:"comparison,omitempty"`
}

// Summary describes one dataset
type Summary struct {
	Label         string               `yaml:"label"`
	Rows          int                  `yaml:"rows"`
	Columns       int                  `yaml:"columns"`
	DuplicateRows int                  `yaml:"duplicate_rows"`
	MissingCells  int                  `yaml:"missing_cells"`
	MissingPct    float64              `yaml:"missing_pct"`
	MemoryBytes   int64                `yaml:"memory_bytes"`
	KindCounts    map[dataset.Kind]int `yaml:"kind_counts"`
	Variables     []*Variable          `yaml:"variables"`
}

// Variable describes one column
type Variable struct {
	Name        string        `yaml:"name"`
	Kind        dataset.Kind  `yaml:"kind"`
	Count       int           `yaml:"count"`
	Missing     int           `yaml:"missing"`
	MissingPct  float64       `yaml:"missing_pct"`
	Distinct    int           `yaml:"distinct"`
	DistinctPct float64       `yaml:"distinct_pct"`
	Numeric     *NumericStats `yaml:"numeric,omitempty"`
	Top         []ValueCount  `yaml:"top"`
}

// NumericStats holds the summary of a numeric column's present values
type NumericStats struct {
	Min       float64 `yaml:"min"`
	Max       float64 `yaml:"max"`
	Mean      float64 `yaml:"mean"`
	Std       float64 `yaml:"std"`
	Q1        float64 `yaml:"q1"`
	Median    float64 `yaml:"median"`
	Q3        float64 `yaml:"q3"`
	Zeros     int     `yaml:"zeros"`
	Histogram []Bin   `yaml:"histogram"`
}

// Bin is one histogram bucket covering [Lower, Upper); the last bin is closed
type Bin struct {
	Lower float64 `yaml:"lower"`
	Upper float64 `yaml:"upper"`
	Count int     `yaml:"count"`
}

// ValueCount is a frequent value and its share of present values
type ValueCount struct {
	Value string  `yaml:"value"`
	Count int     `yaml:"count"`
	Pct   float64 `yaml:"pct"`
}

// Comparison matches the columns of two datasets by name
type Comparison struct {
	Shared []string        `yaml:"shared"`
	OnlyA  []string        `yaml:"only_a"`
	OnlyB  []string        `yaml:"only_b"`
	Pairs  []*VariablePair `yaml:"pairs"`
}

// VariablePair holds the two analyses of a column present in both datasets
type VariablePair struct {
	Name string    `yaml:"name"`
	A    *Variable `yaml:"a"`
	B    *Variable `yaml:"b"`
}
