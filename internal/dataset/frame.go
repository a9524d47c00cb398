// Package dataset loads tabular data for profiling: uploaded CSV files and a
// small catalog of well-known sample datasets.
package dataset

import (
	"math"
	"strconv"
	"strings"
)

// Kind is the inferred type of a column
type Kind string

const (
	KindNumeric Kind = "numeric"
	KindBoolean Kind = "boolean"
	KindText    Kind = "text"
)

// missingMarkers are the cell values treated as absent, in addition to the empty string
var missingMarkers = map[string]struct{}{
	"na":   {},
	"nan":  {},
	"n/a":  {},
	"null": {},
	"none": {},
	"-":    {},
}

var booleanValues = map[string]bool{
	"true":  true,
	"false": false,
	"yes":   true,
	"no":    false,
}

// Frame is a rectangular table of string cells with one inferred kind per column
type Frame struct {
	Columns []string
	Kinds   []Kind
	Rows    [][]string
}

// NewFrame builds a frame and infers the column kinds. Every row must have
// len(columns) cells.
func NewFrame(columns []string, rows [][]string) *Frame {
	f := &Frame{
		Columns: columns,
		Rows:    rows,
		Kinds:   make([]Kind, len(columns)),
	}
	for i := range columns {
		f.Kinds[i] = inferKind(f.Column(i))
	}
	return f
}

// NumRows returns the number of data rows
func (f *Frame) NumRows() int {
	if f == nil {
		return 0
	}
	return len(f.Rows)
}

// NumCols returns the number of columns
func (f *Frame) NumCols() int {
	if f == nil {
		return 0
	}
	return len(f.Columns)
}

// Column returns the cells of column i
func (f *Frame) Column(i int) []string {
	out := make([]string, len(f.Rows))
	for r, row := range f.Rows {
		out[r] = row[i]
	}
	return out
}

// Head returns a frame sharing the first n rows
func (f *Frame) Head(n int) *Frame {
	if n < 0 || n >= len(f.Rows) {
		n = len(f.Rows)
	}
	return &Frame{Columns: f.Columns, Kinds: f.Kinds, Rows: f.Rows[:n]}
}

// IsMissing reports whether v counts as an absent value
func IsMissing(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return true
	}
	_, ok := missingMarkers[strings.ToLower(v)]
	return ok
}

// ParseNumber parses a numeric cell. Missing and non-finite values report false.
func ParseNumber(v string) (float64, bool) {
	if IsMissing(v) {
		return 0, false
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || math.IsInf(n, 0) || math.IsNaN(n) {
		return 0, false
	}
	return n, true
}

// ParseBool parses a boolean cell
func ParseBool(v string) (bool, bool) {
	b, ok := booleanValues[strings.ToLower(strings.TrimSpace(v))]
	return b, ok
}

func inferKind(values []string) Kind {
	present := 0
	numeric, boolean := true, true
	for _, v := range values {
		if IsMissing(v) {
			continue
		}
		present++
		if numeric {
			if _, ok := ParseNumber(v); !ok {
				numeric = false
			}
		}
		if boolean {
			if _, ok := ParseBool(v); !ok {
				boolean = false
			}
		}
		if !numeric && !boolean {
			return KindText
		}
	}

	switch {
	case present == 0:
		return KindText
	case boolean:
		return KindBoolean
	case numeric:
		return KindNumeric
	default:
		return KindText
	}
}
