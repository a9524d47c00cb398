package profile

import (
	"errors"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/brizzai/auto-eda/internal/dataset"
)

// ErrNoData is returned when a report is requested without a dataset
var ErrNoData = errors.New("no dataset to profile")

// per-cell overhead added to the payload size in the memory estimate
const cellOverhead = 16

var now = time.Now

// Analyze profiles a single dataset
func Analyze(frame *dataset.Frame, label string) (*Report, error) {
	if frame == nil {
		return nil, ErrNoData
	}
	summary := summarize(frame, label)
	return &Report{
		Title:       label,
		Mode:        ModeAnalyze,
		GeneratedAt: now(),
		Datasets:    []*Summary{summary},
	}, nil
}

// Compare profiles two datasets side by side
func Compare(a *dataset.Frame, labelA string, b *dataset.Frame, labelB string) (*Report, error) {
	if a == nil || b == nil {
		return nil, ErrNoData
	}
	sa := summarize(a, labelA)
	sb := summarize(b, labelB)
	return &Report{
		Title:       labelA + " vs " + labelB,
		Mode:        ModeCompare,
		GeneratedAt: now(),
		Datasets:    []*Summary{sa, sb},
		Comparison:  compareSummaries(sa, sb),
	}, nil
}

func summarize(frame *dataset.Frame, label string) *Summary {
	s := &Summary{
		Label:         label,
		Rows:          frame.NumRows(),
		Columns:       frame.NumCols(),
		DuplicateRows: countDuplicates(frame.Rows),
		KindCounts:    make(map[dataset.Kind]int),
		Variables:     make([]*Variable, 0, frame.NumCols()),
	}

	for i, name := range frame.Columns {
		values := frame.Column(i)
		v := analyzeColumn(name, frame.Kinds[i], values)
		s.Variables = append(s.Variables, v)
		s.KindCounts[v.Kind]++
		s.MissingCells += v.Missing
		for _, cell := range values {
			s.MemoryBytes += int64(len(cell)) + cellOverhead
		}
	}
	s.MissingPct = pct(s.MissingCells, s.Rows*s.Columns)
	return s
}

func analyzeColumn(name string, kind dataset.Kind, values []string) *Variable {
	v := &Variable{Name: name, Kind: kind, Count: len(values)}

	counts := make(map[string]int)
	var numbers []float64
	for _, raw := range values {
		if dataset.IsMissing(raw) {
			v.Missing++
			continue
		}
		cell := strings.TrimSpace(raw)
		if kind == dataset.KindNumeric {
			if n, ok := dataset.ParseNumber(cell); ok {
				numbers = append(numbers, n)
			}
		}
		if kind == dataset.KindBoolean {
			b, _ := dataset.ParseBool(cell)
			cell = boolLabel(b)
		}
		counts[cell]++
	}

	present := v.Count - v.Missing
	v.MissingPct = pct(v.Missing, v.Count)
	v.Distinct = len(counts)
	v.DistinctPct = pct(v.Distinct, present)
	v.Top = topCounts(counts, present)
	if kind == dataset.KindNumeric && len(numbers) > 0 {
		v.Numeric = describe(numbers)
	}
	return v
}

func describe(values []float64) *NumericStats {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	st := &NumericStats{
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Q1:     quantile(sorted, 0.25),
		Median: quantile(sorted, 0.5),
		Q3:     quantile(sorted, 0.75),
	}

	n := float64(len(sorted))
	var sum float64
	for _, x := range sorted {
		sum += x
		if x == 0 {
			st.Zeros++
		}
	}
	st.Mean = sum / n

	// sample standard deviation
	if len(sorted) > 1 {
		var sq float64
		for _, x := range sorted {
			d := x - st.Mean
			sq += d * d
		}
		st.Std = math.Sqrt(sq / (n - 1))
	}

	if math.IsInf(st.Mean, 0) || math.IsInf(st.Std, 0) || math.IsNaN(st.Std) {
		st.Mean, st.Std = scaledMoments(sorted, st.Min, st.Max)
	}

	st.Histogram = histogram(sorted, st.Min, st.Max)
	return st
}

// scaledMoments computes mean and sample standard deviation on values scaled
// into [-1, 1], for columns whose sums overflow float64
func scaledMoments(sorted []float64, lo, hi float64) (mean, std float64) {
	scale := math.Max(math.Abs(lo), math.Abs(hi))
	n := float64(len(sorted))
	for _, x := range sorted {
		mean += x / scale / n
	}
	if len(sorted) > 1 {
		var sq float64
		for _, x := range sorted {
			d := x/scale - mean
			sq += d * d
		}
		std = math.Sqrt(sq/(n-1)) * scale
	}
	return mean * scale, std
}

// quantile interpolates linearly between the closest ranks of sorted
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func histogram(sorted []float64, lo, hi float64) []Bin {
	// hi-lo may overflow, the bin width cannot
	width := hi/histogramBins - lo/histogramBins
	if lo == hi || width <= 0 || math.IsInf(width, 0) || math.IsNaN(width) {
		return []Bin{{Lower: lo, Upper: hi, Count: len(sorted)}}
	}

	bins := make([]Bin, histogramBins)
	edge := func(i int) float64 {
		t := float64(i) / histogramBins
		return lo*(1-t) + hi*t
	}
	for i := range bins {
		bins[i].Lower = edge(i)
		bins[i].Upper = edge(i + 1)
	}

	for _, x := range sorted {
		pos := x/width - lo/width
		if math.IsNaN(pos) {
			continue
		}
		idx := histogramBins - 1
		if pos < histogramBins {
			idx = max(int(pos), 0)
		}
		bins[idx].Count++
	}
	return bins
}

func topCounts(counts map[string]int, present int) []ValueCount {
	out := make([]ValueCount, 0, len(counts))
	for value, n := range counts {
		out = append(out, ValueCount{Value: value, Count: n, Pct: pct(n, present)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	if len(out) > topValues {
		out = out[:topValues]
	}
	return out
}

func countDuplicates(rows [][]string) int {
	seen := make(map[string]struct{}, len(rows))
	dup := 0
	for _, row := range rows {
		key := strings.Join(row, "\x1f")
		if _, ok := seen[key]; ok {
			dup++
			continue
		}
		seen[key] = struct{}{}
	}
	return dup
}

func compareSummaries(a, b *Summary) *Comparison {
	byName := make(map[string]*Variable, len(b.Variables))
	for _, v := range b.Variables {
		byName[v.Name] = v
	}

	c := &Comparison{}
	inA := make(map[string]struct{}, len(a.Variables))
	for _, v := range a.Variables {
		inA[v.Name] = struct{}{}
		if other, ok := byName[v.Name]; ok {
			c.Shared = append(c.Shared, v.Name)
			c.Pairs = append(c.Pairs, &VariablePair{Name: v.Name, A: v, B: other})
		} else {
			c.OnlyA = append(c.OnlyA, v.Name)
		}
	}
	for _, v := range b.Variables {
		if _, ok := inA[v.Name]; !ok {
			c.OnlyB = append(c.OnlyB, v.Name)
		}
	}
	return c
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) * 100 / float64(total)
}
