package profile

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"math"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed templates/*
var templatesFS embed.FS

// chart geometry of the inline histogram, in SVG user units
const (
	chartHeight = 60
	barWidth    = 18
)

var reportTemplate = template.Must(template.New("").Funcs(template.FuncMap{
	"num":        formatNumber,
	"pct":        formatPct,
	"bytes":      formatBytes,
	"maxCount":   maxCount,
	"barHeight":  barHeight,
	"barX":       barX,
	"barY":       barY,
	"chartWidth": chartWidth,
}).ParseFS(templatesFS, "templates/*.html"))

// RenderHTML renders report as an HTML fragment for embedding in a page
func RenderHTML(report *Report) (template.HTML, error) {
	if report == nil {
		return "", ErrNoData
	}

	var buf bytes.Buffer
	if err := reportTemplate.ExecuteTemplate(&buf, "report.html", report); err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// MarshalYAML exports report as a YAML document
func MarshalYAML(report *Report) ([]byte, error) {
	if report == nil {
		return nil, ErrNoData
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	return buf.Bytes(), nil
}

func formatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'g', 5, 64)
}

func formatPct(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64) + "%"
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func maxCount(bins []Bin) int {
	m := 0
	for _, b := range bins {
		if b.Count > m {
			m = b.Count
		}
	}
	return m
}

func barHeight(count, max int) int {
	if max == 0 {
		return 0
	}
	return int(math.Round(float64(count) * chartHeight / float64(max)))
}

func barX(i int) int {
	return i * (barWidth + 2)
}

func barY(h int) int {
	return chartHeight - h
}

func chartWidth(bins []Bin) int {
	return len(bins) * (barWidth + 2)
}
