package dataset

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrEmptyInput is returned for input without a header row
var ErrEmptyInput = errors.New("no columns to parse from file")

// ParseError describes why a CSV file could not be read. Line is 1-based and
// zero when the failure is not tied to a line.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("failed to read CSV at line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("failed to read CSV: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseCSV reads a comma-separated file with a header row
func ParseCSV(r io.Reader) (*Frame, error) {
	return ParseDelimited(r, ',')
}

// ParseDelimited reads a delimited file with a header row. Rows must have as
// many fields as the header.
func ParseDelimited(r io.Reader, comma rune) (*Frame, error) {
	br := bufio.NewReader(r)
	if prefix, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(prefix, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(br)
	reader.Comma = comma
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = false

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &ParseError{Err: ErrEmptyInput}
	}
	if err != nil {
		return nil, parseError(err)
	}

	columns := normalizeHeader(header)
	if len(columns) == 0 {
		return nil, &ParseError{Line: 1, Err: ErrEmptyInput}
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, parseError(err)
		}
		rows = append(rows, record)
	}

	return NewFrame(columns, rows), nil
}

func parseError(err error) error {
	var csvErr *csv.ParseError
	if errors.As(err, &csvErr) {
		return &ParseError{Line: csvErr.Line, Err: csvErr.Err}
	}
	return &ParseError{Err: err}
}

// normalizeHeader trims names and fills in blank or repeated ones so every
// column can be addressed by name
func normalizeHeader(header []string) []string {
	if len(header) == 1 && strings.TrimSpace(header[0]) == "" {
		return nil
	}

	seen := make(map[string]int, len(header))
	columns := make([]string, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		if n, ok := seen[name]; ok {
			seen[name] = n + 1
			name = name + "." + strconv.Itoa(n+1)
		} else {
			seen[name] = 0
		}
		columns[i] = name
	}
	return columns
}
