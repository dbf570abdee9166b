// Package tabular reads uploaded CSV and spreadsheet files into a header + rows frame.
package tabular

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Supported file extensions, lowercase and without the dot.
const (
	ExtCSV  = "csv"
	ExtXLSX = "xlsx"
	ExtXLS  = "xls"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrNoColumns         = errors.New("no columns to parse from file")
)

// Extensions lists the accepted extensions in lookup order.
func Extensions() []string {
	return []string{ExtCSV, ExtXLSX, ExtXLS}
}

// IsAllowed reports whether ext (without dot, any case) is a supported format.
func IsAllowed(ext string) bool {
	switch strings.ToLower(ext) {
	case ExtCSV, ExtXLSX, ExtXLS:
		return true
	}
	return false
}

// Frame is a parsed table: unique column names and string cells.
// Every row has exactly len(Columns) cells.
type Frame struct {
	Columns []string
	Rows    [][]string
}

// Shape returns (rows, columns).
func (f *Frame) Shape() (int, int) {
	return len(f.Rows), len(f.Columns)
}

// Empty reports whether the frame has no rows or no columns.
func (f *Frame) Empty() bool {
	return len(f.Rows) == 0 || len(f.Columns) == 0
}

// Read parses r according to ext.
func Read(r io.Reader, ext string) (*Frame, error) {
	var (
		records [][]string
		err     error
	)
	switch strings.ToLower(ext) {
	case ExtCSV:
		records, err = readCSV(r)
	case ExtXLSX:
		records, err = readXLSX(r)
	case ExtXLS:
		records, err = readXLS(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, err
	}
	return build(records)
}

func build(records [][]string) (*Frame, error) {
	// leading blank lines carry no header
	for len(records) > 0 && blank(records[0]) {
		records = records[1:]
	}
	if len(records) == 0 || len(records[0]) == 0 {
		return nil, ErrNoColumns
	}

	header := records[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	cols := columnNames(header)

	rows := make([][]string, 0, len(records)-1)
	for i, rec := range records[1:] {
		if blank(rec) {
			continue
		}
		if len(rec) > len(cols) {
			return nil, fmt.Errorf("line %d: expected %d fields, saw %d", i+2, len(cols), len(rec))
		}
		row := make([]string, len(cols))
		copy(row, rec)
		rows = append(rows, row)
	}
	return &Frame{Columns: cols, Rows: rows}, nil
}

// columnNames fills blank headers with "Unnamed: i" and suffixes duplicates with ".n".
func columnNames(header []string) []string {
	cols := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		base, n := name, 0
		for seen[name] {
			n++
			name = base + "." + strconv.Itoa(n)
		}
		seen[name] = true
		cols[i] = name
	}
	return cols
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

type columnKind int

const (
	kindInt columnKind = iota
	kindFloat
	kindString
)

var nullTokens = map[string]bool{
	"": true, "NA": true, "N/A": true, "n/a": true, "NaN": true, "nan": true, "-nan": true,
	"NULL": true, "null": true, "None": true, "#N/A": true, "<NA>": true,
}

func isNull(s string) bool {
	return nullTokens[strings.TrimSpace(s)]
}

func parseFinite(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// kinds infers one type per column over all rows: integer columns without
// missing values stay integers, other numeric columns become floats.
func (f *Frame) kinds() []columnKind {
	out := make([]columnKind, len(f.Columns))
	for j := range f.Columns {
		kind, hasNull := kindInt, false
		for _, row := range f.Rows {
			v := row[j]
			if isNull(v) {
				hasNull = true
				continue
			}
			if kind == kindInt {
				if _, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
					continue
				}
				kind = kindFloat
			}
			if _, ok := parseFinite(v); !ok {
				kind = kindString
				break
			}
		}
		if kind == kindInt && hasNull {
			kind = kindFloat
		}
		out[j] = kind
	}
	return out
}

// Records returns up to n leading rows as column→value maps with typed values.
// Missing cells are nil.
func (f *Frame) Records(n int) []map[string]any {
	if n > len(f.Rows) {
		n = len(f.Rows)
	}
	kinds := f.kinds()
	out := make([]map[string]any, 0, n)
	for _, row := range f.Rows[:n] {
		rec := make(map[string]any, len(f.Columns))
		for j, col := range f.Columns {
			rec[col] = convert(row[j], kinds[j])
		}
		out = append(out, rec)
	}
	return out
}

func convert(v string, kind columnKind) any {
	if isNull(v) {
		return nil
	}
	switch kind {
	case kindInt:
		i, _ := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return i
	case kindFloat:
		fv, _ := parseFinite(v)
		return fv
	default:
		return v
	}
}
