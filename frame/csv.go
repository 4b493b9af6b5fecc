package frame

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// ReadCSV reads a frame from CSV with a header row. When indexCol is set,
// that column becomes the row index: integer labels are kept as int64,
// anything else as string. Every other column must be numeric; empty cells
// read as NaN.
func ReadCSV(r io.Reader, indexCol string) (*Frame, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("frame: empty csv")
		}
		return nil, fmt.Errorf("frame: read header: %w", err)
	}

	indexPos := -1
	var columns []string
	for i, name := range header {
		name = strings.TrimSpace(name)
		if indexCol != "" && name == indexCol {
			indexPos = i
			continue
		}
		columns = append(columns, name)
	}
	if indexCol != "" && indexPos < 0 {
		return nil, fmt.Errorf("frame: index column %q: %w", indexCol, ErrColumnNotFound)
	}

	values := make([][]float64, len(columns))
	var index []any
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("frame: %w", err)
		}

		c := 0
		for i, cell := range record {
			cell = strings.TrimSpace(cell)
			if i == indexPos {
				index = append(index, parseLabel(cell))
				continue
			}
			v, err := parseCell(cell)
			if err != nil {
				return nil, fmt.Errorf("frame: line %d, column %q: %w", line, columns[c], err)
			}
			values[c] = append(values[c], v)
			c++
		}
	}

	if indexPos < 0 {
		rows := 0
		if len(values) > 0 {
			rows = len(values[0])
		}
		index = RangeIndex(rows)
	}
	for i := range values {
		if values[i] == nil {
			values[i] = []float64{}
		}
	}
	if index == nil {
		index = []any{}
	}
	return New(columns, values, index)
}

func parseCell(cell string) (float64, error) {
	if cell == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(cell, 64)
}

func parseLabel(cell string) any {
	if v, err := strconv.ParseInt(cell, 10, 64); err == nil {
		return v
	}
	return cell
}

// WriteCSV writes the frame with a header row. When indexName is set, the
// index is written first under that header.
func (f *Frame) WriteCSV(w io.Writer, indexName string) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, len(f.columns)+1)
	if indexName != "" {
		header = append(header, indexName)
	}
	header = append(header, f.columns...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("frame: write header: %w", err)
	}

	record := make([]string, len(header))
	for r := range f.Len() {
		record = record[:0]
		if indexName != "" {
			record = append(record, fmt.Sprint(f.index[r]))
		}
		for _, col := range f.values {
			record = append(record, strconv.FormatFloat(col[r], 'g', -1, 64))
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("frame: write row %d: %w", r, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
