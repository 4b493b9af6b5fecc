package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorgonia.org/tensor"

	"github.com/lzoffoli-tg/checkupy/frame"
	"github.com/lzoffoli-tg/checkupy/predictor"
)

func (a *app) predictCommand() *cobra.Command {
	var (
		input    string
		indexCol string
	)
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict the output labels for a CSV or JSON input file",
		Long: `Predict reads --input and writes the prediction to stdout.

  .csv          table with a header row; output is CSV with the same index
  .json object  {"label": [values...]}; output is a JSON object of columns
  .json array   [[row...], ...] in input label order; output is a JSON array of rows`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := readInput(input, indexCol)
			if err != nil {
				return err
			}

			s, err := a.open()
			if err != nil {
				return err
			}
			defer s.Close()

			start := time.Now()
			out, err := s.predictor.Predict(data)
			if err != nil {
				return fmt.Errorf("predict: %w", err)
			}
			s.logger.Info("prediction done",
				zap.String("input", input),
				zap.Duration("elapsed", time.Since(start)))

			return writeRecord(cmd.OutOrStdout(), out, indexCol)
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "input file (.csv or .json)")
	cmd.Flags().StringVar(&indexCol, "index-col", "", "CSV column to use as the row index")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

// readInput decodes path into a value predictor.NewRecord accepts.
func readInput(path, indexCol string) (any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return frame.ReadCSV(f, indexCol)
	case ".json":
		return decodeJSON(f)
	default:
		return nil, fmt.Errorf("input %s: unsupported extension %q", path, ext)
	}
}

func decodeJSON(r io.Reader) (any, error) {
	var v any
	if err := json.NewDecoder(r).Decode(&v); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	switch x := v.(type) {
	case map[string]any:
		return predictor.Mapping(x), nil
	case []any:
		rows := make([][]float64, len(x))
		for i, row := range x {
			cells, ok := row.([]any)
			if !ok {
				return nil, fmt.Errorf("decode json: row %d is %T, want array", i, row)
			}
			rows[i] = make([]float64, len(cells))
			for j, cell := range cells {
				n, ok := cell.(float64)
				if !ok {
					return nil, fmt.Errorf("decode json: row %d, column %d is %T, want number", i, j, cell)
				}
				rows[i][j] = n
			}
		}
		return rows, nil
	default:
		return nil, errors.New("decode json: want an object of columns or an array of rows")
	}
}

func writeRecord(w io.Writer, rec predictor.Record, indexName string) error {
	switch r := rec.(type) {
	case predictor.Table:
		return r.Frame.WriteCSV(w, indexName)
	case predictor.Mapping:
		return writeJSON(w, r)
	case predictor.Matrix:
		rows, err := denseRows(r.Dense)
		if err != nil {
			return err
		}
		return writeJSON(w, rows)
	default:
		return fmt.Errorf("unexpected record %T", rec)
	}
}

// denseRows splits a 2-D engine output into float32 rows.
func denseRows(d *tensor.Dense) ([][]float32, error) {
	shape := d.Shape()
	if d.Dims() != 2 {
		return nil, fmt.Errorf("output shape %v: want a matrix", []int(shape))
	}
	if shape.TotalSize() == 0 {
		return make([][]float32, shape[0]), nil
	}

	var data []float32
	switch x := d.Data().(type) {
	case []float32:
		data = x
	case []float64:
		data = make([]float32, len(x))
		for i, v := range x {
			data[i] = float32(v)
		}
	case []int64:
		data = make([]float32, len(x))
		for i, v := range x {
			data[i] = float32(v)
		}
	default:
		return nil, fmt.Errorf("output dtype %v: want a numeric matrix", d.Dtype())
	}

	rows := make([][]float32, shape[0])
	for r := range rows {
		rows[r] = data[r*shape[1] : (r+1)*shape[1]]
	}
	return rows, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
