package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"

	"github.com/lzoffoli-tg/checkupy/internal/onnx/onnxtest"
)

// setup writes the a+b sum model and a config pointing at it.
func setup(t *testing.T) (dir, cfgPath string) {
	t.Helper()
	dir = t.TempDir()
	modelPath := filepath.Join(dir, "sum.onnx")
	require.NoError(t, onnxtest.SumModel().WriteFile(modelPath))

	cfgPath = filepath.Join(dir, "checkup.yaml")
	cfg := fmt.Sprintf(`
model:
  path: %s
  inputs: [a, b]
  outputs: [x]
log:
  level: debug
  file: %s
`, modelPath, filepath.Join(dir, "checkup.log"))
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o600))
	return dir, cfgPath
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestPredictJSONMapping(t *testing.T) {
	dir, cfg := setup(t)
	input := writeFile(t, dir, "in.json", `{"a": [1, 2], "b": [3, 4]}`)

	out, err := run(t, "predict", "--config", cfg, "--input", input)
	require.NoError(t, err)

	var got map[string][]float64
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, map[string][]float64{"x": {4, 6}}, got)

	logData, err := os.ReadFile(filepath.Join(dir, "checkup.log"))
	require.NoError(t, err)
	assert.Contains(t, string(logData), "prediction done")
}

func TestPredictJSONRows(t *testing.T) {
	dir, cfg := setup(t)
	input := writeFile(t, dir, "in.json", `[[1, 3], [2, 4]]`)

	out, err := run(t, "predict", "--config", cfg, "-i", input)
	require.NoError(t, err)

	var got [][]float64
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, [][]float64{{4}, {6}}, got)
}

func TestPredictCSV(t *testing.T) {
	dir, cfg := setup(t)
	input := writeFile(t, dir, "in.csv", "id,b,a,note\n10,3,1,0\n11,4,2,0\n")

	out, err := run(t, "predict", "--config", cfg, "--input", input, "--index-col", "id")
	require.NoError(t, err)
	assert.Equal(t, "id,x\n10,4\n11,6\n", out)
}

func TestPredictHeaderOnlyCSV(t *testing.T) {
	dir, cfg := setup(t)
	input := writeFile(t, dir, "empty.csv", "id,a,b\n")

	out, err := run(t, "predict", "--config", cfg, "--input", input, "--index-col", "id")
	require.NoError(t, err)
	assert.Equal(t, "id,x\n", out)
}

func TestDenseRows(t *testing.T) {
	rows, err := denseRows(tensor.New(tensor.WithShape(2, 1), tensor.WithBacking([]float64{4, 6})))
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{4}, {6}}, rows)

	rows, err = denseRows(tensor.New(tensor.WithShape(0, 1), tensor.WithBacking([]float32{})))
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, err = denseRows(tensor.New(tensor.WithShape(2), tensor.WithBacking([]float32{1, 2})))
	assert.Error(t, err)
}

func TestPredictErrors(t *testing.T) {
	dir, cfg := setup(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing input flag", []string{"predict", "--config", cfg}, `"input" not set`},
		{"unknown extension", []string{"predict", "--config", cfg, "-i", writeFile(t, dir, "in.txt", "")}, "unsupported extension"},
		{"bad json", []string{"predict", "--config", cfg, "-i", writeFile(t, dir, "bad.json", `"text"`)}, "want an object"},
		{"missing column", []string{"predict", "--config", cfg, "-i", writeFile(t, dir, "c.json", `{"a": [1]}`)}, "missing [b]"},
		{"no config", []string{"predict", "-i", writeFile(t, dir, "ok.json", `{"a": 1, "b": 2}`)}, "model.path is required"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := run(t, tc.args...)
			assert.ErrorContains(t, err, tc.want)
		})
	}
}

func TestDemo(t *testing.T) {
	_, cfg := setup(t)

	out, err := run(t, "demo", "--config", cfg, "--seed", "7")
	require.NoError(t, err)

	var got struct {
		Input  map[string]float64   `json:"input"`
		Output map[string][]float64 `json:"output"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got.Input, 2)
	for _, v := range got.Input {
		assert.GreaterOrEqual(t, v, 1.0)
		assert.LessOrEqual(t, v, 100.0)
	}
	assert.Equal(t, []float64{got.Input["a"] + got.Input["b"]}, got.Output["x"])

	again, err := run(t, "demo", "--config", cfg, "--seed", "7")
	require.NoError(t, err)
	assert.Equal(t, out, again)
}

func TestInfo(t *testing.T) {
	dir, _ := setup(t)

	out, err := run(t, "info", filepath.Join(dir, "sum.onnx"))
	require.NoError(t, err)
	assert.Contains(t, out, "Opset:        13\n")
	assert.Contains(t, out, "Inputs:       x\n")
	assert.Contains(t, out, "Operators:    MatMul\n")

	_, err = run(t, "info")
	assert.Error(t, err)
}

func TestOpsAndVersion(t *testing.T) {
	out, err := run(t, "ops")
	require.NoError(t, err)
	assert.Contains(t, out, "MatMul\n")
	assert.Contains(t, out, "LinearRegressor\n")

	out, err = run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "checkup "+Version)
}
