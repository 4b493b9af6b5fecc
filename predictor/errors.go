package predictor

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors returned by the predictor. Match them with errors.Is.
var (
	// ErrLoad reports that the model could not be opened as a session.
	ErrLoad = errors.New("model load failed")

	// ErrLabels reports an invalid input or output label list.
	ErrLabels = errors.New("invalid labels")

	// ErrShape reports a matrix of the wrong rank or width, ragged rows, or
	// mapping entries of different lengths.
	ErrShape = errors.New("shape mismatch")

	// ErrColumn reports required labels missing from a table or mapping.
	// The concrete error is a *ColumnError.
	ErrColumn = errors.New("missing columns")

	// ErrUnsupportedType reports an input that is not a Matrix, Table or
	// Mapping, or a mapping value that cannot be read as numbers.
	ErrUnsupportedType = errors.New("unsupported input type")

	// ErrOutputShape reports an engine result that is missing or does not
	// have one row per input row and one column per output label.
	ErrOutputShape = errors.New("unexpected output shape")
)

// ColumnError lists the labels a table or mapping lacks.
type ColumnError struct {
	Required []string
	Missing  []string
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("%s: missing [%s] of required [%s]",
		ErrColumn, strings.Join(e.Missing, ", "), strings.Join(e.Required, ", "))
}

// Is makes errors.Is(err, ErrColumn) match.
func (e *ColumnError) Is(target error) bool {
	return target == ErrColumn
}
