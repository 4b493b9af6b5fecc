package predictor

import (
	"fmt"
	"strings"
)

// Labels is an immutable ordered list of feature names. The order is the
// column order the model was trained with.
type Labels struct {
	names []string
}

// NewLabels validates names: at least one, none empty, no duplicates.
func NewLabels(names ...string) (Labels, error) {
	if len(names) == 0 {
		return Labels{}, fmt.Errorf("%w: no labels", ErrLabels)
	}
	seen := make(map[string]struct{}, len(names))
	for i, name := range names {
		if name == "" {
			return Labels{}, fmt.Errorf("%w: label %d is empty", ErrLabels, i)
		}
		if _, dup := seen[name]; dup {
			return Labels{}, fmt.Errorf("%w: duplicate label %q", ErrLabels, name)
		}
		seen[name] = struct{}{}
	}
	return Labels{names: append([]string(nil), names...)}, nil
}

// Len returns the number of labels.
func (l Labels) Len() int {
	return len(l.names)
}

// Names returns a copy of the labels in order.
func (l Labels) Names() []string {
	return append([]string(nil), l.names...)
}

// At returns the i-th label.
func (l Labels) At(i int) string {
	return l.names[i]
}

func (l Labels) String() string {
	return "[" + strings.Join(l.names, ", ") + "]"
}
