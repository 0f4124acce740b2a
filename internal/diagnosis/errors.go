package diagnosis

import (
	"errors"
	"fmt"
)

// ErrUnavailable is returned by a provider that cannot answer right now,
// for example because it is not configured or its upstream is down.
var ErrUnavailable = errors.New("diagnosis provider unavailable")

// InvalidInputError reports a symptom list element that is not a string.
type InvalidInputError struct {
	Index int
	Value any
}

func (e *InvalidInputError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("symptom %d is null", e.Index)
	}
	return fmt.Sprintf("symptom %d must be a string, got %T", e.Index, e.Value)
}

// ParseSymptoms converts a decoded JSON array into symptom labels. Any
// element that is not a string fails the whole list.
func ParseSymptoms(raw []any) ([]string, error) {
	out := make([]string, 0, len(raw))
	for i, v := range raw {
		s, ok := v.(string)
		if !ok {
			return nil, &InvalidInputError{Index: i, Value: v}
		}
		out = append(out, s)
	}
	return out, nil
}
