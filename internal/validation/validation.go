package validation

import (
	"fmt"
	"sort"
	"strings"
)

// FieldErrors collects per-field validation messages. An empty map means the
// input is valid.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	if len(f) == 0 {
		return "valid"
	}
	fields := make([]string, 0, len(f))
	for name := range f {
		fields = append(fields, name)
	}
	sort.Strings(fields)

	parts := make([]string, len(fields))
	for i, name := range fields {
		parts[i] = fmt.Sprintf("%s: %s", name, f[name])
	}
	return strings.Join(parts, "; ")
}

// OrNil returns the map as an error, or nil when no field failed. Callers
// must not return a bare FieldErrors value as error: a non-nil interface
// wrapping an empty map would still read as a failure.
func (f FieldErrors) OrNil() error {
	if len(f) == 0 {
		return nil
	}
	return f
}
