package spec

import (
	"errors"
	"fmt"
	"strings"
)

// Direction is the ordering applied to one sort key.
type Direction string

const (
	Ascending  Direction = "ASC"
	Descending Direction = "DESC"
)

// ErrInvalidDirection is returned when a parameter bound to a sort key is not
// a recognisable direction.
var ErrInvalidDirection = errors.New("invalid sort direction")

// Sign returns 1 for ascending and -1 for descending.
func (d Direction) Sign() int {
	if d == Descending {
		return -1
	}
	return 1
}

// Reverse returns the opposite direction.
func (d Direction) Reverse() Direction {
	if d == Descending {
		return Ascending
	}
	return Descending
}

// ParseDirection accepts a Direction or a string ("asc", "ASC", "desc",
// "descending", ...).
func ParseDirection(v any) (Direction, error) {
	var s string
	switch d := v.(type) {
	case Direction:
		s = string(d)
	case string:
		s = d
	case fmt.Stringer:
		s = d.String()
	default:
		return "", fmt.Errorf("%w: %v (%T)", ErrInvalidDirection, v, v)
	}

	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ASC", "ASCENDING":
		return Ascending, nil
	case "DESC", "DESCENDING":
		return Descending, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDirection, s)
	}
}
