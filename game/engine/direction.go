package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidDirection is returned for any direction outside NORTH, EAST, SOUTH, WEST
var ErrInvalidDirection = errors.New("invalid direction")

// Direction represents a compass direction
type Direction int

const (
	North Direction = iota
	East
	South
	West
)

var directionNames = [...]string{"NORTH", "EAST", "SOUTH", "WEST"}

// AllDirections returns the four directions in neighbour expansion order
func AllDirections() []Direction {
	return []Direction{North, East, South, West}
}

// DirectionFromInt converts the numeric encoding (0-3) into a Direction
func DirectionFromInt(v int) (Direction, error) {
	if v < int(North) || v > int(West) {
		return North, fmt.Errorf("%w: %d", ErrInvalidDirection, v)
	}
	return Direction(v), nil
}

// ParseDirection converts the textual encoding into a Direction. Matching is case-insensitive.
func ParseDirection(s string) (Direction, error) {
	upper := strings.ToUpper(strings.TrimSpace(s))
	for i, name := range directionNames {
		if name == upper {
			return Direction(i), nil
		}
	}
	return North, fmt.Errorf("%w: %q", ErrInvalidDirection, s)
}

// IsValid returns true if the direction is one of the four compass directions
func (d Direction) IsValid() bool {
	return d >= North && d <= West
}

// String returns NORTH, EAST, SOUTH or WEST
func (d Direction) String() string {
	if !d.IsValid() {
		return fmt.Sprintf("Direction(%d)", int(d))
	}
	return directionNames[d]
}

// Int returns the numeric encoding
func (d Direction) Int() int {
	return int(d)
}

// Opposite returns the reverse direction
func (d Direction) Opposite() Direction {
	switch d {
	case North:
		return South
	case South:
		return North
	case East:
		return West
	case West:
		return East
	default:
		return d
	}
}

// Delta returns the x and y offsets for this direction. Y grows southwards.
func (d Direction) Delta() (dx, dy int) {
	switch d {
	case North:
		return 0, -1
	case East:
		return 1, 0
	case South:
		return 0, 1
	case West:
		return -1, 0
	default:
		return 0, 0
	}
}

// MarshalJSON encodes the direction by name
func (d Direction) MarshalJSON() ([]byte, error) {
	if !d.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDirection, int(d))
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts either the name or the numeric encoding
func (d *Direction) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := ParseDirection(s)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDirection, string(data))
	}
	parsed, err := DirectionFromInt(n)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
