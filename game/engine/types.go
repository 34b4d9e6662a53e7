package engine

import (
	"encoding/json"
	"fmt"
)

// FieldKind tags the variant held by a Field
type FieldKind int

const (
	Empty FieldKind = iota
	Checkpoint
	Start
	Eye
	Lembas
	River
	Hole
)

const (
	// Validation constants
	MinBoardSize = 2
	MaxBoardSize = 64

	// ObstructionPenalty is added to the heuristic for every sight-blocking cell on the line to the goal
	ObstructionPenalty = 10
)

var fieldKindNames = map[FieldKind]string{
	Empty:      "empty",
	Checkpoint: "checkpoint",
	Start:      "start",
	Eye:        "eye",
	Lembas:     "lembas",
	River:      "river",
	Hole:       "hole",
}

// String returns the lower-case name of the kind
func (k FieldKind) String() string {
	if name, ok := fieldKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("FieldKind(%d)", int(k))
}

// ParseFieldKind converts a kind name back into a FieldKind
func ParseFieldKind(s string) (FieldKind, error) {
	for kind, name := range fieldKindNames {
		if name == s {
			return kind, nil
		}
	}
	return Empty, fmt.Errorf("unknown field kind %q", s)
}

// MarshalJSON encodes the kind by name
func (k FieldKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON decodes a kind name
func (k *FieldKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseFieldKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// IsDirectional reports whether fields of this kind carry a Direction
func (k FieldKind) IsDirectional() bool {
	return k == Start || k == Eye || k == River
}

// Position represents x,y coordinates on the board
type Position struct {
	X int
	Y int
}

// Key returns the canonical "x,y" string used for set and map membership
func (p Position) Key() string {
	return fmt.Sprintf("%d,%d", p.X, p.Y)
}

// String implements fmt.Stringer
func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Step returns the neighbouring position in the given direction
func (p Position) Step(d Direction) Position {
	dx, dy := d.Delta()
	return Position{X: p.X + dx, Y: p.Y + dy}
}

// IsAdjacent reports whether q is one of the four axis-aligned neighbours of p
func (p Position) IsAdjacent(q Position) bool {
	return abs(p.X-q.X)+abs(p.Y-q.Y) == 1
}

// MarshalJSON encodes the position as the two element array used in board files
func (p Position) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{p.X, p.Y})
}

// UnmarshalJSON decodes a [x, y] array
func (p *Position) UnmarshalJSON(data []byte) error {
	var xy []int
	if err := json.Unmarshal(data, &xy); err != nil {
		return fmt.Errorf("position must be an [x, y] array: %w", err)
	}
	if len(xy) != 2 {
		return fmt.Errorf("position must have exactly 2 coordinates, got %d", len(xy))
	}
	p.X, p.Y = xy[0], xy[1]
	return nil
}

// Field is a single placed board feature. Kind selects which of the
// remaining attributes are meaningful: Direction for start, eye and river,
// Amount for lembas, Order for checkpoints.
type Field struct {
	Kind      FieldKind `json:"kind"`
	Position  Position  `json:"position"`
	Direction Direction `json:"direction,omitempty"`
	Amount    int       `json:"amount,omitempty"`
	Order     int       `json:"order,omitempty"`
}

// IsObstacle reports whether the field fully blocks traversal
func (f Field) IsObstacle() bool {
	switch f.Kind {
	case Eye, Hole:
		return true
	default:
		return false
	}
}

// BlocksSight reports whether the field counts against the line-of-sight
// penalty. Eye and river are transparent even though the eye is impassable.
func (f Field) BlocksSight() bool {
	switch f.Kind {
	case Eye, River:
		return false
	default:
		return true
	}
}

// String implements fmt.Stringer
func (f Field) String() string {
	switch f.Kind {
	case Start, Eye, River:
		return fmt.Sprintf("%s at %s facing %s", f.Kind, f.Position, f.Direction)
	case Lembas:
		return fmt.Sprintf("%s at %s (amount %d)", f.Kind, f.Position, f.Amount)
	case Checkpoint:
		return fmt.Sprintf("%s #%d at %s", f.Kind, f.Order, f.Position)
	default:
		return fmt.Sprintf("%s at %s", f.Kind, f.Position)
	}
}

// Wall is an impassable edge between two adjacent cells
type Wall struct {
	A Position
	B Position
}

// NewWall creates a wall between a and b
func NewWall(a, b Position) Wall {
	return Wall{A: a, B: b}
}

// Key returns a key shared by both orientations of the wall
func (w Wall) Key() string {
	a, b := w.A, w.B
	if b.Y < a.Y || (b.Y == a.Y && b.X < a.X) {
		a, b = b, a
	}
	return a.Key() + "|" + b.Key()
}

// Normalized returns the wall with its endpoints in canonical order
func (w Wall) Normalized() Wall {
	if w.B.Y < w.A.Y || (w.B.Y == w.A.Y && w.B.X < w.A.X) {
		return Wall{A: w.B, B: w.A}
	}
	return w
}

// MarshalJSON encodes the wall as [[x, y], [x, y]]
func (w Wall) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]Position{w.A, w.B})
}

// UnmarshalJSON decodes a wall from a two position array
func (w *Wall) UnmarshalJSON(data []byte) error {
	var pair []Position
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("wall must be a pair of positions: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("wall must have exactly 2 positions, got %d", len(pair))
	}
	w.A, w.B = pair[0], pair[1]
	return nil
}
