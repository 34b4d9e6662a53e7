package engine

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/zyedidia/generic/mapset"
)

var (
	ErrOutOfBounds      = errors.New("position out of bounds")
	ErrCellOccupied     = errors.New("cell already occupied")
	ErrEyeAlreadyPlaced = errors.New("board already has an eye")
	ErrInvalidField     = errors.New("invalid field")
	ErrInvalidWall      = errors.New("invalid wall")
	ErrInvalidSize      = errors.New("invalid board size")
)

// Board is the grid model: dimensions, the placed fields and the wall edges.
// Lookups are O(1). A Board is not safe for concurrent mutation.
type Board struct {
	width  int
	height int

	fields      map[Position]Field
	walls       mapset.Set[string]
	wallList    map[string]Wall
	starts      []Position
	checkpoints []Position
	lembas      []Position
	eye         *Position
}

// NewBoard creates an empty board of the given size
func NewBoard(width, height int) (*Board, error) {
	if width < MinBoardSize || width > MaxBoardSize || height < MinBoardSize || height > MaxBoardSize {
		return nil, fmt.Errorf("%w: %dx%d, each side must be between %d and %d",
			ErrInvalidSize, width, height, MinBoardSize, MaxBoardSize)
	}
	return &Board{
		width:    width,
		height:   height,
		fields:   make(map[Position]Field),
		walls:    mapset.New[string](),
		wallList: make(map[string]Wall),
	}, nil
}

// Width returns the number of columns
func (b *Board) Width() int { return b.width }

// Height returns the number of rows
func (b *Board) Height() int { return b.height }

// InBounds reports whether p lies on the board
func (b *Board) InBounds(p Position) bool {
	return p.X >= 0 && p.X < b.width && p.Y >= 0 && p.Y < b.height
}

// FieldAt returns the field at p, or an Empty field if nothing is placed there
func (b *Board) FieldAt(p Position) Field {
	if f, ok := b.fields[p]; ok {
		return f
	}
	return Field{Kind: Empty, Position: p}
}

// IsObstacle reports whether the cell at p is an eye or a hole
func (b *Board) IsObstacle(p Position) bool {
	f, ok := b.fields[p]
	return ok && f.IsObstacle()
}

// IsWallBetween reports whether a and b are adjacent and separated by a wall
func (b *Board) IsWallBetween(a, c Position) bool {
	if !a.IsAdjacent(c) {
		return false
	}
	return b.walls.Has(NewWall(a, c).Key())
}

// Place puts a field on an empty cell. Overlapping placements, out of bounds
// positions and a second eye are rejected.
func (b *Board) Place(f Field) error {
	if f.Kind == Empty {
		return fmt.Errorf("%w: cannot place an empty field, use Remove", ErrInvalidField)
	}
	if _, ok := fieldKindNames[f.Kind]; !ok {
		return fmt.Errorf("%w: unknown kind %d", ErrInvalidField, int(f.Kind))
	}
	if !b.InBounds(f.Position) {
		return fmt.Errorf("%w: %s on %dx%d board", ErrOutOfBounds, f.Position, b.width, b.height)
	}
	if existing, ok := b.fields[f.Position]; ok {
		return fmt.Errorf("%w: %s already holds %s", ErrCellOccupied, f.Position, existing.Kind)
	}
	if f.Kind.IsDirectional() && !f.Direction.IsValid() {
		return fmt.Errorf("%w: %s", ErrInvalidDirection, f)
	}
	if !f.Kind.IsDirectional() {
		f.Direction = North
	}

	switch f.Kind {
	case Eye:
		if b.eye != nil {
			return fmt.Errorf("%w at %s", ErrEyeAlreadyPlaced, *b.eye)
		}
		pos := f.Position
		b.eye = &pos
	case Start:
		b.starts = append(b.starts, f.Position)
	case Checkpoint:
		f.Order = len(b.checkpoints)
		b.checkpoints = append(b.checkpoints, f.Position)
	case Lembas:
		if f.Amount < 0 {
			return fmt.Errorf("%w: lembas amount must not be negative, got %d", ErrInvalidField, f.Amount)
		}
		b.lembas = append(b.lembas, f.Position)
	}
	if f.Kind != Lembas {
		f.Amount = 0
	}
	if f.Kind != Checkpoint {
		f.Order = 0
	}

	b.fields[f.Position] = f
	return nil
}

// Remove clears the cell at p and returns the field that was there
func (b *Board) Remove(p Position) (Field, bool) {
	f, ok := b.fields[p]
	if !ok {
		return Field{Kind: Empty, Position: p}, false
	}
	delete(b.fields, p)

	switch f.Kind {
	case Eye:
		b.eye = nil
	case Start:
		b.starts = removePosition(b.starts, p)
	case Lembas:
		b.lembas = removePosition(b.lembas, p)
	case Checkpoint:
		b.checkpoints = removePosition(b.checkpoints, p)
		for i, cp := range b.checkpoints {
			field := b.fields[cp]
			field.Order = i
			b.fields[cp] = field
		}
	}
	return f, true
}

// AddWall registers an impassable edge between two adjacent in-bounds cells
func (b *Board) AddWall(w Wall) error {
	if !b.InBounds(w.A) || !b.InBounds(w.B) {
		return fmt.Errorf("%w: %s-%s leaves the %dx%d board", ErrOutOfBounds, w.A, w.B, b.width, b.height)
	}
	if !w.A.IsAdjacent(w.B) {
		return fmt.Errorf("%w: %s and %s are not adjacent", ErrInvalidWall, w.A, w.B)
	}
	key := w.Key()
	if b.walls.Has(key) {
		return fmt.Errorf("%w: wall %s-%s already exists", ErrInvalidWall, w.A, w.B)
	}
	b.walls.Put(key)
	b.wallList[key] = w.Normalized()
	return nil
}

// RemoveWall deletes the wall between the two cells, in either orientation
func (b *Board) RemoveWall(w Wall) bool {
	key := w.Key()
	if !b.walls.Has(key) {
		return false
	}
	b.walls.Remove(key)
	delete(b.wallList, key)
	return true
}

// Starts returns the start fields in placement order
func (b *Board) Starts() []Field {
	return b.collect(b.starts)
}

// Checkpoints returns the checkpoints in visitation order
func (b *Board) Checkpoints() []Field {
	return b.collect(b.checkpoints)
}

// LembasFields returns the lembas fields in placement order
func (b *Board) LembasFields() []Field {
	return b.collect(b.lembas)
}

// Eye returns the eye field, if one is placed
func (b *Board) Eye() (Field, bool) {
	if b.eye == nil {
		return Field{}, false
	}
	return b.fields[*b.eye], true
}

// FieldsOfKind returns every field of the given kind in row-major order
func (b *Board) FieldsOfKind(kind FieldKind) []Field {
	var out []Field
	for y := 0; y < b.height; y++ {
		for x := 0; x < b.width; x++ {
			if f, ok := b.fields[Position{X: x, Y: y}]; ok && f.Kind == kind {
				out = append(out, f)
			}
		}
	}
	return out
}

// FieldCount returns the number of non-empty cells
func (b *Board) FieldCount() int {
	return len(b.fields)
}

// Walls returns all walls sorted by their canonical key
func (b *Board) Walls() []Wall {
	keys := make([]string, 0, b.walls.Size())
	b.walls.Each(func(key string) {
		keys = append(keys, key)
	})
	slices.Sort(keys)

	walls := make([]Wall, 0, len(keys))
	for _, key := range keys {
		walls = append(walls, b.wallList[key])
	}
	return walls
}

// WallCount returns the number of registered walls
func (b *Board) WallCount() int {
	return b.walls.Size()
}

// Clone returns a deep copy of the board
func (b *Board) Clone() *Board {
	c := &Board{
		width:       b.width,
		height:      b.height,
		fields:      make(map[Position]Field, len(b.fields)),
		walls:       mapset.New[string](),
		wallList:    make(map[string]Wall, len(b.wallList)),
		starts:      slices.Clone(b.starts),
		checkpoints: slices.Clone(b.checkpoints),
		lembas:      slices.Clone(b.lembas),
	}
	for p, f := range b.fields {
		c.fields[p] = f
	}
	for key, w := range b.wallList {
		c.walls.Put(key)
		c.wallList[key] = w
	}
	if b.eye != nil {
		eye := *b.eye
		c.eye = &eye
	}
	return c
}

var renderChars = map[FieldKind]byte{
	Empty:      '.',
	Checkpoint: 'C',
	Start:      'S',
	Eye:        'E',
	Lembas:     'L',
	River:      '~',
	Hole:       'O',
}

// Render returns an ASCII view of the board. Walls are drawn between cells:
// '|' for a vertical edge and '-' below a cell for a horizontal edge.
func (b *Board) Render() string {
	var sb strings.Builder
	for y := 0; y < b.height; y++ {
		for x := 0; x < b.width; x++ {
			p := Position{X: x, Y: y}
			sb.WriteByte(renderChars[b.FieldAt(p).Kind])
			if x < b.width-1 {
				if b.IsWallBetween(p, Position{X: x + 1, Y: y}) {
					sb.WriteByte('|')
				} else {
					sb.WriteByte(' ')
				}
			}
		}
		sb.WriteByte('\n')
		if y == b.height-1 {
			break
		}
		for x := 0; x < b.width; x++ {
			if b.IsWallBetween(Position{X: x, Y: y}, Position{X: x, Y: y + 1}) {
				sb.WriteByte('-')
			} else {
				sb.WriteByte(' ')
			}
			if x < b.width-1 {
				sb.WriteByte(' ')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func (b *Board) collect(positions []Position) []Field {
	out := make([]Field, 0, len(positions))
	for _, p := range positions {
		out = append(out, b.fields[p])
	}
	return out
}

func removePosition(list []Position, p Position) []Position {
	idx := slices.Index(list, p)
	if idx < 0 {
		return list
	}
	return slices.Delete(list, idx, idx+1)
}
