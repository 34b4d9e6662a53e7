package generator

import (
	"math/rand/v2"

	"github.com/wricardo/boardsmith/game/engine"
)

// cellPicker hands out distinct cells in random order
type cellPicker struct {
	rng   *rand.Rand
	cells []engine.Position
}

func newCellPicker(rng *rand.Rand, width, height int) *cellPicker {
	cells := make([]engine.Position, 0, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			cells = append(cells, engine.Position{X: x, Y: y})
		}
	}
	return &cellPicker{rng: rng, cells: cells}
}

// next removes and returns a random remaining cell
func (c *cellPicker) next() engine.Position {
	i := c.rng.IntN(len(c.cells))
	p := c.cells[i]
	last := len(c.cells) - 1
	c.cells[i] = c.cells[last]
	c.cells = c.cells[:last]
	return p
}

func randomDirection(rng *rand.Rand) engine.Direction {
	dirs := engine.AllDirections()
	return dirs[rng.IntN(len(dirs))]
}

// interiorEdges lists every wall slot of the board in row-major order
func interiorEdges(width, height int) []engine.Wall {
	edges := make([]engine.Wall, 0, engine.InteriorEdgeCount(width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			p := engine.Position{X: x, Y: y}
			if x+1 < width {
				edges = append(edges, engine.NewWall(p, p.Step(engine.East)))
			}
			if y+1 < height {
				edges = append(edges, engine.NewWall(p, p.Step(engine.South)))
			}
		}
	}
	return edges
}

// place builds one candidate board. Every feature takes a cell no other
// feature holds and walls only go on interior edges, so the board is
// geometrically consistent before it is validated.
func place(rng *rand.Rand, p Params) (*engine.Board, error) {
	b, err := engine.NewBoard(p.Width, p.Height)
	if err != nil {
		return nil, err
	}
	cells := newCellPicker(rng, p.Width, p.Height)

	put := func(f engine.Field) error {
		f.Position = cells.next()
		return b.Place(f)
	}

	if err := put(engine.Field{Kind: engine.Eye, Direction: randomDirection(rng)}); err != nil {
		return nil, err
	}
	for range p.Starts {
		if err := put(engine.Field{Kind: engine.Start, Direction: randomDirection(rng)}); err != nil {
			return nil, err
		}
	}
	for range p.Checkpoints {
		if err := put(engine.Field{Kind: engine.Checkpoint}); err != nil {
			return nil, err
		}
	}
	for range p.Lembas {
		if err := put(engine.Field{Kind: engine.Lembas, Amount: 1 + rng.IntN(p.MaxLembasAmount)}); err != nil {
			return nil, err
		}
	}
	for range p.Rivers {
		if err := put(engine.Field{Kind: engine.River, Direction: randomDirection(rng)}); err != nil {
			return nil, err
		}
	}
	for range p.Holes {
		if err := put(engine.Field{Kind: engine.Hole}); err != nil {
			return nil, err
		}
	}

	edges := interiorEdges(p.Width, p.Height)
	rng.Shuffle(len(edges), func(i, j int) {
		edges[i], edges[j] = edges[j], edges[i]
	})
	for _, w := range edges[:p.Walls] {
		if err := b.AddWall(w); err != nil {
			return nil, err
		}
	}

	return b, nil
}
