package generator

import (
	"errors"
	"fmt"
	"time"

	"github.com/wricardo/boardsmith/game/engine"
)

var (
	ErrInvalidParams       = errors.New("invalid generation parameters")
	ErrGenerationExhausted = errors.New("no valid board found within the attempt budget")
)

const (
	DefaultWidth           = 10
	DefaultHeight          = 10
	DefaultStarts          = 2
	DefaultCheckpoints     = 3
	DefaultLembas          = 2
	DefaultHoles           = 6
	DefaultRivers          = 6
	DefaultWalls           = 8
	DefaultMaxLembasAmount = 5
	DefaultMaxAttempts     = 200
	DefaultTimeout         = 5 * time.Second
)

// Params describes the board to generate. Width, Height, Starts,
// Checkpoints, MaxLembasAmount, MaxAttempts and Timeout fall back to their
// defaults when zero. The optional feature counts (Lembas, Holes, Rivers,
// Walls) are taken as given, so start from DefaultParams to keep the default
// density.
type Params struct {
	Width           int           `json:"width"`
	Height          int           `json:"height"`
	Starts          int           `json:"starts"`
	Checkpoints     int           `json:"checkpoints"`
	Lembas          int           `json:"lembas"`
	Holes           int           `json:"holes"`
	Rivers          int           `json:"rivers"`
	Walls           int           `json:"walls"`
	MaxLembasAmount int           `json:"max_lembas_amount"`
	MaxAttempts     int           `json:"max_attempts"`
	Timeout         time.Duration `json:"-"`
	// Seed selects the random stream; zero picks a fresh one
	Seed uint64 `json:"seed,omitempty"`
}

// DefaultParams returns the default board size and feature density
func DefaultParams() Params {
	return Params{
		Width:           DefaultWidth,
		Height:          DefaultHeight,
		Starts:          DefaultStarts,
		Checkpoints:     DefaultCheckpoints,
		Lembas:          DefaultLembas,
		Holes:           DefaultHoles,
		Rivers:          DefaultRivers,
		Walls:           DefaultWalls,
		MaxLembasAmount: DefaultMaxLembasAmount,
		MaxAttempts:     DefaultMaxAttempts,
		Timeout:         DefaultTimeout,
	}
}

func (p Params) withDefaults() Params {
	if p.Width == 0 {
		p.Width = DefaultWidth
	}
	if p.Height == 0 {
		p.Height = DefaultHeight
	}
	if p.Starts == 0 {
		p.Starts = DefaultStarts
	}
	if p.Checkpoints == 0 {
		p.Checkpoints = DefaultCheckpoints
	}
	if p.MaxLembasAmount == 0 {
		p.MaxLembasAmount = DefaultMaxLembasAmount
	}
	if p.MaxAttempts == 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.Timeout == 0 {
		p.Timeout = DefaultTimeout
	}
	return p
}

// CellsNeeded is the number of cells the features occupy, the eye included
func (p Params) CellsNeeded() int {
	return 1 + p.Starts + p.Checkpoints + p.Lembas + p.Rivers + p.Holes
}

// Validate rejects parameters no board can satisfy
func (p Params) Validate() error {
	if p.Width < engine.MinBoardSize || p.Width > engine.MaxBoardSize ||
		p.Height < engine.MinBoardSize || p.Height > engine.MaxBoardSize {
		return fmt.Errorf("%w: board size %dx%d outside %d..%d", ErrInvalidParams,
			p.Width, p.Height, engine.MinBoardSize, engine.MaxBoardSize)
	}
	if p.Starts < 1 || p.Checkpoints < 1 {
		return fmt.Errorf("%w: need at least one start field and one checkpoint", ErrInvalidParams)
	}
	if p.Lembas < 0 || p.Holes < 0 || p.Rivers < 0 || p.Walls < 0 {
		return fmt.Errorf("%w: feature counts cannot be negative", ErrInvalidParams)
	}
	if p.MaxLembasAmount < 1 {
		return fmt.Errorf("%w: max lembas amount must be positive", ErrInvalidParams)
	}
	if p.MaxAttempts < 1 || p.Timeout < 0 {
		return fmt.Errorf("%w: attempt budget must be positive", ErrInvalidParams)
	}
	if cells, capacity := p.CellsNeeded(), p.Width*p.Height; cells > capacity {
		return fmt.Errorf("%w: %d features do not fit on %d cells", ErrInvalidParams, cells, capacity)
	}
	if edges := engine.InteriorEdgeCount(p.Width, p.Height); p.Walls > edges {
		return fmt.Errorf("%w: %d walls exceed the %d interior edges", ErrInvalidParams, p.Walls, edges)
	}
	return nil
}
