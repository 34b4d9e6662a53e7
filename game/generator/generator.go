package generator

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/wricardo/boardsmith/game/engine"
)

// Result is a finished board and the work it took to find it
type Result struct {
	Board    *engine.Board       `json:"-"`
	Config   *engine.BoardConfig `json:"config"`
	Attempts int                 `json:"attempts"`
	Searches int                 `json:"searches"`
	Duration time.Duration       `json:"duration"`
	Seed     uint64              `json:"seed"`
}

// Option configures a Generator
type Option func(*Generator)

// WithLogger sets the logger used for attempt and summary entries
func WithLogger(log logrus.FieldLogger) Option {
	return func(g *Generator) {
		g.log = log
	}
}

// WithOnComplete registers a callback invoked once per Generate call with
// either the result or the failure
func WithOnComplete(fn func(*Result, error)) Option {
	return func(g *Generator) {
		g.onComplete = fn
	}
}

// WithTransitionHook registers a callback invoked on every state change
func WithTransitionHook(fn func(state State, attempt int)) Option {
	return func(g *Generator) {
		g.onTransition = fn
	}
}

// Generator produces random boards that always pass validation
type Generator struct {
	log          logrus.FieldLogger
	onComplete   func(*Result, error)
	onTransition func(State, int)
}

// New creates a Generator
func New(opts ...Option) *Generator {
	g := &Generator{log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate runs the placement and validation loop until a board passes or
// the attempt budget runs out. Each attempt reshuffles the whole board from
// the same random stream, so a fixed seed always yields the same board.
func (g *Generator) Generate(ctx context.Context, params Params) (*Result, error) {
	p := params.withDefaults()
	if err := p.Validate(); err != nil {
		g.complete(nil, err)
		return nil, err
	}
	if p.Seed == 0 {
		p.Seed = rand.Uint64()
	}

	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	log := g.log.WithFields(logrus.Fields{
		"width":  p.Width,
		"height": p.Height,
		"seed":   p.Seed,
	})
	rng := rand.New(rand.NewPCG(p.Seed, p.Seed^0x9e3779b97f4a7c15))
	began := time.Now()

	var (
		board    *engine.Board
		attempts int
		searches int
		reason   string
		failure  error
	)

	state := StatePlacing
	for {
		g.transition(state, attempts)

		switch state {
		case StatePlacing:
			if err := ctx.Err(); err != nil {
				failure = errors.Join(fmt.Errorf("%w after %d attempts", ErrGenerationExhausted, attempts), err)
				state = StateFailed
				continue
			}
			attempts++
			b, err := place(rng, p)
			if err != nil {
				// placement only picks free cells and interior edges
				failure = fmt.Errorf("attempt %d: %w", attempts, err)
				state = StateFailed
				continue
			}
			board = b
			state = StateValidating

		case StateValidating:
			result := engine.Validate(board)
			searches += result.SearchesPerformed
			if !result.Valid {
				reason = result.Reason
				state = StateRetry
				continue
			}
			if err := engine.CheckStructure(board); err != nil {
				reason = err.Error()
				state = StateRetry
				continue
			}
			state = StateDone

		case StateRetry:
			log.WithFields(logrus.Fields{
				"attempt":  attempts,
				"searches": searches,
				"reason":   reason,
			}).Debug("Generated board rejected")
			if attempts >= p.MaxAttempts {
				failure = fmt.Errorf("%w after %d attempts", ErrGenerationExhausted, attempts)
				state = StateFailed
				continue
			}
			state = StatePlacing

		case StateDone:
			result := &Result{
				Board:    board,
				Config:   engine.ConfigFromBoard(board, fmt.Sprintf("random-%d", p.Seed)),
				Attempts: attempts,
				Searches: searches,
				Duration: time.Since(began),
				Seed:     p.Seed,
			}
			log.WithFields(logrus.Fields{
				"attempts": attempts,
				"searches": searches,
				"duration": result.Duration,
			}).Info("Board generated")
			g.complete(result, nil)
			return result, nil

		case StateFailed:
			log.WithFields(logrus.Fields{
				"attempts": attempts,
				"searches": searches,
				"duration": time.Since(began),
			}).WithError(failure).Warn("Board generation failed")
			g.complete(nil, failure)
			return nil, failure
		}
	}
}

func (g *Generator) transition(state State, attempt int) {
	if g.onTransition != nil {
		g.onTransition(state, attempt)
	}
}

func (g *Generator) complete(result *Result, err error) {
	if g.onComplete != nil {
		g.onComplete(result, err)
	}
}

// Generate runs a Generator with default options
func Generate(ctx context.Context, params Params) (*Result, error) {
	return New().Generate(ctx, params)
}
