// Package generator builds random boards that are guaranteed playable.
//
// Generation is a bounded state machine. Every attempt places the eye, start
// fields, checkpoints, lembas fields, rivers, holes and walls on a fresh board,
// then runs engine.Validate and engine.CheckStructure over it. A rejected board
// is discarded and the next attempt reshuffles everything. When MaxAttempts or
// the timeout runs out Generate returns ErrGenerationExhausted; it never
// returns a board that failed validation.
//
//	gen := generator.New(generator.WithLogger(log))
//	params := generator.DefaultParams()
//	params.Seed = 42
//
//	result, err := gen.Generate(ctx, params)
//	if errors.Is(err, generator.ErrGenerationExhausted) {
//		// lower the density and try again
//	}
package generator
