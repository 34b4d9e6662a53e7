package engine

import (
	"errors"
	"fmt"
)

var (
	ErrNoStartField = errors.New("board has no start field")
	ErrNoEye        = errors.New("board has no eye")
)

// ValidationResult reports whether every required field can reach the
// reference start field, and how many searches it took to find out.
type ValidationResult struct {
	Valid             bool   `json:"valid"`
	SearchesPerformed int    `json:"searches_performed"`
	Reason            string `json:"reason,omitempty"`
	Unreachable       *Field `json:"unreachable,omitempty"`
}

// Validate checks full connectivity of the board. The first start field is
// the reference; every other start, every lembas field and every checkpoint
// must be connected to it. The first failure ends the check.
func Validate(b *Board) ValidationResult {
	return ValidateFields(b.Starts(), b.LembasFields(), b.Checkpoints(), b)
}

// ValidateFields runs the connectivity check over explicit field lists.
// Starts are searched from the reference outward; lembas fields and
// checkpoints are searched towards the reference.
func ValidateFields(starts, lembas, checkpoints []Field, b *Board) ValidationResult {
	result := ValidationResult{Valid: true}
	if len(starts) == 0 {
		result.Valid = false
		result.Reason = ErrNoStartField.Error()
		return result
	}
	reference := starts[0].Position

	fail := func(f Field) ValidationResult {
		unreachable := f
		result.Valid = false
		result.Unreachable = &unreachable
		result.Reason = fmt.Sprintf("%s cannot reach the start field at %s", f, reference)
		return result
	}

	for _, start := range starts[1:] {
		result.SearchesPerformed++
		if !FindPath(b, reference, start.Position).Found() {
			return fail(start)
		}
	}
	for _, field := range lembas {
		result.SearchesPerformed++
		if !FindPath(b, field.Position, reference).Found() {
			return fail(field)
		}
	}
	for _, checkpoint := range checkpoints {
		result.SearchesPerformed++
		if !FindPath(b, checkpoint.Position, reference).Found() {
			return fail(checkpoint)
		}
	}

	return result
}

// CheckStructure verifies the feature counts a playable board needs: at
// least one start field, at least one checkpoint and exactly one eye.
func CheckStructure(b *Board) error {
	if len(b.starts) == 0 {
		return ErrNoStartField
	}
	if b.eye == nil {
		return ErrNoEye
	}
	if len(b.checkpoints) == 0 {
		return fmt.Errorf("%w: board has no checkpoint", ErrInvalidField)
	}
	return nil
}
