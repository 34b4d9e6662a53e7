package engine

import "slices"

// Line rasterizes the straight segment from a to b with the integer
// Bresenham algorithm. Both endpoints are included and the result always
// runs from a to b.
func Line(a, b Position) []Position {
	x0, y0, x1, y1 := a.X, a.Y, b.X, b.Y

	steep := abs(y1-y0) > abs(x1-x0)
	if steep {
		x0, y0 = y0, x0
		x1, y1 = y1, x1
	}
	reversed := false
	if x0 > x1 {
		x0, x1 = x1, x0
		y0, y1 = y1, y0
		reversed = true
	}

	deltaX := x1 - x0
	deltaY := abs(y1 - y0)
	// deltaX is never negative here, so integer division is floor(deltaX/2)
	errAcc := deltaX / 2
	yStep := -1
	if y0 < y1 {
		yStep = 1
	}

	points := make([]Position, 0, deltaX+1)
	y := y0
	for x := x0; x <= x1; x++ {
		if steep {
			points = append(points, Position{X: y, Y: x})
		} else {
			points = append(points, Position{X: x, Y: y})
		}
		errAcc -= deltaY
		if errAcc < 0 {
			y += yStep
			errAcc += deltaX
		}
	}

	if reversed {
		slices.Reverse(points)
	}
	return points
}

// SightObstructions counts the cells on the line from a to b whose field
// blocks sight. Empty cells count; eye and river cells do not.
func SightObstructions(b *Board, from, to Position) int {
	count := 0
	for _, p := range Line(from, to) {
		if b.FieldAt(p).BlocksSight() {
			count++
		}
	}
	return count
}

// abs returns the absolute value of x
func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
