package engine

// ManhattanDistance calculates the Manhattan distance between two positions
func ManhattanDistance(from, to Position) int {
	return abs(from.X-to.X) + abs(from.Y-to.Y)
}

// InteriorEdgeCount returns how many walls a width x height board can hold
func InteriorEdgeCount(width, height int) int {
	if width <= 0 || height <= 0 {
		return 0
	}
	return (width-1)*height + (height-1)*width
}

// Neighbors returns the in-bounds cells that can be entered from p in one
// step: not an obstacle and not behind a wall.
func (b *Board) Neighbors(p Position) []Position {
	var out []Position
	for _, dir := range AllDirections() {
		next := p.Step(dir)
		if !b.InBounds(next) || b.IsObstacle(next) || b.IsWallBetween(p, next) {
			continue
		}
		out = append(out, next)
	}
	return out
}

// CountFieldKind counts the total number of fields of a specific kind on the board
func CountFieldKind(b *Board, kind FieldKind) int {
	if kind == Empty {
		return b.width*b.height - len(b.fields)
	}
	count := 0
	for _, f := range b.fields {
		if f.Kind == kind {
			count++
		}
	}
	return count
}

// ReachableCount returns how many cells can be reached from p, p included.
// Used for diagnostics only; validation goes through FindPath.
func ReachableCount(b *Board, p Position) int {
	if !b.InBounds(p) || b.IsObstacle(p) {
		return 0
	}
	visited := map[Position]bool{p: true}
	queue := []Position{p}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, next := range b.Neighbors(current) {
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}
	return len(visited)
}
