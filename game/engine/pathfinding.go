package engine

import (
	"math"
	"slices"

	"github.com/zyedidia/generic/heap"
	"github.com/zyedidia/generic/mapset"
)

// PathResult is the outcome of a path search. An empty Path means the goal
// is unreachable; that is a normal result, not an error.
type PathResult struct {
	// Path is the route from start to goal, each step adjacent to the last
	Path []Position `json:"path"`
	// Explored lists the expanded cells in expansion order, ending with the goal
	Explored []Position `json:"explored"`
	// Cost is the number of steps along Path
	Cost int `json:"cost"`
}

// Found reports whether a path was discovered
func (r PathResult) Found() bool {
	return len(r.Path) > 0
}

type searchNode struct {
	pos      Position
	cost     int
	estimate float64
	seq      int
}

// searchLess orders by estimate, then by insertion so the earliest entry wins ties
func searchLess(a, b searchNode) bool {
	if a.estimate != b.estimate {
		return a.estimate < b.estimate
	}
	return a.seq < b.seq
}

// Heuristic estimates the remaining cost from p to goal: the Euclidean
// distance plus ObstructionPenalty for every sight-blocking cell on the
// straight line between them. It is a bias, not an admissible bound.
func Heuristic(b *Board, p, goal Position) float64 {
	dx := float64(p.X - goal.X)
	dy := float64(p.Y - goal.Y)
	return math.Hypot(dx, dy) + float64(ObstructionPenalty*SightObstructions(b, p, goal))
}

// FindPath runs an A* search from start to goal on the 4-connected grid,
// never entering obstacles and never crossing walls. All working state is
// allocated per call, so concurrent searches over an unchanging board are safe.
func FindPath(b *Board, start, goal Position) PathResult {
	if !b.InBounds(start) || !b.InBounds(goal) {
		return PathResult{}
	}
	if start == goal {
		return PathResult{Path: []Position{start}, Explored: []Position{start}}
	}
	if b.IsObstacle(goal) {
		return PathResult{}
	}

	frontier := heap.New[searchNode](searchLess)
	queued := mapset.New[Position]()
	explored := mapset.New[Position]()
	cameFrom := make(map[Position]Position)
	var order []Position

	seq := 0
	frontier.Push(searchNode{pos: start, cost: 0, estimate: Heuristic(b, start, goal), seq: seq})
	queued.Put(start)

	for frontier.Size() > 0 {
		current, _ := frontier.Pop()
		queued.Remove(current.pos)
		explored.Put(current.pos)
		order = append(order, current.pos)

		if current.pos == goal {
			return PathResult{
				Path:     reconstructPath(cameFrom, start, goal),
				Explored: order,
				Cost:     current.cost,
			}
		}

		for _, dir := range AllDirections() {
			next := current.pos.Step(dir)
			if !b.InBounds(next) || b.IsObstacle(next) || b.IsWallBetween(current.pos, next) {
				continue
			}
			if explored.Has(next) || queued.Has(next) {
				continue
			}
			seq++
			cost := current.cost + 1
			frontier.Push(searchNode{
				pos:      next,
				cost:     cost,
				estimate: float64(cost) + Heuristic(b, next, goal),
				seq:      seq,
			})
			queued.Put(next)
			cameFrom[next] = current.pos
		}
	}

	return PathResult{}
}

// reconstructPath walks parent links back from goal to start
func reconstructPath(cameFrom map[Position]Position, start, goal Position) []Position {
	path := []Position{goal}
	for current := goal; current != start; {
		current = cameFrom[current]
		path = append(path, current)
	}
	slices.Reverse(path)
	return path
}
