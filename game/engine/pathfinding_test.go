package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// obstacleCourse is a 6x6 board with holes, an eye, a river and walls:
//
//	. . . . . .
//	. O O . ~ .
//	. . O .|E .
//	O . . . . .
//	.|. O O O .
//	. . . . . O
func obstacleCourse(t *testing.T) *Board {
	t.Helper()
	b := newTestBoard(t, 6, 6)
	for _, h := range []Position{pos(1, 1), pos(2, 1), pos(2, 2), pos(0, 3), pos(2, 4), pos(3, 4), pos(4, 4), pos(5, 5)} {
		require.NoError(t, b.Place(Field{Kind: Hole, Position: h}))
	}
	require.NoError(t, b.Place(Field{Kind: Eye, Position: pos(4, 2), Direction: West}))
	require.NoError(t, b.Place(Field{Kind: River, Position: pos(4, 1), Direction: South}))
	require.NoError(t, b.AddWall(NewWall(pos(3, 2), pos(4, 2))))
	require.NoError(t, b.AddWall(NewWall(pos(0, 4), pos(1, 4))))
	require.NoError(t, b.AddWall(NewWall(pos(5, 2), pos(5, 3))))
	return b
}

// reachable computes the cells reachable from start with a plain flood fill
func reachable(b *Board, start Position) map[Position]bool {
	seen := map[Position]bool{start: true}
	queue := []Position{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, n := range b.Neighbors(cur) {
			if !seen[n] {
				seen[n] = true
				queue = append(queue, n)
			}
		}
	}
	return seen
}

func assertValidPath(t *testing.T, b *Board, result PathResult, start, goal Position) {
	t.Helper()
	require.True(t, result.Found())
	assert.Equal(t, start, result.Path[0])
	assert.Equal(t, goal, result.Path[len(result.Path)-1])
	assert.Equal(t, len(result.Path)-1, result.Cost)
	for i, p := range result.Path {
		assert.False(t, b.IsObstacle(p), "step %d lands on obstacle %s", i, p)
		if i == 0 {
			continue
		}
		prev := result.Path[i-1]
		assert.True(t, prev.IsAdjacent(p), "steps %s and %s are not adjacent", prev, p)
		assert.False(t, b.IsWallBetween(prev, p), "step %s -> %s crosses a wall", prev, p)
	}
}

func TestFindPath_OpenGrid(t *testing.T) {
	b := newTestBoard(t, 3, 3)

	result := FindPath(b, pos(0, 0), pos(2, 2))
	assertValidPath(t, b, result, pos(0, 0), pos(2, 2))
	assert.Equal(t, 4, result.Cost)

	require.NotEmpty(t, result.Explored)
	assert.Equal(t, pos(0, 0), result.Explored[0])
	assert.Equal(t, pos(2, 2), result.Explored[len(result.Explored)-1])
}

func TestFindPath_GoalIsHole(t *testing.T) {
	b := newTestBoard(t, 3, 3)
	require.NoError(t, b.Place(Field{Kind: Hole, Position: pos(2, 2)}))

	result := FindPath(b, pos(0, 0), pos(2, 2))
	assert.False(t, result.Found())
	assert.Empty(t, result.Path)
}

func TestFindPath_GoalIsEye(t *testing.T) {
	b := newTestBoard(t, 3, 3)
	require.NoError(t, b.Place(Field{Kind: Eye, Position: pos(1, 1), Direction: North}))

	assert.False(t, FindPath(b, pos(0, 0), pos(1, 1)).Found())
}

func TestFindPath_StartEqualsGoal(t *testing.T) {
	b := newTestBoard(t, 3, 3)
	result := FindPath(b, pos(1, 1), pos(1, 1))
	assert.Equal(t, []Position{pos(1, 1)}, result.Path)
	assert.Zero(t, result.Cost)
}

func TestFindPath_OutOfBounds(t *testing.T) {
	b := newTestBoard(t, 3, 3)
	assert.False(t, FindPath(b, pos(0, 0), pos(3, 0)).Found())
	assert.False(t, FindPath(b, pos(-1, 0), pos(2, 2)).Found())
}

func TestFindPath_EnclosedByWalls(t *testing.T) {
	b := newTestBoard(t, 5, 5)
	goal := pos(2, 2)
	for _, d := range AllDirections() {
		require.NoError(t, b.AddWall(NewWall(goal, goal.Step(d))))
	}

	assert.False(t, FindPath(b, pos(0, 0), goal).Found())
	assert.False(t, FindPath(b, goal, pos(0, 0)).Found(), "walls block in both directions")
}

func TestFindPath_EnclosedByObstacles(t *testing.T) {
	b := newTestBoard(t, 5, 5)
	goal := pos(2, 2)
	require.NoError(t, b.Place(Field{Kind: Eye, Position: pos(2, 1), Direction: North}))
	require.NoError(t, b.Place(Field{Kind: Hole, Position: pos(3, 2)}))
	require.NoError(t, b.Place(Field{Kind: Hole, Position: pos(2, 3)}))
	require.NoError(t, b.AddWall(NewWall(goal, pos(1, 2))))

	assert.False(t, FindPath(b, pos(0, 0), goal).Found())
}

func TestFindPath_DetoursAroundWalls(t *testing.T) {
	b := newTestBoard(t, 3, 3)
	require.NoError(t, b.AddWall(NewWall(pos(0, 0), pos(1, 0))))
	require.NoError(t, b.AddWall(NewWall(pos(0, 1), pos(1, 1))))

	result := FindPath(b, pos(0, 0), pos(2, 0))
	assertValidPath(t, b, result, pos(0, 0), pos(2, 0))
	assert.Contains(t, result.Path, pos(0, 2))
	assert.Contains(t, result.Path, pos(1, 2))
}

func TestFindPath_RiversArePassable(t *testing.T) {
	b := newTestBoard(t, 3, 2)
	require.NoError(t, b.Place(Field{Kind: River, Position: pos(1, 0), Direction: East}))
	require.NoError(t, b.Place(Field{Kind: Hole, Position: pos(1, 1)}))

	result := FindPath(b, pos(0, 0), pos(2, 0))
	assertValidPath(t, b, result, pos(0, 0), pos(2, 0))
	assert.Equal(t, []Position{pos(0, 0), pos(1, 0), pos(2, 0)}, result.Path)
}

func TestFindPath_MatchesFloodFill(t *testing.T) {
	b := obstacleCourse(t)

	for sy := 0; sy < b.Height(); sy++ {
		for sx := 0; sx < b.Width(); sx++ {
			start := pos(sx, sy)
			if b.IsObstacle(start) {
				continue
			}
			canReach := reachable(b, start)
			for gy := 0; gy < b.Height(); gy++ {
				for gx := 0; gx < b.Width(); gx++ {
					goal := pos(gx, gy)
					result := FindPath(b, start, goal)
					if canReach[goal] {
						assertValidPath(t, b, result, start, goal)
					} else {
						assert.False(t, result.Found(), "%s -> %s should be unreachable", start, goal)
					}
				}
			}
		}
	}
}

func TestFindPath_Deterministic(t *testing.T) {
	b := obstacleCourse(t)
	first := FindPath(b, pos(0, 0), pos(5, 4))
	require.True(t, first.Found())
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, FindPath(b, pos(0, 0), pos(5, 4)))
	}
}

func TestFindPath_DoesNotMutateBoard(t *testing.T) {
	b := obstacleCourse(t)
	before := b.Render()
	FindPath(b, pos(0, 0), pos(5, 4))
	assert.Equal(t, before, b.Render())
}

func TestHeuristic(t *testing.T) {
	b := newTestBoard(t, 4, 2)
	// (0,0)..(3,0): four empty cells, distance 3
	assert.InDelta(t, 3.0+4*ObstructionPenalty, Heuristic(b, pos(0, 0), pos(3, 0)), 1e-9)

	require.NoError(t, b.Place(Field{Kind: River, Position: pos(1, 0), Direction: East}))
	require.NoError(t, b.Place(Field{Kind: Eye, Position: pos(2, 0), Direction: East}))
	assert.InDelta(t, 3.0+2*ObstructionPenalty, Heuristic(b, pos(0, 0), pos(3, 0)), 1e-9)
}
