// Package engine provides the board model and the playability checks for the
// board editor.
//
// The engine package implements:
//   - The grid model: fields, walls and O(1) obstacle and wall lookups
//   - Compass direction conversion to and from its text and numeric forms
//   - A* path search that respects obstacles and wall edges
//   - Bresenham line rasterization used by the search heuristic
//   - Reachability validation of start, lembas and checkpoint fields
//   - Board configuration payload decoding
//
// Core Types:
//
// Board holds the placed fields and walls. Field is a tagged variant selected
// by FieldKind; eye and hole fields are obstacles, rivers are passable. Wall is
// an edge between two adjacent cells, stored once for both orientations.
// BoardConfig is the JSON payload editors exchange.
//
// Usage:
//
//	config, err := engine.LoadBoardConfig("configs/classic.json")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	board, err := config.Board()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result := engine.Validate(board)
//	fmt.Println(result.Valid, result.SearchesPerformed)
//
// Search Semantics:
//
// FindPath never fails with an error. An unreachable goal yields an empty
// PathResult and Validate turns that into an invalid board. The heuristic adds
// a penalty of ObstructionPenalty per sight-blocking cell on the straight line
// to the goal, so the path found is a good one rather than a provably shortest
// one. Eye and river cells never count against sight even though the eye
// cannot be entered.
package engine
