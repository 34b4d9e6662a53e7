// Command analyze prints quick, human-readable heuristics about the board
// presets in a config directory. It summarizes dimensions and feature counts,
// checks connectivity, and highlights checkpoints whose path to the start
// field takes a long detour compared to the straight Manhattan distance.
//
// Usage:
//
//	go run ./cmd/analyze [CONFIG_DIR]
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/wricardo/boardsmith/game/config"
	"github.com/wricardo/boardsmith/game/engine"
)

// detourFactor marks a path as a detour when it is this many times longer
// than the Manhattan distance
const detourFactor = 2

// RouteStats describes the path from one field to the reference start field
type RouteStats struct {
	Field     engine.Field
	Found     bool
	Cost      int
	Manhattan int
	Explored  int
}

// Detour reports whether the path is much longer than the straight distance
func (r RouteStats) Detour() bool {
	return r.Found && r.Manhattan > 0 && r.Cost >= detourFactor*r.Manhattan
}

// BoardAnalysis is the summary of one preset
type BoardAnalysis struct {
	ConfigID   string
	Name       string
	Width      int
	Height     int
	Counts     map[engine.FieldKind]int
	Walls      int
	Validation engine.ValidationResult
	Structure  error
	Routes     []RouteStats
}

func main() {
	dir := "configs"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	if err := analyzeDir(os.Stdout, dir); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// analyzeDir writes a report for every preset in dir
func analyzeDir(w io.Writer, dir string) error {
	manager, err := config.NewManager(dir)
	if err != nil {
		return err
	}

	configs, err := manager.ListConfigs()
	if err != nil {
		return err
	}
	if len(configs) == 0 {
		fmt.Fprintf(w, "No presets found in %s\n", dir)
		return nil
	}

	for _, info := range configs {
		fmt.Fprintf(w, "\n=== Analyzing %s ===\n", info.Filename)

		cfg, err := manager.LoadConfig(info.ConfigID)
		if err != nil {
			fmt.Fprintf(w, "Error loading preset: %v\n", err)
			continue
		}
		analysis, err := analyzeConfig(info.ConfigID, cfg)
		if err != nil {
			fmt.Fprintf(w, "Error building board: %v\n", err)
			continue
		}
		printAnalysis(w, analysis)
	}
	return nil
}

// analyzeConfig builds the board and runs one search per start, lembas field
// and checkpoint towards the reference start field
func analyzeConfig(configID string, cfg *engine.BoardConfig) (*BoardAnalysis, error) {
	board, err := cfg.Board()
	if err != nil {
		return nil, err
	}

	analysis := &BoardAnalysis{
		ConfigID:   configID,
		Name:       cfg.Name,
		Width:      board.Width(),
		Height:     board.Height(),
		Counts:     make(map[engine.FieldKind]int),
		Walls:      board.WallCount(),
		Validation: engine.Validate(board),
		Structure:  engine.CheckStructure(board),
	}

	for _, kind := range []engine.FieldKind{
		engine.Start, engine.Checkpoint, engine.Eye,
		engine.Lembas, engine.River, engine.Hole,
	} {
		analysis.Counts[kind] = engine.CountFieldKind(board, kind)
	}

	starts := board.Starts()
	if len(starts) == 0 {
		return analysis, nil
	}
	reference := starts[0].Position

	targets := append([]engine.Field{}, starts[1:]...)
	targets = append(targets, board.LembasFields()...)
	targets = append(targets, board.Checkpoints()...)

	for _, field := range targets {
		result := engine.FindPath(board, field.Position, reference)
		stats := RouteStats{
			Field:     field,
			Found:     result.Found(),
			Manhattan: engine.ManhattanDistance(field.Position, reference),
			Explored:  len(result.Explored),
		}
		if stats.Found {
			stats.Cost = result.Cost
		}
		analysis.Routes = append(analysis.Routes, stats)
	}

	return analysis, nil
}

func printAnalysis(w io.Writer, a *BoardAnalysis) {
	fmt.Fprintf(w, "Name: %s\n", a.Name)
	fmt.Fprintf(w, "Board Size: %d x %d\n", a.Width, a.Height)
	fmt.Fprintf(w, "Start Fields: %d\n", a.Counts[engine.Start])
	fmt.Fprintf(w, "Checkpoints: %d\n", a.Counts[engine.Checkpoint])
	fmt.Fprintf(w, "Lembas: %d, Rivers: %d, Holes: %d, Walls: %d\n",
		a.Counts[engine.Lembas], a.Counts[engine.River], a.Counts[engine.Hole], a.Walls)

	if a.Structure != nil {
		fmt.Fprintf(w, "⚠️  STRUCTURE: %v\n", a.Structure)
	}

	if !a.Validation.Valid {
		fmt.Fprintf(w, "⚠️  CRITICAL: %s\n", a.Validation.Reason)
	} else {
		fmt.Fprintf(w, "✅ All fields reach the start field (%d searches)\n", a.Validation.SearchesPerformed)
	}

	detours := 0
	for _, route := range a.Routes {
		if route.Detour() {
			detours++
			fmt.Fprintf(w, "   Detour: %s needs %d steps for distance %d\n", route.Field, route.Cost, route.Manhattan)
		}
	}
	if detours == 0 && a.Validation.Valid {
		fmt.Fprintf(w, "✅ No long detours\n")
	}
}
