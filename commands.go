package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/boardsmith/game/config"
	"github.com/wricardo/boardsmith/game/engine"
	"github.com/wricardo/boardsmith/game/generator"
)

func (a *app) validateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "check that board files are playable",
		ArgsUsage: "FILE...",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "print one JSON report per file",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			files := cmd.Args().Slice()
			if len(files) == 0 {
				return cli.Exit("validate: at least one board file is required", 2)
			}

			failed, err := validateFiles(a.stdout, files, cmd.Bool("json"))
			if err != nil {
				return err
			}
			if failed > 0 {
				return cli.Exit(fmt.Sprintf("%d of %d boards are not playable", failed, len(files)), 1)
			}
			return nil
		},
	}
}

// fileReport is the validation outcome of one board file
type fileReport struct {
	File           string                   `json:"file"`
	Playable       bool                     `json:"playable"`
	Error          string                   `json:"error,omitempty"`
	StructureError string                   `json:"structure_error,omitempty"`
	Result         *engine.ValidationResult `json:"result,omitempty"`
}

// validateFiles writes a report per file to w and returns how many files
// are not playable. Unreadable and malformed files count as not playable.
func validateFiles(w io.Writer, files []string, asJSON bool) (int, error) {
	failed := 0
	enc := json.NewEncoder(w)

	for _, file := range files {
		report := checkFile(file)
		if !report.Playable {
			failed++
		}

		if asJSON {
			if err := enc.Encode(report); err != nil {
				return failed, fmt.Errorf("failed to write report: %w", err)
			}
			continue
		}

		switch {
		case report.Error != "":
			fmt.Fprintf(w, "%s: ERROR %s\n", file, report.Error)
		case report.Playable:
			fmt.Fprintf(w, "%s: OK (%d searches)\n", file, report.Result.SearchesPerformed)
		case report.StructureError != "" && report.Result.Valid:
			fmt.Fprintf(w, "%s: INVALID %s\n", file, report.StructureError)
		default:
			fmt.Fprintf(w, "%s: INVALID %s\n", file, report.Result.Reason)
		}
	}
	return failed, nil
}

func checkFile(file string) fileReport {
	report := fileReport{File: file}

	cfg, err := engine.LoadBoardConfig(file)
	if err != nil {
		report.Error = err.Error()
		return report
	}
	board, err := cfg.Board()
	if err != nil {
		report.Error = err.Error()
		return report
	}

	result := engine.Validate(board)
	report.Result = &result
	if err := engine.CheckStructure(board); err != nil {
		report.StructureError = err.Error()
	}
	report.Playable = result.Valid && report.StructureError == ""
	return report
}

func (a *app) generateCommand() *cli.Command {
	defaults := generator.DefaultParams()

	return &cli.Command{
		Name:  "generate",
		Usage: "generate a random playable board",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "width", Value: defaults.Width, Usage: "board width"},
			&cli.IntFlag{Name: "height", Value: defaults.Height, Usage: "board height"},
			&cli.IntFlag{Name: "starts", Value: defaults.Starts, Usage: "number of start fields"},
			&cli.IntFlag{Name: "checkpoints", Value: defaults.Checkpoints, Usage: "number of checkpoints"},
			&cli.IntFlag{Name: "lembas", Value: defaults.Lembas, Usage: "number of lembas fields"},
			&cli.IntFlag{Name: "holes", Value: defaults.Holes, Usage: "number of holes"},
			&cli.IntFlag{Name: "rivers", Value: defaults.Rivers, Usage: "number of river fields"},
			&cli.IntFlag{Name: "walls", Value: defaults.Walls, Usage: "number of walls"},
			&cli.IntFlag{Name: "max-lembas", Value: defaults.MaxLembasAmount, Usage: "largest lembas amount"},
			&cli.IntFlag{Name: "max-attempts", Value: defaults.MaxAttempts, Usage: "boards to try before giving up"},
			&cli.DurationFlag{Name: "timeout", Value: defaults.Timeout, Usage: "time limit for the whole run"},
			&cli.Uint64Flag{Name: "seed", Usage: "random seed, 0 picks one"},
			&cli.StringFlag{Name: "name", Usage: "board name"},
			&cli.StringFlag{Name: "out", Usage: "write the board JSON to this file instead of stdout"},
			&cli.StringFlag{Name: "save", Usage: "also store the board as a preset under --config-dir"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			params := generator.Params{
				Width:           cmd.Int("width"),
				Height:          cmd.Int("height"),
				Starts:          cmd.Int("starts"),
				Checkpoints:     cmd.Int("checkpoints"),
				Lembas:          cmd.Int("lembas"),
				Holes:           cmd.Int("holes"),
				Rivers:          cmd.Int("rivers"),
				Walls:           cmd.Int("walls"),
				MaxLembasAmount: cmd.Int("max-lembas"),
				MaxAttempts:     cmd.Int("max-attempts"),
				Timeout:         cmd.Duration("timeout"),
				Seed:            cmd.Uint64("seed"),
			}
			opts := generateOptions{
				name:      cmd.String("name"),
				out:       cmd.String("out"),
				save:      cmd.String("save"),
				configDir: cmd.String("config-dir"),
			}
			return a.generateBoard(ctx, params, opts)
		},
	}
}

type generateOptions struct {
	name      string
	out       string
	save      string
	configDir string
}

// generateBoard runs the generator and writes the board JSON to opts.out or
// stdout. The rendered grid and run statistics go to the log.
func (a *app) generateBoard(ctx context.Context, params generator.Params, opts generateOptions) error {
	gen := generator.New(generator.WithLogger(a.log))
	result, err := gen.Generate(ctx, params)
	if err != nil {
		return err
	}

	cfg := result.Config
	if opts.name != "" {
		cfg.Name = opts.name
	}

	a.log.WithFields(logrus.Fields{
		"attempts": result.Attempts,
		"searches": result.Searches,
		"seed":     result.Seed,
		"duration": result.Duration,
	}).Info("Generated board")
	a.log.Debug("\n" + result.Board.Render())

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal board: %w", err)
	}

	if opts.out != "" {
		if dir := filepath.Dir(opts.out); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}
		if err := os.WriteFile(opts.out, append(data, '\n'), 0644); err != nil {
			return fmt.Errorf("failed to write board: %w", err)
		}
		a.log.WithField("file", opts.out).Info("Board written")
	} else {
		fmt.Fprintln(a.stdout, string(data))
	}

	if opts.save != "" {
		manager, err := config.NewManager(opts.configDir)
		if err != nil {
			return fmt.Errorf("failed to open config dir: %w", err)
		}
		name := strings.TrimSuffix(opts.save, ".json")
		if err := manager.SaveConfig(name, cfg); err != nil {
			return err
		}
		a.log.WithField("preset", name).Info("Board saved")
	}
	return nil
}
