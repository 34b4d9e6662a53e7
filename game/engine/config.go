package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidConfig marks a board configuration that cannot be turned into a board
var ErrInvalidConfig = errors.New("invalid board configuration")

// DirectedPosition is a position paired with a facing direction
type DirectedPosition struct {
	Position  Position  `json:"position"`
	Direction Direction `json:"direction"`
}

// LembasPosition is a lembas field position with its amount
type LembasPosition struct {
	Position Position `json:"position"`
	Amount   int      `json:"amount"`
}

// BoardConfig is the board configuration payload exchanged with editors and
// stored in preset files. Its structural shape is assumed to be schema-valid;
// Board() enforces the geometric rules.
type BoardConfig struct {
	Name         string             `json:"name"`
	Description  string             `json:"description,omitempty"`
	Width        int                `json:"width"`
	Height       int                `json:"height"`
	StartFields  []DirectedPosition `json:"startFields"`
	CheckPoints  []Position         `json:"checkPoints"`
	Eye          *DirectedPosition  `json:"eye,omitempty"`
	LembasFields []LembasPosition   `json:"lembasFields,omitempty"`
	RiverFields  []DirectedPosition `json:"riverFields,omitempty"`
	Holes        []Position         `json:"holes,omitempty"`
	Walls        []Wall             `json:"walls,omitempty"`
}

// Board builds the grid model described by the configuration. Placement
// order is eye, start fields, checkpoints, lembas, rivers, holes, walls;
// the first conflicting placement is reported.
func (c *BoardConfig) Board() (*Board, error) {
	b, err := NewBoard(c.Width, c.Height)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	place := func(f Field) error {
		if err := b.Place(f); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		return nil
	}

	if c.Eye != nil {
		if err := place(Field{Kind: Eye, Position: c.Eye.Position, Direction: c.Eye.Direction}); err != nil {
			return nil, err
		}
	}
	for _, s := range c.StartFields {
		if err := place(Field{Kind: Start, Position: s.Position, Direction: s.Direction}); err != nil {
			return nil, err
		}
	}
	for _, cp := range c.CheckPoints {
		if err := place(Field{Kind: Checkpoint, Position: cp}); err != nil {
			return nil, err
		}
	}
	for _, l := range c.LembasFields {
		if err := place(Field{Kind: Lembas, Position: l.Position, Amount: l.Amount}); err != nil {
			return nil, err
		}
	}
	for _, r := range c.RiverFields {
		if err := place(Field{Kind: River, Position: r.Position, Direction: r.Direction}); err != nil {
			return nil, err
		}
	}
	for _, h := range c.Holes {
		if err := place(Field{Kind: Hole, Position: h}); err != nil {
			return nil, err
		}
	}
	for _, w := range c.Walls {
		if err := b.AddWall(w); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}

	return b, nil
}

// ConfigFromBoard produces the configuration payload for a board
func ConfigFromBoard(b *Board, name string) *BoardConfig {
	c := &BoardConfig{
		Name:        name,
		Width:       b.Width(),
		Height:      b.Height(),
		StartFields: []DirectedPosition{},
		CheckPoints: []Position{},
	}
	if eye, ok := b.Eye(); ok {
		c.Eye = &DirectedPosition{Position: eye.Position, Direction: eye.Direction}
	}
	for _, s := range b.Starts() {
		c.StartFields = append(c.StartFields, DirectedPosition{Position: s.Position, Direction: s.Direction})
	}
	for _, cp := range b.Checkpoints() {
		c.CheckPoints = append(c.CheckPoints, cp.Position)
	}
	for _, l := range b.LembasFields() {
		c.LembasFields = append(c.LembasFields, LembasPosition{Position: l.Position, Amount: l.Amount})
	}
	for _, r := range b.FieldsOfKind(River) {
		c.RiverFields = append(c.RiverFields, DirectedPosition{Position: r.Position, Direction: r.Direction})
	}
	for _, h := range b.FieldsOfKind(Hole) {
		c.Holes = append(c.Holes, h.Position)
	}
	c.Walls = b.Walls()
	return c
}

// ParseBoardConfig decodes a configuration payload and checks it builds a board
func ParseBoardConfig(data []byte) (*BoardConfig, error) {
	var config BoardConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := config.Board(); err != nil {
		return nil, err
	}
	return &config, nil
}

// LoadBoardConfig loads a board configuration from a JSON file
func LoadBoardConfig(filename string) (*BoardConfig, error) {
	// Support CONFIG_DIR environment variable for alternative config directory
	configPath := filename
	if configDir := os.Getenv("CONFIG_DIR"); configDir != "" {
		if strings.HasPrefix(filename, "configs/") {
			configPath = filepath.Join(configDir, strings.TrimPrefix(filename, "configs/"))
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	config, err := ParseBoardConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(configPath), err)
	}
	if config.Name == "" {
		config.Name = strings.TrimSuffix(filepath.Base(configPath), filepath.Ext(configPath))
	}
	return config, nil
}
