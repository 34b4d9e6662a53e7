package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/wricardo/boardsmith/game/engine"
	"github.com/wricardo/boardsmith/game/generator"
)

// Option configures the board service
type Option func(*boardServiceImpl)

// WithLogger sets the service logger
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *boardServiceImpl) {
		s.log = log
	}
}

// WithGenerator replaces the board generator
func WithGenerator(gen *generator.Generator) Option {
	return func(s *boardServiceImpl) {
		s.generator = gen
	}
}

// boardServiceImpl implements the BoardService interface
type boardServiceImpl struct {
	sessions  SessionManager
	configs   ConfigManager
	generator *generator.Generator
	log       logrus.FieldLogger
}

// NewBoardService creates a new board service instance
func NewBoardService(sessions SessionManager, configs ConfigManager, opts ...Option) BoardService {
	s := &boardServiceImpl{
		sessions: sessions,
		configs:  configs,
		log:      logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.generator == nil {
		s.generator = generator.New(generator.WithLogger(s.log))
	}
	return s
}

// ValidateBoard builds the board described by config and checks it
func (s *boardServiceImpl) ValidateBoard(ctx context.Context, config *engine.BoardConfig) (*ValidationReport, error) {
	if config == nil {
		return nil, fmt.Errorf("%w: board config is required", ErrInvalidRequest)
	}

	board, err := config.Board()
	if err != nil {
		return nil, err
	}

	report := validate(board)
	s.log.WithFields(logrus.Fields{
		"board":    config.Name,
		"valid":    report.Valid,
		"searches": report.SearchesPerformed,
	}).Debug("Board validated")
	return report, nil
}

// GenerateBoard produces a random playable board, optionally storing it as
// a preset or opening a session on it
func (s *boardServiceImpl) GenerateBoard(ctx context.Context, req GenerateRequest) (*GenerationReport, error) {
	params := req.Params
	if req.TimeoutMs > 0 {
		params.Timeout = time.Duration(req.TimeoutMs) * time.Millisecond
	}

	result, err := s.generator.Generate(ctx, params)
	if err != nil {
		return nil, err
	}

	report := &GenerationReport{
		Config:     result.Config,
		Attempts:   result.Attempts,
		Searches:   result.Searches,
		DurationMs: result.Duration.Milliseconds(),
		Seed:       result.Seed,
		Rendered:   result.Board.Render(),
	}

	if req.SaveAs != "" {
		if err := s.configs.SaveConfig(req.SaveAs, result.Config); err != nil {
			return nil, fmt.Errorf("failed to save generated board: %w", err)
		}
		report.SavedAs = req.SaveAs
	}

	if req.OpenSession {
		name := result.Config.Name
		if req.SaveAs != "" {
			name = req.SaveAs
		}
		sess, err := s.sessions.Create("", name, result.Board.Clone())
		if err != nil {
			return nil, fmt.Errorf("failed to create session: %w", err)
		}
		report.SessionID = sess.ID
	}

	return report, nil
}

// FindPath searches a path on a session board or an inline board
func (s *boardServiceImpl) FindPath(ctx context.Context, req PathRequest) (*PathReport, error) {
	var board *engine.Board

	switch {
	case req.SessionID != "":
		sess, err := s.sessions.Get(req.SessionID)
		if err != nil {
			return nil, fmt.Errorf("session not found: %w", err)
		}
		s.sessions.UpdateLastAccessed(req.SessionID)
		sess.Lock()
		board = sess.Board.Clone()
		sess.Unlock()
	case req.Config != nil:
		b, err := req.Config.Board()
		if err != nil {
			return nil, err
		}
		board = b
	default:
		return nil, fmt.Errorf("%w: either session_id or config is required", ErrInvalidRequest)
	}

	for _, p := range []engine.Position{req.From, req.To} {
		if !board.InBounds(p) {
			return nil, fmt.Errorf("%w: %s", engine.ErrOutOfBounds, p)
		}
	}

	result := engine.FindPath(board, req.From, req.To)
	return &PathReport{
		Found:     result.Found(),
		From:      req.From,
		To:        req.To,
		Path:      nonNil(result.Path),
		Explored:  nonNil(result.Explored),
		Cost:      result.Cost,
		Heuristic: engine.Heuristic(board, req.From, req.To),
	}, nil
}

// CreateSession opens a new editing session
func (s *boardServiceImpl) CreateSession(ctx context.Context, req CreateSessionRequest) (*SessionInfo, error) {
	var (
		board      *engine.Board
		configName string
		err        error
	)

	switch {
	case req.Config != nil:
		board, err = req.Config.Board()
		if err != nil {
			return nil, err
		}
		configName = req.Config.Name
	case req.Width > 0 || req.Height > 0:
		board, err = engine.NewBoard(req.Width, req.Height)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
		configName = fmt.Sprintf("blank-%dx%d", req.Width, req.Height)
	default:
		config, err := s.resolveConfig(req.ConfigID)
		if err != nil {
			return nil, err
		}
		board, err = config.Board()
		if err != nil {
			return nil, err
		}
		configName = req.ConfigID
		if configName == "" {
			configName = config.Name
		}
	}

	sess, err := s.sessions.Create(req.SessionID, configName, board)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"session": sess.ID,
		"config":  configName,
	}).Info("Session created")

	return snapshot(sess), nil
}

// resolveConfig loads a preset, listing the available ones when it is missing
func (s *boardServiceImpl) resolveConfig(configID string) (*engine.BoardConfig, error) {
	if configID == "" {
		return s.configs.GetDefault(), nil
	}

	config, err := s.configs.LoadConfig(configID)
	if err == nil {
		return config, nil
	}
	if strings.Contains(err.Error(), "configuration not found") {
		available, listErr := s.configs.ListConfigs()
		if listErr == nil && len(available) > 0 {
			ids := make([]string, 0, len(available))
			for _, info := range available {
				ids = append(ids, info.ConfigID)
			}
			return nil, fmt.Errorf("%w. Available configs: %v", err, ids)
		}
	}
	return nil, fmt.Errorf("failed to load config %s: %w", configID, err)
}

// GetSession retrieves session information
func (s *boardServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	s.sessions.UpdateLastAccessed(sessionID)
	return snapshot(sess), nil
}

// ListSessions returns all active sessions
func (s *boardServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, snapshot(sess))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *boardServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	return s.sessions.Delete(sessionID)
}

// PlaceField puts a field on the session board
func (s *boardServiceImpl) PlaceField(ctx context.Context, sessionID string, req FieldRequest) (*SessionInfo, error) {
	return s.edit(sessionID, "place_field", func(b *engine.Board) error {
		return b.Place(req.Field())
	})
}

// ClearField removes whatever field sits at pos
func (s *boardServiceImpl) ClearField(ctx context.Context, sessionID string, pos engine.Position) (*SessionInfo, error) {
	return s.edit(sessionID, "clear_field", func(b *engine.Board) error {
		if !b.InBounds(pos) {
			return fmt.Errorf("%w: %s", engine.ErrOutOfBounds, pos)
		}
		if _, ok := b.Remove(pos); !ok {
			return fmt.Errorf("%w: no field at %s", ErrNothingToClear, pos)
		}
		return nil
	})
}

// AddWall adds a wall to the session board
func (s *boardServiceImpl) AddWall(ctx context.Context, sessionID string, wall engine.Wall) (*SessionInfo, error) {
	return s.edit(sessionID, "add_wall", func(b *engine.Board) error {
		return b.AddWall(wall)
	})
}

// RemoveWall removes a wall from the session board
func (s *boardServiceImpl) RemoveWall(ctx context.Context, sessionID string, wall engine.Wall) (*SessionInfo, error) {
	return s.edit(sessionID, "remove_wall", func(b *engine.Board) error {
		if !b.RemoveWall(wall) {
			return fmt.Errorf("%w: no wall %s", ErrNothingToClear, wall.Key())
		}
		return nil
	})
}

// ValidateSession checks the current session board
func (s *boardServiceImpl) ValidateSession(ctx context.Context, sessionID string) (*ValidationReport, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)

	sess.Lock()
	defer sess.Unlock()

	report := validate(sess.Board)
	report.SessionID = sess.ID
	report.Revision = sess.Revision
	return report, nil
}

// edit applies one change under the session lock. A failed change leaves
// the board and revision untouched.
func (s *boardServiceImpl) edit(sessionID, op string, apply func(*engine.Board) error) (*SessionInfo, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)

	sess.Lock()
	if err := apply(sess.Board); err != nil {
		sess.Unlock()
		s.log.WithFields(logrus.Fields{
			"session": sess.ID,
			"op":      op,
		}).WithError(err).Debug("Edit rejected")
		return nil, err
	}
	sess.Revision++
	sess.Unlock()

	return snapshot(sess), nil
}

// ListConfigs returns all available presets
func (s *boardServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific preset
func (s *boardServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.BoardConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig stores a preset
func (s *boardServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.BoardConfig) error {
	if config == nil {
		return fmt.Errorf("%w: board config is required", ErrInvalidRequest)
	}
	return s.configs.SaveConfig(configName, config)
}

// snapshot copies the session state under its lock
func snapshot(sess *Session) *SessionInfo {
	sess.Lock()
	defer sess.Unlock()

	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     sess.ConfigName,
		Revision:       sess.Revision,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		Config:         engine.ConfigFromBoard(sess.Board, sess.ConfigName),
		Rendered:       sess.Board.Render(),
	}
}

func validate(board *engine.Board) *ValidationReport {
	began := time.Now()
	report := &ValidationReport{ValidationResult: engine.Validate(board)}
	if err := engine.CheckStructure(board); err != nil {
		report.StructureError = err.Error()
	}
	report.Playable = report.Valid && report.StructureError == ""
	report.Rendered = board.Render()
	report.DurationMs = time.Since(began).Milliseconds()
	return report
}

func nonNil(path []engine.Position) []engine.Position {
	if path == nil {
		return []engine.Position{}
	}
	return path
}
