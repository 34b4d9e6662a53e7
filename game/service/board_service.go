package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wricardo/boardsmith/game/engine"
)

var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrNothingToClear = errors.New("nothing to remove")
)

// BoardService defines all board-related operations
type BoardService interface {
	// Stateless checks
	ValidateBoard(ctx context.Context, config *engine.BoardConfig) (*ValidationReport, error)
	GenerateBoard(ctx context.Context, req GenerateRequest) (*GenerationReport, error)
	FindPath(ctx context.Context, req PathRequest) (*PathReport, error)

	// Session Management
	CreateSession(ctx context.Context, req CreateSessionRequest) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Board editing
	PlaceField(ctx context.Context, sessionID string, req FieldRequest) (*SessionInfo, error)
	ClearField(ctx context.Context, sessionID string, pos engine.Position) (*SessionInfo, error)
	AddWall(ctx context.Context, sessionID string, wall engine.Wall) (*SessionInfo, error)
	RemoveWall(ctx context.Context, sessionID string, wall engine.Wall) (*SessionInfo, error)
	ValidateSession(ctx context.Context, sessionID string) (*ValidationReport, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.BoardConfig, error)
	SaveConfig(ctx context.Context, configName string, config *engine.BoardConfig) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id, configName string, board *engine.Board) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
}

// ConfigManager handles board preset loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.BoardConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.BoardConfig
	SaveConfig(name string, config *engine.BoardConfig) error
}

// Session is one board being edited. Board and Revision are guarded by the
// session's own lock; use Lock and Unlock around any access.
type Session struct {
	ID             string
	ConfigName     string
	Board          *engine.Board
	Revision       int
	CreatedAt      time.Time
	LastAccessedAt time.Time

	mu sync.Mutex
}

// Lock acquires the session's edit lock
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session's edit lock
func (s *Session) Unlock() { s.mu.Unlock() }
