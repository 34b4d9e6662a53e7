package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/wricardo/boardsmith/game/config"
	"github.com/wricardo/boardsmith/game/engine"
	"github.com/wricardo/boardsmith/game/generator"
	"github.com/wricardo/boardsmith/game/service"
	"github.com/wricardo/boardsmith/game/session"
	"github.com/wricardo/boardsmith/transport/websocket"
)

// MockBoardService implements service.BoardService for testing
type MockBoardService struct {
	ValidateBoardFunc   func(ctx context.Context, config *engine.BoardConfig) (*service.ValidationReport, error)
	GenerateBoardFunc   func(ctx context.Context, req service.GenerateRequest) (*service.GenerationReport, error)
	FindPathFunc        func(ctx context.Context, req service.PathRequest) (*service.PathReport, error)
	CreateSessionFunc   func(ctx context.Context, req service.CreateSessionRequest) (*service.SessionInfo, error)
	GetSessionFunc      func(ctx context.Context, sessionID string) (*service.SessionInfo, error)
	ListSessionsFunc    func(ctx context.Context) ([]*service.SessionInfo, error)
	DeleteSessionFunc   func(ctx context.Context, sessionID string) error
	PlaceFieldFunc      func(ctx context.Context, sessionID string, req service.FieldRequest) (*service.SessionInfo, error)
	ClearFieldFunc      func(ctx context.Context, sessionID string, pos engine.Position) (*service.SessionInfo, error)
	AddWallFunc         func(ctx context.Context, sessionID string, wall engine.Wall) (*service.SessionInfo, error)
	RemoveWallFunc      func(ctx context.Context, sessionID string, wall engine.Wall) (*service.SessionInfo, error)
	ValidateSessionFunc func(ctx context.Context, sessionID string) (*service.ValidationReport, error)
	ListConfigsFunc     func(ctx context.Context) ([]*service.ConfigInfo, error)
	LoadConfigFunc      func(ctx context.Context, configName string) (*engine.BoardConfig, error)
	SaveConfigFunc      func(ctx context.Context, configName string, config *engine.BoardConfig) error
}

func (m *MockBoardService) ValidateBoard(ctx context.Context, config *engine.BoardConfig) (*service.ValidationReport, error) {
	if m.ValidateBoardFunc != nil {
		return m.ValidateBoardFunc(ctx, config)
	}
	return &service.ValidationReport{Playable: true}, nil
}

func (m *MockBoardService) GenerateBoard(ctx context.Context, req service.GenerateRequest) (*service.GenerationReport, error) {
	if m.GenerateBoardFunc != nil {
		return m.GenerateBoardFunc(ctx, req)
	}
	return &service.GenerationReport{Attempts: 1, Seed: req.Seed}, nil
}

func (m *MockBoardService) FindPath(ctx context.Context, req service.PathRequest) (*service.PathReport, error) {
	if m.FindPathFunc != nil {
		return m.FindPathFunc(ctx, req)
	}
	return &service.PathReport{From: req.From, To: req.To, Path: []engine.Position{}, Explored: []engine.Position{}}, nil
}

func (m *MockBoardService) CreateSession(ctx context.Context, req service.CreateSessionRequest) (*service.SessionInfo, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, req)
	}
	return &service.SessionInfo{ID: "test-session", ConfigName: req.ConfigID, CreatedAt: time.Now()}, nil
}

func (m *MockBoardService) GetSession(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, sessionID)
	}
	return &service.SessionInfo{ID: sessionID, ConfigName: "test-config", CreatedAt: time.Now()}, nil
}

func (m *MockBoardService) ListSessions(ctx context.Context) ([]*service.SessionInfo, error) {
	if m.ListSessionsFunc != nil {
		return m.ListSessionsFunc(ctx)
	}
	return []*service.SessionInfo{}, nil
}

func (m *MockBoardService) DeleteSession(ctx context.Context, sessionID string) error {
	if m.DeleteSessionFunc != nil {
		return m.DeleteSessionFunc(ctx, sessionID)
	}
	return nil
}

func (m *MockBoardService) PlaceField(ctx context.Context, sessionID string, req service.FieldRequest) (*service.SessionInfo, error) {
	if m.PlaceFieldFunc != nil {
		return m.PlaceFieldFunc(ctx, sessionID, req)
	}
	return &service.SessionInfo{ID: sessionID, Revision: 1}, nil
}

func (m *MockBoardService) ClearField(ctx context.Context, sessionID string, pos engine.Position) (*service.SessionInfo, error) {
	if m.ClearFieldFunc != nil {
		return m.ClearFieldFunc(ctx, sessionID, pos)
	}
	return &service.SessionInfo{ID: sessionID, Revision: 1}, nil
}

func (m *MockBoardService) AddWall(ctx context.Context, sessionID string, wall engine.Wall) (*service.SessionInfo, error) {
	if m.AddWallFunc != nil {
		return m.AddWallFunc(ctx, sessionID, wall)
	}
	return &service.SessionInfo{ID: sessionID, Revision: 1}, nil
}

func (m *MockBoardService) RemoveWall(ctx context.Context, sessionID string, wall engine.Wall) (*service.SessionInfo, error) {
	if m.RemoveWallFunc != nil {
		return m.RemoveWallFunc(ctx, sessionID, wall)
	}
	return &service.SessionInfo{ID: sessionID, Revision: 1}, nil
}

func (m *MockBoardService) ValidateSession(ctx context.Context, sessionID string) (*service.ValidationReport, error) {
	if m.ValidateSessionFunc != nil {
		return m.ValidateSessionFunc(ctx, sessionID)
	}
	return &service.ValidationReport{SessionID: sessionID, Playable: true}, nil
}

func (m *MockBoardService) ListConfigs(ctx context.Context) ([]*service.ConfigInfo, error) {
	if m.ListConfigsFunc != nil {
		return m.ListConfigsFunc(ctx)
	}
	return []*service.ConfigInfo{}, nil
}

func (m *MockBoardService) LoadConfig(ctx context.Context, configName string) (*engine.BoardConfig, error) {
	if m.LoadConfigFunc != nil {
		return m.LoadConfigFunc(ctx, configName)
	}
	return &engine.BoardConfig{Name: configName, Width: 3, Height: 3}, nil
}

func (m *MockBoardService) SaveConfig(ctx context.Context, configName string, config *engine.BoardConfig) error {
	if m.SaveConfigFunc != nil {
		return m.SaveConfigFunc(ctx, configName, config)
	}
	return nil
}

// Test helpers
func setupTestServer(mockService service.BoardService) *Server {
	log, _ := test.NewNullLogger()
	return NewServer(mockService, nil, log)
}

func makeRequest(method, path string, body interface{}) *http.Request {
	var bodyBytes []byte
	switch b := body.(type) {
	case nil:
	case string:
		bodyBytes = []byte(b)
	default:
		bodyBytes, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewBuffer(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), target); err != nil {
		t.Fatalf("Failed to parse response: %v (body %s)", err, w.Body.String())
	}
}

func serve(server *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)
	return w
}

const smallBoardJSON = `{
	"name": "small",
	"width": 3,
	"height": 3,
	"startFields": [{"position": [0, 0], "direction": "EAST"}],
	"checkPoints": [[2, 2]],
	"eye": {"position": [1, 1], "direction": "SOUTH"}
}`

// Board Operation Tests

func TestValidateBoard(t *testing.T) {
	t.Run("decodes the board config", func(t *testing.T) {
		mock := &MockBoardService{
			ValidateBoardFunc: func(ctx context.Context, cfg *engine.BoardConfig) (*service.ValidationReport, error) {
				if cfg.Name != "small" || cfg.Width != 3 || len(cfg.StartFields) != 1 {
					t.Errorf("Unexpected config: %+v", cfg)
				}
				if cfg.Eye == nil || cfg.Eye.Direction != engine.South {
					t.Errorf("Expected eye facing south, got %+v", cfg.Eye)
				}
				return &service.ValidationReport{
					ValidationResult: engine.ValidationResult{Valid: true, SearchesPerformed: 1},
					Playable:         true,
				}, nil
			},
		}

		w := serve(setupTestServer(mock), makeRequest("POST", "/api/validate", smallBoardJSON))
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
		}

		var resp map[string]interface{}
		parseResponse(t, w, &resp)
		if resp["playable"] != true {
			t.Errorf("Expected playable true, got %v", resp["playable"])
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		w := serve(setupTestServer(&MockBoardService{}), makeRequest("POST", "/api/validate", `{"width": "wide"`))
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", w.Code)
		}
	})
}

func TestGenerateBoard(t *testing.T) {
	t.Run("defaults fill omitted parameters", func(t *testing.T) {
		mock := &MockBoardService{
			GenerateBoardFunc: func(ctx context.Context, req service.GenerateRequest) (*service.GenerationReport, error) {
				defaults := generator.DefaultParams()
				if req.Width != 12 {
					t.Errorf("Expected width 12, got %d", req.Width)
				}
				if req.Height != defaults.Height || req.Walls != defaults.Walls {
					t.Errorf("Expected default height and walls, got %+v", req.Params)
				}
				if req.Seed != 42 || !req.OpenSession {
					t.Errorf("Unexpected request: %+v", req)
				}
				return &service.GenerationReport{Seed: req.Seed, Attempts: 2, SessionID: "gen1"}, nil
			},
		}

		w := serve(setupTestServer(mock), makeRequest("POST", "/api/generate", `{"width": 12, "seed": 42, "open_session": true}`))
		if w.Code != http.StatusCreated {
			t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
		}

		var resp service.GenerationReport
		parseResponse(t, w, &resp)
		if resp.SessionID != "gen1" || resp.Attempts != 2 {
			t.Errorf("Unexpected report: %+v", resp)
		}
	})

	t.Run("empty body uses defaults", func(t *testing.T) {
		mock := &MockBoardService{
			GenerateBoardFunc: func(ctx context.Context, req service.GenerateRequest) (*service.GenerationReport, error) {
				if req.Params != generator.DefaultParams() {
					t.Errorf("Expected default params, got %+v", req.Params)
				}
				return &service.GenerationReport{}, nil
			},
		}

		w := serve(setupTestServer(mock), makeRequest("POST", "/api/generate", nil))
		if w.Code != http.StatusCreated {
			t.Errorf("Expected status 201, got %d", w.Code)
		}
	})
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"session missing", fmt.Errorf("session not found: %w", session.ErrSessionNotFound), http.StatusNotFound},
		{"config missing", fmt.Errorf("%w: hard", config.ErrConfigNotFound), http.StatusNotFound},
		{"duplicate session", session.ErrSessionAlreadyExists, http.StatusConflict},
		{"exhausted", fmt.Errorf("%w after 5 attempts", generator.ErrGenerationExhausted), http.StatusUnprocessableEntity},
		{"bad params", generator.ErrInvalidParams, http.StatusBadRequest},
		{"occupied", fmt.Errorf("%w: (1,1)", engine.ErrCellOccupied), http.StatusBadRequest},
		{"out of bounds", engine.ErrOutOfBounds, http.StatusBadRequest},
		{"bad config", fmt.Errorf("%w: %w", engine.ErrInvalidConfig, engine.ErrInvalidSize), http.StatusBadRequest},
		{"nothing to clear", service.ErrNothingToClear, http.StatusBadRequest},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &MockBoardService{
				GenerateBoardFunc: func(ctx context.Context, req service.GenerateRequest) (*service.GenerationReport, error) {
					return nil, tt.err
				},
			}

			w := serve(setupTestServer(mock), makeRequest("POST", "/api/generate", nil))
			if w.Code != tt.expected {
				t.Errorf("Expected status %d, got %d", tt.expected, w.Code)
			}

			var resp map[string]interface{}
			parseResponse(t, w, &resp)
			if resp["error"] != tt.err.Error() {
				t.Errorf("Expected error %q, got %v", tt.err.Error(), resp["error"])
			}
		})
	}
}

func TestFindPath(t *testing.T) {
	mock := &MockBoardService{
		FindPathFunc: func(ctx context.Context, req service.PathRequest) (*service.PathReport, error) {
			if req.SessionID != "abc" {
				t.Errorf("Expected session abc, got %q", req.SessionID)
			}
			if req.From != (engine.Position{X: 0, Y: 0}) || req.To != (engine.Position{X: 2, Y: 1}) {
				t.Errorf("Unexpected endpoints %s -> %s", req.From, req.To)
			}
			return &service.PathReport{Found: true, Path: []engine.Position{{X: 0, Y: 0}, {X: 1, Y: 0}}, Cost: 3}, nil
		},
	}

	w := serve(setupTestServer(mock), makeRequest("POST", "/api/path", `{"session_id": "abc", "from": [0, 0], "to": [2, 1]}`))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]interface{}
	parseResponse(t, w, &resp)
	path, ok := resp["path"].([]interface{})
	if !ok || len(path) != 2 {
		t.Fatalf("Expected a 2 step path, got %v", resp["path"])
	}
	if first, ok := path[0].([]interface{}); !ok || len(first) != 2 {
		t.Errorf("Expected positions encoded as [x, y], got %v", path[0])
	}
}

func TestSchema(t *testing.T) {
	w := serve(setupTestServer(&MockBoardService{}), makeRequest("GET", "/api/schema", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var schema map[string]interface{}
	parseResponse(t, w, &schema)

	props, ok := schema["properties"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected properties in schema, got %v", schema)
	}
	for _, key := range []string{"width", "height", "startFields", "checkPoints", "eye", "walls"} {
		if _, ok := props[key]; !ok {
			t.Errorf("Schema is missing property %q", key)
		}
	}

	checkPoints := props["checkPoints"].(map[string]interface{})
	items := checkPoints["items"].(map[string]interface{})
	if items["type"] != "array" {
		t.Errorf("Expected checkpoints to be [x, y] arrays, got %v", items)
	}
}

// Session Management Tests

func TestCreateSession(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    interface{}
		setupMock      func(*MockBoardService)
		expectedStatus int
	}{
		{
			name:        "default config",
			requestBody: nil,
			setupMock: func(m *MockBoardService) {
				m.CreateSessionFunc = func(ctx context.Context, req service.CreateSessionRequest) (*service.SessionInfo, error) {
					if req.ConfigID != "" || req.Config != nil {
						t.Errorf("Expected empty request, got %+v", req)
					}
					return &service.SessionInfo{ID: "sess-123"}, nil
				}
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:        "blank board",
			requestBody: map[string]interface{}{"width": 6, "height": 4, "session_id": "mine"},
			setupMock: func(m *MockBoardService) {
				m.CreateSessionFunc = func(ctx context.Context, req service.CreateSessionRequest) (*service.SessionInfo, error) {
					if req.Width != 6 || req.Height != 4 || req.SessionID != "mine" {
						t.Errorf("Unexpected request: %+v", req)
					}
					return &service.SessionInfo{ID: "mine"}, nil
				}
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:        "duplicate ID",
			requestBody: map[string]string{"session_id": "taken"},
			setupMock: func(m *MockBoardService) {
				m.CreateSessionFunc = func(ctx context.Context, req service.CreateSessionRequest) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("failed to create session: %w", session.ErrSessionAlreadyExists)
				}
			},
			expectedStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &MockBoardService{}
			tt.setupMock(mock)

			w := serve(setupTestServer(mock), makeRequest("POST", "/api/sessions", tt.requestBody))
			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestListSessions(t *testing.T) {
	now := time.Now()
	mock := &MockBoardService{
		ListSessionsFunc: func(ctx context.Context) ([]*service.SessionInfo, error) {
			return []*service.SessionInfo{
				{ID: "old", ConfigName: "classic", CreatedAt: now.Add(-2 * time.Hour), LastAccessedAt: now.Add(-time.Hour)},
				{ID: "new", ConfigName: "classic", CreatedAt: now.Add(-time.Minute), LastAccessedAt: now},
				{ID: "other", ConfigName: "maze", CreatedAt: now.Add(-time.Hour), LastAccessedAt: now.Add(-30 * time.Minute)},
			}, nil
		},
	}
	server := setupTestServer(mock)

	type listResponse struct {
		Count    int                    `json:"count"`
		Total    int                    `json:"total"`
		Sessions []*service.SessionInfo `json:"sessions"`
	}

	t.Run("most recently accessed first", func(t *testing.T) {
		var resp listResponse
		parseResponse(t, serve(server, makeRequest("GET", "/api/sessions", nil)), &resp)
		if resp.Count != 3 || resp.Sessions[0].ID != "new" || resp.Sessions[2].ID != "old" {
			t.Errorf("Unexpected order: %+v", resp.Sessions)
		}
	})

	t.Run("created ascending with limit", func(t *testing.T) {
		var resp listResponse
		parseResponse(t, serve(server, makeRequest("GET", "/api/sessions?sort=created&order=asc&limit=2", nil)), &resp)
		if resp.Count != 2 || resp.Total != 3 {
			t.Fatalf("Expected 2 of 3 sessions, got %d of %d", resp.Count, resp.Total)
		}
		if resp.Sessions[0].ID != "old" || resp.Sessions[1].ID != "other" {
			t.Errorf("Unexpected order: %s, %s", resp.Sessions[0].ID, resp.Sessions[1].ID)
		}
	})

	t.Run("filter by config", func(t *testing.T) {
		var resp listResponse
		parseResponse(t, serve(server, makeRequest("GET", "/api/sessions?config=maze", nil)), &resp)
		if resp.Count != 1 || resp.Sessions[0].ID != "other" {
			t.Errorf("Expected only the maze session, got %+v", resp.Sessions)
		}
	})
}

func TestGetAndDeleteSession(t *testing.T) {
	mock := &MockBoardService{
		GetSessionFunc: func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
			if sessionID == "missing" {
				return nil, fmt.Errorf("session not found: %w", session.ErrSessionNotFound)
			}
			return &service.SessionInfo{ID: sessionID, Rendered: "S.\n.C\n"}, nil
		},
		DeleteSessionFunc: func(ctx context.Context, sessionID string) error {
			if sessionID == "missing" {
				return session.ErrSessionNotFound
			}
			return nil
		},
	}
	server := setupTestServer(mock)

	if w := serve(server, makeRequest("GET", "/api/sessions/abc", nil)); w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if w := serve(server, makeRequest("GET", "/api/sessions/missing", nil)); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
	if w := serve(server, makeRequest("DELETE", "/api/sessions/abc", nil)); w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if w := serve(server, makeRequest("DELETE", "/api/sessions/missing", nil)); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

// Editing Tests

func TestEditRoutes(t *testing.T) {
	var calls []string
	mock := &MockBoardService{
		PlaceFieldFunc: func(ctx context.Context, sessionID string, req service.FieldRequest) (*service.SessionInfo, error) {
			calls = append(calls, "place")
			if req.Kind != engine.Lembas || req.Amount != 3 || req.Position != (engine.Position{X: 2, Y: 1}) {
				t.Errorf("Unexpected field request: %+v", req)
			}
			return &service.SessionInfo{ID: sessionID, Revision: 1}, nil
		},
		ClearFieldFunc: func(ctx context.Context, sessionID string, pos engine.Position) (*service.SessionInfo, error) {
			calls = append(calls, "clear")
			if pos != (engine.Position{X: 2, Y: 1}) {
				t.Errorf("Unexpected position %s", pos)
			}
			return &service.SessionInfo{ID: sessionID, Revision: 2}, nil
		},
		AddWallFunc: func(ctx context.Context, sessionID string, wall engine.Wall) (*service.SessionInfo, error) {
			calls = append(calls, "add_wall")
			if wall.Key() != engine.NewWall(engine.Position{X: 1, Y: 0}, engine.Position{X: 0, Y: 0}).Key() {
				t.Errorf("Unexpected wall %s", wall.Key())
			}
			return &service.SessionInfo{ID: sessionID, Revision: 3}, nil
		},
		RemoveWallFunc: func(ctx context.Context, sessionID string, wall engine.Wall) (*service.SessionInfo, error) {
			calls = append(calls, "remove_wall")
			return nil, fmt.Errorf("%w: no wall %s", service.ErrNothingToClear, wall.Key())
		},
	}
	server := setupTestServer(mock)

	steps := []struct {
		method string
		path   string
		body   string
		status int
	}{
		{"POST", "/api/sessions/abc/fields", `{"kind": "lembas", "position": [2, 1], "amount": 3}`, http.StatusOK},
		{"DELETE", "/api/sessions/abc/fields", `{"position": [2, 1]}`, http.StatusOK},
		{"POST", "/api/sessions/abc/walls", `{"wall": [[0, 0], [1, 0]]}`, http.StatusOK},
		{"DELETE", "/api/sessions/abc/walls", `{"wall": [[0, 0], [0, 1]]}`, http.StatusBadRequest},
		{"POST", "/api/sessions/abc/fields", `{"kind": "dragon", "position": [0, 0]}`, http.StatusBadRequest},
	}

	for _, step := range steps {
		w := serve(server, makeRequest(step.method, step.path, step.body))
		if w.Code != step.status {
			t.Errorf("%s %s: expected status %d, got %d: %s", step.method, step.path, step.status, w.Code, w.Body.String())
		}
	}

	want := []string{"place", "clear", "add_wall", "remove_wall"}
	if strings.Join(calls, ",") != strings.Join(want, ",") {
		t.Errorf("Expected calls %v, got %v", want, calls)
	}
}

// Configuration Tests

func TestConfigRoutes(t *testing.T) {
	var saved *engine.BoardConfig
	mock := &MockBoardService{
		ListConfigsFunc: func(ctx context.Context) ([]*service.ConfigInfo, error) {
			return []*service.ConfigInfo{{ConfigID: "classic", Width: 10, Height: 10}}, nil
		},
		LoadConfigFunc: func(ctx context.Context, name string) (*engine.BoardConfig, error) {
			if name != "classic" {
				return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, name)
			}
			return &engine.BoardConfig{Name: "classic", Width: 10, Height: 10}, nil
		},
		SaveConfigFunc: func(ctx context.Context, name string, cfg *engine.BoardConfig) error {
			saved = cfg
			return nil
		},
	}
	server := setupTestServer(mock)

	var infos []service.ConfigInfo
	parseResponse(t, serve(server, makeRequest("GET", "/api/configs", nil)), &infos)
	if len(infos) != 1 || infos[0].ConfigID != "classic" {
		t.Errorf("Unexpected config list: %+v", infos)
	}

	if w := serve(server, makeRequest("GET", "/api/configs/classic.json", nil)); w.Code != http.StatusOK {
		t.Errorf("Expected status 200 for classic.json, got %d", w.Code)
	}
	if w := serve(server, makeRequest("GET", "/api/configs/hard", nil)); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for hard, got %d", w.Code)
	}

	w := serve(server, makeRequest("POST", "/api/configs", smallBoardJSON))
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	if saved == nil || saved.Name != "small" {
		t.Errorf("Expected small to be saved, got %+v", saved)
	}

	if w := serve(server, makeRequest("POST", "/api/configs", `{"width": 3, "height": 3}`)); w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 without a name, got %d", w.Code)
	}
}

func TestHealthAndRequestID(t *testing.T) {
	w := serve(setupTestServer(&MockBoardService{}), makeRequest("GET", "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("Expected a generated request ID")
	}

	req := makeRequest("GET", "/health", nil)
	req.Header.Set("X-Request-ID", "trace-1")
	if got := serve(setupTestServer(&MockBoardService{}), req).Header().Get("X-Request-ID"); got != "trace-1" {
		t.Errorf("Expected request ID to be echoed, got %q", got)
	}
}

func TestWebSocketRequiresSession(t *testing.T) {
	log, _ := test.NewNullLogger()
	mock := &MockBoardService{
		GetSessionFunc: func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
			return nil, session.ErrSessionNotFound
		},
	}
	server := NewServer(mock, websocket.NewHub(log), log)

	if w := serve(server, makeRequest("GET", "/ws", nil)); w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 without session, got %d", w.Code)
	}
	if w := serve(server, makeRequest("GET", "/ws?session=nope", nil)); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for unknown session, got %d", w.Code)
	}
}

// End-to-end: real service, session and config managers, live WebSocket
func TestEditBroadcastsBoardUpdate(t *testing.T) {
	log, _ := test.NewNullLogger()

	configs, err := config.NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create config manager: %v", err)
	}
	svc := service.NewBoardService(session.NewManager(), configs, service.WithLogger(log))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := websocket.NewHub(log)
	go hub.Run(ctx)

	httpServer := httptest.NewServer(NewServer(svc, hub, log))
	defer httpServer.Close()

	resp, err := http.Post(httpServer.URL+"/api/sessions", "application/json", strings.NewReader(`{"session_id": "live"}`))
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", resp.StatusCode)
	}

	wsURL := "ws" + strings.TrimPrefix(httpServer.URL, "http") + "/ws?session=live"
	conn, _, err := gorillaws.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to dial WebSocket: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for {
		n, err := hub.ClientCount(ctx, "live")
		if err != nil {
			t.Fatalf("ClientCount failed: %v", err)
		}
		if n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("WebSocket client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	resp, err = http.Post(httpServer.URL+"/api/sessions/live/fields", "application/json",
		strings.NewReader(`{"kind": "hole", "position": [0, 2]}`))
	if err != nil {
		t.Fatalf("Failed to place field: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg struct {
		Event string              `json:"event"`
		Data  service.SessionInfo `json:"data"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("Failed to read update: %v", err)
	}
	if msg.Event != websocket.EventBoardUpdate {
		t.Errorf("Expected %s, got %s", websocket.EventBoardUpdate, msg.Event)
	}
	if msg.Data.Revision != 1 {
		t.Errorf("Expected revision 1, got %d", msg.Data.Revision)
	}
	if len(msg.Data.Config.Holes) != 1 {
		t.Errorf("Expected the new hole in the pushed board, got %+v", msg.Data.Config.Holes)
	}
}
