package api

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/wricardo/boardsmith/game/config"
	"github.com/wricardo/boardsmith/game/engine"
	"github.com/wricardo/boardsmith/game/generator"
	"github.com/wricardo/boardsmith/game/service"
	"github.com/wricardo/boardsmith/game/session"
	"github.com/wricardo/boardsmith/transport/websocket"
)

// Server represents the REST API server
type Server struct {
	service service.BoardService
	hub     *websocket.Hub
	router  *mux.Router
	log     logrus.FieldLogger
}

// NewServer creates a new API server. hub may be nil when no live updates
// are needed; a nil logger uses the standard one.
func NewServer(boardService service.BoardService, hub *websocket.Hub, log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Server{
		service: boardService,
		hub:     hub,
		router:  mux.NewRouter(),
		log:     log.WithField("component", "api"),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.Use(s.requestLogger)

	api := s.router.PathPrefix("/api").Subrouter()

	// Stateless board operations
	api.HandleFunc("/validate", s.handleValidate).Methods("POST")
	api.HandleFunc("/generate", s.handleGenerate).Methods("POST")
	api.HandleFunc("/path", s.handleFindPath).Methods("POST")
	api.HandleFunc("/schema", s.handleSchema).Methods("GET")

	// Session management
	api.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods("DELETE")

	// Board editing
	api.HandleFunc("/sessions/{id}/fields", s.handlePlaceField).Methods("POST")
	api.HandleFunc("/sessions/{id}/fields", s.handleClearField).Methods("DELETE")
	api.HandleFunc("/sessions/{id}/walls", s.handleAddWall).Methods("POST")
	api.HandleFunc("/sessions/{id}/walls", s.handleRemoveWall).Methods("DELETE")
	api.HandleFunc("/sessions/{id}/validate", s.handleValidateSession).Methods("POST")

	// Configuration
	api.HandleFunc("/configs", s.handleListConfigs).Methods("GET")
	api.HandleFunc("/configs", s.handleCreateConfig).Methods("POST")
	api.HandleFunc("/configs/{name}", s.handleGetConfig).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// requestLogger tags every request with an ID and logs it once served
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		began := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     rec.status,
			"duration":   time.Since(began),
		}).Debug("Request served")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Hijack lets the WebSocket upgrade pass through the recorder
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hijacker.Hijack()
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]interface{}{
		"error": message,
		"code":  status,
	})
}

// respondServiceError maps service and engine errors to HTTP status codes
func respondServiceError(w http.ResponseWriter, err error) {
	respondError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, config.ErrConfigNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrSessionAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, generator.ErrGenerationExhausted),
		errors.Is(err, config.ErrUnplayableConfig):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, service.ErrNothingToClear),
		errors.Is(err, session.ErrInvalidSessionID),
		errors.Is(err, generator.ErrInvalidParams),
		errors.Is(err, config.ErrInvalidConfig),
		errors.Is(err, config.ErrInvalidConfigName),
		errors.Is(err, engine.ErrInvalidConfig),
		errors.Is(err, engine.ErrInvalidSize),
		errors.Is(err, engine.ErrOutOfBounds),
		errors.Is(err, engine.ErrCellOccupied),
		errors.Is(err, engine.ErrEyeAlreadyPlaced),
		errors.Is(err, engine.ErrInvalidField),
		errors.Is(err, engine.ErrInvalidWall),
		errors.Is(err, engine.ErrInvalidDirection):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return fmt.Errorf("%w: request body is required", service.ErrInvalidRequest)
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", service.ErrInvalidRequest, err)
	}
	return nil
}

func (s *Server) broadcast(sessionID, event string, data interface{}) {
	if s.hub != nil {
		s.hub.Broadcast(sessionID, event, data)
	}
}

// Board Handlers

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var boardConfig engine.BoardConfig
	if err := decodeBody(r, &boardConfig); err != nil {
		respondServiceError(w, err)
		return
	}

	report, err := s.service.ValidateBoard(r.Context(), &boardConfig)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, report)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	req := service.NewGenerateRequest()
	if r.ContentLength != 0 {
		if err := decodeBody(r, &req); err != nil {
			respondServiceError(w, err)
			return
		}
	}

	report, err := s.service.GenerateBoard(r.Context(), req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.log.WithFields(logrus.Fields{
		"seed":     report.Seed,
		"attempts": report.Attempts,
		"session":  report.SessionID,
	}).Info("Board generated via API")

	respondJSON(w, http.StatusCreated, report)
}

func (s *Server) handleFindPath(w http.ResponseWriter, r *http.Request) {
	var req service.PathRequest
	if err := decodeBody(r, &req); err != nil {
		respondServiceError(w, err)
		return
	}

	report, err := s.service.FindPath(r.Context(), req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, report)
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, BoardConfigSchema())
}

// Session Handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req service.CreateSessionRequest
	if r.ContentLength != 0 {
		if err := decodeBody(r, &req); err != nil {
			respondServiceError(w, err)
			return
		}
	}

	info, err := s.service.CreateSession(r.Context(), req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, info)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	total := len(sessions)

	query := r.URL.Query()
	sortBy := query.Get("sort") // "created", "accessed" (default)
	order := query.Get("order") // "asc", "desc" (default)
	if sortBy == "" {
		sortBy = "accessed"
	}
	if order == "" {
		order = "desc"
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		var ti, tj time.Time
		if sortBy == "created" {
			ti, tj = sessions[i].CreatedAt, sessions[j].CreatedAt
		} else {
			ti, tj = sessions[i].LastAccessedAt, sessions[j].LastAccessedAt
		}
		if order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})

	if configName := query.Get("config"); configName != "" {
		filtered := sessions[:0]
		for _, info := range sessions {
			if info.ConfigName == configName {
				filtered = append(filtered, info)
			}
		}
		sessions = filtered
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < len(sessions) {
			sessions = sessions[:l]
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(sessions),
		"total":    total,
		"sessions": sessions,
		"sort":     sortBy,
		"order":    order,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	info, err := s.service.GetSession(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if err := s.service.DeleteSession(r.Context(), sessionID); err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcast(sessionID, websocket.EventSessionDeleted, nil)
	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Session %s deleted", sessionID),
	})
}

// Editing Handlers

// positionRequest names the cell a field is cleared from
type positionRequest struct {
	Position engine.Position `json:"position"`
}

// wallRequest names the wall to add or remove
type wallRequest struct {
	Wall engine.Wall `json:"wall"`
}

func (s *Server) handlePlaceField(w http.ResponseWriter, r *http.Request) {
	var req service.FieldRequest
	if err := decodeBody(r, &req); err != nil {
		respondServiceError(w, err)
		return
	}

	s.respondEdit(w, r, func(sessionID string) (*service.SessionInfo, error) {
		return s.service.PlaceField(r.Context(), sessionID, req)
	})
}

func (s *Server) handleClearField(w http.ResponseWriter, r *http.Request) {
	var req positionRequest
	if err := decodeBody(r, &req); err != nil {
		respondServiceError(w, err)
		return
	}

	s.respondEdit(w, r, func(sessionID string) (*service.SessionInfo, error) {
		return s.service.ClearField(r.Context(), sessionID, req.Position)
	})
}

func (s *Server) handleAddWall(w http.ResponseWriter, r *http.Request) {
	var req wallRequest
	if err := decodeBody(r, &req); err != nil {
		respondServiceError(w, err)
		return
	}

	s.respondEdit(w, r, func(sessionID string) (*service.SessionInfo, error) {
		return s.service.AddWall(r.Context(), sessionID, req.Wall)
	})
}

func (s *Server) handleRemoveWall(w http.ResponseWriter, r *http.Request) {
	var req wallRequest
	if err := decodeBody(r, &req); err != nil {
		respondServiceError(w, err)
		return
	}

	s.respondEdit(w, r, func(sessionID string) (*service.SessionInfo, error) {
		return s.service.RemoveWall(r.Context(), sessionID, req.Wall)
	})
}

// respondEdit runs one edit and pushes the new board to watching clients
func (s *Server) respondEdit(w http.ResponseWriter, r *http.Request, edit func(sessionID string) (*service.SessionInfo, error)) {
	sessionID := mux.Vars(r)["id"]

	info, err := edit(sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcast(sessionID, websocket.EventBoardUpdate, info)
	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleValidateSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	report, err := s.service.ValidateSession(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcast(sessionID, websocket.EventValidation, report)
	respondJSON(w, http.StatusOK, report)
}

// Configuration Handlers

func (s *Server) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := s.service.ListConfigs(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, configs)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	configName := strings.TrimSuffix(mux.Vars(r)["name"], ".json")

	boardConfig, err := s.service.LoadConfig(r.Context(), configName)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, boardConfig)
}

func (s *Server) handleCreateConfig(w http.ResponseWriter, r *http.Request) {
	var boardConfig engine.BoardConfig
	if err := decodeBody(r, &boardConfig); err != nil {
		respondServiceError(w, err)
		return
	}

	if boardConfig.Name == "" {
		respondError(w, http.StatusBadRequest, "Config name is required")
		return
	}

	if err := s.service.SaveConfig(r.Context(), boardConfig.Name, &boardConfig); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":   "Configuration saved successfully",
		"config_id": boardConfig.Name,
	})
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		respondError(w, http.StatusServiceUnavailable, "live updates are disabled")
		return
	}

	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "session parameter required")
		return
	}

	if _, err := s.service.GetSession(r.Context(), sessionID); err != nil {
		respondServiceError(w, err)
		return
	}

	s.hub.ServeWS(w, r, sessionID)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
