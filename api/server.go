package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/wricardo/blueblock/game/engine"
	"github.com/wricardo/blueblock/game/service"
	"github.com/wricardo/blueblock/game/solver"
	"github.com/wricardo/blueblock/transport/websocket"
)

// Server represents the REST API server
type Server struct {
	service service.SolverService
	hub     *websocket.Hub
	router  *mux.Router
	logger  *slog.Logger
}

// NewServer creates a new API server
func NewServer(solverService service.SolverService, hub *websocket.Hub) *Server {
	s := &Server{
		service: solverService,
		hub:     hub,
		router:  mux.NewRouter(),
		logger:  slog.Default().With("component", "api"),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Solving
	api.HandleFunc("/solve", s.handleSolve).Methods("POST")
	api.HandleFunc("/compress", s.handleCompress).Methods("POST")

	// Runs
	api.HandleFunc("/runs", s.handleListRuns).Methods("GET")
	api.HandleFunc("/runs/{id}", s.handleGetRun).Methods("GET")
	api.HandleFunc("/runs/{id}", s.handleDeleteRun).Methods("DELETE")

	// Puzzle library
	api.HandleFunc("/puzzles", s.handleListPuzzles).Methods("GET")
	api.HandleFunc("/puzzles", s.handleCreatePuzzle).Methods("POST")
	api.HandleFunc("/puzzles/{name}", s.handleGetPuzzle).Methods("GET")

	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Router exposes the router so callers can mount extra handlers.
func (s *Server) Router() *mux.Router {
	return s.router
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps service errors onto HTTP status codes.
func respondServiceError(w http.ResponseWriter, err error) {
	respondError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, solver.ErrSearchAborted):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// decodeBody decodes an optional JSON body; an empty body leaves v as is.
func decodeBody(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// Solve Handlers

func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	var req service.SolveRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	run, err := s.service.Solve(r.Context(), req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if s.hub != nil {
		s.hub.BroadcastRun(run)
	}

	s.logger.Info("solve",
		"run", run.ID,
		"puzzle", run.Puzzle,
		"status", run.Status,
		"moves", run.Moves,
		"explored", run.Explored,
		"duration_ms", run.DurationMS,
	)

	respondJSON(w, http.StatusCreated, run)
}

func (s *Server) handleCompress(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path string `json:"path"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.service.Compress(r.Context(), req.Path)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Run Handlers

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.service.ListRuns(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	query := r.URL.Query()
	total := len(runs)

	if puzzle := query.Get("puzzle"); puzzle != "" {
		filtered := make([]*service.RunInfo, 0, len(runs))
		for _, run := range runs {
			if run.Puzzle == puzzle {
				filtered = append(filtered, run)
			}
		}
		runs = filtered
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < len(runs) {
			runs = runs[:l]
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(runs),
		"total": total,
		"runs":  runs,
	})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["id"]

	run, err := s.service.GetRun(r.Context(), runID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, run)
}

func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["id"]

	if err := s.service.DeleteRun(r.Context(), runID); err != nil {
		respondServiceError(w, err)
		return
	}

	if s.hub != nil {
		s.hub.BroadcastEvent(websocket.TopicRuns, websocket.EventRunDeleted, map[string]string{"id": runID})
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Run %s deleted", runID),
	})
}

// Puzzle Handlers

func (s *Server) handleListPuzzles(w http.ResponseWriter, r *http.Request) {
	puzzles, err := s.service.ListPuzzles(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(puzzles),
		"puzzles": puzzles,
	})
}

func (s *Server) handleGetPuzzle(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	puzzle, err := s.service.LoadPuzzle(r.Context(), name)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, puzzle)
}

func (s *Server) handleCreatePuzzle(w http.ResponseWriter, r *http.Request) {
	var puzzle engine.PuzzleConfig
	if err := json.NewDecoder(r.Body).Decode(&puzzle); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// The puzzle ID defaults to its name.
	id := r.URL.Query().Get("id")
	if id == "" {
		id = puzzle.Name
	}
	if id == "" {
		respondError(w, http.StatusBadRequest, "Puzzle name is required")
		return
	}

	if err := s.service.SavePuzzle(r.Context(), id, &puzzle); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":   "Puzzle saved successfully",
		"puzzle_id": id,
	})
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	topic := r.URL.Query().Get("topic")
	if topic == "" {
		http.Error(w, "topic parameter required", http.StatusBadRequest)
		return
	}

	if topic != websocket.TopicRuns {
		if _, err := s.service.LoadPuzzle(r.Context(), topic); err != nil {
			http.Error(w, "Unknown puzzle topic", http.StatusNotFound)
			return
		}
	}

	s.hub.ServeWS(w, r, topic)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
