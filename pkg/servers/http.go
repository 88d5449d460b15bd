package servers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/wordgame/fictionary/pkg/game"
	"github.com/wordgame/fictionary/pkg/game/types"
	"github.com/wordgame/fictionary/pkg/log"
	"github.com/wordgame/fictionary/pkg/repositories"
	"github.com/wordgame/fictionary/pkg/repositories/models"
)

// APIServer exposes the game over HTTP. State-changing routes call into
// the manager; read-only theme routes go straight to the repository.
type APIServer struct {
	manager    *game.Manager
	repository repositories.Repository
	gateway    *WSGateway
	port       string
}

type NewAPIServerOptions struct {
	Manager    *game.Manager
	Repository repositories.Repository
	Gateway    *WSGateway
	Port       string
}

func NewAPIServer(opts NewAPIServerOptions) *APIServer {
	return &APIServer{
		manager:    opts.Manager,
		repository: opts.Repository,
		gateway:    opts.Gateway,
		port:       opts.Port,
	}
}

// Start starts the HTTP server.
func (s *APIServer) Start() error {
	r := mux.NewRouter()
	r.HandleFunc("/api/state", s.handleState).Methods(http.MethodGet)
	r.HandleFunc("/api/rounds", s.handleNewRound).Methods(http.MethodPost)
	r.HandleFunc("/api/rounds/candidate", s.handleChooseCandidate).Methods(http.MethodPost)
	r.HandleFunc("/api/rounds/daily", s.handleDailyRound).Methods(http.MethodPost)
	r.HandleFunc("/api/rounds/daily/{author}", s.handleDailyRoundByAuthor).Methods(http.MethodPost)
	r.HandleFunc("/api/rounds/meanings", s.handleSubmitMeaning).Methods(http.MethodPost)
	r.HandleFunc("/api/rounds/bets", s.handlePlaceBet).Methods(http.MethodPost)
	r.HandleFunc("/api/rounds/comments", s.handleAddComment).Methods(http.MethodPost)
	r.HandleFunc("/api/themes", s.handleRegisterTheme).Methods(http.MethodPost)
	r.HandleFunc("/api/themes", s.handleListThemes).Methods(http.MethodGet)
	r.HandleFunc("/api/themes/stock", s.handleThemeStock).Methods(http.MethodGet)
	r.HandleFunc("/api/themes/{reading}", s.handleDeleteTheme).Methods(http.MethodDelete)
	if s.gateway != nil {
		r.HandleFunc("/ws", s.gateway.HandleConnection)
	}

	log.Info("HTTP server listening on :%s", s.port)
	return http.ListenAndServe(":"+s.port, r)
}

func (s *APIServer) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.manager.Status())
}

func (s *APIServer) handleNewRound(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r.Context(), "", s.manager.RequestNewRound(r.Context()))
}

func (s *APIServer) handleChooseCandidate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Reading string `json:"reading"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	s.respond(w, r.Context(), "", s.manager.ChooseCandidate(r.Context(), body.Reading))
}

func (s *APIServer) handleDailyRound(w http.ResponseWriter, r *http.Request) {
	err := s.manager.RequestCuratedRound(r.Context())
	if errors.Is(err, game.ErrBusy) {
		// The request is remembered; report acceptance rather than conflict.
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
		return
	}
	s.respond(w, r.Context(), "", err)
}

func (s *APIServer) handleDailyRoundByAuthor(w http.ResponseWriter, r *http.Request) {
	author := types.PlayerID(mux.Vars(r)["author"])
	s.respond(w, r.Context(), author, s.manager.RequestCuratedRoundByAuthor(r.Context(), author))
}

func (s *APIServer) handleSubmitMeaning(w http.ResponseWriter, r *http.Request) {
	var body struct {
		User types.PlayerID `json:"user"`
		Text string         `json:"text"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	s.respond(w, r.Context(), body.User, s.manager.SubmitMeaning(r.Context(), body.User, body.Text))
}

func (s *APIServer) handlePlaceBet(w http.ResponseWriter, r *http.Request) {
	var body struct {
		User   types.PlayerID `json:"user"`
		Choice int            `json:"choice"`
		Coins  int            `json:"coins"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	s.respond(w, r.Context(), body.User, s.manager.PlaceBet(r.Context(), body.User, body.Choice, body.Coins))
}

func (s *APIServer) handleAddComment(w http.ResponseWriter, r *http.Request) {
	var body struct {
		User types.PlayerID `json:"user"`
		Text string         `json:"text"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	s.respond(w, r.Context(), body.User, s.manager.AddComment(r.Context(), body.User, body.Text))
}

func (s *APIServer) handleRegisterTheme(w http.ResponseWriter, r *http.Request) {
	var record models.ThemeRecord
	if !decodeBody(w, r, &record) {
		return
	}
	s.respond(w, r.Context(), record.Author, s.manager.RegisterTheme(r.Context(), &record))
}

func (s *APIServer) handleListThemes(w http.ResponseWriter, r *http.Request) {
	author := types.PlayerID(r.URL.Query().Get("author"))
	themes, err := s.repository.ListThemes(r.Context(), author)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list themes")
		log.Error("Failed to list themes: %v", err)
		return
	}
	writeJSON(w, http.StatusOK, themes)
}

func (s *APIServer) handleThemeStock(w http.ResponseWriter, r *http.Request) {
	stock, err := s.repository.ThemeStock(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load theme stock")
		log.Error("Failed to load theme stock: %v", err)
		return
	}
	writeJSON(w, http.StatusOK, stock)
}

func (s *APIServer) handleDeleteTheme(w http.ResponseWriter, r *http.Request) {
	reading := mux.Vars(r)["reading"]
	author := types.PlayerID(r.URL.Query().Get("author"))
	deleted, err := s.repository.DeleteTheme(r.Context(), author, reading)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete theme")
		log.Error("Failed to delete theme %q: %v", reading, err)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "no such theme for this author")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// respond maps manager errors to HTTP statuses. Validation problems are
// additionally relayed to the acting user over the gateway, mirroring how
// a chat surface would whisper the rejection.
func (s *APIServer) respond(w http.ResponseWriter, ctx context.Context, user types.PlayerID, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	case errors.Is(err, game.ErrBusy):
		writeError(w, http.StatusConflict, err.Error())
	case game.IsValidation(err):
		if s.gateway != nil && user != "" {
			if gerr := s.gateway.PostEphemeralError(ctx, user, err.Error()); gerr != nil {
				log.Warn("Failed to notify %s of rejection: %v", user, gerr)
			}
		}
		writeError(w, http.StatusBadRequest, err.Error())
	case repositories.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
		log.Error("Request failed: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
