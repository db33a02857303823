package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"faceit-dashboard/internal/domain"
	"faceit-dashboard/internal/repository"
	"faceit-dashboard/internal/service"

	"github.com/rs/zerolog"
)

// Server is the JSON HTTP surface the dashboard UI talks to.
type Server struct {
	friends *service.FriendService
	media   *service.MediaService
	logger  zerolog.Logger
}

func New(friends *service.FriendService, media *service.MediaService, logger zerolog.Logger) *Server {
	return &Server{friends: friends, media: media, logger: logger}
}

func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/friends", s.handleListFriends)
	mux.HandleFunc("POST /api/friends", s.handleAddFriend)
	mux.HandleFunc("DELETE /api/friends/{playerID}", s.handleRemoveFriend)
	mux.HandleFunc("POST /api/friends/refresh", s.handleRefresh)
	mux.HandleFunc("GET /api/friends/{playerID}/elo-history", s.handleEloHistory)
	mux.HandleFunc("GET /api/live/teams", s.handleLiveTeams)
	mux.HandleFunc("GET /api/streams", s.handleStreams)
	mux.HandleFunc("GET /api/recordings", s.handleRecordings)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	return mux
}

type friendsResponse struct {
	Friends  []domain.EnrichedFriend `json:"friends"`
	Progress int                     `json:"progress"`
}

func (s *Server) handleListFriends(w http.ResponseWriter, r *http.Request) {
	friends, progress := s.friends.Snapshot()
	if friends == nil {
		friends = []domain.EnrichedFriend{}
	}
	writeJSON(w, http.StatusOK, friendsResponse{Friends: friends, Progress: progress})
}

type addFriendRequest struct {
	Nickname string `json:"nickname"`
}

func (s *Server) handleAddFriend(w http.ResponseWriter, r *http.Request) {
	var req addFriendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Nickname == "" {
		writeError(w, http.StatusBadRequest, "nickname is required")
		return
	}

	friend, err := s.friends.Add(r.Context(), req.Nickname)
	switch {
	case errors.Is(err, service.ErrPlayerNotFound):
		writeError(w, http.StatusNotFound, "player not found")
	case errors.Is(err, repository.ErrDuplicate):
		writeError(w, http.StatusConflict, "friend already on roster")
	case err != nil:
		s.logger.Error().Err(err).Str("nickname", req.Nickname).Msg("add friend failed")
		writeError(w, http.StatusInternalServerError, "failed to add friend")
	default:
		writeJSON(w, http.StatusCreated, friend)
	}
}

func (s *Server) handleRemoveFriend(w http.ResponseWriter, r *http.Request) {
	playerID := r.PathValue("playerID")

	err := s.friends.Remove(r.Context(), playerID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "friend not found")
	case err != nil:
		s.logger.Error().Err(err).Str("player_id", playerID).Msg("remove friend failed")
		writeError(w, http.StatusInternalServerError, "failed to remove friend")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	// detached from the request context: the refresh outlives the call
	go s.friends.RefreshAll(context.Background())
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "refresh started"})
}

func (s *Server) handleEloHistory(w http.ResponseWriter, r *http.Request) {
	playerID := r.PathValue("playerID")

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = parsed
	}

	entries, err := s.friends.EloHistory(r.Context(), playerID, limit)
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "friend not found")
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Str("player_id", playerID).Msg("elo history lookup failed")
		writeError(w, http.StatusInternalServerError, "failed to load elo history")
		return
	}
	if entries == nil {
		entries = []domain.EloHistoryEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleLiveTeams(w http.ResponseWriter, r *http.Request) {
	groups := s.friends.LiveTeams()
	if groups == nil {
		groups = []domain.TeamGroup{}
	}
	writeJSON(w, http.StatusOK, groups)
}

func (s *Server) handleStreams(w http.ResponseWriter, r *http.Request) {
	streams, err := s.media.Streams(r.Context())
	if err != nil {
		// listing failures surface as an empty map, not an error banner
		writeJSON(w, http.StatusOK, map[string]int{})
		return
	}
	writeJSON(w, http.StatusOK, streams)
}

func (s *Server) handleRecordings(w http.ResponseWriter, r *http.Request) {
	recordings, err := s.media.Recordings(r.Context())
	if err != nil {
		writeJSON(w, http.StatusOK, map[string][]domain.Recording{})
		return
	}
	writeJSON(w, http.StatusOK, recordings)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
