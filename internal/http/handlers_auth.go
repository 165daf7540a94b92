package http

import (
	"log/slog"
	"net/http"
)

type (
	credentialsRequest struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	userResponse struct {
		UserID   int64  `json:"user_id"`
		Username string `json:"username"`
	}

	loginResponse struct {
		Token    string `json:"token"`
		UserID   int64  `json:"user_id"`
		Username string `json:"username"`
	}
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := s.authService.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, userResponse{UserID: user.ID, Username: user.Username})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := s.authService.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	sess, err := s.sessions.Create(user.ID, user.Username)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	slog.InfoContext(r.Context(), "User logged in", "user_id", user.ID, "username", user.Username)

	writeJSON(w, http.StatusOK, loginResponse{
		Token:    sess.Token,
		UserID:   sess.UserID,
		Username: sess.Username,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	sess := sessionFromContext(r.Context())
	s.sessions.Destroy(sess.Token)

	slog.InfoContext(r.Context(), "User logged out", "user_id", sess.UserID, "username", sess.Username)

	w.WriteHeader(http.StatusNoContent)
}
