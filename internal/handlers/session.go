package handlers

import (
	"crypto/subtle"
	"net/http"
	"time"

	appmiddleware "github.com/waynefred/ocean-journal/internal/middleware"
	"github.com/waynefred/ocean-journal/internal/models"
)

type LoginRequest struct {
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token string `json:"token"`
	models.Session
}

// Login checks the shared admin password, sets the admin flag and returns a JWT.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if h.AdminPassword == "" || len(h.JWTSecret) == 0 {
		respondError(w, http.StatusInternalServerError, "admin login not configured")
		return
	}
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondFailure(w, h.Logger, err, "login")
		return
	}
	if subtle.ConstantTimeCompare([]byte(req.Password), []byte(h.AdminPassword)) != 1 {
		h.Logger.Warn("failed admin login")
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := appmiddleware.IssueAdminToken(h.JWTSecret, time.Now())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "token error")
		return
	}
	p := h.provider(w, r)
	if err := p.SetAdmin(true); err != nil {
		respondError(w, http.StatusInternalServerError, "session error")
		return
	}
	sess, err := p.Session()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "session error")
		return
	}
	respondJSON(w, http.StatusOK, LoginResponse{Token: token, Session: sess})
}

// Logout clears the admin flag; the user id stays.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	p := h.provider(w, r)
	if err := p.SetAdmin(false); err != nil {
		respondError(w, http.StatusInternalServerError, "session error")
		return
	}
	sess, err := p.Session()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "session error")
		return
	}
	respondJSON(w, http.StatusOK, sess)
}

func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	sess, err := h.provider(w, r).Session()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "session error")
		return
	}
	respondJSON(w, http.StatusOK, sess)
}
