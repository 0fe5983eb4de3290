package httpserver

import (
	"encoding/json"
	"net/http"

	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/services"
)

type sessionResponse struct {
	User  models.Profile `json:"user"`
	Token string         `json:"token"`
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var in services.RegisterInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	user, token, err := h.users.Register(r.Context(), in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, sessionResponse{User: user.Profile(), Token: token})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	user, token, err := h.users.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{User: user.Profile(), Token: token})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Logout(r.Context(), currentUser(r.Context()), currentToken(r.Context())); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) logoutAll(w http.ResponseWriter, r *http.Request) {
	if err := h.users.LogoutAll(r.Context(), currentUser(r.Context())); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) getMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, currentUser(r.Context()).Profile())
}

func (h *Handler) updateMe(w http.ResponseWriter, r *http.Request) {
	var fields map[string]json.RawMessage
	if err := decodeJSON(w, r, &fields); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), currentUser(r.Context()), fields)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, user.Profile())
}

func (h *Handler) deleteMe(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r.Context())
	if err := h.users.Delete(r.Context(), user); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user.Profile())
}

type avatarUploadResponse struct {
	UploadURL string         `json:"uploadUrl"`
	User      models.Profile `json:"user"`
}

func (h *Handler) uploadAvatar(w http.ResponseWriter, r *http.Request) {
	url, user, err := h.avatars.UploadURL(r.Context(), currentUser(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, avatarUploadResponse{UploadURL: url, User: user.Profile()})
}

func (h *Handler) getAvatar(w http.ResponseWriter, r *http.Request) {
	url, err := h.avatars.DownloadURL(r.Context(), currentUser(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

func (h *Handler) deleteAvatar(w http.ResponseWriter, r *http.Request) {
	user, err := h.avatars.Remove(r.Context(), currentUser(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user.Profile())
}
