package httpserver

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/dmitrijs2005/taskkeeper/internal/server/services"
)

type Handler struct {
	users   *services.UserService
	tasks   *services.TaskService
	avatars *services.AvatarService
	health  func(context.Context) error
	logger  logging.Logger
}

// NewHandler builds the API handler. health may be nil; when set, GET
// /health reports 503 while it fails.
func NewHandler(us *services.UserService, ts *services.TaskService, as *services.AvatarService,
	health func(context.Context) error, l logging.Logger) *Handler {
	return &Handler{
		users:   us,
		tasks:   ts,
		avatars: as,
		health:  health,
		logger:  l.With("module", "http"),
	}
}

// Routes returns the mux wrapped in the common middleware.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	auth := requireAuth(h.users, h.logger)

	private := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, auth(fn))
	}

	mux.HandleFunc("GET /health", h.getHealth)

	mux.HandleFunc("POST /users", h.register)
	mux.HandleFunc("POST /users/login", h.login)
	private("POST /users/logout", h.logout)
	private("POST /users/logoutAll", h.logoutAll)
	private("POST /users/logout-all", h.logoutAll)

	private("GET /users/me", h.getMe)
	private("PATCH /users/me", h.updateMe)
	private("DELETE /users/me", h.deleteMe)

	private("POST /users/me/avatar", h.uploadAvatar)
	private("GET /users/me/avatar", h.getAvatar)
	private("DELETE /users/me/avatar", h.deleteAvatar)

	private("POST /tasks", h.createTask)
	private("GET /tasks", h.listTasks)
	private("GET /tasks/{id}", h.getTask)
	private("PATCH /tasks/{id}", h.updateTask)
	private("DELETE /tasks/{id}", h.deleteTask)

	return chain(mux, requestID, accessLog(h.logger), recoverer(h.logger))
}

func (h *Handler) getHealth(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health(r.Context()); err != nil {
			h.logger.Warn(r.Context(), "health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
