package httpserver

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/services"
)

func (h *Handler) createTask(w http.ResponseWriter, r *http.Request) {
	var in services.TaskInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	task, err := h.tasks.Create(r.Context(), currentUser(r.Context()).ID, in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, task)
}

func (h *Handler) listTasks(w http.ResponseWriter, r *http.Request) {
	q, err := parseTaskQuery(r.URL.Query())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	list, err := h.tasks.List(r.Context(), currentUser(r.Context()).ID, q)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) getTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.tasks.Get(r.Context(), currentUser(r.Context()).ID, r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *Handler) updateTask(w http.ResponseWriter, r *http.Request) {
	var fields map[string]json.RawMessage
	if err := decodeJSON(w, r, &fields); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	task, err := h.tasks.Update(r.Context(), currentUser(r.Context()).ID, r.PathValue("id"), fields)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *Handler) deleteTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.tasks.Delete(r.Context(), currentUser(r.Context()).ID, r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// parseTaskQuery reads completed, limit, skip and sortBy=field:asc|desc.
// Any completed value other than "true" filters for open tasks.
func parseTaskQuery(v url.Values) (models.TaskQuery, error) {
	var q models.TaskQuery

	if v.Has("completed") {
		done := v.Get("completed") == "true"
		q.Completed = &done
	}

	for _, p := range []struct {
		name string
		dst  *int
	}{{"limit", &q.Limit}, {"skip", &q.Skip}} {
		s := v.Get(p.name)
		if s == "" {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return q, &services.ValidationError{
				Message: "invalid query",
				Fields:  map[string]string{p.name: "must be a non-negative integer"},
			}
		}
		*p.dst = n
	}

	if s := v.Get("sortBy"); s != "" {
		field, dir, _ := strings.Cut(s, ":")
		switch dir {
		case "", "asc":
		case "desc":
			q.SortDesc = true
		default:
			return q, &services.ValidationError{
				Message: "invalid query",
				Fields:  map[string]string{"sortBy": "direction must be asc or desc"},
			}
		}
		q.SortField = field
	}

	return q, nil
}
