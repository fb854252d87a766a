package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/templui/lanchat/internal/ctxkeys"
	"github.com/templui/lanchat/internal/model"
	"github.com/templui/lanchat/internal/repository"
	"github.com/templui/lanchat/internal/service"
)

type directoryHandler struct {
	directoryService *service.DirectoryService
}

func NewDirectoryHandler(directoryService *service.DirectoryService) *directoryHandler {
	return &directoryHandler{directoryService: directoryService}
}

type directoryResponse struct {
	Users          []*model.Profile `json:"users"`
	NativeSpeakers []*model.Profile `json:"nativeSpeakers"`
}

// ListUsers serves GET /api/users?q=&lang=&online=.
func (h *directoryHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid := ctxkeys.UserID(ctx)
	q := r.URL.Query()

	online, _ := strconv.ParseBool(q.Get("online"))
	users, err := h.directoryService.Search(ctx, service.DirectoryQuery{
		Text:       q.Get("q"),
		Language:   q.Get("lang"),
		OnlineOnly: online,
		ExcludeID:  uid,
	})
	if err != nil {
		slog.Error("failed to search directory", "error", err, "user_id", uid)
		writeError(w, http.StatusInternalServerError, "failed to load users")
		return
	}

	resp := directoryResponse{Users: users, NativeSpeakers: []*model.Profile{}}
	caller, err := h.directoryService.Profile(ctx, uid)
	if err == nil {
		if speakers := service.NativeSpeakers(caller, users); speakers != nil {
			resp.NativeSpeakers = speakers
		}
	} else if !errors.Is(err, repository.ErrProfileNotFound) {
		slog.Warn("failed to load caller profile", "error", err, "user_id", uid)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *directoryHandler) ShowUser(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	profile, err := h.directoryService.Profile(r.Context(), id)
	if errors.Is(err, repository.ErrProfileNotFound) {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		slog.Error("failed to load profile", "error", err, "user_id", id)
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}

	writeJSON(w, http.StatusOK, profile)
}
