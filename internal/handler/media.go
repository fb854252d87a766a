package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/templui/lanchat/internal/ctxkeys"
	"github.com/templui/lanchat/internal/model"
	"github.com/templui/lanchat/internal/repository"
	"github.com/templui/lanchat/internal/service"
	"github.com/templui/lanchat/internal/validation"
)

type mediaHandler struct {
	fileService *service.FileService
	rules       validation.MediaRules
}

// NewMediaHandler serves uploads; a nil fileService answers 503.
func NewMediaHandler(fileService *service.FileService) *mediaHandler {
	return &mediaHandler{fileService: fileService, rules: validation.ImageRules}
}

type mediaResponse struct {
	File *model.File `json:"file"`
	URL  string      `json:"url"`
}

// Upload takes a multipart "file" with "type" photo or message_image. Chat
// images also carry "chatId".
func (h *mediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.fileService == nil {
		writeError(w, http.StatusServiceUnavailable, "media uploads are not configured")
		return
	}
	uid := ctxkeys.UserID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.rules.MaxSize+1<<20)
	err := r.ParseMultipartForm(h.rules.MaxSize)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid upload")
		return
	}

	up := service.Upload{UserID: uid}
	switch r.FormValue("type") {
	case model.FileTypePhoto, "":
		up.Type = model.FileTypePhoto
		up.OwnerType = model.OwnerTypeUser
		up.OwnerID = uid
		up.Public = true
	case model.FileTypeMessageImage:
		up.Type = model.FileTypeMessageImage
		up.OwnerType = model.OwnerTypeChat
		up.OwnerID = r.FormValue("chatId")
		if up.OwnerID == "" {
			writeError(w, http.StatusBadRequest, "chatId is required for message images")
			return
		}
	default:
		writeError(w, http.StatusBadRequest, "unknown media type")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	mime, err := validation.ValidateMedia(header, h.rules)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	up.MimeType = mime
	up.Extension = h.rules.MimeTypes[mime]
	up.OriginalName = header.Filename
	up.Size = header.Size

	stored, err := h.fileService.Upload(r.Context(), up, file)
	if err != nil {
		slog.Error("media upload failed", "error", err, "user_id", uid)
		writeError(w, http.StatusInternalServerError, "upload failed")
		return
	}

	writeJSON(w, http.StatusCreated, mediaResponse{File: stored, URL: h.fileService.URL(r.Context(), stored)})
}

func (h *mediaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h.fileService == nil {
		writeError(w, http.StatusServiceUnavailable, "media uploads are not configured")
		return
	}
	uid := ctxkeys.UserID(r.Context())

	err := h.fileService.Delete(r.Context(), uid, r.PathValue("id"))
	switch {
	case errors.Is(err, repository.ErrFileNotFound), errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusNotFound, "file not found")
		return
	case err != nil:
		slog.Error("media delete failed", "error", err, "user_id", uid)
		writeError(w, http.StatusInternalServerError, "delete failed")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
