package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/templui/lanchat/internal/service"
)

// maxTranslateBody bounds a chat message plus JSON framing.
const maxTranslateBody = 64 << 10

type translateHandler struct {
	translateService *service.TranslateService
}

func NewTranslateHandler(translateService *service.TranslateService) *translateHandler {
	return &translateHandler{translateService: translateService}
}

type translateRequest struct {
	Text       string `json:"text"`
	TargetLang string `json:"targetLang"`
}

func (h *translateHandler) Translate(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxTranslateBody)).Decode(&req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// Empty text and unknown languages fail like an upstream error: clients
	// only ever see "translation failed".
	result, err := h.translateService.Translate(r.Context(), req.Text, req.TargetLang)
	if err != nil {
		slog.Warn("translation failed", "error", err, "target_lang", req.TargetLang)
		writeError(w, http.StatusBadGateway, "translation failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
