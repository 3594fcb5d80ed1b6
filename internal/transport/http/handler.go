package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"rssreader/internal/domain"
	"strconv"
)

const maxEntriesLimit = 500

type entriesGetter interface {
	GetEntries(ctx context.Context, limit int) ([]domain.StoredEntry, error)
}

type Handler struct {
	log          *slog.Logger
	getter       entriesGetter
	defaultLimit int
}

func NewHandler(log *slog.Logger, getter entriesGetter, defaultLimit int) *Handler {
	return &Handler{
		log:          log,
		getter:       getter,
		defaultLimit: defaultLimit,
	}
}

// getEntries - хендлер для эндпоинта GET /api/entries?limit=N
func (h *Handler) getEntries(w http.ResponseWriter, r *http.Request) {
	const op = "transport.http/getEntries"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", requestIDFrom(r.Context())),
	)
	limit := h.defaultLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		var err error
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit <= 0 || limit > maxEntriesLimit {
			log.Warn("invalid limit parameter", slog.String("limit", limitStr))
			respondWithError(w, http.StatusBadRequest, "Invalid 'limit' parameter")
			return
		}
	}
	entries, err := h.getter.GetEntries(r.Context(), limit)
	if err != nil {
		log.Error("Failed to get entries", slog.Any("error", err))
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	respondWithJSON(w, http.StatusOK, entries)
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
