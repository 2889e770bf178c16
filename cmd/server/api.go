package main

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"twitchdrops-backend/services/tracker"
)

// payloads larger than this are not graphql responses, they are abuse
const maxIngestBytes = 4 << 20

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(body)
	if err != nil {
		slog.Warn("failed to write response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Success: false, Error: err.Error()})
}

func NewRouter(service *tracker.Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/fetch", func(w http.ResponseWriter, req *http.Request) {
			snapshot, err := service.FetchAll(req.Context())
			if err != nil {
				status := http.StatusBadGateway
				if errors.Is(err, tracker.ErrNotLoggedIn) {
					status = http.StatusUnauthorized
				}
				writeError(w, status, err)
				return
			}
			writeJSON(w, http.StatusOK, snapshot)
		})

		r.Get("/snapshot", func(w http.ResponseWriter, req *http.Request) {
			snapshot, err := service.Snapshot(req.Context())
			if err != nil {
				writeError(w, http.StatusInternalServerError, err)
				return
			}
			writeJSON(w, http.StatusOK, snapshot)
		})

		r.Get("/history", func(w http.ResponseWriter, req *http.Request) {
			history, err := service.History(req.Context())
			if err != nil {
				writeError(w, http.StatusInternalServerError, err)
				return
			}
			writeJSON(w, http.StatusOK, history)
		})

		r.Post("/intercepted/campaigns", func(w http.ResponseWriter, req *http.Request) {
			raw, err := io.ReadAll(io.LimitReader(req.Body, maxIngestBytes))
			if err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			if err := service.IngestCampaigns(req.Context(), raw); err != nil {
				writeError(w, http.StatusInternalServerError, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]bool{"success": true})
		})

		r.Post("/intercepted/claimed", func(w http.ResponseWriter, req *http.Request) {
			raw, err := io.ReadAll(io.LimitReader(req.Body, maxIngestBytes))
			if err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			if err := service.IngestClaimedDrops(req.Context(), raw); err != nil {
				writeError(w, http.StatusInternalServerError, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]bool{"success": true})
		})
	})

	return r
}
