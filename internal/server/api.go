/*
Copyright (C) 2026 Airloom Authors

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/airloom/airloom/internal/telemetry"
)

func (s *Server) configureRoutes() {
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	s.router.Handle("/metrics", telemetry.Handler())

	s.router.Route("/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/schedule", s.handleSchedule)
		r.Get("/shows", s.handleShows)
	})
}

type statusResponse struct {
	Status      string `json:"status"`
	Environment string `json:"environment"`
	StationName string `json:"station_name"`
	HistoryLen  int    `json:"history_len"`
	ActiveClock string `json:"active_clock"`
	Daypart     string `json:"daypart"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	summary := s.scheduler.Summarize(now)
	writeJSON(w, http.StatusOK, statusResponse{
		Status:      "ok",
		Environment: s.cfg.Environment,
		StationName: s.cfg.StationName,
		HistoryLen:  s.engine.HistoryLen(),
		ActiveClock: summary.ActiveClock,
		Daypart:     summary.Daypart,
	})
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	at := time.Now()
	if raw := r.URL.Query().Get("at"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_at")
			return
		}
		at = parsed
	}
	writeJSON(w, http.StatusOK, s.scheduler.Summarize(at))
}

func (s *Server) handleShows(w http.ResponseWriter, r *http.Request) {
	horizon := 24 * time.Hour
	if raw := r.URL.Query().Get("hours"); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil || hours <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_hours")
			return
		}
		horizon = time.Duration(hours) * time.Hour
	}

	shows := s.scheduler.UpcomingShows(time.Now(), horizon)
	out := make([]showResponse, 0, len(shows))
	for _, show := range shows {
		resp := showResponse{
			Name:  show.Name,
			Host:  show.Host,
			Start: show.StartTime,
			End:   show.EndTime(),
		}
		if show.Clock != nil {
			resp.Clock = show.Clock.Name()
		}
		out = append(out, resp)
	}
	writeJSON(w, http.StatusOK, out)
}

type showResponse struct {
	Name  string    `json:"name"`
	Host  string    `json:"host,omitempty"`
	Clock string    `json:"clock,omitempty"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}
