package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gridflux/gridflux/pkg/log"
)

// maxHistoryRange caps history queries so a bad range cannot sweep the whole
// collection.
const maxHistoryRange = 7 * 24 * time.Hour

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := s.controller.Status()
	if status == nil {
		writeJSONError(w, "control loop has not started", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, status)
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.controller.CurrentSchedule())
}

func (s *Server) handleRegenerate(w http.ResponseWriter, r *http.Request) {
	s.controller.TriggerRegenerate()
	w.WriteHeader(http.StatusAccepted)
	writeJSON(w, struct {
		Status string `json:"status"`
	}{Status: "regeneration requested"})
}

func (s *Server) handleHistoryDecisions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeJSONError(w, "invalid time range: "+err.Error(), http.StatusBadRequest)
		return
	}

	decisions, err := s.storage.GetDecisionHistory(ctx, start, end)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to get decisions", slog.Any("error", err))
		writeJSONError(w, "failed to get decisions", http.StatusInternalServerError)
		return
	}
	setHistoryCacheControl(w, end)
	writeJSON(w, decisions)
}

func (s *Server) handleHistoryPrices(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeJSONError(w, "invalid time range: "+err.Error(), http.StatusBadRequest)
		return
	}

	prices, err := s.storage.GetPriceHistory(ctx, start, end)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to get prices", slog.Any("error", err))
		writeJSONError(w, "failed to get prices", http.StatusInternalServerError)
		return
	}
	setHistoryCacheControl(w, end)
	writeJSON(w, prices)
}

// setHistoryCacheControl caches fully-past ranges for a day and live ranges
// for a minute.
func setHistoryCacheControl(w http.ResponseWriter, end time.Time) {
	today := time.Now().Truncate(24 * time.Hour)
	if end.Before(today) {
		w.Header().Set("Cache-Control", "private, max-age=86400")
	} else {
		w.Header().Set("Cache-Control", "private, max-age=60")
	}
}

func parseTimeRange(r *http.Request) (time.Time, time.Time, error) {
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")

	if startStr == "" || endStr == "" {
		// Default to last 24 hours if not specified
		end := time.Now()
		start := end.Add(-24 * time.Hour)
		return start, end, nil
	}

	start, err := time.Parse(time.RFC3339, startStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start time: %w", err)
	}

	end, err := time.Parse(time.RFC3339, endStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end time: %w", err)
	}

	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("start time must be before end time")
	}

	if end.Sub(start) > maxHistoryRange {
		return time.Time{}, time.Time{}, fmt.Errorf("time range must not exceed %s", maxHistoryRange)
	}

	return start, end, nil
}
