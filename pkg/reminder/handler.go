package reminder

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/contestpulse/contest-pulse/pkg/logger"
	"github.com/contestpulse/contest-pulse/pkg/models"
	"github.com/contestpulse/contest-pulse/pkg/util"
)

// Lead-time presets offered by the mobile client (minutes before start).
var allowedLeadTimes = map[int64]bool{5: true, 15: true, 60: true, 1440: true}

type scheduleRequest struct {
	ContestId     string `json:"contestId"`
	ContestName   string `json:"contestName"`
	StartTime     int64  `json:"startTime"` // epoch ms
	MinutesBefore int64  `json:"minutesBefore"`
}

type scheduleResponse struct {
	Id      string `json:"id"`
	Trigger string `json:"trigger"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// ScheduleHandler creates (or replaces) a reminder: POST /reminders.
func (m *Manager) ScheduleHandler(w http.ResponseWriter, r *http.Request) {
	util.EnableCors(&w)
	w.Header().Set("Content-Type", "application/json")

	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ContestId == "" || req.ContestName == "" {
		writeError(w, http.StatusBadRequest, "contestId and contestName are required")
		return
	}
	if !allowedLeadTimes[req.MinutesBefore] {
		writeError(w, http.StatusBadRequest, "minutesBefore must be one of 5, 15, 60, 1440")
		return
	}

	trigger := time.UnixMilli(req.StartTime).Add(-time.Duration(req.MinutesBefore) * time.Minute)
	handle, err := m.Schedule(req.ContestId, req.ContestName, trigger)
	if err != nil {
		if errors.Is(err, ErrInvalidTime) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		logger.Error("Failed to schedule reminder for %s: %v", req.ContestId, err)
		writeError(w, http.StatusInternalServerError, "failed to schedule reminder")
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(scheduleResponse{
		Id:      handle,
		Trigger: trigger.UTC().Format(time.RFC3339),
	})
}

// CancelHandler retires a reminder: DELETE /reminders/{contestId}.
func (m *Manager) CancelHandler(w http.ResponseWriter, r *http.Request) {
	util.EnableCors(&w)
	contestId := mux.Vars(r)["contestId"]

	if err := m.Cancel(contestId); err != nil {
		logger.Error("Failed to cancel reminder for %s: %v", contestId, err)
		w.Header().Set("Content-Type", "application/json")
		writeError(w, http.StatusInternalServerError, "failed to cancel reminder")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListHandler returns the persisted reminders: GET /reminders.
func (m *Manager) ListHandler(w http.ResponseWriter, r *http.Request) {
	util.EnableCors(&w)
	w.Header().Set("Content-Type", "application/json")

	reminders, err := m.List()
	if err != nil {
		logger.Error("Failed to list reminders: %v", err)
		reminders = nil
	}
	if reminders == nil {
		reminders = []models.Reminder{}
	}
	json.NewEncoder(w).Encode(reminders)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: msg})
}
