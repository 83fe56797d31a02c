package monitor

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	middle "github.com/milankatira/uptime-sub000/internals/middleware"
	"github.com/milankatira/uptime-sub000/internals/modules/status"
	"github.com/milankatira/uptime-sub000/internals/modules/tick"
	"github.com/milankatira/uptime-sub000/pkg/apperror"
	"github.com/milankatira/uptime-sub000/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// StatusReader exposes the cached last probe outcome kept by the worker
// pipeline.
type StatusReader interface {
	GetStatus(ctx context.Context, monitorID uuid.UUID) (map[string]string, error)
}

type Handler struct {
	service     *Service
	ticks       *tick.Repository
	statusCache StatusReader
	validator   *validator.Validate
}

func NewHandler(service *Service, ticks *tick.Repository, statusCache StatusReader, validator *validator.Validate) *Handler {
	return &Handler{
		service:     service,
		ticks:       ticks,
		statusCache: statusCache,
		validator:   validator,
	}
}

func (h *Handler) CreateMonitor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	ownerID, ok := middle.OwnerFromContext(ctx)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "")
		return
	}

	var req CreateMonitorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, err.Error())
		return
	}

	m := Monitor{
		OwnerID:             ownerID,
		Kind:                Kind(req.Kind),
		Name:                req.Name,
		TargetURL:           req.TargetURL,
		IntervalSec:         req.IntervalSec,
		ExpectedIntervalSec: req.ExpectedIntervalSec,
		GracePeriodSec:      req.GracePeriodSec,
		Maintenance:         req.Maintenance,
	}
	if req.Escalation != nil {
		m.Escalation = *req.Escalation
	}

	id, err := h.service.CreateMonitor(ctx, m)
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, reqID, "monitor created", id.String())
}

func (h *Handler) GetMonitor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	ownerID, ok := middle.OwnerFromContext(ctx)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "")
		return
	}

	monitorID, err := uuid.Parse(chi.URLParam(r, "monitorID"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "invalid monitor id")
		return
	}

	m, err := h.service.GetMonitor(ctx, ownerID, monitorID)
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, reqID, "monitor retrieved", toMonitorResponse(&m))
}

// /monitors?offset=0&limit=20
func (h *Handler) ListMonitors(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	ownerID, ok := middle.OwnerFromContext(ctx)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "")
		return
	}

	limit := parseQueryInt(r, "limit", 20)
	offset := parseQueryInt(r, "offset", 0)

	monitors, err := h.service.ListMonitors(ctx, ownerID, limit, offset)
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}

	out := make([]MonitorResponse, 0, len(monitors))
	for i := range monitors {
		out = append(out, toMonitorResponse(&monitors[i]))
	}
	utils.WriteJSON(w, http.StatusOK, reqID, "", ListMonitorsResponse{
		Limit:    limit,
		Offset:   offset,
		Monitors: out,
	})
}

// PATCH /monitors/{monitorID}  { "enable": false }
func (h *Handler) UpdateMonitorStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	ownerID, ok := middle.OwnerFromContext(ctx)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "")
		return
	}

	monitorID, err := uuid.Parse(chi.URLParam(r, "monitorID"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "invalid monitor id")
		return
	}

	var req UpdateMonitorStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, err.Error())
		return
	}

	if err := h.service.SetEnabled(ctx, ownerID, monitorID, *req.Enable); err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}
	utils.WriteJSON[any](w, http.StatusOK, reqID, "monitor updated", nil)
}

func (h *Handler) DeleteMonitor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	ownerID, ok := middle.OwnerFromContext(ctx)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "")
		return
	}

	monitorID, err := uuid.Parse(chi.URLParam(r, "monitorID"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "invalid monitor id")
		return
	}

	if err := h.service.DeleteMonitor(ctx, ownerID, monitorID); err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}
	utils.WriteJSON[any](w, http.StatusOK, reqID, "monitor deleted", nil)
}

// PUT /monitors/{monitorID}/schedule  { "interval_sec": 60 }
func (h *Handler) UpsertSchedule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	ownerID, ok := middle.OwnerFromContext(ctx)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "")
		return
	}

	monitorID, err := uuid.Parse(chi.URLParam(r, "monitorID"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "invalid monitor id")
		return
	}

	var req UpsertScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, err.Error())
		return
	}

	if err := h.service.UpsertSchedule(ctx, ownerID, monitorID, req.IntervalSec); err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}
	utils.WriteJSON[any](w, http.StatusOK, reqID, "schedule updated", nil)
}

// DELETE /monitors/{monitorID}/schedule
func (h *Handler) RemoveSchedule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	ownerID, ok := middle.OwnerFromContext(ctx)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "")
		return
	}

	monitorID, err := uuid.Parse(chi.URLParam(r, "monitorID"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "invalid monitor id")
		return
	}

	if err := h.service.RemoveSchedule(ctx, ownerID, monitorID); err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}
	utils.WriteJSON[any](w, http.StatusOK, reqID, "schedule removed", nil)
}

// GET /monitors/{monitorID}/status
func (h *Handler) GetMonitorStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	ownerID, ok := middle.OwnerFromContext(ctx)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "")
		return
	}

	monitorID, err := uuid.Parse(chi.URLParam(r, "monitorID"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "invalid monitor id")
		return
	}

	m, err := h.service.GetMonitor(ctx, ownerID, monitorID)
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}

	resp := MonitorStatusResponse{Status: string(status.Unknown)}

	switch m.Kind {
	case KindPassive:
		switch m.LastStatus {
		case HeartbeatUp:
			resp.Status = string(status.Good)
		case HeartbeatDown, HeartbeatAcknowledged:
			resp.Status = string(status.Bad)
		}
		if !m.LastPingAt.IsZero() {
			t := m.LastPingAt
			resp.LastCheckedAt = &t
		}

	case KindActive:
		now := time.Now()
		history, err := h.ticks.ListSince(ctx, monitorID, now.Add(-status.Span))
		if err != nil {
			utils.FromAppError(w, reqID, err)
			return
		}
		resp.Status = string(status.Aggregate(history, now))
		if len(history) > 0 {
			t := history[len(history)-1].ObservedAt
			resp.LastCheckedAt = &t
		} else if cached, err := h.statusCache.GetStatus(ctx, monitorID); err == nil {
			// history may lag the most recent probe; fall back to the cache
			if raw, ok := cached["checked_at"]; ok {
				if unix, err := strconv.ParseInt(raw, 10, 64); err == nil {
					t := time.Unix(unix, 0).UTC()
					resp.LastCheckedAt = &t
				}
			}
		}
	}

	utils.WriteJSON(w, http.StatusOK, reqID, "", resp)
}

// GET /monitors/{monitorID}/ticks?minutes=30
func (h *Handler) GetMonitorTicks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	ownerID, ok := middle.OwnerFromContext(ctx)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "")
		return
	}

	monitorID, err := uuid.Parse(chi.URLParam(r, "monitorID"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "invalid monitor id")
		return
	}

	if _, err := h.service.GetMonitor(ctx, ownerID, monitorID); err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}

	minutes := parseQueryInt(r, "minutes", 30)
	if minutes < 1 || minutes > 24*60 {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "minutes must be between 1 and 1440")
		return
	}

	history, err := h.ticks.ListSince(ctx, monitorID, time.Now().Add(-time.Duration(minutes)*time.Minute))
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}

	out := make([]TickResponse, 0, len(history))
	for i := range history {
		out = append(out, TickResponse{
			Status:        string(history[i].Status),
			LatencyMillis: history[i].LatencyMillis,
			ObservedAt:    history[i].ObservedAt,
		})
	}
	utils.WriteJSON(w, http.StatusOK, reqID, "", out)
}

func parseQueryInt(r *http.Request, key string, fallback int32) int32 {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return fallback
	}
	return int32(v)
}
