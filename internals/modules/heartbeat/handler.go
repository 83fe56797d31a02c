package heartbeat

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	middle "github.com/milankatira/uptime-sub000/internals/middleware"
	"github.com/milankatira/uptime-sub000/internals/modules/monitor"
	"github.com/milankatira/uptime-sub000/pkg/apperror"
	"github.com/milankatira/uptime-sub000/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service, validator *validator.Validate) *Handler {
	return &Handler{
		service:   service,
		validator: validator,
	}
}

// POST /heartbeats/{monitorID}/ping  { "status": "UP" }
// Unauthenticated: the monitor id is the shared secret, the same way hosted
// ping services hand out opaque ping URLs.
func (h *Handler) Ping(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)

	monitorID, err := uuid.Parse(chi.URLParam(r, "monitorID"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "invalid monitor id")
		return
	}

	var req PingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, err.Error())
		return
	}

	if err := h.service.Ping(ctx, monitorID, monitor.HeartbeatStatus(req.Status)); err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}
	utils.WriteJSON[any](w, http.StatusOK, reqID, "heartbeat recorded", nil)
}

// POST /heartbeats/{monitorID}/ack
func (h *Handler) Acknowledge(w http.ResponseWriter, r *http.Request) {
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

	if err := h.service.Acknowledge(ctx, ownerID, monitorID); err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}
	utils.WriteJSON[any](w, http.StatusOK, reqID, "heartbeat acknowledged", nil)
}

// GET /heartbeats/{monitorID}/records?minutes=60
func (h *Handler) GetRecords(w http.ResponseWriter, r *http.Request) {
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

	minutes := int64(60)
	if raw := r.URL.Query().Get("minutes"); raw != "" {
		if v, err := strconv.ParseInt(raw, 10, 32); err == nil && v >= 1 && v <= 24*60 {
			minutes = v
		}
	}

	records, err := h.service.History(ctx, ownerID, monitorID, time.Now().Add(-time.Duration(minutes)*time.Minute))
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}

	out := make([]RecordResponse, 0, len(records))
	for i := range records {
		out = append(out, RecordResponse{
			Status:    string(records[i].Status),
			Timestamp: records[i].Timestamp,
		})
	}
	utils.WriteJSON(w, http.StatusOK, reqID, "", out)
}
