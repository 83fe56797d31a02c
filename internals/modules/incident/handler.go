package incident

import (
	"encoding/json"
	"net/http"
	"strconv"

	middle "github.com/milankatira/uptime-sub000/internals/middleware"
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

func (h *Handler) CreateIncident(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	ownerID, ok := middle.OwnerFromContext(ctx)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "")
		return
	}

	var req CreateIncidentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, err.Error())
		return
	}

	cmd := CreateManualCmd{
		OwnerID:   ownerID,
		Cause:     req.Cause,
		ErrorCode: req.ErrorCode,
	}
	if req.RelatedMonitorID != "" {
		monitorID, err := uuid.Parse(req.RelatedMonitorID)
		if err != nil {
			utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "invalid related monitor id")
			return
		}
		cmd.RelatedMonitorID = monitorID
	}

	id, err := h.service.CreateManual(ctx, cmd)
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, reqID, "incident created", id.String())
}

func (h *Handler) GetIncident(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	ownerID, ok := middle.OwnerFromContext(ctx)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "")
		return
	}

	incidentID, err := uuid.Parse(chi.URLParam(r, "incidentID"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "invalid incident id")
		return
	}

	inc, err := h.service.GetIncident(ctx, ownerID, incidentID)
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, reqID, "incident retrieved", toIncidentResponse(&inc))
}

// /incidents?offset=0&limit=20
func (h *Handler) ListIncidents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	ownerID, ok := middle.OwnerFromContext(ctx)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "")
		return
	}

	limit := parseQueryInt(r, "limit", 20)
	offset := parseQueryInt(r, "offset", 0)

	incidents, err := h.service.ListIncidents(ctx, ownerID, limit, offset)
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}

	out := make([]IncidentResponse, 0, len(incidents))
	for i := range incidents {
		out = append(out, toIncidentResponse(&incidents[i]))
	}
	utils.WriteJSON(w, http.StatusOK, reqID, "", ListIncidentsResponse{
		Limit:     limit,
		Offset:    offset,
		Incidents: out,
	})
}

// POST /incidents/{incidentID}/resolve
func (h *Handler) ResolveIncident(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	ownerID, ok := middle.OwnerFromContext(ctx)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "")
		return
	}

	incidentID, err := uuid.Parse(chi.URLParam(r, "incidentID"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "invalid incident id")
		return
	}

	if err := h.service.ResolveManual(ctx, ownerID, incidentID); err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}
	utils.WriteJSON[any](w, http.StatusOK, reqID, "incident resolved", nil)
}

// POST /incidents/{incidentID}/comments
func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	ownerID, ok := middle.OwnerFromContext(ctx)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "")
		return
	}

	incidentID, err := uuid.Parse(chi.URLParam(r, "incidentID"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "invalid incident id")
		return
	}

	var req AddCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, err.Error())
		return
	}

	if err := h.service.AddComment(ctx, ownerID, incidentID, req.Message); err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}
	utils.WriteJSON[any](w, http.StatusCreated, reqID, "comment added", nil)
}

// GET /incidents/{incidentID}/timeline
func (h *Handler) GetTimeline(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	ownerID, ok := middle.OwnerFromContext(ctx)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "")
		return
	}

	incidentID, err := uuid.Parse(chi.URLParam(r, "incidentID"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "invalid incident id")
		return
	}

	entries, err := h.service.Timeline(ctx, ownerID, incidentID)
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}

	out := make([]TimelineEntryResponse, 0, len(entries))
	for i := range entries {
		out = append(out, TimelineEntryResponse{
			Type:    string(entries[i].Type),
			Message: entries[i].Message,
			Time:    entries[i].Time,
		})
	}
	utils.WriteJSON(w, http.StatusOK, reqID, "", out)
}

func (h *Handler) DeleteIncident(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	ownerID, ok := middle.OwnerFromContext(ctx)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "")
		return
	}

	incidentID, err := uuid.Parse(chi.URLParam(r, "incidentID"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "invalid incident id")
		return
	}

	if err := h.service.DeleteManual(ctx, ownerID, incidentID); err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}
	utils.WriteJSON[any](w, http.StatusOK, reqID, "incident deleted", nil)
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
