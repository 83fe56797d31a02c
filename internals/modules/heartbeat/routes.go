package heartbeat

import (
	middle "github.com/milankatira/uptime-sub000/internals/middleware"

	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, owner middle.Middleware) chi.Router {
	r := chi.NewRouter()

	r.Post("/{monitorID}/ping", h.Ping)
	r.With(owner).Post("/{monitorID}/ack", h.Acknowledge)
	r.With(owner).Get("/{monitorID}/records", h.GetRecords)

	return r
}

/*
- POST: /heartbeats/{monitorID}/ping  -> report UP / DOWN (no owner header)
- POST: /heartbeats/{monitorID}/ack  -> acknowledge a DOWN monitor
- GET: /heartbeats/{monitorID}/records?minutes={}  -> raw heartbeat history
*/
