package monitor

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.CreateMonitor)
	r.Get("/", h.ListMonitors)
	r.Get("/{monitorID}", h.GetMonitor)
	r.Patch("/{monitorID}", h.UpdateMonitorStatus)
	r.Delete("/{monitorID}", h.DeleteMonitor)
	r.Put("/{monitorID}/schedule", h.UpsertSchedule)
	r.Delete("/{monitorID}/schedule", h.RemoveSchedule)
	r.Get("/{monitorID}/status", h.GetMonitorStatus)
	r.Get("/{monitorID}/ticks", h.GetMonitorTicks)

	return r
}

/*
- POST: /monitors  -> create monitor (active or passive)
- GET: /monitors?offset={}&limit={}  -> list owner's monitors
- GET: /monitors/{monitorID}  -> monitor details
- PATCH: /monitors/{monitorID}  -> enable / disable
- DELETE: /monitors/{monitorID}  -> delete monitor and its schedule
- PUT: /monitors/{monitorID}/schedule  -> re-register the recurring check at a new interval
- DELETE: /monitors/{monitorID}/schedule  -> cancel the recurring check
- GET: /monitors/{monitorID}/status  -> aggregated health
- GET: /monitors/{monitorID}/ticks?minutes={}  -> raw tick history
*/
