package incident

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.CreateIncident)
	r.Get("/", h.ListIncidents)
	r.Get("/{incidentID}", h.GetIncident)
	r.Delete("/{incidentID}", h.DeleteIncident)
	r.Post("/{incidentID}/resolve", h.ResolveIncident)
	r.Post("/{incidentID}/comments", h.AddComment)
	r.Get("/{incidentID}/timeline", h.GetTimeline)

	return r
}

/*
- POST: /incidents  -> report a manual incident
- GET: /incidents?offset={}&limit={}  -> list owner's incidents
- GET: /incidents/{incidentID}  -> incident details
- DELETE: /incidents/{incidentID}  -> delete a manual incident
- POST: /incidents/{incidentID}/resolve  -> resolve manually
- POST: /incidents/{incidentID}/comments  -> append a comment
- GET: /incidents/{incidentID}/timeline  -> full timeline
*/
