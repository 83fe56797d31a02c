package app

import (
	"time"

	middle "github.com/milankatira/uptime-sub000/internals/middleware"
	"github.com/milankatira/uptime-sub000/internals/modules/heartbeat"
	"github.com/milankatira/uptime-sub000/internals/modules/incident"
	"github.com/milankatira/uptime-sub000/internals/modules/monitor"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func RegisterRoutes(c *Container) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middle.Logger(c.Logger))
	r.Use(middleware.Timeout(10 * time.Second))

	r.Route("/api/v1", func(v1 chi.Router) {
		v1.With(middle.Owner).
			Mount("/monitors", monitor.Routes(c.monitorHandler))

		v1.With(middle.Owner).
			Mount("/incidents", incident.Routes(c.incidentHandler))

		// heartbeat ping stays open; the route set applies Owner itself
		v1.Mount("/heartbeats", heartbeat.Routes(c.heartbeatHandler, middle.Owner))
	})

	return r
}
