package controllers

import (
	"time"

	"github.com/curaious/tasky/internal/services"
	"github.com/curaious/tasky/internal/services/event"
	"github.com/curaious/tasky/internal/services/report"
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
)

func RegisterEventRoutes(r *router.Router, svc *services.Services) {
	// List the caller's events, optionally bounded by ?from= and ?to=
	r.GET("/api/events", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		p, err := principal(ctx)
		if err != nil {
			writeError(ctx, stdCtx, "Unauthorized", err)
			return
		}

		var rng event.Range
		if rng.From, err = optionalDateQuery(ctx, "from"); err != nil {
			writeError(ctx, stdCtx, "Invalid from date", err)
			return
		}
		if rng.To, err = optionalDateQuery(ctx, "to"); err != nil {
			writeError(ctx, stdCtx, "Invalid to date", err)
			return
		}

		events, err := svc.Event.List(stdCtx, p.ID, rng)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to list events", err)
			return
		}

		writeOK(ctx, stdCtx, "Events retrieved successfully", events)
	})

	r.POST("/api/events", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		p, err := principal(ctx)
		if err != nil {
			writeError(ctx, stdCtx, "Unauthorized", err)
			return
		}

		var body event.CreateEventRequest
		if err := parseBody(ctx, &body); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", invalidRequest("Invalid request body", err))
			return
		}

		e, err := svc.Event.Create(stdCtx, p.ID, &body)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to create event", err)
			return
		}

		writeCreated(ctx, stdCtx, "Event created successfully", e)
	})

	r.GET("/api/events/{id}", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		p, err := principal(ctx)
		if err != nil {
			writeError(ctx, stdCtx, "Unauthorized", err)
			return
		}

		id, err := pathParamUUID(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "Invalid ID format", err)
			return
		}

		e, err := svc.Event.Get(stdCtx, p.ID, id)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to get event", err)
			return
		}

		writeOK(ctx, stdCtx, "Event retrieved successfully", e)
	})

	r.PUT("/api/events/{id}", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		p, err := principal(ctx)
		if err != nil {
			writeError(ctx, stdCtx, "Unauthorized", err)
			return
		}

		id, err := pathParamUUID(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "Invalid ID format", err)
			return
		}

		var body event.UpdateEventRequest
		if err := parseBody(ctx, &body); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", invalidRequest("Invalid request body", err))
			return
		}

		e, err := svc.Event.Update(stdCtx, p.ID, id, &body)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to update event", err)
			return
		}

		writeOK(ctx, stdCtx, "Event updated successfully", e)
	})

	r.DELETE("/api/events/{id}", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		p, err := principal(ctx)
		if err != nil {
			writeError(ctx, stdCtx, "Unauthorized", err)
			return
		}

		id, err := pathParamUUID(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "Invalid ID format", err)
			return
		}

		if err := svc.Event.Delete(stdCtx, p.ID, id); err != nil {
			writeError(ctx, stdCtx, "Failed to delete event", err)
			return
		}

		writeOK(ctx, stdCtx, "Event deleted successfully", nil)
	})
}

func optionalDateQuery(ctx *fasthttp.RequestCtx, key string) (*time.Time, error) {
	raw := optionalStringQuery(ctx, key)
	if raw == "" {
		return nil, nil
	}

	t, err := report.ParseReferenceDate(raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
