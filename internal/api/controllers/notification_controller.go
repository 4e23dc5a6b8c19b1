package controllers

import (
	"github.com/curaious/tasky/internal/services"
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
)

func RegisterNotificationRoutes(r *router.Router, svc *services.Services) {
	// ?unread=true limits the list to unread notifications
	r.GET("/api/notifications", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		p, err := principal(ctx)
		if err != nil {
			writeError(ctx, stdCtx, "Unauthorized", err)
			return
		}

		unreadOnly := ctx.QueryArgs().GetBool("unread")
		notes, err := svc.Notification.List(stdCtx, p.ID, unreadOnly)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to list notifications", err)
			return
		}

		writeOK(ctx, stdCtx, "Notifications retrieved successfully", notes)
	})

	// The static "all" segment shares the {id} position with notification ids.
	r.PUT("/api/notifications/{id}/read", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		p, err := principal(ctx)
		if err != nil {
			writeError(ctx, stdCtx, "Unauthorized", err)
			return
		}

		if raw, _ := pathParam(ctx, "id"); raw == "all" {
			n, err := svc.Notification.MarkAllRead(stdCtx, p.ID)
			if err != nil {
				writeError(ctx, stdCtx, "Failed to mark notifications read", err)
				return
			}
			writeOK(ctx, stdCtx, "Notifications marked as read", map[string]int64{"updated": n})
			return
		}

		id, err := pathParamUUID(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "Invalid ID format", err)
			return
		}

		if err := svc.Notification.MarkRead(stdCtx, p.ID, id); err != nil {
			writeError(ctx, stdCtx, "Failed to mark notification read", err)
			return
		}

		writeOK(ctx, stdCtx, "Notification marked as read", nil)
	})
}
