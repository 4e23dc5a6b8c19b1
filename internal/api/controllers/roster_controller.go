package controllers

import (
	"errors"

	"github.com/curaious/tasky/internal/perrors"
	"github.com/curaious/tasky/internal/services"
	"github.com/curaious/tasky/internal/services/roster"
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
)

func RegisterRosterRoutes(r *router.Router, svc *services.Services) {
	// List roster
	r.GET("/api/team-members", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		p, err := adminPrincipal(ctx)
		if err != nil {
			writeError(ctx, stdCtx, "Only admins have a team", err)
			return
		}

		members, err := svc.Roster.ListMembers(stdCtx, p.ID)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to list team members", err)
			return
		}

		writeOK(ctx, stdCtx, "Team members retrieved successfully", members)
	})

	// Add member by email
	r.POST("/api/team-members", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		p, err := adminPrincipal(ctx)
		if err != nil {
			writeError(ctx, stdCtx, "Only admins have a team", err)
			return
		}

		var body roster.AddMemberRequest
		if err := parseBody(ctx, &body); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", invalidRequest("Invalid request body", err))
			return
		}

		member, err := svc.Roster.AddMember(stdCtx, p.ID, &body)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to add team member", err)
			return
		}

		writeCreated(ctx, stdCtx, "Team member added successfully", member)
	})

	// The static "assignable" segment shares the {id} position with member ids.
	r.GET("/api/team-members/{id}", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		p, err := adminPrincipal(ctx)
		if err != nil {
			writeError(ctx, stdCtx, "Only admins have a team", err)
			return
		}

		if id, _ := pathParam(ctx, "id"); id != "assignable" {
			writeError(ctx, stdCtx, "Route not found", perrors.New(perrors.ErrCodeNotFound, "Route not found", errors.New("no such team member route")))
			return
		}

		users, err := svc.Roster.AssignableUsers(stdCtx, p.ID)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to list assignable users", err)
			return
		}

		writeOK(ctx, stdCtx, "Assignable users retrieved successfully", users)
	})

	// Remove member by roster entry id
	r.DELETE("/api/team-members/{id}", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		p, err := adminPrincipal(ctx)
		if err != nil {
			writeError(ctx, stdCtx, "Only admins have a team", err)
			return
		}

		id, err := pathParamUUID(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "Invalid ID format", err)
			return
		}

		if err := svc.Roster.RemoveMember(stdCtx, p.ID, id); err != nil {
			writeError(ctx, stdCtx, "Failed to remove team member", err)
			return
		}

		writeOK(ctx, stdCtx, "Team member removed successfully", nil)
	})
}
