package controllers

import (
	"github.com/curaious/tasky/internal/services"
	"github.com/curaious/tasky/internal/services/report"
	"github.com/curaious/tasky/internal/services/task"
	"github.com/curaious/tasky/internal/services/user"
	"github.com/fasthttp/router"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
)

func RegisterTaskRoutes(r *router.Router, svc *services.Services) {
	// Create task
	r.POST("/api/tasks", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		p, err := adminPrincipal(ctx)
		if err != nil {
			writeError(ctx, stdCtx, "Only admins create tasks", err)
			return
		}

		var body task.CreateTaskRequest
		if err := parseBody(ctx, &body); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", invalidRequest("Invalid request body", err))
			return
		}

		created, err := svc.Task.Create(stdCtx, p.ID, &body)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to create task", err)
			return
		}

		writeCreated(ctx, stdCtx, "Task created successfully", created)
	})

	// List tasks: admins see what they authored, users what is assigned to them
	r.GET("/api/tasks", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		p, err := principal(ctx)
		if err != nil {
			writeError(ctx, stdCtx, "Unauthorized", err)
			return
		}

		svc.Sweeper.Reconcile(stdCtx, report.ScopeOf(p))

		var tasks []*task.TaskDetails
		if p.IsAdmin() {
			opts, optsErr := listOptions(ctx)
			if optsErr != nil {
				writeError(ctx, stdCtx, "Invalid filter", optsErr)
				return
			}
			tasks, err = svc.Task.ListByCreator(stdCtx, p.ID, opts)
		} else {
			tasks, err = svc.Task.ListByAssignee(stdCtx, p.ID)
		}
		if err != nil {
			writeError(ctx, stdCtx, "Failed to list tasks", err)
			return
		}
		if tasks == nil {
			tasks = []*task.TaskDetails{}
		}

		writeOK(ctx, stdCtx, "Tasks retrieved successfully", tasks)
	})

	// Get task, or the stats of an assignee when the segment is "stats"
	r.GET("/api/tasks/{id}", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		p, err := principal(ctx)
		if err != nil {
			writeError(ctx, stdCtx, "Unauthorized", err)
			return
		}

		if raw, _ := pathParam(ctx, "id"); raw == "stats" {
			userID := p.ID
			if requested, err := optionalUUIDQuery(ctx, "userId"); err != nil {
				writeError(ctx, stdCtx, "Invalid userId", err)
				return
			} else if requested != nil {
				userID = *requested
			}

			stats, err := svc.Report.Stats(stdCtx, p, userID)
			if err != nil {
				writeError(ctx, stdCtx, "Failed to compute task statistics", err)
				return
			}
			writeOK(ctx, stdCtx, "Task statistics retrieved successfully", stats)
			return
		}

		id, err := pathParamUUID(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "Invalid ID format", err)
			return
		}

		svc.Sweeper.Reconcile(stdCtx, report.ScopeOf(p))

		t, err := svc.Task.Get(stdCtx, p, id)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to get task", err)
			return
		}

		writeOK(ctx, stdCtx, "Task retrieved successfully", t)
	})

	// Edit task
	r.PUT("/api/tasks/{id}", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		p, id, ok := adminTaskTarget(ctx)
		if !ok {
			return
		}

		var body task.UpdateTaskRequest
		if err := parseBody(ctx, &body); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", invalidRequest("Invalid request body", err))
			return
		}

		updated, err := svc.Task.Update(stdCtx, p.ID, id, &body)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to update task", err)
			return
		}

		writeOK(ctx, stdCtx, "Task updated successfully", updated)
	})

	// Delete task
	r.DELETE("/api/tasks/{id}", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		p, id, ok := adminTaskTarget(ctx)
		if !ok {
			return
		}

		if err := svc.Task.Delete(stdCtx, p.ID, id); err != nil {
			writeError(ctx, stdCtx, "Failed to delete task", err)
			return
		}

		writeOK(ctx, stdCtx, "Task deleted successfully", nil)
	})

	// Set status
	r.PUT("/api/tasks/{id}/status", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		p, id, ok := taskTarget(ctx)
		if !ok {
			return
		}

		var body task.UpdateStatusRequest
		if err := parseBody(ctx, &body); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", invalidRequest("Invalid request body", err))
			return
		}

		updated, err := svc.Task.UpdateStatus(stdCtx, p, id, body.Status)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to update task status", err)
			return
		}

		writeOK(ctx, stdCtx, "Task status updated successfully", updated)
	})

	// Reassign
	r.PUT("/api/tasks/{id}/assign", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		p, id, ok := adminTaskTarget(ctx)
		if !ok {
			return
		}

		var body task.AssignRequest
		if err := parseBody(ctx, &body); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", invalidRequest("Invalid request body", err))
			return
		}

		updated, err := svc.Task.Assign(stdCtx, p.ID, id, body.UserID)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to assign task", err)
			return
		}

		writeOK(ctx, stdCtx, "Task assigned successfully", updated)
	})

	// Replace dependencies
	r.PUT("/api/tasks/{id}/dependencies", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		p, id, ok := adminTaskTarget(ctx)
		if !ok {
			return
		}

		var body task.SetDependenciesRequest
		if err := parseBody(ctx, &body); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", invalidRequest("Invalid request body", err))
			return
		}

		updated, err := svc.Task.SetDependencies(stdCtx, p.ID, id, body.Dependencies)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to set task dependencies", err)
			return
		}

		writeOK(ctx, stdCtx, "Task dependencies updated successfully", updated)
	})

	// Comment
	r.POST("/api/tasks/{id}/comments", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		p, id, ok := taskTarget(ctx)
		if !ok {
			return
		}

		var body task.AddCommentRequest
		if err := parseBody(ctx, &body); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", invalidRequest("Invalid request body", err))
			return
		}

		updated, err := svc.Task.AddComment(stdCtx, p, id, body.Content)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to add comment", err)
			return
		}

		writeCreated(ctx, stdCtx, "Comment added successfully", updated)
	})

	// Attachment metadata
	r.POST("/api/tasks/{id}/attachments", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		p, id, ok := taskTarget(ctx)
		if !ok {
			return
		}

		var body task.AddAttachmentRequest
		if err := parseBody(ctx, &body); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", invalidRequest("Invalid request body", err))
			return
		}

		updated, err := svc.Task.AddAttachment(stdCtx, p, id, &body)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to add attachment", err)
			return
		}

		writeCreated(ctx, stdCtx, "Attachment added successfully", updated)
	})
}

// taskTarget resolves the caller and the task id of a per-task route, writing the error
// response itself when either is missing.
func taskTarget(ctx *fasthttp.RequestCtx) (p user.Principal, id uuid.UUID, ok bool) {
	stdCtx := requestContext(ctx)

	p, err := principal(ctx)
	if err != nil {
		writeError(ctx, stdCtx, "Unauthorized", err)
		return p, uuid.Nil, false
	}

	id, err = pathParamUUID(ctx, "id")
	if err != nil {
		writeError(ctx, stdCtx, "Invalid ID format", err)
		return p, uuid.Nil, false
	}
	return p, id, true
}

func adminTaskTarget(ctx *fasthttp.RequestCtx) (p user.Principal, id uuid.UUID, ok bool) {
	p, id, ok = taskTarget(ctx)
	if !ok {
		return p, id, false
	}
	if !p.IsAdmin() {
		writeError(ctx, requestContext(ctx), "Only admins manage tasks", errAdminRequired)
		return p, id, false
	}
	return p, id, true
}

func listOptions(ctx *fasthttp.RequestCtx) (task.ListOptions, error) {
	var opts task.ListOptions

	assignee, err := optionalUUIDQuery(ctx, "userId")
	if err != nil {
		return opts, err
	}
	opts.AssignedTo = assignee

	if raw := optionalStringQuery(ctx, "priority"); raw != "" {
		priority, err := task.ParsePriority(raw)
		if err != nil {
			return opts, err
		}
		opts.Priority = &priority
	}

	if raw := optionalStringQuery(ctx, "status"); raw != "" {
		status, err := task.ParseStatus(raw)
		if err != nil {
			return opts, err
		}
		opts.Status = &status
	}

	return opts, nil
}
