package controllers

import (
	"errors"
	"log/slog"

	"github.com/curaious/tasky/internal/perrors"
	"github.com/curaious/tasky/internal/services"
	"github.com/curaious/tasky/internal/services/report"
	"github.com/curaious/tasky/internal/services/task"
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
)

var errReportRateLimited = errors.New("report rate limit exceeded")

func RegisterReportRoutes(r *router.Router, svc *services.Services) {
	// The "summary" segment shares the {type} position with the windowed report types.
	r.GET("/api/reports/{type}", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		p, err := principal(ctx)
		if err != nil {
			writeError(ctx, stdCtx, "Unauthorized", err)
			return
		}

		allowed, err := svc.ReportLimiter.Allow(stdCtx, p.ID.String())
		if err != nil {
			slog.WarnContext(stdCtx, "Rate limit check failed, allowing request", slog.Any("error", err))
		} else if !allowed {
			writeError(ctx, stdCtx, "Too many report requests", perrors.New(perrors.ErrCodeTooManyRequests, "Too many report requests", errReportRateLimited))
			return
		}

		kind, _ := pathParam(ctx, "type")
		if kind == "summary" {
			opts, err := summaryOptions(ctx)
			if err != nil {
				writeError(ctx, stdCtx, "Invalid filter", err)
				return
			}

			sum, err := svc.Report.Summary(stdCtx, p, opts)
			if err != nil {
				writeError(ctx, stdCtx, "Failed to build summary", err)
				return
			}
			writeOK(ctx, stdCtx, "Summary generated successfully", sum)
			return
		}

		rt, err := report.ParseReportType(kind)
		if err != nil {
			writeError(ctx, stdCtx, "Invalid report type", err)
			return
		}

		ref, err := report.ParseReferenceDate(optionalStringQuery(ctx, "date"))
		if err != nil {
			writeError(ctx, stdCtx, "Invalid report date", err)
			return
		}

		rep, err := svc.Report.Generate(stdCtx, p, rt, ref)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to generate report", err)
			return
		}

		writeOK(ctx, stdCtx, "Report generated successfully", rep)
	})
}

func summaryOptions(ctx *fasthttp.RequestCtx) (report.SummaryOptions, error) {
	var opts report.SummaryOptions

	userID, err := optionalUUIDQuery(ctx, "userId")
	if err != nil {
		return opts, err
	}
	opts.UserID = userID

	if raw := optionalStringQuery(ctx, "priority"); raw != "" && raw != "all" {
		priority, err := task.ParsePriority(raw)
		if err != nil {
			return opts, err
		}
		opts.Priority = &priority
	}

	return opts, nil
}
