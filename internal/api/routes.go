package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/curaious/tasky/internal/api/authenticator"
	"github.com/curaious/tasky/internal/api/controllers"
	"github.com/curaious/tasky/internal/api/response"
	"github.com/curaious/tasky/internal/perrors"
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
	"go.opentelemetry.io/otel/propagation"
)

var tracePropagator = propagation.TraceContext{}

var publicRoutes = map[string]bool{
	"/api/health":        true,
	"/api/auth/register": true,
	"/api/auth/login":    true,
	"/api/auth/logout":   true,
}

func (s *Server) initRoutes() fasthttp.RequestHandler {
	r := router.New()

	r.GET("/api/health", func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusOK)
		_, _ = ctx.Write([]byte("OK"))
	})

	controllers.RegisterAuthRoutes(r, s.services, s.auth, s.conf.SECURE_COOKIE)
	controllers.RegisterRosterRoutes(r, s.services)
	controllers.RegisterTaskRoutes(r, s.services)
	controllers.RegisterReportRoutes(r, s.services)
	controllers.RegisterEventRoutes(r, s.services)
	controllers.RegisterNotificationRoutes(r, s.services)

	return s.withMiddlewares(r.Handler, s.auth)
}

func (s *Server) withMiddlewares(next fasthttp.RequestHandler, auth *authenticator.Authenticator) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		s.applyCORS(ctx)
		if string(ctx.Method()) == fasthttp.MethodOptions {
			ctx.SetStatusCode(fasthttp.StatusNoContent)
			return
		}

		start := time.Now()
		method := string(ctx.Method())
		path := string(ctx.Path())

		h := http.Header{}
		ctx.Request.Header.VisitAll(func(k, v []byte) {
			h[string(k)] = []string{string(v)}
		})
		traceCtx := tracePropagator.Extract(ctx, propagation.HeaderCarrier(h))
		ctx.SetUserValue(controllers.TraceCtxKey, traceCtx)

		if !publicRoutes[path] {
			claims, err := authenticate(ctx, auth)
			if err != nil {
				response.NewResponse[any](traceCtx, "Unauthorized", nil).
					WithError(perrors.New(perrors.ErrCodeUnauthorized, "Unauthorized", err)).
					Write(ctx)
				return
			}
			ctx.SetUserValue(controllers.ClaimsKey, claims)
		}

		next(ctx)

		slog.InfoContext(traceCtx, "Finished processing",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", ctx.Response.StatusCode()),
			slog.Duration("duration", time.Since(start)))
	}
}

// authenticate reads the bearer token, falling back to the access_token cookie
func authenticate(ctx *fasthttp.RequestCtx, auth *authenticator.Authenticator) (*authenticator.UserClaims, error) {
	accessToken := strings.TrimPrefix(string(ctx.Request.Header.Peek("Authorization")), "Bearer ")
	if accessToken == "" {
		accessToken = string(ctx.Request.Header.Cookie("access_token"))
	}
	if accessToken == "" {
		return nil, errors.New("missing access token")
	}

	return auth.VerifyAccessToken(accessToken)
}

// applyCORS echoes the request origin only when it is configured in ALLOWED_ORIGINS; other
// origins get no CORS headers and the browser blocks the response.
func (s *Server) applyCORS(ctx *fasthttp.RequestCtx) {
	headers := &ctx.Response.Header
	headers.Add("Vary", "Origin")

	origin := string(ctx.Request.Header.Peek("Origin"))
	if !s.conf.OriginAllowed(origin) {
		return
	}

	headers.Set("Access-Control-Allow-Origin", origin)
	headers.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
	headers.Set("Access-Control-Allow-Headers", s.conf.ALLOWED_HEADERS)
	headers.Set("Access-Control-Allow-Credentials", "true")
}
