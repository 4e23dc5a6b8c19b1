package controllers

import (
	"context"
	"errors"
	"fmt"

	json "github.com/bytedance/sonic"
	"github.com/curaious/tasky/internal/api/authenticator"
	"github.com/curaious/tasky/internal/api/response"
	"github.com/curaious/tasky/internal/perrors"
	"github.com/curaious/tasky/internal/services/user"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
)

const (
	// ClaimsKey holds the *authenticator.UserClaims of an authenticated request
	ClaimsKey = "userClaims"
	// TraceCtxKey holds the context carrying the propagated trace of the request
	TraceCtxKey = "traceCtx"
)

var (
	errUnauthenticated = errors.New("authentication required")
	errAdminRequired   = fmt.Errorf("admin role required: %w", perrors.ErrForbidden)
)

// requestContext returns the context handlers pass downstream: the propagated trace context when
// the middleware extracted one, Background otherwise.
func requestContext(ctx *fasthttp.RequestCtx) context.Context {
	if traceCtx, ok := ctx.UserValue(TraceCtxKey).(context.Context); ok && traceCtx != nil {
		return traceCtx
	}
	return context.Background()
}

func parseBody(ctx *fasthttp.RequestCtx, target any) error {
	body := ctx.PostBody()
	if len(body) == 0 {
		return errors.New("request body is empty")
	}

	return json.Unmarshal(body, target)
}

func writeError(ctx *fasthttp.RequestCtx, stdCtx context.Context, message string, err error) {
	response.NewResponse[any](stdCtx, message, nil).WithError(err).Write(ctx)
}

func writeOK(ctx *fasthttp.RequestCtx, stdCtx context.Context, message string, data any) {
	response.NewResponse(stdCtx, message, data).Write(ctx)
}

func writeCreated(ctx *fasthttp.RequestCtx, stdCtx context.Context, message string, data any) {
	response.NewResponse(stdCtx, message, data).WithStatus(fasthttp.StatusCreated).Write(ctx)
}

func invalidRequest(msg string, err error) error {
	return perrors.NewErrInvalidRequest(msg, err)
}

// principal returns the authenticated caller. Every non public route runs behind the auth
// middleware, so a missing principal is answered with 401.
func principal(ctx *fasthttp.RequestCtx) (user.Principal, error) {
	claims, ok := ctx.UserValue(ClaimsKey).(*authenticator.UserClaims)
	if !ok || claims == nil {
		return user.Principal{}, perrors.New(perrors.ErrCodeUnauthorized, "Unauthorized", errUnauthenticated)
	}
	return claims.Principal(), nil
}

func adminPrincipal(ctx *fasthttp.RequestCtx) (user.Principal, error) {
	p, err := principal(ctx)
	if err != nil {
		return p, err
	}
	if !p.IsAdmin() {
		return p, errAdminRequired
	}
	return p, nil
}

func pathParam(ctx *fasthttp.RequestCtx, key string) (string, error) {
	val := ctx.UserValue(key)
	if val == nil {
		return "", fmt.Errorf("%s is required", key)
	}

	return fmt.Sprint(val), nil
}

func pathParamUUID(ctx *fasthttp.RequestCtx, key string) (uuid.UUID, error) {
	val, err := pathParam(ctx, key)
	if err != nil {
		return uuid.Nil, invalidRequest("Invalid ID format", err)
	}

	id, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, invalidRequest("Invalid ID format", err)
	}
	return id, nil
}

func optionalStringQuery(ctx *fasthttp.RequestCtx, key string) string {
	return string(ctx.QueryArgs().Peek(key))
}

func optionalUUIDQuery(ctx *fasthttp.RequestCtx, key string) (*uuid.UUID, error) {
	raw := ctx.QueryArgs().Peek(key)
	if len(raw) == 0 {
		return nil, nil
	}

	id, err := uuid.ParseBytes(raw)
	if err != nil {
		return nil, invalidRequest(fmt.Sprintf("Invalid %s", key), err)
	}
	return &id, nil
}
