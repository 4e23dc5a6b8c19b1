package controllers

import (
	"errors"
	"time"

	"github.com/curaious/tasky/internal/api/authenticator"
	"github.com/curaious/tasky/internal/perrors"
	"github.com/curaious/tasky/internal/services"
	"github.com/curaious/tasky/internal/services/user"
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
)

const accessTokenCookie = "access_token"

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string     `json:"token"`
	User  *user.User `json:"user"`
}

func RegisterAuthRoutes(r *router.Router, svc *services.Services, auth *authenticator.Authenticator, secureCookie bool) {
	login := func(ctx *fasthttp.RequestCtx, u *user.User, message string, status int) {
		stdCtx := requestContext(ctx)

		token, err := auth.GenerateToken(u)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to generate token", perrors.NewErrInternalServerError("Failed to generate token", err))
			return
		}

		var cookie fasthttp.Cookie
		cookie.SetKey(accessTokenCookie)
		cookie.SetValue(token)
		cookie.SetPath("/")
		cookie.SetHTTPOnly(true)
		cookie.SetSecure(secureCookie)
		cookie.SetSameSite(fasthttp.CookieSameSiteLaxMode)
		cookie.SetExpire(time.Now().Add(auth.TTL()))
		ctx.Response.Header.SetCookie(&cookie)

		if status == fasthttp.StatusCreated {
			writeCreated(ctx, stdCtx, message, LoginResponse{Token: token, User: u})
			return
		}
		writeOK(ctx, stdCtx, message, LoginResponse{Token: token, User: u})
	}

	r.POST("/api/auth/register", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)

		var req user.RegisterRequest
		if err := parseBody(ctx, &req); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", invalidRequest("Invalid request body", err))
			return
		}

		u, err := svc.User.Register(stdCtx, &req)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to register user", err)
			return
		}

		login(ctx, u, "User registered successfully", fasthttp.StatusCreated)
	})

	r.POST("/api/auth/login", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)

		var req LoginRequest
		if err := parseBody(ctx, &req); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", invalidRequest("Invalid request body", err))
			return
		}

		if req.Email == "" || req.Password == "" {
			writeError(ctx, stdCtx, "Email and password are required", invalidRequest("Email and password are required", errors.New("missing credentials")))
			return
		}

		u, err := svc.User.Authenticate(stdCtx, req.Email, req.Password)
		if err != nil {
			if errors.Is(err, user.ErrInvalidCredentials) {
				err = perrors.New(perrors.ErrCodeUnauthorized, "Invalid credentials", err)
			}
			writeError(ctx, stdCtx, "Invalid credentials", err)
			return
		}

		login(ctx, u, "Logged in successfully", fasthttp.StatusOK)
	})

	r.GET("/api/auth/me", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)

		p, err := principal(ctx)
		if err != nil {
			writeError(ctx, stdCtx, "Unauthorized", err)
			return
		}

		u, err := svc.User.GetByID(stdCtx, p.ID)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to get user", err)
			return
		}

		writeOK(ctx, stdCtx, "User retrieved successfully", u)
	})

	r.POST("/api/auth/logout", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)

		var cookie fasthttp.Cookie
		cookie.SetKey(accessTokenCookie)
		cookie.SetValue("")
		cookie.SetPath("/")
		cookie.SetHTTPOnly(true)
		cookie.SetExpire(time.Now().Add(-1 * time.Hour))
		ctx.Response.Header.SetCookie(&cookie)

		writeOK(ctx, stdCtx, "Logged out successfully", nil)
	})

	r.PUT("/api/users/me", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)

		p, err := principal(ctx)
		if err != nil {
			writeError(ctx, stdCtx, "Unauthorized", err)
			return
		}

		var req user.UpdateProfileRequest
		if err := parseBody(ctx, &req); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", invalidRequest("Invalid request body", err))
			return
		}

		u, err := svc.User.UpdateProfile(stdCtx, p.ID, &req)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to update profile", err)
			return
		}

		writeOK(ctx, stdCtx, "Profile updated successfully", u)
	})
}
