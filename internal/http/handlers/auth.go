package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/authhub/internal/domain/user"
	"github.com/geocoder89/authhub/internal/service"
	"github.com/gin-gonic/gin"
)

// Authenticator is the part of service.AuthService the handlers call.
type Authenticator interface {
	Register(ctx context.Context, in service.RegisterInput) (user.User, error)
	Login(ctx context.Context, in service.LoginInput) (service.LoginResult, error)
}

type AuthHandler struct {
	auth Authenticator
	log  *slog.Logger
}

func NewAuthHandler(auth Authenticator, log *slog.Logger) *AuthHandler {
	if log == nil {
		log = slog.Default()
	}

	return &AuthHandler{auth: auth, log: log}
}

// bcrypt plus two round trips; generous so slow hashing does not surface as 500s
const authTimeout = 5 * time.Second

var conflictMessages = map[string]struct{ code, message string }{
	user.FieldUsername: {code: "username_taken", message: "Username is already taken."},
	user.FieldEmail:    {code: "email_taken", message: "Email is already in use."},
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req service.RegisterInput

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), authTimeout)
	defer cancel()

	created, err := h.auth.Register(cctx, req)

	if err != nil {
		var validationErr *user.ValidationError
		var conflictErr *user.ConflictError

		switch {
		case errors.As(err, &validationErr):
			RespondBadRequest(ctx, "Invalid request body", fieldErrorDetails(FieldError{
				Field:   validationErr.Field,
				Rule:    validationErr.Rule,
				Param:   validationErr.Param,
				Message: validationErr.Message,
			}))

		case errors.As(err, &conflictErr):
			msg, ok := conflictMessages[conflictErr.Field]
			if !ok {
				msg = conflictMessages[user.FieldUsername]
			}
			RespondFieldError(ctx, http.StatusBadRequest, msg.code, conflictErr.Field, msg.message)

		default:
			h.log.ErrorContext(ctx.Request.Context(), "registration failed", "err", err, "request_id", requestIDFrom(ctx))
			RespondInternal(ctx, "Error registering user")
		}
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    created.Public(),
	})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req service.LoginInput

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), authTimeout)
	defer cancel()

	res, err := h.auth.Login(cctx, req)

	if err != nil {
		if errors.Is(err, user.ErrInvalidCredentials) {
			RespondUnauthorized(ctx, "invalid_credentials", "Invalid username or password.")
			return
		}

		h.log.ErrorContext(ctx.Request.Context(), "login failed", "err", err, "request_id", requestIDFrom(ctx))
		RespondInternal(ctx, "Error logging in user")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"token":     res.Token,
		"expiresAt": res.ExpiresAt,
	})
}
