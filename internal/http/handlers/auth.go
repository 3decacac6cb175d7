package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/accounthub/internal/config"
	"github.com/geocoder89/accounthub/internal/domain/account"
	"github.com/geocoder89/accounthub/internal/http/middlewares"
	"github.com/geocoder89/accounthub/internal/observability"
	"github.com/gin-gonic/gin"
)

const requestTimeout = 5 * time.Second

type Registrar interface {
	Register(ctx context.Context, c account.Candidate) (account.Account, error)
	Get(ctx context.Context, id string) (account.Account, error)
}

type Authenticator interface {
	Authenticate(ctx context.Context, email, secret string) (account.Account, error)
}

type TokenIssuer interface {
	GenerateAccessToken(accountID, email, role string) (string, error)
	AccessTTL() time.Duration
}

type AuthHandler struct {
	accounts Registrar
	gate     Authenticator
	tokens   TokenIssuer
	prom     *observability.Prom
	log      *slog.Logger
	now      func() time.Time
}

func NewAuthHandler(accounts Registrar, gate Authenticator, tokens TokenIssuer, prom *observability.Prom, log *slog.Logger) *AuthHandler {
	if log == nil {
		log = slog.Default()
	}

	return &AuthHandler{
		accounts: accounts,
		gate:     gate,
		tokens:   tokens,
		prom:     prom,
		log:      log,
		now:      time.Now,
	}
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	candidate, fieldErr := req.candidate(h.now())
	if fieldErr != nil {
		RespondBadRequest(ctx, "Invalid request body", gin.H{"fields": []FieldError{*fieldErr}})
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), requestTimeout)
	defer cancel()

	created, err := h.accounts.Register(cctx, candidate)
	h.countRegistration(err)

	if err != nil {
		respondAccountError(ctx, h.log, "register", err)
		return
	}

	ctx.Header("Location", "/api/users/"+created.ID)
	ctx.JSON(http.StatusCreated, created)
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), requestTimeout)
	defer cancel()

	a, err := h.gate.Authenticate(cctx, req.Email, req.Secret)
	h.countLogin(err)

	if err != nil {
		respondAccountError(ctx, h.log, "login", err)
		return
	}

	token, err := h.tokens.GenerateAccessToken(a.ID, a.Email, string(a.Role))
	if err != nil {
		respondAccountError(ctx, h.log, "login", err)
		return
	}

	ctx.JSON(http.StatusOK, LoginResponse{
		Account:     a,
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(h.tokens.AccessTTL().Seconds()),
	})
}

func (h *AuthHandler) Me(ctx *gin.Context) {
	id, ok := middlewares.AccountIDFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Missing account identity")
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), requestTimeout)
	defer cancel()

	a, err := h.accounts.Get(cctx, id)
	if err != nil {
		// the token outlived its account
		if errors.Is(err, account.ErrNotFound) {
			RespondUnauthorized(ctx, "unauthorized", "Account no longer exists")
			return
		}
		respondAccountError(ctx, h.log, "me", err)
		return
	}

	respondAccountWithETag(ctx, a)
}

func (h *AuthHandler) countRegistration(err error) {
	if h.prom == nil {
		return
	}

	result := "created"
	switch {
	case err == nil:
	case errors.Is(err, account.ErrDuplicateIdentity):
		result = "duplicate"
	case errors.Is(err, account.ErrInvalidAge):
		result = "invalid_age"
	default:
		result = "error"
	}

	h.prom.Registrations.WithLabelValues(result).Inc()
}

func (h *AuthHandler) countLogin(err error) {
	if h.prom == nil {
		return
	}

	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, account.ErrInvalidCredentials):
		result = "invalid_credentials"
	case errors.Is(err, account.ErrAccountInactive):
		result = "inactive"
	default:
		result = "error"
	}

	h.prom.Logins.WithLabelValues(result).Inc()
}
