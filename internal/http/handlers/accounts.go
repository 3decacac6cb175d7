package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/geocoder89/accounthub/internal/config"
	"github.com/geocoder89/accounthub/internal/domain/account"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AccountService interface {
	Get(ctx context.Context, id string) (account.Account, error)
	List(ctx context.Context, filter account.ListFilter) ([]account.Account, error)
	Stats(ctx context.Context) (account.Stats, error)
	UpdateProfile(ctx context.Context, id string, u account.ProfileUpdate) (account.Account, error)
	Delete(ctx context.Context, id string) error
	SetRole(ctx context.Context, id string, raw string) (account.Account, error)
	SetStatus(ctx context.Context, id string, raw string) (account.Account, error)
	ChangeSecret(ctx context.Context, id, current, next string) error
}

type AccountsHandler struct {
	svc AccountService
	log *slog.Logger
}

func NewAccountsHandler(svc AccountService, log *slog.Logger) *AccountsHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AccountsHandler{svc: svc, log: log}
}

// accountID reads and checks the :id path parameter.
func accountID(ctx *gin.Context) (string, bool) {
	id := ctx.Param("id")

	if _, err := uuid.Parse(id); err != nil {
		RespondError(ctx, http.StatusBadRequest, "invalid_id", "Account id must be a UUID", nil)
		return "", false
	}

	return id, true
}

func (h *AccountsHandler) List(ctx *gin.Context) {
	var filter account.ListFilter

	if raw, ok := ctx.GetQuery("role"); ok {
		role, err := account.ParseRole(raw)
		if err != nil {
			respondAccountError(ctx, h.log, "list", err)
			return
		}
		filter.Role = &role
	}

	if raw, ok := ctx.GetQuery("status"); ok {
		status, err := account.ParseStatus(raw)
		if err != nil {
			respondAccountError(ctx, h.log, "list", err)
			return
		}
		filter.Status = &status
	}

	if city, ok := ctx.GetQuery("city"); ok {
		filter.City = &city
	}

	if country, ok := ctx.GetQuery("country"); ok {
		filter.Country = &country
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), requestTimeout)
	defer cancel()

	items, err := h.svc.List(cctx, filter)
	if err != nil {
		respondAccountError(ctx, h.log, "list", err)
		return
	}

	if items == nil {
		items = []account.Account{}
	}

	ctx.JSON(http.StatusOK, ListResponse{Items: items, Count: len(items)})
}

func (h *AccountsHandler) Stats(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), requestTimeout)
	defer cancel()

	stats, err := h.svc.Stats(cctx)
	if err != nil {
		respondAccountError(ctx, h.log, "stats", err)
		return
	}

	ctx.JSON(http.StatusOK, stats)
}

func (h *AccountsHandler) Get(ctx *gin.Context) {
	id, ok := accountID(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), requestTimeout)
	defer cancel()

	a, err := h.svc.Get(cctx, id)
	if err != nil {
		respondAccountError(ctx, h.log, "get", err)
		return
	}

	respondAccountWithETag(ctx, a)
}

func (h *AccountsHandler) Update(ctx *gin.Context) {
	id, ok := accountID(ctx)
	if !ok {
		return
	}

	var req UpdateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), requestTimeout)
	defer cancel()

	a, err := h.svc.UpdateProfile(cctx, id, req.profile())
	if err != nil {
		respondAccountError(ctx, h.log, "update", err)
		return
	}

	ctx.JSON(http.StatusOK, a)
}

func (h *AccountsHandler) Delete(ctx *gin.Context) {
	id, ok := accountID(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), requestTimeout)
	defer cancel()

	if err := h.svc.Delete(cctx, id); err != nil {
		respondAccountError(ctx, h.log, "delete", err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (h *AccountsHandler) SetRole(ctx *gin.Context) {
	id, ok := accountID(ctx)
	if !ok {
		return
	}

	var req RoleRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), requestTimeout)
	defer cancel()

	a, err := h.svc.SetRole(cctx, id, req.Role)
	if err != nil {
		respondAccountError(ctx, h.log, "set_role", err)
		return
	}

	ctx.JSON(http.StatusOK, a)
}

func (h *AccountsHandler) SetStatus(ctx *gin.Context) {
	id, ok := accountID(ctx)
	if !ok {
		return
	}

	var req StatusRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), requestTimeout)
	defer cancel()

	a, err := h.svc.SetStatus(cctx, id, req.Status)
	if err != nil {
		respondAccountError(ctx, h.log, "set_status", err)
		return
	}

	ctx.JSON(http.StatusOK, a)
}

func (h *AccountsHandler) ChangeSecret(ctx *gin.Context) {
	id, ok := accountID(ctx)
	if !ok {
		return
	}

	var req ChangeSecretRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), requestTimeout)
	defer cancel()

	if err := h.svc.ChangeSecret(cctx, id, req.CurrentSecret, req.NewSecret); err != nil {
		respondAccountError(ctx, h.log, "change_secret", err)
		return
	}

	ctx.Status(http.StatusNoContent)
}
