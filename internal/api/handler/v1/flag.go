package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sportsclubhq/clubsync/internal/api/handler/v1/request"
	"github.com/sportsclubhq/clubsync/internal/api/handler/v1/response"
	"github.com/sportsclubhq/clubsync/internal/api/middleware"
	"github.com/sportsclubhq/clubsync/internal/domain"
)

var errAdminOnly = errors.New("feature flags are managed by admins only")

type FlagService interface {
	Upsert(ctx context.Context, flag domain.FeatureFlag) (domain.FeatureFlag, error)
}

type FlagHandler struct {
	svc FlagService
}

func NewFlagHandler(svc FlagService) *FlagHandler {
	return &FlagHandler{
		svc: svc,
	}
}

// HandleUpsert godoc
// @Summary      Create or update a feature flag
// @Tags         flags
// @Produce      json
// @Param        flagName   path      string true "flag name"
// @Param        request    body      request.UpsertFlagRequest true "request body"
// @Success      200      {object}   domain.FeatureFlag
// @Failure      400      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /flags/{flagName} [put]
func (h *FlagHandler) HandleUpsert(ctx *gin.Context) {
	name := ctx.Param("flagName")
	if name == "" {
		response.RenderErr(ctx, response.ErrBadRequest(errors.New("missing flag name")))

		return
	}

	var req request.UpsertFlagRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	principal, ok := middleware.CurrentPrincipal(ctx)
	if !ok || !principal.IsAdmin() {
		response.RenderErr(ctx, response.ErrForbidden(errAdminOnly))

		return
	}

	upserted, err := h.svc.Upsert(ctx.Request.Context(), domain.FeatureFlag{
		Name:              name,
		Enabled:           req.Enabled,
		RolloutPercentage: req.RolloutPercentage,
	})
	if err != nil {
		err = fmt.Errorf("v1.HandleUpsert -> h.svc.Upsert -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	ctx.JSON(http.StatusOK, upserted)
}
