package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sportsclubhq/clubsync/internal/api/handler/v1/response"
	"github.com/sportsclubhq/clubsync/internal/api/middleware"
	"github.com/sportsclubhq/clubsync/internal/domain"
	"github.com/sportsclubhq/clubsync/internal/service"
)

type NotificationService interface {
	ListForParent(ctx context.Context, principal domain.User) ([]domain.Notification, error)
	ListFailed(ctx context.Context, principal domain.User) ([]domain.Notification, error)
	EventsSince(ctx context.Context, principal domain.User, since time.Time) ([]domain.Event, error)
}

type NotificationHandler struct {
	svc NotificationService
}

func NewNotificationHandler(svc NotificationService) *NotificationHandler {
	return &NotificationHandler{
		svc: svc,
	}
}

// HandleList godoc
// @Summary      List the caller's notifications, newest first
// @Tags         notifications
// @Produce      json
// @Success      200      {array}    domain.Notification
// @Failure      403      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /notifications [get]
func (h *NotificationHandler) HandleList(ctx *gin.Context) {
	principal, ok := middleware.CurrentPrincipal(ctx)
	if !ok {
		response.RenderErr(ctx, response.ErrForbidden(errors.New("missing principal")))

		return
	}

	notifications, err := h.svc.ListForParent(ctx.Request.Context(), principal)
	if err != nil {
		renderNotificationErr(ctx, "v1.HandleList", err)

		return
	}

	ctx.JSON(http.StatusOK, notifications)
}

// HandleListFailed godoc
// @Summary      List failed deliveries, oldest first
// @Tags         notifications
// @Produce      json
// @Success      200      {array}    domain.Notification
// @Failure      403      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /notifications/failed [get]
func (h *NotificationHandler) HandleListFailed(ctx *gin.Context) {
	principal, ok := middleware.CurrentPrincipal(ctx)
	if !ok {
		response.RenderErr(ctx, response.ErrForbidden(errors.New("missing principal")))

		return
	}

	failed, err := h.svc.ListFailed(ctx.Request.Context(), principal)
	if err != nil {
		renderNotificationErr(ctx, "v1.HandleListFailed", err)

		return
	}

	ctx.JSON(http.StatusOK, failed)
}

// HandleEventsSince godoc
// @Summary      List domain events recorded after a point in time
// @Description  Read contract for the external digest batcher.
// @Tags         notifications
// @Produce      json
// @Param        since   query      string true "RFC 3339 timestamp"
// @Success      200      {array}    domain.Event
// @Failure      400      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /events [get]
func (h *NotificationHandler) HandleEventsSince(ctx *gin.Context) {
	principal, ok := middleware.CurrentPrincipal(ctx)
	if !ok {
		response.RenderErr(ctx, response.ErrForbidden(errors.New("missing principal")))

		return
	}

	since, err := time.Parse(time.RFC3339, ctx.Query("since"))
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid since parameter: %w", err)))

		return
	}

	events, err := h.svc.EventsSince(ctx.Request.Context(), principal, since)
	if err != nil {
		renderNotificationErr(ctx, "v1.HandleEventsSince", err)

		return
	}

	ctx.JSON(http.StatusOK, events)
}

func renderNotificationErr(ctx *gin.Context, op string, err error) {
	var denied *service.DeniedError
	if errors.As(err, &denied) {
		response.RenderErr(ctx, response.ErrForbidden(denied))

		return
	}

	response.RenderErr(ctx, response.ErrInternalServerError(fmt.Errorf("%v -> %w", op, err)))
}
