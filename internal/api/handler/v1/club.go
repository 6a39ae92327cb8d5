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
	"github.com/sportsclubhq/clubsync/internal/service"
)

type ClubService interface {
	FileLeaveRequest(ctx context.Context, principal domain.User, leave domain.LeaveRequest) (domain.LeaveRequest, error)
	DecideLeaveRequest(ctx context.Context, principal domain.User, leaveID uint, approved bool, reason string) (domain.LeaveRequest, error)
	PostAnnouncement(ctx context.Context, principal domain.User, a domain.Announcement) (domain.Announcement, error)
}

type ClubHandler struct {
	svc ClubService
}

func NewClubHandler(svc ClubService) *ClubHandler {
	return &ClubHandler{
		svc: svc,
	}
}

// HandleFileLeave godoc
// @Summary      File a leave request
// @Tags         club
// @Produce      json
// @Param        request   body      request.FileLeaveRequest true "request body"
// @Success      201      {object}   domain.LeaveRequest
// @Failure      400      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /leave [post]
func (h *ClubHandler) HandleFileLeave(ctx *gin.Context) {
	var req request.FileLeaveRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	principal, ok := middleware.CurrentPrincipal(ctx)
	if !ok {
		response.RenderErr(ctx, response.ErrForbidden(errors.New("missing principal")))

		return
	}

	created, err := h.svc.FileLeaveRequest(ctx.Request.Context(), principal, domain.LeaveRequest{
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Reason:    req.Reason,
	})
	if err != nil {
		renderClubErr(ctx, "v1.HandleFileLeave", err)

		return
	}

	ctx.JSON(http.StatusCreated, created)
}

// HandleDecideLeave godoc
// @Summary      Approve or reject a leave request
// @Tags         club
// @Produce      json
// @Param        leaveID   path      int true "leave request ID"
// @Param        request   body      request.DecideLeaveRequest true "request body"
// @Success      200      {object}   domain.LeaveRequest
// @Failure      400      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /leave/{leaveID}/decision [put]
func (h *ClubHandler) HandleDecideLeave(ctx *gin.Context) {
	leaveID, ok := pathID(ctx, "leaveID")
	if !ok {
		return
	}

	var req request.DecideLeaveRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	principal, ok := middleware.CurrentPrincipal(ctx)
	if !ok {
		response.RenderErr(ctx, response.ErrForbidden(errors.New("missing principal")))

		return
	}

	decided, err := h.svc.DecideLeaveRequest(ctx.Request.Context(), principal, leaveID, *req.Approved, req.Reason)
	if err != nil {
		renderClubErr(ctx, "v1.HandleDecideLeave", err)

		return
	}

	ctx.JSON(http.StatusOK, decided)
}

// HandlePostAnnouncement godoc
// @Summary      Post a club-wide announcement
// @Tags         club
// @Produce      json
// @Param        request   body      request.PostAnnouncementRequest true "request body"
// @Success      201      {object}   domain.Announcement
// @Failure      400      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /announcements [post]
func (h *ClubHandler) HandlePostAnnouncement(ctx *gin.Context) {
	var req request.PostAnnouncementRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	principal, ok := middleware.CurrentPrincipal(ctx)
	if !ok {
		response.RenderErr(ctx, response.ErrForbidden(errors.New("missing principal")))

		return
	}

	created, err := h.svc.PostAnnouncement(ctx.Request.Context(), principal, domain.Announcement{
		Title:    req.Title,
		Body:     req.Body,
		Priority: domain.Priority(req.Priority),
	})
	if err != nil {
		renderClubErr(ctx, "v1.HandlePostAnnouncement", err)

		return
	}

	ctx.JSON(http.StatusCreated, created)
}

func renderClubErr(ctx *gin.Context, op string, err error) {
	var denied *service.DeniedError
	switch {
	case errors.As(err, &denied):
		response.RenderErr(ctx, response.ErrForbidden(denied))
	case errors.Is(err, service.ErrLeaveNotFound):
		response.RenderErr(ctx, response.ErrNotFound(service.ErrLeaveNotFound))
	case errors.Is(err, service.ErrLeaveAlreadyDecided):
		response.RenderErr(ctx, response.ErrConflict(service.ErrLeaveAlreadyDecided))
	default:
		response.RenderErr(ctx, response.ErrInternalServerError(fmt.Errorf("%v -> %w", op, err)))
	}
}
