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

type TrainingService interface {
	RecordAttendance(ctx context.Context, principal domain.User, rec domain.AttendanceRecord) (domain.AttendanceRecord, error)
	RecordTestResult(ctx context.Context, principal domain.User, result domain.TestResult) (domain.TestResult, error)
	CreateGoal(ctx context.Context, principal domain.User, goal domain.TrainingGoal) (domain.TrainingGoal, error)
	CompleteGoal(ctx context.Context, principal domain.User, goalID uint) (domain.TrainingGoal, error)
}

type TrainingHandler struct {
	svc TrainingService
}

func NewTrainingHandler(svc TrainingService) *TrainingHandler {
	return &TrainingHandler{
		svc: svc,
	}
}

// HandleRecordAttendance godoc
// @Summary      Record an attendance entry for an athlete
// @Tags         training
// @Produce      json
// @Param        request   body      request.RecordAttendanceRequest true "request body"
// @Success      201      {object}   domain.AttendanceRecord
// @Failure      400      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /attendance [post]
func (h *TrainingHandler) HandleRecordAttendance(ctx *gin.Context) {
	var req request.RecordAttendanceRequest
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

	created, err := h.svc.RecordAttendance(ctx.Request.Context(), principal, domain.AttendanceRecord{
		AthleteID:   req.AthleteID,
		SessionName: req.SessionName,
		SessionDate: req.SessionDate,
		Status:      domain.AttendanceStatus(req.Status),
		Note:        req.Note,
	})
	if err != nil {
		renderTrainingErr(ctx, "v1.HandleRecordAttendance", err)

		return
	}

	ctx.JSON(http.StatusCreated, created)
}

// HandleRecordTestResult godoc
// @Summary      Record a performance test result for an athlete
// @Tags         training
// @Produce      json
// @Param        request   body      request.RecordTestResultRequest true "request body"
// @Success      201      {object}   domain.TestResult
// @Failure      400      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /performance [post]
func (h *TrainingHandler) HandleRecordTestResult(ctx *gin.Context) {
	var req request.RecordTestResultRequest
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

	created, err := h.svc.RecordTestResult(ctx.Request.Context(), principal, domain.TestResult{
		AthleteID: req.AthleteID,
		TestName:  req.TestName,
		Value:     req.Value,
		Unit:      req.Unit,
	})
	if err != nil {
		renderTrainingErr(ctx, "v1.HandleRecordTestResult", err)

		return
	}

	ctx.JSON(http.StatusCreated, created)
}

// HandleCreateGoal godoc
// @Summary      Create a training goal for an athlete
// @Tags         training
// @Produce      json
// @Param        request   body      request.CreateGoalRequest true "request body"
// @Success      201      {object}   domain.TrainingGoal
// @Failure      400      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /goals [post]
func (h *TrainingHandler) HandleCreateGoal(ctx *gin.Context) {
	var req request.CreateGoalRequest
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

	created, err := h.svc.CreateGoal(ctx.Request.Context(), principal, domain.TrainingGoal{
		AthleteID: req.AthleteID,
		Title:     req.Title,
	})
	if err != nil {
		renderTrainingErr(ctx, "v1.HandleCreateGoal", err)

		return
	}

	ctx.JSON(http.StatusCreated, created)
}

// HandleCompleteGoal godoc
// @Summary      Mark a training goal completed
// @Tags         training
// @Produce      json
// @Param        goalID   path      int true "goal ID"
// @Success      200      {object}   domain.TrainingGoal
// @Failure      403      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /goals/{goalID}/complete [post]
func (h *TrainingHandler) HandleCompleteGoal(ctx *gin.Context) {
	goalID, ok := pathID(ctx, "goalID")
	if !ok {
		return
	}

	principal, ok := middleware.CurrentPrincipal(ctx)
	if !ok {
		response.RenderErr(ctx, response.ErrForbidden(errors.New("missing principal")))

		return
	}

	completed, err := h.svc.CompleteGoal(ctx.Request.Context(), principal, goalID)
	if err != nil {
		renderTrainingErr(ctx, "v1.HandleCompleteGoal", err)

		return
	}

	ctx.JSON(http.StatusOK, completed)
}

func renderTrainingErr(ctx *gin.Context, op string, err error) {
	var denied *service.DeniedError
	switch {
	case errors.As(err, &denied):
		response.RenderErr(ctx, response.ErrForbidden(denied))
	case errors.Is(err, service.ErrAthleteNotFound):
		response.RenderErr(ctx, response.ErrBadRequest(service.ErrAthleteNotFound))
	case errors.Is(err, service.ErrGoalNotFound):
		response.RenderErr(ctx, response.ErrNotFound(service.ErrGoalNotFound))
	case errors.Is(err, service.ErrGoalAlreadyDone):
		response.RenderErr(ctx, response.ErrConflict(service.ErrGoalAlreadyDone))
	default:
		response.RenderErr(ctx, response.ErrInternalServerError(fmt.Errorf("%v -> %w", op, err)))
	}
}
