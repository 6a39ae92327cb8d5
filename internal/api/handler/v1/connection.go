package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sportsclubhq/clubsync/internal/api/handler/v1/request"
	"github.com/sportsclubhq/clubsync/internal/api/handler/v1/response"
	"github.com/sportsclubhq/clubsync/internal/api/middleware"
	"github.com/sportsclubhq/clubsync/internal/domain"
	"github.com/sportsclubhq/clubsync/internal/service"
)

var errNotAnAthlete = errors.New("athlete not found")

type SubscriptionService interface {
	Connect(ctx context.Context, athleteID, parentUserID uint, parentEmail string, relationship domain.Relationship, prefs domain.Preferences, freq domain.Frequency) (domain.ParentConnection, error)
	Verify(ctx context.Context, connectionID uint, token string) error
	SetPreferences(ctx context.Context, connectionID uint, prefs domain.Preferences, freq domain.Frequency) (domain.ParentConnection, error)
	Deactivate(ctx context.Context, connectionID uint) error
	ListForAthlete(ctx context.Context, athleteID uint) ([]domain.ParentConnection, error)
	Get(ctx context.Context, connectionID uint) (domain.ParentConnection, error)
}

type Authorizer interface {
	Authorize(ctx context.Context, principal domain.User, action domain.Action, resource domain.Resource) (domain.Decision, error)
}

type UserGetter interface {
	GetUser(ctx context.Context, id uint) (domain.User, error)
}

type ConnectionHandler struct {
	svc    SubscriptionService
	users  UserGetter
	policy Authorizer
}

func NewConnectionHandler(svc SubscriptionService, users UserGetter, policy Authorizer) *ConnectionHandler {
	return &ConnectionHandler{
		svc:    svc,
		users:  users,
		policy: policy,
	}
}

// HandleConnect godoc
// @Summary      Create a parent connection for an athlete
// @Tags         connections
// @Produce      json
// @Param        request   body      request.ConnectRequest true "request body"
// @Success      201      {object}   domain.ParentConnection
// @Failure      400      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /connections [post]
func (h *ConnectionHandler) HandleConnect(ctx *gin.Context) {
	var req request.ConnectRequest
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

	// Athletes may only link parents to themselves.
	if principal.Role == domain.RoleAthlete && req.AthleteID != principal.ID {
		response.RenderErr(ctx, response.ErrForbidden(errors.New("athletes may only manage their own connections")))

		return
	}

	athlete, err := h.users.GetUser(ctx.Request.Context(), req.AthleteID)
	if err != nil || athlete.Role != domain.RoleAthlete {
		response.RenderErr(ctx, response.ErrBadRequest(errNotAnAthlete))

		return
	}

	if !h.authorize(ctx, principal, domain.ActionCreate, domain.Resource{
		Type:    domain.ResourceConnection,
		OwnerID: athlete.ID,
		ClubID:  athlete.ClubID,
	}) {
		return
	}

	created, err := h.svc.Connect(ctx.Request.Context(), athlete.ID, 0, req.ParentEmail,
		domain.Relationship(req.Relationship), req.Preferences.ToDomain(), domain.Frequency(req.Frequency))
	if err != nil {
		if errors.Is(err, service.ErrDuplicatePending) {
			response.RenderErr(ctx, response.ErrConflict(service.ErrDuplicatePending))

			return
		}

		err = fmt.Errorf("v1.HandleConnect -> h.svc.Connect -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	ctx.JSON(http.StatusCreated, created)
}

// HandleVerify godoc
// @Summary      Verify a connection with its emailed token
// @Tags         connections
// @Produce      json
// @Param        connectionID   path      int true "connection ID"
// @Param        request        body      request.VerifyConnectionRequest true "request body"
// @Success      200      {object}   map[string]bool
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /connections/{connectionID}/verify [post]
func (h *ConnectionHandler) HandleVerify(ctx *gin.Context) {
	connectionID, ok := pathID(ctx, "connectionID")
	if !ok {
		return
	}

	var req request.VerifyConnectionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	if err := h.svc.Verify(ctx.Request.Context(), connectionID, req.Token); err != nil {
		switch {
		case errors.Is(err, service.ErrConnectionNotFound):
			response.RenderErr(ctx, response.ErrNotFound(service.ErrConnectionNotFound))
		case errors.Is(err, service.ErrTokenInvalid), errors.Is(err, service.ErrTokenExpired):
			response.RenderErr(ctx, response.ErrBadRequest(err))
		default:
			err = fmt.Errorf("v1.HandleVerify -> h.svc.Verify -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}

		return
	}

	ctx.JSON(http.StatusOK, gin.H{"verified": true})
}

// HandleUpdatePreferences godoc
// @Summary      Replace a connection's notification preferences
// @Tags         connections
// @Produce      json
// @Param        connectionID   path      int true "connection ID"
// @Param        request        body      request.UpdatePreferencesRequest true "request body"
// @Success      200      {object}   domain.ParentConnection
// @Failure      400      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /connections/{connectionID}/preferences [put]
func (h *ConnectionHandler) HandleUpdatePreferences(ctx *gin.Context) {
	connectionID, ok := pathID(ctx, "connectionID")
	if !ok {
		return
	}

	var req request.UpdatePreferencesRequest
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

	conn, err := h.svc.Get(ctx.Request.Context(), connectionID)
	if err != nil {
		if errors.Is(err, service.ErrConnectionNotFound) {
			response.RenderErr(ctx, response.ErrNotFound(service.ErrConnectionNotFound))

			return
		}

		err = fmt.Errorf("v1.HandleUpdatePreferences -> h.svc.Get -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	// Preferences belong to the parent holding the connection.
	if !h.authorize(ctx, principal, domain.ActionUpdate, domain.Resource{
		Type:    domain.ResourceConnection,
		OwnerID: conn.ParentUserID,
	}) {
		return
	}

	updated, err := h.svc.SetPreferences(ctx.Request.Context(), connectionID, req.Preferences.ToDomain(), domain.Frequency(req.Frequency))
	if err != nil {
		if errors.Is(err, service.ErrConnectionInactive) {
			response.RenderErr(ctx, response.ErrConflict(service.ErrConnectionInactive))

			return
		}

		err = fmt.Errorf("v1.HandleUpdatePreferences -> h.svc.SetPreferences -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	ctx.JSON(http.StatusOK, updated)
}

// HandleDeactivate godoc
// @Summary      Deactivate a connection
// @Tags         connections
// @Produce      json
// @Param        connectionID   path      int true "connection ID"
// @Success      204
// @Failure      403      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /connections/{connectionID} [delete]
func (h *ConnectionHandler) HandleDeactivate(ctx *gin.Context) {
	connectionID, ok := pathID(ctx, "connectionID")
	if !ok {
		return
	}

	principal, ok := middleware.CurrentPrincipal(ctx)
	if !ok {
		response.RenderErr(ctx, response.ErrForbidden(errors.New("missing principal")))

		return
	}

	conn, err := h.svc.Get(ctx.Request.Context(), connectionID)
	if err != nil {
		if errors.Is(err, service.ErrConnectionNotFound) {
			response.RenderErr(ctx, response.ErrNotFound(service.ErrConnectionNotFound))

			return
		}

		err = fmt.Errorf("v1.HandleDeactivate -> h.svc.Get -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	// Revocation is the athlete's (or an admin's); there is no undo.
	if !h.authorize(ctx, principal, domain.ActionDelete, domain.Resource{
		Type:    domain.ResourceConnection,
		OwnerID: conn.AthleteID,
	}) {
		return
	}

	if err := h.svc.Deactivate(ctx.Request.Context(), connectionID); err != nil {
		err = fmt.Errorf("v1.HandleDeactivate -> h.svc.Deactivate -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	ctx.Status(http.StatusNoContent)
}

// HandleListForAthlete godoc
// @Summary      List an athlete's connections
// @Tags         connections
// @Produce      json
// @Param        athleteID   path      int true "athlete ID"
// @Success      200      {array}    domain.ParentConnection
// @Failure      400      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /athletes/{athleteID}/connections [get]
func (h *ConnectionHandler) HandleListForAthlete(ctx *gin.Context) {
	athleteID, ok := pathID(ctx, "athleteID")
	if !ok {
		return
	}

	principal, ok := middleware.CurrentPrincipal(ctx)
	if !ok {
		response.RenderErr(ctx, response.ErrForbidden(errors.New("missing principal")))

		return
	}

	athlete, err := h.users.GetUser(ctx.Request.Context(), athleteID)
	if err != nil || athlete.Role != domain.RoleAthlete {
		response.RenderErr(ctx, response.ErrBadRequest(errNotAnAthlete))

		return
	}

	if !h.authorize(ctx, principal, domain.ActionRead, domain.Resource{
		Type:    domain.ResourceConnection,
		OwnerID: athlete.ID,
		ClubID:  athlete.ClubID,
	}) {
		return
	}

	conns, err := h.svc.ListForAthlete(ctx.Request.Context(), athleteID)
	if err != nil {
		err = fmt.Errorf("v1.HandleListForAthlete -> h.svc.ListForAthlete -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	ctx.JSON(http.StatusOK, conns)
}

// authorize renders the denial itself and reports whether to continue.
func (h *ConnectionHandler) authorize(ctx *gin.Context, principal domain.User, action domain.Action, resource domain.Resource) bool {
	decision, err := h.policy.Authorize(ctx.Request.Context(), principal, action, resource)
	if err != nil {
		err = fmt.Errorf("v1.ConnectionHandler -> h.policy.Authorize -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return false
	}
	if !decision.Allowed {
		response.RenderErr(ctx, response.ErrForbidden(errors.New(decision.Reason)))

		return false
	}

	return true
}

// pathID parses a numeric path parameter, rendering a 400 when it is not one.
func pathID(ctx *gin.Context, name string) (uint, bool) {
	raw := ctx.Param(name)

	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid %v %q", name, raw)))

		return 0, false
	}

	return uint(id), true
}
