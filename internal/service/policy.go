package service

import (
	"context"
	"fmt"

	"github.com/sportsclubhq/clubsync/internal/domain"
)

// DeniedError carries an authorization denial up to the handler layer, which
// renders it as a 403. It is an expected outcome, not a server fault.
type DeniedError struct {
	Reason string
}

func (e *DeniedError) Error() string {
	return e.Reason
}

// ConnectionChecker answers whether a parent holds a verified, active
// connection to an athlete. Backed by the subscription registry's storage.
type ConnectionChecker interface {
	HasVerifiedActive(ctx context.Context, parentUserID, athleteID uint) (bool, error)
}

// rolePermissions is the fixed per-resource-type permission table applied to
// club-scoped principals (rule 3). Owner and admin access are handled by the
// earlier rules and are not encoded here.
var rolePermissions = map[domain.ResourceType]map[domain.Role]map[domain.Action]bool{
	domain.ResourceAttendance: {
		domain.RoleCoach:   {domain.ActionRead: true, domain.ActionCreate: true, domain.ActionUpdate: true, domain.ActionDelete: true},
		domain.RoleAthlete: {domain.ActionRead: true},
	},
	domain.ResourcePerformance: {
		domain.RoleCoach:   {domain.ActionRead: true, domain.ActionCreate: true, domain.ActionUpdate: true, domain.ActionDelete: true},
		domain.RoleAthlete: {domain.ActionRead: true},
	},
	domain.ResourceLeaveRequest: {
		domain.RoleCoach:   {domain.ActionRead: true, domain.ActionUpdate: true},
		domain.RoleAthlete: {domain.ActionRead: true, domain.ActionCreate: true},
	},
	domain.ResourceAnnouncement: {
		domain.RoleCoach:   {domain.ActionRead: true, domain.ActionCreate: true, domain.ActionUpdate: true, domain.ActionDelete: true},
		domain.RoleAthlete: {domain.ActionRead: true},
	},
	domain.ResourceGoal: {
		domain.RoleCoach:   {domain.ActionRead: true, domain.ActionCreate: true, domain.ActionUpdate: true},
		domain.RoleAthlete: {domain.ActionRead: true, domain.ActionCreate: true, domain.ActionUpdate: true},
	},
	domain.ResourceConnection: {
		domain.RoleCoach:   {domain.ActionRead: true},
		domain.RoleAthlete: {domain.ActionRead: true, domain.ActionCreate: true, domain.ActionUpdate: true, domain.ActionDelete: true},
	},
	// Notifications are reachable only via the owner and admin rules.
	domain.ResourceNotification: {},
}

var knownActions = map[domain.Action]bool{
	domain.ActionRead:   true,
	domain.ActionCreate: true,
	domain.ActionUpdate: true,
	domain.ActionDelete: true,
}

// PolicyEngine decides whether a principal may perform an action on a
// resource. It is a pure function over committed state: nothing is cached
// between calls, since club membership can change between requests.
type PolicyEngine struct {
	connections ConnectionChecker
}

func NewPolicyEngine(connections ConnectionChecker) *PolicyEngine {
	return &PolicyEngine{
		connections: connections,
	}
}

// Authorize runs the ordered rule list; the first matching rule wins.
// Passing an unknown resource type or action is a programming error and
// panics rather than silently denying.
func (e *PolicyEngine) Authorize(ctx context.Context, principal domain.User, action domain.Action, resource domain.Resource) (domain.Decision, error) {
	if !knownActions[action] {
		panic(fmt.Sprintf("policy: unknown action %q", action))
	}
	perms, ok := rolePermissions[resource.Type]
	if !ok {
		panic(fmt.Sprintf("policy: unknown resource type %q", resource.Type))
	}

	// Rule 1: admin bypasses everything.
	if principal.IsAdmin() {
		return domain.Allow(), nil
	}

	// Rule 2: owners manage their own records.
	if resource.OwnerID != 0 && resource.OwnerID == principal.ID && action != domain.ActionCreate {
		return domain.Allow(), nil
	}

	// Rule 3: same-club principals get whatever the permission table grants.
	if principal.ClubScoped() && principal.ClubID == resource.ClubID {
		if perms[principal.Role][action] {
			return domain.Allow(), nil
		}
	}

	// Rule 4: parents may read an athlete's data through a verified, active
	// connection.
	if principal.Role == domain.RoleParent && action == domain.ActionRead {
		linked, err := e.connections.HasVerifiedActive(ctx, principal.ID, resource.OwnerID)
		if err != nil {
			return domain.Decision{}, fmt.Errorf("e.connections.HasVerifiedActive -> %w", err)
		}
		if linked {
			return domain.Allow(), nil
		}
	}

	return domain.Deny("not authorized for resource in this club"), nil
}
