package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sportsclubhq/clubsync/internal/domain"
)

type fakeConnectionChecker struct {
	linked map[[2]uint]bool
	err    error
}

func (f *fakeConnectionChecker) HasVerifiedActive(_ context.Context, parentUserID, athleteID uint) (bool, error) {
	if f.err != nil {
		return false, f.err
	}

	return f.linked[[2]uint{parentUserID, athleteID}], nil
}

func TestPolicyEngine_Authorize(t *testing.T) {
	admin := domain.User{ID: 1, Role: domain.RoleAdmin, ClubID: 10}
	coach := domain.User{ID: 2, Role: domain.RoleCoach, ClubID: 10}
	athlete := domain.User{ID: 3, Role: domain.RoleAthlete, ClubID: 10}
	otherClubCoach := domain.User{ID: 4, Role: domain.RoleCoach, ClubID: 20}
	parent := domain.User{ID: 5, Role: domain.RoleParent}

	tests := []struct {
		name      string
		principal domain.User
		action    domain.Action
		resource  domain.Resource
		want      bool
	}{
		{
			name:      "admin bypasses club scoping",
			principal: admin,
			action:    domain.ActionDelete,
			resource:  domain.Resource{Type: domain.ResourceAttendance, OwnerID: 3, ClubID: 99},
			want:      true,
		},
		{
			name:      "owner reads own record",
			principal: athlete,
			action:    domain.ActionRead,
			resource:  domain.Resource{Type: domain.ResourcePerformance, OwnerID: 3, ClubID: 10},
			want:      true,
		},
		{
			name:      "ownership does not grant create",
			principal: athlete,
			action:    domain.ActionCreate,
			resource:  domain.Resource{Type: domain.ResourceAttendance, OwnerID: 3, ClubID: 10},
			want:      false,
		},
		{
			name:      "coach creates attendance in own club",
			principal: coach,
			action:    domain.ActionCreate,
			resource:  domain.Resource{Type: domain.ResourceAttendance, OwnerID: 3, ClubID: 10},
			want:      true,
		},
		{
			name:      "coach denied across club boundary",
			principal: otherClubCoach,
			action:    domain.ActionCreate,
			resource:  domain.Resource{Type: domain.ResourceAttendance, OwnerID: 3, ClubID: 10},
			want:      false,
		},
		{
			name:      "athlete cannot record attendance for a teammate",
			principal: athlete,
			action:    domain.ActionCreate,
			resource:  domain.Resource{Type: domain.ResourceAttendance, OwnerID: 99, ClubID: 10},
			want:      false,
		},
		{
			name:      "athlete files own leave request",
			principal: athlete,
			action:    domain.ActionCreate,
			resource:  domain.Resource{Type: domain.ResourceLeaveRequest, OwnerID: 3, ClubID: 10},
			want:      true,
		},
		{
			name:      "athlete cannot decide leave requests",
			principal: athlete,
			action:    domain.ActionUpdate,
			resource:  domain.Resource{Type: domain.ResourceLeaveRequest, OwnerID: 99, ClubID: 10},
			want:      false,
		},
		{
			name:      "linked parent reads athlete data",
			principal: parent,
			action:    domain.ActionRead,
			resource:  domain.Resource{Type: domain.ResourcePerformance, OwnerID: 3, ClubID: 10},
			want:      true,
		},
		{
			name:      "unlinked parent is denied",
			principal: parent,
			action:    domain.ActionRead,
			resource:  domain.Resource{Type: domain.ResourcePerformance, OwnerID: 99, ClubID: 10},
			want:      false,
		},
		{
			name:      "linked parent still cannot write",
			principal: parent,
			action:    domain.ActionUpdate,
			resource:  domain.Resource{Type: domain.ResourcePerformance, OwnerID: 3, ClubID: 10},
			want:      false,
		},
		{
			name:      "parent reads own notifications as owner",
			principal: parent,
			action:    domain.ActionRead,
			resource:  domain.Resource{Type: domain.ResourceNotification, OwnerID: 5},
			want:      true,
		},
		{
			name:      "coach cannot read the operator notification queue",
			principal: coach,
			action:    domain.ActionRead,
			resource:  domain.Resource{Type: domain.ResourceNotification},
			want:      false,
		},
	}

	checker := &fakeConnectionChecker{
		linked: map[[2]uint]bool{{5, 3}: true},
	}
	engine := NewPolicyEngine(checker)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision, err := engine.Authorize(context.Background(), tt.principal, tt.action, tt.resource)

			require.NoError(t, err)
			assert.Equal(t, tt.want, decision.Allowed)
			if !tt.want {
				assert.NotEmpty(t, decision.Reason)
			}
		})
	}
}

func TestPolicyEngine_Authorize_UnknownResourcePanics(t *testing.T) {
	engine := NewPolicyEngine(&fakeConnectionChecker{})

	assert.Panics(t, func() {
		_, _ = engine.Authorize(context.Background(), domain.User{Role: domain.RoleAdmin}, domain.ActionRead, domain.Resource{Type: "trophy"})
	})
	assert.Panics(t, func() {
		_, _ = engine.Authorize(context.Background(), domain.User{Role: domain.RoleAdmin}, "export", domain.Resource{Type: domain.ResourceGoal})
	})
}

func TestPolicyEngine_Authorize_PropagatesCheckerError(t *testing.T) {
	engine := NewPolicyEngine(&fakeConnectionChecker{err: assert.AnError})

	_, err := engine.Authorize(context.Background(), domain.User{ID: 5, Role: domain.RoleParent}, domain.ActionRead,
		domain.Resource{Type: domain.ResourcePerformance, OwnerID: 3, ClubID: 10})

	require.ErrorIs(t, err, assert.AnError)
}
