package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sportsclubhq/clubsync/internal/domain"
	"github.com/sportsclubhq/clubsync/internal/repository"
)

var (
	ErrLeaveNotFound       = repository.ErrLeaveNotFound
	ErrLeaveAlreadyDecided = repository.ErrLeaveAlreadyDecided
)

type ClubRepository interface {
	CreateLeaveRequest(ctx context.Context, leave domain.LeaveRequest) (domain.LeaveRequest, error)
	FindLeaveRequestByID(ctx context.Context, id uint) (domain.LeaveRequest, error)
	DecideLeaveRequest(ctx context.Context, id uint, status domain.LeaveStatus, decidedBy uint, decidedAt time.Time, event *domain.Event, notifications []domain.Notification) (domain.LeaveRequest, []domain.Notification, error)
	CreateAnnouncement(ctx context.Context, a domain.Announcement, event *domain.Event, notifications []domain.Notification) (domain.Announcement, []domain.Notification, error)
}

// ClubService owns leave requests and club announcements.
type ClubService struct {
	repo       ClubRepository
	users      UserDirectory
	policy     Authorizer
	dispatcher Dispatcher
}

func NewClubService(repo ClubRepository, users UserDirectory, policy Authorizer, dispatcher Dispatcher) *ClubService {
	return &ClubService{
		repo:       repo,
		users:      users,
		policy:     policy,
		dispatcher: dispatcher,
	}
}

// FileLeaveRequest lets an athlete request leave. No event yet; the fan-out
// happens on the decision.
func (s *ClubService) FileLeaveRequest(ctx context.Context, principal domain.User, leave domain.LeaveRequest) (domain.LeaveRequest, error) {
	leave.AthleteID = principal.ID
	leave.ClubID = principal.ClubID

	if err := s.authorize(ctx, principal, domain.ActionCreate, domain.Resource{
		Type:    domain.ResourceLeaveRequest,
		OwnerID: leave.AthleteID,
		ClubID:  leave.ClubID,
	}); err != nil {
		return domain.LeaveRequest{}, err
	}

	created, err := s.repo.CreateLeaveRequest(ctx, leave)
	if err != nil {
		return domain.LeaveRequest{}, fmt.Errorf("s.repo.CreateLeaveRequest -> %w", err)
	}

	return created, nil
}

// DecideLeaveRequest records a coach's decision and emits leave_decided. The
// pending notification records land in the decision's transaction; delivery
// runs after commit.
func (s *ClubService) DecideLeaveRequest(ctx context.Context, principal domain.User, leaveID uint, approved bool, reason string) (domain.LeaveRequest, error) {
	leave, err := s.repo.FindLeaveRequestByID(ctx, leaveID)
	if err != nil {
		return domain.LeaveRequest{}, fmt.Errorf("s.repo.FindLeaveRequestByID -> %w", err)
	}

	if err := s.authorize(ctx, principal, domain.ActionUpdate, domain.Resource{
		Type:    domain.ResourceLeaveRequest,
		OwnerID: leave.AthleteID,
		ClubID:  leave.ClubID,
	}); err != nil {
		return domain.LeaveRequest{}, err
	}

	status := domain.LeaveApproved
	if !approved {
		status = domain.LeaveRejected
	}

	event := domain.NewEvent(domain.EventLeaveDecided, leave.AthleteID, leave.ClubID, domain.LeaveDecidedPayload{
		Approved:  approved,
		Reason:    reason,
		StartDate: leave.StartDate,
		EndDate:   leave.EndDate,
	})

	plan, err := s.dispatcher.Plan(ctx, event)
	if err != nil {
		return domain.LeaveRequest{}, fmt.Errorf("s.dispatcher.Plan -> %w", err)
	}

	decided, pending, err := s.repo.DecideLeaveRequest(ctx, leaveID, status, principal.ID, time.Now().UTC(), &event, plan.Notifications)
	if err != nil {
		return domain.LeaveRequest{}, fmt.Errorf("s.repo.DecideLeaveRequest -> %w", err)
	}

	s.dispatcher.Send(ctx, plan, pending)

	return decided, nil
}

// PostAnnouncement publishes a club-wide announcement and emits
// announcement_posted. The dispatcher throttles low/normal priorities out of
// the fan-out; the announcement itself is stored regardless.
func (s *ClubService) PostAnnouncement(ctx context.Context, principal domain.User, a domain.Announcement) (domain.Announcement, error) {
	a.AuthorID = principal.ID
	if a.ClubID == 0 {
		a.ClubID = principal.ClubID
	}

	if err := s.authorize(ctx, principal, domain.ActionCreate, domain.Resource{
		Type:   domain.ResourceAnnouncement,
		ClubID: a.ClubID,
	}); err != nil {
		return domain.Announcement{}, err
	}

	event := domain.NewEvent(domain.EventAnnouncementPosted, 0, a.ClubID, domain.AnnouncementPayload{
		Title:    a.Title,
		Body:     a.Body,
		Priority: a.Priority,
	})

	plan, err := s.dispatcher.Plan(ctx, event)
	if err != nil {
		return domain.Announcement{}, fmt.Errorf("s.dispatcher.Plan -> %w", err)
	}

	created, pending, err := s.repo.CreateAnnouncement(ctx, a, &event, plan.Notifications)
	if err != nil {
		return domain.Announcement{}, fmt.Errorf("s.repo.CreateAnnouncement -> %w", err)
	}

	s.dispatcher.Send(ctx, plan, pending)

	return created, nil
}

func (s *ClubService) authorize(ctx context.Context, principal domain.User, action domain.Action, resource domain.Resource) error {
	decision, err := s.policy.Authorize(ctx, principal, action, resource)
	if err != nil {
		return fmt.Errorf("s.policy.Authorize -> %w", err)
	}
	if !decision.Allowed {
		return &DeniedError{Reason: decision.Reason}
	}

	return nil
}
