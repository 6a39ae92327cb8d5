package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/sportsclubhq/clubsync/internal/domain"
	"github.com/sportsclubhq/clubsync/internal/repository/dao"
)

var (
	ErrLeaveNotFound       = dao.ErrLeaveNotFound
	ErrLeaveAlreadyDecided = dao.ErrLeaveAlreadyDecided
)

type ClubDAO interface {
	InsertLeaveRequest(ctx context.Context, leave dao.LeaveRequest) (dao.LeaveRequest, error)
	FindLeaveRequestByID(ctx context.Context, id uint) (dao.LeaveRequest, error)
	DecideLeaveRequest(ctx context.Context, id uint, status string, decidedBy uint, decidedAt time.Time, event *dao.Event, notifications []dao.Notification) (dao.LeaveRequest, []dao.Notification, error)
	InsertAnnouncement(ctx context.Context, a dao.Announcement, event *dao.Event, notifications []dao.Notification) (dao.Announcement, []dao.Notification, error)
}

type ClubRepository struct {
	dao ClubDAO
}

func NewClubRepository(dao ClubDAO) *ClubRepository {
	return &ClubRepository{
		dao: dao,
	}
}

func (r *ClubRepository) CreateLeaveRequest(ctx context.Context, leave domain.LeaveRequest) (domain.LeaveRequest, error) {
	created, err := r.dao.InsertLeaveRequest(ctx, dao.LeaveRequest{
		AthleteID: leave.AthleteID,
		ClubID:    leave.ClubID,
		StartDate: leave.StartDate,
		EndDate:   leave.EndDate,
		Reason:    leave.Reason,
		Status:    string(domain.LeavePending),
	})
	if err != nil {
		return domain.LeaveRequest{}, fmt.Errorf("r.dao.InsertLeaveRequest -> %w", err)
	}

	return r.leaveDAOToDomain(created), nil
}

func (r *ClubRepository) FindLeaveRequestByID(ctx context.Context, id uint) (domain.LeaveRequest, error) {
	found, err := r.dao.FindLeaveRequestByID(ctx, id)
	if err != nil {
		return domain.LeaveRequest{}, fmt.Errorf("r.dao.FindLeaveRequestByID -> %w", err)
	}

	return r.leaveDAOToDomain(found), nil
}

func (r *ClubRepository) DecideLeaveRequest(ctx context.Context, id uint, status domain.LeaveStatus, decidedBy uint, decidedAt time.Time, event *domain.Event, notifications []domain.Notification) (domain.LeaveRequest, []domain.Notification, error) {
	daoEvent, err := optionalEventToDAO(event)
	if err != nil {
		return domain.LeaveRequest{}, nil, err
	}

	decided, inserted, err := r.dao.DecideLeaveRequest(ctx, id, string(status), decidedBy, decidedAt, daoEvent, notificationsToDAO(notifications))
	if err != nil {
		return domain.LeaveRequest{}, nil, fmt.Errorf("r.dao.DecideLeaveRequest -> %w", err)
	}

	return r.leaveDAOToDomain(decided), notificationsDAOToDomain(inserted), nil
}

func (r *ClubRepository) CreateAnnouncement(ctx context.Context, a domain.Announcement, event *domain.Event, notifications []domain.Notification) (domain.Announcement, []domain.Notification, error) {
	daoEvent, err := optionalEventToDAO(event)
	if err != nil {
		return domain.Announcement{}, nil, err
	}

	created, inserted, err := r.dao.InsertAnnouncement(ctx, dao.Announcement{
		ClubID:   a.ClubID,
		AuthorID: a.AuthorID,
		Title:    a.Title,
		Body:     a.Body,
		Priority: string(a.Priority),
	}, daoEvent, notificationsToDAO(notifications))
	if err != nil {
		return domain.Announcement{}, nil, fmt.Errorf("r.dao.InsertAnnouncement -> %w", err)
	}

	return r.announcementDAOToDomain(created), notificationsDAOToDomain(inserted), nil
}

func (r *ClubRepository) leaveDAOToDomain(leave dao.LeaveRequest) domain.LeaveRequest {
	return domain.LeaveRequest{
		ID:        leave.ID,
		AthleteID: leave.AthleteID,
		ClubID:    leave.ClubID,
		StartDate: leave.StartDate,
		EndDate:   leave.EndDate,
		Reason:    leave.Reason,
		Status:    domain.LeaveStatus(leave.Status),
		DecidedBy: leave.DecidedBy,
		DecidedAt: leave.DecidedAt,
		CreatedAt: leave.CreatedAt,
	}
}

func (r *ClubRepository) announcementDAOToDomain(a dao.Announcement) domain.Announcement {
	return domain.Announcement{
		ID:        a.ID,
		ClubID:    a.ClubID,
		AuthorID:  a.AuthorID,
		Title:     a.Title,
		Body:      a.Body,
		Priority:  domain.Priority(a.Priority),
		CreatedAt: a.CreatedAt,
	}
}
