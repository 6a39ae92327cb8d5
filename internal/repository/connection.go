package repository

import (
	"context"
	"fmt"

	"github.com/sportsclubhq/clubsync/internal/domain"
	"github.com/sportsclubhq/clubsync/internal/repository/dao"
)

var (
	ErrConnectionExists   = dao.ErrConnectionExists
	ErrConnectionNotFound = dao.ErrConnectionNotFound
)

type ConnectionDAO interface {
	Insert(ctx context.Context, conn dao.ParentConnection) (dao.ParentConnection, error)
	FindByID(ctx context.Context, id uint) (dao.ParentConnection, error)
	Update(ctx context.Context, conn dao.ParentConnection) (dao.ParentConnection, error)
	FindByAthleteID(ctx context.Context, athleteID uint) ([]dao.ParentConnection, error)
	FindByParentUserID(ctx context.Context, parentUserID uint) ([]dao.ParentConnection, error)
	FindSubscribers(ctx context.Context, athleteID uint) ([]dao.ParentConnection, error)
	FindSubscribersByClub(ctx context.Context, clubID uint) ([]dao.ParentConnection, error)
	HasVerifiedActive(ctx context.Context, parentUserID, athleteID uint) (bool, error)
}

type ConnectionRepository struct {
	dao ConnectionDAO
}

func NewConnectionRepository(dao ConnectionDAO) *ConnectionRepository {
	return &ConnectionRepository{
		dao: dao,
	}
}

func (r *ConnectionRepository) Create(ctx context.Context, conn domain.ParentConnection) (domain.ParentConnection, error) {
	created, err := r.dao.Insert(ctx, r.domainToDAO(conn))
	if err != nil {
		return domain.ParentConnection{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.daoToDomain(created), nil
}

func (r *ConnectionRepository) FindByID(ctx context.Context, id uint) (domain.ParentConnection, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.ParentConnection{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *ConnectionRepository) Update(ctx context.Context, conn domain.ParentConnection) (domain.ParentConnection, error) {
	daoConn := r.domainToDAO(conn)
	daoConn.ID = conn.ID
	daoConn.CreatedAt = conn.CreatedAt

	updated, err := r.dao.Update(ctx, daoConn)
	if err != nil {
		return domain.ParentConnection{}, fmt.Errorf("r.dao.Update -> %w", err)
	}

	return r.daoToDomain(updated), nil
}

func (r *ConnectionRepository) FindByAthleteID(ctx context.Context, athleteID uint) ([]domain.ParentConnection, error) {
	found, err := r.dao.FindByAthleteID(ctx, athleteID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByAthleteID -> %w", err)
	}

	return r.daoToDomainSlice(found), nil
}

func (r *ConnectionRepository) FindByParentUserID(ctx context.Context, parentUserID uint) ([]domain.ParentConnection, error) {
	found, err := r.dao.FindByParentUserID(ctx, parentUserID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByParentUserID -> %w", err)
	}

	return r.daoToDomainSlice(found), nil
}

func (r *ConnectionRepository) FindSubscribers(ctx context.Context, athleteID uint) ([]domain.ParentConnection, error) {
	found, err := r.dao.FindSubscribers(ctx, athleteID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindSubscribers -> %w", err)
	}

	return r.daoToDomainSlice(found), nil
}

func (r *ConnectionRepository) FindSubscribersByClub(ctx context.Context, clubID uint) ([]domain.ParentConnection, error) {
	found, err := r.dao.FindSubscribersByClub(ctx, clubID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindSubscribersByClub -> %w", err)
	}

	return r.daoToDomainSlice(found), nil
}

func (r *ConnectionRepository) HasVerifiedActive(ctx context.Context, parentUserID, athleteID uint) (bool, error) {
	ok, err := r.dao.HasVerifiedActive(ctx, parentUserID, athleteID)
	if err != nil {
		return false, fmt.Errorf("r.dao.HasVerifiedActive -> %w", err)
	}

	return ok, nil
}

func (r *ConnectionRepository) domainToDAO(c domain.ParentConnection) dao.ParentConnection {
	return dao.ParentConnection{
		AthleteID:           c.AthleteID,
		ParentUserID:        c.ParentUserID,
		ParentEmail:         c.ParentEmail,
		Relationship:        string(c.Relationship),
		Verified:            c.Verified,
		Active:              c.Active,
		NotifyAttendance:    c.Preferences.Attendance,
		NotifyPerformance:   c.Preferences.Performance,
		NotifyLeave:         c.Preferences.Leave,
		NotifyAnnouncements: c.Preferences.Announcements,
		NotifyGoals:         c.Preferences.Goals,
		Frequency:           string(c.Frequency),
		VerifyToken:         c.VerifyToken,
		TokenExpiresAt:      c.TokenExpiresAt,
	}
}

func (r *ConnectionRepository) daoToDomain(c dao.ParentConnection) domain.ParentConnection {
	return domain.ParentConnection{
		ID:           c.ID,
		AthleteID:    c.AthleteID,
		ParentUserID: c.ParentUserID,
		ParentEmail:  c.ParentEmail,
		Relationship: domain.Relationship(c.Relationship),
		Verified:     c.Verified,
		Active:       c.Active,
		Preferences: domain.Preferences{
			Attendance:    c.NotifyAttendance,
			Performance:   c.NotifyPerformance,
			Leave:         c.NotifyLeave,
			Announcements: c.NotifyAnnouncements,
			Goals:         c.NotifyGoals,
		},
		Frequency:      domain.Frequency(c.Frequency),
		VerifyToken:    c.VerifyToken,
		TokenExpiresAt: c.TokenExpiresAt,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

func (r *ConnectionRepository) daoToDomainSlice(conns []dao.ParentConnection) []domain.ParentConnection {
	out := make([]domain.ParentConnection, 0, len(conns))
	for _, c := range conns {
		out = append(out, r.daoToDomain(c))
	}

	return out
}
