package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sportsclubhq/clubsync/internal/domain"
	"github.com/sportsclubhq/clubsync/internal/repository"
)

const verifyTokenTTL = 48 * time.Hour

var (
	ErrDuplicatePending   = repository.ErrConnectionExists
	ErrConnectionNotFound = repository.ErrConnectionNotFound
	ErrTokenInvalid       = errors.New("verification token is invalid")
	ErrTokenExpired       = errors.New("verification token has expired")
	ErrConnectionInactive = errors.New("connection is inactive")
)

type ConnectionRepository interface {
	Create(ctx context.Context, conn domain.ParentConnection) (domain.ParentConnection, error)
	FindByID(ctx context.Context, id uint) (domain.ParentConnection, error)
	Update(ctx context.Context, conn domain.ParentConnection) (domain.ParentConnection, error)
	FindByAthleteID(ctx context.Context, athleteID uint) ([]domain.ParentConnection, error)
	FindByParentUserID(ctx context.Context, parentUserID uint) ([]domain.ParentConnection, error)
	FindSubscribers(ctx context.Context, athleteID uint) ([]domain.ParentConnection, error)
	FindSubscribersByClub(ctx context.Context, clubID uint) ([]domain.ParentConnection, error)
}

// TokenMailer delivers verification tokens out of band. The real transport
// lives outside this module.
type TokenMailer interface {
	SendVerificationToken(ctx context.Context, email, token string) error
}

// SubscriptionService is the registry of parent↔athlete connections: their
// verification state and notification preferences.
type SubscriptionService struct {
	repo   ConnectionRepository
	mailer TokenMailer
}

func NewSubscriptionService(repo ConnectionRepository, mailer TokenMailer) *SubscriptionService {
	return &SubscriptionService{
		repo:   repo,
		mailer: mailer,
	}
}

// Connect creates an unverified connection and mails the verification token.
// parentUserID may be zero when the athlete links an address that has no
// account yet. Fails with ErrDuplicatePending when a pending or active
// connection for (athlete, email) already exists.
func (s *SubscriptionService) Connect(ctx context.Context, athleteID, parentUserID uint, parentEmail string, relationship domain.Relationship, prefs domain.Preferences, freq domain.Frequency) (domain.ParentConnection, error) {
	token := uuid.NewString()

	created, err := s.repo.Create(ctx, domain.ParentConnection{
		AthleteID:      athleteID,
		ParentUserID:   parentUserID,
		ParentEmail:    parentEmail,
		Relationship:   relationship,
		Verified:       false,
		Active:         true,
		Preferences:    prefs,
		Frequency:      freq,
		VerifyToken:    token,
		TokenExpiresAt: time.Now().UTC().Add(verifyTokenTTL),
	})
	if err != nil {
		return domain.ParentConnection{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	if err := s.mailer.SendVerificationToken(ctx, parentEmail, token); err != nil {
		// The connection exists either way; the token can be re-sent.
		zap.L().Warn("failed to send verification token",
			zap.Uint("connection_id", created.ID),
			zap.Error(err))
	}

	return created, nil
}

// Verify consumes a single-use token and flips the connection to verified.
func (s *SubscriptionService) Verify(ctx context.Context, connectionID uint, token string) error {
	conn, err := s.repo.FindByID(ctx, connectionID)
	if err != nil {
		return fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	if conn.Verified || conn.VerifyToken == "" || conn.VerifyToken != token {
		return ErrTokenInvalid
	}
	if time.Now().UTC().After(conn.TokenExpiresAt) {
		return ErrTokenExpired
	}

	conn.Verified = true
	conn.VerifyToken = "" // single use

	if _, err := s.repo.Update(ctx, conn); err != nil {
		return fmt.Errorf("s.repo.Update -> %w", err)
	}

	return nil
}

// SetPreferences replaces the category toggles and frequency of a connection.
func (s *SubscriptionService) SetPreferences(ctx context.Context, connectionID uint, prefs domain.Preferences, freq domain.Frequency) (domain.ParentConnection, error) {
	conn, err := s.repo.FindByID(ctx, connectionID)
	if err != nil {
		return domain.ParentConnection{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}
	if !conn.Active {
		return domain.ParentConnection{}, ErrConnectionInactive
	}

	conn.Preferences = prefs
	conn.Frequency = freq

	updated, err := s.repo.Update(ctx, conn)
	if err != nil {
		return domain.ParentConnection{}, fmt.Errorf("s.repo.Update -> %w", err)
	}

	return updated, nil
}

// Deactivate soft-revokes a connection. Deactivating twice is a no-op; there
// is no way back to active except a brand-new Connect.
func (s *SubscriptionService) Deactivate(ctx context.Context, connectionID uint) error {
	conn, err := s.repo.FindByID(ctx, connectionID)
	if err != nil {
		return fmt.Errorf("s.repo.FindByID -> %w", err)
	}
	if !conn.Active {
		return nil
	}

	conn.Active = false

	if _, err := s.repo.Update(ctx, conn); err != nil {
		return fmt.Errorf("s.repo.Update -> %w", err)
	}

	return nil
}

// ResolveSubscribers returns the verified, active, category-enabled
// connections for one athlete, ordered by creation time.
func (s *SubscriptionService) ResolveSubscribers(ctx context.Context, athleteID uint, category domain.Category) ([]domain.ParentConnection, error) {
	conns, err := s.repo.FindSubscribers(ctx, athleteID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindSubscribers -> %w", err)
	}

	return filterByCategory(conns, category), nil
}

// ResolveClubSubscribers is the club-wide variant used for announcements: all
// verified, active, category-enabled connections for athletes of the club.
func (s *SubscriptionService) ResolveClubSubscribers(ctx context.Context, clubID uint, category domain.Category) ([]domain.ParentConnection, error) {
	conns, err := s.repo.FindSubscribersByClub(ctx, clubID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindSubscribersByClub -> %w", err)
	}

	return filterByCategory(conns, category), nil
}

// ListForAthlete returns every connection of an athlete, any state.
func (s *SubscriptionService) ListForAthlete(ctx context.Context, athleteID uint) ([]domain.ParentConnection, error) {
	conns, err := s.repo.FindByAthleteID(ctx, athleteID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindByAthleteID -> %w", err)
	}

	return conns, nil
}

// ListForParent returns every connection held by a parent user.
func (s *SubscriptionService) ListForParent(ctx context.Context, parentUserID uint) ([]domain.ParentConnection, error) {
	conns, err := s.repo.FindByParentUserID(ctx, parentUserID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindByParentUserID -> %w", err)
	}

	return conns, nil
}

// Get returns one connection by id.
func (s *SubscriptionService) Get(ctx context.Context, connectionID uint) (domain.ParentConnection, error) {
	conn, err := s.repo.FindByID(ctx, connectionID)
	if err != nil {
		return domain.ParentConnection{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	return conn, nil
}

func filterByCategory(conns []domain.ParentConnection, category domain.Category) []domain.ParentConnection {
	out := make([]domain.ParentConnection, 0, len(conns))
	for _, c := range conns {
		if !c.Subscribable() {
			continue
		}
		if !c.Preferences.Subscribed(category) {
			continue
		}
		out = append(out, c)
	}

	return out
}
