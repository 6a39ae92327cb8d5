package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sportsclubhq/clubsync/internal/domain"
	"github.com/sportsclubhq/clubsync/internal/repository"
)

type fakeConnectionRepository struct {
	nextID uint
	byID   map[uint]domain.ParentConnection

	clubByAthlete map[uint]uint
}

func newFakeConnectionRepository() *fakeConnectionRepository {
	return &fakeConnectionRepository{
		nextID:        1,
		byID:          make(map[uint]domain.ParentConnection),
		clubByAthlete: make(map[uint]uint),
	}
}

func (f *fakeConnectionRepository) Create(_ context.Context, conn domain.ParentConnection) (domain.ParentConnection, error) {
	for _, existing := range f.byID {
		if existing.AthleteID == conn.AthleteID && existing.ParentEmail == conn.ParentEmail && existing.Active {
			return domain.ParentConnection{}, repository.ErrConnectionExists
		}
	}

	conn.ID = f.nextID
	conn.CreatedAt = time.Now().UTC()
	f.nextID++
	f.byID[conn.ID] = conn

	return conn, nil
}

func (f *fakeConnectionRepository) FindByID(_ context.Context, id uint) (domain.ParentConnection, error) {
	conn, ok := f.byID[id]
	if !ok {
		return domain.ParentConnection{}, repository.ErrConnectionNotFound
	}

	return conn, nil
}

func (f *fakeConnectionRepository) Update(_ context.Context, conn domain.ParentConnection) (domain.ParentConnection, error) {
	if _, ok := f.byID[conn.ID]; !ok {
		return domain.ParentConnection{}, repository.ErrConnectionNotFound
	}
	f.byID[conn.ID] = conn

	return conn, nil
}

func (f *fakeConnectionRepository) FindByAthleteID(_ context.Context, athleteID uint) ([]domain.ParentConnection, error) {
	var out []domain.ParentConnection
	for _, conn := range f.byID {
		if conn.AthleteID == athleteID {
			out = append(out, conn)
		}
	}

	return out, nil
}

func (f *fakeConnectionRepository) FindByParentUserID(_ context.Context, parentUserID uint) ([]domain.ParentConnection, error) {
	var out []domain.ParentConnection
	for _, conn := range f.byID {
		if conn.ParentUserID == parentUserID {
			out = append(out, conn)
		}
	}

	return out, nil
}

func (f *fakeConnectionRepository) FindSubscribers(_ context.Context, athleteID uint) ([]domain.ParentConnection, error) {
	var out []domain.ParentConnection
	for _, conn := range f.byID {
		if conn.AthleteID == athleteID && conn.Verified && conn.Active {
			out = append(out, conn)
		}
	}

	return out, nil
}

func (f *fakeConnectionRepository) FindSubscribersByClub(_ context.Context, clubID uint) ([]domain.ParentConnection, error) {
	var out []domain.ParentConnection
	for _, conn := range f.byID {
		if f.clubByAthlete[conn.AthleteID] == clubID && conn.Verified && conn.Active {
			out = append(out, conn)
		}
	}

	return out, nil
}

func (f *fakeConnectionRepository) HasVerifiedActive(_ context.Context, parentUserID, athleteID uint) (bool, error) {
	for _, conn := range f.byID {
		if conn.ParentUserID == parentUserID && conn.AthleteID == athleteID && conn.Verified && conn.Active {
			return true, nil
		}
	}

	return false, nil
}

type fakeMailer struct {
	sent []string
	err  error
}

func (f *fakeMailer) SendVerificationToken(_ context.Context, email, token string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, email+":"+token)

	return nil
}

func allPreferences() domain.Preferences {
	return domain.Preferences{
		Attendance:    true,
		Performance:   true,
		Leave:         true,
		Announcements: true,
		Goals:         true,
	}
}

func TestSubscriptionService_Connect(t *testing.T) {
	repo := newFakeConnectionRepository()
	mailer := &fakeMailer{}
	svc := NewSubscriptionService(repo, mailer)

	created, err := svc.Connect(context.Background(), 3, 0, "mom@example.com",
		domain.RelationshipMother, allPreferences(), domain.FrequencyImmediate)

	require.NoError(t, err)
	assert.False(t, created.Verified)
	assert.True(t, created.Active)
	assert.NotEmpty(t, created.VerifyToken)
	assert.True(t, created.TokenExpiresAt.After(time.Now().UTC()))
	assert.Len(t, mailer.sent, 1)

	_, err = svc.Connect(context.Background(), 3, 0, "mom@example.com",
		domain.RelationshipMother, allPreferences(), domain.FrequencyImmediate)
	assert.ErrorIs(t, err, ErrDuplicatePending)
}

func TestSubscriptionService_Connect_MailerFailureIsNotFatal(t *testing.T) {
	repo := newFakeConnectionRepository()
	svc := NewSubscriptionService(repo, &fakeMailer{err: errors.New("smtp down")})

	created, err := svc.Connect(context.Background(), 3, 0, "dad@example.com",
		domain.RelationshipFather, allPreferences(), domain.FrequencyImmediate)

	require.NoError(t, err)
	assert.NotZero(t, created.ID)
}

func TestSubscriptionService_Verify(t *testing.T) {
	repo := newFakeConnectionRepository()
	svc := NewSubscriptionService(repo, &fakeMailer{})

	created, err := svc.Connect(context.Background(), 3, 0, "mom@example.com",
		domain.RelationshipMother, allPreferences(), domain.FrequencyImmediate)
	require.NoError(t, err)

	err = svc.Verify(context.Background(), created.ID, "wrong-token")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	err = svc.Verify(context.Background(), created.ID, created.VerifyToken)
	require.NoError(t, err)

	verified, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.True(t, verified.Verified)
	assert.Empty(t, verified.VerifyToken)

	// The token is single use.
	err = svc.Verify(context.Background(), created.ID, created.VerifyToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestSubscriptionService_Verify_ExpiredToken(t *testing.T) {
	repo := newFakeConnectionRepository()
	svc := NewSubscriptionService(repo, &fakeMailer{})

	created, err := svc.Connect(context.Background(), 3, 0, "mom@example.com",
		domain.RelationshipMother, allPreferences(), domain.FrequencyImmediate)
	require.NoError(t, err)

	stale := repo.byID[created.ID]
	stale.TokenExpiresAt = time.Now().UTC().Add(-time.Minute)
	repo.byID[created.ID] = stale

	err = svc.Verify(context.Background(), created.ID, created.VerifyToken)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestSubscriptionService_SetPreferences_InactiveConnection(t *testing.T) {
	repo := newFakeConnectionRepository()
	svc := NewSubscriptionService(repo, &fakeMailer{})

	created, err := svc.Connect(context.Background(), 3, 0, "mom@example.com",
		domain.RelationshipMother, allPreferences(), domain.FrequencyImmediate)
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(context.Background(), created.ID))
	// Deactivating twice is a no-op.
	require.NoError(t, svc.Deactivate(context.Background(), created.ID))

	_, err = svc.SetPreferences(context.Background(), created.ID, allPreferences(), domain.FrequencyDaily)
	assert.ErrorIs(t, err, ErrConnectionInactive)
}

func TestSubscriptionService_ResolveSubscribers_FiltersByStateAndCategory(t *testing.T) {
	repo := newFakeConnectionRepository()
	svc := NewSubscriptionService(repo, &fakeMailer{})

	subscribed, err := svc.Connect(context.Background(), 3, 0, "mom@example.com",
		domain.RelationshipMother, allPreferences(), domain.FrequencyImmediate)
	require.NoError(t, err)
	require.NoError(t, svc.Verify(context.Background(), subscribed.ID, subscribed.VerifyToken))

	optedOut, err := svc.Connect(context.Background(), 3, 0, "dad@example.com",
		domain.RelationshipFather, domain.Preferences{Performance: true}, domain.FrequencyImmediate)
	require.NoError(t, err)
	require.NoError(t, svc.Verify(context.Background(), optedOut.ID, optedOut.VerifyToken))

	// Never verified; must not receive anything.
	_, err = svc.Connect(context.Background(), 3, 0, "aunt@example.com",
		domain.RelationshipGuardian, allPreferences(), domain.FrequencyImmediate)
	require.NoError(t, err)

	subs, err := svc.ResolveSubscribers(context.Background(), 3, domain.CategoryAttendance)

	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, subscribed.ID, subs[0].ID)
}
