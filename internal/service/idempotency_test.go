package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sportsclubhq/clubsync/internal/domain"
	"github.com/sportsclubhq/clubsync/internal/repository"
)

type fakeIdempotencyRepository struct {
	records map[string]domain.IdempotencyRecord
}

func newFakeIdempotencyRepository() *fakeIdempotencyRepository {
	return &fakeIdempotencyRepository{records: make(map[string]domain.IdempotencyRecord)}
}

func tripleKey(key string, principalID uint, endpoint string) string {
	return fmt.Sprintf("%s|%d|%s", key, principalID, endpoint)
}

func (f *fakeIdempotencyRepository) Create(_ context.Context, record domain.IdempotencyRecord) (domain.IdempotencyRecord, error) {
	k := tripleKey(record.Key, record.PrincipalID, record.Endpoint)
	if _, exists := f.records[k]; exists {
		return domain.IdempotencyRecord{}, repository.ErrIdempotencyConflict
	}

	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	f.records[k] = record

	return record, nil
}

func (f *fakeIdempotencyRepository) Find(_ context.Context, key string, principalID uint, endpoint string) (domain.IdempotencyRecord, error) {
	record, ok := f.records[tripleKey(key, principalID, endpoint)]
	if !ok {
		return domain.IdempotencyRecord{}, repository.ErrIdempotencyNotFound
	}

	return record, nil
}

func (f *fakeIdempotencyRepository) SetResult(_ context.Context, key string, principalID uint, endpoint string, status int, body []byte) error {
	k := tripleKey(key, principalID, endpoint)
	record, ok := f.records[k]
	if !ok {
		return repository.ErrIdempotencyNotFound
	}

	record.Status = status
	record.Body = body
	f.records[k] = record

	return nil
}

func (f *fakeIdempotencyRepository) Delete(_ context.Context, key string, principalID uint, endpoint string) error {
	delete(f.records, tripleKey(key, principalID, endpoint))

	return nil
}

func (f *fakeIdempotencyRepository) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	var swept int64
	for k, record := range f.records {
		if record.CreatedAt.Before(cutoff) {
			delete(f.records, k)
			swept++
		}
	}

	return swept, nil
}

func TestIdempotencyService_Execute_RunsOncePerKey(t *testing.T) {
	svc := NewIdempotencyService(newFakeIdempotencyRepository())

	calls := 0
	fn := func(context.Context) (int, json.RawMessage, error) {
		calls++

		return http.StatusCreated, json.RawMessage(`{"id":1}`), nil
	}

	status, body, err := svc.Execute(context.Background(), "key-1", 7, "POST /api/v1/leave", fn)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, status)
	assert.JSONEq(t, `{"id":1}`, string(body))

	status, body, err = svc.Execute(context.Background(), "key-1", 7, "POST /api/v1/leave", fn)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, status)
	assert.JSONEq(t, `{"id":1}`, string(body))

	assert.Equal(t, 1, calls)
}

func TestIdempotencyService_Execute_ScopedByPrincipalAndEndpoint(t *testing.T) {
	svc := NewIdempotencyService(newFakeIdempotencyRepository())

	calls := 0
	fn := func(context.Context) (int, json.RawMessage, error) {
		calls++

		return http.StatusCreated, nil, nil
	}

	_, _, err := svc.Execute(context.Background(), "key-1", 7, "POST /api/v1/leave", fn)
	require.NoError(t, err)
	_, _, err = svc.Execute(context.Background(), "key-1", 8, "POST /api/v1/leave", fn)
	require.NoError(t, err)
	_, _, err = svc.Execute(context.Background(), "key-1", 7, "POST /api/v1/announcements", fn)
	require.NoError(t, err)

	assert.Equal(t, 3, calls)
}

func TestIdempotencyService_Execute_FailedMutationIsNotCached(t *testing.T) {
	svc := NewIdempotencyService(newFakeIdempotencyRepository())

	boom := errors.New("constraint violation")
	calls := 0

	_, _, err := svc.Execute(context.Background(), "key-1", 7, "POST /api/v1/leave",
		func(context.Context) (int, json.RawMessage, error) {
			calls++

			return 0, nil, boom
		})
	require.ErrorIs(t, err, boom)

	status, _, err := svc.Execute(context.Background(), "key-1", 7, "POST /api/v1/leave",
		func(context.Context) (int, json.RawMessage, error) {
			calls++

			return http.StatusCreated, nil, nil
		})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, status)
	assert.Equal(t, 2, calls)
}

func TestIdempotencyService_Execute_InFlightWinner(t *testing.T) {
	repo := newFakeIdempotencyRepository()
	svc := NewIdempotencyService(repo)

	// A reservation without a result is a mutation still executing.
	_, err := repo.Create(context.Background(), domain.IdempotencyRecord{
		Key:         "key-1",
		PrincipalID: 7,
		Endpoint:    "POST /api/v1/leave",
	})
	require.NoError(t, err)

	_, _, err = svc.Execute(context.Background(), "key-1", 7, "POST /api/v1/leave",
		func(context.Context) (int, json.RawMessage, error) {
			t.Fatal("loser must not execute the mutation")

			return 0, nil, nil
		})

	assert.ErrorIs(t, err, ErrRequestInFlight)
}

func TestIdempotencyService_Execute_ExpiredRecordIsReplaced(t *testing.T) {
	repo := newFakeIdempotencyRepository()
	svc := NewIdempotencyService(repo)

	_, err := repo.Create(context.Background(), domain.IdempotencyRecord{
		Key:         "key-1",
		PrincipalID: 7,
		Endpoint:    "POST /api/v1/leave",
		Status:      http.StatusCreated,
		Body:        json.RawMessage(`{"id":1}`),
		CreatedAt:   time.Now().UTC().Add(-25 * time.Hour),
	})
	require.NoError(t, err)

	status, body, err := svc.Execute(context.Background(), "key-1", 7, "POST /api/v1/leave",
		func(context.Context) (int, json.RawMessage, error) {
			return http.StatusCreated, json.RawMessage(`{"id":2}`), nil
		})

	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, status)
	assert.JSONEq(t, `{"id":2}`, string(body))
}

func TestIdempotencyService_Sweep(t *testing.T) {
	repo := newFakeIdempotencyRepository()
	svc := NewIdempotencyService(repo)

	_, err := repo.Create(context.Background(), domain.IdempotencyRecord{
		Key:       "old",
		Endpoint:  "POST /api/v1/leave",
		CreatedAt: time.Now().UTC().Add(-25 * time.Hour),
	})
	require.NoError(t, err)
	_, err = repo.Create(context.Background(), domain.IdempotencyRecord{
		Key:       "fresh",
		Endpoint:  "POST /api/v1/leave",
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	require.NoError(t, svc.Sweep(context.Background()))

	assert.Len(t, repo.records, 1)
	_, err = repo.Find(context.Background(), "fresh", 0, "POST /api/v1/leave")
	assert.NoError(t, err)
}
