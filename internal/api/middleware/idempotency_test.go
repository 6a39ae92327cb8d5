package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sportsclubhq/clubsync/internal/domain"
	"github.com/sportsclubhq/clubsync/internal/repository"
	"github.com/sportsclubhq/clubsync/internal/service"
)

type memoryIdempotencyRepository struct {
	records map[string]domain.IdempotencyRecord
}

func (m *memoryIdempotencyRepository) key(key string, principalID uint, endpoint string) string {
	return fmt.Sprintf("%s|%d|%s", key, principalID, endpoint)
}

func (m *memoryIdempotencyRepository) Create(_ context.Context, record domain.IdempotencyRecord) (domain.IdempotencyRecord, error) {
	k := m.key(record.Key, record.PrincipalID, record.Endpoint)
	if _, exists := m.records[k]; exists {
		return domain.IdempotencyRecord{}, repository.ErrIdempotencyConflict
	}

	record.CreatedAt = time.Now().UTC()
	m.records[k] = record

	return record, nil
}

func (m *memoryIdempotencyRepository) Find(_ context.Context, key string, principalID uint, endpoint string) (domain.IdempotencyRecord, error) {
	record, ok := m.records[m.key(key, principalID, endpoint)]
	if !ok {
		return domain.IdempotencyRecord{}, repository.ErrIdempotencyNotFound
	}

	return record, nil
}

func (m *memoryIdempotencyRepository) SetResult(_ context.Context, key string, principalID uint, endpoint string, status int, body []byte) error {
	k := m.key(key, principalID, endpoint)
	record := m.records[k]
	record.Status = status
	record.Body = body
	m.records[k] = record

	return nil
}

func (m *memoryIdempotencyRepository) Delete(_ context.Context, key string, principalID uint, endpoint string) error {
	delete(m.records, m.key(key, principalID, endpoint))

	return nil
}

func (m *memoryIdempotencyRepository) DeleteOlderThan(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func newIdempotencyTestRouter(handlerCalls *int, handlerStatus int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := service.NewIdempotencyService(&memoryIdempotencyRepository{
		records: make(map[string]domain.IdempotencyRecord),
	})

	router := gin.New()
	router.Use(func(ctx *gin.Context) {
		ctx.Set(principalKey, domain.User{ID: 7, Role: domain.RoleAthlete, ClubID: 10})
	})
	router.Use(Idempotency(svc))
	router.POST("/api/v1/leave", func(ctx *gin.Context) {
		*handlerCalls++
		if handlerStatus >= http.StatusBadRequest {
			ctx.JSON(handlerStatus, gin.H{"error": "nope"})

			return
		}
		ctx.JSON(handlerStatus, gin.H{"id": *handlerCalls})
	})

	return router
}

func postLeave(router *gin.Engine, idempotencyKey string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/leave", strings.NewReader(`{}`))
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	return recorder
}

func TestIdempotency_ReplayReturnsCachedResponse(t *testing.T) {
	calls := 0
	router := newIdempotencyTestRouter(&calls, http.StatusCreated)

	first := postLeave(router, "abc-123")
	require.Equal(t, http.StatusCreated, first.Code)
	assert.JSONEq(t, `{"id":1}`, first.Body.String())

	second := postLeave(router, "abc-123")
	require.Equal(t, http.StatusCreated, second.Code)
	assert.JSONEq(t, `{"id":1}`, second.Body.String())

	assert.Equal(t, 1, calls)
}

func TestIdempotency_DistinctKeysExecuteSeparately(t *testing.T) {
	calls := 0
	router := newIdempotencyTestRouter(&calls, http.StatusCreated)

	postLeave(router, "key-a")
	postLeave(router, "key-b")

	assert.Equal(t, 2, calls)
}

func TestIdempotency_MissingKeyBypassesDeduplication(t *testing.T) {
	calls := 0
	router := newIdempotencyTestRouter(&calls, http.StatusCreated)

	postLeave(router, "")
	postLeave(router, "")

	assert.Equal(t, 2, calls)
}

func TestIdempotency_FailedResponseIsNotCached(t *testing.T) {
	calls := 0
	router := newIdempotencyTestRouter(&calls, http.StatusConflict)

	first := postLeave(router, "abc-123")
	assert.Equal(t, http.StatusConflict, first.Code)

	second := postLeave(router, "abc-123")
	assert.Equal(t, http.StatusConflict, second.Code)

	// A failure releases the key, so the retry re-runs the handler.
	assert.Equal(t, 2, calls)
}
