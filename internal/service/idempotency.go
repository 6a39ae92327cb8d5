package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sportsclubhq/clubsync/internal/domain"
	"github.com/sportsclubhq/clubsync/internal/repository"
)

const idempotencyTTL = 24 * time.Hour

// ErrRequestInFlight is returned to the loser of an idempotency-key race
// while the winner's mutation is still executing. The caller retries.
var ErrRequestInFlight = errors.New("an identical request is already in flight")

type IdempotencyRepository interface {
	Create(ctx context.Context, record domain.IdempotencyRecord) (domain.IdempotencyRecord, error)
	Find(ctx context.Context, key string, principalID uint, endpoint string) (domain.IdempotencyRecord, error)
	SetResult(ctx context.Context, key string, principalID uint, endpoint string, status int, body []byte) error
	Delete(ctx context.Context, key string, principalID uint, endpoint string) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// MutationFunc produces the response to cache: an HTTP status and a JSON
// body. A returned error means the mutation failed and must not be cached.
type MutationFunc func(ctx context.Context) (int, json.RawMessage, error)

// IdempotencyService deduplicates mutation requests by
// (key, principal, endpoint). A replay within the TTL returns the cached
// response verbatim without re-invoking the mutation.
type IdempotencyService struct {
	repo IdempotencyRepository
}

func NewIdempotencyService(repo IdempotencyRepository) *IdempotencyService {
	return &IdempotencyService{
		repo: repo,
	}
}

// Execute runs fn at most once per (key, principal, endpoint) triple.
//
// The triple is reserved with an insert before fn runs, so of two concurrent
// requests exactly one executes the mutation: the loser's insert hits the
// composite primary key and falls back to reading the winner's row. A failed
// fn releases the reservation, so a retry re-attempts the mutation.
func (s *IdempotencyService) Execute(ctx context.Context, key string, principalID uint, endpoint string, fn MutationFunc) (int, json.RawMessage, error) {
	_, err := s.repo.Create(ctx, domain.IdempotencyRecord{
		Key:         key,
		PrincipalID: principalID,
		Endpoint:    endpoint,
	})
	if err != nil {
		if !errors.Is(err, repository.ErrIdempotencyConflict) {
			return 0, nil, fmt.Errorf("s.repo.Create -> %w", err)
		}

		winner, ferr := s.repo.Find(ctx, key, principalID, endpoint)
		if ferr != nil {
			if errors.Is(ferr, repository.ErrIdempotencyNotFound) {
				// Winner failed and released the key between our insert and
				// read; the caller simply retries.
				return 0, nil, ErrRequestInFlight
			}

			return 0, nil, fmt.Errorf("s.repo.Find -> %w", ferr)
		}

		if !s.fresh(winner) {
			// Expired leftover: release it and treat the request as new.
			if derr := s.repo.Delete(ctx, key, principalID, endpoint); derr != nil {
				return 0, nil, fmt.Errorf("s.repo.Delete -> %w", derr)
			}

			return s.Execute(ctx, key, principalID, endpoint, fn)
		}

		if winner.Status == 0 {
			return 0, nil, ErrRequestInFlight
		}

		return winner.Status, winner.Body, nil
	}

	status, body, err := fn(ctx)
	if err != nil {
		if derr := s.repo.Delete(ctx, key, principalID, endpoint); derr != nil {
			zap.L().Error("failed to release idempotency key",
				zap.String("key", key),
				zap.Error(derr))
		}

		return 0, nil, err
	}

	if err := s.repo.SetResult(ctx, key, principalID, endpoint, status, body); err != nil {
		return 0, nil, fmt.Errorf("s.repo.SetResult -> %w", err)
	}

	return status, body, nil
}

// Sweep deletes records past the TTL. Intended to run periodically.
func (s *IdempotencyService) Sweep(ctx context.Context) error {
	swept, err := s.repo.DeleteOlderThan(ctx, time.Now().UTC().Add(-idempotencyTTL))
	if err != nil {
		return fmt.Errorf("s.repo.DeleteOlderThan -> %w", err)
	}

	if swept > 0 {
		zap.L().Info("swept expired idempotency keys", zap.Int64("count", swept))
	}

	return nil
}

// StartSweeper runs Sweep on the given interval until ctx is cancelled.
func (s *IdempotencyService) StartSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.Sweep(ctx); err != nil {
					zap.L().Error("idempotency sweep failed", zap.Error(err))
				}
			}
		}
	}()
}

func (s *IdempotencyService) fresh(record domain.IdempotencyRecord) bool {
	return time.Since(record.CreatedAt) < idempotencyTTL
}
