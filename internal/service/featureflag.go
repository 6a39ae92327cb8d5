package service

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"

	"github.com/sportsclubhq/clubsync/internal/domain"
	"github.com/sportsclubhq/clubsync/internal/repository"
)

type FlagRepository interface {
	Upsert(ctx context.Context, flag domain.FeatureFlag) (domain.FeatureFlag, error)
	FindByName(ctx context.Context, name string) (domain.FeatureFlag, error)
}

// FlagService gates optional code paths. Missing flags fail closed.
type FlagService struct {
	repo FlagRepository
}

func NewFlagService(repo FlagRepository) *FlagService {
	return &FlagService{
		repo: repo,
	}
}

// IsEnabled reports whether the flag is active for the principal. The bucket
// is a deterministic hash of (flag name, principal id), so a principal's
// exposure is stable across calls instead of flickering per request.
func (s *FlagService) IsEnabled(ctx context.Context, name string, principalID uint) (bool, error) {
	flag, err := s.repo.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrFlagNotFound) {
			return false, nil
		}

		return false, fmt.Errorf("s.repo.FindByName -> %w", err)
	}

	if !flag.Enabled {
		return false, nil
	}

	return rolloutBucket(name, principalID) < flag.RolloutPercentage, nil
}

// Upsert creates or updates a flag. Admin only; the handler enforces that.
func (s *FlagService) Upsert(ctx context.Context, flag domain.FeatureFlag) (domain.FeatureFlag, error) {
	upserted, err := s.repo.Upsert(ctx, flag)
	if err != nil {
		return domain.FeatureFlag{}, fmt.Errorf("s.repo.Upsert -> %w", err)
	}

	return upserted, nil
}

// rolloutBucket maps (flag, principal) onto [0,100).
func rolloutBucket(name string, principalID uint) int {
	h := fnv.New32a()
	fmt.Fprintf(h, "%s:%d", name, principalID)

	return int(h.Sum32() % 100)
}
