package repository

import (
	"context"
	"fmt"

	"github.com/sportsclubhq/clubsync/internal/domain"
	"github.com/sportsclubhq/clubsync/internal/repository/dao"
)

var ErrFlagNotFound = dao.ErrFlagNotFound

type FlagDAO interface {
	Upsert(ctx context.Context, flag dao.FeatureFlag) (dao.FeatureFlag, error)
	FindByName(ctx context.Context, name string) (dao.FeatureFlag, error)
}

type FlagRepository struct {
	dao FlagDAO
}

func NewFlagRepository(dao FlagDAO) *FlagRepository {
	return &FlagRepository{
		dao: dao,
	}
}

func (r *FlagRepository) Upsert(ctx context.Context, flag domain.FeatureFlag) (domain.FeatureFlag, error) {
	upserted, err := r.dao.Upsert(ctx, dao.FeatureFlag{
		Name:              flag.Name,
		Enabled:           flag.Enabled,
		RolloutPercentage: flag.RolloutPercentage,
	})
	if err != nil {
		return domain.FeatureFlag{}, fmt.Errorf("r.dao.Upsert -> %w", err)
	}

	return r.daoToDomain(upserted), nil
}

func (r *FlagRepository) FindByName(ctx context.Context, name string) (domain.FeatureFlag, error) {
	found, err := r.dao.FindByName(ctx, name)
	if err != nil {
		return domain.FeatureFlag{}, fmt.Errorf("r.dao.FindByName -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *FlagRepository) daoToDomain(f dao.FeatureFlag) domain.FeatureFlag {
	return domain.FeatureFlag{
		Name:              f.Name,
		Enabled:           f.Enabled,
		RolloutPercentage: f.RolloutPercentage,
		UpdatedAt:         f.UpdatedAt,
	}
}
