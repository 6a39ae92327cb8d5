package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/sportsclubhq/clubsync/internal/domain"
	"github.com/sportsclubhq/clubsync/internal/repository/dao"
)

var (
	ErrIdempotencyConflict = dao.ErrIdempotencyConflict
	ErrIdempotencyNotFound = dao.ErrIdempotencyNotFound
)

type IdempotencyDAO interface {
	Insert(ctx context.Context, key dao.IdempotencyKey) (dao.IdempotencyKey, error)
	Find(ctx context.Context, key string, principalID uint, endpoint string) (dao.IdempotencyKey, error)
	UpdateResult(ctx context.Context, key string, principalID uint, endpoint string, status int, body []byte) error
	Delete(ctx context.Context, key string, principalID uint, endpoint string) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type IdempotencyRepository struct {
	dao IdempotencyDAO
}

func NewIdempotencyRepository(dao IdempotencyDAO) *IdempotencyRepository {
	return &IdempotencyRepository{
		dao: dao,
	}
}

func (r *IdempotencyRepository) Create(ctx context.Context, record domain.IdempotencyRecord) (domain.IdempotencyRecord, error) {
	created, err := r.dao.Insert(ctx, dao.IdempotencyKey{
		Key:         record.Key,
		PrincipalID: record.PrincipalID,
		Endpoint:    record.Endpoint,
		Status:      record.Status,
		Body:        record.Body,
	})
	if err != nil {
		return domain.IdempotencyRecord{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.daoToDomain(created), nil
}

func (r *IdempotencyRepository) Find(ctx context.Context, key string, principalID uint, endpoint string) (domain.IdempotencyRecord, error) {
	found, err := r.dao.Find(ctx, key, principalID, endpoint)
	if err != nil {
		return domain.IdempotencyRecord{}, fmt.Errorf("r.dao.Find -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *IdempotencyRepository) SetResult(ctx context.Context, key string, principalID uint, endpoint string, status int, body []byte) error {
	if err := r.dao.UpdateResult(ctx, key, principalID, endpoint, status, body); err != nil {
		return fmt.Errorf("r.dao.UpdateResult -> %w", err)
	}

	return nil
}

func (r *IdempotencyRepository) Delete(ctx context.Context, key string, principalID uint, endpoint string) error {
	if err := r.dao.Delete(ctx, key, principalID, endpoint); err != nil {
		return fmt.Errorf("r.dao.Delete -> %w", err)
	}

	return nil
}

func (r *IdempotencyRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	swept, err := r.dao.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("r.dao.DeleteOlderThan -> %w", err)
	}

	return swept, nil
}

func (r *IdempotencyRepository) daoToDomain(k dao.IdempotencyKey) domain.IdempotencyRecord {
	return domain.IdempotencyRecord{
		Key:         k.Key,
		PrincipalID: k.PrincipalID,
		Endpoint:    k.Endpoint,
		Status:      k.Status,
		Body:        k.Body,
		CreatedAt:   k.CreatedAt,
	}
}
