package dao

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrIdempotencyConflict signals that a concurrent request won the insert
	// race; the caller should read the winner's row instead of erroring.
	ErrIdempotencyConflict = errors.New("idempotency key already recorded")
	ErrIdempotencyNotFound = errors.New("idempotency key not found")
)

type IdempotencyKey struct {
	Key         string `gorm:"primaryKey"`
	PrincipalID uint   `gorm:"primaryKey;autoIncrement:false"`
	Endpoint    string `gorm:"primaryKey"`

	Status int    `gorm:"not null"`
	Body   []byte `gorm:"type:jsonb"`

	CreatedAt time.Time `gorm:"not null;index"`
}

type IdempotencyDAO struct {
	db *gorm.DB
}

func NewIdempotencyDAO(db *gorm.DB) *IdempotencyDAO {
	return &IdempotencyDAO{
		db: db,
	}
}

func (d *IdempotencyDAO) Insert(ctx context.Context, key IdempotencyKey) (IdempotencyKey, error) {
	result := d.db.WithContext(ctx).Create(&key)
	if result.Error != nil {
		var err *pgconn.PgError
		if errors.As(result.Error, &err) &&
			err.Code == pgerrcode.UniqueViolation &&
			strings.Contains(err.Message, "idempotency_keys_pkey") {
			return IdempotencyKey{}, ErrIdempotencyConflict
		}

		return IdempotencyKey{}, result.Error
	}

	return key, nil
}

func (d *IdempotencyDAO) Find(ctx context.Context, key string, principalID uint, endpoint string) (IdempotencyKey, error) {
	var record IdempotencyKey

	result := d.db.WithContext(ctx).
		First(&record, "key = ? AND principal_id = ? AND endpoint = ?", key, principalID, endpoint)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return IdempotencyKey{}, ErrIdempotencyNotFound
		}

		return IdempotencyKey{}, result.Error
	}

	return record, nil
}

// UpdateResult fills in the response of a reserved key.
func (d *IdempotencyDAO) UpdateResult(ctx context.Context, key string, principalID uint, endpoint string, status int, body []byte) error {
	result := d.db.WithContext(ctx).Model(&IdempotencyKey{}).
		Where("key = ? AND principal_id = ? AND endpoint = ?", key, principalID, endpoint).
		Updates(map[string]interface{}{"status": status, "body": body})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrIdempotencyNotFound
	}

	return nil
}

// Delete removes one key, releasing the reservation after a failed mutation.
func (d *IdempotencyDAO) Delete(ctx context.Context, key string, principalID uint, endpoint string) error {
	result := d.db.WithContext(ctx).
		Where("key = ? AND principal_id = ? AND endpoint = ?", key, principalID, endpoint).
		Delete(&IdempotencyKey{})

	return result.Error
}

// DeleteOlderThan removes expired keys. Returns the number of rows swept.
func (d *IdempotencyDAO) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := d.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&IdempotencyKey{})
	if result.Error != nil {
		return 0, result.Error
	}

	return result.RowsAffected, nil
}
