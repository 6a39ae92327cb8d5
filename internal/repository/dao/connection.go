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
	ErrConnectionExists   = errors.New("a pending or active connection for this athlete and email already exists")
	ErrConnectionNotFound = errors.New("connection not found")
)

type ParentConnection struct {
	ID uint `gorm:"primaryKey"`

	AthleteID    uint   `gorm:"not null;index:idx_connections_athlete_email"`
	ParentUserID uint   `gorm:"index"`
	ParentEmail  string `gorm:"not null;index:idx_connections_athlete_email"`
	Relationship string `gorm:"not null"` // "father", "mother" or "guardian"

	Verified bool `gorm:"not null;default:false"`
	Active   bool `gorm:"not null;default:true"`

	NotifyAttendance    bool `gorm:"not null;default:true"`
	NotifyPerformance   bool `gorm:"not null;default:true"`
	NotifyLeave         bool `gorm:"not null;default:true"`
	NotifyAnnouncements bool `gorm:"not null;default:true"`
	NotifyGoals         bool `gorm:"not null;default:true"`

	Frequency string `gorm:"not null;default:'immediate'"` // "immediate", "daily" or "weekly"

	VerifyToken    string `gorm:"index"`
	TokenExpiresAt time.Time

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type ConnectionDAO struct {
	db *gorm.DB
}

func NewConnectionDAO(db *gorm.DB) *ConnectionDAO {
	return &ConnectionDAO{
		db: db,
	}
}

// Insert creates a connection unless a non-inactive one for the same
// (athlete, email) pair already exists. The partial unique index created in
// InitTables holds the invariant under concurrent inserts; inactive rows are
// dead consent and do not block a fresh link.
func (d *ConnectionDAO) Insert(ctx context.Context, conn ParentConnection) (ParentConnection, error) {
	result := d.db.WithContext(ctx).Create(&conn)
	if result.Error != nil {
		var err *pgconn.PgError
		if errors.As(result.Error, &err) &&
			err.Code == pgerrcode.UniqueViolation &&
			strings.Contains(err.Message, "ux_connections_athlete_email_live") {
			return ParentConnection{}, ErrConnectionExists
		}

		return ParentConnection{}, result.Error
	}

	return conn, nil
}

func (d *ConnectionDAO) FindByID(ctx context.Context, id uint) (ParentConnection, error) {
	var conn ParentConnection

	result := d.db.WithContext(ctx).First(&conn, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return ParentConnection{}, ErrConnectionNotFound
		}

		return ParentConnection{}, result.Error
	}

	return conn, nil
}

func (d *ConnectionDAO) Update(ctx context.Context, conn ParentConnection) (ParentConnection, error) {
	result := d.db.WithContext(ctx).Save(&conn)
	if result.Error != nil {
		return ParentConnection{}, result.Error
	}

	return conn, nil
}

func (d *ConnectionDAO) FindByAthleteID(ctx context.Context, athleteID uint) ([]ParentConnection, error) {
	var conns []ParentConnection

	result := d.db.WithContext(ctx).
		Where("athlete_id = ?", athleteID).
		Order("created_at asc").
		Find(&conns)
	if result.Error != nil {
		return nil, result.Error
	}

	return conns, nil
}

func (d *ConnectionDAO) FindByParentUserID(ctx context.Context, parentUserID uint) ([]ParentConnection, error) {
	var conns []ParentConnection

	result := d.db.WithContext(ctx).
		Where("parent_user_id = ?", parentUserID).
		Order("created_at asc").
		Find(&conns)
	if result.Error != nil {
		return nil, result.Error
	}

	return conns, nil
}

// FindSubscribers returns verified, active connections for one athlete,
// ordered by creation time for deterministic fan-out.
func (d *ConnectionDAO) FindSubscribers(ctx context.Context, athleteID uint) ([]ParentConnection, error) {
	var conns []ParentConnection

	result := d.db.WithContext(ctx).
		Where("athlete_id = ? AND verified = ? AND active = ?", athleteID, true, true).
		Order("created_at asc").
		Find(&conns)
	if result.Error != nil {
		return nil, result.Error
	}

	return conns, nil
}

// FindSubscribersByClub returns verified, active connections whose athlete
// belongs to the given club. Used for club-wide broadcasts.
func (d *ConnectionDAO) FindSubscribersByClub(ctx context.Context, clubID uint) ([]ParentConnection, error) {
	var conns []ParentConnection

	result := d.db.WithContext(ctx).
		Joins("JOIN users ON users.id = parent_connections.athlete_id").
		Where("users.club_id = ? AND parent_connections.verified = ? AND parent_connections.active = ?", clubID, true, true).
		Order("parent_connections.created_at asc").
		Find(&conns)
	if result.Error != nil {
		return nil, result.Error
	}

	return conns, nil
}

// HasVerifiedActive reports whether the parent holds a verified, active
// connection to the athlete. Used by authorization.
func (d *ConnectionDAO) HasVerifiedActive(ctx context.Context, parentUserID, athleteID uint) (bool, error) {
	var count int64

	result := d.db.WithContext(ctx).Model(&ParentConnection{}).
		Where("parent_user_id = ? AND athlete_id = ? AND verified = ? AND active = ?", parentUserID, athleteID, true, true).
		Count(&count)
	if result.Error != nil {
		return false, result.Error
	}

	return count > 0, nil
}
