package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrFlagNotFound = errors.New("feature flag not found")

type FeatureFlag struct {
	Name string `gorm:"primaryKey"`

	Enabled           bool `gorm:"not null;default:false"`
	RolloutPercentage int  `gorm:"not null;default:0"`

	UpdatedAt time.Time `gorm:"not null"`
}

type FlagDAO struct {
	db *gorm.DB
}

func NewFlagDAO(db *gorm.DB) *FlagDAO {
	return &FlagDAO{
		db: db,
	}
}

func (d *FlagDAO) Upsert(ctx context.Context, flag FeatureFlag) (FeatureFlag, error) {
	result := d.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"enabled", "rollout_percentage", "updated_at"}),
	}).Create(&flag)
	if result.Error != nil {
		return FeatureFlag{}, result.Error
	}

	return flag, nil
}

func (d *FlagDAO) FindByName(ctx context.Context, name string) (FeatureFlag, error) {
	var flag FeatureFlag

	result := d.db.WithContext(ctx).First(&flag, "name = ?", name)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return FeatureFlag{}, ErrFlagNotFound
		}

		return FeatureFlag{}, result.Error
	}

	return flag, nil
}
