package dao

import "gorm.io/gorm"

func InitTables(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&User{},
		&ParentConnection{},
		&Event{},
		&Notification{},
		&IdempotencyKey{},
		&FeatureFlag{},
		&AttendanceRecord{},
		&TestResult{},
		&TrainingGoal{},
		&LeaveRequest{},
		&Announcement{},
	); err != nil {
		return err
	}

	// Partial unique index; gorm tags cannot express the WHERE clause.
	// Inactive connections are dead consent and must not block a re-link.
	return db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_connections_athlete_email_live
		 ON parent_connections (athlete_id, parent_email) WHERE active`,
	).Error
}
