package db

import "time"

type SessionModel struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	Domain    string    `gorm:"uniqueIndex;not null"`
	Verified  bool      `gorm:"not null"`
	IssuedAt  time.Time `gorm:"not null"`
	ExpiresAt time.Time `gorm:"index;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (SessionModel) TableName() string {
	return "gate_sessions"
}

type CheckRecordModel struct {
	ID                 string `gorm:"type:uuid;primaryKey"`
	Domain             string `gorm:"index;not null"`
	Valid              bool   `gorm:"not null"`
	GloballyVerified   bool   `gorm:"not null"`
	Reason             string `gorm:"index;not null"`
	SubscriptionStatus string
	SubscriptionEnd    *time.Time
	Source             string    `gorm:"not null"`
	CheckedAt          time.Time `gorm:"not null"`
	CreatedAt          time.Time `gorm:"not null"`
}

func (CheckRecordModel) TableName() string {
	return "license_check_audit"
}
