package model

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AccessLog is an append-only audit record of successful logins.
// Rows are never updated or deleted.
type AccessLog struct {
	gorm.Model
	UserID    uint           `gorm:"column:user_id;index;not null"`
	UserAgent string         `gorm:"column:user_agent"`
	Endpoint  string         `gorm:"column:endpoint"`
	IP        string         `gorm:"column:ip"`
	Metadata  datatypes.JSON `gorm:"column:metadata"`
}
