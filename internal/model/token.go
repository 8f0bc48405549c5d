package model

import (
	"time"

	"gorm.io/gorm"
)

// AccessToken and RefreshToken are separate ledgers with the same shape.
// A token is live only while its row exists; deleting the row revokes it.
// There is no revoked flag on purpose.

type AccessToken struct {
	gorm.Model
	JTI       string    `gorm:"column:jti;uniqueIndex;not null"`
	UserID    uint      `gorm:"column:user_id;index;not null"`
	Token     string    `gorm:"column:token;type:text;not null"`
	ExpiresAt time.Time `gorm:"column:expires_at;index;not null"`
}

type RefreshToken struct {
	gorm.Model
	JTI       string    `gorm:"column:jti;uniqueIndex;not null"`
	UserID    uint      `gorm:"column:user_id;index;not null"`
	Token     string    `gorm:"column:token;type:text;not null"`
	ExpiresAt time.Time `gorm:"column:expires_at;index;not null"`
}
