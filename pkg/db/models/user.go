package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/avelarde/comanda-backend/pkg/enums"
)

// User is a staff account. PasswordHash stores an encoded Argon2id string.
type User struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name         string          `gorm:"column:name;not null" json:"name"`
	Email        string          `gorm:"column:email;uniqueIndex;not null" json:"email"`
	PasswordHash string          `gorm:"column:password_hash;not null" json:"-"`
	Role         enums.StaffRole `gorm:"column:role;type:text;not null" json:"role"`
	Active       bool            `gorm:"column:active;not null;default:true" json:"active"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
