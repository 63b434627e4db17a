package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/avelarde/comanda-backend/pkg/enums"
)

// Reservation is a table booking request submitted from the public site.
type Reservation struct {
	ID        uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string                  `gorm:"column:name;not null" json:"name"`
	Email     string                  `gorm:"column:email" json:"email,omitempty"`
	Phone     string                  `gorm:"column:phone;not null" json:"phone"`
	PartySize int                     `gorm:"column:party_size;not null" json:"party_size"`
	StartsAt  time.Time               `gorm:"column:starts_at;not null" json:"starts_at"`
	TableID   *uuid.UUID              `gorm:"column:table_id;type:uuid" json:"table_id,omitempty"`
	Status    enums.ReservationStatus `gorm:"column:status;type:text;not null;default:'pending'" json:"status"`
	Note      string                  `gorm:"column:note" json:"note,omitempty"`
	CreatedAt time.Time               `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time               `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
