package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Account mirrors an identity owned by the hosted auth provider.
type Account struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email     string    `gorm:"column:email;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Account) TableName() string { return "accounts" }

func (a *Account) BeforeCreate(*gorm.DB) error {
	assignID(&a.ID)
	return nil
}
