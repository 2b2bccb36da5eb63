package store

import (
	"time"

	"gorm.io/datatypes"
)

// GORM models. Table names follow the storage contract: profile rows live in
// "users", saved generations in "generated_content"; credentials get their
// own "accounts" table.

type AccountModel struct {
	ID           string `gorm:"primaryKey"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Fullname     string
	Avatar       string
	APIKey       string `gorm:"column:apikey"`
	Status       string
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time
}

func (AccountModel) TableName() string { return "accounts" }

type ProfileModel struct {
	ID       string `gorm:"primaryKey"`
	Fullname string
	Avatar   string
	APIKey   string `gorm:"column:apikey"`
}

func (ProfileModel) TableName() string { return "users" }

type ContentModel struct {
	ID        int64          `gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time      `gorm:"not null;index"`
	Topic     string         `gorm:"not null"`
	Data      datatypes.JSON `gorm:"type:jsonb;not null"`
	UserID    string         `gorm:"not null;index"`
}

func (ContentModel) TableName() string { return "generated_content" }
