package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mgastelum/storefront-backend/pkg/enums"
)

// Setting is a key-value configuration row. Values are stored as strings
// regardless of logical type.
type Setting struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Key       string            `gorm:"column:key;not null;uniqueIndex"`
	Value     string            `gorm:"column:value;not null"`
	Type      enums.SettingType `gorm:"column:type;not null;default:'string'"`
	Group     string            `gorm:"column:group_name;not null;default:'general'"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
