package settings

import (
	"time"

	"github.com/mgastelum/storefront-backend/pkg/db/models"
	"github.com/mgastelum/storefront-backend/pkg/enums"
)

// SettingDTO is the API shape of a configuration entry.
type SettingDTO struct {
	Key       string            `json:"key"`
	Value     string            `json:"value"`
	Type      enums.SettingType `json:"type"`
	Group     string            `json:"group"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// UpsertInput is one key/value write. Type and Group only apply when the key
// is created; existing rows keep theirs and take the new value only.
type UpsertInput struct {
	Key   string  `json:"key" validate:"required"`
	Value string  `json:"value" validate:"required"`
	Type  *string `json:"type" validate:"omitempty,oneof=string number boolean json"`
	Group *string `json:"group"`
}

// BulkUpsertResult reports the outcome of one entry in a bulk write. The
// batch is applied sequentially and is not atomic; failed entries do not
// roll back earlier ones.
type BulkUpsertResult struct {
	Key     string      `json:"key"`
	Setting *SettingDTO `json:"setting,omitempty"`
	Error   *string     `json:"error,omitempty"`
}

func toSettingDTO(record *models.Setting) SettingDTO {
	return SettingDTO{
		Key:       record.Key,
		Value:     record.Value,
		Type:      record.Type,
		Group:     record.Group,
		UpdatedAt: record.UpdatedAt,
	}
}
