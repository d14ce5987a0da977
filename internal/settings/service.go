package settings

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/mgastelum/storefront-backend/pkg/db/models"
	"github.com/mgastelum/storefront-backend/pkg/enums"
	pkgerrors "github.com/mgastelum/storefront-backend/pkg/errors"
	"github.com/mgastelum/storefront-backend/pkg/logger"
)

const (
	defaultGroup = "general"
)

// publicKeys is the fixed allow-list of settings the storefront may read
// without authentication. Keys outside this list never leave the admin
// surface regardless of what is in storage.
var publicKeys = []string{
	"store_name",
	"store_currency",
	"support_email",
	"free_shipping_threshold_cents",
	"maintenance_mode",
}

// SettingsRepository abstracts setting persistence for the service layer.
type SettingsRepository interface {
	FindByKey(ctx context.Context, key string) (*models.Setting, error)
	List(ctx context.Context) ([]models.Setting, error)
	ListByGroup(ctx context.Context, group string) ([]models.Setting, error)
	FindByKeys(ctx context.Context, keys []string) ([]models.Setting, error)
	Upsert(ctx context.Context, record *models.Setting) (*models.Setting, error)
}

// publicCache holds the flattened public settings map between requests.
type publicCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	PublicSettingsKey() string
}

// Service exposes the settings key-value store.
type Service interface {
	Get(ctx context.Context, key string) (SettingDTO, error)
	List(ctx context.Context) ([]SettingDTO, error)
	ListByGroup(ctx context.Context, group string) ([]SettingDTO, error)
	Upsert(ctx context.Context, input UpsertInput) (SettingDTO, error)
	BulkUpsert(ctx context.Context, inputs []UpsertInput) ([]BulkUpsertResult, error)
	GetPublic(ctx context.Context) (map[string]string, error)
}

// ServiceParams groups dependencies for the settings service.
type ServiceParams struct {
	Repo           SettingsRepository
	Cache          publicCache
	Logger         *logger.Logger
	PublicCacheTTL time.Duration
}

type service struct {
	repo     SettingsRepository
	cache    publicCache
	logg     *logger.Logger
	cacheTTL time.Duration
}

// NewService builds a settings service with the required dependencies.
// Cache is optional; without it GetPublic always hits the store.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "settings repo is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	if params.PublicCacheTTL <= 0 {
		params.PublicCacheTTL = time.Minute
	}
	return &service{
		repo:     params.Repo,
		cache:    params.Cache,
		logg:     params.Logger,
		cacheTTL: params.PublicCacheTTL,
	}, nil
}

// Get returns one setting by key.
func (s *service) Get(ctx context.Context, key string) (SettingDTO, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return SettingDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "setting key is required")
	}

	record, err := s.repo.FindByKey(ctx, key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return SettingDTO{}, pkgerrors.New(pkgerrors.CodeNotFound, "setting not found")
		}
		return SettingDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load setting")
	}
	return toSettingDTO(record), nil
}

// List returns every setting.
func (s *service) List(ctx context.Context) ([]SettingDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list settings")
	}
	return toSettingDTOs(rows), nil
}

// ListByGroup returns the settings in one group.
func (s *service) ListByGroup(ctx context.Context, group string) ([]SettingDTO, error) {
	group = strings.TrimSpace(group)
	if group == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "settings group is required")
	}

	rows, err := s.repo.ListByGroup(ctx, group)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list settings by group")
	}
	return toSettingDTOs(rows), nil
}

// Upsert creates the key on first write and updates only the value after
// that. A public key write also drops the cached public map.
func (s *service) Upsert(ctx context.Context, input UpsertInput) (SettingDTO, error) {
	record, err := s.buildRecord(input)
	if err != nil {
		return SettingDTO{}, err
	}

	saved, err := s.repo.Upsert(ctx, record)
	if err != nil {
		return SettingDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert setting")
	}

	if isPublicKey(saved.Key) {
		s.invalidatePublicCache(ctx)
	}
	return toSettingDTO(saved), nil
}

// BulkUpsert applies each entry in order, continuing past failures. The
// per-entry outcomes come back alongside the combined error, so a mid-batch
// failure reports exactly which keys were written.
func (s *service) BulkUpsert(ctx context.Context, inputs []UpsertInput) ([]BulkUpsertResult, error) {
	if len(inputs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one setting is required")
	}

	var combined error
	results := make([]BulkUpsertResult, 0, len(inputs))
	touchedPublic := false

	for _, input := range inputs {
		result := BulkUpsertResult{Key: input.Key}

		record, err := s.buildRecord(input)
		if err == nil {
			var saved *models.Setting
			saved, err = s.repo.Upsert(ctx, record)
			if err == nil {
				dto := toSettingDTO(saved)
				result.Setting = &dto
				if isPublicKey(saved.Key) {
					touchedPublic = true
				}
			}
		}
		if err != nil {
			message := err.Error()
			result.Error = &message
			combined = multierr.Append(combined, err)
		}

		results = append(results, result)
	}

	if touchedPublic {
		s.invalidatePublicCache(ctx)
	}
	return results, combined
}

// GetPublic returns the allow-listed settings flattened to key/value pairs.
// Absent keys are omitted, not defaulted. The map is cached briefly.
func (s *service) GetPublic(ctx context.Context) (map[string]string, error) {
	if cached := s.readPublicCache(ctx); cached != nil {
		return cached, nil
	}

	rows, err := s.repo.FindByKeys(ctx, publicKeys)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load public settings")
	}

	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Value
	}

	s.writePublicCache(ctx, out)
	return out, nil
}

func (s *service) buildRecord(input UpsertInput) (*models.Setting, error) {
	key := strings.TrimSpace(input.Key)
	if key == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "setting key is required")
	}

	record := &models.Setting{
		Key:   key,
		Value: input.Value,
		Type:  enums.SettingTypeString,
		Group: defaultGroup,
	}
	if input.Type != nil {
		parsed, err := enums.ParseSettingType(*input.Type)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid setting type")
		}
		record.Type = parsed
	}
	if input.Group != nil && strings.TrimSpace(*input.Group) != "" {
		record.Group = strings.TrimSpace(*input.Group)
	}
	return record, nil
}

func (s *service) readPublicCache(ctx context.Context) map[string]string {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, s.cache.PublicSettingsKey())
	if err != nil || raw == "" {
		return nil
	}
	var out map[string]string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		s.logg.Warn(ctx, "corrupt public settings cache entry")
		return nil
	}
	return out
}

func (s *service) writePublicCache(ctx context.Context, value map[string]string) {
	if s.cache == nil {
		return
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, s.cache.PublicSettingsKey(), string(encoded), s.cacheTTL); err != nil {
		s.logg.Warn(ctx, "caching public settings failed")
	}
}

func (s *service) invalidatePublicCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, s.cache.PublicSettingsKey()); err != nil {
		s.logg.Warn(ctx, "invalidating public settings cache failed")
	}
}

func isPublicKey(key string) bool {
	for _, candidate := range publicKeys {
		if candidate == key {
			return true
		}
	}
	return false
}

func toSettingDTOs(rows []models.Setting) []SettingDTO {
	out := make([]SettingDTO, 0, len(rows))
	for i := range rows {
		out = append(out, toSettingDTO(&rows[i]))
	}
	return out
}
