package settings

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/mgastelum/storefront-backend/pkg/db/models"
	"github.com/mgastelum/storefront-backend/pkg/enums"
	pkgerrors "github.com/mgastelum/storefront-backend/pkg/errors"
	"github.com/mgastelum/storefront-backend/pkg/logger"
)

func TestUpsertCreatesWithDefaults(t *testing.T) {
	t.Parallel()

	repo := newMemSettings()
	svc := newTestService(t, repo, nil)

	got, err := svc.Upsert(context.Background(), UpsertInput{Key: "new_key", Value: "v1"})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if got.Value != "v1" || got.Type != enums.SettingTypeString || got.Group != "general" {
		t.Fatalf("unexpected defaults: %+v", got)
	}

	read, err := svc.Get(context.Background(), "new_key")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if read.Value != "v1" {
		t.Fatalf("expected v1, got %q", read.Value)
	}
}

func TestUpsertExistingKeyKeepsTypeAndGroup(t *testing.T) {
	t.Parallel()

	repo := newMemSettings()
	svc := newTestService(t, repo, nil)

	theme := "theme"
	typ := "json"
	if _, err := svc.Upsert(context.Background(), UpsertInput{Key: "layout", Value: "{}", Type: &typ, Group: &theme}); err != nil {
		t.Fatalf("seed upsert: %v", err)
	}

	other := "string"
	misc := "misc"
	got, err := svc.Upsert(context.Background(), UpsertInput{Key: "layout", Value: `{"v":2}`, Type: &other, Group: &misc})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if got.Value != `{"v":2}` {
		t.Fatalf("value not updated: %+v", got)
	}
	if got.Type != enums.SettingTypeJSON || got.Group != "theme" {
		t.Fatalf("type/group should survive updates, got %+v", got)
	}
}

func TestUpsertRejectsUnknownType(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newMemSettings(), nil)

	bad := "decimal"
	_, err := svc.Upsert(context.Background(), UpsertInput{Key: "k", Value: "v", Type: &bad})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGetUnknownKeyNotFound(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newMemSettings(), nil)

	_, err := svc.Get(context.Background(), "missing")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestBulkUpsertContinuesPastFailures(t *testing.T) {
	t.Parallel()

	repo := newMemSettings()
	repo.failKeys["broken"] = errors.New("disk on fire")
	svc := newTestService(t, repo, nil)

	results, err := svc.BulkUpsert(context.Background(), []UpsertInput{
		{Key: "first", Value: "1"},
		{Key: "broken", Value: "2"},
		{Key: "third", Value: "3"},
	})
	if err == nil {
		t.Fatal("expected combined error from failing entry")
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Error != nil || results[2].Error != nil {
		t.Fatalf("surrounding entries should succeed: %+v", results)
	}
	if results[1].Error == nil {
		t.Fatalf("failing entry should report its error: %+v", results[1])
	}

	// earlier and later writes stick despite the mid-batch failure
	if _, err := svc.Get(context.Background(), "first"); err != nil {
		t.Fatalf("first should exist: %v", err)
	}
	if _, err := svc.Get(context.Background(), "third"); err != nil {
		t.Fatalf("third should exist: %v", err)
	}
}

func TestGetPublicOnlyReturnsAllowListed(t *testing.T) {
	t.Parallel()

	repo := newMemSettings()
	svc := newTestService(t, repo, nil)

	seed := []UpsertInput{
		{Key: "store_name", Value: "Acme"},
		{Key: "smtp_password", Value: "hunter2"},
		{Key: "maintenance_mode", Value: "false"},
	}
	if _, err := svc.BulkUpsert(context.Background(), seed); err != nil {
		t.Fatalf("seed: %v", err)
	}

	got, err := svc.GetPublic(context.Background())
	if err != nil {
		t.Fatalf("get public: %v", err)
	}
	if got["store_name"] != "Acme" || got["maintenance_mode"] != "false" {
		t.Fatalf("expected allow-listed values, got %v", got)
	}
	if _, leaked := got["smtp_password"]; leaked {
		t.Fatal("non-public key leaked through the allow-list")
	}
	// absent allow-listed keys are omitted, not defaulted
	if _, present := got["support_email"]; present {
		t.Fatal("absent key should be omitted")
	}
}

func TestGetPublicUsesCache(t *testing.T) {
	t.Parallel()

	repo := newMemSettings()
	cache := newStubCache()
	svc := newTestService(t, repo, cache)

	if _, err := svc.Upsert(context.Background(), UpsertInput{Key: "store_name", Value: "Acme"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := svc.GetPublic(context.Background()); err != nil {
		t.Fatalf("first read: %v", err)
	}
	reads := repo.findByKeysCalls

	if _, err := svc.GetPublic(context.Background()); err != nil {
		t.Fatalf("second read: %v", err)
	}
	if repo.findByKeysCalls != reads {
		t.Fatalf("second read should come from cache, store hit %d times", repo.findByKeysCalls)
	}

	// a public write drops the cache
	if _, err := svc.Upsert(context.Background(), UpsertInput{Key: "store_name", Value: "Acme 2"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := svc.GetPublic(context.Background())
	if err != nil {
		t.Fatalf("read after invalidation: %v", err)
	}
	if got["store_name"] != "Acme 2" {
		t.Fatalf("expected fresh value after invalidation, got %v", got)
	}
}

func TestListByGroup(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newMemSettings(), nil)

	checkout := "checkout"
	seed := []UpsertInput{
		{Key: "a", Value: "1", Group: &checkout},
		{Key: "b", Value: "2"},
	}
	if _, err := svc.BulkUpsert(context.Background(), seed); err != nil {
		t.Fatalf("seed: %v", err)
	}

	rows, err := svc.ListByGroup(context.Background(), "checkout")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 || rows[0].Key != "a" {
		t.Fatalf("expected only checkout settings, got %+v", rows)
	}
}

func newTestService(t *testing.T, repo SettingsRepository, cache publicCache) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:           repo,
		Cache:          cache,
		Logger:         logger.New(logger.Options{ServiceName: "settings-test", Level: zerolog.ErrorLevel}),
		PublicCacheTTL: time.Minute,
	})
	if err != nil {
		t.Fatalf("building service: %v", err)
	}
	return svc
}

type memSettings struct {
	rows            map[string]*models.Setting
	failKeys        map[string]error
	findByKeysCalls int
}

func newMemSettings() *memSettings {
	return &memSettings{
		rows:     map[string]*models.Setting{},
		failKeys: map[string]error{},
	}
}

func (m *memSettings) FindByKey(ctx context.Context, key string) (*models.Setting, error) {
	row, ok := m.rows[key]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *row
	return &copied, nil
}

func (m *memSettings) List(ctx context.Context) ([]models.Setting, error) {
	var out []models.Setting
	for _, row := range m.rows {
		out = append(out, *row)
	}
	return out, nil
}

func (m *memSettings) ListByGroup(ctx context.Context, group string) ([]models.Setting, error) {
	var out []models.Setting
	for _, row := range m.rows {
		if row.Group == group {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (m *memSettings) FindByKeys(ctx context.Context, keys []string) ([]models.Setting, error) {
	m.findByKeysCalls++
	var out []models.Setting
	for _, key := range keys {
		if row, ok := m.rows[key]; ok {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (m *memSettings) Upsert(ctx context.Context, record *models.Setting) (*models.Setting, error) {
	if err, ok := m.failKeys[record.Key]; ok {
		return nil, err
	}
	if existing, ok := m.rows[record.Key]; ok {
		existing.Value = record.Value
		copied := *existing
		return &copied, nil
	}
	copied := *record
	m.rows[record.Key] = &copied
	result := copied
	return &result, nil
}

type stubCache struct {
	values map[string]string
}

func newStubCache() *stubCache {
	return &stubCache{values: map[string]string{}}
}

func (c *stubCache) Get(ctx context.Context, key string) (string, error) {
	value, ok := c.values[key]
	if !ok {
		return "", errors.New("cache miss")
	}
	return value, nil
}

func (c *stubCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	encoded, ok := value.(string)
	if !ok {
		raw, err := json.Marshal(value)
		if err != nil {
			return err
		}
		encoded = string(raw)
	}
	c.values[key] = encoded
	return nil
}

func (c *stubCache) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(c.values, key)
	}
	return nil
}

func (c *stubCache) PublicSettingsKey() string {
	return "sf:settings:public"
}
