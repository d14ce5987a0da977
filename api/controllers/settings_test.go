package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	settingsvc "github.com/mgastelum/storefront-backend/internal/settings"
	"github.com/mgastelum/storefront-backend/pkg/enums"
	pkgerrors "github.com/mgastelum/storefront-backend/pkg/errors"
)

type stubSettingsService struct {
	public  map[string]string
	setting settingsvc.SettingDTO
	list    []settingsvc.SettingDTO
	results []settingsvc.BulkUpsertResult
	err     error

	lastUpsert settingsvc.UpsertInput
	lastBatch  []settingsvc.UpsertInput
	lastGroup  string
}

func (s *stubSettingsService) Get(ctx context.Context, key string) (settingsvc.SettingDTO, error) {
	return s.setting, s.err
}

func (s *stubSettingsService) List(ctx context.Context) ([]settingsvc.SettingDTO, error) {
	return s.list, s.err
}

func (s *stubSettingsService) ListByGroup(ctx context.Context, group string) ([]settingsvc.SettingDTO, error) {
	s.lastGroup = group
	return s.list, s.err
}

func (s *stubSettingsService) Upsert(ctx context.Context, input settingsvc.UpsertInput) (settingsvc.SettingDTO, error) {
	s.lastUpsert = input
	return s.setting, s.err
}

func (s *stubSettingsService) BulkUpsert(ctx context.Context, inputs []settingsvc.UpsertInput) ([]settingsvc.BulkUpsertResult, error) {
	s.lastBatch = inputs
	return s.results, s.err
}

func (s *stubSettingsService) GetPublic(ctx context.Context) (map[string]string, error) {
	return s.public, s.err
}

func TestPublicSettingsReturnsMap(t *testing.T) {
	svc := &stubSettingsService{public: map[string]string{
		"store_name":     "Mercado General",
		"store_currency": "USD",
	}}
	handler := PublicSettings(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/settings/public", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data map[string]string `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data["store_name"] != "Mercado General" {
		t.Fatalf("unexpected store_name: %q", envelope.Data["store_name"])
	}
	if len(envelope.Data) != 2 {
		t.Fatalf("expected 2 keys, got %d", len(envelope.Data))
	}
}

func TestUpsertSettingTakesKeyFromPath(t *testing.T) {
	svc := &stubSettingsService{setting: settingsvc.SettingDTO{
		Key:       "store_name",
		Value:     "Nueva Tienda",
		Type:      enums.SettingTypeString,
		Group:     "general",
		UpdatedAt: time.Now(),
	}}

	req := httptest.NewRequest(http.MethodPatch, "/api/admin/v1/settings/store_name", strings.NewReader(`{"value":"Nueva Tienda"}`))
	req.Header.Set("Content-Type", "application/json")
	req = withURLParam(req, "key", "store_name")

	resp := httptest.NewRecorder()
	UpsertSetting(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastUpsert.Key != "store_name" {
		t.Fatalf("expected key from path, got %q", svc.lastUpsert.Key)
	}
	if svc.lastUpsert.Value != "Nueva Tienda" {
		t.Fatalf("unexpected value: %q", svc.lastUpsert.Value)
	}
}

func TestUpsertSettingRejectsEmptyValue(t *testing.T) {
	svc := &stubSettingsService{}

	req := httptest.NewRequest(http.MethodPatch, "/api/admin/v1/settings/store_name", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req = withURLParam(req, "key", "store_name")

	resp := httptest.NewRecorder()
	UpsertSetting(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestBulkUpsertSettingsReportsPartialFailure(t *testing.T) {
	broken := "value is required"
	svc := &stubSettingsService{
		results: []settingsvc.BulkUpsertResult{
			{Key: "store_name", Setting: &settingsvc.SettingDTO{Key: "store_name", Value: "ok"}},
			{Key: "broken", Error: &broken},
		},
		err: pkgerrors.New(pkgerrors.CodeValidation, "1 of 2 settings failed"),
	}

	body := `{"settings":[{"key":"store_name","value":"ok"},{"key":"broken","value":"x"}]}`
	req := httptest.NewRequest(http.MethodPatch, "/api/admin/v1/settings", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp := httptest.NewRecorder()
	BulkUpsertSettings(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusMultiStatus {
		t.Fatalf("expected 207 got %d", resp.Code)
	}
	if len(svc.lastBatch) != 2 {
		t.Fatalf("expected 2 inputs forwarded, got %d", len(svc.lastBatch))
	}

	var envelope struct {
		Data struct {
			Results []settingsvc.BulkUpsertResult `json:"results"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(envelope.Data.Results))
	}
	if envelope.Data.Results[1].Error == nil {
		t.Fatalf("expected second entry to carry an error")
	}
}

func TestListSettingsByGroup(t *testing.T) {
	svc := &stubSettingsService{list: []settingsvc.SettingDTO{{Key: "support_email", Group: "contact"}}}

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/settings?group=contact", nil)
	resp := httptest.NewRecorder()
	ListSettings(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastGroup != "contact" {
		t.Fatalf("expected group filter forwarded, got %q", svc.lastGroup)
	}
}

func TestGetSettingNotFound(t *testing.T) {
	svc := &stubSettingsService{err: pkgerrors.New(pkgerrors.CodeNotFound, "setting not found")}

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/settings/missing", nil)
	req = withURLParam(req, "key", "missing")

	resp := httptest.NewRecorder()
	GetSetting(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}
