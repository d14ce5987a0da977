package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mgastelum/storefront-backend/api/responses"
	"github.com/mgastelum/storefront-backend/api/validators"
	settingsvc "github.com/mgastelum/storefront-backend/internal/settings"
	pkgerrors "github.com/mgastelum/storefront-backend/pkg/errors"
	"github.com/mgastelum/storefront-backend/pkg/logger"
)

// PublicSettings returns the allow-listed key/value map for the storefront.
// Keys with no stored value are omitted.
func PublicSettings(svc settingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settings service unavailable"))
			return
		}

		values, err := svc.GetPublic(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, values)
	}
}

// ListSettings returns every setting, optionally filtered by group.
func ListSettings(svc settingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settings service unavailable"))
			return
		}

		var (
			records []settingsvc.SettingDTO
			err     error
		)
		if group := r.URL.Query().Get("group"); group != "" {
			records, err = svc.ListByGroup(r.Context(), group)
		} else {
			records, err = svc.List(r.Context())
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, records)
	}
}

// ListSettingsGroup returns the settings in the group named in the path.
func ListSettingsGroup(svc settingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settings service unavailable"))
			return
		}

		group := chi.URLParam(r, "group")
		if group == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "settings group is required"))
			return
		}

		records, err := svc.ListByGroup(r.Context(), group)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, records)
	}
}

// GetSetting returns a single setting by key.
func GetSetting(svc settingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settings service unavailable"))
			return
		}

		key := chi.URLParam(r, "key")
		record, err := svc.Get(r.Context(), key)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, record)
	}
}

type upsertSettingRequest struct {
	Value string  `json:"value" validate:"required"`
	Type  *string `json:"type" validate:"omitempty,oneof=string number boolean json"`
	Group *string `json:"group"`
}

// UpsertSetting creates or updates the setting named in the path. Existing
// keys keep their type and group; only the value changes.
func UpsertSetting(svc settingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settings service unavailable"))
			return
		}

		key := chi.URLParam(r, "key")
		if key == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "setting key is required"))
			return
		}

		var payload upsertSettingRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.Upsert(r.Context(), settingsvc.UpsertInput{
			Key:   key,
			Value: payload.Value,
			Type:  payload.Type,
			Group: payload.Group,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, record)
	}
}

type bulkUpsertRequest struct {
	Settings []settingsvc.UpsertInput `json:"settings" validate:"required,min=1,dive"`
}

type bulkUpsertResponse struct {
	Results []settingsvc.BulkUpsertResult `json:"results"`
}

// BulkUpsertSettings applies a batch of writes sequentially. The batch is not
// atomic; each entry reports its own outcome and a failure does not roll back
// entries already written.
func BulkUpsertSettings(svc settingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settings service unavailable"))
			return
		}

		var payload bulkUpsertRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		results, err := svc.BulkUpsert(r.Context(), payload.Settings)
		if err != nil && len(results) == 0 {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status := http.StatusOK
		if err != nil {
			status = http.StatusMultiStatus
		}
		responses.WriteSuccessStatus(w, status, bulkUpsertResponse{Results: results})
	}
}
