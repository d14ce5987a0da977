package controllers

import (
	"net/http"
	"strings"

	"github.com/mgastelum/storefront-backend/api/responses"
	"github.com/mgastelum/storefront-backend/api/validators"
	bannersvc "github.com/mgastelum/storefront-backend/internal/banners"
	pkgerrors "github.com/mgastelum/storefront-backend/pkg/errors"
	"github.com/mgastelum/storefront-backend/pkg/logger"
)

// LiveBanners serves the banners currently inside their display window for a
// placement.
func LiveBanners(svc bannersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "banner service unavailable"))
			return
		}

		placement := strings.TrimSpace(r.URL.Query().Get("placement"))
		if placement == "" {
			placement = "hero"
		}

		records, err := svc.ListLive(r.Context(), placement)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, records)
	}
}

// AdminListBanners serves every banner regardless of window or active flag.
func AdminListBanners(svc bannersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "banner service unavailable"))
			return
		}

		records, err := svc.ListAll(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, records)
	}
}

// AdminCreateBanner adds a promotional banner.
func AdminCreateBanner(svc bannersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "banner service unavailable"))
			return
		}

		var payload bannersvc.BannerInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.Create(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, record)
	}
}

// AdminUpdateBanner replaces a banner's editable fields.
func AdminUpdateBanner(svc bannersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "banner service unavailable"))
			return
		}

		id, err := pathUUID(r, "bannerID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload bannersvc.BannerInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.Update(r.Context(), id, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, record)
	}
}

// AdminDeleteBanner removes a banner.
func AdminDeleteBanner(svc bannersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "banner service unavailable"))
			return
		}

		id, err := pathUUID(r, "bannerID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
