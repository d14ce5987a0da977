package banners

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mgastelum/storefront-backend/pkg/db/models"
	"github.com/mgastelum/storefront-backend/pkg/enums"
	pkgerrors "github.com/mgastelum/storefront-backend/pkg/errors"
)

// BannerRepository abstracts banner persistence.
type BannerRepository interface {
	ListLive(ctx context.Context, placement enums.BannerPlacement, now time.Time) ([]models.Banner, error)
	ListAll(ctx context.Context) ([]models.Banner, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Banner, error)
	Create(ctx context.Context, record *models.Banner) (*models.Banner, error)
	Update(ctx context.Context, record *models.Banner) (*models.Banner, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service exposes live banner reads for the storefront and CRUD for the
// admin.
type Service interface {
	ListLive(ctx context.Context, placement string) ([]BannerDTO, error)
	ListAll(ctx context.Context) ([]BannerDTO, error)
	Create(ctx context.Context, input BannerInput) (BannerDTO, error)
	Update(ctx context.Context, id uuid.UUID, input BannerInput) (BannerDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ServiceParams groups dependencies for the banner service.
type ServiceParams struct {
	Repo BannerRepository
	Now  func() time.Time
}

type service struct {
	repo BannerRepository
	now  func() time.Time
}

// NewService builds a banner service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "banner repo is required")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &service{repo: params.Repo, now: params.Now}, nil
}

// ListLive returns the banners currently inside their display window.
func (s *service) ListLive(ctx context.Context, placement string) ([]BannerDTO, error) {
	parsed, err := enums.ParseBannerPlacement(strings.TrimSpace(placement))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid banner placement")
	}

	rows, err := s.repo.ListLive(ctx, parsed, s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list live banners")
	}
	return toBannerDTOs(rows), nil
}

// ListAll returns every banner regardless of window. Admin use.
func (s *service) ListAll(ctx context.Context) ([]BannerDTO, error) {
	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list banners")
	}
	return toBannerDTOs(rows), nil
}

// Create inserts a banner from the admin payload.
func (s *service) Create(ctx context.Context, input BannerInput) (BannerDTO, error) {
	record, err := buildBanner(&models.Banner{}, input)
	if err != nil {
		return BannerDTO{}, err
	}

	created, err := s.repo.Create(ctx, record)
	if err != nil {
		return BannerDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create banner")
	}
	return toBannerDTO(created), nil
}

// Update replaces a banner's fields.
func (s *service) Update(ctx context.Context, id uuid.UUID, input BannerInput) (BannerDTO, error) {
	record, err := s.findBanner(ctx, id)
	if err != nil {
		return BannerDTO{}, err
	}

	record, err = buildBanner(record, input)
	if err != nil {
		return BannerDTO{}, err
	}

	updated, err := s.repo.Update(ctx, record)
	if err != nil {
		return BannerDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update banner")
	}
	return toBannerDTO(updated), nil
}

// Delete removes a banner.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.findBanner(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete banner")
	}
	return nil
}

func (s *service) findBanner(ctx context.Context, id uuid.UUID) (*models.Banner, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "banner id is required")
	}
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "banner not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load banner")
	}
	return record, nil
}

func buildBanner(record *models.Banner, input BannerInput) (*models.Banner, error) {
	placement, err := enums.ParseBannerPlacement(strings.TrimSpace(input.Placement))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid banner placement")
	}
	if input.StartsAt != nil && input.EndsAt != nil && input.EndsAt.Before(*input.StartsAt) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "banner window ends before it starts")
	}

	record.Title = strings.TrimSpace(input.Title)
	record.ImageURL = strings.TrimSpace(input.ImageURL)
	record.TargetURL = input.TargetURL
	record.Placement = placement
	record.Position = input.Position
	record.IsActive = true
	if input.IsActive != nil {
		record.IsActive = *input.IsActive
	}
	record.StartsAt = input.StartsAt
	record.EndsAt = input.EndsAt
	return record, nil
}

func toBannerDTOs(rows []models.Banner) []BannerDTO {
	out := make([]BannerDTO, 0, len(rows))
	for i := range rows {
		out = append(out, toBannerDTO(&rows[i]))
	}
	return out
}
