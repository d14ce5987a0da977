package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mgastelum/storefront-backend/internal/cart"
	"github.com/mgastelum/storefront-backend/pkg/auth"
	"github.com/mgastelum/storefront-backend/pkg/auth/session"
	"github.com/mgastelum/storefront-backend/pkg/config"
	"github.com/mgastelum/storefront-backend/pkg/db"
	"github.com/mgastelum/storefront-backend/pkg/db/models"
	"github.com/mgastelum/storefront-backend/pkg/enums"
	pkgerrors "github.com/mgastelum/storefront-backend/pkg/errors"
	"github.com/mgastelum/storefront-backend/pkg/logger"
	"github.com/mgastelum/storefront-backend/pkg/security"
)

type userStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, record *models.User) (*models.User, error)
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

type cartMerger interface {
	MergeOnLogin(ctx context.Context, sessionID string, userID uuid.UUID) (cart.CartDTO, error)
}

// Service exposes account registration and the token lifecycle. Login folds
// an anonymous cart into the user's cart when the client sends its session id.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (SessionDTO, error)
	Login(ctx context.Context, input LoginInput, anonymousSessionID string) (SessionDTO, error)
	Refresh(ctx context.Context, accessToken, refreshToken string) (SessionDTO, error)
	Logout(ctx context.Context, accessID string) error
	Me(ctx context.Context, userID uuid.UUID) (UserDTO, error)
}

// ServiceParams groups dependencies for the auth service.
type ServiceParams struct {
	Users    userStore
	Sessions sessionManager
	Carts    cartMerger
	JWT      config.JWTConfig
	Password config.PasswordConfig
	Logger   *logger.Logger
	Now      func() time.Time
}

type service struct {
	users    userStore
	sessions sessionManager
	carts    cartMerger
	jwt      config.JWTConfig
	password config.PasswordConfig
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds an auth service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Users == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user store is required")
	}
	if params.Sessions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session manager is required")
	}
	if params.Carts == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart merger is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &service{
		users:    params.Users,
		sessions: params.Sessions,
		carts:    params.Carts,
		jwt:      params.JWT,
		password: params.Password,
		logg:     params.Logger,
		now:      params.Now,
	}, nil
}

// Register creates a customer account and signs it in.
func (s *service) Register(ctx context.Context, input RegisterInput) (SessionDTO, error) {
	hash, err := security.HashPassword(input.Password, s.password)
	if err != nil {
		return SessionDTO{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	record := &models.User{
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Role:         enums.MemberRoleCustomer,
	}

	created, err := s.users.Create(ctx, record)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return SessionDTO{}, pkgerrors.New(pkgerrors.CodeConflict, "an account with this email already exists")
		}
		return SessionDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}

	return s.mintSession(ctx, created)
}

// Login verifies credentials and, when the client carried an anonymous cart,
// merges it into the user's cart. A failed merge does not fail the login.
func (s *service) Login(ctx context.Context, input LoginInput, anonymousSessionID string) (SessionDTO, error) {
	record, err := s.users.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return SessionDTO{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")
		}
		return SessionDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	ok, err := security.VerifyPassword(input.Password, record.PasswordHash)
	if err != nil {
		return SessionDTO{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return SessionDTO{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")
	}

	if anonymousSessionID != "" {
		if _, err := s.carts.MergeOnLogin(ctx, anonymousSessionID, record.ID); err != nil {
			s.logg.Warn(s.logg.WithUserID(ctx, record.ID.String()), "cart merge on login failed")
		}
	}

	return s.mintSession(ctx, record)
}

// Refresh rotates a refresh token. The (possibly expired) access token is
// parsed only for its jti, which keys the stored session.
func (s *service) Refresh(ctx context.Context, accessToken, refreshToken string) (SessionDTO, error) {
	claims, err := auth.ParseAccessTokenAllowExpired(s.jwt, accessToken)
	if err != nil {
		return SessionDTO{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid access token")
	}

	newAccessID, newRefreshToken, err := s.sessions.Rotate(ctx, claims.ID, refreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return SessionDTO{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return SessionDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate session")
	}

	record, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return SessionDTO{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "account no longer exists")
		}
		return SessionDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	signed, err := auth.MintAccessToken(s.jwt, s.now(), auth.AccessTokenPayload{
		UserID: record.ID,
		Role:   record.Role,
		JTI:    newAccessID,
	})
	if err != nil {
		return SessionDTO{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}

	return SessionDTO{
		User:         toUserDTO(record),
		AccessToken:  signed,
		RefreshToken: newRefreshToken,
		ExpiresIn:    s.jwt.ExpirationMinutes * 60,
	}, nil
}

// Logout revokes the refresh session tied to the access token's jti.
func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "access id is required")
	}
	if err := s.sessions.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

// Me returns the authenticated account.
func (s *service) Me(ctx context.Context, userID uuid.UUID) (UserDTO, error) {
	if userID == uuid.Nil {
		return UserDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	record, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return UserDTO{}, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return UserDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return toUserDTO(record), nil
}

func (s *service) mintSession(ctx context.Context, record *models.User) (SessionDTO, error) {
	accessID := session.NewAccessID()

	signed, err := auth.MintAccessToken(s.jwt, s.now(), auth.AccessTokenPayload{
		UserID: record.ID,
		Role:   record.Role,
		JTI:    accessID,
	})
	if err != nil {
		return SessionDTO{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}

	refreshToken, err := s.sessions.Generate(ctx, accessID)
	if err != nil {
		return SessionDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store refresh session")
	}

	return SessionDTO{
		User:         toUserDTO(record),
		AccessToken:  signed,
		RefreshToken: refreshToken,
		ExpiresIn:    s.jwt.ExpirationMinutes * 60,
	}, nil
}
