package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/mgastelum/storefront-backend/internal/cart"
	"github.com/mgastelum/storefront-backend/pkg/auth"
	"github.com/mgastelum/storefront-backend/pkg/auth/session"
	"github.com/mgastelum/storefront-backend/pkg/config"
	"github.com/mgastelum/storefront-backend/pkg/db/models"
	pkgerrors "github.com/mgastelum/storefront-backend/pkg/errors"
	"github.com/mgastelum/storefront-backend/pkg/logger"
)

func TestRegisterThenLogin(t *testing.T) {
	t.Parallel()

	deps := newTestDeps()
	svc := newTestAuthService(t, deps)

	got, err := svc.Register(context.Background(), RegisterInput{
		Email:     "Jordan@Example.com",
		Password:  "correct horse",
		FirstName: "Jordan",
		LastName:  "Reyes",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if got.User.Email != "jordan@example.com" {
		t.Fatalf("expected lowercased email, got %q", got.User.Email)
	}
	if got.AccessToken == "" || got.RefreshToken == "" {
		t.Fatal("expected token pair")
	}

	claims, err := auth.ParseAccessToken(deps.jwt, got.AccessToken)
	if err != nil {
		t.Fatalf("parsing minted token: %v", err)
	}
	if claims.UserID != got.User.ID {
		t.Fatalf("token uid mismatch")
	}

	logged, err := svc.Login(context.Background(), LoginInput{Email: "jordan@example.com", Password: "correct horse"}, "")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if logged.User.ID != got.User.ID {
		t.Fatal("login returned a different account")
	}
}

func TestLoginWrongPasswordUnauthorized(t *testing.T) {
	t.Parallel()

	deps := newTestDeps()
	svc := newTestAuthService(t, deps)

	if _, err := svc.Register(context.Background(), RegisterInput{
		Email: "a@b.com", Password: "correct horse", FirstName: "A", LastName: "B",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err := svc.Login(context.Background(), LoginInput{Email: "a@b.com", Password: "wrong"}, "")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLoginUnknownEmailUnauthorized(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t, newTestDeps())

	_, err := svc.Login(context.Background(), LoginInput{Email: "ghost@b.com", Password: "x"}, "")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLoginMergesAnonymousCart(t *testing.T) {
	t.Parallel()

	deps := newTestDeps()
	svc := newTestAuthService(t, deps)

	registered, err := svc.Register(context.Background(), RegisterInput{
		Email: "a@b.com", Password: "correct horse", FirstName: "A", LastName: "B",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Login(context.Background(), LoginInput{Email: "a@b.com", Password: "correct horse"}, "sess-42"); err != nil {
		t.Fatalf("login: %v", err)
	}

	if deps.carts.sessionID != "sess-42" || deps.carts.userID != registered.User.ID {
		t.Fatalf("expected merge with session cart, got %q / %s", deps.carts.sessionID, deps.carts.userID)
	}
}

func TestLoginSurvivesMergeFailure(t *testing.T) {
	t.Parallel()

	deps := newTestDeps()
	deps.carts.err = pkgerrors.New(pkgerrors.CodeDependency, "store down")
	svc := newTestAuthService(t, deps)

	if _, err := svc.Register(context.Background(), RegisterInput{
		Email: "a@b.com", Password: "correct horse", FirstName: "A", LastName: "B",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Login(context.Background(), LoginInput{Email: "a@b.com", Password: "correct horse"}, "sess-1"); err != nil {
		t.Fatalf("login should not fail on merge error: %v", err)
	}
}

func TestRefreshRotatesSession(t *testing.T) {
	t.Parallel()

	deps := newTestDeps()
	svc := newTestAuthService(t, deps)

	registered, err := svc.Register(context.Background(), RegisterInput{
		Email: "a@b.com", Password: "correct horse", FirstName: "A", LastName: "B",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	refreshed, err := svc.Refresh(context.Background(), registered.AccessToken, registered.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.RefreshToken == registered.RefreshToken {
		t.Fatal("refresh token should rotate")
	}

	// the old pair is burned
	_, err = svc.Refresh(context.Background(), registered.AccessToken, registered.RefreshToken)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized on replay, got %v", err)
	}
}

func TestRegisterDuplicateEmailConflict(t *testing.T) {
	t.Parallel()

	deps := newTestDeps()
	svc := newTestAuthService(t, deps)

	input := RegisterInput{Email: "a@b.com", Password: "correct horse", FirstName: "A", LastName: "B"}
	if _, err := svc.Register(context.Background(), input); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, err := svc.Register(context.Background(), input)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

type testDeps struct {
	users    *memUsers
	sessions *memSessions
	carts    *stubMerger
	jwt      config.JWTConfig
}

func newTestDeps() *testDeps {
	return &testDeps{
		users:    &memUsers{byEmail: map[string]*models.User{}},
		sessions: &memSessions{tokens: map[string]string{}},
		carts:    &stubMerger{},
		jwt: config.JWTConfig{
			Secret:            "test-secret",
			Issuer:            "storefront-test",
			ExpirationMinutes: 15,
		},
	}
}

func newTestAuthService(t *testing.T, deps *testDeps) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Users:    deps.users,
		Sessions: deps.sessions,
		Carts:    deps.carts,
		JWT:      deps.jwt,
		Password: config.PasswordConfig{ArgonMemoryKB: 8192, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32},
		Logger:   logger.New(logger.Options{ServiceName: "auth-test", Level: zerolog.ErrorLevel}),
		Now:      time.Now,
	})
	if err != nil {
		t.Fatalf("building service: %v", err)
	}
	return svc
}

type memUsers struct {
	byEmail map[string]*models.User
}

func (m *memUsers) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	for _, record := range m.byEmail {
		if record.ID == id {
			copied := *record
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	record, ok := m.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *record
	return &copied, nil
}

func (m *memUsers) Create(ctx context.Context, record *models.User) (*models.User, error) {
	key := strings.ToLower(record.Email)
	if _, exists := m.byEmail[key]; exists {
		return nil, &duplicateKeyError{}
	}
	record.ID = uuid.New()
	copied := *record
	m.byEmail[key] = &copied
	return record, nil
}

type duplicateKeyError struct{}

func (duplicateKeyError) Error() string {
	return `duplicate key value violates unique constraint "idx_users_email"`
}

type memSessions struct {
	tokens map[string]string
}

func (m *memSessions) Generate(ctx context.Context, accessID string) (string, error) {
	token := uuid.NewString()
	m.tokens[accessID] = token
	return token, nil
}

func (m *memSessions) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	stored, ok := m.tokens[oldAccessID]
	if !ok || stored != provided {
		return "", "", session.ErrInvalidRefreshToken
	}
	delete(m.tokens, oldAccessID)
	newID := uuid.NewString()
	newToken := uuid.NewString()
	m.tokens[newID] = newToken
	return newID, newToken, nil
}

func (m *memSessions) Revoke(ctx context.Context, accessID string) error {
	delete(m.tokens, accessID)
	return nil
}

type stubMerger struct {
	sessionID string
	userID    uuid.UUID
	err       error
}

func (s *stubMerger) MergeOnLogin(ctx context.Context, sessionID string, userID uuid.UUID) (cart.CartDTO, error) {
	if s.err != nil {
		return cart.CartDTO{}, s.err
	}
	s.sessionID = sessionID
	s.userID = userID
	return cart.CartDTO{}, nil
}
