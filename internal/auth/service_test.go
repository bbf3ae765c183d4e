package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"backend-hikelog/internal/logbook"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pashagolub/pgxmock/v3"
	"golang.org/x/crypto/bcrypt"
)

var pgErr = errors.New("pg error")

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock
}

func TestRegisterAndLogin(t *testing.T) {
	mock := newMock(t)

	createdAt := time.Now().Add(-time.Minute)
	updatedAt := time.Now().Add(-time.Minute)

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs(pgxmock.AnyArg(), "hiker@example.com", "Hiker One", pgxmock.AnyArg(), "", pgxmock.AnyArg(), "", pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(createdAt, updatedAt))

	mock.ExpectExec(`INSERT INTO refresh_tokens`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	svc := NewService("test-secret", mock)
	acct, tokens, err := svc.Register(context.Background(), map[string]any{
		"email":       "Hiker@Example.com",
		"displayName": "Hiker One",
		"password":    "password123",
		"preferences": map[string]any{"units": "imperial"},
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if acct.ID == "" || tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatalf("expected account and tokens")
	}
	if acct.Preferences.Units != "imperial" || acct.Preferences.Privacy != "friends" {
		t.Fatalf("unexpected preferences: %+v", acct.Preferences)
	}
	if acct.Stats.TotalHikes != 0 || acct.Stats.Achievements == nil {
		t.Fatalf("expected zeroed stats")
	}

	mock.ExpectQuery(`SELECT id, email, display_name, password_hash, created_at, updated_at`).
		WithArgs("hiker@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"id", "email", "display_name", "password_hash", "created_at", "updated_at"}).
			AddRow(acct.ID, acct.Email, acct.DisplayName, acct.PasswordHash, createdAt, updatedAt))

	mock.ExpectExec(`INSERT INTO refresh_tokens`).
		WithArgs(pgxmock.AnyArg(), acct.ID, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	_, loginTokens, err := svc.Login(context.Background(), LoginRequest{Email: "hiker@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if loginTokens.AccessToken == "" || loginTokens.RefreshToken == "" {
		t.Fatalf("expected login tokens")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := NewService("test-secret", newMock(t))

	_, _, err := svc.Register(context.Background(), map[string]any{"email": "nope", "displayName": "", "password": "123"})
	var verr *logbook.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(verr.Errors) != 3 {
		t.Fatalf("expected 3 validation errors, got %v", verr.Errors)
	}

	payload := map[string]any{"email": "a@b.c", "displayName": "A"}
	_, _, err = svc.Register(context.Background(), payload)
	if !errors.As(err, &verr) {
		t.Fatalf("expected missing password to be rejected")
	}
	if _, added := payload["password"]; added || len(payload) != 2 {
		t.Fatalf("caller payload must not be modified, got %v", payload)
	}

	_, _, err = svc.Register(context.Background(), nil)
	if !errors.As(err, &verr) {
		t.Fatalf("expected nil payload to be rejected")
	}
}

func TestValidateRefreshToken(t *testing.T) {
	mock := newMock(t)

	mock.ExpectExec(`INSERT INTO refresh_tokens`).
		WithArgs(pgxmock.AnyArg(), "user-1", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	svc := NewService("test-secret", mock)
	tokens, err := svc.GenerateTokens(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("generate tokens: %v", err)
	}

	mock.ExpectQuery(`SELECT user_id, expires_at`).
		WithArgs(tokens.RefreshToken).
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "expires_at"}).AddRow("user-1", time.Now().Add(5*time.Minute)))

	userID, err := svc.ValidateRefreshToken(context.Background(), tokens.RefreshToken)
	if err != nil {
		t.Fatalf("validate refresh: %v", err)
	}
	if userID != "user-1" {
		t.Fatalf("unexpected user_id: %s", userID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestValidateRefreshTokenExpired(t *testing.T) {
	mock := newMock(t)
	svc := NewService("test-secret", mock)
	refresh, err := svc.signToken("user-1", refreshTokenTTL)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	mock.ExpectQuery(`SELECT user_id, expires_at`).
		WithArgs(refresh).
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "expires_at"}).AddRow("user-1", time.Now().Add(-time.Minute)))

	if _, err := svc.ValidateRefreshToken(context.Background(), refresh); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("expected ErrRefreshInvalid, got %v", err)
	}
}

func TestValidateAccessTokenWrongSecret(t *testing.T) {
	token, err := NewService("one", nil).signToken("user-1", accessTokenTTL)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if _, err := NewService("two", nil).ValidateAccessToken(token); err == nil {
		t.Fatalf("expected signature error")
	}
}

func TestLoginInvalidPassword(t *testing.T) {
	mock := newMock(t)

	hash, _ := bcrypt.GenerateFromPassword([]byte("correct"), bcrypt.DefaultCost)

	mock.ExpectQuery(`SELECT id, email, display_name, password_hash, created_at, updated_at`).
		WithArgs("hiker@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"id", "email", "display_name", "password_hash", "created_at", "updated_at"}).
			AddRow("user-1", "hiker@example.com", "Hiker", string(hash), time.Now(), time.Now()))

	svc := NewService("test-secret", mock)
	_, _, err := svc.Login(context.Background(), LoginRequest{Email: "hiker@example.com", Password: "wrong"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`SELECT id, email, display_name, password_hash`).
		WithArgs("ghost@example.com").
		WillReturnError(pgErr)

	_, _, err := NewService("test-secret", mock).Login(context.Background(), LoginRequest{Email: "ghost@example.com", Password: "whatever"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
}

func TestGenerateTokensSaveRefreshError(t *testing.T) {
	mock := newMock(t)

	mock.ExpectExec(`INSERT INTO refresh_tokens`).
		WithArgs(pgxmock.AnyArg(), "user-1", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(pgErr)

	svc := NewService("test-secret", mock)
	if _, err := svc.GenerateTokens(context.Background(), "user-1"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestGenerateTokensAccessSignError(t *testing.T) {
	oldSign := signTokenFn
	signTokenFn = func(_ *Service, _ string, _ time.Duration) (string, error) {
		return "", pgErr
	}
	defer func() { signTokenFn = oldSign }()

	svc := NewService("test-secret", nil)
	if _, err := svc.GenerateTokens(context.Background(), "user-1"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestGenerateTokensRefreshSignError(t *testing.T) {
	oldSign := signTokenFn
	call := 0
	signTokenFn = func(_ *Service, _ string, _ time.Duration) (string, error) {
		call++
		if call == 2 {
			return "", pgErr
		}
		return "token", nil
	}
	defer func() { signTokenFn = oldSign }()

	svc := NewService("test-secret", nil)
	if _, err := svc.GenerateTokens(context.Background(), "user-1"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestRegisterHashError(t *testing.T) {
	oldHash := hashPasswordFn
	hashPasswordFn = func(_ []byte, _ int) ([]byte, error) {
		return nil, pgErr
	}
	defer func() { hashPasswordFn = oldHash }()

	svc := NewService("test-secret", nil)
	_, _, err := svc.Register(context.Background(), map[string]any{
		"email": "hiker@example.com", "displayName": "Hiker", "password": "password123",
	})
	if !errors.Is(err, pgErr) {
		t.Fatalf("expected hash error, got %v", err)
	}
}

func TestParseTokenRejectsForeignClaims(t *testing.T) {
	svc := NewService("test-secret", nil)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": "user-1", "exp": time.Now().Add(-time.Hour).Unix()})
	signed, _ := token.SignedString([]byte("test-secret"))
	if _, err := svc.parseToken(signed); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}
