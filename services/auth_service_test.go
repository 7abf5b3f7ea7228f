package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"

	"github.com/playverse/playverse-backend/models"
)

const testJWTSecret = "test-secret"

type authFixture struct {
	users *fakeUserRepo
	email *fakeEmailSender
	clock *clockwork.FakeClock
	svc   AuthService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	f := &authFixture{
		users: newFakeUserRepo(),
		email: &fakeEmailSender{},
		clock: clockwork.NewFakeClockAt(testBase),
	}
	f.svc = NewAuthService(f.users, f.email, []byte(testJWTSecret), time.Hour, "http://localhost:8080", f.clock, nil)
	return f
}

func (f *authFixture) register(t *testing.T) *models.User {
	t.Helper()
	user, err := f.svc.Register(context.Background(), RegisterInput{
		UserName: "gamer",
		FullName: "Test Gamer",
		Email:    "gamer@test.dev",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return user
}

func (f *authFixture) verificationToken(t *testing.T, userID int) string {
	t.Helper()
	f.users.mu.Lock()
	defer f.users.mu.Unlock()
	for token, v := range f.users.verifications {
		if v.UserID == userID {
			return token
		}
	}
	t.Fatal("no verification token issued")
	return ""
}

func (f *authFixture) resetToken(t *testing.T, userID int) string {
	t.Helper()
	f.users.mu.Lock()
	defer f.users.mu.Unlock()
	for token, pr := range f.users.resets {
		if pr.UserID == userID {
			return token
		}
	}
	t.Fatal("no reset token issued")
	return ""
}

func TestRegisterValidation(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, RegisterInput{Email: "a@test.dev", Password: "password123"})
	if !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("missing user name: got %v, want ErrValidationFailed", err)
	}

	_, err = f.svc.Register(ctx, RegisterInput{UserName: "a", Email: "a@test.dev", Password: "short"})
	if !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("short password: got %v, want ErrPasswordTooShort", err)
	}
}

func TestRegisterConflicts(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, RegisterInput{UserName: "other", Email: "gamer@test.dev", Password: "password123"})
	if !errors.Is(err, ErrUserEmailConflict) {
		t.Fatalf("email conflict: got %v, want ErrUserEmailConflict", err)
	}

	_, err = f.svc.Register(ctx, RegisterInput{UserName: "gamer", Email: "other@test.dev", Password: "password123"})
	if !errors.Is(err, ErrUserNameConflict) {
		t.Fatalf("user name conflict: got %v, want ErrUserNameConflict", err)
	}
}

func TestRegisterHidesPasswordHash(t *testing.T) {
	f := newAuthFixture(t)
	user := f.register(t)
	if user.PasswordHash != "" {
		t.Fatal("password hash leaked from Register")
	}
	if user.Role != models.RoleUser {
		t.Fatalf("role = %q, want %q", user.Role, models.RoleUser)
	}
}

func TestLogin(t *testing.T) {
	f := newAuthFixture(t)
	registered := f.register(t)
	ctx := context.Background()

	_, _, err := f.svc.Login(ctx, models.Credentials{Email: "gamer@test.dev", Password: "wrong-password"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: got %v, want ErrInvalidCredentials", err)
	}

	// Неизвестный email даёт ту же ошибку, что и неверный пароль.
	_, _, err = f.svc.Login(ctx, models.Credentials{Email: "ghost@test.dev", Password: "password123"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email: got %v, want ErrInvalidCredentials", err)
	}

	user, tokenString, err := f.svc.Login(ctx, models.Credentials{Email: "gamer@test.dev", Password: "password123"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.PasswordHash != "" {
		t.Fatal("password hash leaked from Login")
	}

	// exp выписан от фейковых часов, поэтому и проверяем их временем.
	parser := jwt.NewParser(jwt.WithTimeFunc(f.clock.Now))
	token, err := parser.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(testJWTSecret), nil
	})
	if err != nil || !token.Valid {
		t.Fatalf("issued token does not verify: %v", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		t.Fatalf("unexpected claims type %T", token.Claims)
	}
	if int(claims["user_id"].(float64)) != registered.ID {
		t.Fatalf("user_id claim = %v, want %d", claims["user_id"], registered.ID)
	}
	if claims["role"] != string(models.RoleUser) {
		t.Fatalf("role claim = %v, want %q", claims["role"], models.RoleUser)
	}
}

func TestConfirmEmail(t *testing.T) {
	f := newAuthFixture(t)
	user := f.register(t)
	ctx := context.Background()

	if err := f.svc.ConfirmEmail(ctx, "no-such-token"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("unknown token: got %v, want ErrTokenInvalid", err)
	}

	token := f.verificationToken(t, user.ID)
	if err := f.svc.ConfirmEmail(ctx, token); err != nil {
		t.Fatalf("ConfirmEmail: %v", err)
	}

	stored, err := f.users.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !stored.EmailVerified {
		t.Fatal("email not marked verified")
	}

	// Токен одноразовый.
	if err := f.svc.ConfirmEmail(ctx, token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("reused token: got %v, want ErrTokenInvalid", err)
	}
}

func TestConfirmEmailExpiredToken(t *testing.T) {
	f := newAuthFixture(t)
	user := f.register(t)
	token := f.verificationToken(t, user.ID)

	f.clock.Advance(verificationTokenTTL + time.Minute)
	err := f.svc.ConfirmEmail(context.Background(), token)
	if !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expired token: got %v, want ErrTokenInvalid", err)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	f := newAuthFixture(t)
	user := f.register(t)
	ctx := context.Background()

	// Неизвестный email не раскрывается.
	if err := f.svc.RequestPasswordReset(ctx, "ghost@test.dev"); err != nil {
		t.Fatalf("unknown email: %v", err)
	}

	if err := f.svc.RequestPasswordReset(ctx, "gamer@test.dev"); err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}
	token := f.resetToken(t, user.ID)

	if err := f.svc.ResetPassword(ctx, token, "short"); !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("short password: got %v, want ErrPasswordTooShort", err)
	}
	if err := f.svc.ResetPassword(ctx, token, "brand-new-password"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}

	if _, _, err := f.svc.Login(ctx, models.Credentials{Email: "gamer@test.dev", Password: "password123"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password still works: %v", err)
	}
	if _, _, err := f.svc.Login(ctx, models.Credentials{Email: "gamer@test.dev", Password: "brand-new-password"}); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}

	// Токен одноразовый.
	if err := f.svc.ResetPassword(ctx, token, "another-password"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("reused token: got %v, want ErrTokenInvalid", err)
	}
}

func TestPasswordResetExpiredToken(t *testing.T) {
	f := newAuthFixture(t)
	user := f.register(t)
	ctx := context.Background()

	if err := f.svc.RequestPasswordReset(ctx, "gamer@test.dev"); err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}
	token := f.resetToken(t, user.ID)

	f.clock.Advance(passwordResetTTL + time.Minute)
	if err := f.svc.ResetPassword(ctx, token, "brand-new-password"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expired token: got %v, want ErrTokenInvalid", err)
	}
}
