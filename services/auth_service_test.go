package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riftarena/arena-system/models"
)

func newTestAuth(users *fakeUserRepo) AuthService {
	return NewAuthService(users, "test-secret", time.Hour, 500)
}

func TestRegisterAndLoginRoundtrip(t *testing.T) {
	users := newFakeUserRepo()
	auth := newTestAuth(users)
	ctx := context.Background()

	user, token, err := auth.Register(ctx, RegisterInput{
		Email:       "  Alice@Example.COM ",
		DisplayName: "Alice",
		Password:    "correct horse",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Errorf("email = %q, want normalized lowercase", user.Email)
	}
	if user.Points != 500 {
		t.Errorf("starting points = %d, want 500", user.Points)
	}
	if user.Role != models.RoleUser {
		t.Errorf("role = %s, want user", user.Role)
	}
	if user.PasswordHash != "" {
		t.Error("password hash leaked in response")
	}
	if token == "" {
		t.Fatal("no token issued on register")
	}

	logged, token, err := auth.Login(ctx, LoginInput{Email: "alice@example.com", Password: "correct horse"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if logged.ID != user.ID || token == "" {
		t.Errorf("login returned user %s, want %s", logged.ID, user.ID)
	}
}

func TestRegisterValidation(t *testing.T) {
	auth := newTestAuth(newFakeUserRepo())
	ctx := context.Background()

	cases := []struct {
		name  string
		input RegisterInput
		want  error
	}{
		{"no email", RegisterInput{DisplayName: "x", Password: "long enough"}, ErrValidation},
		{"bad email", RegisterInput{Email: "not-an-email", DisplayName: "x", Password: "long enough"}, ErrValidation},
		{"no display name", RegisterInput{Email: "a@b.c", Password: "long enough"}, ErrValidation},
		{"short password", RegisterInput{Email: "a@b.c", DisplayName: "x", Password: "short"}, ErrValidation},
	}
	for _, tc := range cases {
		if _, _, err := auth.Register(ctx, tc.input); !errors.Is(err, tc.want) {
			t.Errorf("%s: got %v, want %v", tc.name, err, tc.want)
		}
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	auth := newTestAuth(newFakeUserRepo())
	ctx := context.Background()

	input := RegisterInput{Email: "a@b.c", DisplayName: "first", Password: "long enough"}
	if _, _, err := auth.Register(ctx, input); err != nil {
		t.Fatalf("Register: %v", err)
	}

	input.DisplayName = "second"
	if _, _, err := auth.Register(ctx, input); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	auth := newTestAuth(newFakeUserRepo())
	ctx := context.Background()

	if _, _, err := auth.Register(ctx, RegisterInput{Email: "a@b.c", DisplayName: "x", Password: "long enough"}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, _, err := auth.Login(ctx, LoginInput{Email: "a@b.c", Password: "wrong password"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: got %v", err)
	}
	if _, _, err := auth.Login(ctx, LoginInput{Email: "nobody@b.c", Password: "long enough"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email: got %v", err)
	}
}

func TestParseTokenRoundtrip(t *testing.T) {
	auth := newTestAuth(newFakeUserRepo())

	user, token, err := auth.Register(context.Background(), RegisterInput{
		Email:       "a@b.c",
		DisplayName: "x",
		Password:    "long enough",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	actor, err := auth.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if actor.ID != user.ID || actor.Role != models.RoleUser {
		t.Errorf("actor = %+v, want id %s role user", actor, user.ID)
	}
}

func TestParseTokenRejectsForgeries(t *testing.T) {
	auth := newTestAuth(newFakeUserRepo())

	if _, err := auth.ParseToken("not.a.token"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("garbage token: got %v", err)
	}

	other := NewAuthService(newFakeUserRepo(), "different-secret", time.Hour, 500)
	_, token, err := other.Register(context.Background(), RegisterInput{
		Email:       "a@b.c",
		DisplayName: "x",
		Password:    "long enough",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := auth.ParseToken(token); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("token signed with other secret: got %v", err)
	}
}
