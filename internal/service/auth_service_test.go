package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go-invoice-ws/internal/model"
	"go-invoice-ws/pkg/jwt"

	"github.com/google/uuid"
)

func newUser(t *testing.T, email, password string) *model.User {
	t.Helper()
	u := &model.User{Email: email, FullName: "Owner", IsActive: true, Privileges: []model.Privilege{{Code: model.PrivInvoiceCreate}}}
	u.ID = uuid.New()
	if err := u.SetPassword(password); err != nil {
		t.Fatal(err)
	}
	return u
}

func TestLoginAndValidate(t *testing.T) {
	jwt.Configure("service-test-secret", time.Hour)
	user := newUser(t, "owner@example.com", "s3cret!")
	repo := newFakeUserRepo(user)
	svc := NewAuthService(repo, &recordingPublisher{}, 30*time.Minute)
	ctx := context.Background()

	if _, err := svc.Login(ctx, "owner@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password error = %v", err)
	}
	if _, err := svc.Login(ctx, "nobody@example.com", "s3cret!"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email error = %v", err)
	}

	resp, err := svc.Login(ctx, "owner@example.com", "s3cret!")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if len(resp.Privileges) != 1 || resp.Privileges[0] != model.PrivInvoiceCreate {
		t.Errorf("Privileges = %v", resp.Privileges)
	}

	v, err := svc.ValidateToken(ctx, resp.Token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if v.User.Email != "owner@example.com" {
		t.Errorf("User = %+v", v.User)
	}

	// A second login replaces the first session
	if _, err := svc.Login(ctx, "owner@example.com", "s3cret!"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ValidateToken(ctx, resp.Token); !errors.Is(err, ErrSessionReplaced) {
		t.Errorf("old token error = %v, want ErrSessionReplaced", err)
	}
}

func TestValidateTokenIdleTimeout(t *testing.T) {
	jwt.Configure("service-test-secret", time.Hour)
	user := newUser(t, "idle@example.com", "s3cret!")
	repo := newFakeUserRepo(user)
	svc := NewAuthService(repo, &recordingPublisher{}, time.Minute)
	ctx := context.Background()

	resp, err := svc.Login(ctx, "idle@example.com", "s3cret!")
	if err != nil {
		t.Fatal(err)
	}

	stale := time.Now().Add(-2 * time.Minute)
	_ = repo.with(user.ID, func(u *model.User) { u.LastSeenAt = &stale })
	if _, err := svc.ValidateToken(ctx, resp.Token); !errors.Is(err, ErrSessionTimeout) {
		t.Errorf("idle token error = %v, want ErrSessionTimeout", err)
	}

	if err := svc.Heartbeat(ctx, user.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ValidateToken(ctx, resp.Token); err != nil {
		t.Errorf("token after heartbeat error = %v", err)
	}
}

func TestInactiveUserCannotLogin(t *testing.T) {
	user := newUser(t, "gone@example.com", "s3cret!")
	user.IsActive = false
	svc := NewAuthService(newFakeUserRepo(user), nil, 0)

	if _, err := svc.Login(context.Background(), "gone@example.com", "s3cret!"); !errors.Is(err, ErrUserInactive) {
		t.Errorf("Login() error = %v, want ErrUserInactive", err)
	}
}

func TestChangeAndResetPassword(t *testing.T) {
	user := newUser(t, "owner@example.com", "old-pass")
	repo := newFakeUserRepo(user)
	svc := NewAuthService(repo, nil, 0)
	ctx := context.Background()

	if err := svc.ChangePassword(ctx, user.ID, "nope", "new-pass"); !errors.Is(err, ErrWrongPassword) {
		t.Errorf("wrong old password error = %v", err)
	}
	if err := svc.ChangePassword(ctx, user.ID, "old-pass", "abc"); !errors.Is(err, ErrValidation) {
		t.Errorf("short password error = %v", err)
	}
	if err := svc.ChangePassword(ctx, user.ID, "old-pass", "new-pass"); err != nil {
		t.Fatal(err)
	}

	if err := svc.ResetPassword(ctx, "owner@example.com", "reset-pass"); err != nil {
		t.Fatal(err)
	}
	stored, _ := repo.FindByID(ctx, user.ID)
	if !stored.CheckPassword("reset-pass") {
		t.Error("reset password not stored")
	}
	if stored.TokenVersion == "" {
		t.Error("sessions were not invalidated")
	}
	if err := svc.ResetPassword(ctx, "ghost@example.com", "whatever"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("unknown email error = %v", err)
	}
}

func TestProfileAndBootstrap(t *testing.T) {
	users := newFakeUserRepo()
	privileges := &fakePrivilegeRepo{}
	svc := NewUserService(users, privileges)
	ctx := context.Background()

	admin := BootstrapUser{Email: "admin@example.com", Password: "admin123", FullName: "Admin", Business: shop}
	created, err := svc.EnsureAdmin(ctx, admin)
	if err != nil || !created {
		t.Fatalf("EnsureAdmin() = %v, %v", created, err)
	}
	if created, _ := svc.EnsureAdmin(ctx, admin); created {
		t.Error("EnsureAdmin() created a second admin")
	}

	u, _ := users.FindByEmail(ctx, "admin@example.com")
	if len(u.Privileges) != len(model.DefaultPrivileges) {
		t.Errorf("admin has %d privileges", len(u.Privileges))
	}

	profile, err := svc.BusinessProfile(ctx, u.ID)
	if err != nil || profile != shop {
		t.Errorf("BusinessProfile() = %+v, %v", profile, err)
	}

	renamed := model.Party{Name: "Our Shop LLP", Address: shop.Address, TaxID: shop.TaxID, Contact: shop.Contact}
	name := "Administrator"
	resp, err := svc.UpdateProfile(ctx, u.ID, &UpdateProfileRequest{FullName: &name, Business: &renamed})
	if err != nil {
		t.Fatal(err)
	}
	if resp.FullName != "Administrator" || resp.Business != renamed {
		t.Errorf("UpdateProfile() = %+v", resp)
	}

	if _, err := svc.GetProfile(ctx, uuid.New()); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("unknown user error = %v", err)
	}
}
