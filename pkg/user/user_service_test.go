package user

import (
	"Foodgram-Backend/domain"
	"Foodgram-Backend/entities"
	"Foodgram-Backend/pkg/jwt"
	"Foodgram-Backend/pkg/subscription"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:usersvc_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if err := db.AutoMigrate(
		&entities.User{},
		&entities.Ingredient{},
		&entities.Recipe{},
		&entities.RecipeIngredient{},
		&entities.Subscription{},
	); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

type stubStorage struct {
	deleted []string
}

func (s *stubStorage) UploadFile(string, *multipart.FileHeader, string, ...string) (string, error) {
	return "stub/object", nil
}

func (s *stubStorage) UploadBase64Image(string, string) (string, error) {
	return "users/images/stub.png", nil
}

func (s *stubStorage) DeleteFile(objectKey string) error {
	s.deleted = append(s.deleted, objectKey)
	return nil
}

func (s *stubStorage) GetPublicLinkKey(objectKey string) string {
	return "https://cdn.test/" + objectKey
}

func (s *stubStorage) GetObjectKeyFromLink(link string) string {
	return strings.TrimPrefix(link, "https://cdn.test/")
}

func newTestService(db *gorm.DB) UserService {
	return NewUserService(
		NewUserRepository(db),
		subscription.NewSubscriptionRepository(db),
		jwt.NewJWTService(),
		&stubStorage{},
	)
}

func registerReq(username string) domain.RegisterRequest {
	return domain.RegisterRequest{
		Email:     username + "@example.com",
		Username:  username,
		FirstName: "Test",
		LastName:  "User",
		Password:  "supersecret",
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(db)

	if _, err := svc.Register(context.Background(), registerReq("alice")); err != nil {
		t.Fatalf("register: %v", err)
	}

	dup := registerReq("alice2")
	dup.Email = "alice@example.com"
	if _, err := svc.Register(context.Background(), dup); !errors.Is(err, domain.ErrEmailAlreadyExists) {
		t.Fatalf("expected ErrEmailAlreadyExists, got %v", err)
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(db)

	if _, err := svc.Register(context.Background(), registerReq("alice")); err != nil {
		t.Fatalf("register: %v", err)
	}

	dup := registerReq("alice")
	dup.Email = "other@example.com"
	if _, err := svc.Register(context.Background(), dup); !errors.Is(err, domain.ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(db)

	if _, err := svc.Register(context.Background(), registerReq("alice")); err != nil {
		t.Fatalf("register: %v", err)
	}

	res, err := svc.Login(context.Background(), domain.LoginRequest{
		Email:    "alice@example.com",
		Password: "supersecret",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.Token == "" {
		t.Fatal("expected a token on successful login")
	}
	if res.User.Username != "alice" {
		t.Fatalf("unexpected user projection: %+v", res.User)
	}

	_, err = svc.Login(context.Background(), domain.LoginRequest{
		Email:    "alice@example.com",
		Password: "wrongpassword",
	})
	if !errors.Is(err, domain.ErrCredentialsInvalid) {
		t.Fatalf("expected ErrCredentialsInvalid, got %v", err)
	}

	_, err = svc.Login(context.Background(), domain.LoginRequest{
		Email:    "nobody@example.com",
		Password: "supersecret",
	})
	if !errors.Is(err, domain.ErrCredentialsInvalid) {
		t.Fatalf("expected ErrCredentialsInvalid for unknown email, got %v", err)
	}
}

func TestGetProfile_ViewerRelativeSubscription(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(db)
	subSvc := subscription.NewSubscriptionService(subscription.NewSubscriptionRepository(db))

	alice, err := svc.Register(context.Background(), registerReq("alice"))
	if err != nil {
		t.Fatalf("register alice: %v", err)
	}
	bob, err := svc.Register(context.Background(), registerReq("bob"))
	if err != nil {
		t.Fatalf("register bob: %v", err)
	}

	if _, err := subSvc.Subscribe(context.Background(), bob.ID, alice.ID, ""); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	asAlice, err := svc.GetProfile(context.Background(), bob.ID, alice.ID)
	if err != nil {
		t.Fatalf("get profile as alice: %v", err)
	}
	if !asAlice.IsSubscribed {
		t.Fatal("alice follows bob, is_subscribed must be true")
	}

	asGuest, err := svc.GetProfile(context.Background(), bob.ID, "")
	if err != nil {
		t.Fatalf("get profile as guest: %v", err)
	}
	if asGuest.IsSubscribed {
		t.Fatal("anonymous viewer must see is_subscribed false")
	}

	if _, err := svc.GetProfile(context.Background(), uuid.NewString(), ""); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUpdateUser_UsernameTaken(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(db)

	alice, err := svc.Register(context.Background(), registerReq("alice"))
	if err != nil {
		t.Fatalf("register alice: %v", err)
	}
	if _, err := svc.Register(context.Background(), registerReq("bob")); err != nil {
		t.Fatalf("register bob: %v", err)
	}

	_, err = svc.UpdateUser(context.Background(), domain.UpdateUserRequest{Username: "bob"}, alice.ID)
	if !errors.Is(err, domain.ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}

	res, err := svc.UpdateUser(context.Background(), domain.UpdateUserRequest{FirstName: "Alicia"}, alice.ID)
	if err != nil {
		t.Fatalf("update user: %v", err)
	}
	if res.FirstName != "Alicia" || res.Username != "alice" {
		t.Fatalf("unexpected projection after update: %+v", res)
	}
}

func TestAvatarLifecycle(t *testing.T) {
	db := newTestDB(t)
	storage := &stubStorage{}
	svc := NewUserService(
		NewUserRepository(db),
		subscription.NewSubscriptionRepository(db),
		jwt.NewJWTService(),
		storage,
	)

	alice, err := svc.Register(context.Background(), registerReq("alice"))
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	res, err := svc.UpdateAvatar(context.Background(), domain.UpdateAvatarRequest{
		Avatar: "data:image/png;base64,aGVsbG8=",
	}, alice.ID)
	if err != nil {
		t.Fatalf("update avatar: %v", err)
	}
	if res.AvatarURL != "https://cdn.test/users/images/stub.png" {
		t.Fatalf("unexpected avatar url %q", res.AvatarURL)
	}

	if err := svc.DeleteAvatar(context.Background(), alice.ID); err != nil {
		t.Fatalf("delete avatar: %v", err)
	}
	if len(storage.deleted) != 1 || storage.deleted[0] != "users/images/stub.png" {
		t.Fatalf("expected stored object to be deleted, got %v", storage.deleted)
	}

	profile, err := svc.GetProfile(context.Background(), alice.ID, alice.ID)
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if profile.AvatarURL != "" {
		t.Fatalf("avatar should be cleared, got %q", profile.AvatarURL)
	}
}

func TestResetPassword_Roundtrip(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(db)
	jwtService := jwt.NewJWTService()

	alice, err := svc.Register(context.Background(), registerReq("alice"))
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	token, err := jwtService.GenerateTokenResetPassword(
		map[string]any{"user_id": alice.ID},
		jwt.ResetTokenDuration,
	)
	if err != nil {
		t.Fatalf("generate reset token: %v", err)
	}

	if err := svc.ResetPassword(context.Background(), domain.ResetPasswordRequest{
		Token:    token,
		Password: "newsecret123",
	}); err != nil {
		t.Fatalf("reset password: %v", err)
	}

	if _, err := svc.Login(context.Background(), domain.LoginRequest{
		Email:    "alice@example.com",
		Password: "supersecret",
	}); !errors.Is(err, domain.ErrCredentialsInvalid) {
		t.Fatalf("old password must stop working, got %v", err)
	}

	if _, err := svc.Login(context.Background(), domain.LoginRequest{
		Email:    "alice@example.com",
		Password: "newsecret123",
	}); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}
