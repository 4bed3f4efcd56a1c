package session

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/safar/go-storefront/internal/api"
	"github.com/safar/go-storefront/internal/logger"
	"github.com/safar/go-storefront/internal/models"
	"github.com/safar/go-storefront/internal/storage"
)

type fakeAuth struct {
	mu    sync.Mutex
	calls map[string]int

	loginRes    *models.AuthResult
	loginErr    error
	registerRes *models.AuthResult
	registerErr error
	logoutErr   error
	profile     *models.User
	profileErr  error
	updateRes   *models.User
	updateErr   error
	forgotErr   error
	resetErr    error
	otp         string

	lastReset [3]string
	lastPatch api.ProfilePatch
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{calls: make(map[string]int), otp: "123456"}
}

func (f *fakeAuth) record(name string) {
	f.mu.Lock()
	f.calls[name]++
	f.mu.Unlock()
}

func (f *fakeAuth) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeAuth) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeAuth) Login(ctx context.Context, email, password string) (*models.AuthResult, error) {
	f.record("login")
	return f.loginRes, f.loginErr
}

func (f *fakeAuth) Register(ctx context.Context, in api.RegisterRequest) (*models.AuthResult, error) {
	f.record("register")
	return f.registerRes, f.registerErr
}

func (f *fakeAuth) Logout(ctx context.Context, token string) error {
	f.record("logout")
	return f.logoutErr
}

func (f *fakeAuth) Profile(ctx context.Context, token string) (*models.User, error) {
	f.record("profile")
	return f.profile, f.profileErr
}

func (f *fakeAuth) UpdateProfile(ctx context.Context, token string, patch api.ProfilePatch) (*models.User, error) {
	f.record("update_profile")
	f.lastPatch = patch
	return f.updateRes, f.updateErr
}

func (f *fakeAuth) ForgotPassword(ctx context.Context, mobile string) error {
	f.record("forgot_password")
	return f.forgotErr
}

func (f *fakeAuth) VerifyOTP(ctx context.Context, mobile, otp string) error {
	f.record("verify_otp")
	if otp != f.otp {
		return &api.StatusError{Status: http.StatusBadRequest, Message: "Invalid or expired OTP"}
	}
	return nil
}

func (f *fakeAuth) ResetPassword(ctx context.Context, mobile, otp, newPassword string) error {
	f.record("reset_password")
	f.lastReset = [3]string{mobile, otp, newPassword}
	return f.resetErr
}

// flakyKV fails every Apply while failing is set.
type flakyKV struct {
	*storage.MemoryStore
	failing bool
}

var errDiskFull = errors.New("disk full")

func (k *flakyKV) Apply(ctx context.Context, b storage.Batch) error {
	if k.failing {
		return errDiskFull
	}
	return k.MemoryStore.Apply(ctx, b)
}

func testUser() *models.User {
	return &models.User{ID: "u1", Name: "Asha", Email: "asha@example.com", Mobile: "9999999999"}
}

func newTestStore(t *testing.T) (*Store, *fakeAuth, *storage.MemoryStore) {
	t.Helper()
	logger.Discard()

	kv := storage.NewMemoryStore()
	auth := newFakeAuth()
	return New(kv, auth), auth, kv
}

func loggedIn(t *testing.T) (*Store, *fakeAuth, *storage.MemoryStore) {
	t.Helper()

	s, auth, kv := newTestStore(t)
	auth.loginRes = &models.AuthResult{Token: "tok-1", User: testUser()}
	if _, err := s.Login(context.Background(), "asha@example.com", "secret1"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	return s, auth, kv
}
