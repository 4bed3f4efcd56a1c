// Package session holds the authenticated user and the password reset flow,
// mirrored to a key-value store.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/safar/go-storefront/internal/api"
	"github.com/safar/go-storefront/internal/logger"
	"github.com/safar/go-storefront/internal/models"
	"github.com/safar/go-storefront/internal/storage"
)

const DefaultMinPasswordLength = 6

// Authenticator is the authentication collaborator. *api.Client implements it.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*models.AuthResult, error)
	Register(ctx context.Context, in api.RegisterRequest) (*models.AuthResult, error)
	Logout(ctx context.Context, token string) error
	Profile(ctx context.Context, token string) (*models.User, error)
	UpdateProfile(ctx context.Context, token string, patch api.ProfilePatch) (*models.User, error)
	ForgotPassword(ctx context.Context, mobile string) error
	VerifyOTP(ctx context.Context, mobile, otp string) error
	ResetPassword(ctx context.Context, mobile, otp, newPassword string) error
}

// State is a copy of the session as views see it.
type State struct {
	User  *models.User
	Token string
	Reset ResetFlow
}

func (s State) IsAuthenticated() bool {
	return s.Token != "" && s.User != nil
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Mobile   string
}

// RegisterResult tells the caller whether the new account is logged in.
// RequiresLogin is set when the collaborator issued no token.
type RegisterResult struct {
	User          *models.User
	RequiresLogin bool
	Message       string
}

// ProfileUpdate is a partial profile; nil fields are kept.
type ProfileUpdate struct {
	Name   *string
	Email  *string
	Mobile *string
}

type Option func(*Store)

func WithMinPasswordLength(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.minPasswordLen = n
		}
	}
}

// Store is the session container. Operations run one at a time; reads never
// wait for an operation's network call.
type Store struct {
	kv        storage.KV
	auth      Authenticator
	userSlot  *storage.Slot[models.User]
	resetSlot *storage.Slot[ResetFlow]

	minPasswordLen int

	op      sync.Mutex
	pending atomic.Int32

	mu    sync.RWMutex
	token string
	user  *models.User
	reset ResetFlow
}

func New(kv storage.KV, auth Authenticator, opts ...Option) *Store {
	s := &Store{
		kv:             kv,
		auth:           auth,
		userSlot:       storage.NewSlot[models.User](kv, storage.KeyUser),
		resetSlot:      storage.NewSlot[ResetFlow](kv, storage.KeyResetFlow),
		minPasswordLen: DefaultMinPasswordLength,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{User: cloneUser(s.user), Token: s.token, Reset: s.reset}
}

func (s *Store) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneUser(s.user)
}

// Token returns the bearer token, or "" when logged out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != "" && s.user != nil
}

// Pending reports whether a collaborator call is in flight.
func (s *Store) Pending() bool {
	return s.pending.Load() > 0
}

func (s *Store) begin() func() {
	s.op.Lock()
	s.pending.Add(1)
	return func() {
		s.pending.Add(-1)
		s.op.Unlock()
	}
}

func (s *Store) Login(ctx context.Context, email, password string) (*models.User, error) {
	if problems := validateCredentials(email, password, s.minPasswordLen); len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}

	done := s.begin()
	defer done()

	res, err := s.auth.Login(ctx, strings.TrimSpace(email), password)
	if err != nil {
		s.dropAfterFailure(ctx, "login")
		return nil, authError("Login failed", err)
	}

	user, err := s.establish(ctx, res)
	if err != nil {
		s.dropAfterFailure(ctx, "login")
		return nil, err
	}

	logger.Info("user logged in", map[string]any{"user_id": user.ID})
	return cloneUser(user), nil
}

func (s *Store) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	if problems := validateRegistration(in, s.minPasswordLen); len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}

	done := s.begin()
	defer done()

	email := strings.TrimSpace(in.Email)
	res, err := s.auth.Register(ctx, api.RegisterRequest{
		Name:     strings.TrimSpace(in.Name),
		Email:    email,
		Password: in.Password,
		Mobile:   strings.TrimSpace(in.Mobile),
	})
	if err != nil {
		if isDuplicateAccount(err) {
			return nil, &DuplicateAccountError{Email: email, Message: api.Message(err), Err: err}
		}
		return nil, authError("Registration failed", err)
	}

	if res == nil || res.Token == "" {
		logger.Info("registered without session", map[string]any{"email": email})
		out := &RegisterResult{RequiresLogin: true}
		if res != nil {
			out.User = cloneUser(res.User)
			out.Message = res.Message
		}
		return out, nil
	}

	user, err := s.establish(ctx, res)
	if err != nil {
		return nil, err
	}

	logger.Info("user registered", map[string]any{"user_id": user.ID})
	return &RegisterResult{User: cloneUser(user), Message: res.Message}, nil
}

// Logout clears the session locally and then tells the collaborator. A failed
// notification is logged and ignored.
func (s *Store) Logout(ctx context.Context) error {
	done := s.begin()
	defer done()

	token := s.Token()

	if err := s.clearStoredSession(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	s.setSession("", nil)

	if token == "" {
		return nil
	}
	if err := s.auth.Logout(ctx, token); err != nil {
		logger.Warn("logout notification failed", map[string]any{"error": err.Error()})
	}
	return nil
}

func (s *Store) UpdateProfile(ctx context.Context, update ProfileUpdate) (*models.User, error) {
	done := s.begin()
	defer done()

	s.mu.RLock()
	token, current := s.token, cloneUser(s.user)
	s.mu.RUnlock()

	if token == "" || current == nil {
		return nil, &AuthError{Message: "Not logged in"}
	}

	returned, err := s.auth.UpdateProfile(ctx, token, api.ProfilePatch{
		Name:   update.Name,
		Email:  update.Email,
		Mobile: update.Mobile,
	})
	if err != nil {
		return nil, authError("Profile update failed", err)
	}

	merged := mergeProfile(*current, returned, update)
	if err := s.userSlot.Save(ctx, merged); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}
	s.setSession(token, &merged)

	return cloneUser(&merged), nil
}

// establish persists token and user together and then installs them.
func (s *Store) establish(ctx context.Context, res *models.AuthResult) (*models.User, error) {
	if res == nil || res.Token == "" {
		return nil, &AuthError{Message: "Authentication response had no token"}
	}

	user := res.User
	if user == nil {
		u, err := s.auth.Profile(ctx, res.Token)
		if err != nil {
			return nil, authError("Failed to fetch user data", err)
		}
		if u == nil {
			return nil, &AuthError{Message: "Authentication response had no user"}
		}
		user = u
	}

	if err := s.saveSession(ctx, res.Token, *user); err != nil {
		return nil, err
	}
	s.setSession(res.Token, user)
	return user, nil
}

func (s *Store) saveSession(ctx context.Context, token string, user models.User) error {
	b := storage.Batch{}
	b.Put(storage.KeyToken, token)
	if err := s.userSlot.Stage(&b, user); err != nil {
		return err
	}
	if err := s.kv.Apply(ctx, b); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// clearStoredSession deletes token and user in one batch.
func (s *Store) clearStoredSession(ctx context.Context) error {
	var b storage.Batch
	b.Remove(storage.KeyToken)
	s.userSlot.StageClear(&b)
	return s.kv.Apply(ctx, b)
}

// dropAfterFailure clears any existing session after the collaborator
// rejected a login. Memory is only cleared once storage is.
func (s *Store) dropAfterFailure(ctx context.Context, op string) {
	if !s.hasSessionData() {
		return
	}
	if err := s.clearStoredSession(context.WithoutCancel(ctx)); err != nil {
		logger.Error("clear session after failure", map[string]any{"op": op, "error": err.Error()})
		return
	}
	s.setSession("", nil)
}

func (s *Store) hasSessionData() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != "" || s.user != nil
}

func (s *Store) setSession(token string, user *models.User) {
	s.mu.Lock()
	s.token = token
	s.user = cloneUser(user)
	s.mu.Unlock()
}

func mergeProfile(current models.User, returned *models.User, update ProfileUpdate) models.User {
	if returned != nil {
		merged := *returned
		if merged.ID == "" {
			merged.ID = current.ID
		}
		return merged
	}

	if update.Name != nil {
		current.Name = *update.Name
	}
	if update.Email != nil {
		current.Email = *update.Email
	}
	if update.Mobile != nil {
		current.Mobile = *update.Mobile
	}
	return current
}

func authError(fallback string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &AuthError{Message: fallback, Err: err}
	}
	msg := api.Message(err)
	if msg == "" {
		msg = fallback
	}
	return &AuthError{Message: msg, Err: err}
}

var duplicatePhrases = []string{"already exists", "already registered", "user already"}

func isDuplicateAccount(err error) bool {
	if api.IsConflict(err) {
		return true
	}
	var se *api.StatusError
	if !errors.As(err, &se) {
		return false
	}
	msg := strings.ToLower(se.Message)
	for _, p := range duplicatePhrases {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// sameUser compares profiles field by field; CreatedAt may differ in location
// after a round trip through storage.
func sameUser(a, b models.User) bool {
	return a.ID == b.ID &&
		a.Name == b.Name &&
		a.Email == b.Email &&
		a.Mobile == b.Mobile &&
		a.Role == b.Role &&
		a.CreatedAt.Equal(b.CreatedAt)
}

func cloneUser(u *models.User) *models.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
