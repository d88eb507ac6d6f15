// Package session is the single source of truth for "who is logged in".
//
// The store owns the {token, dealer} pair: both are set together on a
// successful login/register and cleared together on logout or failed
// restore, never one without the other. It is constructed explicitly in
// main and injected into consumers; nothing reaches it through globals.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/kigundalevi/carsawa/internal/errs"
	"github.com/kigundalevi/carsawa/internal/model"
)

// Gateway is the slice of the REST client the store needs.
type Gateway interface {
	Login(ctx context.Context, email, password string) (model.Dealer, string, error)
	Register(ctx context.Context, reg model.Registration) (model.Dealer, string, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (model.Dealer, error)
	UpdateProfile(ctx context.Context, up model.ProfileUpdate) (model.Dealer, error)
	SetToken(tok string)
	ClearToken()
}

// credsFile is the persisted session: token and user serialized under
// one key so they can only ever be written or cleared together.
type credsFile struct {
	Token   string       `json:"token"`
	Dealer  model.Dealer `json:"dealer"`
	SavedAt time.Time    `json:"saved_at"`
}

// Store holds the authenticated dealer and bearer token.
type Store struct {
	gw   Gateway
	path string
	log  *zap.Logger

	mu      sync.Mutex
	dealer  *model.Dealer
	token   string
	loading bool
	lastErr string
}

// New builds a Store persisting credentials under stateDir.
func New(gw Gateway, stateDir string, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{gw: gw, path: filepath.Join(stateDir, "creds.json"), log: log}
}

// Current returns the logged-in dealer, or false when logged out.
func (s *Store) Current() (model.Dealer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dealer == nil {
		return model.Dealer{}, false
	}
	return *s.dealer, true
}

// Loading reports whether a session operation is in flight. Callers are
// expected to gate re-entry on it; concurrent operations are
// last-writer-wins.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the message of the last failed operation, empty when the
// last operation succeeded.
func (s *Store) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Store) begin() {
	s.mu.Lock()
	s.loading = true
	s.lastErr = ""
	s.mu.Unlock()
}

func (s *Store) finish(err error) {
	s.mu.Lock()
	s.loading = false
	if err != nil {
		s.lastErr = err.Error()
	}
	s.mu.Unlock()
}

// Login authenticates and stores {token, dealer} atomically. On failure
// the prior session state is untouched.
func (s *Store) Login(ctx context.Context, email, password string) (model.Dealer, error) {
	s.begin()
	dealer, token, err := s.gw.Login(ctx, email, password)
	if err == nil && token == "" {
		err = fmt.Errorf("login response missing token")
	}
	if err != nil {
		s.finish(err)
		return model.Dealer{}, err
	}
	s.establish(dealer, token)
	s.finish(nil)
	return dealer, nil
}

// Register creates an account and logs in with the same atomicity
// contract as Login. Coordinates are validated locally first; invalid
// input fails fast without a network call.
func (s *Store) Register(ctx context.Context, reg model.Registration) (model.Dealer, error) {
	if err := reg.Validate(); err != nil {
		err = fmt.Errorf("%w: %v", errs.ErrValidation, err)
		s.mu.Lock()
		s.lastErr = err.Error()
		s.mu.Unlock()
		return model.Dealer{}, err
	}
	s.begin()
	dealer, token, err := s.gw.Register(ctx, reg)
	if err == nil && token == "" {
		err = fmt.Errorf("register response missing token")
	}
	if err != nil {
		s.finish(err)
		return model.Dealer{}, err
	}
	s.establish(dealer, token)
	s.finish(nil)
	return dealer, nil
}

// Logout notifies the server best-effort and unconditionally clears
// local state. A network failure never leaves the client stuck
// logged in; the server error is logged, not returned.
func (s *Store) Logout(ctx context.Context) error {
	s.begin()
	if err := s.gw.Logout(ctx); err != nil {
		s.log.Warn("server logout failed, clearing local session anyway", zap.Error(err))
	}
	s.clear()
	s.finish(nil)
	return nil
}

// Restore rehydrates the session at startup. A persisted token is
// validated against /auth/me; on any failure the persisted state is
// cleared and the client resolves to logged out without surfacing an
// error to the user.
func (s *Store) Restore(ctx context.Context) (model.Dealer, bool) {
	s.begin()
	defer s.finish(nil)

	cf, err := s.readCreds()
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.log.Debug("unreadable creds file, treating as logged out", zap.Error(err))
			s.clear()
		}
		return model.Dealer{}, false
	}
	if tokenExpired(cf.Token, time.Now()) {
		s.log.Debug("persisted token expired, clearing session")
		s.clear()
		return model.Dealer{}, false
	}

	s.gw.SetToken(cf.Token)
	dealer, err := s.gw.Me(ctx)
	if err != nil {
		s.log.Debug("token validation failed, clearing session", zap.Error(err))
		s.clear()
		return model.Dealer{}, false
	}
	s.establish(dealer, cf.Token)
	return dealer, true
}

// UpdateProfile merges server-confirmed fields into the current user.
func (s *Store) UpdateProfile(ctx context.Context, up model.ProfileUpdate) (model.Dealer, error) {
	if _, ok := s.Current(); !ok {
		return model.Dealer{}, errs.ErrNotAuthenticated
	}
	if err := up.Validate(); err != nil {
		err = fmt.Errorf("%w: %v", errs.ErrValidation, err)
		s.mu.Lock()
		s.lastErr = err.Error()
		s.mu.Unlock()
		return model.Dealer{}, err
	}
	s.begin()
	dealer, err := s.gw.UpdateProfile(ctx, up)
	if err != nil {
		s.finish(err)
		return model.Dealer{}, err
	}
	s.mu.Lock()
	tok := s.token
	s.mu.Unlock()
	s.establish(dealer, tok)
	s.finish(nil)
	return dealer, nil
}

// establish installs a confirmed session: in-memory pair, gateway
// token, and the persisted creds file, as one step.
func (s *Store) establish(dealer model.Dealer, token string) {
	s.mu.Lock()
	d := dealer
	s.dealer = &d
	s.token = token
	s.mu.Unlock()
	s.gw.SetToken(token)
	if err := s.writeCreds(credsFile{Token: token, Dealer: dealer, SavedAt: time.Now()}); err != nil {
		s.log.Warn("persisting session failed", zap.Error(err))
	}
}

// clear wipes the in-memory pair, the gateway token and the persisted
// file together.
func (s *Store) clear() {
	s.mu.Lock()
	s.dealer = nil
	s.token = ""
	s.mu.Unlock()
	s.gw.ClearToken()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.log.Warn("removing creds file failed", zap.Error(err))
	}
}

func (s *Store) writeCreds(cf credsFile) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(cf, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *Store) readCreds() (credsFile, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return credsFile{}, err
	}
	var cf credsFile
	if err := json.Unmarshal(b, &cf); err != nil {
		return credsFile{}, err
	}
	if cf.Token == "" || cf.Dealer.ID == "" {
		return credsFile{}, fmt.Errorf("incomplete creds file")
	}
	return cf, nil
}

// tokenExpired inspects a JWT exp claim without validating the
// signature, so an obviously stale token is discarded before any
// network call. Opaque non-JWT tokens are left for the server to judge.
func tokenExpired(tok string, now time.Time) bool {
	var claims jwt.RegisteredClaims
	_, _, err := jwt.NewParser(jwt.WithoutClaimsValidation()).ParseUnverified(tok, &claims)
	if err != nil || claims.ExpiresAt == nil {
		return false
	}
	return now.After(claims.ExpiresAt.Time)
}
