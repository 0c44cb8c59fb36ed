package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	domainauth "github.com/botivate/systems-dashboard/internal/domain/auth"
	apperrors "github.com/botivate/systems-dashboard/internal/errors"
	"github.com/botivate/systems-dashboard/internal/observability/metrics"
	"github.com/botivate/systems-dashboard/internal/observability/statsd"
	"github.com/botivate/systems-dashboard/internal/ports"
)

// SessionKey is the tab storage key holding the logged-in user.
const SessionKey = "currentUser"

const loginFailedMessage = "Login failed. Please try again."

// Login outcomes. Compare with errors.Is; the messages are shown to the user verbatim.
var (
	ErrMissingCredentials = apperrors.ValidationField("user_id", "Please enter both User ID and Password")
	ErrInvalidCredentials = apperrors.New(apperrors.ErrCodeInvalidCredentials, "Invalid User ID or Password")
	ErrLoginUnavailable   = apperrors.New(apperrors.ErrCodeRemoteFetch, loginFailedMessage)
	ErrBusy               = apperrors.New(apperrors.ErrCodeBusy, "A request is already in progress")
)

// storedUser is the persisted form of a session. The password is not kept.
type storedUser struct {
	UserID      string          `json:"user_id"`
	Role        domainauth.Role `json:"role"`
	AccessGrant string          `json:"access_grant"`
}

func (s storedUser) record() domainauth.UserRecord {
	return domainauth.UserRecord{UserID: s.UserID, Role: s.Role, AccessGrant: s.AccessGrant}
}

// SessionStoreOptions groups dependencies for SessionStore.
type SessionStoreOptions struct {
	TabID   string
	Storage ports.TabStorage
	Source  ports.CatalogSource
	Metrics statsd.Sink
	Logger  *slog.Logger
}

// SessionStore holds at most one logged-in user for a tab and mirrors it
// into tab storage so a reload can restore it.
type SessionStore struct {
	tabID   string
	storage ports.TabStorage
	source  ports.CatalogSource
	metrics statsd.Sink
	logger  *slog.Logger

	mu   sync.RWMutex
	user *domainauth.UserRecord
}

// NewSessionStore constructs a new SessionStore with no active user.
func NewSessionStore(opts SessionStoreOptions) *SessionStore {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionStore{
		tabID:   opts.TabID,
		storage: opts.Storage,
		source:  opts.Source,
		metrics: opts.Metrics,
		logger:  logger.With("tab_id", opts.TabID),
	}
}

// Login checks the credentials against the remote list and, on an exact
// match of both fields, makes that user current and persists it.
// On any failure the session is left as it was.
func (s *SessionStore) Login(ctx context.Context, userID, password string) (domainauth.UserRecord, error) {
	if userID == "" || password == "" {
		metrics.EmitLoginAttempt(s.metrics, metrics.OutcomeMissing, nil)
		return domainauth.UserRecord{}, ErrMissingCredentials
	}

	users, err := s.source.FetchCredentials(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "credential fetch failed", "error", err)
		metrics.EmitLoginAttempt(s.metrics, metrics.OutcomeUnavailable, err)
		return domainauth.UserRecord{}, apperrors.Wrap(err, apperrors.ErrCodeRemoteFetch, loginFailedMessage)
	}

	var match *domainauth.UserRecord
	for i := range users {
		if users[i].Matches(userID, password) {
			match = &users[i]
			break
		}
	}
	if match == nil {
		s.logger.InfoContext(ctx, "login rejected", "user_id", userID)
		metrics.EmitLoginAttempt(s.metrics, metrics.OutcomeInvalid, ErrInvalidCredentials)
		return domainauth.UserRecord{}, ErrInvalidCredentials
	}

	user := *match
	if err := s.persist(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "persist session failed", "user_id", user.UserID, "error", err)
		metrics.EmitLoginAttempt(s.metrics, metrics.OutcomeError, err)
		return domainauth.UserRecord{}, apperrors.Wrap(err, apperrors.ErrCodeInternal, loginFailedMessage)
	}

	s.mu.Lock()
	s.user = &user
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "login succeeded", "user_id", user.UserID, "role", user.Role)
	metrics.EmitLoginAttempt(s.metrics, metrics.OutcomeSuccess, nil)
	return user, nil
}

func (s *SessionStore) persist(ctx context.Context, user domainauth.UserRecord) error {
	data, err := json.Marshal(storedUser{UserID: user.UserID, Role: user.Role, AccessGrant: user.AccessGrant})
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.storage.Set(ctx, s.tabID, SessionKey, data); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

// Restore replaces the current user with the persisted one, if any.
// A value that cannot be decoded is removed and reported as no session;
// only storage I/O errors are returned. Whenever no user is restored the
// tab is left logged out.
func (s *SessionStore) Restore(ctx context.Context) (*domainauth.UserRecord, error) {
	data, err := s.storage.Get(ctx, s.tabID, SessionKey)
	if errors.Is(err, ports.ErrNotFound) {
		s.setUser(nil)
		return nil, nil
	}
	if err != nil {
		s.setUser(nil)
		return nil, fmt.Errorf("load session: %w", err)
	}

	user, decodeErr := decodeStoredUser(data)
	if decodeErr != nil {
		s.setUser(nil)
		s.logger.WarnContext(ctx, "discarding unreadable session", "error", decodeErr)
		metrics.EmitSessionCorrupt(s.metrics)
		if delErr := s.storage.Delete(ctx, s.tabID, SessionKey); delErr != nil {
			return nil, fmt.Errorf("clear corrupt session: %w", delErr)
		}
		return nil, nil
	}

	s.setUser(&user)
	s.logger.DebugContext(ctx, "session restored", "user_id", user.UserID)
	return &user, nil
}

func decodeStoredUser(data []byte) (domainauth.UserRecord, error) {
	var su storedUser
	if err := json.Unmarshal(data, &su); err != nil {
		return domainauth.UserRecord{}, apperrors.Wrap(err, apperrors.ErrCodeCorruptSession, "stored session is not valid JSON")
	}
	user := su.record()
	if !user.Valid() {
		return domainauth.UserRecord{}, apperrors.New(apperrors.ErrCodeCorruptSession, "stored session has no usable identity")
	}
	return user, nil
}

// Logout forgets the current user and removes the persisted entry.
// The in-memory user is cleared even when storage fails.
func (s *SessionStore) Logout(ctx context.Context) error {
	s.mu.Lock()
	prev := s.user
	s.user = nil
	s.mu.Unlock()

	if prev != nil {
		s.logger.InfoContext(ctx, "logout", "user_id", prev.UserID)
	}
	if err := s.storage.Delete(ctx, s.tabID, SessionKey); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *SessionStore) setUser(user *domainauth.UserRecord) {
	s.mu.Lock()
	s.user = user
	s.mu.Unlock()
}

// Current returns a copy of the logged-in user, or nil.
func (s *SessionStore) Current() *domainauth.UserRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}
