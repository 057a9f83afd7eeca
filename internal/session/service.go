package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rahadianw/dealer-crm/internal/core/events"
)

type ServiceAPI interface {
	Login(ctx context.Context, dto LoginDTO) (*LoginResult, error)
	Restore(ctx context.Context, token string) (*LoginResult, error)
	Logout(ctx context.Context, username string) error
	CheckLoginAccess(ctx context.Context, username string) bool
	RequestAccess(ctx context.Context, username string) error
	GrantAccess(ctx context.Context, username, grantedBy string) error
	RejectAccess(ctx context.Context, username string) error
	ValidateSessionToken(tokenString string) (*Claims, error)
	GetAccount(ctx context.Context, username string) (*UserAccount, error)
	ListSessionLogs(ctx context.Context, filter LogFilterDTO) ([]*SessionRecord, error)
}

// CredentialRepositoryAPI is the credential store contract: one account per
// username, read-only from the session manager's point of view.
type CredentialRepositoryAPI interface {
	GetByUsername(ctx context.Context, username string) (*UserAccount, error)
}

// LogRepositoryAPI is the session log store contract (spec'd in the
// migrations): insert-on-login, mutate-on-logout/request/grant, never delete.
type LogRepositoryAPI interface {
	Insert(ctx context.Context, record *SessionRecord) error
	ActiveForDay(ctx context.Context, username, day string) (*SessionRecord, error)
	LatestForDay(ctx context.Context, username, day string) (*SessionRecord, error)
	EarliestLoginForDay(ctx context.Context, username, day string) (*time.Time, error)
	CloseLatestOpen(ctx context.Context, username, day string, at time.Time) error
	MarkAccessRequested(ctx context.Context, username, day string, at time.Time) error
	GrantAccess(ctx context.Context, username, day string, at time.Time) error
	RejectAccess(ctx context.Context, username, day string) error
	List(ctx context.Context, filter LogFilterDTO) ([]*SessionRecord, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// LoginResult is returned on successful login or restore. AccessDenied is
// reported through ErrAccessDenied instead so handlers can distinguish the
// two failure modes.
type LoginResult struct {
	Token string      `json:"token"`
	User  SessionUser `json:"user"`
}

// activeSession is the in-process registry entry for one authenticated user.
// The auto-logout timer is owned here, not by any transport-layer component,
// so it survives page navigation and is cancelled only on logout or expiry.
type activeSession struct {
	user       SessionUser
	firstLogin time.Time
	timer      *time.Timer
}

// Service owns the authenticated-session lifecycle: login validation,
// daily-access gating, the auto-logout timer and the access-request/grant
// workflow.
type Service struct {
	creds           CredentialRepositoryAPI
	logs            LogRepositoryAPI
	tokens          TokenGeneratorAPI
	bus             EventPublisher
	logger          *slog.Logger
	sessionDuration time.Duration

	mu     sync.Mutex
	active map[string]*activeSession

	// seams for tests
	now       func() time.Time
	afterFunc func(d time.Duration, f func()) *time.Timer
}

func NewService(creds CredentialRepositoryAPI, logs LogRepositoryAPI, tokens TokenGeneratorAPI, bus EventPublisher, logger *slog.Logger, sessionDuration time.Duration) *Service {
	if sessionDuration <= 0 {
		sessionDuration = 9 * time.Hour
	}
	return &Service{
		creds:           creds,
		logs:            logs,
		tokens:          tokens,
		bus:             bus,
		logger:          logger,
		sessionDuration: sessionDuration,
		active:          make(map[string]*activeSession),
		now:             time.Now,
		afterFunc:       time.AfterFunc,
	}
}

// Login authenticates a user and establishes a working session.
//
// Admin accounts bypass the daily-access gate and never get an auto-logout
// timer. Non-admin accounts are allowed one login per calendar day unless an
// admin granted renewed access; their session expires a fixed duration after
// the first login of the day, regardless of later re-logins.
func (s *Service) Login(ctx context.Context, dto LoginDTO) (*LoginResult, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	account, err := s.creds.GetByUsername(ctx, dto.Username)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("credential lookup failed", "error", err, "user_name", dto.Username)
		return nil, fmt.Errorf("credential lookup: %w", err)
	}
	if !account.VerifyPassword(dto.Password) {
		return nil, ErrInvalidCredentials
	}

	loginAt := s.now()
	today := DayOf(loginAt)
	isAdmin := account.IsAdmin()

	if !isAdmin && !s.CheckLoginAccess(ctx, account.Username) {
		s.logger.Warn("login blocked by daily access policy", "user_name", account.Username)
		return nil, ErrAccessDenied
	}

	s.writeLoginRecord(ctx, account.Username, today, loginAt)

	firstLogin := loginAt
	if !isAdmin {
		firstLogin = s.firstLoginTimeForDay(ctx, account.Username, today, loginAt)
	}

	user := SessionUser{
		Username:        account.Username,
		Role:            account.Role,
		SalesPersonName: account.SalesPersonName,
		Tabs:            ExpandTabs(account.Access, account.Role),
		LoginTime:       firstLogin,
	}

	s.register(user, firstLogin, !isAdmin)

	token, err := s.tokens.GenerateSessionToken(user)
	if err != nil {
		s.logger.Error("session token generation failed", "error", err, "user_name", account.Username)
		return nil, err
	}

	s.logger.Info("login successful",
		"user_name", account.Username,
		"role", account.Role,
		"first_login", firstLogin,
		"admin", isAdmin)

	return &LoginResult{Token: token, User: user}, nil
}

// Restore rebuilds an authenticated session from a previously issued token.
// The token is only a cache: the session log store's earliest-today record
// is authoritative for the auto-logout anchor, so a stale token cannot
// extend a session past its real deadline.
func (s *Service) Restore(ctx context.Context, token string) (*LoginResult, error) {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user := claims.User()
	if user.IsAdmin() {
		s.register(user, user.LoginTime, false)
		return &LoginResult{Token: token, User: user}, nil
	}

	now := s.now()
	today := DayOf(now)
	firstLogin := s.firstLoginTimeForDay(ctx, user.Username, today, user.LoginTime)
	user.LoginTime = firstLogin

	deadline := firstLogin.Add(s.sessionDuration)
	if !now.Before(deadline) {
		// The deadline already passed while the process was away; expire
		// immediately instead of waiting for a timer.
		s.expire(user.Username, firstLogin)
		return nil, ErrSessionExpired
	}

	s.register(user, firstLogin, true)

	s.logger.Info("session restored",
		"user_name", user.Username,
		"first_login", firstLogin,
		"expires_at", deadline)

	return &LoginResult{Token: token, User: user}, nil
}

// CheckLoginAccess applies the one-login-per-day policy. It fails open on
// store errors: availability is preferred over strict enforcement.
func (s *Service) CheckLoginAccess(ctx context.Context, username string) bool {
	today := DayOf(s.now())

	latest, err := s.logs.LatestForDay(ctx, username, today)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return true
		}
		s.logger.Warn("daily access check failed open", "error", err, "user_name", username)
		return true
	}

	if latest.IsOpen() {
		// Still active today; re-login is treated as idempotent.
		return true
	}
	if latest.AccessRequested && latest.AccessGranted {
		return true
	}
	return false
}

// RequestAccess marks today's most recent session record with a pending
// access request. Safe to call repeatedly.
func (s *Service) RequestAccess(ctx context.Context, username string) error {
	now := s.now()
	if err := s.logs.MarkAccessRequested(ctx, username, DayOf(now), now); err != nil {
		s.logger.Error("access request failed", "error", err, "user_name", username)
		return err
	}

	s.publish(ctx, events.NewAccessRequestedEvent(username))
	s.logger.Info("access requested", "user_name", username)
	return nil
}

// GrantAccess re-opens the day's session record (clears logout_time and the
// request flag), enabling exactly one more login today.
func (s *Service) GrantAccess(ctx context.Context, username, grantedBy string) error {
	now := s.now()
	if err := s.logs.GrantAccess(ctx, username, DayOf(now), now); err != nil {
		s.logger.Error("access grant failed", "error", err, "user_name", username)
		return err
	}

	s.publish(ctx, events.NewAccessGrantedEvent(username, grantedBy))
	s.logger.Info("access granted", "user_name", username, "granted_by", grantedBy)
	return nil
}

// RejectAccess clears the pending request without re-opening the record,
// leaving the user blocked for the rest of the day.
func (s *Service) RejectAccess(ctx context.Context, username string) error {
	now := s.now()
	if err := s.logs.RejectAccess(ctx, username, DayOf(now)); err != nil {
		s.logger.Error("access reject failed", "error", err, "user_name", username)
		return err
	}

	s.logger.Info("access rejected", "user_name", username)
	return nil
}

// Logout closes the latest open record for today, cancels the auto-logout
// timer and drops the in-process session.
func (s *Service) Logout(ctx context.Context, username string) error {
	s.unregister(username)

	now := s.now()
	if err := s.logs.CloseLatestOpen(ctx, username, DayOf(now), now); err != nil {
		s.logger.Error("logout record update failed", "error", err, "user_name", username)
		return err
	}

	s.logger.Info("logout recorded", "user_name", username)
	return nil
}

func (s *Service) ValidateSessionToken(tokenString string) (*Claims, error) {
	return s.tokens.ValidateToken(tokenString)
}

func (s *Service) GetAccount(ctx context.Context, username string) (*UserAccount, error) {
	return s.creds.GetByUsername(ctx, username)
}

func (s *Service) ListSessionLogs(ctx context.Context, filter LogFilterDTO) ([]*SessionRecord, error) {
	records, err := s.logs.List(ctx, filter)
	if err != nil {
		s.logger.Error("session log listing failed", "error", err)
		return nil, err
	}
	return records, nil
}

// ActiveSessionCount reports the number of in-process sessions. Used by the
// health endpoint.
func (s *Service) ActiveSessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

// ---- internals ----

// writeLoginRecord appends a login row unless an active one already exists
// for today (guards double-submission). Write errors are logged and
// swallowed: a missing audit row must never block authentication.
func (s *Service) writeLoginRecord(ctx context.Context, username, today string, at time.Time) {
	if _, err := s.logs.ActiveForDay(ctx, username, today); err == nil {
		return
	} else if !errors.Is(err, ErrRecordNotFound) {
		s.logger.Warn("active record lookup failed, attempting insert anyway", "error", err, "user_name", username)
	}

	record := &SessionRecord{
		Username:  username,
		LoginDate: today,
		LoginTime: at,
	}
	if err := s.logs.Insert(ctx, record); err != nil {
		// The partial unique index on open rows turns the check-then-insert
		// race into a constraint violation; either way login proceeds.
		s.logger.Warn("login record insert failed", "error", err, "user_name", username)
	}
}

// firstLoginTimeForDay anchors the auto-logout deadline to the earliest
// login already recorded today, falling back to the given default. Store
// errors fail open to the default.
func (s *Service) firstLoginTimeForDay(ctx context.Context, username, today string, fallback time.Time) time.Time {
	earliest, err := s.logs.EarliestLoginForDay(ctx, username, today)
	if err != nil {
		if !errors.Is(err, ErrRecordNotFound) {
			s.logger.Warn("first login lookup failed open", "error", err, "user_name", username)
		}
		return fallback
	}
	if earliest == nil {
		return fallback
	}
	return *earliest
}

// register installs (or replaces) the in-process session. Replacing the
// timer on every login keeps repeated logins from accumulating duplicates.
func (s *Service) register(user SessionUser, firstLogin time.Time, withTimer bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.active[user.Username]; ok && existing.timer != nil {
		existing.timer.Stop()
	}

	sess := &activeSession{user: user, firstLogin: firstLogin}
	if withTimer {
		delay := firstLogin.Add(s.sessionDuration).Sub(s.now())
		if delay < 0 {
			delay = 0
		}
		username := user.Username
		sess.timer = s.afterFunc(delay, func() {
			s.expire(username, firstLogin)
		})
	}
	s.active[user.Username] = sess
}

func (s *Service) unregister(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.active[username]; ok {
		if sess.timer != nil {
			sess.timer.Stop()
		}
		delete(s.active, username)
	}
}

// expire performs the auto-logout effect: same as Logout plus the
// user-facing expiry notification. The record is closed under the login
// day, not the fire-time day: a deadline that crosses midnight must still
// find the row it is closing.
func (s *Service) expire(username string, firstLogin time.Time) {
	ctx := context.Background()

	s.unregister(username)

	now := s.now()
	if err := s.logs.CloseLatestOpen(ctx, username, DayOf(firstLogin), now); err != nil {
		s.logger.Error("auto-logout record update failed", "error", err, "user_name", username)
	}

	s.publish(ctx, events.NewSessionExpiredEvent(username, firstLogin))
	s.logger.Info("session expired by auto-logout", "user_name", username, "first_login", firstLogin)
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, event); err != nil {
		s.logger.Warn("event publish failed", "event_type", event.EventType(), "error", err)
	}
}
