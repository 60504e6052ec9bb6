package ops

import (
	"crypto/rand"
	"database/sql"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/hpungsan/attune/internal/catalog"
	"github.com/hpungsan/attune/internal/config"
	"github.com/hpungsan/attune/internal/db"
	"github.com/hpungsan/attune/internal/errors"
	"github.com/hpungsan/attune/internal/onboarding"
	"github.com/hpungsan/attune/internal/prefs"
)

// Pagination limits
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// Options configures a Service.
type Options struct {
	// Scheduler drives onboarding delays. Defaults to onboarding.RealScheduler.
	Scheduler onboarding.Scheduler
	Logger    *zap.Logger
	// SessionTTL overrides cfg.SessionTTL() when non-zero. A negative value
	// keeps sessions until the profile is deleted or the service is closed.
	SessionTTL time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

// Service owns one personalization session per visitor profile: the State
// container backed by the profile's KV rows, and its onboarding controller.
// Sessions are created lazily. A session idle for longer than the TTL with
// no pending onboarding timer is evicted; its persisted theme and completion
// flag reload on next use.
type Service struct {
	db        *sql.DB
	cfg       *config.Config
	log       *zap.Logger
	scheduler onboarding.Scheduler
	questions []catalog.Question
	ttl       time.Duration
	now       func() time.Time

	mu        sync.Mutex
	sessions  map[string]*session
	lastSweep time.Time
}

type session struct {
	state    *prefs.State
	ctrl     *onboarding.Controller
	lastUsed time.Time
}

// NewService returns a Service over database. A nil cfg uses defaults.
func NewService(database *sql.DB, cfg *config.Config, opts Options) *Service {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Scheduler == nil {
		opts.Scheduler = onboarding.RealScheduler{}
	}
	if opts.SessionTTL == 0 {
		opts.SessionTTL = cfg.SessionTTL()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Service{
		db:        database,
		cfg:       cfg,
		log:       opts.Logger,
		scheduler: opts.Scheduler,
		questions: catalog.Questions(),
		ttl:       opts.SessionTTL,
		now:       opts.Now,
		sessions:  make(map[string]*session),
	}
	s.lastSweep = s.now()
	return s
}

// Close cancels every pending onboarding timer.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, sess := range s.sessions {
		sess.ctrl.Close()
		delete(s.sessions, id)
	}
}

// session returns the live session for profileID, loading it from the
// database on first use.
func (s *Service) session(profileID string) (*session, string, error) {
	id := strings.TrimSpace(profileID)
	if id == "" {
		return nil, "", errors.NewInvalidRequest("profile_id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.ttl > 0 && now.Sub(s.lastSweep) >= s.ttl/2 {
		s.evictIdleLocked(now)
	}

	if sess, ok := s.sessions[id]; ok {
		sess.lastUsed = now
		return sess, id, nil
	}

	if _, err := db.GetProfile(s.db, id); err != nil {
		return nil, "", err
	}

	log := s.log.With(zap.String("profile_id", id))
	state := prefs.NewState(prefs.NewStorage(db.NewProfileKV(s.db, id), log), log)
	ctrl := onboarding.New(s.questions, state, onboarding.Options{
		SettleDelay:     s.cfg.SettleDelay(),
		ProcessingDelay: s.cfg.ProcessingDelay(),
		Scheduler:       s.scheduler,
		Logger:          log,
		OnComplete: func(p prefs.Preferences) {
			state.Finalize(p)
		},
		OnSkip: func() {
			if err := state.SwitchTheme(catalog.DefaultTheme); err != nil {
				log.Error("apply default theme", zap.Error(err))
			}
			state.CompleteOnboarding()
		},
	})

	sess := &session{state: state, ctrl: ctrl, lastUsed: now}
	s.sessions[id] = sess
	return sess, id, nil
}

// drop closes and forgets a session, if one is live.
func (s *Service) drop(profileID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[profileID]; ok {
		sess.ctrl.Close()
		delete(s.sessions, profileID)
	}
}

// evictIdleLocked closes and forgets sessions idle since before now-ttl that
// have no pending onboarding timer. Callers hold s.mu.
func (s *Service) evictIdleLocked(now time.Time) {
	s.lastSweep = now
	evicted := 0
	for id, sess := range s.sessions {
		if now.Sub(sess.lastUsed) < s.ttl || sess.ctrl.Pending() {
			continue
		}
		sess.ctrl.Close()
		delete(s.sessions, id)
		evicted++
	}
	if evicted > 0 {
		s.log.Debug("evicted idle sessions",
			zap.Int("evicted", evicted),
			zap.Int("live", len(s.sessions)))
	}
}

// newProfileID generates a new ULID for a visitor profile.
func newProfileID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
