package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/lautarok/yourstack/internal/model"
	"github.com/lautarok/yourstack/internal/session"
)

var (
	// ErrSessionNotFound is returned for unknown, expired or closed sessions.
	ErrSessionNotFound = errors.New("session not found")
	// ErrIncompleteAnswers rejects a manual submit while questions are unanswered.
	ErrIncompleteAnswers = errors.New("not every question is answered")
)

// SessionService keeps the live exam attempts. Entries expire after ttl of
// inactivity; expiry and deletion both close the controller, which releases
// its countdown.
type SessionService struct {
	provider   session.ExamProvider
	sessions   *cache.Cache
	tick       time.Duration
	requireAll bool
	log        zerolog.Logger
}

// SessionOptions configures a SessionService.
type SessionOptions struct {
	// TTL is the idle lifetime of a session.
	TTL time.Duration
	// TickInterval is the countdown tick length.
	TickInterval time.Duration
	// RequireAllAnswered rejects manual submits until every question has an answer.
	RequireAllAnswered bool
}

// NewSessionService creates a new SessionService.
func NewSessionService(provider session.ExamProvider, opts SessionOptions, log zerolog.Logger) *SessionService {
	s := &SessionService{
		provider:   provider,
		sessions:   cache.New(opts.TTL, janitorInterval(opts.TTL)),
		tick:       opts.TickInterval,
		requireAll: opts.RequireAllAnswered,
		log:        log.With().Str("component", "session_service").Logger(),
	}
	s.sessions.OnEvicted(func(id string, v interface{}) {
		if ctrl, ok := v.(*session.Controller); ok {
			ctrl.Close()
			s.log.Debug().Str("session_id", id).Msg("Session released")
		}
	})
	return s
}

// Create starts a new attempt on examID. Attempts whose exam cannot be
// loaded are never registered.
func (s *SessionService) Create(ctx context.Context, examID string) (*session.Controller, error) {
	id := uuid.NewString()
	ctrl := session.New(id, examID, s.provider,
		session.WithTickInterval(s.tick),
		session.WithLogger(s.log),
	)
	if err := ctrl.Start(ctx); err != nil {
		return nil, err
	}
	s.sessions.SetDefault(id, ctrl)
	return ctrl, nil
}

// Get returns a live session and extends its lifetime.
func (s *SessionService) Get(id string) (*session.Controller, error) {
	v, ok := s.sessions.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	ctrl := v.(*session.Controller)
	if ctrl.Closed() {
		s.sessions.Delete(id)
		return nil, ErrSessionNotFound
	}
	// Replace fails if the entry was removed meanwhile, so a concurrent Close
	// is never undone.
	_ = s.sessions.Replace(id, ctrl, cache.DefaultExpiration)
	return ctrl, nil
}

// Submit ends an attempt on the user's behalf. With RequireAllAnswered set,
// an in-progress attempt with unanswered questions is rejected; the timer
// path never goes through here.
func (s *SessionService) Submit(ctx context.Context, ctrl *session.Controller) (model.Result, error) {
	if s.requireAll {
		state := ctrl.Snapshot()
		if state.Phase == model.PhaseInProgress && !state.Complete() {
			return model.Result{}, ErrIncompleteAnswers
		}
	}
	return ctrl.Submit(ctx)
}

// Previous moves back one question. On the first question the visitor
// leaves the exam: the session is closed and left is true.
func (s *SessionService) Previous(ctrl *session.Controller) (left bool, err error) {
	left, err = s.StepBack(ctrl)
	if left {
		s.Close(ctrl.ID())
	}
	return left, err
}

// StepBack is Previous without closing the session on leave. The caller
// owns the Close once it has told the client.
func (s *SessionService) StepBack(ctrl *session.Controller) (left bool, err error) {
	err = ctrl.GoPrevious()
	if errors.Is(err, session.ErrAtFirstQuestion) {
		return true, nil
	}
	return false, err
}

// Close abandons a session. Closing an unknown session is not an error.
func (s *SessionService) Close(id string) {
	s.sessions.Delete(id)
}

// Count returns the number of registered sessions, expired ones included
// until the janitor runs.
func (s *SessionService) Count() int {
	return s.sessions.ItemCount()
}

// Shutdown closes every live session.
func (s *SessionService) Shutdown() {
	s.sessions.DeleteExpired()
	for id := range s.sessions.Items() {
		s.sessions.Delete(id)
	}
}

func janitorInterval(ttl time.Duration) time.Duration {
	interval := ttl / 4
	if interval > time.Minute {
		interval = time.Minute
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return interval
}
