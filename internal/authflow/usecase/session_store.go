package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/shandysiswandi/authgate/internal/authflow/entity"
	"github.com/shandysiswandi/authgate/internal/pkg/clock"
	"github.com/shandysiswandi/authgate/internal/pkg/goerror"
	"github.com/shandysiswandi/authgate/internal/pkg/instrument"
)

type SessionDependency struct {
	Repo       repoPersist
	Clock      clock.Clocker
	Notifier   Notifier
	Instrument instrument.Instrumentation
	// TTL is the lifetime of a persisted record. Defaults to 24h.
	TTL time.Duration
}

// SessionStore owns the in-memory session and its durable snapshot. It is the
// only writer of both.
type SessionStore struct {
	repo     repoPersist
	clock    clock.Clocker
	notifier Notifier
	ins      instrument.Instrumentation
	ttl      time.Duration

	mu     sync.Mutex
	state  entity.Session
	subs   map[int]func(entity.Session)
	nextID int
}

// NewSessionStore builds a store and hydrates it from durable storage.
func NewSessionStore(ctx context.Context, dep SessionDependency) *SessionStore {
	if dep.TTL <= 0 {
		dep.TTL = entity.DefaultSessionTTL
	}

	s := &SessionStore{
		repo:     dep.Repo,
		clock:    dep.Clock,
		notifier: dep.Notifier,
		ins:      dep.Instrument,
		ttl:      dep.TTL,
		subs:     make(map[int]func(entity.Session)),
	}
	s.Hydrate(ctx)

	return s
}

// Hydrate reloads the session from the persisted record. An absent, corrupted
// or expired record yields the empty session and is removed.
func (s *SessionStore) Hydrate(ctx context.Context) entity.Session {
	ctx, span := startSpan(s.ins, ctx, "Hydrate")
	defer span.End()

	next := entity.Session{}

	rec, err := s.repo.LoadRecord(ctx)
	switch {
	case err != nil:
		if errors.Is(err, entity.ErrStorageCorrupted) {
			slog.WarnContext(ctx, "persisted session is corrupted, purging", "error", err)
		} else {
			slog.ErrorContext(ctx, "failed to repo load persisted session", "error", err)
		}
		s.discardRecord(ctx)

	case rec == nil:

	case rec.Expired(s.clock.Now()):
		slog.InfoContext(ctx, "persisted session expired, purging", "expires_at", rec.ExpiresAt)
		s.discardRecord(ctx)

	default:
		next = rec.Session()
	}

	s.update(func(st *entity.Session) { *st = next })

	return next.Clone()
}

func (s *SessionStore) discardRecord(ctx context.Context) {
	if err := s.repo.DeleteRecord(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to repo delete persisted session", "error", err)
	}
}

// Snapshot returns a copy of the current session.
func (s *SessionStore) Snapshot() entity.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state.Clone()
}

func (s *SessionStore) SetUser(u *entity.User) {
	if u != nil {
		cp := *u
		u = &cp
	}
	s.update(func(st *entity.Session) {
		st.User = u
		if u == nil {
			st.IsAuthenticated = false
		}
	})
}

func (s *SessionStore) SetToken(token string) {
	s.update(func(st *entity.Session) {
		st.Token = token
		if token == "" {
			st.IsAuthenticated = false
		}
	})
}

// SetAuthenticated flips the authenticated flag. Authenticating a session that
// lacks a token or a user is ignored.
func (s *SessionStore) SetAuthenticated(b bool) {
	s.update(func(st *entity.Session) {
		if b && (st.Token == "" || st.User == nil) {
			slog.Warn("refusing to authenticate a session without token and user")
			return
		}
		st.IsAuthenticated = b
	})
}

func (s *SessionStore) SetError(msg string) {
	s.update(func(st *entity.Session) { st.Error = msg })
}

func (s *SessionStore) ClearError() {
	s.SetError("")
}

func (s *SessionStore) SetLoading(b bool) {
	s.update(func(st *entity.Session) { st.IsLoading = b })
}

// Persist writes the current session when it is authenticated with a token
// and a user. Any other session is silently skipped.
func (s *SessionStore) Persist(ctx context.Context) error {
	ctx, span := startSpan(s.ins, ctx, "Persist")
	defer span.End()

	snap := s.Snapshot()
	if !snap.Persistable() {
		return nil
	}

	if err := s.repo.SaveRecord(ctx, entity.NewPersistedRecord(snap, s.clock.Now(), s.ttl)); err != nil {
		slog.ErrorContext(ctx, "failed to repo save persisted session", "user_id", snap.User.ID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}

// Logout wipes every stored record, resets the session and confirms to the user.
func (s *SessionStore) Logout(ctx context.Context) error {
	ctx, span := startSpan(s.ins, ctx, "Logout")
	defer span.End()

	purgeErr := s.repo.Purge(ctx)
	if purgeErr != nil {
		slog.ErrorContext(ctx, "failed to repo purge session records", "error", purgeErr)
	}

	s.update(func(st *entity.Session) { *st = entity.Session{} })

	if purgeErr != nil {
		return goerror.NewServer(purgeErr)
	}

	if s.notifier != nil {
		s.notifier.Notify(ctx, entity.MsgLoggedOut)
	}

	return nil
}

// Subscribe registers fn to receive the session after every change. The
// returned function removes the subscription.
func (s *SessionStore) Subscribe(fn func(entity.Session)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Dispose drops every subscriber.
func (s *SessionStore) Dispose() {
	s.mu.Lock()
	s.subs = make(map[int]func(entity.Session))
	s.mu.Unlock()
}

func (s *SessionStore) update(fn func(st *entity.Session)) {
	s.mu.Lock()
	fn(&s.state)
	snap := s.state.Clone()
	subs := make([]func(entity.Session), 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub(snap.Clone())
	}
}
