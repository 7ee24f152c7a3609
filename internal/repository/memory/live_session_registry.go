package memory

import (
	"context"
	"sync"
	"time"

	"github.com/capitalrow/MinaProd-sub007/pkg/stt"
	"github.com/capitalrow/MinaProd-sub007/pkg/transcript"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// LiveSession is the in-process state of one ACTIVE recording: the queue
// feeding its ingest worker, the reconciler that worker owns, and the handles
// needed to retire it. Queue is never closed; retirement cancels Ctx and the
// worker and any blocked submitter observe it.
type LiveSession struct {
	SessionID  uuid.UUID
	TraceID    uuid.UUID
	UserID     uuid.UUID
	Queue      chan stt.Chunk
	Reconciler *transcript.Reconciler
	Ctx        context.Context
	Cancel     context.CancelFunc

	mu        sync.Mutex
	idleTimer *time.Timer
	retired   bool
}

// StartIdleTimer arms the auto-finalize timer. onIdle runs on its own
// goroutine when the session has seen no chunk for the full window.
func (s *LiveSession) StartIdleTimer(d time.Duration, onIdle func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.retired {
		return
	}
	s.idleTimer = time.AfterFunc(d, onIdle)
}

// Touch pushes the idle deadline out. Every received chunk counts, including
// silence the gate refused to forward.
func (s *LiveSession) Touch(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.retired || s.idleTimer == nil {
		return
	}
	s.idleTimer.Reset(d)
}

// Retire stops the idle timer and cancels the worker. Safe to call more than
// once.
func (s *LiveSession) Retire() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.retired {
		return
	}
	s.retired = true
	if s.idleTimer != nil {
		s.idleTimer.Stop()
	}
	s.Cancel()
}

// Retired reports whether the session has been handed off to finalization.
func (s *LiveSession) Retired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.retired
}

// LiveSessionRegistry tracks ACTIVE recordings in process memory. Entries
// never expire on their own: the idle timer guarantees every live session is
// eventually retired and deleted.
type LiveSessionRegistry struct {
	cache *cache.Cache
}

func NewLiveSessionRegistry() *LiveSessionRegistry {
	c := cache.New(cache.NoExpiration, 10*time.Minute)
	return &LiveSessionRegistry{
		cache: c,
	}
}

func (r *LiveSessionRegistry) Save(session *LiveSession) {
	r.cache.Set(session.SessionID.String(), session, cache.NoExpiration)
}

func (r *LiveSessionRegistry) Get(sessionID uuid.UUID) (*LiveSession, bool) {
	if x, found := r.cache.Get(sessionID.String()); found {
		return x.(*LiveSession), true
	}
	return nil, false
}

func (r *LiveSessionRegistry) Delete(sessionID uuid.UUID) {
	r.cache.Delete(sessionID.String())
}
