package services

import (
	"log"
	"sync"
	"time"

	"github.com/anggasct/fluo"
	"github.com/google/uuid"
)

// ============================================================
// Guest submission session - one per in-progress guest complaint
// ============================================================

// Session lifecycle states. Failure states return control to their
// preceding state so the submitter's data survives a retry.
const (
	SessionIdle             = "idle"
	SessionSubmittingIntake = "submitting_intake"
	SessionIntakeFailed     = "intake_failed"
	SessionAwaitingOtp      = "awaiting_otp"
	SessionSubmittingVerify = "submitting_verify"
	SessionSucceeded        = "succeeded"
)

// Session lifecycle events
const (
	eventSubmit       = "submit"
	eventIntakeOK     = "intake_ok"
	eventIntakeFailed = "intake_failed"
	eventVerify       = "verify"
	eventVerifyOK     = "verify_ok"
	eventVerifyFailed = "verify_failed"
	eventResend       = "resend"
	eventCancel       = "cancel"
)

// newSessionDefinition builds the guest submission state machine.
// A verify failure transitions back to awaiting_otp (not idle) so the
// already-entered complaint data and the session survive; an intake
// failure parks in intake_failed from where a retry re-submits.
func newSessionDefinition() fluo.MachineDefinition {
	return fluo.NewMachine().
		State(SessionIdle).Initial().
		To(SessionSubmittingIntake).On(eventSubmit).
		State(SessionSubmittingIntake).
		To(SessionAwaitingOtp).On(eventIntakeOK).
		To(SessionIntakeFailed).On(eventIntakeFailed).
		State(SessionIntakeFailed).
		To(SessionSubmittingIntake).On(eventSubmit).
		State(SessionAwaitingOtp).
		To(SessionSubmittingVerify).On(eventVerify).
		ToSelf().On(eventResend).
		To(SessionIdle).On(eventCancel).
		State(SessionSubmittingVerify).
		To(SessionSucceeded).On(eventVerifyOK).
		To(SessionAwaitingOtp).On(eventVerifyFailed).
		State(SessionSucceeded).Final().
		Build()
}

// GuestSession is the server-held state of one guest submission
type GuestSession struct {
	ID       string
	Email    string
	FullName string
	Phone    string

	CodeHash  string
	ExpiresAt time.Time
	Attempts  int
	Resends   int
	LastSent  time.Time
	CreatedAt time.Time

	// LastError carries the most recent failure reason for the session,
	// distinct from field-level validation errors
	LastError string

	machine fluo.Machine
	mu      sync.Mutex
}

// State returns the current lifecycle state
func (s *GuestSession) State() string {
	return s.machine.CurrentState()
}

// RemainingSeconds returns the countdown value: never negative, zero
// exactly when the code has expired
func (s *GuestSession) RemainingSeconds(now time.Time) int {
	remaining := int(s.ExpiresAt.Sub(now).Seconds())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Expired reports whether the code TTL has lapsed
func (s *GuestSession) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// fire sends a lifecycle event to the session machine
func (s *GuestSession) fire(event string) *fluo.EventResult {
	return s.machine.HandleEvent(event, nil)
}

// ============================================================
// In-memory session store
// ============================================================

// SessionStore holds active guest sessions in memory, one per email.
// A new intake for the same email replaces the prior session.
type SessionStore struct {
	mu      sync.RWMutex
	byEmail map[string]*GuestSession
	byID    map[string]*GuestSession
}

// NewSessionStore creates an empty session store
func NewSessionStore() *SessionStore {
	return &SessionStore{
		byEmail: make(map[string]*GuestSession),
		byID:    make(map[string]*GuestSession),
	}
}

// NewSession creates and registers a session, replacing any prior
// session for the same email
func (st *SessionStore) NewSession(email, fullName, phone string) (*GuestSession, error) {
	machine := newSessionDefinition().CreateInstance()
	if err := machine.Start(); err != nil {
		return nil, err
	}

	session := &GuestSession{
		ID:        uuid.New().String(),
		Email:     email,
		FullName:  fullName,
		Phone:     phone,
		CreatedAt: time.Now(),
		machine:   machine,
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if prior, ok := st.byEmail[email]; ok {
		delete(st.byID, prior.ID)
	}
	st.byEmail[email] = session
	st.byID[session.ID] = session
	return session, nil
}

// GetByEmail returns the active session for an email
func (st *SessionStore) GetByEmail(email string) (*GuestSession, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.byEmail[email]
	return s, ok
}

// GetByID returns a session by its identifier
func (st *SessionStore) GetByID(id string) (*GuestSession, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.byID[id]
	return s, ok
}

// IsActive reports whether the given session is still the registered
// session for its email. Async continuations use this as their
// relevance guard: a late result against a replaced or removed session
// must be discarded.
func (st *SessionStore) IsActive(session *GuestSession) bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	current, ok := st.byEmail[session.Email]
	return ok && current.ID == session.ID
}

// Remove drops a session from the store
func (st *SessionStore) Remove(session *GuestSession) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if current, ok := st.byEmail[session.Email]; ok && current.ID == session.ID {
		delete(st.byEmail, session.Email)
	}
	delete(st.byID, session.ID)
}

// SweepExpired removes sessions whose code TTL lapsed more than the
// grace period ago. The TTL itself is authoritative; the sweep only
// reclaims memory for abandoned sessions.
func (st *SessionStore) SweepExpired(grace time.Duration) int {
	st.mu.Lock()
	defer st.mu.Unlock()

	cutoff := time.Now().Add(-grace)
	removed := 0
	for email, s := range st.byEmail {
		// Sessions that never got a code expire on CreatedAt instead
		deadline := s.ExpiresAt
		if deadline.IsZero() {
			deadline = s.CreatedAt
		}
		if deadline.Before(cutoff) {
			delete(st.byEmail, email)
			delete(st.byID, s.ID)
			removed++
		}
	}
	if removed > 0 {
		log.Printf("🧹 Removed %d expired guest sessions", removed)
	}
	return removed
}

// Count returns the number of active sessions
func (st *SessionStore) Count() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.byEmail)
}
