package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAwaitingSession(t *testing.T, st *SessionStore, email string) *GuestSession {
	t.Helper()
	s, err := st.NewSession(email, "Test User", "+919800000000")
	require.NoError(t, err)
	require.True(t, s.fire(eventSubmit).Processed)
	require.True(t, s.fire(eventIntakeOK).Processed)
	return s
}

func TestSessionMachineHappyPath(t *testing.T) {
	st := NewSessionStore()
	s, err := st.NewSession("a@example.com", "A", "1")
	require.NoError(t, err)

	assert.Equal(t, SessionIdle, s.State())
	assert.True(t, s.fire(eventSubmit).StateChanged)
	assert.Equal(t, SessionSubmittingIntake, s.State())
	assert.True(t, s.fire(eventIntakeOK).StateChanged)
	assert.Equal(t, SessionAwaitingOtp, s.State())
	assert.True(t, s.fire(eventVerify).StateChanged)
	assert.Equal(t, SessionSubmittingVerify, s.State())
	assert.True(t, s.fire(eventVerifyOK).StateChanged)
	assert.Equal(t, SessionSucceeded, s.State())
}

func TestSessionMachineFailureBranches(t *testing.T) {
	st := NewSessionStore()
	s, err := st.NewSession("a@example.com", "A", "1")
	require.NoError(t, err)

	s.fire(eventSubmit)
	s.fire(eventIntakeFailed)
	assert.Equal(t, SessionIntakeFailed, s.State())

	// A retry re-submits from the failure state
	assert.True(t, s.fire(eventSubmit).StateChanged)
	assert.Equal(t, SessionSubmittingIntake, s.State())

	s.fire(eventIntakeOK)
	s.fire(eventVerify)
	s.fire(eventVerifyFailed)
	// Verify failure returns to awaiting, not to idle
	assert.Equal(t, SessionAwaitingOtp, s.State())
}

func TestSessionMachineRejectsWrongStateEvents(t *testing.T) {
	st := NewSessionStore()
	s, err := st.NewSession("a@example.com", "A", "1")
	require.NoError(t, err)

	// Verify before intake completes is not a legal event
	res := s.fire(eventVerify)
	assert.False(t, res.StateChanged)
	assert.Equal(t, SessionIdle, s.State())

	// Resend only applies while awaiting
	res = s.fire(eventResend)
	assert.False(t, res.StateChanged)
}

func TestSessionResendSelfLoop(t *testing.T) {
	st := NewSessionStore()
	s := newAwaitingSession(t, st, "a@example.com")

	res := s.fire(eventResend)
	assert.True(t, res.Processed)
	assert.Equal(t, SessionAwaitingOtp, s.State())
}

func TestSessionCancelReturnsToIdle(t *testing.T) {
	st := NewSessionStore()
	s := newAwaitingSession(t, st, "a@example.com")

	assert.True(t, s.fire(eventCancel).StateChanged)
	assert.Equal(t, SessionIdle, s.State())
}

func TestStoreReplacementInvalidatesPriorSession(t *testing.T) {
	st := NewSessionStore()
	first := newAwaitingSession(t, st, "a@example.com")
	second := newAwaitingSession(t, st, "a@example.com")

	assert.False(t, st.IsActive(first))
	assert.True(t, st.IsActive(second))
	assert.Equal(t, 1, st.Count())

	got, ok := st.GetByEmail("a@example.com")
	require.True(t, ok)
	assert.Same(t, second, got)

	// The replaced session is no longer reachable by id either
	_, ok = st.GetByID(first.ID)
	assert.False(t, ok)
}

func TestStoreRemove(t *testing.T) {
	st := NewSessionStore()
	s := newAwaitingSession(t, st, "a@example.com")

	st.Remove(s)
	assert.False(t, st.IsActive(s))
	assert.Zero(t, st.Count())

	// Removing twice is harmless
	st.Remove(s)
}

func TestRemainingSecondsNeverNegative(t *testing.T) {
	s := &GuestSession{ExpiresAt: time.Now().Add(-time.Minute)}
	assert.Zero(t, s.RemainingSeconds(time.Now()))

	s.ExpiresAt = time.Now().Add(30 * time.Second)
	remaining := s.RemainingSeconds(time.Now())
	assert.Greater(t, remaining, 0)
	assert.LessOrEqual(t, remaining, 30)
}

func TestSweepExpiredKeepsLiveSessions(t *testing.T) {
	st := NewSessionStore()
	live := newAwaitingSession(t, st, "live@example.com")
	live.ExpiresAt = time.Now().Add(5 * time.Minute)

	stale := newAwaitingSession(t, st, "stale@example.com")
	stale.ExpiresAt = time.Now().Add(-30 * time.Minute)

	assert.Equal(t, 1, st.SweepExpired(10*time.Minute))
	assert.True(t, st.IsActive(live))
	assert.False(t, st.IsActive(stale))
}
