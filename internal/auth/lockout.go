package auth

import "time"

const (
	defaultMaxAttempts = 5
	defaultLockWindow  = 2 * time.Hour
)

// LockPolicy is the failed-login threshold state machine.
type LockPolicy struct {
	MaxAttempts int
	Window      time.Duration
}

func DefaultLockPolicy() LockPolicy {
	return LockPolicy{MaxAttempts: defaultMaxAttempts, Window: defaultLockWindow}
}

type LockState struct {
	Attempts  int
	LockUntil *time.Time
}

func (s LockState) Locked(now time.Time) bool {
	return s.LockUntil != nil && s.LockUntil.After(now)
}

// Next applies one failed attempt. An expired lock restarts the count at 1;
// otherwise the count grows and the threshold opens a fresh lock window.
func (p LockPolicy) Next(s LockState, now time.Time) LockState {
	if s.LockUntil != nil && !s.LockUntil.After(now) {
		return LockState{Attempts: 1}
	}

	next := LockState{Attempts: s.Attempts + 1, LockUntil: s.LockUntil}
	if next.Attempts >= p.MaxAttempts && !s.Locked(now) {
		until := now.UTC().Add(p.Window)
		next.LockUntil = &until
	}
	return next
}
