package client

import "time"

// Watchdog times the round trip of the last forwarded command.  A
// zero sentAt means no reply is outstanding.
type Watchdog struct {
	Budget time.Duration
	Now    func() time.Time

	sentAt time.Time
}

// NewWatchdog returns a disarmed watchdog using the wall clock.
func NewWatchdog(budget time.Duration) *Watchdog {
	return &Watchdog{Budget: budget, Now: time.Now}
}

// Arm records that a command was just sent.
func (w *Watchdog) Arm() { w.sentAt = w.Now() }

// Clear records that the peer answered.
func (w *Watchdog) Clear() { w.sentAt = time.Time{} }

// Armed reports whether a reply is outstanding.
func (w *Watchdog) Armed() bool { return !w.sentAt.IsZero() }

// Elapsed is the time since the outstanding command was sent.
func (w *Watchdog) Elapsed() time.Duration {
	if !w.Armed() {
		return 0
	}
	return w.Now().Sub(w.sentAt)
}

// Expired reports whether the outstanding reply is overdue.
func (w *Watchdog) Expired() bool {
	return w.Armed() && w.Elapsed() > w.Budget
}
