// Package sla computes time-remaining and threat level for an order's
// delivery deadline. Pure functions of (deadline, now) so both the
// dashboard feed and dispatch decisions see the same numbers.
package sla

import "time"

// ThreatLevel buckets how close an order is to breaching its deadline.
type ThreatLevel string

const (
	ThreatSafe     ThreatLevel = "safe"
	ThreatWarning  ThreatLevel = "warning"
	ThreatCritical ThreatLevel = "critical"
)

const (
	// CriticalWindow: anything with less than this left (including already
	// breached) is critical.
	CriticalWindow = 5 * time.Minute
	// WarningWindow: less than this left is at least a warning.
	WarningWindow = 15 * time.Minute
)

// TimeRemaining returns deadline - now, floored at zero.
func TimeRemaining(deadline, now time.Time) time.Duration {
	remaining := deadline.Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Level returns the threat level for the given deadline at the given
// instant. The 5 and 15 minute boundaries are exclusive upper bounds on the
// more urgent band: exactly 5 minutes left is a warning, exactly 15 is safe.
func Level(deadline, now time.Time) ThreatLevel {
	remaining := deadline.Sub(now)
	switch {
	case remaining < CriticalWindow:
		return ThreatCritical
	case remaining < WarningWindow:
		return ThreatWarning
	default:
		return ThreatSafe
	}
}
