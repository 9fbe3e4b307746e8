package sessions

import (
	"time"

	"github.com/envo-lms/backend/internal/models"
)

// ResolveStatus maps a session's schedule window to its current status.
// Both bounds are inclusive for live: a check exactly at scheduled_start or
// scheduled_end yields live. Pure and total over well-formed schedules
// (scheduled_end > scheduled_start is enforced at creation, not here), so any
// two observers evaluating at the same instant agree.
func ResolveStatus(now, scheduledStart, scheduledEnd time.Time) models.SessionStatus {
	if now.Before(scheduledStart) {
		return models.StatusUpcoming
	}
	if now.After(scheduledEnd) {
		return models.StatusCompleted
	}
	return models.StatusLive
}

// StatusOf resolves the session's status at the given instant.
func StatusOf(s *models.Session, now time.Time) models.SessionStatus {
	return ResolveStatus(now, s.ScheduledStart, s.ScheduledEnd)
}
