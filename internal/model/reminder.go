package model

import (
	"regexp"
	"time"

	"github.com/google/uuid"
)

// timeOfDayPattern matches a zero-padded 24-hour HH:MM clock time.
var timeOfDayPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// Reminder is a time-of-day medication alert. Time carries no zone and is
// interpreted in the device's local timezone.
type Reminder struct {
	ID           uuid.UUID `json:"id"`
	MedicineName string    `json:"medicine_name"`
	Time         string    `json:"time"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// ValidTimeOfDay reports whether s is a well-formed HH:MM 24-hour time.
func ValidTimeOfDay(s string) bool {
	return timeOfDayPattern.MatchString(s)
}

type CreateReminderRequest struct {
	MedicineName string `json:"medicine_name"`
	Time         string `json:"time"`
}

// FiredReminder is the event published when an active reminder matches the
// current wall-clock minute.
type FiredReminder struct {
	UserID   uuid.UUID `json:"user_id"`
	Reminder *Reminder `json:"reminder"`
	FiredAt  time.Time `json:"fired_at"`
}
