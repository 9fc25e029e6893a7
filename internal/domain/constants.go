package domain

import "time"

// Default configuration values
const (
	DefaultSlotGranularity = 30 * time.Minute
	DefaultSeatingDuration = 90 * time.Minute
	DefaultHoldTTL         = 5 * time.Minute
	DefaultTimezone        = "UTC"
)

// Business validation constants
const (
	MaxSlotRange              = 92 * 24 * time.Hour
	MinPartySize              = 1
	MaxPartySize              = 50
	MaxSpecialRequestsLength  = 500
	MaxCancelReasonLength     = 500
	MaxConfirmationCodeLength = 16
)

// Time format constants
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)

// Cancel reasons recorded on reservations
const (
	ReasonHoldExpired  = "hold expired"
	ReasonHoldDeclined = "hold declined"
	ReasonGuestCancel  = "cancelled by guest"
	ReasonRescheduled  = "rescheduled"
)
