package domain

import (
	"slices"
	"time"
)

// ConversationState is the orchestrator state of a session
type ConversationState string

const (
	StateAwaitingIntent        ConversationState = "AWAITING_INTENT"
	StateAwaitingClarification ConversationState = "AWAITING_CLARIFICATION"
	StateAwaitingConfirmation  ConversationState = "AWAITING_CONFIRMATION"
	StateComplete              ConversationState = "COMPLETE"
)

// PendingAction is what will happen when the user says yes
type PendingAction struct {
	Kind           IntentKind `json:"kind"`
	RestaurantID   string     `json:"restaurantId,omitempty"`
	RestaurantName string     `json:"restaurantName,omitempty"`
	Slot           TimeSlot   `json:"slot"`
	PartySize      int        `json:"partySize,omitempty"`
	// HoldID is the pending reservation backing a BOOK or MODIFY offer
	HoldID        string     `json:"holdId,omitempty"`
	HoldExpiresAt *time.Time `json:"holdExpiresAt,omitempty"`
	// Contact the reservation will be booked under
	Contact         string `json:"contact,omitempty"`
	CustomerName    string `json:"customerName,omitempty"`
	SpecialRequests string `json:"specialRequests,omitempty"`
	// ReservationID is the existing reservation a CANCEL or MODIFY acts on
	ReservationID string `json:"reservationId,omitempty"`
	// Tried are restaurants already offered during this booking attempt
	Tried []string `json:"tried,omitempty"`
}

// SessionState is everything remembered about one conversation
type SessionState struct {
	ID           string            `json:"id"`
	State        ConversationState `json:"state"`
	Slots        IntentSlots       `json:"slots"`
	Missing      []SlotName        `json:"missing,omitempty"`
	Pending      *PendingAction    `json:"pending,omitempty"`
	LastOffered  []string          `json:"lastOffered,omitempty"`
	Contact      string            `json:"contact"`
	CreatedAt    time.Time         `json:"createdAt"`
	LastActivity time.Time         `json:"lastActivity"`
}

// NewSession creates a session waiting for the first intent
func NewSession(id string, now time.Time) *SessionState {
	return &SessionState{
		ID:           id,
		State:        StateAwaitingIntent,
		Contact:      id,
		CreatedAt:    now,
		LastActivity: now,
	}
}

// Clone returns a deep copy so a turn can be abandoned without touching the stored session
func (s *SessionState) Clone() *SessionState {
	c := *s
	c.Missing = slices.Clone(s.Missing)
	c.LastOffered = slices.Clone(s.LastOffered)
	if s.Slots.Window != nil {
		w := *s.Slots.Window
		c.Slots.Window = &w
	}
	if s.Pending != nil {
		p := *s.Pending
		p.Tried = slices.Clone(s.Pending.Tried)
		if s.Pending.HoldExpiresAt != nil {
			at := *s.Pending.HoldExpiresAt
			p.HoldExpiresAt = &at
		}
		c.Pending = &p
	}
	return &c
}

// Expired returns true if the session was idle for longer than ttl
func (s *SessionState) Expired(now time.Time, ttl time.Duration) bool {
	return ttl > 0 && now.Sub(s.LastActivity) >= ttl
}

// Reset forgets the finished task but keeps who the user is
func (s *SessionState) Reset() {
	s.State = StateAwaitingIntent
	s.Slots = IntentSlots{Contact: s.Slots.Contact, CustomerName: s.Slots.CustomerName}
	s.Missing = nil
	s.Pending = nil
}
