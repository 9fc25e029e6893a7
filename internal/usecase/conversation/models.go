package conversation

import (
	"time"

	"github.com/m04kA/SMC-TableBooking/internal/domain"
)

// Request одна реплика пользователя
type Request struct {
	// SessionID пустой - начать новую сессию
	SessionID string
	Utterance string
}

// Response ответ на реплику
type Response struct {
	SessionID string
	State     domain.ConversationState
	Text      string
	Payload   *Payload
	// Failed ход не выполнен, сессия осталась как была
	Failed bool
	// Retryable ту же реплику можно отправить повторно
	Retryable bool
}

// PayloadKind тип структурированной части ответа
type PayloadKind string

const (
	PayloadRestaurants   PayloadKind = "restaurants"
	PayloadConfirmation  PayloadKind = "confirmation"
	PayloadReceipt       PayloadKind = "receipt"
	PayloadClarification PayloadKind = "clarification"
)

// Payload заполнено поле, соответствующее Kind
type Payload struct {
	Kind         PayloadKind
	Restaurants  []RestaurantItem
	NoExactMatch bool
	Confirmation *ConfirmationPrompt
	Receipt      *Receipt
	Missing      []domain.SlotName
}

// RestaurantItem ресторан в списке рекомендаций
type RestaurantItem struct {
	ID         string
	Name       string
	Cuisine    string
	City       string
	Location   string
	PriceRange domain.PriceRange
	Rating     float64
	Capacity   int
	Headroom   int
}

// ConfirmationPrompt что произойдет после ответа "да"
type ConfirmationPrompt struct {
	Action         domain.IntentKind
	RestaurantID   string
	RestaurantName string
	Start          time.Time
	End            time.Time
	PartySize      int
	HoldExpiresAt  *time.Time
	// ReservationID существующее бронирование для CANCEL и MODIFY
	ReservationID string
}

// Receipt итог выполненного действия
type Receipt struct {
	ReservationID    string
	ConfirmationCode string
	RestaurantID     string
	RestaurantName   string
	Start            time.Time
	End              time.Time
	PartySize        int
	Status           domain.ReservationStatus
}

const (
	maxUtteranceLength  = 1000
	defaultStoreTimeout = 5 * time.Second
	defaultMaxOffered   = 5
	defaultMaxAttempts  = 5
	defaultLockStripes  = 64
)
