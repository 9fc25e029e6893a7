package create_reservation

import (
	"errors"
	"time"

	"github.com/m04kA/SMC-TableBooking/internal/domain"
	createReservation "github.com/m04kA/SMC-TableBooking/internal/usecase/create_reservation"
	"github.com/m04kA/SMC-TableBooking/pkg/types"
)

var (
	errInvalidDate = errors.New("invalid reservation date")
	errInvalidTime = errors.New("invalid start time")
)

// CreateReservationRequest HTTP request model
type CreateReservationRequest struct {
	RestaurantID    string `json:"restaurantId"`
	Date            string `json:"date"`      // "2026-03-11"
	StartTime       string `json:"startTime"` // "19:30"
	PartySize       int    `json:"partySize"`
	Contact         string `json:"contact"`
	CustomerName    string `json:"customerName,omitempty"`
	SpecialRequests string `json:"specialRequests,omitempty"`
}

// ReservationResponse HTTP response model
type ReservationResponse struct {
	ID               string `json:"id"`
	ConfirmationCode string `json:"confirmationCode"`
	RestaurantID     string `json:"restaurantId"`
	RestaurantName   string `json:"restaurantName"`
	Start            string `json:"start"`
	End              string `json:"end"`
	PartySize        int    `json:"partySize"`
	Status           string `json:"status"`
	CustomerName     string `json:"customerName,omitempty"`
	SpecialRequests  string `json:"specialRequests,omitempty"`
	CreatedAt        string `json:"createdAt"`
}

// SlotNotAvailableResponse ответ 409, remainingCapacity - сколько мест еще свободно в слоте
type SlotNotAvailableResponse struct {
	Code              int    `json:"code"`
	Message           string `json:"message"`
	RemainingCapacity *int   `json:"remainingCapacity,omitempty"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CreateReservationRequest) ToUseCaseRequest() (*createReservation.Request, error) {
	// Парсим дату
	date, err := time.Parse(domain.DateFormat, r.Date)
	if err != nil {
		return nil, errInvalidDate
	}

	// Парсим время
	startTime, err := types.NewTimeStringFromString(r.StartTime)
	if err != nil {
		return nil, errInvalidTime
	}

	return &createReservation.Request{
		RestaurantID:    r.RestaurantID,
		Date:            date,
		StartTime:       startTime,
		PartySize:       r.PartySize,
		Contact:         r.Contact,
		CustomerName:    r.CustomerName,
		SpecialRequests: r.SpecialRequests,
	}, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *createReservation.Response) *ReservationResponse {
	return &ReservationResponse{
		ID:               resp.ID,
		ConfirmationCode: resp.ConfirmationCode,
		RestaurantID:     resp.RestaurantID,
		RestaurantName:   resp.RestaurantName,
		Start:            resp.Start.Format(time.RFC3339),
		End:              resp.End.Format(time.RFC3339),
		PartySize:        resp.PartySize,
		Status:           resp.Status,
		CustomerName:     resp.CustomerName,
		SpecialRequests:  resp.SpecialRequests,
		CreatedAt:        resp.CreatedAt.Format(time.RFC3339),
	}
}
