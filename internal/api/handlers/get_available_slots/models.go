package get_available_slots

import (
	"strconv"
	"time"

	"github.com/m04kA/SMC-TableBooking/internal/domain"
	getAvailableSlots "github.com/m04kA/SMC-TableBooking/internal/usecase/get_available_slots"
)

// AvailableSlotsResponse HTTP response model
type AvailableSlotsResponse struct {
	Date           string          `json:"date"`
	RestaurantID   string          `json:"restaurantId"`
	RestaurantName string          `json:"restaurantName"`
	Timezone       string          `json:"timezone"`
	Slots          []AvailableSlot `json:"slots"`
}

// AvailableSlot модель временного слота
type AvailableSlot struct {
	Start          string  `json:"start"`
	End            string  `json:"end"`
	StartTime      string  `json:"startTime"`
	AvailableSeats int     `json:"availableSeats"`
	TotalSeats     int     `json:"totalSeats"`
	Fits           bool    `json:"fits"`
	OccupancyRate  float64 `json:"occupancyRate"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *getAvailableSlots.Response) *AvailableSlotsResponse {
	slots := make([]AvailableSlot, len(resp.Slots))
	for i, slot := range resp.Slots {
		slots[i] = AvailableSlot{
			Start:          slot.Start.Format(time.RFC3339),
			End:            slot.End.Format(time.RFC3339),
			StartTime:      slot.Start.Format(domain.TimeFormat),
			AvailableSeats: slot.AvailableSeats,
			TotalSeats:     slot.TotalSeats,
			Fits:           slot.Fits,
			OccupancyRate:  slot.OccupancyRate,
		}
	}

	return &AvailableSlotsResponse{
		Date:           resp.Date.Format(domain.DateFormat),
		RestaurantID:   resp.RestaurantID,
		RestaurantName: resp.RestaurantName,
		Timezone:       resp.Timezone,
		Slots:          slots,
	}
}

// ToUseCaseRequest создает запрос use case из query параметров
// partySize необязателен: пустая строка означает 0
func ToUseCaseRequest(restaurantID, dateStr, partySizeStr string) (*getAvailableSlots.Request, error) {
	// Парсим дату
	date, err := time.Parse(domain.DateFormat, dateStr)
	if err != nil {
		return nil, err
	}

	partySize := 0
	if partySizeStr != "" {
		partySize, err = strconv.Atoi(partySizeStr)
		if err != nil {
			return nil, err
		}
	}

	return &getAvailableSlots.Request{
		RestaurantID: restaurantID,
		Date:         date,
		PartySize:    partySize,
	}, nil
}
