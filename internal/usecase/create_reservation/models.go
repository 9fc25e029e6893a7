package create_reservation

import (
	"time"

	"github.com/m04kA/SMC-TableBooking/pkg/types"
)

// Request модель запроса на создание бронирования
type Request struct {
	RestaurantID    string           // ID ресторана
	Date            time.Time        // Дата бронирования (без времени), трактуется в часовом поясе ресторана
	StartTime       types.TimeString // Время начала слота (например, "19:30")
	PartySize       int              // Количество гостей
	Contact         string           // Email или телефон гостя
	CustomerName    string           // Имя гостя (опционально)
	SpecialRequests string           // Пожелания (опционально)
}

// Response модель ответа с созданным бронированием
type Response struct {
	ID               string
	ConfirmationCode string
	RestaurantID     string
	RestaurantName   string
	Start            time.Time
	End              time.Time
	PartySize        int
	Status           string
	CustomerName     string
	SpecialRequests  string
	CreatedAt        time.Time
}
