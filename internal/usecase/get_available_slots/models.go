package get_available_slots

import "time"

// Request модель запроса на получение доступных слотов
type Request struct {
	RestaurantID string    // ID ресторана
	Date         time.Time // Дата (без времени), трактуется в часовом поясе ресторана
	PartySize    int       // Количество гостей; 0 - показать все слоты
}

// Response модель ответа со списком слотов
type Response struct {
	Date           time.Time // Начало дня в часовом поясе ресторана
	RestaurantID   string
	RestaurantName string
	Timezone       string
	Slots          []Slot
}

// Slot модель временного слота
type Slot struct {
	Start          time.Time
	End            time.Time
	AvailableSeats int     // Количество свободных мест
	TotalSeats     int     // Вместимость ресторана
	Fits           bool    // Хватает ли мест для PartySize
	OccupancyRate  float64 // Процент занятых мест, 0-100
}
