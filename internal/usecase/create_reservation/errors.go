package create_reservation

import "errors"

var (
	// ErrRestaurantNotFound возвращается, когда ресторан не найден
	ErrRestaurantNotFound = errors.New("create_reservation: restaurant not found")

	// ErrInvalidDate возвращается при дате в прошлом
	ErrInvalidDate = errors.New("create_reservation: invalid reservation date")

	// ErrDateTooFarInFuture возвращается, когда дата дальше горизонта бронирования
	ErrDateTooFarInFuture = errors.New("create_reservation: date is too far in the future")

	// ErrRestaurantClosed возвращается, когда ресторан закрыт в указанную дату
	ErrRestaurantClosed = errors.New("create_reservation: restaurant is closed on this date")

	// ErrInvalidTimeSlot возвращается, когда время не совпадает ни с одним слотом ресторана
	ErrInvalidTimeSlot = errors.New("create_reservation: invalid time slot")

	// ErrTooLateToBook возвращается, когда слот уже начался
	ErrTooLateToBook = errors.New("create_reservation: too late to book this slot")

	// ErrSlotNotAvailable возвращается, когда в слоте не хватает мест
	ErrSlotNotAvailable = errors.New("create_reservation: slot is not available")

	// ErrConflict конкурентная запись не прошла даже после повтора; запрос можно повторить
	ErrConflict = errors.New("create_reservation: concurrent write conflict")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("create_reservation: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_reservation: internal error")
)
