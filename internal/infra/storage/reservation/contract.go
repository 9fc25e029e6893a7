package reservation

import (
	"github.com/m04kA/SMC-TableBooking/pkg/dbmetrics"
)

// Переиспользуем интерфейс из dbmetrics для работы с БД
type DBExecutor = dbmetrics.DBExecutor
