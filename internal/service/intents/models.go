package intents

import "github.com/m04kA/SMC-TableBooking/internal/domain"

// Result разбор одной реплики
// Заполнено ровно одно из Intent и Clarification
type Result struct {
	// Slots слоты сессии после слияния с новой репликой
	Slots         domain.IntentSlots
	Intent        *domain.BookingIntent
	Clarification *domain.ClarificationRequest
	// Reply ответ да/нет на вопрос подтверждения, если он был
	Reply domain.Reply
	// Selection ресторан, выбранный из последнего списка ("второй")
	Selection string
	// Changed реплика принесла новые значения слотов или новый тип намерения
	Changed bool
}

// Complete true, если намерение можно исполнять
func (r *Result) Complete() bool {
	return r.Intent != nil
}

// Результаты вызова NLP для метрик
const (
	resultOK      = "ok"
	resultTimeout = "timeout"
	resultError   = "error"
)
