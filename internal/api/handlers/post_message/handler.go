package post_message

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-TableBooking/internal/api/handlers"
	"github.com/m04kA/SMC-TableBooking/internal/usecase/conversation"
)

const (
	msgInvalidRequestBody = "invalid request body"
	msgInvalidMessage     = "text must be non-empty and at most 1000 characters"
)

type Handler struct {
	useCase ConversationUseCase
	logger  Logger
}

func NewHandler(useCase ConversationUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/sessions/{sessionId}/messages и POST /api/v1/messages
// Без sessionId начинается новая сессия; ее ID возвращается в ответе
// Сбой хода не ошибка HTTP: клиент получает вежливый ответ с failed=true
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req MessageRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /messages - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	sessionID := req.SessionID
	if id, ok := mux.Vars(r)["sessionId"]; ok {
		sessionID = id
	}

	result, err := h.useCase.Execute(r.Context(), &conversation.Request{
		SessionID: sessionID,
		Utterance: req.Text,
	})
	if err != nil {
		if errors.Is(err, conversation.ErrInvalidInput) {
			h.logger.Warn("POST /messages - Invalid message: session_id=%s, error=%v", sessionID, err)
			handlers.RespondBadRequest(w, msgInvalidMessage)
			return
		}
		h.logger.Error("POST /messages - Failed to handle message: session_id=%s, error=%v", sessionID, err)
		handlers.RespondInternalError(w)
		return
	}

	status := http.StatusOK
	if sessionID == "" {
		status = http.StatusCreated
	}

	h.logger.Info("POST /messages - Turn handled: session_id=%s, state=%s, failed=%t",
		result.SessionID, result.State, result.Failed)
	handlers.RespondJSON(w, status, FromUseCaseResponse(result))
}
