package post_message

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-TableBooking/internal/domain"
	"github.com/m04kA/SMC-TableBooking/internal/usecase/conversation"
	"github.com/m04kA/SMC-TableBooking/pkg/logger"
)

type stubUseCase struct {
	got  *conversation.Request
	resp *conversation.Response
	err  error
}

func (s *stubUseCase) Execute(_ context.Context, req *conversation.Request) (*conversation.Response, error) {
	s.got = req
	if s.err != nil {
		return nil, s.err
	}
	resp := *s.resp
	if resp.SessionID == "" {
		resp.SessionID = req.SessionID
	}
	return &resp, nil
}

func newRouter(uc ConversationUseCase) *mux.Router {
	h := NewHandler(uc, logger.NewNop())
	router := mux.NewRouter()
	router.HandleFunc("/api/v1/messages", h.Handle).Methods(http.MethodPost)
	router.HandleFunc("/api/v1/sessions/{sessionId}/messages", h.Handle).Methods(http.MethodPost)
	return router
}

func post(router http.Handler, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, path, strings.NewReader(body)))
	return w
}

func TestHandle_SessionFromPath(t *testing.T) {
	start := time.Date(2026, 3, 12, 19, 0, 0, 0, time.UTC)
	expires := time.Date(2026, 3, 11, 12, 5, 0, 0, time.UTC)
	uc := &stubUseCase{resp: &conversation.Response{
		State: domain.StateAwaitingConfirmation,
		Text:  "Shall I book it?",
		Payload: &conversation.Payload{
			Kind: conversation.PayloadConfirmation,
			Confirmation: &conversation.ConfirmationPrompt{
				Action:         domain.IntentBook,
				RestaurantID:   "bella-roma",
				RestaurantName: "Bella Roma",
				Start:          start,
				End:            start.Add(90 * time.Minute),
				PartySize:      4,
				HoldExpiresAt:  &expires,
			},
		},
	}}

	w := post(newRouter(uc), "/api/v1/sessions/abc/messages", `{"text":"table for 4 at Bella Roma tomorrow at 7pm"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc", uc.got.SessionID)

	var resp MessageResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "abc", resp.SessionID)
	assert.Equal(t, "AWAITING_CONFIRMATION", resp.State)
	require.NotNil(t, resp.Payload)
	require.NotNil(t, resp.Payload.Confirmation)
	assert.Equal(t, "BOOK", resp.Payload.Confirmation.Action)
	assert.Equal(t, "2026-03-12T19:00:00Z", resp.Payload.Confirmation.Start)
	require.NotNil(t, resp.Payload.Confirmation.HoldExpiresAt)
	assert.Equal(t, "2026-03-11T12:05:00Z", *resp.Payload.Confirmation.HoldExpiresAt)
}

func TestHandle_NewSession(t *testing.T) {
	uc := &stubUseCase{resp: &conversation.Response{
		SessionID: "generated",
		State:     domain.StateAwaitingClarification,
		Text:      "How many guests?",
		Payload: &conversation.Payload{
			Kind:    conversation.PayloadClarification,
			Missing: []domain.SlotName{domain.SlotPartySize},
		},
	}}

	w := post(newRouter(uc), "/api/v1/messages", `{"text":"book italian tomorrow"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Empty(t, uc.got.SessionID)

	var resp MessageResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "generated", resp.SessionID)
	assert.Equal(t, []string{"party_size"}, resp.Payload.Missing)
}

func TestHandle_FailedTurnIsNotAnHTTPError(t *testing.T) {
	uc := &stubUseCase{resp: &conversation.Response{
		State:     domain.StateAwaitingIntent,
		Text:      "Sorry, that took too long. Please try again.",
		Failed:    true,
		Retryable: true,
	}}

	w := post(newRouter(uc), "/api/v1/sessions/abc/messages", `{"text":"hello"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"retryable":true`)
}

func TestHandle_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
	}{
		{"bad json", `{"text":`, nil, http.StatusBadRequest},
		{"invalid input", `{"text":""}`, fmt.Errorf("%w: empty utterance", conversation.ErrInvalidInput), http.StatusBadRequest},
		{"unexpected", `{"text":"hi"}`, errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &stubUseCase{err: tt.err, resp: &conversation.Response{}}
			w := post(newRouter(uc), "/api/v1/sessions/abc/messages", tt.body)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}
