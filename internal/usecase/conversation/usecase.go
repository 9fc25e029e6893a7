package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-TableBooking/internal/domain"
	"github.com/m04kA/SMC-TableBooking/internal/infra/storage/session"
)

// UseCase оркестратор диалога: реплика -> разбор -> ранжирование/бронирование -> ответ
// Владеет состоянием сессии; сессия сохраняется только после успешного хода
type UseCase struct {
	parser       IntentParser
	engine       AvailabilityEngine
	ranker       Ranker
	sessions     SessionStore
	metrics      MetricsRecorder
	timeProvider TimeProvider
	logger       Logger
	locks        *sessionLocks
	storeTimeout time.Duration
	granularity  time.Duration
	maxOffered   int
	maxAttempts  int
}

// Option настройка UseCase
type Option func(*UseCase)

// WithStoreTimeout ограничивает обращения к хранилищам в одном ходе
func WithStoreTimeout(d time.Duration) Option {
	return func(uc *UseCase) {
		if d > 0 {
			uc.storeTimeout = d
		}
	}
}

// WithGranularity шаг слотов при поиске свободного времени
func WithGranularity(d time.Duration) Option {
	return func(uc *UseCase) {
		if d > 0 {
			uc.granularity = d
		}
	}
}

// WithMaxOffered сколько ресторанов показывать в списке
func WithMaxOffered(n int) Option {
	return func(uc *UseCase) {
		if n > 0 {
			uc.maxOffered = n
		}
	}
}

// WithMaxAttempts сколько ресторанов пробовать, прежде чем сказать, что мест нет
func WithMaxAttempts(n int) Option {
	return func(uc *UseCase) {
		if n > 0 {
			uc.maxAttempts = n
		}
	}
}

func WithLockStripes(n int) Option {
	return func(uc *UseCase) { uc.locks = newSessionLocks(n) }
}

func WithMetrics(m MetricsRecorder) Option {
	return func(uc *UseCase) { uc.metrics = m }
}

func WithTimeProvider(tp TimeProvider) Option {
	return func(uc *UseCase) { uc.timeProvider = tp }
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	parser IntentParser,
	engine AvailabilityEngine,
	ranker Ranker,
	sessions SessionStore,
	logger Logger,
	opts ...Option,
) *UseCase {
	uc := &UseCase{
		parser:       parser,
		engine:       engine,
		ranker:       ranker,
		sessions:     sessions,
		metrics:      noopMetrics{},
		timeProvider: &RealTimeProvider{},
		logger:       logger,
		locks:        newSessionLocks(defaultLockStripes),
		storeTimeout: defaultStoreTimeout,
		granularity:  domain.DefaultSlotGranularity,
		maxOffered:   defaultMaxOffered,
		maxAttempts:  defaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Execute обрабатывает одну реплику
// Ошибки зависимостей не возвращаются: ход завершается вежливым ответом, сессия остается прежней.
// Ошибка возвращается только для некорректного запроса.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("Conversation: validation failed: %v", err)
		return nil, err
	}

	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	uc.logger.Info("Conversation: session=%s, utterance length=%d", sessionID, len(req.Utterance))

	// 2. Ходы одной сессии выполняются строго по очереди
	unlock, err := uc.locks.lock(ctx, sessionID)
	if err != nil {
		return uc.failed(sessionID, domain.StateAwaitingIntent, fmt.Errorf("%w: session lock: %v", domain.ErrTimeout, err)), nil
	}
	defer unlock()

	now := uc.timeProvider.Now()

	// 3. Загружаем сессию или начинаем новую
	stored, err := uc.loadSession(ctx, sessionID, now)
	if err != nil {
		return uc.failed(sessionID, domain.StateAwaitingIntent, err), nil
	}

	// 4. Ход выполняется над копией: при ошибке сохраненная сессия не меняется
	sess := stored.Clone()
	resp, err := uc.turn(ctx, sess, req.Utterance)
	if err != nil {
		return uc.failed(sessionID, stored.State, err), nil
	}

	// 5. COMPLETE завершает попытку, сессия готова к новому запросу
	state := sess.State
	if state == domain.StateComplete {
		sess.Reset()
	}
	sess.LastActivity = now

	// 6. Сохраняем сессию
	if err := uc.saveSession(ctx, sess); err != nil {
		return uc.failed(sessionID, stored.State, err), nil
	}

	uc.metrics.RecordTurn(string(state))
	uc.logger.Info("Conversation: session=%s %s -> %s", sessionID, stored.State, state)

	resp.SessionID = sessionID
	resp.State = state
	return resp, nil
}

// turn выполняет ход над сессией
func (uc *UseCase) turn(ctx context.Context, sess *domain.SessionState, utterance string) (*Response, error) {
	result, err := uc.parser.Parse(ctx, utterance, sess)
	if err != nil {
		return nil, err
	}

	opCtx, cancel := context.WithTimeout(ctx, uc.storeTimeout)
	defer cancel()

	if sess.State == domain.StateAwaitingConfirmation && sess.Pending != nil {
		switch {
		case result.Reply == domain.ReplyYes && !result.Changed:
			return uc.confirm(opCtx, sess)
		case result.Reply == domain.ReplyNo && !result.Changed:
			return uc.decline(opCtx, sess)
		case !result.Changed:
			return uc.repeatPrompt(opCtx, sess)
		}

		// пользователь поменял детали: прежнее предложение снимаем и начинаем заново
		if err := uc.release(opCtx, sess.Pending); err != nil {
			return nil, err
		}
		sess.Pending = nil
	}

	if sess.State == domain.StateAwaitingClarification && result.Reply == domain.ReplyNo && !result.Changed {
		sess.Reset()
		return &Response{Text: msgStartOver}, nil
	}

	sess.Slots = result.Slots
	if !result.Complete() {
		c := result.Clarification
		if c == nil {
			c = &domain.ClarificationRequest{Kind: domain.IntentClarify, Missing: []domain.SlotName{domain.SlotIntent}}
		}
		return uc.clarify(sess, c), nil
	}

	switch result.Intent.Kind {
	case domain.IntentSearch:
		return uc.search(opCtx, sess)
	case domain.IntentBook:
		return uc.offerBooking(opCtx, sess, nil, "")
	case domain.IntentCancel:
		return uc.offerCancel(opCtx, sess)
	case domain.IntentModify:
		return uc.offerModify(opCtx, sess)
	}
	return uc.clarify(sess, &domain.ClarificationRequest{Kind: domain.IntentClarify, Missing: []domain.SlotName{domain.SlotIntent}}), nil
}

func (uc *UseCase) clarify(sess *domain.SessionState, c *domain.ClarificationRequest) *Response {
	sess.State = domain.StateAwaitingClarification
	sess.Missing = c.Missing
	return &Response{
		Text:    clarificationText(c),
		Payload: &Payload{Kind: PayloadClarification, Missing: c.Missing},
	}
}

// failed превращает ошибку хода в ответ пользователю
func (uc *UseCase) failed(sessionID string, state domain.ConversationState, err error) *Response {
	resp := &Response{SessionID: sessionID, State: state, Failed: true}

	switch {
	case errors.Is(err, domain.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		uc.logger.Warn("Conversation: session=%s timed out: %v", sessionID, err)
		resp.Text, resp.Retryable = msgTimeout, true
	case errors.Is(err, domain.ErrUnparseableInput):
		uc.logger.Warn("Conversation: session=%s unparseable input: %v", sessionID, err)
		resp.Text, resp.Retryable = msgUnparseable, true
	case errors.Is(err, domain.ErrConflict):
		uc.logger.Warn("Conversation: session=%s write conflict: %v", sessionID, err)
		resp.Text, resp.Retryable = msgConflict, true
	default:
		uc.logger.Error("Conversation: session=%s turn failed: %v", sessionID, err)
		resp.Text = msgApology
	}

	uc.metrics.RecordTurn("failed")
	return resp
}

func (uc *UseCase) loadSession(ctx context.Context, id string, now time.Time) (*domain.SessionState, error) {
	ctx, cancel := context.WithTimeout(ctx, uc.storeTimeout)
	defer cancel()

	sess, err := uc.sessions.Get(ctx, id)
	switch {
	case err == nil:
		return sess, nil
	case errors.Is(err, session.ErrSessionNotFound):
		uc.logger.Info("Conversation: starting session=%s", id)
		return domain.NewSession(id, now), nil
	case errors.Is(err, context.DeadlineExceeded):
		return nil, fmt.Errorf("%w: load session: %v", domain.ErrTimeout, err)
	}
	return nil, fmt.Errorf("load session: %w", err)
}

func (uc *UseCase) saveSession(ctx context.Context, sess *domain.SessionState) error {
	ctx, cancel := context.WithTimeout(ctx, uc.storeTimeout)
	defer cancel()

	if err := uc.sessions.Save(ctx, sess); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: save session: %v", domain.ErrTimeout, err)
		}
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// location часовой пояс ресторана для текста ответа
func (uc *UseCase) location(ctx context.Context, restaurantID string) *time.Location {
	r, err := uc.engine.Restaurant(ctx, restaurantID)
	if err != nil {
		return time.UTC
	}
	return r.Policy.Location()
}

// contact контакт из реплик, иначе токен сессии
func contact(sess *domain.SessionState) string {
	if sess.Slots.Contact != "" {
		return sess.Slots.Contact
	}
	return sess.Contact
}
