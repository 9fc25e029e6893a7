package intents

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/m04kA/SMC-TableBooking/internal/domain"
	"github.com/m04kA/SMC-TableBooking/pkg/timeexpr"
)

const defaultTimeout = 10 * time.Second

// Parser превращает реплику и состояние сессии в намерение или запрос уточнения
// Сам язык не понимает: слоты извлекает NLPBackend, Parser сливает их со слотами сессии
// и решает, чего не хватает
type Parser struct {
	backend      NLPBackend
	timeout      time.Duration
	location     *time.Location
	metrics      MetricsRecorder
	timeProvider TimeProvider
	logger       Logger
}

// Option настройка Parser
type Option func(*Parser)

// WithTimeout ограничивает время вызова NLP бэкенда
func WithTimeout(d time.Duration) Option {
	return func(p *Parser) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithLocation часовой пояс, в котором читаются "завтра в 7"
func WithLocation(loc *time.Location) Option {
	return func(p *Parser) {
		if loc != nil {
			p.location = loc
		}
	}
}

func WithMetrics(m MetricsRecorder) Option {
	return func(p *Parser) { p.metrics = m }
}

func WithTimeProvider(tp TimeProvider) Option {
	return func(p *Parser) { p.timeProvider = tp }
}

func NewParser(backend NLPBackend, logger Logger, opts ...Option) *Parser {
	p := &Parser{
		backend:      backend,
		timeout:      defaultTimeout,
		location:     time.UTC,
		metrics:      noopMetrics{},
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse разбирает реплику в контексте сессии. Сессия не изменяется.
// domain.ErrTimeout - бэкенд не ответил вовремя, domain.ErrUnparseableInput - бэкенд вернул ошибку.
// Во всех остальных случаях результат - намерение или запрос уточнения.
func (p *Parser) Parse(ctx context.Context, utterance string, session *domain.SessionState) (*Result, error) {
	if session == nil {
		return nil, fmt.Errorf("%w: Parse - nil session", domain.ErrInvalidInput)
	}

	result := &Result{Slots: session.Slots}
	if w := session.Slots.Window; w != nil {
		copied := *w
		result.Slots.Window = &copied
	}

	if strings.TrimSpace(utterance) != "" {
		ext, err := p.extract(ctx, utterance, session.Slots)
		if err != nil {
			return nil, err
		}
		p.merge(result, ext, session)
	}

	kind := resolveKind(result.Slots)
	result.Slots.Kind = kind

	missing := Missing(kind, result.Slots)
	if len(missing) > 0 {
		if kind == "" {
			kind = domain.IntentClarify
		}
		result.Clarification = &domain.ClarificationRequest{
			Kind:    kind,
			Missing: missing,
			Residue: result.Slots.Residue,
		}
		return result, nil
	}

	result.Intent = toIntent(result.Slots)
	return result, nil
}

func (p *Parser) extract(ctx context.Context, utterance string, prior domain.IntentSlots) (*domain.ExtractedSlots, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	started := p.timeProvider.Now()
	ext, err := p.backend.ExtractSlots(callCtx, utterance, prior)
	elapsed := p.timeProvider.Now().Sub(started)

	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, domain.ErrTimeout) ||
			errors.Is(callCtx.Err(), context.DeadlineExceeded):
			p.metrics.RecordNLP(resultTimeout, elapsed)
			p.logger.Warn("Parse: NLP backend timed out after %s", elapsed)
			return nil, fmt.Errorf("%w: Parse - nlp backend: %v", domain.ErrTimeout, err)
		case errors.Is(err, context.Canceled):
			return nil, fmt.Errorf("Parse: %w", err)
		default:
			p.metrics.RecordNLP(resultError, elapsed)
			p.logger.Error("Parse: NLP backend failed: %v", err)
			return nil, fmt.Errorf("%w: Parse - nlp backend: %v", domain.ErrUnparseableInput, err)
		}
	}

	p.metrics.RecordNLP(resultOK, elapsed)
	if ext == nil {
		ext = &domain.ExtractedSlots{}
	}
	return ext, nil
}

// merge накладывает новые значения поверх накопленных; отсутствующие значения не трогает
func (p *Parser) merge(result *Result, ext *domain.ExtractedSlots, session *domain.SessionState) {
	slots := &result.Slots

	if ext.Kind.Valid() && ext.Kind != slots.Kind {
		slots.Kind = ext.Kind
		result.Changed = true
	}
	result.Reply = ext.Reply
	slots.Residue = strings.TrimSpace(ext.Residue)

	if v := trimmed(ext.RestaurantName); v != "" {
		slots.RestaurantName = v
		slots.RestaurantID = ""
		result.Changed = true
	}
	if ext.Selection != nil {
		n := *ext.Selection
		if n >= 1 && n <= len(session.LastOffered) {
			slots.RestaurantID = session.LastOffered[n-1]
			slots.RestaurantName = ""
			result.Selection = slots.RestaurantID
			result.Changed = true
		} else {
			p.logger.Warn("Parse: selection %d out of %d offered", n, len(session.LastOffered))
		}
	}
	if v := trimmed(ext.Cuisine); v != "" {
		slots.Cuisine = v
		result.Changed = true
	}
	if ext.PartySize != nil {
		if n := *ext.PartySize; n >= domain.MinPartySize && n <= domain.MaxPartySize {
			slots.PartySize = n
			result.Changed = true
		} else {
			p.logger.Warn("Parse: ignoring party size %d", n)
		}
	}
	if v := trimmed(ext.TimeExpression); v != "" {
		now := p.timeProvider.Now().In(p.location)
		if expr, ok := timeexpr.Parse(v, now); ok {
			slots.Window = &domain.Window{
				Range: domain.TimeRange{Start: expr.Start, End: expr.End},
				Exact: expr.Exact,
			}
			result.Changed = true
		} else {
			p.logger.Info("Parse: could not normalize time expression %q", v)
		}
	}
	if v := trimmed(ext.ReservationRef); v != "" {
		slots.ReservationRef = v
		result.Changed = true
	}
	if v := trimmed(ext.Contact); v != "" {
		slots.Contact = v
	}
	if v := trimmed(ext.CustomerName); v != "" {
		slots.CustomerName = v
	}
	if v := trimmed(ext.SpecialRequests); v != "" {
		slots.SpecialRequests = v
	}
	if v := trimmed(ext.City); v != "" {
		slots.Filters.City = v
		result.Changed = true
	}
	if v := trimmed(ext.PriceRange); v != "" {
		if pr := domain.PriceRange(v); pr.Valid() {
			slots.Filters.PriceRange = pr
			result.Changed = true
		}
	}
	if ext.MinRating != nil && *ext.MinRating > 0 && *ext.MinRating <= 5 {
		slots.Filters.MinRating = *ext.MinRating
		result.Changed = true
	}
}

// resolveKind явный тип намерения, иначе выводится из заполненных слотов
func resolveKind(slots domain.IntentSlots) domain.IntentKind {
	if slots.Kind.Valid() {
		return slots.Kind
	}
	switch {
	case slots.RestaurantID != "", slots.PartySize > 0, slots.Window != nil:
		return domain.IntentBook
	case slots.HasRestaurantOrCuisine(), hasFilters(slots.Filters):
		return domain.IntentSearch
	}
	return ""
}

// Missing возвращает обязательные слоты, которых нет для данного типа намерения
func Missing(kind domain.IntentKind, slots domain.IntentSlots) []domain.SlotName {
	var missing []domain.SlotName
	switch kind {
	case domain.IntentBook:
		if !slots.HasRestaurantOrCuisine() {
			missing = append(missing, domain.SlotRestaurantOrCuisine)
		}
		if slots.PartySize == 0 {
			missing = append(missing, domain.SlotPartySize)
		}
		if slots.Window == nil {
			missing = append(missing, domain.SlotTime)
		}
	case domain.IntentSearch:
		if !slots.HasRestaurantOrCuisine() && !hasFilters(slots.Filters) {
			missing = append(missing, domain.SlotRestaurantOrCuisine)
		}
	case domain.IntentCancel:
		if slots.ReservationRef == "" {
			missing = append(missing, domain.SlotReservation)
		}
	case domain.IntentModify:
		if slots.ReservationRef == "" {
			missing = append(missing, domain.SlotReservation)
		}
		if slots.Window == nil {
			missing = append(missing, domain.SlotTime)
		}
	default:
		missing = append(missing, domain.SlotIntent)
	}
	return missing
}

func toIntent(s domain.IntentSlots) *domain.BookingIntent {
	return &domain.BookingIntent{
		Kind:            s.Kind,
		RestaurantName:  s.RestaurantName,
		RestaurantID:    s.RestaurantID,
		Cuisine:         s.Cuisine,
		PartySize:       s.PartySize,
		Window:          s.Window,
		ReservationRef:  s.ReservationRef,
		Contact:         s.Contact,
		CustomerName:    s.CustomerName,
		SpecialRequests: s.SpecialRequests,
		Filters:         s.Filters,
		Residue:         s.Residue,
	}
}

func hasFilters(f domain.SearchFilters) bool {
	return f.City != "" || f.PriceRange != "" || f.MinRating > 0
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
