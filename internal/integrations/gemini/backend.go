package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/time/rate"

	"github.com/m04kA/SMC-TableBooking/internal/domain"
)

// Generator отправляет prompt модели и возвращает JSON-текст ответа
type Generator interface {
	GenerateJSON(ctx context.Context, prompt string) (string, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
}

// Backend NLP бэкенд поверх Gemini с ограничением частоты запросов
type Backend struct {
	gen     Generator
	limiter *rate.Limiter
	logger  Logger
}

// NewBackend rps <= 0 отключает ограничение
func NewBackend(gen Generator, rps float64, burst int, logger Logger) *Backend {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &Backend{
		gen:     gen,
		limiter: rate.NewLimiter(limit, max(burst, 1)),
		logger:  logger,
	}
}

func (b *Backend) ExtractSlots(ctx context.Context, utterance string, prior domain.IntentSlots) (*domain.ExtractedSlots, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("ExtractSlots: rate limiter: %w", err)
	}

	text, err := b.gen.GenerateJSON(ctx, buildPrompt(utterance, prior))
	if err != nil {
		return nil, err
	}

	out, err := decodeExtraction(text)
	if err != nil {
		b.logger.Warn("ExtractSlots: undecodable model output %q: %v", text, err)
		return nil, err
	}
	return out, nil
}

// extraction форма JSON, которую просит systemPrompt
type extraction struct {
	Intent          string   `json:"intent"`
	RestaurantName  *string  `json:"restaurant_name"`
	Cuisine         *string  `json:"cuisine"`
	PartySize       *int     `json:"party_size"`
	TimeExpression  *string  `json:"time_expression"`
	ReservationRef  *string  `json:"reservation_ref"`
	Contact         *string  `json:"contact"`
	CustomerName    *string  `json:"customer_name"`
	SpecialRequests *string  `json:"special_requests"`
	City            *string  `json:"city"`
	PriceRange      *string  `json:"price_range"`
	MinRating       *float64 `json:"min_rating"`
	Selection       *int     `json:"selection"`
	Reply           string   `json:"reply"`
	Residue         string   `json:"residue"`
}

func decodeExtraction(text string) (*domain.ExtractedSlots, error) {
	text = strings.TrimSpace(text)
	// модель иногда оборачивает JSON в markdown-блок
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	var ex extraction
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &ex); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	out := &domain.ExtractedSlots{
		RestaurantName:  nonEmpty(ex.RestaurantName),
		Cuisine:         nonEmpty(ex.Cuisine),
		PartySize:       ex.PartySize,
		TimeExpression:  nonEmpty(ex.TimeExpression),
		ReservationRef:  nonEmpty(ex.ReservationRef),
		Contact:         nonEmpty(ex.Contact),
		CustomerName:    nonEmpty(ex.CustomerName),
		SpecialRequests: nonEmpty(ex.SpecialRequests),
		City:            nonEmpty(ex.City),
		PriceRange:      nonEmpty(ex.PriceRange),
		MinRating:       ex.MinRating,
		Selection:       ex.Selection,
		Residue:         strings.TrimSpace(ex.Residue),
	}
	if kind := domain.IntentKind(strings.ToUpper(strings.TrimSpace(ex.Intent))); kind.Valid() {
		out.Kind = kind
	}
	switch strings.ToLower(strings.TrimSpace(ex.Reply)) {
	case "yes":
		out.Reply = domain.ReplyYes
	case "no":
		out.Reply = domain.ReplyNo
	}
	return out, nil
}

func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
