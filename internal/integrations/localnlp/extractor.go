// Package localnlp is a deterministic, rule-based NLP backend.
// It recognizes the phrasing a booking assistant typically gets ("table for 4 at
// Sakura House tomorrow at 7", "cancel ABCD2345", "the second one") without any
// external service, and is the default backend for local runs and tests.
package localnlp

import (
	"context"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/m04kA/SMC-TableBooking/internal/domain"
	"github.com/m04kA/SMC-TableBooking/pkg/ptr"
	"github.com/m04kA/SMC-TableBooking/pkg/timeexpr"
)

// Logger интерфейс для логирования
type Logger interface {
	Warn(format string, v ...interface{})
}

// Extractor извлекает слоты по словарям и регулярным выражениям
type Extractor struct {
	catalog Catalog
	logger  Logger
}

func New(catalog Catalog, logger Logger) *Extractor {
	return &Extractor{catalog: catalog, logger: logger}
}

// ExtractSlots ищет в реплике значения слотов; ненайденные остаются nil
func (e *Extractor) ExtractSlots(ctx context.Context, utterance string, _ domain.IntentSlots) (*domain.ExtractedSlots, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var restaurants []*domain.Restaurant
	if e.catalog != nil {
		var err error
		restaurants, err = e.catalog.Restaurants(ctx)
		if err != nil {
			// без каталога узнаем только общие слова
			e.logger.Warn("ExtractSlots: catalog unavailable: %v", err)
		}
	}

	out := &domain.ExtractedSlots{}
	lower := strings.ToLower(strings.TrimSpace(utterance))

	out.Reply = reply(lower)
	out.Kind = kind(lower)

	// идентификаторы и контакты вырезаются, чтобы цифры в них не читались как время или компания
	rest := lower
	if m := uuidRe.FindString(utterance); m != "" {
		out.ReservationRef = ptr.Ptr(strings.ToLower(m))
		rest = strings.ReplaceAll(rest, strings.ToLower(m), " ")
	} else if code, raw := confirmationCode(utterance); code != "" {
		out.ReservationRef = ptr.Ptr(code)
		rest = strings.ReplaceAll(rest, strings.ToLower(raw), " ")
	}
	if m := emailRe.FindString(utterance); m != "" {
		out.Contact = ptr.Ptr(m)
		rest = strings.ReplaceAll(rest, strings.ToLower(m), " ")
	} else if m := phone(utterance); m != "" {
		out.Contact = ptr.Ptr(m)
		rest = strings.ReplaceAll(rest, m, " ")
	}

	if m := nameRe.FindStringSubmatch(utterance); m != nil {
		out.CustomerName = ptr.Ptr(m[1])
	}

	if n, ok := partySize(rest); ok {
		out.PartySize = ptr.Ptr(n)
	}
	if timeexpr.HasCue(rest) {
		out.TimeExpression = ptr.Ptr(strings.TrimSpace(rest))
	}

	if r := restaurantName(rest, restaurants); r != nil {
		out.RestaurantName = ptr.Ptr(r.Name)
		rest = strings.ReplaceAll(rest, strings.ToLower(r.Name), " ")
	}
	if c := cuisine(rest, restaurants); c != "" {
		out.Cuisine = ptr.Ptr(c)
	}
	if c := city(rest, restaurants); c != "" {
		out.City = ptr.Ptr(c)
	}
	if p := priceRange(utterance, rest); p != "" {
		out.PriceRange = ptr.Ptr(string(p))
	}
	if r, ok := minRating(rest); ok {
		out.MinRating = ptr.Ptr(r)
	}
	if n, ok := selection(rest); ok {
		out.Selection = ptr.Ptr(n)
	}
	if s := specialRequests(utterance, lower); s != "" {
		out.SpecialRequests = ptr.Ptr(s)
	}

	if out.Kind == "" && out.Reply == domain.ReplyNone && !out.HasValues() {
		out.Residue = strings.TrimSpace(utterance)
	}
	return out, nil
}

func reply(lower string) domain.Reply {
	clean := strings.Join(strings.FieldsFunc(lower, func(r rune) bool {
		return unicode.IsSpace(r) || (unicode.IsPunct(r) && r != '\'')
	}), " ")

	startsWith := func(words []string) bool {
		for _, w := range words {
			if clean == w || strings.HasPrefix(clean, w+" ") {
				return true
			}
		}
		return false
	}

	switch {
	case startsWith(noWords):
		return domain.ReplyNo
	case startsWith(yesWords):
		return domain.ReplyYes
	}
	return domain.ReplyNone
}

func kind(lower string) domain.IntentKind {
	for _, k := range kindKeywords {
		for _, w := range k.words {
			if containsWord(lower, w) {
				return k.kind
			}
		}
	}
	return ""
}

func partySize(text string) (int, bool) {
	if m := partyAfterRe.FindStringSubmatch(text); m != nil {
		return number(m[1])
	}

	for _, idx := range partyBeforeRe.FindAllStringSubmatchIndex(text, -1) {
		// "for 7pm" и "for 7:30" - это время, а не компания
		after := strings.TrimLeft(text[idx[1]:], " ")
		if strings.HasPrefix(after, "am") || strings.HasPrefix(after, "pm") ||
			strings.HasPrefix(after, ":") || strings.HasPrefix(after, "o'clock") {
			continue
		}
		if n, ok := number(text[idx[2]:idx[3]]); ok {
			return n, true
		}
	}
	return 0, false
}

func number(s string) (int, bool) {
	if n, ok := numberWords[s]; ok {
		return n, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// confirmationCode возвращает код в верхнем регистре и его исходное написание
// Слово из восьми букв считается кодом, только если в нем есть цифра или оно набрано заглавными
func confirmationCode(utterance string) (string, string) {
	for _, m := range codeRe.FindAllString(utterance, -1) {
		hasDigit := strings.IndexFunc(m, unicode.IsDigit) >= 0
		if hasDigit || m == strings.ToUpper(m) {
			return strings.ToUpper(m), m
		}
	}
	return "", ""
}

func phone(utterance string) string {
	for _, m := range phoneRe.FindAllString(utterance, -1) {
		digits := 0
		for _, r := range m {
			if unicode.IsDigit(r) {
				digits++
			}
		}
		if digits >= 10 {
			return strings.TrimSpace(m)
		}
	}
	return ""
}

func restaurantName(text string, restaurants []*domain.Restaurant) *domain.Restaurant {
	var best *domain.Restaurant
	for _, r := range restaurants {
		name := strings.ToLower(r.Name)
		if name == "" || !containsWord(text, name) {
			continue
		}
		if best == nil || len(r.Name) > len(best.Name) {
			best = r
		}
	}
	return best
}

func cuisine(text string, restaurants []*domain.Restaurant) string {
	candidates := slices.Clone(knownCuisines)
	for _, r := range restaurants {
		if r.Cuisine != "" && !slices.ContainsFunc(candidates, func(c string) bool { return strings.EqualFold(c, r.Cuisine) }) {
			candidates = append(candidates, r.Cuisine)
		}
	}

	best := ""
	for _, c := range candidates {
		if containsWord(text, strings.ToLower(c)) && len(c) > len(best) {
			best = c
		}
	}
	return best
}

func city(text string, restaurants []*domain.Restaurant) string {
	for _, r := range restaurants {
		if r.City != "" && containsWord(text, strings.ToLower(r.City)) {
			return r.City
		}
	}
	return ""
}

func priceRange(utterance, lower string) domain.PriceRange {
	if m := priceRe.FindStringSubmatch(utterance); m != nil {
		return domain.PriceRange(m[1])
	}
	for word, p := range priceWords {
		if containsWord(lower, word) {
			return p
		}
	}
	return ""
}

func minRating(text string) (float64, bool) {
	m := ratingRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	raw := m[1]
	if raw == "" {
		raw = m[2]
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 || v > 5 {
		return 0, false
	}
	return v, true
}

func selection(text string) (int, bool) {
	m := ordinalRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	if m[1] != "" {
		n, ok := ordinals[m[1]]
		return n, ok
	}
	return number(m[2])
}

func specialRequests(utterance, lower string) string {
	if m := requestRe.FindStringSubmatch(utterance); m != nil {
		return strings.TrimSpace(m[1])
	}

	var found []string
	for _, phrase := range requestPhrases {
		if containsWord(lower, phrase) {
			found = append(found, phrase)
		}
	}
	return strings.Join(found, ", ")
}

// containsWord ищет фразу целиком, не внутри другого слова
func containsWord(text, phrase string) bool {
	for start := 0; start < len(text); {
		i := strings.Index(text[start:], phrase)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(phrase)
		if boundary(text, i-1) && boundary(text, end) {
			return true
		}
		start = i + 1
	}
	return false
}

func boundary(text string, i int) bool {
	if i < 0 || i >= len(text) {
		return true
	}
	c := rune(text[i])
	return !unicode.IsLetter(c) && !unicode.IsDigit(c)
}
