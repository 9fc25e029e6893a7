package localnlp

import (
	"regexp"

	"github.com/m04kA/SMC-TableBooking/internal/domain"
)

var (
	partyBeforeRe = regexp.MustCompile(`\b(?:table for|party of|for|we are|we're|there are)\s+(\d{1,2}|one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve)\b`)
	partyAfterRe  = regexp.MustCompile(`\b(\d{1,2}|one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve)\s+(?:people|persons|guests|adults|of us|pax)\b`)

	uuidRe    = regexp.MustCompile(`(?i)\b[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}\b`)
	codeRe    = regexp.MustCompile(`(?i)\b[A-HJ-NP-Z2-9]{8}\b`)
	emailRe   = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	phoneRe   = regexp.MustCompile(`\+?\d[\d\s\-()]{7,}\d`)
	nameRe    = regexp.MustCompile(`\b(?i:my name is|name is|under the name)\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)?)`)
	ratingRe  = regexp.MustCompile(`\b([1-5](?:\.\d)?)\s*\+?\s*stars?\b|\brated\s+(?:at least\s+|above\s+|over\s+)?([1-5](?:\.\d)?)\b`)
	priceRe   = regexp.MustCompile(`(?:^|\s)(\${1,4})(?:\s|$|[.,!?])`)
	ordinalRe = regexp.MustCompile(`\b(?:the\s+)?(first|1st|second|2nd|third|3rd|fourth|4th|fifth|5th)\b(?:\s+(?:one|option|restaurant|place))?|(?:\boption|\bnumber|#)\s*(\d)\b`)
	requestRe = regexp.MustCompile(`(?i)\bspecial requests?\s*[:\-]?\s*(.+)$`)
)

var numberWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6,
	"seven": 7, "eight": 8, "nine": 9, "ten": 10, "eleven": 11, "twelve": 12,
}

var ordinals = map[string]int{
	"first": 1, "1st": 1, "second": 2, "2nd": 2, "third": 3, "3rd": 3,
	"fourth": 4, "4th": 4, "fifth": 5, "5th": 5,
}

// Порядок важен: отмена и перенос проверяются раньше бронирования
var kindKeywords = []struct {
	kind  domain.IntentKind
	words []string
}{
	{domain.IntentCancel, []string{"cancel", "call off"}},
	{domain.IntentModify, []string{"reschedule", "modify", "change my", "change the", "move my", "move the"}},
	{domain.IntentBook, []string{"book", "reserve", "reservation for", "table for", "get a table", "make a reservation"}},
	{domain.IntentSearch, []string{"find", "search", "recommend", "suggest", "show me", "looking for", "any good", "options", "list"}},
}

var (
	yesWords = []string{"yes", "yeah", "yep", "yup", "sure", "confirm", "ok", "okay", "correct", "absolutely", "please do", "go ahead", "sounds good"}
	noWords  = []string{"no", "nope", "nah", "don't", "do not", "not now", "never mind", "nevermind"}
)

// Кухни, которые узнаются даже без ресторанов в каталоге
var knownCuisines = []string{
	"Italian", "Mexican", "Chinese", "Japanese", "American", "French", "Thai",
	"Indian", "Mediterranean", "Vietnamese", "Korean", "Greek", "Spanish", "Ethiopian",
}

var priceWords = map[string]domain.PriceRange{
	"cheap":       domain.PriceBudget,
	"budget":      domain.PriceBudget,
	"inexpensive": domain.PriceBudget,
	"moderate":    domain.PriceModerate,
	"mid-range":   domain.PriceModerate,
	"upscale":     domain.PriceUpscale,
	"fancy":       domain.PriceUpscale,
	"fine dining": domain.PriceFineDining,
	"luxury":      domain.PriceFineDining,
}

// Фразы, которые сами по себе являются особыми пожеланиями
var requestPhrases = []string{
	"birthday", "anniversary", "window seat", "outdoor seating", "patio", "high chair",
	"wheelchair", "quiet table", "booth", "vegan", "gluten-free", "allergy",
}
