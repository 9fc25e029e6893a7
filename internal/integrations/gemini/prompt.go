package gemini

import (
	"encoding/json"
	"strings"

	"github.com/m04kA/SMC-TableBooking/internal/domain"
)

const systemPrompt = `You extract booking details for a restaurant reservation assistant.
Reply with a single JSON object and nothing else. Use only these keys and omit any key the user did not mention:
  "intent": one of "SEARCH", "BOOK", "MODIFY", "CANCEL" when the user clearly asks for it
  "restaurant_name": restaurant name as written by the user
  "cuisine": cuisine such as "Italian"
  "party_size": number of guests as an integer
  "time_expression": the date and/or time phrase exactly as the user wrote it, e.g. "tomorrow at 7"
  "reservation_ref": confirmation code or reservation id
  "contact": email address or phone number
  "customer_name": the guest's name
  "special_requests": seating or occasion requests
  "city": city name
  "price_range": one of "$", "$$", "$$$", "$$$$"
  "min_rating": minimum star rating between 1 and 5
  "selection": 1-based position when the user picks from a previously offered list ("the second one" is 2)
  "reply": "yes" or "no" when the user answers a confirmation question
  "residue": the user's words you could not map to any key
Never guess values that are not in the message.`

// buildPrompt добавляет к реплике уже известные слоты как контекст
func buildPrompt(utterance string, prior domain.IntentSlots) string {
	var sb strings.Builder
	if prior != (domain.IntentSlots{}) {
		known, _ := json.Marshal(prior)
		sb.WriteString("Already known from earlier messages (do not repeat unless changed): ")
		sb.Write(known)
		sb.WriteString("\n")
	}
	sb.WriteString("User message: ")
	sb.WriteString(strings.TrimSpace(utterance))
	return sb.String()
}
