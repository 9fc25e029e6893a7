package conversation

import (
	"fmt"
	"strings"
	"time"

	"github.com/m04kA/SMC-TableBooking/internal/domain"
	"github.com/m04kA/SMC-TableBooking/internal/service/recommendations"
)

const (
	msgTimeout      = "Sorry, that took longer than expected. Please send your message again."
	msgUnparseable  = "Sorry, I couldn't process that. Could you rephrase it?"
	msgConflict     = "Someone else was booking at the same moment. Please try again."
	msgApology      = "Sorry, something went wrong on our side. Your conversation is saved, please try again in a moment."
	msgDeclined     = "No problem, I've released that table. What would you like to do instead?"
	msgKept         = "Okay, I've left your reservation as it is. Anything else?"
	msgStartOver    = "Okay, let's start over. What would you like to do?"
	msgSlotTaken    = "That table was just taken. "
	msgAnswerYesNo  = "Please answer yes to confirm or no to cancel. "
	msgNoneAnywhere = "Sorry, I couldn't find a free table for %s %s. What other time would work?"
)

const slotLayout = "Mon Jan 2 at 3:04 PM"

// when время слота в часовом поясе ресторана
func when(start time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return start.In(loc).Format(slotLayout)
}

func guests(n int) string {
	if n == 1 {
		return "1 guest"
	}
	return fmt.Sprintf("%d guests", n)
}

func clarificationText(c *domain.ClarificationRequest) string {
	if len(c.Missing) == 1 && c.Missing[0] == domain.SlotIntent {
		return "I can help you find a restaurant, book a table, or change or cancel a reservation. What would you like to do?"
	}

	questions := make([]string, 0, len(c.Missing))
	for _, slot := range c.Missing {
		switch slot {
		case domain.SlotRestaurantOrCuisine:
			questions = append(questions, "which restaurant or cuisine you'd like")
		case domain.SlotPartySize:
			questions = append(questions, "how many people are coming")
		case domain.SlotTime:
			if c.Kind == domain.IntentModify {
				questions = append(questions, "the new date and time")
			} else {
				questions = append(questions, "what date and time")
			}
		case domain.SlotReservation:
			questions = append(questions, "your reservation confirmation code")
		}
	}
	return "Could you tell me " + joinAnd(questions) + "?"
}

func joinAnd(parts []string) string {
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	case 2:
		return parts[0] + " and " + parts[1]
	}
	return strings.Join(parts[:len(parts)-1], ", ") + " and " + parts[len(parts)-1]
}

func restaurantListText(ranking *recommendations.Ranking, offered []recommendations.Candidate) string {
	var b strings.Builder
	b.WriteString(ranking.Message)
	if len(offered) == 0 {
		return b.String()
	}
	b.WriteString(":")
	for i, c := range offered {
		r := c.Restaurant
		fmt.Fprintf(&b, "\n%d. %s (%s", i+1, r.Name, r.Cuisine)
		if r.City != "" {
			fmt.Fprintf(&b, ", %s", r.City)
		}
		if r.PriceRange != "" {
			fmt.Fprintf(&b, ", %s", r.PriceRange)
		}
		if r.Rating > 0 {
			fmt.Fprintf(&b, ", %.1f★", r.Rating)
		}
		b.WriteString(")")
	}
	b.WriteString("\nSay \"book the first one\" with a party size and time to reserve.")
	return b.String()
}

func restaurantItems(candidates []recommendations.Candidate) []RestaurantItem {
	items := make([]RestaurantItem, 0, len(candidates))
	for _, c := range candidates {
		r := c.Restaurant
		items = append(items, RestaurantItem{
			ID:         r.ID,
			Name:       r.Name,
			Cuisine:    r.Cuisine,
			City:       r.City,
			Location:   r.Location,
			PriceRange: r.PriceRange,
			Rating:     r.Rating,
			Capacity:   r.Capacity,
			Headroom:   c.Headroom,
		})
	}
	return items
}

func confirmationPayload(p *domain.PendingAction) *Payload {
	return &Payload{
		Kind: PayloadConfirmation,
		Confirmation: &ConfirmationPrompt{
			Action:         p.Kind,
			RestaurantID:   p.RestaurantID,
			RestaurantName: p.RestaurantName,
			Start:          p.Slot.Start,
			End:            p.Slot.End(),
			PartySize:      p.PartySize,
			HoldExpiresAt:  p.HoldExpiresAt,
			ReservationID:  p.ReservationID,
		},
	}
}

// promptText вопрос подтверждения для отложенного действия
func promptText(p *domain.PendingAction, code string, loc *time.Location) string {
	at := when(p.Slot.Start, loc)
	switch p.Kind {
	case domain.IntentCancel:
		return fmt.Sprintf("Cancel your reservation %s for %s at %s on %s?", code, guests(p.PartySize), p.RestaurantName, at)
	case domain.IntentModify:
		return fmt.Sprintf("I can move reservation %s to %s at %s for %s. Shall I confirm the change?",
			code, at, p.RestaurantName, guests(p.PartySize))
	}
	return fmt.Sprintf("I'm holding a table for %s at %s on %s. Shall I confirm it?", guests(p.PartySize), p.RestaurantName, at)
}

func receiptPayload(res *domain.Reservation, restaurantName string) *Payload {
	return &Payload{
		Kind: PayloadReceipt,
		Receipt: &Receipt{
			ReservationID:    res.ID,
			ConfirmationCode: res.ConfirmationCode,
			RestaurantID:     res.RestaurantID,
			RestaurantName:   restaurantName,
			Start:            res.Slot.Start,
			End:              res.Slot.End(),
			PartySize:        res.PartySize,
			Status:           res.Status,
		},
	}
}

func bookedText(res *domain.Reservation, restaurantName string, loc *time.Location) string {
	return fmt.Sprintf("You're booked! A table for %s at %s on %s. Your confirmation code is %s.",
		guests(res.PartySize), restaurantName, when(res.Slot.Start, loc), res.ConfirmationCode)
}

func timeHint(w *domain.Window, loc *time.Location) string {
	if w == nil {
		return "at that time"
	}
	if w.Exact {
		return "on " + when(w.Range.Start, loc)
	}
	return "in that time range"
}
