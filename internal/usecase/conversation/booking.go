package conversation

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/m04kA/SMC-TableBooking/internal/domain"
	"github.com/m04kA/SMC-TableBooking/internal/service/availability"
	"github.com/m04kA/SMC-TableBooking/internal/service/timeslots"
)

// search отвечает списком рекомендаций и запоминает его для выбора "второй"
func (uc *UseCase) search(ctx context.Context, sess *domain.SessionState) (*Response, error) {
	want := sess.Slots
	pref := preference(want)

	var pool []*domain.Restaurant
	if want.RestaurantID != "" || want.RestaurantName != "" {
		r, err := uc.resolveRestaurant(ctx, want)
		switch {
		case err == nil:
			pool = []*domain.Restaurant{r}
			pref.Cuisine = ""
		case !errors.Is(err, domain.ErrNotFound):
			return nil, err
		case want.Cuisine == "" && !hasFilters(want.Filters):
			return uc.unknownRestaurant(sess), nil
		}
	}
	if pool == nil {
		all, err := uc.engine.Restaurants(ctx)
		if err != nil {
			return nil, err
		}
		pool = all
	}

	ranking, err := uc.ranker.Rank(ctx, pool, pref)
	if err != nil {
		return nil, err
	}

	offered := ranking.Top(uc.maxOffered)
	sess.LastOffered = make([]string, 0, len(offered))
	for _, c := range offered {
		sess.LastOffered = append(sess.LastOffered, c.Restaurant.ID)
	}
	sess.State = domain.StateComplete

	return &Response{
		Text: restaurantListText(ranking, offered),
		Payload: &Payload{
			Kind:         PayloadRestaurants,
			Restaurants:  restaurantItems(offered),
			NoExactMatch: ranking.NoExactMatch,
		},
	}, nil
}

// offerBooking ставит холд в первом подходящем ресторане и просит подтверждение
// tried - рестораны, уже предложенные в этой попытке; prefix добавляется к тексту ответа
func (uc *UseCase) offerBooking(ctx context.Context, sess *domain.SessionState, tried []string, prefix string) (*Response, error) {
	want := sess.Slots

	// 1. Названный ресторан пробуем первым
	var (
		requested *domain.Restaurant
		hold      *domain.Reservation
		at        *domain.Restaurant
	)
	if want.RestaurantID != "" || want.RestaurantName != "" {
		r, err := uc.resolveRestaurant(ctx, want)
		switch {
		case err == nil:
			requested = r
		case !errors.Is(err, domain.ErrNotFound):
			return nil, err
		case want.Cuisine == "":
			return uc.unknownRestaurant(sess), nil
		}
	}

	attempts := 0
	try := func(r *domain.Restaurant) error {
		if attempts >= uc.maxAttempts {
			return nil
		}
		attempts++
		tried = append(tried, r.ID)

		res, err := uc.tryHold(ctx, r, want, contact(sess))
		if err != nil {
			return err
		}
		if res != nil {
			hold, at = res, r
		}
		return nil
	}

	if requested != nil && !slices.Contains(tried, requested.ID) {
		if err := try(requested); err != nil {
			return nil, err
		}
	}

	// 2. Иначе идем по ранжированному списку: по кухне запроса или кухне названного ресторана
	noExactMatch := false
	if hold == nil {
		pref := preference(want)
		if requested != nil {
			pref.Cuisine = requested.Cuisine
		}

		all, err := uc.engine.Restaurants(ctx)
		if err != nil {
			return nil, err
		}
		ranking, err := uc.ranker.Rank(ctx, all, pref)
		if err != nil {
			return nil, err
		}
		noExactMatch = ranking.NoExactMatch && requested == nil

		for _, r := range ranking.Without(tried).Restaurants() {
			if hold != nil || attempts >= uc.maxAttempts {
				break
			}
			if err := try(r); err != nil {
				return nil, err
			}
		}
	}

	// 3. Мест нет нигде: спрашиваем другое время
	if hold == nil {
		loc := time.UTC
		if requested != nil {
			loc = requested.Policy.Location()
		}
		uc.logger.Info("Conversation: session=%s no table for party=%d after %d restaurants", sess.ID, want.PartySize, attempts)

		sess.Pending = nil
		sess.Slots.Window = nil
		sess.State = domain.StateAwaitingClarification
		sess.Missing = []domain.SlotName{domain.SlotTime}
		return &Response{
			Text:    prefix + fmt.Sprintf(msgNoneAnywhere, guests(want.PartySize), timeHint(want.Window, loc)),
			Payload: &Payload{Kind: PayloadClarification, Missing: sess.Missing},
		}, nil
	}

	// 4. Холд поставлен: ждем подтверждения
	sess.Pending = &domain.PendingAction{
		Kind:            domain.IntentBook,
		RestaurantID:    at.ID,
		RestaurantName:  at.Name,
		Slot:            hold.Slot,
		PartySize:       hold.PartySize,
		HoldID:          hold.ID,
		HoldExpiresAt:   hold.HoldExpiresAt,
		Contact:         hold.Contact,
		CustomerName:    hold.CustomerName,
		SpecialRequests: hold.SpecialRequests,
		Tried:           tried,
	}
	sess.State = domain.StateAwaitingConfirmation
	sess.Missing = nil

	text := prefix
	switch {
	case requested != nil && requested.ID != at.ID:
		text += fmt.Sprintf("%s has no table for %s %s. ", requested.Name, guests(want.PartySize), timeHint(want.Window, requested.Policy.Location()))
	case noExactMatch:
		text += fmt.Sprintf("I couldn't find %s restaurants with a free table, but here is an alternative. ", want.Cuisine)
	}
	text += promptText(sess.Pending, "", at.Policy.Location())

	return &Response{Text: text, Payload: confirmationPayload(sess.Pending)}, nil
}

// tryHold ставит холд в ресторане r; nil без ошибки - подходящего слота нет
func (uc *UseCase) tryHold(ctx context.Context, r *domain.Restaurant, want domain.IntentSlots, contact string) (*domain.Reservation, error) {
	slot, ok, err := uc.pickSlot(ctx, r, want)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	res, err := uc.engine.Hold(ctx, &availability.ReserveRequest{
		RestaurantID:    r.ID,
		Slot:            slot,
		PartySize:       want.PartySize,
		Contact:         contact,
		CustomerName:    want.CustomerName,
		SpecialRequests: want.SpecialRequests,
	})
	switch {
	case err == nil:
		return res, nil
	case errors.Is(err, domain.ErrCapacityExceeded):
		var capErr *domain.CapacityExceededError
		if errors.As(err, &capErr) {
			uc.logger.Info("Conversation: %s full at %s, remaining %d", r.ID, slot.Start.Format(time.RFC3339), capErr.Remaining)
		}
		return nil, nil
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInvalidRange):
		uc.logger.Warn("Conversation: hold at %s rejected: %v", r.ID, err)
		return nil, nil
	}
	return nil, err
}

// pickSlot точное время проверяется по часам работы, для окна берется первый слот со свободными местами
func (uc *UseCase) pickSlot(ctx context.Context, r *domain.Restaurant, want domain.IntentSlots) (domain.TimeSlot, bool, error) {
	if want.Window == nil || want.PartySize > r.Capacity {
		return domain.TimeSlot{}, false, nil
	}
	now := uc.timeProvider.Now()

	if want.Window.Exact {
		slot := domain.TimeSlot{RestaurantID: r.ID, Start: want.Window.Range.Start, Duration: r.Policy.SeatingDuration()}
		if slot.Start.Before(now) || !timeslots.Contains(r, slot, uc.granularity) {
			return domain.TimeSlot{}, false, nil
		}
		return slot, true, nil
	}

	window := want.Window.Range
	if window.Start.Before(now) {
		window.Start = now
	}
	if !window.Start.Before(window.End) {
		return domain.TimeSlot{}, false, nil
	}

	slot, ok, err := timeslots.FirstFit(r, window, uc.granularity, func(s domain.TimeSlot) (bool, error) {
		a, err := uc.engine.CheckAvailability(ctx, r.ID, s, want.PartySize)
		if err != nil {
			return false, err
		}
		return a.Available, nil
	})
	if errors.Is(err, domain.ErrInvalidRange) {
		return domain.TimeSlot{}, false, nil
	}
	return slot, ok, err
}

// confirm выполняет отложенное действие после "да"
func (uc *UseCase) confirm(ctx context.Context, sess *domain.SessionState) (*Response, error) {
	switch sess.Pending.Kind {
	case domain.IntentCancel:
		return uc.confirmCancel(ctx, sess)
	case domain.IntentModify:
		return uc.confirmModify(ctx, sess)
	}
	return uc.confirmBooking(ctx, sess)
}

func (uc *UseCase) confirmBooking(ctx context.Context, sess *domain.SessionState) (*Response, error) {
	p := sess.Pending

	res, err := uc.commitHold(ctx, p)
	if errors.Is(err, domain.ErrCapacityExceeded) {
		// пока холд истекал, места заняли: предлагаем следующий ресторан
		uc.logger.Info("Conversation: session=%s slot taken after hold lapsed, re-ranking", sess.ID)
		sess.Pending = nil
		return uc.offerBooking(ctx, sess, p.Tried, msgSlotTaken)
	}
	if err != nil {
		return nil, err
	}

	sess.State = domain.StateComplete
	loc := uc.location(ctx, p.RestaurantID)
	return &Response{
		Text:    bookedText(res, p.RestaurantName, loc),
		Payload: receiptPayload(res, p.RestaurantName),
	}, nil
}

// commitHold подтверждает холд; если он уже истек, бронирует тот же слот напрямую
func (uc *UseCase) commitHold(ctx context.Context, p *domain.PendingAction) (*domain.Reservation, error) {
	res, err := uc.engine.Confirm(ctx, p.HoldID)
	if err == nil {
		return res, nil
	}
	if !errors.Is(err, domain.ErrHoldExpired) && !errors.Is(err, domain.ErrNotFound) && !errors.Is(err, domain.ErrInvalidTransition) {
		return nil, err
	}

	uc.logger.Info("Conversation: hold id=%s not confirmable (%v), reserving directly", p.HoldID, err)
	return uc.engine.Reserve(ctx, &availability.ReserveRequest{
		RestaurantID:    p.RestaurantID,
		Slot:            p.Slot,
		PartySize:       p.PartySize,
		Contact:         p.Contact,
		CustomerName:    p.CustomerName,
		SpecialRequests: p.SpecialRequests,
	})
}

// decline снимает холд после "нет"
func (uc *UseCase) decline(ctx context.Context, sess *domain.SessionState) (*Response, error) {
	kind := sess.Pending.Kind
	if err := uc.release(ctx, sess.Pending); err != nil {
		return nil, err
	}
	sess.Reset()

	if kind == domain.IntentCancel {
		return &Response{Text: msgKept}, nil
	}
	return &Response{Text: msgDeclined}, nil
}

// release отменяет холд отложенного действия, если он есть
func (uc *UseCase) release(ctx context.Context, p *domain.PendingAction) error {
	if p == nil || p.HoldID == "" {
		return nil
	}
	if _, err := uc.engine.CancelWithReason(ctx, p.HoldID, domain.ReasonHoldDeclined); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return nil
}

func (uc *UseCase) repeatPrompt(ctx context.Context, sess *domain.SessionState) (*Response, error) {
	p := sess.Pending
	code := ""
	if p.ReservationID != "" {
		if res, err := uc.engine.Lookup(ctx, p.ReservationID); err == nil {
			code = res.ConfirmationCode
		}
	}
	return &Response{
		Text:    msgAnswerYesNo + promptText(p, code, uc.location(ctx, p.RestaurantID)),
		Payload: confirmationPayload(p),
	}, nil
}

func (uc *UseCase) resolveRestaurant(ctx context.Context, want domain.IntentSlots) (*domain.Restaurant, error) {
	if want.RestaurantID != "" {
		return uc.engine.Restaurant(ctx, want.RestaurantID)
	}
	return uc.engine.FindRestaurant(ctx, want.RestaurantName)
}

// unknownRestaurant названного ресторана нет: спрашиваем снова
func (uc *UseCase) unknownRestaurant(sess *domain.SessionState) *Response {
	name := sess.Slots.RestaurantName
	sess.Slots.RestaurantName = ""
	sess.Slots.RestaurantID = ""
	sess.State = domain.StateAwaitingClarification
	sess.Missing = []domain.SlotName{domain.SlotRestaurantOrCuisine}
	return &Response{
		Text:    fmt.Sprintf("I couldn't find a restaurant called %q. Which restaurant or cuisine would you like?", name),
		Payload: &Payload{Kind: PayloadClarification, Missing: sess.Missing},
	}
}

func preference(want domain.IntentSlots) domain.Preference {
	pref := domain.Preference{
		Cuisine:   want.Cuisine,
		PartySize: want.PartySize,
		Filters:   want.Filters,
	}
	if want.Window != nil && want.Window.Exact {
		at := want.Window.Range.Start
		pref.At = &at
	}
	return pref
}

func hasFilters(f domain.SearchFilters) bool {
	return f.City != "" || f.PriceRange != "" || f.MinRating > 0
}
