package conversation

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-TableBooking/internal/domain"
)

// offerCancel находит бронирование и спрашивает подтверждение отмены
func (uc *UseCase) offerCancel(ctx context.Context, sess *domain.SessionState) (*Response, error) {
	res, resp, err := uc.lookupReservation(ctx, sess)
	if resp != nil || err != nil {
		return resp, err
	}

	r, err := uc.engine.Restaurant(ctx, res.RestaurantID)
	if err != nil {
		return nil, err
	}

	if res.IsCancelled() {
		sess.State = domain.StateComplete
		return &Response{
			Text:    fmt.Sprintf("Reservation %s is already cancelled.", res.ConfirmationCode),
			Payload: receiptPayload(res, r.Name),
		}, nil
	}

	sess.Pending = &domain.PendingAction{
		Kind:           domain.IntentCancel,
		RestaurantID:   r.ID,
		RestaurantName: r.Name,
		Slot:           res.Slot,
		PartySize:      res.PartySize,
		ReservationID:  res.ID,
	}
	sess.State = domain.StateAwaitingConfirmation
	sess.Missing = nil
	return &Response{
		Text:    promptText(sess.Pending, res.ConfirmationCode, r.Policy.Location()),
		Payload: confirmationPayload(sess.Pending),
	}, nil
}

// offerModify ставит холд на новое время; старое бронирование отменяется только после подтверждения
func (uc *UseCase) offerModify(ctx context.Context, sess *domain.SessionState) (*Response, error) {
	res, resp, err := uc.lookupReservation(ctx, sess)
	if resp != nil || err != nil {
		return resp, err
	}

	if res.IsCancelled() {
		sess.State = domain.StateComplete
		return &Response{Text: fmt.Sprintf("Reservation %s was cancelled and can't be changed. Would you like to make a new booking?", res.ConfirmationCode)}, nil
	}

	r, err := uc.engine.Restaurant(ctx, res.RestaurantID)
	if err != nil {
		return nil, err
	}

	// новые значения поверх старого бронирования
	want := sess.Slots
	if want.PartySize == 0 {
		want.PartySize = res.PartySize
	}
	if want.CustomerName == "" {
		want.CustomerName = res.CustomerName
	}
	if want.SpecialRequests == "" {
		want.SpecialRequests = res.SpecialRequests
	}

	hold, err := uc.tryHold(ctx, r, want, res.Contact)
	if err != nil {
		return nil, err
	}
	if hold == nil {
		hint := timeHint(want.Window, r.Policy.Location())
		sess.Slots.Window = nil
		sess.State = domain.StateAwaitingClarification
		sess.Missing = []domain.SlotName{domain.SlotTime}
		return &Response{
			Text:    fmt.Sprintf("%s has no table for %s %s. What other time would work?", r.Name, guests(want.PartySize), hint),
			Payload: &Payload{Kind: PayloadClarification, Missing: sess.Missing},
		}, nil
	}

	sess.Pending = &domain.PendingAction{
		Kind:            domain.IntentModify,
		RestaurantID:    r.ID,
		RestaurantName:  r.Name,
		Slot:            hold.Slot,
		PartySize:       hold.PartySize,
		HoldID:          hold.ID,
		HoldExpiresAt:   hold.HoldExpiresAt,
		Contact:         hold.Contact,
		CustomerName:    hold.CustomerName,
		SpecialRequests: hold.SpecialRequests,
		ReservationID:   res.ID,
	}
	sess.State = domain.StateAwaitingConfirmation
	sess.Missing = nil
	return &Response{
		Text:    promptText(sess.Pending, res.ConfirmationCode, r.Policy.Location()),
		Payload: confirmationPayload(sess.Pending),
	}, nil
}

func (uc *UseCase) confirmCancel(ctx context.Context, sess *domain.SessionState) (*Response, error) {
	p := sess.Pending
	res, err := uc.engine.CancelWithReason(ctx, p.ReservationID, domain.ReasonGuestCancel)
	if err != nil {
		return nil, err
	}

	sess.State = domain.StateComplete
	return &Response{
		Text: fmt.Sprintf("Your reservation %s at %s on %s has been cancelled.",
			res.ConfirmationCode, p.RestaurantName, when(res.Slot.Start, uc.location(ctx, p.RestaurantID))),
		Payload: receiptPayload(res, p.RestaurantName),
	}, nil
}

// confirmModify подтверждает новое время, затем отменяет старое бронирование
// Повторное "да" после сбоя безопасно: подтверждение и отмена идемпотентны
func (uc *UseCase) confirmModify(ctx context.Context, sess *domain.SessionState) (*Response, error) {
	p := sess.Pending

	res, err := uc.commitHold(ctx, p)
	if errors.Is(err, domain.ErrCapacityExceeded) {
		sess.Pending = nil
		sess.Slots.Window = nil
		sess.State = domain.StateAwaitingClarification
		sess.Missing = []domain.SlotName{domain.SlotTime}
		return &Response{
			Text:    msgSlotTaken + "Your original reservation is unchanged. What other time would work?",
			Payload: &Payload{Kind: PayloadClarification, Missing: sess.Missing},
		}, nil
	}
	if err != nil {
		return nil, err
	}

	if _, err := uc.engine.CancelWithReason(ctx, p.ReservationID, domain.ReasonRescheduled); err != nil {
		uc.logger.Error("Conversation: session=%s new reservation id=%s confirmed but old id=%s not cancelled: %v",
			sess.ID, res.ID, p.ReservationID, err)
		return nil, err
	}

	sess.State = domain.StateComplete
	return &Response{
		Text: fmt.Sprintf("Done! Your table for %s at %s is now on %s. Your new confirmation code is %s.",
			guests(res.PartySize), p.RestaurantName, when(res.Slot.Start, uc.location(ctx, p.RestaurantID)), res.ConfirmationCode),
		Payload: receiptPayload(res, p.RestaurantName),
	}, nil
}

// lookupReservation ищет бронирование из слотов; если не найдено, возвращает готовый ответ
func (uc *UseCase) lookupReservation(ctx context.Context, sess *domain.SessionState) (*domain.Reservation, *Response, error) {
	ref := sess.Slots.ReservationRef
	res, err := uc.engine.Lookup(ctx, ref)
	switch {
	case err == nil:
		return res, nil, nil
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrInvalidInput):
		sess.Slots.ReservationRef = ""
		sess.State = domain.StateAwaitingClarification
		sess.Missing = []domain.SlotName{domain.SlotReservation}
		return nil, &Response{
			Text:    fmt.Sprintf("I couldn't find a reservation with code %s. Could you check your confirmation code?", ref),
			Payload: &Payload{Kind: PayloadClarification, Missing: sess.Missing},
		}, nil
	}
	return nil, nil, err
}
