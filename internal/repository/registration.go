package repository

import (
	"strings"

	"github.com/Shivanand-hulikatti/convene/internal/model"
)

// RegistrationRepository runs the capacity and waitlist state machine.
type RegistrationRepository struct {
	store *EventStore
}

// NewRegistrationRepository constructs a RegistrationRepository.
func NewRegistrationRepository(store *EventStore) *RegistrationRepository {
	return &RegistrationRepository{store: store}
}

// Register gives participant a seat, or a place at the tail of the waitlist
// when the event is full.
//
// The capacity check and the insert happen under the event's lock, so two
// concurrent callers can never both see the last free seat:
//
//	caller A: lock → 9/10 → append → 10/10 → unlock
//	caller B:                                 lock → 10/10 → waitlist → unlock
func (r *RegistrationRepository) Register(eventID int, participant string) (model.RegisterResult, error) {
	if err := checkParticipant(participant); err != nil {
		return model.RegisterResult{}, err
	}
	res := model.RegisterResult{EventID: eventID, Participant: participant}
	err := r.store.withEvent(eventID, func(ev *model.Event) error {
		if ev.Cancelled {
			return ErrEventCancelled
		}
		if ev.StatusOf(participant) != model.StateUnregistered {
			return ErrAlreadyRegistered
		}
		if ev.HasSpace() {
			ev.AddParticipant(participant)
			res.Status = model.StatusRegistered
			return nil
		}
		ev.AddToWaitlist(participant)
		res.Status = model.StatusWaitlisted
		res.Position = len(ev.Waitlist)
		return nil
	})
	if err != nil {
		return model.RegisterResult{}, err
	}
	return res, nil
}

// CancelRegistration withdraws participant from the event. When a seat is
// freed, the head of the waitlist is promoted into it before the lock is
// released, and the promoted participant is reported in the result.
func (r *RegistrationRepository) CancelRegistration(eventID int, participant string) (model.CancelResult, error) {
	if strings.TrimSpace(participant) == "" {
		return model.CancelResult{}, ErrInvalidParticipant
	}
	res := model.CancelResult{EventID: eventID, Participant: participant}
	err := r.store.withEvent(eventID, func(ev *model.Event) error {
		if ev.Cancelled {
			return ErrEventCancelled
		}
		switch {
		case ev.RemoveParticipant(participant):
			res.Status = model.StatusCancelledRegistration
			// One seat freed, at most one promotion.
			if head, ok := ev.PollWaitlist(); ok {
				ev.Registered = append(ev.Registered, head)
				res.Promoted = head
			}
			return nil
		case ev.RemoveFromWaitlist(participant):
			res.Status = model.StatusCancelledWaitlist
			return nil
		default:
			return ErrNotRegistered
		}
	})
	if err != nil {
		return model.CancelResult{}, err
	}
	return res, nil
}

// Membership reports where participant stands in a single event.
func (r *RegistrationRepository) Membership(eventID int, participant string) (model.Membership, error) {
	m := model.Membership{EventID: eventID, Participant: participant}
	err := r.store.withEvent(eventID, func(ev *model.Event) error {
		m.State = ev.StatusOf(participant)
		m.Position = ev.WaitlistPosition(participant)
		return nil
	})
	return m, err
}

// EventsForParticipant returns copies of every event where participant is
// registered or waitlisted, in ID order.
func (r *RegistrationRepository) EventsForParticipant(participant string) []model.Event {
	return r.store.snapshot(func(ev *model.Event) bool {
		return ev.StatusOf(participant) != model.StateUnregistered
	})
}
