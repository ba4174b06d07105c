// Package model defines the core domain types for the event registration system.
package model

import (
	"fmt"
	"slices"
)

// Event represents a campus event with a bounded number of seats and a
// FIFO waitlist for everyone who arrives after the event is full.
type Event struct {
	ID         int      `json:"id" yaml:"id"`
	Name       string   `json:"name" yaml:"name"`
	Date       string   `json:"date" yaml:"date"`
	Time       string   `json:"time" yaml:"time"`
	Location   string   `json:"location" yaml:"location"`
	Capacity   int      `json:"capacity" yaml:"capacity"`
	Registered []string `json:"registered" yaml:"registered"`
	Waitlist   []string `json:"waitlist" yaml:"waitlist"`
	Cancelled  bool     `json:"cancelled" yaml:"cancelled"`
}

// NewEvent returns an event with empty registration and waitlist sequences.
func NewEvent(id int, name, date, tm, location string, capacity int) *Event {
	return &Event{
		ID:         id,
		Name:       name,
		Date:       date,
		Time:       tm,
		Location:   location,
		Capacity:   capacity,
		Registered: []string{},
		Waitlist:   []string{},
	}
}

// Clone returns a deep copy so callers can never reach the store's slices.
func (e *Event) Clone() Event {
	c := *e
	c.Registered = slices.Clone(e.Registered)
	c.Waitlist = slices.Clone(e.Waitlist)
	if c.Registered == nil {
		c.Registered = []string{}
	}
	if c.Waitlist == nil {
		c.Waitlist = []string{}
	}
	return c
}

// RegisteredCount returns the number of occupied seats.
func (e *Event) RegisteredCount() int {
	return len(e.Registered)
}

// WaitlistCount returns the number of queued participants.
func (e *Event) WaitlistCount() int {
	return len(e.Waitlist)
}

// Remaining returns the number of available seats.
func (e *Event) Remaining() int {
	return e.Capacity - len(e.Registered)
}

// HasSpace reports whether another participant can be registered directly.
func (e *Event) HasSpace() bool {
	return len(e.Registered) < e.Capacity
}

// IsFull returns true when no seats remain.
func (e *Event) IsFull() bool {
	return !e.HasSpace()
}

// IsRegistered reports whether participant holds a seat.
func (e *Event) IsRegistered(participant string) bool {
	return slices.Contains(e.Registered, participant)
}

// IsWaitlisted reports whether participant is queued.
func (e *Event) IsWaitlisted(participant string) bool {
	return slices.Contains(e.Waitlist, participant)
}

// WaitlistPosition returns the 1-based queue position of participant, or 0.
func (e *Event) WaitlistPosition(participant string) int {
	return slices.Index(e.Waitlist, participant) + 1
}

// StatusOf returns the membership state of participant in this event.
func (e *Event) StatusOf(participant string) MembershipState {
	switch {
	case e.IsRegistered(participant):
		return StateRegistered
	case e.IsWaitlisted(participant):
		return StateWaitlisted
	default:
		return StateUnregistered
	}
}

// AddParticipant appends participant to the registered sequence. It does not
// check capacity; callers decide between seat and waitlist first.
func (e *Event) AddParticipant(participant string) bool {
	if e.StatusOf(participant) != StateUnregistered {
		return false
	}
	e.Registered = append(e.Registered, participant)
	return true
}

// AddToWaitlist appends participant to the tail of the waitlist.
func (e *Event) AddToWaitlist(participant string) bool {
	if e.StatusOf(participant) != StateUnregistered {
		return false
	}
	e.Waitlist = append(e.Waitlist, participant)
	return true
}

// RemoveParticipant drops participant from the registered sequence.
func (e *Event) RemoveParticipant(participant string) bool {
	i := slices.Index(e.Registered, participant)
	if i < 0 {
		return false
	}
	e.Registered = slices.Delete(e.Registered, i, i+1)
	return true
}

// RemoveFromWaitlist drops participant from the waitlist.
func (e *Event) RemoveFromWaitlist(participant string) bool {
	i := slices.Index(e.Waitlist, participant)
	if i < 0 {
		return false
	}
	e.Waitlist = slices.Delete(e.Waitlist, i, i+1)
	return true
}

// PollWaitlist removes and returns the head of the waitlist.
func (e *Event) PollWaitlist() (string, bool) {
	if len(e.Waitlist) == 0 {
		return "", false
	}
	head := e.Waitlist[0]
	e.Waitlist = slices.Delete(e.Waitlist, 0, 1)
	return head, true
}

// String returns a compact one-line summary of the event.
func (e *Event) String() string {
	status := ""
	if e.Cancelled {
		status = " [CANCELLED]"
	}
	return fmt.Sprintf("[%d] %s - %s %s @ %s (%d/%d registered, %d waitlisted)%s",
		e.ID, e.Name, e.Date, e.Time, e.Location,
		len(e.Registered), e.Capacity, len(e.Waitlist), status)
}

// MembershipState is the state of one (event, participant) pair.
type MembershipState int

const (
	StateUnregistered MembershipState = iota
	StateRegistered
	StateWaitlisted
)

func (s MembershipState) String() string {
	switch s {
	case StateRegistered:
		return "registered"
	case StateWaitlisted:
		return "waitlisted"
	default:
		return "unregistered"
	}
}

// MarshalText lets the state appear as a word in JSON and YAML output.
func (s MembershipState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// RegisterStatus is the successful outcome of a registration attempt.
type RegisterStatus int

const (
	StatusRegistered RegisterStatus = iota + 1
	StatusWaitlisted
)

func (s RegisterStatus) String() string {
	switch s {
	case StatusRegistered:
		return "registered"
	case StatusWaitlisted:
		return "waitlisted"
	default:
		return fmt.Sprintf("RegisterStatus(%d)", int(s))
	}
}

func (s RegisterStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// RegisterResult summarises a successful registration. Position is the
// 1-based waitlist position and is zero when a seat was granted.
type RegisterResult struct {
	EventID     int            `json:"event_id"`
	Participant string         `json:"participant"`
	Status      RegisterStatus `json:"status"`
	Position    int            `json:"position,omitempty"`
}

// CancelStatus is the successful outcome of withdrawing from an event.
type CancelStatus int

const (
	StatusCancelledRegistration CancelStatus = iota + 1
	StatusCancelledWaitlist
)

func (s CancelStatus) String() string {
	switch s {
	case StatusCancelledRegistration:
		return "cancelled_registration"
	case StatusCancelledWaitlist:
		return "cancelled_waitlist"
	default:
		return fmt.Sprintf("CancelStatus(%d)", int(s))
	}
}

func (s CancelStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// CancelResult summarises a successful withdrawal. Promoted holds the
// participant moved off the waitlist into the freed seat, if any.
type CancelResult struct {
	EventID     int          `json:"event_id"`
	Participant string       `json:"participant"`
	Status      CancelStatus `json:"status"`
	Promoted    string       `json:"promoted,omitempty"`
}

// Membership describes one participant's standing in one event.
type Membership struct {
	EventID     int             `json:"event_id"`
	Participant string          `json:"participant"`
	State       MembershipState `json:"state"`
	Position    int             `json:"position,omitempty"`
}

// CreateEventRequest is the payload for creating a new event.
type CreateEventRequest struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Location string `json:"location"`
	Capacity int    `json:"capacity"`
}

// UpdateEventRequest carries the mutable fields; nil means unchanged.
type UpdateEventRequest struct {
	Name     *string `json:"name,omitempty"`
	Date     *string `json:"date,omitempty"`
	Time     *string `json:"time,omitempty"`
	Location *string `json:"location,omitempty"`
}

// ParticipantRequest is the payload for registering or withdrawing.
type ParticipantRequest struct {
	Participant string `json:"participant"`
}

// Stats reports event counts.
type Stats struct {
	Active int `json:"active"`
	Total  int `json:"total"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
