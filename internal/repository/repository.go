// Package repository holds the in-memory event registry and the registration
// state machine. Every event is guarded by its own mutex so that operations
// on different events never wait on each other.
package repository

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/Shivanand-hulikatti/convene/internal/model"
)

// ErrNotFound is returned when a requested event does not exist.
var ErrNotFound = errors.New("event not found")

// ErrDuplicateID is returned when an event is created with an ID already in use.
var ErrDuplicateID = errors.New("event id already exists")

// ErrInvalidEvent is returned when event fields break a basic invariant.
var ErrInvalidEvent = errors.New("invalid event")

// ErrInvalidParticipant is returned for an empty participant identifier or one
// that cannot be stored.
var ErrInvalidParticipant = errors.New("invalid participant")

// ErrEventCancelled is returned when a mutation targets a cancelled event.
var ErrEventCancelled = errors.New("event is cancelled")

// ErrAlreadyCancelled is returned when cancelling an event twice.
var ErrAlreadyCancelled = errors.New("event is already cancelled")

// ErrAlreadyRegistered is returned when a participant is already registered
// or waitlisted for the event.
var ErrAlreadyRegistered = errors.New("participant already registered or waitlisted for this event")

// ErrNotRegistered is returned when withdrawing without any membership.
var ErrNotRegistered = errors.New("participant is not registered or waitlisted for this event")

// entry pairs an event with the lock that serialises all access to it.
type entry struct {
	mu    sync.Mutex
	event *model.Event
}

// EventStore is the registry shared by EventRepository and
// RegistrationRepository.
//
// Locking order: mu is only held to find or insert entries and is always
// released before an entry lock is taken.
type EventStore struct {
	mu     sync.RWMutex
	events map[int]*entry
}

// NewEventStore constructs an empty EventStore.
func NewEventStore() *EventStore {
	return &EventStore{events: make(map[int]*entry)}
}

func (s *EventStore) lookup(id int) (*entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[id]
	return e, ok
}

// insert adds ev under its ID unless that ID is taken.
func (s *EventStore) insert(ev *model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[ev.ID]; ok {
		return fmt.Errorf("%w: %d", ErrDuplicateID, ev.ID)
	}
	s.events[ev.ID] = &entry{event: ev}
	return nil
}

// entries returns every entry ordered by event ID.
func (s *EventStore) entries() []*entry {
	s.mu.RLock()
	out := make([]*entry, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e)
	}
	s.mu.RUnlock()

	// IDs are immutable, so reading them without the entry lock is safe.
	slices.SortFunc(out, func(a, b *entry) int { return a.event.ID - b.event.ID })
	return out
}

// withEvent runs fn while holding the event's exclusive lock.
func (s *EventStore) withEvent(id int, fn func(ev *model.Event) error) error {
	e, ok := s.lookup(id)
	if !ok {
		return ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.event)
}

// snapshot returns copies of the events accepted by keep, in ID order.
func (s *EventStore) snapshot(keep func(ev *model.Event) bool) []model.Event {
	var out []model.Event
	for _, e := range s.entries() {
		e.mu.Lock()
		if keep == nil || keep(e.event) {
			out = append(out, e.event.Clone())
		}
		e.mu.Unlock()
	}
	return out
}

// Len returns the number of events held, cancelled ones included.
func (s *EventStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

func validateEvent(id, capacity int, name, date, tm, location string) error {
	switch {
	case id <= 0:
		return fmt.Errorf("%w: id must be a positive integer", ErrInvalidEvent)
	case capacity <= 0:
		return fmt.Errorf("%w: capacity must be a positive integer", ErrInvalidEvent)
	}
	return firstError(
		checkField("name", name, true),
		checkField("date", date, false),
		checkField("time", tm, false),
		checkField("location", location, true),
	)
}

// checkField rejects text a data file line cannot carry: a line break ends the
// record and a trailing backslash escapes the separator after it.
func checkField(field, v string, required bool) error {
	switch {
	case required && strings.TrimSpace(v) == "":
		return fmt.Errorf("%w: %s is required", ErrInvalidEvent, field)
	case !storable(v):
		return fmt.Errorf("%w: %s must be one line without a trailing backslash", ErrInvalidEvent, field)
	}
	return nil
}

func checkParticipant(p string) error {
	switch {
	case strings.TrimSpace(p) == "":
		return fmt.Errorf("%w: participant is required", ErrInvalidParticipant)
	case !storable(p):
		return fmt.Errorf("%w: participant must be one line without a trailing backslash", ErrInvalidParticipant)
	}
	return nil
}

func storable(v string) bool {
	return !strings.ContainsAny(v, "\r\n") && !strings.HasSuffix(v, `\`)
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
