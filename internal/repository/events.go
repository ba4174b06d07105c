package repository

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"github.com/Shivanand-hulikatti/convene/internal/model"
)

// EventRepository handles creation, lookup, updates and queries over events.
type EventRepository struct {
	store *EventStore
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(store *EventStore) *EventRepository {
	return &EventRepository{store: store}
}

// Create inserts a new event and returns a copy of it.
func (r *EventRepository) Create(id int, name, date, tm, location string, capacity int) (model.Event, error) {
	if err := validateEvent(id, capacity, name, date, tm, location); err != nil {
		return model.Event{}, err
	}
	ev := model.NewEvent(id, name, date, tm, location, capacity)
	if err := r.store.insert(ev); err != nil {
		return model.Event{}, err
	}
	// Nothing else can hold a reference yet.
	return ev.Clone(), nil
}

// Restore inserts a fully formed event, memberships included. It is used when
// rehydrating from disk and enforces the same invariants as live operations.
func (r *EventRepository) Restore(ev model.Event) error {
	if err := validateEvent(ev.ID, ev.Capacity, ev.Name, ev.Date, ev.Time, ev.Location); err != nil {
		return err
	}
	if len(ev.Registered) > ev.Capacity {
		return fmt.Errorf("%w: %d registered exceeds capacity %d", ErrInvalidEvent, len(ev.Registered), ev.Capacity)
	}
	seen := make(map[string]struct{}, len(ev.Registered)+len(ev.Waitlist))
	for _, p := range slices.Concat(ev.Registered, ev.Waitlist) {
		if err := checkParticipant(p); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidEvent, err)
		}
		if _, dup := seen[p]; dup {
			return fmt.Errorf("%w: participant %q appears twice", ErrInvalidEvent, p)
		}
		seen[p] = struct{}{}
	}
	c := ev.Clone()
	return r.store.insert(&c)
}

// Get returns a copy of a single event or ErrNotFound.
func (r *EventRepository) Get(id int) (model.Event, error) {
	var out model.Event
	err := r.store.withEvent(id, func(ev *model.Event) error {
		out = ev.Clone()
		return nil
	})
	return out, err
}

// Exists reports whether an event with the given ID is present.
func (r *EventRepository) Exists(id int) bool {
	_, ok := r.store.lookup(id)
	return ok
}

// Cancel marks an event as cancelled. Memberships are left untouched so the
// event keeps its history.
func (r *EventRepository) Cancel(id int) error {
	return r.store.withEvent(id, func(ev *model.Event) error {
		if ev.Cancelled {
			return ErrAlreadyCancelled
		}
		ev.Cancelled = true
		return nil
	})
}

// Update applies every non-nil field of changes to an active event in one
// critical section. Nothing is applied if any field is rejected or the event
// is cancelled.
func (r *EventRepository) Update(id int, changes model.UpdateEventRequest) (model.Event, error) {
	fields := []struct {
		name     string
		value    *string
		required bool
		dst      func(ev *model.Event) *string
	}{
		{"name", changes.Name, true, func(ev *model.Event) *string { return &ev.Name }},
		{"date", changes.Date, false, func(ev *model.Event) *string { return &ev.Date }},
		{"time", changes.Time, false, func(ev *model.Event) *string { return &ev.Time }},
		{"location", changes.Location, true, func(ev *model.Event) *string { return &ev.Location }},
	}
	for _, f := range fields {
		if f.value == nil {
			continue
		}
		if err := checkField(f.name, *f.value, f.required); err != nil {
			return model.Event{}, err
		}
	}

	var out model.Event
	err := r.store.withEvent(id, func(ev *model.Event) error {
		if ev.Cancelled {
			return ErrEventCancelled
		}
		for _, f := range fields {
			if f.value != nil {
				*f.dst(ev) = *f.value
			}
		}
		out = ev.Clone()
		return nil
	})
	return out, err
}

// UpdateName renames an active event.
func (r *EventRepository) UpdateName(id int, name string) (model.Event, error) {
	return r.Update(id, model.UpdateEventRequest{Name: &name})
}

// UpdateDate reschedules an active event to another day.
func (r *EventRepository) UpdateDate(id int, date string) (model.Event, error) {
	return r.Update(id, model.UpdateEventRequest{Date: &date})
}

// UpdateTime moves an active event to another time of day.
func (r *EventRepository) UpdateTime(id int, tm string) (model.Event, error) {
	return r.Update(id, model.UpdateEventRequest{Time: &tm})
}

// UpdateLocation moves an active event to another venue.
func (r *EventRepository) UpdateLocation(id int, location string) (model.Event, error) {
	return r.Update(id, model.UpdateEventRequest{Location: &location})
}

// ListActive returns copies of all events that are not cancelled.
func (r *EventRepository) ListActive() []model.Event {
	return r.store.snapshot(isActive)
}

// ListAll returns copies of every event, cancelled ones included.
func (r *EventRepository) ListAll() []model.Event {
	return r.store.snapshot(nil)
}

// Snapshot returns copies of every event in ID order for persistence.
func (r *EventRepository) Snapshot() []model.Event {
	return r.store.snapshot(nil)
}

// SortedByName returns active events ordered by case-folded name, then ID.
func (r *EventRepository) SortedByName() []model.Event {
	events := r.ListActive()
	fold := cases.Fold()
	keys := make(map[int]string, len(events))
	for _, ev := range events {
		keys[ev.ID] = fold.String(ev.Name)
	}
	slices.SortStableFunc(events, func(a, b model.Event) int {
		if c := strings.Compare(keys[a.ID], keys[b.ID]); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return events
}

// SortedByDate returns active events in chronological order, then by ID.
func (r *EventRepository) SortedByDate() []model.Event {
	events := r.ListActive()
	slices.SortStableFunc(events, func(a, b model.Event) int {
		if c := compareDates(a.Date, b.Date); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return events
}

// compareDates orders dd/mm/yyyy strings by year, month, then day. The parts
// are fixed-width digits, so string comparison matches numeric order. Dates
// that do not split into three parts sort after well-formed ones.
func compareDates(a, b string) int {
	pa, pb := strings.Split(a, "/"), strings.Split(b, "/")
	okA, okB := len(pa) == 3, len(pb) == 3
	switch {
	case okA && !okB:
		return -1
	case !okA && okB:
		return 1
	case !okA && !okB:
		return strings.Compare(a, b)
	}
	for _, i := range []int{2, 1, 0} {
		if c := strings.Compare(pa[i], pb[i]); c != 0 {
			return c
		}
	}
	return 0
}

// SearchByName returns every event whose name contains query, ignoring case.
func (r *EventRepository) SearchByName(query string) []model.Event {
	fold := cases.Fold()
	q := fold.String(query)
	return r.store.snapshot(func(ev *model.Event) bool {
		return strings.Contains(fold.String(ev.Name), q)
	})
}

// SearchByDate returns every event scheduled on exactly date.
func (r *EventRepository) SearchByDate(date string) []model.Event {
	return r.store.snapshot(func(ev *model.Event) bool {
		return ev.Date == date
	})
}

// CountActive returns the number of events that are not cancelled.
func (r *EventRepository) CountActive() int {
	n := 0
	for _, e := range r.store.entries() {
		e.mu.Lock()
		if !e.event.Cancelled {
			n++
		}
		e.mu.Unlock()
	}
	return n
}

// CountTotal returns the number of events, cancelled ones included.
func (r *EventRepository) CountTotal() int {
	return r.store.Len()
}

func isActive(ev *model.Event) bool {
	return !ev.Cancelled
}
