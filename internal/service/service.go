// Package service implements validation and orchestration between the
// transports and the repository layer, and persists every durable change.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/convene/internal/model"
	"github.com/Shivanand-hulikatti/convene/internal/persistence"
	"github.com/Shivanand-hulikatti/convene/internal/repository"
)

// ErrInvalidInput is returned when a request fails field validation.
var ErrInvalidInput = errors.New("invalid input")

// ErrSaveFailed is joined to the result of a mutation that was applied in
// memory but could not be written to disk.
var ErrSaveFailed = errors.New("change applied but not saved")

// MaxCapacity bounds the seats of a single event.
const MaxCapacity = 100_000

// List views accepted by ListEvents.
const (
	ViewActive = "active"
	ViewAll    = "all"
	ViewName   = "name"
	ViewDate   = "date"
)

var (
	datePattern = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)
	timePattern = regexp.MustCompile(`^\d{2}:\d{2}$`)
)

// EventService orchestrates event-related business operations.
type EventService struct {
	events        *repository.EventRepository
	registrations *repository.RegistrationRepository
	files         *persistence.FileStore
	logger        *slog.Logger
}

// NewEventService constructs an EventService with its dependencies. files may
// be nil, in which case nothing is persisted.
func NewEventService(
	events *repository.EventRepository,
	registrations *repository.RegistrationRepository,
	files *persistence.FileStore,
	logger *slog.Logger,
) *EventService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &EventService{events: events, registrations: registrations, files: files, logger: logger}
}

// Load rehydrates the registry from disk. It must run before any other call.
func (s *EventService) Load(ctx context.Context) (*persistence.LoadReport, error) {
	if s.files == nil {
		return &persistence.LoadReport{}, nil
	}
	return s.files.Load(ctx, s.events)
}

// Save writes the registry to disk.
func (s *EventService) Save(ctx context.Context) error {
	if s.files == nil {
		return nil
	}
	return s.files.Save(ctx, s.events)
}

// persist saves after a mutation. The caller's cancellation is ignored so a
// dropped request cannot abort the write of a change it already made.
func (s *EventService) persist(ctx context.Context) error {
	if err := s.Save(context.WithoutCancel(ctx)); err != nil {
		s.logger.Error("save after mutation failed", "error", err)
		return errors.Join(ErrSaveFailed, err)
	}
	return nil
}

// CreateEvent validates the request and delegates to the repository.
func (s *EventService) CreateEvent(ctx context.Context, req model.CreateEventRequest) (model.Event, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Date = strings.TrimSpace(req.Date)
	req.Time = strings.TrimSpace(req.Time)
	req.Location = strings.TrimSpace(req.Location)

	if req.ID <= 0 {
		return model.Event{}, invalid("event id must be a positive integer")
	}
	if req.Capacity <= 0 {
		return model.Event{}, invalid("capacity must be a positive integer")
	}
	if req.Capacity > MaxCapacity {
		return model.Event{}, invalid("capacity cannot exceed 100,000")
	}
	if err := firstError(
		checkText("name", req.Name),
		checkDate(req.Date),
		checkTime(req.Time),
		checkText("location", req.Location),
	); err != nil {
		return model.Event{}, err
	}

	ev, err := s.events.Create(req.ID, req.Name, req.Date, req.Time, req.Location, req.Capacity)
	if err != nil {
		return model.Event{}, err
	}
	s.logger.Info("event created", "event_id", ev.ID, "capacity", ev.Capacity)
	return ev, s.persist(ctx)
}

// GetEvent returns a single event by ID.
func (s *EventService) GetEvent(_ context.Context, id int) (model.Event, error) {
	return s.events.Get(id)
}

// EventExists reports whether id is taken.
func (s *EventService) EventExists(_ context.Context, id int) bool {
	return s.events.Exists(id)
}

// UpdateEvent applies every field set in req. All fields are validated before
// any is applied, and the repository applies them under a single event lock.
func (s *EventService) UpdateEvent(ctx context.Context, id int, req model.UpdateEventRequest) (model.Event, error) {
	fields := []struct {
		value **string
		check func(string) error
	}{
		{&req.Name, func(v string) error { return checkText("name", v) }},
		{&req.Date, checkDate},
		{&req.Time, checkTime},
		{&req.Location, func(v string) error { return checkText("location", v) }},
	}

	set := 0
	for _, f := range fields {
		if *f.value == nil {
			continue
		}
		v := strings.TrimSpace(**f.value)
		if err := f.check(v); err != nil {
			return model.Event{}, err
		}
		*f.value = &v
		set++
	}
	if set == 0 {
		return model.Event{}, invalid("no fields to update")
	}

	ev, err := s.events.Update(id, req)
	if err != nil {
		return model.Event{}, err
	}
	s.logger.Info("event updated", "event_id", id)
	return ev, s.persist(ctx)
}

// UpdateName renames an event.
func (s *EventService) UpdateName(ctx context.Context, id int, name string) (model.Event, error) {
	return s.UpdateEvent(ctx, id, model.UpdateEventRequest{Name: &name})
}

// UpdateDate reschedules an event to another day.
func (s *EventService) UpdateDate(ctx context.Context, id int, date string) (model.Event, error) {
	return s.UpdateEvent(ctx, id, model.UpdateEventRequest{Date: &date})
}

// UpdateTime moves an event to another time of day.
func (s *EventService) UpdateTime(ctx context.Context, id int, tm string) (model.Event, error) {
	return s.UpdateEvent(ctx, id, model.UpdateEventRequest{Time: &tm})
}

// UpdateLocation moves an event to another venue.
func (s *EventService) UpdateLocation(ctx context.Context, id int, location string) (model.Event, error) {
	return s.UpdateEvent(ctx, id, model.UpdateEventRequest{Location: &location})
}

// CancelEvent soft-deletes an event.
func (s *EventService) CancelEvent(ctx context.Context, id int) error {
	if err := s.events.Cancel(id); err != nil {
		return err
	}
	s.logger.Info("event cancelled", "event_id", id)
	return s.persist(ctx)
}

// ListEvents returns events for one of the list views.
func (s *EventService) ListEvents(_ context.Context, view string) ([]model.Event, error) {
	switch strings.ToLower(strings.TrimSpace(view)) {
	case "", ViewActive:
		return s.events.ListActive(), nil
	case ViewAll:
		return s.events.ListAll(), nil
	case ViewName:
		return s.events.SortedByName(), nil
	case ViewDate:
		return s.events.SortedByDate(), nil
	default:
		return nil, invalid(fmt.Sprintf("unknown view %q: must be active, all, name or date", view))
	}
}

// SearchByName matches a case-insensitive substring of the event name.
func (s *EventService) SearchByName(_ context.Context, query string) ([]model.Event, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, invalid("search query is required")
	}
	return s.events.SearchByName(query), nil
}

// SearchByDate returns events scheduled on date.
func (s *EventService) SearchByDate(_ context.Context, date string) ([]model.Event, error) {
	date = strings.TrimSpace(date)
	if err := checkDate(date); err != nil {
		return nil, err
	}
	return s.events.SearchByDate(date), nil
}

// Stats returns active and total event counts.
func (s *EventService) Stats(_ context.Context) model.Stats {
	return model.Stats{Active: s.events.CountActive(), Total: s.events.CountTotal()}
}

// Register validates the participant and runs the registration.
func (s *EventService) Register(ctx context.Context, eventID int, req model.ParticipantRequest) (model.RegisterResult, error) {
	participant, err := cleanParticipant(req.Participant)
	if err != nil {
		return model.RegisterResult{}, err
	}
	res, err := s.registrations.Register(eventID, participant)
	if err != nil {
		return model.RegisterResult{}, err
	}
	s.logger.Info("participant registered",
		"event_id", eventID, "participant", participant, "status", res.Status, "position", res.Position)
	return res, s.persist(ctx)
}

// CancelRegistration withdraws a participant and reports any promotion.
func (s *EventService) CancelRegistration(ctx context.Context, eventID int, req model.ParticipantRequest) (model.CancelResult, error) {
	participant, err := cleanParticipant(req.Participant)
	if err != nil {
		return model.CancelResult{}, err
	}
	res, err := s.registrations.CancelRegistration(eventID, participant)
	if err != nil {
		return model.CancelResult{}, err
	}
	s.logger.Info("registration cancelled", "event_id", eventID, "participant", participant, "status", res.Status)
	if res.Promoted != "" {
		s.logger.Info("participant promoted from waitlist", "event_id", eventID, "participant", res.Promoted)
	}
	return res, s.persist(ctx)
}

// EventsForParticipant lists the events a participant is registered or
// waitlisted for.
func (s *EventService) EventsForParticipant(_ context.Context, participant string) ([]model.Event, error) {
	participant, err := cleanParticipant(participant)
	if err != nil {
		return nil, err
	}
	return s.registrations.EventsForParticipant(participant), nil
}

// Membership reports one participant's standing in one event.
func (s *EventService) Membership(_ context.Context, eventID int, participant string) (model.Membership, error) {
	participant, err := cleanParticipant(participant)
	if err != nil {
		return model.Membership{}, err
	}
	return s.registrations.Membership(eventID, participant)
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// checkText rejects empty values and values the record format cannot hold:
// line breaks, and a trailing backslash that would swallow the separator.
func checkText(field, v string) error {
	switch {
	case v == "":
		return invalid(field + " is required")
	case strings.ContainsAny(v, "\r\n"):
		return invalid(field + " must be a single line")
	case strings.HasSuffix(v, `\`):
		return invalid(field + " must not end with a backslash")
	}
	return nil
}

func checkDate(v string) error {
	if !datePattern.MatchString(v) {
		return invalid(fmt.Sprintf("date %q must be in dd/mm/yyyy format", v))
	}
	if _, err := time.Parse("02/01/2006", v); err != nil {
		return invalid(fmt.Sprintf("date %q is not a calendar day", v))
	}
	return nil
}

func checkTime(v string) error {
	if !timePattern.MatchString(v) {
		return invalid(fmt.Sprintf("time %q must be in HH:mm format", v))
	}
	if _, err := time.Parse("15:04", v); err != nil {
		return invalid(fmt.Sprintf("time %q is not a 24-hour time", v))
	}
	return nil
}

func cleanParticipant(p string) (string, error) {
	p = strings.TrimSpace(p)
	if err := checkText("participant", p); err != nil {
		return "", err
	}
	return p, nil
}
