package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/convene/internal/model"
)

func newRepos() (*EventRepository, *RegistrationRepository) {
	store := NewEventStore()
	return NewEventRepository(store), NewRegistrationRepository(store)
}

func ids(events []model.Event) []int {
	out := make([]int, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.ID)
	}
	return out
}

func TestCreate_RejectsDuplicateID(t *testing.T) {
	events, _ := newRepos()

	_, err := events.Create(1, "Hack Night", "01/03/2026", "18:00", "Lab", 10)
	require.NoError(t, err)

	_, err = events.Create(1, "Other", "02/03/2026", "18:00", "Hall", 5)
	require.ErrorIs(t, err, ErrDuplicateID)

	ev, err := events.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "Hack Night", ev.Name)
}

func TestCreate_RejectsInvalidFields(t *testing.T) {
	events, _ := newRepos()

	cases := []struct {
		name     string
		id       int
		evName   string
		location string
		capacity int
	}{
		{"zero id", 0, "n", "l", 1},
		{"negative capacity", 1, "n", "l", -1},
		{"empty name", 1, "  ", "l", 1},
		{"empty location", 1, "n", "", 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := events.Create(tc.id, tc.evName, "01/01/2026", "10:00", tc.location, tc.capacity)
			assert.ErrorIs(t, err, ErrInvalidEvent)
		})
	}
	assert.Zero(t, events.CountTotal())
}

func TestGet_NotFound(t *testing.T) {
	events, _ := newRepos()

	_, err := events.Get(42)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, events.Exists(42))
}

func TestGet_ReturnsCopy(t *testing.T) {
	events, regs := newRepos()
	_, err := events.Create(1, "Talk", "01/01/2026", "10:00", "Room", 2)
	require.NoError(t, err)
	_, err = regs.Register(1, "a")
	require.NoError(t, err)

	ev, err := events.Get(1)
	require.NoError(t, err)
	ev.Registered[0] = "mallory"
	ev.Name = "changed"

	again, err := events.Get(1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, again.Registered)
	assert.Equal(t, "Talk", again.Name)
}

func TestCancel_SecondCallReportsAlreadyCancelled(t *testing.T) {
	events, regs := newRepos()
	_, err := events.Create(1, "Talk", "01/01/2026", "10:00", "Room", 1)
	require.NoError(t, err)
	_, err = regs.Register(1, "a")
	require.NoError(t, err)
	_, err = regs.Register(1, "b")
	require.NoError(t, err)

	require.NoError(t, events.Cancel(1))
	first, err := events.Get(1)
	require.NoError(t, err)

	assert.ErrorIs(t, events.Cancel(1), ErrAlreadyCancelled)
	second, err := events.Get(1)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.True(t, second.Cancelled)
	assert.Equal(t, []string{"a"}, second.Registered)
	assert.Equal(t, []string{"b"}, second.Waitlist)

	assert.ErrorIs(t, events.Cancel(99), ErrNotFound)
}

func TestUpdate_RejectedOnceCancelled(t *testing.T) {
	events, _ := newRepos()
	_, err := events.Create(1, "Talk", "01/01/2026", "10:00", "Room", 1)
	require.NoError(t, err)

	ev, err := events.UpdateName(1, "Keynote")
	require.NoError(t, err)
	assert.Equal(t, "Keynote", ev.Name)

	ev, err = events.UpdateTime(1, "11:30")
	require.NoError(t, err)
	assert.Equal(t, "11:30", ev.Time)

	ev, err = events.UpdateLocation(1, "Aula")
	require.NoError(t, err)
	assert.Equal(t, "Aula", ev.Location)

	ev, err = events.UpdateDate(1, "02/01/2026")
	require.NoError(t, err)
	assert.Equal(t, "02/01/2026", ev.Date)

	_, err = events.UpdateName(1, " ")
	assert.ErrorIs(t, err, ErrInvalidEvent)

	require.NoError(t, events.Cancel(1))

	_, err = events.UpdateName(1, "Too late")
	assert.ErrorIs(t, err, ErrEventCancelled)
	_, err = events.UpdateLocation(1, "Elsewhere")
	assert.ErrorIs(t, err, ErrEventCancelled)
	_, err = events.UpdateTime(2, "09:00")
	assert.ErrorIs(t, err, ErrNotFound)

	ev, err = events.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "Keynote", ev.Name)
}

func TestCreate_RejectsTextThatCannotBeStored(t *testing.T) {
	events, _ := newRepos()

	cases := []struct {
		name, evName, date, tm, location string
	}{
		{"newline in name", "Talk\nEVENT|99|x|01/01/2026|10:00|y|1|false", "01/01/2026", "10:00", "Room"},
		{"carriage return in date", "Talk", "01/01/2026\r", "10:00", "Room"},
		{"newline in time", "Talk", "01/01/2026", "10:00\n", "Room"},
		{"trailing backslash in location", "Talk", "01/01/2026", "10:00", `Room\`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := events.Create(1, tc.evName, tc.date, tc.tm, tc.location, 1)
			assert.ErrorIs(t, err, ErrInvalidEvent)
		})
	}
	assert.Zero(t, events.CountTotal())

	// A pipe or an inner backslash is representable.
	_, err := events.Create(1, `A|B \ C`, "01/01/2026", "10:00", "Room", 1)
	require.NoError(t, err)
}

func TestUpdate_AppliesAllFieldsOrNone(t *testing.T) {
	events, _ := newRepos()
	orig, err := events.Create(1, "Talk", "01/01/2026", "10:00", "Room", 1)
	require.NoError(t, err)

	name, date, tm, location := "Keynote", "02/01/2026", "11:00", "Aula"
	bad := "Aula\\"

	_, err = events.Update(1, model.UpdateEventRequest{Name: &name, Date: &date, Location: &bad})
	assert.ErrorIs(t, err, ErrInvalidEvent)
	got, err := events.Get(1)
	require.NoError(t, err)
	assert.Equal(t, orig, got)

	require.NoError(t, events.Cancel(1))
	_, err = events.Update(1, model.UpdateEventRequest{Name: &name, Date: &date, Time: &tm, Location: &location})
	assert.ErrorIs(t, err, ErrEventCancelled)

	got, err = events.Get(1)
	require.NoError(t, err)
	orig.Cancelled = true
	assert.Equal(t, orig, got)
}

func TestListAndCount(t *testing.T) {
	events, _ := newRepos()
	for id := 3; id >= 1; id-- {
		_, err := events.Create(id, "E", "01/01/2026", "10:00", "Room", 1)
		require.NoError(t, err)
	}
	require.NoError(t, events.Cancel(2))

	assert.Equal(t, []int{1, 3}, ids(events.ListActive()))
	assert.Equal(t, []int{1, 2, 3}, ids(events.ListAll()))
	assert.Equal(t, 2, events.CountActive())
	assert.Equal(t, 3, events.CountTotal())
}

func TestSortedByName_CaseInsensitiveWithIDTieBreak(t *testing.T) {
	events, _ := newRepos()
	for _, c := range []struct {
		id   int
		name string
	}{
		{4, "beta"},
		{2, "Alpha"},
		{3, "alpha"},
		{1, "Gamma"},
		{5, "ALPHA"},
	} {
		_, err := events.Create(c.id, c.name, "01/01/2026", "10:00", "Room", 1)
		require.NoError(t, err)
	}
	require.NoError(t, events.Cancel(1))

	assert.Equal(t, []int{2, 3, 5, 4}, ids(events.SortedByName()))
}

func TestSortedByDate_Chronological(t *testing.T) {
	events, _ := newRepos()
	_, err := events.Create(1, "A", "01/03/2026", "10:00", "Room", 1)
	require.NoError(t, err)
	_, err = events.Create(2, "B", "15/01/2026", "10:00", "Room", 1)
	require.NoError(t, err)
	_, err = events.Create(3, "C", "01/01/2026", "10:00", "Room", 1)
	require.NoError(t, err)

	sorted := events.SortedByDate()
	dates := make([]string, 0, len(sorted))
	for _, ev := range sorted {
		dates = append(dates, ev.Date)
	}
	assert.Equal(t, []string{"01/01/2026", "15/01/2026", "01/03/2026"}, dates)
}

func TestSortedByDate_TiesAndYearBoundary(t *testing.T) {
	events, _ := newRepos()
	_, err := events.Create(9, "A", "31/12/2025", "10:00", "Room", 1)
	require.NoError(t, err)
	_, err = events.Create(5, "B", "01/01/2026", "10:00", "Room", 1)
	require.NoError(t, err)
	_, err = events.Create(2, "C", "01/01/2026", "09:00", "Room", 1)
	require.NoError(t, err)
	_, err = events.Create(7, "D", "someday", "09:00", "Room", 1)
	require.NoError(t, err)

	assert.Equal(t, []int{9, 2, 5, 7}, ids(events.SortedByDate()))
}

func TestSearch_IncludesCancelledEvents(t *testing.T) {
	events, _ := newRepos()
	_, err := events.Create(1, "Chess Club", "01/01/2026", "10:00", "Room", 1)
	require.NoError(t, err)
	_, err = events.Create(2, "Welcome Party", "02/01/2026", "10:00", "Room", 1)
	require.NoError(t, err)
	_, err = events.Create(3, "CHESS finals", "02/01/2026", "10:00", "Room", 1)
	require.NoError(t, err)
	require.NoError(t, events.Cancel(3))

	assert.Equal(t, []int{1, 3}, ids(events.SearchByName("chess")))
	assert.Empty(t, events.SearchByName("karaoke"))
	assert.Equal(t, []int{2, 3}, ids(events.SearchByDate("02/01/2026")))
	assert.Empty(t, events.SearchByDate("2/01/2026"))
}

func TestRestore_EnforcesInvariants(t *testing.T) {
	events, _ := newRepos()

	ok := model.Event{ID: 1, Name: "A", Date: "01/01/2026", Time: "10:00", Location: "R", Capacity: 1,
		Registered: []string{"a"}, Waitlist: []string{"b", "c"}, Cancelled: true}
	require.NoError(t, events.Restore(ok))

	got, err := events.Get(1)
	require.NoError(t, err)
	assert.Equal(t, ok, got)

	over := ok
	over.ID = 2
	over.Registered = []string{"a", "b"}
	over.Waitlist = nil
	assert.ErrorIs(t, events.Restore(over), ErrInvalidEvent)

	overlap := ok
	overlap.ID = 3
	overlap.Waitlist = []string{"a"}
	assert.ErrorIs(t, events.Restore(overlap), ErrInvalidEvent)

	multiline := ok
	multiline.ID = 4
	multiline.Waitlist = []string{"b\nREG|4|c"}
	assert.ErrorIs(t, events.Restore(multiline), ErrInvalidEvent)

	assert.ErrorIs(t, events.Restore(ok), ErrDuplicateID)
}
