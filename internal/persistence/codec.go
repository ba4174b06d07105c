// Package persistence stores the event registry as pipe-delimited text
// records, one per line:
//
//	EVENT|id|name|date|time|location|capacity|cancelled
//	REG|eventId|participantId
//	WAIT|eventId|participantId
//
// A literal '|' inside a field is written as `\|`. Each EVENT line is followed
// by its REG lines in registration order and then its WAIT lines in queue
// order, so a reader can apply memberships to an event it has already seen.
package persistence

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Shivanand-hulikatti/convene/internal/model"
)

// Record kinds.
const (
	KindEvent    = "EVENT"
	KindRegister = "REG"
	KindWait     = "WAIT"
)

const (
	eventFields      = 8
	membershipFields = 3
	maxLineBytes     = 1 << 20
)

// ErrMalformedRecord is returned by DecodeLine for a line of a known kind that
// cannot be parsed.
var ErrMalformedRecord = errors.New("malformed record")

// ErrUnknownRecord is returned by DecodeLine for an unrecognised record kind.
var ErrUnknownRecord = errors.New("unknown record kind")

// Record is one decoded line. Event is set for EVENT records; EventID and
// Participant are set for REG and WAIT records.
type Record struct {
	Kind        string
	EventID     int
	Participant string
	Event       *model.Event
}

// Diagnostic describes a line that was skipped during decoding.
type Diagnostic struct {
	Line   int    `json:"line"`
	Kind   string `json:"kind"`
	Reason string `json:"reason"`
}

func (d Diagnostic) String() string {
	if d.Kind == "" {
		return fmt.Sprintf("line %d: %s", d.Line, d.Reason)
	}
	return fmt.Sprintf("line %d (%s): %s", d.Line, d.Kind, d.Reason)
}

func escapeField(v string) string {
	return strings.ReplaceAll(v, "|", `\|`)
}

// splitRecord splits on unescaped pipes and unescapes `\|` inside fields.
// A backslash not followed by a pipe is kept as is.
func splitRecord(line string) []string {
	var (
		fields []string
		cur    strings.Builder
	)
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '\\' && i+1 < len(line) && line[i+1] == '|':
			cur.WriteByte('|')
			i++
		case c == '|':
			fields = append(fields, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	return append(fields, cur.String())
}

// EncodeEvent writes the EVENT line for ev followed by its REG and WAIT lines.
func EncodeEvent(w io.Writer, ev model.Event) error {
	if _, err := fmt.Fprintf(w, "%s|%d|%s|%s|%s|%s|%d|%t\n",
		KindEvent, ev.ID,
		escapeField(ev.Name), escapeField(ev.Date), escapeField(ev.Time), escapeField(ev.Location),
		ev.Capacity, ev.Cancelled); err != nil {
		return err
	}
	for _, p := range ev.Registered {
		if _, err := fmt.Fprintf(w, "%s|%d|%s\n", KindRegister, ev.ID, escapeField(p)); err != nil {
			return err
		}
	}
	for _, p := range ev.Waitlist {
		if _, err := fmt.Fprintf(w, "%s|%d|%s\n", KindWait, ev.ID, escapeField(p)); err != nil {
			return err
		}
	}
	return nil
}

// Encode writes all events in the order given.
func Encode(w io.Writer, events []model.Event) error {
	bw := bufio.NewWriter(w)
	for _, ev := range events {
		if err := EncodeEvent(bw, ev); err != nil {
			return fmt.Errorf("encode event %d: %w", ev.ID, err)
		}
	}
	return bw.Flush()
}

// DecodeLine parses a single non-blank line.
func DecodeLine(line string) (Record, error) {
	parts := splitRecord(line)
	kind := parts[0]
	switch kind {
	case KindEvent:
		if len(parts) != eventFields {
			return Record{Kind: kind}, fmt.Errorf("%w: expected %d fields, got %d", ErrMalformedRecord, eventFields, len(parts))
		}
		id, err := parsePositive(parts[1], "event id")
		if err != nil {
			return Record{Kind: kind}, err
		}
		capacity, err := parsePositive(parts[6], "capacity")
		if err != nil {
			return Record{Kind: kind}, err
		}
		var cancelled bool
		switch parts[7] {
		case "true":
			cancelled = true
		case "false":
		default:
			return Record{Kind: kind}, fmt.Errorf("%w: cancelled flag %q is not true or false", ErrMalformedRecord, parts[7])
		}
		if strings.TrimSpace(parts[2]) == "" || strings.TrimSpace(parts[5]) == "" {
			return Record{Kind: kind}, fmt.Errorf("%w: name and location are required", ErrMalformedRecord)
		}
		ev := model.NewEvent(id, parts[2], parts[3], parts[4], parts[5], capacity)
		ev.Cancelled = cancelled
		return Record{Kind: kind, EventID: id, Event: ev}, nil

	case KindRegister, KindWait:
		if len(parts) != membershipFields {
			return Record{Kind: kind}, fmt.Errorf("%w: expected %d fields, got %d", ErrMalformedRecord, membershipFields, len(parts))
		}
		id, err := parsePositive(parts[1], "event id")
		if err != nil {
			return Record{Kind: kind}, err
		}
		if parts[2] == "" {
			return Record{Kind: kind}, fmt.Errorf("%w: empty participant", ErrMalformedRecord)
		}
		return Record{Kind: kind, EventID: id, Participant: parts[2]}, nil

	default:
		return Record{Kind: kind}, fmt.Errorf("%w %q", ErrUnknownRecord, kind)
	}
}

func parsePositive(s, what string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s %q", ErrMalformedRecord, what, s)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%w: %s must be positive, got %d", ErrMalformedRecord, what, n)
	}
	return n, nil
}

// Decoded is the outcome of Decode. Events are in order of first appearance
// and Lines holds the line number of each event's EVENT record.
type Decoded struct {
	Events        []model.Event
	Lines         []int
	Registrations int
	Waitlisted    int
	Diagnostics   []Diagnostic
}

// Decode reads records from r. Bad lines are skipped and reported as
// diagnostics. A read error stops decoding and is returned together with
// everything decoded before it.
func Decode(r io.Reader) (*Decoded, error) {
	out := &Decoded{}
	index := make(map[int]int)
	skip := func(line int, kind, reason string) {
		out.Diagnostics = append(out.Diagnostics, Diagnostic{Line: line, Kind: kind, Reason: reason})
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		// Field values may carry edge spaces, so only a CRLF ending is dropped.
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		rec, err := DecodeLine(line)
		if err != nil {
			skip(lineNo, rec.Kind, err.Error())
			continue
		}

		if rec.Kind == KindEvent {
			if _, dup := index[rec.EventID]; dup {
				skip(lineNo, rec.Kind, fmt.Sprintf("duplicate event id %d", rec.EventID))
				continue
			}
			index[rec.EventID] = len(out.Events)
			out.Events = append(out.Events, *rec.Event)
			out.Lines = append(out.Lines, lineNo)
			continue
		}

		i, ok := index[rec.EventID]
		if !ok {
			skip(lineNo, rec.Kind, fmt.Sprintf("references unknown event %d", rec.EventID))
			continue
		}
		ev := &out.Events[i]
		if ev.StatusOf(rec.Participant) != model.StateUnregistered {
			skip(lineNo, rec.Kind, fmt.Sprintf("participant %q already listed for event %d", rec.Participant, rec.EventID))
			continue
		}
		if rec.Kind == KindRegister {
			if !ev.HasSpace() {
				skip(lineNo, rec.Kind, fmt.Sprintf("event %d is already at capacity %d", rec.EventID, ev.Capacity))
				continue
			}
			ev.AddParticipant(rec.Participant)
			out.Registrations++
		} else {
			ev.AddToWaitlist(rec.Participant)
			out.Waitlisted++
		}
	}
	if err := sc.Err(); err != nil {
		return out, fmt.Errorf("read line %d: %w", lineNo+1, err)
	}
	return out, nil
}
