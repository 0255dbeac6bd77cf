package jugledger

import (
	"regexp"
	"strings"
	"time"
)

// State is the recorded condition of a jug after an event.
type State string

const (
	StateFilled  State = "Filled"
	StateEmptied State = "Emptied"
)

// Valid reports whether s is one of the known states.
func (s State) Valid() bool {
	return s == StateFilled || s == StateEmptied
}

// TimeLayout is the Go layout of the DateTime column (HH:MM:SS DD.MM.YYYY).
const TimeLayout = "15:04:05 02.01.2006"

// Header is the mandatory first row of the CSV representation.
var Header = []string{"JugName", "State", "DateTime"}

// time.Parse accepts a single-digit hour for "15"; the column does not.
var timestampRe = regexp.MustCompile(`^\d{2}:\d{2}:\d{2} \d{2}\.\d{2}\.\d{4}$`)

// Event is a single jug state change.
type Event struct {
	JugName  string `json:"JugName"`
	State    State  `json:"State"`
	DateTime string `json:"DateTime"`
}

type eventKey struct {
	name     string
	state    State
	dateTime string
}

func (e Event) key() eventKey {
	return eventKey{name: strings.TrimSpace(e.JugName), state: e.State, dateTime: e.DateTime}
}

// FormatTimestamp renders t in the DateTime column layout, in local time.
func FormatTimestamp(t time.Time) string {
	return t.In(time.Local).Format(TimeLayout)
}

// ParseTimestamp parses a DateTime value as local time.
func ParseTimestamp(s string) (time.Time, error) {
	return time.ParseInLocation(TimeLayout, s, time.Local)
}

// ValidTimestamp reports whether s is a well-formed DateTime value.
func ValidTimestamp(s string) bool {
	if !timestampRe.MatchString(s) {
		return false
	}
	_, err := ParseTimestamp(s)
	return err == nil
}

// sortKey returns the parsed timestamp of e, or the zero time when it cannot
// be parsed, so malformed rows lose to any valid entry.
func sortKey(e Event) time.Time {
	t, err := ParseTimestamp(e.DateTime)
	if err != nil {
		return time.Time{}
	}
	return t
}

// dedupe drops events whose (name, state, timestamp) was already seen,
// keeping the first occurrence and the original order.
func dedupe(events []Event) []Event {
	seen := make(map[eventKey]struct{}, len(events))
	out := make([]Event, 0, len(events))
	for _, e := range events {
		k := e.key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		e.JugName = k.name
		out = append(out, e)
	}
	return out
}
