package models

import (
	"fmt"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
)

// EventHeaders is the column layout shared by the spreadsheet and CSV
// backends. The Postgres backend mirrors it column for column.
var EventHeaders = []string{
	"timestamp", "subject_id", "policy", "event",
	"trial_index", "time_on_screen_sec", "element_clicked", "payload_json",
}

// Event is one normalized participant interaction, ready to be persisted.
// Absent fields are empty strings so the persisted row shape stays stable.
type Event struct {
	Timestamp       string
	SubjectID       string
	Policy          string
	EventType       string
	TrialIndex      string
	TimeOnScreenSec string
	ElementClicked  string
	PayloadJSON     string
}

// NewEvent normalizes an inbound log request into an Event. The client
// timestamp is used when present, otherwise now (UTC). For click events an
// element descriptor is derived from the payload as "tag#id .class".
func NewEvent(req *LogRequest, now time.Time) Event {
	ts := req.TS
	if ts == "" {
		ts = now.UTC().Format(time.RFC3339)
	}

	ev := Event{
		Timestamp:       ts,
		SubjectID:       req.SubjectID,
		Policy:          req.Policy,
		EventType:       req.Event,
		TrialIndex:      payloadString(req.Payload, "trial_index"),
		TimeOnScreenSec: payloadString(req.Payload, "time_on_screen_seconds"),
		PayloadJSON:     marshalPayload(req.Payload),
	}

	if req.Event == "click" {
		if elem, ok := req.Payload["element"].(map[string]any); ok {
			ev.ElementClicked = fmt.Sprintf("%s#%s .%s",
				payloadString(elem, "tag"),
				payloadString(elem, "id"),
				payloadString(elem, "class"))
		}
	}

	return ev
}

// Row flattens the event into the EventHeaders column order.
func (e Event) Row() []any {
	return []any{
		e.Timestamp, e.SubjectID, e.Policy, e.EventType,
		e.TrialIndex, e.TimeOnScreenSec, e.ElementClicked, e.PayloadJSON,
	}
}

// StringRow is Row rendered as strings, for the CSV backend.
func (e Event) StringRow() []string {
	return []string{
		e.Timestamp, e.SubjectID, e.Policy, e.EventType,
		e.TrialIndex, e.TimeOnScreenSec, e.ElementClicked, e.PayloadJSON,
	}
}

func marshalPayload(payload map[string]any) string {
	if payload == nil {
		return "{}"
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// payloadString renders a loosely typed payload value as the string the
// original spreadsheet columns carried. JSON numbers arrive as float64.
func payloadString(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
