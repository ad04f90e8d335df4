// Package event defines the payload threaded through every pipeline step.
// The workflow engine persists it between invocations; each step receives the
// previous step's output and returns it with fields added or overwritten.
package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/ariel-frischer/codebuilder/internal/codebuild"
	"github.com/ariel-frischer/codebuilder/internal/notify"
)

// EnvVar is a name/value environment override passed to the build.
type EnvVar = codebuild.EnvVar

// Event is the pipeline state. Keys not modeled here are kept in extra and
// written back unchanged, so a step never drops a field it did not set.
type Event struct {
	StepName     string          `json:"step_name,omitempty"`
	Config       []EnvVar        `json:"config,omitempty"`
	BuildID      string          `json:"buildId,omitempty"`
	BuildLogs    string          `json:"buildLogs,omitempty"`
	BuildStatus  string          `json:"buildStatus,omitempty"`
	Notification *notify.Context `json:"slackEvent,omitempty"`

	extra map[string]json.RawMessage
}

// known lists the JSON keys owned by Event's fields.
var known = map[string]bool{
	"step_name":   true,
	"config":      true,
	"buildId":     true,
	"buildLogs":   true,
	"buildStatus": true,
	"slackEvent":  true,
}

// fields avoids recursion through Event's json methods.
type fields Event

// UnmarshalJSON decodes the modeled fields and retains every other key.
func (e *Event) UnmarshalJSON(data []byte) error {
	var f fields
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for k := range raw {
		if known[k] {
			delete(raw, k)
		}
	}
	if len(raw) == 0 {
		raw = nil
	}

	*e = Event(f)
	e.extra = raw
	return nil
}

// MarshalJSON encodes the modeled fields plus the retained keys.
func (e Event) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(fields(e))
	if err != nil {
		return nil, err
	}
	if len(e.extra) == 0 {
		return data, nil
	}

	var out map[string]json.RawMessage
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	for k, v := range e.extra {
		if _, ok := out[k]; !ok {
			out[k] = v
		}
	}
	return json.Marshal(out)
}

// Decode reads an event one modeled key at a time. A key whose value does
// not fit its field is left unset and kept verbatim with the unmodeled keys,
// so the rest of the event (in particular slackEvent) is still usable. err
// names every such key; it is also set when data is not a JSON object, in
// which case the returned event is empty.
func Decode(data []byte) (Event, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Event{}, fmt.Errorf("event is not a JSON object: %w", err)
	}

	var ev Event
	var errs []error
	for _, k := range slices.Sorted(maps.Keys(raw)) {
		if !known[k] {
			continue
		}
		if err := ev.decodeField(k, raw[k]); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", k, err))
			continue
		}
		delete(raw, k)
	}
	if len(raw) > 0 {
		ev.extra = raw
	}
	return ev, errors.Join(errs...)
}

func (e *Event) decodeField(key string, v json.RawMessage) error {
	switch key {
	case "step_name":
		return decodeInto(v, &e.StepName)
	case "config":
		return decodeInto(v, &e.Config)
	case "buildId":
		return decodeInto(v, &e.BuildID)
	case "buildLogs":
		return decodeInto(v, &e.BuildLogs)
	case "buildStatus":
		return decodeInto(v, &e.BuildStatus)
	case "slackEvent":
		return decodeInto(v, &e.Notification)
	}
	return nil
}

// decodeInto only assigns dst when v decodes completely.
func decodeInto[T any](v json.RawMessage, dst *T) error {
	var tmp T
	if err := json.Unmarshal(v, &tmp); err != nil {
		return err
	}
	*dst = tmp
	return nil
}

// Extra returns the value of a key not modeled by Event.
func (e Event) Extra(key string) (json.RawMessage, bool) {
	v, ok := e.extra[key]
	return v, ok
}

// With returns a copy of e with fn applied. e itself is not modified.
func (e Event) With(fn func(*Event)) Event {
	next := e
	next.Config = append([]EnvVar(nil), e.Config...)
	next.extra = maps.Clone(e.extra)
	fn(&next)
	return next
}

// Step returns the parsed step name.
func (e Event) Step() (Step, error) {
	return ParseStep(e.StepName)
}
