package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariel-frischer/codebuilder/internal/event"
	"github.com/ariel-frischer/codebuilder/internal/steps"
)

func TestRunDispatch(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		input    string
		handler  func(ctx context.Context, payload json.RawMessage) (event.Event, error)
		wantErr  bool
		wantOut  string
		wantStep string
	}{
		"success prints next event": {
			input: `{"step_name":"start_build","custom":1}`,
			handler: func(_ context.Context, payload json.RawMessage) (event.Event, error) {
				ev, err := event.Decode(payload)
				if err != nil {
					return event.Event{}, err
				}
				return ev.With(func(e *event.Event) {
					e.StepName = "wait_for_build"
					e.BuildID = "codebuilder:1"
				}), nil
			},
			wantStep: "wait_for_build",
		},
		"failure prints error type": {
			input: `{"step_name":"wait_for_build","buildId":"codebuilder:1"}`,
			handler: func(context.Context, json.RawMessage) (event.Event, error) {
				return event.Event{}, &steps.BuildInProgressError{BuildID: "codebuilder:1"}
			},
			wantErr: true,
			wantOut: "errorType: BuildInProgressError\nerrorMessage: Build status in progress\n",
		},
		"unexpected error prints its type": {
			input: `{"step_name":"catch_build","buildId":5}`,
			handler: func(context.Context, json.RawMessage) (event.Event, error) {
				return event.Event{}, steps.ErrUnexpected
			},
			wantErr: true,
			wantOut: "errorType: UnexpectedError\nerrorMessage: UnexpectedError\n",
		},
		"invalid json": {
			input: `not json`,
			handler: func(context.Context, json.RawMessage) (event.Event, error) {
				t.Error("handler must not run")
				return event.Event{}, nil
			},
			wantErr: true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var out bytes.Buffer
			err := runDispatch(context.Background(), strings.NewReader(tc.input), &out, tc.handler)
			if tc.wantErr {
				require.Error(t, err)
				if tc.wantOut != "" {
					assert.Equal(t, tc.wantOut, out.String())
				}
				return
			}
			require.NoError(t, err)

			var got map[string]any
			require.NoError(t, json.Unmarshal(out.Bytes(), &got))
			assert.Equal(t, tc.wantStep, got["step_name"])
			assert.EqualValues(t, 1, got["custom"], "unknown keys survive")
		})
	}
}
