package event

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariel-frischer/codebuilder/internal/codebuild"
)

func TestEvent_JSONRoundTripKeepsUnknownKeys(t *testing.T) {
	t.Parallel()

	raw := `{
		"step_name": "wait_for_build",
		"config": [{"name": "CI_COMMIT", "value": "master"}],
		"buildId": "codebuilder:1",
		"buildLogs": "https://logs",
		"slackEvent": {"originalRequest": {"response_url": "https://hooks.slack.test/1"}},
		"executionStartedBy": "ops",
		"attempt": 3
	}`

	var ev Event
	require.NoError(t, json.Unmarshal([]byte(raw), &ev))

	assert.Equal(t, "wait_for_build", ev.StepName)
	assert.Equal(t, []EnvVar{{Name: "CI_COMMIT", Value: "master"}}, ev.Config)
	assert.Equal(t, "codebuilder:1", ev.BuildID)
	assert.Equal(t, "https://hooks.slack.test/1", ev.Notification.ResponseURL())

	v, ok := ev.Extra("executionStartedBy")
	require.True(t, ok)
	assert.JSONEq(t, `"ops"`, string(v))
	_, ok = ev.Extra("buildId")
	assert.False(t, ok, "modeled keys are not duplicated in extra")

	next := ev.With(func(e *Event) {
		e.BuildStatus = "SUCCEEDED"
		e.StepName = StepEnd.String()
	})

	out, err := json.Marshal(next)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(out, &got))
	assert.Equal(t, "end_build", got["step_name"])
	assert.Equal(t, "SUCCEEDED", got["buildStatus"])
	assert.Equal(t, "codebuilder:1", got["buildId"])
	assert.Equal(t, "https://logs", got["buildLogs"])
	assert.Equal(t, "ops", got["executionStartedBy"])
	assert.EqualValues(t, 3, got["attempt"])
	assert.Contains(t, got, "slackEvent")
}

func TestEvent_EmptyObject(t *testing.T) {
	t.Parallel()

	var ev Event
	require.NoError(t, json.Unmarshal([]byte(`{}`), &ev))
	assert.Equal(t, Event{}, ev)

	out, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(out))
}

func TestEvent_WithDoesNotMutateOriginal(t *testing.T) {
	t.Parallel()

	ev := Event{Config: []EnvVar{{Name: "A", Value: "1"}}}
	next := ev.With(func(e *Event) {
		e.Config[0].Value = "2"
		e.BuildID = "p:1"
	})

	assert.Equal(t, "1", ev.Config[0].Value)
	assert.Empty(t, ev.BuildID)
	assert.Equal(t, "2", next.Config[0].Value)
	assert.Equal(t, "p:1", next.BuildID)
}

func TestParseStep(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		name     string
		want     Step
		wantErr  bool
		wantText string
	}{
		"absent defaults to start": {name: "", want: StepStart},
		"start_build":              {name: "start_build", want: StepStart},
		"wait_for_build":           {name: "wait_for_build", want: StepWait},
		"end_build":                {name: "end_build", want: StepEnd},
		"catch_build":              {name: "catch_build", want: StepCatch},
		"unknown": {
			name:     "deploy_build",
			wantErr:  true,
			wantText: "Error: Missing step function: deploy_build",
		},
		"case sensitive": {
			name:     "Start_Build",
			wantErr:  true,
			wantText: "Error: Missing step function: Start_Build",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseStep(tc.name)
			if tc.wantErr {
				var missing *MissingStepError
				require.ErrorAs(t, err, &missing)
				assert.Equal(t, tc.name, missing.Name)
				assert.EqualError(t, err, tc.wantText)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestStep_StringRoundTrip(t *testing.T) {
	t.Parallel()

	for _, s := range Steps {
		got, err := ParseStep(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	assert.Equal(t, "Step(7)", Step(7).String())
}

func TestEvent_Inputs(t *testing.T) {
	t.Parallel()

	t.Run("wait requires buildId", func(t *testing.T) {
		t.Parallel()
		_, err := Event{}.WaitInput()
		var missing *MissingFieldError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, StepWait, missing.Step)
		assert.Equal(t, "buildId", missing.Field)

		in, err := Event{BuildID: "p:1"}.WaitInput()
		require.NoError(t, err)
		assert.Equal(t, "p:1", in.BuildID)
	})

	t.Run("end requires buildStatus but not buildLogs", func(t *testing.T) {
		t.Parallel()
		_, err := Event{BuildLogs: "https://logs"}.EndInput()
		assert.EqualError(t, err, "end_build requires buildStatus")

		in, err := Event{BuildStatus: "FAILED"}.EndInput()
		require.NoError(t, err)
		assert.Equal(t, codebuild.StatusFailed, in.BuildStatus)
		assert.Empty(t, in.BuildLogs)
	})

	t.Run("start input carries config", func(t *testing.T) {
		t.Parallel()
		cfg := []EnvVar{{Name: "CI_COMMIT", Value: "master"}}
		assert.Equal(t, cfg, Event{Config: cfg}.StartInput().Config)
		assert.Nil(t, Event{}.StartInput().Config)
	})
}

func TestDecode(t *testing.T) {
	t.Parallel()

	const slack = `"slackEvent":{"originalRequest":{"response_url":"https://hooks.slack.test/1"}}`

	tests := map[string]struct {
		input       string
		wantStep    string
		wantURL     string
		wantBuildID string
		wantExtra   map[string]string
		wantErrKeys []string
		wantNotObj  bool
	}{
		"well formed matches Unmarshal": {
			input:       `{"step_name":"wait_for_build","buildId":"codebuilder:1",` + slack + `,"attempt":2}`,
			wantStep:    "wait_for_build",
			wantURL:     "https://hooks.slack.test/1",
			wantBuildID: "codebuilder:1",
			wantExtra:   map[string]string{"attempt": `2`},
		},
		"numeric buildId keeps the rest": {
			input:       `{"step_name":"catch_build","buildId":5,` + slack + `}`,
			wantStep:    "catch_build",
			wantURL:     "https://hooks.slack.test/1",
			wantExtra:   map[string]string{"buildId": `5`},
			wantErrKeys: []string{"buildId"},
		},
		"config not a list": {
			input:       `{"config":"oops",` + slack + `}`,
			wantURL:     "https://hooks.slack.test/1",
			wantExtra:   map[string]string{"config": `"oops"`},
			wantErrKeys: []string{"config"},
		},
		"slackEvent not an object": {
			input:       `{"step_name":"end_build","slackEvent":"x","buildStatus":["FAILED"]}`,
			wantStep:    "end_build",
			wantExtra:   map[string]string{"slackEvent": `"x"`, "buildStatus": `["FAILED"]`},
			wantErrKeys: []string{"buildStatus", "slackEvent"},
		},
		"not an object": {
			input:      `["start_build"]`,
			wantNotObj: true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			ev, err := Decode([]byte(tc.input))
			if tc.wantNotObj {
				require.Error(t, err)
				assert.Equal(t, Event{}, ev)
				return
			}

			assert.Equal(t, tc.wantStep, ev.StepName)
			assert.Equal(t, tc.wantURL, ev.Notification.ResponseURL())
			assert.Equal(t, tc.wantBuildID, ev.BuildID)
			for k, want := range tc.wantExtra {
				v, ok := ev.Extra(k)
				require.True(t, ok, k)
				assert.JSONEq(t, want, string(v))
			}

			if len(tc.wantErrKeys) == 0 {
				require.NoError(t, err)
				var strict Event
				require.NoError(t, json.Unmarshal([]byte(tc.input), &strict))
				assert.Equal(t, strict, ev)
				return
			}
			require.Error(t, err)
			for _, k := range tc.wantErrKeys {
				assert.Contains(t, err.Error(), k+":")
			}
		})
	}
}

func TestDecode_MistypedValueSurvivesMarshal(t *testing.T) {
	t.Parallel()

	ev, err := Decode([]byte(`{"step_name":"catch_build","buildId":5}`))
	require.Error(t, err)

	out, err := json.Marshal(ev.With(func(e *Event) { e.BuildStatus = "FAILED" }))
	require.NoError(t, err)
	assert.JSONEq(t, `{"step_name":"catch_build","buildId":5,"buildStatus":"FAILED"}`, string(out))
}
