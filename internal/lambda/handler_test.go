package lambda

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	awslambda "github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ariel-frischer/codebuilder/internal/codebuild"
	"github.com/ariel-frischer/codebuilder/internal/dispatch"
	"github.com/ariel-frischer/codebuilder/internal/event"
	"github.com/ariel-frischer/codebuilder/internal/notify"
	"github.com/ariel-frischer/codebuilder/internal/steps"
)

type stubBuilds struct {
	status codebuild.Status
}

func (s stubBuilds) StartBuild(context.Context, []codebuild.EnvVar) (*codebuild.Build, error) {
	return &codebuild.Build{ID: "codebuilder:1", Logs: "https://logs"}, nil
}

func (s stubBuilds) GetBuild(_ context.Context, id string) (*codebuild.Build, error) {
	return &codebuild.Build{ID: id, Status: s.status}, nil
}

// recordingNotifier implements steps.Notifier for testing
type recordingNotifier struct {
	mu    sync.Mutex
	texts []string
}

func (r *recordingNotifier) Notify(_ context.Context, nctx *notify.Context, text string) error {
	if nctx == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, text)
	return nil
}

func TestHandler(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		status   codebuild.Status
		payload  string
		wantStep string
		wantErr  string
		retry    bool
	}{
		"start returns next event": {
			payload:  `{}`,
			wantStep: "wait_for_build",
		},
		"in progress returns retry error": {
			status:  codebuild.StatusInProgress,
			payload: `{"step_name":"wait_for_build","buildId":"codebuilder:1"}`,
			wantErr: "Build status in progress",
			retry:   true,
		},
		"unknown step": {
			payload: `{"step_name":"bogus"}`,
			wantErr: "Error: Missing step function: bogus",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			logger := zaptest.NewLogger(t)
			d := dispatch.New(steps.New(stubBuilds{status: tc.status}, nil, logger), logger)
			h := Handler(d, logger)

			ctx := lambdacontext.NewContext(context.Background(), &lambdacontext.LambdaContext{AwsRequestID: "req-1"})
			out, err := h(ctx, json.RawMessage(tc.payload))

			if tc.wantErr != "" {
				require.Error(t, err)
				assert.EqualError(t, err, tc.wantErr)
				assert.Equal(t, tc.retry, steps.IsBuildInProgress(err))
				assert.Equal(t, event.Event{}, out)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantStep, out.StepName)
		})
	}
}

func TestHandler_UnexpectedEventsNotifyOnce(t *testing.T) {
	t.Parallel()

	const slack = `"slackEvent":{"originalRequest":{"response_url":"https://hooks.slack.test/1"}}`
	const notice = "CODEBUILDER encountered an error: UnexpectedError"

	tests := map[string]struct {
		payload     string
		wantNotices []string
	}{
		"catch_build with numeric buildId": {
			payload:     `{"step_name":"catch_build","buildId":5,` + slack + `}`,
			wantNotices: []string{notice},
		},
		"start_build with config not a list": {
			payload:     `{"config":"oops",` + slack + `}`,
			wantNotices: []string{notice},
		},
		"slackEvent not an object": {
			payload: `{"step_name":"wait_for_build","slackEvent":"x"}`,
		},
		"payload not an object": {
			payload: `"start_build"`,
		},
		"wait_for_build without buildId": {
			payload:     `{"step_name":"wait_for_build",` + slack + `}`,
			wantNotices: []string{notice},
		},
		"end_build without buildStatus": {
			payload:     `{"step_name":"end_build","buildLogs":"https://logs",` + slack + `}`,
			wantNotices: []string{notice},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			logger := zaptest.NewLogger(t)
			notifier := &recordingNotifier{}
			builds := stubBuilds{status: codebuild.StatusSucceeded}
			d := dispatch.New(steps.New(builds, notifier, logger), logger)

			_, err := awslambda.NewHandler(Handler(d, logger)).Invoke(context.Background(), []byte(tc.payload))
			require.Error(t, err)
			assert.EqualError(t, err, "UnexpectedError")
			var unexpected *steps.UnexpectedError
			assert.ErrorAs(t, err, &unexpected, "the state machine ends the run on this type without catch_build")
			assert.Equal(t, tc.wantNotices, notifier.texts)
		})
	}
}

func TestResult(t *testing.T) {
	t.Parallel()

	logger := zaptest.NewLogger(t)
	ev := event.Event{StepName: "end_build", BuildStatus: "SUCCEEDED"}

	out, err := Result(steps.Succeed(ev), logger)
	require.NoError(t, err)
	assert.Equal(t, ev, out)

	_, err = Result(steps.Fail(ev, steps.ErrUnexpected), logger)
	assert.ErrorIs(t, err, steps.ErrUnexpected)
}
