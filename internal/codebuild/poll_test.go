package codebuild

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type getterFunc func(ctx context.Context, id string) (*Build, error)

func (f getterFunc) GetBuild(ctx context.Context, id string) (*Build, error) { return f(ctx, id) }

func TestPoll(t *testing.T) {
	t.Parallel()

	outage := errors.New("ServiceUnavailable")

	tests := map[string]struct {
		build      *Build
		err        error
		wantState  PollState
		wantStatus Status
	}{
		"in progress is pending": {
			build:      &Build{ID: "p:1", Status: StatusInProgress},
			wantState:  PollPending,
			wantStatus: StatusInProgress,
		},
		"succeeded is done": {
			build:      &Build{ID: "p:1", Status: StatusSucceeded},
			wantState:  PollDone,
			wantStatus: StatusSucceeded,
		},
		"stopped is done": {
			build:      &Build{ID: "p:1", Status: StatusStopped},
			wantState:  PollDone,
			wantStatus: StatusStopped,
		},
		"service error": {
			err:       outage,
			wantState: PollError,
		},
		"nil build is an error": {
			wantState: PollError,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			g := getterFunc(func(context.Context, string) (*Build, error) { return tc.build, tc.err })
			res := Poll(context.Background(), g, "p:1")

			assert.Equal(t, tc.wantState, res.State)
			if tc.wantState == PollError {
				assert.Error(t, res.Err)
				if tc.err != nil {
					assert.ErrorIs(t, res.Err, tc.err)
				}
				return
			}
			assert.NoError(t, res.Err)
			assert.Equal(t, tc.wantStatus, res.Status)
		})
	}
}

func TestPollState_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "pending", PollPending.String())
	assert.Equal(t, "done", PollDone.String())
	assert.Equal(t, "error", PollError.String())
	assert.Equal(t, "PollState(9)", PollState(9).String())
}
