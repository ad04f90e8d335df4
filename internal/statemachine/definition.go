// Package statemachine renders the Step Functions definition that drives the
// pipeline. The dispatcher never waits; polling is the wait_for_build Retry
// rule below, so its interval and attempt limit live here.
package statemachine

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/ariel-frischer/codebuilder/internal/event"
	"github.com/ariel-frischer/codebuilder/internal/steps"
)

// RetryPolicy controls how often wait_for_build is re-invoked while the
// build is running.
type RetryPolicy struct {
	IntervalSeconds int     `koanf:"interval_seconds" validate:"min=1"`
	MaxAttempts     int     `koanf:"max_attempts" validate:"min=1,max=99999999"`
	BackoffRate     float64 `koanf:"backoff_rate" validate:"min=1"`
}

// DefaultRetryPolicy polls every 10s for up to 10 minutes.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		IntervalSeconds: 10,
		MaxAttempts:     60,
		BackoffRate:     1.0,
	}
}

// Options configures Definition.
type Options struct {
	// LambdaARN is the function running the dispatcher for every step.
	LambdaARN string
	Retry     RetryPolicy
	Comment   string
}

// Error names as reported by the Lambda runtime (the Go type name).
var (
	ErrorBuildInProgress = ErrorName(&steps.BuildInProgressError{})
	ErrorBuildFailed     = ErrorName(&steps.BuildFailedError{})
	ErrorStartBuild      = ErrorName(&steps.StartBuildError{})
	ErrorUnexpected      = ErrorName(&steps.UnexpectedError{})
)

const (
	statesAll      = "States.ALL"
	prepareCatch   = "prepare_catch_build"
	buildFailed    = "BuildFailed"
	pipelineFailed = "PipelineFailed"
)

type definition struct {
	Comment string           `json:"Comment,omitempty"`
	StartAt string           `json:"StartAt"`
	States  map[string]state `json:"States"`
}

type state struct {
	Type       string    `json:"Type"`
	Resource   string    `json:"Resource,omitempty"`
	Result     any       `json:"Result,omitempty"`
	ResultPath string    `json:"ResultPath,omitempty"`
	Next       string    `json:"Next,omitempty"`
	End        bool      `json:"End,omitempty"`
	Retry      []retrier `json:"Retry,omitempty"`
	Catch      []catcher `json:"Catch,omitempty"`
	Error      string    `json:"Error,omitempty"`
	Cause      string    `json:"Cause,omitempty"`
}

type retrier struct {
	ErrorEquals     []string `json:"ErrorEquals"`
	IntervalSeconds int      `json:"IntervalSeconds"`
	MaxAttempts     int      `json:"MaxAttempts"`
	BackoffRate     float64  `json:"BackoffRate"`
}

type catcher struct {
	ErrorEquals []string `json:"ErrorEquals"`
	ResultPath  string   `json:"ResultPath,omitempty"`
	Next        string   `json:"Next"`
}

// Validate checks the options before rendering.
func (o Options) Validate() error {
	if o.LambdaARN == "" {
		return fmt.Errorf("lambda ARN is required")
	}
	r := o.Retry
	if r.IntervalSeconds < 1 {
		return fmt.Errorf("retry interval must be at least 1 second, got %d", r.IntervalSeconds)
	}
	if r.MaxAttempts < 1 {
		return fmt.Errorf("retry max attempts must be at least 1, got %d", r.MaxAttempts)
	}
	if r.BackoffRate < 1 {
		return fmt.Errorf("retry backoff rate must be at least 1.0, got %v", r.BackoffRate)
	}
	return nil
}

// Definition renders the Amazon States Language document.
//
// Each step handler reports and notifies its own failures, so those errors
// end the execution directly. Anything else (timeouts, runtime crashes,
// service errors while polling, retries exhausted) goes through catch_build,
// which sends the one generic failure notice.
func Definition(o Options) ([]byte, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}

	toCatch := catcher{ErrorEquals: []string{statesAll}, ResultPath: "$.error", Next: prepareCatch}
	// Any step may run the catch handler itself (missing input, malformed
	// event); its failure is already notified.
	notified := catcher{ErrorEquals: []string{ErrorUnexpected}, Next: pipelineFailed}
	step := func(s event.Step) string { return s.String() }

	d := definition{
		Comment: o.Comment,
		StartAt: step(event.StepStart),
		States: map[string]state{
			step(event.StepStart): {
				Type:     "Task",
				Resource: o.LambdaARN,
				Next:     step(event.StepWait),
				Catch: []catcher{
					{ErrorEquals: []string{ErrorStartBuild}, Next: pipelineFailed},
					notified,
					toCatch,
				},
			},
			step(event.StepWait): {
				Type:     "Task",
				Resource: o.LambdaARN,
				Next:     step(event.StepEnd),
				Retry: []retrier{{
					ErrorEquals:     []string{ErrorBuildInProgress},
					IntervalSeconds: o.Retry.IntervalSeconds,
					MaxAttempts:     o.Retry.MaxAttempts,
					BackoffRate:     o.Retry.BackoffRate,
				}},
				Catch: []catcher{notified, toCatch},
			},
			step(event.StepEnd): {
				Type:     "Task",
				Resource: o.LambdaARN,
				End:      true,
				Catch: []catcher{
					{ErrorEquals: []string{ErrorBuildFailed}, Next: buildFailed},
					notified,
					toCatch,
				},
			},
			prepareCatch: {
				Type:       "Pass",
				Result:     step(event.StepCatch),
				ResultPath: "$.step_name",
				Next:       step(event.StepCatch),
			},
			step(event.StepCatch): {
				Type:     "Task",
				Resource: o.LambdaARN,
				Catch:    []catcher{{ErrorEquals: []string{statesAll}, Next: pipelineFailed}},
				Next:     pipelineFailed,
			},
			buildFailed: {
				Type:  "Fail",
				Error: ErrorBuildFailed,
				Cause: "build finished with a non-success status",
			},
			pipelineFailed: {
				Type:  "Fail",
				Error: "PipelineError",
				Cause: "pipeline failed, see execution history",
			},
		},
	}

	return json.MarshalIndent(d, "", "  ")
}

// ErrorName is the error type reported for err when a Lambda function returns
// it: the Go type name without package or pointer.
func ErrorName(err error) string {
	if err == nil {
		return ""
	}
	t := reflect.TypeOf(err)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}
