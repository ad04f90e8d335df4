// Package lambda adapts the dispatcher to the AWS Lambda Go runtime.
//
// A successful step returns the next event, which Step Functions passes to
// the following state. A failed step returns an error; the runtime reports
// the error's Go type name as errorType, which is what state machine Retry
// and Catch rules match on (e.g. BuildInProgressError).
package lambda

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"go.uber.org/zap"

	"github.com/ariel-frischer/codebuilder/internal/dispatch"
	"github.com/ariel-frischer/codebuilder/internal/event"
	"github.com/ariel-frischer/codebuilder/internal/steps"
)

// HandlerFunc is the signature registered with lambda.Start. It takes the
// raw payload so that an event with a mistyped field still reaches
// catch_build instead of failing inside the runtime's decoder.
type HandlerFunc func(ctx context.Context, payload json.RawMessage) (event.Event, error)

// Handler returns the Lambda entry point for d.
func Handler(d *dispatch.Dispatcher, logger *zap.Logger) HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, payload json.RawMessage) (event.Event, error) {
		log := logger
		if lc, ok := lambdacontext.FromContext(ctx); ok {
			log = log.With(zap.String("request_id", lc.AwsRequestID))
		}

		ev, err := event.Decode(payload)
		if err != nil {
			return Result(d.Malformed(ctx, ev, err), log)
		}
		return Result(d.Dispatch(ctx, ev), log)
	}
}

// Result converts a step signal into the runtime's return values.
func Result(sig steps.Signal, logger *zap.Logger) (event.Event, error) {
	if !sig.Failed() {
		logger.Debug("step succeeded", zap.String("next_step", sig.Event.StepName))
		return sig.Event, nil
	}
	if steps.IsBuildInProgress(sig.Err) {
		logger.Info("build in progress, retry requested", zap.String("build_id", sig.Event.BuildID))
	} else {
		logger.Warn("step failed", zap.String("step_name", sig.Event.StepName), zap.Error(sig.Err))
	}
	return event.Event{}, sig.Err
}
