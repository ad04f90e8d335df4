// Package launcher starts a pipeline execution and resolves the link to the
// build it started.
package launcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sfn"
	sfntypes "github.com/aws/aws-sdk-go-v2/service/sfn/types"
	backoff "github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/ariel-frischer/codebuilder/internal/codebuild"
	"github.com/ariel-frischer/codebuilder/internal/event"
	"github.com/ariel-frischer/codebuilder/internal/notify"
)

const (
	// historyPageSize is how many execution events are read per lookup.
	historyPageSize = 100
	buildIDKey      = "buildId"
)

var (
	// ErrStepNotSucceeded means start_build has not completed yet.
	ErrStepNotSucceeded = errors.New("LambdaFunctionSucceeded not found")
	// ErrNoBuildID means start_build completed without a buildId in its output.
	ErrNoBuildID = errors.New("buildId not found")
)

// API is the subset of the Step Functions client used by Launcher.
type API interface {
	StartExecution(ctx context.Context, params *sfn.StartExecutionInput, optFns ...func(*sfn.Options)) (*sfn.StartExecutionOutput, error)
	GetExecutionHistory(ctx context.Context, params *sfn.GetExecutionHistoryInput, optFns ...func(*sfn.Options)) (*sfn.GetExecutionHistoryOutput, error)
}

var _ API = (*sfn.Client)(nil)

// Options configures a Launcher.
type Options struct {
	StateMachineARN string
	Region          string
	// MaxTries bounds the build id lookups after the execution starts.
	MaxTries int
	// Interval is the wait between lookups.
	Interval time.Duration
}

// Launcher starts executions of the pipeline state machine.
type Launcher struct {
	api    API
	opts   Options
	logger *zap.Logger
	newID  func() string
}

// New creates a Launcher.
func New(api API, opts Options, logger *zap.Logger) *Launcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Launcher{
		api:    api,
		opts:   opts,
		logger: logger.Named("launcher"),
		newID:  uuid.NewString,
	}
}

// Request describes one pipeline run.
type Request struct {
	Env          []event.EnvVar
	Notification *notify.Context
}

// Result identifies a started run.
type Result struct {
	ExecutionARN string
	Name         string
	BuildID      string
	BuildLink    string
}

// Run starts an execution and waits until start_build has reported its
// build id, then returns the CodeBuild console link for it.
func (l *Launcher) Run(ctx context.Context, req Request) (*Result, error) {
	input, err := json.Marshal(event.Event{
		StepName:     event.StepStart.String(),
		Config:       req.Env,
		Notification: req.Notification,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding execution input: %w", err)
	}

	name := l.newID()
	l.logger.Info("starting execution",
		zap.String("state_machine", l.opts.StateMachineARN),
		zap.String("name", name))

	out, err := l.api.StartExecution(ctx, &sfn.StartExecutionInput{
		StateMachineArn: aws.String(l.opts.StateMachineARN),
		Name:            aws.String(name),
		Input:           aws.String(string(input)),
	})
	if err != nil {
		return nil, fmt.Errorf("starting execution: %w", err)
	}

	res := &Result{
		ExecutionARN: aws.ToString(out.ExecutionArn),
		Name:         name,
	}

	buildID, err := l.waitForBuildID(ctx, res.ExecutionARN)
	if err != nil {
		return res, err
	}
	res.BuildID = buildID
	res.BuildLink = codebuild.ConsoleURL(l.opts.Region, buildID)
	return res, nil
}

func (l *Launcher) waitForBuildID(ctx context.Context, executionARN string) (string, error) {
	tries := l.opts.MaxTries
	if tries < 1 {
		tries = 1
	}
	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(l.opts.Interval), uint64(tries-1)),
		ctx)

	var buildID string
	err := backoff.Retry(func() error {
		l.logger.Debug("attempting to grab buildId from execution history", zap.String("execution", executionARN))
		id, err := l.BuildID(ctx, executionARN)
		if err != nil {
			return err
		}
		buildID = id
		return nil
	}, b)
	if err != nil {
		return "", fmt.Errorf("resolving build for %s: %w", executionARN, err)
	}
	return buildID, nil
}

// BuildID reads the execution history once and returns the buildId from the
// first successful Lambda step.
func (l *Launcher) BuildID(ctx context.Context, executionARN string) (string, error) {
	out, err := l.api.GetExecutionHistory(ctx, &sfn.GetExecutionHistoryInput{
		ExecutionArn: aws.String(executionARN),
		MaxResults:   historyPageSize,
	})
	if err != nil {
		return "", err
	}

	for _, e := range out.Events {
		if e.Type != sfntypes.HistoryEventTypeLambdaFunctionSucceeded {
			continue
		}
		output := "{}"
		if e.LambdaFunctionSucceededEventDetails != nil && e.LambdaFunctionSucceededEventDetails.Output != nil {
			output = *e.LambdaFunctionSucceededEventDetails.Output
		}
		if !gjson.Valid(output) {
			return "", backoff.Permanent(fmt.Errorf("step output is not valid JSON: %q", output))
		}
		id := gjson.Get(output, buildIDKey).String()
		if id == "" {
			return "", ErrNoBuildID
		}
		return id, nil
	}
	return "", ErrStepNotSucceeded
}
