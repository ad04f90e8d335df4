package steps

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ariel-frischer/codebuilder/internal/codebuild"
	"github.com/ariel-frischer/codebuilder/internal/event"
	"github.com/ariel-frischer/codebuilder/internal/notify"
)

// BuildService starts builds and reads their status.
type BuildService interface {
	StartBuild(ctx context.Context, env []codebuild.EnvVar) (*codebuild.Build, error)
	GetBuild(ctx context.Context, id string) (*codebuild.Build, error)
}

// Notifier delivers a text outcome to the channel in nctx; a nil nctx is a no-op.
type Notifier interface {
	Notify(ctx context.Context, nctx *notify.Context, text string) error
}

// Handlers holds the collaborators shared by every step.
type Handlers struct {
	Builds   BuildService
	Notifier Notifier
	Logger   *zap.Logger
}

// New creates Handlers. A nil logger discards output.
func New(builds BuildService, notifier Notifier, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		Builds:   builds,
		Notifier: notifier,
		Logger:   logger.Named("steps"),
	}
}

// Start starts the build and advances to wait_for_build.
func (h *Handlers) Start(ctx context.Context, ev event.Event, in event.StartInput) Signal {
	h.Logger.Info("starting start_build", zap.Any("event", ev))

	b, err := h.Builds.StartBuild(ctx, in.Config)
	if err != nil {
		return h.failed(ctx, ev, &StartBuildError{Err: err})
	}

	next := ev.With(func(e *event.Event) {
		e.BuildID = b.ID
		e.BuildLogs = b.Logs
		e.StepName = event.StepWait.String()
	})
	return h.succeeded(ctx, next, fmt.Sprintf("Codebuild started, see additional logs: %s", b.Logs))
}

// Wait checks the build once. A running build fails with
// BuildInProgressError so the engine retries this step later; a finished
// build advances to end_build. Nothing is sent to the channel here.
func (h *Handlers) Wait(ctx context.Context, ev event.Event, in event.WaitInput) Signal {
	h.Logger.Info("starting wait_for_build", zap.String("build_id", in.BuildID))

	res := codebuild.Poll(ctx, h.Builds, in.BuildID)
	switch res.State {
	case codebuild.PollPending:
		h.Logger.Debug("build in progress", zap.String("build_id", in.BuildID))
		return Fail(ev, &BuildInProgressError{BuildID: in.BuildID})
	case codebuild.PollDone:
		h.Logger.Info("build finished",
			zap.String("build_id", in.BuildID),
			zap.String("status", string(res.Status)))
		return Succeed(ev.With(func(e *event.Event) {
			e.BuildStatus = string(res.Status)
			e.StepName = event.StepEnd.String()
		}))
	default:
		h.Logger.Error("wait_for_build failed", zap.String("build_id", in.BuildID), zap.Error(res.Err))
		return Fail(ev, res.Err)
	}
}

// End reports the final build status.
func (h *Handlers) End(ctx context.Context, ev event.Event, in event.EndInput) Signal {
	h.Logger.Info("starting end_build",
		zap.String("status", string(in.BuildStatus)),
		zap.String("logs", in.BuildLogs))

	if !in.BuildStatus.Succeeded() {
		return h.failed(ctx, ev, &BuildFailedError{Status: in.BuildStatus, Logs: in.BuildLogs})
	}
	return h.succeeded(ctx, ev,
		fmt.Sprintf("Codebuild finished: status - %s, %s", in.BuildStatus, in.BuildLogs))
}

// Catch is the fallback for anything outside the expected path.
func (h *Handlers) Catch(ctx context.Context, ev event.Event) Signal {
	h.Logger.Error("starting catch_build", zap.Any("event", ev))
	return h.failed(ctx, ev, ErrUnexpected)
}

// succeeded notifies msg and completes with ev. The signal is fixed before
// the notification is attempted.
func (h *Handlers) succeeded(ctx context.Context, ev event.Event, msg string) Signal {
	sig := Succeed(ev)
	h.notify(ctx, ev, msg)
	return sig
}

// failed notifies err and fails with it.
func (h *Handlers) failed(ctx context.Context, ev event.Event, err error) Signal {
	sig := Fail(ev, err)
	h.notify(ctx, ev, fmt.Sprintf("CODEBUILDER encountered an error: %v", err))
	return sig
}

func (h *Handlers) notify(ctx context.Context, ev event.Event, text string) {
	if ev.Notification == nil || h.Notifier == nil {
		return
	}
	if err := h.Notifier.Notify(ctx, ev.Notification, text); err != nil {
		// Not re-raised: the state machine must act on the build's result,
		// not on whether Slack accepted the reply.
		h.Logger.Warn("notification failed, keeping step outcome", zap.Error(err))
	}
}
