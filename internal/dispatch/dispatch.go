// Package dispatch routes a pipeline event to the handler named by its
// step_name. It performs no build logic of its own.
package dispatch

import (
	"context"

	"go.uber.org/zap"

	"github.com/ariel-frischer/codebuilder/internal/event"
	"github.com/ariel-frischer/codebuilder/internal/steps"
)

// StepHandlers is the set of handlers the dispatcher routes to.
type StepHandlers interface {
	Start(ctx context.Context, ev event.Event, in event.StartInput) steps.Signal
	Wait(ctx context.Context, ev event.Event, in event.WaitInput) steps.Signal
	End(ctx context.Context, ev event.Event, in event.EndInput) steps.Signal
	Catch(ctx context.Context, ev event.Event) steps.Signal
}

var _ StepHandlers = (*steps.Handlers)(nil)

// Dispatcher resolves an event's step and invokes its handler.
type Dispatcher struct {
	handlers StepHandlers
	logger   *zap.Logger
}

// New creates a Dispatcher.
func New(handlers StepHandlers, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		handlers: handlers,
		logger:   logger.Named("dispatch"),
	}
}

// Dispatch runs the step named by ev.StepName, or start_build when it is
// absent. An unknown name fails with *event.MissingStepError and no handler
// runs. A step whose required input is missing goes to catch_build.
func (d *Dispatcher) Dispatch(ctx context.Context, ev event.Event) steps.Signal {
	step, err := ev.Step()
	if err != nil {
		d.logger.Error("event debug",
			zap.String("step_name", ev.StepName),
			zap.Any("event", ev),
			zap.Error(err))
		return steps.Fail(ev, err)
	}

	switch step {
	case event.StepStart:
		return d.handlers.Start(ctx, ev, ev.StartInput())
	case event.StepWait:
		in, err := ev.WaitInput()
		if err != nil {
			return d.precondition(ctx, ev, err)
		}
		return d.handlers.Wait(ctx, ev, in)
	case event.StepEnd:
		in, err := ev.EndInput()
		if err != nil {
			return d.precondition(ctx, ev, err)
		}
		return d.handlers.End(ctx, ev, in)
	case event.StepCatch:
		return d.handlers.Catch(ctx, ev)
	}

	// ParseStep only returns the steps handled above.
	panic("dispatch: unhandled step " + step.String())
}

// Malformed handles an event that could not be fully decoded. Whatever step
// it names, it goes to catch_build so the failure is reported once.
func (d *Dispatcher) Malformed(ctx context.Context, ev event.Event, err error) steps.Signal {
	d.logger.Error("malformed event, routing to catch_build",
		zap.String("step_name", ev.StepName),
		zap.Any("event", ev),
		zap.Error(err))
	return d.handlers.Catch(ctx, ev)
}

func (d *Dispatcher) precondition(ctx context.Context, ev event.Event, err error) steps.Signal {
	d.logger.Error("step input invalid, routing to catch_build",
		zap.String("step_name", ev.StepName),
		zap.Error(err))
	return d.handlers.Catch(ctx, ev)
}
