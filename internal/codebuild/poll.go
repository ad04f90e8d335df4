package codebuild

import (
	"context"
	"fmt"
)

// PollState is the outcome of a single status check.
type PollState int

const (
	// PollPending means the build is still running.
	PollPending PollState = iota
	// PollDone means the build reached a terminal status.
	PollDone
	// PollError means the status could not be read.
	PollError
)

func (s PollState) String() string {
	switch s {
	case PollPending:
		return "pending"
	case PollDone:
		return "done"
	case PollError:
		return "error"
	default:
		return fmt.Sprintf("PollState(%d)", int(s))
	}
}

// PollResult is Done(status), Pending or Failed(err). Only the constructors
// below build it, so exactly one of Status and Err is meaningful.
type PollResult struct {
	State  PollState
	Status Status
	Err    error
}

func Done(status Status) PollResult { return PollResult{State: PollDone, Status: status} }
func Pending() PollResult           { return PollResult{State: PollPending, Status: StatusInProgress} }
func Failed(err error) PollResult   { return PollResult{State: PollError, Err: err} }

// Getter fetches a build by id.
type Getter interface {
	GetBuild(ctx context.Context, id string) (*Build, error)
}

// Poll checks the status of build id once.
func Poll(ctx context.Context, g Getter, id string) PollResult {
	b, err := g.GetBuild(ctx, id)
	if err != nil {
		return Failed(err)
	}
	if b == nil {
		return Failed(&BuildNotFoundError{ID: id})
	}
	if !b.Status.Terminal() {
		return Pending()
	}
	return Done(b.Status)
}
