package steps

import (
	"context"
	"sync"

	"github.com/ariel-frischer/codebuilder/internal/codebuild"
	"github.com/ariel-frischer/codebuilder/internal/notify"
)

// fakeBuilds implements BuildService for testing
type fakeBuilds struct {
	mu sync.Mutex

	started  *codebuild.Build
	startErr error
	startEnv [][]codebuild.EnvVar

	got    *codebuild.Build
	getErr error
	getIDs []string
}

func (f *fakeBuilds) StartBuild(_ context.Context, env []codebuild.EnvVar) (*codebuild.Build, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.startEnv = append(f.startEnv, env)
	if f.startErr != nil {
		return nil, f.startErr
	}
	return f.started, nil
}

func (f *fakeBuilds) GetBuild(_ context.Context, id string) (*codebuild.Build, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getIDs = append(f.getIDs, id)
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.got, nil
}

// recordingNotifier implements Notifier for testing
type recordingNotifier struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (r *recordingNotifier) Notify(_ context.Context, nctx *notify.Context, text string) error {
	if nctx == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, text)
	return r.err
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.texts)
}
