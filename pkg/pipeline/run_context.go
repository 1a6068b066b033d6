package pipeline

import (
	"sync"

	"github.com/askiada/go-stages/pkg/pipeline/model"
)

// RunContext is the state shared across the stages of one run.
//
// The aggregate result only ever gets worse and the skip-all flag, once set, stays set.
// Stage bodies may run on their own goroutine, hence the lock.
type RunContext struct {
	mu       sync.Mutex
	result   model.Result
	skipAll  bool
	branch   string
	setupRan bool
}

func newRunContext(branch string) *RunContext {
	return &RunContext{
		result: model.ResultSuccess,
		branch: branch,
	}
}

// Result is the worst result recorded so far.
func (rc *RunContext) Result() model.Result {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	return rc.result
}

// SetResult downgrades the aggregate result. Better results than the current one are ignored.
func (rc *RunContext) SetResult(result model.Result) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.result = model.Worst(rc.result, result)
}

// SkipAll reports whether remaining stages were asked to skip.
func (rc *RunContext) SkipAll() bool {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	return rc.skipAll
}

// SkipRemainingStages asks every following stage to skip unless it ignores skip-all.
func (rc *RunContext) SkipRemainingStages() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.skipAll = true
}

// Branch is the branch being built.
func (rc *RunContext) Branch() string {
	return rc.branch
}

func (rc *RunContext) setupSucceeded() bool {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	return rc.setupRan
}

func (rc *RunContext) markSetupSucceeded() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.setupRan = true
}
