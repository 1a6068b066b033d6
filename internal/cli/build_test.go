package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-stages/internal/config"
	"github.com/askiada/go-stages/pkg/pipeline"
	"github.com/askiada/go-stages/pkg/pipeline/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestBuild(t *testing.T, cfg *config.Config, stdout io.Writer) *build {
	t.Helper()

	b, err := newBuild(context.Background(), cfg, discardLogger(), stdout, io.Discard)
	require.NoError(t, err)

	return b
}

func TestBuildPipelineRunsShellStages(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := &config.Config{
		Job:           "app",
		BuildNumber:   1,
		Branch:        "feature/login",
		BaseDirectory: dir,
		Environment:   map[string]string{"TARGET": "dev"},
		Setup:         "mkdir -p out",
		Stages: []config.Stage{
			{Name: "Build", Run: "echo built > build.txt", Directory: "out"},
			{Name: "Test", Run: "exit 1", UnstableOnError: true},
			{Name: "Deploy", Run: "touch deployed.txt"},
			{
				Name:        "Report",
				Run:         `printf "%s" "$TARGET" > target.txt`,
				Threshold:   "UNSTABLE",
				Environment: map[string]string{"TARGET": "prod"},
			},
			{Name: "Release", Run: "touch released.txt", Threshold: "UNSTABLE", Branches: []string{"main", "release/.*"}},
		},
	}

	var stdout bytes.Buffer
	pipe, err := newTestBuild(t, cfg, &stdout).pipeline()
	require.NoError(t, err)

	report, err := pipe.End(context.Background(), pipeline.EndConfig{})
	require.NoError(t, err)
	assert.Equal(t, model.ResultUnstable, report.Result)

	built, err := os.ReadFile(filepath.Join(dir, "out", "build.txt"))
	require.NoError(t, err)
	assert.Equal(t, "built\n", string(built))

	target, err := os.ReadFile(filepath.Join(dir, "target.txt"))
	require.NoError(t, err)
	assert.Equal(t, "prod", string(target))

	assert.NoFileExists(t, filepath.Join(dir, "deployed.txt"))
	assert.NoFileExists(t, filepath.Join(dir, "released.txt"))

	statuses := map[string]model.Status{}
	for _, info := range report.Stages {
		statuses[info.Name] = info.Status
	}
	assert.Equal(t, map[string]model.Status{
		"Setup":    model.StatusSuccess,
		"Build":    model.StatusSuccess,
		"Test":     model.StatusFail,
		"Deploy":   model.StatusSkip,
		"Report":   model.StatusSuccess,
		"Release":  model.StatusSkip,
		"Complete": model.StatusSuccess,
	}, statuses)

	assert.Contains(t, stdout.String(), "[UNSTABLE] app #1")
}

func TestBuildPipelineCommandFailure(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		Job:           "app",
		BaseDirectory: t.TempDir(),
		Stages: []config.Stage{
			{Name: "Build", Run: "exit 3"},
			{Name: "Test", Run: "true"},
		},
	}

	pipe, err := newTestBuild(t, cfg, io.Discard).pipeline()
	require.NoError(t, err)

	report, err := pipe.End(context.Background(), pipeline.EndConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `command "exit 3"`)
	assert.Equal(t, model.ResultFailure, report.Result)
	assert.Equal(t, "Build", report.FirstFailingStage.Name)

	test, ok := report.Stage("Test")
	require.True(t, ok)
	assert.Equal(t, model.StatusSkip, test.Status)
}

func TestNewBuildUnknownAdmin(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{Job: "app", Admins: []string{"ghost-user"}}

	_, err := newBuild(context.Background(), cfg, discardLogger(), io.Discard, io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost-user")
}

func TestBuildPipelineInvalidBranchPattern(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		Job:    "app",
		Stages: []config.Stage{{Name: "Build", Run: "true", Branches: []string{"("}}},
	}

	_, err := newTestBuild(t, cfg, io.Discard).pipeline()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `stage "Build"`)
}

func TestBranchPredicate(t *testing.T) {
	t.Parallel()

	predicate, err := branchPredicate(nil)
	require.NoError(t, err)
	assert.Nil(t, predicate)

	_, err = branchPredicate([]string{"main", "release/(.*"})
	require.Error(t, err)

	tcs := map[string]bool{
		"main":            true,
		"release/1.2":     true,
		"hotfix/1.2":      false,
		"old-release/1.2": false,
	}

	for branchName, want := range tcs {
		branchName, want := branchName, want
		t.Run(branchName, func(t *testing.T) {
			t.Parallel()

			predicate, err := branchPredicate([]string{"main", "release/.*"})
			require.NoError(t, err)

			pipe, err := pipeline.New(pipeline.WithLogger(discardLogger()), pipeline.WithBranch(branchName))
			require.NoError(t, err)

			_, err = pipe.Setup(pipeline.StageConfig{})
			require.NoError(t, err)
			stage, err := pipe.CreateStage(pipeline.StageConfig{
				Name:          "Release",
				Work:          func(context.Context, *pipeline.StageContext) error { return nil },
				ShouldExecute: predicate,
			})
			require.NoError(t, err)

			_, err = pipe.End(context.Background(), pipeline.EndConfig{})
			require.NoError(t, err)

			assert.Equal(t, want, stage.Status() == model.StatusSuccess)
		})
	}
}
