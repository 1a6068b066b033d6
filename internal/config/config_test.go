package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-stages/internal/config"
	"github.com/askiada/go-stages/pkg/pipeline/model"
)

const yamlConfig = `
job: app
build_number: 7
branch: main
default_timeout: 10m
environment:
  GOFLAGS: -mod=mod
base_directory: /work
recipients: [dev@example.com]
admins: [alice]
users:
  - id: alice
    email: alice@example.com
    name: Alice
branches:
  - name: main
    protected: true
    build_history: 50
  - name: release/.*
    protected: true
    allow_release: true
    release_tag: rc
setup: make deps
stages:
  - name: Build
    run: make build
  - name: Test
    run: make test
    threshold: unstable
    unstable_on_error: true
    timeout: 90s
  - name: Publish
    run: make publish
    skippable: true
    branches: [main, release/.*]
    directory: dist
    environment:
      TARGET: prod
  - name: Cleanup
    run: make clean
    threshold: FAILURE
    ignore_skip_all: true
`

const tomlConfig = `
job = "app"
branch = "develop"
default_timeout = "5m"
setup = "make deps"

[[branches]]
name = "develop"
build_history = 10

[[stages]]
name = "Build"
run = "make build"
timeout = "30s"

[[stages]]
name = "Lint"
run = "make lint"
skippable = true
`

func TestParseYAML(t *testing.T) {
	t.Parallel()

	cfg, err := config.Parse([]byte(yamlConfig), ".yaml")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "app", cfg.Job)
	assert.Equal(t, 7, cfg.BuildNumber)
	assert.Equal(t, 10*time.Minute, cfg.DefaultTimeout.Duration)
	assert.Equal(t, map[string]string{"GOFLAGS": "-mod=mod"}, cfg.Environment)
	assert.Equal(t, []config.User{{ID: "alice", Email: "alice@example.com", Name: "Alice"}}, cfg.Users)

	require.Len(t, cfg.Branches, 2)
	assert.Equal(t, config.Branch{Name: "main", Protected: true, BuildHistory: 50}, cfg.Branches[0])
	assert.Equal(t, "rc", cfg.Branches[1].ReleaseTag)

	require.Len(t, cfg.Stages, 4)
	test := cfg.Stages[1]
	assert.Equal(t, 90*time.Second, test.Timeout.Duration)
	assert.True(t, test.UnstableOnError)
	assert.Equal(t, model.ResultUnstable, test.ResultThreshold())

	publish := cfg.Stages[2]
	assert.True(t, publish.Skippable)
	assert.Equal(t, []string{"main", "release/.*"}, publish.Branches)
	assert.Equal(t, "dist", publish.Directory)
	assert.Equal(t, map[string]string{"TARGET": "prod"}, publish.Environment)
	assert.Equal(t, model.ResultSuccess, publish.ResultThreshold())

	cleanup := cfg.Stages[3]
	assert.True(t, cleanup.IgnoreSkipAll)
	assert.Equal(t, model.ResultFailure, cleanup.ResultThreshold())
}

func TestParseTOML(t *testing.T) {
	t.Parallel()

	cfg, err := config.Parse([]byte(tomlConfig), "toml")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "develop", cfg.Branch)
	assert.Equal(t, 5*time.Minute, cfg.DefaultTimeout.Duration)
	assert.Equal(t, "make deps", cfg.Setup)
	require.Len(t, cfg.Branches, 1)
	assert.Equal(t, 10, cfg.Branches[0].BuildHistory)
	require.Len(t, cfg.Stages, 2)
	assert.Equal(t, 30*time.Second, cfg.Stages[0].Timeout.Duration)
	assert.True(t, cfg.Stages[1].Skippable)
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	_, err := config.Parse([]byte(`{}`), ".json")
	require.ErrorIs(t, err, config.ErrUnsupportedFormat)

	_, err = config.Parse([]byte("stages: ["), ".yml")
	require.Error(t, err)

	_, err = config.Parse([]byte(`default_timeout = "soon"`), ".toml")
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		Admins:   []string{"ghost-user"},
		Branches: []config.Branch{{Name: ""}, {Name: "release/(.*"}},
		Stages: []config.Stage{
			{Name: "Build", Run: "make"},
			{Name: "Build", Run: "make"},
			{Name: "Setup", Run: "make"},
			{Name: "Test", Threshold: "sometimes"},
			{Name: "Docs", Run: "make docs", Branches: []string{"["}},
			{Run: "make"},
			{Name: "end", Run: "make"},
			{Name: "start", Run: "make"},
		},
	}

	err := cfg.Validate()
	require.ErrorIs(t, err, config.ErrInvalid)

	for _, problem := range []string{
		"job must be set",
		"admin ghost-user is not a known user",
		"branch 0 has no name",
		"branch release/(.*",
		"stage Build is defined twice",
		"stage name Setup is reserved",
		"stage name end is reserved",
		"stage name start is reserved",
		"stage Test has nothing to run",
		"stage Test: ",
		"stage Docs branch [",
		"stage 5 has no name",
	} {
		assert.Contains(t, err.Error(), problem)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stages.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlConfig), 0o600))

	t.Setenv("BRANCH_NAME", "release/1.2")
	t.Setenv("JOB_NAME", "app-release")
	t.Setenv("BUILD_NUMBER", "42")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "release/1.2", cfg.Branch)
	assert.Equal(t, "app-release", cfg.Job)
	assert.Equal(t, 42, cfg.BuildNumber)
}

func TestLoadInvalidBuildNumber(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stages.toml")
	require.NoError(t, os.WriteFile(path, []byte(tomlConfig), 0o600))

	t.Setenv("BUILD_NUMBER", "latest")

	_, err := config.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BUILD_NUMBER")
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
