// Package config loads the description of a stage pipeline from a YAML or TOML file.
package config

import (
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/askiada/go-stages/pkg/pipeline/model"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported config format")
	ErrInvalid           = errors.New("invalid config")
)

// Duration is a time.Duration written as "90s" or "10m" in config files.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return errors.Wrapf(err, "invalid duration %q", string(text))
	}
	d.Duration = parsed

	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// User is an entry of the static user directory.
type User struct {
	ID    string `yaml:"id" toml:"id"`
	Email string `yaml:"email" toml:"email"`
	Name  string `yaml:"name" toml:"name"`
}

// Branch is a branch policy entry.
type Branch struct {
	Name               string `yaml:"name" toml:"name"`
	Protected          bool   `yaml:"protected" toml:"protected"`
	BuildHistory       int    `yaml:"build_history" toml:"build_history"`
	AllowRelease       bool   `yaml:"allow_release" toml:"allow_release"`
	AllowFormalRelease bool   `yaml:"allow_formal_release" toml:"allow_formal_release"`
	ReleaseTag         string `yaml:"release_tag" toml:"release_tag"`
}

// Stage is a stage running a shell command.
type Stage struct {
	Name            string            `yaml:"name" toml:"name"`
	Run             string            `yaml:"run" toml:"run"`
	Threshold       string            `yaml:"threshold" toml:"threshold"`
	Skippable       bool              `yaml:"skippable" toml:"skippable"`
	IgnoreSkipAll   bool              `yaml:"ignore_skip_all" toml:"ignore_skip_all"`
	Branches        []string          `yaml:"branches" toml:"branches"`
	Timeout         Duration          `yaml:"timeout" toml:"timeout"`
	Environment     map[string]string `yaml:"environment" toml:"environment"`
	Directory       string            `yaml:"directory" toml:"directory"`
	UnstableOnError bool              `yaml:"unstable_on_error" toml:"unstable_on_error"`
}

// Config describes a pipeline.
type Config struct {
	Job            string            `yaml:"job" toml:"job"`
	BuildNumber    int               `yaml:"build_number" toml:"build_number"`
	Branch         string            `yaml:"branch" toml:"branch"`
	DefaultTimeout Duration          `yaml:"default_timeout" toml:"default_timeout"`
	Environment    map[string]string `yaml:"environment" toml:"environment"`
	BaseDirectory  string            `yaml:"base_directory" toml:"base_directory"`
	Recipients     []string          `yaml:"recipients" toml:"recipients"`
	Admins         []string          `yaml:"admins" toml:"admins"`
	Users          []User            `yaml:"users" toml:"users"`
	Branches       []Branch          `yaml:"branches" toml:"branches"`
	Setup          string            `yaml:"setup" toml:"setup"`
	Stages         []Stage           `yaml:"stages" toml:"stages"`
}

// Load reads the config at path. The format follows the extension: .yaml, .yml or .toml.
// Environment variables override the file:
//   - BRANCH_NAME  overrides branch
//   - JOB_NAME     overrides job
//   - BUILD_NUMBER overrides build_number
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read config %s", path)
	}

	cfg, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, errors.Wrapf(err, "unable to parse config %s", path)
	}

	err = applyEnvOverrides(cfg)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// Parse decodes data written in the format named by ext.
func Parse(data []byte, ext string) (*Config, error) {
	cfg := &Config{}

	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "yaml", "yml":
		err := yaml.Unmarshal(data, cfg)
		if err != nil {
			return nil, errors.Wrap(err, "unable to decode yaml")
		}
	case "toml":
		_, err := toml.Decode(string(data), cfg)
		if err != nil {
			return nil, errors.Wrap(err, "unable to decode toml")
		}
	default:
		return nil, errors.Wrapf(ErrUnsupportedFormat, "%q", ext)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("BRANCH_NAME"); v != "" {
		cfg.Branch = v
	}
	if v := os.Getenv("JOB_NAME"); v != "" {
		cfg.Job = v
	}
	if v := os.Getenv("BUILD_NUMBER"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "invalid BUILD_NUMBER %q", v)
		}
		cfg.BuildNumber = n
	}

	return nil
}

// Validate reports every problem found in the config at once.
func (c *Config) Validate() error {
	problems := []string{}

	if c.Job == "" {
		problems = append(problems, "job must be set")
	}

	users := make(map[string]struct{}, len(c.Users))
	for _, u := range c.Users {
		users[u.ID] = struct{}{}
	}
	for _, id := range c.Admins {
		if _, ok := users[id]; !ok {
			problems = append(problems, "admin "+id+" is not a known user")
		}
	}

	for idx, b := range c.Branches {
		if b.Name == "" {
			problems = append(problems, "branch "+strconv.Itoa(idx)+" has no name")

			continue
		}
		if _, err := regexp.Compile(b.Name); err != nil {
			problems = append(problems, "branch "+b.Name+": "+err.Error())
		}
	}

	seen := make(map[string]struct{}, len(c.Stages))
	for idx, st := range c.Stages {
		switch {
		case st.Name == "":
			problems = append(problems, "stage "+strconv.Itoa(idx)+" has no name")

			continue
		case isReservedStageName(st.Name):
			problems = append(problems, "stage name "+st.Name+" is reserved")
		}
		if _, ok := seen[st.Name]; ok {
			problems = append(problems, "stage "+st.Name+" is defined twice")
		}
		seen[st.Name] = struct{}{}

		if st.Run == "" {
			problems = append(problems, "stage "+st.Name+" has nothing to run")
		}
		if st.Threshold != "" {
			if _, err := model.ParseResult(st.Threshold); err != nil {
				problems = append(problems, "stage "+st.Name+": "+err.Error())
			}
		}
		for _, pattern := range st.Branches {
			if _, err := regexp.Compile(pattern); err != nil {
				problems = append(problems, "stage "+st.Name+" branch "+pattern+": "+err.Error())
			}
		}
	}

	if len(problems) > 0 {
		return errors.Wrap(ErrInvalid, strings.Join(problems, "; "))
	}

	return nil
}

// ResultThreshold returns the parsed threshold of the stage, SUCCESS when unset.
func (s Stage) ResultThreshold() model.Result {
	if s.Threshold == "" {
		return model.ResultSuccess
	}

	r, err := model.ParseResult(s.Threshold)
	if err != nil {
		return model.ResultSuccess
	}

	return r
}

func isReservedStageName(name string) bool {
	switch name {
	case model.SetupStageName, model.CompleteStageName, model.StartStepName, model.EndStepName:
		return true
	}

	return false
}
