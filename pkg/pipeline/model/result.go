package model

import (
	"strings"

	"github.com/pkg/errors"
)

// Result is the aggregate outcome of a pipeline run.
// Results are ordered from best to worst, a higher value is worse.
type Result int

const (
	// ResultSuccess means every stage ran cleanly.
	ResultSuccess Result = iota
	// ResultUnstable means the run completed but something needs attention, usually tests.
	ResultUnstable
	// ResultFailure means a stage failed.
	ResultFailure
	// ResultNotBuilt means the run stopped before building anything.
	ResultNotBuilt
	// ResultAborted means the run was cancelled.
	ResultAborted
)

// ErrUnknownResult is returned when a result name cannot be parsed.
var ErrUnknownResult = errors.New("unknown result")

var resultNames = map[Result]string{
	ResultSuccess:  "SUCCESS",
	ResultUnstable: "UNSTABLE",
	ResultFailure:  "FAILURE",
	ResultNotBuilt: "NOT_BUILT",
	ResultAborted:  "ABORTED",
}

func (r Result) String() string {
	if name, ok := resultNames[r]; ok {
		return name
	}

	return "UNKNOWN"
}

// IsWorseThan reports whether r is strictly worse than other.
func (r Result) IsWorseThan(other Result) bool {
	return r > other
}

// IsWorseOrEqualTo reports whether r is worse than or equal to other.
func (r Result) IsWorseOrEqualTo(other Result) bool {
	return r >= other
}

// Worst returns the worse of the two results.
func Worst(a, b Result) Result {
	if a.IsWorseThan(b) {
		return a
	}

	return b
}

// ParseResult converts a result name such as "UNSTABLE" into a Result.
// The match is case insensitive.
func ParseResult(name string) (Result, error) {
	for r, n := range resultNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return r, nil
		}
	}

	return ResultSuccess, errors.Wrapf(ErrUnknownResult, "%q", name)
}
