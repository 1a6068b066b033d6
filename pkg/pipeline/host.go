package pipeline

import "fmt"

// Parameters exposes the boolean build parameters of the host.
type Parameters interface {
	Bool(name string) bool
}

// ParametersMap is a Parameters backed by a map. Missing keys are false.
type ParametersMap map[string]bool

func (pm ParametersMap) Bool(name string) bool {
	return pm[name]
}

// JobProperties applies branch policy to the job on the host.
type JobProperties interface {
	SetBuildHistory(count int)
	DisableConcurrentBuilds(disable bool)
}

// SkipParameter describes the toggle the host must expose for a skippable stage.
type SkipParameter struct {
	Name        string
	Description string
}

// SkipParameterName is the name of the toggle that skips the stage called stageName.
func SkipParameterName(stageName string) string {
	return "Skip Stage: " + stageName
}

func newSkipParameter(stageName string) SkipParameter {
	return SkipParameter{
		Name:        SkipParameterName(stageName),
		Description: fmt.Sprintf("Don't run the %s stage", stageName),
	}
}

type noParameters struct{}

func (noParameters) Bool(string) bool { return false }

type noJobProperties struct{}

func (noJobProperties) SetBuildHistory(int)          {}
func (noJobProperties) DisableConcurrentBuilds(bool) {}
