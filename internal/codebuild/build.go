// Package codebuild adapts the AWS CodeBuild API to the build records used by
// the pipeline steps. Every call is stateless: records are rebuilt from the
// service on each request and only survive between steps through the event.
package codebuild

import (
	"fmt"
	"strings"
)

// Status is the build status reported by CodeBuild.
type Status string

const (
	StatusInProgress Status = "IN_PROGRESS"
	StatusSucceeded  Status = "SUCCEEDED"
	StatusFailed     Status = "FAILED"
	StatusFault      Status = "FAULT"
	StatusTimedOut   Status = "TIMED_OUT"
	StatusStopped    Status = "STOPPED"
)

// Terminal reports whether the build has finished. Any status other than
// IN_PROGRESS is terminal, including values this package does not name.
func (s Status) Terminal() bool {
	return s != StatusInProgress
}

// Succeeded reports whether the build finished successfully.
func (s Status) Succeeded() bool {
	return s == StatusSucceeded
}

// EnvVar is a single environment override passed to the build.
type EnvVar struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// Build is the normalized build record.
type Build struct {
	ID     string
	Status Status
	// Logs links to the log viewer for this build.
	Logs string
}

// BuildNotFoundError is returned when the service has no build for an id.
type BuildNotFoundError struct {
	ID string
}

func (e *BuildNotFoundError) Error() string {
	return fmt.Sprintf("build not found: %s", e.ID)
}

// streamID returns the log stream of a build: the second colon-delimited
// segment of "<project>:<uuid>". Ids without a colon are used whole.
func streamID(buildID string) string {
	parts := strings.Split(buildID, ":")
	if len(parts) < 2 {
		return buildID
	}
	return parts[1]
}

// LogsURL returns the CloudWatch log viewer link for a build.
func LogsURL(region, project, buildID string) string {
	return fmt.Sprintf(
		"https://%s.console.aws.amazon.com/cloudwatch/home?region=%s#logEventViewer:group=/aws/codebuild/%s;stream=%s",
		region, region, project, streamID(buildID))
}

// ConsoleURL returns the CodeBuild console link for a build.
func ConsoleURL(region, buildID string) string {
	return fmt.Sprintf(
		"https://%s.console.aws.amazon.com/codebuild/home?region=%s#/builds/%s/view/new",
		region, region, buildID)
}
