// Package health runs the pre-flight checks behind 'codebuilder doctor':
// configuration, the env file, the local repository and AWS credentials.
package health

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/ariel-frischer/codebuilder/internal/config"
	"github.com/ariel-frischer/codebuilder/internal/envfile"
	"github.com/ariel-frischer/codebuilder/internal/git"
)

// CheckResult represents the result of a single health check
type CheckResult struct {
	Name    string
	Passed  bool
	Message string
	// Warn marks a failed check that does not block a run.
	Warn bool
}

// HealthReport contains all health check results
type HealthReport struct {
	Checks []CheckResult
	Passed bool
}

// Options selects what RunHealthChecks inspects.
type Options struct {
	Config *config.Configuration
	// ConfigErr is the error from loading Config, reported in its place.
	ConfigErr error
	EnvFile  string
	RepoPath string
	// Credentials is the resolved AWS credential chain. Nil fails the check.
	Credentials aws.CredentialsProvider
}

// RunHealthChecks runs all health checks and returns a report.
func RunHealthChecks(ctx context.Context, opts Options) *HealthReport {
	report := &HealthReport{Passed: true}
	add := func(c CheckResult) {
		report.Checks = append(report.Checks, c)
		if !c.Passed && !c.Warn {
			report.Passed = false
		}
	}

	if opts.ConfigErr != nil {
		add(CheckResult{Name: "Configuration", Message: opts.ConfigErr.Error()})
	} else {
		add(CheckLaunchSettings(opts.Config))
	}
	add(CheckEnvFile(opts.EnvFile))
	add(CheckRepository(opts.RepoPath))
	add(CheckAWSCredentials(ctx, opts.Credentials))
	return report
}

// CheckLaunchSettings verifies the account and bucket are real values.
func CheckLaunchSettings(cfg *config.Configuration) CheckResult {
	const name = "Configuration"
	if cfg == nil {
		return CheckResult{Name: name, Message: "configuration not loaded"}
	}
	if err := cfg.ValidateLaunch(); err != nil {
		return CheckResult{Name: name, Message: err.Error()}
	}
	return CheckResult{Name: name, Passed: true, Message: "state machine " + cfg.StateMachineARN()}
}

// CheckEnvFile verifies the env file exists and parses.
func CheckEnvFile(path string) CheckResult {
	const name = "Env file"
	env, err := envfile.Load(path)
	if err != nil {
		return CheckResult{Name: name, Message: err.Error()}
	}
	names := make([]string, 0, len(env))
	for _, v := range env {
		names = append(names, v.Name)
	}
	msg := fmt.Sprintf("%s (%d overrides)", path, len(env))
	if len(names) > 0 {
		msg = fmt.Sprintf("%s: %s", path, strings.Join(names, ", "))
	}
	return CheckResult{Name: name, Passed: true, Message: msg}
}

// CheckRepository reports the ref that would be built. A missing
// repository only warns, since the env file can name the commit.
func CheckRepository(path string) CheckResult {
	const name = "Git repository"
	ref, err := git.Ref(path)
	if err != nil {
		return CheckResult{Name: name, Warn: true, Message: "no repository found; CI_COMMIT must be set in the env file"}
	}
	return CheckResult{Name: name, Passed: true, Message: "building " + ref}
}

// CheckAWSCredentials resolves credentials once.
func CheckAWSCredentials(ctx context.Context, provider aws.CredentialsProvider) CheckResult {
	const name = "AWS credentials"
	if provider == nil {
		return CheckResult{Name: name, Message: "no credential provider configured"}
	}
	creds, err := provider.Retrieve(ctx)
	if err != nil {
		return CheckResult{Name: name, Message: err.Error()}
	}
	return CheckResult{Name: name, Passed: true, Message: "resolved from " + creds.Source}
}

// FormatReport formats the health report for console output
func FormatReport(report *HealthReport) string {
	var sb strings.Builder
	for _, check := range report.Checks {
		mark := "✗"
		switch {
		case check.Passed:
			mark = "✓"
		case check.Warn:
			mark = "○"
		}
		fmt.Fprintf(&sb, "%s %s: %s\n", mark, check.Name, check.Message)
	}
	return sb.String()
}
