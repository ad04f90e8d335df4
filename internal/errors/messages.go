package errors

import "fmt"

// Canned errors for the codebuilder CLI.

// PlaceholderAccount reports that the sample AWS account id was never replaced.
func PlaceholderAccount(account string) *CLIError {
	return NewConfigError(
		fmt.Sprintf("account %q is the sample placeholder", account),
		"Set your AWS account id in the config file: account: \"<12 digit id>\"",
		"Or export CODEBUILDER_ACCOUNT=<12 digit id>",
	)
}

// PlaceholderBucket reports that the sample deploy bucket was never replaced.
func PlaceholderBucket(bucket string) *CLIError {
	return NewConfigError(
		fmt.Sprintf("bucket %q is the sample placeholder", bucket),
		"Set the bucket the build deploys to: bucket: <your-bucket>",
		"Or export CODEBUILDER_BUCKET=<your-bucket>",
	)
}

// MissingSetting reports a required config key with no value.
func MissingSetting(key string) *CLIError {
	return NewConfigError(
		fmt.Sprintf("%s is not set", key),
		fmt.Sprintf("Add %s to the config file", key),
		fmt.Sprintf("Or export CODEBUILDER_%s", envName(key)),
		"Show the effective configuration with: codebuilder config show",
	)
}

// EnvFileNotFound reports a missing build environment file.
func EnvFileNotFound(path string) *CLIError {
	return NewPrerequisiteError(
		fmt.Sprintf("env file not found: %s", path),
		"Create a YAML file of NAME: value build overrides (e.g. CI_REPO, CI_SCRIPT_BUILD)",
		"Or point to it with: codebuilder run --env-file <path>",
	)
}

// EnvFileInvalid reports an env file that is not a flat YAML mapping.
func EnvFileInvalid(path string, err error) *CLIError {
	return WrapWithMessage(err, Configuration,
		fmt.Sprintf("invalid env file %s", path),
		"The file must be a flat mapping of NAME: value pairs",
		"Quote values containing ':' or '#'",
	)
}

// ConfigParseError reports a config file that cannot be loaded.
func ConfigParseError(path string, err error) *CLIError {
	return WrapWithMessage(err, Configuration,
		fmt.Sprintf("failed to load config file: %s", path),
		"Check the file for YAML syntax errors",
		"Show the effective configuration with: codebuilder config show",
	)
}

// AWSConfigError reports that the AWS SDK could not resolve credentials or region.
func AWSConfigError(err error) *CLIError {
	return WrapWithMessage(err, Configuration,
		"loading AWS configuration",
		"Configure credentials with: aws configure",
		"Or set AWS_PROFILE / AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY",
	)
}

// ExecutionFailed reports a state machine execution that could not be started
// or whose build could not be located.
func ExecutionFailed(err error) *CLIError {
	return WrapWithMessage(err, Runtime,
		"pipeline run failed",
		"Check the execution in the Step Functions console",
		"Verify the state machine exists: codebuilder definition",
	)
}

// MissingBuildIDs reports a status call without build ids.
func MissingBuildIDs() *CLIError {
	return NewArgumentErrorWithUsage(
		"at least one build id is required",
		"codebuilder status <build-id>...",
		"Build ids look like <project>:<uuid>",
		"Recent ids are listed by: codebuilder history",
	)
}

func envName(key string) string {
	out := make([]rune, 0, len(key))
	for _, r := range key {
		switch {
		case r == '.':
			out = append(out, '_', '_')
		case r >= 'a' && r <= 'z':
			out = append(out, r-'a'+'A')
		default:
			out = append(out, r)
		}
	}
	return string(out)
}
